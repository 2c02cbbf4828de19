package store

import (
	"time"

	"github.com/Effectys/rmrp-army-bot/models"
	"gorm.io/gorm"
)

func byID[T any](db *gorm.DB, id int64) (*T, error) {
	var v T
	if err := db.First(&v, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &v, nil
}

func openFor[T any](db *gorm.DB, userID string, statuses ...models.Status) (*T, error) {
	var v T
	err := db.
		Where("user_id = ? AND status IN ?", userID, statuses).
		First(&v).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &v, nil
}

func (s *Store) RoleRequest(id int64) (*models.RoleRequest, error) {
	return byID[models.RoleRequest](s.db, id)
}

func (s *Store) TransferRequest(id int64) (*models.TransferRequest, error) {
	return byID[models.TransferRequest](s.db, id)
}

func (s *Store) DismissalRequest(id int64) (*models.DismissalRequest, error) {
	return byID[models.DismissalRequest](s.db, id)
}

func (s *Store) ReinstatementRequest(id int64) (*models.ReinstatementRequest, error) {
	return byID[models.ReinstatementRequest](s.db, id)
}

func (s *Store) TimeoffRequest(id int64) (*models.TimeoffRequest, error) {
	return byID[models.TimeoffRequest](s.db, id)
}

func (s *Store) SupplyRequest(id int64) (*models.SupplyRequest, error) {
	return byID[models.SupplyRequest](s.db, id)
}

// Open-request lookups back the soft one-open-request-per-member rule. They
// return ErrNotFound when the member has nothing in flight.

func (s *Store) OpenRoleRequest(userID string) (*models.RoleRequest, error) {
	return openFor[models.RoleRequest](s.db, userID, models.StatusPending)
}

func (s *Store) OpenTransferRequest(userID string) (*models.TransferRequest, error) {
	return openFor[models.TransferRequest](s.db, userID,
		models.StatusOldDivisionReview, models.StatusNewDivisionReview)
}

func (s *Store) OpenDismissalRequest(userID string) (*models.DismissalRequest, error) {
	return openFor[models.DismissalRequest](s.db, userID, models.StatusPending)
}

func (s *Store) OpenReinstatementRequest(userID string) (*models.ReinstatementRequest, error) {
	return openFor[models.ReinstatementRequest](s.db, userID,
		models.StatusPending, models.StatusAccepted)
}

func (s *Store) OpenTimeoffRequest(userID string) (*models.TimeoffRequest, error) {
	return openFor[models.TimeoffRequest](s.db, userID, models.StatusPending)
}

func (s *Store) PendingSupplyRequest(userID string) (*models.SupplyRequest, error) {
	return openFor[models.SupplyRequest](s.db, userID, models.StatusPending)
}

func (s *Store) DraftSupplyRequest(userID string) (*models.SupplyRequest, error) {
	return openFor[models.SupplyRequest](s.db, userID, models.StatusDraft)
}

// PendingSupplyRequestsExcept lists the member's other PENDING requisitions,
// the ones auto-rejected when one of them is approved.
func (s *Store) PendingSupplyRequestsExcept(userID string, exceptID int64) ([]models.SupplyRequest, error) {
	var out []models.SupplyRequest
	err := s.db.
		Where("user_id = ? AND status = ? AND id <> ?",
			userID, models.StatusPending, exceptID).
		Find(&out).Error
	return out, err
}

// HasApprovedTimeoffSince reports whether the member already had a time-off
// approved at or after the given instant, the daily quota check.
func (s *Store) HasApprovedTimeoffSince(userID string, since time.Time) (bool, error) {
	var n int64
	err := s.db.Model(&models.TimeoffRequest{}).
		Where("user_id = ? AND status = ? AND reviewed_at >= ?",
			userID, models.StatusApproved, since).
		Count(&n).Error
	return n > 0, err
}
