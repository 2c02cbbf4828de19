package lifecycle

import (
	"errors"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/audit"
	"github.com/Effectys/rmrp-army-bot/pkg/store"
)

// SubmitTimeoff files a time-off report. Contract service only; one approved
// report per MSK calendar day.
func (e *Engine) SubmitTimeoff(userID, period, reason string) (*models.TimeoffRequest, error) {
	m, err := e.memberWithStatic(userID)
	if err != nil {
		return nil, err
	}
	if !e.gate.HasRank(m, global.RankSeniorSergeant) {
		return nil, &PermissionError{MinRank: global.RankSeniorSergeant}
	}
	if open, err := e.store.OpenTimeoffRequest(userID); err == nil {
		return nil, &OpenRequestError{ExistingID: open.ID}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	used, err := e.store.HasApprovedTimeoffSince(userID, startOfDayMSK(e.now()))
	if err != nil {
		return nil, err
	}
	if used {
		return nil, &QuotaError{Reason: "Вам уже одобрили отгул сегодня. Следующий можно получить завтра."}
	}

	id, err := e.store.NextID("timeoff_requests")
	if err != nil {
		return nil, err
	}
	req := &models.TimeoffRequest{
		ID:       id,
		UserID:   userID,
		Status:   models.StatusPending,
		FullName: m.FullName(),
		Static:   derefInt64(m.Static),
		Period:   period,
		Reason:   reason,
	}
	if err := e.store.Create(req); err != nil {
		return nil, err
	}
	e.metrics.Created("timeoff")
	e.logger.Info("timeoff request created",
		"request_id", id,
		"user_id", userID,
	)
	return req, nil
}

// ReviewTimeoff records the decision on a time-off report.
func (e *Engine) ReviewTimeoff(actorID string, id int64, approve bool) (*models.TimeoffRequest, error) {
	req, err := e.store.TimeoffRequest(id)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		e.metrics.AlreadyHandled("timeoff")
		return nil, ErrAlreadyHandled
	}
	if !e.claims.TryClaim(StageTimeoffReview, id) {
		e.metrics.AlreadyHandled("timeoff")
		return nil, ErrAlreadyHandled
	}
	actor, err := e.actor(actorID)
	if err != nil {
		e.claims.Release(StageTimeoffReview, id)
		return nil, err
	}
	if !e.gate.HasRank(actor, global.RankMajor) {
		e.claims.Release(StageTimeoffReview, id)
		return nil, &PermissionError{MinRank: global.RankMajor}
	}
	if approve {
		req.Status = models.StatusApproved
	} else {
		req.Status = models.StatusRejected
	}
	req.ReviewerID = actorID
	req.ReviewedAt = timePtr(e.now())
	if err := e.store.Save(req); err != nil {
		return nil, err
	}
	if approve {
		e.metrics.Reviewed("timeoff", "approved")
		e.notifier.Notify(req.UserID, audit.Notice{
			Title:       "✅ Отгул одобрен",
			Description: "Ваш отгул на период «" + req.Period + "» одобрен.",
			Color:       0x57F287,
		})
	} else {
		e.metrics.Reviewed("timeoff", "rejected")
		e.notifier.Notify(req.UserID, audit.Notice{
			Title:       "❌ Отгул отклонён",
			Description: "Ваш запрос на отгул был отклонён.",
			Color:       0xED4245,
		})
	}
	return req, nil
}

// CancelTimeoff lets the requester withdraw their own pending report.
func (e *Engine) CancelTimeoff(userID string, id int64) (*models.TimeoffRequest, error) {
	req, err := e.store.TimeoffRequest(id)
	if err != nil {
		return nil, err
	}
	if req.UserID != userID {
		return nil, &PermissionError{MinRank: -1, Reason: "not the requester"}
	}
	if req.Status.Terminal() {
		e.metrics.AlreadyHandled("timeoff")
		return nil, ErrAlreadyHandled
	}
	if !e.claims.TryClaim(StageTimeoffReview, id) {
		e.metrics.AlreadyHandled("timeoff")
		return nil, ErrAlreadyHandled
	}
	req.Status = models.StatusCancelled
	req.ReviewedAt = timePtr(e.now())
	if err := e.store.Save(req); err != nil {
		return nil, err
	}
	e.metrics.Reviewed("timeoff", "cancelled")
	return req, nil
}
