package models

import "time"

// DismissalType distinguishes why a dismissal was filed.
type DismissalType string

const (
	// Voluntary dismissal, "по собственному желанию".
	DismissalPSZh DismissalType = "PSZH"
	// Dismissal to transfer into another state faction.
	DismissalTransfer DismissalType = "TRANSFER"
	// Filed by the bot when an enrolled member leaves the guild.
	DismissalAuto DismissalType = "AUTO"
)

// DismissalRequest carries a snapshot of the member's standing at filing
// time, so the review embed stays correct even after the record changes.
type DismissalRequest struct {
	ID     int64         `gorm:"primaryKey;autoIncrement:false"`
	UserID string        `gorm:"index;not null"`
	Type   DismissalType `gorm:"not null"`
	Status Status        `gorm:"index;not null"`

	FullName   string
	Static     int64
	RankIndex  int
	DivisionID *int
	Position   *string
	Reason     string

	// Set on approval when tenure fell under the minimum service term.
	PenaltyApplied bool

	MessageID  string
	ReviewerID string
	ReviewedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
