package models

import "time"

// TransferRequest moves a member between divisions. When the old division has
// reviewable positions it gets the first look; the new division always signs
// off last.
type TransferRequest struct {
	ID     int64  `gorm:"primaryKey;autoIncrement:false"`
	UserID string `gorm:"index;not null"`
	Status Status `gorm:"index;not null"`

	OldDivisionID *int
	NewDivisionID int `gorm:"not null"`

	FullName   string
	Static     int64
	NameAge    string
	Timezone   string
	OnlineTime string
	Motivation string

	OldReviewerID string
	NewReviewerID string
	RejectReason  string

	MessageID  string
	ReviewedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
