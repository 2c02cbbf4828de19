package models

import "time"

// TimeoffRequest asks to be excused from duty for a period. One approval per
// MSK calendar day per member.
type TimeoffRequest struct {
	ID     int64  `gorm:"primaryKey;autoIncrement:false"`
	UserID string `gorm:"index;not null"`
	Status Status `gorm:"index;not null"`

	FullName string
	Static   int64
	Period   string
	Reason   string

	MessageID  string
	ReviewerID string
	ReviewedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
