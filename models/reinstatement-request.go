package models

import "time"

// ReinstatementRequest is a former member asking to rejoin at a rank. Review
// happens in two steps: accept (candidate roles go on) and a final rank
// grant, so the request keeps an intermediate ACCEPTED status.
type ReinstatementRequest struct {
	ID     int64  `gorm:"primaryKey;autoIncrement:false"`
	UserID string `gorm:"index;not null"`
	Status Status `gorm:"index;not null"`

	FullName      string
	Static        int64
	DocumentsLink string
	ArmyPassLink  string

	// Rank ordinal granted at the final step.
	GrantedRank *int

	MessageID  string
	ReviewerID string
	ReviewedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
