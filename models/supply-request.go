package models

import "time"

// Items maps catalogue item name to requested quantity.
type Items map[string]int

// SupplyRequest is a storage requisition. It starts as a DRAFT cart the
// requester edits, becomes PENDING on submit and is reviewed by command.
type SupplyRequest struct {
	ID     int64  `gorm:"primaryKey;autoIncrement:false"`
	UserID string `gorm:"index;not null"`
	Status Status `gorm:"index;not null"`

	FullName string
	Static   int64
	Items    Items `gorm:"serializer:json"`

	MessageID  string
	ReviewerID string
	ReviewedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Total returns the summed quantity across all items.
func (s *SupplyRequest) Total() int {
	total := 0
	for _, qty := range s.Items {
		total += qty
	}
	return total
}
