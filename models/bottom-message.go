package models

// BottomMessage remembers the interactive message pinned to the bottom of a
// workflow channel, one per channel, so refreshes can delete the old copy.
type BottomMessage struct {
	ChannelID string `gorm:"primaryKey"`
	MessageID string `gorm:"not null"`
}
