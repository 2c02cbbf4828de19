package models

// Counter backs the per-kind request id sequences. Incremented and read in a
// single transaction so concurrent submissions never share an id.
type Counter struct {
	Name  string `gorm:"primaryKey"`
	Value int64  `gorm:"not null"`
}
