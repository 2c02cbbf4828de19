package models

import "time"

// RoleKind selects which entry role a RoleRequest asks for.
type RoleKind string

const (
	RoleKindArmy         RoleKind = "ARMY"
	RoleKindSupplyAccess RoleKind = "SUPPLY_ACCESS"
	RoleKindGovEmployee  RoleKind = "GOV_EMPLOYEE"
)

// RoleRequest is an application for an entry role. The ARMY kind enrolls the
// applicant as a private of the base division; the other kinds only attach a
// marker role and a faction nickname.
type RoleRequest struct {
	ID     int64    `gorm:"primaryKey;autoIncrement:false"`
	UserID string   `gorm:"index;not null"`
	Kind   RoleKind `gorm:"not null"`
	Status Status   `gorm:"index;not null"`

	FullName string
	Static   int64
	// Faction and post, filled for non-army kinds.
	Faction      string
	RankPosition string
	// Why the applicant wants the role, army kind only.
	Purpose         string
	CertificateLink string

	MessageID  string
	ReviewerID string
	ReviewedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
