package models

import "strings"

// Privilege orders positions within a division. Officers and above review
// division-scoped requests.
type Privilege int

const (
	PrivilegeDefault         Privilege = 1
	PrivilegeOfficer         Privilege = 2
	PrivilegeDeputyCommander Privilege = 3
	PrivilegeCommander       Privilege = 4
)

// Division is a unit of the brigade. Seeded from config at migration time and
// served from the in-memory registry afterwards.
type Division struct {
	ID                int    `gorm:"primaryKey" yaml:"id"`
	Name              string `gorm:"not null" yaml:"name"`
	Abbreviation      string `gorm:"uniqueIndex;not null" yaml:"abbreviation"`
	RoleID            string `yaml:"roleId"`
	TransferChannelID string `yaml:"transferChannelId"`
	Description       string `yaml:"description"`
	Emoji             string `yaml:"emoji"`

	Positions []Position `gorm:"foreignKey:DivisionID" yaml:"positions"`
}

// Position is a post inside a division, ordered from most to least senior.
type Position struct {
	ID         uint      `gorm:"primaryKey" yaml:"-"`
	DivisionID int       `gorm:"index" yaml:"-"`
	Name       string    `gorm:"not null" yaml:"name"`
	RoleID     string    `yaml:"roleId"`
	Privilege  Privilege `gorm:"not null" yaml:"privilege"`
}

// PositionByName finds a position by case-insensitive name.
func (d *Division) PositionByName(name string) (Position, bool) {
	for _, p := range d.Positions {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Position{}, false
}

// LowestPosition returns the most junior position, the one new transfers get.
func (d *Division) LowestPosition() (Position, bool) {
	if len(d.Positions) == 0 {
		return Position{}, false
	}
	return d.Positions[len(d.Positions)-1], true
}

// OfficerRoleIDs returns role ids of positions with at least the given
// privilege, used for review pings.
func (d *Division) OfficerRoleIDs(min Privilege) []string {
	var ids []string
	for _, p := range d.Positions {
		if p.Privilege >= min && p.RoleID != "" {
			ids = append(ids, p.RoleID)
		}
	}
	return ids
}
