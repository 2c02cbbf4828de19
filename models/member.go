package models

import (
	"fmt"
	"strings"
	"time"
)

// Member is the persisted service record of a guild member. Dismissal nulls
// Rank/Division/Position but never deletes the row, so tenure and blacklist
// history survive re-enrollment.
type Member struct {
	ID        uint   `gorm:"primaryKey"`
	DiscordID string `gorm:"uniqueIndex;not null"`

	Static    *int64
	FirstName string
	LastName  string

	Rank     *int
	Division *int
	Position *string

	InvitedAt    *time.Time
	LastSupplyAt *time.Time

	Blacklist *Blacklist `gorm:"embedded;embeddedPrefix:blacklist_"`

	// Set when the record was written by the startup sync rather than an
	// approved request; such records are not overwritten by later syncs.
	PreInited bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Blacklist is an active or expired case attached to a member. EndsAt nil
// means indefinite.
type Blacklist struct {
	InitiatorID string
	Reason      string
	Evidence    string
	EndsAt      *time.Time
	IssuedAt    time.Time
}

// Enrolled reports whether the member currently serves, i.e. holds a rank.
func (m *Member) Enrolled() bool {
	return m != nil && m.Rank != nil
}

// FullName returns "First Last", or the bare half when one part is missing.
func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// ShortName returns "F. Last", the fallback when a full nickname overflows.
func (m *Member) ShortName() string {
	if m.FirstName == "" {
		return m.LastName
	}
	first := []rune(m.FirstName)
	return strings.TrimSpace(string(first[:1]) + ". " + m.LastName)
}

// SetFullName splits "First Last" into the name fields.
func (m *Member) SetFullName(full string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
	case 1:
		m.FirstName = parts[0]
		m.LastName = ""
	default:
		m.FirstName = parts[0]
		m.LastName = strings.Join(parts[1:], " ")
	}
}

// ActiveBlacklist returns the blacklist case when it is still in force.
func (m *Member) ActiveBlacklist(now time.Time) *Blacklist {
	if m == nil || m.Blacklist == nil {
		return nil
	}
	if m.Blacklist.EndsAt == nil || m.Blacklist.EndsAt.After(now) {
		return m.Blacklist
	}
	return nil
}

// FormatStatic renders a static id as the in-game "XXX-XXX" form.
func FormatStatic(static *int64) string {
	if static == nil {
		return "???-???"
	}
	s := fmt.Sprintf("%d", *static)
	if len(s) <= 3 {
		return s
	}
	return s[:len(s)-3] + "-" + s[len(s)-3:]
}
