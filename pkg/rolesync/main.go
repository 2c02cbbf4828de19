// Package rolesync derives the desired role set and nickname of a member
// from their persisted record. All transforms are pure list operations over
// role id snowflakes, so applying them twice changes nothing.
package rolesync

import (
	"strings"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/models"
)

// NicknameLimit is the platform cap on nickname length, in characters.
const NicknameLimit = 32

// Facts is the part of a service record the guild roles mirror.
type Facts struct {
	Rank     *int
	Division *int
	Position *string
}

// Apply reconciles the full role set: division first, then rank, then
// position, so position roles win any overlap.
func Apply(roles []string, divisions []models.Division, cfg *global.Config, f Facts) []string {
	roles = ApplyDivision(roles, divisions, f.Division)
	roles = ApplyRank(roles, cfg, f.Rank)
	roles = ApplyPosition(roles, divisions, f.Division, f.Position)
	return roles
}

// ApplyDivision strips every division role and adds the target one.
func ApplyDivision(roles []string, divisions []models.Division, divisionID *int) []string {
	remove := make(map[string]struct{}, len(divisions))
	var add []string
	for i := range divisions {
		d := &divisions[i]
		if d.RoleID == "" {
			continue
		}
		remove[d.RoleID] = struct{}{}
		if divisionID != nil && d.ID == *divisionID {
			add = append(add, d.RoleID)
		}
	}
	return applyChanges(roles, remove, add)
}

// ApplyRank strips every rank role and command marker, then adds the target
// rank role plus the markers its ordinal earns: contract service from senior
// sergeant, brigade HQ and the deputy unit commander marker for a major,
// brigade and general HQ plus the unit commander marker from lieutenant
// colonel up. A nil rank leaves only the strip, the dismissal case.
func ApplyRank(roles []string, cfg *global.Config, rank *int) []string {
	remove := make(map[string]struct{})
	for _, id := range cfg.RankRoleIDs() {
		if id != "" {
			remove[id] = struct{}{}
		}
	}
	for _, id := range []string{
		cfg.Roles.Military,
		cfg.Roles.Contract,
		cfg.Roles.MilitaryAcademy,
		cfg.Roles.BrigadeHQ,
		cfg.Roles.GeneralHQ,
		cfg.Roles.UnitCommander,
		cfg.Roles.UnitDeputyCommander,
	} {
		if id != "" {
			remove[id] = struct{}{}
		}
	}

	var add []string
	if rank != nil {
		if id := cfg.Ranks[clamp(*rank, len(cfg.Ranks))].RoleID; id != "" {
			add = append(add, id)
		}
		add = appendID(add, cfg.Roles.Military)
		if *rank == global.RankPrivate {
			add = appendID(add, cfg.Roles.MilitaryAcademy)
		}
		if *rank >= global.RankSeniorSergeant {
			add = appendID(add, cfg.Roles.Contract)
		}
		switch {
		case *rank >= global.RankLieutenantColonel:
			add = appendID(add, cfg.Roles.BrigadeHQ)
			add = appendID(add, cfg.Roles.GeneralHQ)
			add = appendID(add, cfg.Roles.UnitCommander)
		case *rank == global.RankMajor:
			add = appendID(add, cfg.Roles.BrigadeHQ)
			add = appendID(add, cfg.Roles.UnitDeputyCommander)
		}
	}
	return applyChanges(roles, remove, add)
}

// ApplyPosition strips position roles across every division and adds the one
// matching the member's position inside their own division.
func ApplyPosition(roles []string, divisions []models.Division, divisionID *int, position *string) []string {
	remove := make(map[string]struct{})
	var add []string
	for i := range divisions {
		d := &divisions[i]
		for _, p := range d.Positions {
			if p.RoleID == "" {
				continue
			}
			remove[p.RoleID] = struct{}{}
			if divisionID != nil && position != nil &&
				d.ID == *divisionID && strings.EqualFold(p.Name, *position) {
				add = append(add, p.RoleID)
			}
		}
	}
	return applyChanges(roles, remove, add)
}

// Nickname renders "АББР | Звание | Имя Фамилия", falling back to the short
// name and finally hard truncation to fit the platform limit. A member
// without a rank gets the dismissed form.
func Nickname(cfg *global.Config, div *models.Division, m *models.Member) string {
	if !m.Enrolled() {
		return truncate("Уволен | "+m.FullName(), NicknameLimit)
	}
	var parts []string
	if div != nil && div.Abbreviation != "" {
		parts = append(parts, div.Abbreviation)
	}
	if short := cfg.RankShort(*m.Rank); short != "" {
		parts = append(parts, short)
	}
	full := append(append([]string{}, parts...), m.FullName())
	nick := strings.Join(full, " | ")
	if len([]rune(nick)) <= NicknameLimit {
		return nick
	}
	short := append(parts, m.ShortName())
	nick = strings.Join(short, " | ")
	return truncate(nick, NicknameLimit)
}

// FactionNickname renders "Фракция | Имя Фамилия" for non-army role grants.
func FactionNickname(faction, fullName string) string {
	return truncate(faction+" | "+fullName, NicknameLimit)
}

// RankFromRoles maps live roles back to a rank ordinal, highest match wins.
// Used by the startup sync for members enrolled before the bot existed.
func RankFromRoles(roles []string, cfg *global.Config) *int {
	has := make(map[string]struct{}, len(roles))
	for _, id := range roles {
		has[id] = struct{}{}
	}
	for i := len(cfg.Ranks) - 1; i >= 0; i-- {
		id := cfg.Ranks[i].RoleID
		if id == "" {
			continue
		}
		if _, ok := has[id]; ok {
			rank := i
			return &rank
		}
	}
	return nil
}

// applyChanges removes the marked roles keeping order, then appends the adds
// not already present.
func applyChanges(roles []string, remove map[string]struct{}, add []string) []string {
	out := make([]string, 0, len(roles)+len(add))
	for _, id := range roles {
		if _, drop := remove[id]; drop {
			continue
		}
		out = append(out, id)
	}
	for _, id := range add {
		if !containsString(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func appendID(ids []string, id string) []string {
	if id == "" {
		return ids
	}
	return append(ids, id)
}

func containsString(slice []string, value string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
