// Package gating holds the permission predicates shared by the request
// engine and the personnel commands. Predicates only read state; denials are
// reported by the callers.
package gating

import (
	"strings"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/division"
)

type Gate struct {
	Cfg      *global.Config
	Registry *division.Registry
}

// HasRank reports whether the member holds at least the given rank ordinal.
// A member without a rank never passes.
func (g *Gate) HasRank(m *models.Member, min int) bool {
	return m.Enrolled() && *m.Rank >= min
}

// Outranks reports strict rank dominance of the actor over a target rank.
// Equal ranks never dominate; an unranked target is always dominated by any
// enrolled actor.
func (g *Gate) Outranks(actor *models.Member, targetRank *int) bool {
	if !actor.Enrolled() {
		return false
	}
	if targetRank == nil {
		return true
	}
	return *actor.Rank > *targetRank
}

// Privilege returns the actor's position privilege inside their division.
func (g *Gate) Privilege(m *models.Member) models.Privilege {
	if m == nil || m.Division == nil || m.Position == nil {
		return 0
	}
	d, ok := g.Registry.Get(*m.Division)
	if !ok {
		return 0
	}
	p, ok := d.PositionByName(*m.Position)
	if !ok {
		return 0
	}
	return p.Privilege
}

// CanHandleDivision reports whether the actor may review requests scoped to
// any of the given divisions: brigade command above colonel bypasses the
// scope, otherwise the actor must hold an officer post in one of them.
func (g *Gate) CanHandleDivision(actor *models.Member, divisionIDs ...*int) bool {
	if actor.Enrolled() && *actor.Rank > global.RankColonel {
		return true
	}
	if actor == nil || actor.Division == nil {
		return false
	}
	if g.Privilege(actor) < models.PrivilegeOfficer {
		return false
	}
	for _, id := range divisionIDs {
		if id != nil && *id == *actor.Division {
			return true
		}
	}
	return false
}

// inDivision reports whether the actor serves in the division with the given
// abbreviation.
func (g *Gate) inDivision(actor *models.Member, abbr string) bool {
	if actor == nil || actor.Division == nil {
		return false
	}
	d, ok := g.Registry.Get(*actor.Division)
	return ok && strings.EqualFold(d.Abbreviation, abbr)
}

// MinRankForRoleKind returns the reviewer rank floor per role grant kind.
func MinRankForRoleKind(kind models.RoleKind) int {
	switch kind {
	case models.RoleKindArmy:
		return global.RankJuniorLieutenant
	case models.RoleKindSupplyAccess:
		return global.RankLieutenantColonel
	default:
		return global.RankColonel
	}
}

// CanReviewRoleGrant gates role grant review. Army applications additionally
// require HQ membership or a deputy commander post, since they enroll the
// applicant.
func (g *Gate) CanReviewRoleGrant(actor *models.Member, kind models.RoleKind) bool {
	if !g.HasRank(actor, MinRankForRoleKind(kind)) {
		return false
	}
	if kind != models.RoleKindArmy {
		return true
	}
	return g.inDivision(actor, g.Cfg.HQAbbreviation) ||
		g.Privilege(actor) >= models.PrivilegeDeputyCommander
}

// CanReviewReinstatement gates reinstatement review: full colonels and up, or
// the military police.
func (g *Gate) CanReviewReinstatement(actor *models.Member) bool {
	return g.HasRank(actor, global.RankColonel) ||
		g.inDivision(actor, g.Cfg.ReinstatementAbbreviation)
}

// MinTransferRank returns the rank floor to apply into a division; elite
// units ask for more.
func (g *Gate) MinTransferRank(d *models.Division) int {
	for _, abbr := range g.Cfg.Transfer.EliteAbbreviations {
		if d != nil && strings.EqualFold(d.Abbreviation, abbr) {
			return g.Cfg.Transfer.EliteMinRank
		}
	}
	return g.Cfg.Transfer.MinRank
}
