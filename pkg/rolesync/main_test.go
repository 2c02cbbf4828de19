package rolesync

import (
	"testing"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/stretchr/testify/assert"
)

func testConfig() *global.Config {
	cfg := &global.Config{
		Ranks: global.DefaultRanks(),
		Roles: global.RoleConfig{
			Military:            "military",
			Contract:            "contract",
			MilitaryAcademy:     "academy",
			BrigadeHQ:           "brigade-hq",
			GeneralHQ:           "general-hq",
			UnitCommander:       "unit-cmd",
			UnitDeputyCommander: "unit-deputy",
		},
	}
	for i := range cfg.Ranks {
		cfg.Ranks[i].RoleID = "rank-" + cfg.Ranks[i].Name
	}
	return cfg
}

func testDivisions() []models.Division {
	return []models.Division{
		{ID: 1, Abbreviation: "УЦ", RoleID: "div-1", Positions: []models.Position{
			{Name: "Инструктор", RoleID: "pos-instructor", Privilege: models.PrivilegeOfficer},
		}},
		{ID: 2, Abbreviation: "ССО", RoleID: "div-2", Positions: []models.Position{
			{Name: "Командир", RoleID: "pos-cmd", Privilege: models.PrivilegeCommander},
			{Name: "Боец", RoleID: "pos-fighter", Privilege: models.PrivilegeDefault},
		}},
	}
}

func TestApplyRankMarkers(t *testing.T) {
	cfg := testConfig()

	private := ApplyRank([]string{"other"}, cfg, intp(global.RankPrivate))
	assert.Contains(t, private, "rank-Рядовой")
	assert.Contains(t, private, "military")
	assert.Contains(t, private, "academy")
	assert.NotContains(t, private, "contract")
	assert.Contains(t, private, "other")

	sergeant := ApplyRank(nil, cfg, intp(global.RankSeniorSergeant))
	assert.Contains(t, sergeant, "contract")
	assert.NotContains(t, sergeant, "academy")
	assert.NotContains(t, sergeant, "brigade-hq")

	major := ApplyRank(nil, cfg, intp(global.RankMajor))
	assert.Contains(t, major, "brigade-hq")
	assert.Contains(t, major, "unit-deputy")
	assert.NotContains(t, major, "general-hq")
	assert.NotContains(t, major, "unit-cmd")

	colonel := ApplyRank(nil, cfg, intp(global.RankColonel))
	assert.Contains(t, colonel, "brigade-hq")
	assert.Contains(t, colonel, "general-hq")
	assert.Contains(t, colonel, "unit-cmd")
	assert.NotContains(t, colonel, "unit-deputy")
}

func TestApplyRankDismissalStripsEverything(t *testing.T) {
	cfg := testConfig()
	before := ApplyRank([]string{"keep-me"}, cfg, intp(global.RankMajor))
	after := ApplyRank(before, cfg, nil)
	assert.Equal(t, []string{"keep-me"}, after)
}

func TestApplyIdempotent(t *testing.T) {
	cfg := testConfig()
	divisions := testDivisions()
	facts := Facts{
		Rank:     intp(global.RankCaptain),
		Division: intp(2),
		Position: strp("Боец"),
	}
	once := Apply([]string{"unmanaged", "div-1", "pos-instructor"}, divisions, cfg, facts)
	twice := Apply(once, divisions, cfg, facts)
	assert.Equal(t, once, twice)
	assert.Contains(t, once, "unmanaged")
	assert.Contains(t, once, "div-2")
	assert.Contains(t, once, "pos-fighter")
	assert.NotContains(t, once, "div-1")
	assert.NotContains(t, once, "pos-instructor")
}

func TestApplyPositionScopedToOwnDivision(t *testing.T) {
	divisions := testDivisions()
	// Same position name could exist elsewhere; only the member's division
	// contributes the role.
	roles := ApplyPosition(nil, divisions, intp(1), strp("Командир"))
	assert.Empty(t, roles)

	roles = ApplyPosition(nil, divisions, intp(2), strp("командир"))
	assert.Equal(t, []string{"pos-cmd"}, roles)
}

func TestNickname(t *testing.T) {
	cfg := testConfig()
	div := &models.Division{Abbreviation: "ССО"}

	m := &models.Member{FirstName: "Иван", LastName: "Петров", Rank: intp(global.RankCaptain)}
	assert.Equal(t, "ССО | Капитан | Иван Петров", Nickname(cfg, div, m))

	// Overflow falls back to the short name, then hard truncation.
	long := &models.Member{
		FirstName: "Константин",
		LastName:  "Вернидубович",
		Rank:      intp(global.RankSeniorSergeant),
	}
	nick := Nickname(cfg, div, long)
	assert.LessOrEqual(t, len([]rune(nick)), NicknameLimit)
	assert.Contains(t, nick, "К. ")

	dismissed := &models.Member{FirstName: "Иван", LastName: "Петров"}
	assert.Equal(t, "Уволен | Иван Петров", Nickname(cfg, nil, dismissed))
}

func TestFactionNickname(t *testing.T) {
	nick := FactionNickname("Правительство", "Иван Петров")
	assert.Equal(t, "Правительство | Иван Петров", nick)
	assert.LessOrEqual(t, len([]rune(FactionNickname("Очень длинное название фракции", "Константин Вернидубович"))), NicknameLimit)
}

func TestRankFromRoles(t *testing.T) {
	cfg := testConfig()
	rank := RankFromRoles([]string{"junk", "rank-Сержант", "rank-Майор"}, cfg)
	assert.NotNil(t, rank)
	assert.Equal(t, global.RankMajor, *rank)

	assert.Nil(t, RankFromRoles([]string{"junk"}, cfg))
}

func intp(i int) *int       { return &i }
func strp(s string) *string { return &s }
