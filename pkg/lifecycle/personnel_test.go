package lifecycle_test

import (
	"testing"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/pkg/audit"
	"github.com/Effectys/rmrp-army-bot/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetStatic(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.SetStatic("u1", "12-34-56")
	var valErr *lifecycle.ValidationError
	assert.ErrorAs(t, err, &valErr)

	m, err := env.engine.SetStatic("u1", "123-456")
	require.NoError(t, err)
	require.NotNil(t, m.Static)
	assert.Equal(t, int64(123456), *m.Static)

	// Dash is optional.
	m, err = env.engine.SetStatic("u1", "98765")
	require.NoError(t, err)
	assert.Equal(t, int64(98765), *m.Static)
}

func TestSetRank(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "maj", global.RankMajor, 1, "")
	env.enroll(t, "m1", 3, 1, "")

	// Floor: captains and up.
	env.enroll(t, "sgt", global.RankSeniorSergeant, 1, "")
	_, err := env.engine.SetRank("sgt", "m1", 5)
	var permErr *lifecycle.PermissionError
	assert.ErrorAs(t, err, &permErr)

	// Cannot grant one's own rank or higher.
	_, err = env.engine.SetRank("maj", "m1", global.RankMajor)
	assert.ErrorAs(t, err, &permErr)

	m, err := env.engine.SetRank("maj", "m1", global.RankSeniorSergeant)
	require.NoError(t, err)
	assert.Equal(t, global.RankSeniorSergeant, *m.Rank)
	assert.True(t, env.guild.hasRole("m1", "contract"))

	entry := env.auditor.lastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, audit.ActionRankChanged, entry.Action)
}

func TestSetDivision(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "maj", global.RankMajor, 1, "")
	env.enroll(t, "m1", 3, 1, "Курсант")

	m, err := env.engine.SetDivision("maj", "m1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, *m.Division)
	assert.Nil(t, m.Position, "position does not survive a division move")
	assert.True(t, env.guild.hasRole("m1", "div-2"))
	assert.False(t, env.guild.hasRole("m1", "div-1"))
}

func TestSetPositionPrivilege(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "cmd", global.RankCaptain, 2, "Командир")
	env.enroll(t, "m1", 3, 2, "")

	m, err := env.engine.SetPosition("cmd", "m1", "Боец")
	require.NoError(t, err)
	require.NotNil(t, m.Position)
	assert.Equal(t, "Боец", *m.Position)
	assert.True(t, env.guild.hasRole("m1", "pos-fighter"))

	// A commander cannot hand out their own post.
	_, err = env.engine.SetPosition("cmd", "m1", "Командир")
	var permErr *lifecycle.PermissionError
	assert.ErrorAs(t, err, &permErr)

	// Officers of other divisions are out of scope, brigade command is not.
	env.enroll(t, "other-cmd", global.RankCaptain, 1, "Командир")
	_, err = env.engine.SetPosition("other-cmd", "m1", "Боец")
	assert.ErrorAs(t, err, &permErr)

	env.enroll(t, "gen", global.RankMajorGeneral, 3, "")
	m, err = env.engine.SetPosition("gen", "m1", "")
	require.NoError(t, err)
	assert.Nil(t, m.Position)
	assert.False(t, env.guild.hasRole("m1", "pos-fighter"))
}

func TestEditRecord(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "cpt", global.RankCaptain, 1, "")
	env.enroll(t, "m1", 3, 1, "")

	_, err := env.engine.EditRecord("cpt", "m1", "плохое имя", nil)
	var valErr *lifecycle.ValidationError
	assert.ErrorAs(t, err, &valErr)

	static := int64(654321)
	m, err := env.engine.EditRecord("cpt", "m1", "Олег Сидоров", &static)
	require.NoError(t, err)
	assert.Equal(t, "Олег Сидоров", m.FullName())
	assert.Equal(t, int64(654321), *m.Static)

	// Editors may fix their own record regardless of dominance.
	m, err = env.engine.EditRecord("cpt", "cpt", "Антон Смирнов", nil)
	require.NoError(t, err)
	assert.Equal(t, "Антон Смирнов", m.FullName())
}

func TestBlacklistMember(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "maj", global.RankMajor, 1, "")
	env.civilian(t, "c1")

	m, c, err := env.engine.BlacklistMember("maj", "c1", 7, "Мошенничество", "https://evidence")
	require.NoError(t, err)
	require.NotNil(t, m.Blacklist)
	assert.Equal(t, "Мошенничество", m.Blacklist.Reason)
	require.NotNil(t, c.EndsAt)
	assert.False(t, c.Closed)
	assert.Equal(t, 1, env.notifier.count("c1"))

	// Indefinite case.
	_, c, err = env.engine.BlacklistMember("maj", "c1", 0, "Мошенничество", "")
	require.NoError(t, err)
	assert.Nil(t, c.EndsAt)

	m, c, err = env.engine.UnblacklistMember("maj", "c1", "Извинился")
	require.NoError(t, err)
	assert.Nil(t, m.Blacklist)
	assert.True(t, c.Closed)

	_, _, err = env.engine.UnblacklistMember("maj", "c1", "Повтор")
	var valErr *lifecycle.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestDivisionRoster(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "cpt", global.RankCaptain, 1, "")
	env.enroll(t, "a", 2, 2, "")
	env.enroll(t, "b", 10, 2, "")

	_, err := env.engine.DivisionRoster("a", 2)
	var permErr *lifecycle.PermissionError
	assert.ErrorAs(t, err, &permErr)

	members, err := env.engine.DivisionRoster("cpt", 2)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "b", members[0].DiscordID)

	_, err = env.engine.DivisionRoster("cpt", 99)
	var valErr *lifecycle.ValidationError
	assert.ErrorAs(t, err, &valErr)
}
