package lifecycle_test

import (
	"testing"
	"time"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupplyDraftLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "m1", global.RankSeniorSergeant, 1, "")

	draft, err := env.engine.CreateSupplyDraft("m1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, draft.Status)

	// Opening again resumes the same cart.
	again, err := env.engine.CreateSupplyDraft("m1")
	require.NoError(t, err)
	assert.Equal(t, draft.ID, again.ID)

	_, err = env.engine.SetSupplyItem("m1", draft.ID, "Неизвестный предмет", 1)
	var valErr *lifecycle.ValidationError
	assert.ErrorAs(t, err, &valErr)

	_, err = env.engine.SetSupplyItem("other", draft.ID, "Аптечка", 1)
	var permErr *lifecycle.PermissionError
	assert.ErrorAs(t, err, &permErr, "only the owner edits a draft")

	draft, err = env.engine.SetSupplyItem("m1", draft.ID, "Аптечка", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, draft.Items["Аптечка"])

	draft, err = env.engine.SetSupplyItem("m1", draft.ID, "Аптечка", 0)
	require.NoError(t, err)
	assert.NotContains(t, draft.Items, "Аптечка")

	_, err = env.engine.SubmitSupply("m1", draft.ID)
	assert.ErrorAs(t, err, &valErr, "an empty cart cannot be submitted")

	require.NoError(t, env.engine.DeleteSupplyDraft("m1", draft.ID))
	fresh, err := env.engine.CreateSupplyDraft("m1")
	require.NoError(t, err)
	assert.NotEqual(t, draft.ID, fresh.ID)
}

func TestCreateSupplyDraftGates(t *testing.T) {
	env := newTestEnv(t)

	env.enroll(t, "junior", global.RankJuniorSergeant, 1, "")
	_, err := env.engine.CreateSupplyDraft("junior")
	var permErr *lifecycle.PermissionError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, global.RankSeniorSergeant, permErr.MinRank)

	env.enroll(t, "m1", global.RankSeniorSergeant, 1, "")
	draft, err := env.engine.CreateSupplyDraft("m1")
	require.NoError(t, err)
	_, err = env.engine.SetSupplyItem("m1", draft.ID, "Аптечка", 1)
	require.NoError(t, err)
	_, err = env.engine.SubmitSupply("m1", draft.ID)
	require.NoError(t, err)

	// A pending requisition blocks a new cart.
	_, err = env.engine.CreateSupplyDraft("m1")
	var openErr *lifecycle.OpenRequestError
	assert.ErrorAs(t, err, &openErr)
}

func TestSupplyApproveStampsCooldown(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "m1", global.RankSeniorSergeant, 1, "")
	env.enroll(t, "maj", global.RankMajor, 1, "")

	draft, err := env.engine.CreateSupplyDraft("m1")
	require.NoError(t, err)
	_, err = env.engine.SetSupplyItem("m1", draft.ID, "Аптечка", 2)
	require.NoError(t, err)
	req, err := env.engine.SubmitSupply("m1", draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, req.Status)

	req, err = env.engine.ReviewSupply("maj", req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, req.Status)

	m := env.member(t, "m1")
	require.NotNil(t, m.LastSupplyAt)
	assert.WithinDuration(t, env.clock.Now(), *m.LastSupplyAt, time.Second)

	require.Len(t, env.auditor.issues, 1)
	assert.Equal(t, req.ID, env.auditor.issues[0].RequestID)

	_, err = env.engine.ReviewSupply("maj", req.ID, false)
	assert.ErrorIs(t, err, lifecycle.ErrAlreadyHandled)
}

func TestSupplyCooldownWindow(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "m1", global.RankSeniorSergeant, 1, "")
	env.enroll(t, "maj", global.RankMajor, 1, "")

	draft, err := env.engine.CreateSupplyDraft("m1")
	require.NoError(t, err)
	_, err = env.engine.SetSupplyItem("m1", draft.ID, "Аптечка", 1)
	require.NoError(t, err)
	req, err := env.engine.SubmitSupply("m1", draft.ID)
	require.NoError(t, err)
	_, err = env.engine.ReviewSupply("maj", req.ID, true)
	require.NoError(t, err)

	// One minute short of the window.
	env.clock.Advance(2*time.Hour + 59*time.Minute)
	draft2, err := env.engine.CreateSupplyDraft("m1")
	require.NoError(t, err)
	_, err = env.engine.SetSupplyItem("m1", draft2.ID, "Бронежилет", 1)
	require.NoError(t, err)

	_, err = env.engine.SubmitSupply("m1", draft2.ID)
	var cooldownErr *lifecycle.CooldownError
	require.ErrorAs(t, err, &cooldownErr)
	h, min := cooldownErr.HoursMinutes()
	assert.Equal(t, 0, h)
	assert.Equal(t, 1, min)

	env.clock.Advance(time.Minute)
	req2, err := env.engine.SubmitSupply("m1", draft2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, req2.Status)
}

func TestSupplyApproveRechecksCooldown(t *testing.T) {
	env := newTestEnv(t)
	target := env.enroll(t, "m1", global.RankSeniorSergeant, 1, "")
	env.enroll(t, "maj", global.RankMajor, 1, "")

	require.NoError(t, env.store.Create(&models.SupplyRequest{
		ID: 10, UserID: "m1", Status: models.StatusPending,
		Items: models.Items{"Аптечка": 1},
	}))

	// Another requisition was issued after this one was submitted.
	stamp := env.clock.Now().Add(-time.Hour)
	target.LastSupplyAt = &stamp
	require.NoError(t, env.store.SaveMember(target))

	_, err := env.engine.ReviewSupply("maj", 10, true)
	var cooldownErr *lifecycle.CooldownError
	require.ErrorAs(t, err, &cooldownErr)

	// The denial is transient: the same request approves once the window
	// has passed.
	env.clock.Advance(3 * time.Hour)
	req, err := env.engine.ReviewSupply("maj", 10, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, req.Status)
}

func TestSupplyApproveAutoRejectsOtherPending(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "m1", global.RankSeniorSergeant, 1, "")
	env.enroll(t, "maj", global.RankMajor, 1, "")

	for id := int64(20); id <= 22; id++ {
		require.NoError(t, env.store.Create(&models.SupplyRequest{
			ID: id, UserID: "m1", Status: models.StatusPending,
			Items: models.Items{"Аптечка": 1},
		}))
	}

	_, err := env.engine.ReviewSupply("maj", 21, true)
	require.NoError(t, err)

	for _, id := range []int64{20, 22} {
		other, err := env.store.SupplyRequest(id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, other.Status)
		assert.Equal(t, "bot", other.ReviewerID, "auto-rejections run in the bot's name")
	}
}

func TestCheckLimits(t *testing.T) {
	cfg := global.SupplyConfig{
		Categories: []global.SupplyCategory{
			{Name: "Медицина", Items: []string{"Аптечка", "Обезболивающее"}},
		},
		ItemLimits:     map[string]int{"Аптечка": 5},
		CategoryLimits: map[string]int{"Медицина": 6},
	}

	assert.NoError(t, lifecycle.CheckLimits(cfg, models.Items{"Аптечка": 5, "Обезболивающее": 1}))

	var valErr *lifecycle.ValidationError
	err := lifecycle.CheckLimits(cfg, models.Items{"Аптечка": 6})
	assert.ErrorAs(t, err, &valErr, "per-item cap")

	err = lifecycle.CheckLimits(cfg, models.Items{"Аптечка": 4, "Обезболивающее": 3})
	assert.ErrorAs(t, err, &valErr, "per-category cap")
}

func TestSupplyPendingEditByCommand(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "m1", global.RankSeniorSergeant, 1, "")
	env.enroll(t, "cpt", global.RankCaptain, 1, "")
	env.enroll(t, "maj", global.RankMajor, 1, "")

	draft, err := env.engine.CreateSupplyDraft("m1")
	require.NoError(t, err)
	_, err = env.engine.SetSupplyItem("m1", draft.ID, "Аптечка", 4)
	require.NoError(t, err)
	req, err := env.engine.SubmitSupply("m1", draft.ID)
	require.NoError(t, err)

	// Below major nobody may adjust a pending requisition, the owner
	// included.
	_, err = env.engine.SetSupplyItem("cpt", req.ID, "Аптечка", 2)
	var permErr *lifecycle.PermissionError
	assert.ErrorAs(t, err, &permErr)

	req, err = env.engine.SetSupplyItem("maj", req.ID, "Аптечка", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, req.Items["Аптечка"])
}
