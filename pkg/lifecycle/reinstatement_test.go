package lifecycle_test

import (
	"testing"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reinstatementSubmission(userID string) lifecycle.ReinstatementSubmission {
	return lifecycle.ReinstatementSubmission{
		UserID:        userID,
		FullName:      "Пётр Иванов",
		DocumentsLink: "https://docs",
		ArmyPassLink:  "https://pass",
	}
}

func TestSubmitReinstatementChecks(t *testing.T) {
	env := newTestEnv(t)

	env.enroll(t, "m1", 3, 1, "")
	_, err := env.engine.SubmitReinstatement(reinstatementSubmission("m1"))
	var valErr *lifecycle.ValidationError
	assert.ErrorAs(t, err, &valErr, "serving members cannot apply")

	// No record at all means no static yet.
	_, err = env.engine.SubmitReinstatement(reinstatementSubmission("nobody"))
	assert.ErrorIs(t, err, lifecycle.ErrStaticRequired)

	env.civilian(t, "c1")
	req, err := env.engine.SubmitReinstatement(reinstatementSubmission("c1"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, req.Status)

	_, err = env.engine.SubmitReinstatement(reinstatementSubmission("c1"))
	var openErr *lifecycle.OpenRequestError
	assert.ErrorAs(t, err, &openErr)
}

func TestReinstatementTwoStep(t *testing.T) {
	env := newTestEnv(t)
	env.civilian(t, "c1")
	env.enroll(t, "gen", global.RankMajorGeneral, 3, "")

	req, err := env.engine.SubmitReinstatement(reinstatementSubmission("c1"))
	require.NoError(t, err)

	req, err = env.engine.AcceptReinstatement("gen", req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, req.Status)
	assert.True(t, env.guild.hasRole("c1", "attestation"))
	assert.True(t, env.guild.hasRole("c1", "reinforcement"))

	_, err = env.engine.AcceptReinstatement("gen", req.ID)
	assert.ErrorIs(t, err, lifecycle.ErrAlreadyHandled)

	// Granting a rank at or above the reviewer's own is refused, and the
	// refusal must leave the request finalizable.
	_, err = env.engine.FinalizeReinstatement("gen", req.ID, global.RankMajorGeneral)
	var permErr *lifecycle.PermissionError
	require.ErrorAs(t, err, &permErr)

	req, err = env.engine.FinalizeReinstatement("gen", req.ID, global.RankJuniorLieutenant)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, req.Status)
	require.NotNil(t, req.GrantedRank)
	assert.Equal(t, global.RankJuniorLieutenant, *req.GrantedRank)

	m := env.member(t, "c1")
	require.NotNil(t, m.Rank)
	assert.Equal(t, global.RankJuniorLieutenant, *m.Rank)
	require.NotNil(t, m.Division)
	assert.Equal(t, 0, *m.Division, "reinstated members start unassigned")
	assert.NotNil(t, m.InvitedAt)
	assert.Equal(t, "Пётр Иванов", m.FullName())

	assert.False(t, env.guild.hasRole("c1", "attestation"))
	assert.False(t, env.guild.hasRole("c1", "reinforcement"))
	assert.True(t, env.guild.hasRole("c1", "military"))
}

func TestAcceptReinstatementRetryableAfterPlatformFailure(t *testing.T) {
	env := newTestEnv(t)
	env.civilian(t, "c1")
	env.enroll(t, "gen", global.RankMajorGeneral, 3, "")

	req, err := env.engine.SubmitReinstatement(reinstatementSubmission("c1"))
	require.NoError(t, err)

	env.guild.failFor["c1"] = true
	_, err = env.engine.AcceptReinstatement("gen", req.ID)
	require.ErrorIs(t, err, lifecycle.ErrSyncFailed)

	// The candidate roles never went on, so the status must not have
	// flipped and the same click can be retried.
	stored, err := env.store.ReinstatementRequest(req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)

	env.guild.failFor["c1"] = false
	req, err = env.engine.AcceptReinstatement("gen", req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, req.Status)
}

func TestRejectReinstatementStripsCandidateRoles(t *testing.T) {
	env := newTestEnv(t)
	env.civilian(t, "c1")
	env.enroll(t, "gen", global.RankMajorGeneral, 3, "")

	req, err := env.engine.SubmitReinstatement(reinstatementSubmission("c1"))
	require.NoError(t, err)
	req, err = env.engine.AcceptReinstatement("gen", req.ID)
	require.NoError(t, err)
	require.True(t, env.guild.hasRole("c1", "attestation"))

	req, err = env.engine.RejectReinstatement("gen", req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, req.Status)
	assert.False(t, env.guild.hasRole("c1", "attestation"))
	assert.False(t, env.guild.hasRole("c1", "reinforcement"))

	m := env.member(t, "c1")
	assert.False(t, m.Enrolled())
}

func TestReinstatementMilitaryPoliceReviews(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.SeedDivisions([]models.Division{
		{ID: 4, Name: "Военная полиция", Abbreviation: "ВП", RoleID: "div-4"},
	}))
	require.NoError(t, env.registry.Reload())

	env.civilian(t, "c1")
	env.enroll(t, "vp", global.RankSeniorSergeant, 4, "")

	req, err := env.engine.SubmitReinstatement(reinstatementSubmission("c1"))
	require.NoError(t, err)

	req, err = env.engine.AcceptReinstatement("vp", req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, req.Status)

	// But the rank grant still requires dominance over the granted rank.
	_, err = env.engine.FinalizeReinstatement("vp", req.ID, global.RankSeniorSergeant)
	var permErr *lifecycle.PermissionError
	assert.ErrorAs(t, err, &permErr)

	req, err = env.engine.FinalizeReinstatement("vp", req.ID, global.RankJuniorSergeant)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, req.Status)
}
