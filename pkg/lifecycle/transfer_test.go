package lifecycle_test

import (
	"testing"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/audit"
	"github.com/Effectys/rmrp-army-bot/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transferSubmission(userID string, newDivision int) lifecycle.TransferSubmission {
	return lifecycle.TransferSubmission{
		UserID:        userID,
		NewDivisionID: newDivision,
		NameAge:       "Иван, 23",
		Timezone:      "МСК",
		OnlineTime:    "4-6 часов",
		Motivation:    "Хочу развиваться",
	}
}

func TestSubmitTransferChecks(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "m1", global.RankSeniorSergeant, 2, "Боец")

	// Same division.
	_, err := env.engine.SubmitTransfer(transferSubmission("m1", 2))
	var valErr *lifecycle.ValidationError
	assert.ErrorAs(t, err, &valErr)

	// Unknown division.
	_, err = env.engine.SubmitTransfer(transferSubmission("m1", 99))
	assert.ErrorAs(t, err, &valErr)

	// Elite divisions need a higher entry rank.
	env.enroll(t, "m2", global.RankJuniorSergeant, 1, "")
	_, err = env.engine.SubmitTransfer(transferSubmission("m2", 2))
	var permErr *lifecycle.PermissionError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, global.RankSeniorSergeant, permErr.MinRank)

	// Civilians cannot transfer.
	env.civilian(t, "c1")
	_, err = env.engine.SubmitTransfer(transferSubmission("c1", 1))
	assert.ErrorAs(t, err, &valErr)
}

func TestTransferTwoStageApproval(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "m1", global.RankSeniorSergeant, 2, "Боец")
	env.enroll(t, "old-cmd", global.RankCaptain, 2, "Командир")
	env.enroll(t, "new-off", global.RankCaptain, 1, "Инструктор")

	req, err := env.engine.SubmitTransfer(transferSubmission("m1", 1))
	require.NoError(t, err)
	assert.Equal(t, models.StatusOldDivisionReview, req.Status)

	// An officer of the receiving division cannot sign for the releasing one.
	_, err = env.engine.ApproveTransferOld("new-off", req.ID)
	var permErr *lifecycle.PermissionError
	require.ErrorAs(t, err, &permErr)

	req, err = env.engine.ApproveTransferOld("old-cmd", req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNewDivisionReview, req.Status)
	assert.Equal(t, "old-cmd", req.OldReviewerID)

	// And the reverse for the final stage.
	_, err = env.engine.ApproveTransferNew("old-cmd", req.ID)
	require.ErrorAs(t, err, &permErr)

	req, err = env.engine.ApproveTransferNew("new-off", req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, req.Status)
	assert.Equal(t, "new-off", req.NewReviewerID)

	m := env.member(t, "m1")
	require.NotNil(t, m.Division)
	assert.Equal(t, 1, *m.Division)
	require.NotNil(t, m.Position)
	assert.Equal(t, "Курсант", *m.Position, "transfers land on the most junior post")
	require.NotNil(t, m.Rank)
	assert.Equal(t, global.RankSeniorSergeant, *m.Rank, "rank is untouched")

	assert.True(t, env.guild.hasRole("m1", "div-1"))
	assert.False(t, env.guild.hasRole("m1", "div-2"))
	assert.True(t, env.guild.hasRole("m1", "pos-cadet"))

	entry := env.auditor.lastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, audit.ActionDivisionChanged, entry.Action)

	_, err = env.engine.ApproveTransferNew("new-off", req.ID)
	assert.ErrorIs(t, err, lifecycle.ErrAlreadyHandled)
}

func TestTransferSkipsOldReviewWithoutOfficers(t *testing.T) {
	env := newTestEnv(t)
	// Division 0 does not exist in the registry: unassigned members go
	// straight to the new division's queue.
	m := env.enroll(t, "m1", global.RankSeniorSergeant, 1, "")
	zero := 0
	m.Division = &zero
	require.NoError(t, env.store.SaveMember(m))
	env.enroll(t, "new-cmd", global.RankCaptain, 2, "Командир")

	req, err := env.engine.SubmitTransfer(transferSubmission("m1", 2))
	require.NoError(t, err)
	assert.Equal(t, models.StatusNewDivisionReview, req.Status)

	req, err = env.engine.ApproveTransferNew("new-cmd", req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, req.Status)
	assert.Empty(t, req.OldReviewerID)

	entry := env.auditor.lastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, audit.ActionDivisionAssigned, entry.Action)
}

func TestRejectTransfer(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "m1", global.RankSeniorSergeant, 2, "Боец")
	env.enroll(t, "old-cmd", global.RankCaptain, 2, "Командир")

	req, err := env.engine.SubmitTransfer(transferSubmission("m1", 1))
	require.NoError(t, err)

	_, err = env.engine.RejectTransfer("old-cmd", req.ID, "  ")
	var valErr *lifecycle.ValidationError
	assert.ErrorAs(t, err, &valErr, "a reject reason is mandatory")

	req, err = env.engine.RejectTransfer("old-cmd", req.ID, "Низкий онлайн")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, req.Status)
	assert.Equal(t, "old-cmd", req.OldReviewerID)
	assert.Equal(t, "Низкий онлайн", req.RejectReason)

	// The member stays put.
	m := env.member(t, "m1")
	assert.Equal(t, 2, *m.Division)
	assert.Equal(t, 1, env.notifier.count("m1"))

	_, err = env.engine.RejectTransfer("old-cmd", req.ID, "Повтор")
	assert.ErrorIs(t, err, lifecycle.ErrAlreadyHandled)
}
