package lifecycle

import (
	"errors"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/audit"
	"github.com/Effectys/rmrp-army-bot/pkg/store"
)

// ReinstatementSubmission is the parsed reinstatement form.
type ReinstatementSubmission struct {
	UserID        string
	FullName      string
	DocumentsLink string
	ArmyPassLink  string
}

// SubmitReinstatement files a request to rejoin at a former rank. Only
// members who are not currently enrolled may apply.
func (e *Engine) SubmitReinstatement(sub ReinstatementSubmission) (*models.ReinstatementRequest, error) {
	if !global.NameRegex.MatchString(sub.FullName) {
		return nil, validationf("Имя и фамилия должны быть в формате «Имя Фамилия».")
	}
	m, err := e.memberWithStatic(sub.UserID)
	if err != nil {
		return nil, err
	}
	if m.Enrolled() {
		return nil, validationf("Вы уже состоите на службе.")
	}
	if bl := m.ActiveBlacklist(e.now()); bl != nil {
		return nil, &BlacklistedError{Reason: bl.Reason, EndsAt: bl.EndsAt}
	}
	if open, err := e.store.OpenReinstatementRequest(sub.UserID); err == nil {
		return nil, &OpenRequestError{ExistingID: open.ID}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	id, err := e.store.NextID("reinstatement_requests")
	if err != nil {
		return nil, err
	}
	req := &models.ReinstatementRequest{
		ID:            id,
		UserID:        sub.UserID,
		Status:        models.StatusPending,
		FullName:      sub.FullName,
		Static:        derefInt64(m.Static),
		DocumentsLink: sub.DocumentsLink,
		ArmyPassLink:  sub.ArmyPassLink,
	}
	if err := e.store.Create(req); err != nil {
		return nil, err
	}
	e.metrics.Created("reinstatement")
	e.logger.Info("reinstatement request created",
		"request_id", id,
		"user_id", sub.UserID,
	)
	return req, nil
}

// AcceptReinstatement is step one of the review: the candidate roles go on
// and the request waits for a rank grant. The candidate roles must stick
// before the status flips, so a failed platform edit leaves the request
// retryable.
func (e *Engine) AcceptReinstatement(actorID string, id int64) (*models.ReinstatementRequest, error) {
	req, err := e.store.ReinstatementRequest(id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.StatusPending {
		e.metrics.AlreadyHandled("reinstatement")
		return nil, ErrAlreadyHandled
	}
	if !e.claims.TryClaim(StageReinstatementStart, id) {
		e.metrics.AlreadyHandled("reinstatement")
		return nil, ErrAlreadyHandled
	}
	actor, err := e.actor(actorID)
	if err != nil {
		e.claims.Release(StageReinstatementStart, id)
		return nil, err
	}
	if !e.gate.CanReviewReinstatement(actor) {
		e.claims.Release(StageReinstatementStart, id)
		return nil, &PermissionError{MinRank: global.RankColonel}
	}
	if err := e.guild.AddRoles(req.UserID,
		e.cfg.Roles.Attestation, e.cfg.Roles.Reinforcement); err != nil {
		e.claims.Release(StageReinstatementStart, id)
		return nil, e.syncFailed(req.UserID, err)
	}
	req.Status = models.StatusAccepted
	req.ReviewerID = actorID
	if err := e.store.Save(req); err != nil {
		return nil, err
	}
	e.metrics.Reviewed("reinstatement", "accepted")
	return req, nil
}

// FinalizeReinstatement is step two: the reviewer picks a rank, the member
// re-enters service unassigned to a unit, and the candidate roles come off.
func (e *Engine) FinalizeReinstatement(actorID string, id int64, rank int) (*models.ReinstatementRequest, error) {
	req, err := e.store.ReinstatementRequest(id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.StatusAccepted {
		e.metrics.AlreadyHandled("reinstatement")
		return nil, ErrAlreadyHandled
	}
	if !e.claims.TryClaim(StageReinstatementFinal, id) {
		e.metrics.AlreadyHandled("reinstatement")
		return nil, ErrAlreadyHandled
	}
	actor, err := e.actor(actorID)
	if err != nil {
		e.claims.Release(StageReinstatementFinal, id)
		return nil, err
	}
	if !e.gate.CanReviewReinstatement(actor) {
		e.claims.Release(StageReinstatementFinal, id)
		return nil, &PermissionError{MinRank: global.RankColonel}
	}
	if rank < 0 || rank >= len(e.cfg.Ranks) {
		e.claims.Release(StageReinstatementFinal, id)
		return nil, validationf("Некорректное звание.")
	}
	// Cannot reinstate at one's own rank or above.
	if !e.gate.Outranks(actor, &rank) {
		e.claims.Release(StageReinstatementFinal, id)
		return nil, &PermissionError{MinRank: -1, Reason: "granted rank must be below the reviewer's"}
	}

	target, err := e.store.MemberByDiscordID(req.UserID)
	if err != nil {
		return nil, err
	}
	target.SetFullName(req.FullName)
	target.Rank = intPtr(rank)
	target.Division = intPtr(e.cfg.UnassignedDivisionID)
	target.Position = nil
	if target.InvitedAt == nil {
		target.InvitedAt = timePtr(e.now())
	}
	if err := e.store.SaveMember(target); err != nil {
		return nil, err
	}
	now := e.now()
	req.Status = models.StatusApproved
	req.GrantedRank = intPtr(rank)
	req.ReviewerID = actorID
	req.ReviewedAt = timePtr(now)
	if err := e.store.Save(req); err != nil {
		return nil, err
	}
	e.metrics.Reviewed("reinstatement", "approved")

	var syncErr error
	if err := e.guild.RemoveRoles(req.UserID,
		e.cfg.Roles.Attestation, e.cfg.Roles.Reinforcement); err != nil {
		syncErr = e.syncFailed(req.UserID, err)
	}
	if err := e.syncMember(target); err != nil {
		syncErr = err
	}
	e.auditor.Log(audit.Entry{
		Action:      audit.ActionReinstated,
		InitiatorID: actorID,
		TargetID:    req.UserID,
		TargetName:  target.FullName(),
		Static:      models.FormatStatic(target.Static),
		Fields: []audit.Field{
			{Name: "Звание", Value: e.cfg.RankName(rank)},
		},
		At: now,
	})
	e.notifier.Notify(req.UserID, audit.Notice{
		Title:       "♻️ Восстановление",
		Description: "Вы восстановлены на службе в звании «" + e.cfg.RankName(rank) + "».",
		Color:       0x57F287,
	})
	return req, syncErr
}

// RejectReinstatement closes the request from either step and strips the
// candidate roles if they were already granted.
func (e *Engine) RejectReinstatement(actorID string, id int64) (*models.ReinstatementRequest, error) {
	req, err := e.store.ReinstatementRequest(id)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		e.metrics.AlreadyHandled("reinstatement")
		return nil, ErrAlreadyHandled
	}
	if !e.claims.TryClaim(StageReinstatementFinal, id) {
		e.metrics.AlreadyHandled("reinstatement")
		return nil, ErrAlreadyHandled
	}
	actor, err := e.actor(actorID)
	if err != nil {
		e.claims.Release(StageReinstatementFinal, id)
		return nil, err
	}
	if !e.gate.CanReviewReinstatement(actor) {
		e.claims.Release(StageReinstatementFinal, id)
		return nil, &PermissionError{MinRank: global.RankColonel}
	}
	wasAccepted := req.Status == models.StatusAccepted
	req.Status = models.StatusRejected
	req.ReviewerID = actorID
	req.ReviewedAt = timePtr(e.now())
	if err := e.store.Save(req); err != nil {
		return nil, err
	}
	e.metrics.Reviewed("reinstatement", "rejected")

	var syncErr error
	if wasAccepted {
		if err := e.guild.RemoveRoles(req.UserID,
			e.cfg.Roles.Attestation, e.cfg.Roles.Reinforcement); err != nil {
			syncErr = e.syncFailed(req.UserID, err)
		}
	}
	e.notifier.Notify(req.UserID, audit.Notice{
		Title:       "❌ Восстановление отклонено",
		Description: "Ваша заявка на восстановление была отклонена.",
		Color:       0xED4245,
	})
	return req, syncErr
}
