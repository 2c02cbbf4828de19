package lifecycle

import (
	"errors"
	"strings"

	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/audit"
	"github.com/Effectys/rmrp-army-bot/pkg/rolesync"
	"github.com/Effectys/rmrp-army-bot/pkg/store"
)

// TransferSubmission is the parsed application form for a division transfer.
type TransferSubmission struct {
	UserID        string
	NewDivisionID int
	NameAge       string
	Timezone      string
	OnlineTime    string
	Motivation    string
}

// SubmitTransfer files a transfer. When the member's current division has
// reviewable positions the request starts in the old division's queue,
// otherwise it goes straight to the new division.
func (e *Engine) SubmitTransfer(sub TransferSubmission) (*models.TransferRequest, error) {
	m, err := e.memberWithStatic(sub.UserID)
	if err != nil {
		return nil, err
	}
	if !m.Enrolled() {
		return nil, validationf("Подать заявку на перевод могут только военнослужащие.")
	}
	newDiv, ok := e.registry.Get(sub.NewDivisionID)
	if !ok {
		return nil, validationf("Подразделение не найдено.")
	}
	if m.Division != nil && *m.Division == newDiv.ID {
		return nil, validationf("Вы уже состоите в подразделении «%s».", newDiv.Name)
	}
	if min := e.gate.MinTransferRank(newDiv); *m.Rank < min {
		return nil, &PermissionError{MinRank: min}
	}
	if open, err := e.store.OpenTransferRequest(sub.UserID); err == nil {
		return nil, &OpenRequestError{ExistingID: open.ID}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	status := models.StatusNewDivisionReview
	if m.Division != nil {
		if old, ok := e.registry.Get(*m.Division); ok && len(old.Positions) > 0 {
			status = models.StatusOldDivisionReview
		}
	}
	id, err := e.store.NextID("transfer_requests")
	if err != nil {
		return nil, err
	}
	req := &models.TransferRequest{
		ID:            id,
		UserID:        sub.UserID,
		Status:        status,
		OldDivisionID: m.Division,
		NewDivisionID: newDiv.ID,
		FullName:      m.FullName(),
		Static:        derefInt64(m.Static),
		NameAge:       sub.NameAge,
		Timezone:      sub.Timezone,
		OnlineTime:    sub.OnlineTime,
		Motivation:    sub.Motivation,
	}
	if err := e.store.Create(req); err != nil {
		return nil, err
	}
	e.metrics.Created("transfer")
	e.logger.Info("transfer request created",
		"request_id", id,
		"user_id", sub.UserID,
		"new_division", newDiv.ID,
		"status", string(status),
	)
	return req, nil
}

// ApproveTransferOld is the releasing division signing off; the request
// moves on to the new division's queue.
func (e *Engine) ApproveTransferOld(actorID string, id int64) (*models.TransferRequest, error) {
	req, err := e.store.TransferRequest(id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.StatusOldDivisionReview {
		e.metrics.AlreadyHandled("transfer")
		return nil, ErrAlreadyHandled
	}
	if !e.claims.TryClaim(StageTransferOldReview, id) {
		e.metrics.AlreadyHandled("transfer")
		return nil, ErrAlreadyHandled
	}
	actor, err := e.actor(actorID)
	if err != nil {
		e.claims.Release(StageTransferOldReview, id)
		return nil, err
	}
	if !e.gate.CanHandleDivision(actor, req.OldDivisionID) {
		e.claims.Release(StageTransferOldReview, id)
		return nil, &PermissionError{MinRank: -1, Reason: "not an officer of the releasing division"}
	}
	req.Status = models.StatusNewDivisionReview
	req.OldReviewerID = actorID
	if err := e.store.Save(req); err != nil {
		return nil, err
	}
	e.metrics.Reviewed("transfer", "old_approved")
	return req, nil
}

// ApproveTransferNew is the final sign-off. The member moves into the new
// division at its most junior position; rank is untouched.
func (e *Engine) ApproveTransferNew(actorID string, id int64) (*models.TransferRequest, error) {
	req, err := e.store.TransferRequest(id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.StatusNewDivisionReview {
		e.metrics.AlreadyHandled("transfer")
		return nil, ErrAlreadyHandled
	}
	if !e.claims.TryClaim(StageTransferFinal, id) {
		e.metrics.AlreadyHandled("transfer")
		return nil, ErrAlreadyHandled
	}
	actor, err := e.actor(actorID)
	if err != nil {
		e.claims.Release(StageTransferFinal, id)
		return nil, err
	}
	newID := req.NewDivisionID
	if !e.gate.CanHandleDivision(actor, &newID) {
		e.claims.Release(StageTransferFinal, id)
		return nil, &PermissionError{MinRank: -1, Reason: "not an officer of the receiving division"}
	}

	target, err := e.store.MemberByDiscordID(req.UserID)
	if err != nil {
		return nil, err
	}
	newDiv, ok := e.registry.Get(req.NewDivisionID)
	if !ok {
		return nil, validationf("Подразделение не найдено.")
	}
	hadDivisionReview := req.OldReviewerID != ""
	target.Division = intPtr(newDiv.ID)
	target.Position = nil
	if pos, ok := newDiv.LowestPosition(); ok {
		target.Position = strPtr(pos.Name)
	}
	if err := e.store.SaveMember(target); err != nil {
		return nil, err
	}
	now := e.now()
	req.Status = models.StatusApproved
	req.NewReviewerID = actorID
	req.ReviewedAt = timePtr(now)
	if err := e.store.Save(req); err != nil {
		return nil, err
	}
	e.metrics.Reviewed("transfer", "approved")

	syncErr := e.syncTransfer(target, newDiv)
	action := audit.ActionDivisionAssigned
	if hadDivisionReview {
		action = audit.ActionDivisionChanged
	}
	e.auditor.Log(audit.Entry{
		Action:      action,
		InitiatorID: actorID,
		TargetID:    req.UserID,
		TargetName:  target.FullName(),
		Static:      models.FormatStatic(target.Static),
		Fields: []audit.Field{
			{Name: "Откуда", Value: e.registry.Name(req.OldDivisionID)},
			{Name: "Куда", Value: newDiv.Name},
		},
		At: now,
	})
	e.notifier.Notify(req.UserID, audit.Notice{
		Title:       "✅ Перевод одобрен",
		Description: "Вы переведены в подразделение «" + newDiv.Name + "».",
		Color:       0x57F287,
	})
	return req, syncErr
}

// syncTransfer reconciles division and position roles only, leaving rank
// roles as they are.
func (e *Engine) syncTransfer(m *models.Member, newDiv *models.Division) error {
	roles, err := e.guild.MemberRoles(m.DiscordID)
	if err != nil {
		return e.syncFailed(m.DiscordID, err)
	}
	divisions := e.registry.All()
	roles = rolesync.ApplyDivision(roles, divisions, m.Division)
	roles = rolesync.ApplyPosition(roles, divisions, m.Division, m.Position)
	nick := rolesync.Nickname(e.cfg, newDiv, m)
	if err := e.guild.EditMember(m.DiscordID, nick, roles); err != nil {
		return e.syncFailed(m.DiscordID, err)
	}
	return nil
}

// RejectTransfer closes the request from either review stage; the mandatory
// reason goes into the embed and the applicant's DM.
func (e *Engine) RejectTransfer(actorID string, id int64, reason string) (*models.TransferRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, validationf("Укажите причину отказа.")
	}
	req, err := e.store.TransferRequest(id)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		e.metrics.AlreadyHandled("transfer")
		return nil, ErrAlreadyHandled
	}
	if !e.claims.TryClaim(StageTransferFinal, id) {
		e.metrics.AlreadyHandled("transfer")
		return nil, ErrAlreadyHandled
	}
	actor, err := e.actor(actorID)
	if err != nil {
		e.claims.Release(StageTransferFinal, id)
		return nil, err
	}
	newID := req.NewDivisionID
	if !e.gate.CanHandleDivision(actor, req.OldDivisionID, &newID) {
		e.claims.Release(StageTransferFinal, id)
		return nil, &PermissionError{MinRank: -1, Reason: "not an officer of either division"}
	}
	if req.Status == models.StatusOldDivisionReview {
		req.OldReviewerID = actorID
	} else {
		req.NewReviewerID = actorID
	}
	req.Status = models.StatusRejected
	req.RejectReason = strings.TrimSpace(reason)
	req.ReviewedAt = timePtr(e.now())
	if err := e.store.Save(req); err != nil {
		return nil, err
	}
	e.metrics.Reviewed("transfer", "rejected")
	e.notifier.Notify(req.UserID, audit.Notice{
		Title:       "❌ Перевод отклонён",
		Description: "Ваша заявка на перевод была отклонена.",
		Color:       0xED4245,
		Fields:      []audit.Field{{Name: "Причина", Value: req.RejectReason}},
	})
	return req, nil
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
