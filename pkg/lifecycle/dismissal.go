package lifecycle

import (
	"errors"
	"strconv"
	"time"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/audit"
	"github.com/Effectys/rmrp-army-bot/pkg/store"
)

// DismissalOutcome reports what an approval actually did.
type DismissalOutcome struct {
	Request        *models.DismissalRequest
	PenaltyApplied bool
	BlacklistEnds  *time.Time
}

// SubmitDismissal files a voluntary dismissal. LiveRoles are the requester's
// current guild roles, checked against the blocking set (active penalty,
// open case).
func (e *Engine) SubmitDismissal(userID string, dtype models.DismissalType, reason string, liveRoles []string) (*models.DismissalRequest, error) {
	m, err := e.memberWithStatic(userID)
	if err != nil {
		return nil, err
	}
	if !m.Enrolled() {
		return nil, validationf("Подать рапорт на увольнение могут только военнослужащие.")
	}
	for _, blocked := range e.cfg.DismissalBlockRoles {
		if blocked != "" && containsRole(liveRoles, blocked) {
			return nil, validationf("Увольнение недоступно: на вас наложены ограничения.")
		}
	}
	if open, err := e.store.OpenDismissalRequest(userID); err == nil {
		return nil, &OpenRequestError{ExistingID: open.ID}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return e.createDismissal(m, userID, dtype, reason)
}

// FileAutoDismissal is called when an enrolled member leaves the guild. It
// skips the duplicate and restriction checks; the record must still be
// closed out by a reviewer.
func (e *Engine) FileAutoDismissal(userID string) (*models.DismissalRequest, error) {
	m, err := e.store.MemberByDiscordID(userID)
	if err != nil {
		return nil, err
	}
	if !m.Enrolled() {
		return nil, ErrNotFound
	}
	return e.createDismissal(m, userID, models.DismissalAuto, "Покинул сервер")
}

func (e *Engine) createDismissal(m *models.Member, userID string, dtype models.DismissalType, reason string) (*models.DismissalRequest, error) {
	id, err := e.store.NextID("dismissal_requests")
	if err != nil {
		return nil, err
	}
	req := &models.DismissalRequest{
		ID:         id,
		UserID:     userID,
		Type:       dtype,
		Status:     models.StatusPending,
		FullName:   m.FullName(),
		Static:     derefInt64(m.Static),
		RankIndex:  *m.Rank,
		DivisionID: m.Division,
		Position:   m.Position,
		Reason:     reason,
	}
	if err := e.store.Create(req); err != nil {
		return nil, err
	}
	e.metrics.Created("dismissal")
	e.logger.Info("dismissal request created",
		"request_id", id,
		"user_id", userID,
		"type", string(dtype),
	)
	return req, nil
}

// ApproveDismissal closes out a service record: rank, division and position
// are nulled, managed roles stripped, the dismissed nickname set. Tenure
// under the minimum service term costs an automatic blacklist term.
// evidenceLink points at the review message for the case file.
func (e *Engine) ApproveDismissal(actorID string, id int64, evidenceLink string) (*DismissalOutcome, error) {
	req, err := e.store.DismissalRequest(id)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		e.metrics.AlreadyHandled("dismissal")
		return nil, ErrAlreadyHandled
	}
	if !e.claims.TryClaim(StageDismissalReview, id) {
		e.metrics.AlreadyHandled("dismissal")
		return nil, ErrAlreadyHandled
	}
	actor, err := e.actor(actorID)
	if err != nil {
		e.claims.Release(StageDismissalReview, id)
		return nil, err
	}
	if !e.gate.HasRank(actor, global.RankCaptain) {
		e.claims.Release(StageDismissalReview, id)
		return nil, &PermissionError{MinRank: global.RankCaptain}
	}
	target, err := e.store.MemberByDiscordID(req.UserID)
	if err != nil {
		e.claims.Release(StageDismissalReview, id)
		return nil, err
	}
	// Equal rank is not enough to dismiss someone.
	if target.Enrolled() && !e.gate.Outranks(actor, target.Rank) {
		e.claims.Release(StageDismissalReview, id)
		return nil, &PermissionError{MinRank: -1, Reason: "target holds an equal or higher rank"}
	}

	now := e.now()
	outcome := &DismissalOutcome{Request: req}
	if target.InvitedAt != nil &&
		now.Sub(*target.InvitedAt) < time.Duration(e.cfg.MinServiceDays)*24*time.Hour {
		ends := now.AddDate(0, 0, e.cfg.PenaltyBlacklistDays)
		target.Blacklist = &models.Blacklist{
			InitiatorID: actorID,
			Reason:      "Неустойка",
			Evidence:    evidenceLink,
			EndsAt:      &ends,
			IssuedAt:    now,
		}
		req.PenaltyApplied = true
		outcome.PenaltyApplied = true
		outcome.BlacklistEnds = &ends
	}

	target.SetFullName(req.FullName)
	target.Rank = nil
	target.Division = nil
	target.Position = nil
	if err := e.store.SaveMember(target); err != nil {
		return nil, err
	}
	req.Status = models.StatusApproved
	req.ReviewerID = actorID
	req.ReviewedAt = timePtr(now)
	if err := e.store.Save(req); err != nil {
		return nil, err
	}
	e.metrics.Reviewed("dismissal", "approved")

	var syncErr error
	if req.Type != models.DismissalAuto {
		// A member who left the guild has no roles to strip.
		syncErr = e.syncMember(target)
	}
	e.auditor.Log(audit.Entry{
		Action:      audit.ActionDismissed,
		InitiatorID: actorID,
		TargetID:    req.UserID,
		TargetName:  target.FullName(),
		Static:      models.FormatStatic(target.Static),
		Fields: []audit.Field{
			{Name: "Причина", Value: req.Reason},
			{Name: "Звание на момент увольнения", Value: e.cfg.RankName(req.RankIndex)},
		},
		At: now,
	})
	if outcome.PenaltyApplied {
		e.auditor.Case(audit.Case{
			InitiatorID:   actorID,
			InitiatorName: actor.FullName(),
			TargetID:      req.UserID,
			TargetName:    target.FullName(),
			Static:        models.FormatStatic(target.Static),
			Reason:        "Неустойка",
			Evidence:      evidenceLink,
			EndsAt:        outcome.BlacklistEnds,
			At:            now,
		})
		e.notifier.Notify(req.UserID, audit.Notice{
			Title: "📋 Черный список",
			Description: "Вы уволены ранее минимального срока службы и внесены в черный список " +
				"на " + formatDays(e.cfg.PenaltyBlacklistDays) + ".",
			Color: 0x992D22,
		})
	}
	e.notifier.Notify(req.UserID, audit.Notice{
		Title:       "📤 Увольнение",
		Description: "Ваш рапорт на увольнение был одобрен. Спасибо за службу!",
		Color:       0xED4245,
	})
	return outcome, syncErr
}

// RejectDismissal closes the request without touching the record.
func (e *Engine) RejectDismissal(actorID string, id int64) (*models.DismissalRequest, error) {
	req, err := e.store.DismissalRequest(id)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		e.metrics.AlreadyHandled("dismissal")
		return nil, ErrAlreadyHandled
	}
	if !e.claims.TryClaim(StageDismissalReview, id) {
		e.metrics.AlreadyHandled("dismissal")
		return nil, ErrAlreadyHandled
	}
	actor, err := e.actor(actorID)
	if err != nil {
		e.claims.Release(StageDismissalReview, id)
		return nil, err
	}
	if !e.gate.HasRank(actor, global.RankCaptain) {
		e.claims.Release(StageDismissalReview, id)
		return nil, &PermissionError{MinRank: global.RankCaptain}
	}
	req.Status = models.StatusRejected
	req.ReviewerID = actorID
	req.ReviewedAt = timePtr(e.now())
	if err := e.store.Save(req); err != nil {
		return nil, err
	}
	e.metrics.Reviewed("dismissal", "rejected")
	e.notifier.Notify(req.UserID, audit.Notice{
		Title:       "❌ Рапорт отклонён",
		Description: "Ваш рапорт на увольнение был отклонён.",
		Color:       0xED4245,
	})
	return req, nil
}

// CancelDismissal lets the requester withdraw their own pending report.
func (e *Engine) CancelDismissal(userID string, id int64) (*models.DismissalRequest, error) {
	req, err := e.store.DismissalRequest(id)
	if err != nil {
		return nil, err
	}
	if req.UserID != userID {
		return nil, &PermissionError{MinRank: -1, Reason: "not the requester"}
	}
	if req.Status.Terminal() {
		e.metrics.AlreadyHandled("dismissal")
		return nil, ErrAlreadyHandled
	}
	if !e.claims.TryClaim(StageDismissalReview, id) {
		e.metrics.AlreadyHandled("dismissal")
		return nil, ErrAlreadyHandled
	}
	req.Status = models.StatusCancelled
	req.ReviewedAt = timePtr(e.now())
	if err := e.store.Save(req); err != nil {
		return nil, err
	}
	e.metrics.Reviewed("dismissal", "cancelled")
	return req, nil
}

func formatDays(n int) string {
	// 14 дней, 21 день, 22 дня
	switch {
	case n%100 >= 11 && n%100 <= 14:
		return strconv.Itoa(n) + " дней"
	case n%10 == 1:
		return strconv.Itoa(n) + " день"
	case n%10 >= 2 && n%10 <= 4:
		return strconv.Itoa(n) + " дня"
	default:
		return strconv.Itoa(n) + " дней"
	}
}
