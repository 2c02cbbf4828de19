package lifecycle

import (
	"errors"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/audit"
	"github.com/Effectys/rmrp-army-bot/pkg/gating"
	"github.com/Effectys/rmrp-army-bot/pkg/rolesync"
	"github.com/Effectys/rmrp-army-bot/pkg/store"
)

// RoleGrantSubmission is the parsed application form for an entry role.
type RoleGrantSubmission struct {
	UserID          string
	Kind            models.RoleKind
	FullName        string
	Static          int64
	Faction         string
	RankPosition    string
	Purpose         string
	CertificateLink string
}

// SubmitRoleGrant files an entry role application.
func (e *Engine) SubmitRoleGrant(sub RoleGrantSubmission) (*models.RoleRequest, error) {
	if !global.NameRegex.MatchString(sub.FullName) {
		return nil, validationf("Имя и фамилия должны быть в формате «Имя Фамилия».")
	}
	if open, err := e.store.OpenRoleRequest(sub.UserID); err == nil {
		return nil, &OpenRequestError{ExistingID: open.ID}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if m, err := e.store.MemberByDiscordID(sub.UserID); err == nil {
		if bl := m.ActiveBlacklist(e.now()); bl != nil {
			return nil, &BlacklistedError{Reason: bl.Reason, EndsAt: bl.EndsAt}
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	id, err := e.store.NextID("role_requests")
	if err != nil {
		return nil, err
	}
	req := &models.RoleRequest{
		ID:              id,
		UserID:          sub.UserID,
		Kind:            sub.Kind,
		Status:          models.StatusPending,
		FullName:        sub.FullName,
		Static:          sub.Static,
		Faction:         sub.Faction,
		RankPosition:    sub.RankPosition,
		Purpose:         sub.Purpose,
		CertificateLink: sub.CertificateLink,
	}
	if err := e.store.Create(req); err != nil {
		return nil, err
	}
	e.metrics.Created("role")
	e.logger.Info("role request created",
		"request_id", id,
		"user_id", sub.UserID,
		"kind", string(sub.Kind),
	)
	return req, nil
}

// ReviewRoleGrant approves or rejects an entry role application. Approving
// the army kind enrolls the applicant as a private of the base division; the
// other kinds attach their marker role and a faction nickname.
func (e *Engine) ReviewRoleGrant(actorID string, id int64, approve bool) (*models.RoleRequest, error) {
	req, err := e.store.RoleRequest(id)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		e.metrics.AlreadyHandled("role")
		return nil, ErrAlreadyHandled
	}
	if !e.claims.TryClaim(StageRoleReview, id) {
		e.metrics.AlreadyHandled("role")
		return nil, ErrAlreadyHandled
	}
	actor, err := e.actor(actorID)
	if err != nil {
		e.claims.Release(StageRoleReview, id)
		return nil, err
	}
	if !e.gate.CanReviewRoleGrant(actor, req.Kind) {
		e.claims.Release(StageRoleReview, id)
		return nil, &PermissionError{MinRank: gating.MinRankForRoleKind(req.Kind)}
	}

	now := e.now()
	req.ReviewerID = actorID
	req.ReviewedAt = timePtr(now)
	if !approve {
		req.Status = models.StatusRejected
		if err := e.store.Save(req); err != nil {
			return nil, err
		}
		e.metrics.Reviewed("role", "rejected")
		e.notifier.Notify(req.UserID, audit.Notice{
			Title:       "❌ Заявка отклонена",
			Description: "Ваша заявка на получение роли была отклонена.",
			Color:       0xED4245,
		})
		return req, nil
	}

	target, err := e.store.MemberByDiscordID(req.UserID)
	if errors.Is(err, store.ErrNotFound) {
		target = &models.Member{DiscordID: req.UserID}
	} else if err != nil {
		return nil, err
	}
	target.SetFullName(req.FullName)
	if req.Static != 0 {
		target.Static = &req.Static
	}

	if req.Kind == models.RoleKindArmy {
		target.Rank = intPtr(global.RankPrivate)
		target.Division = intPtr(e.cfg.BaseDivisionID)
		target.Position = nil
		target.InvitedAt = timePtr(now)
		target.PreInited = false
	}
	if err := e.store.SaveMember(target); err != nil {
		return nil, err
	}
	req.Status = models.StatusApproved
	if err := e.store.Save(req); err != nil {
		return nil, err
	}
	e.metrics.Reviewed("role", "approved")

	var syncErr error
	if req.Kind == models.RoleKindArmy {
		syncErr = e.syncMember(target)
		e.auditor.Log(audit.Entry{
			Action:      audit.ActionInvited,
			InitiatorID: actorID,
			TargetID:    req.UserID,
			TargetName:  target.FullName(),
			Static:      models.FormatStatic(target.Static),
			Fields: []audit.Field{
				{Name: "Звание", Value: e.rankName(target.Rank)},
				{Name: "Подразделение", Value: e.registry.Name(target.Division)},
			},
			At: now,
		})
		e.notifier.Notify(req.UserID, audit.Notice{
			Title:       "✅ Добро пожаловать",
			Description: "Вы приняты на военную службу. Добро пожаловать в ряды армии!",
			Color:       0x57F287,
		})
	} else {
		roleID := e.cfg.Roles.SupplyAccess
		if req.Kind == models.RoleKindGovEmployee {
			roleID = e.cfg.Roles.GovEmployee
		}
		syncErr = e.applyFactionRole(req, roleID)
		e.notifier.Notify(req.UserID, audit.Notice{
			Title:       "✅ Роль выдана",
			Description: "Ваша заявка на получение роли была одобрена.",
			Color:       0x57F287,
		})
	}
	return req, syncErr
}

func (e *Engine) applyFactionRole(req *models.RoleRequest, roleID string) error {
	roles, err := e.guild.MemberRoles(req.UserID)
	if err != nil {
		return e.syncFailed(req.UserID, err)
	}
	if roleID != "" && !containsRole(roles, roleID) {
		roles = append(roles, roleID)
	}
	nick := rolesync.FactionNickname(req.Faction, req.FullName)
	if err := e.guild.EditMember(req.UserID, nick, roles); err != nil {
		return e.syncFailed(req.UserID, err)
	}
	return nil
}

func containsRole(slice []string, value string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}
