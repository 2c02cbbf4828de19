package lifecycle

import (
	"errors"
	"strings"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/audit"
	"github.com/Effectys/rmrp-army-bot/pkg/store"
)

// editorsFloor is the rank required to touch other members' records.
const editorsFloor = global.RankCaptain

func (e *Engine) editor(actorID string) (*models.Member, error) {
	actor, err := e.actor(actorID)
	if err != nil {
		return nil, err
	}
	if !e.gate.HasRank(actor, editorsFloor) {
		return nil, &PermissionError{MinRank: editorsFloor}
	}
	return actor, nil
}

// SetRank promotes or demotes a member. The editor must strictly outrank
// both the target's current rank and the rank being granted.
func (e *Engine) SetRank(actorID, targetID string, rank int) (*models.Member, error) {
	actor, err := e.editor(actorID)
	if err != nil {
		return nil, err
	}
	if rank < 0 || rank >= len(e.cfg.Ranks) {
		return nil, validationf("Некорректное звание.")
	}
	target, err := e.store.MemberByDiscordID(targetID)
	if err != nil {
		return nil, err
	}
	if !target.Enrolled() {
		return nil, validationf("Пользователь не состоит на службе.")
	}
	if !e.gate.Outranks(actor, target.Rank) || !e.gate.Outranks(actor, &rank) {
		return nil, &PermissionError{MinRank: -1, Reason: "insufficient rank over the target"}
	}
	oldRank := *target.Rank
	target.Rank = intPtr(rank)
	if err := e.store.SaveMember(target); err != nil {
		return nil, err
	}
	syncErr := e.syncMember(target)
	e.auditor.Log(audit.Entry{
		Action:      audit.ActionRankChanged,
		InitiatorID: actorID,
		TargetID:    targetID,
		TargetName:  target.FullName(),
		Static:      models.FormatStatic(target.Static),
		Fields: []audit.Field{
			{Name: "Было", Value: e.cfg.RankName(oldRank)},
			{Name: "Стало", Value: e.cfg.RankName(rank)},
		},
		At: e.now(),
	})
	return target, syncErr
}

// SetDivision moves a member between divisions directly, bypassing the
// transfer workflow. Brigade command only.
func (e *Engine) SetDivision(actorID, targetID string, divisionID int) (*models.Member, error) {
	actor, err := e.editor(actorID)
	if err != nil {
		return nil, err
	}
	target, err := e.store.MemberByDiscordID(targetID)
	if err != nil {
		return nil, err
	}
	if !target.Enrolled() {
		return nil, validationf("Пользователь не состоит на службе.")
	}
	if !e.gate.Outranks(actor, target.Rank) {
		return nil, &PermissionError{MinRank: -1, Reason: "insufficient rank over the target"}
	}
	div, ok := e.registry.Get(divisionID)
	if !ok {
		return nil, validationf("Подразделение не найдено.")
	}
	old := target.Division
	target.Division = intPtr(div.ID)
	target.Position = nil
	if err := e.store.SaveMember(target); err != nil {
		return nil, err
	}
	syncErr := e.syncMember(target)
	e.auditor.Log(audit.Entry{
		Action:      audit.ActionDivisionChanged,
		InitiatorID: actorID,
		TargetID:    targetID,
		TargetName:  target.FullName(),
		Static:      models.FormatStatic(target.Static),
		Fields: []audit.Field{
			{Name: "Откуда", Value: e.registry.Name(old)},
			{Name: "Куда", Value: div.Name},
		},
		At: e.now(),
	})
	return target, syncErr
}

// SetPosition assigns a post inside the member's division. The editor needs
// a strictly higher privilege in that division; command above colonel
// bypasses the scope. An empty name clears the post.
func (e *Engine) SetPosition(actorID, targetID, positionName string) (*models.Member, error) {
	actor, err := e.editor(actorID)
	if err != nil {
		return nil, err
	}
	target, err := e.store.MemberByDiscordID(targetID)
	if err != nil {
		return nil, err
	}
	if !target.Enrolled() || target.Division == nil {
		return nil, validationf("Пользователь не состоит в подразделении.")
	}
	div, ok := e.registry.Get(*target.Division)
	if !ok {
		return nil, validationf("Подразделение не найдено.")
	}

	positionName = strings.TrimSpace(positionName)
	var newPos *string
	var newPrivilege models.Privilege
	if positionName != "" {
		pos, ok := div.PositionByName(positionName)
		if !ok {
			return nil, validationf("Должность «%s» не найдена в подразделении «%s».", positionName, div.Name)
		}
		newPos = strPtr(pos.Name)
		newPrivilege = pos.Privilege
	}
	bypass := actor.Enrolled() && *actor.Rank > global.RankColonel
	if !bypass {
		if actor.Division == nil || *actor.Division != div.ID {
			return nil, &PermissionError{MinRank: -1, Reason: "not an officer of the target's division"}
		}
		actorPriv := e.gate.Privilege(actor)
		if actorPriv <= newPrivilege || actorPriv <= e.gate.Privilege(target) {
			return nil, &PermissionError{MinRank: -1, Reason: "insufficient privilege over the post"}
		}
	}

	old := target.Position
	target.Position = newPos
	if err := e.store.SaveMember(target); err != nil {
		return nil, err
	}
	syncErr := e.syncMember(target)
	e.auditor.Log(audit.Entry{
		Action:      audit.ActionPositionChanged,
		InitiatorID: actorID,
		TargetID:    targetID,
		TargetName:  target.FullName(),
		Static:      models.FormatStatic(target.Static),
		Fields: []audit.Field{
			{Name: "Было", Value: derefStr(old, "—")},
			{Name: "Стало", Value: derefStr(newPos, "—")},
		},
		At: e.now(),
	})
	return target, syncErr
}

// EditRecord updates name and static on a member's record.
func (e *Engine) EditRecord(actorID, targetID, fullName string, static *int64) (*models.Member, error) {
	actor, err := e.editor(actorID)
	if err != nil {
		return nil, err
	}
	target, err := e.store.MemberByDiscordID(targetID)
	if err != nil {
		return nil, err
	}
	if target.Enrolled() && !e.gate.Outranks(actor, target.Rank) && actorID != targetID {
		return nil, &PermissionError{MinRank: -1, Reason: "insufficient rank over the target"}
	}
	if fullName != "" {
		if !global.NameRegex.MatchString(fullName) {
			return nil, validationf("Имя и фамилия должны быть в формате «Имя Фамилия».")
		}
		target.SetFullName(fullName)
	}
	if static != nil {
		target.Static = static
	}
	if err := e.store.SaveMember(target); err != nil {
		return nil, err
	}
	syncErr := e.syncMember(target)
	e.auditor.Log(audit.Entry{
		Action:      audit.ActionRecordEdited,
		InitiatorID: actorID,
		TargetID:    targetID,
		TargetName:  target.FullName(),
		Static:      models.FormatStatic(target.Static),
		At:          e.now(),
	})
	return target, syncErr
}

// BlacklistMember opens a case on a member. Zero days means indefinite.
func (e *Engine) BlacklistMember(actorID, targetID string, days int, reason, evidence string) (*models.Member, *audit.Case, error) {
	actor, err := e.editor(actorID)
	if err != nil {
		return nil, nil, err
	}
	target, err := e.store.MemberByDiscordID(targetID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, validationf("Пользователь не найден в базе данных.")
	}
	if err != nil {
		return nil, nil, err
	}
	if target.Enrolled() && !e.gate.Outranks(actor, target.Rank) {
		return nil, nil, &PermissionError{MinRank: -1, Reason: "insufficient rank over the target"}
	}
	now := e.now()
	bl := &models.Blacklist{
		InitiatorID: actorID,
		Reason:      reason,
		Evidence:    evidence,
		IssuedAt:    now,
	}
	if days > 0 {
		bl.EndsAt = timePtr(now.AddDate(0, 0, days))
	}
	target.Blacklist = bl
	if err := e.store.SaveMember(target); err != nil {
		return nil, nil, err
	}
	c := &audit.Case{
		InitiatorID:   actorID,
		InitiatorName: actor.FullName(),
		TargetID:      targetID,
		TargetName:    target.FullName(),
		Static:        models.FormatStatic(target.Static),
		Reason:        reason,
		Evidence:      evidence,
		EndsAt:        bl.EndsAt,
		At:            now,
	}
	e.auditor.Case(*c)
	e.notifier.Notify(targetID, audit.Notice{
		Title:       "📋 Черный список",
		Description: "Вы внесены в черный список.",
		Color:       0x992D22,
		Fields:      []audit.Field{{Name: "Причина", Value: reason}},
	})
	return target, c, nil
}

// UnblacklistMember closes an active case.
func (e *Engine) UnblacklistMember(actorID, targetID, reason string) (*models.Member, *audit.Case, error) {
	actor, err := e.editor(actorID)
	if err != nil {
		return nil, nil, err
	}
	target, err := e.store.MemberByDiscordID(targetID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, validationf("Пользователь не найден в базе данных.")
	}
	if err != nil {
		return nil, nil, err
	}
	if target.Blacklist == nil {
		return nil, nil, validationf("Пользователь не находится в черном списке.")
	}
	if target.Enrolled() && !e.gate.Outranks(actor, target.Rank) {
		return nil, nil, &PermissionError{MinRank: -1, Reason: "insufficient rank over the target"}
	}
	old := target.Blacklist
	target.Blacklist = nil
	if err := e.store.SaveMember(target); err != nil {
		return nil, nil, err
	}
	now := e.now()
	c := &audit.Case{
		Closed:        true,
		InitiatorID:   actorID,
		InitiatorName: actor.FullName(),
		TargetID:      targetID,
		TargetName:    target.FullName(),
		Static:        models.FormatStatic(target.Static),
		Reason:        reason,
		Evidence:      old.Reason,
		EndsAt:        old.EndsAt,
		At:            now,
	}
	e.auditor.Case(*c)
	return target, c, nil
}

// DivisionRoster lists a division's members for the directory command,
// highest rank first. Captain and up.
func (e *Engine) DivisionRoster(actorID string, divisionID int) ([]models.Member, error) {
	if _, err := e.editor(actorID); err != nil {
		return nil, err
	}
	if _, ok := e.registry.Get(divisionID); !ok {
		return nil, validationf("Подразделение не найдено.")
	}
	return e.store.MembersOfDivision(divisionID)
}

func derefStr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
