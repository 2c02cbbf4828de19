package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/audit"
	"github.com/Effectys/rmrp-army-bot/pkg/store"
)

// CreateSupplyDraft opens (or resumes) a requisition cart. Contract service
// only; a member with a PENDING requisition may not start another.
func (e *Engine) CreateSupplyDraft(userID string) (*models.SupplyRequest, error) {
	m, err := e.memberWithStatic(userID)
	if err != nil {
		return nil, err
	}
	if !e.gate.HasRank(m, global.RankSeniorSergeant) {
		return nil, &PermissionError{MinRank: global.RankSeniorSergeant}
	}
	if pending, err := e.store.PendingSupplyRequest(userID); err == nil {
		return nil, &OpenRequestError{ExistingID: pending.ID}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if draft, err := e.store.DraftSupplyRequest(userID); err == nil {
		return draft, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	id, err := e.store.NextID("supply_requests")
	if err != nil {
		return nil, err
	}
	req := &models.SupplyRequest{
		ID:       id,
		UserID:   userID,
		Status:   models.StatusDraft,
		FullName: m.FullName(),
		Static:   derefInt64(m.Static),
		Items:    models.Items{},
	}
	if err := e.store.Create(req); err != nil {
		return nil, err
	}
	e.metrics.Created("supply")
	return req, nil
}

// SetSupplyItem puts an item into the cart; zero quantity removes it. The
// owner edits drafts; command from major up may also adjust a pending
// requisition before deciding on it.
func (e *Engine) SetSupplyItem(actorID string, id int64, item string, quantity int) (*models.SupplyRequest, error) {
	req, err := e.store.SupplyRequest(id)
	if err != nil {
		return nil, err
	}
	if err := e.canEditSupply(actorID, req); err != nil {
		return nil, err
	}
	if _, ok := e.cfg.Supply.CategoryOf(item); !ok {
		return nil, validationf("Предмет «%s» отсутствует в каталоге.", item)
	}
	if quantity < 0 {
		return nil, validationf("Количество не может быть отрицательным.")
	}
	if req.Items == nil {
		req.Items = models.Items{}
	}
	if quantity == 0 {
		delete(req.Items, item)
	} else {
		req.Items[item] = quantity
	}
	if err := e.store.Save(req); err != nil {
		return nil, err
	}
	return req, nil
}

// ClearSupplyItems empties the cart.
func (e *Engine) ClearSupplyItems(actorID string, id int64) (*models.SupplyRequest, error) {
	req, err := e.store.SupplyRequest(id)
	if err != nil {
		return nil, err
	}
	if err := e.canEditSupply(actorID, req); err != nil {
		return nil, err
	}
	req.Items = models.Items{}
	if err := e.store.Save(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (e *Engine) canEditSupply(actorID string, req *models.SupplyRequest) error {
	switch req.Status {
	case models.StatusDraft:
		if req.UserID != actorID {
			return &PermissionError{MinRank: -1, Reason: "not the requester"}
		}
		return nil
	case models.StatusPending:
		actor, err := e.actor(actorID)
		if err != nil {
			return err
		}
		if !e.gate.HasRank(actor, global.RankMajor) {
			return &PermissionError{MinRank: global.RankMajor}
		}
		return nil
	}
	return ErrAlreadyHandled
}

// DeleteSupplyDraft discards an unsubmitted cart.
func (e *Engine) DeleteSupplyDraft(actorID string, id int64) error {
	req, err := e.store.SupplyRequest(id)
	if err != nil {
		return err
	}
	if req.UserID != actorID {
		return &PermissionError{MinRank: -1, Reason: "not the requester"}
	}
	if req.Status != models.StatusDraft {
		return ErrAlreadyHandled
	}
	req.Status = models.StatusCancelled
	return e.store.Save(req)
}

// SubmitSupply turns a draft into a pending requisition. The cart must be
// non-empty, within the catalogue limits, and outside the rolling cooldown
// from the member's last issued requisition.
func (e *Engine) SubmitSupply(actorID string, id int64) (*models.SupplyRequest, error) {
	req, err := e.store.SupplyRequest(id)
	if err != nil {
		return nil, err
	}
	if req.UserID != actorID {
		return nil, &PermissionError{MinRank: -1, Reason: "not the requester"}
	}
	if req.Status != models.StatusDraft {
		return nil, ErrAlreadyHandled
	}
	if len(req.Items) == 0 {
		return nil, validationf("Корзина пуста. Добавьте хотя бы один предмет.")
	}
	if err := CheckLimits(e.cfg.Supply, req.Items); err != nil {
		return nil, err
	}
	m, err := e.store.MemberByDiscordID(actorID)
	if err != nil {
		return nil, err
	}
	if err := e.checkSupplyCooldown(m); err != nil {
		return nil, err
	}
	req.Status = models.StatusPending
	req.CreatedAt = e.now()
	if err := e.store.Save(req); err != nil {
		return nil, err
	}
	e.logger.Info("supply request submitted",
		"request_id", id,
		"user_id", actorID,
		"items", len(req.Items),
	)
	return req, nil
}

func (e *Engine) checkSupplyCooldown(m *models.Member) error {
	if m.LastSupplyAt == nil {
		return nil
	}
	readyAt := m.LastSupplyAt.Add(e.cfg.Supply.Cooldown.Std())
	if remaining := readyAt.Sub(e.now()); remaining > 0 {
		return &CooldownError{Remaining: remaining}
	}
	return nil
}

// ReviewSupply decides a pending requisition. Approval stamps the member's
// cooldown, auto-rejects their other pending requisitions in the bot's name
// and writes the storage audit record.
func (e *Engine) ReviewSupply(actorID string, id int64, approve bool) (*models.SupplyRequest, error) {
	req, err := e.store.SupplyRequest(id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.StatusPending {
		e.metrics.AlreadyHandled("supply")
		return nil, ErrAlreadyHandled
	}
	if !e.claims.TryClaim(StageSupplyReview, id) {
		e.metrics.AlreadyHandled("supply")
		return nil, ErrAlreadyHandled
	}
	actor, err := e.actor(actorID)
	if err != nil {
		e.claims.Release(StageSupplyReview, id)
		return nil, err
	}
	if !e.gate.HasRank(actor, global.RankMajor) {
		e.claims.Release(StageSupplyReview, id)
		return nil, &PermissionError{MinRank: global.RankMajor}
	}

	now := e.now()
	if !approve {
		req.Status = models.StatusRejected
		req.ReviewerID = actorID
		req.ReviewedAt = timePtr(now)
		if err := e.store.Save(req); err != nil {
			return nil, err
		}
		e.metrics.Reviewed("supply", "rejected")
		e.notifier.Notify(req.UserID, audit.Notice{
			Title:       "❌ Запрос на снабжение отклонён",
			Description: fmt.Sprintf("Запрос #%d был отклонён.", req.ID),
			Color:       0xED4245,
		})
		return req, nil
	}

	target, err := e.store.MemberByDiscordID(req.UserID)
	if err != nil {
		e.claims.Release(StageSupplyReview, id)
		return nil, err
	}
	// The requester may have been issued another requisition meanwhile.
	if err := e.checkSupplyCooldown(target); err != nil {
		e.claims.Release(StageSupplyReview, id)
		return nil, err
	}

	target.LastSupplyAt = timePtr(now)
	if err := e.store.SaveMember(target); err != nil {
		return nil, err
	}
	req.Status = models.StatusApproved
	req.ReviewerID = actorID
	req.ReviewedAt = timePtr(now)
	if err := e.store.Save(req); err != nil {
		return nil, err
	}
	e.metrics.Reviewed("supply", "approved")

	others, err := e.store.PendingSupplyRequestsExcept(req.UserID, req.ID)
	if err == nil {
		for i := range others {
			other := &others[i]
			other.Status = models.StatusRejected
			other.ReviewerID = e.botID
			other.ReviewedAt = timePtr(now)
			if err := e.store.Save(other); err != nil {
				e.logger.Error("auto-reject failed",
					"request_id", other.ID,
					"error", err,
				)
			}
		}
	}

	e.auditor.SupplyIssued(audit.SupplyIssue{
		RequestID:  req.ID,
		UserID:     req.UserID,
		FullName:   req.FullName,
		Static:     models.FormatStatic(&req.Static),
		ReviewerID: actorID,
		Items:      req.Items,
		At:         now,
	})
	e.notifier.Notify(req.UserID, audit.Notice{
		Title:       "✅ Запрос на снабжение одобрен",
		Description: fmt.Sprintf("Запрос #%d одобрен. Получите имущество на складе.", req.ID),
		Color:       0x57F287,
	})
	return req, nil
}

// CheckLimits validates a cart against the per-item and per-category caps.
func CheckLimits(cfg global.SupplyConfig, items models.Items) error {
	categoryTotals := make(map[string]int)
	for item, qty := range items {
		if limit, ok := cfg.ItemLimits[item]; ok && qty > limit {
			return validationf("Превышен лимит по предмету «%s»: не более %d.", item, limit)
		}
		if cat, ok := cfg.CategoryOf(item); ok {
			categoryTotals[cat.Name] += qty
		}
	}
	for name, total := range categoryTotals {
		if limit, ok := cfg.CategoryLimits[name]; ok && total > limit {
			return validationf("Превышен лимит по категории «%s»: не более %d.", name, limit)
		}
	}
	return nil
}

// SupplyCooldownRemaining reports how long until the member may submit
// again; zero when ready. Used by the cart UI.
func (e *Engine) SupplyCooldownRemaining(m *models.Member) time.Duration {
	if m == nil || m.LastSupplyAt == nil {
		return 0
	}
	remaining := m.LastSupplyAt.Add(e.cfg.Supply.Cooldown.Std()).Sub(e.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
