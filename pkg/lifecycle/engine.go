// Package lifecycle implements the request workflows: submission, review
// with at-most-once claims, the resulting service record mutations, and the
// best-effort platform effects that follow a persisted decision.
package lifecycle

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/audit"
	"github.com/Effectys/rmrp-army-bot/pkg/division"
	"github.com/Effectys/rmrp-army-bot/pkg/gating"
	"github.com/Effectys/rmrp-army-bot/pkg/rolesync"
	"github.com/Effectys/rmrp-army-bot/pkg/store"
)

// Guild is the engine's view of the chat platform: role and nickname edits
// on guild members. Implemented over the live session by pkg/discord and by
// fakes in tests.
type Guild interface {
	MemberRoles(userID string) ([]string, error)
	EditMember(userID string, nick string, roles []string) error
	AddRoles(userID string, roleIDs ...string) error
	RemoveRoles(userID string, roleIDs ...string) error
}

// Auditor receives audit payloads after decisions. Best-effort; failures are
// logged by the implementation and never fail the decision.
type Auditor interface {
	Log(e audit.Entry)
	Case(c audit.Case)
	SupplyIssued(s audit.SupplyIssue)
}

// Notifier delivers direct messages to members. Best-effort.
type Notifier interface {
	Notify(userID string, n audit.Notice)
}

// Engine drives every request kind end to end. All mutations go through the
// store; platform effects happen only after the decision is persisted.
type Engine struct {
	store    *store.Store
	registry *division.Registry
	gate     *gating.Gate
	cfg      *global.Config
	guild    Guild
	auditor  Auditor
	notifier Notifier
	claims   *ClaimSet
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
	botID    string
}

type EngineConfig struct {
	Store    *store.Store
	Registry *division.Registry
	Cfg      *global.Config
	Guild    Guild
	Auditor  Auditor
	Notifier Notifier
	Metrics  *Metrics
	Logger   *slog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:    cfg.Store,
		registry: cfg.Registry,
		gate:     &gating.Gate{Cfg: cfg.Cfg, Registry: cfg.Registry},
		cfg:      cfg.Cfg,
		guild:    cfg.Guild,
		auditor:  cfg.Auditor,
		notifier: cfg.Notifier,
		claims:   NewClaimSet(),
		metrics:  cfg.Metrics,
		logger:   logger.With("component", "lifecycle"),
		now:      now,
	}
}

// SetBotID records the bot's own user id, used as the reviewer attribution
// for automatic decisions. Known only after the session opens.
func (e *Engine) SetBotID(id string) {
	e.botID = id
}

// Gate exposes the permission predicates for the transport layer.
func (e *Engine) Gate() *gating.Gate {
	return e.gate
}

// actor loads the acting member's record; a missing record fails the gate.
func (e *Engine) actor(userID string) (*models.Member, error) {
	m, err := e.store.MemberByDiscordID(userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &PermissionError{MinRank: -1, Reason: "no service record"}
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// memberWithStatic loads a record and insists it carries a static id; the
// transport turns ErrStaticRequired into an input prompt.
func (e *Engine) memberWithStatic(userID string) (*models.Member, error) {
	m, err := e.store.MemberByDiscordID(userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrStaticRequired
	}
	if err != nil {
		return nil, err
	}
	if m.Static == nil {
		return nil, ErrStaticRequired
	}
	return m, nil
}

// SetStatic validates and stores a self-reported static id, creating the
// record when absent.
func (e *Engine) SetStatic(userID, raw string) (*models.Member, error) {
	if !global.StaticRegex.MatchString(raw) {
		return nil, validationf("Статик должен быть в формате 123-456.")
	}
	var value int64
	for _, r := range raw {
		if r == '-' {
			continue
		}
		value = value*10 + int64(r-'0')
	}
	m, err := e.store.MemberByDiscordID(userID)
	if errors.Is(err, store.ErrNotFound) {
		m = &models.Member{DiscordID: userID}
	} else if err != nil {
		return nil, err
	}
	m.Static = &value
	if err := e.store.SaveMember(m); err != nil {
		return nil, err
	}
	return m, nil
}

// syncMember reconciles the member's live roles and nickname with the
// record. Called after the decision is persisted; a failure is surfaced as
// ErrSyncFailed without unwinding the decision.
func (e *Engine) syncMember(m *models.Member) error {
	roles, err := e.guild.MemberRoles(m.DiscordID)
	if err != nil {
		return e.syncFailed(m.DiscordID, err)
	}
	divisions := e.registry.All()
	roles = rolesync.Apply(roles, divisions, e.cfg, rolesync.Facts{
		Rank:     m.Rank,
		Division: m.Division,
		Position: m.Position,
	})
	var div *models.Division
	if m.Division != nil {
		div, _ = e.registry.Get(*m.Division)
	}
	nick := rolesync.Nickname(e.cfg, div, m)
	if err := e.guild.EditMember(m.DiscordID, nick, roles); err != nil {
		return e.syncFailed(m.DiscordID, err)
	}
	return nil
}

func (e *Engine) syncFailed(userID string, err error) error {
	e.metrics.SyncFailed()
	e.logger.Error("role sync failed",
		"user_id", userID,
		"error", err,
	)
	return fmt.Errorf("%w for %s: %v", ErrSyncFailed, userID, err)
}

func (e *Engine) rankName(index *int) string {
	if index == nil {
		return "—"
	}
	return e.cfg.RankName(*index)
}

// startOfDayMSK returns MSK midnight of the instant's day; periodic quotas
// roll over there.
func startOfDayMSK(t time.Time) time.Time {
	local := t.In(global.MSK)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, global.MSK)
}

func timePtr(t time.Time) *time.Time { return &t }
func intPtr(i int) *int              { return &i }
func strPtr(s string) *string        { return &s }
