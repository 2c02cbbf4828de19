package lifecycle_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/migrations"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/audit"
	"github.com/Effectys/rmrp-army-bot/pkg/division"
	"github.com/Effectys/rmrp-army-bot/pkg/lifecycle"
	"github.com/Effectys/rmrp-army-bot/pkg/store"
	"github.com/stretchr/testify/require"
)

// fakeGuild records role and nickname edits in memory.
type fakeGuild struct {
	mu      sync.Mutex
	roles   map[string][]string
	nicks   map[string]string
	edits   map[string]int
	failFor map[string]bool
}

func newFakeGuild() *fakeGuild {
	return &fakeGuild{
		roles:   make(map[string][]string),
		nicks:   make(map[string]string),
		edits:   make(map[string]int),
		failFor: make(map[string]bool),
	}
}

func (g *fakeGuild) MemberRoles(userID string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.roles[userID]...), nil
}

func (g *fakeGuild) EditMember(userID string, nick string, roles []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failFor[userID] {
		return errors.New("edit denied")
	}
	g.roles[userID] = append([]string(nil), roles...)
	g.nicks[userID] = nick
	g.edits[userID]++
	return nil
}

func (g *fakeGuild) AddRoles(userID string, roleIDs ...string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failFor[userID] {
		return errors.New("edit denied")
	}
	for _, id := range roleIDs {
		if id == "" || g.hasLocked(userID, id) {
			continue
		}
		g.roles[userID] = append(g.roles[userID], id)
	}
	return nil
}

func (g *fakeGuild) RemoveRoles(userID string, roleIDs ...string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failFor[userID] {
		return errors.New("edit denied")
	}
	drop := make(map[string]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		drop[id] = struct{}{}
	}
	var kept []string
	for _, id := range g.roles[userID] {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	g.roles[userID] = kept
	return nil
}

func (g *fakeGuild) hasLocked(userID, roleID string) bool {
	for _, id := range g.roles[userID] {
		if id == roleID {
			return true
		}
	}
	return false
}

func (g *fakeGuild) hasRole(userID, roleID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hasLocked(userID, roleID)
}

func (g *fakeGuild) nick(userID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nicks[userID]
}

func (g *fakeGuild) editCount(userID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.edits[userID]
}

func (g *fakeGuild) setRoles(userID string, roles ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.roles[userID] = roles
}

type fakeAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
	cases   []audit.Case
	issues  []audit.SupplyIssue
}

func (a *fakeAuditor) Log(e audit.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *fakeAuditor) Case(c audit.Case) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cases = append(a.cases, c)
}

func (a *fakeAuditor) SupplyIssued(s audit.SupplyIssue) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.issues = append(a.issues, s)
}

func (a *fakeAuditor) lastEntry() *audit.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.entries) == 0 {
		return nil
	}
	e := a.entries[len(a.entries)-1]
	return &e
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices map[string][]audit.Notice
}

func (n *fakeNotifier) Notify(userID string, notice audit.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.notices == nil {
		n.notices = make(map[string][]audit.Notice)
	}
	n.notices[userID] = append(n.notices[userID], notice)
}

func (n *fakeNotifier) count(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices[userID])
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	engine   *lifecycle.Engine
	store    *store.Store
	registry *division.Registry
	cfg      *global.Config
	guild    *fakeGuild
	auditor  *fakeAuditor
	notifier *fakeNotifier
	clock    *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, migrations.Migrate(st.DB()))

	require.NoError(t, st.SeedDivisions([]models.Division{
		{ID: 1, Name: "Учебный центр", Abbreviation: "УЦ", RoleID: "div-1",
			Positions: []models.Position{
				{DivisionID: 1, Name: "Командир", RoleID: "pos-cmd-1", Privilege: models.PrivilegeCommander},
				{DivisionID: 1, Name: "Инструктор", RoleID: "pos-instr", Privilege: models.PrivilegeOfficer},
				{DivisionID: 1, Name: "Курсант", RoleID: "pos-cadet", Privilege: models.PrivilegeDefault},
			}},
		{ID: 2, Name: "Силы специальных операций", Abbreviation: "ССО", RoleID: "div-2",
			Positions: []models.Position{
				{DivisionID: 2, Name: "Командир", RoleID: "pos-cmd-2", Privilege: models.PrivilegeCommander},
				{DivisionID: 2, Name: "Боец", RoleID: "pos-fighter", Privilege: models.PrivilegeDefault},
			}},
		{ID: 3, Name: "Военный комиссариат", Abbreviation: "ВК", RoleID: "div-3",
			Positions: []models.Position{
				{DivisionID: 3, Name: "Сотрудник", RoleID: "pos-hq", Privilege: models.PrivilegeDefault},
			}},
	}))

	registry := division.NewRegistry(st)
	require.NoError(t, registry.Reload())

	cfg := &global.Config{
		Ranks: global.DefaultRanks(),
		Roles: global.RoleConfig{
			Military:            "military",
			Contract:            "contract",
			MilitaryAcademy:     "academy",
			BrigadeHQ:           "brigade-hq",
			GeneralHQ:           "general-hq",
			UnitCommander:       "unit-cmd",
			UnitDeputyCommander: "unit-deputy",
			SupplyAccess:        "supply-access",
			GovEmployee:         "gov",
			Attestation:         "attestation",
			Reinforcement:       "reinforcement",
		},
		Transfer: global.TransferConfig{
			MinRank:            global.RankJuniorSergeant,
			EliteMinRank:       global.RankSeniorSergeant,
			EliteAbbreviations: []string{"ССО"},
		},
		Supply: global.SupplyConfig{
			Categories: []global.SupplyCategory{
				{Name: "Медицина", Items: []string{"Аптечка", "Обезболивающее"}},
				{Name: "Снаряжение", Items: []string{"Бронежилет"}},
			},
			ItemLimits:     map[string]int{"Аптечка": 5},
			CategoryLimits: map[string]int{"Медицина": 6},
			Cooldown:       global.Duration(3 * time.Hour),
		},
		DismissalBlockRoles:       []string{"penalty-role"},
		MinServiceDays:            5,
		PenaltyBlacklistDays:      14,
		BaseDivisionID:            1,
		UnassignedDivisionID:      0,
		HQAbbreviation:            "ВК",
		ReinstatementAbbreviation: "ВП",
		ReinstatementMinRank:      4,
		ReinstatementMaxRank:      8,
	}
	for i := range cfg.Ranks {
		cfg.Ranks[i].RoleID = "rank-" + cfg.Ranks[i].Name
	}

	guild := newFakeGuild()
	auditor := &fakeAuditor{}
	notifier := &fakeNotifier{}
	clock := &fakeClock{t: time.Date(2025, 3, 10, 15, 0, 0, 0, global.MSK)}

	engine := lifecycle.NewEngine(lifecycle.EngineConfig{
		Store:    st,
		Registry: registry,
		Cfg:      cfg,
		Guild:    guild,
		Auditor:  auditor,
		Notifier: notifier,
		Now:      clock.Now,
	})
	engine.SetBotID("bot")

	return &testEnv{
		engine:   engine,
		store:    st,
		registry: registry,
		cfg:      cfg,
		guild:    guild,
		auditor:  auditor,
		notifier: notifier,
		clock:    clock,
	}
}

var nextStatic int64 = 100000

// enroll creates an in-service record. Empty position means no post.
func (env *testEnv) enroll(t *testing.T, userID string, rank, divisionID int, position string) *models.Member {
	t.Helper()
	nextStatic++
	static := nextStatic
	invited := env.clock.Now().AddDate(0, -1, 0)
	m := &models.Member{
		DiscordID: userID,
		Static:    &static,
		Rank:      &rank,
		Division:  &divisionID,
		InvitedAt: &invited,
	}
	if position != "" {
		m.Position = &position
	}
	m.SetFullName("Тест Тестов")
	require.NoError(t, env.store.SaveMember(m))
	return m
}

// civilian creates a record with a static but no service.
func (env *testEnv) civilian(t *testing.T, userID string) *models.Member {
	t.Helper()
	nextStatic++
	static := nextStatic
	m := &models.Member{DiscordID: userID, Static: &static}
	m.SetFullName("Тест Тестов")
	require.NoError(t, env.store.SaveMember(m))
	return m
}

func (env *testEnv) member(t *testing.T, userID string) *models.Member {
	t.Helper()
	m, err := env.store.MemberByDiscordID(userID)
	require.NoError(t, err)
	return m
}
