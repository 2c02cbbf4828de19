package store_test

import (
	"sort"
	"sync"
	"testing"

	"github.com/Effectys/rmrp-army-bot/migrations"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, migrations.Migrate(st.DB()))
	return st
}

func TestNextIDSequential(t *testing.T) {
	st := testStore(t)
	for want := int64(1); want <= 5; want++ {
		id, err := st.NextID("role_requests")
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
	// Independent counters do not interfere.
	id, err := st.NextID("supply_requests")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestNextIDConcurrent(t *testing.T) {
	st := testStore(t)
	const n = 20

	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			id, err := st.NextID("dismissal_requests")
			assert.NoError(t, err)
			ids[slot] = id
		}(i)
	}
	wg.Wait()

	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	for i, id := range ids {
		assert.Equal(t, int64(i+1), id, "ids must be distinct and consecutive")
	}
}

func TestMemberRoundTrip(t *testing.T) {
	st := testStore(t)

	_, err := st.MemberByDiscordID("u1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	static := int64(123456)
	rank := 3
	div := 1
	m := &models.Member{DiscordID: "u1", Static: &static, Rank: &rank, Division: &div}
	m.SetFullName("Иван Петров")
	require.NoError(t, st.SaveMember(m))

	got, err := st.MemberByDiscordID("u1")
	require.NoError(t, err)
	assert.Equal(t, "Иван Петров", got.FullName())
	require.NotNil(t, got.Rank)
	assert.Equal(t, 3, *got.Rank)

	exists, err := st.MemberExists("u1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMembersOfDivision(t *testing.T) {
	st := testStore(t)
	for _, row := range []struct {
		id   string
		rank *int
		div  int
	}{
		{"a", intp(2), 1},
		{"b", intp(12), 1},
		{"c", intp(5), 2},
		{"d", nil, 1}, // dismissed, must not appear
	} {
		m := &models.Member{DiscordID: row.id, Rank: row.rank, Division: &row.div}
		require.NoError(t, st.SaveMember(m))
	}

	members, err := st.MembersOfDivision(1)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "b", members[0].DiscordID, "highest rank first")
	assert.Equal(t, "a", members[1].DiscordID)
}

func TestOpenRequestLookups(t *testing.T) {
	st := testStore(t)

	_, err := st.OpenTimeoffRequest("u1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, st.Create(&models.TimeoffRequest{
		ID: 1, UserID: "u1", Status: models.StatusPending,
	}))
	open, err := st.OpenTimeoffRequest("u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), open.ID)

	open.Status = models.StatusRejected
	require.NoError(t, st.Save(open))
	_, err = st.OpenTimeoffRequest("u1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Reinstatements stay open through the accepted stage.
	require.NoError(t, st.Create(&models.ReinstatementRequest{
		ID: 1, UserID: "u1", Status: models.StatusAccepted,
	}))
	_, err = st.OpenReinstatementRequest("u1")
	assert.NoError(t, err)
}

func TestPendingSupplyRequestsExcept(t *testing.T) {
	st := testStore(t)
	for id := int64(1); id <= 3; id++ {
		require.NoError(t, st.Create(&models.SupplyRequest{
			ID: id, UserID: "u1", Status: models.StatusPending, Items: models.Items{"Аптечка": 1},
		}))
	}
	require.NoError(t, st.Create(&models.SupplyRequest{
		ID: 4, UserID: "u2", Status: models.StatusPending, Items: models.Items{},
	}))

	others, err := st.PendingSupplyRequestsExcept("u1", 2)
	require.NoError(t, err)
	require.Len(t, others, 2)
	for _, o := range others {
		assert.NotEqual(t, int64(2), o.ID)
		assert.Equal(t, "u1", o.UserID)
	}
}

func TestSeedDivisionsReplacesPositions(t *testing.T) {
	st := testStore(t)

	seed := []models.Division{{
		ID: 1, Name: "Учебный центр", Abbreviation: "УЦ",
		Positions: []models.Position{
			{DivisionID: 1, Name: "Инструктор", Privilege: models.PrivilegeOfficer},
		},
	}}
	require.NoError(t, st.SeedDivisions(seed))

	seed[0].Positions = []models.Position{
		{DivisionID: 1, Name: "Старший инструктор", Privilege: models.PrivilegeOfficer},
		{DivisionID: 1, Name: "Курсант", Privilege: models.PrivilegeDefault},
	}
	require.NoError(t, st.SeedDivisions(seed))

	divisions, err := st.Divisions()
	require.NoError(t, err)
	require.Len(t, divisions, 1)
	require.Len(t, divisions[0].Positions, 2)
	assert.Equal(t, "Старший инструктор", divisions[0].Positions[0].Name)
}

func TestBottomMessageUpsert(t *testing.T) {
	st := testStore(t)

	_, err := st.BottomMessage("chan")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, st.SaveBottomMessage("chan", "msg1"))
	require.NoError(t, st.SaveBottomMessage("chan", "msg2"))

	id, err := st.BottomMessage("chan")
	require.NoError(t, err)
	assert.Equal(t, "msg2", id)
}

func intp(i int) *int { return &i }
