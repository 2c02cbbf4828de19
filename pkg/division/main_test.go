package division

import (
	"errors"
	"testing"

	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLoader struct {
	divisions []models.Division
	err       error
}

func (l *staticLoader) Divisions() ([]models.Division, error) {
	return l.divisions, l.err
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry(&staticLoader{divisions: []models.Division{
		{ID: 1, Name: "Учебный центр", Abbreviation: "УЦ", RoleID: "div-1"},
		{ID: 2, Name: "Силы специальных операций", Abbreviation: "ССО", RoleID: "div-2",
			Positions: []models.Position{
				{Name: "Командир", RoleID: "pos-cmd", Privilege: models.PrivilegeCommander},
				{Name: "Боец", RoleID: "pos-fighter", Privilege: models.PrivilegeDefault},
			}},
	}})
	require.NoError(t, reg.Reload())
	return reg
}

func TestRegistryLookups(t *testing.T) {
	reg := testRegistry(t)

	d, ok := reg.Get(2)
	require.True(t, ok)
	assert.Equal(t, "ССО", d.Abbreviation)

	_, ok = reg.Get(99)
	assert.False(t, ok)

	d, ok = reg.GetByAbbreviation("ссо")
	require.True(t, ok)
	assert.Equal(t, 2, d.ID)

	assert.Len(t, reg.All(), 2)

	two := 2
	assert.Equal(t, "Силы специальных операций", reg.Name(&two))
	assert.Equal(t, "—", reg.Name(nil))
	assert.Equal(t, "ССО", reg.Abbreviation(&two))
}

func TestRegistryResolve(t *testing.T) {
	reg := testRegistry(t)

	div, pos := reg.Resolve([]string{"junk", "div-2", "pos-fighter"})
	require.NotNil(t, div)
	assert.Equal(t, 2, div.ID)
	require.NotNil(t, pos)
	assert.Equal(t, "Боец", pos.Name)

	div, pos = reg.Resolve([]string{"div-1"})
	require.NotNil(t, div)
	assert.Equal(t, 1, div.ID)
	assert.Nil(t, pos)

	div, pos = reg.Resolve([]string{"junk"})
	assert.Nil(t, div)
	assert.Nil(t, pos)
}

func TestRegistryReloadError(t *testing.T) {
	loader := &staticLoader{err: errors.New("db closed")}
	reg := NewRegistry(loader)
	assert.Error(t, reg.Reload())
}
