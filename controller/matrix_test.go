// ABOUTME: Tests for the permission matrix
// ABOUTME: Covers module grouping, collapse toggling and the permitAll cascade
package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/bolha/models"
)

func sampleOptions() []models.MenuOption {
	return []models.MenuOption{
		{Key: "users", ModuleName: "Security"},
		{Key: "vagas", ModuleName: "Recruitment"},
		{Key: "profiles", ModuleName: "Security"},
		{Key: "paises", ModuleName: "Common"},
	}
}

func TestModulesInFirstAppearanceOrder(t *testing.T) {
	m := NewPermissionMatrix()
	m.SetOptions(sampleOptions())

	assert.Equal(t, []string{"Security", "Recruitment", "Common"}, m.Modules())
	assert.Len(t, m.Collapsed(), 3)

	groups := m.Groups()
	require.Len(t, groups, 3)
	assert.Len(t, groups[0].Rows, 2)
}

func TestToggleAllTwiceIsIdentity(t *testing.T) {
	m := NewPermissionMatrix()
	m.SetOptions(sampleOptions())
	m.ToggleModule("Recruitment")
	before := m.Collapsed()

	m.ToggleAll()
	for _, v := range m.Collapsed() {
		assert.True(t, v)
	}
	m.ToggleAll()
	for _, v := range m.Collapsed() {
		assert.False(t, v)
	}

	m.ToggleAll()
	m.ToggleAll()
	assert.Len(t, m.Collapsed(), len(before))
	assert.Equal(t, m.Collapsed(), map[string]bool{"Security": false, "Recruitment": false, "Common": false})
}

func TestVisibleOmitsCollapsedModulesButGrantsDoNot(t *testing.T) {
	m := NewPermissionMatrix()
	m.SetOptions([]models.MenuOption{
		{Key: "a", ModuleName: "A"},
		{Key: "b", ModuleName: "B"},
		{Key: "c", ModuleName: "A"},
	})
	m.ToggleModule("B")

	visible := m.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, "a", visible[0].Option.Key)
	assert.Equal(t, "c", visible[1].Option.Key)

	grants := m.Grants()
	require.Len(t, grants, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{grants[0].MenuOptionKey, grants[1].MenuOptionKey, grants[2].MenuOptionKey})
}

func TestPermitAllCascades(t *testing.T) {
	m := NewPermissionMatrix()
	m.SetOptions(sampleOptions())

	m.Toggle("users", PermitAll)
	g := m.Grant("users")
	assert.True(t, g.PermitAll && g.PermitCreate && g.PermitRestore && g.PermitUpdate && g.PermitDelete)
	assert.False(t, g.Disabled)

	m.Toggle("users", PermitCreate)
	assert.False(t, m.Grant("users").PermitCreate)

	m.Toggle("users", PermitAll)
	g = m.Grant("users")
	assert.False(t, g.PermitAll || g.PermitCreate || g.PermitRestore || g.PermitUpdate || g.PermitDelete)
}

func TestResetClearsGrants(t *testing.T) {
	m := NewPermissionMatrix()
	m.SetOptions(sampleOptions())
	m.Toggle("vagas", Disabled)
	m.Reset()
	assert.False(t, m.Grant("vagas").Disabled)
	assert.Len(t, m.Grants(), 4)
}

func TestResetExpandsEveryModule(t *testing.T) {
	m := NewPermissionMatrix()
	m.SetOptions(sampleOptions())
	m.ToggleAll()
	m.ToggleModule("Security")
	require.Len(t, m.Visible(), 2)

	m.Reset()
	assert.Equal(t, map[string]bool{"Security": false, "Recruitment": false, "Common": false}, m.Collapsed())
	assert.Len(t, m.Visible(), 4)

	// The next ToggleAll collapses, as on a fresh matrix.
	m.ToggleAll()
	for _, v := range m.Collapsed() {
		assert.True(t, v)
	}
}

func TestLoadBeforeOptionsKeepsGrants(t *testing.T) {
	m := NewPermissionMatrix()
	m.Load([]models.PermissionGrant{{MenuOptionKey: "paises", PermitRestore: true}})
	m.SetOptions(sampleOptions())

	assert.True(t, m.Grant("paises").PermitRestore)
	assert.Len(t, m.Grants(), 4)
}
