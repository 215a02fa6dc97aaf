// ABOUTME: Profile permission matrix: one grant row per menu option, grouped by module
// ABOUTME: Module collapse affects display only; every grant is always submitted
package controller

import (
	"sort"
	"sync"

	"github.com/harperreed/bolha/models"
)

// Permission names one column of the matrix.
type Permission string

const (
	PermitAll     Permission = "permitAll"
	PermitCreate  Permission = "permitCreate"
	PermitRestore Permission = "permitRestore"
	PermitUpdate  Permission = "permitUpdate"
	PermitDelete  Permission = "permitDelete"
	Disabled      Permission = "disabled"
)

// Permissions lists the matrix columns in display order.
var Permissions = []Permission{PermitAll, PermitCreate, PermitRestore, PermitUpdate, PermitDelete, Disabled}

// MatrixRow pairs a menu option with its grant.
type MatrixRow struct {
	Option models.MenuOption
	Grant  models.PermissionGrant
}

// ModuleGroup is one module header and the rows under it.
type ModuleGroup struct {
	Name      string
	Collapsed bool
	Rows      []MatrixRow
}

// PermissionMatrix edits the grants of one profile.
type PermissionMatrix struct {
	mu           sync.Mutex
	options      []models.MenuOption
	grants       map[string]models.PermissionGrant
	modules      []string
	collapsed    map[string]bool
	allCollapsed bool
}

// NewPermissionMatrix returns an empty matrix.
func NewPermissionMatrix() *PermissionMatrix {
	return &PermissionMatrix{
		grants:    map[string]models.PermissionGrant{},
		collapsed: map[string]bool{},
	}
}

// OptionKey is the grant key of a menu option.
func OptionKey(o models.MenuOption) string {
	if o.Key != "" {
		return o.Key
	}
	return o.ID
}

// SetOptions installs the fetched menu-option list. Module order follows
// first appearance; collapse state is kept for modules still present.
func (m *PermissionMatrix) SetOptions(options []models.MenuOption) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.options = append([]models.MenuOption(nil), options...)
	m.modules = m.modules[:0]
	collapsed := make(map[string]bool)
	for _, o := range m.options {
		if _, seen := collapsed[o.ModuleName]; !seen {
			m.modules = append(m.modules, o.ModuleName)
			collapsed[o.ModuleName] = m.collapsed[o.ModuleName]
		}
		key := OptionKey(o)
		if _, ok := m.grants[key]; !ok {
			m.grants[key] = models.PermissionGrant{MenuOptionKey: key}
		}
	}
	m.collapsed = collapsed
}

// Load replaces the grants with those of a fetched profile.
func (m *PermissionMatrix) Load(grants []models.PermissionGrant) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.grants = make(map[string]models.PermissionGrant, len(grants))
	for _, g := range grants {
		m.grants[g.MenuOptionKey] = g
	}
	for _, o := range m.options {
		key := OptionKey(o)
		if _, ok := m.grants[key]; !ok {
			m.grants[key] = models.PermissionGrant{MenuOptionKey: key}
		}
	}
}

// Reset clears every grant back to nothing permitted and expands every
// module.
func (m *PermissionMatrix) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.grants = make(map[string]models.PermissionGrant, len(m.options))
	for _, o := range m.options {
		key := OptionKey(o)
		m.grants[key] = models.PermissionGrant{MenuOptionKey: key}
	}
	for name := range m.collapsed {
		m.collapsed[name] = false
	}
	m.allCollapsed = false
}

// Toggle flips one permission of a row. Flipping permitAll sets every
// permission of the row to the new value.
func (m *PermissionMatrix) Toggle(key string, p Permission) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.grants[key]
	if !ok {
		g = models.PermissionGrant{MenuOptionKey: key}
	}
	switch p {
	case PermitAll:
		v := !g.PermitAll
		g.PermitAll, g.PermitCreate, g.PermitRestore, g.PermitUpdate, g.PermitDelete = v, v, v, v, v
	case PermitCreate:
		g.PermitCreate = !g.PermitCreate
	case PermitRestore:
		g.PermitRestore = !g.PermitRestore
	case PermitUpdate:
		g.PermitUpdate = !g.PermitUpdate
	case PermitDelete:
		g.PermitDelete = !g.PermitDelete
	case Disabled:
		g.Disabled = !g.Disabled
	}
	m.grants[key] = g
}

// Grant returns the grant of one row.
func (m *PermissionMatrix) Grant(key string) models.PermissionGrant {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.grants[key]; ok {
		return g
	}
	return models.PermissionGrant{MenuOptionKey: key}
}

// ToggleModule flips the collapse state of one module.
func (m *PermissionMatrix) ToggleModule(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collapsed[name]; ok {
		m.collapsed[name] = !m.collapsed[name]
	}
}

// ToggleAll sets every module to the flipped global state.
func (m *PermissionMatrix) ToggleAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allCollapsed = !m.allCollapsed
	for name := range m.collapsed {
		m.collapsed[name] = m.allCollapsed
	}
}

// Collapsed returns a copy of the per-module collapse state.
func (m *PermissionMatrix) Collapsed() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(m.collapsed))
	for k, v := range m.collapsed {
		out[k] = v
	}
	return out
}

// Modules returns module names in first-appearance order.
func (m *PermissionMatrix) Modules() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.modules...)
}

// Groups returns every module with all of its rows.
func (m *PermissionMatrix) Groups() []ModuleGroup {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := make(map[string]int, len(m.modules))
	groups := make([]ModuleGroup, len(m.modules))
	for i, name := range m.modules {
		idx[name] = i
		groups[i] = ModuleGroup{Name: name, Collapsed: m.collapsed[name]}
	}
	for _, o := range m.options {
		i := idx[o.ModuleName]
		groups[i].Rows = append(groups[i].Rows, MatrixRow{Option: o, Grant: m.grants[OptionKey(o)]})
	}
	return groups
}

// Visible returns the rows of expanded modules only.
func (m *PermissionMatrix) Visible() []MatrixRow {
	var rows []MatrixRow
	for _, g := range m.Groups() {
		if !g.Collapsed {
			rows = append(rows, g.Rows...)
		}
	}
	return rows
}

// Grants returns every grant in menu-option order, regardless of which
// modules are collapsed. Grants for keys not in the option list follow,
// sorted by key.
func (m *PermissionMatrix) Grants() []models.PermissionGrant {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.PermissionGrant, 0, len(m.grants))
	listed := make(map[string]bool, len(m.options))
	for _, o := range m.options {
		key := OptionKey(o)
		listed[key] = true
		out = append(out, m.grants[key])
	}
	var extra []string
	for key := range m.grants {
		if !listed[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		out = append(out, m.grants[key])
	}
	return out
}
