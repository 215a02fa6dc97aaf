// ABOUTME: Permission matrix editor embedded in the profile form
// ABOUTME: Module headers collapse and expand; rows toggle one permission per key
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/bolha/controller"
)

// matrixItem is one cursor stop: a module header or a grant row.
type matrixItem struct {
	module    string
	collapsed bool
	row       *controller.MatrixRow
}

var permissionKeys = map[string]controller.Permission{
	"a": controller.PermitAll,
	"c": controller.PermitCreate,
	"s": controller.PermitRestore,
	"u": controller.PermitUpdate,
	"x": controller.PermitDelete,
	"z": controller.Disabled,
}

func (m Model) matrixItems() []matrixItem {
	matrix := m.form.Matrix()
	if matrix == nil {
		return nil
	}
	var items []matrixItem
	for _, g := range matrix.Groups() {
		items = append(items, matrixItem{module: g.Name, collapsed: g.Collapsed})
		if g.Collapsed {
			continue
		}
		for i := range g.Rows {
			items = append(items, matrixItem{module: g.Name, row: &g.Rows[i]})
		}
	}
	return items
}

func check(b bool) string {
	if b {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) renderMatrix(focused bool) string {
	var s strings.Builder
	marker := "  "
	if focused {
		marker = "> "
	}
	s.WriteString(marker)
	s.WriteString(fieldLabelStyle.Render("Permissions"))
	s.WriteString("\n")

	items := m.matrixItems()
	if len(items) == 0 {
		s.WriteString("    No menu options loaded\n")
		return s.String()
	}
	s.WriteString(fmt.Sprintf("    %-28s %-5s %-6s %-5s %-6s %-6s %s\n", "", "all", "create", "show", "update", "delete", "disabled"))

	for i, it := range items {
		cursor := "    "
		if focused && i == m.matrixCursor {
			cursor = "  ▶ "
		}
		if it.row == nil {
			arrow := "▾"
			if it.collapsed {
				arrow = "▸"
			}
			s.WriteString(cursor)
			s.WriteString(moduleStyle.Render(arrow + " " + it.module))
			s.WriteString("\n")
			continue
		}
		g := it.row.Grant
		s.WriteString(fmt.Sprintf("%s  %-26s %-5s %-6s %-5s %-6s %-6s %s\n",
			cursor, it.row.Option.Label,
			check(g.PermitAll), check(g.PermitCreate), check(g.PermitRestore),
			check(g.PermitUpdate), check(g.PermitDelete), check(g.Disabled)))
	}
	if focused {
		s.WriteString(helpStyle.Render("    Space: Expand/collapse or toggle all • a/c/s/u/x/z: Toggle • C: Collapse all"))
		s.WriteString("\n")
	}
	return s.String()
}

func (m Model) handleMatrixKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	matrix := m.form.Matrix()
	items := m.matrixItems()
	if matrix == nil {
		return m, nil
	}
	if m.matrixCursor >= len(items) {
		m.matrixCursor = 0
	}

	switch key := msg.String(); key {
	case "up", "k":
		if m.matrixCursor > 0 {
			m.matrixCursor--
			return m, nil
		}
		m.formFocus = (m.formFocus + len(m.formFields) - 1) % len(m.formFields)
		m.updateFormFocus()
	case "down", "j":
		if m.matrixCursor < len(items)-1 {
			m.matrixCursor++
			return m, nil
		}
		m.formFocus = (m.formFocus + 1) % len(m.formFields)
		m.updateFormFocus()
	case "C":
		matrix.ToggleAll()
		m.matrixCursor = 0
	case " ", "space":
		if len(items) == 0 {
			return m, nil
		}
		it := items[m.matrixCursor]
		if it.row == nil {
			matrix.ToggleModule(it.module)
		} else {
			matrix.Toggle(controller.OptionKey(it.row.Option), controller.PermitAll)
		}
	default:
		p, ok := permissionKeys[key]
		if !ok || len(items) == 0 {
			return m, nil
		}
		if it := items[m.matrixCursor]; it.row != nil {
			matrix.Toggle(controller.OptionKey(it.row.Option), p)
		}
	}
	return m, nil
}
