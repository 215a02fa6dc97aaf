package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/bolha/controller"
	"github.com/harperreed/bolha/guard"
	"github.com/harperreed/bolha/models"
)

var rowsPerPageOptions = []int{10, 25, 50, 100}

func (m Model) initList() (Model, tea.Cmd) {
	res := m.route.Resource
	l := controller.NewList[models.Record](m.client.Resource(res), controller.ListOptions{
		Clock:       m.clock,
		Debounce:    m.cfg.SearchDebounce,
		RowsPerPage: m.cfg.RowsPerPage,
		Logger:      m.logger.Named("list"),
	})
	events := m.events
	l.OnChange(func() { post(events, listChangedMsg{}) })

	m.list = l
	m.selectedRow = 0
	m.searchInput = textinput.New()
	m.searchInput.Placeholder = "Search " + strings.ToLower(res.Title)
	m.searchInput.CharLimit = 100

	ctx := m.ctx
	return m, func() tea.Msg {
		l.Mount(ctx)
		return nil
	}
}

// listCmd runs a blocking controller call off the update loop.
func (m Model) listCmd(fn func(ctx context.Context, l *controller.List[models.Record])) tea.Cmd {
	l, ctx := m.list, m.ctx
	return func() tea.Msg {
		fn(ctx, l)
		return nil
	}
}

func (m Model) selectedRecord() (models.Record, bool) {
	if m.list == nil {
		return nil, false
	}
	rows := m.list.Snapshot().Rows
	if m.selectedRow < 0 || m.selectedRow >= len(rows) {
		return nil, false
	}
	return rows[m.selectedRow], true
}

func (m Model) renderListView() string {
	var s strings.Builder
	res := m.route.Resource

	// Title
	s.WriteString(titleStyle.Render(strings.ToUpper(res.Title)))
	s.WriteString("\n")

	if m.searching || m.searchInput.Value() != "" {
		s.WriteString(m.searchInput.View())
		s.WriteString("\n")
	}
	s.WriteString("\n")

	// Table
	s.WriteString(m.renderTable())
	s.WriteString("\n")
	s.WriteString(m.renderPager())
	s.WriteString("\n")

	// Help
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTable() string {
	if m.list == nil {
		return ""
	}
	res := m.route.Resource
	state := m.list.Snapshot()

	columns := make([]table.Column, len(res.Columns))
	for i, col := range res.Columns {
		title := col.Label
		if i < len(state.Query.ColumnOrder) {
			switch state.Query.ColumnOrder[i] {
			case models.Asc:
				title += " ▲"
			case models.Desc:
				title += " ▼"
			}
		}
		width := col.Width
		if width <= 0 {
			width = 20
		}
		columns[i] = table.Column{Title: title, Width: width}
	}

	rows := make([]table.Row, 0, len(state.Rows))
	for _, rec := range state.Rows {
		row := make(table.Row, len(res.Columns))
		for i, col := range res.Columns {
			row[i] = rec.Display(col.Field)
		}
		rows = append(rows, row)
	}

	height := m.height - 12
	if height < 5 {
		height = 5
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(!m.searching),
		table.WithHeight(height),
	)

	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func (m Model) renderPager() string {
	if m.list == nil {
		return ""
	}
	state := m.list.Snapshot()
	q := state.Query
	pages := 1
	if q.RowsPerPage > 0 && state.Total > 0 {
		pages = (state.Total + q.RowsPerPage - 1) / q.RowsPerPage
	}
	pager := fmt.Sprintf("Page %d of %d • %d records • %d per page", q.Page+1, pages, state.Total, q.RowsPerPage)
	if state.Loading {
		pager += " • loading..."
	}
	return tabInactiveStyle.Render(pager)
}

func (m Model) renderListHelp() string {
	if m.searching {
		return helpStyle.Render("Type to search • Enter/Esc: Done")
	}
	help := []string{
		"↑/↓: Navigate",
		"←/→: Page",
		"+/-: Rows",
		"1-9: Sort",
		"/: Search",
		"n: New",
		"Enter: Edit",
		"d: Delete",
		"Esc: Home",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	res := m.route.Resource
	key := msg.String()
	switch key {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.list.Snapshot().Rows)-1 {
			m.selectedRow++
		}
	case "right", "pgdown":
		m.selectedRow = 0
		return m, m.listCmd(func(ctx context.Context, l *controller.List[models.Record]) { l.NextPage(ctx) })
	case "left", "pgup":
		m.selectedRow = 0
		return m, m.listCmd(func(ctx context.Context, l *controller.List[models.Record]) { l.PrevPage(ctx) })
	case "+", "-":
		n := nextRowsPerPage(m.list.Snapshot().Query.RowsPerPage, key == "+")
		m.selectedRow = 0
		return m, m.listCmd(func(ctx context.Context, l *controller.List[models.Record]) { l.SetRowsPerPage(ctx, n) })
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx, _ := strconv.Atoi(key)
		if idx > len(res.Columns) {
			return m, nil
		}
		return m, m.listCmd(func(ctx context.Context, l *controller.List[models.Record]) { l.ToggleColumn(ctx, idx-1) })
	case "r":
		return m, m.listCmd(func(ctx context.Context, l *controller.List[models.Record]) { l.Reload(ctx) })
	case "/":
		m.searching = true
		m.searchInput.Focus()
		return m, nil
	case "n":
		m.nav.Push(res.NewRoute())
	case "enter", "e":
		if rec, ok := m.selectedRecord(); ok && rec.HasID() {
			m.nav.Push(res.EditRoute(rec.ID()))
		}
	case "d":
		if rec, ok := m.selectedRecord(); ok && rec.HasID() {
			m.confirmDelete = true
			m.deleteTarget = rec
		}
	case "esc":
		m.nav.Reset(guard.HomePath)
	}

	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if after := m.searchInput.Value(); after != before {
		m.selectedRow = 0
		m.list.SetSearch(after)
	}
	return m, cmd
}

func nextRowsPerPage(current int, up bool) int {
	idx := -1
	for i, n := range rowsPerPageOptions {
		if n == current {
			idx = i
		}
	}
	switch {
	case idx < 0:
		return rowsPerPageOptions[0]
	case up && idx < len(rowsPerPageOptions)-1:
		return rowsPerPageOptions[idx+1]
	case !up && idx > 0:
		return rowsPerPageOptions[idx-1]
	default:
		return current
	}
}
