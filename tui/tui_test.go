// ABOUTME: Tests for the console screens driven against the dev server
// ABOUTME: Verifies sign-in, guarded routing, list, form, matrix, profile and idle sign-out
package tui

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/crypto/bcrypt"

	"github.com/harperreed/bolha/api"
	"github.com/harperreed/bolha/clock"
	"github.com/harperreed/bolha/config"
	"github.com/harperreed/bolha/controller"
	"github.com/harperreed/bolha/db"
	"github.com/harperreed/bolha/devserver"
	"github.com/harperreed/bolha/guard"
	"github.com/harperreed/bolha/models"
	"github.com/harperreed/bolha/session"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "s3cret"
)

type harness struct {
	model   Model
	clock   *clock.Fake
	client  *api.Client
	session *session.Context
}

func setupHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.OpenDatabase(db.MemoryPath)
	if err != nil {
		t.Fatalf("Failed to open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	srv, err := devserver.New(database, devserver.Options{
		JWTSecret:  []byte("tui-test-secret"),
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	if _, err := srv.Seed(context.Background(), devserver.SeedOptions{
		AdminEmail:    testEmail,
		AdminPassword: testPassword,
		SampleData:    true,
	}); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}
	httpSrv := httptest.NewServer(srv.Router())
	t.Cleanup(httpSrv.Close)

	store, err := session.OpenInMemory()
	if err != nil {
		t.Fatalf("Failed to open session store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	sess := session.New(store)

	client, err := api.NewClient(httpSrv.URL, sess)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	cfg := config.Default()
	fake := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	h := &harness{clock: fake, client: client, session: sess}
	m, cmd := NewModel(Options{Client: client, Session: sess, Config: cfg, Clock: fake}).Start()
	h.model = h.run(t, m, cmd)
	t.Cleanup(func() { h.model.Stop() })
	return h
}

// run executes cmd and every command it produces, feeding messages back
// through Update until nothing is left.
func (h *harness) run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			next, more := m.Update(msg)
			m = next.(Model)
			queue = append(queue, more)
		}
	}
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func (h *harness) press(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		next, cmd := h.model.Update(keyMsg(k))
		h.model = h.run(t, next.(Model), cmd)
	}
}

func (h *harness) typeText(t *testing.T, text string) {
	t.Helper()
	for _, r := range text {
		h.press(t, string(r))
	}
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	h.typeText(t, testEmail)
	h.press(t, "tab")
	h.typeText(t, testPassword)
	h.press(t, "enter")
	if h.model.route.Kind != guard.KindHome {
		t.Fatalf("Expected home after sign-in, got kind %v (banner %q)", h.model.route.Kind, h.model.banner)
	}
}

func (h *harness) open(t *testing.T, path string) {
	t.Helper()
	h.model.nav.Push(path)
	m, cmd := h.model.syncRoute(false)
	h.model = h.run(t, m, cmd)
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

func TestAnonymousStartLandsOnSignIn(t *testing.T) {
	h := setupHarness(t)

	if h.model.route.Kind != guard.KindSignIn {
		t.Fatalf("Expected sign-in, got kind %v", h.model.route.Kind)
	}
	if h.model.nav.Current() != guard.SignInPath {
		t.Errorf("Expected navigator at %q, got %q", guard.SignInPath, h.model.nav.Current())
	}
	if !contains(h.model.View(), "SIGN IN") {
		t.Error("Sign-in view should contain its title")
	}
}

func TestSignInValidationBlocksRequest(t *testing.T) {
	h := setupHarness(t)

	h.press(t, "enter")

	if h.model.authErrors["email"] != "required" {
		t.Errorf("Expected email required error, got %q", h.model.authErrors["email"])
	}
	if !h.session.Current().Empty() {
		t.Error("Session should stay empty when validation fails")
	}
	if h.model.route.Kind != guard.KindSignIn {
		t.Error("Should stay on sign-in")
	}
}

func TestSignInShowsBackendMessage(t *testing.T) {
	h := setupHarness(t)

	h.typeText(t, testEmail)
	h.press(t, "tab")
	h.typeText(t, "wrong")
	h.press(t, "enter")

	if h.model.banner != "incorrect email/password combination" {
		t.Errorf("Unexpected banner %q", h.model.banner)
	}
	if !h.model.bannerErr {
		t.Error("Banner should be an error")
	}
	if h.model.route.Kind != guard.KindSignIn {
		t.Error("Should stay on sign-in")
	}
}

func TestSignInLoadsMenu(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)

	if !h.session.Valid() {
		t.Fatal("Session should be valid after sign-in")
	}
	if len(h.model.menu) != 3 {
		t.Fatalf("Expected 3 modules in menu, got %d", len(h.model.menu))
	}
	if h.model.menuLen() != len(models.Resources()) {
		t.Errorf("Expected %d menu options, got %d", len(models.Resources()), h.model.menuLen())
	}
	view := h.model.View()
	if !contains(view, models.ModuleSecurity) || !contains(view, "Countries") {
		t.Error("Home should list modules and options")
	}

	// Signed-in users never see sign-in again.
	h.open(t, guard.SignInPath)
	if h.model.route.Kind != guard.KindHome {
		t.Errorf("Expected redirect to home, got kind %v", h.model.route.Kind)
	}
}

func TestMenuEnterOpensList(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)

	h.press(t, "enter")

	if h.model.route.Kind != guard.KindList {
		t.Fatalf("Expected list, got kind %v", h.model.route.Kind)
	}
	if h.model.route.Resource.Name != models.Resources()[0].Name {
		t.Errorf("Opened %s", h.model.route.Resource.Name)
	}
}

func TestUnknownRouteShowsNotFound(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)

	h.open(t, "/nowhere")

	if h.model.route.Kind != guard.KindNotFound {
		t.Fatalf("Expected not-found, got kind %v", h.model.route.Kind)
	}
	if !contains(h.model.View(), "PAGE NOT FOUND") {
		t.Error("Not-found view should say so")
	}
	h.press(t, "esc")
	if h.model.route.Kind != guard.KindHome {
		t.Error("Esc should go home")
	}
}

func TestListSearchIsDebounced(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)
	h.open(t, "/cidades")

	state := h.model.list.Snapshot()
	if len(state.Rows) != 7 || state.Total != 7 {
		t.Fatalf("Expected 7 cities, got %d rows / %d total", len(state.Rows), state.Total)
	}

	h.press(t, "/")
	h.typeText(t, "campinas")

	if got := h.model.list.Snapshot().Total; got != 7 {
		t.Errorf("Search should wait for the debounce window, total is %d", got)
	}

	h.clock.Advance(time.Second)

	state = h.model.list.Snapshot()
	if state.Query.Search != "campinas" {
		t.Errorf("Expected search text campinas, got %q", state.Query.Search)
	}
	if len(state.Rows) != 1 || state.Total != 1 {
		t.Fatalf("Expected 1 match, got %d rows / %d total", len(state.Rows), state.Total)
	}
	if state.Rows[0].String("nomeCidade") != "Campinas" {
		t.Errorf("Unexpected row %v", state.Rows[0])
	}
}

func TestListRowsPerPageResetsPage(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)
	h.open(t, "/cidades")

	// 100 -> 50 -> 25 -> 10
	h.press(t, "-", "-", "-")
	state := h.model.list.Snapshot()
	if state.Query.RowsPerPage != 10 {
		t.Fatalf("Expected 10 rows per page, got %d", state.Query.RowsPerPage)
	}
	if state.Query.Page != 0 {
		t.Errorf("Expected page 0, got %d", state.Query.Page)
	}
	if len(state.Rows) > state.Query.RowsPerPage {
		t.Errorf("Rows %d exceed page size %d", len(state.Rows), state.Query.RowsPerPage)
	}
}

func TestListSortToggle(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)
	h.open(t, "/cidades")

	h.press(t, "2")
	state := h.model.list.Snapshot()
	if len(state.Query.ColumnOrder) < 2 || state.Query.ColumnOrder[1] != models.Asc {
		t.Fatalf("Expected ascending city column, got %v", state.Query.ColumnOrder)
	}
	if first := state.Rows[0].String("nomeCidade"); first != "Belo Horizonte" {
		t.Errorf("Expected Belo Horizonte first, got %q", first)
	}

	h.press(t, "2")
	state = h.model.list.Snapshot()
	if state.Query.ColumnOrder[1] != models.Desc {
		t.Errorf("Second toggle should sort descending, got %v", state.Query.ColumnOrder)
	}
	if !contains(h.model.View(), "City ▼") {
		t.Error("Header should show the sort direction")
	}
}

func TestDeleteConfirmationRemovesRecord(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)
	h.open(t, "/cidades")

	h.press(t, "d")
	if !h.model.confirmDelete {
		t.Fatal("Expected delete confirmation")
	}
	if !contains(h.model.View(), "DELETE CONFIRMATION") {
		t.Error("Confirmation dialog should render")
	}

	h.press(t, "n")
	if h.model.confirmDelete {
		t.Fatal("n should cancel")
	}
	if got := h.model.list.Snapshot().Total; got != 7 {
		t.Fatalf("Cancel should not delete, total %d", got)
	}

	h.press(t, "d", "y")
	if h.model.confirmDelete {
		t.Error("Dialog should close after delete")
	}
	if h.model.banner != "Record deleted" {
		t.Errorf("Unexpected banner %q", h.model.banner)
	}
	if got := h.model.list.Snapshot().Total; got != 6 {
		t.Errorf("Expected 6 cities after delete, got %d", got)
	}
}

func TestDeleteFailureShowsBackendMessage(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)
	h.open(t, "/users")

	h.press(t, "d", "y")

	if h.model.banner != "you cannot delete yourself" {
		t.Errorf("Unexpected banner %q", h.model.banner)
	}
	if got := h.model.list.Snapshot().Total; got != 1 {
		t.Errorf("List should be unchanged, total %d", got)
	}
}

func TestCreateFormResetsForNextRecord(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)
	h.open(t, "/paises/new")

	if h.model.route.Kind != guard.KindForm || h.model.route.Mode != guard.ModeNew {
		t.Fatalf("Expected create form, got %+v", h.model.route)
	}

	h.typeText(t, "AR")
	h.press(t, "tab")
	h.typeText(t, "Argentina")
	h.press(t, "enter")

	if h.model.banner != "Countries saved" {
		t.Fatalf("Unexpected banner %q", h.model.banner)
	}
	if h.model.nav.Current() != "/paises/new" {
		t.Errorf("Expected to stay on /paises/new, got %q", h.model.nav.Current())
	}
	if h.model.formFocus != 0 {
		t.Errorf("First input should take focus, got %d", h.model.formFocus)
	}
	if v := h.model.formInputs["nomePais"].Value(); v != "" {
		t.Errorf("Inputs should reset, nomePais=%q", v)
	}
	if st := h.model.form.State(); st.Values.String("nomePais") != "" {
		t.Errorf("Form values should reset, got %v", st.Values)
	}

	total, err := h.client.Count(context.Background(), "paises", "")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if total != 2 {
		t.Errorf("Expected 2 countries, got %d", total)
	}
}

func TestCreateFormValidationStaysLocal(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)
	h.open(t, "/paises/new")

	h.press(t, "enter")

	st := h.model.form.State()
	if st.Errors["codigoPais"] != "required" || st.Errors["nomePais"] != "required" {
		t.Errorf("Expected required errors, got %v", st.Errors)
	}
	if h.model.banner != "" {
		t.Errorf("Validation errors should not use the banner, got %q", h.model.banner)
	}
	if !contains(h.model.View(), "required") {
		t.Error("Field errors should render inline")
	}
}

func TestEditFormLoadsAndReturnsToList(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)

	res, _ := models.FindResource("paises")
	rows, err := h.client.Resource(res).List(context.Background(), models.NewListQuery(10))
	if err != nil || len(rows) != 1 {
		t.Fatalf("Expected one country, got %d (%v)", len(rows), err)
	}
	id := rows[0].ID()

	h.open(t, res.EditRoute(id))
	if v := h.model.formInputs["nomePais"].Value(); v != "Brasil" {
		t.Fatalf("Expected loaded value Brasil, got %q", v)
	}
	if st := h.model.form.State(); st.Status != controller.StatusLoaded {
		t.Errorf("Expected loaded status, got %s", st.Status)
	}

	h.press(t, "tab", "end")
	h.typeText(t, "!")
	h.press(t, "enter")

	if h.model.route.Kind != guard.KindList {
		t.Fatalf("Expected list after update, got kind %v (banner %q)", h.model.route.Kind, h.model.banner)
	}
	rec, err := h.client.Get(context.Background(), res.Segment, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.String("nomePais") != "Brasil!" {
		t.Errorf("Expected updated name, got %q", rec.String("nomePais"))
	}
}

func TestForeignKeyLookupCycles(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)
	h.open(t, "/cidades/new")

	if len(h.model.form.State().Lookups["estadoId"]) != 3 {
		t.Fatalf("Expected 3 state options, got %v", h.model.form.State().Lookups["estadoId"])
	}

	// estadoId is the first field and required: no empty choice.
	h.press(t, "right")
	first := models.Scalar(h.model.form.State().Values["estadoId"])
	if first == "" {
		t.Fatal("right should select a state")
	}
	h.press(t, "right")
	second := models.Scalar(h.model.form.State().Values["estadoId"])
	if second == first {
		t.Error("right should move to the next state")
	}
	h.press(t, "left")
	if got := models.Scalar(h.model.form.State().Values["estadoId"]); got != first {
		t.Errorf("left should go back, got %q", got)
	}
}

func TestBoolFieldToggles(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)
	h.open(t, "/user-groups/new")

	h.press(t, "tab", "space")
	if b, _ := h.model.form.State().Values["disabled"].(bool); !b {
		t.Error("space should toggle the bool on")
	}
	if !contains(h.model.View(), "[x]") {
		t.Error("Toggled bool should render checked")
	}
}

func TestPermissionMatrixSubmitsEveryGrant(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)
	h.open(t, "/profiles/new")

	matrix := h.model.form.Matrix()
	if matrix == nil {
		t.Fatal("Profiles form should carry a permission matrix")
	}
	if got := len(matrix.Grants()); got != len(models.Resources()) {
		t.Fatalf("Expected %d grants, got %d", len(models.Resources()), got)
	}

	// userGroupId -> name
	h.press(t, "tab")
	h.typeText(t, "Viewers")
	// name -> disabled -> permissions
	h.press(t, "tab", "tab")
	if f, _ := h.model.focusedField(); f.Kind != models.KindGrants {
		t.Fatalf("Expected matrix focus, got %s", f.Name)
	}

	items := h.model.matrixItems()
	if len(items) < 2 || items[1].row == nil {
		t.Fatalf("Expected a module header followed by a row, got %d items", len(items))
	}
	key := controller.OptionKey(items[1].row.Option)

	h.press(t, "down", "s")
	if g := matrix.Grant(key); !g.PermitRestore || g.PermitAll {
		t.Errorf("Expected show-only grant, got %+v", g)
	}

	h.press(t, "C")
	if len(matrix.Visible()) != 0 {
		t.Error("Collapse all should hide every row")
	}
	h.press(t, "C")
	if len(matrix.Visible()) != len(models.Resources()) {
		t.Error("Second toggle should restore every row")
	}

	// Collapse one module; its grants are still submitted.
	h.press(t, "space")
	if len(matrix.Visible()) == len(models.Resources()) {
		t.Error("Space on a module header should collapse it")
	}
	h.press(t, "enter")
	if h.model.banner != "Profiles saved" {
		t.Fatalf("Unexpected banner %q", h.model.banner)
	}

	res, _ := models.FindResource("profiles")
	q := models.NewListQuery(10)
	q.Search = "Viewers"
	rows, err := h.client.Resource(res).List(context.Background(), q)
	if err != nil || len(rows) != 1 {
		t.Fatalf("Expected the new profile, got %d (%v)", len(rows), err)
	}
	rec, err := h.client.Resource(res).Get(context.Background(), rows[0].ID())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	grants := models.DecodeGrants(rec["menuOptions"])
	if len(grants) != len(models.Resources()) {
		t.Fatalf("Expected %d stored grants, got %d", len(models.Resources()), len(grants))
	}
	for _, g := range grants {
		if g.MenuOptionKey == key && !g.PermitRestore {
			t.Errorf("%s should keep its show grant", key)
		}
	}
}

func TestPermissionGraphView(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)
	h.open(t, "/profiles/new")

	next, cmd := h.model.Update(tea.KeyMsg{Type: tea.KeyCtrlG})
	h.model = h.run(t, next.(Model), cmd)

	if !h.model.showDOT {
		t.Fatalf("Expected graph view (banner %q)", h.model.banner)
	}
	if !contains(h.model.graphDOT, "digraph") {
		t.Error("Graph should be DOT source")
	}
	h.press(t, "esc")
	if h.model.showDOT {
		t.Error("Esc should return to the form")
	}
}

func TestProfileUpdateRefreshesSession(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)
	h.open(t, guard.ProfilePath)

	if v := h.model.authInputs[0].Value(); v != "Administrator" {
		t.Fatalf("Expected current name, got %q", v)
	}

	h.press(t, "tab")
	h.typeText(t, "abc")
	h.press(t, "tab")
	h.typeText(t, "xyz")
	if h.model.authErrors["repeatPassword"] != "passwords do not match" {
		t.Errorf("Expected mismatch error, got %v", h.model.authErrors)
	}

	// Back to name, drop the password change.
	next := h.model
	next.authInputs[1].SetValue("")
	next.authInputs[2].SetValue("")
	next.profile.Set("password", "")
	next.profile.Set("repeatPassword", "")
	h.model = next

	h.press(t, "shift+tab", "shift+tab", "end")
	h.typeText(t, " Two")
	h.press(t, "enter")

	if h.model.route.Kind != guard.KindHome {
		t.Fatalf("Expected home after save, got kind %v (banner %q)", h.model.route.Kind, h.model.banner)
	}
	if got := h.session.Current().User.Name; got != "Administrator Two" {
		t.Errorf("Session user should be refreshed, got %q", got)
	}
}

func TestIdleTimeoutSignsOut(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)
	h.open(t, "/cidades")

	h.clock.Advance(guard.DefaultIdleTimeout)

	if h.session.Valid() {
		t.Fatal("Idle timeout should clear the session")
	}
	if h.model.nav.Current() != guard.SignInPath {
		t.Errorf("Expected navigator at sign-in, got %q", h.model.nav.Current())
	}

	next, _ := h.model.Update(idleMsg{})
	h.model = next.(Model)
	if h.model.route.Kind != guard.KindSignIn {
		t.Errorf("Expected sign-in screen, got kind %v", h.model.route.Kind)
	}
	if h.model.banner != "Signed out after inactivity" {
		t.Errorf("Unexpected banner %q", h.model.banner)
	}
	if h.model.list != nil {
		t.Error("List controller should be closed")
	}
}

func TestIdleSignOutSurvivesFullEventQueue(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)
	h.open(t, "/cidades")

	for len(h.model.events) < cap(h.model.events) {
		h.model.events <- listChangedMsg{}
	}
	h.clock.Advance(guard.DefaultIdleTimeout)
	if h.session.Valid() {
		t.Fatal("Idle timeout should clear the session")
	}

	msg := h.model.waitForEvent()()
	if _, ok := msg.(idleMsg); !ok {
		t.Fatalf("Expected the idle sign-out ahead of queued redraws, got %T", msg)
	}

	// A queued redraw alone also follows the navigator to sign-in.
	next, _ := h.model.Update(listChangedMsg{})
	h.model = next.(Model)
	if h.model.route.Kind != guard.KindSignIn {
		t.Errorf("Expected sign-in screen after a redraw, got kind %v", h.model.route.Kind)
	}
	if h.model.list != nil {
		t.Error("List controller should be closed")
	}
}

func TestKeyPressRearmsIdleTimer(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)

	h.clock.Advance(10 * time.Minute)
	h.press(t, "down")
	h.clock.Advance(10 * time.Minute)

	if !h.session.Valid() {
		t.Fatal("A key press should rearm the idle timer")
	}

	h.clock.Advance(5 * time.Minute)
	if h.session.Valid() {
		t.Error("Session should end fifteen minutes after the last key")
	}
}

func TestSignOutFromHome(t *testing.T) {
	h := setupHarness(t)
	h.signIn(t)

	h.press(t, "L")

	if h.session.Valid() {
		t.Error("L should sign out")
	}
	if h.model.route.Kind != guard.KindSignIn {
		t.Errorf("Expected sign-in, got kind %v", h.model.route.Kind)
	}
}

func TestNextRowsPerPage(t *testing.T) {
	tests := []struct {
		current int
		up      bool
		want    int
	}{
		{100, false, 50},
		{10, false, 10},
		{10, true, 25},
		{100, true, 100},
		{7, true, 10},
	}
	for _, tt := range tests {
		if got := nextRowsPerPage(tt.current, tt.up); got != tt.want {
			t.Errorf("nextRowsPerPage(%d, %t) = %d, want %d", tt.current, tt.up, got, tt.want)
		}
	}
}
