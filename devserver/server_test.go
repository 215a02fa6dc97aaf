// ABOUTME: End-to-end tests driving the dev server through the real API client
// ABOUTME: Covers sign-in, CRUD with foreign keys, validation, menus, password reset and metrics
package devserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/harperreed/bolha/api"
	"github.com/harperreed/bolha/db"
	"github.com/harperreed/bolha/models"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "s3cret"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fixture struct {
	srv  *Server
	http *httptest.Server

	mu  sync.Mutex
	now time.Time
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fixture) resetTokens() []string {
	f.srv.resetMu.Lock()
	defer f.srv.resetMu.Unlock()
	var out []string
	for k := range f.srv.resets {
		out = append(out, k)
	}
	return out
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database, err := db.OpenDatabase(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	f := &fixture{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	srv, err := New(database, Options{
		JWTSecret:  []byte("test-secret"),
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
		Now:        f.clock,
		UploadDir:  t.TempDir(),
	})
	require.NoError(t, err)

	_, err = srv.Seed(context.Background(), SeedOptions{AdminEmail: adminEmail, AdminPassword: adminPassword})
	require.NoError(t, err)

	f.srv = srv
	f.http = httptest.NewServer(srv.Router())
	t.Cleanup(f.http.Close)
	return f
}

func (f *fixture) signIn(t *testing.T, email, password string) (*api.Client, string) {
	t.Helper()
	anon, err := api.NewClient(f.http.URL, nil)
	require.NoError(t, err)
	token, user, err := anon.SignIn(context.Background(), models.Credentials{Email: email, Password: password})
	require.NoError(t, err)
	require.Equal(t, email, user.Email)

	client, err := api.NewClient(f.http.URL, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	require.NoError(t, err)
	return client, token
}

func resource(t *testing.T, name string) *models.Resource {
	t.Helper()
	res, ok := models.FindResource(name)
	require.True(t, ok, name)
	return res
}

func TestSeedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	result, err := f.srv.Seed(context.Background(), SeedOptions{AdminEmail: adminEmail, AdminPassword: "other"})
	require.NoError(t, err)
	assert.True(t, result.Skipped)
}

func TestCRUDWithForeignKeys(t *testing.T) {
	f := newFixture(t)
	client, _ := f.signIn(t, adminEmail, adminPassword)
	ctx := context.Background()

	estados := client.Resource(resource(t, "estados"))
	cidades := client.Resource(resource(t, "cidades"))

	sp, err := estados.Create(ctx, models.Record{"codigoIbge": "35", "uf": "SP", "nomeEstado": "São Paulo"})
	require.NoError(t, err)
	require.True(t, sp.HasID())

	for _, name := range []string{"Santos", "Campinas", "Americana"} {
		_, err := cidades.Create(ctx, models.Record{"estadoId": sp.ID(), "nomeCidade": name})
		require.NoError(t, err)
	}

	rows, err := cidades.List(ctx, models.ListQuery{RowsPerPage: 2, ColumnOrder: []models.Direction{"", models.Asc}})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Americana", rows[0]["nomeCidade"])
	assert.Equal(t, "SP", rows[0].Display("estadoId.uf"))

	rows, err = cidades.List(ctx, models.ListQuery{Page: 1, RowsPerPage: 2, ColumnOrder: []models.Direction{"", models.Asc}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Santos", rows[0]["nomeCidade"])

	n, err := cidades.Count(ctx, "camp")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	options, err := cidades.Lookup(ctx, models.Field{Name: "estadoId", Ref: "estados"})
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, models.LookupOption{ID: sp.ID(), Label: "SP"}, options[0])

	santos := rows[0]
	got, err := cidades.Get(ctx, santos.ID())
	require.NoError(t, err)
	flat := models.Flatten(resource(t, "cidades"), got)
	assert.Equal(t, sp.ID(), flat["estadoId"])

	flat["nomeCidade"] = "Santos SP"
	updated, err := cidades.Update(ctx, models.Payload(resource(t, "cidades"), flat, santos.ID()))
	require.NoError(t, err)
	assert.Equal(t, "Santos SP", updated["nomeCidade"])

	require.NoError(t, cidades.Delete(ctx, santos.ID()))
	_, err = cidades.Get(ctx, santos.ID())
	require.Error(t, err)
	assert.True(t, api.IsStatus(err, http.StatusNotFound))
	msg, ok := api.DisplayMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "record not found", msg)
}

func TestValidationErrors(t *testing.T) {
	f := newFixture(t)
	client, _ := f.signIn(t, adminEmail, adminPassword)
	cidades := client.Resource(resource(t, "cidades"))
	ctx := context.Background()

	_, err := cidades.Create(ctx, models.Record{"nomeCidade": "Nowhere"})
	require.Error(t, err)
	msg, _ := api.DisplayMessage(err)
	assert.Equal(t, "UF is required", msg)

	_, err = cidades.Create(ctx, models.Record{"nomeCidade": "Nowhere", "estadoId": "missing"})
	require.Error(t, err)
	msg, _ = api.DisplayMessage(err)
	assert.Equal(t, "UF not found", msg)

	_, err = client.Resource(resource(t, "estados")).Create(ctx, models.Record{"codigoIbge": "1", "uf": "SPX", "nomeEstado": "x"})
	require.Error(t, err)
	msg, _ = api.DisplayMessage(err)
	assert.Equal(t, "UF must have at most 2 characters", msg)
}

func TestPrivateRoutesRequireBearer(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.http.URL+"/paises/list", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body struct {
		Data struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "missing bearer token", body.Data.Name)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	f := newFixture(t)
	client, _ := f.signIn(t, adminEmail, adminPassword)

	f.advance(2 * time.Hour)
	_, err := client.Count(context.Background(), "paises", "")
	require.Error(t, err)
	assert.True(t, api.IsStatus(err, http.StatusUnauthorized))
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	anon, err := api.NewClient(f.http.URL, nil)
	require.NoError(t, err)

	_, _, err = anon.SignIn(context.Background(), models.Credentials{Email: adminEmail, Password: "wrong"})
	require.Error(t, err)
	msg, _ := api.DisplayMessage(err)
	assert.Equal(t, "incorrect email/password combination", msg)
}

func TestManagedUserCanSignIn(t *testing.T) {
	f := newFixture(t)
	admin, _ := f.signIn(t, adminEmail, adminPassword)
	ctx := context.Background()

	groups, err := admin.Select(ctx, "user-groups", "name")
	require.NoError(t, err)
	require.NotEmpty(t, groups)

	users := admin.Resource(resource(t, "users"))
	created, err := users.Create(ctx, models.Record{
		"userGroupId": groups[0].ID,
		"name":        "Ana",
		"email":       "ana@example.com",
		"password":    "hunter22",
	})
	require.NoError(t, err)
	assert.NotContains(t, created, "password")

	f.signIn(t, "ana@example.com", "hunter22")

	blocked := models.Flatten(resource(t, "users"), created)
	blocked["isBlocked"] = true
	_, err = users.Update(ctx, models.Payload(resource(t, "users"), blocked, created.ID()))
	require.NoError(t, err)

	anon, err := api.NewClient(f.http.URL, nil)
	require.NoError(t, err)
	_, _, err = anon.SignIn(ctx, models.Credentials{Email: "ana@example.com", Password: "hunter22"})
	msg, _ := api.DisplayMessage(err)
	assert.Equal(t, "user is blocked", msg)

	require.NoError(t, users.Delete(ctx, created.ID()))
	_, _, err = anon.SignIn(ctx, models.Credentials{Email: "ana@example.com", Password: "hunter22"})
	assert.True(t, api.IsStatus(err, http.StatusUnauthorized))
}

func TestUserMenuFollowsProfileGrants(t *testing.T) {
	f := newFixture(t)
	admin, _ := f.signIn(t, adminEmail, adminPassword)
	ctx := context.Background()

	full, err := admin.UserMenu(ctx)
	require.NoError(t, err)
	require.Len(t, full, 3)
	assert.Equal(t, models.ModuleSecurity, full[0].Text)

	options, err := admin.MenuOptions(ctx)
	require.NoError(t, err)
	require.Len(t, options, len(models.Resources()))
	assert.Equal(t, "Security", options[0].ModuleName)

	groups, err := admin.Select(ctx, "user-groups", "name")
	require.NoError(t, err)
	user, err := admin.Resource(resource(t, "users")).Create(ctx, models.Record{
		"userGroupId": groups[0].ID, "name": "Bia", "email": "bia@example.com", "password": "pw12345",
	})
	require.NoError(t, err)

	profile, err := admin.Resource(resource(t, "profiles")).Create(ctx, models.Record{
		"name": "Readers",
		"menuOptions": []any{
			map[string]any{"menuOptionKey": "paises", "permitRestore": true},
			map[string]any{"menuOptionKey": "cidades", "permitRestore": false},
		},
	})
	require.NoError(t, err)
	_, err = admin.Resource(resource(t, "users-profiles")).Create(ctx, models.Record{
		"userId": user.ID(), "profileId": profile.ID(),
	})
	require.NoError(t, err)

	bia, _ := f.signIn(t, "bia@example.com", "pw12345")
	menu, err := bia.UserMenu(ctx)
	require.NoError(t, err)
	require.Len(t, menu, 1)
	assert.Equal(t, models.ModuleCommon, menu[0].Text)
	require.Len(t, menu[0].SubMenuOptions, 1)
	assert.Equal(t, "/paises", menu[0].SubMenuOptions[0].Route)
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t)
	anon, err := api.NewClient(f.http.URL, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, anon.ForgotPassword(ctx, "nobody@example.com"))
	assert.Empty(t, f.resetTokens())

	require.NoError(t, anon.ForgotPassword(ctx, adminEmail))
	tokens := f.resetTokens()
	require.Len(t, tokens, 1)
	token := tokens[0]

	err = anon.ResetPassword(ctx, token, "newpass", "other")
	msg, _ := api.DisplayMessage(err)
	assert.Equal(t, "passwords do not match", msg)

	require.NoError(t, anon.ResetPassword(ctx, token, "newpass", "newpass"))
	f.signIn(t, adminEmail, "newpass")

	err = anon.ResetPassword(ctx, token, "again", "again")
	assert.True(t, api.IsStatus(err, http.StatusBadRequest), "tokens are single use")
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	client, _ := f.signIn(t, adminEmail, adminPassword)
	ctx := context.Background()

	user, err := client.UpdateProfile(ctx, api.ProfileUpdate{Name: "Root", Password: "changed", RepeatPassword: "changed"})
	require.NoError(t, err)
	assert.Equal(t, "Root", user.Name)
	assert.Equal(t, adminEmail, user.Email)

	f.signIn(t, adminEmail, "changed")

	_, err = client.UpdateProfile(ctx, api.ProfileUpdate{Name: " "})
	msg, _ := api.DisplayMessage(err)
	assert.Equal(t, "name is required", msg)
}

func TestUploadAvatar(t *testing.T) {
	f := newFixture(t)
	client, token := f.signIn(t, adminEmail, adminPassword)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "me.PNG")
	require.NoError(t, os.WriteFile(path, []byte("not really a png"), 0o600))

	url, err := client.UploadAvatar(ctx, path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, f.http.URL+"/files/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	resp, err := http.Get(url)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "not really a png", string(body))

	req, _ := http.NewRequest(http.MethodGet, f.http.URL+"/users/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var profile struct {
		Data models.User `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	assert.Equal(t, url, profile.Data.AvatarURL)
	assert.Equal(t, adminEmail, profile.Data.Email)
}

func TestUploadAvatarRequiresFile(t *testing.T) {
	f := newFixture(t)
	_, token := f.signIn(t, adminEmail, adminPassword)

	req, _ := http.NewRequest(http.MethodPatch, f.http.URL+"/users/avatar", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	anon, err := http.NewRequest(http.MethodPatch, f.http.URL+"/users/avatar", nil)
	require.NoError(t, err)
	resp2, err := http.DefaultClient.Do(anon)
	require.NoError(t, err)
	_ = resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, adminEmail, adminPassword)

	resp, err := http.Get(f.http.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `bolha_http_requests_total{method="POST",route="/sessions",status="200"} 1`)
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t)
	req, err := http.NewRequest(http.MethodGet, f.http.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc", resp.Header.Get("X-Request-ID"))
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New(nil, Options{})
	assert.Error(t, err)
}

func TestSortRows(t *testing.T) {
	res := resource(t, "paises")
	rows := []models.Record{
		{"codigoPais": "BR", "nomePais": "brasil"},
		{"codigoPais": "AR", "nomePais": "Argentina"},
		{"codigoPais": "CL", "nomePais": "Chile"},
	}
	sortRows(res, rows, []models.Direction{models.Desc})
	assert.Equal(t, "CL", rows[0]["codigoPais"])

	sortRows(res, rows, []models.Direction{"", models.Asc})
	assert.Equal(t, "Argentina", rows[0]["nomePais"])
	assert.Equal(t, "brasil", rows[1]["nomePais"])
}

func TestSearchMatchesValuesOnly(t *testing.T) {
	f := newFixture(t)
	client, _ := f.signIn(t, adminEmail, adminPassword)
	ctx := context.Background()

	paises := client.Resource(resource(t, "paises"))
	estados := client.Resource(resource(t, "estados"))
	cidades := client.Resource(resource(t, "cidades"))

	_, err := paises.Create(ctx, models.Record{"codigoPais": "TT", "nomePais": "Trinidad & Tobago"})
	require.NoError(t, err)
	rj, err := estados.Create(ctx, models.Record{"codigoIbge": "33", "uf": "RJ", "nomeEstado": "Rio de Janeiro"})
	require.NoError(t, err)
	_, err = cidades.Create(ctx, models.Record{"estadoId": rj.ID(), "codigoIbge": "", "nomeCidade": "Niterói"})
	require.NoError(t, err)

	counts := map[string]int{
		"":          1,
		"nomePais":  0,
		`":"`:       0,
		"&":         1,
		"trinidad":  1,
		"tt":        1,
		"argentina": 0,
	}
	for search, want := range counts {
		n, err := paises.Count(ctx, search)
		require.NoError(t, err)
		assert.Equal(t, want, n, "count for %q", search)

		rows, err := paises.List(ctx, models.ListQuery{Search: search, RowsPerPage: 10})
		require.NoError(t, err)
		assert.Len(t, rows, want, "rows for %q", search)
	}

	// Foreign keys are searched through their label.
	rows, err := cidades.List(ctx, models.ListQuery{Search: "rj", RowsPerPage: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Niterói", rows[0]["nomeCidade"])
}

func TestSeedSampleData(t *testing.T) {
	database, err := db.OpenDatabase(db.MemoryPath)
	require.NoError(t, err)
	defer database.Close()

	srv, err := New(database, Options{JWTSecret: []byte("x"), BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	result, err := srv.Seed(context.Background(), SeedOptions{AdminEmail: adminEmail, AdminPassword: adminPassword, SampleData: true})
	require.NoError(t, err)
	assert.Equal(t, 11, result.Samples)
	assert.Equal(t, 3, result.Modules)

	n, err := srv.Records().Count(context.Background(), "cidades", "")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}
