// ABOUTME: Tests for the bolha command tree against an in-process dev server
// ABOUTME: Covers login, record listing, deletion and the table helpers
package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/harperreed/bolha/db"
	"github.com/harperreed/bolha/devserver"
	"github.com/harperreed/bolha/models"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "s3cret"
)

// setupTestCLI points the commands at a seeded dev server and a private
// data directory.
func setupTestCLI(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.OpenDatabase(db.MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = database.Close() })

	srv, err := devserver.New(database, devserver.Options{
		JWTSecret:  []byte("cli-test-secret"),
		BcryptCost: bcrypt.MinCost,
		UploadDir:  t.TempDir(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := srv.Seed(context.Background(), devserver.SeedOptions{
		AdminEmail:    testEmail,
		AdminPassword: testPassword,
		SampleData:    true,
	}); err != nil {
		t.Fatal(err)
	}
	httpSrv := httptest.NewServer(srv.Router())
	t.Cleanup(httpSrv.Close)

	dir := t.TempDir()
	t.Setenv("BOLHA_API_URL", httpSrv.URL)
	t.Setenv("BOLHA_DATA_DIR", dir)
	t.Setenv("BOLHA_LOG_LEVEL", "error")
	return filepath.Join(dir, "config.yaml")
}

func execute(t *testing.T, configPath, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func login(t *testing.T, configPath string) {
	t.Helper()
	out, err := execute(t, configPath, "", "login", "--email", testEmail, "--password", testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !strings.Contains(out, "Signed in as Administrator") {
		t.Errorf("Unexpected login output: %s", out)
	}
}

func TestRootCommandNames(t *testing.T) {
	root := NewRootCommand("test")
	want := []string{"login", "logout", "whoami", "password", "profile", "resources", "list", "get", "delete", "tui", "serve", "mcp", "viz", "dashboard", "version"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("Expected subcommand %q", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	root := NewRootCommand("1.2.3")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if out.String() != "bolha version 1.2.3\n" {
		t.Errorf("Unexpected output %q", out.String())
	}
}

func TestLoginSessionIsRestored(t *testing.T) {
	cfg := setupTestCLI(t)

	out, err := execute(t, cfg, "", "whoami")
	if err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	if !strings.Contains(out, "Not signed in") {
		t.Errorf("Expected anonymous whoami, got %s", out)
	}

	login(t, cfg)

	out, err = execute(t, cfg, "", "whoami")
	if err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	if !strings.Contains(out, testEmail) {
		t.Errorf("whoami should show the stored session, got %s", out)
	}

	if _, err := execute(t, cfg, "", "logout"); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := execute(t, cfg, "", "list", "cidades"); err == nil || !strings.Contains(err.Error(), "not signed in") {
		t.Errorf("Expected not signed in error, got %v", err)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	cfg := setupTestCLI(t)

	_, err := execute(t, cfg, "", "login", "--email", testEmail, "--password", "nope")
	if err == nil {
		t.Fatal("Expected login to fail")
	}
	if err.Error() != "incorrect email/password combination" {
		t.Errorf("Unexpected error %q", err.Error())
	}
}

func TestProfileAvatarUpdatesSession(t *testing.T) {
	cfg := setupTestCLI(t)

	img := filepath.Join(t.TempDir(), "avatar.jpg")
	if err := os.WriteFile(img, []byte("jpeg bytes"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, cfg, "", "profile", "avatar", img); err == nil || !strings.Contains(err.Error(), "not signed in") {
		t.Errorf("Expected not signed in error, got %v", err)
	}

	login(t, cfg)
	out, err := execute(t, cfg, "", "profile", "avatar", img)
	if err != nil {
		t.Fatalf("profile avatar failed: %v", err)
	}
	if !strings.Contains(out, "Avatar updated: ") || !strings.Contains(out, "/files/") {
		t.Errorf("Unexpected output: %s", out)
	}
	url := strings.TrimSpace(out[strings.Index(out, "http"):])

	out, err = execute(t, cfg, "", "whoami")
	if err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	if !strings.Contains(out, "Avatar: "+url) {
		t.Errorf("whoami should show the stored avatar %q, got %s", url, out)
	}

	if _, err := execute(t, cfg, "", "profile", "avatar", filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Expected error for a missing file")
	}
}

func TestListCommand(t *testing.T) {
	cfg := setupTestCLI(t)
	login(t, cfg)

	out, err := execute(t, cfg, "", "list", "cidades", "--sort", "-nomeCidade", "--rows", "3")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 3 {
		t.Fatalf("Unexpected output:\n%s", out)
	}
	if !strings.Contains(lines[2], "Uberlândia") {
		t.Errorf("Expected Uberlândia first when sorted descending, got %q", lines[2])
	}
	if !strings.Contains(out, "1-3 of 7") {
		t.Errorf("Expected pager line, got:\n%s", out)
	}

	out, err = execute(t, cfg, "", "list", "cidades", "-s", "santos")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "Santos") || !strings.Contains(out, "1-1 of 1") {
		t.Errorf("Expected one match, got:\n%s", out)
	}

	if _, err := execute(t, cfg, "", "list", "nowhere"); err == nil {
		t.Error("Expected unknown resource error")
	}
}

func TestGetAndDeleteCommands(t *testing.T) {
	cfg := setupTestCLI(t)
	login(t, cfg)

	out, err := execute(t, cfg, "", "list", "paises")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	fields := strings.Fields(strings.Split(strings.TrimSpace(out), "\n")[2])
	id := fields[len(fields)-1]

	out, err = execute(t, cfg, "", "get", "paises", id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !strings.Contains(out, "Country: Brasil") {
		t.Errorf("Unexpected record output:\n%s", out)
	}

	out, err = execute(t, cfg, "n\n", "delete", "paises", id)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !strings.Contains(out, "Cancelled") {
		t.Errorf("Expected cancellation, got %s", out)
	}

	out, err = execute(t, cfg, "", "delete", "paises", id, "-y")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !strings.Contains(out, "Deleted") {
		t.Errorf("Expected deletion, got %s", out)
	}

	out, err = execute(t, cfg, "", "list", "paises")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "No countries found.") {
		t.Errorf("Expected empty list, got %s", out)
	}
}

func TestColumnOrder(t *testing.T) {
	res, _ := models.FindResource("cidades")

	order, err := columnOrder(res, "nomeCidade")
	if err != nil {
		t.Fatalf("columnOrder failed: %v", err)
	}
	if len(order) != 2 || order[0] != "" || order[1] != models.Asc {
		t.Errorf("Unexpected order %v", order)
	}

	order, err = columnOrder(res, "-estadoId.uf")
	if err != nil {
		t.Fatalf("columnOrder failed: %v", err)
	}
	if order[0] != models.Desc {
		t.Errorf("Expected descending first column, got %v", order)
	}

	if _, err := columnOrder(res, "population"); err == nil {
		t.Error("Expected error for unknown column")
	}
}

func TestDescribeGrant(t *testing.T) {
	tests := []struct {
		grant models.PermissionGrant
		want  string
	}{
		{models.PermissionGrant{}, "none"},
		{models.PermissionGrant{PermitAll: true, PermitCreate: true}, "all"},
		{models.PermissionGrant{PermitAll: true, Disabled: true}, "disabled"},
		{models.PermissionGrant{PermitRestore: true, PermitUpdate: true}, "show, update"},
	}
	for _, tt := range tests {
		if got := describeGrant(tt.grant); got != tt.want {
			t.Errorf("describeGrant(%+v) = %q, want %q", tt.grant, got, tt.want)
		}
	}
}

func TestPrintRecordHidesPasswordsAndShowsLabels(t *testing.T) {
	res, _ := models.FindResource("users")
	rec := models.Record{
		"id":          "u1",
		"name":        "Ana",
		"email":       "ana@example.com",
		"password":    "secret-hash",
		"userGroupId": map[string]any{"id": "g1", "name": "Administrators"},
	}

	var out bytes.Buffer
	printRecord(&out, res, rec)

	if strings.Contains(out.String(), "secret-hash") {
		t.Error("Password must not be printed")
	}
	if !strings.Contains(out.String(), "User group: Administrators") {
		t.Errorf("Expected foreign key label, got:\n%s", out.String())
	}
}
