// ABOUTME: Tests for the permission graph, catalog graph and dashboard
// ABOUTME: Uses an in-memory source in place of the REST backend
package viz

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/bolha/models"
)

type fakeSource struct {
	profile models.Record
	options []models.MenuOption
	counts  map[string]int
}

func (f *fakeSource) Get(_ context.Context, segment, id string) (models.Record, error) {
	if segment != "profiles" || f.profile.ID() != id {
		return nil, errors.New("not found")
	}
	return f.profile, nil
}

func (f *fakeSource) MenuOptions(context.Context) ([]models.MenuOption, error) {
	return f.options, nil
}

func (f *fakeSource) Count(_ context.Context, segment, _ string) (int, error) {
	n, ok := f.counts[segment]
	if !ok {
		return 0, errors.New("unavailable")
	}
	return n, nil
}

func TestGrantLabel(t *testing.T) {
	assert.Equal(t, "all", grantLabel(models.PermissionGrant{PermitAll: true, PermitCreate: true}))
	assert.Equal(t, "create,delete", grantLabel(models.PermissionGrant{PermitCreate: true, PermitDelete: true}))
	assert.Equal(t, "", grantLabel(models.PermissionGrant{PermitAll: true, Disabled: true}))
	assert.Equal(t, "", grantLabel(models.PermissionGrant{}))
}

func TestGeneratePermissionGraph(t *testing.T) {
	src := &fakeSource{
		profile: models.Record{
			"id":   "p1",
			"name": "Recruiters",
			"menuOptions": []any{
				map[string]any{"menuOptionKey": "vagas", "permitAll": true},
				map[string]any{"menuOptionKey": "paises", "permitRestore": true},
			},
		},
		options: []models.MenuOption{
			{ID: "1", Key: "vagas", Label: "Jobs", ModuleName: "Recruitment"},
			{ID: "2", Key: "paises", Label: "Countries", ModuleName: "Common"},
			{ID: "3", Key: "users", Label: "Users", ModuleName: "Security"},
		},
	}

	dot, err := NewGraphGenerator(src).GeneratePermissionGraph(context.Background(), "p1")
	require.NoError(t, err)
	assert.Contains(t, dot, "Recruiters")
	assert.Contains(t, dot, "Jobs")
	assert.Contains(t, dot, "Countries")
	assert.NotContains(t, dot, "Security", "modules without grants are omitted")

	_, err = NewGraphGenerator(src).GeneratePermissionGraph(context.Background(), "missing")
	assert.Error(t, err)
}

func TestGenerateCatalogGraph(t *testing.T) {
	dot, err := GenerateCatalogGraph(context.Background())
	require.NoError(t, err)
	assert.Contains(t, dot, "estadoId")
	assert.Contains(t, dot, "cidades")
}

func TestDashboard(t *testing.T) {
	src := &fakeSource{counts: map[string]int{}}
	for _, res := range models.Resources() {
		src.counts[res.Segment] = 2
	}
	delete(src.counts, "ceps")

	stats := GenerateDashboardStats(context.Background(), src, nil)
	assert.Equal(t, 2*(len(models.Resources())-1), stats.Total)
	assert.Equal(t, []string{"ceps"}, stats.Failed)
	require.Len(t, stats.Modules, 3)
	assert.Equal(t, models.ModuleSecurity, stats.Modules[0].Name)

	out := RenderDashboard(stats)
	assert.True(t, strings.Contains(out, "BOLHA ADMIN DASHBOARD"))
	assert.Contains(t, out, "could not count: ceps")
	assert.Contains(t, out, "██████████  2")
}
