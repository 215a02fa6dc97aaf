// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Counts the records of every catalog resource and draws per-module bars
package viz

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/harperreed/bolha/models"
)

// Counter is the backend call the dashboard needs.
type Counter interface {
	Count(ctx context.Context, segment, search string) (int, error)
}

type DashboardStats struct {
	Modules []ModuleStats
	Total   int
	// Failed lists resources whose count could not be read.
	Failed []string
}

type ModuleStats struct {
	Name      string
	Resources []ResourceStats
}

type ResourceStats struct {
	Name  string
	Title string
	Count int
}

// GenerateDashboardStats counts every resource. Failed counts are logged
// and reported, never fatal.
func GenerateDashboardStats(ctx context.Context, counter Counter, logger *zap.Logger) *DashboardStats {
	if logger == nil {
		logger = zap.NewNop()
	}
	stats := &DashboardStats{}
	index := map[string]int{}

	for _, res := range models.Resources() {
		n, err := counter.Count(ctx, res.Segment, "")
		if err != nil {
			logger.Warn("failed to count resource", zap.String("resource", res.Name), zap.Error(err))
			stats.Failed = append(stats.Failed, res.Name)
			continue
		}

		i, ok := index[res.Module]
		if !ok {
			i = len(stats.Modules)
			index[res.Module] = i
			stats.Modules = append(stats.Modules, ModuleStats{Name: res.Module})
		}
		stats.Modules[i].Resources = append(stats.Modules[i].Resources, ResourceStats{Name: res.Name, Title: res.Title, Count: n})
		stats.Total += n
	}

	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  BOLHA ADMIN DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	maxCount := 0
	for _, m := range stats.Modules {
		for _, r := range m.Resources {
			if r.Count > maxCount {
				maxCount = r.Count
			}
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, m := range stats.Modules {
		out.WriteString(strings.ToUpper(m.Name) + "\n")
		for _, r := range m.Resources {
			barLength := (r.Count * 10) / maxCount
			bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
			out.WriteString(fmt.Sprintf("  %-20s %s  %d\n", r.Title, bar, r.Count))
		}
		out.WriteString("\n")
	}

	out.WriteString(fmt.Sprintf("TOTAL  %d records\n", stats.Total))

	if len(stats.Failed) > 0 {
		out.WriteString(fmt.Sprintf("\n  ⚠️  could not count: %s\n", strings.Join(stats.Failed, ", ")))
	}

	return out.String()
}
