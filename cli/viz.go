// ABOUTME: Visualization CLI commands
// ABOUTME: Permission and catalog graphs in DOT plus the terminal dashboard
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harperreed/bolha/viz"
)

func writeGraph(a *app, output, dot string) error {
	if output != "" {
		if err := os.WriteFile(output, []byte(dot), 0644); err != nil {
			return fmt.Errorf("failed to write graph: %w", err)
		}
		fmt.Fprintf(a.out, "✓ Graph written to %s\n", output)
		return nil
	}
	fmt.Fprintln(a.out, dot)
	return nil
}

func newVizCommand(state *rootState) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "viz",
		Short: "Generate GraphViz DOT graphs",
	}
	cmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")

	permissions := &cobra.Command{
		Use:   "permissions <profile-id>",
		Short: "Graph the menu options a profile grants",
		Args:  cobra.ExactArgs(1),
		RunE: state.withApp(false, func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			dot, err := viz.NewGraphGenerator(a.client).GeneratePermissionGraph(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeGraph(a, output, dot)
		}),
	}

	catalog := &cobra.Command{
		Use:   "catalog",
		Short: "Graph resources and their foreign keys",
		Args:  cobra.NoArgs,
		RunE: state.withApp(false, func(cmd *cobra.Command, a *app, _ []string) error {
			dot, err := viz.GenerateCatalogGraph(cmd.Context())
			if err != nil {
				return err
			}
			return writeGraph(a, output, dot)
		}),
	}

	cmd.AddCommand(permissions, catalog)
	return cmd
}

func newDashboardCommand(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show record counts per module",
		Args:  cobra.NoArgs,
		RunE: state.withApp(false, func(cmd *cobra.Command, a *app, _ []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			stats := viz.GenerateDashboardStats(cmd.Context(), a.client, a.logger)
			fmt.Fprint(a.out, viz.RenderDashboard(stats))
			return nil
		}),
	}
}
