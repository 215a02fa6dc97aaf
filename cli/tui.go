// ABOUTME: TUI subcommand launching the interactive console
// ABOUTME: Logs go to the log file because the terminal belongs to the UI
package cli

import (
	"github.com/spf13/cobra"

	"github.com/harperreed/bolha/guard"
	"github.com/harperreed/bolha/tui"
)

func newTUICommand(state *rootState) *cobra.Command {
	var start string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive console",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&start, "route", guard.HomePath, "Route to open first, e.g. /paises")

	cmd.RunE = state.withApp(true, func(_ *cobra.Command, a *app, _ []string) error {
		if err := a.connect(); err != nil {
			return err
		}
		return tui.Run(tui.Options{
			Client:    a.client,
			Session:   a.session,
			Config:    a.cfg,
			Logger:    a.logger,
			StartPath: start,
		})
	})
	return cmd
}
