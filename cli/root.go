// ABOUTME: Root cobra command wiring every bolha subcommand
// ABOUTME: Global flags select the config file and verbose logging
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type rootState struct {
	configPath string
	verbose    bool
	version    string
}

func (s *rootState) open(logToFile bool) (*app, error) {
	return newApp(openOptions{configPath: s.configPath, verbose: s.verbose, logToFile: logToFile})
}

// withApp adapts a command body to run against an opened app.
func (s *rootState) withApp(logToFile bool, run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := s.open(logToFile)
		if err != nil {
			return err
		}
		defer a.Close()
		a.out = cmd.OutOrStdout()
		return run(cmd, a, args)
	}
}

// NewRootCommand builds the bolha command tree.
func NewRootCommand(version string) *cobra.Command {
	state := &rootState{version: version}

	root := &cobra.Command{
		Use:   "bolha",
		Short: "bolha - terminal administration console",
		Long: `bolha administers users, profiles, permissions and reference data
through the admin REST API.

Run 'bolha login' first, then 'bolha tui' for the interactive console.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&state.configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/bolha/config.yaml)")
	root.PersistentFlags().BoolVarP(&state.verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(
		newLoginCommand(state),
		newLogoutCommand(state),
		newWhoamiCommand(state),
		newPasswordCommand(state),
		newProfileCommand(state),
		newResourcesCommand(state),
		newListCommand(state),
		newGetCommand(state),
		newDeleteCommand(state),
		newTUICommand(state),
		newServeCommand(state),
		newMCPCommand(state),
		newVizCommand(state),
		newDashboardCommand(state),
		newVersionCommand(state),
	)
	return root
}

func newVersionCommand(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bolha version %s\n", state.version)
		},
	}
}
