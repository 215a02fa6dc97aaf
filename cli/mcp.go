// ABOUTME: MCP server subcommand
// ABOUTME: Serves record tools, catalog resources, graphs and prompts over stdio
package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harperreed/bolha/handlers"
)

// newMCPServer registers every handler group against the signed-in client.
func newMCPServer(a *app, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "bolha",
		Version: version,
	}, nil)

	records := handlers.NewRecordHandlers(a.client)
	records.Register(server)
	handlers.NewResourceHandlers(records).Register(server)
	handlers.NewVizHandlers(a.client).Register(server)
	handlers.NewPromptHandlers(a.client).Register(server)
	return server
}

func newMCPCommand(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Long:  "Start the MCP server on stdio. Requires a session from 'bolha login'; logs go to the log file.",
		Args:  cobra.NoArgs,
		RunE: state.withApp(true, func(cmd *cobra.Command, a *app, _ []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			a.logger.Info("starting MCP server", zap.String("api_url", a.cfg.APIURL))
			return newMCPServer(a, state.version).Run(cmd.Context(), &mcp.StdioTransport{})
		}),
	}
}
