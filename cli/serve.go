// ABOUTME: Serve subcommand running the development REST backend
// ABOUTME: Opens the SQLite database, optionally seeds it and serves until interrupted
package cli

import (
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harperreed/bolha/db"
	"github.com/harperreed/bolha/devserver"
)

type serveFlags struct {
	addr          string
	seed          bool
	samples       bool
	adminName     string
	adminEmail    string
	adminPassword string
}

func newServeCommand(state *rootState) *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the development API server",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&flags.addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&flags.seed, "seed", false, "Create modules, menu options and an admin when missing")
	cmd.Flags().BoolVar(&flags.samples, "samples", false, "Also seed sample countries, states and cities")
	cmd.Flags().StringVar(&flags.adminName, "admin-name", "Administrator", "Seeded admin name")
	cmd.Flags().StringVar(&flags.adminEmail, "admin-email", "admin@bolha.dev", "Seeded admin email")
	cmd.Flags().StringVar(&flags.adminPassword, "admin-password", "", "Seeded admin password (or BOLHA_ADMIN_PASSWORD)")

	cmd.RunE = state.withApp(false, func(cmd *cobra.Command, a *app, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srvCfg := a.cfg.Server
		if flags.addr != "" {
			srvCfg.Addr = flags.addr
		}
		database, err := db.OpenDatabase(srvCfg.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		secret := []byte(srvCfg.JWTSecret)
		if len(secret) == 0 {
			secret = make([]byte, 32)
			if _, err := rand.Read(secret); err != nil {
				return fmt.Errorf("failed to generate JWT secret: %w", err)
			}
			a.logger.Warn("no jwt_secret configured; sessions end when the server stops")
		}

		srv, err := devserver.New(database, devserver.Options{
			JWTSecret:   secret,
			TokenTTL:    srvCfg.TokenTTL,
			CORSOrigins: srvCfg.CORSOrigins,
			Logger:      a.logger,
			UploadDir:   filepath.Join(a.cfg.DataDir, "uploads"),
		})
		if err != nil {
			return err
		}

		if flags.seed {
			password := flags.adminPassword
			if password == "" {
				password = os.Getenv("BOLHA_ADMIN_PASSWORD")
			}
			res, err := srv.Seed(ctx, devserver.SeedOptions{
				AdminName:     flags.adminName,
				AdminEmail:    flags.adminEmail,
				AdminPassword: password,
				SampleData:    flags.samples,
			})
			if err != nil {
				return fmt.Errorf("failed to seed database: %w", err)
			}
			a.logger.Info("seed finished",
				zap.Bool("skipped", res.Skipped),
				zap.Int("modules", res.Modules),
				zap.Int("menu_options", res.MenuOptions),
				zap.Int("samples", res.Samples))
		}

		a.logger.Info("serving", zap.String("database", srvCfg.Database))
		return srv.Run(ctx, srvCfg.Addr)
	})
	return cmd
}
