// ABOUTME: Shared command state: config, logger, persisted session and API client
// ABOUTME: Opened once per invocation by the root command and closed after it runs
package cli

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/harperreed/bolha/api"
	"github.com/harperreed/bolha/config"
	"github.com/harperreed/bolha/logging"
	"github.com/harperreed/bolha/session"
)

type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   session.Store
	session *session.Context
	client  *api.Client

	out io.Writer
}

// openOptions selects how much of the stack a command needs.
type openOptions struct {
	configPath string
	verbose    bool
	// logToFile routes logs away from the terminal (TUI, MCP on stdio).
	logToFile bool
}

func newApp(opts openOptions) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFrom(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logOpts := logging.Options{Level: cfg.LogLevel}
	if opts.verbose {
		logOpts.Level = "debug"
	}
	if opts.logToFile {
		logOpts.File = cfg.LogFile
	}
	logger, err := logging.New(logOpts)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, out: os.Stdout}, nil
}

// connect opens the session store, restores any saved session and builds
// the API client over it.
func (a *app) connect() error {
	if a.client != nil {
		return nil
	}
	if err := os.MkdirAll(a.cfg.SessionDir(), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	store, err := session.OpenBadger(a.cfg.SessionDir())
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	a.store = store
	a.session = session.New(store, session.WithLogger(a.logger))

	if _, err := a.session.Restore(); err != nil {
		a.logger.Debug("no saved session", zap.Error(err))
	}

	client, err := api.NewClient(a.cfg.APIURL, a.session,
		api.WithTimeout(a.cfg.RequestTimeout),
		api.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.client = client
	return nil
}

// requireSession fails unless a valid session was restored.
func (a *app) requireSession() error {
	if err := a.connect(); err != nil {
		return err
	}
	if !a.session.Valid() {
		return fmt.Errorf("not signed in (run 'bolha login')")
	}
	return nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close session store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
