package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxsizer/internal/config"
	"github.com/teemow/inboxsizer/internal/google"
	"github.com/teemow/inboxsizer/internal/instrumentation"
	"github.com/teemow/inboxsizer/internal/logging"
	"github.com/teemow/inboxsizer/internal/server"
	"github.com/teemow/inboxsizer/internal/store"
)

// loadConfig resolves the configuration. Persistent flags override the
// config file and the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loader := config.NewLoader()
	for key, name := range map[string]string{
		"account":    "account",
		"log.format": "log-format",
	} {
		if f := cmd.Flag(name); f != nil && f.Changed {
			if err := loader.BindFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	cfg, err := loader.Load(globalFlags.configFile)
	if err != nil {
		return nil, err
	}
	if globalFlags.debug {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the process logger on stderr and installs it as the slog
// default. Stdout stays free for command output and the stdio transport.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(os.Stderr, cfg.Log.Format, level)
	slog.SetDefault(logger)
	return logger, nil
}

// runtime bundles what every Gmail-facing command needs.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	sc      *server.ServerContext
	history *store.Store
}

type runtimeOptions struct {
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
}

func newRuntime(ctx context.Context, cmd *cobra.Command, opts runtimeOptions) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, logger: logger}

	var auth *google.Auth
	if cfg.Google.ClientID != "" && cfg.Google.ClientSecret != "" {
		auth, err = google.NewAuth(google.Credentials{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
		}, "")
		if err != nil {
			return nil, err
		}
	} else {
		logger.Debug("no OAuth client configured; Gmail commands will fail until google.client_id and google.client_secret are set")
	}

	serverOpts := server.Options{
		Config:  *cfg,
		Auth:    auth,
		Metrics: opts.Metrics,
		Audit:   opts.Audit,
		Logger:  logger,
	}
	if serverOpts.Audit == nil {
		serverOpts.Audit = instrumentation.NewAuditLogger(logger, instrumentation.DefaultConfig().Audit)
	}

	if cfg.History.Enabled {
		rt.history, err = store.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		serverOpts.History = rt.history
	}

	rt.sc, err = server.NewServerContext(ctx, serverOpts)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	return rt, nil
}

// Close releases the server context and the history database.
func (rt *runtime) Close() {
	if rt.sc != nil {
		if err := rt.sc.Shutdown(); err != nil {
			rt.logger.Warn("error during server context shutdown", logging.KeyError, err)
		}
	}
	if rt.history != nil {
		if err := rt.history.Close(); err != nil {
			rt.logger.Warn("error closing history", logging.KeyError, err)
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
