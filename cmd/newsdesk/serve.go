package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/eringen/newsdesk"
)

type serveFlags struct {
	addr, backend, db, contentDir, staticDir, logLevel string
	adminMaxFailures                                   int
}

// config reads the environment and applies every flag set on the command
// line on top of it.
func (sf *serveFlags) config(flags *pflag.FlagSet) (newsdesk.SiteConfig, error) {
	cfg, err := newsdesk.ConfigFromEnv()
	if err != nil {
		return cfg, err
	}
	override := func(name string, dst *string, val string) {
		if flags.Changed(name) {
			*dst = val
		}
	}
	override("addr", &cfg.Addr, sf.addr)
	override("backend", &cfg.Backend, sf.backend)
	override("db", &cfg.DatabasePath, sf.db)
	override("content", &cfg.ContentDir, sf.contentDir)
	override("static", &cfg.StaticDir, sf.staticDir)
	override("log-level", &cfg.LogLevel, sf.logLevel)
	if flags.Changed("admin-max-failures") {
		cfg.AdminMaxFailures = sf.adminMaxFailures
	}
	return cfg, nil
}

func (sf *serveFlags) register(f *pflag.FlagSet) {
	f.StringVar(&sf.addr, "addr", ":3000", "listen address")
	f.StringVar(&sf.backend, "backend", "sqlite", "content backend: sqlite or files")
	f.StringVar(&sf.db, "db", "data/newsdesk.db", "SQLite document store path")
	f.StringVar(&sf.contentDir, "content", "content", "directory holding posts/, authors/ and categories/")
	f.StringVar(&sf.staticDir, "static", "public", "static assets and uploads directory")
	f.StringVar(&sf.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	f.IntVar(&sf.adminMaxFailures, "admin-max-failures", newsdesk.DefaultAdminMaxFailures,
		"failed admin tokens allowed per IP per minute (0 disables the limit)")
}

func newServeCmd() *cobra.Command {
	var sf serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sf.config(cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	sf.register(cmd.Flags())
	return cmd
}

func serve(ctx context.Context, cfg newsdesk.SiteConfig) error {
	app := newsdesk.New(cfg, newsdesk.ViewFuncs{})
	defer app.Close()
	if err := app.Run(ctx); err != nil {
		if app.Log != nil {
			app.Log.Error("server stopped", zap.Error(err))
		}
		return err
	}
	app.Log.Info("server stopped")
	return nil
}
