package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/newsdesk"
	"github.com/eringen/newsdesk/content"
)

func newMigrateCmd() *cobra.Command {
	var (
		from, db, logLevel string
		concurrency        int
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Import front matter post files into the SQLite document store",
		Long: `Reads every <slug>.md and <slug>.mdx file in --from and upserts it into the
SQLite document store at --db. Existing documents are merged, so the command
can be re-run safely.`,
		Example: "  newsdesk migrate --from content/posts --db data/newsdesk.db",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newsdesk.NewLogger(logLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			dst, err := content.NewSQLiteStore(db)
			if err != nil {
				return err
			}
			defer dst.Close()

			migrated, err := content.Migrate(cmd.Context(), content.NewFileStore(from, content.WithFileLogger(log)), dst, content.MigrateOptions{
				Concurrency: concurrency,
				OnPost: func(slug string) {
					log.Debug("migrated post", zap.String("slug", slug))
				},
			})
			if err != nil {
				return err
			}
			for _, slug := range migrated {
				fmt.Fprintln(cmd.OutOrStdout(), slug)
			}
			log.Info("migration finished", zap.Int("posts", len(migrated)), zap.String("db", db))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&from, "from", "content/posts", "directory of post files")
	f.StringVar(&db, "db", "data/newsdesk.db", "SQLite document store path")
	f.IntVar(&concurrency, "concurrency", 4, "parallel post conversions")
	f.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	return cmd
}
