// Command newsdesk serves a newsdesk site and manages its content store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "newsdesk",
		Short: "newsdesk - a financial news site engine built with Go, Echo, and templ",
		Long: `newsdesk serves the public news site and the token gated content API.

Configuration comes from the environment (SITE_NAME, SITE_URL, ADDR,
CONTENT_BACKEND, DATABASE_PATH, CONTENT_DIR, STATIC_DIR, ADMIN_PASSWORD,
POST_CACHE_TTL, ADMIN_MAX_FAILURES, LOG_LEVEL); flags override it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the newsdesk version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "newsdesk %s\n", version)
		},
	}
}
