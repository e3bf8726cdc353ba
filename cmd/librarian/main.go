// Package main implements the librarian CLI: the operator surface over
// the bootstrap, query, config, and provider packages.
//
// # File Index
//
//   - main.go           - entry point, rootCmd, global flags, init()
//   - env.go            - workspace/config/registry resolution shared by subcommands
//   - output.go         - JSON/--out plumbing, boundary sanitization, exit-code mapping
//   - cmd_bootstrap.go  - bootstrapCmd
//   - cmd_query.go      - queryCmd
//   - cmd_diagnose.go   - diagnoseCmd
//   - cmd_providers.go  - providersCmd, providersCheckCmd
//   - cmd_externalrepos.go - externalReposCmd, externalReposSyncCmd
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"librarian/internal/logging"
)

var (
	flagWorkspace   string
	flagJSON        bool
	flagOut         string
	flagNoBootstrap bool
)

var rootCmd = &cobra.Command{
	Use:   "librarian",
	Short: "librarian - code-intelligence engine for agent context retrieval",
	Long: `librarian extracts structural facts from a workspace, persists them
in a local knowledge store, and answers agent queries with ranked
context packs.

Architecture: the store is the single source of truth; queries never
invent a fact the extractor didn't record.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Init(logging.Options{JSON: flagJSON})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagWorkspace, "workspace", "w", "", "workspace root (default: discovered from cwd)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit machine-readable JSON output")
	rootCmd.PersistentFlags().StringVar(&flagOut, "out", "", "write output to this file instead of stdout (requires --json)")
	rootCmd.PersistentFlags().BoolVar(&flagNoBootstrap, "no-bootstrap", false, "fail with NOT_BOOTSTRAPPED on a stale or missing index instead of answering from it with a warning")

	providersCmd.AddCommand(providersCheckCmd)
	externalReposCmd.AddCommand(externalReposSyncCmd)

	rootCmd.AddCommand(
		bootstrapCmd,
		queryCmd,
		diagnoseCmd,
		providersCmd,
		externalReposCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, sanitizeOut(err.Error()))
		os.Exit(exitCodeFor(err))
	}
}
