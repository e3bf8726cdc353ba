package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"librarian/internal/bootstrap"
	"librarian/internal/eventbus"
	"librarian/internal/extract"
	"librarian/internal/logging"
)

var flagBootstrapForce bool

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Build or rebuild the knowledge store",
	Long: `Discovers every file in the workspace, extracts structural facts, and
persists modules, functions, and call-graph edges (spec §4.3).

Without --force, bootstrap still runs every time; --force only controls
whether the existing store is left in place or replaced from scratch.`,
	RunE: runBootstrap,
}

func init() {
	bootstrapCmd.Flags().BoolVarP(&flagBootstrapForce, "force", "f", false, "delete the existing store file and rebuild it from scratch")
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	if err := checkOutRequiresJSON(); err != nil {
		return err
	}
	e, err := resolveEnv()
	if err != nil {
		return err
	}

	if flagBootstrapForce {
		_ = removeStoreFile(e.storePath())
	}

	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	bus := eventbus.New()
	ctx, cancel := context.WithTimeout(cmdCtx(cmd), 10*time.Minute)
	defer cancel()

	embed := e.providers.Embedding(e.cfg.Provider.EmbeddingProvider)
	result, err := bootstrap.Run(ctx, st, bootstrap.Options{
		Workspace:       e.workspace,
		Registry:        extract.DefaultRegistry(e.cfg.Extract.MaxFileBytes),
		Scanner:         e.scannerConfig(),
		VCS:             bootstrap.GitProbe{},
		Bus:             bus,
		Embedding:       embed,
		Workers:         e.cfg.Extract.Workers,
		SynthesizePacks: true,
	})
	if err != nil {
		return err
	}

	logging.Get(logging.CategoryCLI).Infow("bootstrap complete",
		"indexedFiles", result.IndexedFiles, "functions", result.Functions, "modules", result.Modules)

	if flagJSON {
		return writeJSON(result)
	}
	fmt.Printf("Indexed %d files (%d functions, %d modules, %d edges)\n",
		result.IndexedFiles, result.Functions, result.Modules, result.Edges)
	for _, w := range result.Warnings {
		fmt.Printf("  warning: %s: %s\n", w.File, sanitizeOut(w.Message))
	}
	return nil
}

func removeStoreFile(path string) error {
	return os.Remove(path)
}
