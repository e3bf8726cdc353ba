package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"librarian/internal/bootstrap"
	"librarian/internal/config"
	"librarian/internal/provider"
	"librarian/internal/query"
	"librarian/internal/store"
	"librarian/internal/workspace"
)

// cmdCtx returns cmd's context, defaulting to context.Background() the
// same way the teacher's queryFacts does, in case Execute() (rather than
// ExecuteContext()) left it unset.
func cmdCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// env bundles the resolved workspace, loaded config, and capability
// registry every subcommand needs; the store is opened lazily by
// openStore since providers/external-repos never touch it.
type env struct {
	workspace    string
	librarianDir string
	cfg          *config.Config
	providers    *provider.Registry
}

func resolveEnv() (*env, error) {
	ws, err := workspace.Resolve(flagWorkspace)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}
	cfg, err := config.Load(ws)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &env{
		workspace:    ws,
		librarianDir: filepath.Join(ws, ".librarian"),
		cfg:          cfg,
		providers:    provider.NewRegistry(),
	}, nil
}

func (e *env) storePath() string {
	return filepath.Join(e.librarianDir, e.cfg.Store.Path)
}

func (e *env) openStore() (*store.Store, error) {
	timeout := time.Duration(e.cfg.Store.LockTimeoutMs) * time.Millisecond
	return store.Open(e.storePath(), timeout)
}

func (e *env) scannerConfig() bootstrap.ScannerConfig {
	return bootstrap.ScannerConfig{
		ExcludeDirs:  e.cfg.Extract.ExcludeDirs,
		MaxFileBytes: e.cfg.Extract.MaxFileBytes,
	}
}

func (e *env) pipeline(st *store.Store) *query.Pipeline {
	return &query.Pipeline{
		Store:        st,
		Workspace:    e.workspace,
		LibrarianDir: e.librarianDir,
		Scanner:      e.scannerConfig(),
		VCS:          bootstrap.GitProbe{},
		Providers:    e.providers,
		Config:       e.cfg.Query,
		ProviderCfg:  e.cfg.Provider,
	}
}
