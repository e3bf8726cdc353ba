package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"librarian/internal/store"
)

// synthesizePacks builds one function_context Context Pack per extracted
// function (spec §3: Context Pack is the retrieval unit C4 assembles from),
// seeded directly from Structural Facts rather than a language model —
// bootstrap never calls out to a provider for this.
func synthesizePacks(ctx context.Context, st *store.Store, funcsByFile map[string][]store.Function) error {
	files := make([]string, 0, len(funcsByFile))
	for f := range funcsByFile {
		files = append(files, f)
	}
	sort.Strings(files)

	return st.Transaction(func(tx *sql.Tx) error {
		for _, file := range files {
			for _, fn := range funcsByFile[file] {
				pack := store.ContextPack{
					PackID:       "func:" + fn.ID,
					PackType:     "function_context",
					TargetID:     fn.ID,
					Summary:      fmt.Sprintf("%s defined in %s (lines %d-%d)", fn.Signature, fn.File, fn.StartLine, fn.EndLine),
					KeyFacts:     []string{fn.Signature},
					RelatedFiles: []string{fn.File},
					Confidence:   fn.Confidence,
					CreatedAt:    time.Now().UTC(),
				}
				if err := store.UpsertContextPack(tx, pack); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// synthesizeEmbeddings embeds every Module's exported-symbol summary when
// an embedding provider is ready, preserving the totalEmbeddings <=
// totalModules invariant (spec §8) by only ever writing one row per module.
func synthesizeEmbeddings(ctx context.Context, st *store.Store, modules []store.Module, embed EmbeddingProvider) error {
	return st.Transaction(func(tx *sql.Tx) error {
		for _, m := range modules {
			text := m.Path + " exports: " + strings.Join(m.Exports, ", ")
			vec, err := embed.Embed(ctx, text)
			if err != nil {
				continue
			}
			if err := store.SetEmbedding(tx, m.Path, vec); err != nil {
				return err
			}
		}
		return nil
	})
}
