package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"librarian/internal/eventbus"
	"librarian/internal/extract"
	"librarian/internal/hashutil"
	"librarian/internal/logging"
	"librarian/internal/store"
	"librarian/internal/workspace"
)

// EmbeddingProvider is the narrow capability bootstrap needs from C9: given
// module text, produce a vector. Bootstrap never imports the provider
// package directly to avoid a dependency cycle with C4/C9 wiring; callers
// supply any implementation satisfying this interface.
type EmbeddingProvider interface {
	Ready(ctx context.Context) bool
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Options configures a bootstrap run.
type Options struct {
	Workspace    string
	Registry     *extract.Registry
	Scanner      ScannerConfig
	VCS          VersionControlProbe
	Bus          *eventbus.Bus
	Embedding    EmbeddingProvider // optional
	Workers      int
	SynthesizePacks bool
}

// Result summarizes a bootstrap run (spec §4.3).
type Result struct {
	IndexedFiles      int
	Functions         int
	Modules           int
	Edges             int
	Warnings          []extract.Finding
	IsSelfReferential bool
	HeadCommit        string
}

type fileRecord struct {
	rel      string
	abs      string
	checksum string
	facts    []extract.StructuralFact
	findings []extract.Finding
	recognized bool
}

// Run executes the bootstrap algorithm (spec §4.3): discover, extract,
// persist per-file inside one transaction per file, derive modules/edges,
// optionally synthesize context packs and embeddings, and record the
// Version Fingerprint.
func Run(ctx context.Context, st *store.Store, opts Options) (*Result, error) {
	timer := logging.StartTimer(logging.CategoryBoot, "Run")
	defer timer.Stop()

	if opts.VCS == nil {
		opts.VCS = NoopProbe{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	publish(opts.Bus, eventbus.BootstrapStarted, opts.Workspace)

	rels, err := Discover(opts.Workspace, opts.Scanner)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}

	records := make([]fileRecord, len(rels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rel := range rels {
		i, rel := i, rel
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			abs := filepath.Join(opts.Workspace, rel)
			checksum, err := hashutil.ChecksumFile(abs)
			if err != nil {
				logging.Get(logging.CategoryBoot).Warnw("failed to checksum file", "path", rel, "error", err)
				return nil
			}
			content, err := readFile(abs)
			if err != nil {
				return nil
			}
			facts, findings, err := opts.Registry.Extract(abs, content)
			if err != nil {
				findings = append(findings, extract.Finding{File: rel, Message: err.Error()})
			}
			for j := range facts {
				facts[j].File = rel
			}
			records[i] = fileRecord{
				rel: rel, abs: abs, checksum: checksum,
				facts: facts, findings: findings,
				recognized: opts.Registry.Recognized(abs),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("bootstrap scan aborted: %w", err)
	}

	result := &Result{IsSelfReferential: workspace.IsSelfReferential(opts.Workspace)}

	// Ordering guarantee (spec §5): file records appear in the store in
	// lexicographic path order. rels is already sorted by Discover.
	funcsByFile := map[string][]store.Function{}
	for _, rec := range records {
		result.Warnings = append(result.Warnings, rec.findings...)
		cat := Categorize(rec.rel, rec.recognized)
		f := store.File{
			Path:     rec.rel,
			Checksum: rec.checksum,
			Category: cat,
			Imports:  importTargets(rec.facts),
		}
		funcs := functionsFromFacts(rec.rel, rec.checksum, rec.facts)
		funcsByFile[rec.rel] = funcs
		calls := callEdges(rec.rel, rec.facts, funcs)

		err := st.Transaction(func(tx *sql.Tx) error {
			if err := store.UpsertFile(tx, f); err != nil {
				return err
			}
			for _, fn := range funcs {
				if err := store.UpsertFunction(tx, fn); err != nil {
					return err
				}
			}
			for _, e := range calls {
				if err := store.UpsertGraphEdge(tx, e); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to persist %s: %w", rec.rel, err)
		}
		result.IndexedFiles++
		result.Functions += len(funcs)
		result.Edges += len(calls)
	}

	modules := deriveModules(records, funcsByFile)
	if err := st.Transaction(func(tx *sql.Tx) error {
		for _, m := range modules {
			if err := store.UpsertModule(tx, m); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to persist modules: %w", err)
	}
	result.Modules = len(modules)

	importEdges := deriveImportEdges(records)
	if err := st.Transaction(func(tx *sql.Tx) error {
		for _, e := range importEdges {
			if err := store.UpsertGraphEdge(tx, e); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to persist import edges: %w", err)
	}
	result.Edges += len(importEdges)

	if opts.VCS.IsRepo(ctx, opts.Workspace) {
		cochange, cerr := deriveCochangeEdges(ctx, opts.Workspace, 200)
		if cerr != nil {
			logging.Get(logging.CategoryBoot).Warnw("cochange derivation failed", "error", cerr)
		} else if len(cochange) > 0 {
			if err := st.Transaction(func(tx *sql.Tx) error {
				for _, e := range cochange {
					if err := store.UpsertGraphEdge(tx, e); err != nil {
						return err
					}
				}
				return nil
			}); err != nil {
				return nil, fmt.Errorf("failed to persist cochange edges: %w", err)
			}
			result.Edges += len(cochange)
		}
	}

	if opts.SynthesizePacks {
		if err := synthesizePacks(ctx, st, funcsByFile); err != nil {
			logging.Get(logging.CategoryBoot).Warnw("context pack synthesis failed", "error", err)
		}
		if opts.Embedding != nil && opts.Embedding.Ready(ctx) {
			if err := synthesizeEmbeddings(ctx, st, modules, opts.Embedding); err != nil {
				logging.Get(logging.CategoryBoot).Warnw("embedding synthesis failed", "error", err)
			}
		}
	}

	head, _ := opts.VCS.HeadCommit(ctx, opts.Workspace)
	result.HeadCommit = head
	tier := store.TierFull
	if len(result.Warnings) > 0 {
		tier = store.TierPartial
	}
	if err := st.SetVersion(store.VersionFingerprint{
		SchemaMajor: store.SchemaMajor,
		SchemaMinor: store.SchemaMinor,
		SchemaPatch: store.SchemaPatch,
		QualityTier: tier,
		IndexedAt:   time.Now().UTC(),
		HeadCommit:  head,
	}); err != nil {
		return nil, fmt.Errorf("failed to record version fingerprint: %w", err)
	}

	publish(opts.Bus, eventbus.BootstrapCompleted, result)
	return result, nil
}

func publish(bus *eventbus.Bus, t eventbus.EventType, payload any) {
	if bus == nil {
		return
	}
	bus.Publish(eventbus.Event{Type: t, Payload: payload})
}

func functionID(file, name string, startLine int) string {
	return fmt.Sprintf("%s#%s#%d", file, name, startLine)
}

func functionsFromFacts(file, checksum string, facts []extract.StructuralFact) []store.Function {
	var out []store.Function
	for _, f := range facts {
		if f.Kind != extract.FactFunctionDef {
			continue
		}
		end := f.Details.EndLine
		if end < f.Line {
			end = f.Line
		}
		sig := signatureOf(f)
		out = append(out, store.Function{
			ID:           functionID(file, f.Identifier, f.Line),
			Name:         f.Identifier,
			File:         file,
			StartLine:    f.Line,
			EndLine:      end,
			Signature:    sig,
			Confidence:   confidenceFor(f),
			FileChecksum: checksum,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartLine < out[j].StartLine })
	return out
}

func signatureOf(f extract.StructuralFact) string {
	var parts []string
	for _, p := range f.Details.Params {
		if p.Type != "" {
			parts = append(parts, p.Name+" "+p.Type)
		} else {
			parts = append(parts, p.Name)
		}
	}
	sig := f.Identifier + "(" + strings.Join(parts, ", ") + ")"
	if f.Details.ReturnType != "" {
		sig += " " + f.Details.ReturnType
	}
	return sig
}

func confidenceFor(f extract.StructuralFact) float64 {
	if f.Details.EndLine > 0 {
		return 0.9
	}
	return 0.6
}

func importTargets(facts []extract.StructuralFact) []string {
	var out []string
	for _, f := range facts {
		if f.Kind == extract.FactImport {
			out = append(out, f.Details.Target)
		}
	}
	return out
}

func callEdges(file string, facts []extract.StructuralFact, funcs []store.Function) []store.GraphEdge {
	if len(funcs) == 0 {
		return nil
	}
	names := map[string]string{}
	for _, fn := range funcs {
		names[fn.Name] = fn.ID
	}
	// Attribute a call to the enclosing function by line range.
	var edges []store.GraphEdge
	for _, f := range facts {
		if f.Kind != extract.FactCall {
			continue
		}
		calleeID, ok := names[f.Identifier]
		if !ok {
			continue
		}
		enclosing := enclosingFunction(funcs, f.Line)
		if enclosing == "" || enclosing == calleeID {
			continue
		}
		edges = append(edges, store.GraphEdge{
			FromID: enclosing, FromKind: store.EndpointFunction,
			ToID: calleeID, ToKind: store.EndpointFunction,
			EdgeKind: store.EdgeCalls, SourceFile: file, Confidence: 0.7,
		})
	}
	return edges
}

func enclosingFunction(funcs []store.Function, line int) string {
	for _, fn := range funcs {
		if line >= fn.StartLine && line <= fn.EndLine {
			return fn.ID
		}
	}
	return ""
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
