package query

import (
	"context"
	"time"

	"librarian/internal/bootstrap"
	"librarian/internal/config"
	"librarian/internal/errs"
	"librarian/internal/logging"
	"librarian/internal/provider"
	"librarian/internal/store"
)

// Pipeline wires the Query Pipeline's dependencies (spec §4.4).
type Pipeline struct {
	Store        *store.Store
	Workspace    string
	LibrarianDir string
	Scanner      bootstrap.ScannerConfig
	VCS          bootstrap.VersionControlProbe
	Providers    *provider.Registry
	Config       config.QueryConfig
	ProviderCfg  config.ProviderConfig
}

// Run executes the full pipeline for req (spec §4.4 steps 1-8).
func (p *Pipeline) Run(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	timer := logging.StartTimer(logging.CategoryQuery, "Run")
	defer timer.Stop()

	if req.Limit <= 0 {
		req.Limit = p.Config.DefaultLimit
	}
	if req.LLMRequirement == "" {
		req.LLMRequirement = Optional
	}
	if req.EmbeddingRequirement == "" {
		req.EmbeddingRequirement = Optional
	}

	// Step 1: Gate.
	drift, err := bootstrap.IsBootstrapRequired(ctx, p.Workspace, p.Store, p.Scanner, p.VCS)
	if err != nil {
		return nil, err
	}
	if drift.Required && !req.AutoBootstrap {
		return nil, errs.New(errs.NotBootstrapped, drift.Reason)
	}

	var session *sessionRecord
	if req.Session != "" {
		session, err = loadSession(p.LibrarianDir, req.Session)
		if err != nil {
			return nil, err
		}
		session.Intents = append(session.Intents, req.Intent)
	}

	// Step 2: Classify.
	mode := Classify(req.Intent)

	resp := &Response{Mode: mode}
	var packs []store.ContextPack

	switch mode {
	case ModeEnumeration:
		packs, err = retrieveEnumeration(p.Store, req.Intent)
		if err != nil {
			return nil, err
		}
	case ModeStructural:
		packs, err = retrieveStructural(p.Store, req.Intent)
		if err != nil {
			return nil, err
		}
	default:
		// Step 3: Retrieve (semantic mode coverage gate).
		if req.EmbeddingRequirement == Required {
			coverage, cerr := EmbeddingCoverage(p.Store)
			if cerr != nil {
				return nil, cerr
			}
			if coverage < p.Config.EmbeddingCoverageThreshold {
				return nil, errs.Newf(errs.InsufficientEmbeddingCover,
					"embedding coverage %.2f is below the required threshold %.2f", coverage, p.Config.EmbeddingCoverageThreshold)
			}
		}
		if req.EmbeddingRequirement == Disabled {
			req.LLMRequirement = Disabled
		}
		packs, err = retrieveGeneral(p.Store)
		if err != nil {
			return nil, err
		}
	}

	// Step 4: Rank (structural/enumeration modes are already sorted
	// deterministically and bypass scoring).
	var ranked []RankedPack
	if mode == ModeGeneral {
		tokens := intentTokens(req.Intent)
		semantic := p.loadSemanticVectors(packs)
		var intentVec []float32
		if req.EmbeddingRequirement != Disabled && p.Providers != nil {
			embed := p.Providers.Embedding(p.ProviderCfg.EmbeddingProvider)
			if embed.Ready(ctx) {
				if vec, everr := embed.Embed(ctx, req.Intent); everr == nil {
					intentVec = vec
				}
			}
		}
		ranked = Rank(packs, tokens, req.AffectedFiles, p.Config.Weights, semantic, intentVec, req.Deterministic)
	} else {
		for _, pk := range packs {
			ranked = append(ranked, RankedPack{Pack: pk, Score: 1})
		}
	}

	// Step 5: Assemble.
	limit := req.Limit
	if limit <= 0 || limit > len(ranked) {
		limit = len(ranked)
	}
	assembled := make([]store.ContextPack, 0, limit)
	var totalConfidence float64
	for i := 0; i < limit; i++ {
		assembled = append(assembled, ranked[i].Pack)
		totalConfidence += ranked[i].Pack.Confidence
	}
	if limit > 0 {
		totalConfidence /= float64(limit)
	}
	resp.Packs = assembled
	resp.TotalConfidence = clamp01(totalConfidence)

	// Step 6: Synthesize.
	resp.SynthesisMode = "heuristic"
	if req.LLMRequirement != Disabled && p.Providers != nil {
		llm := p.Providers.LLM(p.ProviderCfg.LLMProvider)
		probeResult := llm.Probe(ctx)
		if probeResult.Available && probeResult.Authenticated {
			text, serr := llm.Complete(ctx, synthesisPrompt(req.Intent, assembled))
			if serr != nil {
				resp.LLMError = serr.Error()
				if req.LLMRequirement == Required {
					return nil, errs.Wrap(errs.ProviderNotReady, serr, "llm synthesis failed")
				}
			} else {
				resp.Synthesis = text
				resp.SynthesisMode = "llm"
			}
		} else if req.LLMRequirement == Required {
			return nil, errs.New(errs.ProviderNotReady, "llm provider required but not ready")
		}
	}

	// Step 7: Sanitize.
	resp.Synthesis = SanitizeProse(resp.Synthesis)
	for i := range resp.Packs {
		resp.Packs[i].Summary = SanitizeProse(resp.Packs[i].Summary)
	}

	// Step 8: Surface warnings.
	resp.Warnings = p.surfaceWarnings(drift, resp)
	resp.CoverageGaps = coverageGaps(drift, resp)
	resp.DrillDownHints = drillDownHints(assembled)
	resp.MethodHints = methodHints(mode)
	resp.Disclosures = disclosures(drift)

	version, verr := p.Store.GetVersion()
	if verr == nil {
		resp.Version = version
	}
	resp.LatencyMs = time.Since(start).Milliseconds()

	if session != nil {
		if err := saveSession(p.LibrarianDir, session); err != nil {
			logging.Get(logging.CategoryQuery).Warnw("failed to persist session", "error", err)
		}
	}

	return resp, nil
}

func (p *Pipeline) loadSemanticVectors(packs []store.ContextPack) map[string][]float32 {
	out := map[string][]float32{}
	for _, pk := range packs {
		vec, err := p.Store.GetEmbedding(pk.TargetID)
		if err == nil && len(vec) > 0 {
			out[pk.TargetID] = vec
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func synthesisPrompt(intent string, packs []store.ContextPack) string {
	s := "Intent: " + intent + "\n\nContext:\n"
	for _, p := range packs {
		s += "- " + p.Summary + "\n"
	}
	return s
}

func (p *Pipeline) surfaceWarnings(drift bootstrap.DriftReport, resp *Response) []Warning {
	var critical, coverage []Warning
	if resp.LLMError != "" {
		critical = append(critical, Warning{Severity: SeverityCritical, Message: "synthesis failed: " + resp.LLMError})
	}
	if resp.TotalConfidence < 0.1 && len(resp.Packs) > 0 {
		critical = append(critical, Warning{Severity: SeverityCritical, Message: "low confidence result"})
	}
	if drift.Required {
		coverage = append(coverage, Warning{Severity: SeverityCoverage, Message: "index may be partial: " + drift.Reason})
	}
	if resp.SynthesisMode == "heuristic" {
		coverage = append(coverage, Warning{Severity: SeverityCoverage, Message: "no LLM provider available; structural-only answer"})
	}
	return append(critical, coverage...)
}

func coverageGaps(drift bootstrap.DriftReport, resp *Response) []string {
	var gaps []string
	if drift.Required {
		gaps = append(gaps, "index_stale")
	}
	if resp.SynthesisMode == "heuristic" {
		gaps = append(gaps, "no_llm_synthesis")
	}
	return gaps
}

func drillDownHints(packs []store.ContextPack) []string {
	hints := make([]string, 0, len(packs))
	for _, p := range packs {
		for _, f := range p.RelatedFiles {
			hints = append(hints, f)
		}
	}
	return hints
}

func methodHints(mode Mode) []string {
	switch mode {
	case ModeEnumeration:
		return []string{"results are deterministically sorted; no ranking was applied"}
	case ModeStructural:
		return []string{"results derived from the call graph, not semantic similarity"}
	default:
		return []string{"results ranked by lexical, semantic, and proximity signals"}
	}
}

func disclosures(drift bootstrap.DriftReport) []string {
	if drift.IsSelfReferential {
		return []string{"this workspace is the librarian project itself"}
	}
	return nil
}
