// Package provider implements the Provider Capability Shims (spec §4.9,
// C9): a uniform interface over optional LLM/embedding backends plus a
// Readiness Gate that folds probe results into a single ready/not-ready
// decision, grounded on the teacher's capability-trait pattern for
// swappable collaborators (spec §1, §9 "Dynamic dispatch across 'provider'
// and 'storage' implementations").
package provider

import (
	"context"
	"fmt"
	"os"
	"time"

	"librarian/internal/config"
	"librarian/internal/logging"
)

// LLMProvider is the capability trait for optional natural-language
// synthesis (spec §4.4 step 6).
type LLMProvider interface {
	Name() string
	Probe(ctx context.Context) ProbeResult
	Complete(ctx context.Context, prompt string) (string, error)
}

// EmbeddingProvider is the capability trait for optional semantic vectors
// (spec §4.4 step 3). Satisfies librarian/internal/bootstrap.EmbeddingProvider
// structurally.
type EmbeddingProvider interface {
	Name() string
	Probe(ctx context.Context) ProbeResult
	Ready(ctx context.Context) bool
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ProbeResult reports a single backend's capability probe (spec §4.9).
type ProbeResult struct {
	Name          string
	Available     bool
	Authenticated bool
	LatencyMs     int64
	ModelID       string
	Err           error
}

// ReadinessResult is the folded outcome of the Readiness Gate (spec §4.9).
type ReadinessResult struct {
	Ready            bool
	SelectedProvider string
	Reason           string
	RemediationSteps []string
	Providers        []ProbeResult
}

// Registry resolves the configured LLM/embedding providers by name.
type Registry struct {
	llm        map[string]LLMProvider
	embeddings map[string]EmbeddingProvider
}

// NewRegistry builds the default Registry: a no-op stub plus an
// environment-configured HTTP-backed provider for each capability. No
// concrete vendor SDK is bound here (SPEC_FULL.md §11: LLM/embedding
// backends are a capability trait, not a bound SDK); operators point
// LIBRARIAN_PROVIDER_LLM_ENDPOINT at a service that serves the HTTPLLM
// protocol (GET /health, POST /v1/complete).
func NewRegistry() *Registry {
	r := &Registry{
		llm:        map[string]LLMProvider{},
		embeddings: map[string]EmbeddingProvider{},
	}
	noopLLM := NewNoopLLM()
	noopEmbed := NewNoopEmbedding()
	r.llm[noopLLM.Name()] = noopLLM
	r.embeddings[noopEmbed.Name()] = noopEmbed

	httpLLM := NewHTTPLLM()
	r.llm[httpLLM.Name()] = httpLLM
	httpEmbed := NewHTTPEmbedding()
	r.embeddings[httpEmbed.Name()] = httpEmbed
	return r
}

// Gate runs the Readiness Gate over the configured providers (spec §4.9).
func (r *Registry) Gate(ctx context.Context, cfg config.ProviderConfig, needLLM, needEmbedding bool) ReadinessResult {
	timeout := time.Duration(cfg.ProbeTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var probes []ProbeResult
	ready := true
	reason := ""
	remediation := []string{}
	selected := ""

	if needLLM {
		p, ok := r.llm[cfg.LLMProvider]
		if !ok {
			ready = false
			reason = fmt.Sprintf("configured LLM provider %q is not registered", cfg.LLMProvider)
			remediation = append(remediation, "set LIBRARIAN_PROVIDER_LLM to a registered provider name")
		} else {
			res := p.Probe(probeCtx)
			probes = append(probes, res)
			if !res.Available || !res.Authenticated {
				ready = false
				reason = fmt.Sprintf("LLM provider %q is not ready: %v", p.Name(), res.Err)
				remediation = append(remediation, "check LIBRARIAN_PROVIDER_LLM_ENDPOINT and LIBRARIAN_PROVIDER_LLM_API_KEY")
			} else {
				selected = p.Name()
			}
		}
	}
	if needEmbedding {
		p, ok := r.embeddings[cfg.EmbeddingProvider]
		if !ok {
			ready = false
			if reason == "" {
				reason = fmt.Sprintf("configured embedding provider %q is not registered", cfg.EmbeddingProvider)
			}
			remediation = append(remediation, "set LIBRARIAN_PROVIDER_EMBEDDING to a registered provider name")
		} else {
			res := p.Probe(probeCtx)
			probes = append(probes, res)
			if !res.Available || !res.Authenticated {
				ready = false
				if reason == "" {
					reason = fmt.Sprintf("embedding provider %q is not ready: %v", p.Name(), res.Err)
				}
				remediation = append(remediation, "check LIBRARIAN_PROVIDER_EMBEDDING_ENDPOINT")
			} else if selected == "" {
				selected = p.Name()
			}
		}
	}

	if ready && reason == "" {
		reason = "all required providers are available"
	}
	return ReadinessResult{
		Ready:            ready,
		SelectedProvider: selected,
		Reason:           reason,
		RemediationSteps: remediation,
		Providers:        probes,
	}
}

// LLM returns the named LLM provider, or the no-op stub if unknown.
func (r *Registry) LLM(name string) LLMProvider {
	if p, ok := r.llm[name]; ok {
		return p
	}
	return NewNoopLLM()
}

// Embedding returns the named embedding provider, or the no-op stub if
// unknown.
func (r *Registry) Embedding(name string) EmbeddingProvider {
	if p, ok := r.embeddings[name]; ok {
		return p
	}
	return NewNoopEmbedding()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func logProviderWarn(name, msg string, err error) {
	logging.Get(logging.CategoryProvider).Warnw(msg, "provider", name, "error", err)
}
