package provider

import (
	"context"
	"errors"
)

// NoopLLM is the always-unavailable LLM stub selected by config value
// "none" (spec: "when ready=false and the query requires LLM... when LLM
// is optional, it silently falls back to structural-only").
type NoopLLM struct{}

func NewNoopLLM() *NoopLLM { return &NoopLLM{} }

func (n *NoopLLM) Name() string { return "none" }

func (n *NoopLLM) Probe(ctx context.Context) ProbeResult {
	return ProbeResult{Name: n.Name(), Available: false, Err: errors.New("no LLM provider configured")}
}

func (n *NoopLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("no LLM provider configured")
}

// NoopEmbedding is the always-unavailable embedding stub.
type NoopEmbedding struct{}

func NewNoopEmbedding() *NoopEmbedding { return &NoopEmbedding{} }

func (n *NoopEmbedding) Name() string { return "none" }

func (n *NoopEmbedding) Probe(ctx context.Context) ProbeResult {
	return ProbeResult{Name: n.Name(), Available: false, Err: errors.New("no embedding provider configured")}
}

func (n *NoopEmbedding) Ready(ctx context.Context) bool { return false }

func (n *NoopEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("no embedding provider configured")
}
