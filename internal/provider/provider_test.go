package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"librarian/internal/config"
)

func TestGateFailsClosedWhenUnconfigured(t *testing.T) {
	r := NewRegistry()
	res := r.Gate(context.Background(), config.ProviderConfig{LLMProvider: "none", EmbeddingProvider: "none"}, true, false)
	assert.False(t, res.Ready)
	assert.Empty(t, res.SelectedProvider)
	assert.NotEmpty(t, res.Reason)
}

func TestGateSkipsUnrequestedCapabilities(t *testing.T) {
	r := NewRegistry()
	res := r.Gate(context.Background(), config.ProviderConfig{LLMProvider: "none", EmbeddingProvider: "none"}, false, false)
	assert.True(t, res.Ready)
	assert.Empty(t, res.Providers)
}

func TestUnregisteredProviderNameFailsClosed(t *testing.T) {
	r := NewRegistry()
	res := r.Gate(context.Background(), config.ProviderConfig{LLMProvider: "does-not-exist"}, true, false)
	assert.False(t, res.Ready)
	assert.Contains(t, res.Reason, "does-not-exist")
}

func TestNoopProvidersAreNeverReady(t *testing.T) {
	n := NewNoopEmbedding()
	assert.False(t, n.Ready(context.Background()))
	_, err := n.Embed(context.Background(), "x")
	assert.Error(t, err)
}
