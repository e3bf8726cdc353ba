package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPLLM is a generic JSON-over-HTTP completion backend (GET /health,
// POST /v1/complete). It is the
// only concrete LLM binding in this repository: SPEC_FULL.md §11 treats
// LLM backends as a capability trait rather than a bound vendor SDK, so
// the trait is satisfied here with a plain HTTP client against whatever
// endpoint the operator configures, rather than importing any single
// vendor's SDK.
type HTTPLLM struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

func NewHTTPLLM() *HTTPLLM {
	return &HTTPLLM{
		endpoint: envOr("LIBRARIAN_PROVIDER_LLM_ENDPOINT", ""),
		apiKey:   envOr("LIBRARIAN_PROVIDER_LLM_API_KEY", ""),
		model:    envOr("LIBRARIAN_PROVIDER_LLM_MODEL", "default"),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *HTTPLLM) Name() string { return "http" }

func (h *HTTPLLM) Probe(ctx context.Context) ProbeResult {
	if h.endpoint == "" {
		return ProbeResult{Name: h.Name(), Available: false, Err: errors.New("LIBRARIAN_PROVIDER_LLM_ENDPOINT is not set")}
	}
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.endpoint+"/health", nil)
	if err != nil {
		return ProbeResult{Name: h.Name(), Available: false, Err: err}
	}
	resp, err := h.client.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		logProviderWarn(h.Name(), "health probe failed", err)
		return ProbeResult{Name: h.Name(), Available: false, LatencyMs: latency, Err: err}
	}
	defer resp.Body.Close()
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	return ProbeResult{
		Name: h.Name(), Available: ok, Authenticated: ok && h.apiKey != "",
		LatencyMs: latency, ModelID: h.model,
	}
}

type completionRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type completionResponse struct {
	Text string `json:"text"`
}

func (h *HTTPLLM) Complete(ctx context.Context, prompt string) (string, error) {
	if h.endpoint == "" {
		return "", errors.New("no LLM endpoint configured")
	}
	body, err := json.Marshal(completionRequest{Model: h.model, Prompt: prompt})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint+"/v1/complete", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm completion request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("llm completion returned %d: %s", resp.StatusCode, string(data))
	}
	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	return out.Text, nil
}

// HTTPEmbedding mirrors HTTPLLM for the embedding capability.
type HTTPEmbedding struct {
	endpoint string
	client   *http.Client
	dims     int
}

func NewHTTPEmbedding() *HTTPEmbedding {
	return &HTTPEmbedding{
		endpoint: envOr("LIBRARIAN_PROVIDER_EMBEDDING_ENDPOINT", ""),
		client:   &http.Client{Timeout: 10 * time.Second},
		dims:     384,
	}
}

func (h *HTTPEmbedding) Name() string { return "http" }

func (h *HTTPEmbedding) Probe(ctx context.Context) ProbeResult {
	if h.endpoint == "" {
		return ProbeResult{Name: h.Name(), Available: false, Err: errors.New("LIBRARIAN_PROVIDER_EMBEDDING_ENDPOINT is not set")}
	}
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.endpoint+"/health", nil)
	if err != nil {
		return ProbeResult{Name: h.Name(), Available: false, Err: err}
	}
	resp, err := h.client.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return ProbeResult{Name: h.Name(), Available: false, LatencyMs: latency, Err: err}
	}
	defer resp.Body.Close()
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	return ProbeResult{Name: h.Name(), Available: ok, Authenticated: ok, LatencyMs: latency}
}

func (h *HTTPEmbedding) Ready(ctx context.Context) bool {
	return h.Probe(ctx).Available
}

type embeddingRequest struct {
	Text string `json:"text"`
}

type embeddingResponse struct {
	Vector []float32 `json:"vector"`
}

func (h *HTTPEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	if h.endpoint == "" {
		return nil, errors.New("no embedding endpoint configured")
	}
	body, err := json.Marshal(embeddingRequest{Text: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint+"/v1/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding request returned %d: %s", resp.StatusCode, string(data))
	}
	var out embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	return out.Vector, nil
}
