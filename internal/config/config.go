// Package config loads librarian's configuration from
// <workspace>/.librarian/config.yaml, following the teacher's single
// yaml-tagged Config struct plus environment-variable overrides.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all librarian configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Extract  ExtractConfig  `yaml:"extract"`
	Query    QueryConfig    `yaml:"query"`
	Provider ProviderConfig `yaml:"provider"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// StoreConfig controls the Knowledge Store.
type StoreConfig struct {
	// Path is relative to the workspace's .librarian directory.
	Path          string `yaml:"path"`
	LockTimeoutMs int    `yaml:"lock_timeout_ms"`
}

// ExtractConfig controls the Fact Extractor and bootstrap scanner.
type ExtractConfig struct {
	MaxFileBytes int64    `yaml:"max_file_bytes"`
	ExcludeDirs  []string `yaml:"exclude_dirs"`
	Workers      int      `yaml:"workers"`
}

// RankWeights are the tunable ranking weights (spec §9 open question 1).
type RankWeights struct {
	Lexical   float64 `yaml:"lexical"`
	Semantic  float64 `yaml:"semantic"`
	Proximity float64 `yaml:"proximity"`
}

// QueryConfig controls the Query Pipeline.
type QueryConfig struct {
	Weights                    RankWeights `yaml:"weights"`
	EmbeddingCoverageThreshold float64     `yaml:"embedding_coverage_threshold"`
	DefaultLimit               int         `yaml:"default_limit"`
	DefaultTimeoutMs           int         `yaml:"default_timeout_ms"`
}

// ProviderConfig controls C9 capability shims.
type ProviderConfig struct {
	LLMProvider       string `yaml:"llm_provider"`
	EmbeddingProvider string `yaml:"embedding_provider"`
	ProbeTimeoutMs    int    `yaml:"probe_timeout_ms"`
}

// LoggingConfig controls the logging sink.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns conservative defaults, grounded on the teacher's
// DefaultConfig/DefaultScannerConfig.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path:          "librarian.sqlite",
			LockTimeoutMs: 5000,
		},
		Extract: ExtractConfig{
			MaxFileBytes: 2 * 1024 * 1024,
			ExcludeDirs: []string{
				".git", ".librarian", "node_modules", "vendor",
				"dist", "build", ".next", "target", "bin", "obj",
				".terraform", ".venv", ".cache", "coverage",
			},
			Workers: 8,
		},
		Query: QueryConfig{
			Weights:                    RankWeights{Lexical: 0.5, Semantic: 0.3, Proximity: 0.2},
			EmbeddingCoverageThreshold: 0.25,
			DefaultLimit:               10,
			DefaultTimeoutMs:           30000,
		},
		Provider: ProviderConfig{
			LLMProvider:       "none",
			EmbeddingProvider: "none",
			ProbeTimeoutMs:    2000,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

// Validate checks invariants that DefaultConfig always satisfies but a
// loaded config might not (open question 1: weights must sum to 1.0).
func (c *Config) Validate() error {
	sum := c.Query.Weights.Lexical + c.Query.Weights.Semantic + c.Query.Weights.Proximity
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("query.weights must sum to 1.0, got %f", sum)
	}
	if c.Query.EmbeddingCoverageThreshold < 0 || c.Query.EmbeddingCoverageThreshold > 1 {
		return fmt.Errorf("query.embedding_coverage_threshold must be in [0,1], got %f", c.Query.EmbeddingCoverageThreshold)
	}
	return nil
}

// Load reads config.yaml from the workspace's .librarian directory, falling
// back to DefaultConfig when absent, then applies environment overrides.
func Load(workspace string) (*Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(workspace, ".librarian", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(cfg)
			if verr := cfg.Validate(); verr != nil {
				return nil, verr
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to the workspace's .librarian/config.yaml.
func Save(workspace string, cfg *Config) error {
	dir := filepath.Join(workspace, ".librarian")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create .librarian dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o644)
}

// applyEnvOverrides mirrors the teacher's LIBRARIAN_<SECTION>_<FIELD>
// environment override convention.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIBRARIAN_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("LIBRARIAN_PROVIDER_LLM"); v != "" {
		cfg.Provider.LLMProvider = v
	}
	if v := os.Getenv("LIBRARIAN_PROVIDER_EMBEDDING"); v != "" {
		cfg.Provider.EmbeddingProvider = v
	}
	if v := os.Getenv("LIBRARIAN_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LIBRARIAN_EXTRACT_WORKERS"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			cfg.Extract.Workers = n
		}
	}
}
