// Package query implements the Query Pipeline (spec §4.4, C4): answering
// an intent with ranked Context Packs under stated LLM/embedding
// requirements, grounded on the teacher's retrieval-and-rank pipeline
// (internal/retrieval in codeNERD) generalized from its domain-specific
// scoring to the spec's lexical/semantic/proximity weighting.
package query

import (
	"time"

	"librarian/internal/store"
)

// Requirement states how strongly a query depends on an optional
// capability (spec §4.4 input).
type Requirement string

const (
	Required Requirement = "required"
	Optional Requirement = "optional"
	Disabled Requirement = "disabled"
)

// Depth selects how much context to assemble.
type Depth string

const (
	DepthL0 Depth = "L0"
	DepthL1 Depth = "L1"
	DepthL2 Depth = "L2"
)

// Request is a single query input (spec §4.4).
type Request struct {
	Intent               string
	Depth                Depth
	AffectedFiles        []string
	LLMRequirement       Requirement
	EmbeddingRequirement Requirement
	TimeoutMs            int
	Deterministic        bool
	Limit                int
	Session              string
	AutoBootstrap        bool
}

// Mode is the classification result for an intent (spec §4.4 step 2).
type Mode string

const (
	ModeEnumeration Mode = "enumeration"
	ModeStructural  Mode = "structural"
	ModeGeneral     Mode = "general"
)

// WarningSeverity distinguishes critical vs coverage warnings (spec §4.4
// step 8).
type WarningSeverity string

const (
	SeverityCritical WarningSeverity = "critical"
	SeverityCoverage WarningSeverity = "coverage"
)

// Warning is a single surfaced pipeline warning.
type Warning struct {
	Severity WarningSeverity
	Message  string
}

// RankedPack pairs a Context Pack with its computed score, for internal
// pipeline use; only the pack itself is exposed in Response.
type RankedPack struct {
	Pack  store.ContextPack
	Score float64
}

// Response is the Query Pipeline's output (spec §4.4).
type Response struct {
	Packs           []store.ContextPack
	TotalConfidence float64
	CacheHit        bool
	LatencyMs       int64
	Version         store.VersionFingerprint
	Disclosures     []string
	DrillDownHints  []string
	MethodHints     []string
	CoverageGaps    []string
	SynthesisMode   string
	Synthesis       string
	LLMError        string
	Warnings        []Warning
	Mode            Mode
}

// sessionRecord is persisted under .librarian/query_sessions/<id>.json
// (spec §4.4 "Session contract").
type sessionRecord struct {
	ID               string    `json:"id"`
	Intents          []string  `json:"intents"`
	PreferredLLM     string    `json:"preferredLlm,omitempty"`
	PreferredEmbed   string    `json:"preferredEmbedding,omitempty"`
	LastUpdated      time.Time `json:"lastUpdated"`
}
