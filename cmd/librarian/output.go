package main

import (
	"encoding/json"
	"fmt"
	"os"

	"librarian/internal/errs"
	"librarian/internal/query"
)

// writeJSON marshals v and writes it to --out if set, else stdout. Every
// CLI exit path that emits JSON goes through here so --out is honored
// uniformly (spec §6).
func writeJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	data = append(data, '\n')
	if flagOut != "" {
		return os.WriteFile(flagOut, data, 0o644)
	}
	_, err = os.Stdout.Write(data)
	return err
}

// sanitizeOut strips the unverified_by_trace(...) marker from any string
// about to cross the CLI boundary (spec §6: "Sanitization is mandatory at
// the CLI boundary and at any other external surface"). The pipeline
// already sanitizes prose internally; this is a last-line backstop so a
// formatting helper that concatenates raw fields can never leak the marker.
func sanitizeOut(s string) string {
	return query.SanitizeProse(s)
}

// checkOutRequiresJSON enforces the `--out` requires `--json` rule.
func checkOutRequiresJSON() error {
	if flagOut != "" && !flagJSON {
		return errs.New(errs.InvalidArgument, "--out requires --json")
	}
	return nil
}

// exitCodeFor maps a stable error Kind to a CLI exit code (spec §6/§7: the
// kinds are stable identifiers, not specific integers, so the mapping
// below is this CLI's own contract). 0 is reserved for success; unmapped
// errors fall back to 1.
func exitCodeFor(err error) int {
	switch errs.KindOf(err) {
	case errs.NotBootstrapped:
		return 10
	case errs.InsufficientEmbeddingCover:
		return 11
	case errs.InvalidArgument:
		return 12
	case errs.Timeout:
		return 13
	case errs.ProviderNotReady:
		return 14
	case errs.StorageLocked:
		return 15
	case errs.SchemaIncompatible:
		return 16
	default:
		return 1
	}
}
