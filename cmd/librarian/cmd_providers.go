package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Inspect configured LLM/embedding provider backends",
}

var providersCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the Readiness Gate and report provider availability",
	Long: `Probes every configured LLM and embedding backend and folds the
results into a single ready/not-ready decision (spec §4.9).`,
	RunE: runProvidersCheck,
}

func runProvidersCheck(cmd *cobra.Command, args []string) error {
	if err := checkOutRequiresJSON(); err != nil {
		return err
	}
	e, err := resolveEnv()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx(cmd), 30*time.Second)
	defer cancel()
	gate := e.providers.Gate(ctx, e.cfg.Provider, true, true)

	if flagJSON {
		return writeJSON(gate)
	}

	fmt.Printf("ready: %v (selected: %s)\n", gate.Ready, gate.SelectedProvider)
	for _, p := range gate.Providers {
		fmt.Printf("  %-16s available=%-5v authenticated=%-5v latency=%dms\n", p.Name, p.Available, p.Authenticated, p.LatencyMs)
		if p.Err != nil {
			fmt.Printf("    error: %s\n", sanitizeOut(p.Err.Error()))
		}
	}
	for _, step := range gate.RemediationSteps {
		fmt.Printf("  remediation: %s\n", sanitizeOut(step))
	}
	return nil
}
