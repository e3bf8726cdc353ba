package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"librarian/internal/bootstrap"
	"librarian/internal/config"
	"librarian/internal/extract"
	"librarian/internal/provider"
	"librarian/internal/workspace"
)

var (
	flagDiagnoseConfig bool
	flagDiagnoseHeal   bool
	flagDiagnosePretty bool
	flagDiagnoseFormat string
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Run self-diagnosis over the workspace, config, and store",
	Long: `Checks workspace resolution, config validity, index drift, and
provider readiness, optionally attempting structural remediation with
--heal (spec §4.6, §4.9).`,
	RunE: runDiagnose,
}

func init() {
	diagnoseCmd.Flags().BoolVar(&flagDiagnoseConfig, "config", false, "only check configuration, skip store/provider checks")
	diagnoseCmd.Flags().BoolVar(&flagDiagnoseHeal, "heal", false, "attempt structural remediation for detected issues")
	diagnoseCmd.Flags().BoolVar(&flagDiagnosePretty, "pretty", false, "pretty-print text output with section headers")
	diagnoseCmd.Flags().StringVar(&flagDiagnoseFormat, "format", "text", "text|json")
}

// diagnosisReport is diagnose's output shape; every field name here is
// load-bearing for --format json consumers.
type diagnosisReport struct {
	Workspace         string   `json:"workspace"`
	ConfigValid       bool     `json:"configValid"`
	ConfigIssue       string   `json:"configIssue,omitempty"`
	BootstrapRequired bool     `json:"bootstrapRequired"`
	BootstrapReason   string   `json:"bootstrapReason,omitempty"`
	ProvidersReady    bool     `json:"providersReady"`
	SelectedProvider  string   `json:"selectedProvider,omitempty"`
	RemediationSteps  []string `json:"remediationSteps,omitempty"`
	Healed            []string `json:"healed,omitempty"`
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	if err := checkOutRequiresJSON(); err != nil {
		return err
	}
	ws, err := workspace.Resolve(flagWorkspace)
	if err != nil {
		return err
	}
	report := diagnosisReport{Workspace: ws}

	cfg, cfgErr := config.Load(ws)
	if cfgErr != nil {
		report.ConfigIssue = cfgErr.Error()
		if flagDiagnoseHeal {
			cfg = config.DefaultConfig()
			if saveErr := config.Save(ws, cfg); saveErr == nil {
				report.Healed = append(report.Healed, "reset config.yaml to defaults")
				report.ConfigIssue = ""
			}
		}
	}
	report.ConfigValid = report.ConfigIssue == ""
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	if !flagDiagnoseConfig {
		e := &env{
			workspace:    ws,
			librarianDir: filepath.Join(ws, ".librarian"),
			cfg:          cfg,
			providers:    provider.NewRegistry(),
		}
		diagnoseStoreAndProviders(cmdCtx(cmd), e, &report)
	}

	format := flagDiagnoseFormat
	if flagJSON {
		format = "json"
	}
	if format == "json" {
		return writeJSON(report)
	}
	printDiagnosis(report)
	return nil
}

func diagnoseStoreAndProviders(ctx context.Context, e *env, report *diagnosisReport) {
	st, serr := e.openStore()
	var drift bootstrap.DriftReport
	if serr != nil {
		drift = bootstrap.DriftReport{Required: true, Reason: serr.Error()}
	} else {
		defer st.Close()
		driftCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		drift, _ = bootstrap.IsBootstrapRequired(driftCtx, e.workspace, st, e.scannerConfig(), bootstrap.GitProbe{})
		cancel()
	}
	report.BootstrapRequired = drift.Required
	report.BootstrapReason = drift.Reason

	if drift.Required && flagDiagnoseHeal {
		if st == nil {
			st, serr = e.openStore()
		}
		if serr == nil {
			healCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			_, rerr := bootstrap.Run(healCtx, st, bootstrap.Options{
				Workspace: e.workspace,
				Registry:  extract.DefaultRegistry(e.cfg.Extract.MaxFileBytes),
				Scanner:   e.scannerConfig(),
				VCS:       bootstrap.GitProbe{},
				Workers:   e.cfg.Extract.Workers,
			})
			cancel()
			if rerr == nil {
				report.Healed = append(report.Healed, "rebuilt the knowledge store")
				report.BootstrapRequired = false
				report.BootstrapReason = ""
			}
		}
	}

	gate := e.providers.Gate(ctx, e.cfg.Provider, true, true)
	report.ProvidersReady = gate.Ready
	report.SelectedProvider = gate.SelectedProvider
	report.RemediationSteps = gate.RemediationSteps
}

func printDiagnosis(r diagnosisReport) {
	if flagDiagnosePretty {
		fmt.Println("librarian diagnosis")
		fmt.Println("====================")
	}
	fmt.Printf("workspace:  %s\n", r.Workspace)
	fmt.Printf("config:     %s\n", okOrIssue(r.ConfigValid, r.ConfigIssue))
	fmt.Printf("bootstrap:  %s\n", okOrIssue(!r.BootstrapRequired, r.BootstrapReason))
	fmt.Printf("providers:  %s (%s)\n", okOrIssue(r.ProvidersReady, ""), r.SelectedProvider)
	for _, step := range r.RemediationSteps {
		fmt.Printf("  remediation: %s\n", sanitizeOut(step))
	}
	for _, h := range r.Healed {
		fmt.Printf("  healed: %s\n", h)
	}
}

func okOrIssue(ok bool, issue string) string {
	if ok {
		return "ok"
	}
	if issue == "" {
		return "needs attention"
	}
	return sanitizeOut(issue)
}
