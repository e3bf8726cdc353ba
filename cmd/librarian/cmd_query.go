package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"librarian/internal/errs"
	"librarian/internal/query"
)

var (
	flagQueryStrategy  string
	flagQueryLimit     int
	flagQuerySession   string
	flagQueryDrillDown string
	flagQueryFiles     string
)

var queryCmd = &cobra.Command{
	Use:   "query <intent>",
	Short: "Run the query pipeline for an intent",
	Long: `Classifies the intent, retrieves and ranks Context Packs, optionally
synthesizes a natural-language answer, and returns the result (spec §4.4).`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&flagQueryStrategy, "strategy", "auto", "heuristic|semantic|auto")
	queryCmd.Flags().IntVar(&flagQueryLimit, "limit", 0, "maximum packs to return (default: config default_limit)")
	queryCmd.Flags().StringVar(&flagQuerySession, "session", "", "new|<id>: persist this query under a session")
	queryCmd.Flags().StringVar(&flagQueryDrillDown, "drill-down", "", "follow up on a previously surfaced path instead of the positional intent")
	queryCmd.Flags().StringVar(&flagQueryFiles, "files", "", "comma-separated affected files, for proximity ranking")
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := checkOutRequiresJSON(); err != nil {
		return err
	}

	llmReq, embedReq, err := strategyRequirements(flagQueryStrategy)
	if err != nil {
		return err
	}

	intent := args[0]
	if flagQueryDrillDown != "" {
		intent = query.DrillDownIntent(flagQueryDrillDown)
	}

	session := flagQuerySession
	if session == "new" {
		session = uuid.New().String()
	}

	e, err := resolveEnv()
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	timeoutMs := e.cfg.Query.DefaultTimeoutMs
	ctx, cancel := context.WithTimeout(cmdCtx(cmd), time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	p := e.pipeline(st)
	resp, err := p.Run(ctx, query.Request{
		Intent:               intent,
		Depth:                query.DepthL1,
		AffectedFiles:        splitCSV(flagQueryFiles),
		LLMRequirement:       llmReq,
		EmbeddingRequirement: embedReq,
		Limit:                flagQueryLimit,
		Session:              session,
		AutoBootstrap:        !flagNoBootstrap,
	})
	if ctx.Err() == context.DeadlineExceeded {
		return errs.Wrap(errs.Timeout, ctx.Err(), "query timed out")
	}
	if err != nil {
		return err
	}

	if flagJSON {
		return writeJSON(resp)
	}

	fmt.Printf("Mode: %s (confidence %.2f, %dms)\n", resp.Mode, resp.TotalConfidence, resp.LatencyMs)
	if resp.Synthesis != "" {
		fmt.Println()
		fmt.Println(sanitizeOut(resp.Synthesis))
	}
	fmt.Println()
	for _, pk := range resp.Packs {
		fmt.Printf("- [%s] %s: %s\n", pk.PackType, pk.TargetID, sanitizeOut(pk.Summary))
	}
	for _, w := range resp.Warnings {
		fmt.Printf("warning (%s): %s\n", w.Severity, sanitizeOut(w.Message))
	}
	return nil
}

func strategyRequirements(strategy string) (query.Requirement, query.Requirement, error) {
	switch strategy {
	case "", "auto":
		return query.Optional, query.Optional, nil
	case "heuristic":
		return query.Disabled, query.Disabled, nil
	case "semantic":
		return query.Optional, query.Required, nil
	default:
		return "", "", errs.Newf(errs.InvalidArgument, "unknown --strategy %q: want heuristic|semantic|auto", strategy)
	}
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
