package agent

import "strings"

var phaseKeywords = []struct {
	phase    Phase
	keywords []string
}{
	{PhaseDiscover, []string{"what does", "how does", "explain", "understand", "overview of"}},
	{PhaseInvestigate, []string{"why does", "debug", "investigate", "root cause", "reproduce"}},
	{PhaseImplement, []string{"add", "implement", "fix", "refactor", "build", "write"}},
	{PhaseVerify, []string{"test", "verify", "review", "check that", "confirm"}},
}

var verifyToolCalls = map[string]bool{
	"run_tests": true, "test": true, "lint": true, "build": true,
}

// detectPhase derives a task's lifecycle phase from its intent keywords
// and recent tool-call trace (spec §4.7). Recent tool calls take priority
// over intent text since they reflect what the agent is actually doing
// right now; intent keywords take priority over the caller-supplied
// previous phase, which is only a fallback.
func detectPhase(intent string, recentToolCalls []string, previousPhase Phase) Phase {
	for _, call := range recentToolCalls {
		if verifyToolCalls[strings.ToLower(call)] {
			return PhaseVerify
		}
	}

	lower := strings.ToLower(intent)
	for _, pk := range phaseKeywords {
		for _, kw := range pk.keywords {
			if strings.Contains(lower, kw) {
				return pk.phase
			}
		}
	}

	if previousPhase != "" {
		return previousPhase
	}
	return PhaseUnknown
}
