package agent

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"librarian/internal/store"
)

// Frame shapes recognized across common stack-trace formats (spec §4.7
// "Incident attribution"): dotted traces (at pkg.Func(file.go:12)), Python's
// `File "<path>", line N, in <sym>`, and bare `path:line`.
var (
	dottedFrameRe = regexp.MustCompile(`\bat\s+([\w.$]+)\(([^():]+):(\d+)\)`)
	pythonFrameRe = regexp.MustCompile(`File\s+"([^"]+)",\s+line\s+(\d+),\s+in\s+(\S+)`)
	barePathLineRe = regexp.MustCompile(`(?m)^\s*([\w./\\-]+):(\d+)\s*$`)
)

// rejectedSchemes are path prefixes that never resolve to a workspace
// file (spec §4.7: "reject URLs, node: schemes").
var rejectedSchemes = []string{"http://", "https://", "node:", "file://"}

func isRejectedPath(p string) bool {
	for _, scheme := range rejectedSchemes {
		if strings.HasPrefix(p, scheme) {
			return true
		}
	}
	return false
}

// ParseStackTrace extracts Frames from a multi-line stack trace string
// using whichever format patterns match (spec §4.7).
func ParseStackTrace(trace string) []Frame {
	var out []Frame
	for _, m := range dottedFrameRe.FindAllStringSubmatch(trace, -1) {
		line, _ := strconv.Atoi(m[3])
		out = append(out, Frame{Raw: m[0], File: m[2], Line: line, Sym: m[1]})
	}
	for _, m := range pythonFrameRe.FindAllStringSubmatch(trace, -1) {
		line, _ := strconv.Atoi(m[2])
		out = append(out, Frame{Raw: m[0], File: m[1], Line: line, Sym: m[3]})
	}
	for _, m := range barePathLineRe.FindAllStringSubmatch(trace, -1) {
		line, _ := strconv.Atoi(m[2])
		out = append(out, Frame{Raw: m[0], File: m[1], Line: line})
	}
	return out
}

// AttributeIncident resolves each parsed Frame to the functions in st
// whose start/end lines straddle the frame's line, normalizing each
// frame's file path against workspace (spec §4.7).
func AttributeIncident(st *store.Store, workspace, trace string) IncidentReport {
	frames := ParseStackTrace(trace)
	report := IncidentReport{}
	seen := map[string]bool{}

	for _, f := range frames {
		if isRejectedPath(f.File) {
			continue
		}
		rel := normalizeFramePath(workspace, f.File)
		if rel == "" {
			continue
		}

		funcs, err := st.GetFunctionsByPath(rel)
		if err != nil {
			continue
		}

		var ids []string
		for _, fn := range funcs {
			if f.Line >= fn.StartLine && f.Line <= fn.EndLine {
				ids = append(ids, fn.ID)
				if !seen[fn.ID] {
					seen[fn.ID] = true
					report.FunctionIDs = append(report.FunctionIDs, fn.ID)
				}
			}
		}
		report.Frames = append(report.Frames, FrameAttribution{Frame: f, FunctionIDs: ids})
	}

	sort.Strings(report.FunctionIDs)
	return report
}

func normalizeFramePath(workspace, p string) string {
	p = filepath.ToSlash(p)
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(workspace, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			return ""
		}
		return filepath.ToSlash(rel)
	}
	return strings.TrimPrefix(p, "./")
}
