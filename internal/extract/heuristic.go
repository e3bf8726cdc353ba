package extract

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
)

// heuristicExtractor is the line-oriented fallback extractor (§11.1 of
// SPEC_FULL.md) for recognized extensions without a bound tree-sitter
// grammar. Grounded on the teacher's DetectCodePatterns heuristics
// (internal/world/parser_factory.go), it trades precision for breadth:
// facts it emits carry a lower implied confidence than AST-backed ones,
// tracked by callers via the Function.confidence field (spec §3), not here.
type heuristicExtractor struct {
	lang    string
	exts    []string
	funcRe  *regexp.Regexp
	classRe *regexp.Regexp
	implRe  *regexp.Regexp
}

func (h *heuristicExtractor) SupportedExtensions() []string { return h.exts }
func (h *heuristicExtractor) Language() string               { return h.lang }

func (h *heuristicExtractor) Extract(path string, content []byte) ([]StructuralFact, []Finding, error) {
	var facts []StructuralFact
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		trimmed := strings.TrimSpace(text)
		if h.funcRe != nil {
			if m := h.funcRe.FindStringSubmatch(trimmed); m != nil {
				name := lastNonEmpty(m)
				if ValidIdentifier(name) {
					facts = append(facts, StructuralFact{
						Kind:       FactFunctionDef,
						Identifier: name,
						Line:       line,
					})
				}
			}
		}
		if h.classRe != nil {
			if m := h.classRe.FindStringSubmatch(trimmed); m != nil {
				name := lastNonEmpty(m)
				if ValidIdentifier(name) {
					facts = append(facts, StructuralFact{
						Kind:       FactClass,
						Identifier: name,
						Line:       line,
					})
				}
			}
		}
		if h.implRe != nil {
			if m := h.implRe.FindStringSubmatch(trimmed); m != nil {
				target := lastNonEmpty(m)
				if target != "" {
					facts = append(facts, StructuralFact{
						Kind:       FactImport,
						Identifier: target,
						Line:       line,
						Details:    Details{Target: target},
					})
				}
			}
		}
	}
	return facts, nil, scanner.Err()
}

func lastNonEmpty(m []string) string {
	for i := len(m) - 1; i >= 1; i-- {
		if m[i] != "" {
			return m[i]
		}
	}
	return ""
}

// newHeuristicExtractors returns the fallback extractors covering the
// remainder of spec §4.1's recognized extension list: Java/Kotlin,
// C/C++/H, C#, Ruby, PHP, Swift, Scala, Dart, Lua, shells, SQL, HTML, CSS.
func newHeuristicExtractors() []Extractor {
	return []Extractor{
		&heuristicExtractor{
			lang: "java", exts: []string{".java", ".kt"},
			funcRe:  regexp.MustCompile(`(?:public|private|protected|static|fun)\s+[\w<>\[\],\s]*?\b(\w+)\s*\(`),
			classRe: regexp.MustCompile(`(?:class|interface|object)\s+(\w+)`),
			implRe:  regexp.MustCompile(`^import\s+([\w.]+)`),
		},
		&heuristicExtractor{
			lang: "c", exts: []string{".c", ".h", ".cpp", ".cc", ".hpp", ".cxx"},
			funcRe:  regexp.MustCompile(`^[\w:\*&<>, ]+\s+(\w+)\s*\([^;]*\)\s*\{?\s*$`),
			classRe: regexp.MustCompile(`(?:class|struct)\s+(\w+)`),
			implRe:  regexp.MustCompile(`^#include\s*[<"]([^>"]+)[>"]`),
		},
		&heuristicExtractor{
			lang: "csharp", exts: []string{".cs"},
			funcRe:  regexp.MustCompile(`(?:public|private|protected|internal|static)\s+[\w<>\[\],\s]*?\b(\w+)\s*\(`),
			classRe: regexp.MustCompile(`(?:class|interface|struct)\s+(\w+)`),
			implRe:  regexp.MustCompile(`^using\s+([\w.]+)`),
		},
		&heuristicExtractor{
			lang: "ruby", exts: []string{".rb"},
			funcRe:  regexp.MustCompile(`^def\s+(?:self\.)?(\w+[?!]?)`),
			classRe: regexp.MustCompile(`^(?:class|module)\s+(\w+)`),
			implRe:  regexp.MustCompile(`^require(?:_relative)?\s+['"]([^'"]+)['"]`),
		},
		&heuristicExtractor{
			lang: "php", exts: []string{".php"},
			funcRe:  regexp.MustCompile(`function\s+(\w+)\s*\(`),
			classRe: regexp.MustCompile(`(?:class|interface|trait)\s+(\w+)`),
			implRe:  regexp.MustCompile(`^use\s+([\w\\]+)`),
		},
		&heuristicExtractor{
			lang: "swift", exts: []string{".swift"},
			funcRe:  regexp.MustCompile(`func\s+(\w+)\s*\(`),
			classRe: regexp.MustCompile(`(?:class|struct|enum|protocol)\s+(\w+)`),
			implRe:  regexp.MustCompile(`^import\s+(\w+)`),
		},
		&heuristicExtractor{
			lang: "scala", exts: []string{".scala"},
			funcRe:  regexp.MustCompile(`def\s+(\w+)\s*[\(:]`),
			classRe: regexp.MustCompile(`(?:class|object|trait)\s+(\w+)`),
			implRe:  regexp.MustCompile(`^import\s+([\w.]+)`),
		},
		&heuristicExtractor{
			lang: "dart", exts: []string{".dart"},
			funcRe:  regexp.MustCompile(`[\w<>]+\s+(\w+)\s*\([^)]*\)\s*(?:async)?\s*\{?\s*$`),
			classRe: regexp.MustCompile(`class\s+(\w+)`),
			implRe:  regexp.MustCompile(`^import\s+['"]([^'"]+)['"]`),
		},
		&heuristicExtractor{
			lang: "lua", exts: []string{".lua"},
			funcRe:  regexp.MustCompile(`function\s+([\w.:]+)\s*\(`),
			classRe: nil,
			implRe:  regexp.MustCompile(`^(?:local\s+)?\w+\s*=\s*require\s*\(?['"]([^'"]+)['"]`),
		},
		&heuristicExtractor{
			lang: "shell", exts: []string{".sh", ".bash", ".zsh"},
			funcRe:  regexp.MustCompile(`^(?:function\s+)?(\w+)\s*\(\)\s*\{?`),
			classRe: nil,
			implRe:  regexp.MustCompile(`^(?:source|\.)\s+(\S+)`),
		},
		&heuristicExtractor{
			lang: "sql", exts: []string{".sql"},
			funcRe:  regexp.MustCompile(`(?i)create\s+(?:or\s+replace\s+)?function\s+([\w."]+)`),
			classRe: regexp.MustCompile(`(?i)create\s+table\s+(?:if\s+not\s+exists\s+)?([\w."]+)`),
			implRe:  nil,
		},
		&heuristicExtractor{
			lang: "html", exts: []string{".html", ".htm"},
			funcRe:  nil,
			classRe: regexp.MustCompile(`id=["']([\w-]+)["']`),
			implRe:  regexp.MustCompile(`src=["']([^"']+)["']`),
		},
		&heuristicExtractor{
			lang: "css", exts: []string{".css", ".scss", ".less"},
			funcRe:  nil,
			classRe: regexp.MustCompile(`\.([\w-]+)\s*\{`),
			implRe:  regexp.MustCompile(`@import\s+["']([^"']+)["']`),
		},
	}
}
