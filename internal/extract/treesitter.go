package extract

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	tstypescript "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// walkFunc extracts facts from a parsed tree's root node.
type walkFunc func(root *sitter.Node, src []byte, path string) ([]StructuralFact, []Finding)

// treeSitterExtractor adapts a tree-sitter grammar plus a language-specific
// walk function to the Extractor interface, grounded on the teacher's
// TreeSitterParser (internal/world/ast_treesitter.go).
type treeSitterExtractor struct {
	lang string
	exts []string
	grm  *sitter.Language
	walk walkFunc
}

func (t *treeSitterExtractor) SupportedExtensions() []string { return t.exts }
func (t *treeSitterExtractor) Language() string               { return t.lang }

func (t *treeSitterExtractor) Extract(path string, content []byte) ([]StructuralFact, []Finding, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(t.grm)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, nil, err
	}
	defer tree.Close()

	facts, findings := t.walk(tree.RootNode(), content, path)
	return facts, findings, nil
}

// NewGoExtractor returns the Go tree-sitter extractor.
func NewGoExtractor() Extractor {
	return &treeSitterExtractor{lang: "go", exts: []string{".go"}, grm: golang.GetLanguage(), walk: walkGo}
}

// NewPythonExtractor returns the Python tree-sitter extractor.
func NewPythonExtractor() Extractor {
	return &treeSitterExtractor{lang: "python", exts: []string{".py"}, grm: python.GetLanguage(), walk: walkPython}
}

// NewJavaScriptExtractor returns the JavaScript tree-sitter extractor.
func NewJavaScriptExtractor() Extractor {
	return &treeSitterExtractor{lang: "javascript", exts: []string{".js", ".jsx", ".mjs", ".cjs"}, grm: javascript.GetLanguage(), walk: walkJS}
}

// NewTypeScriptExtractor returns the TypeScript tree-sitter extractor.
func NewTypeScriptExtractor() Extractor {
	return &treeSitterExtractor{lang: "typescript", exts: []string{".ts", ".tsx"}, grm: tstypescript.GetLanguage(), walk: walkJS}
}

// NewRustExtractor returns the Rust tree-sitter extractor.
func NewRustExtractor() Extractor {
	return &treeSitterExtractor{lang: "rust", exts: []string{".rs"}, grm: rust.GetLanguage(), walk: walkRust}
}

func text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(src)
}

func lineOf(n *sitter.Node) int {
	if n == nil {
		return 1
	}
	return int(n.StartPoint().Row) + 1
}

func endLineOf(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	return int(n.EndPoint().Row) + 1
}

// --- Go -----------------------------------------------------------------

func walkGo(root *sitter.Node, src []byte, path string) ([]StructuralFact, []Finding) {
	var facts []StructuralFact
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "function_declaration":
			nameNode := n.ChildByFieldName("name")
			name := text(nameNode, src)
			if ValidIdentifier(name) {
				facts = append(facts, StructuralFact{
					Kind:       FactFunctionDef,
					Identifier: name,
					Line:       lineOf(n),
					Details: Details{
						EndLine:    endLineOf(n),
						Params:     goParams(n.ChildByFieldName("parameters"), src),
						ReturnType: text(n.ChildByFieldName("result"), src),
						Exported:   isExportedGo(name),
					},
				})
			}
		case "method_declaration":
			nameNode := n.ChildByFieldName("name")
			name := text(nameNode, src)
			receiver := strings.TrimSpace(text(n.ChildByFieldName("receiver"), src))
			if ValidIdentifier(name) {
				facts = append(facts, StructuralFact{
					Kind:       FactFunctionDef,
					Identifier: name,
					Line:       lineOf(n),
					Details: Details{
						EndLine:    endLineOf(n),
						Params:     goParams(n.ChildByFieldName("parameters"), src),
						ReturnType: text(n.ChildByFieldName("result"), src),
						Receiver:   receiver,
						Exported:   isExportedGo(name),
					},
				})
			}
		case "type_declaration":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				spec := n.NamedChild(i)
				if spec == nil || spec.Type() != "type_spec" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				name := text(nameNode, src)
				typeNode := spec.ChildByFieldName("type")
				kind := FactType
				var methods []string
				if typeNode != nil && typeNode.Type() == "struct_type" {
					kind = FactClass
				} else if typeNode != nil && typeNode.Type() == "interface_type" {
					kind = FactClass
					methods = goInterfaceMethods(typeNode, src)
				}
				if ValidIdentifier(name) {
					facts = append(facts, StructuralFact{
						Kind:       kind,
						Identifier: name,
						Line:       lineOf(spec),
						Details: Details{
							EndLine:  endLineOf(spec),
							Methods:  methods,
							Exported: isExportedGo(name),
						},
					})
				}
			}
		case "import_spec":
			pathNode := n.ChildByFieldName("path")
			importPath := strings.Trim(text(pathNode, src), "\"")
			if importPath != "" {
				facts = append(facts, StructuralFact{
					Kind:       FactImport,
					Identifier: importPath,
					Line:       lineOf(n),
					Details:    Details{Target: importPath},
				})
			}
		case "call_expression":
			fn := n.ChildByFieldName("function")
			callee := lastSelector(text(fn, src))
			if ValidIdentifier(callee) {
				facts = append(facts, StructuralFact{
					Kind:       FactCall,
					Identifier: callee,
					Line:       lineOf(n),
					Details:    Details{Target: text(fn, src)},
				})
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return facts, nil
}

func goParams(n *sitter.Node, src []byte) []Param {
	if n == nil {
		return nil
	}
	var params []Param
	for i := 0; i < int(n.NamedChildCount()); i++ {
		decl := n.NamedChild(i)
		if decl == nil || decl.Type() != "parameter_declaration" {
			continue
		}
		typ := text(decl.ChildByFieldName("type"), src)
		nameNode := decl.ChildByFieldName("name")
		if nameNode != nil {
			params = append(params, Param{Name: text(nameNode, src), Type: typ})
		} else {
			params = append(params, Param{Type: typ})
		}
	}
	return params
}

func goInterfaceMethods(n *sitter.Node, src []byte) []string {
	var methods []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		m := n.NamedChild(i)
		if m == nil || m.Type() != "method_spec" {
			continue
		}
		methods = append(methods, strings.TrimSpace(text(m, src)))
	}
	return methods
}

func isExportedGo(name string) bool {
	return name != "" && strings.ToUpper(name[:1]) == name[:1]
}

func lastSelector(expr string) string {
	if idx := strings.LastIndex(expr, "."); idx >= 0 {
		return expr[idx+1:]
	}
	return expr
}

// --- Python ---------------------------------------------------------------

func walkPython(root *sitter.Node, src []byte, path string) ([]StructuralFact, []Finding) {
	var facts []StructuralFact
	var walk func(n *sitter.Node, parent string)
	walk = func(n *sitter.Node, parent string) {
		switch n.Type() {
		case "class_definition":
			nameNode := n.ChildByFieldName("name")
			name := text(nameNode, src)
			if ValidIdentifier(name) {
				facts = append(facts, StructuralFact{
					Kind:       FactClass,
					Identifier: name,
					Line:       lineOf(n),
					Details:    Details{EndLine: endLineOf(n)},
				})
			}
			for i := 0; i < int(n.NamedChildCount()); i++ {
				walk(n.NamedChild(i), name)
			}
			return
		case "function_definition":
			nameNode := n.ChildByFieldName("name")
			name := text(nameNode, src)
			isAsync := strings.HasPrefix(strings.TrimSpace(text(n, src)), "async")
			if ValidIdentifier(name) {
				facts = append(facts, StructuralFact{
					Kind:       FactFunctionDef,
					Identifier: name,
					Line:       lineOf(n),
					Details: Details{
						EndLine:  endLineOf(n),
						Params:   pythonParams(n.ChildByFieldName("parameters"), src),
						Async:    isAsync,
						Receiver: parent,
						Exported: !strings.HasPrefix(name, "_"),
					},
				})
			}
		case "import_statement", "import_from_statement":
			name := strings.TrimSpace(text(n, src))
			if name != "" {
				facts = append(facts, StructuralFact{
					Kind:       FactImport,
					Identifier: name,
					Line:       lineOf(n),
					Details:    Details{Target: name},
				})
			}
		case "call":
			fn := n.ChildByFieldName("function")
			callee := lastSelector(text(fn, src))
			if ValidIdentifier(callee) {
				facts = append(facts, StructuralFact{
					Kind:       FactCall,
					Identifier: callee,
					Line:       lineOf(n),
					Details:    Details{Target: text(fn, src)},
				})
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i), parent)
		}
	}
	walk(root, "")
	return facts, nil
}

func pythonParams(n *sitter.Node, src []byte) []Param {
	if n == nil {
		return nil
	}
	var params []Param
	for i := 0; i < int(n.NamedChildCount()); i++ {
		p := n.NamedChild(i)
		if p == nil {
			continue
		}
		switch p.Type() {
		case "identifier":
			params = append(params, Param{Name: text(p, src)})
		case "typed_parameter":
			params = append(params, Param{Name: text(p.NamedChild(0), src), Type: text(p.ChildByFieldName("type"), src)})
		case "default_parameter", "typed_default_parameter":
			params = append(params, Param{Name: text(p.ChildByFieldName("name"), src), Type: text(p.ChildByFieldName("type"), src)})
		}
	}
	return params
}

// --- JavaScript / TypeScript ------------------------------------------------

func walkJS(root *sitter.Node, src []byte, path string) ([]StructuralFact, []Finding) {
	var facts []StructuralFact
	var walk func(n *sitter.Node, exported bool)
	walk = func(n *sitter.Node, exported bool) {
		switch n.Type() {
		case "export_statement":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				walk(n.NamedChild(i), true)
			}
			facts = append(facts, StructuralFact{
				Kind:       FactExport,
				Identifier: strings.TrimSpace(firstLine(text(n, src))),
				Line:       lineOf(n),
				Details:    Details{Target: strings.TrimSpace(firstLine(text(n, src)))},
			})
			return
		case "class_declaration":
			nameNode := n.ChildByFieldName("name")
			name := text(nameNode, src)
			if ValidIdentifier(name) {
				facts = append(facts, StructuralFact{
					Kind:       FactClass,
					Identifier: name,
					Line:       lineOf(n),
					Details:    Details{EndLine: endLineOf(n), Exported: exported},
				})
			}
		case "function_declaration", "method_definition":
			nameNode := n.ChildByFieldName("name")
			name := text(nameNode, src)
			isAsync := strings.Contains(strings.TrimSpace(firstLine(text(n, src))), "async")
			if ValidIdentifier(name) {
				facts = append(facts, StructuralFact{
					Kind:       FactFunctionDef,
					Identifier: name,
					Line:       lineOf(n),
					Details: Details{
						EndLine:  endLineOf(n),
						Params:   jsParams(n.ChildByFieldName("parameters"), src),
						Async:    isAsync,
						Exported: exported,
					},
				})
			}
		case "import_statement":
			spec := strings.TrimSpace(text(n, src))
			target := jsImportSource(n, src)
			if target != "" {
				facts = append(facts, StructuralFact{
					Kind:       FactImport,
					Identifier: target,
					Line:       lineOf(n),
					Details:    Details{Target: target, Async: false},
				})
				_ = spec
			}
		case "call_expression":
			fn := n.ChildByFieldName("function")
			callee := lastSelector(text(fn, src))
			if ValidIdentifier(callee) {
				facts = append(facts, StructuralFact{
					Kind:       FactCall,
					Identifier: callee,
					Line:       lineOf(n),
					Details:    Details{Target: text(fn, src)},
				})
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i), exported)
		}
	}
	walk(root, false)
	return facts, nil
}

func jsParams(n *sitter.Node, src []byte) []Param {
	if n == nil {
		return nil
	}
	var params []Param
	for i := 0; i < int(n.NamedChildCount()); i++ {
		p := n.NamedChild(i)
		if p == nil {
			continue
		}
		params = append(params, Param{Name: strings.TrimSpace(text(p, src))})
	}
	return params
}

func jsImportSource(n *sitter.Node, src []byte) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c != nil && c.Type() == "string" {
			return strings.Trim(text(c, src), "\"'`")
		}
	}
	return ""
}

func firstLine(s string) string {
	if idx := strings.IndexAny(s, "\n{"); idx >= 0 {
		return s[:idx]
	}
	return s
}

// --- Rust -------------------------------------------------------------------

func walkRust(root *sitter.Node, src []byte, path string) ([]StructuralFact, []Finding) {
	var facts []StructuralFact
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "function_item":
			nameNode := n.ChildByFieldName("name")
			name := text(nameNode, src)
			if ValidIdentifier(name) {
				facts = append(facts, StructuralFact{
					Kind:       FactFunctionDef,
					Identifier: name,
					Line:       lineOf(n),
					Details: Details{
						EndLine:  endLineOf(n),
						Exported: rustIsPub(n, src),
					},
				})
			}
		case "struct_item", "enum_item", "trait_item":
			nameNode := n.ChildByFieldName("name")
			name := text(nameNode, src)
			if ValidIdentifier(name) {
				facts = append(facts, StructuralFact{
					Kind:       FactClass,
					Identifier: name,
					Line:       lineOf(n),
					Details:    Details{EndLine: endLineOf(n), Exported: rustIsPub(n, src)},
				})
			}
		case "use_declaration":
			arg := n.ChildByFieldName("argument")
			target := strings.TrimSpace(text(arg, src))
			if target != "" {
				facts = append(facts, StructuralFact{
					Kind:       FactImport,
					Identifier: target,
					Line:       lineOf(n),
					Details:    Details{Target: target},
				})
			}
		case "call_expression":
			fn := n.ChildByFieldName("function")
			callee := lastSelector(text(fn, src))
			if ValidIdentifier(callee) {
				facts = append(facts, StructuralFact{
					Kind:       FactCall,
					Identifier: callee,
					Line:       lineOf(n),
					Details:    Details{Target: text(fn, src)},
				})
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return facts, nil
}

func rustIsPub(n *sitter.Node, src []byte) bool {
	return strings.HasPrefix(strings.TrimSpace(firstLine(text(n, src))), "pub")
}
