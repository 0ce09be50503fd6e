// Package analyzer extracts structural information from Python source files
// using tree-sitter: functions, classes, imports, and docstrings. The output
// feeds the chunker, which turns it into retrievable fragments.
package analyzer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// FunctionInfo describes a single function or method definition. Methods are
// surfaced here too, independent of their class, because the whole syntax
// tree is walked rather than just the top level.
type FunctionInfo struct {
	Name      string
	Params    []string
	Docstring string
	Line      int // 1-based line of the def keyword
	IsAsync   bool
}

// ClassInfo describes a class definition with its direct methods.
type ClassInfo struct {
	Name      string
	Bases     []string
	Methods   []string
	Docstring string
	Line      int
}

// FileAnalysis is the parsed shape of one source file. Source keeps the full
// original text so fragments can later be cut out by line range.
type FileAnalysis struct {
	Path            string
	Functions       []FunctionInfo
	Classes         []ClassInfo
	Imports         []string
	ModuleDocstring string
	Source          string
}

// ProjectAnalysis aggregates the analyses of every file that parsed cleanly.
type ProjectAnalysis struct {
	Path           string
	Name           string
	Files          []FileAnalysis
	FileCount      int
	AllImports     []string
	TotalFunctions int
	TotalClasses   int
}

// SyntaxError marks a file whose syntax tree contains parse errors. It is the
// only recoverable failure at this layer: project scans skip such files and
// keep going.
type SyntaxError struct {
	Path string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error in %s", e.Path)
}

// skipDirs are environment-specific directory names excluded from project
// enumeration.
var skipDirs = map[string]bool{
	".venv":         true,
	"venv":          true,
	"__pycache__":   true,
	".git":          true,
	".hg":           true,
	".svn":          true,
	"node_modules":  true,
	".idea":         true,
	".pytest_cache": true,
	".tox":          true,
	".mypy_cache":   true,
}

// AnalyzeFile reads and parses a single Python file. On a parse error it
// returns a *SyntaxError instead of a partial result.
func AnalyzeFile(path string) (*FileAnalysis, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return AnalyzeSource(path, src)
}

// AnalyzeSource parses Python source held in memory. The path is recorded in
// the result but not touched on disk.
func AnalyzeSource(path string, src []byte) (*FileAnalysis, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, &SyntaxError{Path: path}
	}

	fa := &FileAnalysis{
		Path:            path,
		ModuleDocstring: moduleDocstring(root, src),
		Source:          string(src),
	}

	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "function_definition":
			fa.Functions = append(fa.Functions, extractFunction(n, src))
		case "class_definition":
			fa.Classes = append(fa.Classes, extractClass(n, src))
		case "import_statement", "import_from_statement":
			fa.Imports = append(fa.Imports, extractImports(n, src)...)
		}
	})

	return fa, nil
}

// AnalyzeProject recursively analyzes every .py file under root, dropping
// files that fail to parse. Aggregate counts cover only the surviving files.
func AnalyzeProject(root string) (*ProjectAnalysis, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []FileAnalysis
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			if path != absRoot && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".py" {
			return nil
		}
		fa, err := AnalyzeFile(path)
		if err != nil {
			return nil // parse and read failures drop the file silently
		}
		files = append(files, *fa)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", absRoot, err)
	}

	pa := &ProjectAnalysis{
		Path:      absRoot,
		Name:      filepath.Base(absRoot),
		Files:     files,
		FileCount: len(files),
	}

	seen := make(map[string]bool)
	for _, f := range files {
		pa.TotalFunctions += len(f.Functions)
		pa.TotalClasses += len(f.Classes)
		for _, imp := range f.Imports {
			if !seen[imp] {
				seen[imp] = true
				pa.AllImports = append(pa.AllImports, imp)
			}
		}
	}

	return pa, nil
}

// walk visits every named node in preorder, so definitions appear in
// declaration order.
func walk(n *sitter.Node, visit func(*sitter.Node)) {
	visit(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), visit)
	}
}

func extractFunction(n *sitter.Node, src []byte) FunctionInfo {
	fi := FunctionInfo{
		Line:    int(n.StartPoint().Row) + 1,
		IsAsync: n.Child(0) != nil && n.Child(0).Type() == "async",
	}
	if name := n.ChildByFieldName("name"); name != nil {
		fi.Name = name.Content(src)
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
	params:
		for i := 0; i < int(params.NamedChildCount()); i++ {
			child := params.NamedChild(i)
			switch child.Type() {
			case "list_splat_pattern", "dictionary_splat_pattern", "keyword_separator":
				// Splats and keyword-only parameters are not listed.
				break params
			case "positional_separator":
				// Parameters before a bare / are positional-only and
				// not listed either.
				fi.Params = fi.Params[:0]
				continue
			}
			if p := paramName(child, src); p != "" {
				fi.Params = append(fi.Params, p)
			}
		}
	}
	fi.Docstring = bodyDocstring(n, src)
	return fi
}

// paramName resolves the bare identifier for a parameter node, covering
// typed and defaulted forms.
func paramName(n *sitter.Node, src []byte) string {
	switch n.Type() {
	case "identifier":
		return n.Content(src)
	case "default_parameter", "typed_default_parameter":
		if name := n.ChildByFieldName("name"); name != nil {
			return paramName(name, src)
		}
	case "typed_parameter":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if p := paramName(n.NamedChild(i), src); p != "" {
				return p
			}
		}
	}
	return ""
}

func extractClass(n *sitter.Node, src []byte) ClassInfo {
	ci := ClassInfo{
		Line: int(n.StartPoint().Row) + 1,
	}
	if name := n.ChildByFieldName("name"); name != nil {
		ci.Name = name.Content(src)
	}
	if supers := n.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.NamedChildCount()); i++ {
			base := supers.NamedChild(i)
			switch base.Type() {
			case "identifier", "attribute":
				ci.Bases = append(ci.Bases, base.Content(src))
			}
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			child := body.NamedChild(i)
			if child.Type() == "decorated_definition" {
				child = child.ChildByFieldName("definition")
				if child == nil {
					continue
				}
			}
			if child.Type() == "function_definition" {
				if name := child.ChildByFieldName("name"); name != nil {
					ci.Methods = append(ci.Methods, name.Content(src))
				}
			}
		}
	}
	ci.Docstring = bodyDocstring(n, src)
	return ci
}

// extractImports renders import statements as flat identifiers. From-style
// imports become "module.name"; the module is omitted when a relative import
// names no module.
func extractImports(n *sitter.Node, src []byte) []string {
	var imports []string

	if n.Type() == "import_statement" {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "dotted_name":
				imports = append(imports, child.Content(src))
			case "aliased_import":
				if name := child.ChildByFieldName("name"); name != nil {
					imports = append(imports, name.Content(src))
				}
			}
		}
		return imports
	}

	// import_from_statement
	module := ""
	if mod := n.ChildByFieldName("module_name"); mod != nil {
		switch mod.Type() {
		case "dotted_name":
			module = mod.Content(src)
		case "relative_import":
			// "from .pkg import x" keeps pkg; "from . import x" has none.
			for i := 0; i < int(mod.NamedChildCount()); i++ {
				if mod.NamedChild(i).Type() == "dotted_name" {
					module = mod.NamedChild(i).Content(src)
				}
			}
		}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		var name string
		switch child.Type() {
		case "wildcard_import":
			name = "*"
		case "aliased_import":
			if nn := child.ChildByFieldName("name"); nn != nil {
				name = nn.Content(src)
			}
		case "dotted_name":
			if mod := n.ChildByFieldName("module_name"); mod != nil && mod.Equal(child) {
				continue
			}
			name = child.Content(src)
		}
		if name == "" {
			continue
		}
		if module != "" {
			imports = append(imports, module+"."+name)
		} else {
			imports = append(imports, name)
		}
	}
	return imports
}

// moduleDocstring returns the module-level docstring, or "".
func moduleDocstring(root *sitter.Node, src []byte) string {
	return docstringFrom(firstStatement(root), src)
}

// bodyDocstring returns the docstring of a function or class body, or "".
func bodyDocstring(def *sitter.Node, src []byte) string {
	return docstringFrom(firstStatement(def.ChildByFieldName("body")), src)
}

// firstStatement returns the first named child that is not a comment.
// tree-sitter surfaces comments as named nodes, so a shebang or license
// header would otherwise mask the docstring behind it.
func firstStatement(parent *sitter.Node) *sitter.Node {
	if parent == nil {
		return nil
	}
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		if child := parent.NamedChild(i); child.Type() != "comment" {
			return child
		}
	}
	return nil
}

func docstringFrom(stmt *sitter.Node, src []byte) string {
	if stmt == nil || stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
		return ""
	}
	str := stmt.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	return cleanDoc(stripStringLiteral(str.Content(src)))
}

// stripStringLiteral removes string prefixes (r, b, u, f) and quote
// delimiters from a Python string literal.
func stripStringLiteral(raw string) string {
	s := strings.TrimLeft(raw, "rbufRBUF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

// cleanDoc trims a docstring and removes the common indentation of its
// continuation lines, matching how Python presents docstrings.
func cleanDoc(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) == 1 {
		return strings.TrimSpace(s)
	}

	minIndent := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}

	out := []string{strings.TrimSpace(lines[0])}
	for _, line := range lines[1:] {
		if minIndent > 0 && len(line) >= minIndent {
			line = line[minIndent:]
		}
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
