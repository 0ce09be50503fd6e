// Package chunker turns analyzed source files into flat sequences of
// retrievable text fragments at module, function, and class granularity.
//
// Fragment bodies are cut with fixed line windows (20 lines for functions,
// 30 for classes) from the declaration line. This is a heuristic, not a
// parser: long definitions are truncated and short ones may bleed into the
// following definition. The window sizes are part of the chunk format and
// retrieval behavior downstream was tuned against them.
package chunker

import (
	"fmt"
	"path/filepath"
	"strings"

	"shelf/internal/analyzer"
)

// Kind classifies a chunk by the construct it was cut from.
type Kind string

const (
	KindModule   Kind = "module"
	KindFunction Kind = "function"
	KindClass    Kind = "class"
)

const (
	functionWindow = 20
	classWindow    = 30
	maxImportLines = 10
)

// Chunk is one retrievable fragment with its metadata.
type Chunk struct {
	Kind     Kind
	FilePath string
	Name     string // empty for module chunks
	Content  string
	Metadata map[string]any
}

// ChunkFile produces the chunks for one analyzed file: an optional module
// chunk (only when a docstring or imports exist), then function chunks in
// declaration order, then class chunks in declaration order.
func ChunkFile(fa *analyzer.FileAnalysis) []Chunk {
	var chunks []Chunk

	if fa.ModuleDocstring != "" || len(fa.Imports) > 0 {
		chunks = append(chunks, Chunk{
			Kind:     KindModule,
			FilePath: fa.Path,
			Content:  moduleContent(fa),
			Metadata: map[string]any{
				"type":    string(KindModule),
				"imports": fa.Imports,
			},
		})
	}

	lines := strings.Split(fa.Source, "\n")

	for _, fn := range fa.Functions {
		chunks = append(chunks, Chunk{
			Kind:     KindFunction,
			FilePath: fa.Path,
			Name:     fn.Name,
			Content:  functionContent(lines, fn),
			Metadata: map[string]any{
				"type":      string(KindFunction),
				"name":      fn.Name,
				"args":      fn.Params,
				"docstring": fn.Docstring,
			},
		})
	}

	for _, cls := range fa.Classes {
		chunks = append(chunks, Chunk{
			Kind:     KindClass,
			FilePath: fa.Path,
			Name:     cls.Name,
			Content:  classContent(lines, cls),
			Metadata: map[string]any{
				"type":      string(KindClass),
				"name":      cls.Name,
				"methods":   cls.Methods,
				"bases":     cls.Bases,
				"docstring": cls.Docstring,
			},
		})
	}

	return chunks
}

// ChunkProject concatenates ChunkFile results over all files in project
// order. The returned flat list is the sole artifact handed to the RAG
// pipeline.
func ChunkProject(pa *analyzer.ProjectAnalysis) []Chunk {
	var all []Chunk
	for i := range pa.Files {
		all = append(all, ChunkFile(&pa.Files[i])...)
	}
	return all
}

// moduleContent summarizes a module: file header, docstring, and up to the
// first ten imports. Deliberately bounded to keep embedding input small.
func moduleContent(fa *analyzer.FileAnalysis) string {
	var parts []string

	if fa.ModuleDocstring != "" {
		parts = append(parts,
			fmt.Sprintf(`"""Module: %s`, filepath.Base(fa.Path)),
			fa.ModuleDocstring,
			`"""`,
		)
	}

	if len(fa.Imports) > 0 {
		parts = append(parts, "\n# Imports:")
		imports := fa.Imports
		if len(imports) > maxImportLines {
			imports = imports[:maxImportLines]
		}
		parts = append(parts, imports...)
	}

	return strings.Join(parts, "\n")
}

func functionContent(lines []string, fn analyzer.FunctionInfo) string {
	header := fmt.Sprintf("# Function: %s(%s)\n", fn.Name, strings.Join(fn.Params, ", "))
	return header + strings.Join(window(lines, fn.Line, functionWindow), "\n")
}

func classContent(lines []string, cls analyzer.ClassInfo) string {
	header := fmt.Sprintf("# Class: %s", cls.Name)
	if len(cls.Bases) > 0 {
		header += fmt.Sprintf(" (inherits from: %s)", strings.Join(cls.Bases, ", "))
	}
	header += fmt.Sprintf("\n# Methods: %s\n", strings.Join(cls.Methods, ", "))
	return header + strings.Join(window(lines, cls.Line, classWindow), "\n")
}

// window returns up to size lines starting at the 1-based line number,
// clipped to end of file.
func window(lines []string, line, size int) []string {
	start := line - 1
	if start < 0 {
		start = 0
	}
	if start > len(lines) {
		start = len(lines)
	}
	end := start + size
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start:end]
}
