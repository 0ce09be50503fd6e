package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"shelf/internal/analyzer"
	"shelf/internal/chunker"
)

const systemPrompt = "You are a technical documentation expert. Generate clear, concise README files for Python projects."

// retrievalQuery is the fixed query used to pull the most relevant chunks.
// It is deliberately independent of project content.
const retrievalQuery = "main functionality entry point purpose usage"

const (
	maxContextChunks  = 5
	maxKeyImports     = 10
	collectionNameMax = 63
)

// ReadmeGenerator drives the RAG pipeline: index chunks, retrieve the most
// relevant ones, and ask the generator for a README. All external systems
// are injected through the port interfaces; no adapter types appear here.
type ReadmeGenerator struct {
	llm      Generator
	embedder Embedder
	store    VectorStore
}

// NewReadmeGenerator wires the three ports into a pipeline.
func NewReadmeGenerator(llm Generator, embedder Embedder, store VectorStore) *ReadmeGenerator {
	return &ReadmeGenerator{
		llm:      llm,
		embedder: embedder,
		store:    store,
	}
}

// GenerateReadme runs the full pipeline for one project. A project with no
// chunks short-circuits to a templated result without touching any port.
// Port errors propagate to the caller; there are no retries and no partial
// results.
func (g *ReadmeGenerator) GenerateReadme(ctx context.Context, project *analyzer.ProjectAnalysis, chunks []chunker.Chunk) (string, error) {
	if len(chunks) == 0 {
		return emptyProjectReadme(project), nil
	}

	col, err := g.store.CreateCollection(ctx, CollectionName(project.Name))
	if err != nil {
		return "", fmt.Errorf("create collection: %w", err)
	}

	if err := g.indexChunks(ctx, col, chunks); err != nil {
		return "", err
	}
	log.Debug().Int("chunks", len(chunks)).Str("collection", col.Name()).Msg("indexed project chunks")

	summary := projectSummary(project)

	n := maxContextChunks
	if len(chunks) < n {
		n = len(chunks)
	}
	queryVec, err := g.embedder.Embed(ctx, retrievalQuery)
	if err != nil {
		return "", fmt.Errorf("embed retrieval query: %w", err)
	}
	docs, err := g.store.Query(ctx, col, queryVec, n)
	if err != nil {
		return "", fmt.Errorf("query collection: %w", err)
	}
	log.Debug().Int("retrieved", len(docs)).Msg("retrieved context chunks")

	return g.llm.Generate(ctx, systemPrompt, readmePrompt(summary, docs), GenerateOptions{
		Temperature: 0.3,
		NumPredict:  1000,
	})
}

// CollectionName derives the vector store collection name for a project:
// lower-case, with hyphens and dots replaced by underscores, capped at 63
// characters. The same project always maps to the same collection, which
// one run at a time owns destructively.
func CollectionName(projectName string) string {
	name := strings.ToLower(projectName)
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, ".", "_")
	if r := []rune(name); len(r) > collectionNameMax {
		name = string(r[:collectionNameMax])
	}
	return name
}

// indexChunks embeds every chunk in sequence order and issues a single
// AddChunks call with the accumulated parallel arrays.
func (g *ReadmeGenerator) indexChunks(ctx context.Context, col Collection, chunks []chunker.Chunk) error {
	documents := make([]string, 0, len(chunks))
	embeddings := make([][]float32, 0, len(chunks))
	metadatas := make([]map[string]any, 0, len(chunks))
	ids := make([]string, 0, len(chunks))

	for i, c := range chunks {
		vec, err := g.embedder.Embed(ctx, c.Content)
		if err != nil {
			return fmt.Errorf("embed chunk %d: %w", i, err)
		}

		name := c.Name
		if name == "" {
			name = "module"
		}

		documents = append(documents, c.Content)
		embeddings = append(embeddings, vec)
		metadatas = append(metadatas, map[string]any{
			"chunk_type": string(c.Kind),
			"filepath":   c.FilePath,
			"name":       name,
		})
		ids = append(ids, fmt.Sprintf("chunk_%d", i))
	}

	if err := g.store.AddChunks(ctx, col, documents, embeddings, metadatas, ids); err != nil {
		return fmt.Errorf("add chunks: %w", err)
	}
	return nil
}

// projectSummary builds the structured header block fed to the generator
// alongside the retrieved chunks.
func projectSummary(project *analyzer.ProjectAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", project.Name)
	fmt.Fprintf(&b, "Files: %d\n", project.FileCount)
	fmt.Fprintf(&b, "Functions: %d\n", project.TotalFunctions)
	fmt.Fprintf(&b, "Classes: %d\n", project.TotalClasses)

	var key []string
	for _, imp := range project.AllImports {
		if strings.HasPrefix(imp, "_") || strings.Contains(imp, ".") {
			continue
		}
		key = append(key, imp)
		if len(key) == maxKeyImports {
			break
		}
	}
	if len(key) > 0 {
		fmt.Fprintf(&b, "Key dependencies: %s\n", strings.Join(key, ", "))
	}

	return b.String()
}

func readmePrompt(summary string, contextChunks []string) string {
	var components strings.Builder
	for i, chunk := range contextChunks {
		if i > 0 {
			components.WriteByte('\n')
		}
		fmt.Fprintf(&components, "--- Component %d ---\n%s", i+1, chunk)
	}

	return fmt.Sprintf(`Based on the following Python project information, generate a README.md file.

PROJECT SUMMARY:
%s

KEY CODE COMPONENTS:
%s

Generate a README with these sections:
1. Project title and brief description (1-2 sentences)
2. Purpose - What problem does this solve?
3. Features - Key capabilities (bullet points)
4. Installation - How to set it up
5. Usage - Basic usage example with code
6. Requirements - Main dependencies

Keep it concise and practical. Focus on what users need to know to understand and use the project.
`, summary, components.String())
}

func emptyProjectReadme(project *analyzer.ProjectAnalysis) string {
	return fmt.Sprintf(`# %s

This project currently has no Python files.

## Getting Started

Add Python files to this project to get started.
`, project.Name)
}
