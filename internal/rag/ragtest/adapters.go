// Package ragtest provides in-process, deterministic implementations of the
// rag ports. They let the pipeline be exercised without a model server or a
// vector database, and they record their calls for inspection.
package ragtest

import (
	"context"
	"fmt"
	"hash/fnv"

	"shelf/internal/rag"
)

const defaultReadme = `# Test Project

## Description
A Python project for testing README generation.

## Installation
` + "```bash\npip install -e .\n```" + `

## Usage
` + "```python\nfrom test_project import main\nmain()\n```" + `

## Requirements
- Python >= 3.8
`

// GeneratorCall records the arguments of one Generate invocation.
type GeneratorCall struct {
	SystemPrompt string
	UserPrompt   string
	Options      rag.GenerateOptions
}

// Generator returns a canned response and records every call.
type Generator struct {
	Response string
	Calls    []GeneratorCall
}

// NewGenerator creates a canned-response generator. An empty response falls
// back to a small stock README.
func NewGenerator(response string) *Generator {
	if response == "" {
		response = defaultReadme
	}
	return &Generator{Response: response}
}

func (g *Generator) Generate(_ context.Context, systemPrompt, userPrompt string, opts rag.GenerateOptions) (string, error) {
	g.Calls = append(g.Calls, GeneratorCall{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Options:      opts,
	})
	return g.Response, nil
}

// CallCount reports how many times Generate was invoked.
func (g *Generator) CallCount() int { return len(g.Calls) }

// Embedder derives a reproducible vector from a hash of the input text:
// the same text always yields the same vector within one instance. It
// performs no semantic embedding at all.
type Embedder struct {
	Dim   int
	Texts []string
}

// NewEmbedder creates an embedder producing vectors of the given dimension.
func NewEmbedder(dim int) *Embedder {
	if dim <= 0 {
		dim = 384
	}
	return &Embedder{Dim: dim}
}

func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.Texts = append(e.Texts, text)

	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, e.Dim)
	for i := range vec {
		vec[i] = float32((seed+uint64(i))%1000) / 1000.0
	}
	return vec, nil
}

// CallCount reports how many texts were embedded.
func (e *Embedder) CallCount() int { return len(e.Texts) }

// memCollection holds documents in insertion order.
type memCollection struct {
	name       string
	Documents  []string
	Embeddings [][]float32
	Metadatas  []map[string]any
	IDs        []string
}

func (c *memCollection) Name() string { return c.name }

// VectorStore keeps collections in memory. Query returns the first n
// documents added, with no similarity ranking, so pipeline tests stay
// independent of embedding quality.
type VectorStore struct {
	collections map[string]*memCollection
}

// NewVectorStore creates an empty in-memory store.
func NewVectorStore() *VectorStore {
	return &VectorStore{collections: make(map[string]*memCollection)}
}

// CreateCollection replaces any existing collection of the same name with a
// fresh empty one, per the port contract.
func (s *VectorStore) CreateCollection(_ context.Context, name string) (rag.Collection, error) {
	col := &memCollection{name: name}
	s.collections[name] = col
	return col, nil
}

func (s *VectorStore) AddChunks(_ context.Context, col rag.Collection, documents []string, embeddings [][]float32, metadatas []map[string]any, ids []string) error {
	c, err := s.lookup(col)
	if err != nil {
		return err
	}
	if len(documents) != len(embeddings) || len(documents) != len(metadatas) || len(documents) != len(ids) {
		return fmt.Errorf("mismatched lengths: %d documents, %d embeddings, %d metadatas, %d ids",
			len(documents), len(embeddings), len(metadatas), len(ids))
	}
	c.Documents = append(c.Documents, documents...)
	c.Embeddings = append(c.Embeddings, embeddings...)
	c.Metadatas = append(c.Metadatas, metadatas...)
	c.IDs = append(c.IDs, ids...)
	return nil
}

func (s *VectorStore) Query(_ context.Context, col rag.Collection, _ []float32, nResults int) ([]string, error) {
	c, err := s.lookup(col)
	if err != nil {
		return nil, err
	}
	if nResults > len(c.Documents) {
		nResults = len(c.Documents)
	}
	return c.Documents[:nResults], nil
}

// DocumentCount reports how many documents the named collection holds.
func (s *VectorStore) DocumentCount(name string) int {
	if c, ok := s.collections[name]; ok {
		return len(c.Documents)
	}
	return 0
}

// HasCollection reports whether the named collection exists.
func (s *VectorStore) HasCollection(name string) bool {
	_, ok := s.collections[name]
	return ok
}

func (s *VectorStore) lookup(col rag.Collection) (*memCollection, error) {
	c, ok := s.collections[col.Name()]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", col.Name())
	}
	return c, nil
}
