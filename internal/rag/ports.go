// Package rag implements retrieval-augmented README generation over code
// chunks. The pipeline talks to text generation, embedding, and vector
// storage only through the port interfaces in this file, so adapters are
// swappable at composition time.
package rag

import "context"

// GenerateOptions carries generation controls. Their exact effect is
// adapter-defined.
type GenerateOptions struct {
	Temperature float64
	NumPredict  int // output length cap in tokens; 0 means adapter default
}

// Generator produces text from a system instruction and a user prompt.
// A successful call returns non-empty text; failures are returned as
// errors, never as malformed values.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (string, error)
}

// Embedder maps text to a vector. Dimensionality is adapter-defined and
// fixed per adapter instance; the same text produces a stable vector
// within a single instance.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Collection is an opaque handle to a named set of indexed chunks.
type Collection interface {
	Name() string
}

// VectorStore indexes chunks and answers similarity queries.
type VectorStore interface {
	// CreateCollection creates the named collection, dropping and
	// replacing any prior contents under the same name.
	CreateCollection(ctx context.Context, name string) (Collection, error)

	// AddChunks stores parallel sequences of documents, embeddings,
	// metadata records, and ids. All entries are visible to any
	// subsequent Query.
	AddChunks(ctx context.Context, col Collection, documents []string, embeddings [][]float32, metadatas []map[string]any, ids []string) error

	// Query returns up to nResults document texts ordered by the
	// adapter's similarity metric.
	Query(ctx context.Context, col Collection, queryEmbedding []float32, nResults int) ([]string, error)
}
