// Package vectorstore provides the production vector store adapters: a
// ChromaDB client and a local sqlite-vec backend. Both satisfy the rag
// vector store port and hold no pipeline logic.
package vectorstore

import (
	"context"
	"fmt"

	chromago "github.com/amikos-tech/chroma-go"
	"github.com/amikos-tech/chroma-go/collection"
	"github.com/amikos-tech/chroma-go/types"

	"shelf/internal/rag"
)

// Chroma adapts a ChromaDB server to the vector store port.
type Chroma struct {
	client *chromago.Client
}

// NewChroma creates a ChromaDB adapter for the given server URL.
func NewChroma(url string) (*Chroma, error) {
	client, err := chromago.NewClient(chromago.WithBasePath(url))
	if err != nil {
		return nil, fmt.Errorf("create chroma client: %w", err)
	}
	return &Chroma{client: client}, nil
}

type chromaCollection struct {
	inner *chromago.Collection
}

func (c *chromaCollection) Name() string { return c.inner.Name }

// CreateCollection drops any existing collection of the same name and
// creates a fresh one.
func (c *Chroma) CreateCollection(ctx context.Context, name string) (rag.Collection, error) {
	// Ignore the delete error: the collection usually doesn't exist yet.
	_, _ = c.client.DeleteCollection(ctx, name)

	col, err := c.client.NewCollection(
		ctx,
		name,
		collection.WithCreateIfNotExist(true),
		collection.WithHNSWDistanceFunction(types.L2),
	)
	if err != nil {
		return nil, fmt.Errorf("create collection %q: %w", name, err)
	}
	return &chromaCollection{inner: col}, nil
}

// AddChunks stores documents with their precomputed embeddings.
func (c *Chroma) AddChunks(ctx context.Context, col rag.Collection, documents []string, embeddings [][]float32, metadatas []map[string]any, ids []string) error {
	cc, err := asChromaCollection(col)
	if err != nil {
		return err
	}

	embs := make([]*types.Embedding, len(embeddings))
	for i, e := range embeddings {
		embs[i] = types.NewEmbeddingFromFloat32(e)
	}

	if _, err := cc.inner.Add(ctx, embs, metadatas, documents, ids); err != nil {
		return fmt.Errorf("add %d documents to %q: %w", len(documents), col.Name(), err)
	}
	return nil
}

// Query returns up to nResults document texts ordered by distance.
func (c *Chroma) Query(ctx context.Context, col rag.Collection, queryEmbedding []float32, nResults int) ([]string, error) {
	cc, err := asChromaCollection(col)
	if err != nil {
		return nil, err
	}

	results, err := cc.inner.QueryWithOptions(
		ctx,
		types.WithQueryEmbeddings([]*types.Embedding{types.NewEmbeddingFromFloat32(queryEmbedding)}),
		types.WithNResults(int32(nResults)),
	)
	if err != nil {
		return nil, fmt.Errorf("query collection %q: %w", col.Name(), err)
	}

	if len(results.Documents) == 0 {
		return nil, nil
	}
	return results.Documents[0], nil
}

func asChromaCollection(col rag.Collection) (*chromaCollection, error) {
	cc, ok := col.(*chromaCollection)
	if !ok {
		return nil, fmt.Errorf("collection %q was not created by this adapter", col.Name())
	}
	return cc, nil
}
