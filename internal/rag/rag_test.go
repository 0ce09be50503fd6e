package rag_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelf/internal/analyzer"
	"shelf/internal/chunker"
	"shelf/internal/rag"
	"shelf/internal/rag/ragtest"
)

func testProject(name string, chunkCount int) (*analyzer.ProjectAnalysis, []chunker.Chunk) {
	pa := &analyzer.ProjectAnalysis{
		Name:           name,
		FileCount:      1,
		TotalFunctions: chunkCount,
		AllImports:     []string{"requests", "os.path", "_private", "flask"},
	}
	var chunks []chunker.Chunk
	for i := 0; i < chunkCount; i++ {
		chunks = append(chunks, chunker.Chunk{
			Kind:     chunker.KindFunction,
			FilePath: "app.py",
			Name:     fmt.Sprintf("fn%d", i),
			Content:  fmt.Sprintf("# Function: fn%d()\ndef fn%d(): pass", i, i),
			Metadata: map[string]any{"type": "function"},
		})
	}
	return pa, chunks
}

func newPipeline(response string) (*rag.ReadmeGenerator, *ragtest.Generator, *ragtest.Embedder, *ragtest.VectorStore) {
	gen := ragtest.NewGenerator(response)
	emb := ragtest.NewEmbedder(64)
	vs := ragtest.NewVectorStore()
	return rag.NewReadmeGenerator(gen, emb, vs), gen, emb, vs
}

func TestGenerateReadme_EmptyProject(t *testing.T) {
	g, gen, emb, vs := newPipeline("")
	pa, _ := testProject("bare-project", 0)

	readme, err := g.GenerateReadme(context.Background(), pa, nil)
	require.NoError(t, err)

	assert.Contains(t, readme, "bare-project")
	assert.Contains(t, readme, "no Python files")
	// The terminal state touches no port at all.
	assert.Zero(t, gen.CallCount())
	assert.Zero(t, emb.CallCount())
	assert.False(t, vs.HasCollection("bare_project"))
}

func TestGenerateReadme_ReturnsGeneratedText(t *testing.T) {
	g, gen, _, _ := newPipeline("# add\nSimple adder.")
	pa, chunks := testProject("adder", 1)

	readme, err := g.GenerateReadme(context.Background(), pa, chunks)
	require.NoError(t, err)

	assert.Equal(t, "# add\nSimple adder.", readme)
	assert.Equal(t, 1, gen.CallCount())
}

func TestGenerateReadme_EmbedsEachChunkPlusQuery(t *testing.T) {
	g, _, emb, _ := newPipeline("")
	pa, chunks := testProject("proj", 4)

	_, err := g.GenerateReadme(context.Background(), pa, chunks)
	require.NoError(t, err)

	// One embedding per chunk, plus one for the retrieval query.
	assert.Equal(t, len(chunks)+1, emb.CallCount())
	assert.Equal(t, "main functionality entry point purpose usage", emb.Texts[len(emb.Texts)-1])
}

func TestGenerateReadme_IndexesAllChunks(t *testing.T) {
	g, _, _, vs := newPipeline("")
	pa, chunks := testProject("My-Project.X", 3)

	_, err := g.GenerateReadme(context.Background(), pa, chunks)
	require.NoError(t, err)

	assert.Equal(t, 3, vs.DocumentCount("my_project_x"))
}

func TestGenerateReadme_Idempotent(t *testing.T) {
	g, _, _, vs := newPipeline("")
	pa, chunks := testProject("repeat", 3)

	_, err := g.GenerateReadme(context.Background(), pa, chunks)
	require.NoError(t, err)
	_, err = g.GenerateReadme(context.Background(), pa, chunks)
	require.NoError(t, err)

	// The collection is replaced, not appended to.
	assert.Equal(t, 3, vs.DocumentCount("repeat"))
}

func TestGenerateReadme_PromptContents(t *testing.T) {
	g, gen, _, _ := newPipeline("")
	pa, chunks := testProject("proj", 2)

	_, err := g.GenerateReadme(context.Background(), pa, chunks)
	require.NoError(t, err)

	require.Equal(t, 1, gen.CallCount())
	call := gen.Calls[0]

	assert.Contains(t, call.SystemPrompt, "technical documentation expert")

	assert.Contains(t, call.UserPrompt, "PROJECT SUMMARY:")
	assert.Contains(t, call.UserPrompt, "Project: proj")
	assert.Contains(t, call.UserPrompt, "Functions: 2")
	// Dotted and underscored imports are filtered out of key dependencies.
	assert.Contains(t, call.UserPrompt, "Key dependencies: requests, flask")
	assert.NotContains(t, call.UserPrompt, "_private")

	// Retrieval is capped at min(5, len(chunks)).
	assert.Contains(t, call.UserPrompt, "--- Component 1 ---")
	assert.Contains(t, call.UserPrompt, "--- Component 2 ---")
	assert.NotContains(t, call.UserPrompt, "--- Component 3 ---")

	assert.Contains(t, call.UserPrompt, "6. Requirements - Main dependencies")

	assert.InDelta(t, 0.3, call.Options.Temperature, 1e-9)
	assert.Equal(t, 1000, call.Options.NumPredict)
}

func TestGenerateReadme_RetrievalCap(t *testing.T) {
	g, gen, _, _ := newPipeline("")
	pa, chunks := testProject("big", 8)

	_, err := g.GenerateReadme(context.Background(), pa, chunks)
	require.NoError(t, err)

	require.Equal(t, 1, gen.CallCount())
	assert.Contains(t, gen.Calls[0].UserPrompt, "--- Component 5 ---")
	assert.NotContains(t, gen.Calls[0].UserPrompt, "--- Component 6 ---")
}

func TestCollectionName(t *testing.T) {
	assert.Equal(t, "my_project_x", rag.CollectionName("My-Project.X"))
	assert.Equal(t, "plain", rag.CollectionName("plain"))

	long := strings.Repeat("a", 80)
	assert.Len(t, rag.CollectionName(long), 63)

	// Truncation counts runes, never splitting a multibyte character.
	wide := strings.Repeat("ü", 80)
	got := rag.CollectionName(wide)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 63, utf8.RuneCountInString(got))
}
