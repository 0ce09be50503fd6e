package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://models.local:11434")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://models.local:11434", cfg.Ollama.Host)
	assert.Equal(t, "qwen2.5-coder:7b", cfg.Ollama.LLMModel)
	assert.Equal(t, "nomic-embed-text", cfg.Ollama.EmbedModel)
	assert.Equal(t, BackendSQLite, cfg.Vector.Backend)
	assert.Equal(t, 768, cfg.Vector.Dim)
}

func TestLoad_MissingHostIsFatal(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	t.Setenv("SHELF_OLLAMA_HOST", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama host is required")
}

func TestLoad_File(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	t.Setenv("SHELF_OLLAMA_HOST", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ollama:
  host: http://polwarth:11434
  llm_model: llama3:8b
vector:
  backend: chroma
  chroma_url: http://chroma:8000
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://polwarth:11434", cfg.Ollama.Host)
	assert.Equal(t, "llama3:8b", cfg.Ollama.LLMModel)
	assert.Equal(t, BackendChroma, cfg.Vector.Backend)
	assert.Equal(t, "http://chroma:8000", cfg.Vector.ChromaURL)
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := &Config{
		Ollama: OllamaConfig{Host: "http://x"},
		Vector: VectorConfig{Backend: "pinecone", Dim: 768},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown vector backend")
}
