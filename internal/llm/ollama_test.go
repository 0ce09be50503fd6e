package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelf/internal/rag"
)

func TestGenerate(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(chatResponse{
			Message: Message{Role: "assistant", Content: "# My Project\n\nHello."},
		})
	}))
	defer srv.Close()

	o := NewOllama(srv.URL, "qwen2.5-coder:7b")
	out, err := o.Generate(context.Background(), "You are helpful.", "Write a README.", rag.GenerateOptions{
		Temperature: 0.3,
		NumPredict:  1000,
	})
	require.NoError(t, err)
	assert.Equal(t, "# My Project\n\nHello.", out)

	assert.Equal(t, "qwen2.5-coder:7b", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, Message{Role: "system", Content: "You are helpful."}, got.Messages[0])
	assert.Equal(t, Message{Role: "user", Content: "Write a README."}, got.Messages[1])
	assert.Equal(t, 0.3, got.Options["temperature"])
	assert.Equal(t, float64(1000), got.Options["num_predict"])
}

func TestGenerate_OmitsZeroNumPredict(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(chatResponse{Message: Message{Content: "ok"}})
	}))
	defer srv.Close()

	o := NewOllama(srv.URL, "m")
	_, err := o.Generate(context.Background(), "s", "u", rag.GenerateOptions{Temperature: 0.7})
	require.NoError(t, err)
	assert.NotContains(t, got.Options, "num_predict")
}

func TestGenerate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	o := NewOllama(srv.URL, "missing")
	_, err := o.Generate(context.Background(), "s", "u", rag.GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "model not found")
}

func TestGenerate_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{})
	}))
	defer srv.Close()

	o := NewOllama(srv.URL, "m")
	_, err := o.Generate(context.Background(), "s", "u", rag.GenerateOptions{})
	assert.Error(t, err)
}
