// Package llm adapts the Ollama chat API to the generation port. It holds
// no pipeline logic; it only translates the generic call into Ollama's
// request shape.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"shelf/internal/rag"
)

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Ollama calls the Ollama /api/chat endpoint for text generation.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates a generation adapter targeting the given Ollama
// instance and model.
func NewOllama(baseURL, model string) *Ollama {
	return &Ollama{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// Model returns the configured model name.
func (o *Ollama) Model() string { return o.model }

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message Message `json:"message"`
}

// Generate sends the system instruction and user prompt to Ollama and
// returns the assistant's response text.
func (o *Ollama) Generate(ctx context.Context, systemPrompt, userPrompt string, opts rag.GenerateOptions) (string, error) {
	options := map[string]any{
		"temperature": opts.Temperature,
	}
	if opts.NumPredict > 0 {
		options["num_predict"] = opts.NumPredict
	}

	body, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream:  false,
		Options: options,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama chat returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if result.Message.Content == "" {
		return "", fmt.Errorf("ollama chat returned an empty response")
	}

	return result.Message.Content, nil
}
