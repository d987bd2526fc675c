// Package llm adapts hosted and local language models to the two calls the
// assistant needs: text generation and embeddings.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResponse is returned when a backend answers without any text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Request is a single-shot generation request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Backend is a model provider that can both generate and embed.
type Backend interface {
	Generator
	Embedder
	Name() string
}

// Options selects and configures a backend.
type Options struct {
	Provider   string
	BaseURL    string
	APIKey     string
	Model      string
	EmbedModel string
}

// New returns the backend named by opts.Provider ("openai" or "ollama").
func New(opts Options) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "openai":
		return NewOpenAI(opts.APIKey, opts.BaseURL, opts.Model, opts.EmbedModel), nil
	case "ollama", "":
		return NewOllama(opts.BaseURL, opts.Model, opts.EmbedModel)
	}
	return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
}
