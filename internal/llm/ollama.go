package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
)

// Ollama runs generation and embeddings against a local Ollama server.
// Embeddings use a separate model, so two clients are kept.
type Ollama struct {
	gen   *ollama.LLM
	embed *ollama.LLM
}

func NewOllama(serverURL, model, embedModel string) (*Ollama, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	gen, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	if embedModel == "" {
		embedModel = model
	}
	embedOpts := []ollama.Option{ollama.WithModel(embedModel)}
	if serverURL != "" {
		embedOpts = append(embedOpts, ollama.WithServerURL(serverURL))
	}
	emb, err := ollama.New(embedOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama embedding client: %w", err)
	}
	return &Ollama{gen: gen, embed: emb}, nil
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	temp := req.Temperature
	if temp <= 0 {
		temp = defaultTemperature
	}
	maxTok := req.MaxTokens
	if maxTok <= 0 {
		maxTok = defaultMaxTokens
	}

	messages := make([]llms.MessageContent, 0, 2)
	if req.System != "" {
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, req.System))
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, req.Prompt))

	resp, err := o.gen.GenerateContent(ctx, messages,
		llms.WithMaxTokens(maxTok),
		llms.WithTemperature(temp),
	)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (o *Ollama) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := o.embed.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("ollama embeddings: got %d vectors for %d inputs", len(vecs), len(texts))
	}
	return vecs, nil
}
