package bridge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PromptSpec is one system prompt plus its sampling style.
type PromptSpec struct {
	System string `yaml:"system"`
	Style  struct {
		Temperature float64 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"style"`
}

type Prompts struct {
	Chat      PromptSpec `yaml:"chat"`
	Recommend PromptSpec `yaml:"recommend"`
}

func DefaultPrompts() Prompts {
	var p Prompts
	p.Chat.System = "You are a professional restaurant assistant for Maison Lumière. Be warm, helpful, and concise (2-3 sentences).\n\n" +
		"Guidelines:\n" +
		"- Answer the customer's question directly\n" +
		"- Suggest relevant next steps\n" +
		"- Be enthusiastic about our food\n" +
		"- Prioritize allergen safety"
	p.Chat.Style.Temperature = 0.8
	p.Chat.Style.MaxTokens = 180

	p.Recommend.System = "You are a professional, friendly restaurant assistant. " +
		"Use only the dishes and prices from the provided menu context. " +
		"Never invent new dishes or prices. Answer in 2-3 sentences."
	p.Recommend.Style.Temperature = 0.8
	p.Recommend.Style.MaxTokens = 180
	return p
}

// LoadPrompts overlays the YAML file at path on the default prompts.
// An empty path returns the defaults.
func LoadPrompts(path string) (Prompts, error) {
	p := DefaultPrompts()
	if path == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read prompts file: %w", err)
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	if p.Chat.System == "" || p.Recommend.System == "" {
		return p, fmt.Errorf("prompts file must keep both chat and recommend system prompts")
	}
	return p, nil
}
