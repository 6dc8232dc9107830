package words

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel 默认模型
const DefaultModel = "gemini-2.5-flash"

// Gemini 基于 Gemini API 的词语生成器
type Gemini struct {
	client   *genai.Client
	model    string
	language string
}

// NewGemini 创建 Gemini 生成器
func NewGemini(ctx context.Context, apiKey, model, language string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("words: create gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	if language == "" {
		language = "Thai"
	}
	return &Gemini{client: client, model: model, language: language}, nil
}

func (g *Gemini) WordPair(ctx context.Context, category string) (string, string, error) {
	prompt := fmt.Sprintf(
		`Pick 2 %s words in the category "%s" that are very similar but not the same word. `+
			`Reply with a JSON array of exactly 2 strings and nothing else, for example ["sea", "waterfall"].`,
		g.language, category)

	text, err := g.generate(ctx, prompt, &genai.GenerateContentConfig{ResponseMIMEType: "application/json"})
	if err != nil {
		return "", "", err
	}
	return ParsePair(text)
}

func (g *Gemini) TraitWord(ctx context.Context) (string, error) {
	prompt := fmt.Sprintf(
		`Pick 1 %s word or short phrase describing a personality trait or habit, `+
			`for example "pretty", "party animal", "sleepyhead". Reply with only that word.`,
		g.language)

	text, err := g.generate(ctx, prompt, nil)
	if err != nil {
		return "", err
	}
	return ParseTrait(text)
}

func (g *Gemini) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("words: gemini: %w", err)
	}
	return resp.Text(), nil
}
