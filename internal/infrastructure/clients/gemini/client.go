package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/feyti/medreport/pkg/config"
)

const defaultModel = "gemini-2.5-flash-lite"

const systemInstruction = `You translate medical report text. Keep drug names, numbers and units unchanged. Reply with the translation only.`

var languageNames = map[string]string{
	"fr": "French",
	"sw": "Swahili",
}

// generator is the part of the genai client the translator calls.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements providers.TranslationProvider on Google Gemini.
type Client struct {
	models generator
	model  string
}

// NewClient creates a Gemini client for the Gemini API backend.
func NewClient(ctx context.Context, cfg *config.GeminiConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{models: client.Models, model: model}, nil
}

// Name identifies the provider.
func (c *Client) Name() string {
	return "gemini"
}

// Translate asks Gemini to translate text into targetLang.
func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	language := languageNames[targetLang]
	if language == "" {
		language = targetLang
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: fmt.Sprintf("Translate the following text to %s:\n\n%s", language, text)},
			},
		},
	}

	result, err := c.models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		Temperature:       genai.Ptr[float32](0.1),
	})
	if err != nil {
		return "", fmt.Errorf("gemini GenerateContent failed: %w", err)
	}

	out := strings.TrimSpace(result.Text())
	if out == "" {
		return "", errors.New("gemini returned empty response")
	}
	return out, nil
}
