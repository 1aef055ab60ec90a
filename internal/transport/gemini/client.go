// Package gemini adapts the Google Gemini API to the domain completion and
// embedding contracts.
package gemini

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Config holds the Gemini provider settings.
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint. Empty means the public endpoint.
	BaseURL     string
	Model       string
	EmbedModel  string
	Dimensions  int
	Temperature float32
	MaxTokens   int
	Provider    string
	Logger      *zap.Logger
}

func newClient(ctx context.Context, cfg *Config) (*genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}
