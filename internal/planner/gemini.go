// File: internal/planner/gemini.go
package planner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/mzahir/trailcap/api/schemas"
	"github.com/mzahir/trailcap/internal/config"
)

// GeminiClient implements schemas.LLMClient on the Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   string
	maxTok  int
	timeout time.Duration
	logger  *zap.Logger
}

// NewGeminiClient initializes the client. The API key comes from config,
// which resolves it from the GEMINI_API_KEY environment variable.
func NewGeminiClient(ctx context.Context, cfg config.PlannerConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required (set GEMINI_API_KEY)")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   cfg.Model,
		maxTok:  cfg.MaxTokens,
		timeout: cfg.APITimeout,
		logger:  logger.Named("llm_client.gemini"),
	}, nil
}

// Generate sends the prompts to the Gemini API and returns the generated
// text.
func (c *GeminiClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Options.Temperature)),
		MaxOutputTokens: int32(c.maxTok),
	}
	if req.SystemPrompt != "" {
		genCfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}
	if req.Options.ForceJSONFormat {
		genCfg.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(callCtx, c.model, genai.Text(req.UserPrompt), genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini API returned no content")
	}

	c.logger.Debug("LLM response received",
		zap.String("model", c.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("response_chars", len(text)),
	)
	return text, nil
}

// Close releases client resources. The underlying SDK holds no persistent
// connections that need explicit shutdown.
func (c *GeminiClient) Close() error {
	return nil
}
