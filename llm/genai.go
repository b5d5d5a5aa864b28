package llm

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GenAIOptions selects the backend. A non-empty Project routes calls through
// Vertex AI; otherwise APIKey is used against the Gemini API.
type GenAIOptions struct {
	APIKey   string
	Project  string
	Location string
}

type GenAIClient struct {
	client *genai.Client
	log    *zap.Logger
}

func NewGenAIClient(ctx context.Context, opts GenAIOptions, log *zap.Logger) (*GenAIClient, error) {
	cc := &genai.ClientConfig{}
	backend := "gemini"
	switch {
	case opts.Project != "":
		location := opts.Location
		if location == "" {
			location = "us-central1"
		}
		cc.Project = opts.Project
		cc.Location = location
		cc.Backend = genai.BackendVertexAI
		backend = "vertex"
	case opts.APIKey != "":
		cc.APIKey = opts.APIKey
		cc.Backend = genai.BackendGeminiAPI
	default:
		return nil, errors.New("genai: either a Google Cloud project or an API key is required")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	log.Info("genai client ready",
		zap.String("backend", backend),
		zap.String("project", cc.Project),
		zap.String("location", cc.Location))
	return &GenAIClient{client: client, log: log}, nil
}

func safetySettings(off bool) []*genai.SafetySetting {
	if !off {
		return nil
	}
	categories := []genai.HarmCategory{
		genai.HarmCategoryHateSpeech,
		genai.HarmCategoryDangerousContent,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryHarassment,
	}
	out := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		out = append(out, &genai.SafetySetting{Category: c, Threshold: genai.HarmBlockThresholdOff})
	}
	return out
}

func buildConfig(systemInstruction string, cfg Config) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(cfg.Temperature),
		TopP:            genai.Ptr(cfg.TopP),
		MaxOutputTokens: cfg.MaxOutputTokens,
		SafetySettings:  safetySettings(cfg.SafetyOff),
	}
	if systemInstruction != "" {
		gc.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}
	if cfg.UseSearch {
		gc.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return gc
}

func (c *GenAIClient) Generate(ctx context.Context, userMessage, systemInstruction string, cfg Config) Response {
	cfg = cfg.withDefaults()
	start := time.Now()
	c.log.Debug("model call",
		zap.String("model", cfg.Model),
		zap.Bool("search", cfg.UseSearch),
		zap.Int("prompt_len", len(userMessage)))

	contents := []*genai.Content{genai.NewContentFromText(userMessage, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, cfg.Model, contents, buildConfig(systemInstruction, cfg))
	latency := time.Since(start)
	if err != nil {
		c.log.Error("model call failed", zap.String("model", cfg.Model), zap.Duration("latency", latency), zap.Error(err))
		return Response{Success: false, Error: err.Error(), SearchUsed: cfg.UseSearch, Model: cfg.Model, Latency: latency}
	}

	text := resp.Text()
	if text == "" {
		reason := "empty response"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
			reason = fmt.Sprintf("empty response, finish reason %s", resp.Candidates[0].FinishReason)
		}
		c.log.Warn("model returned no text", zap.String("model", cfg.Model), zap.String("reason", reason))
		return Response{Success: false, Error: reason, SearchUsed: cfg.UseSearch, Model: cfg.Model, Latency: latency}
	}

	grounded := len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil
	c.log.Info("model call succeeded",
		zap.String("model", cfg.Model),
		zap.Int("response_len", len(text)),
		zap.Duration("latency", latency))
	return Response{
		Success:    true,
		Content:    text,
		SearchUsed: cfg.UseSearch && grounded,
		Model:      cfg.Model,
		Latency:    latency,
	}
}

func (c *GenAIClient) Stream(ctx context.Context, userMessage, systemInstruction string, cfg Config) iter.Seq2[string, error] {
	cfg = cfg.withDefaults()
	contents := []*genai.Content{genai.NewContentFromText(userMessage, genai.RoleUser)}
	chunks := c.client.Models.GenerateContentStream(ctx, cfg.Model, contents, buildConfig(systemInstruction, cfg))

	return func(yield func(string, error) bool) {
		for chunk, err := range chunks {
			if err != nil {
				c.log.Error("model stream failed", zap.String("model", cfg.Model), zap.Error(err))
				yield("", err)
				return
			}
			if len(chunk.Candidates) == 0 || chunk.Candidates[0].Content == nil || len(chunk.Candidates[0].Content.Parts) == 0 {
				continue
			}
			if !yield(chunk.Text(), nil) {
				return
			}
		}
	}
}
