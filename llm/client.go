// Package llm wraps the hosted generative model behind a small contract so
// the planner and the adjustment agent can run against either the live
// provider or a canned fixture.
package llm

import (
	"context"
	"iter"
	"time"
)

const (
	DefaultModel = "gemini-2.5-flash-lite"
	PlanModel    = "gemini-2.0-flash-lite"
)

// Config carries per-call sampling and tool settings.
type Config struct {
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	TopP            float32 `yaml:"topP"`
	MaxOutputTokens int32   `yaml:"maxOutputTokens"`
	// UseSearch exposes web search to the model as a callable tool.
	UseSearch bool `yaml:"useSearch"`
	// SafetyOff disables the provider's default content filters.
	SafetyOff bool `yaml:"safetyOff"`
}

func DefaultConfig() Config {
	return Config{
		Model:           DefaultModel,
		Temperature:     0.7,
		TopP:            0.95,
		MaxOutputTokens: 12288,
		UseSearch:       false,
		SafetyOff:       true,
	}
}

// PlanConfig is tuned for first-time itinerary generation.
func PlanConfig() Config {
	return Config{
		Model:           PlanModel,
		Temperature:     0.7,
		TopP:            0.95,
		MaxOutputTokens: 8000,
		UseSearch:       true,
		SafetyOff:       true,
	}
}

// AdjustConfig favours compact, near-deterministic edits.
func AdjustConfig() Config {
	return Config{
		Model:           DefaultModel,
		Temperature:     0.3,
		TopP:            0.8,
		MaxOutputTokens: 4096,
		UseSearch:       false,
		SafetyOff:       true,
	}
}

// ChatConfig is used by the interactive chat surface.
func ChatConfig() Config {
	cfg := DefaultConfig()
	cfg.UseSearch = true
	cfg.MaxOutputTokens = 2048
	return cfg
}

// withDefaults returns DefaultConfig for an empty config. Otherwise only
// the model and the token budget are filled in; zero temperature and top-p
// are kept so callers can ask for greedy sampling.
func (c Config) withDefaults() Config {
	if c == (Config{}) {
		return DefaultConfig()
	}
	d := DefaultConfig()
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.MaxOutputTokens == 0 {
		c.MaxOutputTokens = d.MaxOutputTokens
	}
	return c
}

// Response is the uniform envelope returned by every Generator. A provider
// failure is reported through Success and Error, never as a Go error.
type Response struct {
	Success    bool
	Content    string
	Error      string
	SearchUsed bool
	Model      string
	Latency    time.Duration
}

// Generator produces model text for a user message under a system
// instruction.
type Generator interface {
	Generate(ctx context.Context, userMessage, systemInstruction string, cfg Config) Response
	// Stream yields text chunks as they arrive. The sequence is finite and
	// cannot be restarted; a provider error ends it.
	Stream(ctx context.Context, userMessage, systemInstruction string, cfg Config) iter.Seq2[string, error]
}
