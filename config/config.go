// Package config loads server settings from .env, an optional YAML file and
// the process environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"wayfarer/llm"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Planning PlanningConfig `yaml:"planning"`
	Model    ModelConfig    `yaml:"model"`
	LogLevel string         `yaml:"logLevel"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	// PublicBaseURL prefixes share links printed on exports.
	PublicBaseURL string        `yaml:"publicBaseURL"`
	WriteTimeout  time.Duration `yaml:"writeTimeout"`
	RateLimit     float64       `yaml:"rateLimit"`
	RateBurst     int           `yaml:"rateBurst"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	// Addr may be empty, in which case events are dropped.
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
	Issuer    string `yaml:"issuer"`
}

type PlanningConfig struct {
	SessionTTL time.Duration `yaml:"sessionTTL"`
	MaxDays    int           `yaml:"maxDays"`
	MaxBudget  float64       `yaml:"maxBudget"`
}

type ModelConfig struct {
	// Provider is "genai" or "fixture".
	Provider       string     `yaml:"provider"`
	GoogleProject  string     `yaml:"googleProject"`
	GoogleLocation string     `yaml:"googleLocation"`
	GoogleAPIKey   string     `yaml:"googleAPIKey"`
	Plan           llm.Config `yaml:"plan"`
	Adjust         llm.Config `yaml:"adjust"`
	Chat           llm.Config `yaml:"chat"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "10000",
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
			PublicBaseURL:  "http://localhost:5173",
			WriteTimeout:   120 * time.Second,
			RateLimit:      1,
			RateBurst:      5,
		},
		Mongo: MongoConfig{URI: "mongodb://localhost:27017", Database: "wayfarer"},
		Planning: PlanningConfig{
			SessionTTL: 4 * time.Hour,
			MaxDays:    30,
			MaxBudget:  1_000_000,
		},
		Model: ModelConfig{
			Provider:       "genai",
			GoogleLocation: "us-central1",
			Plan:           llm.PlanConfig(),
			Adjust:         llm.AdjustConfig(),
			Chat:           llm.ChatConfig(),
		},
		LogLevel: "info",
	}
}

// Load reads .env (if present), then the YAML file named by path or
// CONFIG_FILE (if any), then environment overrides, then overrides, and
// validates the result.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Server.Port)
	str("PUBLIC_BASE_URL", &c.Server.PublicBaseURL)
	str("MONGODB_URI", &c.Mongo.URI)
	str("MONGODB_DATABASE", &c.Mongo.Database)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("JWT_ISSUER", &c.Auth.Issuer)
	str("MODEL_PROVIDER", &c.Model.Provider)
	str("GOOGLE_CLOUD_PROJECT", &c.Model.GoogleProject)
	str("VERTEX_AI_LOCATION", &c.Model.GoogleLocation)
	str("GOOGLE_API_KEY", &c.Model.GoogleAPIKey)
	str("PLAN_MODEL", &c.Model.Plan.Model)
	str("ADJUST_MODEL", &c.Model.Adjust.Model)
	str("LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.AllowedOrigins = origins
	}
	if v, ok := lookup("SESSION_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SESSION_TTL: %w", err)
		}
		c.Planning.SessionTTL = d
	}
	if v, ok := lookup("MAX_DAYS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_DAYS: %w", err)
		}
		c.Planning.MaxDays = n
	}
	if v, ok := lookup("MAX_BUDGET"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MAX_BUDGET: %w", err)
		}
		c.Planning.MaxBudget = f
	}
	if v, ok := lookup("RATE_LIMIT"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT: %w", err)
		}
		c.Server.RateLimit = f
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port == "" {
		problems = append(problems, "server.port is required")
	}
	if c.Planning.SessionTTL <= 0 {
		problems = append(problems, "planning.sessionTTL must be positive")
	}
	if c.Planning.MaxDays < 1 {
		problems = append(problems, "planning.maxDays must be at least 1")
	}
	if c.Planning.MaxBudget <= 0 {
		problems = append(problems, "planning.maxBudget must be positive")
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst < 1 {
		problems = append(problems, "server rate limit and burst must be positive")
	}
	switch c.Model.Provider {
	case "fixture":
	case "genai":
		if c.Model.GoogleProject == "" && c.Model.GoogleAPIKey == "" {
			problems = append(problems, "model.provider genai needs GOOGLE_CLOUD_PROJECT or GOOGLE_API_KEY")
		}
	default:
		problems = append(problems, fmt.Sprintf("model.provider %q is not one of genai, fixture", c.Model.Provider))
	}
	for name, m := range map[string]llm.Config{"plan": c.Model.Plan, "adjust": c.Model.Adjust, "chat": c.Model.Chat} {
		if m.Temperature < 0 || m.Temperature > 2 {
			problems = append(problems, fmt.Sprintf("model.%s.temperature must be within [0,2]", name))
		}
		if m.TopP < 0 || m.TopP > 1 {
			problems = append(problems, fmt.Sprintf("model.%s.topP must be within [0,1]", name))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
