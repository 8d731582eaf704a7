package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/tatianab/saga/internal/backend"
	"github.com/tatianab/saga/internal/models"
)

const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Config holds the application configuration. Values come from defaults, an
// optional YAML file and then environment variables, later sources winning.
type Config struct {
	Backend        backend.Kind  `env:"SAGA_BACKEND" yaml:"backend"`
	APIURL         string        `env:"SAGA_API_URL" yaml:"api_url"`
	APIKey         string        `env:"SAGA_API_KEY" yaml:"api_key"`
	GeminiAPIKey   string        `env:"GEMINI_API_KEY" yaml:"gemini_api_key"`
	Model          string        `env:"SAGA_MODEL" yaml:"model"`
	ContextLength  int           `env:"SAGA_CONTEXT_LENGTH" yaml:"context_length"`
	InputLength    int           `env:"SAGA_INPUT_LENGTH" yaml:"input_length"`
	UpdateInterval time.Duration `env:"SAGA_UPDATE_INTERVAL" yaml:"update_interval"`

	SaveDir string `env:"SAGA_SAVE_DIR" yaml:"save_dir"`
	Store   string `env:"SAGA_STORE" yaml:"store"`

	LogLevel string `env:"SAGA_LOG_LEVEL" yaml:"log_level"`
	LogFile  string `env:"SAGA_LOG_FILE" yaml:"log_file"`

	LogPrompts   bool `env:"SAGA_LOG_PROMPTS" yaml:"log_prompts"`
	LogParams    bool `env:"SAGA_LOG_PARAMS" yaml:"log_params"`
	LogResponses bool `env:"SAGA_LOG_RESPONSES" yaml:"log_responses"`

	// Sampling parameters are only configurable from the file.
	GenerationParams map[string]any `yaml:"generation_params"`
	NarrationParams  map[string]any `yaml:"narration_params"`
}

// Default returns the built-in configuration.
func Default() Config {
	s := models.NewState()
	return Config{
		Backend:        backend.KindOpenAI,
		APIURL:         s.APIURL,
		ContextLength:  s.ContextLength,
		InputLength:    s.InputLength,
		UpdateInterval: time.Duration(s.UpdateInterval) * time.Millisecond,
		SaveDir:        ".saves",
		Store:          StoreFile,
		LogLevel:       "info",
	}
}

// LoadConfig builds the configuration. path names a YAML file; when empty,
// SAGA_CONFIG is consulted.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("SAGA_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case backend.KindOpenAI:
		if c.APIURL == "" {
			return fmt.Errorf("SAGA_API_URL is required for the openai backend")
		}
	case backend.KindGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable is not set")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Store != StoreFile && c.Store != StoreSQLite {
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.UpdateInterval < 0 {
		return fmt.Errorf("update interval must not be negative")
	}
	if c.ContextLength < 0 || c.InputLength < 0 {
		return fmt.Errorf("context and input lengths must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// Apply copies the connection settings onto a session document.
func (c *Config) Apply(s *models.State) {
	s.APIURL = c.APIURL
	s.APIKey = c.APIKey
	s.Model = c.Model
	if c.ContextLength > 0 {
		s.ContextLength = c.ContextLength
	}
	if c.InputLength > 0 {
		s.InputLength = c.InputLength
	}
	if c.GenerationParams != nil {
		s.GenerationParams = c.GenerationParams
	}
	if c.NarrationParams != nil {
		s.NarrationParams = c.NarrationParams
	}
	s.UpdateInterval = int(c.UpdateInterval / time.Millisecond)
	s.LogPrompts = c.LogPrompts
	s.LogParams = c.LogParams
	s.LogResponses = c.LogResponses
}

// NewBackend creates the configured backend using the connection settings
// carried by s.
func (c *Config) NewBackend(ctx context.Context, s *models.State, logger *zap.Logger) (backend.Port, error) {
	settings := backend.Settings{
		Kind:             c.Backend,
		BaseURL:          s.APIURL,
		APIKey:           s.APIKey,
		Model:            s.Model,
		GenerationParams: s.GenerationParams,
		NarrationParams:  s.NarrationParams,
	}
	if c.Backend == backend.KindGemini {
		settings.APIKey = c.GeminiAPIKey
	}
	return backend.New(ctx, settings, logger)
}
