package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Kind selects a backend adapter.
type Kind string

const (
	KindOpenAI Kind = "openai"
	KindGemini Kind = "gemini"
)

// Settings configures New.
type Settings struct {
	Kind             Kind
	BaseURL          string
	APIKey           string
	Model            string
	GenerationParams map[string]any
	NarrationParams  map[string]any
}

// New returns the adapter selected by s.Kind. Adapters that hold a client
// also implement io.Closer.
func New(ctx context.Context, s Settings, logger *zap.Logger) (Port, error) {
	switch s.Kind {
	case KindOpenAI, "":
		return NewOpenAI(OpenAIConfig{
			BaseURL:          s.BaseURL,
			APIKey:           s.APIKey,
			Model:            s.Model,
			GenerationParams: s.GenerationParams,
			NarrationParams:  s.NarrationParams,
		}, logger)
	case KindGemini:
		return NewGemini(ctx, GeminiConfig{
			APIKey:           s.APIKey,
			Model:            s.Model,
			GenerationParams: s.GenerationParams,
			NarrationParams:  s.NarrationParams,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown backend %q", s.Kind)
	}
}
