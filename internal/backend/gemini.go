package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/tatianab/saga/internal/prompts"
	"github.com/tatianab/saga/internal/schema"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

type GeminiConfig struct {
	APIKey           string
	Model            string
	GenerationParams map[string]any
	NarrationParams  map[string]any
}

// Gemini talks to the Google Gemini API.
type Gemini struct {
	Canceler
	client           *genai.Client
	modelName        string
	generationParams map[string]any
	narrationParams  map[string]any
	logger           *zap.Logger
}

var _ Port = (*Gemini)(nil)

func NewGemini(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	name := cfg.Model
	if name == "" {
		name = DefaultGeminiModel
	}
	return &Gemini{
		client:           client,
		modelName:        name,
		generationParams: cfg.GenerationParams,
		narrationParams:  cfg.NarrationParams,
		logger:           logger.Named("gemini"),
	}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) model(system string, params map[string]any) *genai.GenerativeModel {
	m := g.client.GenerativeModel(g.modelName)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	if v, ok := floatParam(params, "temperature"); ok {
		m.SetTemperature(float32(v))
	}
	if v, ok := floatParam(params, "top_p"); ok {
		m.SetTopP(float32(v))
	}
	if v, ok := floatParam(params, "max_tokens"); ok {
		m.SetMaxOutputTokens(int32(v))
	}
	return m
}

func (g *Gemini) GetObject(ctx context.Context, p prompts.Prompt, obj schema.Object, onToken TokenFunc) ([]byte, error) {
	m := g.model(p.System, g.generationParams)
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = geminiSchema(obj.Schema)
	text, err := g.stream(ctx, m, p.User, onToken)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

func (g *Gemini) GetNarration(ctx context.Context, p prompts.Prompt, onToken TokenFunc) (string, error) {
	return g.stream(ctx, g.model(p.System, g.narrationParams), p.User, onToken)
}

func (g *Gemini) stream(ctx context.Context, m *genai.GenerativeModel, user string, onToken TokenFunc) (string, error) {
	ctx, done := g.Begin(ctx)
	defer done()

	var b strings.Builder
	count := 0
	iter := m.GenerateContentStream(ctx, genai.Text(user))
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", g.Wrap(ctx, "gemini stream", err)
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				text, ok := part.(genai.Text)
				if !ok || text == "" {
					continue
				}
				b.WriteString(string(text))
				count++
				if onToken != nil {
					onToken(string(text), count)
				}
			}
		}
	}
	g.logger.Debug("stream finished", zap.Int("chunks", count))
	return b.String(), nil
}

// geminiSchema converts the subset of JSON Schema used for generation into
// Gemini's schema type. Length bounds are checked after decoding instead.
func geminiSchema(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{Required: s.Required}
	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
	case "array":
		out.Type = genai.TypeArray
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
	}
	for _, v := range s.Enum {
		if str, ok := v.(string); ok {
			out.Enum = append(out.Enum, str)
		}
	}
	if len(out.Enum) > 0 {
		out.Format = "enum"
	}
	if s.Items != nil {
		out.Items = geminiSchema(s.Items)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = geminiSchema(prop)
		}
	}
	return out
}
