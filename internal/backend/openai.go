package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/tatianab/saga/internal/prompts"
	"github.com/tatianab/saga/internal/schema"
)

// OpenAIConfig configures an OpenAI-compatible endpoint such as llama.cpp,
// vLLM or OpenAI itself.
type OpenAIConfig struct {
	BaseURL          string
	APIKey           string
	Model            string
	GenerationParams map[string]any
	NarrationParams  map[string]any
}

// OpenAI talks to any OpenAI-compatible chat completions API.
type OpenAI struct {
	Canceler
	client           *openai.Client
	model            string
	generationParams map[string]any
	narrationParams  map[string]any
	logger           *zap.Logger
}

var _ Port = (*OpenAI)(nil)

func NewOpenAI(cfg OpenAIConfig, logger *zap.Logger) (*OpenAI, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL

	return &OpenAI{
		client:           openai.NewClientWithConfig(config),
		model:            cfg.Model,
		generationParams: cfg.GenerationParams,
		narrationParams:  cfg.NarrationParams,
		logger:           logger.Named("openai"),
	}, nil
}

func (o *OpenAI) request(p prompts.Prompt, params map[string]any) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
		Stream: true,
	}
	if v, ok := floatParam(params, "temperature"); ok {
		req.Temperature = float32(v)
	}
	if v, ok := floatParam(params, "top_p"); ok {
		req.TopP = float32(v)
	}
	if v, ok := floatParam(params, "max_tokens"); ok {
		req.MaxTokens = int(v)
	}
	return req
}

func (o *OpenAI) GetObject(ctx context.Context, p prompts.Prompt, obj schema.Object, onToken TokenFunc) ([]byte, error) {
	raw, err := json.Marshal(obj.Schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", obj.Name, err)
	}
	req := o.request(p, o.generationParams)
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   obj.Name,
			Schema: json.RawMessage(raw),
		},
	}
	text, err := o.stream(ctx, req, onToken)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

func (o *OpenAI) GetNarration(ctx context.Context, p prompts.Prompt, onToken TokenFunc) (string, error) {
	return o.stream(ctx, o.request(p, o.narrationParams), onToken)
}

func (o *OpenAI) stream(ctx context.Context, req openai.ChatCompletionRequest, onToken TokenFunc) (string, error) {
	ctx, done := o.Begin(ctx)
	defer done()

	stream, err := o.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", o.Wrap(ctx, "openai request", err)
	}
	defer stream.Close()

	var b strings.Builder
	count := 0
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", o.Wrap(ctx, "openai stream", err)
		}
		for _, choice := range resp.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			b.WriteString(choice.Delta.Content)
			count++
			if onToken != nil {
				onToken(choice.Delta.Content, count)
			}
		}
	}
	o.logger.Debug("stream finished", zap.Int("tokens", count))
	return b.String(), nil
}
