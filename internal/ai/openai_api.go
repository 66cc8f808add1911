package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// MaxRetries < 0 keeps the client default.
	MaxRetries int
}

// OpenAI extracts entities through a chat completion constrained to the
// extraction JSON schema.
type OpenAI struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

func NewOpenAI(cfg OpenAIConfig, logger *slog.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		logger: logger,
	}, nil
}

func (o *OpenAI) Extract(ctx context.Context, text string) (*Entities, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(buildSystemPrompt()),
			openai.UserMessage(buildUserPrompt(text)),
		},
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "appointment_entities",
					Description: openai.String("Date, time and department of an appointment request"),
					Schema:      extractionSchema,
					Strict:      openai.Bool(true),
				},
			},
		},
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	o.logger.Debug("openai completion finished",
		"model", o.model,
		"elapsed", time.Since(start),
		"choices", len(resp.Choices),
	)

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty response")
	}

	content := resp.Choices[0].Message.Content
	var x extraction
	if err := json.Unmarshal([]byte(content), &x); err != nil {
		return nil, fmt.Errorf("parsing extraction: %w (raw: %s)", err, truncateStr(content, 1000))
	}

	e := x.entities()
	if x.Department != "" && e.Department == "" {
		o.logger.Warn("model returned unknown department", "department", x.Department)
	}
	return e, nil
}
