// Package ai wraps the OpenAI chat completions API for the assist features.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared"

	"github.com/practicehub/practicehub/internal/config"
)

const (
	DefaultModel       = "gpt-4o-mini"
	DefaultHTTPTimeout = 60 * time.Second
	MaxRetries         = 2
)

type Client struct {
	api   openaigo.Client
	model string
}

func NewClient(cfg *config.Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.OpenAIAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for AI features")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: DefaultHTTPTimeout}),
		option.WithMaxRetries(MaxRetries),
		option.WithRequestTimeout(DefaultHTTPTimeout),
	}
	if baseURL := strings.TrimRight(strings.TrimSpace(cfg.OpenAIBaseURL), "/"); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	model := strings.TrimSpace(cfg.OpenAIModel)
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		api:   openaigo.NewClient(opts...),
		model: model,
	}, nil
}

// Complete sends a system and user prompt pair and returns the assistant's
// text reply.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openaigo.ChatCompletionNewParams{
		Model: openaigo.ChatModel(c.model),
		Messages: []openaigo.ChatCompletionMessageParamUnion{
			openaigo.SystemMessage(strings.TrimSpace(system)),
			openaigo.UserMessage(strings.TrimSpace(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateJSON sends a system and user prompt pair with a strict JSON-schema
// response format and returns the model's reply as raw JSON bytes. The reply
// is checked to be valid JSON before it is returned.
func (c *Client) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) ([]byte, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openaigo.ChatCompletionNewParams{
		Model: openaigo.ChatModel(c.model),
		Messages: []openaigo.ChatCompletionMessageParamUnion{
			openaigo.SystemMessage(strings.TrimSpace(system)),
			openaigo.UserMessage(strings.TrimSpace(user)),
		},
		ResponseFormat: openaigo.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schemaName,
					Schema: schema,
					Strict: param.NewOpt(true),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("structured completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("structured completion returned no choices")
	}
	raw := []byte(resp.Choices[0].Message.Content)
	if !json.Valid(raw) {
		return nil, fmt.Errorf("structured completion returned invalid JSON")
	}
	return raw, nil
}
