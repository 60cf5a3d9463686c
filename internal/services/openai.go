package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"alfredoptarigan/essay-marker/internal/marking"
)

const DefaultOpenAIModel = "gpt-5.1-2025-11-13"

type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	// RequestTimeout bounds each HTTP request. The caller's context still wins
	// when it is shorter.
	RequestTimeout time.Duration
}

// OpenAIGateway completes prompts with the Chat Completions API.
type OpenAIGateway struct {
	client openai.Client
	model  string
}

var _ marking.Gateway = (*OpenAIGateway)(nil)

// NewOpenAIGateway fails with a *marking.ConfigurationError when no API key is
// configured, before any network call is made.
func NewOpenAIGateway(opts OpenAIOptions) (*OpenAIGateway, error) {
	if opts.APIKey == "" {
		return nil, &marking.ConfigurationError{Setting: "OPENAI_API_KEY", Reason: "is not set"}
	}
	if opts.Model == "" {
		opts.Model = DefaultOpenAIModel
	}

	// Retries belong to the caller; the SDK would otherwise retry 429/5xx twice.
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.RequestTimeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.RequestTimeout))
	}

	return &OpenAIGateway{
		client: openai.NewClient(reqOpts...),
		model:  opts.Model,
	}, nil
}

// Complete implements marking.Gateway.
func (g *OpenAIGateway) Complete(ctx context.Context, prompt marking.Prompt, opts marking.CompletionOptions) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxOutputTokens))
	}

	switch {
	case opts.Schema != nil:
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   opts.SchemaName,
					Schema: opts.Schema,
					Strict: openai.Bool(true),
				},
			},
		}
	case opts.JSONMode:
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classifyOpenAIError(ctx, err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", &marking.GatewayError{Kind: marking.GatewayNoChoices, Err: marking.ErrNoChoices}
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		// The marker maps context errors onto timeout and canceled kinds.
		return fmt.Errorf("openai request aborted: %w", ctx.Err())
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &marking.GatewayError{Kind: marking.GatewayAuth, Err: err}
		case http.StatusTooManyRequests:
			return &marking.GatewayError{Kind: marking.GatewayRateLimit, Err: err}
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return &marking.GatewayError{Kind: marking.GatewayTimeout, Err: err}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &marking.GatewayError{Kind: marking.GatewayTimeout, Err: err}
	}
	return &marking.GatewayError{Kind: marking.GatewayUpstream, Err: err}
}
