package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"alfredoptarigan/essay-marker/internal/marking"
)

const (
	DefaultGeminiModel      = "gemini-2.5-flash"
	DefaultGeminiEmbedModel = "text-embedding-004"

	maxEmbeddingInput = 40000
)

// GeminiService embeds guidance passages and, when selected as the provider,
// completes marking prompts.
type GeminiService interface {
	marking.Gateway
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type geminiService struct {
	client     *genai.Client
	modelName  string
	embedModel string
}

func NewGeminiService(apiKey, modelName string) (GeminiService, error) {
	if apiKey == "" {
		return nil, &marking.ConfigurationError{Setting: "GEMINI_API_KEY", Reason: "is not set"}
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:     client,
		modelName:  modelName,
		embedModel: DefaultGeminiEmbedModel,
	}, nil
}

// GenerateEmbedding implements GeminiService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if len(text) > maxEmbeddingInput {
		text = text[:maxEmbeddingInput]
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// Complete implements marking.Gateway.
func (g *geminiService) Complete(ctx context.Context, prompt marking.Prompt, opts marking.CompletionOptions) (string, error) {
	temperature := float32(opts.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	if opts.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxOutputTokens)
	}
	if strings.TrimSpace(prompt.System) != "" {
		config.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}
	if opts.JSONMode || opts.Schema != nil {
		config.ResponseMIMEType = "application/json"
	}
	if opts.Schema != nil {
		config.ResponseJsonSchema = opts.Schema
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt.User), config)
	if err != nil {
		log.Printf("❌ Gemini API error: %v", err)
		return "", classifyGeminiError(ctx, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", &marking.GatewayError{Kind: marking.GatewayNoChoices, Err: marking.ErrNoChoices}
	}

	log.Printf("📊 Gemini response received")
	return resp.Text(), nil
}

func classifyGeminiError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("gemini request aborted: %w", ctx.Err())
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &marking.GatewayError{Kind: marking.GatewayAuth, Err: err}
		case http.StatusTooManyRequests:
			return &marking.GatewayError{Kind: marking.GatewayRateLimit, Err: err}
		}
	}
	return &marking.GatewayError{Kind: marking.GatewayUpstream, Err: err}
}
