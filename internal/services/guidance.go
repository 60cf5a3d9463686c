package services

import (
	"context"
	"fmt"
	"strings"
)

// Embedder turns text into a vector. GeminiService satisfies it.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// GuidanceRetriever looks up examiner guidance relevant to a question.
type GuidanceRetriever interface {
	Retrieve(ctx context.Context, question string) (string, error)
}

type guidanceRetriever struct {
	embedder Embedder
	store    GuidanceStore
	limit    int
	minScore float32
}

func NewGuidanceRetriever(embedder Embedder, store GuidanceStore, limit int, minScore float32) GuidanceRetriever {
	if limit <= 0 {
		limit = 3
	}
	return &guidanceRetriever{
		embedder: embedder,
		store:    store,
		limit:    limit,
		minScore: minScore,
	}
}

// Retrieve implements GuidanceRetriever. An empty string means nothing
// relevant was found.
func (r *guidanceRetriever) Retrieve(ctx context.Context, question string) (string, error) {
	embedding, err := r.embedder.GenerateEmbedding(ctx, question)
	if err != nil {
		return "", fmt.Errorf("failed to generate query embedding: %w", err)
	}

	passages, err := r.store.SearchGuidance(ctx, embedding, r.limit, r.minScore)
	if err != nil {
		return "", fmt.Errorf("failed to search guidance: %w", err)
	}

	return FormatGuidance(passages), nil
}

// FormatGuidance renders passages as numbered references for the prompt.
func FormatGuidance(passages []GuidancePassage) string {
	var b strings.Builder
	n := 0
	for _, p := range passages {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		n++
		if n > 1 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s", n, p.Source)
		if p.Kind != "" {
			fmt.Fprintf(&b, " (%s)", p.Kind)
		}
		fmt.Fprintf(&b, ":\n%s", text)
	}
	return b.String()
}
