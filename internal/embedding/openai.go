// Package embedding turns item and query text into vectors for semantic
// retrieval.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"knowledge_sync/internal/config"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// OpenAI embeds text through any OpenAI compatible embeddings endpoint.
type OpenAI struct {
	client   openai.Client
	model    string
	maxChars int
	logger   *slog.Logger
}

func NewOpenAI(cfg config.EmbeddingConfig, logger *slog.Logger) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(2),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAI{
		client:   openai.NewClient(opts...),
		model:    cfg.Model,
		maxChars: cfg.MaxChars,
		logger:   logger.With("component", "embedding"),
	}
}

func (o *OpenAI) Model() string { return o.model }

// Embed returns nil for blank text without calling the API. Long text is
// cut to the configured character budget.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if runes := []rune(text); o.maxChars > 0 && len(runes) > o.maxChars {
		text = string(runes[:o.maxChars])
	}

	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(o.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("create embedding: empty response")
	}

	o.logger.Debug("embedded text", "chars", len(text), "dims", len(resp.Data[0].Embedding))
	return resp.Data[0].Embedding, nil
}
