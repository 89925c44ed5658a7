package processing

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Divas-Gupta30/support-triage/internal/llm"
)

// EmbeddingDim is the vector size of the default all-minilm model.
const EmbeddingDim = 384

const defaultEmbeddingModel = "all-minilm"

// Embedder produces vectors for chunks and queries. A non-zero dim makes
// every returned vector's length checked against it.
type Embedder struct {
	impl embeddings.Embedder
	dim  int
}

// NewEmbedder builds an embedder on the configured provider. opts.Model is
// the embedding model name.
func NewEmbedder(opts llm.Options, dim int) (*Embedder, error) {
	client, err := newEmbedderClient(opts)
	if err != nil {
		return nil, err
	}
	impl, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return WrapEmbedder(impl, dim), nil
}

// WrapEmbedder wraps an existing langchaingo embedder.
func WrapEmbedder(impl embeddings.Embedder, dim int) *Embedder {
	return &Embedder{impl: impl, dim: dim}
}

func newEmbedderClient(o llm.Options) (embeddings.EmbedderClient, error) {
	model := o.Model
	switch o.Provider {
	case llm.ProviderOllama, "":
		if model == "" {
			model = defaultEmbeddingModel
		}
		opts := []ollama.Option{ollama.WithModel(model)}
		if o.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(o.BaseURL))
		}
		return ollama.New(opts...)
	case llm.ProviderOpenAI:
		if o.APIKey == "" {
			return nil, errors.New("openai provider requires LLM_API_KEY")
		}
		opts := []openai.Option{openai.WithToken(o.APIKey)}
		if model != "" {
			opts = append(opts, openai.WithEmbeddingModel(model))
		}
		if o.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(o.BaseURL))
		}
		return openai.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.Provider)
	}
}

// EmbedChunks produces one embedding per chunk.
func (e *Embedder) EmbedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, errors.New("no chunks")
	}
	out, err := e.impl.EmbedDocuments(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(out) != len(chunks) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(chunks), len(out))
	}
	for i, v := range out {
		if err := e.checkDim(v); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
	}
	return out, nil
}

// EmbedQuery produces an embedding for a query string.
func (e *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if query == "" {
		return nil, errors.New("empty query")
	}
	v, err := e.impl.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if err := e.checkDim(v); err != nil {
		return nil, err
	}
	return v, nil
}

func (e *Embedder) checkDim(v []float32) error {
	if e.dim > 0 && len(v) != e.dim {
		return fmt.Errorf("expected embedding dim %d, got %d", e.dim, len(v))
	}
	return nil
}
