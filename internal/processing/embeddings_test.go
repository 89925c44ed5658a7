package processing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/Divas-Gupta30/support-triage/internal/llm"
)

type fakeEmbedderClient struct {
	dim   int
	err   error
	calls [][]string
}

func (f *fakeEmbedderClient) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, f.dim)
		v[0] = float32(len(t))
		out[i] = v
	}
	return out, nil
}

func newTestEmbedder(t *testing.T, client *fakeEmbedderClient, dim int) *Embedder {
	t.Helper()
	impl, err := embeddings.NewEmbedder(client)
	require.NoError(t, err)
	return WrapEmbedder(impl, dim)
}

func TestEmbedChunks(t *testing.T) {
	client := &fakeEmbedderClient{dim: 4}
	e := newTestEmbedder(t, client, 4)

	out, err := e.EmbedChunks(context.Background(), []string{"a", "bbb"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, float32(1), out[0][0])
	assert.Equal(t, float32(3), out[1][0])
}

func TestEmbedChunksRejectsEmptyInput(t *testing.T) {
	e := newTestEmbedder(t, &fakeEmbedderClient{dim: 4}, 4)
	_, err := e.EmbedChunks(context.Background(), nil)
	assert.Error(t, err)
}

func TestEmbedQueryChecksDimension(t *testing.T) {
	e := newTestEmbedder(t, &fakeEmbedderClient{dim: 3}, EmbeddingDim)
	_, err := e.EmbedQuery(context.Background(), "printer offline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected embedding dim 384, got 3")

	e = newTestEmbedder(t, &fakeEmbedderClient{dim: 3}, 0)
	v, err := e.EmbedQuery(context.Background(), "printer offline")
	require.NoError(t, err)
	assert.Len(t, v, 3)
}

func TestEmbedQueryErrors(t *testing.T) {
	boom := errors.New("model not pulled")
	e := newTestEmbedder(t, &fakeEmbedderClient{dim: 3, err: boom}, 3)

	_, err := e.EmbedQuery(context.Background(), "q")
	assert.ErrorIs(t, err, boom)

	_, err = e.EmbedQuery(context.Background(), "")
	assert.Error(t, err)
}

func TestNewEmbedderProviders(t *testing.T) {
	_, err := NewEmbedder(llm.Options{Provider: "bedrock"}, EmbeddingDim)
	assert.ErrorContains(t, err, "unsupported embedding provider")

	_, err = NewEmbedder(llm.Options{Provider: llm.ProviderOpenAI}, EmbeddingDim)
	assert.ErrorContains(t, err, "LLM_API_KEY")

	e, err := NewEmbedder(llm.Options{Provider: llm.ProviderOllama, BaseURL: "http://127.0.0.1:11434"}, EmbeddingDim)
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestMetadataMap(t *testing.T) {
	m := Metadata{Source: "combined.csv", Row: 4, Chunk: 1, ImportedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)}
	assert.Equal(t, map[string]any{
		"source":      "combined.csv",
		"row":         4,
		"chunk":       1,
		"imported_at": "2024-05-01T09:30:00Z",
	}, m.Map())
}
