package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Completer sends a prompt to a text-completion model and returns the raw
// completion text. The text may still contain <think> markup.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options selects and configures the completion backend.
type Options struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

// Client adapts a langchaingo model to Completer.
type Client struct {
	model llms.Model
}

var _ Completer = (*Client)(nil)

// NewClient wraps an already constructed langchaingo model.
func NewClient(model llms.Model) *Client {
	return &Client{model: model}
}

// New builds a Client for the configured provider.
func New(opts Options) (*Client, error) {
	model, err := NewModel(opts)
	if err != nil {
		return nil, err
	}
	return NewClient(model), nil
}

// NewModel returns the underlying langchaingo model, which the embedder also
// reuses when the provider serves embeddings.
func NewModel(opts Options) (llms.Model, error) {
	switch opts.Provider {
	case ProviderOllama, "":
		return newOllama(opts)
	case ProviderOpenAI:
		return newOpenAI(opts)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", opts.Provider)
	}
}

func newOllama(o Options) (*ollama.LLM, error) {
	model := o.Model
	if model == "" {
		model = "qwen3:4b"
	}
	opts := []ollama.Option{ollama.WithModel(model)}
	if o.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(o.BaseURL))
	}
	return ollama.New(opts...)
}

func newOpenAI(o Options) (*openai.LLM, error) {
	if o.APIKey == "" {
		return nil, errors.New("openai provider requires LLM_API_KEY")
	}
	opts := []openai.Option{openai.WithToken(o.APIKey)}
	if o.Model != "" {
		opts = append(opts, openai.WithModel(o.Model))
	}
	if o.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(o.BaseURL))
	}
	return openai.New(opts...)
}

// Complete implements Completer.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt)
	if err != nil {
		return "", fmt.Errorf("calling completion model: %w", err)
	}
	return out, nil
}
