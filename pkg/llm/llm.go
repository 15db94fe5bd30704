package llm

import (
	"context"
	"errors"
	"fmt"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go-nexus/pkg/models"
)

type Message struct {
	Role    models.Role `json:"role"`
	Content string      `json:"content"`
}

// Service is the language-model collaborator. Implementations report failures as models.KindService errors.
type Service interface {
	Complete(ctx context.Context, messages []Message, opts ...Option) (string, error)
}

type Options struct {
	Temperature *float64
	MaxTokens   int
}

type Option func(*Options)

func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.Temperature = &t
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func (o Options) apply(opts []Option) Options {
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

type Config struct {
	Provider       string
	Model          string
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	Temperature    float64
	MaxTokens      int
	MaxRetries     uint
}

var ErrUnknownProvider = errors.New("unknown llm provider")

// New builds the configured provider wrapped in the retry policy.
func New(cfg Config) (Service, error) {
	defaults := []Option{WithTemperature(cfg.Temperature)}
	if cfg.MaxTokens > 0 {
		defaults = append(defaults, WithMaxTokens(cfg.MaxTokens))
	}

	var svc Service
	switch cfg.Provider {
	case "", "openai":
		model, err := openai.New(openAIOptions(cfg)...)
		if err != nil {
			return nil, fmt.Errorf("openai: %w", err)
		}
		svc = NewLangChain(model, defaults...)
	case "anthropic":
		svc = NewAnthropic(cfg.APIKey, cfg.Model, defaults...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}

	if cfg.MaxRetries <= 1 {
		return svc, nil
	}
	return WithRetry(svc, cfg.MaxRetries), nil
}

// NewEmbedder returns an OpenAI embedder. Other providers have no embeddings endpoint here.
func NewEmbedder(cfg Config) (embeddings.Embedder, error) {
	if cfg.Provider != "" && cfg.Provider != "openai" {
		return nil, fmt.Errorf("%w: %s has no embedder", ErrUnknownProvider, cfg.Provider)
	}
	client, err := openai.New(openAIOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	e, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	return e, nil
}

func openAIOptions(cfg Config) []openai.Option {
	var opts []openai.Option
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.EmbeddingModel != "" {
		opts = append(opts, openai.WithEmbeddingModel(cfg.EmbeddingModel))
	}
	return opts
}

func serviceErr(op string, err error) error {
	return models.NewError(models.KindService, op, err)
}
