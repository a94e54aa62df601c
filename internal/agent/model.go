package agent

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	DefaultModel       = "gpt-4o"
	DefaultTemperature = 0.7

	// APIKeyEnv is read when no API key is configured explicitly.
	APIKeyEnv = "OPENAI_API_KEY"
)

// ModelConfig selects and configures the language model an agent is bound to.
type ModelConfig struct {
	Name string
	// Temperature nil means DefaultTemperature.
	Temperature *float64
	APIKey      string
	BaseURL     string
}

// Temperature returns a pointer for ModelConfig.Temperature.
func Temperature(v float64) *float64 {
	return &v
}

func (c ModelConfig) withDefaults() ModelConfig {
	if c.Name == "" {
		c.Name = DefaultModel
	}
	if c.Temperature == nil {
		c.Temperature = Temperature(DefaultTemperature)
	}
	return c
}

// Binding is an instantiated model client plus the sampling settings used on every call.
type Binding struct {
	Model       llms.Model
	Name        string
	Temperature float64
}

// ModelBinder instantiates model clients.
type ModelBinder interface {
	Bind(ctx context.Context, cfg ModelConfig) (Binding, error)
}

// BinderFunc adapts a function to ModelBinder.
type BinderFunc func(ctx context.Context, cfg ModelConfig) (Binding, error)

func (f BinderFunc) Bind(ctx context.Context, cfg ModelConfig) (Binding, error) {
	return f(ctx, cfg)
}

// StaticBinder binds every agent to the same model client.
func StaticBinder(model llms.Model) ModelBinder {
	return BinderFunc(func(ctx context.Context, cfg ModelConfig) (Binding, error) {
		return Binding{Model: model, Name: cfg.Name, Temperature: *cfg.Temperature}, nil
	})
}

// OpenAIBinder binds agents to OpenAI-compatible chat models via langchaingo.
type OpenAIBinder struct {
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

func (b OpenAIBinder) Bind(ctx context.Context, cfg ModelConfig) (Binding, error) {
	getenv := b.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	token := cfg.APIKey
	if token == "" {
		token = getenv(APIKeyEnv)
	}
	if token == "" {
		return Binding{}, &ModelBindingError{Model: cfg.Name, Err: errors.Wrapf(ErrMissingCredentials, "set %s or providers.openai.api_key", APIKeyEnv)}
	}

	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithModel(cfg.Name),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return Binding{}, &ModelBindingError{Model: cfg.Name, Err: err}
	}
	return Binding{Model: llm, Name: cfg.Name, Temperature: *cfg.Temperature}, nil
}
