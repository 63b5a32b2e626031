// Package llm turns natural-language questions into SQL using a
// configurable model provider. It owns prompt assembly, streaming,
// and extraction of the statement from the model's answer.
package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Options selects and configures the model provider.
type Options struct {
	// Provider is one of "ollama", "openai", or "gemini". The openai
	// provider speaks to anything OpenAI-compatible, including LM
	// Studio, via Endpoint.
	Provider string
	Endpoint string
	Model    string
	APIKey   string
}

// Translator produces SQL from questions using one configured model.
type Translator struct {
	model llms.Model
	name  string
}

// New builds a Translator for the configured provider.
func New(ctx context.Context, opts Options) (*Translator, error) {
	var (
		model llms.Model
		err   error
	)

	switch opts.Provider {
	case "", "ollama":
		serverOpts := []ollama.Option{ollama.WithModel(opts.Model)}
		if opts.Endpoint != "" {
			serverOpts = append(serverOpts, ollama.WithServerURL(opts.Endpoint))
		}
		model, err = ollama.New(serverOpts...)

	case "openai", "lmstudio":
		clientOpts := []openai.Option{openai.WithModel(opts.Model)}
		if opts.Endpoint != "" {
			clientOpts = append(clientOpts, openai.WithBaseURL(opts.Endpoint))
		}
		if opts.APIKey != "" {
			clientOpts = append(clientOpts, openai.WithToken(opts.APIKey))
		}
		model, err = openai.New(clientOpts...)

	case "gemini", "googleai":
		model, err = googleai.New(
			ctx,
			googleai.WithAPIKey(opts.APIKey),
			googleai.WithDefaultModel(opts.Model),
		)

	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", opts.Provider, err)
	}

	return &Translator{model: model, name: opts.Model}, nil
}

// ModelName reports the configured model, for the sidebar.
func (t *Translator) ModelName() string {
	return t.name
}
