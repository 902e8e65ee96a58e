package llm

import (
	"context"
	"log/slog"
	"os/exec"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/local"
)

// DefaultLocalBin is the inference binary used when none is configured
const DefaultLocalBin = "llama-cli"

// LocalProvider implements the Provider interface by running a local
// inference binary through langchaingo
type LocalProvider struct {
	config *Config
	model  llms.Model
}

// NewLocalProvider creates a provider for a model file on disk
func NewLocalProvider(config *Config) (*LocalProvider, error) {
	bin := config.LocalBin
	if bin == "" {
		bin = DefaultLocalBin
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, &ProviderError{
			Provider: "local",
			Message:  "inference binary not found: " + bin,
			Err:      err,
		}
	}

	opts := []local.Option{local.WithBin(bin)}
	if config.ModelPath != "" {
		opts = append(opts, local.WithArgs("--model "+config.ModelPath+" --no-display-prompt"))
	}

	model, err := local.New(opts...)
	if err != nil {
		return nil, &ProviderError{
			Provider: "local",
			Message:  "failed to initialize local model",
			Err:      err,
		}
	}

	return &LocalProvider{config: config, model: model}, nil
}

// GenerateDocComment generates a documentation comment with the local model
func (p *LocalProvider) GenerateDocComment(ctx context.Context, request CommentRequest) (string, error) {
	prompt := SystemPrompt + "\n\n" + BuildPrompt(request)

	slog.Debug("running local model", slog.String("model", p.config.ModelPath))

	completion, err := llms.GenerateFromSinglePrompt(ctx, p.model, prompt,
		llms.WithTemperature(p.config.Temperature),
		llms.WithTopP(p.config.TopP),
	)
	if err != nil {
		return "", &ProviderError{
			Provider: "local",
			Message:  "generation failed",
			Err:      err,
		}
	}

	return cleanResponse(completion), nil
}

// TestConnection reports whether the inference binary is still available
func (p *LocalProvider) TestConnection(ctx context.Context) error {
	bin := p.config.LocalBin
	if bin == "" {
		bin = DefaultLocalBin
	}
	if _, err := exec.LookPath(bin); err != nil {
		return &ProviderError{Provider: "local", Message: "inference binary not found", Err: err}
	}
	return nil
}

// GetModelInfo returns information about the current model
func (p *LocalProvider) GetModelInfo() ModelInfo {
	return ModelInfo{
		Name:        p.config.ModelPath,
		Provider:    "local",
		Version:     "unknown",
		ContextSize: p.config.NumCtx,
	}
}
