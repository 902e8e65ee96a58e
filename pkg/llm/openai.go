package llm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrMissingAPIKey is returned when a hosted backend has no credentials configured
var ErrMissingAPIKey = errors.New("missing API key")

// Context windows of the hosted models the CLI can select
var openAIContextSizes = map[string]int{
	openai.GPT3Dot5Turbo:    4096,
	openai.GPT3Dot5Turbo16K: 16384,
	openai.GPT4:             8192,
	openai.GPT432K:          32768,
	openai.GPT4o:            128000,
	openai.GPT4oMini:        128000,
}

// OpenAIProvider implements the Provider interface for OpenAI chat models and
// Azure OpenAI deployments
type OpenAIProvider struct {
	config *Config
	client *openai.Client
	name   string
}

// NewOpenAIProvider creates a provider for the OpenAI API. Config.URL, when
// set, points at an OpenAI-compatible base URL.
func NewOpenAIProvider(config *Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, &ProviderError{Provider: "openai", Message: "OPENAI_API_KEY is not set", Err: ErrMissingAPIKey}
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.URL != "" {
		clientConfig.BaseURL = strings.TrimRight(config.URL, "/")
	}
	clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}

	return &OpenAIProvider{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
		name:   "openai",
	}, nil
}

// NewAzureProvider creates a provider for an Azure OpenAI deployment. Every
// request is routed to Config.Deployment regardless of the model name.
func NewAzureProvider(config *Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, &ProviderError{Provider: "azure", Message: "AZURE_OPENAI_API_KEY is not set", Err: ErrMissingAPIKey}
	}
	if config.URL == "" {
		return nil, &ProviderError{Provider: "azure", Message: "AZURE_OPENAI_ENDPOINT is not set"}
	}
	if config.Deployment == "" {
		return nil, &ProviderError{Provider: "azure", Message: "no deployment configured"}
	}

	clientConfig := openai.DefaultAzureConfig(config.APIKey, config.URL)
	deployment := config.Deployment
	clientConfig.AzureModelMapperFunc = func(string) string {
		return deployment
	}
	clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}

	return &OpenAIProvider{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
		name:   "azure",
	}, nil
}

// GenerateDocComment generates a documentation comment with a chat completion
func (p *OpenAIProvider) GenerateDocComment(ctx context.Context, request CommentRequest) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(request)},
		},
		Temperature: float32(p.config.Temperature),
		TopP:        float32(p.config.TopP),
	}

	slog.Debug("sending chat completion", slog.String("provider", p.name), slog.String("model", p.config.Model))

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &ProviderError{
			Provider: p.name,
			Message:  "chat completion failed",
			Err:      err,
		}
	}

	if len(resp.Choices) == 0 {
		return "", &ProviderError{
			Provider: p.name,
			Message:  "response contained no choices",
		}
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// TestConnection verifies the API is reachable with the configured key
func (p *OpenAIProvider) TestConnection(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return &ProviderError{
			Provider: p.name,
			Message:  "connection test failed",
			Err:      err,
		}
	}
	return nil
}

// GetModelInfo returns information about the current model
func (p *OpenAIProvider) GetModelInfo() ModelInfo {
	size := p.config.NumCtx
	if known, ok := openAIContextSizes[p.config.Model]; ok {
		size = known
	}

	name := p.config.Model
	if p.name == "azure" {
		name = p.config.Deployment
	}

	return ModelInfo{
		Name:        name,
		Provider:    p.name,
		Version:     "unknown",
		ContextSize: size,
	}
}
