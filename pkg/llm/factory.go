package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// NewProvider creates a new LLM provider based on the configuration
func NewProvider(config *Config) (Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	provider := strings.ToLower(config.Provider)

	switch provider {
	case "ollama", "":
		// Default to Ollama if not specified
		return NewOllamaProvider(config), nil
	case "openai":
		return NewOpenAIProvider(config)
	case "azure":
		return NewAzureProvider(config)
	case "local":
		return NewLocalProvider(config)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}
}

// DefaultConfig returns a default configuration for Ollama
func DefaultConfig() *Config {
	return &Config{
		Provider:    "ollama",
		URL:         DefaultOllamaURL,
		Model:       "codellama",
		Temperature: 0.1,
		TopP:        0.9,
		NumCtx:      4096,
		Timeout:     120 * time.Second,
	}
}

// DefaultOpenAIModel is used when the OpenAI backend is selected without a model
const DefaultOpenAIModel = openai.GPT3Dot5Turbo

// Models selectable with the --gpt4 and --gpt3_5-16k flags
const (
	GPT4Model    = openai.GPT4
	GPT35Model16 = openai.GPT3Dot5Turbo16K
)
