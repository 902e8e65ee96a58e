package llm

import (
	"context"
	"time"

	"aicomment/pkg/lang"
)

// ExtendedContextThreshold is the context size above which a model counts
// as extended-context, lifting the per-method token ceiling
const ExtendedContextThreshold = 4096

// Provider represents a generic LLM provider interface
type Provider interface {
	// GenerateDocComment asks the model to document a method and returns the
	// raw response text, expected to contain a fenced code block
	GenerateDocComment(ctx context.Context, request CommentRequest) (string, error)

	// TestConnection verifies the LLM provider is accessible
	TestConnection(ctx context.Context) error

	// GetModelInfo returns information about the current model
	GetModelInfo() ModelInfo
}

// CommentRequest represents a request for comment generation
type CommentRequest struct {
	Language       lang.Language          // Language of the method source
	Code           string                 // Method source, including leading comments
	Inline         bool                   // Also ask for inline comments in the body
	WithSourceCode bool                   // The response replaces the whole method
	Options        map[string]interface{} // Provider-specific options
}

// ModelInfo contains information about the LLM model
type ModelInfo struct {
	Name        string
	Provider    string
	Version     string
	ContextSize int
}

// ExtendedContext reports whether the model accepts methods above the default token ceiling
func (m ModelInfo) ExtendedContext() bool {
	return m.ContextSize > ExtendedContextThreshold
}

// Config represents configuration for LLM providers
type Config struct {
	Provider    string                 `yaml:"provider"`    // Provider type (ollama, openai, azure, local)
	URL         string                 `yaml:"url"`         // Provider URL (Ollama base URL, OpenAI-compatible base URL, Azure endpoint)
	Model       string                 `yaml:"model"`       // Model name
	APIKey      string                 `yaml:"-"`           // Read from the environment only
	Deployment  string                 `yaml:"deployment"`  // Azure deployment name
	ModelPath   string                 `yaml:"model_path"`  // Local model file
	LocalBin    string                 `yaml:"local_bin"`   // Local inference binary
	Temperature float64                `yaml:"temperature"` // Generation temperature
	TopP        float64                `yaml:"top_p"`       // Top-p sampling
	NumCtx      int                    `yaml:"num_ctx"`     // Context window size
	Timeout     time.Duration          `yaml:"timeout"`     // Request timeout
	Options     map[string]interface{} `yaml:"options"`     // Provider-specific options
}

// Error types for better error handling
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Provider + ": " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
