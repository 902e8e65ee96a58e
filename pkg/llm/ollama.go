package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
)

// DefaultOllamaURL is the base URL of a local Ollama server
const DefaultOllamaURL = "http://localhost:11434"

// OllamaProvider implements the Provider interface for Ollama
type OllamaProvider struct {
	config *Config
	client *http.Client
}

// NewOllamaProvider creates a new Ollama provider instance
func NewOllamaProvider(config *Config) *OllamaProvider {
	return &OllamaProvider{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// OllamaRequest represents the request structure for Ollama API
type OllamaRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	System  string                 `json:"system,omitempty"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// OllamaResponse represents the response structure from Ollama API
type OllamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// GenerateDocComment generates a documentation comment using Ollama
func (p *OllamaProvider) GenerateDocComment(ctx context.Context, request CommentRequest) (string, error) {
	// Prepare request options
	options := make(map[string]interface{})
	options["temperature"] = p.config.Temperature
	options["top_p"] = p.config.TopP
	if p.config.NumCtx > 0 {
		options["num_ctx"] = p.config.NumCtx
	}
	for k, v := range p.config.Options {
		options[k] = v
	}
	for k, v := range request.Options {
		options[k] = v
	}

	ollamaReq := OllamaRequest{
		Model:   p.config.Model,
		Prompt:  BuildPrompt(request),
		System:  SystemPrompt,
		Stream:  false,
		Options: options,
	}

	jsonData, err := json.Marshal(ollamaReq)
	if err != nil {
		return "", &ProviderError{
			Provider: "ollama",
			Message:  "failed to marshal request",
			Err:      err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint("/api/generate"), bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &ProviderError{
			Provider: "ollama",
			Message:  "failed to create HTTP request",
			Err:      err,
		}
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("sending generate request", slog.String("provider", "ollama"), slog.String("model", p.config.Model))

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &ProviderError{
			Provider: "ollama",
			Message:  "HTTP request failed",
			Err:      err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &ProviderError{
			Provider: "ollama",
			Message:  fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	var ollamaResp OllamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", &ProviderError{
			Provider: "ollama",
			Message:  "failed to decode response",
			Err:      err,
		}
	}

	return cleanResponse(ollamaResp.Response), nil
}

// TestConnection verifies Ollama is accessible
func (p *OllamaProvider) TestConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint("/api/tags"), nil)
	if err != nil {
		return &ProviderError{
			Provider: "ollama",
			Message:  "failed to create test request",
			Err:      err,
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return &ProviderError{
			Provider: "ollama",
			Message:  "connection test failed",
			Err:      err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ProviderError{
			Provider: "ollama",
			Message:  fmt.Sprintf("connection test returned HTTP %d", resp.StatusCode),
		}
	}

	return nil
}

// GetModelInfo returns information about the current model
func (p *OllamaProvider) GetModelInfo() ModelInfo {
	return ModelInfo{
		Name:        p.config.Model,
		Provider:    "ollama",
		Version:     "unknown", // Ollama doesn't provide version info easily
		ContextSize: p.config.NumCtx,
	}
}

// endpoint joins an API path onto the configured base URL. A URL that
// already names an API route is reduced to its base first.
func (p *OllamaProvider) endpoint(path string) string {
	base := p.config.URL
	if base == "" {
		base = DefaultOllamaURL
	}
	if i := strings.Index(base, "/api/"); i >= 0 {
		base = base[:i]
	}
	return strings.TrimRight(base, "/") + path
}

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// cleanResponse removes reasoning traces some local models emit before the answer
func cleanResponse(response string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(response, ""))
}
