package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DocumentationService validates generation requests before handing them to
// a provider and logs each call
type DocumentationService struct {
	provider Provider
}

// NewDocumentationService creates a new documentation service
func NewDocumentationService(provider Provider) *DocumentationService {
	return &DocumentationService{
		provider: provider,
	}
}

// GenerateDocComment validates the request and forwards it to the provider
func (s *DocumentationService) GenerateDocComment(ctx context.Context, req CommentRequest) (string, error) {
	if err := s.validateRequest(req); err != nil {
		return "", fmt.Errorf("invalid request: %w", err)
	}

	start := time.Now()
	response, err := s.provider.GenerateDocComment(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to generate comment: %w", err)
	}

	slog.Debug("generated doc comment",
		slog.String("language", string(req.Language)),
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("response_bytes", len(response)))

	return response, nil
}

// TestConnection tests the connection to the LLM provider
func (s *DocumentationService) TestConnection(ctx context.Context) error {
	return s.provider.TestConnection(ctx)
}

// GetModelInfo returns information about the current model
func (s *DocumentationService) GetModelInfo() ModelInfo {
	return s.provider.GetModelInfo()
}

// validateRequest validates the documentation request
func (s *DocumentationService) validateRequest(req CommentRequest) error {
	if req.Language == "" {
		return fmt.Errorf("language cannot be empty")
	}
	if req.Code == "" {
		return fmt.Errorf("code cannot be empty")
	}
	return nil
}
