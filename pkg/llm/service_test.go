package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"aicomment/pkg/lang"
)

// MockProvider implements Provider interface for testing
type MockProvider struct {
	generateDocCommentFunc func(ctx context.Context, request CommentRequest) (string, error)
	testConnectionFunc     func(ctx context.Context) error
	getModelInfoFunc       func() ModelInfo
}

func (m *MockProvider) GenerateDocComment(ctx context.Context, request CommentRequest) (string, error) {
	if m.generateDocCommentFunc != nil {
		return m.generateDocCommentFunc(ctx, request)
	}
	return "```\n// Mock comment\n" + request.Code + "\n```", nil
}

func (m *MockProvider) TestConnection(ctx context.Context) error {
	if m.testConnectionFunc != nil {
		return m.testConnectionFunc(ctx)
	}
	return nil
}

func (m *MockProvider) GetModelInfo() ModelInfo {
	if m.getModelInfoFunc != nil {
		return m.getModelInfoFunc()
	}
	return ModelInfo{
		Name:        "mock-model",
		Provider:    "mock",
		Version:     "1.0.0",
		ContextSize: 2048,
	}
}

func TestDocumentationService_GenerateDocComment(t *testing.T) {
	tests := []struct {
		name          string
		request       CommentRequest
		mockResponse  string
		mockError     error
		expectError   bool
		errorContains string
	}{
		{
			name:         "successful generation",
			request:      CommentRequest{Language: lang.Go, Code: "func f() {}"},
			mockResponse: "```go\n// f does nothing.\nfunc f() {}\n```",
		},
		{
			name:          "missing language",
			request:       CommentRequest{Code: "func f() {}"},
			expectError:   true,
			errorContains: "language cannot be empty",
		},
		{
			name:          "missing code",
			request:       CommentRequest{Language: lang.Go},
			expectError:   true,
			errorContains: "code cannot be empty",
		},
		{
			name:          "provider error",
			request:       CommentRequest{Language: lang.Go, Code: "func f() {}"},
			mockError:     &ProviderError{Provider: "mock", Message: "boom"},
			expectError:   true,
			errorContains: "failed to generate comment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			provider := &MockProvider{
				generateDocCommentFunc: func(ctx context.Context, request CommentRequest) (string, error) {
					calls++
					return tt.mockResponse, tt.mockError
				},
			}

			service := NewDocumentationService(provider)
			response, err := service.GenerateDocComment(context.Background(), tt.request)

			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error but got none")
				}
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("expected error containing %q, got %q", tt.errorContains, err.Error())
				}
				if tt.mockError != nil {
					var providerErr *ProviderError
					if !errors.As(err, &providerErr) {
						t.Errorf("expected wrapped ProviderError, got %v", err)
					}
				} else if calls != 0 {
					t.Errorf("invalid request should not reach the provider")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if response != tt.mockResponse {
				t.Errorf("expected %q, got %q", tt.mockResponse, response)
			}
		})
	}
}

func TestDocumentationService_TestConnection(t *testing.T) {
	want := errors.New("unreachable")
	service := NewDocumentationService(&MockProvider{
		testConnectionFunc: func(ctx context.Context) error { return want },
	})

	if err := service.TestConnection(context.Background()); !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}

func TestDocumentationService_GetModelInfo(t *testing.T) {
	service := NewDocumentationService(&MockProvider{})
	info := service.GetModelInfo()

	if info.Name != "mock-model" {
		t.Errorf("expected model name 'mock-model', got %q", info.Name)
	}
	if info.ExtendedContext() {
		t.Errorf("2048 context should not be extended")
	}
}
