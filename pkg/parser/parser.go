// Package parser extracts method-level units from source code using
// tree-sitter grammars.
package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"aicomment/pkg/ast"
	"aicomment/pkg/lang"

	sitter "github.com/smacker/go-tree-sitter"
)

// DefaultMaxFileSize is the largest buffer Parse accepts unless overridden
const DefaultMaxFileSize = 10 * 1024 * 1024

var (
	// ErrFileTooLarge is returned when the source exceeds the configured size limit
	ErrFileTooLarge = errors.New("source too large")
	// ErrInvalidContent is returned when the source is not valid UTF-8
	ErrInvalidContent = errors.New("invalid source content")
)

// Option configures a Parser
type Option func(*Parser)

// WithMaxFileSize sets the maximum number of bytes Parse accepts
func WithMaxFileSize(bytes int64) Option {
	return func(p *Parser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// Parser turns source buffers into ordered method nodes. A Parser holds no
// tree-sitter state between calls and is safe for concurrent use.
type Parser struct {
	maxFileSize int64
}

// New creates a new parser
func New(opts ...Option) *Parser {
	p := &Parser{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts every function and method definition from content, in
// source order. Classes, namespaces, modules and similar containers are
// searched recursively; function bodies are not, so nested functions are part
// of their enclosing unit.
//
// An empty result is not an error. lang.ErrUnsupportedLanguage is returned
// when no grammar is registered for language.
func (p *Parser) Parse(ctx context.Context, language lang.Language, content []byte) ([]*ast.MethodNode, error) {
	grammar, err := lang.Lookup(language)
	if err != nil {
		return nil, err
	}

	if int64(len(content)) > p.maxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	sp := sitter.NewParser()
	defer sp.Close()
	sp.SetLanguage(grammar.TreeSitter())

	tree, err := sp.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		slog.Debug("source contains syntax errors, results may be partial",
			slog.String("language", string(language)))
	}

	w := &walker{grammar: grammar, content: content}
	w.walk(root, nil)

	slog.Debug("parsed methods",
		slog.String("language", string(language)),
		slog.Int("methods", len(w.nodes)))

	return w.nodes, nil
}
