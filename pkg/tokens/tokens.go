// Package tokens counts model tokens in source text
package tokens

import (
	"fmt"
	"log/slog"

	"github.com/tiktoken-go/tokenizer"
)

// DefaultEncoding is the encoding used by the gpt-3.5 and gpt-4 families
const DefaultEncoding = tokenizer.Cl100kBase

// Counter counts tokens with a tiktoken encoding
type Counter struct {
	enc tokenizer.Codec
}

// NewCounter creates a counter for the given encoding
func NewCounter(encoding tokenizer.Encoding) (*Counter, error) {
	enc, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, fmt.Errorf("invalid encoding %v: %w", encoding, err)
	}
	return &Counter{enc: enc}, nil
}

// New creates a counter for DefaultEncoding
func New() *Counter {
	c, err := NewCounter(DefaultEncoding)
	if err != nil {
		panic(err)
	}
	return c
}

// Count returns the number of tokens in text. When the text cannot be
// encoded it falls back to an estimate of four bytes per token.
func (c *Counter) Count(text string) int {
	count, err := c.enc.Count(text)
	if err != nil {
		slog.Warn("could not count tokens, estimating", slog.Any("error", err))
		return len(text) / 4
	}
	return count
}
