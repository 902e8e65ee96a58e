package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"aicomment/pkg/ast"
	"aicomment/pkg/lang"
	"aicomment/pkg/parser"
)

var (
	// ErrEmptyFunctionCode is returned when an explicit function snippet is empty
	ErrEmptyFunctionCode = errors.New("function code must not be empty")
	// ErrUnstagedChanges is returned when the target file has unstaged modifications
	ErrUnstagedChanges = errors.New("file has unstaged changes, commit or stash them first")
	// ErrNoMethods is returned when nothing documentable was found
	ErrNoMethods = errors.New("no methods found")
)

// ChangeChecker reports whether a path has unstaged version-control changes
type ChangeChecker interface {
	HasUnstagedChanges(ctx context.Context, path string) (bool, error)
}

// PrepareOptions controls how a run is set up
type PrepareOptions struct {
	// FunctionCode is parsed instead of the file when HasFunctionCode is set
	FunctionCode    string
	HasFunctionCode bool
	// Language overrides detection from the file extension
	Language lang.Language
	// Checker is consulted in whole-file mode; nil skips the check
	Checker ChangeChecker
	// Parser defaults to parser.New()
	Parser *parser.Parser
}

// Prepare opens filename and extracts the methods a run will visit. Every
// failure here aborts the run before the file is touched.
func Prepare(ctx context.Context, filename string, opts PrepareOptions) (*Document, []*ast.MethodNode, error) {
	if opts.HasFunctionCode && opts.FunctionCode == "" {
		return nil, nil, ErrEmptyFunctionCode
	}

	var (
		doc *Document
		err error
	)
	if opts.Language != lang.Unknown {
		doc, err = OpenAs(filename, opts.Language)
	} else {
		doc, err = Open(filename)
	}
	if err != nil {
		return nil, nil, err
	}

	p := opts.Parser
	if p == nil {
		p = parser.New()
	}

	var nodes []*ast.MethodNode
	if opts.HasFunctionCode {
		nodes, err = p.Parse(ctx, doc.Language(), []byte(opts.FunctionCode))
	} else {
		if opts.Checker != nil {
			dirty, checkErr := opts.Checker.HasUnstagedChanges(ctx, doc.GetFilename())
			if checkErr != nil {
				return nil, nil, fmt.Errorf("failed to check version control status: %w", checkErr)
			}
			if dirty {
				return nil, nil, fmt.Errorf("%w: %s", ErrUnstagedChanges, filename)
			}
		}
		nodes, err = doc.Parse(ctx, p)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	if len(nodes) == 0 {
		return nil, nil, fmt.Errorf("%w in %s", ErrNoMethods, filename)
	}

	slog.Debug("prepared document",
		slog.String("file", doc.GetFilename()),
		slog.String("language", string(doc.Language())),
		slog.Int("methods", len(nodes)))

	return doc, nodes, nil
}
