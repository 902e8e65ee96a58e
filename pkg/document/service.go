package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"aicomment/pkg/ast"
	"aicomment/pkg/comment"
	"aicomment/pkg/formatter"
	"aicomment/pkg/lang"
	"aicomment/pkg/llm"
)

// DefaultTokenCeiling is the largest method, in tokens, sent to a model
// without extended context
const DefaultTokenCeiling = 2048

var (
	// ErrNegativeThreshold is returned when the line threshold is below zero
	ErrNegativeThreshold = errors.New("line threshold must not be negative")
	// ErrNoConfirmer is returned when guided mode runs without a Confirmer
	ErrNoConfirmer = errors.New("guided mode requires a confirmer")
)

// LLMService defines the interface for LLM-based documentation generation
type LLMService interface {
	GenerateDocComment(ctx context.Context, req llm.CommentRequest) (string, error)
	TestConnection(ctx context.Context) error
	GetModelInfo() llm.ModelInfo
}

// TokenCounter counts model tokens in text
type TokenCounter interface {
	Count(text string) int
}

// Confirmer asks the user whether to document a method
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// Reporter receives every method outcome as soon as it is decided
type Reporter interface {
	Report(outcome MethodOutcome)
}

// ProgressReporter is optionally implemented by a Reporter that wants to know
// when a backend call starts
type ProgressReporter interface {
	Generating(method *ast.MethodNode)
}

// Outcome is the terminal state of one method in a run
type Outcome int

const (
	OutcomeGenerated Outcome = iota
	OutcomeSkippedHasDoc
	OutcomeSkippedDeclined
	OutcomeSkippedTooManyTokens
	OutcomeSkippedBelowThreshold
	OutcomeExtractionFailed
	OutcomeNothingToInsert
	OutcomePatchFailed
	OutcomeGenerationFailed
	OutcomeWouldGenerate
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGenerated:
		return "generated"
	case OutcomeSkippedHasDoc:
		return "skipped: has doc comment"
	case OutcomeSkippedDeclined:
		return "skipped: declined"
	case OutcomeSkippedTooManyTokens:
		return "skipped: too many tokens"
	case OutcomeSkippedBelowThreshold:
		return "skipped: below line threshold"
	case OutcomeExtractionFailed:
		return "extraction failed"
	case OutcomeNothingToInsert:
		return "nothing to insert"
	case OutcomePatchFailed:
		return "patch failed"
	case OutcomeGenerationFailed:
		return "generation failed"
	case OutcomeWouldGenerate:
		return "would generate"
	default:
		return "unknown"
	}
}

// Skipped reports whether the method was passed over before generation
func (o Outcome) Skipped() bool {
	switch o {
	case OutcomeSkippedHasDoc, OutcomeSkippedDeclined, OutcomeSkippedTooManyTokens, OutcomeSkippedBelowThreshold:
		return true
	}
	return false
}

// Failed reports whether generation was attempted but nothing was written
func (o Outcome) Failed() bool {
	switch o {
	case OutcomeExtractionFailed, OutcomePatchFailed, OutcomeGenerationFailed:
		return true
	}
	return false
}

// MethodOutcome records what happened to one method
type MethodOutcome struct {
	Method          *ast.MethodNode
	Outcome         Outcome
	Tokens          int    // Tokens in the method source, 0 if never counted
	GeneratedTokens int    // Tokens in the raw model response
	Comment         string // Text written into the file
	Err             error  // Cause of a failed outcome
}

// TokenTally accumulates token counts over a run
type TokenTally struct {
	OriginalTokens  int
	GeneratedTokens int
}

// ProcessingOptions contains options for a generation run
type ProcessingOptions struct {
	Mode              Mode // How results are written
	LineThreshold     int  // Methods with at most this many newlines are skipped
	TokenCeiling      int  // Token limit without extended context (0 = DefaultTokenCeiling)
	ExtendedContext   bool // Lift the token ceiling
	TallyBeforeBudget bool // Count a method's tokens even when it is skipped for size
	MaxMethods        int  // Stop after this many generations (0 = unlimited)
	DryRun            bool // Report what would be generated without calling the model
	Guided            bool // Ask before each method
}

// DefaultProcessingOptions returns the options matching the CLI defaults
func DefaultProcessingOptions() ProcessingOptions {
	return ProcessingOptions{
		Mode:              ModeCommentOnly,
		LineThreshold:     3,
		TokenCeiling:      DefaultTokenCeiling,
		TallyBeforeBudget: true,
	}
}

// Validate checks the options before any method is processed
func (o ProcessingOptions) Validate() error {
	if o.LineThreshold < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeThreshold, o.LineThreshold)
	}
	return nil
}

// ProcessingResult contains the result of a generation run
type ProcessingResult struct {
	MethodsProcessed int             // Number of methods visited
	MethodsUpdated   int             // Number of methods written (or that would be, in a dry run)
	UpdatedMethods   []string        // Names of updated methods
	Outcomes         []MethodOutcome // One entry per visited method, in order
	Tally            TokenTally      // Token statistics
	Errors           []error         // Non-fatal errors encountered
}

func (r *ProcessingResult) record(o MethodOutcome) {
	r.MethodsProcessed++
	r.Outcomes = append(r.Outcomes, o)
	if o.Outcome == OutcomeGenerated || o.Outcome == OutcomeWouldGenerate {
		r.MethodsUpdated++
		r.UpdatedMethods = append(r.UpdatedMethods, o.Method.FullName())
	}
	if o.Err != nil {
		r.Errors = append(r.Errors, fmt.Errorf("failed to document %s: %w", o.Method.FullName(), o.Err))
	}
}

// Count returns how many methods ended in outcome
func (r *ProcessingResult) Count(outcome Outcome) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Outcome == outcome {
			n++
		}
	}
	return n
}

// DocumentationService drives generation over the methods of a document
type DocumentationService struct {
	llmService LLMService
	counter    TokenCounter
	confirmer  Confirmer
	reporter   Reporter
}

// ServiceOption configures a DocumentationService
type ServiceOption func(*DocumentationService)

// WithConfirmer sets the confirmer used in guided mode
func WithConfirmer(c Confirmer) ServiceOption {
	return func(s *DocumentationService) { s.confirmer = c }
}

// WithReporter sets the reporter notified of every outcome
func WithReporter(r Reporter) ServiceOption {
	return func(s *DocumentationService) { s.reporter = r }
}

// NewDocumentationService creates a new documentation service
func NewDocumentationService(llmService LLMService, counter TokenCounter, opts ...ServiceOption) *DocumentationService {
	s := &DocumentationService{
		llmService: llmService,
		counter:    counter,
		reporter:   nopReporter{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type nopReporter struct{}

func (nopReporter) Report(MethodOutcome) {}

// Run processes nodes in order against doc. Per-method failures are recorded
// as outcomes and the run continues; an error is returned only for invalid
// options, a failed confirmation, a cancelled context or a failed file write.
// The partial result is returned alongside such an error.
func (s *DocumentationService) Run(ctx context.Context, doc *Document, nodes []*ast.MethodNode, opts ProcessingOptions) (*ProcessingResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Guided && s.confirmer == nil {
		return nil, ErrNoConfirmer
	}
	if opts.TokenCeiling <= 0 {
		opts.TokenCeiling = DefaultTokenCeiling
	}

	extended := opts.ExtendedContext || s.llmService.GetModelInfo().ExtendedContext()

	result := &ProcessingResult{
		UpdatedMethods: make([]string, 0),
		Errors:         make([]error, 0),
	}

	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if opts.MaxMethods > 0 && result.MethodsUpdated >= opts.MaxMethods {
			slog.Debug("method limit reached", slog.Int("max_methods", opts.MaxMethods))
			break
		}

		outcome, err := s.processMethod(ctx, doc, node, opts, extended, &result.Tally)
		if err != nil {
			return result, err
		}

		result.record(outcome)
		s.reporter.Report(outcome)
	}

	return result, nil
}

func (s *DocumentationService) processMethod(ctx context.Context, doc *Document, node *ast.MethodNode, opts ProcessingOptions, extended bool, tally *TokenTally) (MethodOutcome, error) {
	out := MethodOutcome{Method: node}

	if node.HasDocComment {
		out.Outcome = OutcomeSkippedHasDoc
		return out, nil
	}

	if opts.Guided {
		ok, err := s.confirmer.Confirm(ctx, fmt.Sprintf("Generate doc for %s?", node.FullName()))
		if err != nil {
			return out, fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			out.Outcome = OutcomeSkippedDeclined
			return out, nil
		}
	}

	out.Tokens = s.counter.Count(node.Source)
	if opts.TallyBeforeBudget {
		tally.OriginalTokens += out.Tokens
	}

	if out.Tokens > opts.TokenCeiling && !extended {
		out.Outcome = OutcomeSkippedTooManyTokens
		return out, nil
	}
	if !opts.TallyBeforeBudget {
		tally.OriginalTokens += out.Tokens
	}

	if node.LineCount() <= opts.LineThreshold {
		out.Outcome = OutcomeSkippedBelowThreshold
		return out, nil
	}

	if opts.DryRun {
		out.Outcome = OutcomeWouldGenerate
		return out, nil
	}

	if progress, ok := s.reporter.(ProgressReporter); ok {
		progress.Generating(node)
	}

	raw, err := s.llmService.GenerateDocComment(ctx, llm.CommentRequest{
		Language:       doc.Language(),
		Code:           node.Source,
		Inline:         opts.Mode == ModeInline,
		WithSourceCode: opts.Mode == ModeFullReplacement,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, ctxErr
		}
		out.Outcome = OutcomeGenerationFailed
		out.Err = err
		return out, nil
	}

	out.GeneratedTokens = s.counter.Count(raw)
	tally.GeneratedTokens += out.GeneratedTokens

	replacement, mode, err := buildPatch(doc.Language(), node, raw, opts.Mode)
	switch {
	case errors.Is(err, comment.ErrNoCodeBlockFound):
		out.Outcome = OutcomeExtractionFailed
		out.Err = err
		return out, nil
	case err != nil:
		return out, err
	case replacement == "":
		out.Outcome = OutcomeNothingToInsert
		return out, nil
	}

	if err := doc.Apply(node.Source, replacement, mode); err != nil {
		if errors.Is(err, ErrPatchTargetNotFound) {
			out.Outcome = OutcomePatchFailed
			out.Err = err
			return out, nil
		}
		return out, err
	}

	out.Outcome = OutcomeGenerated
	out.Comment = replacement
	return out, nil
}

// buildPatch turns a raw model response into the text written for node and
// the mode used to write it. An empty replacement means nothing to insert.
func buildPatch(language lang.Language, node *ast.MethodNode, raw string, mode Mode) (string, Mode, error) {
	if mode.ReplacesSource() {
		block, err := comment.ExtractFullBlock(raw)
		if err != nil {
			return "", mode, err
		}
		if strings.TrimSpace(block) == "" {
			return "", mode, nil
		}
		// the file already holds the indentation of the first line
		return strings.TrimLeft(block, " \t"), mode, nil
	}

	text, err := comment.ExtractCommentLines(language, raw)
	if err != nil {
		return "", mode, err
	}
	if strings.TrimSpace(text) == "" {
		return "", mode, nil
	}

	if isDocString(language, text) {
		source, ok := formatter.InsertDocString(node.Source, text)
		if !ok {
			// a string above the def would not be a docstring
			return "", mode, nil
		}
		return source, ModeFullReplacement, nil
	}

	return formatter.FormatCommentForInsertion(text, node.Indent), ModeCommentOnly, nil
}

func isDocString(language lang.Language, text string) bool {
	grammar, err := lang.Lookup(language)
	if err != nil || !grammar.BodyDocString {
		return false
	}
	trimmed := strings.TrimSpace(text)
	for _, delim := range grammar.Syntax.DocStringDelims {
		if strings.HasPrefix(trimmed, delim) {
			return true
		}
	}
	return false
}
