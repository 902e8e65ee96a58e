package document

import (
	"context"
	"errors"
	"os"
	"testing"

	"aicomment/pkg/ast"
	"aicomment/pkg/llm"
	"aicomment/pkg/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLLMService implements LLMService for testing
type mockLLMService struct {
	generateFunc func(ctx context.Context, req llm.CommentRequest) (string, error)
	contextSize  int
	calls        []llm.CommentRequest
}

func (m *mockLLMService) GenerateDocComment(ctx context.Context, req llm.CommentRequest) (string, error) {
	m.calls = append(m.calls, req)
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return "```\n" + req.Code + "\n```", nil
}

func (m *mockLLMService) TestConnection(ctx context.Context) error {
	return nil
}

func (m *mockLLMService) GetModelInfo() llm.ModelInfo {
	size := m.contextSize
	if size == 0 {
		size = 4096
	}
	return llm.ModelInfo{Name: "mock-model", Provider: "mock", ContextSize: size}
}

func respond(text string) func(context.Context, llm.CommentRequest) (string, error) {
	return func(context.Context, llm.CommentRequest) (string, error) { return text, nil }
}

type fakeCounter struct {
	countFunc func(text string) int
	calls     int
}

func (f *fakeCounter) Count(text string) int {
	f.calls++
	if f.countFunc != nil {
		return f.countFunc(text)
	}
	return 7
}

func fixedTokens(n int) *fakeCounter {
	return &fakeCounter{countFunc: func(string) int { return n }}
}

type fakeConfirmer struct {
	answers map[string]bool
	asked   []string
}

func (f *fakeConfirmer) Confirm(ctx context.Context, question string) (bool, error) {
	f.asked = append(f.asked, question)
	return f.answers[question], nil
}

type recordingReporter struct {
	outcomes []MethodOutcome
}

func (r *recordingReporter) Report(o MethodOutcome) {
	r.outcomes = append(r.outcomes, o)
}

func openAndParse(t *testing.T, name, content string) (*Document, []*ast.MethodNode) {
	t.Helper()
	doc, err := Open(writeFile(t, name, content))
	require.NoError(t, err)
	nodes, err := doc.Parse(context.Background(), parser.New())
	require.NoError(t, err)
	return doc, nodes
}

const twoPythonFunctions = `def documented(a, b):
    """Already documented."""
    total = a + b
    total = total * 1
    return total


def add(a, b):
    total = a + b
    total = total * 1
    total = total + 0
    return total
`

const twoPythonFunctionsDocumented = `def documented(a, b):
    """Already documented."""
    total = a + b
    total = total * 1
    return total


def add(a, b):
    """Adds a and b."""
    total = a + b
    total = total * 1
    total = total + 0
    return total
`

func TestRun_EndToEnd(t *testing.T) {
	doc, nodes := openAndParse(t, "calc.py", twoPythonFunctions)
	require.Len(t, nodes, 2)

	llmService := &mockLLMService{generateFunc: respond("```python\n    \"\"\"Adds a and b.\"\"\"\n```")}
	counter := fixedTokens(11)
	reporter := &recordingReporter{}
	service := NewDocumentationService(llmService, counter, WithReporter(reporter))

	result, err := service.Run(context.Background(), doc, nodes, DefaultProcessingOptions())
	require.NoError(t, err)

	assert.Len(t, llmService.calls, 1)
	assert.Equal(t, twoPythonFunctionsDocumented, readFile(t, doc.GetFilename()))

	assert.Equal(t, 2, result.MethodsProcessed)
	assert.Equal(t, 1, result.MethodsUpdated)
	assert.Equal(t, []string{"add"}, result.UpdatedMethods)
	assert.Equal(t, 1, result.Count(OutcomeSkippedHasDoc))
	assert.Equal(t, 1, result.Count(OutcomeGenerated))
	assert.Equal(t, TokenTally{OriginalTokens: 11, GeneratedTokens: 11}, result.Tally)
	assert.Empty(t, result.Errors)
	assert.Equal(t, result.Outcomes, reporter.outcomes)

	// a second run finds both methods documented
	nodes, err = doc.Parse(context.Background(), parser.New())
	require.NoError(t, err)
	llmService.calls = nil

	result, err = service.Run(context.Background(), doc, nodes, DefaultProcessingOptions())
	require.NoError(t, err)
	assert.Empty(t, llmService.calls)
	assert.Equal(t, 2, result.Count(OutcomeSkippedHasDoc))
	assert.Equal(t, twoPythonFunctionsDocumented, readFile(t, doc.GetFilename()))
}

const bigGoFunction = `package demo

func Big(a int) int {
	a++
	a++
	a++
	return a
}
`

func TestRun_TokenBudget(t *testing.T) {
	tests := []struct {
		name        string
		extended    bool
		contextSize int
		want        Outcome
		calls       int
	}{
		{name: "over ceiling", want: OutcomeSkippedTooManyTokens},
		{name: "extended context option", extended: true, want: OutcomeGenerated, calls: 1},
		{name: "extended context model", contextSize: 8192, want: OutcomeGenerated, calls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, nodes := openAndParse(t, "big.go", bigGoFunction)
			llmService := &mockLLMService{
				contextSize:  tt.contextSize,
				generateFunc: respond("```go\n// Big adds three.\nfunc Big(a int) int {\n```"),
			}
			service := NewDocumentationService(llmService, fixedTokens(3000))

			opts := DefaultProcessingOptions()
			opts.ExtendedContext = tt.extended
			result, err := service.Run(context.Background(), doc, nodes, opts)
			require.NoError(t, err)

			require.Len(t, result.Outcomes, 1)
			assert.Equal(t, tt.want, result.Outcomes[0].Outcome)
			assert.Equal(t, 3000, result.Outcomes[0].Tokens)
			assert.Len(t, llmService.calls, tt.calls)

			content := readFile(t, doc.GetFilename())
			if tt.want == OutcomeGenerated {
				assert.Contains(t, content, "// Big adds three.\nfunc Big(a int) int {")
			} else {
				assert.Equal(t, bigGoFunction, content)
			}
		})
	}
}

func TestRun_TallyOrdering(t *testing.T) {
	tests := []struct {
		name         string
		beforeBudget bool
		wantOriginal int
	}{
		{name: "tally before budget", beforeBudget: true, wantOriginal: 3000},
		{name: "tally after budget", beforeBudget: false, wantOriginal: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, nodes := openAndParse(t, "big.go", bigGoFunction)
			llmService := &mockLLMService{}
			service := NewDocumentationService(llmService, fixedTokens(3000))

			opts := DefaultProcessingOptions()
			opts.TallyBeforeBudget = tt.beforeBudget
			result, err := service.Run(context.Background(), doc, nodes, opts)
			require.NoError(t, err)

			assert.Equal(t, OutcomeSkippedTooManyTokens, result.Outcomes[0].Outcome)
			assert.Equal(t, tt.wantOriginal, result.Tally.OriginalTokens)
			assert.Zero(t, result.Tally.GeneratedTokens)
			assert.Empty(t, llmService.calls)
		})
	}
}

func TestRun_TallyOrderingWithinBudget(t *testing.T) {
	for _, beforeBudget := range []bool{true, false} {
		doc, nodes := openAndParse(t, "big.go", bigGoFunction)
		service := NewDocumentationService(&mockLLMService{}, fixedTokens(100))

		opts := DefaultProcessingOptions()
		opts.TallyBeforeBudget = beforeBudget
		opts.DryRun = true
		result, err := service.Run(context.Background(), doc, nodes, opts)
		require.NoError(t, err)
		assert.Equal(t, 100, result.Tally.OriginalTokens)
	}
}

const smallGoFunction = "package demo\n\nfunc Small() {\n\ta := 1\n\t_ = a\n}\n"

func TestRun_LineThreshold(t *testing.T) {
	tests := []struct {
		threshold int
		want      Outcome
	}{
		{threshold: 3, want: OutcomeSkippedBelowThreshold},
		{threshold: 2, want: OutcomeGenerated},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			doc, nodes := openAndParse(t, "small.go", smallGoFunction)
			require.Len(t, nodes, 1)
			require.Equal(t, 3, nodes[0].LineCount())

			llmService := &mockLLMService{generateFunc: respond("```go\n// Small is small.\nfunc Small() {}\n```")}
			service := NewDocumentationService(llmService, &fakeCounter{})

			opts := DefaultProcessingOptions()
			opts.LineThreshold = tt.threshold
			result, err := service.Run(context.Background(), doc, nodes, opts)
			require.NoError(t, err)

			assert.Equal(t, tt.want, result.Outcomes[0].Outcome)
			if tt.want == OutcomeGenerated {
				assert.Len(t, llmService.calls, 1)
				assert.Equal(t, "package demo\n\n// Small is small.\nfunc Small() {\n\ta := 1\n\t_ = a\n}\n", readFile(t, doc.GetFilename()))
			} else {
				assert.Empty(t, llmService.calls)
			}
		})
	}
}

const twoGoFunctions = `package demo

func First(a int) int {
	a++
	a++
	return a
}

func Second(a int) int {
	a--
	a--
	return a
}
`

func TestRun_RecoverableFailures(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     Outcome
		wantErr  bool
	}{
		{name: "no code block", response: "I cannot help with that.", want: OutcomeExtractionFailed, wantErr: true},
		{name: "no comment", response: "```go\nfunc First(a int) int {}\n```", want: OutcomeNothingToInsert},
		{name: "backend error", err: &llm.ProviderError{Provider: "mock", Message: "boom"}, want: OutcomeGenerationFailed, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, nodes := openAndParse(t, "demo.go", twoGoFunctions)
			require.Len(t, nodes, 2)

			llmService := &mockLLMService{}
			llmService.generateFunc = func(ctx context.Context, req llm.CommentRequest) (string, error) {
				if len(llmService.calls) == 1 {
					return tt.response, tt.err
				}
				return "```go\n// Second decrements twice.\n```", nil
			}
			service := NewDocumentationService(llmService, &fakeCounter{})

			opts := DefaultProcessingOptions()
			opts.LineThreshold = 1
			result, err := service.Run(context.Background(), doc, nodes, opts)
			require.NoError(t, err)

			require.Len(t, result.Outcomes, 2)
			assert.Equal(t, tt.want, result.Outcomes[0].Outcome)
			assert.Equal(t, OutcomeGenerated, result.Outcomes[1].Outcome)
			if tt.wantErr {
				require.Len(t, result.Errors, 1)
				assert.Error(t, result.Outcomes[0].Err)
			} else {
				assert.Empty(t, result.Errors)
			}

			content := readFile(t, doc.GetFilename())
			assert.Contains(t, content, "\n\nfunc First(a int) int {\n")
			assert.Contains(t, content, "// Second decrements twice.\nfunc Second(a int) int {\n")
		})
	}
}

func TestRun_PatchTargetMissing(t *testing.T) {
	doc, nodes := openAndParse(t, "demo.go", twoGoFunctions)

	// the file changes under the run
	require.NoError(t, os.WriteFile(doc.GetFilename(), []byte("package demo\n"), 0o640))

	llmService := &mockLLMService{generateFunc: respond("```go\n// Doc.\n```")}
	service := NewDocumentationService(llmService, &fakeCounter{})

	opts := DefaultProcessingOptions()
	opts.LineThreshold = 1
	result, err := service.Run(context.Background(), doc, nodes, opts)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Count(OutcomePatchFailed))
	assert.Len(t, result.Errors, 2)
	assert.ErrorIs(t, result.Errors[0], ErrPatchTargetNotFound)
	assert.Equal(t, "package demo\n", readFile(t, doc.GetFilename()))
}

func TestRun_Modes(t *testing.T) {
	const response = "```go\n// Small is small.\nfunc Small() {\n\t_ = 1 // nothing\n}\n```"

	tests := []struct {
		name   string
		mode   Mode
		inline bool
		source bool
		want   string
	}{
		{
			name: "comment only",
			mode: ModeCommentOnly,
			want: "package demo\n\n// Small is small.\nfunc Small() {\n\ta := 1\n\t_ = a\n}\n",
		},
		{
			name:   "inline",
			mode:   ModeInline,
			inline: true,
			want:   "package demo\n\n// Small is small.\nfunc Small() {\n\t_ = 1 // nothing\n}\n",
		},
		{
			name:   "full replacement",
			mode:   ModeFullReplacement,
			source: true,
			want:   "package demo\n\n// Small is small.\nfunc Small() {\n\t_ = 1 // nothing\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, nodes := openAndParse(t, "small.go", smallGoFunction)
			llmService := &mockLLMService{generateFunc: respond(response)}
			service := NewDocumentationService(llmService, &fakeCounter{})

			opts := DefaultProcessingOptions()
			opts.Mode = tt.mode
			opts.LineThreshold = 0
			result, err := service.Run(context.Background(), doc, nodes, opts)
			require.NoError(t, err)

			assert.Equal(t, OutcomeGenerated, result.Outcomes[0].Outcome)
			require.Len(t, llmService.calls, 1)
			assert.Equal(t, tt.inline, llmService.calls[0].Inline)
			assert.Equal(t, tt.source, llmService.calls[0].WithSourceCode)
			assert.Equal(t, tt.want, readFile(t, doc.GetFilename()))
		})
	}
}

func TestRun_IndentedMethod(t *testing.T) {
	const source = "class Calc {\n  mul(a, b) {\n    const r = a * b;\n    const s = r;\n    return s;\n  }\n}\n"
	const want = "class Calc {\n  /**\n   * Multiplies.\n   */\n  mul(a, b) {\n    const r = a * b;\n    const s = r;\n    return s;\n  }\n}\n"

	doc, nodes := openAndParse(t, "calc.js", source)
	require.Len(t, nodes, 1)
	assert.Equal(t, "  ", nodes[0].Indent)

	llmService := &mockLLMService{generateFunc: respond("```javascript\n/**\n * Multiplies.\n */\nmul(a, b) {}\n```")}
	service := NewDocumentationService(llmService, &fakeCounter{})

	_, err := service.Run(context.Background(), doc, nodes, DefaultProcessingOptions())
	require.NoError(t, err)
	assert.Equal(t, want, readFile(t, doc.GetFilename()))

	nodes, err = doc.Parse(context.Background(), parser.New())
	require.NoError(t, err)
	assert.True(t, nodes[0].HasDocComment)
}

func TestRun_RubyClassMethodRerun(t *testing.T) {
	const source = "class Calc\n  def add(a, b)\n    total = a + b\n    total = total * 1\n    total\n  end\nend\n"
	const want = "class Calc\n  # Adds two numbers.\n  def add(a, b)\n    total = a + b\n    total = total * 1\n    total\n  end\nend\n"

	doc, nodes := openAndParse(t, "calc.rb", source)
	require.Len(t, nodes, 1)

	llmService := &mockLLMService{generateFunc: respond("```ruby\n# Adds two numbers.\n```")}
	service := NewDocumentationService(llmService, &fakeCounter{})

	result, err := service.Run(context.Background(), doc, nodes, DefaultProcessingOptions())
	require.NoError(t, err)
	assert.Len(t, llmService.calls, 1)
	assert.Equal(t, 1, result.Count(OutcomeGenerated))
	assert.Equal(t, want, readFile(t, doc.GetFilename()))

	nodes, err = doc.Parse(context.Background(), parser.New())
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.True(t, nodes[0].HasDocComment)
	llmService.calls = nil

	result, err = service.Run(context.Background(), doc, nodes, DefaultProcessingOptions())
	require.NoError(t, err)
	assert.Empty(t, llmService.calls)
	assert.Equal(t, 1, result.Count(OutcomeSkippedHasDoc))
	assert.Equal(t, want, readFile(t, doc.GetFilename()))
}

func TestRun_DocStringWithoutBodyLine(t *testing.T) {
	const source = "def total(a, b): return (a +\n                         b +\n                         0 +\n                         1)\n"

	doc, nodes := openAndParse(t, "calc.py", source)
	require.Len(t, nodes, 1)

	llmService := &mockLLMService{generateFunc: respond("```python\n\"\"\"Totals a and b.\"\"\"\n```")}
	service := NewDocumentationService(llmService, &fakeCounter{})

	opts := DefaultProcessingOptions()
	opts.LineThreshold = 1
	result, err := service.Run(context.Background(), doc, nodes, opts)
	require.NoError(t, err)

	assert.Len(t, llmService.calls, 1)
	assert.Equal(t, 1, result.Count(OutcomeNothingToInsert))
	assert.Zero(t, result.MethodsUpdated)
	assert.Equal(t, source, readFile(t, doc.GetFilename()))
}

func TestRun_DryRun(t *testing.T) {
	doc, nodes := openAndParse(t, "demo.go", twoGoFunctions)
	llmService := &mockLLMService{}
	service := NewDocumentationService(llmService, &fakeCounter{})

	opts := DefaultProcessingOptions()
	opts.LineThreshold = 1
	opts.DryRun = true
	result, err := service.Run(context.Background(), doc, nodes, opts)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Count(OutcomeWouldGenerate))
	assert.Equal(t, 2, result.MethodsUpdated)
	assert.Empty(t, llmService.calls)
	assert.Equal(t, twoGoFunctions, readFile(t, doc.GetFilename()))
	assert.False(t, doc.IsModified())
}

func TestRun_MaxMethods(t *testing.T) {
	doc, nodes := openAndParse(t, "demo.go", twoGoFunctions)
	llmService := &mockLLMService{generateFunc: respond("```go\n// Doc.\n```")}
	service := NewDocumentationService(llmService, &fakeCounter{})

	opts := DefaultProcessingOptions()
	opts.LineThreshold = 1
	opts.MaxMethods = 1
	result, err := service.Run(context.Background(), doc, nodes, opts)
	require.NoError(t, err)

	assert.Len(t, llmService.calls, 1)
	assert.Len(t, result.Outcomes, 1)
	assert.Equal(t, []string{"First"}, result.UpdatedMethods)
}

func TestRun_Guided(t *testing.T) {
	doc, nodes := openAndParse(t, "demo.go", twoGoFunctions)
	llmService := &mockLLMService{generateFunc: respond("```go\n// Doc.\n```")}
	counter := &fakeCounter{}
	confirmer := &fakeConfirmer{answers: map[string]bool{"Generate doc for Second?": true}}
	service := NewDocumentationService(llmService, counter, WithConfirmer(confirmer))

	opts := DefaultProcessingOptions()
	opts.LineThreshold = 1
	opts.Guided = true
	result, err := service.Run(context.Background(), doc, nodes, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"Generate doc for First?", "Generate doc for Second?"}, confirmer.asked)
	assert.Equal(t, OutcomeSkippedDeclined, result.Outcomes[0].Outcome)
	assert.Equal(t, OutcomeGenerated, result.Outcomes[1].Outcome)
	assert.Len(t, llmService.calls, 1)
	// declined methods are never counted
	assert.Equal(t, 7, result.Tally.OriginalTokens)
}

func TestRun_InvalidOptions(t *testing.T) {
	doc, nodes := openAndParse(t, "demo.go", twoGoFunctions)
	llmService := &mockLLMService{}
	service := NewDocumentationService(llmService, &fakeCounter{})

	opts := DefaultProcessingOptions()
	opts.LineThreshold = -1
	result, err := service.Run(context.Background(), doc, nodes, opts)
	assert.ErrorIs(t, err, ErrNegativeThreshold)
	assert.Nil(t, result)

	opts = DefaultProcessingOptions()
	opts.Guided = true
	_, err = service.Run(context.Background(), doc, nodes, opts)
	assert.ErrorIs(t, err, ErrNoConfirmer)

	assert.Empty(t, llmService.calls)
	assert.Equal(t, twoGoFunctions, readFile(t, doc.GetFilename()))
}

func TestRun_Cancelled(t *testing.T) {
	doc, nodes := openAndParse(t, "demo.go", twoGoFunctions)
	ctx, cancel := context.WithCancel(context.Background())

	llmService := &mockLLMService{}
	llmService.generateFunc = func(ctx context.Context, req llm.CommentRequest) (string, error) {
		cancel()
		return "", ctx.Err()
	}
	service := NewDocumentationService(llmService, &fakeCounter{})

	opts := DefaultProcessingOptions()
	opts.LineThreshold = 1
	result, err := service.Run(ctx, doc, nodes, opts)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, llmService.calls, 1)
	assert.Empty(t, result.Outcomes)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "generated", OutcomeGenerated.String())
	assert.Equal(t, "skipped: too many tokens", OutcomeSkippedTooManyTokens.String())
	assert.True(t, OutcomeSkippedDeclined.Skipped())
	assert.False(t, OutcomeGenerated.Skipped())
	assert.True(t, OutcomePatchFailed.Failed())
	assert.False(t, OutcomeNothingToInsert.Failed())
}
