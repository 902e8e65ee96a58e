// Package ux renders generation progress and summaries for the terminal.
package ux

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"aicomment/pkg/ast"
	"aicomment/pkg/document"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
)

var (
	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#2C4A54")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}{
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
}

// Console prints one line per method outcome. It implements
// document.Reporter and document.ProgressReporter.
type Console struct {
	out    io.Writer
	styled bool
}

// NewConsole writes to stdout, styling output only when stdout is a terminal
func NewConsole() *Console {
	fd := os.Stdout.Fd()
	return NewConsoleWithWriter(os.Stdout, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// NewConsoleWithWriter writes to w
func NewConsoleWithWriter(w io.Writer, styled bool) *Console {
	return &Console{out: w, styled: styled}
}

func (c *Console) render(style lipgloss.Style, text string) string {
	if !c.styled {
		return text
	}
	return style.Render(text)
}

func (c *Console) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

// Generating announces a backend call for method
func (c *Console) Generating(method *ast.MethodNode) {
	c.printf("🔧 Generating doc comment for %s...\n", c.render(Styles.Bold, method.FullName()))
}

// Report prints the outcome of one method
func (c *Console) Report(o document.MethodOutcome) {
	name := c.render(Styles.Bold, o.Method.FullName())

	switch o.Outcome {
	case document.OutcomeSkippedHasDoc:
		c.printf("⁉️ Method %s already has a doc comment. Skipping...\n", name)
	case document.OutcomeSkippedDeclined:
		c.printf("%s\n", c.render(Styles.Muted, fmt.Sprintf("⏭️ Method %s skipped.", o.Method.FullName())))
	case document.OutcomeSkippedTooManyTokens:
		c.printf("❌ Method %s has too many tokens. Consider using %s or %s. Skipping for now...\n",
			name, c.render(Styles.Bold, "--gpt4"), c.render(Styles.Bold, "--gpt3_5-16k"))
	case document.OutcomeSkippedBelowThreshold:
		c.printf("❌ Method %s does not satisfy the line_threshold. Skipping...\n", name)
	case document.OutcomeWouldGenerate:
		c.printf("📝 Doc comment for %s would be generated (%d tokens).\n", name, o.Tokens)
	case document.OutcomeGenerated:
		c.printf("%s\n", c.render(Styles.Success, fmt.Sprintf("✅ Doc comment for %s generated.", o.Method.FullName())))
	case document.OutcomeNothingToInsert:
		c.printf("%s\n", c.render(Styles.Warning, fmt.Sprintf("⚠️ No comment found for %s in the model response. Skipping...", o.Method.FullName())))
	default:
		c.printf("%s\n", c.render(Styles.Error, fmt.Sprintf("❌ Doc comment for %s failed: %v", o.Method.FullName(), o.Err)))
	}
}

// Tally prints the token statistics of a run
func (c *Console) Tally(t document.TokenTally) {
	c.printf("📊 Total Input Tokens: %d\n", t.OriginalTokens)
	c.printf("🚀 Total Generated Tokens: %d\n", t.GeneratedTokens)
}

// Summary prints a table with one row per method outcome
func (c *Console) Summary(result *document.ProcessingResult) {
	if result == nil || len(result.Outcomes) == 0 {
		return
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Method", "Lines", "Tokens", "Outcome"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})

	for _, o := range result.Outcomes {
		table.Append([]string{
			o.Method.FullName(),
			fmt.Sprintf("%d", o.Method.LineCount()),
			fmt.Sprintf("%d", o.Tokens),
			o.Outcome.String(),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Methods %d", result.MethodsProcessed),
		"",
		fmt.Sprintf("%d", result.Tally.OriginalTokens),
		fmt.Sprintf("%d updated", result.MethodsUpdated),
	})

	table.Render()
	c.printf("\n%s", tableBuffer.String())
}

// Diff prints a line diff with additions and removals colored
func (c *Console) Diff(filename, diff string) {
	if diff == "" {
		c.printf("No changes to %s\n", filename)
		return
	}

	c.printf("%s\n", c.render(Styles.Bold, "--- "+filename))
	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		switch {
		case len(line) > 0 && line[0] == '+':
			c.printf("%s\n", c.render(Styles.Success, line))
		case len(line) > 0 && line[0] == '-':
			c.printf("%s\n", c.render(Styles.Error, line))
		default:
			c.printf("%s\n", c.render(Styles.Muted, line))
		}
	}
}

// Info prints a plain status line
func (c *Console) Info(text string) {
	c.printf("%s\n", text)
}

// Warn prints a warning line
func (c *Console) Warn(text string) {
	c.printf("%s\n", c.render(Styles.Warning, "Warning: "+text))
}
