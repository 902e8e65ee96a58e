// Package formatter lays out generated comments for insertion and runs
// external source formatters
package formatter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"aicomment/pkg/lang"
)

var (
	// ErrNoFormatter is returned for languages without a configured formatter
	ErrNoFormatter = errors.New("no formatter configured for language")
	// ErrFormatterNotFound is returned when the formatter binary is not installed
	ErrFormatterNotFound = errors.New("formatter not installed")
)

// Tool describes an external formatter that rewrites a file in place
type Tool struct {
	Command string
	Args    []string
}

var defaultTools = map[lang.Language]Tool{
	lang.C:          {Command: "clang-format", Args: []string{"-i"}},
	lang.Cpp:        {Command: "clang-format", Args: []string{"-i"}},
	lang.Java:       {Command: "clang-format", Args: []string{"-i"}},
	lang.CSharp:     {Command: "clang-format", Args: []string{"-i"}},
	lang.Go:         {Command: "gofmt", Args: []string{"-w"}},
	lang.Rust:       {Command: "rustfmt"},
	lang.Python:     {Command: "black", Args: []string{"-q"}},
	lang.JavaScript: {Command: "prettier", Args: []string{"--write", "--log-level", "warn"}},
	lang.TypeScript: {Command: "prettier", Args: []string{"--write", "--log-level", "warn"}},
	lang.TSX:        {Command: "prettier", Args: []string{"--write", "--log-level", "warn"}},
	lang.Kotlin:     {Command: "ktlint", Args: []string{"-F"}},
	lang.Ruby:       {Command: "rubocop", Args: []string{"-a", "--format", "quiet"}},
	lang.PHP:        {Command: "php-cs-fixer", Args: []string{"fix", "--quiet"}},
}

// Formatter handles comment layout and external formatting
type Formatter struct {
	tools map[lang.Language]Tool
}

// New creates a new formatter
func New() *Formatter {
	tools := make(map[lang.Language]Tool, len(defaultTools))
	for l, t := range defaultTools {
		tools[l] = t
	}
	return &Formatter{tools: tools}
}

// SetTool overrides the external formatter used for a language
func (f *Formatter) SetTool(l lang.Language, tool Tool) {
	f.tools[l] = tool
}

// Tool returns the external formatter configured for a language
func (f *Formatter) Tool(l lang.Language) (Tool, bool) {
	t, ok := f.tools[l]
	return t, ok
}

// FormatFile runs the language's formatter over path in place
func (f *Formatter) FormatFile(ctx context.Context, path string, l lang.Language) error {
	tool, ok := f.tools[l]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoFormatter, l)
	}
	if _, err := exec.LookPath(tool.Command); err != nil {
		return fmt.Errorf("%w: %s", ErrFormatterNotFound, tool.Command)
	}

	args := append(append([]string{}, tool.Args...), path)
	cmd := exec.CommandContext(ctx, tool.Command, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", tool.Command, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// FormatCode formats a code snippet through a temporary file
func (f *Formatter) FormatCode(ctx context.Context, code string, l lang.Language) (string, error) {
	grammar, err := lang.Lookup(l)
	if err != nil {
		return "", err
	}

	dir, err := os.MkdirTemp("", "aicomment-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	tmpFile := filepath.Join(dir, "snippet"+grammar.Extensions[0])
	if err := os.WriteFile(tmpFile, []byte(code), 0644); err != nil {
		return "", fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := f.FormatFile(ctx, tmpFile, l); err != nil {
		return "", err
	}

	formatted, err := os.ReadFile(tmpFile)
	if err != nil {
		return "", fmt.Errorf("failed to read formatted file: %w", err)
	}
	return string(formatted), nil
}

// Dedent removes the whitespace prefix shared by all non-blank lines
func Dedent(text string) string {
	lines := strings.Split(text, "\n")

	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := getLineIndentation(line)
		if first {
			prefix, first = indent, false
			continue
		}
		prefix = commonPrefix(prefix, indent)
	}

	if prefix == "" {
		return text
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
		if strings.TrimSpace(lines[i]) == "" {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

// FormatCommentForInsertion lays out comment so it can be inserted directly
// in front of a method whose first line is preceded by indent. The first line
// carries no indentation (the file already has it), following lines are
// indented, and the result ends with a newline plus indent so the method keeps
// its position. An empty comment yields an empty string.
func FormatCommentForInsertion(comment, indent string) string {
	comment = strings.Trim(Dedent(strings.Trim(comment, "\n")), "\n")
	if strings.TrimSpace(comment) == "" {
		return ""
	}

	var result strings.Builder
	for i, line := range strings.Split(comment, "\n") {
		if i > 0 {
			result.WriteString("\n")
			if line != "" {
				result.WriteString(indent)
			}
		}
		result.WriteString(strings.TrimRight(line, " \t"))
	}
	result.WriteString("\n" + indent)
	return result.String()
}

// InsertDocString places docstring as the first statement of the Python
// function in source. It reports false when the function body starts on its
// signature line and the docstring cannot be placed.
func InsertDocString(source, docstring string) (string, bool) {
	docstring = strings.Trim(Dedent(strings.Trim(docstring, "\n")), "\n")
	if strings.TrimSpace(docstring) == "" {
		return source, false
	}

	headerEnd := signatureEnd(source)
	if headerEnd < 0 {
		return source, false
	}

	rest := source[headerEnd:]
	bodyIndent := ""
	for _, line := range strings.Split(rest, "\n") {
		if strings.TrimSpace(line) != "" {
			bodyIndent = getLineIndentation(line)
			break
		}
	}
	if bodyIndent == "" {
		return source, false
	}

	var doc strings.Builder
	for _, line := range strings.Split(docstring, "\n") {
		if line != "" {
			doc.WriteString(bodyIndent)
		}
		doc.WriteString(strings.TrimRight(line, " \t"))
		doc.WriteString("\n")
	}
	return source[:headerEnd] + doc.String() + rest, true
}

// signatureEnd returns the offset just past the newline that ends the "def"
// header, or -1 when the header is followed by code on the same line.
func signatureEnd(source string) int {
	start := -1
	for offset, line := 0, ""; offset < len(source); offset += len(line) + 1 {
		line = source[offset:]
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "async def ") {
			start = offset + strings.Index(line, "def ")
			break
		}
	}
	if start < 0 {
		return -1
	}

	depth := 0
	for i := start; i < len(source); i++ {
		switch source[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ':':
			if depth != 0 {
				continue
			}
			nl := strings.IndexByte(source[i:], '\n')
			if nl < 0 {
				return -1
			}
			tail := strings.TrimSpace(source[i+1 : i+nl])
			if tail != "" && !strings.HasPrefix(tail, "#") {
				return -1
			}
			return i + nl + 1
		}
	}
	return -1
}

// getLineIndentation returns the indentation (spaces/tabs) of a line
func getLineIndentation(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
