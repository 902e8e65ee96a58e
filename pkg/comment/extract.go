// Package comment pulls code and documentation comments out of model
// responses formatted as Markdown.
package comment

import (
	"bytes"
	"errors"
	"strings"

	"aicomment/pkg/lang"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ErrNoCodeBlockFound is returned when a response holds no terminated fenced code block
var ErrNoCodeBlockFound = errors.New("no fenced code block found in response")

// ExtractFullBlock returns the contents of the first fenced code block in raw,
// without the fence lines and without the final newline.
func ExtractFullBlock(raw string) (string, error) {
	return firstFencedBlock([]byte(raw))
}

// ExtractCommentLines returns the lines of the first fenced code block that
// belong to a comment in language: line comments, block comments spanning
// several lines and docstrings. Lines keep their original indentation. An
// empty string means the block contained no comments.
func ExtractCommentLines(language lang.Language, raw string) (string, error) {
	grammar, err := lang.Lookup(language)
	if err != nil {
		return "", err
	}

	block, err := firstFencedBlock([]byte(raw))
	if err != nil {
		return "", err
	}

	return commentLines(grammar.Syntax, block), nil
}

func firstFencedBlock(src []byte) (string, error) {
	// goldmark treats an unterminated fence as running to EOF
	if !firstFenceTerminated(src) {
		return "", ErrNoCodeBlockFound
	}

	root := goldmark.New().Parser().Parse(text.NewReader(src))
	if root == nil {
		return "", ErrNoCodeBlockFound
	}

	var (
		found bool
		code  string
	)
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		found = true
		code = fencedCodeContent(src, fcb)
		return ast.WalkStop, nil
	})
	if err != nil || !found {
		return "", ErrNoCodeBlockFound
	}

	return strings.TrimSuffix(code, "\n"), nil
}

func fencedCodeContent(src []byte, fcb *ast.FencedCodeBlock) string {
	lines := fcb.Lines()
	if lines == nil {
		return ""
	}

	var buf bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if seg.Start < 0 || seg.Stop < seg.Start || seg.Stop > len(src) {
			continue
		}
		buf.Write(seg.Value(src))
	}
	return buf.String()
}

// firstFenceTerminated reports whether the first ``` or ~~~ fence in src has
// a matching closing fence.
func firstFenceTerminated(src []byte) bool {
	var (
		open  byte
		width int
	)
	for _, line := range bytes.Split(src, []byte("\n")) {
		trim := bytes.TrimLeft(line, " \t")
		if len(trim) < 3 || (trim[0] != '`' && trim[0] != '~') {
			continue
		}
		n := countLeading(trim, trim[0])
		if n < 3 {
			continue
		}

		if open == 0 {
			open, width = trim[0], n
			continue
		}
		if trim[0] == open && n >= width && len(bytes.TrimSpace(trim[n:])) == 0 {
			return true
		}
	}
	return false
}

func countLeading(b []byte, c byte) int {
	n := 0
	for n < len(b) && b[n] == c {
		n++
	}
	return n
}

func commentLines(syntax lang.CommentSyntax, block string) string {
	var (
		kept      []string
		closeWith string
	)

	for _, line := range strings.Split(block, "\n") {
		trimmed := strings.TrimSpace(line)

		if closeWith != "" {
			kept = append(kept, line)
			if strings.Contains(trimmed, closeWith) {
				closeWith = ""
			}
			continue
		}

		if syntax.BlockOpen != "" && strings.HasPrefix(trimmed, syntax.BlockOpen) {
			kept = append(kept, line)
			rest := trimmed[len(syntax.BlockOpen):]
			if !strings.Contains(rest, syntax.BlockClose) {
				closeWith = syntax.BlockClose
			}
			continue
		}

		if delim, ok := docStringOpen(syntax, trimmed); ok {
			kept = append(kept, line)
			if strings.Count(trimmed, delim) == 1 {
				closeWith = delim
			}
			continue
		}

		for _, prefix := range syntax.LinePrefixes {
			if strings.HasPrefix(trimmed, prefix) {
				kept = append(kept, line)
				break
			}
		}
	}

	return strings.Join(kept, "\n")
}

func docStringOpen(syntax lang.CommentSyntax, trimmed string) (string, bool) {
	for _, delim := range syntax.DocStringDelims {
		if strings.HasPrefix(trimmed, delim) {
			return delim, true
		}
	}
	return "", false
}
