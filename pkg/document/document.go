// Package document patches generated documentation into source files and
// drives generation over the methods of a file
package document

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"aicomment/pkg/ast"
	"aicomment/pkg/lang"
	"aicomment/pkg/parser"

	"github.com/sergi/go-diff/diffmatchpatch"
)

var (
	// ErrFileNotFound is returned when the target file does not exist
	ErrFileNotFound = errors.New("file not found")
	// ErrPatchTargetNotFound is returned when the method source no longer occurs in the file
	ErrPatchTargetNotFound = errors.New("method source not found in file")
)

// Mode selects how a generated result is written into the file
type Mode int

const (
	// ModeCommentOnly inserts the comment directly before the method
	ModeCommentOnly Mode = iota
	// ModeInline replaces the method with the returned code, including inline comments
	ModeInline
	// ModeFullReplacement replaces the method with the returned code
	ModeFullReplacement
)

// ModeFor picks the output mode from the CLI switches. Inline wins when both are set.
func ModeFor(inline, withSourceCode bool) Mode {
	switch {
	case inline:
		return ModeInline
	case withSourceCode:
		return ModeFullReplacement
	default:
		return ModeCommentOnly
	}
}

func (m Mode) String() string {
	switch m {
	case ModeInline:
		return "inline-with-code"
	case ModeFullReplacement:
		return "full-replacement-with-code"
	default:
		return "comment-only"
	}
}

// ReplacesSource reports whether the mode replaces the method instead of inserting before it
func (m Mode) ReplacesSource() bool {
	return m == ModeInline || m == ModeFullReplacement
}

// Document is a source file on disk. Every patch re-reads the file, so the
// file stays the single source of truth between patches.
type Document struct {
	filename string        // Absolute path
	language lang.Language // Language used for parsing and extraction
	snapshot []byte        // Content when the document was opened
	perm     fs.FileMode   // Permission bits preserved on write
	backup   bool          // Write <file>.bak before the first patch
	backedUp bool          // Backup already written
	modified bool          // At least one patch was written
}

// Open opens the file at filename, detecting its language from the extension
func Open(filename string) (*Document, error) {
	language, err := lang.Detect(filename)
	if err != nil {
		if _, statErr := os.Stat(filename); statErr != nil {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filename)
		}
		return nil, err
	}
	return OpenAs(filename, language)
}

// OpenAs opens the file at filename with an explicit language
func OpenAs(filename string, language lang.Language) (*Document, error) {
	info, err := os.Stat(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filename)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", filename, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, filename)
	}
	if _, err := lang.Lookup(language); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", filename, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	return &Document{
		filename: absPath,
		language: language,
		snapshot: content,
		perm:     info.Mode().Perm(),
	}, nil
}

// GetFilename returns the document's absolute path
func (d *Document) GetFilename() string {
	return d.filename
}

// Language returns the document's language
func (d *Document) Language() lang.Language {
	return d.language
}

// IsModified returns whether a patch has been written
func (d *Document) IsModified() bool {
	return d.modified
}

// EnableBackup makes the first patch write the opened content to <file>.bak
func (d *Document) EnableBackup(enabled bool) {
	d.backup = enabled
}

// BackupPath returns where the backup is written
func (d *Document) BackupPath() string {
	return d.filename + ".bak"
}

// Content reads the current file content from disk
func (d *Document) Content() ([]byte, error) {
	content, err := os.ReadFile(d.filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", d.filename, err)
	}
	return content, nil
}

// Parse extracts the methods of the current file content
func (d *Document) Parse(ctx context.Context, p *parser.Parser) ([]*ast.MethodNode, error) {
	content, err := d.Content()
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, d.language, content)
}

// Apply writes replacement into the file at the first exact occurrence of
// original. ModeCommentOnly inserts replacement immediately before the match;
// the other modes replace the match. When original does not occur the file is
// left untouched and ErrPatchTargetNotFound is returned.
func (d *Document) Apply(original, replacement string, mode Mode) error {
	content, err := d.Content()
	if err != nil {
		return err
	}

	updated, err := patch(string(content), original, replacement, mode)
	if err != nil {
		return err
	}

	if d.backup && !d.backedUp {
		if err := os.WriteFile(d.BackupPath(), d.snapshot, d.perm); err != nil {
			return fmt.Errorf("failed to create backup %s: %w", d.BackupPath(), err)
		}
		d.backedUp = true
	}

	if err := os.WriteFile(d.filename, []byte(updated), d.perm); err != nil {
		return fmt.Errorf("failed to write file %s: %w", d.filename, err)
	}

	d.modified = true
	return nil
}

func patch(content, original, replacement string, mode Mode) (string, error) {
	idx := -1
	if original != "" {
		idx = strings.Index(content, original)
	}
	if idx < 0 {
		return "", ErrPatchTargetNotFound
	}

	if mode.ReplacesSource() {
		return content[:idx] + replacement + content[idx+len(original):], nil
	}
	return content[:idx] + replacement + content[idx:], nil
}

// Diff returns a line diff between the content at open time and the file now.
// It is empty when nothing changed.
func (d *Document) Diff() (string, error) {
	current, err := d.Content()
	if err != nil {
		return "", err
	}
	return LineDiff(string(d.snapshot), string(current)), nil
}

// LineDiff renders a line-oriented diff with "-" and "+" markers. Unchanged
// lines are omitted except for one line of context around each change.
func LineDiff(before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for i, diff := range diffs {
		if diff.Text == "" {
			continue
		}
		chunk := strings.Split(strings.TrimSuffix(diff.Text, "\n"), "\n")

		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			writePrefixed(&out, "-", chunk)
		case diffmatchpatch.DiffInsert:
			writePrefixed(&out, "+", chunk)
		case diffmatchpatch.DiffEqual:
			// one line of context next to each change
			switch {
			case i == 0:
				writePrefixed(&out, " ", chunk[len(chunk)-1:])
			case i == len(diffs)-1:
				writePrefixed(&out, " ", chunk[:1])
			case len(chunk) <= 2:
				writePrefixed(&out, " ", chunk)
			default:
				writePrefixed(&out, " ", chunk[:1])
				out.WriteString("...\n")
				writePrefixed(&out, " ", chunk[len(chunk)-1:])
			}
		}
	}
	return out.String()
}

func writePrefixed(out *strings.Builder, prefix string, lines []string) {
	for _, line := range lines {
		out.WriteString(prefix + line + "\n")
	}
}

// String returns a short description of the document
func (d *Document) String() string {
	return fmt.Sprintf("Document{filename: %s, language: %s, modified: %t}", d.filename, d.language, d.modified)
}
