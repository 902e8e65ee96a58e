package document

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"aicomment/pkg/lang"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	dirty bool
	err   error
	calls int
}

func (f *fakeChecker) HasUnstagedChanges(ctx context.Context, path string) (bool, error) {
	f.calls++
	return f.dirty, f.err
}

func TestPrepare(t *testing.T) {
	path := writeFile(t, "demo.go", twoGoFunctions)
	checker := &fakeChecker{}

	doc, nodes, err := Prepare(context.Background(), path, PrepareOptions{Checker: checker})
	require.NoError(t, err)
	assert.Equal(t, lang.Go, doc.Language())
	require.Len(t, nodes, 2)
	assert.Equal(t, "First", nodes[0].Name)
	assert.Equal(t, 1, checker.calls)
}

func TestPrepare_FunctionCode(t *testing.T) {
	path := writeFile(t, "demo.go", twoGoFunctions)
	checker := &fakeChecker{dirty: true}

	_, nodes, err := Prepare(context.Background(), path, PrepareOptions{
		FunctionCode:    "func Second(a int) int {\n\ta--\n\ta--\n\treturn a\n}",
		HasFunctionCode: true,
		Checker:         checker,
	})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "Second", nodes[0].Name)
	assert.Zero(t, checker.calls)
}

func TestPrepare_Errors(t *testing.T) {
	goFile := func(t *testing.T) string { return writeFile(t, "demo.go", twoGoFunctions) }

	tests := []struct {
		name    string
		path    func(t *testing.T) string
		opts    PrepareOptions
		wantErr error
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.go") },
			wantErr: ErrFileNotFound,
		},
		{
			name:    "empty function code",
			path:    goFile,
			opts:    PrepareOptions{HasFunctionCode: true},
			wantErr: ErrEmptyFunctionCode,
		},
		{
			name:    "unstaged changes",
			path:    goFile,
			opts:    PrepareOptions{Checker: &fakeChecker{dirty: true}},
			wantErr: ErrUnstagedChanges,
		},
		{
			name:    "no methods",
			path:    func(t *testing.T) string { return writeFile(t, "empty.go", "package demo\n\nvar x = 1\n") },
			wantErr: ErrNoMethods,
		},
		{
			name:    "unsupported language",
			path:    func(t *testing.T) string { return writeFile(t, "notes.txt", "hello") },
			wantErr: lang.ErrUnsupportedLanguage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path(t)
			doc, nodes, err := Prepare(context.Background(), path, tt.opts)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, doc)
			assert.Nil(t, nodes)
		})
	}
}

func TestPrepare_CheckerError(t *testing.T) {
	boom := errors.New("git exploded")
	_, _, err := Prepare(context.Background(), writeFile(t, "demo.go", twoGoFunctions), PrepareOptions{
		Checker: &fakeChecker{err: boom},
	})
	assert.ErrorIs(t, err, boom)
}
