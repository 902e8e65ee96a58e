// Package vcs reports version-control state of files about to be rewritten
package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTimeout bounds a single git invocation
const DefaultTimeout = 30 * time.Second

// Git checks file state with the git command line
type Git struct {
	bin     string
	timeout time.Duration
}

// NewGit creates a checker that runs git from PATH
func NewGit() *Git {
	return &Git{bin: "git", timeout: DefaultTimeout}
}

// HasUnstagedChanges reports whether path differs from the git index. Files
// outside a repository, untracked files and a missing git binary all count
// as having no unstaged changes.
func (g *Git) HasUnstagedChanges(ctx context.Context, path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to get absolute path for %s: %w", path, err)
	}

	if _, err := exec.LookPath(g.bin); err != nil {
		slog.Warn("git not found, skipping unstaged changes check", slog.String("file", abs))
		return false, nil
	}

	if _, err := g.run(ctx, filepath.Dir(abs), "rev-parse", "--is-inside-work-tree"); err != nil {
		slog.Debug("file is not inside a git work tree", slog.String("file", abs))
		return false, nil
	}

	_, err = g.run(ctx, filepath.Dir(abs), "diff", "--quiet", "--", filepath.Base(abs))
	if err == nil {
		return false, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, err
}

// run executes a git command in dir and returns stdout
func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, g.bin, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("git %s: timeout after %v", args[0], g.timeout)
		}
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}
