// Package git shells out to the git CLI for the few operations the
// registry needs.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrGitNotFound indicates the git executable is not on PATH.
var ErrGitNotFound = errors.New("git executable not found")

// ErrNotGitRepo indicates the directory is not a git repository.
var ErrNotGitRepo = errors.New("not a git repository")

// FindRepoRoot finds the root of the git repository containing the
// given path. Returns ErrNotGitRepo if not in a git repository.
func FindRepoRoot(path string) (string, error) {
	cmd := exec.Command("git", "-C", path, "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", ErrNotGitRepo
	}
	return strings.TrimSpace(string(output)), nil
}

// IsGitRepo checks if the given path is inside a git repository.
func IsGitRepo(path string) bool {
	_, err := FindRepoRoot(path)
	return err == nil
}

// Clone makes a shallow clone of url into dir.
func Clone(ctx context.Context, url, dir string) error {
	if _, err := exec.LookPath("git"); err != nil {
		return ErrGitNotFound
	}

	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", url, dir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("git clone %s: %s", url, msg)
	}
	return nil
}

// CloneTemp shallow-clones url into a fresh temporary directory and
// returns the directory. The caller owns cleanup.
func CloneTemp(ctx context.Context, url string) (string, error) {
	dir, err := os.MkdirTemp("", "t4l-products-")
	if err != nil {
		return "", err
	}
	if err := Clone(ctx, url, dir); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return dir, nil
}
