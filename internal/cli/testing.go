package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// CLI provides a clean interface for running CLI commands in tests.
// It manages a temp directory and environment variables.
type CLI struct {
	t   *testing.T
	Dir string
	Env map[string]string
}

// NewCLI creates a new test CLI with a temp directory.
func NewCLI(t *testing.T) *CLI {
	t.Helper()

	return &CLI{
		t:   t,
		Dir: t.TempDir(),
		Env: map[string]string{},
	}
}

// Run executes the CLI with the given args and returns stdout, stderr, and exit code.
// Args should not include "tabedit" or "--cwd" - those are added automatically.
func (r *CLI) Run(args ...string) (string, string, int) {
	return r.RunWithInput("", args...)
}

// RunWithInput executes the CLI with stdin and returns stdout, stderr, and exit code.
// stdin must be a string or io.Reader; panics otherwise.
func (r *CLI) RunWithInput(stdin any, args ...string) (string, string, int) {
	var inReader io.Reader

	switch v := stdin.(type) {
	case string:
		inReader = strings.NewReader(v)
	case io.Reader:
		inReader = v
	default:
		panic(fmt.Sprintf("stdin must be string or io.Reader, got %T", stdin))
	}

	var outBuf, errBuf bytes.Buffer

	fullArgs := append([]string{"tabedit", "--cwd", r.Dir}, args...)
	code := Run(inReader, &outBuf, &errBuf, fullArgs, r.Env, nil)

	return outBuf.String(), errBuf.String(), code
}

// MustRun executes the CLI and fails the test if the command returns non-zero.
// Returns trimmed stdout on success.
func (r *CLI) MustRun(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code != 0 {
		r.t.Fatalf("command %v failed with exit code %d\nstderr: %s", args, code, stderr)
	}

	return strings.TrimSpace(stdout)
}

// MustFail executes the CLI and fails the test if the command succeeds.
// Returns trimmed stderr.
func (r *CLI) MustFail(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code == 0 {
		r.t.Fatalf("command %v should have failed but succeeded\nstdout: %s", args, stdout)
	}

	return strings.TrimSpace(stderr)
}

// SongPath returns the path of a song file with the given extension in the
// default song directory.
func (r *CLI) SongPath(name, ext string) string {
	return filepath.Join(r.Dir, name+ext)
}

// ReadSong reads and returns the content of <name>.tab.
func (r *CLI) ReadSong(name string) string {
	r.t.Helper()

	content, err := os.ReadFile(r.SongPath(name, ".tab"))
	if err != nil {
		r.t.Fatalf("failed to read song %s: %v", name, err)
	}

	return string(content)
}

// WriteSong writes content to <name>.tab.
func (r *CLI) WriteSong(name, content string) {
	r.t.Helper()

	err := os.WriteFile(r.SongPath(name, ".tab"), []byte(content), 0o600)
	if err != nil {
		r.t.Fatalf("failed to write song %s: %v", name, err)
	}
}

// WriteFile writes content to a path relative to Dir, creating parents.
func (r *CLI) WriteFile(rel, content string) string {
	r.t.Helper()

	path := filepath.Join(r.Dir, rel)

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		r.t.Fatalf("failed to create dir for %s: %v", rel, err)
	}

	err = os.WriteFile(path, []byte(content), 0o600)
	if err != nil {
		r.t.Fatalf("failed to write %s: %v", rel, err)
	}

	return path
}

// AssertContains fails the test if content doesn't contain substr.
func AssertContains(t *testing.T, content, substr string) {
	t.Helper()

	if !strings.Contains(content, substr) {
		t.Errorf("content should contain %q\ncontent:\n%s", substr, content)
	}
}

// AssertNotContains fails the test if content contains substr.
func AssertNotContains(t *testing.T, content, substr string) {
	t.Helper()

	if strings.Contains(content, substr) {
		t.Errorf("content should NOT contain %q\ncontent:\n%s", substr, content)
	}
}
