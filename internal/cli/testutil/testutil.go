// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

// Result holds the captured output of a command run.
type Result struct {
	Stdout string
	Stderr string
	Err    error
}

// Run executes root with args and stdin, capturing its output.
func Run(t *testing.T, root *cobra.Command, stdin io.Reader, args ...string) Result {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	if stdin == nil {
		stdin = bytes.NewReader(nil)
	}
	root.SetIn(stdin)
	root.SetArgs(args)

	err := root.Execute()
	return Result{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}

// SetupProject creates a temporary directory holding files, makes it the
// working directory and returns its path. Keys are slash-separated paths.
func SetupProject(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
	t.Chdir(dir)
	return dir
}

// ReadFile returns the contents of a file or fails the test.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}
