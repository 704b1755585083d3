// Package main provides tests for the leapfmt CLI.
package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapfmt/internal/cli"
)

func TestVersionCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Errorf("version command error = %v", err)
	}
	if output := buf.String(); !strings.Contains(output, "leapfmt") {
		t.Errorf("version output should contain 'leapfmt', got: %s", output)
	}
}

func TestFormatCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader("select 1"))
	cmd.SetArgs([]string{"format"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("format command error = %v", err)
	}
	if got := buf.String(); got != "SELECT 1\n" {
		t.Errorf("format output = %q, want %q", got, "SELECT 1\n")
	}
}
