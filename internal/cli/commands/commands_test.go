package commands

import (
	"bytes"
	"io"
	"testing"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapfmt/internal/cli/config"
	"github.com/leapstack-labs/leapfmt/internal/cli/output"
	"github.com/leapstack-labs/leapfmt/internal/testutil"
	_ "github.com/leapstack-labs/leapfmt/pkg/dialects/plpgsql"
)

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewFormatCommand(), "format [paths...]", []string{"write", "check", "diff", "verify", "jobs"}},
		{NewServeCommand(), "serve", []string{"addr"}},
		{NewREPLCommand(), "repl", nil},
		{NewWatchCommand(), "watch [dir]", nil},
		{NewDialectsCommand(), "dialects", nil},
		{NewConfigCommand(), "config", nil},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}

	assert.Equal(t, []string{"fmt"}, NewFormatCommand().Aliases)
	assert.True(t, NewConfigCommand().HasSubCommands())
}

func TestNewVersionCommand(t *testing.T) {
	for _, version := range []string{"0.1.0", "1.2.3", "dev"} {
		t.Run(version, func(t *testing.T) {
			cmd := NewVersionCommand(version)
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)

			require.NoError(t, cmd.Execute())
			assert.Contains(t, buf.String(), "leapfmt v"+version)
			assert.Contains(t, buf.String(), "PL/pgSQL")
		})
	}
}

// fakeReader replays lines, then io.EOF.
type fakeReader struct {
	lines   []any // string or error
	prompts []string
}

func (f *fakeReader) Readline() (string, error) {
	if len(f.lines) == 0 {
		return "", io.EOF
	}
	next := f.lines[0]
	f.lines = f.lines[1:]
	if err, ok := next.(error); ok {
		return "", err
	}
	return next.(string), nil
}

func (f *fakeReader) SetPrompt(p string) { f.prompts = append(f.prompts, p) }

func testContext(t *testing.T, out io.Writer) *CommandContext {
	t.Helper()
	cfg := config.GetConfig(t.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   testutil.NewTestLogger(t),
		Renderer: output.NewRenderer(out, out, output.ModeText),
	}
}

func TestREPLLoop(t *testing.T) {
	var out, errOut bytes.Buffer
	rl := &fakeReader{lines: []any{
		"",
		"select a,",
		"b from t;",
		"do $$ begin",
		"null;",
		"end $$;",
		"select 'dropped'",
		readline.ErrInterrupt,
		".width 20",
		"select aaaa, bbbb, cccc from t;",
		".bogus",
		"select 1",
	}}

	require.NoError(t, replLoop(rl, &out, &errOut, testContext(t, &out)))

	assert.Equal(t, "SELECT a, b\nFROM t;\n"+
		"DO $$\nBEGIN\n    NULL;\nEND\n$$;\n"+
		"SELECT aaaa\n     , bbbb\n     , cccc\nFROM t;\n"+
		"SELECT 1\n", out.String())
	assert.Contains(t, errOut.String(), "unknown command: .bogus")
	assert.Contains(t, rl.prompts, replContPrompt)
	assert.Equal(t, replPrompt, rl.prompts[len(rl.prompts)-2])
}

func TestREPLQuit(t *testing.T) {
	var out, errOut bytes.Buffer
	rl := &fakeReader{lines: []any{".quit", "select 1;"}}
	require.NoError(t, replLoop(rl, &out, &errOut, testContext(t, &out)))
	assert.Empty(t, out.String())
}

func TestREPLCommandValidation(t *testing.T) {
	cfg := config.GetConfig(t.Context()).FormatConfig
	var out bytes.Buffer

	_, err := replCommand(&out, &cfg, ".width 5")
	require.Error(t, err)
	assert.Equal(t, 100, cfg.LineWidth, "invalid width must not be applied")

	_, err = replCommand(&out, &cfg, ".dialect oracle")
	require.Error(t, err)
	assert.Equal(t, "postgres", cfg.Dialect)

	_, err = replCommand(&out, &cfg, ".dialect plpgsql")
	require.NoError(t, err)
	assert.Equal(t, "plpgsql", cfg.Dialect)

	quit, err := replCommand(&out, &cfg, ".help")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Contains(t, out.String(), ".width N")
}

func TestStatementComplete(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"select 1;", true},
		{"select 1; -- done", true},
		{"select 1", false},
		{"do $$ begin null;", false},
		{"do $$ begin null; end $$;", true},
		{"select ';'", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statementComplete(tt.src), tt.src)
	}
}
