package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intconfig "github.com/leapstack-labs/leapfmt/internal/config"
	"github.com/leapstack-labs/leapfmt/internal/testutil"
	"github.com/leapstack-labs/leapfmt/pkg/core"
	_ "github.com/leapstack-labs/leapfmt/pkg/dialects/plpgsql"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), intconfig.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func testFlags(t *testing.T) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "config file")
	flags.String("dialect", "", "dialect")
	flags.Int("line-width", 0, "line width")
	flags.Int("indent", 0, "indent width")
	flags.String("tabs", "", "tab policy")
	flags.String("keyword-case", "", "keyword case")
	flags.BoolP("verbose", "v", false, "verbose")
	return flags
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, *intconfig.Defaults(), cfg.FormatConfig)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.File)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `line_width: 80
indent:
  width: 2
  tabs: leading
case:
  keywords: lower
lists:
  comma_list:
    comma:
      value: after
      weight: 2
case_when:
  then:
    - value: new-line
      weight: 1
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, 80, cfg.LineWidth)
	assert.Equal(t, 2, cfg.Indent.Width)
	assert.Equal(t, core.TabsLeading, cfg.Indent.Tabs)
	assert.Equal(t, core.CaseLower, cfg.Case.Keywords)
	assert.Equal(t, core.W(core.CommaAfter, 2), cfg.Lists.CommaList.Comma)
	assert.Equal(t, []core.Weighted[core.ThenPlacement]{core.W(core.ThenNewLine, 1)}, cfg.CaseWhen.Then)

	// untouched keys keep their defaults
	assert.Equal(t, intconfig.Defaults().Lists.FromItems, cfg.Lists.FromItems)
}

func TestLoadFindsFileUpward(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, intconfig.ConfigFileName), []byte("line_width: 60\n"), 0600))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0750))
	t.Chdir(nested)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.LineWidth)
	assert.Equal(t, filepath.Join(root, intconfig.ConfigFileName), cfg.File)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, "line_width: 60\nindent:\n  width: 2\n")
	t.Setenv("LEAPFMT_LINE_WIDTH", "70")
	t.Setenv("LEAPFMT_INDENT__WIDTH", "3")
	t.Setenv("LEAPFMT_CASE__KEYWORDS", "capitalize")

	flags := testFlags(t)
	require.NoError(t, flags.Set("line-width", "90"))
	require.NoError(t, flags.Set("config", path))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.LineWidth, "flag should override env var and config file")
	assert.Equal(t, 3, cfg.Indent.Width, "env var should override config file")
	assert.Equal(t, core.CaseCapitalize, cfg.Case.Keywords)
}

func TestLoadFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	flags := testFlags(t)
	require.NoError(t, flags.Set("tabs", "all"))
	require.NoError(t, flags.Set("keyword-case", "lower"))
	require.NoError(t, flags.Set("dialect", "plpgsql"))
	require.NoError(t, flags.Set("verbose", "true"))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, core.TabsAll, cfg.Indent.Tabs)
	assert.Equal(t, core.CaseLower, cfg.Case.Keywords)
	assert.Equal(t, "plpgsql", cfg.Dialect)
	assert.True(t, cfg.Verbose)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{"unknown key", "line_widht: 80\n", "unable to decode config"},
		{"bad enum", "indent:\n  tabs: sometimes\n", "unable to decode config"},
		{"too narrow", "line_width: 5\n", "line_width"},
		{"unknown dialect", "dialect: oracle\n", "unknown dialect"},
		{"bad output", "output: html\n", "output must be one of"},
		{"malformed yaml", "line_width: [\n", "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestValidateWrapsInvalidOption(t *testing.T) {
	cfg := &Config{FormatConfig: *intconfig.Defaults(), Output: "xml"}
	assert.ErrorIs(t, cfg.Validate(), intconfig.ErrInvalidOption)
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	assert.NotNil(t, GetLogger(ctx))
	assert.Equal(t, intconfig.DefaultLineWidth, GetConfig(ctx).LineWidth)

	logger := testutil.NewTestLogger(t)
	cfg := &Config{Output: OutputJSON}
	ctx = WithConfig(WithLogger(ctx, logger), cfg)
	assert.Same(t, logger, GetLogger(ctx))
	assert.Same(t, cfg, GetConfig(ctx))
}
