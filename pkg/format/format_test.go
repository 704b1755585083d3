package format_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"

	"github.com/leapstack-labs/leapfmt/internal/config"
	"github.com/leapstack-labs/leapfmt/internal/testutil"
	"github.com/leapstack-labs/leapfmt/pkg/core"
	. "github.com/leapstack-labs/leapfmt/pkg/format"
	"github.com/leapstack-labs/leapfmt/pkg/layout"
	"github.com/leapstack-labs/leapfmt/pkg/verify"
)

// inputs returns the *.in.sql fixtures keyed by their golden file name.
func inputs(t *testing.T) map[string]string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("testdata", "*.in.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, matches, "No *.in.sql files found in testdata directory")

	out := make(map[string]string, len(matches))
	for _, path := range matches {
		src, err := os.ReadFile(path)
		require.NoError(t, err, "Failed to read input file %s", path)
		out[strings.TrimSuffix(filepath.Base(path), ".in.sql")+".sql"] = string(src)
	}
	return out
}

func TestGoldenFiles(t *testing.T) {
	for name, src := range inputs(t) {
		t.Run(name, func(t *testing.T) {
			got := String(src, config.Defaults(), WithLogger(testutil.NewTestLogger(t)))
			golden.Assert(t, got, name)
		})
	}
}

func TestIdempotent(t *testing.T) {
	narrow := config.Defaults()
	narrow.LineWidth = 40
	configs := map[string]*core.FormatConfig{
		"defaults": config.Defaults(),
		"narrow":   narrow,
	}
	for cname, cfg := range configs {
		for name, src := range inputs(t) {
			t.Run(cname+"/"+name, func(t *testing.T) {
				once := String(src, cfg)
				assert.Equal(t, once, String(once, cfg))
			})
		}
	}
}

func TestRoundTripEquivalent(t *testing.T) {
	upper := config.Defaults()
	upper.Case.Identifiers = core.CaseUpper
	upper.Indent.Tabs = core.TabsAll
	for cname, cfg := range map[string]*core.FormatConfig{"defaults": config.Defaults(), "upper": upper} {
		for name, src := range inputs(t) {
			t.Run(cname+"/"+name, func(t *testing.T) {
				assert.NoError(t, verify.Equivalent(src, String(src, cfg)))
			})
		}
	}
}

func TestWidthBound(t *testing.T) {
	cfg := config.Defaults()
	cfg.LineWidth = 40
	src := "select customer_id, order_id, product_name, quantity, unit_price, discount " +
		"from orders where quantity > 10 and unit_price < 100 and discount = 0;"

	got := String(src, cfg)
	for _, line := range strings.Split(strings.TrimSuffix(got, "\n"), "\n") {
		atomic := !strings.Contains(strings.TrimSpace(line), " ")
		assert.Truef(t, atomic || layout.TextWidth(line) <= cfg.LineWidth, "line too wide: %q", line)
	}
	assert.Contains(t, got, "SELECT customer_id\n     , order_id\n")
	assert.Contains(t, got, "\nFROM orders\nWHERE quantity > 10 AND unit_price < 100\n      AND discount = 0;\n")
}

func TestStatementsPieces(t *testing.T) {
	src := "select 1;\n\n\n\n-- next\nselect 2;"

	var pieces []string
	for p := range Statements(strings.NewReader(src), config.Defaults()) {
		pieces = append(pieces, p)
	}
	assert.Equal(t, []string{"SELECT 1;\n", "\n", "-- next\n", "SELECT 2;\n"}, pieces)

	for p := range Statements(strings.NewReader(src), config.Defaults()) {
		assert.Equal(t, "SELECT 1;\n", p)
		break
	}
}

func TestBlankLinePolicies(t *testing.T) {
	src := "select 1;\n\n\n\nselect 2;\n"
	tests := []struct {
		policy core.BlankLinePolicy
		want   string
	}{
		{core.BlankLinesRemove, "SELECT 1;\nSELECT 2;\n"},
		{core.BlankLinesCollapse, "SELECT 1;\n\nSELECT 2;\n"},
		{core.BlankLinesPreserve, "SELECT 1;\n\n\n\nSELECT 2;\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			cfg := config.Defaults()
			cfg.BlankLines = tt.policy
			assert.Equal(t, tt.want, String(src, cfg))
		})
	}
}

func TestTabs(t *testing.T) {
	src := "do $$ begin if x > 1 then y := 'a    b'; end if; end $$;"
	tests := []struct {
		policy core.TabPolicy
		want   string
	}{
		{core.TabsNone, "DO $$\nBEGIN\n    IF x > 1 THEN\n        y := 'a    b';\n    END IF;\nEND\n$$;\n"},
		{core.TabsLeading, "DO $$\nBEGIN\n\tIF x > 1 THEN\n\t\ty := 'a    b';\n\tEND IF;\nEND\n$$;\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			cfg := config.Defaults()
			cfg.Indent.Tabs = tt.policy
			got := String(src, cfg)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, String(got, cfg))
		})
	}
}

func TestTabsInsideLines(t *testing.T) {
	cfg := config.Defaults()
	cfg.LineWidth = 20
	cfg.Indent.Tabs = core.TabsAll

	got := String("select aaaa, bbbb, cccc from t;", cfg)
	assert.Equal(t, "SELECT aaaa\n\t , bbbb\n\t , cccc\nFROM t;\n", got)
}

func TestMalformedInputStillFormats(t *testing.T) {
	for _, src := range []string{"SELECT 'abc", "SELECT (a", "SELECT a)", "DO $$ BEGIN", "$$"} {
		got := String(src, config.Defaults())
		assert.NotEmpty(t, got, src)
		assert.True(t, strings.HasSuffix(got, "\n"), src)
	}
}

func TestUnknownDialectFallsBack(t *testing.T) {
	cfg := config.Defaults()
	cfg.Dialect = "nope"
	logger, msgs := testutil.NewRecordingLogger(t)
	assert.Equal(t, "SELECT 1;\n", String("select 1;", cfg, WithLogger(logger)))
	assert.Equal(t, []string{"using postgres dialect"}, msgs.Warnings())
}

func TestTabsKeepForeignBodies(t *testing.T) {
	cfg := config.Defaults()
	cfg.Indent.Tabs = core.TabsLeading
	tests := []struct {
		src  string
		want string
	}{
		{
			"create function f() returns int language plpython3u as $$\nif x:\n    return 1\n$$;",
			"AS $$\nif x:\n    return 1\n$$;\n",
		},
		{
			"do language plpython3u $$\nif x:\n    y = 1\n$$;",
			"$$\nif x:\n    y = 1\n$$;\n",
		},
	}
	for _, tt := range tests {
		got := String(tt.src, cfg)
		assert.Contains(t, got, tt.want)
		assert.NotContains(t, got, "\t")
		assert.Equal(t, got, String(got, cfg))
	}
}

func TestQuoteInForeignBodyKeepsClosingTag(t *testing.T) {
	src := "create function f() returns int as $$\n# don't\nreturn 1\n$$ language plpython3u;\nselect 1;"
	got := String(src, config.Defaults(), WithLogger(testutil.NewTestLogger(t)))

	assert.Contains(t, got, "AS $$\n# don't\nreturn 1\n$$\nLANGUAGE plpython3u;\n")
	assert.True(t, strings.HasSuffix(got, "\nSELECT 1;\n"), got)
	assert.Equal(t, got, String(got, config.Defaults()))
	assert.NoError(t, verify.Equivalent(src, got))
}

func TestJoinConditionWraps(t *testing.T) {
	cfg := config.Defaults()
	cfg.LineWidth = 30
	got := String("select a from t join uuuuuuuu on t.id = uuuuuuuu.id;", cfg)
	assert.Equal(t, "SELECT a\nFROM t\nJOIN uuuuuuuu\n    ON t.id = uuuuuuuu.id;\n", got)

	got = String("select a from t join u on t.id = u.id;", config.Defaults())
	assert.Equal(t, "SELECT a\nFROM t\nJOIN u ON t.id = u.id;\n", got)
}
