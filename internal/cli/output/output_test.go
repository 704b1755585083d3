package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRendererResolvesAuto(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &out, ModeAuto)
	assert.Equal(t, ModeText, r.Mode())
	assert.Equal(t, ModeJSON, NewRenderer(&out, &out, ModeJSON).Mode())
	assert.False(t, IsTerminal(&out))
}

func TestPlainStyles(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &out, ModeText)
	assert.Equal(t, "text", r.Styles().Header.Render("text"))

	r.Warnf("%s changed", "a.sql")
	assert.Equal(t, "warning: a.sql changed\n", out.String())
}

func TestUnifiedDiff(t *testing.T) {
	d, err := UnifiedDiff("q.sql", "select 1;\n", "select 1;\n")
	require.NoError(t, err)
	assert.Empty(t, d)

	d, err = UnifiedDiff("q.sql", "select 1;\n", "SELECT 1;\n")
	require.NoError(t, err)
	assert.Contains(t, d, "--- q.sql\n")
	assert.Contains(t, d, "+++ q.sql (formatted)\n")
	assert.Contains(t, d, "-select 1;\n")
	assert.Contains(t, d, "+SELECT 1;\n")
}

func TestDiff(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &out, ModeText)
	require.NoError(t, r.Diff("q.sql", "a\nb\n", "a\nc\n"))
	assert.Contains(t, out.String(), "-b\n+c\n")
}

func TestTableAndJSON(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &out, ModeText)
	r.Table([]string{"Name", "Procedural"}, [][]string{{"plpgsql", "yes"}})
	assert.Contains(t, out.String(), "plpgsql")
	assert.Contains(t, out.String(), "PROCEDURAL")

	out.Reset()
	require.NoError(t, r.JSON(map[string]int{"changed": 2}))
	assert.Equal(t, "{\n  \"changed\": 2\n}\n", out.String())
}
