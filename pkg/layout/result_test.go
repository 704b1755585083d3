package layout

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// measure recomputes width and height from the final text.
func measure(s string, start int) (width, height int) {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		w := TextWidth(l)
		if i == 0 {
			w += start
		}
		width = max(width, w)
	}
	return width, len(lines)
}

func TestMultiLinesMetricsMatchText(t *testing.T) {
	words := []string{"a", "SELECT", "größe", "表", "x  ", "(", "-- c"}
	for seed := range uint64(200) {
		rng := rand.New(rand.NewPCG(seed, 7))
		start := rng.IntN(12)
		m := NewMultiLines(start, rng.IntN(8))

		for range 40 {
			switch rng.IntN(9) {
			case 0, 1, 2:
				m.AddText(words[rng.IntN(len(words))])
			case 3:
				m.AddSpace()
			case 4:
				m.AddLine()
			case 5:
				m.PositionAt(rng.IntN(20))
			case 6:
				m.SetIndent(rng.IntN(10))
			case 7:
				m.AddEolComment("-- note", rng.IntN(2) == 0)
			case 8:
				if rng.IntN(4) == 0 {
					m.AddRaw("'one  \ntwo'")
				} else {
					m.PositionAfterLastNonWhitespace()
				}
			}
		}

		width, height := m.Width(), m.Height()
		text := m.String()
		wantWidth, wantHeight := measure(text, start)
		require.Equalf(t, wantHeight, height, "seed %d: %q", seed, text)
		require.Equalf(t, wantWidth, width, "seed %d: %q", seed, text)
	}
}

func TestMultiLinesFirstLineOffset(t *testing.T) {
	m := NewMultiLines(10, 10)
	m.AddText("abc")
	assert.Equal(t, 13, m.Column())
	assert.Equal(t, 13, m.Width())
	m.AddLine()
	assert.Equal(t, 10, m.Column())
	m.AddText("de")
	assert.Equal(t, 13, m.Width())
	assert.Equal(t, "abc\n          de", m.String())
}

func TestMultiLinesSpaces(t *testing.T) {
	m := NewMultiLines(0, 0)
	m.AddSpace()
	m.AddText("a")
	m.AddSpace()
	m.AddSpace()
	m.AddText("b")
	m.AddSpace()
	assert.Equal(t, "a b", m.String())

	m = NewMultiLines(4, 0)
	m.AddSpace()
	m.AddText("x")
	assert.Equal(t, " x", m.String())
}

func TestMultiLinesEolComment(t *testing.T) {
	m := NewMultiLines(0, 2)
	m.AddText("a")
	m.AddLine()
	m.AddEolComment("-- c", true)
	m.AddText("b")
	assert.Equal(t, "a -- c\n  b", m.String())
}

func TestMultiLinesGlueAfterBlankLines(t *testing.T) {
	m := NewMultiLines(0, 0)
	m.AddText("END")
	m.AddLine()
	m.AddLine()
	m.PositionAt(4)
	m.PositionAfterLastNonWhitespace()
	m.AddText(";")
	assert.Equal(t, "END;", m.String())
	assert.Equal(t, 1, m.Height())
}

func TestMultiLinesSplice(t *testing.T) {
	m := NewMultiLines(0, 0)
	m.AddText("SELECT ")
	child := m.Child()
	child.SetIndent(child.Column())
	child.AddText("a")
	child.AddLine()
	child.AddText(", b")
	m.AddResult(child)
	m.AddText(" x")
	assert.Equal(t, "SELECT a\n       , b x", m.String())
	assert.Equal(t, 12, m.Width())
}

func TestMultiLinesFinalization(t *testing.T) {
	m := NewMultiLines(0, 0)
	m.AddText("a")
	assert.Equal(t, "a", m.String())
	assert.Equal(t, "a", m.String())

	assert.PanicsWithValue(t, "layout: MultiLines mutated after finalization", func() { m.AddText("b") })
	assert.Panics(t, func() { m.AddLine() })
	assert.Panics(t, func() { m.SetIndent(2) })

	c := m.Clone()
	c.AddText("b")
	assert.Equal(t, "ab", c.String())
}

func TestAddResultItems(t *testing.T) {
	m := NewMultiLines(0, 0)
	m.AddText("a")
	m.AddResult(NewItem("   "))
	m.AddResult(CommentItem("-- c", true))
	assert.True(t, m.EndsLine())
	m.AddResult(NewItem("b"))
	assert.Equal(t, "a -- c\nb", m.String())
}
