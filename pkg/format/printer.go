package format

import (
	"strings"

	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/layout"
	"github.com/leapstack-labs/leapfmt/pkg/syntax"
)

// printer turns interpreted statements into output pieces.
type printer struct {
	cfg      *core.FormatConfig
	renderer *layout.Renderer
	tabs     tabber

	// first is set until something has been printed
	first bool
}

// statement returns the pieces for st: blank lines and comment lines ahead
// of it, then the statement itself.
func (p *printer) statement(st *syntax.Stmt) []string {
	var out []string
	for _, c := range st.Leading {
		out = p.blankLines(out, c.BlankBefore)
		out = append(out, p.comment(c))
		p.first = false
	}
	if st.Node == nil && !st.Semicolon && st.Terminator == nil {
		return out
	}
	out = p.blankLines(out, st.BlankBefore)
	text := p.renderer.Statement(st)
	out = append(out, p.tabs.apply(text, p.renderer.Verbatim())+"\n")
	p.first = false
	return out
}

// comment returns a comment on a line of its own. Continuation lines of a
// block comment keep their text.
func (p *printer) comment(c *syntax.Comment) string {
	return c.Text() + "\n"
}

func (p *printer) blankLines(out []string, n int) []string {
	if p.first {
		return out
	}
	if k := p.cfg.BlankLines.Apply(n); k > 0 {
		out = append(out, strings.Repeat("\n", k))
	}
	return out
}
