package format

import (
	"strings"

	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/layout"
	"github.com/leapstack-labs/leapfmt/pkg/scanner"
	"github.com/leapstack-labs/leapfmt/pkg/token"
)

// tabber replaces runs of spaces in formatted text with tabs. Literals,
// quoted identifiers and comments are left alone: the text is scanned
// again and only whitespace tokens are rewritten. Bodies are scanned as
// statements so their indentation is rewritten too, except for bodies the
// formatter kept as written.
type tabber struct {
	policy core.TabPolicy
	width  int
	opts   scanner.Options
}

func newTabber(cfg *core.FormatConfig, opts scanner.Options) tabber {
	opts.AutoBody = true
	return tabber{policy: cfg.Indent.Tabs, width: cfg.Indent.Width, opts: opts}
}

// apply rewrites s. verbatim lists dollar-quoted literals of s that must
// come out unchanged.
func (t tabber) apply(s string, verbatim []string) string {
	if t.policy != core.TabsLeading && t.policy != core.TabsAll || t.width < 1 {
		return s
	}
	sc := scanner.New(strings.NewReader(s), t.opts)
	var b strings.Builder
	col, off, keep := 0, 0, 0
	for {
		tok := sc.Next()
		if tok.Type == token.EOF {
			return b.String()
		}
		src := tok.Source()
		start := off
		off += len(src)
		if start < keep {
			// inside a body kept as written
			if off > keep {
				rest := src[keep-start:]
				b.WriteString(rest)
				col = advance(col, rest)
			}
			continue
		}
		if tok.Type == token.BODY_START {
			if v := verbatimAt(s[start:], verbatim); v != "" {
				b.WriteString(v)
				col = advance(col, v)
				keep = start + len(v)
				continue
			}
		}
		switch {
		case tok.Type != token.WHITESPACE || strings.ContainsRune(src, '\t'):
			b.WriteString(src)
		case col == 0:
			b.WriteString(unexpand(col, len(src), t.width, true))
		case t.policy == core.TabsAll:
			b.WriteString(unexpand(col, len(src), t.width, false))
		default:
			b.WriteString(src)
		}
		col = advance(col, src)
	}
}

// verbatimAt returns the longest of the literals s starts with.
func verbatimAt(s string, literals []string) string {
	best := ""
	for _, v := range literals {
		if len(v) > len(best) && strings.HasPrefix(s, v) {
			best = v
		}
	}
	return best
}

// unexpand returns n spaces starting at column col with tabs up to each tab
// stop the run reaches. Inside a line a single space before a stop stays a
// space.
func unexpand(col, n, width int, leading bool) string {
	var b strings.Builder
	end := col + n
	for {
		stop := (col/width + 1) * width
		if stop > end {
			break
		}
		if !leading && stop-col < 2 {
			b.WriteByte(' ')
		} else {
			b.WriteByte('\t')
		}
		col = stop
	}
	b.WriteString(strings.Repeat(" ", end-col))
	return b.String()
}

// advance returns the column after writing s at column col.
func advance(col int, s string) int {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return layout.TextWidth(s[i+1:])
	}
	return col + layout.TextWidth(s)
}
