package layout

import (
	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/syntax"
)

// caseNode renders CASE. An expression that fits its single-line ceiling
// and the line stays on one line; otherwise each arm gets a line.
func (r *Renderer) caseNode(m *MultiLines, n *syntax.Case, ctx Context) {
	if !n.Statement {
		ceiling := limitOf(r.cfg.CaseWhen.SingleLineLength)
		if ctx.flat {
			start := m.Column()
			child := m.Child()
			r.caseInline(child, n, ctx)
			if child.Height() == 1 && !child.EndsLine() && (ceiling == 0 || child.Width()-start <= ceiling) {
				m.AddResult(child)
				return
			}
		} else if f := r.flat(n, ctx); f.ok && m.Column()+f.width <= ctx.Width() {
			m.AddText(f.text)
			return
		}
	}
	r.caseLines(m, n, ctx)
}

// caseInline renders CASE on the current line.
func (r *Renderer) caseInline(m *MultiLines, n *syntax.Case, ctx Context) {
	m.AddText(r.word(n.Case))
	r.spacedPhrase(m, n.Operand, ctx)
	for _, arm := range n.Arms {
		m.AddSpace()
		m.AddText(r.word(arm.When))
		r.spacedPhrase(m, arm.Cond, ctx)
		if arm.Then != nil {
			m.AddSpace()
			m.AddText(r.word(arm.Then))
		}
		r.spacedPhrase(m, arm.Result, ctx)
	}
	if n.Else != nil {
		m.AddSpace()
		m.AddText(r.word(n.Else.Else))
		r.spacedPhrase(m, n.Else.Result, ctx)
	}
	if n.End != nil {
		m.AddSpace()
		m.AddText(r.word(n.End))
	}
}

func (r *Renderer) spacedPhrase(m *MultiLines, ph *syntax.Phrase, ctx Context) {
	if ph.Empty() {
		return
	}
	m.AddSpace()
	r.phrase(m, ph.Items, ctx, m.Column())
}

// caseLines renders CASE with one line per arm. WHEN goes one step in or
// after CASE, THEN where the weighted placement puts it for all arms,
// statements one step in from their WHEN.
func (r *Renderer) caseLines(m *MultiLines, n *syntax.Case, ctx Context) {
	cw := r.cfg.CaseWhen
	iw := ctx.indentWidth()
	caseCol := m.Column()
	prev := m.SetIndent(caseCol)
	defer m.SetIndent(prev)

	m.AddText(r.word(n.Case))
	r.spacedPhrase(m, n.Operand, ctx)

	inline := cw.When.Value == core.WhenInline && !m.EndsLine()
	whenCol := caseCol + iw
	if inline {
		whenCol = m.Column() + 1
	}
	then, alignCol := r.thenPlacement(n, ctx, whenCol)
	thenCol := whenCol
	switch then {
	case core.ThenAligned:
		thenCol = alignCol
	case core.ThenNewLine:
		thenCol = whenCol + iw
	}

	for i, arm := range n.Arms {
		for _, c := range arm.Leading {
			newline(m, whenCol)
			m.AddResult(CommentItem(c.Text(), c.EndsLine()))
		}
		if i == 0 && inline && len(arm.Leading) == 0 {
			m.AddSpace()
		} else {
			newline(m, whenCol)
		}
		m.AddText(r.word(arm.When))
		if !arm.Cond.Empty() {
			m.AddSpace()
			r.phrase(m, arm.Cond.Items, ctx, m.Column())
		}
		if arm.Then != nil {
			switch then {
			case core.ThenAligned:
				m.PositionAt(thenCol)
			case core.ThenNewLine:
				newline(m, thenCol)
			default:
				m.AddSpace()
			}
			m.AddText(r.word(arm.Then))
		}
		r.caseBranch(m, arm.Result, arm.Stmts, ctx, thenCol+iw)
	}

	if e := n.Else; e != nil {
		elseCol := whenCol
		if cw.Else.Value == core.ElseUnderThen {
			elseCol = thenCol
		}
		newline(m, elseCol)
		m.AddText(r.word(e.Else))
		r.caseBranch(m, e.Result, e.Stmts, ctx, elseCol+iw)
	}

	if n.End == nil {
		return
	}
	if cw.End.Value == core.EndAfterLast && !n.Statement {
		m.AddSpace()
	} else {
		newline(m, caseCol)
	}
	m.AddText(r.word(n.End))
	if n.EndSuffix != nil {
		m.AddSpace()
		m.AddText(r.word(n.EndSuffix))
	}
}

// caseBranch renders the result of an arm after THEN or ELSE, or its
// statements one per line at column col.
func (r *Renderer) caseBranch(m *MultiLines, result *syntax.Phrase, stmts *syntax.Sequence, ctx Context, col int) {
	if stmts != nil {
		r.sequence(m, stmts, ctx, col)
		return
	}
	r.spacedPhrase(m, result, ctx)
}

// thenPlacement picks the THEN placement shared by all arms of n, and the
// column an aligned THEN would use.
func (r *Renderer) thenPlacement(n *syntax.Case, ctx Context, whenCol int) (core.ThenPlacement, int) {
	cw := r.cfg.CaseWhen
	condCol := whenCol + len("WHEN ")
	widest, single := 0, true
	for _, arm := range n.Arms {
		f := flatForm{ok: true}
		if !arm.Cond.Empty() {
			f = r.flat(arm.Cond, ctx)
		}
		if !f.ok || len(arm.Leading) > 0 {
			single = false
		}
		widest = max(widest, f.width)
	}
	alignCol := condCol + widest + 1
	thenWidth := len("THEN")

	feasible := func(p core.ThenPlacement) bool {
		switch p {
		case core.ThenInline:
			return single && condCol+widest+1+thenWidth <= ctx.Width()
		case core.ThenAligned:
			off := alignCol - whenCol
			return single && off >= cw.ThenMinColumn && off <= cw.ThenMaxColumn &&
				alignCol+thenWidth <= ctx.Width()
		default:
			return true
		}
	}
	return Choose(cw.Then, feasible, cw.ThenFallback), alignCol
}
