package layout

import (
	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/syntax"
)

// block renders DECLARE, BEGIN, EXCEPTION and END at the block's column
// with their contents one step in.
func (r *Renderer) block(m *MultiLines, b *syntax.Block, ctx Context) {
	col := m.Column()
	in := col + ctx.indentWidth()
	prev := m.SetIndent(col)
	defer m.SetIndent(prev)

	if b.Declare != nil {
		m.AddText(r.word(b.Declare))
		r.sequence(m, b.Decls, ctx, in)
	}
	if b.Begin != nil {
		if b.Declare != nil {
			newline(m, col)
		}
		m.AddText(r.word(b.Begin))
		r.sequence(m, b.Stmts, ctx, in)
	}
	if b.Exception != nil {
		newline(m, col)
		m.AddText(r.word(b.Exception))
		r.handlers(m, b.Handlers, ctx, in)
	}
	if b.End != nil {
		newline(m, col)
		m.AddText(r.word(b.End))
		if b.EndLabel != nil {
			m.AddSpace()
			r.node(m, b.EndLabel, ctx)
		}
	}
}

// handlers renders WHEN condition THEN arms of an exception section.
func (r *Renderer) handlers(m *MultiLines, hs []*syntax.When, ctx Context, col int) {
	for _, h := range hs {
		for _, c := range h.Leading {
			newline(m, col)
			m.AddResult(CommentItem(c.Text(), c.EndsLine()))
		}
		newline(m, col)
		r.condition(m, h.When, h.Cond, h.Then, r.cfg.If, ctx, col)
		r.sequence(m, h.Stmts, ctx, col+ctx.indentWidth())
	}
}

// ifStmt renders IF, ELSIF and ELSE arms with their statements one step in.
func (r *Renderer) ifStmt(m *MultiLines, n *syntax.If, ctx Context) {
	col := m.Column()
	in := col + ctx.indentWidth()
	prev := m.SetIndent(col)
	defer m.SetIndent(prev)

	for i, arm := range n.Arms {
		if i > 0 {
			newline(m, col)
		}
		r.condition(m, arm.Keyword, arm.Cond, arm.Then, r.cfg.If, ctx, col)
		r.sequence(m, arm.Stmts, ctx, in)
	}
	if n.Else != nil {
		newline(m, col)
		m.AddText(r.word(n.Else))
		r.sequence(m, n.ElseStmts, ctx, in)
	}
	if n.End != nil {
		newline(m, col)
		m.AddText(r.word(n.End))
		if n.EndIf != nil {
			m.AddSpace()
			m.AddText(r.word(n.EndIf))
		}
	}
}

// loop renders [WHILE cond | FOR ... | FOREACH ...] LOOP stmts END LOOP.
func (r *Renderer) loop(m *MultiLines, n *syntax.Loop, ctx Context) {
	col := m.Column()
	prev := m.SetIndent(col)
	defer m.SetIndent(prev)

	if n.Keyword != nil {
		r.condition(m, n.Keyword, n.Head, n.Loop, r.cfg.Loop, ctx, col)
	} else if n.Loop != nil {
		m.AddText(r.word(n.Loop))
	}
	if n.Loop == nil {
		return
	}
	r.sequence(m, n.Stmts, ctx, col+ctx.indentWidth())
	if n.End == nil {
		return
	}
	newline(m, col)
	m.AddText(r.word(n.End))
	if n.EndLoop != nil {
		m.AddSpace()
		m.AddText(r.word(n.EndLoop))
	}
	if n.EndLabel != nil {
		m.AddSpace()
		r.node(m, n.EndLabel, ctx)
	}
}

// condition renders keyword, condition and closing keyword (THEN, LOOP)
// with the weighted placement: all on one line, the condition wrapped
// under its own start, or condition and closer on lines of their own.
func (r *Renderer) condition(m *MultiLines, kw *syntax.Word, cond *syntax.Phrase, closer *syntax.Word, cc core.ConditionConfig, ctx Context, col int) {
	m.AddText(r.word(kw))
	closerText := ""
	if closer != nil {
		closerText = r.word(closer)
	}
	if cond.Empty() {
		if closer != nil {
			m.AddSpace()
			m.AddText(closerText)
		}
		return
	}

	f := r.flat(cond, ctx)
	condCol := m.Column() + 1
	feasible := func(p core.ConditionPlacement) bool {
		if p == core.ConditionInline {
			return f.ok && condCol+f.width+1+TextWidth(closerText) <= ctx.Width()
		}
		return true
	}
	placement := Choose(cc.Placement, feasible, cc.Fallback)

	if placement == core.ConditionNewLine {
		in := col + ctx.indentWidth()
		newline(m, in)
		r.phrase(m, cond.Items, ctx, in)
		if closer != nil {
			newline(m, col)
			m.AddText(closerText)
		}
		return
	}
	m.AddSpace()
	r.phrase(m, cond.Items, ctx, condCol)
	if closer != nil {
		m.AddSpace()
		m.AddText(closerText)
	}
}
