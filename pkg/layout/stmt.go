package layout

import (
	"github.com/leapstack-labs/leapfmt/pkg/syntax"
)

// ---------- Statements ----------

// stmtBody renders a statement node with its semicolon, terminator and
// trailing comments. The semicolon is glued to the last visible character.
func (r *Renderer) stmtBody(m *MultiLines, st *syntax.Stmt, ctx Context) {
	if st.Node != nil {
		r.node(m, st.Node, ctx)
	}
	if st.Semicolon {
		if st.Node != nil {
			m.PositionAfterLastNonWhitespace()
		}
		m.AddText(";")
	}
	if st.Terminator != nil {
		if st.Node != nil || st.Semicolon {
			m.AddSpace()
		}
		m.AddText(st.Terminator.Source())
	}
	for _, c := range st.Trailing {
		m.AddEolComment(c.Text(), c.EndsLine())
	}
}

// sequence renders statements one per line at column col. A comment right
// after the keyword opening the sequence stays on the keyword's line.
func (r *Renderer) sequence(m *MultiLines, seq *syntax.Sequence, ctx Context, col int) {
	if seq == nil {
		return
	}
	prev := m.SetIndent(col)
	defer m.SetIndent(prev)

	sameLine := func(cs []*syntax.Comment) []*syntax.Comment {
		if len(cs) > 0 && !cs[0].OwnLine {
			m.AddEolComment(cs[0].Text(), cs[0].EndsLine())
			return cs[1:]
		}
		return cs
	}

	for i, st := range seq.Stmts {
		leading := st.Leading
		if i == 0 {
			leading = sameLine(leading)
		}
		for j, c := range leading {
			if i > 0 || j > 0 {
				r.blankLines(m, c.BlankBefore)
			}
			newline(m, col)
			m.AddResult(CommentItem(c.Text(), c.EndsLine()))
		}
		if i > 0 || len(leading) > 0 {
			r.blankLines(m, st.BlankBefore)
		}
		newline(m, col)
		r.stmtBody(m, st, ctx)
	}

	after := seq.After
	if len(seq.Stmts) == 0 {
		after = sameLine(after)
	}
	for j, c := range after {
		if len(seq.Stmts) > 0 || j > 0 {
			r.blankLines(m, c.BlankBefore)
		}
		newline(m, col)
		m.AddResult(CommentItem(c.Text(), c.EndsLine()))
	}
}

// ---------- Queries ----------

// query renders each clause on its own line at the column the query
// starts at. Clause bodies follow their keywords.
func (r *Renderer) query(m *MultiLines, q *syntax.Query, ctx Context) {
	col := m.Column()
	prev := m.SetIndent(col)
	defer m.SetIndent(prev)

	for i, cl := range q.Clauses {
		for j, c := range cl.Leading {
			if i > 0 || j > 0 {
				newline(m, col)
			}
			m.AddResult(CommentItem(c.Text(), c.EndsLine()))
		}
		if i > 0 || len(cl.Leading) > 0 {
			newline(m, col)
		}
		r.keywords(m, cl.Keywords)
		if cl.Body == nil {
			continue
		}
		if len(cl.Keywords) > 0 {
			m.AddSpace()
		}
		r.node(m, cl.Body, ctx)
	}
}

// join renders the joined item and its condition. ON or USING stays on
// the item's line when the whole condition fits there, and otherwise
// starts a line one step in from the clause.
func (r *Renderer) join(m *MultiLines, j *syntax.Join, ctx Context) {
	owner := m.Indent()
	if j.Item != nil {
		r.node(m, j.Item, ctx)
	}
	if j.On == nil {
		return
	}
	on := r.word(j.On)
	if j.Item == nil {
		m.AddText(on)
		r.spacedPhrase(m, j.Cond, ctx)
		return
	}
	f := r.flat(j.Cond, ctx)
	if f.ok && !m.EndsLine() && m.Column()+1+TextWidth(on)+1+f.width <= ctx.Width() {
		m.AddSpace()
		m.AddText(on)
		if f.width > 0 {
			m.AddSpace()
			m.AddText(f.text)
		}
		return
	}
	newline(m, owner+ctx.indentWidth())
	m.AddText(on)
	r.spacedPhrase(m, j.Cond, ctx)
}

func (r *Renderer) keywords(m *MultiLines, ws []*syntax.Word) {
	for i, w := range ws {
		if i > 0 {
			m.AddSpace()
		}
		m.AddText(r.word(w))
	}
}

// ---------- DDL ----------

// createFunction renders the head and parameters on the first line and
// every option on a line of its own.
func (r *Renderer) createFunction(m *MultiLines, n *syntax.CreateFunction, ctx Context) {
	col := m.Column()
	prev := m.SetIndent(col)
	defer m.SetIndent(prev)

	wrap := col + ctx.indentWidth()
	r.phrase(m, n.Head.Items, ctx, wrap)
	if n.Params != nil {
		r.parens(m, n.Params, ctx)
	}
	for _, o := range n.Options {
		for _, c := range o.Leading {
			newline(m, col)
			m.AddResult(CommentItem(c.Text(), c.EndsLine()))
		}
		body := o.Body
		if ph, ok := body.(*syntax.Phrase); ok && ph.Empty() {
			body = nil
		}
		if len(o.Keywords) == 0 && body == nil {
			continue
		}
		newline(m, col)
		r.keywords(m, o.Keywords)
		if body == nil {
			continue
		}
		if len(o.Keywords) > 0 {
			m.AddSpace()
		}
		if ph, ok := body.(*syntax.Phrase); ok {
			r.phrase(m, ph.Items, ctx, wrap)
			continue
		}
		r.node(m, body, ctx)
	}
}

// createTable renders CREATE TABLE name ( columns ) options.
func (r *Renderer) createTable(m *MultiLines, n *syntax.CreateTable, ctx Context) {
	col := m.Column()
	prev := m.SetIndent(col)
	defer m.SetIndent(prev)

	wrap := col + ctx.indentWidth()
	r.phrase(m, n.Head.Items, ctx, wrap)
	m.AddSpace()
	r.parens(m, n.Columns, ctx)
	if !n.Tail.Empty() {
		m.AddSpace()
		r.phrase(m, n.Tail.Items, ctx, wrap)
	}
}

// ---------- Bodies ----------

// do renders DO [LANGUAGE name] body [LANGUAGE name].
func (r *Renderer) do(m *MultiLines, n *syntax.Do, ctx Context) {
	col := m.Column()
	prev := m.SetIndent(col)
	defer m.SetIndent(prev)

	m.AddText(r.word(n.Do))
	if !n.Prefix.Empty() {
		m.AddSpace()
		r.phrase(m, n.Prefix.Items, ctx, col+ctx.indentWidth())
	}
	if n.Body != nil {
		m.AddSpace()
		r.node(m, n.Body, ctx)
	}
	if !n.Suffix.Empty() {
		m.AddSpace()
		r.phrase(m, n.Suffix.Items, ctx, col+ctx.indentWidth())
	}
}

// body renders an interpreted body: the opening tag, the statements at the
// indent of the owning statement and the closing tag on its own line.
func (r *Renderer) body(m *MultiLines, b *syntax.Body, ctx Context) {
	col := m.Indent()
	m.AddText(b.Open.Source())
	r.sequence(m, b.Stmts, ctx, col)
	if b.Close != nil {
		newline(m, col)
		m.AddText(b.Close.Source())
	}
}
