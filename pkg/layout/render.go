// Package layout renders syntax nodes into width-constrained text.
//
// Rendering writes into MultiLines buffers that track the output column,
// the indent and the width of everything written so far. Decisions between
// candidate layouts (list grouping, THEN and condition placement) go
// through Rank, which weighs the configured options against each other.
//
// Every node has a single-line form, measured once at unlimited width.
// A node whose single-line form spans lines or ends in a line comment has
// no single-line width and is rendered in place.
package layout

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/syntax"
	"github.com/leapstack-labs/leapfmt/pkg/token"
)

// Renderer renders syntax nodes. It is not safe for concurrent use.
type Renderer struct {
	cfg     *core.FormatConfig
	logger  *slog.Logger
	letters letters

	flats map[syntax.Node]flatForm

	// dollar-quoted literals of the statement being rendered
	verbatim []string
}

// flatForm is the single-line rendering of a node.
type flatForm struct {
	text  string
	width int
	ok    bool
}

// NewRenderer creates a renderer for cfg.
func NewRenderer(cfg *core.FormatConfig, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{
		cfg:     cfg,
		logger:  logger,
		letters: newLetters(),
		flats:   make(map[syntax.Node]flatForm),
	}
}

// Render renders n with its first line at column start. New lines are
// indented to start.
func (r *Renderer) Render(n syntax.Node, ctx Context, start int) Result {
	m := NewMultiLines(start, start)
	r.node(m, n, ctx)
	return m
}

// Statement renders a top-level statement at column 0: the node, its
// semicolon or terminator and its trailing comments. Leading comments are
// left to the caller. The text has no final line break.
func (r *Renderer) Statement(st *syntax.Stmt) string {
	clear(r.flats)
	r.verbatim = r.verbatim[:0]
	m := NewMultiLines(0, 0)
	r.stmtBody(m, st, NewContext(r.cfg))
	return m.String()
}

// Verbatim returns the dollar-quoted literals in the text of the last
// Statement. They are part of the output exactly as written in the input.
func (r *Renderer) Verbatim() []string {
	return slices.Clone(r.verbatim)
}

// flat returns the single-line form of n.
func (r *Renderer) flat(n syntax.Node, ctx Context) flatForm {
	if n == nil {
		return flatForm{ok: true}
	}
	if f, ok := r.flats[n]; ok {
		return f
	}
	m := NewMultiLines(0, 0)
	r.node(m, n, ctx.measure())
	f := flatForm{ok: m.Height() == 1 && !m.EndsLine()}
	if f.ok {
		f.text = m.String()
		f.width = m.Width()
	}
	r.flats[n] = f
	return f
}

// node renders n at the output cursor.
func (r *Renderer) node(m *MultiLines, n syntax.Node, ctx Context) {
	switch n := n.(type) {
	case nil:
	case *syntax.Word:
		m.AddText(r.word(n))
	case *syntax.QuotedIdent:
		m.AddText(n.Tok.Source())
	case *syntax.Literal:
		src := n.Tok.Source()
		if n.Tok.IsDollarQuoted() && !slices.Contains(r.verbatim, src) {
			r.verbatim = append(r.verbatim, src)
		}
		m.AddText(src)
	case *syntax.Number:
		m.AddText(n.Tok.Source())
	case *syntax.Param:
		m.AddText(n.Tok.Source())
	case *syntax.Operator:
		m.AddText(n.Tok.Source())
	case *syntax.Punct:
		m.AddText(n.Tok.Source())
	case *syntax.Error:
		m.AddText(n.Tok.Source())
	case *syntax.Comment:
		r.comment(m, n, m.Indent())
	case *syntax.QualifiedName:
		for i, p := range n.Parts {
			if i > 0 {
				m.AddText(".")
			}
			r.node(m, p, ctx)
		}
	case *syntax.FunctionCall:
		r.node(m, n.Name, ctx)
		r.parens(m, n.Args, ctx)
	case *syntax.Parens:
		r.parens(m, n, ctx)
	case *syntax.Brackets:
		r.brackets(m, n, ctx)
	case *syntax.List:
		r.list(m, n, ctx.WithRole(n.Role))
	case *syntax.TypeCast:
		r.typeCast(m, n, ctx)
	case *syntax.Case:
		r.caseNode(m, n, ctx)
	case *syntax.Label:
		r.label(m, n, ctx)
	case *syntax.Phrase:
		r.phrase(m, n.Items, ctx, m.Column())
	case *syntax.FromItem:
		r.phrase(m, n.Items(), ctx, m.Column())
	case *syntax.Join:
		r.join(m, n, ctx)
	case *syntax.Query:
		r.query(m, n, ctx)
	case *syntax.CreateFunction:
		r.createFunction(m, n, ctx)
	case *syntax.CreateTable:
		r.createTable(m, n, ctx)
	case *syntax.Do:
		r.do(m, n, ctx)
	case *syntax.Body:
		r.body(m, n, ctx)
	case *syntax.Block:
		r.block(m, n, ctx)
	case *syntax.If:
		r.ifStmt(m, n, ctx)
	case *syntax.Loop:
		r.loop(m, n, ctx)
	case *syntax.Statement:
		col := m.Column()
		r.phrase(m, n.Phrase.Items, ctx, col+ctx.indentWidth())
	default:
		panic(fmt.Sprintf("layout: unhandled node kind %s", n.Kind()))
	}
}

// ---------- Comments ----------

// comment renders a comment met inside a construct. A comment that
// started its own source line goes on its own line at column col.
func (r *Renderer) comment(m *MultiLines, c *syntax.Comment, col int) {
	if !c.OwnLine {
		m.AddEolComment(c.Text(), c.EndsLine())
		return
	}
	newline(m, col)
	m.AddResult(CommentItem(c.Text(), c.EndsLine()))
}

// newline moves to the start of a fresh line at column col. A line that
// is still blank is reused.
func newline(m *MultiLines, col int) {
	if !m.Blank() || m.EndsLine() {
		m.AddLine()
	}
	m.PositionAt(col)
}

// blankLines adds the empty lines the blank-line policy keeps out of n.
func (r *Renderer) blankLines(m *MultiLines, n int) {
	k := r.cfg.BlankLines.Apply(n)
	if k == 0 {
		return
	}
	if !m.Blank() || m.EndsLine() {
		m.AddLine()
	}
	for range k {
		m.AddLine()
	}
}

// ---------- Phrases ----------

// phrase renders items with word wrapping. Items that do not fit go to a
// new line at column wrap; constructs with their own line breaking are
// rendered in place.
func (r *Renderer) phrase(m *MultiLines, items []syntax.Node, ctx Context, wrap int) {
	start := m.Column()
	var prev, before syntax.Node
	for _, it := range items {
		if c, ok := it.(*syntax.Comment); ok {
			r.comment(m, c, wrap)
			prev, before = it, prev
			continue
		}
		sp := spaced(before, prev, it)
		switch {
		case m.EndsLine():
			m.PositionAt(wrap)
		case sp:
			m.AddSpace()
		}

		if q, ok := it.(*syntax.Query); ok && len(q.Clauses) > 1 && isWord(prev, "as") {
			newline(m, start)
			r.node(m, it, ctx)
			prev, before = it, prev
			continue
		}

		f := r.flat(it, ctx)
		switch {
		case !f.ok:
			r.node(m, it, ctx)
		case m.Column()+f.width <= ctx.Width() || !sp || m.Column() <= wrap:
			m.AddText(f.text)
		case selfDelimiting(it):
			r.node(m, it, ctx)
		default:
			m.AddLine()
			m.PositionAt(wrap)
			if m.Column()+f.width > ctx.Width() {
				r.logger.Debug("text wider than the line",
					slog.String("text", f.text),
					slog.Int("width", ctx.Width()))
			}
			m.AddText(f.text)
		}
		prev, before = it, prev
	}
}

// selfDelimiting reports whether n breaks its own lines when it does not
// fit.
func selfDelimiting(n syntax.Node) bool {
	switch n.(type) {
	case *syntax.Parens, *syntax.Brackets, *syntax.FunctionCall, *syntax.Case:
		return true
	}
	return false
}

// spaced reports whether a space goes between prev and n. before is the
// item ahead of prev.
func spaced(before, prev, n syntax.Node) bool {
	if prev == nil {
		return false
	}
	switch n := n.(type) {
	case *syntax.Punct:
		switch n.Tok.Type {
		case token.COMMA, token.SEMICOLON, token.DOT, token.RPAREN, token.RBRACKET:
			return false
		}
	case *syntax.TypeCast:
		return false
	case *syntax.Brackets:
		switch prev.(type) {
		case *syntax.Operator, *syntax.Punct, *syntax.Comment:
		default:
			return false
		}
	case *syntax.Operator:
		if n.Tok.Literal == ".." || n.Tok.Literal == ":" {
			return false
		}
	}
	switch p := prev.(type) {
	case *syntax.Punct:
		switch p.Tok.Type {
		case token.DOT, token.LPAREN, token.LBRACKET:
			return false
		}
	case *syntax.Operator:
		switch p.Tok.Literal {
		case "..", ":":
			return false
		case "-", "+":
			return !unaryContext(before)
		}
	}
	return true
}

// unaryContext reports whether a sign after n is a unary operator.
func unaryContext(n syntax.Node) bool {
	switch n := n.(type) {
	case nil, *syntax.Operator:
		return true
	case *syntax.Punct:
		return n.Tok.Type == token.COMMA
	case *syntax.Word:
		return n.Role == syntax.RoleKeyword
	}
	return false
}

func isWord(n syntax.Node, w string) bool {
	word, ok := n.(*syntax.Word)
	return ok && word.Tok.Is(w)
}

// ---------- Expressions ----------

// parens renders a parenthesized group. A list laid out one element per
// indented line puts the closing paren on its own line.
func (r *Renderer) parens(m *MultiLines, p *syntax.Parens, ctx Context) {
	owner := m.Indent()
	m.AddText(p.Open.Source())
	inner := ctx.WithWidth(ctx.Width() - 1)
	block := false
	switch b := p.Body.(type) {
	case nil:
	case *syntax.List:
		block = r.list(m, b, inner.WithRole(b.Role)) == listBlock
	default:
		r.node(m, b, inner)
	}
	if p.Close == nil {
		return
	}
	if block {
		newline(m, owner)
	}
	m.AddText(p.Close.Source())
}

func (r *Renderer) brackets(m *MultiLines, b *syntax.Brackets, ctx Context) {
	owner := m.Indent()
	m.AddText(b.Open.Source())
	inner := ctx.WithWidth(ctx.Width() - 1)
	block := false
	switch n := b.Body.(type) {
	case nil:
	case *syntax.List:
		block = r.list(m, n, inner.WithRole(n.Role)) == listBlock
	default:
		r.node(m, n, inner)
	}
	if b.Close == nil {
		return
	}
	if block {
		newline(m, owner)
	}
	m.AddText(b.Close.Source())
}

func (r *Renderer) typeCast(m *MultiLines, n *syntax.TypeCast, ctx Context) {
	m.AddText(n.Op.Source())
	for i, t := range n.Type {
		if _, ok := t.(*syntax.Brackets); i > 0 && !ok {
			m.AddSpace()
		}
		r.node(m, t, ctx)
	}
}

func (r *Renderer) label(m *MultiLines, l *syntax.Label, ctx Context) {
	m.AddText(l.Open.Source())
	for _, c := range l.Comments {
		m.AddResult(CommentItem(c.Text(), c.EndsLine()))
		m.AddSpace()
	}
	r.node(m, l.Name, ctx)
	m.AddText(l.Close.Source())
}
