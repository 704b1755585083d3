package syntax

import (
	"log/slog"
	"slices"

	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/scanner"
	"github.com/leapstack-labs/leapfmt/pkg/token"
)

// ---------- Phrases ----------

// gluedWords are word pairs where the second word never ends a phrase even
// when it would start a clause: IS DISTINCT FROM, DEFAULT VALUES and
// ON CONFLICT ... DO UPDATE.
var gluedWords = map[string]string{
	"distinct": "from",
	"default":  "values",
	"do":       "update",
}

// phrase reads items until the scope ends. Comments on the way are kept as
// items; the returned cursor is at the token that ended the phrase.
func (p *Parser) phrase(c scanner.Cursor, s scope) (*Phrase, scanner.Cursor) {
	ph := &Phrase{}
	for {
		g, x := p.skip(c, false)
		for _, cm := range g.comments {
			ph.Items = append(ph.Items, cm)
		}
		c = x
		if s.ends(c) && !glued(ph, c.Token()) {
			return ph, c
		}
		var n Node
		n, c = p.item(c, s, ph)
		ph.Items = append(ph.Items, n)
	}
}

func glued(ph *Phrase, t token.Token) bool {
	w, ok := gluedWords[lastWord(ph)]
	return ok && w == t.Lower()
}

// lastWord returns the lower-cased last significant item of ph when it is
// a word, and "" otherwise.
func lastWord(ph *Phrase) string {
	for i := len(ph.Items) - 1; i >= 0; i-- {
		switch n := ph.Items[i].(type) {
		case *Comment:
			continue
		case *Word:
			return n.Tok.Lower()
		default:
			return ""
		}
	}
	return ""
}

func significant(ph *Phrase) int {
	n := 0
	for _, it := range ph.Items {
		if _, ok := it.(*Comment); !ok {
			n++
		}
	}
	return n
}

// item reads one phrase item at the significant token c.
func (p *Parser) item(c scanner.Cursor, s scope, ph *Phrase) (Node, scanner.Cursor) {
	t := c.Token()
	switch t.Type {
	case token.IDENT:
		if t.Is("case") {
			return p.caseNode(c, s, false)
		}
		if startsQuery(c, ph) {
			return p.query(c, scope{paren: s.paren, block: s.block, stop: s.outer, outer: s.outer})
		}
		return p.name(c, s)
	case token.QUOTED_IDENT:
		return p.name(c, s)
	case token.STRING:
		return &Literal{Tok: t}, c.Next()
	case token.NUMBER:
		return &Number{Tok: t}, c.Next()
	case token.PARAM:
		return &Param{Tok: t}, c.Next()
	case token.OPERATOR:
		switch {
		case t.Literal == "::":
			return p.typeCast(c, s)
		case t.Literal == "<<" && p.procedural:
			if l, after, ok := p.label(c); ok {
				return l, after
			}
		}
		return &Operator{Tok: t}, c.Next()
	case token.LPAREN:
		return p.parens(c, s, s.role)
	case token.LBRACKET:
		return p.brackets(c, s)
	case token.BODY_START:
		return p.body(c)
	case token.ERROR:
		return p.errorNode(t), c.Next()
	case token.RPAREN, token.RBRACKET:
		p.logger.Warn("unmatched closing bracket",
			slog.Int("line", t.Pos.Line),
			slog.Int("column", t.Pos.Column),
			slog.String("token", t.Literal))
	}
	return &Punct{Tok: t}, c.Next()
}

// queryAfter lists words after which SELECT and VALUES start a nested query.
var queryAfter = []string{"as", "query", "in", "for", "explain", "analyze", "verbose"}

// startsQuery reports whether the word at c begins a query nested in ph.
func startsQuery(c scanner.Cursor, ph *Phrase) bool {
	t := c.Token()
	first := significant(ph) == 0
	switch t.Lower() {
	case "select", "values":
		return first || slices.Contains(queryAfter, lastWord(ph))
	case "with":
		if !first && lastWord(ph) != "as" {
			return false
		}
		// WITH [RECURSIVE] name [(cols)] AS
		x := next(c.Next())
		if x.Token().Is("recursive") {
			return true
		}
		if tt := x.Type(); tt != token.IDENT && tt != token.QUOTED_IDENT {
			return false
		}
		y := next(x.Next())
		return y.Token().Is("as") || y.Type() == token.LPAREN
	}
	return false
}

// ---------- Names and calls ----------

// name reads an identifier, a qualified name or a function call.
func (p *Parser) name(c scanner.Cursor, s scope) (Node, scanner.Cursor) {
	t := c.Token()
	var n Node
	if t.Type == token.QUOTED_IDENT {
		n = &QuotedIdent{Tok: t}
	} else {
		n = p.word(t)
	}
	c = c.Next()

	if c.Type() == token.DOT {
		if w, ok := n.(*Word); ok {
			w.Role = RoleIdentifier
		}
		q := &QualifiedName{Parts: []Node{n}}
		for c.Type() == token.DOT {
			part := namePart(c.Next().Token())
			if part == nil {
				break
			}
			q.Parts = append(q.Parts, part)
			c = c.Next().Next()
		}
		if len(q.Parts) > 1 {
			n = q
		}
	}

	if c.Type() == token.LPAREN && !s.noCalls && p.callable(n) {
		markFunction(n)
		args, after := p.parens(c, s, core.RoleFunctionArgs)
		return &FunctionCall{Name: n, Args: args}, after
	}
	return n, c
}

func namePart(t token.Token) Node {
	switch {
	case t.Type == token.IDENT:
		return &Word{Tok: t}
	case t.Type == token.QUOTED_IDENT:
		return &QuotedIdent{Tok: t}
	case t.IsOp("*"):
		return &Operator{Tok: t}
	}
	return nil
}

func (p *Parser) callable(n Node) bool {
	switch n := n.(type) {
	case *Word:
		return p.dialect == nil || p.dialect.IsFunctionName(n.Tok.Literal)
	case *QuotedIdent:
		return true
	case *QualifiedName:
		_, op := n.Parts[len(n.Parts)-1].(*Operator)
		return !op
	}
	return false
}

func markFunction(n Node) {
	switch n := n.(type) {
	case *Word:
		n.Role = RoleFunction
	case *QualifiedName:
		if w, ok := n.Parts[len(n.Parts)-1].(*Word); ok {
			w.Role = RoleFunction
		}
	}
}

// ---------- Parentheses and lists ----------

// parens reads a parenthesized group at an LPAREN token. A comma-separated
// body becomes a List with the given role.
func (p *Parser) parens(c scanner.Cursor, s scope, role core.ListRole) (*Parens, scanner.Cursor) {
	open := c.Token()
	n := &Parens{Open: open}
	inner := scope{paren: open.ParenDepth, block: open.BlockDepth, role: core.RoleCommaList}
	if s.block < inner.block {
		inner.block = s.block
	}
	n.Body, c = p.items(c.Next(), inner, role)
	if t := c.Token(); t.Type == token.RPAREN && t.ParenDepth < inner.paren {
		n.Close = &t
		c = c.Next()
	} else {
		p.logger.Debug("unclosed parenthesis",
			slog.Int("line", open.Pos.Line),
			slog.Int("column", open.Pos.Column))
	}
	return n, c
}

// brackets reads an array subscript or constructor at an LBRACKET token.
func (p *Parser) brackets(c scanner.Cursor, s scope) (*Brackets, scanner.Cursor) {
	open := c.Token()
	n := &Brackets{Open: open}
	inner := scope{paren: open.ParenDepth, block: min(s.block, open.BlockDepth), brackets: true}
	n.Body, c = p.items(c.Next(), inner, core.RoleCommaList)
	if t := c.Token(); t.Type == token.RBRACKET {
		n.Close = &t
		c = c.Next()
	}
	return n, c
}

// items reads a comma-separated body. A lone item without comments is
// returned as is; nothing at all returns nil.
func (p *Parser) items(c scanner.Cursor, s scope, role core.ListRole) (Node, scanner.Cursor) {
	l, commas, c := p.list(c, s, role)
	switch {
	case commas > 0 || len(l.After) > 0:
		return l, c
	case len(l.Items) == 0:
		return nil, c
	}
	it := l.Items[0]
	if len(it.Leading) > 0 || it.Trailing != nil {
		return l, c
	}
	return it.Node, c
}

// list reads comma-separated items until the scope ends. Comments are
// attached to items: own-line comments before an item lead it, a comment
// on the item's last line trails it, and own-line comments after the last
// item end up in After. It also returns the number of commas read.
func (p *Parser) list(c scanner.Cursor, s scope, role core.ListRole) (*List, int, scanner.Cursor) {
	l := &List{Role: role}
	is := s
	is.list = true
	commas := 0
	var pending []*Comment
	for {
		ph, x := p.phrase(c, is)
		it := &ListItem{Leading: pending}
		pending = nil

		k := 0
		for k < len(ph.Items) {
			cm, ok := ph.Items[k].(*Comment)
			if !ok {
				break
			}
			it.Leading = append(it.Leading, cm)
			k++
		}
		end := len(ph.Items)
		for end > k {
			if _, ok := ph.Items[end-1].(*Comment); !ok {
				break
			}
			end--
		}
		tail := commentsOf(ph.Items[end:])
		ph.Items = ph.Items[k:end]
		if end > k && len(tail) > 0 && !tail[0].OwnLine {
			it.Trailing = tail[0]
			tail = tail[1:]
		}
		it.Node = unwrap(ph)

		if x.Type() != token.COMMA {
			if it.Node != nil {
				l.Items = append(l.Items, it)
				l.After = tail
			} else {
				l.After = append(it.Leading, tail...)
			}
			return l, commas, x
		}

		commas++
		l.Items = append(l.Items, it)
		pending = tail
		c = x.Next()
		// a comment right after the comma still belongs to the item
		if g, y := p.skip(c, false); len(g.comments) > 0 && !g.comments[0].OwnLine && it.Trailing == nil && len(pending) == 0 {
			it.Trailing = g.comments[0]
			pending = g.comments[1:]
			c = y
		}
	}
}

func commentsOf(nodes []Node) []*Comment {
	out := make([]*Comment, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.(*Comment))
	}
	return out
}

// unwrap returns the only item of ph, nil for an empty phrase, or ph.
func unwrap(ph *Phrase) Node {
	switch len(ph.Items) {
	case 0:
		return nil
	case 1:
		return ph.Items[0]
	}
	return ph
}

// ---------- Casts ----------

// typeFollow lists the words that continue a multi-word type name after
// the given word.
var typeFollow = map[string][]string{
	"double":    {"precision"},
	"character": {"varying"},
	"char":      {"varying"},
	"bit":       {"varying"},
	"national":  {"character", "char"},
	"timestamp": {"with", "without"},
	"time":      {"with", "without", "zone"},
	"with":      {"time"},
	"without":   {"time"},
}

// typeCast reads a :: cast at the operator token.
func (p *Parser) typeCast(c scanner.Cursor, s scope) (Node, scanner.Cursor) {
	n := &TypeCast{Op: c.Token()}
	c = c.Next()
	x := next(c)
	if tt := x.Type(); tt != token.IDENT && tt != token.QUOTED_IDENT {
		return n, c
	}
	base, c := p.typeName(x, s)
	n.Type = append(n.Type, base)
	prev := x.Token().Lower()
	for {
		y := next(c)
		w := y.Token().Lower()
		if w == "" || !slices.Contains(typeFollow[prev], w) {
			break
		}
		var part Node
		part, c = p.typeName(y, s)
		n.Type = append(n.Type, part)
		prev = w
	}
	for c.Type() == token.LBRACKET {
		var b *Brackets
		b, c = p.brackets(c, s)
		n.Type = append(n.Type, b)
	}
	return n, c
}

// typeName reads a possibly qualified type name with an optional modifier
// list such as numeric(10, 2).
func (p *Parser) typeName(c scanner.Cursor, s scope) (Node, scanner.Cursor) {
	ns := s
	ns.noCalls = true
	n, c := p.name(c, ns)
	if c.Type() != token.LPAREN {
		return n, c
	}
	args, c := p.parens(c, s, core.RoleFunctionArgs)
	return &FunctionCall{Name: n, Args: args}, c
}

// ---------- Labels ----------

// label reads <<name>> at the << operator. It reports false when the
// brackets do not enclose a single name.
func (p *Parser) label(c scanner.Cursor) (*Label, scanner.Cursor, bool) {
	l := &Label{Open: c.Token()}
	g, x := p.skip(c.Next(), false)
	l.Comments = g.comments
	switch t := x.Token(); t.Type {
	case token.IDENT:
		l.Name = &Word{Tok: t}
	case token.QUOTED_IDENT:
		l.Name = &QuotedIdent{Tok: t}
	default:
		return nil, c, false
	}
	g, x = p.skip(x.Next(), false)
	l.Comments = append(l.Comments, g.comments...)
	if !x.Token().IsOp(">>") {
		return nil, c, false
	}
	l.Close = x.Token()
	return l, x.Next(), true
}

// ---------- CASE ----------

// caseNode reads a CASE expression or, when statement is set, a procedural
// CASE statement whose arms hold statements.
func (p *Parser) caseNode(c scanner.Cursor, s scope, statement bool) (*Case, scanner.Cursor) {
	ct := c.Token()
	n := &Case{Case: keyword(ct), Statement: statement}
	b := ct.BlockDepth
	inner := scope{paren: ct.ParenDepth, block: b, outer: s.outer}
	c = c.Next()

	op, c := p.phrase(c, inner.with(wordsAt(b, "when", "then", "else", "end")))
	if len(op.Items) > 0 {
		n.Operand = op
	}
	arms := scope{paren: inner.paren, block: b, stop: wordsAt(b, "when", "else")}

	for {
		x := next(c)
		t := x.Token()
		switch {
		case t.Is("when") && t.BlockDepth == b:
			arm := &When{When: keyword(t)}
			arm.Cond, c = p.phrase(x.Next(), inner.with(wordsAt(b, "then", "when", "else", "end")))
			if tt := c.Token(); tt.Is("then") && tt.BlockDepth == b {
				arm.Then = keyword(tt)
				c = c.Next()
			}
			if statement {
				arm.Stmts, c = p.sequence(c, arms, arms.stop)
			} else {
				arm.Result, c = p.phrase(c, inner.with(wordsAt(b, "when", "else", "end")))
			}
			n.Arms = append(n.Arms, arm)
		case t.Is("else") && t.BlockDepth == b:
			n.Else = &Else{Else: keyword(t)}
			if statement {
				n.Else.Stmts, c = p.sequence(x.Next(), arms, arms.stop)
			} else {
				n.Else.Result, c = p.phrase(x.Next(), inner.with(wordsAt(b, "when", "else", "end")))
			}
		case t.Is("end"):
			n.End = keyword(t)
			c = x.Next()
			if statement {
				if y := next(c); y.Token().Is("case") {
					n.EndSuffix = keyword(y.Token())
					c = y.Next()
				}
			}
			return n, c
		default:
			p.logger.Debug("unterminated case",
				slog.Int("line", ct.Pos.Line),
				slog.Int("column", ct.Pos.Column))
			return n, c
		}
	}
}
