package syntax

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/scanner"
	"github.com/leapstack-labs/leapfmt/pkg/token"
)

// interpreted lists the body languages read as statements.
var interpreted = []string{"sql", "plpgsql"}

// functionOptions are the words that start a CREATE FUNCTION option.
var functionOptions = []string{
	"returns", "language", "as", "immutable", "stable", "volatile", "strict",
	"called", "security", "external", "leakproof", "not", "cost", "rows",
	"support", "set", "parallel", "window", "transform", "return",
}

// create reads CREATE FUNCTION, CREATE PROCEDURE and CREATE TABLE. It
// reports false for other CREATE statements.
func (p *Parser) create(c scanner.Cursor, s scope) (Node, scanner.Cursor, bool) {
	x := next(c.Next())
	for range 4 {
		switch x.Token().Lower() {
		case "function", "procedure":
			n, after := p.createFunction(c, s)
			return n, after, true
		case "table":
			n, after := p.createTable(c, s)
			return n, after, true
		case "or", "replace", "temp", "temporary", "unlogged", "global", "local":
			x = next(x.Next())
		default:
			return nil, c, false
		}
	}
	return nil, c, false
}

// lparenAt matches an opening paren directly in the scope.
func lparenAt(paren int) StopFunc {
	return func(c scanner.Cursor) bool {
		t := c.Token()
		return t.Type == token.LPAREN && t.ParenDepth == paren+1
	}
}

// createFunction reads CREATE FUNCTION: the head up to the parameter list,
// the parameters and the options. The body after AS is interpreted unless
// the function is in a language other than SQL or PL/pgSQL.
func (p *Parser) createFunction(c scanner.Cursor, s scope) (Node, scanner.Cursor) {
	n := &CreateFunction{}
	hs := s.with(lparenAt(s.paren))
	hs.noCalls = true
	n.Head, c = p.phrase(c, hs)
	if c.Type() == token.LPAREN {
		n.Params, c = p.parens(c, s, core.RoleFunctionDefArgs)
	}

	optionStart := func(x scanner.Cursor) bool {
		t := x.Token()
		return t.ParenDepth == s.paren && slices.Contains(functionOptions, t.Lower())
	}
	os := s.with(optionStart)
	os.role = core.RoleFunctionDefArgs

	var (
		lang     string
		bodyAt   *Clause
		bodyFrom scanner.Cursor
		bodyTo   scanner.Cursor
	)
	for {
		g, x := p.skip(c, false)
		cl := &Clause{Leading: g.comments}
		if s.ends(x) {
			if len(g.comments) > 0 {
				n.Options = append(n.Options, cl)
			}
			c = x
			break
		}
		t := x.Token()
		if !optionStart(x) {
			cl.Body, c = p.phrase(x, os)
			n.Options = append(n.Options, cl)
			continue
		}
		cl.Keywords = []*Word{keyword(t)}
		switch t.Lower() {
		case "as":
			if lang == "" || slices.Contains(interpreted, lang) {
				if !x.ExpectBody(false) {
					p.logger.Debug("function body not interpreted",
						slog.Int("line", t.Pos.Line),
						slog.Int("column", t.Pos.Column))
				}
			}
			c = x.Next()
			if y := next(c); y.Type() == token.BODY_START && !hasComment(c, y) {
				bodyFrom = y
				cl.Body, c = p.body(y)
				bodyAt, bodyTo = cl, c
			} else {
				cl.Body, c = p.phrase(c, os)
			}
		case "language":
			var ph *Phrase
			ph, c = p.phrase(x.Next(), os)
			cl.Body = ph
			lang = languageName(ph)
		default:
			var ph *Phrase
			ph, c = p.phrase(x.Next(), os)
			if len(ph.Items) > 0 {
				cl.Body = ph
			}
		}
		n.Options = append(n.Options, cl)
	}

	if bodyAt != nil && lang != "" && !slices.Contains(interpreted, lang) {
		if b, ok := bodyAt.Body.(*Body); ok && b.Close != nil {
			bodyAt.Body = opaque(bodyFrom, bodyTo)
		}
	}
	return n, c
}

// languageName returns the lower-cased language named by a LANGUAGE
// option or prefix.
func languageName(ph *Phrase) string {
	for _, it := range ph.Items {
		switch it := it.(type) {
		case *Word:
			return it.Tok.Lower()
		case *QuotedIdent:
			return strings.ToLower(it.Tok.Literal)
		case *Literal:
			return strings.ToLower(it.Tok.Literal)
		case *Comment:
			continue
		}
		return ""
	}
	return ""
}

// languageIn finds LANGUAGE name inside a phrase.
func languageIn(ph *Phrase) string {
	if ph == nil {
		return ""
	}
	for i, it := range ph.Items {
		if w, ok := it.(*Word); ok && w.Tok.Is("language") {
			return languageName(&Phrase{Items: ph.Items[i+1:]})
		}
	}
	return ""
}

// opaque turns the tokens of an interpreted body back into one
// dollar-quoted literal, for bodies in languages that are not read.
func opaque(from, to scanner.Cursor) *Literal {
	open := from.Token()
	var parts []string
	for c := from.Next(); c.Before(to); c = c.Next() {
		parts = append(parts, c.Token().Source())
	}
	if len(parts) > 0 {
		parts = parts[:len(parts)-1] // closing tag
	}
	return &Literal{Tok: token.Token{
		Type:       token.STRING,
		Literal:    strings.Join(parts, ""),
		Delimiter:  open.Delimiter,
		Pos:        open.Pos,
		ParenDepth: open.ParenDepth,
		BlockDepth: open.BlockDepth,
	}}
}

// createTable reads CREATE TABLE name (columns) options. Without a column
// list, as in CREATE TABLE ... AS, the statement stays a phrase.
func (p *Parser) createTable(c scanner.Cursor, s scope) (Node, scanner.Cursor) {
	hs := s.with(lparenAt(s.paren))
	hs.noCalls = true
	head, c := p.phrase(c, hs)
	if c.Type() != token.LPAREN || !namesTable(head) {
		rest, after := p.phrase(c, s)
		head.Items = append(head.Items, rest.Items...)
		return &Statement{Phrase: head}, after
	}
	n := &CreateTable{Head: head}
	n.Columns, c = p.parens(c, s, core.RoleTableColumns)
	tail, c := p.phrase(c, s)
	if len(tail.Items) > 0 {
		n.Tail = tail
	}
	return n, c
}

// namesTable reports whether the head ends with the table name.
func namesTable(head *Phrase) bool {
	for i := len(head.Items) - 1; i >= 0; i-- {
		switch n := head.Items[i].(type) {
		case *Comment:
			continue
		case *Word:
			return n.Role != RoleKeyword
		case *QuotedIdent, *QualifiedName:
			return true
		}
		return false
	}
	return false
}

// ---------- Bodies ----------

// do reads DO [LANGUAGE name] body [LANGUAGE name].
func (p *Parser) do(c scanner.Cursor, s scope) (Node, scanner.Cursor) {
	t := c.Token()
	n := &Do{Do: keyword(t)}
	if !c.ExpectBody(true) {
		p.logger.Debug("do body not interpreted",
			slog.Int("line", t.Pos.Line),
			slog.Int("column", t.Pos.Column))
	}
	bodyStart := func(x scanner.Cursor) bool {
		tt := x.Type()
		return tt == token.BODY_START || tt == token.STRING
	}
	prefix, c := p.phrase(c.Next(), s.with(bodyStart))
	if len(prefix.Items) > 0 {
		n.Prefix = prefix
	}

	from := c
	switch c.Type() {
	case token.BODY_START:
		n.Body, c = p.body(c)
	case token.STRING:
		n.Body = &Literal{Tok: c.Token()}
		c = c.Next()
	}
	to := c

	suffix, c := p.phrase(c, s)
	if len(suffix.Items) > 0 {
		n.Suffix = suffix
	}

	lang := languageIn(n.Prefix)
	if lang == "" {
		lang = languageIn(n.Suffix)
	}
	if b, ok := n.Body.(*Body); ok && b.Close != nil && lang != "" && !slices.Contains(interpreted, lang) {
		n.Body = opaque(from, to)
	}
	return n, c
}

// body reads an interpreted body at a BODY_START token in the body
// dialect.
func (p *Parser) body(c scanner.Cursor) (*Body, scanner.Cursor) {
	open := c.Token()
	savedDialect, savedProcedural := p.dialect, p.procedural
	p.dialect = p.bodyDialect
	p.procedural = p.bodyDialect != nil && p.bodyDialect.Procedural()
	defer func() { p.dialect, p.procedural = savedDialect, savedProcedural }()

	b := &Body{Open: open}
	b.Stmts, c = p.sequence(c.Next(), scope{}, nil)
	if t := c.Token(); t.Type == token.TERMINATOR {
		b.Close = &t
		c = c.Next()
	} else {
		p.logger.Debug("unterminated body",
			slog.Int("line", open.Pos.Line),
			slog.Int("column", open.Pos.Column))
	}
	return b, c
}
