package syntax

import (
	"log/slog"

	"github.com/leapstack-labs/leapfmt/pkg/scanner"
	"github.com/leapstack-labs/leapfmt/pkg/token"
)

// procedure reads the procedural statements: block labels, DECLARE and
// BEGIN blocks, IF, CASE and the loops. It reports false for anything else.
func (p *Parser) procedure(c scanner.Cursor, s scope) (Node, scanner.Cursor, bool) {
	t := c.Token()
	if t.IsOp("<<") {
		l, after, ok := p.label(c)
		return l, after, ok
	}
	switch t.Lower() {
	case "declare", "begin":
		n, after := p.block(c, s)
		return n, after, true
	case "if":
		n, after := p.ifStmt(c, s)
		return n, after, true
	case "case":
		n, after := p.caseNode(c, s, true)
		return n, after, true
	case "loop", "while", "for", "foreach":
		n, after := p.loop(c, s)
		return n, after, true
	}
	return nil, c, false
}

// block reads [DECLARE decls] BEGIN stmts [EXCEPTION handlers] END [label].
func (p *Parser) block(c scanner.Cursor, s scope) (*Block, scanner.Cursor) {
	n := &Block{}
	t := c.Token()
	if t.Is("declare") {
		n.Declare = keyword(t)
		n.Decls, c = p.sequence(c.Next(), scope{paren: s.paren, block: t.BlockDepth}, words("begin", "declare"))
		t = c.Token()
		if t.Is("declare") {
			// a second DECLARE section belongs to a nested block
			return n, c
		}
	}
	if !t.Is("begin") {
		p.logger.Debug("block without begin",
			slog.Int("line", t.Pos.Line),
			slog.Int("column", t.Pos.Column))
		return n, c
	}
	n.Begin = keyword(t)
	b := t.BlockDepth
	n.Stmts, c = p.sequence(c.Next(), scope{paren: s.paren, block: b}, wordsAt(b, "exception"))
	if t := c.Token(); t.Is("exception") && t.BlockDepth == b {
		n.Exception = keyword(t)
		n.Handlers, c = p.handlers(c.Next(), s.paren, b)
	}
	if t := c.Token(); t.Is("end") {
		n.End = keyword(t)
		c = c.Next()
		n.EndLabel, c = p.endLabel(c)
	}
	return n, c
}

// handlers reads WHEN condition THEN statements arms at block depth b.
func (p *Parser) handlers(c scanner.Cursor, paren, b int) ([]*When, scanner.Cursor) {
	var hs []*When
	for {
		g, x := p.skip(c, false)
		t := x.Token()
		if !t.Is("when") || t.BlockDepth != b {
			if len(g.comments) > 0 {
				// comments before END stay inside the last handler
				if len(hs) > 0 {
					last := hs[len(hs)-1]
					last.Stmts.After = append(last.Stmts.After, g.comments...)
					return hs, x
				}
				return hs, c
			}
			return hs, x
		}
		h := &When{Leading: g.comments, When: keyword(t)}
		h.Cond, c = p.phrase(x.Next(), scope{paren: paren, block: b, stop: wordsAt(b, "then")})
		if t := c.Token(); t.Is("then") && t.BlockDepth == b {
			h.Then = keyword(t)
			c = c.Next()
		}
		h.Stmts, c = p.sequence(c, scope{paren: paren, block: b}, wordsAt(b, "when"))
		hs = append(hs, h)
	}
}

// endLabel reads the optional label after END. A keyword is a label only
// when the statement ends right after it, as in END LOOP outer;
func (p *Parser) endLabel(c scanner.Cursor) (Node, scanner.Cursor) {
	x := next(c)
	t := x.Token()
	switch {
	case hasComment(c, x) || hasLinefeed(c, x):
		return nil, c
	case t.Type == token.QUOTED_IDENT:
		return &QuotedIdent{Tok: t}, x.Next()
	case t.Type != token.IDENT:
		return nil, c
	case p.dialect == nil || !p.dialect.IsKeyword(t.Literal):
		return &Word{Tok: t}, x.Next()
	}
	switch next(x.Next()).Type() {
	case token.SEMICOLON, token.TERMINATOR, token.EOF:
		return &Word{Tok: t}, x.Next()
	}
	return nil, c
}

// ifStmt reads IF cond THEN stmts {ELSIF cond THEN stmts} [ELSE stmts] END IF.
func (p *Parser) ifStmt(c scanner.Cursor, s scope) (*If, scanner.Cursor) {
	n := &If{}
	t := c.Token()
	b := t.BlockDepth
	kw := keyword(t)
	c = c.Next()
	for {
		arm := &CondArm{Keyword: kw}
		arm.Cond, c = p.phrase(c, scope{paren: s.paren, block: b, stop: wordsAt(b, "then")})
		if t := c.Token(); t.Is("then") && t.BlockDepth == b {
			arm.Then = keyword(t)
			c = c.Next()
		}
		arm.Stmts, c = p.sequence(c, scope{paren: s.paren, block: b}, wordsAt(b, "elsif", "elseif", "else"))
		n.Arms = append(n.Arms, arm)
		t := c.Token()
		if (t.Is("elsif") || t.Is("elseif")) && t.BlockDepth == b {
			kw = keyword(t)
			c = c.Next()
			continue
		}
		break
	}
	if t := c.Token(); t.Is("else") && t.BlockDepth == b {
		n.Else = keyword(t)
		n.ElseStmts, c = p.sequence(c.Next(), scope{paren: s.paren, block: b}, nil)
	}
	if t := c.Token(); t.Is("end") {
		n.End = keyword(t)
		c = c.Next()
		if y := next(c); y.Token().Is("if") && !hasComment(c, y) {
			n.EndIf = keyword(y.Token())
			c = y.Next()
		}
	}
	return n, c
}

// loop reads [WHILE cond | FOR iteration | FOREACH iteration] LOOP stmts
// END LOOP [label].
func (p *Parser) loop(c scanner.Cursor, s scope) (*Loop, scanner.Cursor) {
	n := &Loop{}
	t := c.Token()
	if !t.Is("loop") {
		n.Keyword = keyword(t)
		stop := words("loop")
		n.Head, c = p.phrase(c.Next(), scope{paren: s.paren, block: t.BlockDepth, stop: stop, outer: stop})
		t = c.Token()
	}
	if !t.Is("loop") {
		p.logger.Debug("loop without body",
			slog.Int("line", t.Pos.Line),
			slog.Int("column", t.Pos.Column))
		return n, c
	}
	n.Loop = keyword(t)
	b := t.BlockDepth
	n.Stmts, c = p.sequence(c.Next(), scope{paren: s.paren, block: b}, nil)
	if t := c.Token(); t.Is("end") {
		n.End = keyword(t)
		c = c.Next()
		if y := next(c); y.Token().Is("loop") && !hasComment(c, y) {
			n.EndLoop = keyword(y.Token())
			c = y.Next()
		}
		n.EndLabel, c = p.endLabel(c)
	}
	return n, c
}
