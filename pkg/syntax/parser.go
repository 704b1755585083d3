// Package syntax interprets a token stream into typed syntax nodes.
//
// # Usage
//
//	sc := scanner.New(r, scanner.Options{Dialect: d, Body: plpgsql.PLpgSQL})
//	arena := scanner.NewArena(sc)
//	p := syntax.NewParser(d, plpgsql.PLpgSQL, logger)
//	for c := arena.Start(); ; {
//	    var stmt *syntax.Stmt
//	    stmt, c = p.Statement(c)
//	    if stmt == nil {
//	        break
//	    }
//	    arena.Release(c)
//	}
//
// The parser never fails. Constructs without a dedicated rule become a
// Statement or a Phrase that renders as word-wrapped text, and malformed
// tokens become Error nodes.
//
// # Shape
//
//	statement  → query | create_function | create_table | do | procedural | phrase
//	query      → clause { clause }
//	clause     → keywords [ list | phrase | query ]
//	procedural → block | if | case | loop            (inside bodies)
//	phrase     → { item }
//	item       → name | call | parens | brackets | case | cast | literal | operator | comment
//
// Interpretation is one left-to-right pass over an arena cursor. Every rule
// takes a cursor and returns the node and the cursor after it; nothing is
// rewritten in place, so lookahead is just reading further cursors.
package syntax

import (
	"log/slog"
	"slices"

	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/dialect"
	"github.com/leapstack-labs/leapfmt/pkg/scanner"
	"github.com/leapstack-labs/leapfmt/pkg/token"
)

// StopFunc reports whether the significant token at c ends the construct
// being read. It may look further ahead from c.
type StopFunc func(c scanner.Cursor) bool

// Parser interprets tokens into syntax nodes.
type Parser struct {
	top         *dialect.Dialect
	bodyDialect *dialect.Dialect

	// dialect of the text being read; switches to body inside bodies
	dialect    *dialect.Dialect
	procedural bool

	logger *slog.Logger
}

// NewParser creates a parser for top-level text in dialect top whose
// interpreted bodies are in dialect body. A nil body means top.
func NewParser(top, body *dialect.Dialect, logger *slog.Logger) *Parser {
	if body == nil {
		body = top
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Parser{
		top:         top,
		bodyDialect: body,
		dialect:     top,
		procedural:  top != nil && top.Procedural(),
		logger:      logger,
	}
}

// Statement reads the next top-level statement at c together with its
// leading comments, semicolon and same-line trailing comments. It returns
// nil at the end of input.
func (p *Parser) Statement(c scanner.Cursor) (*Stmt, scanner.Cursor) {
	st, next := p.stmt(c, scope{top: true}, c.Index() == 0, nil)
	if st.Node == nil && !st.Semicolon && st.Terminator == nil && len(st.Leading) == 0 {
		return nil, next
	}
	return st, next
}

// Expression reads a phrase at c until stop matches, a semicolon or the
// end of input.
func (p *Parser) Expression(c scanner.Cursor, stop StopFunc) (*Phrase, scanner.Cursor) {
	s := scope{stop: stop, outer: stop}
	if t := next(c).Token(); t.Type == token.LPAREN {
		s.paren = t.ParenDepth - 1
	} else {
		s.paren = t.ParenDepth
	}
	return p.phrase(c, s)
}

// Procedural reads one statement at c with procedural dispatch: DECLARE,
// BEGIN, IF, CASE, LOOP, WHILE, FOR, FOREACH and block labels are
// recognized before the generic rules. stop ends the statement sequence
// when it matches at a statement start.
func (p *Parser) Procedural(c scanner.Cursor, stop StopFunc) (*Stmt, scanner.Cursor) {
	saved := p.procedural
	p.procedural = true
	defer func() { p.procedural = saved }()
	return p.stmt(c, scope{}, false, stop)
}

// ---------- Scopes ----------

// scope describes where the construct being read ends.
type scope struct {
	paren    int  // paren depth of tokens directly in the scope
	block    int  // block depth of tokens directly in the scope
	list     bool // a comma ends the scope
	brackets bool // a ']' ends the scope
	top      bool // top level: the caller's terminator ends statements
	noCalls  bool // a name followed by '(' is not a function call
	stop     StopFunc

	// outer is the stop inherited by queries nested in the scope
	outer StopFunc

	// role of lists in plain parentheses opened in this scope
	role core.ListRole
}

// ends reports whether the token at c ends the scope.
func (s scope) ends(c scanner.Cursor) bool {
	t := c.Token()
	switch t.Type {
	case token.EOF, token.TERMINATOR, token.SEMICOLON:
		return true
	case token.RPAREN:
		if t.ParenDepth < s.paren {
			return true
		}
	case token.RBRACKET:
		if s.brackets {
			return true
		}
	case token.COMMA:
		if s.list {
			return true
		}
	}
	if t.BlockDepth < s.block {
		return true
	}
	return s.stop != nil && s.stop(c)
}

// with returns a copy of s that also ends where stop matches.
func (s scope) with(stop StopFunc) scope {
	if s.stop == nil {
		s.stop = stop
		return s
	}
	outer := s.stop
	s.stop = func(c scanner.Cursor) bool { return stop(c) || outer(c) }
	return s
}

// phraseOnly returns s without the list and bracket ends, for a
// construct nested inside an item.
func (s scope) phraseOnly() scope {
	s.list, s.brackets = false, false
	return s
}

// words matches any of the given lower-case words.
func words(ws ...string) StopFunc {
	return func(c scanner.Cursor) bool {
		return slices.Contains(ws, c.Token().Lower())
	}
}

// wordsAt matches the given words at block depth block.
func wordsAt(block int, ws ...string) StopFunc {
	return func(c scanner.Cursor) bool {
		t := c.Token()
		return t.BlockDepth == block && slices.Contains(ws, t.Lower())
	}
}

// ---------- Noise ----------

// gap is the noise between two significant tokens.
type gap struct {
	comments []*Comment
	lines    int // line breaks after the last comment
}

// skip moves c past noise and collects the comments it passes. fresh tells
// whether c is at the start of a line.
func (p *Parser) skip(c scanner.Cursor, fresh bool) (gap, scanner.Cursor) {
	var g gap
	lines := 0
	for {
		t := c.Token()
		switch t.Type {
		case token.WHITESPACE:
		case token.LINEFEED:
			lines++
		case token.LINE_COMMENT, token.BLOCK_COMMENT:
			g.comments = append(g.comments, &Comment{
				Tok:         t,
				OwnLine:     fresh || lines > 0,
				BlankBefore: max(lines-1, 0),
			})
			lines, fresh = 0, false
		default:
			g.lines = lines
			return g, c
		}
		c = c.Next()
	}
}

// next returns the first significant cursor at or after c.
func next(c scanner.Cursor) scanner.Cursor {
	for c.Type().IsNoise() {
		c = c.Next()
	}
	return c
}

// ---------- Leaves ----------

func (p *Parser) word(t token.Token) *Word {
	role := RoleIdentifier
	if p.dialect != nil && p.dialect.IsKeyword(t.Literal) {
		role = RoleKeyword
	}
	return &Word{Tok: t, Role: role}
}

// keyword wraps t as a keyword regardless of the dialect's word list.
func keyword(t token.Token) *Word {
	return &Word{Tok: t, Role: RoleKeyword}
}

func (p *Parser) errorNode(t token.Token) *Error {
	p.logger.Warn("malformed input",
		slog.String("error", t.Err),
		slog.Int("line", t.Pos.Line),
		slog.Int("column", t.Pos.Column),
		slog.String("token", t.Source()))
	return &Error{Tok: t}
}
