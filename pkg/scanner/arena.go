package scanner

import (
	"github.com/leapstack-labs/leapfmt/pkg/token"
)

// Arena is an index-addressed, append-only store of scanned tokens. Tokens
// are pulled from the scanner on demand as cursors move forward. Tokens
// behind a released cursor are dropped to bound memory while streaming.
type Arena struct {
	sc   *Scanner
	toks []token.Token
	base int // absolute index of toks[0]
	eof  bool
}

// NewArena creates an arena fed by sc.
func NewArena(sc *Scanner) *Arena {
	return &Arena{sc: sc}
}

// Start returns a cursor at the oldest retained token.
func (a *Arena) Start() Cursor {
	return Cursor{a: a, i: a.base}
}

// Len returns the number of tokens currently retained.
func (a *Arena) Len() int {
	return len(a.toks)
}

// Release drops every token before c. Cursors pointing before c must not be
// used afterwards.
func (a *Arena) Release(c Cursor) {
	n := c.i - a.base
	if n <= 0 {
		return
	}
	if n > len(a.toks) {
		n = len(a.toks)
	}
	rest := make([]token.Token, len(a.toks)-n)
	copy(rest, a.toks[n:])
	a.toks = rest
	a.base += n
}

func (a *Arena) at(i int) token.Token {
	if i < a.base {
		panic("scanner: cursor used after its tokens were released")
	}
	for i-a.base >= len(a.toks) {
		if a.eof {
			return a.toks[len(a.toks)-1]
		}
		t := a.sc.Next()
		a.toks = append(a.toks, t)
		if t.Type == token.EOF {
			a.eof = true
		}
	}
	return a.toks[i-a.base]
}

// armable reports whether every token scanned after index i is noise, so
// the scanner may still be told how to read the next significant token.
func (a *Arena) armable(i int) bool {
	if a.eof {
		return false
	}
	for j := max(i+1-a.base, 0); j < len(a.toks); j++ {
		if !a.toks[j].Type.IsNoise() {
			return false
		}
	}
	return true
}

// Cursor is an immutable position in an Arena. Moving a cursor returns a
// new cursor; the arena itself is never rewritten.
type Cursor struct {
	a *Arena
	i int
}

// Token returns the token at the cursor, scanning it if needed. Past the
// end of input it returns EOF.
func (c Cursor) Token() token.Token {
	return c.a.at(c.i)
}

// Type is shorthand for c.Token().Type.
func (c Cursor) Type() token.TokenType {
	return c.Token().Type
}

// Next returns the cursor after c. At EOF it stays at EOF.
func (c Cursor) Next() Cursor {
	if c.Token().Type == token.EOF {
		return c
	}
	return Cursor{a: c.a, i: c.i + 1}
}

// Index returns the absolute index of the cursor.
func (c Cursor) Index() int {
	return c.i
}

// Before reports whether c is strictly before other.
func (c Cursor) Before(other Cursor) bool {
	return c.i < other.i
}

// ExpectBody arms the scanner to read the next dollar quote after c as a
// body opener. It only succeeds while nothing but noise has been scanned
// after c; otherwise the token is already fixed and ExpectBody reports false.
func (c Cursor) ExpectBody(untilSemicolon bool) bool {
	if !c.a.armable(c.i) {
		return false
	}
	c.a.sc.ExpectBody(untilSemicolon)
	return true
}
