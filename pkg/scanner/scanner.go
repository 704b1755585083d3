// Package scanner turns SQL text into a lazy stream of tokens.
//
// The scanner is pull-based: every call to Next reads just enough input to
// produce one token. Each token is stamped with the parenthesis depth and
// the block depth in effect after it. Lexical problems never stop scanning;
// they produce ERROR tokens carrying a diagnostic.
package scanner

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/leapfmt/pkg/dialect"
	"github.com/leapstack-labs/leapfmt/pkg/token"
)

const eof = -1

// Options configures a Scanner.
type Options struct {
	// Dialect drives block counting for top-level text.
	Dialect *dialect.Dialect

	// Body drives block counting inside interpreted bodies. Defaults to
	// Dialect.
	Body *dialect.Dialect

	// Terminator is an additional statement terminator recognized at top
	// level, for example the closing tag of a body being formatted on its
	// own.
	Terminator string

	// AutoBody arms body scanning after the words DO and AS, so bodies are
	// recognized without an interpreter driving the scanner.
	AutoBody bool
}

type armMode int

const (
	armNone      armMode = iota
	armNext              // only the next significant token may open a body
	armStatement         // any dollar quote before the next ';' opens a body
)

// frame is an open interpreted body.
type frame struct {
	tag      string
	dialect  *dialect.Dialect
	paren    int
	block    int
	atStart  bool
	prevWord string
}

type rn struct {
	r    rune
	size int
}

// Scanner produces tokens from a character source.
type Scanner struct {
	r    *bufio.Reader
	la   []rn
	eof  bool
	pos  token.Position
	text strings.Builder

	opts    Options
	dialect *dialect.Dialect
	frames  []frame

	paren int
	block int

	armed    armMode
	atStart  bool
	prevWord string
	done     bool
}

// New creates a scanner reading from r.
func New(r io.Reader, opts Options) *Scanner {
	if opts.Body == nil {
		opts.Body = opts.Dialect
	}
	return &Scanner{
		r:       bufio.NewReader(r),
		pos:     token.Position{Line: 1, Column: 1},
		opts:    opts,
		dialect: opts.Dialect,
		atStart: true,
	}
}

// ExpectBody arms the scanner: the next dollar-quoted string is not read as
// a literal but as the opening tag of an interpreted body. With untilSemicolon
// the arming survives other tokens up to the next ';', otherwise only the
// next significant token may open the body.
func (s *Scanner) ExpectBody(untilSemicolon bool) {
	if untilSemicolon {
		s.armed = armStatement
	} else {
		s.armed = armNext
	}
}

// InBody reports whether the scanner is inside an interpreted body.
func (s *Scanner) InBody() bool {
	return len(s.frames) > 0
}

// Next returns the next token. After the input is exhausted it keeps
// returning EOF.
func (s *Scanner) Next() token.Token {
	start := s.pos
	s.text.Reset()

	if s.done {
		return s.emit(token.Token{Type: token.EOF}, start)
	}

	c := s.peek(0)
	if c == eof {
		s.done = true
		return s.emit(token.Token{Type: token.EOF}, start)
	}

	if tag := s.terminator(); tag != "" {
		s.advanceN(utf8.RuneCountInString(tag))
		return s.emit(token.Token{Type: token.TERMINATOR}, start)
	}

	switch {
	case c == '\n':
		s.advance()
		return s.emit(token.Token{Type: token.LINEFEED}, start)
	case c == '\r' && s.peek(1) == '\n':
		s.advanceN(2)
		return s.emit(token.Token{Type: token.LINEFEED}, start)
	case isSpace(c):
		for isSpace(s.peek(0)) && !(s.peek(0) == '\r' && s.peek(1) == '\n') {
			s.advance()
		}
		return s.emit(token.Token{Type: token.WHITESPACE}, start)
	case c == '-' && s.peek(1) == '-':
		for p := s.peek(0); p != eof && p != '\n' && !(p == '\r' && s.peek(1) == '\n') && !s.atFrameEnd(); p = s.peek(0) {
			s.advance()
		}
		return s.emit(token.Token{Type: token.LINE_COMMENT}, start)
	case c == '/' && s.peek(1) == '*':
		return s.blockComment(start)
	case c == '\'':
		return s.quoted(start, "'", false)
	case (c == 'e' || c == 'E') && s.peek(1) == '\'':
		return s.quoted(start, string(c)+"'", true)
	case strings.ContainsRune("bBxXnN", c) && s.peek(1) == '\'':
		return s.quoted(start, string(c)+"'", false)
	case (c == 'u' || c == 'U') && s.peek(1) == '&' && s.peek(2) == '\'':
		return s.quoted(start, string(c)+"&'", false)
	case (c == 'u' || c == 'U') && s.peek(1) == '&' && s.peek(2) == '"':
		return s.quotedIdent(start, string(c)+`&"`)
	case c == '"':
		return s.quotedIdent(start, `"`)
	case c == '$':
		return s.dollar(start)
	case isIdentStart(c):
		for isIdentPart(s.peek(0)) {
			s.advance()
		}
		return s.emit(token.Token{Type: token.IDENT}, start)
	case isDigit(c) || (c == '.' && isDigit(s.peek(1))):
		s.number()
		return s.emit(token.Token{Type: token.NUMBER}, start)
	case c == '.' && s.peek(1) == '.':
		s.advanceN(2)
		return s.emit(token.Token{Type: token.OPERATOR}, start)
	case c == ':':
		n := 0
		for s.peek(n) == ':' {
			n++
		}
		if n == 1 && s.peek(1) == '=' {
			n = 2
		}
		s.advanceN(n)
		return s.emit(token.Token{Type: token.OPERATOR}, start)
	case isOpChar(c):
		s.advanceN(s.operatorLength())
		return s.emit(token.Token{Type: token.OPERATOR}, start)
	}

	if t, ok := punctuation[c]; ok {
		s.advance()
		return s.emit(token.Token{Type: t}, start)
	}

	s.advance()
	return s.emit(token.Token{Type: token.ERROR, Err: fmt.Sprintf("unexpected character %q", c)}, start)
}

var punctuation = map[rune]token.TokenType{
	',': token.COMMA,
	'.': token.DOT,
	';': token.SEMICOLON,
	'(': token.LPAREN,
	')': token.RPAREN,
	'[': token.LBRACKET,
	']': token.RBRACKET,
}

// terminator returns the active terminator if the input continues with it.
func (s *Scanner) terminator() string {
	var tag string
	if n := len(s.frames); n > 0 {
		tag = s.frames[n-1].tag
	} else {
		tag = s.opts.Terminator
	}
	if tag == "" || !s.hasPrefix(tag) {
		return ""
	}
	last, _ := utf8.DecodeLastRuneInString(tag)
	if isIdentPart(last) && isIdentPart(s.peek(utf8.RuneCountInString(tag))) {
		return ""
	}
	return tag
}

// atFrameEnd reports whether the input continues with the closing tag of
// the innermost body. No literal or comment inside a body extends past it.
func (s *Scanner) atFrameEnd() bool {
	n := len(s.frames)
	return n > 0 && s.hasPrefix(s.frames[n-1].tag)
}

func (s *Scanner) blockComment(start token.Position) token.Token {
	s.advanceN(2)
	depth := 1
	for depth > 0 {
		switch c := s.peek(0); {
		case c == eof, s.atFrameEnd():
			return s.emit(token.Token{Type: token.ERROR, Err: "unterminated block comment"}, start)
		case c == '/' && s.peek(1) == '*':
			s.advanceN(2)
			depth++
		case c == '*' && s.peek(1) == '/':
			s.advanceN(2)
			depth--
		default:
			s.advance()
		}
	}
	return s.emit(token.Token{Type: token.BLOCK_COMMENT}, start)
}

// quoted reads a single-quoted literal whose opening delimiter is delim.
// Doubled quotes always continue the literal; backslash escapes only count
// in escape strings.
func (s *Scanner) quoted(start token.Position, delim string, escapes bool) token.Token {
	s.advanceN(utf8.RuneCountInString(delim))
	for {
		switch c := s.peek(0); {
		case c == eof, s.atFrameEnd():
			return s.emit(token.Token{Type: token.ERROR, Err: "unterminated quoted string"}, start)
		case escapes && c == '\\' && s.peek(1) != eof:
			s.advanceN(2)
		case c == '\'' && s.peek(1) == '\'':
			s.advanceN(2)
		case c == '\'':
			s.advance()
			return s.emit(token.Token{Type: token.STRING, Delimiter: delim}, start)
		default:
			s.advance()
		}
	}
}

func (s *Scanner) quotedIdent(start token.Position, delim string) token.Token {
	s.advanceN(utf8.RuneCountInString(delim))
	for {
		switch c := s.peek(0); {
		case c == eof, s.atFrameEnd():
			return s.emit(token.Token{Type: token.ERROR, Err: "unterminated quoted identifier"}, start)
		case c == '"' && s.peek(1) == '"':
			s.advanceN(2)
		case c == '"':
			s.advance()
			return s.emit(token.Token{Type: token.QUOTED_IDENT, Delimiter: delim}, start)
		default:
			s.advance()
		}
	}
}

// dollar handles positional parameters, dollar-quoted strings and body tags.
func (s *Scanner) dollar(start token.Position) token.Token {
	if isDigit(s.peek(1)) {
		s.advance()
		for isDigit(s.peek(0)) {
			s.advance()
		}
		return s.emit(token.Token{Type: token.PARAM}, start)
	}

	n := s.dollarTagLength()
	if n == 0 {
		s.advance()
		return s.emit(token.Token{Type: token.ERROR, Err: "unexpected character '$'"}, start)
	}
	s.advanceN(n)
	tag := s.text.String()

	if s.armed != armNone {
		return s.emit(token.Token{Type: token.BODY_START, Delimiter: tag}, start)
	}

	for !s.hasPrefix(tag) {
		if s.peek(0) == eof || s.atFrameEnd() {
			return s.emit(token.Token{Type: token.ERROR, Err: fmt.Sprintf("unterminated dollar-quoted string %s", tag)}, start)
		}
		s.advance()
	}
	s.advanceN(n)
	return s.emit(token.Token{Type: token.STRING, Delimiter: tag}, start)
}

// dollarTagLength returns the rune length of a $tag$ opener at the current
// position, or 0 if there is none.
func (s *Scanner) dollarTagLength() int {
	n := 1
	if c := s.peek(n); isIdentStart(c) {
		n++
		for c = s.peek(n); isIdentStart(c) || isDigit(c); c = s.peek(n) {
			n++
		}
	}
	if s.peek(n) != '$' {
		return 0
	}
	return n + 1
}

func (s *Scanner) number() {
	if s.peek(0) == '0' && strings.ContainsRune("xXoObB", s.peek(1)) && isHexDigit(s.peek(2)) {
		s.advanceN(2)
		for isHexDigit(s.peek(0)) || s.peek(0) == '_' {
			s.advance()
		}
		return
	}
	for isDigit(s.peek(0)) || (s.peek(0) == '_' && isDigit(s.peek(1))) {
		s.advance()
	}
	if s.peek(0) == '.' && s.peek(1) != '.' {
		s.advance()
		for isDigit(s.peek(0)) || (s.peek(0) == '_' && isDigit(s.peek(1))) {
			s.advance()
		}
	}
	if c := s.peek(0); c == 'e' || c == 'E' {
		switch {
		case isDigit(s.peek(1)):
			s.advance()
		case (s.peek(1) == '+' || s.peek(1) == '-') && isDigit(s.peek(2)):
			s.advanceN(2)
		default:
			return
		}
		for isDigit(s.peek(0)) {
			s.advance()
		}
	}
}

// operatorLength applies maximal munch to an operator run, never swallowing
// the start of a comment. A run longer than one character may not end in
// + or - unless it contains one of ~ ! @ # % ^ & | ` ?, so such trailing
// characters are given back.
func (s *Scanner) operatorLength() int {
	n := 0
	for isOpChar(s.peek(n)) {
		if n > 0 && ((s.peek(n) == '-' && s.peek(n+1) == '-') || (s.peek(n) == '/' && s.peek(n+1) == '*')) {
			break
		}
		n++
	}
	if n > 1 && isPlusMinus(s.peek(n-1)) {
		special := false
		for i := 0; i < n; i++ {
			if strings.ContainsRune("~!@#%^&|`?", s.peek(i)) {
				special = true
				break
			}
		}
		if !special {
			for n > 1 && isPlusMinus(s.peek(n-1)) {
				n--
			}
		}
	}
	return n
}

// emit finalizes a token: fills in text, updates nesting counters and the
// statement-start state, and stamps the counters on the token.
func (s *Scanner) emit(t token.Token, start token.Position) token.Token {
	raw := s.text.String()
	t.Pos = start
	t.Literal = raw
	switch t.Type {
	case token.STRING, token.QUOTED_IDENT:
		t.Literal = raw[len(t.Delimiter) : len(raw)-len(t.Closing())]
	case token.BODY_START:
		t.Literal = ""
	}

	switch t.Type {
	case token.EOF:
	case token.WHITESPACE, token.LINEFEED, token.LINE_COMMENT, token.BLOCK_COMMENT:
		t.ParenDepth, t.BlockDepth = s.paren, s.block
		return t
	case token.BODY_START:
		s.frames = append(s.frames, frame{
			tag:      t.Delimiter,
			dialect:  s.dialect,
			paren:    s.paren,
			block:    s.block,
			atStart:  s.atStart,
			prevWord: s.prevWord,
		})
		s.dialect = s.opts.Body
		s.paren, s.block = 0, 0
		s.armed = armNone
		s.atStart, s.prevWord = true, ""
	case token.TERMINATOR:
		if n := len(s.frames); n > 0 {
			f := s.frames[n-1]
			s.frames = s.frames[:n-1]
			s.dialect = f.dialect
			s.paren, s.block = f.paren, f.block
		} else {
			s.paren, s.block = 0, 0
		}
		s.atStart, s.prevWord = false, ""
	default:
		s.track(&t)
	}

	t.ParenDepth, t.BlockDepth = s.paren, s.block
	return t
}

// track updates counters and arming for a significant token.
func (s *Scanner) track(t *token.Token) {
	word := ""
	switch t.Type {
	case token.LPAREN:
		s.paren++
	case token.RPAREN:
		if s.paren > 0 {
			s.paren--
		} else {
			t.Err = "unmatched closing parenthesis"
		}
	case token.IDENT:
		word = strings.ToLower(t.Literal)
		if s.dialect != nil {
			switch {
			case s.dialect.ClosesBlock(word):
				if s.block > 0 {
					s.block--
				}
			case s.prevWord != "end" && s.dialect.OpensBlock(word, s.atStart):
				s.block++
			}
		}
	}

	switch {
	case t.Type == token.SEMICOLON:
		s.armed = armNone
	case s.armed == armNext:
		s.armed = armNone
	}
	if s.opts.AutoBody && s.paren == 0 {
		switch word {
		case "do":
			s.armed = armStatement
		case "as":
			s.armed = armNext
		}
	}

	s.prevWord = word
	switch {
	case t.Type == token.SEMICOLON, t.IsOp(">>"):
		s.atStart = true
	case word == "then", word == "else", word == "loop", word == "begin", word == "declare":
		s.atStart = true
	default:
		s.atStart = false
	}
}

// peek returns the rune i positions ahead without consuming it.
func (s *Scanner) peek(i int) rune {
	for len(s.la) <= i {
		if s.eof {
			return eof
		}
		r, size, err := s.r.ReadRune()
		if err != nil {
			s.eof = true
			return eof
		}
		s.la = append(s.la, rn{r: r, size: size})
	}
	return s.la[i].r
}

func (s *Scanner) hasPrefix(p string) bool {
	i := 0
	for _, r := range p {
		if s.peek(i) != r {
			return false
		}
		i++
	}
	return true
}

func (s *Scanner) advance() {
	if s.peek(0) == eof {
		return
	}
	c := s.la[0]
	s.la = s.la[1:]
	s.text.WriteRune(c.r)
	s.pos.Offset += c.size
	if c.r == '\n' {
		s.pos.Line++
		s.pos.Column = 1
	} else {
		s.pos.Column++
	}
}

func (s *Scanner) advanceN(n int) {
	for ; n > 0; n-- {
		s.advance()
	}
}

func isSpace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c rune) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= 0x80 && unicode.IsLetter(c))
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || isDigit(c) || c == '$'
}

func isOpChar(c rune) bool {
	return c != eof && strings.ContainsRune("+-*/<>=~!@#%^&|`?", c)
}

func isPlusMinus(c rune) bool {
	return c == '+' || c == '-'
}
