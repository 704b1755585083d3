// Package token defines the lexical tokens produced by the scanner.
//
// A token records its type, its text, where it started and the nesting
// counters in effect right after it. Later stages read those counters
// instead of re-scanning the input for structural context.
package token

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

//nolint:revive // ALL_CAPS names follow SQL token conventions
const (
	// Special tokens
	EOF TokenType = iota
	ERROR

	// Structural noise
	WHITESPACE    // spaces, tabs
	LINEFEED      // \n or \r\n
	BLOCK_COMMENT // /* ... */, nesting allowed
	LINE_COMMENT  // -- ... (without the line break)

	// Lexemes
	IDENT        // unquoted word: identifier or keyword
	QUOTED_IDENT // "name", U&"name"
	STRING       // 'text', E'text', $tag$text$tag$
	NUMBER       // 123, 4.5, 1e10, 0x1F
	PARAM        // $1
	OPERATOR     // maximal operator run, ::, :=, ..

	// Punctuation
	COMMA     // ,
	DOT       // .
	SEMICOLON // ;
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]

	// Embedded bodies
	BODY_START // opening dollar tag of an interpreted body
	TERMINATOR // closing tag of a body or the caller's extra terminator
)

var tokenNames = map[TokenType]string{
	EOF:           "EOF",
	ERROR:         "ERROR",
	WHITESPACE:    "WHITESPACE",
	LINEFEED:      "LINEFEED",
	BLOCK_COMMENT: "BLOCK_COMMENT",
	LINE_COMMENT:  "LINE_COMMENT",
	IDENT:         "IDENT",
	QUOTED_IDENT:  "QUOTED_IDENT",
	STRING:        "STRING",
	NUMBER:        "NUMBER",
	PARAM:         "PARAM",
	OPERATOR:      "OPERATOR",
	COMMA:         ",",
	DOT:           ".",
	SEMICOLON:     ";",
	LPAREN:        "(",
	RPAREN:        ")",
	LBRACKET:      "[",
	RBRACKET:      "]",
	BODY_START:    "BODY_START",
	TERMINATOR:    "TERMINATOR",
}

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// IsNoise reports whether tokens of this type carry no meaning for
// interpretation (whitespace, line breaks and comments).
func (t TokenType) IsNoise() bool {
	return t >= WHITESPACE && t <= LINE_COMMENT
}

// Token represents a lexical token with position information.
//
// For STRING and QUOTED_IDENT tokens Literal holds the text between the
// quotes exactly as written (doubled quotes and escapes are kept) and
// Delimiter holds the opening quote: ', E', U&', ", $tag$ and so on.
type Token struct {
	Type      TokenType
	Literal   string
	Delimiter string
	Pos       Position

	// Nesting counters after this token.
	ParenDepth int
	BlockDepth int

	// Err carries the diagnostic for ERROR tokens and for tokens the
	// scanner flagged, such as an unmatched closing parenthesis.
	Err string
}

// Source returns the token's text as it appeared in the input.
func (t Token) Source() string {
	switch t.Type {
	case STRING, QUOTED_IDENT:
		return t.Delimiter + t.Literal + t.Closing()
	case BODY_START:
		return t.Delimiter
	default:
		return t.Literal
	}
}

// Closing returns the closing delimiter matching t.Delimiter.
func (t Token) Closing() string {
	switch {
	case t.Delimiter == "":
		return ""
	case strings.HasPrefix(t.Delimiter, "$"):
		return t.Delimiter
	case strings.HasSuffix(t.Delimiter, `"`):
		return `"`
	default:
		return "'"
	}
}

// IsDollarQuoted reports whether the literal uses dollar quoting.
func (t Token) IsDollarQuoted() bool {
	return t.Type == STRING && strings.HasPrefix(t.Delimiter, "$")
}

// Is reports whether the token is the unquoted word w (case-insensitive).
func (t Token) Is(w string) bool {
	return t.Type == IDENT && strings.EqualFold(t.Literal, w)
}

// IsOp reports whether the token is the operator op.
func (t Token) IsOp(op string) bool {
	return t.Type == OPERATOR && t.Literal == op
}

// Lower returns the lower-cased literal of a word, or "" for other tokens.
func (t Token) Lower() string {
	if t.Type != IDENT {
		return ""
	}
	return strings.ToLower(t.Literal)
}

// String implements fmt.Stringer for debugging output.
func (t Token) String() string {
	if t.Type == EOF {
		return "EOF"
	}
	return fmt.Sprintf("%s(%q)@%s", t.Type, t.Source(), t.Pos)
}
