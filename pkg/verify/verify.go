// Package verify checks that formatting preserved the meaning of a script.
//
// It does not share code with the formatter's scanner. Both texts are
// tokenized with an independent lexer and the significant tokens are
// compared. Whitespace and comments are dropped and unquoted words compare
// case-insensitively. Dollar-quoted text is tokenized again on its own, so
// a re-indented function body still compares equal while an opaque literal
// that cannot be tokenized must match byte for byte.
package verify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// ErrNotEquivalent is matched by every *Mismatch.
var ErrNotEquivalent = errors.New("formatted text is not equivalent to the original")

// Mismatch describes the first differing token.
type Mismatch struct {
	// Statement is the 1-based statement the difference was found in,
	// counted by semicolons outside brackets in the original.
	Statement int
	// Want and Got are the normalized tokens. An empty string stands for
	// the end of the text.
	Want string
	Got  string
	// Pos is the position of Want in the original, or of Got in the
	// formatted text when the original ended first.
	Pos lexer.Position
}

func (m *Mismatch) Error() string {
	show := func(s string) string {
		if s == "" {
			return "end of text"
		}
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%s: statement %d at %d:%d: want %s, got %s",
		ErrNotEquivalent, m.Statement, m.Pos.Line, m.Pos.Column, show(m.Want), show(m.Got))
}

func (m *Mismatch) Unwrap() error { return ErrNotEquivalent }

var sqlLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "Comment", Pattern: `--[^\n]*|/\*([^*]|\*+[^*/])*\*+/`},
		{Name: "EString", Pattern: `[eE]'(\\.|''|[^'\\])*'`},
		{Name: "String", Pattern: `'(''|[^'])*'`},
		{Name: "QuotedIdent", Pattern: `[uU]&"(""|[^"])*"|"(""|[^"])*"`},
		{Name: "DollarEmpty", Pattern: `\$\$`, Action: lexer.Push("Empty")},
		{Name: "DollarOpen", Pattern: `\$([A-Za-z_][A-Za-z0-9_]*)\$`, Action: lexer.Push("Dollar")},
		{Name: "Param", Pattern: `\$\d+`},
		{Name: "Number", Pattern: `0[xX][0-9a-fA-F_]+|(\d[\d_]*(\.\d*)?|\.\d+)([eE][+-]?\d+)?`},
		{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_$]*`},
		{Name: "Operator", Pattern: `::|:=|\.\.|[-+*/<>=~!@#%^&|?:]+`},
		{Name: "Punct", Pattern: `[(),;.\[\]{}]`},
		{Name: "Other", Pattern: `[^\s]`},
	},
	// $$ has no tag to refer back to and gets a state of its own.
	"Empty": {
		{Name: "EmptyClose", Pattern: `\$\$`, Action: lexer.Pop()},
		{Name: "EmptyText", Pattern: `[^$]+|\$`},
	},
	"Dollar": {
		{Name: "DollarClose", Pattern: `\$\1\$`, Action: lexer.Pop()},
		{Name: "DollarText", Pattern: `[^$]+|\$`},
	},
})

var symbols = lexer.SymbolsByRune(sqlLexer)

// dollarTokens maps the opening token of a dollar-quoted string to its
// text and closing tokens.
var dollarTokens = map[string]struct{ text, close string }{
	"DollarEmpty": {"EmptyText", "EmptyClose"},
	"DollarOpen":  {"DollarText", "DollarClose"},
}

// item is one significant token after normalization.
type item struct {
	text string
	pos  lexer.Position
}

// Equivalent reports whether formatted has the same significant tokens as
// original. The result is nil, a *Mismatch, or a lexing error.
func Equivalent(original, formatted string) error {
	want, err := items(original)
	if err != nil {
		return fmt.Errorf("lex original: %w", err)
	}
	got, err := items(formatted)
	if err != nil {
		return fmt.Errorf("lex formatted: %w", err)
	}

	stmt, depth := 1, 0
	for i := 0; i < len(want) || i < len(got); i++ {
		switch {
		case i >= len(want):
			return &Mismatch{Statement: stmt, Got: got[i].text, Pos: got[i].pos}
		case i >= len(got):
			return &Mismatch{Statement: stmt, Want: want[i].text, Pos: want[i].pos}
		case want[i].text != got[i].text:
			return &Mismatch{Statement: stmt, Want: want[i].text, Got: got[i].text, Pos: want[i].pos}
		}
		switch want[i].text {
		case "(", "[":
			depth++
		case ")", "]":
			depth = max(depth-1, 0)
		case ";":
			if depth == 0 {
				stmt++
			}
		}
	}
	return nil
}

// Tokens returns the normalized significant tokens of src.
func Tokens(src string) ([]string, error) {
	its, err := items(src)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(its))
	for i, it := range its {
		out[i] = it.text
	}
	return out, nil
}

func items(src string) ([]item, error) {
	lex, err := sqlLexer.LexString("", src)
	if err != nil {
		return nil, err
	}
	toks, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}

	var out []item
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch symbols[tok.Type] {
		case "Whitespace", "Comment", "EOF", "":
		case "Ident":
			out = append(out, item{strings.ToLower(tok.Value), tok.Pos})
		case "DollarEmpty", "DollarOpen":
			kinds := dollarTokens[symbols[tok.Type]]
			var body strings.Builder
			j := i + 1
			for ; j < len(toks) && symbols[toks[j].Type] == kinds.text; j++ {
				body.WriteString(toks[j].Value)
			}
			closed := j < len(toks) && symbols[toks[j].Type] == kinds.close
			out = append(out, item{tok.Value + dollarBody(body.String()) + closeTag(tok.Value, closed), tok.Pos})
			i = j
			if !closed {
				i--
			}
		default:
			out = append(out, item{tok.Value, tok.Pos})
		}
	}
	return out, nil
}

// dollarBody normalizes the text between two dollar tags. Text the lexer
// cannot handle is kept verbatim.
func dollarBody(s string) string {
	toks, err := Tokens(s)
	if err != nil {
		return s
	}
	return " " + strings.Join(toks, " ") + " "
}

func closeTag(open string, closed bool) string {
	if !closed {
		return ""
	}
	return open
}
