package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenSource(t *testing.T) {
	tests := []struct {
		name string
		tok  Token
		want string
	}{
		{"plain string", Token{Type: STRING, Literal: "it''s", Delimiter: "'"}, "'it''s'"},
		{"escape string", Token{Type: STRING, Literal: `a\'b`, Delimiter: "E'"}, `E'a\'b'`},
		{"dollar string", Token{Type: STRING, Literal: "x$y$z", Delimiter: "$fn$"}, "$fn$x$y$z$fn$"},
		{"quoted identifier", Token{Type: QUOTED_IDENT, Literal: `My""Col`, Delimiter: `"`}, `"My""Col"`},
		{"unicode identifier", Token{Type: QUOTED_IDENT, Literal: "d", Delimiter: `U&"`}, `U&"d"`},
		{"body start", Token{Type: BODY_START, Delimiter: "$$"}, "$$"},
		{"word", Token{Type: IDENT, Literal: "Select"}, "Select"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tok.Source())
		})
	}
}

func TestTokenHelpers(t *testing.T) {
	word := Token{Type: IDENT, Literal: "BEGIN"}
	assert.True(t, word.Is("begin"))
	assert.False(t, word.Is("end"))
	assert.Equal(t, "begin", word.Lower())

	op := Token{Type: OPERATOR, Literal: "::"}
	assert.True(t, op.IsOp("::"))
	assert.Empty(t, op.Lower())

	assert.True(t, LINEFEED.IsNoise())
	assert.True(t, LINE_COMMENT.IsNoise())
	assert.False(t, IDENT.IsNoise())
	assert.Equal(t, "TOKEN(99)", TokenType(99).String())
}

func TestEndsLine(t *testing.T) {
	assert.True(t, EndsLine(Token{Type: LINE_COMMENT, Literal: "-- x"}))
	assert.False(t, EndsLine(Token{Type: BLOCK_COMMENT, Literal: "/* x */"}))
	assert.True(t, EndsLine(Token{Type: BLOCK_COMMENT, Literal: "/* x\n */"}))

	kind, ok := CommentKindOf(Token{Type: BLOCK_COMMENT})
	assert.True(t, ok)
	assert.Equal(t, BlockComment, kind)
}
