package token

import "strings"

// CommentKind distinguishes line vs block comments.
type CommentKind int

// Comment kinds.
const (
	LineComment  CommentKind = iota // -- comment
	BlockComment                    // /* comment */
)

// CommentKindOf returns the comment kind of t. It reports false when t is
// not a comment.
func CommentKindOf(t Token) (CommentKind, bool) {
	switch t.Type {
	case LINE_COMMENT:
		return LineComment, true
	case BLOCK_COMMENT:
		return BlockComment, true
	default:
		return 0, false
	}
}

// EndsLine reports whether nothing may follow the comment on its line:
// line comments, and block comments that span several lines.
func EndsLine(t Token) bool {
	switch t.Type {
	case LINE_COMMENT:
		return true
	case BLOCK_COMMENT:
		return strings.Contains(t.Literal, "\n")
	default:
		return false
	}
}
