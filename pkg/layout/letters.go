package layout

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/syntax"
)

// letters re-cases words. Casers keep state, so every renderer owns one.
type letters struct {
	upper cases.Caser
	lower cases.Caser
	title cases.Caser
}

func newLetters() letters {
	return letters{
		upper: cases.Upper(language.Und),
		lower: cases.Lower(language.Und),
		title: cases.Title(language.Und),
	}
}

func (l letters) apply(policy core.LetterCase, s string) string {
	switch policy {
	case core.CaseUpper:
		return l.upper.String(s)
	case core.CaseLower:
		return l.lower.String(s)
	case core.CaseCapitalize:
		return l.title.String(s)
	default:
		return s
	}
}

// word returns w in the letter case configured for its role. Quoted
// identifiers never reach here and keep their spelling.
func (r *Renderer) word(w *syntax.Word) string {
	c := r.cfg.Case
	switch w.Role {
	case syntax.RoleKeyword:
		return r.letters.apply(c.Keywords, w.Tok.Literal)
	case syntax.RoleFunction:
		return r.letters.apply(c.Functions, w.Tok.Literal)
	default:
		return r.letters.apply(c.Identifiers, w.Tok.Literal)
	}
}
