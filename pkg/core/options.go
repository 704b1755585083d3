package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidOption is returned when an enumerated option has an unknown value.
var ErrInvalidOption = errors.New("invalid option value")

// Weighted pairs an option value with a weight. When candidate layouts
// conflict, the option with the higher weight is satisfied first.
type Weighted[T any] struct {
	Value  T       `koanf:"value" yaml:"value"`
	Weight float64 `koanf:"weight" yaml:"weight"`
}

// W is shorthand for constructing a Weighted option.
func W[T any](value T, weight float64) Weighted[T] {
	return Weighted[T]{Value: value, Weight: weight}
}

// =============================================================================
// Letter case
// =============================================================================

// LetterCase selects how words are re-cased.
type LetterCase string

// Letter case policies.
const (
	CaseUnchanged  LetterCase = "unchanged"
	CaseUpper      LetterCase = "upper"
	CaseLower      LetterCase = "lower"
	CaseCapitalize LetterCase = "capitalize"
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *LetterCase) UnmarshalText(text []byte) error {
	return parseEnum(text, c, CaseUnchanged, CaseUpper, CaseLower, CaseCapitalize)
}

// =============================================================================
// Whitespace policies
// =============================================================================

// TabPolicy selects where runs of spaces are replaced by tabs.
type TabPolicy string

// Tab policies.
const (
	TabsNone    TabPolicy = "none"    // spaces only
	TabsLeading TabPolicy = "leading" // leading indentation only
	TabsAll     TabPolicy = "all"     // every tab-stop aligned run of spaces
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *TabPolicy) UnmarshalText(text []byte) error {
	return parseEnum(text, p, TabsNone, TabsLeading, TabsAll)
}

// BlankLinePolicy controls runs of blank lines between statements.
type BlankLinePolicy string

// Blank line policies.
const (
	BlankLinesRemove   BlankLinePolicy = "remove"
	BlankLinesCollapse BlankLinePolicy = "collapse"
	BlankLinesPreserve BlankLinePolicy = "preserve"
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *BlankLinePolicy) UnmarshalText(text []byte) error {
	return parseEnum(text, p, BlankLinesRemove, BlankLinesCollapse, BlankLinesPreserve)
}

// Apply returns how many of n blank lines survive the policy.
func (p BlankLinePolicy) Apply(n int) int {
	switch {
	case n <= 0 || p == BlankLinesRemove:
		return 0
	case p == BlankLinesCollapse:
		return 1
	default:
		return n
	}
}

// =============================================================================
// Lists
// =============================================================================

// CommaPosition places list separators.
type CommaPosition string

// Comma positions.
const (
	CommaBefore CommaPosition = "before" // continuation lines start with ", "
	CommaAfter  CommaPosition = "after"  // lines end with ","
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *CommaPosition) UnmarshalText(text []byte) error {
	return parseEnum(text, p, CommaBefore, CommaAfter)
}

// IndentStyle positions the continuation lines of a list.
type IndentStyle string

// Indent styles.
const (
	IndentAligned  IndentStyle = "aligned"  // under the first element
	IndentIndented IndentStyle = "indented" // one indent step past the owning line
	IndentDouble   IndentStyle = "double"   // two indent steps past the owning line
	IndentBlock    IndentStyle = "block"    // every element on its own indented line
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *IndentStyle) UnmarshalText(text []byte) error {
	return parseEnum(text, s, IndentAligned, IndentIndented, IndentDouble, IndentBlock)
}

// =============================================================================
// CASE
// =============================================================================

// WhenPlacement positions WHEN arms.
type WhenPlacement string

// WHEN placements.
const (
	WhenIndented WhenPlacement = "indented" // each arm on its own line, one step in
	WhenInline   WhenPlacement = "inline"   // first arm on the CASE line, others aligned under it
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *WhenPlacement) UnmarshalText(text []byte) error {
	return parseEnum(text, p, WhenIndented, WhenInline)
}

// ThenPlacement positions THEN relative to its WHEN condition.
type ThenPlacement string

// THEN placements.
const (
	ThenInline  ThenPlacement = "inline"   // right after the condition
	ThenAligned ThenPlacement = "aligned"  // one column shared by all arms
	ThenNewLine ThenPlacement = "new-line" // on the next line, one step in
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ThenPlacement) UnmarshalText(text []byte) error {
	return parseEnum(text, p, ThenInline, ThenAligned, ThenNewLine)
}

// ElsePlacement positions ELSE.
type ElsePlacement string

// ELSE placements.
const (
	ElseUnderWhen ElsePlacement = "under-when"
	ElseUnderThen ElsePlacement = "under-then"
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ElsePlacement) UnmarshalText(text []byte) error {
	return parseEnum(text, p, ElseUnderWhen, ElseUnderThen)
}

// EndPlacement positions END.
type EndPlacement string

// END placements.
const (
	EndAligned   EndPlacement = "aligned"    // own line, under CASE
	EndAfterLast EndPlacement = "after-last" // at the end of the last arm
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *EndPlacement) UnmarshalText(text []byte) error {
	return parseEnum(text, p, EndAligned, EndAfterLast)
}

// =============================================================================
// Procedural conditions
// =============================================================================

// ConditionPlacement positions the condition of IF, ELSIF, WHILE and FOR.
type ConditionPlacement string

// Condition placements.
const (
	ConditionInline  ConditionPlacement = "inline"   // IF cond THEN on one line
	ConditionWrapped ConditionPlacement = "wrapped"  // wrapped under the start of the condition
	ConditionNewLine ConditionPlacement = "new-line" // condition and THEN on their own lines
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ConditionPlacement) UnmarshalText(text []byte) error {
	return parseEnum(text, p, ConditionInline, ConditionWrapped, ConditionNewLine)
}

func parseEnum[T ~string](text []byte, dst *T, allowed ...T) error {
	v := T(strings.ToLower(strings.TrimSpace(string(text))))
	if slices.Contains(allowed, v) {
		*dst = v
		return nil
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return fmt.Errorf("%w %q (want one of %s)", ErrInvalidOption, string(text), strings.Join(names, ", "))
}
