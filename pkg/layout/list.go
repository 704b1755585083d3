package layout

import (
	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/syntax"
)

// listLayout is the shape a comma-separated list was rendered in.
type listLayout int

const (
	listSingle  listLayout = iota // all elements on the current line
	listGrouped                   // groups of elements on continuation lines
	listBlock                     // groups on lines of their own, below the owner
)

// listCandidate is one way to lay out a list.
type listCandidate struct {
	single bool
	groups [][]int

	lines    int
	maxCount int // elements in the largest group
	maxLen   int // text length of the longest group

	// cutShort is set when the group length closed a group before it
	// held the configured number of elements.
	cutShort bool
}

// groupLimits selects the limits a grouping honors.
type groupLimits uint8

const (
	byCount groupLimits = 1 << iota
	byLength
)

// Constraint precedence among list options of equal weight.
const (
	precSingleLine = iota
	precPerGroup
	precGroupLength
)

// listLimits are the active limits of a list option set. Zero disables a
// limit.
type listLimits struct {
	ceiling  int
	perGroup int
	groupLen int
}

func limitOf(w core.Weighted[int]) int {
	if w.Weight > 0 && w.Value > 0 {
		return w.Value
	}
	return 0
}

// list renders a comma-separated list at the output cursor.
//
// The candidates are every element on the current line, and greedy
// groupings that honor each combination of the elements-per-group and
// group-length limits. The line width and the single-line ceiling always
// close a group. The single-line candidate needs plain single-line
// elements and must fit the line. Rank then weighs the single-line
// ceiling, the elements per group and the group length, so a lighter
// limit gives way when it conflicts with a heavier one. Ties keep the
// grouping that honors the most limits.
func (r *Renderer) list(m *MultiLines, l *syntax.List, ctx Context) listLayout {
	lc := ctx.List()
	lim := listLimits{
		ceiling:  limitOf(lc.SingleLineLength),
		perGroup: limitOf(lc.ArgumentsPerGroup),
		groupLen: limitOf(lc.GroupLength),
	}
	iw := ctx.indentWidth()
	col := m.Column()
	owner := m.Indent()

	forms := make([]flatForm, len(l.Items))
	plain := len(l.After) == 0
	total := 0
	for i, it := range l.Items {
		forms[i] = r.flat(it.Node, ctx)
		if !forms[i].ok || len(it.Leading) > 0 || it.Trailing != nil {
			plain = false
		}
		total += forms[i].width
	}
	total += 2 * max(len(l.Items)-1, 0)

	elemCol, below := col, false
	switch lc.Indent.Value {
	case core.IndentIndented:
		elemCol = owner + iw
	case core.IndentDouble:
		elemCol = owner + 2*iw
	case core.IndentBlock:
		elemCol, below = owner+iw, true
	}
	commaAfter := lc.Comma.Value == core.CommaAfter

	var cands []listCandidate
	for _, honor := range []groupLimits{byCount | byLength, byCount, byLength, 0} {
		cands = append(cands, groupList(l, forms, lim, honor, ctx.Width(), col, elemCol, below, commaAfter))
	}
	if plain && len(l.Items) > 0 && col+total <= ctx.Width() {
		cands = append(cands, listCandidate{
			single:   true,
			groups:   [][]int{indices(len(l.Items))},
			lines:    1,
			maxCount: len(l.Items),
			maxLen:   total,
		})
	}
	cons := []Constraint{
		{Name: "single_line_length", Weight: lc.SingleLineLength.Weight, Precedence: precSingleLine},
		{Name: "arguments_per_group", Weight: lc.ArgumentsPerGroup.Weight, Precedence: precPerGroup},
		{Name: "group_length", Weight: lc.GroupLength.Weight, Precedence: precGroupLength},
	}
	best := cands[Rank(cands, cons, func(c listCandidate, k Constraint) bool {
		switch k.Precedence {
		case precSingleLine:
			return lim.ceiling == 0 || (c.lines == 1 && c.maxLen <= lim.ceiling)
		case precPerGroup:
			return lim.perGroup == 0 || (c.maxCount <= lim.perGroup && !c.cutShort)
		default:
			return lim.groupLen == 0 || c.maxLen <= lim.groupLen
		}
	})]

	if best.single {
		for i := range l.Items {
			if i > 0 {
				m.AddText(", ")
			}
			m.AddText(forms[i].text)
		}
		return listSingle
	}

	prev := m.SetIndent(elemCol)
	defer m.SetIndent(prev)
	hang := !commaAfter && elemCol-2 >= owner
	last := len(l.Items) - 1
	for gi, g := range best.groups {
		for k, i := range g {
			it := l.Items[i]
			first := gi == 0 && k == 0
			own := false
			for _, c := range it.Leading {
				if first && !below && !own && !c.OwnLine {
					m.AddResult(CommentItem(c.Text(), c.EndsLine()))
					m.AddSpace()
					continue
				}
				newline(m, elemCol)
				m.AddResult(CommentItem(c.Text(), c.EndsLine()))
				own = true
			}

			switch {
			case first && !below && !own:
			case first:
				newline(m, elemCol)
			case k == 0 && commaAfter:
				newline(m, elemCol)
			case k == 0 && hang:
				newline(m, elemCol-2)
				m.AddText(", ")
			case k == 0:
				newline(m, elemCol)
				m.AddText(", ")
			case commaAfter:
				m.AddSpace()
			default:
				m.AddText(", ")
			}

			if forms[i].ok {
				m.AddText(forms[i].text)
			} else {
				r.node(m, it.Node, ctx)
			}
			if commaAfter && i < last {
				m.AddText(",")
			}
			if it.Trailing != nil {
				m.AddEolComment(it.Trailing.Text(), it.Trailing.EndsLine())
			}
		}
	}
	for _, c := range l.After {
		newline(m, elemCol)
		m.AddResult(CommentItem(c.Text(), c.EndsLine()))
	}
	if below {
		return listBlock
	}
	return listGrouped
}

// groupList splits the elements into groups greedily, closing a group
// where the line ends or a limit in honor would be passed. An element that
// is not single-line, or has comments before it, starts a group; a
// trailing comment ends one.
func groupList(l *syntax.List, forms []flatForm, lim listLimits, honor groupLimits, width, col, elemCol int, below, commaAfter bool) listCandidate {
	cand := listCandidate{}
	var cur []int
	curLen := 0
	flush := func() {
		if len(cur) == 0 {
			return
		}
		cand.groups = append(cand.groups, cur)
		cand.maxCount = max(cand.maxCount, len(cur))
		cand.maxLen = max(cand.maxLen, curLen)
		cur, curLen = nil, 0
	}
	startOf := func() int {
		if len(cand.groups) == 0 && !below {
			return col
		}
		return elemCol
	}
	comma := 0
	if commaAfter {
		comma = 1
	}

	for i, it := range l.Items {
		f := forms[i]
		if !f.ok || len(it.Leading) > 0 {
			flush()
		}
		if len(cur) > 0 {
			n := curLen + 2 + f.width
			switch {
			case (lim.ceiling > 0 && n > lim.ceiling) || startOf()+n+comma > width:
				flush()
			case honor&byCount != 0 && lim.perGroup > 0 && len(cur)+1 > lim.perGroup:
				flush()
			case honor&byLength != 0 && lim.groupLen > 0 && n > lim.groupLen:
				if lim.perGroup > 0 && len(cur) < lim.perGroup {
					cand.cutShort = true
				}
				flush()
			}
		}
		if len(cur) == 0 {
			curLen = f.width
		} else {
			curLen += 2 + f.width
		}
		cur = append(cur, i)
		if !f.ok || it.Trailing != nil {
			flush()
		}
	}
	flush()

	cand.lines = len(cand.groups) + len(l.After)
	for _, it := range l.Items {
		cand.lines += len(it.Leading)
	}
	if below {
		cand.lines++
	}
	return cand
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
