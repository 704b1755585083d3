package layout

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/leapstack-labs/leapfmt/pkg/core"
)

// Constraint is one weighted requirement on candidate layouts.
type Constraint struct {
	Name   string
	Weight float64

	// Precedence orders constraints of equal weight; lower comes first.
	Precedence int
}

// Rank returns the index of the best candidate, or -1 when there is none.
//
// Constraints are applied heaviest first, equal weights in precedence
// order. Each constraint keeps only the candidates that satisfy it, unless
// none does, in which case it is relaxed. Constraints without weight are
// ignored. The earliest surviving candidate wins.
func Rank[C any](cands []C, cons []Constraint, satisfies func(C, Constraint) bool) int {
	if len(cands) == 0 {
		return -1
	}
	order := slices.Clone(cons)
	slices.SortStableFunc(order, func(a, b Constraint) int {
		if a.Weight != b.Weight {
			return cmp.Compare(b.Weight, a.Weight)
		}
		return cmp.Compare(a.Precedence, b.Precedence)
	})

	alive := make([]int, len(cands))
	for i := range alive {
		alive[i] = i
	}
	for _, k := range order {
		if k.Weight <= 0 {
			break
		}
		var keep []int
		for _, i := range alive {
			if satisfies(cands[i], k) {
				keep = append(keep, i)
			}
		}
		if len(keep) > 0 {
			alive = keep
		}
	}
	return alive[0]
}

// Choose picks the heaviest feasible option; earlier options win ties.
// It returns fallback when no weighted option is feasible.
func Choose[T any](opts []core.Weighted[T], feasible func(T) bool, fallback T) T {
	var cands []int
	cons := make([]Constraint, len(opts))
	for i, o := range opts {
		cons[i] = Constraint{Name: fmt.Sprint(o.Value), Weight: o.Weight, Precedence: i}
		if o.Weight > 0 && feasible(o.Value) {
			cands = append(cands, i)
		}
	}
	best := Rank(cands, cons, func(c int, k Constraint) bool { return c == k.Precedence })
	if best < 0 {
		return fallback
	}
	return opts[cands[best]].Value
}
