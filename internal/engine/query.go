package engine

import (
	"sort"
	"strings"

	"github.com/albertaspends/grants-dashboard/internal/models"
)

// Filter is the conjunctive predicate set for the explorer view. Zero
// values and the ALL sentinels mean "no restriction"; a MaxAmount of zero
// leaves the upper bound open, matching the list-params convention where
// only positive bounds participate.
type Filter struct {
	Ministry   string
	FiscalYear string
	Search     string
	MinAmount  float64
	MaxAmount  float64
}

// Sort directions and keys accepted by SortGrants.
const (
	Ascending  = "asc"
	Descending = "desc"

	SortByAmount     = "amount"
	SortByFiscalYear = "fiscalYear"
	SortByMinistry   = "ministry"
	SortByProgram    = "program"
	SortByRecipient  = "recipient"
)

// ApplyFilters evaluates every active predicate against each record and
// returns the matching subset in input order. Predicates are independent,
// so application order cannot change the result. An inverted amount range
// (both bounds active, min above max) is a caller error: the engine
// returns an empty result rather than guessing or panicking.
func ApplyFilters(grants []models.Grant, f Filter) []models.Grant {
	out := make([]models.Grant, 0, len(grants))
	if f.MinAmount > 0 && f.MaxAmount > 0 && f.MinAmount > f.MaxAmount {
		return out
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	for _, g := range grants {
		if f.Ministry != "" && f.Ministry != models.AllMinistries && g.Ministry != f.Ministry {
			continue
		}
		if f.FiscalYear != "" && f.FiscalYear != models.AllYears && g.FiscalYear != f.FiscalYear {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(g.Program), search) &&
			!strings.Contains(strings.ToLower(g.Recipient), search) {
			continue
		}
		if f.MinAmount > 0 && g.Amount < f.MinAmount {
			continue
		}
		if f.MaxAmount > 0 && g.Amount > f.MaxAmount {
			continue
		}
		out = append(out, g)
	}
	return out
}

// SortGrants returns a sorted copy of the input. The sort is stable:
// records equal under the key keep their relative input order. Fiscal
// years compare lexicographically, which is chronological for the
// zero-padded YYYY-YYYY format. An unknown key is a no-op rather than an
// error, per the malformed-input policy.
func SortGrants(grants []models.Grant, key, direction string) []models.Grant {
	out := make([]models.Grant, len(grants))
	copy(out, grants)

	var less func(a, b models.Grant) bool
	switch key {
	case SortByAmount:
		less = func(a, b models.Grant) bool { return a.Amount < b.Amount }
	case SortByFiscalYear:
		less = func(a, b models.Grant) bool { return a.FiscalYear < b.FiscalYear }
	case SortByMinistry:
		less = func(a, b models.Grant) bool { return a.Ministry < b.Ministry }
	case SortByProgram:
		less = func(a, b models.Grant) bool { return a.Program < b.Program }
	case SortByRecipient:
		less = func(a, b models.Grant) bool { return a.Recipient < b.Recipient }
	default:
		return out
	}

	if direction == Descending {
		asc := less
		less = func(a, b models.Grant) bool { return asc(b, a) }
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
