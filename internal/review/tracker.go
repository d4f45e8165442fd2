// Package review maintains the user's working set of items under
// investigation. The tracker is the single source of truth for flag
// state: a grant's Flagged/FlagReason fields and the review list are both
// projections of it, so the two can never diverge.
package review

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/albertaspends/grants-dashboard/internal/models"
	"github.com/google/uuid"
)

type grantFlag struct {
	flagged bool
	reason  string
}

// Tracker owns the ReviewItem list and per-grant flag overlays. All
// mutations are single-entry and atomic; the interactive user is the only
// writer, so last-write-wins is acceptable.
type Tracker struct {
	mu    sync.RWMutex
	items map[string]models.ReviewItem
	order []string
	flags map[string]grantFlag
	nowFn func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		items: make(map[string]models.ReviewItem),
		flags: make(map[string]grantFlag),
		nowFn: time.Now,
	}
}

// Add inserts a review item, stamping DateAdded, and returns the stored
// entry so callers see the assigned id and timestamp. Insertion is
// idempotent: when the id is already tracked the call is a silent no-op
// that returns the existing entry and reports false. Items without an id
// get one assigned.
func (t *Tracker) Add(item models.ReviewItem) (models.ReviewItem, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if strings.TrimSpace(item.ID) == "" {
		item.ID = uuid.NewString()
	}
	if existing, exists := t.items[item.ID]; exists {
		return existing, false
	}

	item.DateAdded = t.nowFn()
	t.items[item.ID] = item
	t.order = append(t.order, item.ID)
	return item, true
}

// Remove deletes the entry with the given id. Absence is not an error;
// the call reports whether anything was removed.
func (t *Tracker) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.items[id]; !exists {
		return false
	}
	delete(t.items, id)
	for i, tracked := range t.order {
		if tracked == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the tracked item for an id.
func (t *Tracker) Get(id string) (models.ReviewItem, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	item, ok := t.items[id]
	return item, ok
}

// Items returns the review list in insertion order.
func (t *Tracker) Items() []models.ReviewItem {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.ReviewItem, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.items[id])
	}
	return out
}

// ItemFilter narrows the review list. Search matches name or ministry
// case-insensitively; Type is "program", "recipient", or empty for all;
// Reason matches any flag reason by case-insensitive substring.
type ItemFilter struct {
	Search string
	Type   string
	Reason string
}

// FilteredItems applies an ItemFilter to the review list.
func (t *Tracker) FilteredItems(f ItemFilter) []models.ReviewItem {
	items := t.Items()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	reason := strings.ToLower(strings.TrimSpace(f.Reason))

	out := make([]models.ReviewItem, 0, len(items))
	for _, item := range items {
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Name), search) &&
			!strings.Contains(strings.ToLower(item.Ministry), search) {
			continue
		}
		if f.Type != "" && f.Type != "all" && item.Type != f.Type {
			continue
		}
		if reason != "" && !matchesReason(item.FlagReason, reason) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesReason(reasons []string, query string) bool {
	for _, r := range reasons {
		if strings.Contains(strings.ToLower(r), query) {
			return true
		}
	}
	return false
}

// SetGrantFlag records a grant's flag state. An explicit clear is kept as
// an override so it wins over any flag the grant was loaded with.
// Clearing also drops the reason, preserving the invariant that only
// flagged grants carry one.
func (t *Tracker) SetGrantFlag(grantID string, flagged bool, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !flagged {
		reason = ""
	}
	t.flags[grantID] = grantFlag{flagged: flagged, reason: reason}
}

// GrantFlag returns a grant's flag state and reason. ok reports whether
// the tracker holds an override for the grant at all.
func (t *Tracker) GrantFlag(grantID string) (flagged bool, reason string, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	f, ok := t.flags[grantID]
	return f.flagged, f.reason, ok
}

// Project overlays tracked flag state onto a grant snapshot, in place.
// Grants the tracker knows nothing about keep whatever flag state they
// were loaded with.
func (t *Tracker) Project(grants []models.Grant) []models.Grant {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := range grants {
		if f, ok := t.flags[grants[i].ID]; ok {
			grants[i].Flagged = f.flagged
			grants[i].FlagReason = f.reason
		}
	}
	return grants
}

// UniqueReasons collects the distinct flag reasons across the review
// list, sorted, for populating the reason filter dropdown.
func (t *Tracker) UniqueReasons() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, id := range t.order {
		for _, r := range t.items[id].FlagReason {
			seen[r] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Summary reports the review workload: tracked item count, flagged grant
// count and their share of the record set, and total value at risk.
type Summary struct {
	ItemCount     int     `json:"itemCount"`
	FlaggedGrants int     `json:"flaggedGrants"`
	FlaggingRate  float64 `json:"flaggingRate"`
	ValueAtRisk   float64 `json:"valueAtRisk"`
}

// Summarize computes the review summary over a (projected) grant snapshot.
func (t *Tracker) Summarize(grants []models.Grant) Summary {
	t.mu.RLock()
	itemCount := len(t.order)
	t.mu.RUnlock()

	s := Summary{ItemCount: itemCount}
	for _, g := range grants {
		if g.Flagged {
			s.FlaggedGrants++
			s.ValueAtRisk += g.Amount
		}
	}
	if len(grants) > 0 {
		s.FlaggingRate = float64(s.FlaggedGrants) / float64(len(grants)) * 100
	}
	return s
}
