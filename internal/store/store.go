package store

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/albertaspends/grants-dashboard/internal/models"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed data/grants.yaml
var bundledFS embed.FS

// Dataset is the on-disk shape of the bundled data file. Reference totals
// cover the full published dataset; the grant records are whatever subset
// was loaded (bundled sample or an upstream fetch).
type Dataset struct {
	Grants         []models.Grant         `yaml:"grants"`
	YearlyTotals   []models.YearlyTotal   `yaml:"yearly_totals"`
	MinistryTotals []models.MinistryTotal `yaml:"ministry_totals"`
	Ministries     []string               `yaml:"ministries"`
	FiscalYears    []string               `yaml:"fiscal_years"`
	ProgramCatalog map[string][]string    `yaml:"program_catalog"`
}

// Store is the in-memory grant record store. Read-mostly; the only
// mutation after load is replacing the record set wholesale when an
// upstream fetch lands. Flag state lives in the review tracker, not here.
type Store struct {
	mu      sync.RWMutex
	dataset Dataset
}

// LoadBundled reads the embedded sample dataset. The path parameter, when
// non-empty, points at a filesystem override for local development.
func LoadBundled(path string) (*Store, error) {
	data, err := bundledFS.ReadFile("data/grants.yaml")
	if path != "" {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}

	s := &Store{dataset: ds}
	s.normalize()
	return s, nil
}

// normalize assigns ids to records that arrived without one and drops
// flag reasons from unflagged records so the invariant holds at the edge.
func (s *Store) normalize() {
	for i := range s.dataset.Grants {
		g := &s.dataset.Grants[i]
		if strings.TrimSpace(g.ID) == "" {
			g.ID = uuid.NewString()
		}
		if !g.Flagged {
			g.FlagReason = ""
		}
		if g.Amount < 0 {
			g.Amount = 0
		}
	}
}

// Grants returns a copy of the record set. Callers own the copy and may
// sort or annotate it freely.
func (s *Store) Grants() []models.Grant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Grant, len(s.dataset.Grants))
	copy(out, s.dataset.Grants)
	return out
}

// Get returns the grant with the given id.
func (s *Store) Get(id string) (models.Grant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.dataset.Grants {
		if g.ID == id {
			return g, true
		}
	}
	return models.Grant{}, false
}

// Replace swaps in a new record set, keeping the bundled reference totals
// and option lists. Used when an upstream fetch supersedes the sample data.
func (s *Store) Replace(grants []models.Grant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dataset.Grants = grants
	s.normalize()
}

// Elements returns the dropdown option lists with the wildcard sentinels
// appended last, matching the published filter contract.
func (s *Store) Elements() models.Elements {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ministries := make([]string, 0, len(s.dataset.Ministries)+1)
	ministries = append(ministries, s.dataset.Ministries...)
	ministries = append(ministries, models.AllMinistries)

	years := make([]string, 0, len(s.dataset.FiscalYears)+1)
	years = append(years, s.dataset.FiscalYears...)
	sort.Strings(years)
	years = append(years, models.AllYears)

	return models.Elements{Ministries: ministries, DisplayFiscalYears: years}
}

// MergeElements replaces the option lists with ones fetched from the
// upstream service. Wildcard sentinels are stripped on the way in; Elements
// re-appends them, so they are never stored twice.
func (s *Store) MergeElements(el models.Elements) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ministries := make([]string, 0, len(el.Ministries))
	for _, m := range el.Ministries {
		if m != models.AllMinistries && m != "" {
			ministries = append(ministries, m)
		}
	}
	years := make([]string, 0, len(el.DisplayFiscalYears))
	for _, y := range el.DisplayFiscalYears {
		if y != models.AllYears && y != "" {
			years = append(years, y)
		}
	}

	if len(ministries) > 0 {
		s.dataset.Ministries = ministries
	}
	if len(years) > 0 {
		s.dataset.FiscalYears = years
	}
}

// ReferenceMinistryTotals returns the precomputed all-years ministry
// totals from the bundled dataset.
func (s *Store) ReferenceMinistryTotals() []models.MinistryTotal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.MinistryTotal, len(s.dataset.MinistryTotals))
	copy(out, s.dataset.MinistryTotals)
	return out
}

// ReferenceYearlyTotals returns the precomputed per-year totals from the
// bundled dataset.
func (s *Store) ReferenceYearlyTotals() []models.YearlyTotal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.YearlyTotal, len(s.dataset.YearlyTotals))
	copy(out, s.dataset.YearlyTotals)
	return out
}

// ProgramCatalog returns the known program names for a ministry. Used to
// label estimated program breakdowns when no record-level data exists.
func (s *Store) ProgramCatalog(ministry string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	programs, ok := s.dataset.ProgramCatalog[ministry]
	if !ok {
		return nil
	}
	out := make([]string, len(programs))
	copy(out, programs)
	return out
}

// Len reports the number of grant records currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dataset.Grants)
}
