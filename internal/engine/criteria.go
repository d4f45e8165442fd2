package engine

import (
	"embed"
	"os"
	"sync"

	"github.com/albertaspends/grants-dashboard/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed config/criteria.yaml
var criteriaYAML embed.FS

// Criterion ids recognised by the classifier. disbursement_timing ships in
// the registry for completeness but has no evaluator: the dataset carries
// no disbursement dates to judge timing against.
const (
	CriterionCorporateWelfare       = "corporate_welfare"
	CriterionLargeAmount            = "large_amount"
	CriterionMultipleGrants         = "multiple_grants"
	CriterionPotentialDuplication   = "potential_duplication"
	CriterionOperationalGrant       = "operational_grant"
	CriterionUnusualIncrease        = "unusual_increase"
	CriterionUnusualDecrease        = "unusual_decrease"
	CriterionStatisticalOutlier     = "statistical_outlier"
	CriterionRecipientConcentration = "recipient_concentration"
)

type criteriaFile struct {
	Criteria []models.FlaggingCriterion `yaml:"criteria"`
}

// CriteriaRegistry holds the flagging criteria and their toggle state.
// Toggling is pure configuration: it changes which heuristics run, never
// which grants already carry a flag.
type CriteriaRegistry struct {
	mu       sync.RWMutex
	criteria []models.FlaggingCriterion
}

// LoadCriteria reads the embedded criteria registry. The path parameter,
// when non-empty, points at a filesystem override.
func LoadCriteria(path string) (*CriteriaRegistry, error) {
	data, err := criteriaYAML.ReadFile("config/criteria.yaml")
	if path != "" {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var file criteriaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	return &CriteriaRegistry{criteria: file.Criteria}, nil
}

// All returns a copy of the registry in file order.
func (r *CriteriaRegistry) All() []models.FlaggingCriterion {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.FlaggingCriterion, len(r.criteria))
	copy(out, r.criteria)
	return out
}

// Enabled reports whether the named criterion is present and switched on.
func (r *CriteriaRegistry) Enabled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.criteria {
		if c.ID == id {
			return c.Enabled
		}
	}
	return false
}

// SetEnabled toggles a criterion. Returns false when the id is unknown.
func (r *CriteriaRegistry) SetEnabled(id string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.criteria {
		if r.criteria[i].ID == id {
			r.criteria[i].Enabled = enabled
			return true
		}
	}
	return false
}

// Toggles snapshots the enabled state keyed by criterion id, for handing
// to the classifier so classification stays a pure function of its inputs.
func (r *CriteriaRegistry) Toggles() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]bool, len(r.criteria))
	for _, c := range r.criteria {
		out[c.ID] = c.Enabled
	}
	return out
}
