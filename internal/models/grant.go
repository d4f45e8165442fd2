package models

import "time"

// Sentinel filter values. Real ministries and fiscal years never use them.
const (
	AllMinistries = "ALL MINISTRIES"
	AllYears      = "ALL YEARS"
)

// Grant is a single disbursement record. Amounts are Canadian-dollar
// denominated; no currency field is carried.
type Grant struct {
	ID         string  `json:"id" yaml:"id"`
	Ministry   string  `json:"ministry" yaml:"ministry"`
	Program    string  `json:"program" yaml:"program"`
	Recipient  string  `json:"recipient" yaml:"recipient"`
	FiscalYear string  `json:"fiscalYear" yaml:"fiscal_year"`
	Amount     float64 `json:"amount" yaml:"amount"`
	Flagged    bool    `json:"flagged" yaml:"flagged"`
	FlagReason string  `json:"flagReason,omitempty" yaml:"flag_reason,omitempty"`
}

// MinistryTotal is a derived aggregate for charting. Estimated marks
// totals produced by the proportional year-scaling approximation rather
// than summed from record-level data.
type MinistryTotal struct {
	Ministry  string  `json:"ministry" yaml:"ministry"`
	Total     float64 `json:"total" yaml:"total"`
	Color     string  `json:"color" yaml:"color"`
	Estimated bool    `json:"estimated,omitempty" yaml:"-"`
}

type YearlyTotal struct {
	Year  string  `json:"year" yaml:"year"`
	Total float64 `json:"total" yaml:"total"`
}

// ReviewItem is a user-curated watch-list entry, distinct from a Grant's
// own flag state. IDs are unique across the review list.
type ReviewItem struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"` // "program" or "recipient"
	Ministry     string    `json:"ministry,omitempty"`
	TotalAmount  float64   `json:"totalAmount"`
	ProgramCount int       `json:"programCount,omitempty"`
	FlagReason   []string  `json:"flagReason"`
	DateAdded    time.Time `json:"dateAdded"`
}

// FlaggingCriterion is a named heuristic toggle. Disabling a criterion
// stops its heuristic from producing labels; it does not retroactively
// clear flags already recorded.
type FlaggingCriterion struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
}

// TrendPoint is one fiscal year of the trends series.
type TrendPoint struct {
	FiscalYear         string  `json:"fiscalYear"`
	TotalAmount        float64 `json:"totalAmount"`
	RecipientCount     int     `json:"recipientCount"`
	AverageGrantAmount float64 `json:"averageGrantAmount"`
}

// RecipientSummary aggregates all grants to one recipient, annotated with
// the classifier's risk factors.
type RecipientSummary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	TotalAmount  float64  `json:"totalAmount"`
	GrantCount   int      `json:"grantCount"`
	ProgramCount int      `json:"programCount"`
	Flagged      bool     `json:"isFlagged"`
	RiskFactors  []string `json:"riskFactors"`
}

// ProgramSlice is one program's share of a ministry's funding. Estimated
// slices are derived from reference totals, not record-level data.
type ProgramSlice struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Color     string  `json:"color"`
	Estimated bool    `json:"estimated,omitempty"`
}

type KeyMetric struct {
	Title       string `json:"title"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// Elements carries the dropdown option lists, sentinels last.
type Elements struct {
	Ministries         []string `json:"ministries"`
	DisplayFiscalYears []string `json:"displayFiscalYears"`
}

type FieldIssue struct {
	Field      string  `json:"field"`
	IssueCount int     `json:"issueCount"`
	Percentage float64 `json:"percentage"`
}

// DataQualityReport summarises record-level quality issues. Warning is set
// when more than 10% of records carry at least one issue.
type DataQualityReport struct {
	TotalRecords  int          `json:"totalRecords"`
	IssueCount    int          `json:"issuesCount"`
	IssuesByField []FieldIssue `json:"issuesByField"`
	Warning       bool         `json:"warning"`
}
