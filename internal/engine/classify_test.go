package engine

import (
	"reflect"
	"testing"

	"github.com/albertaspends/grants-dashboard/internal/models"
)

// only builds a toggle map enabling just the named criteria, so each
// heuristic can be exercised in isolation.
func only(ids ...string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func TestCorporateWelfareAndLargeAmount(t *testing.T) {
	g := models.Grant{
		Ministry:   "ENERGY",
		Program:    "Energy Innovation",
		Recipient:  "Suncor Energy Inc.",
		FiscalYear: "2023-2024",
		Amount:     11_800_000,
	}

	reg, err := LoadCriteria("")
	if err != nil {
		t.Fatal(err)
	}
	ctx := NewClassifierContext([]models.Grant{g}, reg.Toggles())

	labels := ClassifyGrant(g, ctx)
	want := []string{LabelCorporateWelfare, LabelLargeAmount}
	if !reflect.DeepEqual(labels, want) {
		t.Fatalf("got %v, want %v", labels, want)
	}
}

func TestCorporateWelfareNeedsBothConditions(t *testing.T) {
	tests := []struct {
		name      string
		recipient string
		amount    float64
		want      bool
	}{
		{"corporate name over floor", "Acme Ltd", 6_000_000, true},
		{"corporate name under floor", "Acme Ltd", 4_000_000, false},
		{"at the floor is not over it", "Acme Corp", 5_000_000, false},
		{"non-corporate name over floor", "Prairie Wellness Foundation", 6_000_000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := models.Grant{Ministry: "M", Program: "P", Recipient: tt.recipient, Amount: tt.amount}
			ctx := NewClassifierContext([]models.Grant{g}, only(CriterionCorporateWelfare))
			got := len(ClassifyGrant(g, ctx)) > 0
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMultipleGrantsCountsRecords(t *testing.T) {
	grants := []models.Grant{
		{Ministry: "A", Program: "P1", Recipient: "Repeat Org", Amount: 1},
		{Ministry: "B", Program: "P2", Recipient: "Repeat Org", Amount: 1},
		{Ministry: "C", Program: "P3", Recipient: "Repeat Org", Amount: 1},
		{Ministry: "A", Program: "P1", Recipient: "Single Org", Amount: 1},
	}
	ctx := NewClassifierContext(grants, only(CriterionMultipleGrants))

	labels := ClassifyGrant(grants[0], ctx)
	if !reflect.DeepEqual(labels, []string{"Multiple Grants (3)"}) {
		t.Fatalf("got %v, want [Multiple Grants (3)]", labels)
	}
	if got := ClassifyGrant(grants[3], ctx); len(got) != 0 {
		t.Fatalf("single-record recipient must not be labeled: %v", got)
	}
}

func TestPotentialDuplication(t *testing.T) {
	grants := []models.Grant{
		{Ministry: "HEALTH", Program: "Acute Care", Recipient: "A", Amount: 1},
		{Ministry: "HEALTH", Program: "Acute Care", Recipient: "B", Amount: 1},
		{Ministry: "HEALTH", Program: "Mental Health", Recipient: "C", Amount: 1},
	}
	ctx := NewClassifierContext(grants, only(CriterionPotentialDuplication))

	if got := ClassifyGrant(grants[0], ctx); !reflect.DeepEqual(got, []string{LabelPotentialDuplication}) {
		t.Fatalf("repeated pair must be labeled, got %v", got)
	}
	if got := ClassifyGrant(grants[2], ctx); len(got) != 0 {
		t.Fatalf("unique pair must not be labeled: %v", got)
	}
}

func TestOperationalGrantMarker(t *testing.T) {
	g := models.Grant{Ministry: "HEALTH", Program: "P", Recipient: "Alberta Health Services", Amount: 1}
	ctx := NewClassifierContext([]models.Grant{g}, only(CriterionOperationalGrant))

	if got := ClassifyGrant(g, ctx); !reflect.DeepEqual(got, []string{LabelOperationalGrant}) {
		t.Fatalf("got %v", got)
	}
	if !IsOperationalRecipient("Calgary Housing Authority") {
		t.Error("Authority names are operational")
	}
	if IsOperationalRecipient("Suncor Energy Inc.") {
		t.Error("corporate names are not operational")
	}
}

func TestStatisticalOutlier(t *testing.T) {
	var grants []models.Grant
	for i := 0; i < 10; i++ {
		grants = append(grants, models.Grant{Ministry: "M", Program: "P", Recipient: "R", Amount: 100})
	}
	outlier := models.Grant{Ministry: "M", Program: "P", Recipient: "X", Amount: 50_000}
	grants = append(grants, outlier)

	ctx := NewClassifierContext(grants, only(CriterionStatisticalOutlier))
	if got := ClassifyGrant(outlier, ctx); !reflect.DeepEqual(got, []string{LabelStatisticalOutlier}) {
		t.Fatalf("extreme amount must be labeled, got %v", got)
	}
	if got := ClassifyGrant(grants[0], ctx); len(got) != 0 {
		t.Fatalf("typical amount must not be labeled: %v", got)
	}
}

func TestStatisticalOutlierZeroStddev(t *testing.T) {
	grants := []models.Grant{
		{Ministry: "M", Program: "P", Recipient: "A", Amount: 100},
		{Ministry: "M", Program: "P", Recipient: "B", Amount: 100},
		{Ministry: "M", Program: "P", Recipient: "C", Amount: 100},
	}
	ctx := NewClassifierContext(grants, only(CriterionStatisticalOutlier))
	for _, g := range grants {
		if got := ClassifyGrant(g, ctx); len(got) != 0 {
			t.Fatalf("identical amounts have no outliers: %v", got)
		}
	}
}

func TestYearOverYearChange(t *testing.T) {
	tests := []struct {
		name      string
		prior     float64
		current   float64
		criterion string
		want      bool
	}{
		{"50% increase", 100, 150, CriterionUnusualIncrease, true},
		{"40% increase is not over threshold", 100, 140, CriterionUnusualIncrease, false},
		{"50% decrease", 100, 50, CriterionUnusualDecrease, true},
		{"30% decrease within threshold", 100, 70, CriterionUnusualDecrease, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grants := []models.Grant{
				{Ministry: "M", Program: "P", Recipient: "A", FiscalYear: "2022-2023", Amount: tt.prior},
				{Ministry: "M", Program: "P", Recipient: "B", FiscalYear: "2023-2024", Amount: tt.current},
			}
			ctx := NewClassifierContext(grants, only(tt.criterion))
			got := len(ClassifyGrant(grants[1], ctx)) > 0
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			// The prior-year grant has nothing before it to compare against.
			if labels := ClassifyGrant(grants[0], ctx); len(labels) != 0 {
				t.Fatalf("first recorded year must not be labeled: %v", labels)
			}
		})
	}
}

func TestPreviousFiscalYear(t *testing.T) {
	if got := previousFiscalYear("2023-2024"); got != "2022-2023" {
		t.Fatalf("got %q", got)
	}
	if got := previousFiscalYear("23-24"); got != "" {
		t.Fatalf("malformed input must yield empty, got %q", got)
	}
}

func TestRecipientConcentration(t *testing.T) {
	grants := []models.Grant{
		{Ministry: "M", Program: "P", Recipient: "Dominant Org", Amount: 75},
		{Ministry: "M", Program: "P", Recipient: "Minor Org", Amount: 25},
	}
	ctx := NewClassifierContext(grants, only(CriterionRecipientConcentration))

	if got := ClassifyGrant(grants[0], ctx); !reflect.DeepEqual(got, []string{LabelRecipientConcentration}) {
		t.Fatalf("75%% share must be labeled, got %v", got)
	}
	if got := ClassifyGrant(grants[1], ctx); len(got) != 0 {
		t.Fatalf("25%% share must not be labeled: %v", got)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	grants := []models.Grant{
		{Ministry: "ENERGY", Program: "P", Recipient: "Suncor Energy Inc.", FiscalYear: "2023-2024", Amount: 11_800_000},
		{Ministry: "ENERGY", Program: "P", Recipient: "Suncor Energy Inc.", FiscalYear: "2022-2023", Amount: 6_000_000},
		{Ministry: "ENERGY", Program: "P", Recipient: "Other Corp", FiscalYear: "2023-2024", Amount: 1_000_000},
	}
	ctx := NewClassifierContext(grants, nil)

	for _, g := range grants {
		first := ClassifyGrant(g, ctx)
		for i := 0; i < 5; i++ {
			if again := ClassifyGrant(g, ctx); !reflect.DeepEqual(first, again) {
				t.Fatalf("classification not deterministic: %v vs %v", first, again)
			}
		}
	}
}

func TestDisabledCriterionSkipsHeuristic(t *testing.T) {
	g := models.Grant{Ministry: "M", Program: "P", Recipient: "Acme Inc", Amount: 20_000_000}
	all := NewClassifierContext([]models.Grant{g}, only(CriterionCorporateWelfare, CriterionLargeAmount))
	if got := ClassifyGrant(g, all); len(got) != 2 {
		t.Fatalf("expected both labels, got %v", got)
	}

	oneOff := NewClassifierContext([]models.Grant{g}, only(CriterionCorporateWelfare))
	got := ClassifyGrant(g, oneOff)
	if !reflect.DeepEqual(got, []string{LabelCorporateWelfare}) {
		t.Fatalf("disabled Large Amount must not fire: %v", got)
	}
}

func TestTopRecipients(t *testing.T) {
	grants := []models.Grant{
		{Ministry: "M", Program: "P1", Recipient: "Big Corp", FiscalYear: "2023-2024", Amount: 12_000_000},
		{Ministry: "M", Program: "P2", Recipient: "Big Corp", FiscalYear: "2023-2024", Amount: 8_000_000},
		{Ministry: "M", Program: "P1", Recipient: "Alberta Health Services", FiscalYear: "2023-2024", Amount: 30_000_000},
		{Ministry: "M", Program: "P3", Recipient: "Small Org", FiscalYear: "2023-2024", Amount: 1_000_000},
	}
	ctx := NewClassifierContext(grants, only(CriterionCorporateWelfare, CriterionLargeAmount))

	top := TopRecipients(grants, ctx, true, 10)
	if len(top) != 2 {
		t.Fatalf("operational recipient must be excluded, got %d entries", len(top))
	}
	first := top[0]
	if first.Name != "Big Corp" || first.TotalAmount != 20_000_000 {
		t.Fatalf("unexpected leader: %+v", first)
	}
	if first.GrantCount != 2 || first.ProgramCount != 2 {
		t.Errorf("unexpected counts: %+v", first)
	}
	// Risk factors are the union over the recipient's grants, deduplicated.
	want := []string{LabelCorporateWelfare, LabelLargeAmount}
	if !reflect.DeepEqual(first.RiskFactors, want) {
		t.Errorf("got risk factors %v, want %v", first.RiskFactors, want)
	}
	if !first.Flagged {
		t.Errorf("recipient with risk factors must be flagged")
	}
	if top[1].Flagged {
		t.Errorf("clean recipient must not be flagged: %+v", top[1])
	}

	withOperational := TopRecipients(grants, ctx, false, 10)
	if len(withOperational) != 3 || withOperational[0].Name != "Alberta Health Services" {
		t.Fatalf("unexpected unfiltered ranking: %+v", withOperational)
	}
}

func TestTopRecipientsLimit(t *testing.T) {
	grants := []models.Grant{
		{Ministry: "M", Program: "P", Recipient: "A", Amount: 3},
		{Ministry: "M", Program: "P", Recipient: "B", Amount: 2},
		{Ministry: "M", Program: "P", Recipient: "C", Amount: 1},
	}
	ctx := NewClassifierContext(grants, only())
	if got := TopRecipients(grants, ctx, false, 2); len(got) != 2 || got[0].Name != "A" {
		t.Fatalf("unexpected limited ranking: %+v", got)
	}
}

func TestMultiProgramRecipients(t *testing.T) {
	grants := []models.Grant{
		{Ministry: "M", Program: "P1", Recipient: "Spread Org", Amount: 1},
		{Ministry: "M", Program: "P2", Recipient: "Spread Org", Amount: 1},
		{Ministry: "M", Program: "P3", Recipient: "Spread Org", Amount: 1},
		{Ministry: "M", Program: "P1", Recipient: "Narrow Org", Amount: 1},
		{Ministry: "M", Program: "P2", Recipient: "Narrow Org", Amount: 1},
	}
	ctx := NewClassifierContext(grants, only())

	got := MultiProgramRecipients(grants, ctx)
	if len(got) != 1 || got[0].Name != "Spread Org" || got[0].ProgramCount != 3 {
		t.Fatalf("expected only the three-program recipient: %+v", got)
	}
}

func TestRecipientGrantCounts(t *testing.T) {
	grants := []models.Grant{
		{Recipient: "A"}, {Recipient: "B"}, {Recipient: "A"},
	}
	counts := RecipientGrantCounts(grants)
	if counts["A"] != 2 || counts["B"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
