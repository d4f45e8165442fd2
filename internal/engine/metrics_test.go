package engine

import (
	"testing"

	"github.com/albertaspends/grants-dashboard/internal/models"
)

func TestKeyMetrics(t *testing.T) {
	grants := []models.Grant{
		{Ministry: "HEALTH", Recipient: "A", Amount: 10_000_000, Flagged: true},
		{Ministry: "HEALTH", Recipient: "B", Amount: 5_000_000},
		{Ministry: "EDUCATION", Recipient: "A", Amount: 1_000_000},
	}

	metrics := KeyMetrics(grants)
	if len(metrics) != 4 {
		t.Fatalf("expected 4 cards, got %d", len(metrics))
	}

	byTitle := map[string]models.KeyMetric{}
	for _, m := range metrics {
		byTitle[m.Title] = m
	}

	if got := byTitle["Total Grants"].Value; got != "3" {
		t.Errorf("Total Grants = %q", got)
	}
	if got := byTitle["Total Amount"].Value; got != "$16.0M" {
		t.Errorf("Total Amount = %q", got)
	}
	if got := byTitle["Flagged for Review"].Value; got != "1" {
		t.Errorf("Flagged for Review = %q", got)
	}
}

func TestKeyMetricsEmpty(t *testing.T) {
	metrics := KeyMetrics(nil)
	byTitle := map[string]models.KeyMetric{}
	for _, m := range metrics {
		byTitle[m.Title] = m
	}
	if got := byTitle["Total Grants"].Value; got != "0" {
		t.Errorf("Total Grants = %q", got)
	}
	// No division by zero for the average of an empty set.
	if got := byTitle["Average Grant"].Value; got != "$0" {
		t.Errorf("Average Grant = %q", got)
	}
}
