package engine

import (
	"github.com/albertaspends/grants-dashboard/internal/format"
	"github.com/albertaspends/grants-dashboard/internal/models"
)

// KeyMetrics produces the dashboard headline cards for the given slice
// of grants. The slice is expected to already reflect any active filters.
func KeyMetrics(grants []models.Grant) []models.KeyMetric {
	var total float64
	flagged := 0
	ministries := map[string]struct{}{}
	recipients := map[string]struct{}{}
	for _, g := range grants {
		total += g.Amount
		if g.Flagged {
			flagged++
		}
		ministries[g.Ministry] = struct{}{}
		recipients[g.Recipient] = struct{}{}
	}

	var avg float64
	if len(grants) > 0 {
		avg = total / float64(len(grants))
	}

	return []models.KeyMetric{
		{
			Title: "Total Grants",
			Value: format.Count(len(grants)),
		},
		{
			Title:       "Total Amount",
			Value:       format.CADCompact(total),
			Description: "across " + format.Count(len(ministries)) + " ministries",
		},
		{
			Title:       "Average Grant",
			Value:       format.CAD(avg),
			Description: format.Count(len(recipients)) + " unique recipients",
		},
		{
			Title:       "Flagged for Review",
			Value:       format.Count(flagged),
			Description: flaggedShare(flagged, len(grants)),
		},
	}
}

func flaggedShare(flagged, total int) string {
	if total == 0 {
		return ""
	}
	return format.Percent(float64(flagged)/float64(total)) + " of grants"
}
