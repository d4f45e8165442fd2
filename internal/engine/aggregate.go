package engine

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/albertaspends/grants-dashboard/internal/models"
)

// DefaultConsolidationThreshold is the minimum share of the grand total a
// ministry must hold to escape the "Other Ministries" bucket.
const DefaultConsolidationThreshold = 0.02

// OtherMinistries is the synthetic consolidation bucket. Never a real
// ministry name.
const OtherMinistries = "Other Ministries"

const otherColor = "#6B7280"

// ministryPalette fixes chart colors for the ministries that appear in the
// published reference totals.
var ministryPalette = map[string]string{
	"HEALTH":                                "#3498db",
	"EDUCATION":                             "#2ecc71",
	"ADVANCED EDUCATION":                    "#9b59b6",
	"MUNICIPAL AFFAIRS":                     "#e74c3c",
	"SENIORS COMMUNITY AND SOCIAL SERVICES": "#f39c12",
	"HUMAN SERVICES":                        "#1abc9c",
	"SENIORS AND HOUSING":                   "#d35400",
	"AGRICULTURE AND FORESTRY":              "#27ae60",
	"TRANSPORTATION":                        "#2980b9",
}

// ministryColor returns the palette color for a ministry, or a
// deterministic hue derived from the ordinal for ministries outside the
// palette. Same ministry, same color, every call.
func ministryColor(ministry string, ordinal int) string {
	if c, ok := ministryPalette[ministry]; ok {
		return c
	}
	return fmt.Sprintf("hsl(%d, 70%%, 60%%)", (120+ordinal*40)%360)
}

// MinistryTotals groups record-level data by ministry and sums amounts.
// A year filter other than the ALL YEARS sentinel restricts the input to
// that fiscal year before summing; this is the exact method and is always
// preferred over proportional scaling when records are available. Every
// ministry present in the (scoped) input appears in the output, ordered
// descending by total with name as tiebreak.
func MinistryTotals(grants []models.Grant, yearFilter string) []models.MinistryTotal {
	sums := make(map[string]float64)
	order := make([]string, 0)

	for _, g := range grants {
		if yearFilter != "" && yearFilter != models.AllYears && g.FiscalYear != yearFilter {
			continue
		}
		if _, seen := sums[g.Ministry]; !seen {
			order = append(order, g.Ministry)
		}
		sums[g.Ministry] += g.Amount
	}

	sort.Strings(order)
	totals := make([]models.MinistryTotal, 0, len(order))
	for i, ministry := range order {
		totals = append(totals, models.MinistryTotal{
			Ministry: ministry,
			Total:    sums[ministry],
			Color:    ministryColor(ministry, i),
		})
	}

	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].Total != totals[j].Total {
			return totals[i].Total > totals[j].Total
		}
		return totals[i].Ministry < totals[j].Ministry
	})
	return totals
}

// ScaleToYear approximates per-year ministry totals from precomputed
// all-years aggregates: scaled = total x (yearTotal / sum of all year
// totals). This is a documented lossy shortcut for when record-level data
// is unavailable; outputs are marked Estimated. A zero grand total scales
// everything to zero rather than dividing by it.
func ScaleToYear(totals []models.MinistryTotal, yearly []models.YearlyTotal, year string) []models.MinistryTotal {
	out := make([]models.MinistryTotal, len(totals))
	copy(out, totals)

	if year == "" || year == models.AllYears {
		return out
	}

	var yearTotal, grandTotal float64
	for _, y := range yearly {
		grandTotal += y.Total
		if y.Year == year {
			yearTotal = y.Total
		}
	}

	ratio := 0.0
	if grandTotal > 0 {
		ratio = yearTotal / grandTotal
	}

	for i := range out {
		out[i].Total *= ratio
		out[i].Estimated = true
	}
	return out
}

// ConsolidateSmallCategories merges every ministry whose share of the
// grand total falls below threshold into a single "Other Ministries"
// entry appended after the large ministries, which are sorted descending
// by total. The output's totals sum to the input's: consolidation never
// gains or drops an amount. A zero grand total treats every share as zero
// and consolidates everything.
func ConsolidateSmallCategories(totals []models.MinistryTotal, threshold float64) []models.MinistryTotal {
	var sumAll float64
	for _, t := range totals {
		sumAll += t.Total
	}

	large := make([]models.MinistryTotal, 0, len(totals))
	var otherTotal float64
	var anySmall bool
	for _, t := range totals {
		share := 0.0
		if sumAll > 0 {
			share = t.Total / sumAll
		}
		if share >= threshold {
			large = append(large, t)
		} else {
			otherTotal += t.Total
			anySmall = true
		}
	}

	sort.SliceStable(large, func(i, j int) bool { return large[i].Total > large[j].Total })

	if !anySmall {
		return large
	}
	return append(large, models.MinistryTotal{
		Ministry: OtherMinistries,
		Total:    otherTotal,
		Color:    otherColor,
	})
}

// YearlyTotals groups record-level data by fiscal year. One entry per
// distinct year, chronological: the zero-padded YYYY-YYYY format makes
// lexicographic order chronological.
func YearlyTotals(grants []models.Grant) []models.YearlyTotal {
	sums := make(map[string]float64)
	for _, g := range grants {
		sums[g.FiscalYear] += g.Amount
	}

	years := make([]string, 0, len(sums))
	for y := range sums {
		years = append(years, y)
	}
	sort.Strings(years)

	out := make([]models.YearlyTotal, 0, len(years))
	for _, y := range years {
		out = append(out, models.YearlyTotal{Year: y, Total: sums[y]})
	}
	return out
}

// Trends produces the per-year trend series over a filtered subset:
// total disbursed, distinct recipients, and average grant amount.
func Trends(grants []models.Grant, filter Filter) []models.TrendPoint {
	subset := ApplyFilters(grants, filter)

	type yearAgg struct {
		total      float64
		count      int
		recipients map[string]struct{}
	}
	byYear := make(map[string]*yearAgg)
	for _, g := range subset {
		agg, ok := byYear[g.FiscalYear]
		if !ok {
			agg = &yearAgg{recipients: make(map[string]struct{})}
			byYear[g.FiscalYear] = agg
		}
		agg.total += g.Amount
		agg.count++
		agg.recipients[g.Recipient] = struct{}{}
	}

	years := make([]string, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Strings(years)

	out := make([]models.TrendPoint, 0, len(years))
	for _, y := range years {
		agg := byYear[y]
		avg := 0.0
		if agg.count > 0 {
			avg = agg.total / float64(agg.count)
		}
		out = append(out, models.TrendPoint{
			FiscalYear:         y,
			TotalAmount:        agg.total,
			RecipientCount:     len(agg.recipients),
			AverageGrantAmount: avg,
		})
	}
	return out
}

// ProgramBreakdown derives a ministry's per-program funding slices. When
// record-level data for the ministry (and year, if scoped) exists, slices
// are exact sums. Otherwise the reference total is scaled to the year and
// split evenly across the ministry's catalogued program names, with every
// slice marked Estimated — estimation is deterministic, never randomised.
func ProgramBreakdown(grants []models.Grant, catalog []string, refTotal float64, yearly []models.YearlyTotal, ministry, year string) []models.ProgramSlice {
	if ministry == "" || ministry == models.AllMinistries {
		return nil
	}

	sums := make(map[string]float64)
	order := make([]string, 0)
	for _, g := range grants {
		if g.Ministry != ministry {
			continue
		}
		if year != "" && year != models.AllYears && g.FiscalYear != year {
			continue
		}
		if _, seen := sums[g.Program]; !seen {
			order = append(order, g.Program)
		}
		sums[g.Program] += g.Amount
	}

	if len(order) > 0 {
		sort.Strings(order)
		out := make([]models.ProgramSlice, 0, len(order))
		for i, program := range order {
			out = append(out, models.ProgramSlice{
				Name:  program,
				Value: sums[program],
				Color: fmt.Sprintf("hsl(%d, 70%%, 60%%)", (120+i*40)%360),
			})
		}
		return out
	}

	if len(catalog) == 0 || refTotal <= 0 {
		return nil
	}

	total := refTotal
	if year != "" && year != models.AllYears {
		var yearTotal, grandTotal float64
		for _, y := range yearly {
			grandTotal += y.Total
			if y.Year == year {
				yearTotal = y.Total
			}
		}
		if grandTotal > 0 {
			total = refTotal * yearTotal / grandTotal
		} else {
			total = 0
		}
	}

	share := total / float64(len(catalog))
	out := make([]models.ProgramSlice, 0, len(catalog))
	for i, program := range catalog {
		out = append(out, models.ProgramSlice{
			Name:      program,
			Value:     share,
			Color:     fmt.Sprintf("hsl(%d, 70%%, 60%%)", (120+i*40)%360),
			Estimated: true,
		})
	}
	return out
}

var fiscalYearPattern = regexp.MustCompile(`^\d{4}-\d{4}$`)

// DataQuality scans the record set for per-field issues: missing
// recipients or programs, zero amounts, malformed fiscal years. The
// warning threshold matches the dashboard's: over 10% of records affected.
func DataQuality(grants []models.Grant) models.DataQualityReport {
	total := len(grants)
	issues := map[string]int{}
	affected := 0

	for _, g := range grants {
		bad := false
		if g.Recipient == "" {
			issues["Recipient"]++
			bad = true
		}
		if g.Program == "" {
			issues["Program"]++
			bad = true
		}
		if g.Amount == 0 {
			issues["Amount"]++
			bad = true
		}
		if !fiscalYearPattern.MatchString(g.FiscalYear) {
			issues["Fiscal Year"]++
			bad = true
		}
		if bad {
			affected++
		}
	}

	fields := make([]string, 0, len(issues))
	for f := range issues {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	report := models.DataQualityReport{TotalRecords: total, IssueCount: affected}
	for _, f := range fields {
		pct := 0.0
		if total > 0 {
			pct = float64(issues[f]) / float64(total) * 100
		}
		report.IssuesByField = append(report.IssuesByField, models.FieldIssue{
			Field:      f,
			IssueCount: issues[f],
			Percentage: pct,
		})
	}
	if total > 0 && float64(affected)/float64(total) > 0.10 {
		report.Warning = true
	}
	return report
}
