package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/albertaspends/grants-dashboard/internal/models"
)

// Risk labels produced by the classifier.
const (
	LabelCorporateWelfare       = "Corporate Welfare"
	LabelLargeAmount            = "Large Amount"
	LabelPotentialDuplication   = "Potential Duplication"
	LabelOperationalGrant       = "Operational Grant"
	LabelStatisticalOutlier     = "Statistical Outlier"
	LabelUnusualIncrease        = "Unusual Increase"
	LabelUnusualDecrease        = "Unusual Decrease"
	LabelRecipientConcentration = "Recipient Concentration"
)

// Heuristic thresholds.
const (
	corporateWelfareFloor = 5_000_000
	largeAmountFloor      = 10_000_000
	multipleGrantsMin     = 3
	zScoreThreshold       = 3.0
	yearOverYearThreshold = 0.40
	concentrationShare    = 0.30
)

var corporateTokens = []string{"Corp", "Ltd", "Inc"}

var operationalTokens = []string{"Services", "Agency", "Department", "Authority"}

type categoryKey struct {
	ministry string
	program  string
}

type categoryStats struct {
	mean   float64
	stddev float64
	count  int
}

// ClassifierContext holds the whole-dataset statistics the per-grant
// heuristics need. Build it once per record set and reuse it: every
// lookup afterwards is O(1), and classification stays a pure function of
// (grant, context).
type ClassifierContext struct {
	toggles          map[string]bool
	recipientCounts  map[string]int
	pairCounts       map[categoryKey]int
	stats            map[categoryKey]categoryStats
	programYearTotal map[string]map[string]float64
	programTotal     map[string]float64
	recipientInProg  map[string]map[string]float64
}

// NewClassifierContext precomputes recipient counts, ministry/program
// pair counts, per-category amount statistics, and program funding totals
// over the full record set. toggles comes from the criteria registry; a
// nil map enables every heuristic.
func NewClassifierContext(grants []models.Grant, toggles map[string]bool) *ClassifierContext {
	ctx := &ClassifierContext{
		toggles:          toggles,
		recipientCounts:  make(map[string]int),
		pairCounts:       make(map[categoryKey]int),
		stats:            make(map[categoryKey]categoryStats),
		programYearTotal: make(map[string]map[string]float64),
		programTotal:     make(map[string]float64),
		recipientInProg:  make(map[string]map[string]float64),
	}

	sums := make(map[categoryKey]float64)
	for _, g := range grants {
		key := categoryKey{g.Ministry, g.Program}
		ctx.recipientCounts[g.Recipient]++
		ctx.pairCounts[key]++
		sums[key] += g.Amount

		if ctx.programYearTotal[g.Program] == nil {
			ctx.programYearTotal[g.Program] = make(map[string]float64)
		}
		ctx.programYearTotal[g.Program][g.FiscalYear] += g.Amount
		ctx.programTotal[g.Program] += g.Amount

		if ctx.recipientInProg[g.Program] == nil {
			ctx.recipientInProg[g.Program] = make(map[string]float64)
		}
		ctx.recipientInProg[g.Program][g.Recipient] += g.Amount
	}

	for key, n := range ctx.pairCounts {
		mean := sums[key] / float64(n)
		ctx.stats[key] = categoryStats{mean: mean, count: n}
	}
	for _, g := range grants {
		key := categoryKey{g.Ministry, g.Program}
		st := ctx.stats[key]
		diff := g.Amount - st.mean
		st.stddev += diff * diff
		ctx.stats[key] = st
	}
	for key, st := range ctx.stats {
		st.stddev = math.Sqrt(st.stddev / float64(st.count))
		ctx.stats[key] = st
	}

	return ctx
}

func (c *ClassifierContext) enabled(id string) bool {
	if c.toggles == nil {
		return true
	}
	return c.toggles[id]
}

// RecipientGrantCount returns how many grant records name the recipient.
func (c *ClassifierContext) RecipientGrantCount(recipient string) int {
	return c.recipientCounts[recipient]
}

// ClassifyGrant evaluates every enabled heuristic against one grant.
// Heuristics are independent; evaluation order is fixed so identical
// inputs always yield identical label sequences. A disabled criterion is
// skipped entirely, not merely hidden.
func ClassifyGrant(g models.Grant, ctx *ClassifierContext) []string {
	var labels []string

	if ctx.enabled(CriterionCorporateWelfare) &&
		containsAny(g.Recipient, corporateTokens) && g.Amount > corporateWelfareFloor {
		labels = append(labels, LabelCorporateWelfare)
	}

	if ctx.enabled(CriterionLargeAmount) && g.Amount > largeAmountFloor {
		labels = append(labels, LabelLargeAmount)
	}

	if ctx.enabled(CriterionMultipleGrants) {
		if n := ctx.recipientCounts[g.Recipient]; n >= multipleGrantsMin {
			labels = append(labels, fmt.Sprintf("Multiple Grants (%d)", n))
		}
	}

	if ctx.enabled(CriterionPotentialDuplication) &&
		ctx.pairCounts[categoryKey{g.Ministry, g.Program}] > 1 {
		labels = append(labels, LabelPotentialDuplication)
	}

	if ctx.enabled(CriterionOperationalGrant) && IsOperationalRecipient(g.Recipient) {
		labels = append(labels, LabelOperationalGrant)
	}

	if ctx.enabled(CriterionStatisticalOutlier) {
		st := ctx.stats[categoryKey{g.Ministry, g.Program}]
		// A category where every amount is identical has no outliers,
		// whatever the amounts are.
		if st.stddev > 0 {
			z := (g.Amount - st.mean) / st.stddev
			if math.Abs(z) > zScoreThreshold {
				labels = append(labels, LabelStatisticalOutlier)
			}
		}
	}

	if change, ok := ctx.yearOverYearChange(g.Program, g.FiscalYear); ok {
		if ctx.enabled(CriterionUnusualIncrease) && change > yearOverYearThreshold {
			labels = append(labels, LabelUnusualIncrease)
		}
		if ctx.enabled(CriterionUnusualDecrease) && change < -yearOverYearThreshold {
			labels = append(labels, LabelUnusualDecrease)
		}
	}

	if ctx.enabled(CriterionRecipientConcentration) {
		programTotal := ctx.programTotal[g.Program]
		if programTotal > 0 {
			share := ctx.recipientInProg[g.Program][g.Recipient] / programTotal
			if share > concentrationShare {
				labels = append(labels, LabelRecipientConcentration)
			}
		}
	}

	return labels
}

// yearOverYearChange returns the signed fractional change of a program's
// funding versus the previous fiscal year. A program with no prior-year
// record is simply not evaluated.
func (c *ClassifierContext) yearOverYearChange(program, year string) (float64, bool) {
	years := c.programYearTotal[program]
	if years == nil {
		return 0, false
	}
	prior, ok := years[previousFiscalYear(year)]
	if !ok || prior == 0 {
		return 0, false
	}
	return (years[year] - prior) / prior, true
}

// previousFiscalYear shifts a "YYYY-YYYY" label back one year, e.g.
// "2023-2024" to "2022-2023". Returns "" for malformed input.
func previousFiscalYear(year string) string {
	if !fiscalYearPattern.MatchString(year) {
		return ""
	}
	start, err := strconv.Atoi(year[:4])
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%04d-%04d", start-1, start)
}

// IsOperationalRecipient reports whether a recipient name marks an
// operational government entity. The marker excludes recipients from the
// corporate-welfare oriented views; it is not itself a flag.
func IsOperationalRecipient(name string) bool {
	return containsAny(name, operationalTokens)
}

// containsAny is a case-sensitive substring match against any token.
func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}

// RecipientGrantCounts maps recipient name to the number of grant records
// naming them, over the full record set.
func RecipientGrantCounts(grants []models.Grant) map[string]int {
	counts := make(map[string]int)
	for _, g := range grants {
		counts[g.Recipient]++
	}
	return counts
}

// TopRecipients aggregates grants per recipient, annotates each with the
// union of its grants' risk labels, and returns the top recipients by
// total amount. excludeOperational drops operational government entities
// from the ranking. limit <= 0 returns everyone.
func TopRecipients(grants []models.Grant, ctx *ClassifierContext, excludeOperational bool, limit int) []models.RecipientSummary {
	byName := make(map[string]*models.RecipientSummary)
	programs := make(map[string]map[string]struct{})
	order := make([]string, 0)

	for _, g := range grants {
		if excludeOperational && IsOperationalRecipient(g.Recipient) {
			continue
		}
		sum, ok := byName[g.Recipient]
		if !ok {
			sum = &models.RecipientSummary{ID: g.Recipient, Name: g.Recipient}
			byName[g.Recipient] = sum
			programs[g.Recipient] = make(map[string]struct{})
			order = append(order, g.Recipient)
		}
		sum.TotalAmount += g.Amount
		sum.GrantCount++
		programs[g.Recipient][g.Program] = struct{}{}

		for _, label := range ClassifyGrant(g, ctx) {
			if !containsString(sum.RiskFactors, label) {
				sum.RiskFactors = append(sum.RiskFactors, label)
			}
		}
	}

	out := make([]models.RecipientSummary, 0, len(order))
	for _, name := range order {
		sum := byName[name]
		sum.ProgramCount = len(programs[name])
		sum.Flagged = len(sum.RiskFactors) > 0
		out = append(out, *sum)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalAmount != out[j].TotalAmount {
			return out[i].TotalAmount > out[j].TotalAmount
		}
		return out[i].Name < out[j].Name
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// MultiProgramRecipients returns recipients drawing from more than two
// programs, sorted descending by program count. Feeds the "Organizations
// with Multiple Grant Programs" view.
func MultiProgramRecipients(grants []models.Grant, ctx *ClassifierContext) []models.RecipientSummary {
	all := TopRecipients(grants, ctx, false, 0)

	out := make([]models.RecipientSummary, 0)
	for _, r := range all {
		if r.ProgramCount > 2 {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ProgramCount != out[j].ProgramCount {
			return out[i].ProgramCount > out[j].ProgramCount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
