// audit runs every enabled flagging heuristic over the dataset, prints a
// summary table of label counts, and optionally writes the flagged grants
// to a CSV file.
package main

import (
	"flag"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/albertaspends/grants-dashboard/internal/engine"
	"github.com/albertaspends/grants-dashboard/internal/export"
	"github.com/albertaspends/grants-dashboard/internal/format"
	"github.com/albertaspends/grants-dashboard/internal/models"
	"github.com/albertaspends/grants-dashboard/internal/store"
)

func main() {
	var (
		dataset  = flag.String("dataset", "", "path to a grants YAML file (default: bundled data)")
		criteria = flag.String("criteria", "", "path to a criteria YAML file (default: bundled config)")
		out      = flag.String("out", "", "write flagged grants to this CSV file (empty: no file)")
	)
	flag.Parse()

	st, err := store.LoadBundled(*dataset)
	if err != nil {
		log.Fatal(err)
	}
	reg, err := engine.LoadCriteria(*criteria)
	if err != nil {
		log.Fatal(err)
	}

	grants := st.Grants()
	ctx := engine.NewClassifierContext(grants, reg.Toggles())

	labelCounts := map[string]int{}
	labelValue := map[string]float64{}
	var flagged []models.Grant
	for _, g := range grants {
		labels := engine.ClassifyGrant(g, ctx)
		if len(labels) == 0 {
			continue
		}
		for _, l := range labels {
			labelCounts[l]++
			labelValue[l] += g.Amount
		}
		g.Flagged = true
		g.FlagReason = strings.Join(labels, "; ")
		flagged = append(flagged, g)
	}

	labels := make([]string, 0, len(labelCounts))
	for l := range labelCounts {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Label", "Grants", "Total Value"})
	for _, l := range labels {
		t.AppendRow(table.Row{l, labelCounts[l], format.CAD(labelValue[l])})
	}
	t.AppendFooter(table.Row{"Flagged / Total", len(flagged), format.Count(len(grants))})
	t.Render()

	if *out == "" {
		return
	}
	name := *out
	if name == "auto" {
		name = export.Filename("flagged_grants", time.Now())
	}
	if err := os.WriteFile(name, []byte(export.GrantsCSV(flagged)), 0o644); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %d flagged grants to %s", len(flagged), name)
}
