package main

import (
	"flag"
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/albertaspends/grants-dashboard/internal/engine"
	"github.com/albertaspends/grants-dashboard/internal/format"
	"github.com/albertaspends/grants-dashboard/internal/store"
)

func main() {
	var (
		dataset  = flag.String("dataset", "", "path to a grants YAML file (default: bundled data)")
		ministry = flag.String("ministry", "", "restrict to one ministry")
		year     = flag.String("year", "", "restrict to one fiscal year, e.g. 2023-2024")
		search   = flag.String("search", "", "case-insensitive match on program or recipient")
		minAmt   = flag.Float64("min", 0, "minimum amount")
		maxAmt   = flag.Float64("max", 0, "maximum amount")
		sortBy   = flag.String("sort", "amount", "sort key: amount, fiscalYear, ministry, program, recipient")
		limit    = flag.Int("limit", 25, "max rows to print")
	)
	flag.Parse()

	st, err := store.LoadBundled(*dataset)
	if err != nil {
		log.Fatal(err)
	}

	grants := engine.ApplyFilters(st.Grants(), engine.Filter{
		Ministry:   *ministry,
		FiscalYear: *year,
		Search:     *search,
		MinAmount:  *minAmt,
		MaxAmount:  *maxAmt,
	})
	grants = engine.SortGrants(grants, *sortBy, engine.Descending)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Ministry", "Program", "Recipient", "Year", "Amount", "Flagged"})

	shown := 0
	var total float64
	for _, g := range grants {
		total += g.Amount
		if shown >= *limit {
			continue
		}
		flagged := ""
		if g.Flagged {
			flagged = g.FlagReason
		}
		t.AppendRow(table.Row{g.Ministry, g.Program, g.Recipient, g.FiscalYear, format.CAD(g.Amount), flagged})
		shown++
	}
	t.AppendFooter(table.Row{"", "", "", "Total", format.CAD(total), ""})
	t.Render()

	if len(grants) > shown {
		log.Printf("%d of %d rows shown (raise -limit for more)", shown, len(grants))
	}
}
