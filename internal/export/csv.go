// Package export serializes grant and review data to the published CSV
// layout. The actual file save is the caller's concern.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/albertaspends/grants-dashboard/internal/models"
)

// GrantsHeader is the fixed column layout of a grants export.
const GrantsHeader = "ID,Ministry,Program,Recipient,Fiscal Year,Amount,Flagged,Flag Reason"

// GrantsCSV renders an already filtered and sorted grant list. String
// fields are double-quoted (with embedded quotes doubled); ids, amounts
// and the flagged boolean are emitted bare.
func GrantsCSV(grants []models.Grant) string {
	var b strings.Builder
	b.WriteString(GrantsHeader)
	b.WriteByte('\n')

	for _, g := range grants {
		b.WriteString(g.ID)
		b.WriteByte(',')
		b.WriteString(quote(g.Ministry))
		b.WriteByte(',')
		b.WriteString(quote(g.Program))
		b.WriteByte(',')
		b.WriteString(quote(g.Recipient))
		b.WriteByte(',')
		b.WriteString(quote(g.FiscalYear))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(g.Amount, 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatBool(g.Flagged))
		b.WriteByte(',')
		b.WriteString(quote(g.FlagReason))
		b.WriteByte('\n')
	}
	return b.String()
}

// ReviewHeader is the fixed column layout of a review-list export.
const ReviewHeader = "ID,Name,Type,Ministry,Total Amount,Program Count,Flag Reasons,Date Added"

// ReviewCSV renders the review list. Flag reasons are joined with "; "
// inside a single quoted field.
func ReviewCSV(items []models.ReviewItem) string {
	var b strings.Builder
	b.WriteString(ReviewHeader)
	b.WriteByte('\n')

	for _, item := range items {
		b.WriteString(item.ID)
		b.WriteByte(',')
		b.WriteString(quote(item.Name))
		b.WriteByte(',')
		b.WriteString(item.Type)
		b.WriteByte(',')
		b.WriteString(quote(item.Ministry))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(item.TotalAmount, 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(item.ProgramCount))
		b.WriteByte(',')
		b.WriteString(quote(strings.Join(item.FlagReason, "; ")))
		b.WriteByte(',')
		b.WriteString(item.DateAdded.Format("2006-01-02"))
		b.WriteByte('\n')
	}
	return b.String()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Filename builds the export filename convention: <prefix>_<ISO date>.csv,
// e.g. grants_export_2026-08-29.csv or flagged_grants_2026-08-29.csv.
func Filename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, now.Format("2006-01-02"))
}
