// Package render prints reports for a terminal.
package render

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/fatih/color"

	"purchase-drivers/internal/models"
	"purchase-drivers/internal/taxonomy"
)

const (
	barWidth        = 30
	maxTitleRunes   = 140
	printedKeywords = 12
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	label   = color.New(color.Bold)
	bar     = color.New(color.FgGreen)
)

// Bar draws value in [0,1] as a fixed-width bar.
func Bar(value float64, width int) string {
	filled := int(math.Round(value * float64(width)))
	filled = max(0, min(width, filled))
	return strings.Repeat("█", filled) + strings.Repeat("·", width-filled)
}

// Report writes r to w. Driver names are shown with the taxonomy's labels,
// sorted by proportion; ties keep taxonomy order.
func Report(w io.Writer, r models.Report, tax *taxonomy.Taxonomy) {
	rule := strings.Repeat("-", 44)

	heading.Fprintln(w, "\n================= RESULT =================")
	label.Fprint(w, "URL:      ")
	fmt.Fprintln(w, r.URL)
	label.Fprint(w, "Domain:   ")
	fmt.Fprintln(w, r.Domain)
	if len(r.Title) > 0 {
		label.Fprint(w, "Title:    ")
		fmt.Fprintln(w, truncate(r.Title[0], maxTitleRunes))
	}
	if len(r.DetectedPrice) > 0 {
		label.Fprint(w, "Price:    ")
		fmt.Fprintln(w, r.DetectedPrice[0])
	}
	fmt.Fprintf(w, "Reviews detected: %d\n", r.ReviewCount)
	fmt.Fprintln(w, rule)

	fmt.Fprintln(w, "Probable purchase drivers (share):")
	drivers := taxonomy.All()
	sort.SliceStable(drivers, func(i, j int) bool {
		return r.DriverProportions[string(drivers[i])] > r.DriverProportions[string(drivers[j])]
	})
	for _, d := range drivers {
		p := r.DriverProportions[string(d)]
		fmt.Fprintf(w, " - %-20s ", tax.Label(d))
		bar.Fprint(w, Bar(p, barWidth))
		fmt.Fprintf(w, "  %5s\n", fmt.Sprintf("%.0f%%", p*100))
	}
	fmt.Fprintln(w, rule)

	fmt.Fprintln(w, "Top review words:")
	for i, kw := range r.TopReviewKeywords {
		if i == printedKeywords {
			break
		}
		fmt.Fprintf(w, " %-14s x%d\n", kw.Token, kw.Count)
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, r.Note)
	heading.Fprintln(w, "==========================================")
	fmt.Fprintln(w)
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
