package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"igrelations/pkg/enrich"
	"igrelations/pkg/export"
	"igrelations/pkg/relations"
)

// PrintBreakdown shows the size of every relationship set
func PrintBreakdown(w io.Writer, b relations.Breakdown) {
	fmt.Fprintf(w, "%s %s\n", Cyan("Followers:"), Yellow(humanize.Comma(int64(b.Followers.Len()))))
	fmt.Fprintf(w, "%s %s\n", Cyan("Following:"), Yellow(humanize.Comma(int64(b.Following.Len()))))
	for _, c := range relations.Categories {
		set, _ := b.Select(c)
		fmt.Fprintf(w, "  %-20s %s\n", c.Label()+":", humanize.Comma(int64(set.Len())))
	}
}

// PrintPlan announces how many accounts will be fetched and roughly how long
// it will take
func PrintPlan(w io.Writer, c relations.Category, n int, estimate time.Duration) {
	fmt.Fprintf(w, "%s %s %s accounts, estimated %s (finishing %s)\n",
		Magenta("Fetching"),
		humanize.Comma(int64(n)),
		c.Label(),
		FormatDuration(estimate),
		humanize.Time(time.Now().Add(estimate)),
	)
}

// PrintRunSummary reports enrichment counts and the outcome of every sink
func PrintRunSummary(w io.Writer, report *enrich.Report, summary *export.Summary) {
	if report != nil {
		total := len(report.Results)
		fmt.Fprintf(w, "\n%s %s %d/%d fetched, %d failed, took %s (%s paused)\n",
			Cyan("Enrichment:"),
			Bar(report.Succeeded(), total, 20),
			report.Succeeded(), total, report.Failed(),
			FormatDuration(report.Elapsed()),
			FormatDuration(report.Paused),
		)
	}
	if summary == nil {
		return
	}
	for _, r := range summary.Results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(w, "  %-12s %s %v\n", r.Sink, Red("FAILED"), r.Err)
		case r.Skipped:
			fmt.Fprintf(w, "  %-12s %s\n", r.Sink, Dim("skipped"))
		default:
			fmt.Fprintf(w, "  %-12s %s %s records → %s\n", r.Sink, Green("OK"), humanize.Comma(int64(r.Records)), r.Location)
		}
	}
}
