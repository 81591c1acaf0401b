package verify

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"go.verisql.io/verifier/pkg/models"
)

// RenderReport prints the run outcome: a green one-liner on success, a
// diagnostics table listing every mismatched column otherwise.
func RenderReport(w io.Writer, report *models.VerificationReport) {
	if report.Matched() {
		pass := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintln(w, pass(fmt.Sprintf("table %s verified: %d rows, all columns matched",
			report.Table, report.ControlRowCount)))
		return
	}

	fail := color.New(color.FgHiRed).SprintFunc()
	fmt.Fprintln(w, fail(fmt.Sprintf("table %s failed verification", report.Table)))
	if report.ControlRowCount != report.TestRowCount {
		fmt.Fprintln(w, fail(fmt.Sprintf("row count: control %d, test %d",
			report.ControlRowCount, report.TestRowCount)))
	}
	if len(report.Mismatches) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Column", "Diagnostics"})
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.FgHiRedColor},
		tablewriter.Colors{tablewriter.FgHiRedColor},
	)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	names := make([]string, 0, len(report.Mismatches))
	for name := range report.Mismatches {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		table.Append([]string{name, report.Mismatches[name].Message})
	}
	table.Render()
}
