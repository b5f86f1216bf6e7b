package report

import (
	"fmt"
	"strings"

	"github.com/equityscope/equityscope/pkg/models"
)

// RenderText produces a plain-text rendering of the report, one numbered
// section after another, suitable for terminal output.
func RenderText(rep models.Report) string {
	var b strings.Builder

	for _, sec := range rep.Sections {
		fmt.Fprintf(&b, "%d. %s\n", sec.Number, strings.ToUpper(sec.Title))
		b.WriteString(strings.Repeat("-", len(sec.Title)+4))
		b.WriteByte('\n')

		if sec.Body != "" {
			b.WriteString(sec.Body)
			b.WriteByte('\n')
		}
		for _, row := range sec.Rows {
			fmt.Fprintf(&b, "  %-22s %s\n", row.Label, strings.Join(row.Values, "  "))
		}
		if sec.Unavailable && len(sec.MissingFields) > 0 {
			fmt.Fprintf(&b, "  (missing: %s)\n", strings.Join(sec.MissingFields, ", "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
