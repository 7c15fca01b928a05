package kpi

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gyeh/denial-dash/internal/filter"
)

var printer = message.NewPrinter(language.English)

const automationInsight = "Automation opportunities: auto-validate eligibility prior to submission, " +
	"automated document attach for common missing documentation, and coding validation checks " +
	"in the EHR-to-837 pipeline."

// Insights returns the summary bullet lines shown under the charts.
func Insights(s Summary) []string {
	causes := make([]string, len(s.TopCauses))
	for i, g := range s.TopCauses {
		causes[i] = g.Label
	}
	return []string{
		"Top denial causes (by amount): " + strings.Join(causes, ", "),
		fmt.Sprintf("Average days to pay: %d days", s.AvgDaysToPay),
		automationInsight,
	}
}

// Dollars formats a whole-dollar amount with thousands separators: $12,345.
func Dollars(v int) string {
	if v < 0 {
		return printer.Sprintf("-$%d", -v)
	}
	return printer.Sprintf("$%d", v)
}

// SignedPct formats a percentage with an explicit sign and one decimal: +3.4%.
func SignedPct(v float64) string {
	return fmt.Sprintf("%+.1f%%", v)
}

// SortForTable orders rows newest month first, then by amount descending, as
// the detail and raw-data tables display them. The input is not modified.
func SortForTable(view filter.View) filter.View {
	out := append(filter.View(nil), view...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month > out[j].Month
		}
		return out[i].Amount > out[j].Amount
	})
	return out
}
