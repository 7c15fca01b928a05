package ledger

import "time"

// MonthLayout is the layout of DenialRecord.Month labels.
const MonthLayout = "2006-01"

// DenialRecord is one (month, payer, denial type) bucket of the ledger.
type DenialRecord struct {
	Date            time.Time `json:"date" yaml:"date"`   // always the first of its month
	Month           string    `json:"month" yaml:"month"` // Date formatted as YYYY-MM
	Payer           string    `json:"payer" yaml:"payer"`
	DenialType      string    `json:"denial_type" yaml:"denial_type"`
	DenialCount     int       `json:"denial_count" yaml:"denial_count"`
	Amount          int       `json:"amount" yaml:"amount"` // whole dollars
	OverturnedCount int       `json:"overturned_count" yaml:"overturned_count"`
	AvgDaysToPay    int       `json:"avg_days_to_pay" yaml:"avg_days_to_pay"`
}

var payers = []string{
	"Delta Dental",
	"Medi-Cal",
	"Anthem Blue Cross",
	"Aetna",
	"MetLife",
	"Cigna",
}

var denialTypes = []string{
	"Coding Error",
	"Eligibility",
	"Missing Documentation",
	"Timely Filing",
	"Bundling/Policy",
}

// Payers returns the fixed payer set in generation order.
func Payers() []string {
	return append([]string(nil), payers...)
}

// DenialTypes returns the fixed denial-reason set in generation order.
func DenialTypes() []string {
	return append([]string(nil), denialTypes...)
}

// MonthStart returns midnight on the first day of t's month, in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthLabel formats the month containing t as YYYY-MM.
func MonthLabel(t time.Time) string {
	return t.Format(MonthLayout)
}

// MonthsBefore returns the first day of the month n months before t's month.
func MonthsBefore(t time.Time, n int) time.Time {
	return MonthStart(t).AddDate(0, -n, 0)
}
