// Package filter narrows a denial ledger to the rows matching the current
// dashboard selections.
package filter

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/gyeh/denial-dash/internal/ledger"
)

// All is the selector sentinel meaning "no restriction".
const All = "All"

// DateRange is one of the fixed look-back windows offered by the dashboard.
type DateRange string

const (
	Last3Months  DateRange = "Last 3 Months"
	Last6Months  DateRange = "Last 6 Months"
	Last12Months DateRange = "Last 12 Months"
)

// DefaultDateRange is the range preselected on first load.
const DefaultDateRange = Last6Months

// ErrUnknownDateRange is returned by ParseDateRange for unrecognized labels.
var ErrUnknownDateRange = errors.New("unknown date range")

var (
	ErrUnknownPayer      = errors.New("unknown payer")
	ErrUnknownDenialType = errors.New("unknown denial type")
)

// DateRanges lists the selectable ranges in display order.
func DateRanges() []DateRange {
	return []DateRange{Last3Months, Last6Months, Last12Months}
}

// ParseDateRange accepts a display label ("Last 3 Months") or a short form
// ("3m", "3"), case-insensitively.
func ParseDateRange(s string) (DateRange, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "last 3 months", "3m", "3":
		return Last3Months, nil
	case "last 6 months", "6m", "6":
		return Last6Months, nil
	case "last 12 months", "12m", "12":
		return Last12Months, nil
	default:
		return "", fmt.Errorf("%w: %q (expected %q, %q or %q)", ErrUnknownDateRange, s, Last3Months, Last6Months, Last12Months)
	}
}

// Months returns the look-back length in months.
func (d DateRange) Months() int {
	switch d {
	case Last3Months:
		return 3
	case Last6Months:
		return 6
	default:
		return 12
	}
}

// Cutoff returns the first day of the month Months() before now's month.
// Rows dated before the cutoff are excluded.
func (d DateRange) Cutoff(now time.Time) time.Time {
	return ledger.MonthsBefore(now, d.Months())
}

func (d DateRange) String() string {
	return string(d)
}

// Criteria is the immutable set of selections for one render.
type Criteria struct {
	Payer       string    `json:"payer" yaml:"payer"` // "" or All means every payer
	DateRange   DateRange `json:"date_range" yaml:"date_range"`
	DenialTypes []string  `json:"denial_types" yaml:"denial_types"` // containing All means every type; empty means none
	Now         time.Time `json:"now" yaml:"now"`
}

// NewCriteria builds Criteria, copying the type selection so later mutation of
// the caller's slice cannot leak in.
func NewCriteria(dateRange DateRange, payer string, denialTypes []string, now time.Time) Criteria {
	return Criteria{
		Payer:       payer,
		DateRange:   dateRange,
		DenialTypes: slices.Clone(denialTypes),
		Now:         now,
	}
}

// Defaults returns the first-load selections: every payer, DefaultDateRange,
// every type.
func Defaults(now time.Time) Criteria {
	return NewCriteria(DefaultDateRange, All, []string{All}, now)
}

// View is the subset of ledger rows satisfying a Criteria, in ledger order.
type View []ledger.DenialRecord

// Predicate reports whether a row is kept.
type Predicate func(ledger.DenialRecord) bool

// ByCutoff keeps rows dated on or after cutoff.
func ByCutoff(cutoff time.Time) Predicate {
	return func(r ledger.DenialRecord) bool {
		return !r.Date.Before(cutoff)
	}
}

// ByPayer keeps rows for one payer; "" or All keeps everything.
func ByPayer(payer string) Predicate {
	if payer == "" || payer == All {
		return func(ledger.DenialRecord) bool { return true }
	}
	return func(r ledger.DenialRecord) bool {
		return r.Payer == payer
	}
}

// ByTypes keeps rows whose denial type was selected. A selection containing
// All keeps everything; an empty selection keeps nothing.
func ByTypes(types []string) Predicate {
	if slices.Contains(types, All) {
		return func(ledger.DenialRecord) bool { return true }
	}
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return func(r ledger.DenialRecord) bool {
		_, ok := set[r.DenialType]
		return ok
	}
}

// Apply keeps the rows satisfying every predicate. The result never aliases
// the input.
func Apply(records []ledger.DenialRecord, preds ...Predicate) View {
	out := make(View, 0, len(records))
outer:
	for _, r := range records {
		for _, p := range preds {
			if !p(r) {
				continue outer
			}
		}
		out = append(out, r)
	}
	return out
}

// Predicates returns the three filters Criteria describes.
func (c Criteria) Predicates() []Predicate {
	dr := c.DateRange
	if dr == "" {
		dr = DefaultDateRange
	}
	now := c.Now
	if now.IsZero() {
		now = time.Now()
	}
	return []Predicate{
		ByCutoff(dr.Cutoff(now)),
		ByPayer(c.Payer),
		ByTypes(c.DenialTypes),
	}
}

// Resolve narrows records to the rows matching c.
func Resolve(records []ledger.DenialRecord, c Criteria) View {
	return Apply(records, c.Predicates()...)
}

// Choices are the selector options presented to the user.
type Choices struct {
	Payers      []string    `json:"payers"`
	DateRanges  []DateRange `json:"date_ranges"`
	DenialTypes []string    `json:"denial_types"`
}

// Options derives selector choices from a ledger: All followed by the sorted
// distinct payers and denial types.
func Options(records []ledger.DenialRecord) Choices {
	return Choices{
		Payers:      withAll(distinct(records, func(r ledger.DenialRecord) string { return r.Payer })),
		DateRanges:  DateRanges(),
		DenialTypes: withAll(distinct(records, func(r ledger.DenialRecord) string { return r.DenialType })),
	}
}

// Check reports whether payer and every entry of types are offered by ch.
// An empty payer is treated as All.
func (ch Choices) Check(payer string, types []string) error {
	if payer != "" && !slices.Contains(ch.Payers, payer) {
		return fmt.Errorf("%w: %q", ErrUnknownPayer, payer)
	}
	for _, t := range types {
		if !slices.Contains(ch.DenialTypes, t) {
			return fmt.Errorf("%w: %q", ErrUnknownDenialType, t)
		}
	}
	return nil
}

func distinct(records []ledger.DenialRecord, key func(ledger.DenialRecord) string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func withAll(values []string) []string {
	return append([]string{All}, values...)
}
