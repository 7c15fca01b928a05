// Package kpi derives the dashboard's headline numbers and chart groupings
// from a filtered view. Every function works on the view alone and returns
// zero values for an empty view.
package kpi

import (
	"math"
	"sort"
	"time"

	"github.com/gyeh/denial-dash/internal/filter"
	"github.com/gyeh/denial-dash/internal/ledger"
)

// CleanClaimOffset is the fixed denominator offset of the illustrative clean
// claim rate: 1 - denials/(denials+CleanClaimOffset).
const CleanClaimOffset = 5000

// RollingWindow is the number of most recent months averaged by RollingAvg.
const RollingWindow = 6

// TopN is the number of denial causes reported in TopCauses.
const TopN = 3

// Group is one labelled value of a chart grouping.
type Group struct {
	Label string `json:"label" yaml:"label"`
	Value int    `json:"value" yaml:"value"`
}

// Summary holds every number the dashboard displays for one view.
type Summary struct {
	Rows             int     `json:"rows" yaml:"rows"`
	TotalAmount      int     `json:"total_amount" yaml:"total_amount"`
	LastMonth        string  `json:"last_month" yaml:"last_month"`
	LastMonthAmount  int     `json:"last_month_amount" yaml:"last_month_amount"`
	PriorMonth       string  `json:"prior_month" yaml:"prior_month"`
	PriorMonthAmount int     `json:"prior_month_amount" yaml:"prior_month_amount"`
	VsPriorPct       float64 `json:"vs_prior_pct" yaml:"vs_prior_pct"`
	RollingAvg       float64 `json:"rolling_avg" yaml:"rolling_avg"`
	CleanClaimRate   float64 `json:"clean_claim_rate" yaml:"clean_claim_rate"`
	AvgDaysToPay     int     `json:"avg_days_to_pay" yaml:"avg_days_to_pay"`
	TopCauses        []Group `json:"top_causes" yaml:"top_causes"`

	AmountByType     []Group `json:"amount_by_type" yaml:"amount_by_type"`
	AmountByMonth    []Group `json:"amount_by_month" yaml:"amount_by_month"`
	AmountByPayer    []Group `json:"amount_by_payer" yaml:"amount_by_payer"`
	OverturnedByType []Group `json:"overturned_by_type" yaml:"overturned_by_type"`
	AvgDaysByPayer   []Group `json:"avg_days_by_payer" yaml:"avg_days_by_payer"`
}

// Compute derives the Summary for view. "Last month" and "prior month" are
// the one and two calendar months before now's month.
func Compute(view filter.View, now time.Time) Summary {
	lastMonth := ledger.MonthLabel(ledger.MonthsBefore(now, 1))
	priorMonth := ledger.MonthLabel(ledger.MonthsBefore(now, 2))

	s := Summary{
		Rows:       len(view),
		LastMonth:  lastMonth,
		PriorMonth: priorMonth,
	}

	denials := 0
	days := 0
	for _, r := range view {
		s.TotalAmount += r.Amount
		denials += r.DenialCount
		days += r.AvgDaysToPay
		switch r.Month {
		case lastMonth:
			s.LastMonthAmount += r.Amount
		case priorMonth:
			s.PriorMonthAmount += r.Amount
		}
	}

	s.VsPriorPct = PercentChange(s.LastMonthAmount, s.PriorMonthAmount)
	s.CleanClaimRate = CleanClaimRate(denials)
	if len(view) > 0 {
		s.AvgDaysToPay = days / len(view)
	}

	s.AmountByMonth = AmountByMonth(view)
	s.RollingAvg = RollingAvg(s.AmountByMonth, RollingWindow)

	s.AmountByType = AmountByType(view)
	s.TopCauses = top(s.AmountByType, TopN)
	s.AmountByPayer = AmountByPayer(view)
	s.OverturnedByType = OverturnedByType(view)
	s.AvgDaysByPayer = AvgDaysByPayer(view)
	return s
}

// PercentChange returns (last-prior)/prior*100, or 0 when prior is 0.
func PercentChange(last, prior int) float64 {
	if prior == 0 {
		return 0
	}
	return float64(last-prior) / float64(prior) * 100
}

// CleanClaimRate is the illustrative 1 - n/(n+CleanClaimOffset).
func CleanClaimRate(denials int) float64 {
	return 1 - float64(denials)/float64(denials+CleanClaimOffset)
}

// RollingAvg averages the values of the last window groups of a
// chronologically ordered month series. It returns 0 for an empty series.
func RollingAvg(byMonth []Group, window int) float64 {
	if len(byMonth) == 0 || window <= 0 {
		return 0
	}
	if len(byMonth) > window {
		byMonth = byMonth[len(byMonth)-window:]
	}
	sum := 0
	for _, g := range byMonth {
		sum += g.Value
	}
	return float64(sum) / float64(len(byMonth))
}

// TopCauses returns the n denial types with the highest summed amount.
func TopCauses(view filter.View, n int) []Group {
	return top(AmountByType(view), n)
}

// AmountByType sums amount per denial type, largest first.
func AmountByType(view filter.View) []Group {
	return sortDesc(sumBy(view, denialType, amount))
}

// AmountByMonth sums amount per month in chronological order.
func AmountByMonth(view filter.View) []Group {
	groups := sumBy(view, month, amount)
	// YYYY-MM labels sort chronologically.
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Label < groups[j].Label
	})
	return groups
}

// AmountByPayer sums amount per payer, largest first.
func AmountByPayer(view filter.View) []Group {
	return sortDesc(sumBy(view, payer, amount))
}

// OverturnedByType sums overturned claims per denial type, largest first.
func OverturnedByType(view filter.View) []Group {
	return sortDesc(sumBy(view, denialType, func(r ledger.DenialRecord) int { return r.OverturnedCount }))
}

// AvgDaysByPayer averages AvgDaysToPay per payer, rounded half-to-even to a
// whole day, fastest payer first.
func AvgDaysByPayer(view filter.View) []Group {
	sums := sumBy(view, payer, func(r ledger.DenialRecord) int { return r.AvgDaysToPay })
	counts := sumBy(view, payer, func(ledger.DenialRecord) int { return 1 })
	out := make([]Group, len(sums))
	for i, g := range sums {
		out[i] = Group{
			Label: g.Label,
			Value: int(math.RoundToEven(float64(g.Value) / float64(counts[i].Value))),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value < out[j].Value
	})
	return out
}

func denialType(r ledger.DenialRecord) string { return r.DenialType }
func month(r ledger.DenialRecord) string      { return r.Month }
func payer(r ledger.DenialRecord) string      { return r.Payer }
func amount(r ledger.DenialRecord) int        { return r.Amount }

// sumBy groups by key in first-seen order.
func sumBy(view filter.View, key func(ledger.DenialRecord) string, val func(ledger.DenialRecord) int) []Group {
	index := map[string]int{}
	var out []Group
	for _, r := range view {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Group{Label: k})
		}
		out[i].Value += val(r)
	}
	return out
}

// sortDesc orders by value descending; ties keep first-seen order.
func sortDesc(groups []Group) []Group {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Value > groups[j].Value
	})
	return groups
}

func top(sorted []Group, n int) []Group {
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return append([]Group(nil), sorted...)
}
