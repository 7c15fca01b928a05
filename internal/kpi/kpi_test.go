package kpi

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/gyeh/denial-dash/internal/filter"
	"github.com/gyeh/denial-dash/internal/ledger"
)

var testNow = time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)

func row(month, payer, dtype string, amount int) ledger.DenialRecord {
	d, err := time.Parse(ledger.MonthLayout, month)
	if err != nil {
		panic(err)
	}
	return ledger.DenialRecord{
		Date:         d,
		Month:        month,
		Payer:        payer,
		DenialType:   dtype,
		DenialCount:  10,
		Amount:       amount,
		AvgDaysToPay: 30,
	}
}

func TestCompute_ThreeMonthScenario(t *testing.T) {
	records := []ledger.DenialRecord{
		row("2026-08", "X", "Y", 100),
		row("2026-09", "X", "Y", 200),
		row("2026-10", "X", "Y", 300),
	}
	view := filter.Resolve(records, filter.NewCriteria(filter.Last3Months, filter.All, []string{filter.All}, testNow))
	if len(view) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(view))
	}

	s := Compute(view, testNow)
	if s.TotalAmount != 600 {
		t.Errorf("expected total 600, got %d", s.TotalAmount)
	}
	if s.RollingAvg != 200 {
		t.Errorf("expected rolling avg 200, got %v", s.RollingAvg)
	}
	if s.LastMonthAmount != 200 || s.PriorMonthAmount != 100 {
		t.Errorf("expected last/prior 200/100, got %d/%d", s.LastMonthAmount, s.PriorMonthAmount)
	}
	if s.VsPriorPct != 100 {
		t.Errorf("expected +100%%, got %v", s.VsPriorPct)
	}
}

func TestPercentChange_ZeroPrior(t *testing.T) {
	for _, last := range []int{0, 1, 500, 1 << 30} {
		if got := PercentChange(last, 0); got != 0 {
			t.Errorf("PercentChange(%d, 0) = %v, want 0", last, got)
		}
	}
	if got := PercentChange(50, 100); got != -50 {
		t.Errorf("PercentChange(50, 100) = %v, want -50", got)
	}
}

func TestCompute_ZeroPriorMonth(t *testing.T) {
	view := filter.View{row("2026-09", "X", "Y", 500)}
	s := Compute(view, testNow)
	if s.LastMonthAmount != 500 || s.PriorMonthAmount != 0 {
		t.Fatalf("expected last/prior 500/0, got %d/%d", s.LastMonthAmount, s.PriorMonthAmount)
	}
	if s.VsPriorPct != 0 {
		t.Errorf("expected 0%% when prior month is empty, got %v", s.VsPriorPct)
	}
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil, testNow)
	if s.TotalAmount != 0 || s.AvgDaysToPay != 0 || s.RollingAvg != 0 || s.VsPriorPct != 0 {
		t.Errorf("expected zero summary, got %+v", s)
	}
	if s.CleanClaimRate != 1 {
		t.Errorf("expected clean claim rate 1 for no denials, got %v", s.CleanClaimRate)
	}
	if len(s.TopCauses) != 0 || len(s.AmountByType) != 0 || len(s.AvgDaysByPayer) != 0 {
		t.Errorf("expected empty groupings, got %+v", s)
	}
}

func TestRollingAvg_KeepsMostRecentSix(t *testing.T) {
	var months []Group
	for i := 1; i <= 9; i++ {
		months = append(months, Group{Label: time.Date(2026, time.Month(i), 1, 0, 0, 0, 0, time.UTC).Format(ledger.MonthLayout), Value: i * 100})
	}
	// Months 4..9 → (400+...+900)/6 = 650
	if got := RollingAvg(months, 6); got != 650 {
		t.Errorf("expected 650, got %v", got)
	}
	if got := RollingAvg(months[:2], 6); got != 150 {
		t.Errorf("expected 150 for two months, got %v", got)
	}
}

func TestCleanClaimRate(t *testing.T) {
	if got := CleanClaimRate(5000); got != 0.5 {
		t.Errorf("CleanClaimRate(5000) = %v, want 0.5", got)
	}
	view := filter.View{row("2026-09", "X", "Y", 1), row("2026-09", "X", "Z", 1)}
	s := Compute(view, testNow)
	want := 1 - 20.0/5020.0
	if math.Abs(s.CleanClaimRate-want) > 1e-12 {
		t.Errorf("clean claim rate = %v, want %v", s.CleanClaimRate, want)
	}
}

func TestAvgDaysToPay_Truncates(t *testing.T) {
	a := row("2026-09", "X", "Y", 1)
	a.AvgDaysToPay = 30
	b := row("2026-09", "X", "Z", 1)
	b.AvgDaysToPay = 33
	s := Compute(filter.View{a, b}, testNow)
	if s.AvgDaysToPay != 31 {
		t.Errorf("expected trunc(31.5) = 31, got %d", s.AvgDaysToPay)
	}
}

func TestTopCauses(t *testing.T) {
	view := filter.View{
		row("2026-09", "X", "A", 100),
		row("2026-09", "X", "B", 300),
		row("2026-09", "X", "C", 200),
		row("2026-09", "X", "D", 300),
		row("2026-09", "X", "E", 50),
	}
	got := TopCauses(view, 3)
	want := []Group{{"B", 300}, {"D", 300}, {"C", 200}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopCauses = %v, want %v", got, want)
	}

	two := TopCauses(view[:2], 3)
	if len(two) != 2 {
		t.Errorf("expected min(3, 2) causes, got %d", len(two))
	}
}

func TestTopCauses_GeneratedLedger(t *testing.T) {
	view := filter.Resolve(ledger.Generate(42, testNow), filter.Defaults(testNow))
	causes := TopCauses(view, 3)
	if len(causes) != 3 {
		t.Fatalf("expected 3 causes, got %d", len(causes))
	}
	for i := 1; i < len(causes); i++ {
		if causes[i].Value > causes[i-1].Value {
			t.Errorf("causes not descending: %v", causes)
		}
	}
}

func TestGroupings(t *testing.T) {
	a := row("2026-09", "P1", "A", 100)
	a.OverturnedCount = 4
	a.AvgDaysToPay = 20
	b := row("2026-08", "P2", "B", 250)
	b.OverturnedCount = 9
	b.AvgDaysToPay = 41
	c := row("2026-09", "P2", "A", 100)
	c.OverturnedCount = 1
	c.AvgDaysToPay = 40
	view := filter.View{a, b, c}

	if got, want := AmountByType(view), []Group{{"B", 250}, {"A", 200}}; !reflect.DeepEqual(got, want) {
		t.Errorf("AmountByType = %v, want %v", got, want)
	}
	if got, want := AmountByMonth(view), []Group{{"2026-08", 250}, {"2026-09", 200}}; !reflect.DeepEqual(got, want) {
		t.Errorf("AmountByMonth = %v, want %v", got, want)
	}
	if got, want := AmountByPayer(view), []Group{{"P2", 350}, {"P1", 100}}; !reflect.DeepEqual(got, want) {
		t.Errorf("AmountByPayer = %v, want %v", got, want)
	}
	if got, want := OverturnedByType(view), []Group{{"B", 9}, {"A", 5}}; !reflect.DeepEqual(got, want) {
		t.Errorf("OverturnedByType = %v, want %v", got, want)
	}
	// P2: (41+40)/2 = 40.5 rounds half-to-even to 40.
	if got, want := AvgDaysByPayer(view), []Group{{"P1", 20}, {"P2", 40}}; !reflect.DeepEqual(got, want) {
		t.Errorf("AvgDaysByPayer = %v, want %v", got, want)
	}
}

func TestCompute_OnlyUsesView(t *testing.T) {
	records := ledger.Generate(42, testNow)
	c := filter.NewCriteria(filter.Last3Months, "Aetna", []string{"Eligibility"}, testNow)
	view := filter.Resolve(records, c)
	s := Compute(view, testNow)

	total := 0
	for _, r := range view {
		total += r.Amount
	}
	if s.TotalAmount != total {
		t.Errorf("total %d does not match view sum %d", s.TotalAmount, total)
	}
	if len(s.AmountByPayer) != 1 || s.AmountByPayer[0].Label != "Aetna" {
		t.Errorf("expected only Aetna in payer grouping, got %v", s.AmountByPayer)
	}
	if len(s.AmountByMonth) != 4 {
		t.Errorf("expected 4 months in a Last 3 Months view, got %d", len(s.AmountByMonth))
	}
}
