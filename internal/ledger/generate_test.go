package ledger

import (
	"reflect"
	"testing"
	"time"
)

var testNow = time.Date(2026, time.October, 18, 14, 30, 0, 0, time.UTC)

func TestGenerate_RecordCount(t *testing.T) {
	for _, seed := range []int64{0, 1, 42, -7, 1 << 40} {
		records := Generate(seed, testNow)
		want := Months * len(Payers()) * len(DenialTypes())
		if len(records) != want {
			t.Errorf("seed %d: expected %d records, got %d", seed, want, len(records))
		}
	}
}

func TestGenerate_ValueBounds(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 42, 99} {
		for i, r := range Generate(seed, testNow) {
			if r.DenialCount < 0 || r.Amount < 0 || r.OverturnedCount < 0 {
				t.Fatalf("seed %d row %d: negative value %+v", seed, i, r)
			}
			if r.AvgDaysToPay < 1 {
				t.Fatalf("seed %d row %d: avg days %d < 1", seed, i, r.AvgDaysToPay)
			}
			if r.OverturnedCount > r.DenialCount {
				t.Fatalf("seed %d row %d: overturned %d > denials %d", seed, i, r.OverturnedCount, r.DenialCount)
			}
			if r.Amount < r.DenialCount*50 || r.Amount > r.DenialCount*200 {
				t.Fatalf("seed %d row %d: amount %d outside [%d,%d]", seed, i, r.Amount, r.DenialCount*50, r.DenialCount*200)
			}
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(42, testNow)
	b := Generate(42, testNow.AddDate(0, 0, 5)) // same calendar month
	if !reflect.DeepEqual(a, b) {
		t.Error("expected identical ledgers for the same seed within one month")
	}

	c := Generate(43, testNow)
	if reflect.DeepEqual(a, c) {
		t.Error("expected different ledgers for different seeds")
	}
}

func TestGenerate_MonthSpan(t *testing.T) {
	records := Generate(42, testNow)

	first := records[0]
	if first.Month != "2025-11" {
		t.Errorf("expected first month 2025-11, got %s", first.Month)
	}
	last := records[len(records)-1]
	if last.Month != "2026-10" {
		t.Errorf("expected last month 2026-10, got %s", last.Month)
	}

	months := map[string]int{}
	for _, r := range records {
		if r.Date.Day() != 1 || r.Date.Hour() != 0 {
			t.Fatalf("date %v is not the first of the month", r.Date)
		}
		if r.Month != r.Date.Format(MonthLayout) {
			t.Fatalf("month label %s does not match date %v", r.Month, r.Date)
		}
		months[r.Month]++
	}
	if len(months) != Months {
		t.Errorf("expected %d distinct months, got %d", Months, len(months))
	}
}

func TestGenerate_CartesianOrder(t *testing.T) {
	records := Generate(7, testNow)
	ps, ts := Payers(), DenialTypes()

	i := 0
	for m := 0; m < Months; m++ {
		for _, p := range ps {
			for _, d := range ts {
				r := records[i]
				if r.Payer != p || r.DenialType != d {
					t.Fatalf("row %d: got (%s, %s), want (%s, %s)", i, r.Payer, r.DenialType, p, d)
				}
				i++
			}
		}
	}
}

func TestGenerateWith_CustomSets(t *testing.T) {
	records := GenerateWith(Options{
		Seed:        5,
		Now:         testNow,
		Payers:      []string{"X"},
		DenialTypes: []string{"Y", "Z"},
	})
	if len(records) != Months*2 {
		t.Fatalf("expected %d records, got %d", Months*2, len(records))
	}
	for _, r := range records {
		if r.Payer != "X" {
			t.Fatalf("unexpected payer %q", r.Payer)
		}
	}
}

func TestEnumsAreCopies(t *testing.T) {
	p := Payers()
	p[0] = "mutated"
	if Payers()[0] == "mutated" {
		t.Error("Payers() leaked the package slice")
	}
	d := DenialTypes()
	d[0] = "mutated"
	if DenialTypes()[0] == "mutated" {
		t.Error("DenialTypes() leaked the package slice")
	}
}

func TestMonthsBefore(t *testing.T) {
	tests := []struct {
		now  time.Time
		n    int
		want string
	}{
		{testNow, 0, "2026-10-01"},
		{testNow, 3, "2026-07-01"},
		{testNow, 12, "2025-10-01"},
		{time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC), 1, "2026-02-01"},
	}
	for _, tt := range tests {
		got := MonthsBefore(tt.now, tt.n).Format("2006-01-02")
		if got != tt.want {
			t.Errorf("MonthsBefore(%v, %d) = %s, want %s", tt.now, tt.n, got, tt.want)
		}
	}
}
