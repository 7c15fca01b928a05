// Package ledger synthesizes the sample denial ledger the dashboard runs on.
//
// The ledger covers the 12 months ending at the month containing the supplied
// clock, so two runs with the same seed only agree while the calendar month is
// unchanged.
package ledger

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultSeed is the seed the dashboard uses when none is configured.
const DefaultSeed int64 = 42

// Months is the number of consecutive months in a generated ledger.
const Months = 12

// Options controls ledger generation.
type Options struct {
	Seed        int64
	Now         time.Time
	Payers      []string // defaults to Payers()
	DenialTypes []string // defaults to DenialTypes()
}

// Generate builds the standard ledger: Months × Payers() × DenialTypes()
// records ending at the month containing now.
func Generate(seed int64, now time.Time) []DenialRecord {
	return GenerateWith(Options{Seed: seed, Now: now})
}

// GenerateWith builds a ledger for arbitrary payer and type sets. Records are
// ordered month, then payer, then denial type.
func GenerateWith(opts Options) []DenialRecord {
	ps := opts.Payers
	if len(ps) == 0 {
		ps = payers
	}
	ts := opts.DenialTypes
	if len(ts) == 0 {
		ts = denialTypes
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	s := newSampler(opts.Seed)
	start := MonthsBefore(now, Months-1)

	records := make([]DenialRecord, 0, Months*len(ps)*len(ts))
	for m := 0; m < Months; m++ {
		monthDate := start.AddDate(0, m, 0)
		label := MonthLabel(monthDate)
		for _, payer := range ps {
			for _, dtype := range ts {
				records = append(records, s.record(monthDate, label, payer, dtype))
			}
		}
	}
	return records
}

// sampler draws every random quantity from one PCG stream so a seed fully
// determines the sequence.
type sampler struct {
	rng      *rand.Rand
	poisson  distuv.Poisson
	amount   distuv.Uniform
	overturn distuv.Uniform
	days     distuv.Normal
}

func newSampler(seed int64) *sampler {
	src := rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)
	return &sampler{
		rng:      rand.New(src),
		poisson:  distuv.Poisson{Lambda: 12, Src: src},
		amount:   distuv.Uniform{Min: 50, Max: 200, Src: src},
		overturn: distuv.Uniform{Min: 0.4, Max: 0.8, Src: src},
		days:     distuv.Normal{Mu: 30, Sigma: 8, Src: src},
	}
}

func (s *sampler) record(monthDate time.Time, label, payer, dtype string) DenialRecord {
	count := int(s.poisson.Rand()) + s.rng.IntN(10)
	amount := int(float64(count) * s.amount.Rand())
	overturned := int(float64(count) * s.overturn.Rand())
	if overturned > count {
		overturned = count
	}
	days := int(math.Trunc(s.days.Rand()))
	if days < 1 {
		days = 1
	}
	return DenialRecord{
		Date:            monthDate,
		Month:           label,
		Payer:           payer,
		DenialType:      dtype,
		DenialCount:     count,
		Amount:          amount,
		OverturnedCount: overturned,
		AvgDaysToPay:    days,
	}
}
