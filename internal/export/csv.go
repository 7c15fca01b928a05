package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gyeh/denial-dash/internal/filter"
	"github.com/gyeh/denial-dash/internal/ledger"
)

// CSV renders view as UTF-8 comma-separated text with a header row.
func CSV(view filter.View) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Columns); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range view {
		if err := w.Write(fields(r)); err != nil {
			return nil, fmt.Errorf("writing csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadCSV decodes a CSV export back into records. Dates carry no zone in the
// file, so they are placed at midnight in loc (UTC when nil), the location
// the ledger was generated in.
func ReadCSV(r io.Reader, loc *time.Location) ([]ledger.DenialRecord, error) {
	if loc == nil {
		loc = time.UTC
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	for i, col := range Columns {
		if header[i] != col {
			return nil, fmt.Errorf("csv column %d: got %q, want %q", i, header[i], col)
		}
	}

	var out []ledger.DenialRecord
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}
		row, err := parseFields(rec, loc)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		out = append(out, row)
	}
}

func parseFields(rec []string, loc *time.Location) (ledger.DenialRecord, error) {
	date, err := time.ParseInLocation(DateLayout, rec[0], loc)
	if err != nil {
		return ledger.DenialRecord{}, fmt.Errorf("parsing date: %w", err)
	}
	ints := make([]int, 4)
	for i := range ints {
		n, err := strconv.Atoi(rec[4+i])
		if err != nil {
			return ledger.DenialRecord{}, fmt.Errorf("parsing %s: %w", Columns[4+i], err)
		}
		ints[i] = n
	}
	return ledger.DenialRecord{
		Date:            date,
		Month:           rec[1],
		Payer:           rec[2],
		DenialType:      rec[3],
		DenialCount:     ints[0],
		Amount:          ints[1],
		OverturnedCount: ints[2],
		AvgDaysToPay:    ints[3],
	}, nil
}
