package export

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/denial-dash/internal/filter"
)

// ParquetRow mirrors the Parquet schema of the columnar export.
type ParquetRow struct {
	Date            string `parquet:"date"`
	Month           string `parquet:"month"`
	Payer           string `parquet:"payer,dict"`
	DenialType      string `parquet:"denial_type,dict"`
	DenialCount     int64  `parquet:"denial_count"`
	Amount          int64  `parquet:"amount"`
	OverturnedCount int64  `parquet:"overturned_count"`
	AvgDaysToPay    int64  `parquet:"avg_days_to_pay"`
}

// Parquet renders view as a single Snappy-compressed Parquet file.
func Parquet(view filter.View) ([]byte, error) {
	rows := make([]ParquetRow, len(view))
	for i, r := range view {
		rows[i] = ParquetRow{
			Date:            r.Date.Format(DateLayout),
			Month:           r.Month,
			Payer:           r.Payer,
			DenialType:      r.DenialType,
			DenialCount:     int64(r.DenialCount),
			Amount:          int64(r.Amount),
			OverturnedCount: int64(r.OverturnedCount),
			AvgDaysToPay:    int64(r.AvgDaysToPay),
		}
	}

	var buf bytes.Buffer
	w := parquet.NewGenericWriter[ParquetRow](&buf,
		parquet.Compression(&parquet.Snappy),
		parquet.CreatedBy("denial-dash", "1.0", ""),
	)
	if _, err := w.Write(rows); err != nil {
		return nil, fmt.Errorf("writing parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}
