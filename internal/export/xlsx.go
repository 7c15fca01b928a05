package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/gyeh/denial-dash/internal/filter"
)

// SheetName is the single worksheet of the XLSX export.
const SheetName = "Denials"

// XLSX renders view as a single-sheet workbook. Count and amount columns are
// written as numbers, date and labels as text.
func XLSX(view filter.View) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, fmt.Errorf("creating stream writer: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for i, r := range view {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			r.Date.Format(DateLayout),
			r.Month,
			r.Payer,
			r.DenialType,
			r.DenialCount,
			r.Amount,
			r.OverturnedCount,
			r.AvgDaysToPay,
		}
		if err := sw.SetRow(cell, values); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flushing sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encoding workbook: %w", err)
	}
	return buf.Bytes(), nil
}
