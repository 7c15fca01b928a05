// Package export serializes a filtered view for download: CSV, XLSX, a PDF
// snapshot, and Parquet. Every serializer is a pure function of its input and
// returns the complete payload.
package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gyeh/denial-dash/internal/ledger"
)

// Format is an export file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatPDF     Format = "pdf"
	FormatParquet Format = "parquet"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported formats.
var ErrUnknownFormat = errors.New("unknown export format")

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatCSV, FormatXLSX, FormatPDF, FormatParquet}
}

// ParseFormat parses a format name (case-insensitive). "excel" is accepted as
// an alias for xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("%w: %q (expected csv, xlsx, pdf, or parquet)", ErrUnknownFormat, s)
	}
}

func (f Format) String() string {
	return string(f)
}

// MIMEType returns the Content-Type used when serving f.
func (f Format) MIMEType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}

// FileName returns the default download name for f.
func (f Format) FileName() string {
	if f == FormatPDF {
		return "elica_denial_snapshot.pdf"
	}
	return "elica_denials." + string(f)
}

// Columns is the full export column set, in order.
var Columns = []string{
	"Date",
	"Month",
	"Payer",
	"Denial Type",
	"Denial Count",
	"Amount",
	"Overturned Count",
	"Avg Days To Pay",
}

// DateLayout is how DenialRecord.Date is rendered in every export.
const DateLayout = "2006-01-02"

// fields renders r as one string per Columns entry.
func fields(r ledger.DenialRecord) []string {
	return []string{
		r.Date.Format(DateLayout),
		r.Month,
		r.Payer,
		r.DenialType,
		strconv.Itoa(r.DenialCount),
		strconv.Itoa(r.Amount),
		strconv.Itoa(r.OverturnedCount),
		strconv.Itoa(r.AvgDaysToPay),
	}
}
