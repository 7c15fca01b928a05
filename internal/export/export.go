package export

import (
	"fmt"
	"time"

	"github.com/gyeh/denial-dash/internal/filter"
)

// DefaultTitle is the PDF snapshot heading.
const DefaultTitle = "Elica Dental Denial Snapshot"

// Request describes one export of a view.
type Request struct {
	Format Format
	Gzip   bool
	Title  string       // pdf only
	Now    time.Time    // pdf only
	Charts []ChartImage // pdf only
}

// Artifact is a finished export payload.
type Artifact struct {
	Format   Format
	FileName string
	MIMEType string
	Data     []byte
	Embeds   []EmbedResult // pdf only
}

// Render dispatches req to the matching serializer.
func Render(view filter.View, req Request) (*Artifact, error) {
	a := &Artifact{
		Format:   req.Format,
		FileName: req.Format.FileName(),
		MIMEType: req.Format.MIMEType(),
	}

	var err error
	switch req.Format {
	case FormatCSV:
		a.Data, err = CSV(view)
	case FormatXLSX:
		a.Data, err = XLSX(view)
	case FormatPDF:
		title := req.Title
		if title == "" {
			title = DefaultTitle
		}
		a.Data, a.Embeds, err = PDF(view, PDFOptions{Title: title, Now: req.Now, Charts: req.Charts})
	case FormatParquet:
		a.Data, err = Parquet(view)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, req.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", req.Format, err)
	}

	if req.Gzip {
		if a.Data, err = Gzip(a.Data); err != nil {
			return nil, err
		}
		a.FileName += ".gz"
		a.MIMEType = "application/gzip"
	}
	return a, nil
}
