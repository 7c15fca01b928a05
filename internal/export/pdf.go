package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"slices"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/gyeh/denial-dash/internal/asset"
	"github.com/gyeh/denial-dash/internal/filter"
)

// Page geometry in points, measured from the bottom-left corner of a US
// Letter page. Converted to fpdf's top-left origin by fromBottom.
const (
	pageHeight = 792.0

	titleX, titleY         = 30.0, 750.0
	generatedX, generatedY = 30.0, 735.0
	tableTop               = 710.0
	headerGap              = 14.0
	rowGap                 = 12.0
	pageBottom             = 60.0
	pageTop                = 750.0

	chartX, chartY = 30.0, 150.0
	chartW, chartH = 540.0, 360.0
)

// DefaultRowLimit is how many rows the snapshot table prints.
const DefaultRowLimit = 18

// SnapshotColumns are the Columns printed in the PDF table.
var SnapshotColumns = slices.Clip(Columns[:6])

// columnX are fixed left offsets for SnapshotColumns.
var columnX = []float64{30, 90, 150, 270, 390, 460}

// ChartImage references an image file to append as a full page.
type ChartImage struct {
	Title string
	Path  string
}

// EmbedResult reports what happened to one ChartImage.
type EmbedResult struct {
	Path   string
	Status asset.Status
	Err    error
}

// PDFOptions controls the snapshot layout.
type PDFOptions struct {
	Title    string
	Now      time.Time    // printed as the generation timestamp
	RowLimit int          // defaults to DefaultRowLimit
	Charts   []ChartImage // each appended on its own page
}

// PDF renders a fixed-layout snapshot: title, generation time, the first
// RowLimit rows of view over SnapshotColumns, then one page per chart image.
// A chart that cannot be read or decoded is skipped and reported in the
// returned results; it never fails the document.
func PDF(view filter.View, opts PDFOptions) ([]byte, []EmbedResult, error) {
	if opts.RowLimit <= 0 {
		opts.RowLimit = DefaultRowLimit
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(opts.Now)
	pdf.SetTitle(opts.Title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(titleX, fromBottom(titleY), tr(opts.Title))
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(generatedX, fromBottom(generatedY), "Generated: "+opts.Now.Format("2006-01-02 15:04"))

	y := tableTop
	pdf.SetFont("Helvetica", "B", 9)
	for i, col := range SnapshotColumns {
		pdf.Text(columnX[i], fromBottom(y), col)
	}
	pdf.SetFont("Helvetica", "", 9)
	y -= headerGap

	rows := view
	if len(rows) > opts.RowLimit {
		rows = rows[:opts.RowLimit]
	}
	for _, r := range rows {
		if y < pageBottom {
			pdf.AddPage()
			y = pageTop
		}
		for i, v := range fields(r)[:len(SnapshotColumns)] {
			pdf.Text(columnX[i], fromBottom(y), tr(v))
		}
		y -= rowGap
	}

	results := make([]EmbedResult, 0, len(opts.Charts))
	for i, c := range opts.Charts {
		results = append(results, embedChart(pdf, fmt.Sprintf("chart-%d", i), c))
	}

	if !pdf.Ok() {
		return nil, results, fmt.Errorf("rendering pdf: %w", pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, results, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), results, nil
}

// embedChart validates the image before adding its page so a bad file leaves
// no blank page behind.
func embedChart(pdf *fpdf.Fpdf, name string, c ChartImage) EmbedResult {
	img := asset.Load(c.Path)
	if img.Status != asset.Loaded {
		return EmbedResult{Path: c.Path, Status: img.Status, Err: img.Err}
	}

	data, imageType, err := pdfImage(img)
	if err != nil {
		return EmbedResult{Path: c.Path, Status: asset.DecodeError, Err: err}
	}

	opt := fpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(data))
	if !pdf.Ok() {
		err := pdf.Error()
		pdf.ClearError()
		return EmbedResult{Path: c.Path, Status: asset.DecodeError, Err: err}
	}

	pdf.AddPage()
	pdf.ImageOptions(name, chartX, fromBottom(chartY+chartH), chartW, chartH, false, opt, 0, "")
	return EmbedResult{Path: c.Path, Status: asset.Loaded}
}

// pdfImage returns bytes fpdf can embed directly, re-encoding formats it does
// not read (webp, bmp) as PNG.
func pdfImage(img asset.Image) ([]byte, string, error) {
	switch img.Format {
	case "png":
		return img.Data, "PNG", nil
	case "jpeg":
		return img.Data, "JPG", nil
	case "gif":
		return img.Data, "GIF", nil
	}
	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding %s: %w", img.Format, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, decoded); err != nil {
		return nil, "", fmt.Errorf("re-encoding %s as png: %w", img.Format, err)
	}
	return buf.Bytes(), "PNG", nil
}

func fromBottom(y float64) float64 {
	return pageHeight - y
}
