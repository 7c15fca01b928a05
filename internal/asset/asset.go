// Package asset loads optional image files (the dashboard logo, chart
// images) and reports how loading went instead of failing.
package asset

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Status is the outcome of loading an optional image.
type Status int

const (
	Loaded Status = iota
	MissingFile
	DecodeError
)

func (s Status) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case MissingFile:
		return "missing"
	case DecodeError:
		return "decode_error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// DefaultLogoPath is where the dashboard looks for its logo.
const DefaultLogoPath = "elica_logo.png"

// Image is a loaded (or failed) image file. Data, Format, Width and Height are
// only set when Status is Loaded.
type Image struct {
	Path   string
	Status Status
	Err    error
	Data   []byte
	Format string // registered decoder name: png, jpeg, gif, bmp, webp
	Width  int
	Height int
}

// Load reads path and checks that it decodes as an image. An absent or
// unreadable file yields MissingFile; undecodable bytes yield DecodeError.
func Load(path string) Image {
	img := Image{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		img.Status = MissingFile
		if errors.Is(err, fs.ErrNotExist) {
			img.Err = fmt.Errorf("image %s not found", path)
		} else {
			img.Err = fmt.Errorf("reading image %s: %w", path, err)
		}
		return img
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		img.Status = DecodeError
		img.Err = fmt.Errorf("decoding image %s: %w", path, err)
		return img
	}

	img.Status = Loaded
	img.Data = data
	img.Format = format
	img.Width = cfg.Width
	img.Height = cfg.Height
	return img
}

// ContentType returns the MIME type for a loaded image's format.
func (i Image) ContentType() string {
	switch i.Format {
	case "png":
		return "image/png"
	case "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
