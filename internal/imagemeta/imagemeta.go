package imagemeta

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/tiff" // TIFF format support
	_ "golang.org/x/image/webp" // WebP format support
)

// ErrEmptyPayload is the cause reported for zero-length input.
var ErrEmptyPayload = errors.New("empty payload")

// Metadata holds the decoded header properties of an image.
type Metadata struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Mode   string `json:"mode"`
	Format string `json:"format"`
}

// DecodeError reports why a payload could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decode failed: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Extract decodes the image header in data. Any failure is returned as a
// *DecodeError.
func Extract(data []byte) (Metadata, error) {
	if len(data) == 0 {
		return Metadata{}, &DecodeError{Err: ErrEmptyPayload}
	}

	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Metadata{}, &DecodeError{Err: err}
	}

	if config.Width <= 0 || config.Height <= 0 {
		return Metadata{}, &DecodeError{
			Err: fmt.Errorf("invalid dimensions %dx%d", config.Width, config.Height),
		}
	}

	return Metadata{
		Width:  config.Width,
		Height: config.Height,
		Mode:   ModeName(config.ColorModel),
		Format: FormatName(format),
	}, nil
}

// FormatName canonicalizes a decoder format name ("jpeg", "png", ...) to its
// upper-case identifier.
func FormatName(format string) string {
	if f, err := imaging.FormatFromExtension(format); err == nil {
		return f.String()
	}
	return strings.ToUpper(format)
}

// ModeName maps a color model to its mode identifier. Unrecognized models are
// reported as RGB.
func ModeName(model color.Model) string {
	// GIFs with only local color tables report a nil model
	if model == nil {
		return "P"
	}
	if _, ok := model.(color.Palette); ok {
		return "P"
	}

	switch model {
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.NRGBAModel, color.NRGBA64Model, color.NYCbCrAModel:
		return "RGBA"
	case color.CMYKModel:
		return "CMYK"
	case color.AlphaModel, color.Alpha16Model:
		return "A"
	default:
		// RGBA/RGBA64 from opaque PNG/BMP and YCbCr from JPEG/WebP
		return "RGB"
	}
}
