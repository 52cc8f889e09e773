package conewarp

import (
	"image"
	_ "image/jpeg" // decode jpeg format
	"image/png"
	"io"
	"os"

	"github.com/disintegration/imaging"
	_ "github.com/sunshineplan/pdf"  // decode pdf format
	_ "github.com/sunshineplan/tiff" // decode tiff format
	_ "golang.org/x/image/bmp"       // decode bmp format
	_ "golang.org/x/image/webp"      // decode webp format
)

// Format is an image file format.
type Format imaging.Format

// Image file formats.
const (
	JPEG Format = iota
	PNG
	GIF
	TIFF
	BMP
)

// FormatOption is format option
type FormatOption struct {
	Format       Format
	EncodeOption []EncodeOption
}

// EncodeOption sets an optional parameter for the Encode and Save functions.
type EncodeOption imaging.EncodeOption

// JPEGQuality returns an EncodeOption that sets the output JPEG quality.
// Quality ranges from 1 to 100 inclusive, higher is better.
func JPEGQuality(quality int) EncodeOption {
	return EncodeOption(imaging.JPEGQuality(quality))
}

// PNGCompressionLevel returns an EncodeOption that sets the compression level
// of the PNG-encoded image. Default is png.DefaultCompression.
func PNGCompressionLevel(level png.CompressionLevel) EncodeOption {
	return EncodeOption(imaging.PNGCompressionLevel(level))
}

// FormatFromExtension parses an output format from a file extension.
func FormatFromExtension(ext string) (Format, error) {
	format, err := imaging.FormatFromExtension(ext)
	return Format(format), err
}

// Decode reads an image from r. All formats registered above are accepted.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	return img, err
}

// Open loads an image from file.
func Open(file string) (image.Image, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Write image according format option
func Write(w io.Writer, base image.Image, option FormatOption) error {
	var opts []imaging.EncodeOption
	for _, i := range option.EncodeOption {
		opts = append(opts, imaging.EncodeOption(i))
	}
	return imaging.Encode(w, base, imaging.Format(option.Format), opts...)
}

// Save saves image according format option
func Save(output string, base image.Image, option FormatOption) error {
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(f, base, option)
}
