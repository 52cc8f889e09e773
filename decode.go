package conewarp

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// ErrMapFormat is returned when an encoded warp map is not a 4-channel image.
var ErrMapFormat = errors.New("encoded warp map must carry an alpha channel (4-channel RGBA)")

// defaultMapDivisor reflects the authoring tool's packing convention: only
// the low 12 of the 16 packed bits carry meaningful precision.
const defaultMapDivisor = 4095.0

type decodeMapConfig struct {
	flipY   bool
	divisor float64
}

// DecodeOption sets an optional parameter for DecodeMap and OpenMap.
type DecodeOption func(*decodeMapConfig)

// FlipY returns a DecodeOption that mirrors decoded Y coordinates, correcting
// for maps authored with an inverted vertical axis.
func FlipY(enabled bool) DecodeOption {
	return func(c *decodeMapConfig) {
		c.flipY = enabled
	}
}

// MapDivisor returns a DecodeOption overriding the fixed-point divisor used
// to reconstruct coordinates. The default of 4095 matches maps packed with 12
// significant bits per axis; validate it against the actual authoring
// pipeline before trusting externally produced maps.
func MapDivisor(divisor float64) DecodeOption {
	return func(c *decodeMapConfig) {
		if divisor > 0 {
			c.divisor = divisor
		}
	}
}

// DecodeMap reconstructs a coordinate map from a pre-authored RGBA image.
// Each pixel packs two 16-bit fixed-point values: rawX = r<<8 | g and
// rawY = b<<8 | a. Images without an alpha channel are rejected with
// ErrMapFormat before any processing begins.
func DecodeMap(img image.Image, frameSize int, opts ...DecodeOption) (*CoordinateMap, error) {
	if frameSize < 2 {
		return nil, fmt.Errorf("frame size %d is too small", frameSize)
	}
	if !hasAlphaChannel(img) {
		return nil, ErrMapFormat
	}

	cfg := decodeMapConfig{divisor: defaultMapDivisor}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	m := newCoordinateMap(w, h)
	fs := float64(frameSize)
	frameMax := fs - 1

	parallel(0, h, func(ys <-chan int) {
		for y := range ys {
			for x := 0; x < w; x++ {
				c := rawChannels(img, b.Min.X+x, b.Min.Y+y)
				rawX := float64(uint16(c.R)<<8 | uint16(c.G))
				rawY := float64(uint16(c.B)<<8 | uint16(c.A))
				srcX := rawX / cfg.divisor * fs
				srcY := rawY / cfg.divisor * fs
				if cfg.flipY {
					srcY = fs - srcY
				}
				m.set(x, y,
					float32(clampFloat(srcX, 0, frameMax)),
					float32(clampFloat(srcY, 0, frameMax)))
			}
		}
	})
	return m, nil
}

// EncodeMap packs a coordinate map into the RGBA fixed-point scheme DecodeMap
// reads, quantizing each axis to 12 bits. Decoding an encoded map recovers
// the source coordinates within one quantization unit.
func EncodeMap(m *CoordinateMap, frameSize int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, m.w, m.h))
	fs := float64(frameSize)

	parallel(0, m.h, func(ys <-chan int) {
		for y := range ys {
			for x := 0; x < m.w; x++ {
				sx, sy := m.At(x, y)
				rawX := packCoord(float64(sx), fs)
				rawY := packCoord(float64(sy), fs)
				i := y*img.Stride + x*4
				d := img.Pix[i : i+4 : i+4]
				d[0] = uint8(rawX >> 8)
				d[1] = uint8(rawX & 0xff)
				d[2] = uint8(rawY >> 8)
				d[3] = uint8(rawY & 0xff)
			}
		}
	})
	return img
}

func packCoord(v, frameSize float64) uint16 {
	raw := int(v/frameSize*defaultMapDivisor + 0.5)
	if raw < 0 {
		raw = 0
	}
	if raw > defaultMapDivisor {
		raw = defaultMapDivisor
	}
	return uint16(raw)
}

// rawChannels reads the four stored channel bytes of the pixel at (x, y).
// The packing scheme treats channels as raw byte containers, so premultiplied
// storage (RGBA, RGBA64) is read verbatim; converting through a color model
// would un-premultiply and corrupt pixels whose alpha byte is small.
func rawChannels(img image.Image, x, y int) color.NRGBA {
	switch img := img.(type) {
	case *image.NRGBA:
		i := img.PixOffset(x, y)
		s := img.Pix[i : i+4 : i+4]
		return color.NRGBA{s[0], s[1], s[2], s[3]}
	case *image.RGBA:
		i := img.PixOffset(x, y)
		s := img.Pix[i : i+4 : i+4]
		return color.NRGBA{s[0], s[1], s[2], s[3]}
	case *image.NRGBA64:
		i := img.PixOffset(x, y)
		s := img.Pix[i : i+8 : i+8]
		return color.NRGBA{s[0], s[2], s[4], s[6]}
	case *image.RGBA64:
		i := img.PixOffset(x, y)
		s := img.Pix[i : i+8 : i+8]
		return color.NRGBA{s[0], s[2], s[4], s[6]}
	}
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

// hasAlphaChannel reports whether the image's native storage carries a real
// alpha channel. Gray, paletted and YCbCr inputs are format errors for warp
// maps, never silently substituted.
func hasAlphaChannel(img image.Image) bool {
	switch img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64:
		return true
	}
	return false
}
