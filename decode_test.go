package conewarp

import (
	"errors"
	"image"
	"math"
	"testing"
)

// compareMaps verifies two maps carry the same coordinates within tolerance.
func compareMaps(t *testing.T, m0, m1 *CoordinateMap, tolerance float64) {
	t.Helper()
	if m0.Width() != m1.Width() || m0.Height() != m1.Height() {
		t.Fatalf("wrong map size: want %dx%d, got %dx%d",
			m0.Width(), m0.Height(), m1.Width(), m1.Height())
	}
	for y := 0; y < m0.Height(); y++ {
		for x := 0; x < m0.Width(); x++ {
			sx0, sy0 := m0.At(x, y)
			sx1, sy1 := m1.At(x, y)
			if math.Abs(float64(sx0-sx1)) > tolerance || math.Abs(float64(sy0-sy1)) > tolerance {
				t.Fatalf("coordinate at (%d, %d) is (%g, %g), want (%g, %g)",
					x, y, sx1, sy1, sx0, sy0)
			}
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m, err := BuildMap(testGeometry())
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeMap(EncodeMap(m, 32), 32)
	if err != nil {
		t.Fatal(err)
	}
	// 12-bit quantization of a 32px axis is accurate to 32/4095/2 px.
	compareMaps(t, m, decoded, 0.01)
}

func TestDecodeMapRejectsOpaqueFormats(t *testing.T) {
	noAlpha := []image.Image{
		image.NewGray(image.Rect(0, 0, 4, 4)),
		image.NewGray16(image.Rect(0, 0, 4, 4)),
		image.NewYCbCr(image.Rect(0, 0, 4, 4), image.YCbCrSubsampleRatio420),
		image.NewPaletted(image.Rect(0, 0, 4, 4), nil),
	}
	for _, img := range noAlpha {
		if _, err := DecodeMap(img, 32); !errors.Is(err, ErrMapFormat) {
			t.Errorf("%T: want ErrMapFormat, got %v", img, err)
		}
	}

	if _, err := DecodeMap(image.NewNRGBA(image.Rect(0, 0, 4, 4)), 1); err == nil {
		t.Error("frame size 1 accepted")
	}
}

func TestDecodeMapPacking(t *testing.T) {
	// rawX = r<<8|g = 2048, rawY = b<<8|a = 1024.
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Pix[0], img.Pix[1], img.Pix[2], img.Pix[3] = 8, 0, 4, 0

	m, err := DecodeMap(img, 32)
	if err != nil {
		t.Fatal(err)
	}
	sx, sy := m.At(0, 0)
	wantX := 2048.0 / 4095 * 32
	wantY := 1024.0 / 4095 * 32
	if math.Abs(float64(sx)-wantX) > 1e-4 || math.Abs(float64(sy)-wantY) > 1e-4 {
		t.Fatalf("decoded (%g, %g), want (%g, %g)", sx, sy, wantX, wantY)
	}

	flipped, err := DecodeMap(img, 32, FlipY(true))
	if err != nil {
		t.Fatal(err)
	}
	_, sy = flipped.At(0, 0)
	if math.Abs(float64(sy)-(32-wantY)) > 1e-4 {
		t.Fatalf("flipped row %g, want %g", sy, 32-wantY)
	}

	scaled, err := DecodeMap(img, 32, MapDivisor(4096))
	if err != nil {
		t.Fatal(err)
	}
	sx, _ = scaled.At(0, 0)
	if math.Abs(float64(sx)-16) > 1e-4 {
		t.Fatalf("custom divisor decoded column %g, want 16", sx)
	}
}

func TestDecodeMapRawStorage(t *testing.T) {
	// The packed bytes are containers, not colors: a premultiplied pixel
	// whose alpha byte is small must decode to the same coordinates as the
	// equivalent non-premultiplied pixel, not get un-premultiplied first.
	bytes := [4]uint8{8, 0, 4, 0}

	nrgba := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	copy(nrgba.Pix, bytes[:])

	rgba := image.NewRGBA(image.Rect(0, 0, 1, 1))
	copy(rgba.Pix, bytes[:])

	nrgba64 := image.NewNRGBA64(image.Rect(0, 0, 1, 1))
	rgba64 := image.NewRGBA64(image.Rect(0, 0, 1, 1))
	for i, v := range bytes {
		nrgba64.Pix[i*2] = v
		rgba64.Pix[i*2] = v
	}

	want, err := DecodeMap(nrgba, 32)
	if err != nil {
		t.Fatal(err)
	}
	for _, img := range []image.Image{rgba, nrgba64, rgba64} {
		m, err := DecodeMap(img, 32)
		if err != nil {
			t.Fatal(err)
		}
		sx0, sy0 := want.At(0, 0)
		sx1, sy1 := m.At(0, 0)
		if sx0 != sx1 || sy0 != sy1 {
			t.Errorf("%T decoded to (%g, %g), want (%g, %g)", img, sx1, sy1, sx0, sy0)
		}
	}
}

func TestDecodeMapClamps(t *testing.T) {
	// Saturated pixel decodes past the frame edge and must clamp to it.
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Pix[0], img.Pix[1], img.Pix[2], img.Pix[3] = 0xff, 0xff, 0xff, 0xff

	m, err := DecodeMap(img, 32)
	if err != nil {
		t.Fatal(err)
	}
	if sx, sy := m.At(0, 0); sx != 31 || sy != 31 {
		t.Fatalf("saturated pixel decoded to (%g, %g), want (31, 31)", sx, sy)
	}
}
