package conewarp

import (
	"image"
	"image/color"
	"testing"
)

func TestRemapBilinear(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i, v := range []uint8{0, 100, 200, 40} {
		src.Pix[i*4] = v
		src.Pix[i*4+1] = v
		src.Pix[i*4+2] = v
		src.Pix[i*4+3] = 0xff
	}

	m := newCoordinateMap(1, 1)
	m.set(0, 0, 0.5, 0.5)

	out := Remap(src, m)
	want := color.NRGBA{85, 85, 85, 0xff} // mean of the four neighbors
	if got := out.NRGBAAt(0, 0); got != want {
		t.Fatalf("bilinear sample is %v, want %v", got, want)
	}
}

func TestRemapConstantBorder(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}

	m := newCoordinateMap(2, 1)
	m.set(0, 0, -5, -5)
	m.set(1, 0, 3.5, 1) // column neighbor at 4.5 falls outside

	out := Remap(src, m)
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{0, 0, 0, 0xff}) {
		t.Fatalf("out-of-bounds sample is %v, want opaque black", got)
	}
	// Half the bilinear weight lands outside and contributes black.
	if got := out.NRGBAAt(1, 0); got != (color.NRGBA{128, 128, 128, 0xff}) {
		t.Fatalf("edge-straddling sample is %v, want half black", got)
	}
}

func TestRemapOutputAlwaysOpaque(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2)) // fully transparent source
	m := newCoordinateMap(2, 2)

	out := Remap(src, m)
	for i := 3; i < len(out.Pix); i += 4 {
		if out.Pix[i] != 0xff {
			t.Fatal("remapped output carries transparency")
		}
	}
}
