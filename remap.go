package conewarp

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Remap resamples src through the coordinate map using bilinear
// interpolation. Source coordinates outside the frame render as opaque black
// (constant border fill), which is also how out-of-domain pixels appear:
// their (0, 0) coordinate lands on the composited frame's black border.
func Remap(src image.Image, m *CoordinateMap) *image.NRGBA {
	s := imaging.Clone(src)
	dst := image.NewNRGBA(image.Rect(0, 0, m.w, m.h))
	sw := s.Rect.Dx()
	sh := s.Rect.Dy()

	parallel(0, m.h, func(ys <-chan int) {
		for y := range ys {
			j0 := y * dst.Stride
			for x := 0; x < m.w; x++ {
				sx, sy := m.At(x, y)
				d := dst.Pix[j0+x*4 : j0+x*4+4 : j0+x*4+4]
				samplePoint(s, sw, sh, float64(sx), float64(sy), d)
			}
		}
	})
	return dst
}

// samplePoint writes the bilinear sample of src at (xf, yf) into d, using
// opaque black for any neighbor outside the source bounds.
func samplePoint(src *image.NRGBA, sw, sh int, xf, yf float64, d []uint8) {
	x0 := int(math.Floor(xf))
	y0 := int(math.Floor(yf))
	if x0 < -1 || y0 < -1 || x0 >= sw || y0 >= sh {
		d[0], d[1], d[2], d[3] = 0, 0, 0, 0xff
		return
	}

	xq := xf - float64(x0)
	yq := yf - float64(y0)
	points := [4][2]int{
		{x0, y0},
		{x0 + 1, y0},
		{x0, y0 + 1},
		{x0 + 1, y0 + 1},
	}
	weights := [4]float64{
		(1 - xq) * (1 - yq),
		xq * (1 - yq),
		(1 - xq) * yq,
		xq * yq,
	}

	var r, g, b float64
	for i := 0; i < 4; i++ {
		p := points[i]
		if p[0] < 0 || p[1] < 0 || p[0] >= sw || p[1] >= sh {
			continue // black contributes nothing
		}
		w := weights[i]
		j := p[1]*src.Stride + p[0]*4
		s := src.Pix[j : j+4 : j+4]
		r += float64(s[0]) * w
		g += float64(s[1]) * w
		b += float64(s[2]) * w
	}
	d[0] = clamp(r)
	d[1] = clamp(g)
	d[2] = clamp(b)
	d[3] = 0xff
}
