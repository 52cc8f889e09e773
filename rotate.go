package conewarp

import "math"

// Tablet display aspect compensation used by the cone rig (4:3 panel).
const (
	DisplayAspectX = 4.0
	DisplayAspectY = 3.0
)

// RotateMap applies a 2-D rotation, scaled independently per axis, to the
// coordinate map itself and returns the adjusted map. Every output position
// is normalized to [0,1]², centered at (0.5, 0.5), rotated, re-expanded and
// bilinearly sampled from the input map; locations falling outside the map
// are clamped to the nearest edge rather than marked out-of-domain, because
// this rotates the lookup table, not image content.
//
// The result is not incremental: changing the runtime angle means rotating
// the base map again from scratch.
func RotateMap(m *CoordinateMap, angleDeg, scaleX, scaleY float64) *CoordinateMap {
	if scaleX == 0 {
		scaleX = 1
	}
	if scaleY == 0 {
		scaleY = 1
	}

	sin, cos := math.Sincos(angleDeg * math.Pi / 180)
	m00 := cos / scaleX
	m01 := -sin / scaleX
	m10 := sin / scaleY
	m11 := cos / scaleY

	out := newCoordinateMap(m.w, m.h)
	w := float64(m.w)
	h := float64(m.h)

	parallel(0, m.h, func(ys <-chan int) {
		for y := range ys {
			yn := float64(y)/h - 0.5
			for x := 0; x < m.w; x++ {
				xn := float64(x)/w - 0.5
				xr := (m00*xn + m01*yn + 0.5) * w
				yr := (m10*xn + m11*yn + 0.5) * h
				sx, sy := m.sample(xr, yr)
				out.set(x, y, sx, sy)
			}
		}
	})
	return out
}
