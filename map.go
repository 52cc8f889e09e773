/*
Package conewarp implements the warp map engine for a Pepper's-cone style
hologram display: a square source frame is remapped onto a circular canvas so
that, reflected off an inverted cone, the subject appears to float in 3-D.

Coordinate maps are built procedurally from a WarpGeometry, or decoded from a
pre-authored fixed-point RGBA image, and are reused across many frames. The
per-frame work (compositing, brightness, remap, color grading) is driven by a
Pipeline.
*/
package conewarp

import "math"

// CoordinateMap holds, for every destination pixel, the real-valued source
// frame coordinate to sample from. Out-of-domain destination pixels carry the
// black source coordinate (0, 0). A map is immutable once built; RotateMap
// returns a new map instead of mutating.
type CoordinateMap struct {
	w, h int
	mapX []float32
	mapY []float32
}

func newCoordinateMap(w, h int) *CoordinateMap {
	return &CoordinateMap{
		w:    w,
		h:    h,
		mapX: make([]float32, w*h),
		mapY: make([]float32, w*h),
	}
}

// Width returns the destination canvas width in pixels.
func (m *CoordinateMap) Width() int { return m.w }

// Height returns the destination canvas height in pixels.
func (m *CoordinateMap) Height() int { return m.h }

// At returns the source coordinate sampled by destination pixel (x, y).
func (m *CoordinateMap) At(x, y int) (sx, sy float32) {
	i := y*m.w + x
	return m.mapX[i], m.mapY[i]
}

func (m *CoordinateMap) set(x, y int, sx, sy float32) {
	i := y*m.w + x
	m.mapX[i] = sx
	m.mapY[i] = sy
}

// Clone returns a copy of the map.
func (m *CoordinateMap) Clone() *CoordinateMap {
	out := newCoordinateMap(m.w, m.h)
	copy(out.mapX, m.mapX)
	copy(out.mapY, m.mapY)
	return out
}

// sample bilinearly interpolates both coordinate planes at (xf, yf).
// Locations outside the map are clamped to the nearest edge, so rotating a
// lookup table never introduces new out-of-domain pixels.
func (m *CoordinateMap) sample(xf, yf float64) (sx, sy float32) {
	xf = clampFloat(xf, 0, float64(m.w-1))
	yf = clampFloat(yf, 0, float64(m.h-1))

	x0 := int(math.Floor(xf))
	y0 := int(math.Floor(yf))
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 > m.w-1 {
		x1 = m.w - 1
	}
	if y1 > m.h-1 {
		y1 = m.h - 1
	}

	xq := float32(xf - float64(x0))
	yq := float32(yf - float64(y0))

	i00 := y0*m.w + x0
	i10 := y0*m.w + x1
	i01 := y1*m.w + x0
	i11 := y1*m.w + x1

	top := m.mapX[i00] + (m.mapX[i10]-m.mapX[i00])*xq
	bottom := m.mapX[i01] + (m.mapX[i11]-m.mapX[i01])*xq
	sx = top + (bottom-top)*yq

	top = m.mapY[i00] + (m.mapY[i10]-m.mapY[i00])*xq
	bottom = m.mapY[i01] + (m.mapY[i11]-m.mapY[i01])*xq
	sy = top + (bottom-top)*yq
	return
}
