package conewarp

import (
	"errors"
	"fmt"
	"math"
)

// Default cone parameters. A 300px square frame warped onto a 600px canvas
// with a 180° angular span matches the circular cone prototype display.
const (
	DefaultFrameSize    = 300
	DefaultCanvasSize   = 600
	DefaultSpanDeg      = 180
	DefaultSubjectScale = 0.6
)

// WarpGeometry describes the cone projection. All fractions are relative:
// CenterX/CenterY locate the cone apex on the canvas, RadiusFraction scales
// the base radius against half the canvas, and Inner/OuterRadiusFraction
// bound the radial band that accepts pixels. The geometry is immutable once
// a map has been built from it.
type WarpGeometry struct {
	CanvasSize          int
	FrameSize           int
	CenterX             float64
	CenterY             float64
	RadiusFraction      float64
	AngularSpanDeg      float64
	InnerRadiusFraction float64
	OuterRadiusFraction float64
}

// DefaultGeometry returns the circular cone prototype parameters.
func DefaultGeometry() WarpGeometry {
	return WarpGeometry{
		CanvasSize:          DefaultCanvasSize,
		FrameSize:           DefaultFrameSize,
		CenterX:             0.5,
		CenterY:             0.5,
		RadiusFraction:      1.0,
		AngularSpanDeg:      DefaultSpanDeg,
		InnerRadiusFraction: 0,
		OuterRadiusFraction: 1.0,
	}
}

// Validate reports whether the geometry can produce a usable map. It
// establishes the minimum-dimension invariants the builder relies on, so no
// division inside the build loop can hit a zero denominator.
func (g WarpGeometry) Validate() error {
	switch {
	case g.CanvasSize < 2:
		return fmt.Errorf("canvas size %d is too small", g.CanvasSize)
	case g.FrameSize < 2:
		return fmt.Errorf("frame size %d is too small", g.FrameSize)
	case g.AngularSpanDeg <= 0 || g.AngularSpanDeg > 360:
		return fmt.Errorf("angular span %.1f° out of range (0, 360]", g.AngularSpanDeg)
	case g.RadiusFraction <= 0 || g.RadiusFraction > 1:
		return fmt.Errorf("radius fraction %g out of range (0, 1]", g.RadiusFraction)
	case g.InnerRadiusFraction < 0 || g.OuterRadiusFraction > 1 ||
		g.InnerRadiusFraction >= g.OuterRadiusFraction:
		return errors.New("radius band must satisfy 0 <= inner < outer <= 1")
	case g.CenterX < 0 || g.CenterX > 1 || g.CenterY < 0 || g.CenterY > 1:
		return errors.New("center fractions must lie in [0, 1]")
	}
	return nil
}

// BuildMap derives the pixel-to-pixel coordinate map for the geometry. The
// function is pure: identical geometries always yield bit-identical maps.
//
// Destination pixels outside the cone's angular or radial acceptance region
// keep the black source coordinate (0, 0). The acceptance boundary is
// inclusive on both ends of the angular span, and the radius is inverted so
// the canvas center samples the far edge of the source frame.
func BuildMap(g WarpGeometry) (*CoordinateMap, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	m := newCoordinateMap(g.CanvasSize, g.CanvasSize)
	cx := g.CenterX * float64(g.CanvasSize)
	cy := g.CenterY * float64(g.CanvasSize)
	maxRadius := g.RadiusFraction * float64(g.CanvasSize) / 2
	rIn := g.InnerRadiusFraction * maxRadius
	rOut := g.OuterRadiusFraction * maxRadius
	span := g.AngularSpanDeg * math.Pi / 180
	half := span / 2
	frameMax := float64(g.FrameSize - 1)

	parallel(0, g.CanvasSize, func(ys <-chan int) {
		for y := range ys {
			dy := float64(y) - cy
			for x := 0; x < g.CanvasSize; x++ {
				dx := float64(x) - cx
				radius := math.Hypot(dx, dy)
				if radius < rIn || radius > rOut {
					continue
				}
				angle := math.Atan2(dy, dx)
				if angle < -half || angle > half {
					continue
				}
				normAngle := (angle + half) / span
				normRadius := 1 - (radius-rIn)/(rOut-rIn)
				srcX := clampFloat(normAngle*frameMax, 0, frameMax)
				srcY := clampFloat(normRadius*frameMax, 0, frameMax)
				m.set(x, y, float32(srcX), float32(srcY))
			}
		}
	})
	return m, nil
}
