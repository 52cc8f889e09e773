package conewarp

import "testing"

// linearMap builds a map whose coordinate planes are linear in (x, y), so
// bilinear resampling reproduces it exactly and rotation error is visible.
func linearMap(w, h int) *CoordinateMap {
	m := newCoordinateMap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.set(x, y, float32(x)*0.1, float32(y)*0.2)
		}
	}
	return m
}

func TestRotateMapIdentity(t *testing.T) {
	m := linearMap(64, 64)
	compareMaps(t, m, RotateMap(m, 0, 1, 1), 1e-3)
}

func TestRotateMapZeroScaleDefaults(t *testing.T) {
	m := linearMap(32, 32)
	compareMaps(t, RotateMap(m, 30, 1, 1), RotateMap(m, 30, 0, 0), 0)
}

func TestRotateMapQuarterTurns(t *testing.T) {
	// A square map rotated by 90° maps onto itself, so four quarter turns
	// must reproduce the original. Edge rows clamp against the map bounds
	// and pick up resampling error, so only the interior is compared.
	m := linearMap(64, 64)
	out := m
	for i := 0; i < 4; i++ {
		out = RotateMap(out, 90, 1, 1)
	}
	for y := 1; y < 63; y++ {
		for x := 1; x < 63; x++ {
			sx0, sy0 := m.At(x, y)
			sx1, sy1 := out.At(x, y)
			if d := float64(sx1 - sx0); d > 1e-3 || d < -1e-3 {
				t.Fatalf("column plane at (%d, %d) is %g, want %g", x, y, sx1, sx0)
			}
			if d := float64(sy1 - sy0); d > 1e-3 || d < -1e-3 {
				t.Fatalf("row plane at (%d, %d) is %g, want %g", x, y, sy1, sy0)
			}
		}
	}
}

func TestRotateMapFullCircle(t *testing.T) {
	m := linearMap(64, 64)
	compareMaps(t, m, RotateMap(m, 360, 1, 1), 1e-3)
}

func TestRotateMapFullCircleInSteps(t *testing.T) {
	// 72 successive 5° rotations compose back to identity. Edge clamping
	// perturbs the map corners on every pass and the error diffuses a few
	// pixels inward over 72 resamplings, so the check covers the central
	// disc with a cumulative tolerance.
	m := linearMap(64, 64)
	out := m
	for i := 0; i < 72; i++ {
		out = RotateMap(out, 5, 1, 1)
	}
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			dx, dy := float64(x)-32, float64(y)-32
			if dx*dx+dy*dy > 16*16 {
				continue
			}
			sx0, sy0 := m.At(x, y)
			sx1, sy1 := out.At(x, y)
			if d := float64(sx1 - sx0); d > 0.05 || d < -0.05 {
				t.Fatalf("column plane at (%d, %d) is %g, want %g", x, y, sx1, sx0)
			}
			if d := float64(sy1 - sy0); d > 0.05 || d < -0.05 {
				t.Fatalf("row plane at (%d, %d) is %g, want %g", x, y, sy1, sy0)
			}
		}
	}
}

func TestRotateMapQuarterTurnValues(t *testing.T) {
	m := linearMap(64, 64)
	out := RotateMap(m, 90, 1, 1)

	// Rotating the lookup positions by 90° sends destination (x, y) to
	// sample the source map at (w-y, x).
	x, y := 40, 16
	wantX, wantY := m.sample(64-float64(y), float64(x))
	sx, sy := out.At(x, y)
	if d := float64(sx - wantX); d > 1e-3 || d < -1e-3 {
		t.Fatalf("rotated column plane at (%d, %d) is %g, want %g", x, y, sx, wantX)
	}
	if d := float64(sy - wantY); d > 1e-3 || d < -1e-3 {
		t.Fatalf("rotated row plane at (%d, %d) is %g, want %g", x, y, sy, wantY)
	}
}
