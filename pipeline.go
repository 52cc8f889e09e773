package conewarp

import (
	"image"
	"sync"
	"sync/atomic"
)

// Pipeline drives the per-frame compositing chain: composite, brightness
// pre-adjustment, geometric remap, then saturation/contrast grading. It is
// stateless across frames except for the active coordinate map and the
// grading parameters, both of which may be swapped between any two Process
// calls.
//
// The active map is replaced wholesale through an atomic pointer, never
// mutated in place, so Process reads it without taking a lock.
type Pipeline struct {
	frameSize int

	active atomic.Pointer[CoordinateMap]

	mu           sync.Mutex
	base         *CoordinateMap
	grading      Grading
	subjectScale float64
	aspectX      float64
	aspectY      float64
}

// NewPipeline returns a pipeline warping frameSize-square working frames
// through m. The grading snapshot is read once per processed frame.
func NewPipeline(m *CoordinateMap, frameSize int, g Grading) *Pipeline {
	p := &Pipeline{
		frameSize:    frameSize,
		subjectScale: DefaultSubjectScale,
		aspectX:      1,
		aspectY:      1,
		base:         m,
		grading:      g,
	}
	p.refreshLocked()
	return p
}

// SetSubjectScale overrides the subject shrink factor (default 0.6).
func (p *Pipeline) SetSubjectScale(scale float64) *Pipeline {
	if scale > 0 && scale <= 1 {
		p.mu.Lock()
		p.subjectScale = scale
		p.mu.Unlock()
	}
	return p
}

// SetAspectScale sets the per-axis scaling folded into runtime rotation,
// compensating for a non-square physical display (e.g. 4:3 tablets).
func (p *Pipeline) SetAspectScale(sx, sy float64) *Pipeline {
	if sx > 0 && sy > 0 {
		p.mu.Lock()
		p.aspectX, p.aspectY = sx, sy
		p.refreshLocked()
		p.mu.Unlock()
	}
	return p
}

// SetMap replaces the base coordinate map and reapplies the current rotation.
func (p *Pipeline) SetMap(m *CoordinateMap) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = m
	p.refreshLocked()
}

// Map returns the currently active (rotation-adjusted) coordinate map.
func (p *Pipeline) Map() *CoordinateMap { return p.active.Load() }

// Grading returns the current grading snapshot.
func (p *Pipeline) Grading() Grading {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.grading
}

// SetGrading replaces the grading parameters, rebuilding the active map if
// the rotation angle changed.
func (p *Pipeline) SetGrading(g Grading) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rotated := g.RotationDeg != p.grading.RotationDeg
	p.grading = g
	if rotated {
		p.refreshLocked()
	}
}

// RotateLeft turns the display one step counterclockwise.
func (p *Pipeline) RotateLeft() { p.control((*Grading).RotateLeft, true) }

// RotateRight turns the display one step clockwise.
func (p *Pipeline) RotateRight() { p.control((*Grading).RotateRight, true) }

// BrightnessUp raises the brightness alpha one step within its bounds.
func (p *Pipeline) BrightnessUp() { p.control((*Grading).BrightnessUp, false) }

// BrightnessDown lowers the brightness alpha one step within its bounds.
func (p *Pipeline) BrightnessDown() { p.control((*Grading).BrightnessDown, false) }

// PowerUp raises the brightness power one step within its bounds.
func (p *Pipeline) PowerUp() { p.control((*Grading).PowerUp, false) }

// PowerDown lowers the brightness power one step within its bounds.
func (p *Pipeline) PowerDown() { p.control((*Grading).PowerDown, false) }

func (p *Pipeline) control(step func(*Grading), remap bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	step(&p.grading)
	if remap {
		p.refreshLocked()
	}
}

// refreshLocked rebuilds the active map from the base map for the current
// rotation angle. Zero rotation short-circuits to the base map itself.
func (p *Pipeline) refreshLocked() {
	if p.grading.RotationDeg == 0 {
		p.active.Store(p.base)
		return
	}
	// The display rotates opposite to the requested angle, matching the
	// reference warp shader.
	p.active.Store(RotateMap(p.base, -p.grading.RotationDeg, p.aspectX, p.aspectY))
}

// Process runs one frame through the pipeline. A nil mask composites the
// frame ungated instead of failing the call.
func (p *Pipeline) Process(frame image.Image, mask *Mask) *image.NRGBA {
	p.mu.Lock()
	g := p.grading
	scale := p.subjectScale
	p.mu.Unlock()
	return Process(frame, mask, p.active.Load(), g, p.frameSize, scale)
}

// Process is the pure per-frame transformation: composite the subject into a
// workingSize frame, pre-adjust brightness channel-wise, remap through m,
// then apply saturation/contrast grading. Identical inputs always produce
// identical output.
func Process(frame image.Image, mask *Mask, m *CoordinateMap, g Grading, workingSize int, subjectScale float64) *image.NRGBA {
	composited := Composite(frame, mask, workingSize, subjectScale)
	lit := applyBrightness(composited, g.BrightnessAlpha, g.PowerExponent)
	warped := Remap(lit, m)
	return enhanceColor(warped, g)
}
