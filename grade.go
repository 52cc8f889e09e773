package conewarp

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Runtime control steps and bounds. Adjustments outside the bounds are
// clamped, never rejected.
const (
	RotateStepDeg = 5.0
	AdjustStep    = 0.1
	MinBrightness = 0.1
	MaxBrightness = 3.0
)

// Grading holds the run-time color parameters read once per processed frame.
// It is owned by the pipeline's caller and may change between any two frames.
type Grading struct {
	SaturationScale float64
	ContrastAlpha   float64
	BrightnessBeta  float64
	PowerExponent   float64
	BrightnessAlpha float64
	RotationDeg     float64
}

// DefaultGrading returns the color-pop settings tuned for the cone display.
func DefaultGrading() Grading {
	return Grading{
		SaturationScale: 1.4,
		ContrastAlpha:   1.8,
		BrightnessBeta:  -25,
		PowerExponent:   1.0,
		BrightnessAlpha: 1.0,
		RotationDeg:     0,
	}
}

// RotateLeft turns the display counterclockwise by one step.
func (g *Grading) RotateLeft() { g.RotationDeg -= RotateStepDeg }

// RotateRight turns the display clockwise by one step.
func (g *Grading) RotateRight() { g.RotationDeg += RotateStepDeg }

// BrightnessUp raises the brightness alpha by one step, capped at the bound.
func (g *Grading) BrightnessUp() {
	g.BrightnessAlpha = clampFloat(g.BrightnessAlpha+AdjustStep, MinBrightness, MaxBrightness)
}

// BrightnessDown lowers the brightness alpha by one step.
func (g *Grading) BrightnessDown() {
	g.BrightnessAlpha = clampFloat(g.BrightnessAlpha-AdjustStep, MinBrightness, MaxBrightness)
}

// PowerUp raises the brightness power exponent by one step.
func (g *Grading) PowerUp() {
	g.PowerExponent = clampFloat(g.PowerExponent+AdjustStep, MinBrightness, MaxBrightness)
}

// PowerDown lowers the brightness power exponent by one step.
func (g *Grading) PowerDown() {
	g.PowerExponent = clampFloat(g.PowerExponent-AdjustStep, MinBrightness, MaxBrightness)
}

// applyBrightness adjusts each channel by alpha*(v/255)^power*255, the warp
// shader's pre-remap brightness model, via a 256-entry lookup table.
func applyBrightness(img image.Image, alpha, power float64) *image.NRGBA {
	alpha = clampFloat(alpha, MinBrightness, MaxBrightness)
	power = clampFloat(power, MinBrightness, MaxBrightness)
	if alpha == 1 && power == 1 {
		return imaging.Clone(img)
	}

	var lut [256]uint8
	for i := range lut {
		lut[i] = clamp(alpha * math.Pow(float64(i)/255, power) * 255)
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{lut[c.R], lut[c.G], lut[c.B], c.A}
	})
}

// enhanceColor applies the post-remap grade: saturation scaling in a
// hue/saturation representation followed by linear contrast and brightness.
func enhanceColor(img image.Image, g Grading) *image.NRGBA {
	out := imaging.AdjustSaturation(img, (g.SaturationScale-1)*100)
	a := g.ContrastAlpha
	b := g.BrightnessBeta
	if a == 1 && b == 0 {
		return out
	}
	return imaging.AdjustFunc(out, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			clamp(a*float64(c.R) + b),
			clamp(a*float64(c.G) + b),
			clamp(a*float64(c.B) + b),
			c.A,
		}
	})
}
