package conewarp

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// DefaultPyramidTiltDeg pre-tilts the subject so it reads upright on the
// slanted faces of the reflector.
const DefaultPyramidTiltDeg = -22.0

// PyramidComposite lays out four views of the subject for a four-sided
// reflective pyramid instead of a cone: the working frame is mirrored or
// quarter-turned so each copy faces outward, then pasted around a black
// center square on a 3×workingSize canvas. The top and bottom cells are the
// horizontal and vertical mirrors; the left and right cells are the quarter
// turns. Masking and sizing behave exactly like Composite.
func PyramidComposite(frame image.Image, mask *Mask, workingSize int, tiltDeg float64) *image.NRGBA {
	if workingSize < 2 {
		workingSize = DefaultFrameSize
	}

	sq := imaging.Resize(frame, workingSize, workingSize, imaging.Lanczos)
	if mask != nil {
		sq = mask.Apply(sq)
	}
	if tiltDeg != 0 {
		// imaging.Rotate grows the canvas to fit; crop back so every
		// view stays workingSize square.
		sq = imaging.CropCenter(
			imaging.Rotate(sq, tiltDeg, color.NRGBA{0, 0, 0, 0xff}),
			workingSize, workingSize)
	}

	ws := workingSize
	canvas := imaging.New(3*ws, 3*ws, color.NRGBA{0, 0, 0, 0xff})
	canvas = imaging.Paste(canvas, imaging.FlipH(sq), image.Pt(ws, 0))
	canvas = imaging.Paste(canvas, imaging.Rotate90(sq), image.Pt(0, ws))
	canvas = imaging.Paste(canvas, imaging.Rotate270(sq), image.Pt(2*ws, ws))
	canvas = imaging.Paste(canvas, imaging.FlipV(sq), image.Pt(ws, 2*ws))
	return canvas
}
