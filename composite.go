package conewarp

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Composite isolates the subject into a fixed working frame: the input is
// squared off to workingSize (aspect-distorting, sources are assumed
// near-square), optionally gated by the segmentation mask, shrunk by
// subjectScale and pasted centered onto an opaque black canvas. A missing
// mask degrades gracefully to no background removal.
func Composite(frame image.Image, mask *Mask, workingSize int, subjectScale float64) *image.NRGBA {
	if workingSize < 2 {
		workingSize = DefaultFrameSize
	}
	if subjectScale <= 0 || subjectScale > 1 {
		subjectScale = DefaultSubjectScale
	}

	sq := imaging.Resize(frame, workingSize, workingSize, imaging.Lanczos)
	if mask != nil {
		sq = mask.Apply(sq)
	}

	if subjectScale == 1 {
		return sq
	}

	side := int(float64(workingSize)*subjectScale + 0.5)
	if side < 1 {
		side = 1
	}
	scaled := imaging.Resize(sq, side, side, imaging.Lanczos)

	canvas := imaging.New(workingSize, workingSize, color.NRGBA{0, 0, 0, 0xff})
	offset := (workingSize - side) / 2
	return imaging.Paste(canvas, scaled, image.Pt(offset, offset))
}
