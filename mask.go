package conewarp

import (
	"image"

	"github.com/disintegration/imaging"
)

// Segmentation thresholds observed to work for the cone display. The boolean
// threshold gates a raw per-pixel probability; the confidence threshold is
// lower because it is applied after a Gaussian blur spreads mass outward.
// Both are configuration, not constants baked into call sites.
const (
	DefaultBoolThreshold       = 0.5
	DefaultConfidenceThreshold = 0.35
	DefaultBlurSigma           = 1.5
	DefaultClosingRadius       = 2
)

// MaskOptions configures how a segmentation confidence map becomes a binary
// foreground mask.
type MaskOptions struct {
	// Threshold is the foreground cutoff in [0, 1].
	Threshold float64
	// BlurSigma smooths the confidence map before thresholding. Zero skips
	// the blur.
	BlurSigma float64
	// ClosingRadius is the half-size of the square structuring element used
	// for morphological closing after thresholding. Zero skips the closing.
	ClosingRadius int
}

// DefaultMaskOptions returns the blurred-confidence settings.
func DefaultMaskOptions() MaskOptions {
	return MaskOptions{
		Threshold:     DefaultConfidenceThreshold,
		BlurSigma:     DefaultBlurSigma,
		ClosingRadius: DefaultClosingRadius,
	}
}

// Mask is a binary foreground indicator supplied by an external segmentation
// capability. A nil *Mask means "no background removal".
type Mask struct {
	gray *image.Gray
}

// NewMask derives a boolean mask from per-pixel membership probabilities
// (0..255 mapped to 0..1) at the boolean threshold.
func NewMask(prob *image.Gray) *Mask {
	return threshold(prob, DefaultBoolThreshold)
}

// MaskFromConfidence derives a mask from a continuous confidence map:
// Gaussian blur, threshold, then morphological closing to seal pinholes.
func MaskFromConfidence(conf *image.Gray, opts MaskOptions) *Mask {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultConfidenceThreshold
	}
	src := conf
	if opts.BlurSigma > 0 {
		blurred := imaging.Blur(conf, opts.BlurSigma)
		src = image.NewGray(blurred.Rect)
		for y := 0; y < blurred.Rect.Dy(); y++ {
			for x := 0; x < blurred.Rect.Dx(); x++ {
				src.Pix[y*src.Stride+x] = blurred.Pix[y*blurred.Stride+x*4]
			}
		}
	}
	m := threshold(src, opts.Threshold)
	if opts.ClosingRadius > 0 {
		m.gray = erode(dilate(m.gray, opts.ClosingRadius), opts.ClosingRadius)
	}
	return m
}

func threshold(src *image.Gray, cutoff float64) *Mask {
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	// v/255 >= cutoff is foreground, so a pixel on the exact boundary
	// (128 for cutoff 0.5) counts as subject.
	limit := cutoff * 255
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if float64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y) >= limit {
				out.Pix[y*out.Stride+x] = 0xff
			}
		}
	}
	return &Mask{gray: out}
}

func dilate(src *image.Gray, radius int) *image.Gray {
	return morph(src, radius, true)
}

func erode(src *image.Gray, radius int) *image.Gray {
	return morph(src, radius, false)
}

func morph(src *image.Gray, radius int, grow bool) *image.Gray {
	w := src.Rect.Dx()
	h := src.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	parallel(0, h, func(ys <-chan int) {
		for y := range ys {
			for x := 0; x < w; x++ {
				hit := !grow
				for dy := -radius; dy <= radius && hit != grow; dy++ {
					yy := y + dy
					if yy < 0 || yy >= h {
						continue
					}
					for dx := -radius; dx <= radius; dx++ {
						xx := x + dx
						if xx < 0 || xx >= w {
							continue
						}
						on := src.Pix[yy*src.Stride+xx] != 0
						if grow && on {
							hit = true
							break
						}
						if !grow && !on {
							hit = false
							break
						}
					}
				}
				if hit {
					out.Pix[y*out.Stride+x] = 0xff
				}
			}
		}
	})
	return out
}

// Apply zeroes every pixel the mask marks as background and returns the
// gated frame. A mask whose size differs from the frame is resized first.
func (m *Mask) Apply(frame *image.NRGBA) *image.NRGBA {
	w := frame.Rect.Dx()
	h := frame.Rect.Dy()
	gray := m.gray
	if gray.Rect.Dx() != w || gray.Rect.Dy() != h {
		resized := imaging.Resize(gray, w, h, imaging.NearestNeighbor)
		gray = image.NewGray(resized.Rect)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				gray.Pix[y*gray.Stride+x] = resized.Pix[y*resized.Stride+x*4]
			}
		}
	}

	out := imaging.Clone(frame)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if gray.Pix[y*gray.Stride+x] == 0 {
				i := y*out.Stride + x*4
				d := out.Pix[i : i+4 : i+4]
				d[0], d[1], d[2], d[3] = 0, 0, 0, 0xff
			}
		}
	}
	return out
}
