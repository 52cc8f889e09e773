package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sunshineplan/utils/progressbar"
	"github.com/sunshineplan/utils/workers"
	"github.com/vharitonsky/iniflags"

	conewarp "github.com/Rockonmichi/CEN3907C-Pepper-s-Cone"
)

var (
	src          = flag.String("src", "", "")
	dst          = flag.String("dst", "output", "")
	force        = flag.Bool("force", false, "")
	format       = flag.String("format", "png", "")
	quality      = flag.Int("quality", 75, "")
	mapFile      = flag.String("map", "", "")
	flipMap      = flag.Bool("flip", true, "")
	maskDir      = flag.String("maskdir", "", "")
	confidence   = flag.Bool("confidence", false, "")
	frameSize    = flag.Int("frame-size", conewarp.DefaultFrameSize, "")
	canvasSize   = flag.Int("canvas-size", conewarp.DefaultCanvasSize, "")
	span         = flag.Float64("span", conewarp.DefaultSpanDeg, "")
	inner        = flag.Float64("inner", 0, "")
	outer        = flag.Float64("outer", 1, "")
	centerX      = flag.Float64("center-x", 0.5, "")
	centerY      = flag.Float64("center-y", 0.5, "")
	radius       = flag.Float64("radius", 1, "")
	subjectScale = flag.Float64("subject-scale", conewarp.DefaultSubjectScale, "")
	pyramid      = flag.Bool("pyramid", false, "")
	tilt         = flag.Float64("tilt", conewarp.DefaultPyramidTiltDeg, "")
	rotate       = flag.Float64("rotate", 0, "")
	aspectX      = flag.Float64("aspect-x", 1, "")
	aspectY      = flag.Float64("aspect-y", 1, "")
	saturation   = flag.Float64("saturation", 1.4, "")
	contrast     = flag.Float64("contrast", 1.8, "")
	beta         = flag.Float64("beta", -25, "")
	alpha        = flag.Float64("alpha", 1, "")
	power        = flag.Float64("power", 1, "")
	worker       = flag.Int("worker", 5, "")
	debug        = flag.Bool("debug", false, "")
)

var supported = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|tiff?|bmp|webp|pdf)$`)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
	fmt.Println(`
  --src
		source image or directory of frames
  --dst
		destination directory (default: output)
  --map
		pre-authored warp map image; empty builds the map procedurally
  --flip
		flip decoded map Y coordinates (default: true, only with --map)
  --maskdir
		directory of segmentation masks mirroring the source layout
  --confidence
		treat masks as blurred confidence maps instead of booleans
  --frame-size, --canvas-size
		working frame and output canvas sizes (default: 300, 600)
  --span, --inner, --outer, --center-x, --center-y, --radius
		cone geometry (degrees and fractions)
  --subject-scale
		subject shrink factor inside the working frame (default: 0.6)
  --pyramid
		lay out four mirrored views for a square pyramid reflector
		instead of warping onto the cone
  --tilt
		subject pre-tilt in degrees for the pyramid layout (default: -22)
  --rotate
		display rotation in degrees
  --aspect-x, --aspect-y
		display aspect compensation folded into rotation
  --saturation, --contrast, --beta, --alpha, --power
		grading parameters
  --format
		output format (jpg, jpeg, png, gif, tif, tiff and bmp, default: png)
  --quality
		jpeg quality (range 1-100, default: 75)
  --worker
		number of concurrent workers (default: 5)`)
}

func main() {
	self, err := os.Executable()
	if err != nil {
		log.Fatalf("Failed to get self path: %v", err)
	}

	flag.Usage = usage
	iniflags.SetConfigFile(filepath.Join(filepath.Dir(self), "config.ini"))
	iniflags.SetAllowMissingConfigFile(true)
	iniflags.Parse()

	f, err := os.OpenFile(filepath.Join(filepath.Dir(self), "conewarp.log"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer f.Close()
	log.SetOutput(io.MultiWriter(f, os.Stdout))

	outFormat, err := conewarp.FormatFromExtension(*format)
	if err != nil {
		log.Fatal(err)
	}
	option := conewarp.FormatOption{
		Format:       outFormat,
		EncodeOption: []conewarp.EncodeOption{conewarp.JPEGQuality(*quality)},
	}

	var pipe *conewarp.Pipeline
	if !*pyramid {
		if pipe, err = buildPipeline(); err != nil {
			log.Fatal(err)
		}
	}

	srcInfo, err := os.Stat(*src)
	if err != nil {
		log.Fatal(err)
	}
	if err := os.MkdirAll(*dst, 0755); err != nil {
		log.Fatal(err)
	}

	switch mode := srcInfo.Mode(); {
	case mode.IsDir():
		var images []string
		filepath.WalkDir(*src, func(path string, d fs.DirEntry, _ error) error {
			if d != nil && !d.IsDir() && supported.MatchString(d.Name()) {
				images = append(images, path)
			}
			return nil
		})
		log.Println("Total frames:", len(images))

		pb := progressbar.New(len(images))
		pb.Start()
		workers.New(*worker).Slice(images, func(_ int, i interface{}) {
			defer pb.Add(1)
			if err := warpOne(pipe, i.(string), option); err != nil {
				if !errors.Is(err, errSkip) {
					log.Println(i, err)
				}
			} else if *debug {
				log.Printf("[Debug]Warped %s\n", i.(string))
			}
		})
		pb.Done()

	case mode.IsRegular():
		if err := warpOne(pipe, *src, option); err != nil {
			log.Fatal(err)
		}

	default:
		log.Fatal("Unknown source.")
	}
	log.Print("Done.")
}

func buildPipeline() (*conewarp.Pipeline, error) {
	var m *conewarp.CoordinateMap
	var err error
	if *mapFile != "" {
		m, err = conewarp.OpenMap(*mapFile, *frameSize, conewarp.FlipY(*flipMap))
	} else {
		m, err = conewarp.BuildMap(conewarp.WarpGeometry{
			CanvasSize:          *canvasSize,
			FrameSize:           *frameSize,
			CenterX:             *centerX,
			CenterY:             *centerY,
			RadiusFraction:      *radius,
			AngularSpanDeg:      *span,
			InnerRadiusFraction: *inner,
			OuterRadiusFraction: *outer,
		})
	}
	if err != nil {
		return nil, err
	}

	grading := conewarp.Grading{
		SaturationScale: *saturation,
		ContrastAlpha:   *contrast,
		BrightnessBeta:  *beta,
		PowerExponent:   *power,
		BrightnessAlpha: *alpha,
		RotationDeg:     *rotate,
	}
	pipe := conewarp.NewPipeline(m, *frameSize, grading)
	pipe.SetSubjectScale(*subjectScale).SetAspectScale(*aspectX, *aspectY)
	return pipe, nil
}

var errSkip = errors.New("skip")

func warpOne(pipe *conewarp.Pipeline, input string, option conewarp.FormatOption) error {
	rel := filepath.Base(input)
	if r, err := filepath.Rel(*src, input); err == nil && r != "." && !strings.HasPrefix(r, "..") {
		rel = r
	}
	output := filepath.Join(*dst, strings.TrimSuffix(rel, filepath.Ext(rel))+"."+*format)

	if _, err := os.Stat(output); !errors.Is(err, fs.ErrNotExist) && !*force {
		return errSkip
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return err
	}

	frame, err := conewarp.Open(input)
	if err != nil {
		return err
	}

	var warped *image.NRGBA
	if *pyramid {
		warped = conewarp.PyramidComposite(frame, loadMask(rel), *frameSize, *tilt)
	} else {
		warped = pipe.Process(frame, loadMask(rel))
	}

	f, err := os.CreateTemp(filepath.Dir(output), "*.tmp")
	if err != nil {
		return err
	}
	if err := conewarp.Write(f, warped, option); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	f.Close()
	return os.Rename(f.Name(), output)
}

// loadMask finds the segmentation mask matching a source frame, if any.
// A missing or unreadable mask degrades to no background removal.
func loadMask(rel string) *conewarp.Mask {
	if *maskDir == "" {
		return nil
	}
	img, err := conewarp.Open(filepath.Join(*maskDir, rel))
	if err != nil {
		return nil
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		gray = toGray(img)
	}
	if *confidence {
		return conewarp.MaskFromConfidence(gray, conewarp.DefaultMaskOptions())
	}
	return conewarp.NewMask(gray)
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}
	return gray
}
