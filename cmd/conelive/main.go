package main

import (
	"bufio"
	"flag"
	"fmt"
	"image"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/disintegration/imaging"
	"github.com/vharitonsky/iniflags"

	conewarp "github.com/Rockonmichi/CEN3907C-Pepper-s-Cone"
)

var (
	src        = flag.String("src", "", "")
	mapFile    = flag.String("map", "", "")
	flipMap    = flag.Bool("flip", true, "")
	frameSize  = flag.Int("frame-size", conewarp.DefaultFrameSize, "")
	canvasSize = flag.Int("canvas-size", conewarp.DefaultCanvasSize, "")
	span       = flag.Float64("span", conewarp.DefaultSpanDeg, "")
	inner      = flag.Float64("inner", 0, "")
	outer      = flag.Float64("outer", 1, "")
	scale      = flag.Float64("subject-scale", conewarp.DefaultSubjectScale, "")
	captureFPS = flag.Int("fps", 30, "")
	displayFPS = flag.Int("display-fps", 60, "")
	record     = flag.String("record", "", "")
)

var supported = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|tiff?|bmp|webp)$`)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
	fmt.Println(`
  --src
		source image or directory of frames, looped as a capture feed
  --map
		pre-authored warp map image; empty builds the map procedurally
  --span, --inner, --outer, --subject-scale
		cone geometry and subject shrink factor
  --fps, --display-fps
		capture and display cadences (default: 30, 60)
  --record
		write graded output frames to this file as a compressed stream

Runtime controls (one per line on stdin):
  r  rotate left 5°      t  rotate right 5°
  +  brightness up       -  brightness down
  ]  power up            [  power down
  q  quit`)
}

func main() {
	flag.Usage = usage
	iniflags.Parse()

	if *captureFPS < 1 || *displayFPS < 1 {
		log.Fatal("fps values must be positive")
	}

	frames, err := loadFrames(*src)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("Loaded frames:", len(frames))

	var m *conewarp.CoordinateMap
	if *mapFile != "" {
		m, err = conewarp.OpenMap(*mapFile, *frameSize, conewarp.FlipY(*flipMap))
	} else {
		g := conewarp.DefaultGeometry()
		g.FrameSize = *frameSize
		g.CanvasSize = *canvasSize
		g.AngularSpanDeg = *span
		g.InnerRadiusFraction = *inner
		g.OuterRadiusFraction = *outer
		m, err = conewarp.BuildMap(g)
	}
	if err != nil {
		log.Fatal(err)
	}
	pipe := conewarp.NewPipeline(m, *frameSize, conewarp.DefaultGrading())
	pipe.SetSubjectScale(*scale).SetAspectScale(conewarp.DisplayAspectX, conewarp.DisplayAspectY)

	var rec *conewarp.Recorder
	if *record != "" {
		f, err := os.Create(*record)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		if rec, err = conewarp.NewRecorder(f, *canvasSize, *canvasSize, *displayFPS); err != nil {
			log.Fatal(err)
		}
	}

	var cell conewarp.FrameCell
	stop := make(chan struct{})

	// Capture feed: loop the source frames into the cell at its own
	// cadence. The cell keeps only the latest frame.
	go func() {
		ticker := time.NewTicker(time.Second / time.Duration(*captureFPS))
		defer ticker.Stop()
		for i := 0; ; i = (i + 1) % len(frames) {
			select {
			case <-stop:
				return
			case <-ticker.C:
				cell.Store(frames[i])
			}
		}
	}()

	go readControls(pipe, stop)

	ticker := time.NewTicker(time.Second / time.Duration(*displayFPS))
	defer ticker.Stop()
	var lastSeq, shown uint64
	start := time.Now()
	for {
		select {
		case <-stop:
			if rec != nil {
				if err := rec.Close(); err != nil {
					log.Fatal(err)
				}
			}
			log.Printf("Done. %d frames in %s.", shown, time.Since(start).Round(time.Millisecond))
			return
		case <-ticker.C:
			frame, seq := cell.Load()
			if frame == nil || seq == lastSeq {
				continue
			}
			lastSeq = seq
			out := pipe.Process(frame, nil)
			if rec != nil {
				if err := rec.WriteFrame(out); err != nil {
					log.Fatal(err)
				}
			}
			shown++
			if shown%uint64(*displayFPS) == 0 {
				g := pipe.Grading()
				log.Printf("%d frames, rotation %.0f°, alpha %.1f, power %.1f",
					shown, g.RotationDeg, g.BrightnessAlpha, g.PowerExponent)
			}
		}
	}
}

func readControls(pipe *conewarp.Pipeline, stop chan struct{}) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		switch line[0] {
		case 'r':
			pipe.RotateLeft()
		case 't':
			pipe.RotateRight()
		case '+', '=':
			pipe.BrightnessUp()
		case '-':
			pipe.BrightnessDown()
		case ']':
			pipe.PowerUp()
		case '[':
			pipe.PowerDown()
		case 'q':
			close(stop)
			return
		}
	}
	close(stop)
}

func loadFrames(src string) ([]*image.NRGBA, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, err
	}

	var paths []string
	if info.IsDir() {
		filepath.WalkDir(src, func(path string, d fs.DirEntry, _ error) error {
			if d != nil && !d.IsDir() && supported.MatchString(d.Name()) {
				paths = append(paths, path)
			}
			return nil
		})
		sort.Strings(paths)
	} else {
		paths = []string{src}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no frames found in %s", src)
	}

	var frames []*image.NRGBA
	for _, path := range paths {
		img, err := conewarp.Open(path)
		if err != nil {
			return nil, err
		}
		frames = append(frames, imaging.Clone(img))
	}
	return frames, nil
}
