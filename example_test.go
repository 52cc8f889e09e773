package conewarp_test

import (
	"fmt"
	"image"
	"image/color"

	conewarp "github.com/Rockonmichi/CEN3907C-Pepper-s-Cone"
)

func Example() {
	m, err := conewarp.BuildMap(conewarp.DefaultGeometry())
	if err != nil {
		panic(err)
	}
	pipe := conewarp.NewPipeline(m, conewarp.DefaultFrameSize, conewarp.DefaultGrading())

	frame := image.NewNRGBA(image.Rect(0, 0, 300, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 300; x++ {
			frame.SetNRGBA(x, y, color.NRGBA{0xc0, 0x80, 0x40, 0xff})
		}
	}

	out := pipe.Process(frame, nil)
	fmt.Println(out.Bounds().Dx(), out.Bounds().Dy())
	// Output: 600 600
}
