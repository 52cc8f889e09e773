package conewarp

import (
	"image"
	"sync"
	"testing"
)

func TestFrameCellLatestWins(t *testing.T) {
	var cell FrameCell
	if frame, seq := cell.Load(); frame != nil || seq != 0 {
		t.Fatal("empty cell should return nil frame and zero sequence")
	}

	first := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	second := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	cell.Store(first)
	cell.Store(second)

	frame, seq := cell.Load()
	if frame != second {
		t.Fatal("cell did not keep the latest frame")
	}
	if seq != 2 {
		t.Fatalf("sequence is %d, want 2", seq)
	}
}

func TestFrameCellConcurrent(t *testing.T) {
	var cell FrameCell
	frame := image.NewNRGBA(image.Rect(0, 0, 2, 2))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cell.Store(frame)
				cell.Load()
			}
		}()
	}
	wg.Wait()

	if _, seq := cell.Load(); seq != 800 {
		t.Fatalf("sequence is %d, want 800", seq)
	}
}
