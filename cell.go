package conewarp

import (
	"image"
	"sync"
)

// FrameCell is a single-slot, lock-protected "latest frame" cell decoupling a
// capture producer from the render/record consumer. Store overwrites; there
// is no queue and no backpressure, so a slow consumer simply drops stale
// frames. Each stored frame bumps a sequence number the consumer can use to
// skip work when nothing new arrived.
type FrameCell struct {
	mu    sync.Mutex
	frame *image.NRGBA
	seq   uint64
}

// Store publishes the latest captured frame, replacing any previous one.
func (c *FrameCell) Store(frame *image.NRGBA) {
	c.mu.Lock()
	c.frame = frame
	c.seq++
	c.mu.Unlock()
}

// Load returns the most recent frame and its sequence number. The frame is
// nil until the first Store.
func (c *FrameCell) Load() (*image.NRGBA, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame, c.seq
}
