package conewarp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Recorded stream layout: a fixed header (magic, version, canvas size, fps)
// followed by length-prefixed zstd blocks, one raw NRGBA frame per block.
// This keeps recording out of any codec/muxer dependency; players that want
// a real video file transcode from this stream.
const (
	recordMagic   = "PCWS"
	recordVersion = 1
)

// ErrRecordFormat is returned when a stream does not start with a valid
// recording header.
var ErrRecordFormat = errors.New("not a cone warp recording")

type recordHeader struct {
	Magic   [4]byte
	Version uint8
	_       [3]byte
	Width   uint16
	Height  uint16
	FPS     uint16
}

// Recorder writes graded output frames to a stream. It does not own the
// underlying writer; Close flushes the recorder state only.
type Recorder struct {
	w      io.Writer
	enc    *zstd.Encoder
	width  int
	height int
	buf    []byte
}

// NewRecorder writes the stream header for width×height frames at the given
// nominal fps and returns a recorder for them.
func NewRecorder(w io.Writer, width, height, fps int) (*Recorder, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid recording size %dx%d", width, height)
	}
	hdr := recordHeader{
		Version: recordVersion,
		Width:   uint16(width),
		Height:  uint16(height),
		FPS:     uint16(fps),
	}
	copy(hdr.Magic[:], recordMagic)
	if err := binary.Write(w, binary.BigEndian, hdr); err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		return nil, err
	}
	return &Recorder{w: w, enc: enc, width: width, height: height}, nil
}

// WriteFrame appends one frame to the stream. The frame must match the
// recorded canvas size.
func (r *Recorder) WriteFrame(frame *image.NRGBA) error {
	if frame.Rect.Dx() != r.width || frame.Rect.Dy() != r.height {
		return fmt.Errorf("frame size %dx%d does not match recording %dx%d",
			frame.Rect.Dx(), frame.Rect.Dy(), r.width, r.height)
	}
	r.buf = r.enc.EncodeAll(frame.Pix, r.buf[:0])
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(r.buf)))
	if _, err := r.w.Write(n[:]); err != nil {
		return err
	}
	_, err := r.w.Write(r.buf)
	return err
}

// Close releases the encoder.
func (r *Recorder) Close() error {
	return r.enc.Close()
}

// Player reads back a recorded frame stream.
type Player struct {
	r      io.Reader
	dec    *zstd.Decoder
	width  int
	height int
	fps    int
}

// NewPlayer validates the stream header and returns a player for it.
func NewPlayer(r io.Reader) (*Player, error) {
	var hdr recordHeader
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, ErrRecordFormat
	}
	if string(hdr.Magic[:]) != recordMagic || hdr.Version != recordVersion {
		return nil, ErrRecordFormat
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return &Player{
		r:      r,
		dec:    dec,
		width:  int(hdr.Width),
		height: int(hdr.Height),
		fps:    int(hdr.FPS),
	}, nil
}

// Size returns the recorded canvas dimensions.
func (p *Player) Size() (width, height int) { return p.width, p.height }

// FPS returns the nominal frame rate the stream was recorded at.
func (p *Player) FPS() int { return p.fps }

// ReadFrame returns the next frame, or io.EOF at the end of the stream.
func (p *Player) ReadFrame() (*image.NRGBA, error) {
	var n [4]byte
	if _, err := io.ReadFull(p.r, n[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	block := make([]byte, binary.BigEndian.Uint32(n[:]))
	if _, err := io.ReadFull(p.r, block); err != nil {
		return nil, err
	}
	pix, err := p.dec.DecodeAll(block, nil)
	if err != nil {
		return nil, err
	}
	frame := image.NewNRGBA(image.Rect(0, 0, p.width, p.height))
	if len(pix) != len(frame.Pix) {
		return nil, fmt.Errorf("frame block has %d bytes, want %d", len(pix), len(frame.Pix))
	}
	copy(frame.Pix, pix)
	return frame, nil
}

// Close releases the decoder.
func (p *Player) Close() error {
	p.dec.Close()
	return nil
}
