package conewarp

import (
	"fmt"
	"os"
)

// OpenMap loads and decodes a pre-authored warp map image. Malformed input
// (unreadable file, missing alpha channel) is reported to the caller before
// any frame processing can start; a broken map is never silently replaced
// with a default one.
func OpenMap(file string, frameSize int, opts ...DecodeOption) (*CoordinateMap, error) {
	img, err := Open(file)
	if err != nil {
		return nil, fmt.Errorf("open warp map %s: %w", file, err)
	}
	m, err := DecodeMap(img, frameSize, opts...)
	if err != nil {
		return nil, fmt.Errorf("decode warp map %s: %w", file, err)
	}
	return m, nil
}

// SaveMap writes the map as a fixed-point RGBA PNG that OpenMap reads back.
func SaveMap(file string, m *CoordinateMap, frameSize int) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(f, EncodeMap(m, frameSize), FormatOption{Format: PNG})
}
