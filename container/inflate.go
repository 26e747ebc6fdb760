package container

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// Inflater is the decompression primitive the Container's fallback ladder
// is built on. Swappable so callers can plug in instrumentation or an
// alternate codec without touching the ladder logic itself.
type Inflater interface {
	InflateRaw(data []byte) ([]byte, error)
	InflateZlib(data []byte) ([]byte, error)
}

// klauspostInflater is the default Inflater, built on the klauspost fork of
// compress/flate and compress/zlib rather than the standard library's,
// matching the codec already standardized on elsewhere in the pack.
type klauspostInflater struct{}

// NewInflater returns the default Inflater implementation.
func NewInflater() Inflater { return klauspostInflater{} }

func (klauspostInflater) InflateRaw(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	return io.ReadAll(r)
}

func (klauspostInflater) InflateZlib(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// looksLikeZlib reports whether the first two bytes match a zlib stream
// header (0x78 followed by one of the standard FLEVEL second bytes).
func looksLikeZlib(data []byte) bool {
	if len(data) < 2 || data[0] != 0x78 {
		return false
	}
	switch data[1] {
	case 0x9C, 0xDA, 0x01, 0x5E:
		return true
	default:
		return false
	}
}

// inflateLadder attempts, in order: raw inflate; zlib inflate after
// skipping four bytes; raw inflate after skipping four bytes; and as a
// last resort returns the compressed bytes verbatim. The first
// successful strategy wins.
func inflateLadder(inf Inflater, data []byte) []byte {
	if out, err := inf.InflateRaw(data); err == nil {
		return out
	}
	if len(data) > 4 {
		if out, err := inf.InflateZlib(data[4:]); err == nil {
			return out
		}
		if out, err := inf.InflateRaw(data[4:]); err == nil {
			return out
		}
	}
	return data
}
