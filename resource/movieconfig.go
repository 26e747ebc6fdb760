package resource

import (
	"github.com/dirarc/director/container"
	"github.com/dirarc/director/reader"
)

// Platform ids carried in the movie configuration chunk.
const (
	PlatformMac     = -1
	PlatformWindows = 1024
)

// StageColor is either a palette index (movies authored before Director
// 7.0) or an explicit RGB triple (7.0 and later).
type StageColor struct {
	PaletteIndex int16
	R, G, B      uint16
}

// MovieConfig is the parsed DRCF/VWCF chunk.
type MovieConfig struct {
	FileVersion     uint16
	Stage           reader.Rect
	MinMember       int16
	MaxMember       int16
	DirectorVersion uint16
	StageColor      StageColor
	BitDepth        uint16
	FrameRate       uint16
	PlatformID      int16
	Protected       bool
}

// ParseMovieConfig locates the DRCF/VWCF chunk and parses it per §4.4.
func ParseMovieConfig(c *container.Container) (*MovieConfig, error) {
	id, ok := findChunkByTag(c, "DRCF", "VWCF")
	if !ok {
		return nil, ErrMovieConfigNotFound
	}
	data, ok := c.GetChunk(id)
	if !ok {
		return nil, ErrMovieConfigNotFound
	}

	r := reader.NewBuffer(data, c.Order())
	if _, err := r.ReadU16(); err != nil { // header length, unused
		return nil, err
	}
	cfg := &MovieConfig{}
	var err error
	if cfg.FileVersion, err = r.ReadU16(); err != nil {
		return nil, err
	}
	if cfg.Stage, err = r.ReadRect(); err != nil {
		return nil, err
	}
	if cfg.MinMember, err = r.ReadI16(); err != nil {
		return nil, err
	}
	if cfg.MaxMember, err = r.ReadI16(); err != nil {
		return nil, err
	}
	if cfg.DirectorVersion, err = r.ReadU16(); err != nil {
		return nil, err
	}

	if cfg.DirectorVersion < 700 {
		if cfg.StageColor.PaletteIndex, err = r.ReadI16(); err != nil {
			return nil, err
		}
		if err := r.Skip(4); err != nil { // unused G/B slots for this era
			return nil, err
		}
	} else {
		if cfg.StageColor.R, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if cfg.StageColor.G, err = r.ReadU16(); err != nil {
			return nil, err
		}
		if cfg.StageColor.B, err = r.ReadU16(); err != nil {
			return nil, err
		}
	}

	if cfg.BitDepth, err = r.ReadU16(); err != nil {
		return nil, err
	}
	if cfg.FrameRate, err = r.ReadU16(); err != nil {
		return nil, err
	}
	if cfg.PlatformID, err = r.ReadI16(); err != nil {
		return nil, err
	}
	protectionSource, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	cfg.Protected = protectionSource%23 == 0

	return cfg, nil
}
