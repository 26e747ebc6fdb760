package extract

import (
	"encoding/json"
	"hash/crc32"
	"sort"

	"github.com/dirarc/director/resource"
)

// MemberRecord is one members.json entry, per §6's artifact table. Json
// field names match the spec's own casing.
type MemberRecord struct {
	ID         uint32 `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Width      int16  `json:"width,omitempty"`
	Height     int16  `json:"height,omitempty"`
	Rect       [4]int16 `json:"rect"`
	RegPoint   [2]int16 `json:"regPoint"`
	ScriptID   uint32 `json:"scriptId,omitempty"`
	PaletteID  int32  `json:"paletteId"`
	BitDepth   int16  `json:"bitDepth,omitempty"`
	Created    uint32 `json:"created,omitempty"`
	Modified   uint32 `json:"modified,omitempty"`
	Flags      uint32 `json:"flags,omitempty"`
	Format     string `json:"format,omitempty"`
	Checksum   uint32 `json:"checksum"`
	Comment    string `json:"comment,omitempty"`
}

// BuildMemberRecords turns mgr's resolved members plus Run's Report into
// the members.json payload, in ascending id order.
func BuildMemberRecords(mgr *resource.Manager, report *Report) []MemberRecord {
	members := mgr.Members()
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })

	out := make([]MemberRecord, 0, len(members))
	for _, m := range members {
		rec := MemberRecord{
			ID:        m.ID,
			Name:      m.Name,
			Type:      m.TypeID.String(),
			Width:     m.Width,
			Height:    m.Height,
			Rect:      [4]int16{m.Rect.Top, m.Rect.Left, m.Rect.Bottom, m.Rect.Right},
			RegPoint:  [2]int16{m.RegPoint.Y, m.RegPoint.X},
			ScriptID:  m.ScriptID,
			PaletteID: m.PaletteID,
			BitDepth:  m.BitDepth,
			Created:   m.Created,
			Modified:  m.Modified,
			Flags:     m.Flags,
			Comment:   m.Comment,
		}
		if raw, _, ok := mgr.ContentChunk(m); ok {
			rec.Checksum = crc32.ChecksumIEEE(raw)
		}
		if asset, ok := report.Assets[m.ID]; ok {
			rec.Format = asset.Format
			if asset.Width != 0 {
				rec.Width = int16(asset.Width)
			}
			if asset.Height != 0 {
				rec.Height = int16(asset.Height)
			}
		}
		out = append(out, rec)
	}
	return out
}

// MovieConfigRecord is the movie.json payload: the §4.4 movie
// configuration fields, verbatim.
type MovieConfigRecord struct {
	FileVersion     uint16 `json:"fileVersion"`
	Stage           [4]int16 `json:"stage"`
	MinMember       int16  `json:"minMember"`
	MaxMember       int16  `json:"maxMember"`
	DirectorVersion uint16 `json:"directorVersion"`
	PaletteIndex    int16  `json:"paletteIndex,omitempty"`
	R               uint16 `json:"r,omitempty"`
	G               uint16 `json:"g,omitempty"`
	B               uint16 `json:"b,omitempty"`
	BitDepth        uint16 `json:"bitDepth"`
	FrameRate       uint16 `json:"frameRate"`
	PlatformID      int16  `json:"platformId"`
	Protected       bool   `json:"protected"`
}

// BuildMovieConfigRecord converts mgr's parsed MovieConfig to its JSON
// shape.
func BuildMovieConfigRecord(mgr *resource.Manager) MovieConfigRecord {
	cfg := mgr.MovieConfig()
	return MovieConfigRecord{
		FileVersion:     cfg.FileVersion,
		Stage:           [4]int16{cfg.Stage.Top, cfg.Stage.Left, cfg.Stage.Bottom, cfg.Stage.Right},
		MinMember:       cfg.MinMember,
		MaxMember:       cfg.MaxMember,
		DirectorVersion: cfg.DirectorVersion,
		PaletteIndex:    cfg.StageColor.PaletteIndex,
		R:               cfg.StageColor.R,
		G:               cfg.StageColor.G,
		B:               cfg.StageColor.B,
		BitDepth:        cfg.BitDepth,
		FrameRate:       cfg.FrameRate,
		PlatformID:      cfg.PlatformID,
		Protected:       cfg.Protected,
	}
}

// CastLibRecord is one castlibs.json entry.
type CastLibRecord struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	PreloadMode string `json:"preloadMode"`
	Checksum    uint32 `json:"checksum"`
}

var preloadNames = map[resource.PreloadMode]string{
	resource.PreloadNever:        "Never",
	resource.PreloadWhenNeeded:   "WhenNeeded",
	resource.PreloadBeforeFrame1: "BeforeFrame1",
	resource.PreloadAfterFrame1:  "AfterFrame1",
}

// BuildCastLibRecords converts mgr's CastList to its JSON shape. Each
// entry's checksum is computed over its name+path identity, the same
// collision-tolerant crc32.ChecksumIEEE the member journal uses over
// content bytes — linked cast libraries carry no content bytes of their
// own in this container, only a name/path reference, so that reference
// is what gets checksummed.
func BuildCastLibRecords(mgr *resource.Manager) []CastLibRecord {
	list := mgr.CastList()
	out := make([]CastLibRecord, 0, len(list.Entries))
	for i, e := range list.Entries {
		mode, ok := preloadNames[e.Preload]
		if !ok {
			mode = "Never"
		}
		out = append(out, CastLibRecord{
			Index:       i,
			Name:        e.Name,
			Path:        e.Path,
			PreloadMode: mode,
			Checksum:    crc32.ChecksumIEEE([]byte(e.Name + "\x00" + e.Path)),
		})
	}
	return out
}

// TimelineMarker is one named frame marker.
type TimelineMarker struct {
	Frame int    `json:"frame"`
	Name  string `json:"name"`
}

// ScoreChunkRef identifies the score chunk a timeline was (best-effort)
// derived from.
type ScoreChunkRef struct {
	ID   uint32 `json:"id"`
	Type string `json:"type"`
	Size int    `json:"size"`
}

// TimelineRecord is the timeline.json payload. FilmLoop/score internal
// structure is best-effort per §9's open question; FrameCount is
// populated only when the score chunk is at least 20 bytes long, and
// Markers is always empty.
type TimelineRecord struct {
	FrameCount int              `json:"frameCount"`
	Markers    []TimelineMarker `json:"markers"`
	ScoreChunk *ScoreChunkRef   `json:"scoreChunk,omitempty"`
}

// BuildTimelineRecord locates the VWSC/SCORE chunk, if any, and extracts
// what can be read without guessing at the score's internal layout: its
// identity (for ScoreChunk) and, when the header is at least 20 bytes,
// a leading frame count. Markers are left empty — the marker subtable's
// offset is not specified anywhere retrievable for this spec, and
// guessing at it risks fabricating data, which the best-effort
// carve-out in §9 explicitly warns against.
func BuildTimelineRecord(mgr *resource.Manager) TimelineRecord {
	rec := TimelineRecord{Markers: []TimelineMarker{}}

	var id uint32
	var tag string
	found := false
	for candidateID, candidateTag := range mgr.Chunks() {
		if candidateTag == "VWSC" || candidateTag == "SCORE" {
			if !found || candidateID < id {
				id, tag, found = candidateID, candidateTag, true
			}
		}
	}
	if !found {
		return rec
	}

	data, ok := mgr.ChunkData(id)
	if !ok {
		return rec
	}
	rec.ScoreChunk = &ScoreChunkRef{ID: id, Type: tag, Size: len(data)}

	if len(data) >= 20 {
		rec.FrameCount = int(mgr.Order().Uint32(data[16:20]))
	}
	return rec
}

// Marshal is a small json.MarshalIndent wrapper matching the other
// journal artifacts' two-space indentation, shared by cmd/dirdump and
// tests.
func Marshal(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
