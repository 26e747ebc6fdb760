package resource

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"

	"github.com/dirarc/director/container"
	"github.com/dirarc/director/reader"
)

// PreloadMode is a cast library's preload policy.
type PreloadMode uint16

// Preload policies, in their on-disk encoding.
const (
	PreloadNever PreloadMode = iota
	PreloadWhenNeeded
	PreloadBeforeFrame1
	PreloadAfterFrame1
)

// CastListEntry is one linked cast library referenced by the movie.
type CastListEntry struct {
	Name    string
	Path    string
	Preload PreloadMode
}

// CastList is the parsed MCsL chunk (or a single-entry stand-in
// synthesized by the Cast Manager when MCsL is absent).
type CastList struct {
	Entries []CastListEntry
}

// ParseCastList locates the MCsL chunk and parses it per §4.4. Entries
// named "Internal" are elided, matching the authoring tool's own
// convention of not listing the movie's own built-in cast library
// alongside its externally linked ones.
func ParseCastList(c *container.Container) (*CastList, error) {
	id, ok := findChunkByTag(c, "MCsL")
	if !ok {
		return nil, ErrCastListNotFound
	}
	data, ok := c.GetChunk(id)
	if !ok {
		return nil, ErrCastListNotFound
	}

	order := c.Order()
	r := reader.NewBuffer(data, order)
	dataOffset, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(2); err != nil {
		return nil, err
	}
	castCount, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	itemsPerCast, err := r.ReadU16()
	if err != nil {
		return nil, err
	}

	if err := r.Seek(int64(dataOffset)); err != nil {
		return nil, err
	}
	offsetTableLen, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	offsets := make([]uint32, offsetTableLen)
	for i := range offsets {
		v, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		offsets[i] = v
	}
	itemsLength, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	itemsBlob, err := r.ReadBytes(int(itemsLength))
	if err != nil {
		return nil, err
	}

	getItem := func(k int) []byte {
		if k < 0 || k >= len(offsets) {
			return nil
		}
		start := offsets[k]
		end := itemsLength
		if k+1 < len(offsets) {
			end = offsets[k+1]
		}
		if start > end || end > uint32(len(itemsBlob)) {
			return nil
		}
		return itemsBlob[start:end]
	}

	list := &CastList{}
	for i := 0; i < int(castCount); i++ {
		base := i * int(itemsPerCast)
		name := decodeCastListItem(getItem(base + 1))
		if name == "Internal" {
			continue
		}
		path := decodeCastListItem(getItem(base + 2))
		preload := PreloadNever
		if raw := getItem(base + 3); len(raw) >= 2 {
			preload = PreloadMode(order.Uint16(raw[:2]))
		}
		list.Entries = append(list.Entries, CastListEntry{
			Name:    name,
			Path:    path,
			Preload: preload,
		})
	}
	return list, nil
}

// decodeCastListItem decodes one item of the MCsL items blob: a Pascal
// string if the leading byte is a plausible length, else a UTF-16 string
// when the bytes show the little-endian zero-interleave a movie authored
// on Windows leaves in these item slots, else the whole item treated as
// NUL-stripped UTF-8.
func decodeCastListItem(item []byte) string {
	if len(item) == 0 {
		return ""
	}
	n := int(item[0])
	if n > 0 && n <= len(item)-1 {
		return string(item[1 : 1+n])
	}
	if s, ok := decodeUTF16LE(item); ok {
		return s
	}
	end := len(item)
	for end > 0 && item[end-1] == 0 {
		end--
	}
	return string(item[:end])
}

// decodeUTF16LE decodes b as little-endian UTF-16 when it looks like one:
// an even length of at least 4 bytes with a zero high byte on every other
// code unit (the BMP-ASCII-range tell the teacher's own DecodeUTF16String
// relies on via bytes.Index(b, []byte{0, 0})).
func decodeUTF16LE(b []byte) (string, bool) {
	if len(b) < 4 || len(b)%2 != 0 {
		return "", false
	}
	for i := 1; i < len(b); i += 2 {
		if b[i] != 0 {
			return "", false
		}
	}
	n := bytes.Index(b, []byte{0, 0})
	if n <= 0 {
		return "", false
	}
	if n%2 != 0 {
		n++ // land on a code-unit boundary
	}
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	s, err := decoder.Bytes(b[:n])
	if err != nil {
		return "", false
	}
	return string(s), true
}
