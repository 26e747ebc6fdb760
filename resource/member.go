package resource

import (
	"bytes"
	"encoding/binary"

	"github.com/dirarc/director/reader"
)

// TypeID enumerates cast member content types, per §3.
type TypeID uint32

// Recognized member type ids.
const (
	TypeBitmap       TypeID = 1
	TypeFilmLoop     TypeID = 2
	TypeText         TypeID = 3
	TypePalette      TypeID = 4
	TypePicture      TypeID = 5
	TypeSound        TypeID = 6
	TypeButton       TypeID = 7
	TypeShape        TypeID = 8
	TypeMovie        TypeID = 9
	TypeDigitalVideo TypeID = 10
	TypeScript       TypeID = 11
	TypeRTE          TypeID = 12
	TypeField        TypeID = 13
	TypeTransition   TypeID = 14
	TypeXtra         TypeID = 15
	TypeFont         TypeID = 16
	TypeMesh         TypeID = 17
	TypeVectorShape  TypeID = 18
	TypeFlash        TypeID = 19
)

// typeNames names each recognized TypeID the way §3 spells it, for
// journal emission and filename construction.
var typeNames = map[TypeID]string{
	TypeBitmap:       "Bitmap",
	TypeFilmLoop:     "FilmLoop",
	TypeText:         "Text",
	TypePalette:      "Palette",
	TypePicture:      "Picture",
	TypeSound:        "Sound",
	TypeButton:       "Button",
	TypeShape:        "Shape",
	TypeMovie:        "Movie",
	TypeDigitalVideo: "DigitalVideo",
	TypeScript:       "Script",
	TypeRTE:          "RTE",
	TypeField:        "Field",
	TypeTransition:   "Transition",
	TypeXtra:         "Xtra",
	TypeFont:         "Font",
	TypeMesh:         "Mesh",
	TypeVectorShape:  "VectorShape",
	TypeFlash:        "Flash",
}

// String names t the way §3 spells it ("Bitmap", "Script", ...), or
// "Unknown" for an unrecognized type id.
func (t TypeID) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// shapeKind enumerates the Shape member's shape-type field.
type shapeKind int16

const (
	ShapeRect        shapeKind = 1
	ShapeRoundedRect shapeKind = 2
	ShapeOval        shapeKind = 3
	ShapeLine        shapeKind = 4
)

// Member is a cast member, populated across discovery, common-info, and
// type-spec parsing passes; see §3's lifecycle and property-merge
// discipline.
type Member struct {
	ID         uint32
	TypeID     TypeID
	Name       string
	Rect       reader.Rect
	RegPoint   reader.Point
	PaletteID  int32
	BitDepth   int16
	ScriptID   uint32
	ScriptType uint16
	Flags      uint32
	Checksum   uint32

	Comment  string
	Created  uint32
	Modified uint32

	// Bitmap
	Width, Height  int16
	IsColor        bool
	UpdateFlags    uint8
	PaletteCastLib int16

	// Shape
	ShapeType     int16
	Pattern       int16
	ForeColor     uint16
	BackColor     uint16
	LineSize      int16
	LineDirection int16

	// Sound
	SampleRate uint32
	Channels   uint16

	// Button
	ButtonType int16

	// Transition
	TransitionDuration  uint16
	TransitionChunkSize uint16
	TransitionType      uint16

	scriptSource string
}

// ScriptSource returns the script text carried in entry 0 of the
// common-info property table, for Script-type members.
func (m *Member) ScriptSource() string { return m.scriptSource }

// normalizePaletteID applies the legacy built-in-palette encoding: values
// at or below zero are decremented by one (0 -> -1, -1 -> -2, ...).
func normalizePaletteID(v int16) int32 {
	if v <= 0 {
		return int32(v) - 1
	}
	return int32(v)
}

// ParseCASt parses a CASt chunk's header plus its common-info and
// type-spec slices, per §4.4/§4.4.1/§4.4.2. The returned Member has no ID
// set; the caller (Cast Manager) assigns it from the key table.
func ParseCASt(data []byte, order binary.ByteOrder) (*Member, error) {
	r := reader.NewBuffer(data, order)
	typeID, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if typeID > 0xFFFF {
		order = toggleOrder(order)
		r = reader.NewBuffer(data, order)
		if typeID, err = r.ReadU32(); err != nil {
			return nil, err
		}
	}
	commonLen, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	typeSpecLen, err := r.ReadU32()
	if err != nil {
		return nil, err
	}

	commonData, err := r.ReadBytes(int(commonLen))
	if err != nil {
		commonData = nil
	}
	typeSpecData, err := r.ReadBytes(int(typeSpecLen))
	if err != nil {
		typeSpecData = nil
	}

	m := &Member{TypeID: TypeID(typeID)}
	if commonData != nil {
		info := parseCommonInfo(commonData, order)
		m.Name = info.Name
		m.Comment = info.Comment
		m.Created = info.Created
		m.Modified = info.Modified
		m.ScriptID = info.ScriptID
		m.Flags = info.Flags
		m.PaletteID = normalizePaletteID(info.PaletteID)
		m.BitDepth = info.BitDepth
		m.scriptSource = info.ScriptSource
	}
	if typeSpecData != nil {
		applyTypeSpec(m, TypeID(typeID), typeSpecData, order)
	}
	return m, nil
}

func toggleOrder(order binary.ByteOrder) binary.ByteOrder {
	if order == binary.BigEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// commonInfo is the decoded §4.4.1 common-info block.
type commonInfo struct {
	NameIndex    uint32
	Flags        uint32
	ScriptID     uint32
	Created      uint32
	Modified     uint32
	ScriptSource string
	Name         string
	Comment      string
	PaletteID    int16
	BitDepth     int16
}

func parseCommonInfo(data []byte, order binary.ByteOrder) commonInfo {
	var info commonInfo

	r := reader.NewBuffer(data, order)
	propOffset, err := r.ReadU32()
	if err != nil {
		return info
	}
	if err := r.Skip(4); err != nil { // reserved
		return info
	}
	if info.NameIndex, err = r.ReadU32(); err != nil {
		return info
	}
	if info.Flags, err = r.ReadU32(); err != nil {
		return info
	}
	if info.ScriptID, err = r.ReadU32(); err != nil {
		return info
	}
	if r.Pos()+8 <= r.Len() {
		info.Created, _ = r.ReadU32()
		info.Modified, _ = r.ReadU32()
	}

	pr := reader.NewBuffer(data, order)
	if err := pr.Seek(int64(propOffset)); err != nil {
		return info
	}
	entryCount, err := pr.ReadU16()
	if err != nil {
		return info
	}
	offsets := make([]uint32, entryCount)
	for i := range offsets {
		v, err := pr.ReadU32()
		if err != nil {
			return info
		}
		offsets[i] = v
	}
	itemsLength, err := pr.ReadU32()
	if err != nil {
		return info
	}
	items, err := pr.ReadBytes(int(itemsLength))
	if err != nil {
		return info
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
		if start > end || end > uint32(len(items)) {
			return nil
		}
		return items[start:end]
	}

	if raw := getItem(0); raw != nil {
		info.ScriptSource = string(bytes.TrimRight(raw, "\x00"))
	}
	if raw := getItem(1); raw != nil {
		info.Name = decodeCastListItem(raw)
	}
	if raw := getItem(4); raw != nil {
		info.Comment = string(bytes.TrimRight(raw, "\x00"))
	}
	if raw := getItem(5); len(raw) >= 2 {
		info.PaletteID = int16(order.Uint16(raw[:2]))
	}
	if raw := getItem(6); len(raw) >= 2 {
		info.BitDepth = int16(order.Uint16(raw[:2]))
	}
	return info
}

// applyTypeSpec dispatches on typeID and populates the type-dependent
// fields of m from the type-spec slice, per §4.4.2.
func applyTypeSpec(m *Member, typeID TypeID, data []byte, order binary.ByteOrder) {
	r := reader.NewBuffer(data, order)
	switch typeID {
	case TypeBitmap:
		pitchFlags, err := r.ReadU16()
		if err != nil {
			return
		}
		m.IsColor = pitchFlags&0x8000 != 0
		rect, err := r.ReadRect()
		if err != nil {
			return
		}
		m.Rect = rect
		pt, err := r.ReadPoint()
		if err != nil {
			return
		}
		m.RegPoint = pt
		if _, err := r.ReadU8(); err != nil { // update flags byte count varies; best effort
			return
		}
		bitDepth, err := r.ReadU8()
		if err != nil {
			return
		}
		m.BitDepth = int16(bitDepth)
		paletteCastLib, err := r.ReadI16()
		if err != nil {
			return
		}
		m.PaletteCastLib = paletteCastLib
		paletteID, err := r.ReadI16()
		if err != nil {
			return
		}
		m.PaletteID = normalizePaletteID(paletteID)
		m.Width = rect.Width()
		m.Height = rect.Height()

	case TypeShape:
		if _, err := r.ReadU16(); err != nil { // flags
			return
		}
		rect, err := r.ReadRect()
		if err != nil {
			return
		}
		m.Rect = rect
		shapeType, err := r.ReadI16()
		if err != nil {
			return
		}
		m.ShapeType = shapeType
		pattern, err := r.ReadI16()
		if err != nil {
			return
		}
		m.Pattern = pattern
		fore, err := r.ReadU16()
		if err != nil {
			return
		}
		m.ForeColor = fore
		back, err := r.ReadU16()
		if err != nil {
			return
		}
		m.BackColor = back
		lineSize, err := r.ReadI16()
		if err != nil {
			return
		}
		m.LineSize = lineSize
		lineDir, err := r.ReadI16()
		if err != nil {
			return
		}
		m.LineDirection = lineDir

	case TypeSound:
		flags, err := r.ReadU16()
		if err != nil {
			return
		}
		m.Flags = uint32(flags)
		sampleRate, err := r.ReadU32()
		if err != nil {
			return
		}
		m.SampleRate = sampleRate
		bitDepth, err := r.ReadU16()
		if err != nil {
			return
		}
		m.BitDepth = int16(bitDepth)
		channels, err := r.ReadU16()
		if err != nil {
			return
		}
		m.Channels = channels

	case TypeScript:
		scriptType, err := r.ReadU16()
		if err != nil {
			return
		}
		m.ScriptType = scriptType

	case TypeText, TypeField:
		rect, err := r.ReadRect()
		if err != nil {
			return
		}
		m.Rect = rect

	case TypeButton:
		flags, err := r.ReadU16()
		if err != nil {
			return
		}
		m.Flags = uint32(flags)
		rect, err := r.ReadRect()
		if err != nil {
			return
		}
		m.Rect = rect
		buttonType, err := r.ReadI16()
		if err != nil {
			return
		}
		m.ButtonType = buttonType

	case TypeTransition:
		flags, err := r.ReadU16()
		if err != nil {
			return
		}
		m.Flags = uint32(flags)
		duration, err := r.ReadU16()
		if err != nil {
			return
		}
		m.TransitionDuration = duration
		chunkSize, err := r.ReadU16()
		if err != nil {
			return
		}
		m.TransitionChunkSize = chunkSize
		transType, err := r.ReadU16()
		if err != nil {
			return
		}
		m.TransitionType = transType

	case TypeFilmLoop:
		flags, err := r.ReadU16()
		if err != nil {
			return
		}
		m.Flags = uint32(flags)
		rect, err := r.ReadRect()
		if err != nil {
			return
		}
		m.Rect = rect

	case TypeXtra, TypeMovie, TypePalette:
		flags, err := r.ReadU16()
		if err != nil {
			return
		}
		m.Flags = uint32(flags)
	}
}
