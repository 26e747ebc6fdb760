package resource

import (
	"encoding/binary"

	"github.com/dirarc/director/container"
	"github.com/dirarc/director/reader"
)

// Known key-table control words and their byte-swapped counterparts.
const (
	keyControlModern = 0x0114 // 20-byte header
	keyControlLegacyA = 0x000C // 12-byte header
	keyControlLegacyB = 0x0002 // 12-byte header
)

func swap16(v uint16) uint16 { return v<<8 | v>>8 }

func keyHeaderSize(control uint16) (int, bool) {
	switch control {
	case keyControlModern:
		return 20, true
	case keyControlLegacyA, keyControlLegacyB:
		return 12, true
	default:
		return 0, false
	}
}

// KeyTable is the (section_id, cast_id, tag) triple store from §4.4,
// indexed both forward (cast_id -> tag -> section_id) and in reverse
// (section_id -> cast_id).
type KeyTable struct {
	Forward map[uint32]map[string]uint32
	Reverse map[uint32]uint32
}

func newKeyTable() *KeyTable {
	return &KeyTable{
		Forward: make(map[uint32]map[string]uint32),
		Reverse: make(map[uint32]uint32),
	}
}

func (k *KeyTable) add(castID, sectionID uint32, tag string) {
	m, ok := k.Forward[castID]
	if !ok {
		m = make(map[string]uint32)
		k.Forward[castID] = m
	}
	m[tag] = sectionID
	k.Reverse[sectionID] = castID
}

// Section looks up the section id holding tag for a given cast member.
func (k *KeyTable) Section(castID uint32, tag string) (uint32, bool) {
	m, ok := k.Forward[castID]
	if !ok {
		return 0, false
	}
	sectionID, ok := m[tag]
	return sectionID, ok
}

// ParseKeyTable locates the KEY*/KEY  chunk and parses it, self-
// calibrating endianness against the control word exactly as specified
// in §4.4.
func ParseKeyTable(c *container.Container) (*KeyTable, error) {
	id, ok := findChunkByTag(c, "KEY*", "KEY ")
	if !ok {
		return nil, ErrKeyTableNotFound
	}
	data, ok := c.GetChunk(id)
	if !ok {
		return nil, ErrKeyTableNotFound
	}

	order, control, headerSize, err := calibrateKeyControl(data, c.Order())
	if err != nil {
		return nil, err
	}

	r := reader.NewBuffer(data, order)
	if headerSize == 20 {
		if err := r.Seek(12); err != nil {
			return nil, err
		}
	} else {
		if err := r.Seek(4); err != nil {
			return nil, err
		}
	}
	totalCount, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	usedCount, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	_ = control

	if totalCount == 0 {
		return newKeyTable(), nil
	}
	remaining := int64(len(data)) - int64(headerSize)
	entrySize := remaining / int64(totalCount)

	if err := r.Seek(int64(headerSize)); err != nil {
		return nil, err
	}
	kt := newKeyTable()
	for i := uint32(0); i < usedCount; i++ {
		switch entrySize {
		case 12:
			sectionID, err := r.ReadI32()
			if err != nil {
				return kt, nil
			}
			castID, err := r.ReadI32()
			if err != nil {
				return kt, nil
			}
			tag, err := r.ReadFourCC()
			if err != nil {
				return kt, nil
			}
			kt.add(uint32(castID), uint32(sectionID), container.NormalizeTag(tag))
		case 8:
			sectionID, err := r.ReadI32()
			if err != nil {
				return kt, nil
			}
			tag, err := r.ReadFourCC()
			if err != nil {
				return kt, nil
			}
			kt.add(i+1, uint32(sectionID), container.NormalizeTag(tag))
		default:
			return kt, nil
		}
	}
	return kt, nil
}

// calibrateKeyControl reads the control word and, if it matches neither
// a known value nor a byte-swap of one, toggles endianness and retries
// once, per §4.4.
func calibrateKeyControl(data []byte, order binary.ByteOrder) (binary.ByteOrder, uint16, int, error) {
	r := reader.NewBuffer(data, order)
	control, err := r.ReadU16()
	if err != nil {
		return nil, 0, 0, err
	}
	if size, ok := keyHeaderSize(control); ok {
		return order, control, size, nil
	}
	if size, ok := keyHeaderSize(swap16(control)); ok {
		return order, swap16(control), size, nil
	}

	toggled := binary.BigEndian
	if order == binary.BigEndian {
		toggled = binary.LittleEndian
	}
	r2 := reader.NewBuffer(data, toggled)
	control2, err := r2.ReadU16()
	if err != nil {
		return nil, 0, 0, err
	}
	if size, ok := keyHeaderSize(control2); ok {
		return toggled, control2, size, nil
	}
	if size, ok := keyHeaderSize(swap16(control2)); ok {
		return toggled, swap16(control2), size, nil
	}
	return nil, 0, 0, ErrBadKeyTableHeader
}
