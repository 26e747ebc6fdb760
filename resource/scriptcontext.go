package resource

import (
	"encoding/binary"

	"github.com/dirarc/director/container"
	"github.com/dirarc/director/reader"
)

// ScriptContextTable maps a logical script index (1-based) to the
// physical section id of its compiled-bytecode chunk.
type ScriptContextTable struct {
	entries map[uint32]uint32
}

// Section looks up the section id for a logical script index.
func (t *ScriptContextTable) Section(index uint32) (uint32, bool) {
	id, ok := t.entries[index]
	return id, ok
}

// Indexes returns every logical script index present, in no particular
// order.
func (t *ScriptContextTable) Indexes() []uint32 {
	out := make([]uint32, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k)
	}
	return out
}

// ParseScriptContextTables parses every LctX chunk in the container into
// a single combined table, per §4.4.
func ParseScriptContextTables(c *container.Container) *ScriptContextTable {
	table := &ScriptContextTable{entries: make(map[uint32]uint32)}
	for _, id := range findChunksByTag(c, "LctX") {
		data, ok := c.GetChunk(id)
		if !ok {
			continue
		}
		parseOneScriptContext(data, c.Order(), table)
	}
	return table
}

func parseOneScriptContext(data []byte, order binary.ByteOrder, table *ScriptContextTable) {
	entryCount, entriesOffset, order, err := calibrateScriptContextHeader(data, order)
	if err != nil {
		return
	}

	r := reader.NewBuffer(data, order)
	if err := r.Seek(int64(entriesOffset)); err != nil {
		return
	}
	for i := uint32(0); i < entryCount; i++ {
		if _, err := r.ReadI32(); err != nil { // unused
			return
		}
		sectionID, err := r.ReadI32()
		if err != nil {
			return
		}
		if _, err := r.ReadU16(); err != nil { // unused
			return
		}
		if _, err := r.ReadU16(); err != nil { // unused
			return
		}
		if sectionID > 0 {
			table.entries[i+1] = uint32(sectionID)
		}
	}
}

// calibrateScriptContextHeader reads the header (skip 8, u32 entry-count,
// u32 duplicate-count, u16 entries-offset), toggling endianness once if
// the entry count exceeds 0xFFFF.
func calibrateScriptContextHeader(data []byte, order binary.ByteOrder) (uint32, uint16, binary.ByteOrder, error) {
	read := func(o binary.ByteOrder) (uint32, uint16, error) {
		r := reader.NewBuffer(data, o)
		if err := r.Skip(8); err != nil {
			return 0, 0, err
		}
		entryCount, err := r.ReadU32()
		if err != nil {
			return 0, 0, err
		}
		if _, err := r.ReadU32(); err != nil { // duplicate count, unused
			return 0, 0, err
		}
		entriesOffset, err := r.ReadU16()
		if err != nil {
			return 0, 0, err
		}
		return entryCount, entriesOffset, nil
	}

	entryCount, entriesOffset, err := read(order)
	if err != nil {
		return 0, 0, order, err
	}
	if entryCount <= 0xFFFF {
		return entryCount, entriesOffset, order, nil
	}

	toggled := binary.BigEndian
	if order == binary.BigEndian {
		toggled = binary.LittleEndian
	}
	entryCount2, entriesOffset2, err := read(toggled)
	if err != nil {
		return entryCount, entriesOffset, order, nil
	}
	return entryCount2, entriesOffset2, toggled, nil
}
