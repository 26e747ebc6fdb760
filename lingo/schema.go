package lingo

import "encoding/binary"

// segments locates the four segments of interest within a script chunk:
// property declarations, handler records, literal offsets, literal data.
type segments struct {
	legacy    bool
	headerLen uint16
	prop      []byte
	hand      []byte
	lit       []byte
	ltd       []byte
	scriptTy  uint16
}

const legacyHeaderLength = 92

// legacyFieldOffsets are the four fixed absolute positions §4.7 names for
// the legacy schema's segment offset fields. Each is read as a u32
// pointer into the chunk; the field width itself is not stated in any
// retrievable source, so a 4-byte pointer is this package's own concrete
// choice, made for internal consistency with
// the modern schema's own u32 segment offsets.
var legacyFieldOffsets = struct{ prop, hand, lit, ltd int }{60, 72, 78, 84}

// detectSchema skips the common 16-byte prologue, reads the u16 header
// length at offset 16 and the u16 script type at offset 18, and
// dispatches to the legacy or modern segment table, per §4.7.
func detectSchema(data []byte, order binary.ByteOrder, scriptTypeHint uint16) (segments, error) {
	if len(data) < 18 {
		return segments{}, ErrTruncatedScript
	}
	headerLen := order.Uint16(data[16:18])
	scriptType := scriptTypeHint
	if len(data) >= 20 {
		if st := order.Uint16(data[18:20]); st != 0 {
			scriptType = st
		}
	}

	if headerLen == legacyHeaderLength {
		return readLegacySegments(data, order, scriptType, headerLen)
	}
	return readModernSegments(data, order, scriptType, headerLen)
}

func readLegacySegments(data []byte, order binary.ByteOrder, scriptType, headerLen uint16) (segments, error) {
	get := func(fieldOffset int) []byte {
		if fieldOffset+4 > len(data) {
			return nil
		}
		off := int(order.Uint32(data[fieldOffset : fieldOffset+4]))
		return sliceFrom(data, off)
	}
	return segments{
		legacy:    true,
		headerLen: headerLen,
		prop:      get(legacyFieldOffsets.prop),
		hand:      get(legacyFieldOffsets.hand),
		lit:       get(legacyFieldOffsets.lit),
		ltd:       get(legacyFieldOffsets.ltd),
		scriptTy:  scriptType,
	}, nil
}

func readModernSegments(data []byte, order binary.ByteOrder, scriptType, headerLen uint16) (segments, error) {
	for _, tableStart := range []int{50, 52} {
		if s, ok := tryModernTagTable(data, order, tableStart, scriptType, headerLen); ok {
			return s, nil
		}
	}
	return segments{}, ErrNoSegmentTable
}

func tryModernTagTable(data []byte, order binary.ByteOrder, tableStart int, scriptType, headerLen uint16) (segments, bool) {
	if tableStart+2 > len(data) {
		return segments{}, false
	}
	count := order.Uint16(data[tableStart : tableStart+2])
	if count == 0 || count > 64 {
		return segments{}, false
	}
	pos := tableStart + 2
	s := segments{scriptTy: scriptType, headerLen: headerLen}
	found := 0
	for i := uint16(0); i < count; i++ {
		if pos+12 > len(data) {
			return segments{}, false
		}
		tag := string(data[pos : pos+4])
		off := int(order.Uint32(data[pos+4 : pos+8]))
		length := int(order.Uint32(data[pos+8 : pos+12]))
		switch tag {
		case "PROP":
			s.prop = sliceRange(data, off, length)
			found++
		case "HAND":
			s.hand = sliceRange(data, off, length)
			found++
		case "LIT ":
			s.lit = sliceRange(data, off, length)
			found++
		case "LTD ":
			s.ltd = sliceRange(data, off, length)
			found++
		}
		pos += 12
	}
	return s, found > 0
}

func sliceFrom(data []byte, off int) []byte {
	if off < 0 || off > len(data) {
		return nil
	}
	return data[off:]
}

func sliceRange(data []byte, off, length int) []byte {
	if off < 0 || length < 0 || off+length > len(data) {
		return nil
	}
	return data[off : off+length]
}
