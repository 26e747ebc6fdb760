package lingo

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func parseUintTest(s string) uint32 {
	var v uint32
	for _, c := range s {
		if c < '0' || c > '9' {
			return v
		}
		v = v*10 + uint32(c-'0')
	}
	return v
}

// TestParseHandlersModernSchema builds one modern-stride HAND record plus
// its referenced code/arg/local regions and checks every field parseHandlers
// reads out of it, including that its code slice gets scanned into Ops.
func TestParseHandlersModernSchema(t *testing.T) {
	hand := make([]byte, 40)
	binary.BigEndian.PutUint32(hand[0:4], 1) // handler count
	rec := hand[8:40]
	binary.BigEndian.PutUint32(rec[0:4], 7)   // name_id
	binary.BigEndian.PutUint32(rec[4:8], 0)   // handler_id
	binary.BigEndian.PutUint32(rec[8:12], 3)  // code_length
	binary.BigEndian.PutUint32(rec[12:16], 40) // code_offset
	binary.BigEndian.PutUint32(rec[16:20], 2) // arg_count
	binary.BigEndian.PutUint32(rec[20:24], 43) // arg_offset
	binary.BigEndian.PutUint32(rec[24:28], 1) // local_count
	binary.BigEndian.PutUint32(rec[28:32], 47) // local_offset

	scriptData := make([]byte, 49)
	copy(scriptData[0:40], hand)
	scriptData[40], scriptData[41], scriptData[42] = 0x01, 0x01, 0x01 // 3x ret
	binary.BigEndian.PutUint16(scriptData[43:45], 5)
	binary.BigEndian.PutUint16(scriptData[45:47], 9)
	binary.BigEndian.PutUint16(scriptData[47:49], 3)

	handlers := parseHandlers(hand, scriptData, false, 32, binary.BigEndian)
	if len(handlers) != 1 {
		t.Fatalf("got %d handlers, want 1", len(handlers))
	}
	h := handlers[0]
	if h.NameID != 7 {
		t.Errorf("NameID = %d, want 7", h.NameID)
	}
	if h.CodeLength != 3 {
		t.Errorf("CodeLength = %d, want 3", h.CodeLength)
	}
	if len(h.Ops) != 3 {
		t.Fatalf("got %d ops, want 3", len(h.Ops))
	}
	if diff := cmp.Diff([]string{"5", "9"}, h.Args); diff != "" {
		t.Errorf("Args mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"3"}, h.Locals); diff != "" {
		t.Errorf("Locals mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHandlerStrideLegacyDefault(t *testing.T) {
	hand := make([]byte, 8+legacyHandlerStride)
	if stride := parseHandlerStride(true, 0, hand, 1); stride != legacyHandlerStride {
		t.Errorf("stride = %d, want %d", stride, legacyHandlerStride)
	}
}

func TestParseHandlerStrideLegacyFallsBackWhenDefaultOverruns(t *testing.T) {
	hand := make([]byte, 68)
	if stride := parseHandlerStride(true, 0, hand, 2); stride != 34 {
		t.Errorf("stride = %d, want 34", stride)
	}
}

func TestParseHandlerStrideModernUsesHeaderLength(t *testing.T) {
	if stride := parseHandlerStride(false, 50, nil, 1); stride != 50 {
		t.Errorf("stride = %d, want 50", stride)
	}
}

func TestParseHandlerStrideModernFloorsAtRecordFields(t *testing.T) {
	if stride := parseHandlerStride(false, 10, nil, 1); stride != handlerRecordFields {
		t.Errorf("stride = %d, want %d", stride, handlerRecordFields)
	}
}

// TestResolveHandlerNamesFiltersMe covers §4.7's "me" filtering: an
// argument resolving to "me" is dropped from Args and MeInserted is set so
// reinsertMe can restore it at position zero for parent/behavior scripts.
func TestResolveHandlerNamesFiltersMe(t *testing.T) {
	pool := &fakePool{names: []string{"me", "foo", "bar", "baz"}}
	h := &Handler{NameID: 1, Args: []string{"0", "2"}, Locals: []string{"3"}}
	resolveHandlerNames(h, pool, shiftSet{handler: 0}, parseUintTest)

	if h.Name != "foo" {
		t.Errorf("Name = %q, want foo", h.Name)
	}
	if diff := cmp.Diff([]string{"bar"}, h.Args); diff != "" {
		t.Errorf("Args mismatch (-want +got):\n%s", diff)
	}
	if !h.MeInserted {
		t.Error("MeInserted = false, want true")
	}
	if diff := cmp.Diff([]string{"baz"}, h.Locals); diff != "" {
		t.Errorf("Locals mismatch (-want +got):\n%s", diff)
	}

	reinsertMe(h)
	if diff := cmp.Diff([]string{"me", "bar"}, h.Args); diff != "" {
		t.Errorf("Args after reinsertMe mismatch (-want +got):\n%s", diff)
	}
}

func TestReinsertMeNoOpWhenNotFiltered(t *testing.T) {
	h := &Handler{Args: []string{"a", "b"}}
	reinsertMe(h)
	if len(h.Args) != 2 || h.Args[0] != "a" {
		t.Errorf("Args = %v, want unchanged [a b]", h.Args)
	}
}

// TestPropertyNamesFiltersDenylist covers §4.7's curated denylist
// (pNoiseStripped, constant) alongside a name that should survive.
func TestPropertyNamesFiltersDenylist(t *testing.T) {
	pool := &fakePool{names: []string{"pValue", "pNoiseStripped", "constant"}}
	prop := make([]byte, 8)
	binary.BigEndian.PutUint16(prop[0:2], 3)
	binary.BigEndian.PutUint16(prop[2:4], 0)
	binary.BigEndian.PutUint16(prop[4:6], 1)
	binary.BigEndian.PutUint16(prop[6:8], 2)

	names := PropertyNames(prop, binary.BigEndian, pool, 0)
	if len(names) != 1 || names[0] != "pValue" {
		t.Errorf("names = %v, want [pValue]", names)
	}
}

func TestPropertyNamesEmptySegment(t *testing.T) {
	if names := PropertyNames(nil, binary.BigEndian, &fakePool{}, 0); names != nil {
		t.Errorf("names = %v, want nil", names)
	}
}
