package resource

import (
	"bytes"
	"testing"
)

func buildKeyTableChunk(t *testing.T, entries [][2]uint32, tags []string) []byte {
	t.Helper()
	if len(entries) != len(tags) {
		t.Fatal("entries/tags length mismatch")
	}
	var buf bytes.Buffer
	buf.Write(be16(keyControlModern))
	buf.Write(make([]byte, 10)) // pad to offset 12
	buf.Write(be32(uint32(len(entries))))
	buf.Write(be32(uint32(len(entries))))
	for i, e := range entries {
		buf.Write(be32(e[0])) // section id
		buf.Write(be32(e[1])) // cast id
		buf.WriteString(padTag(tags[i]))
	}
	return buf.Bytes()
}

func TestParseKeyTableModernHeader(t *testing.T) {
	chunk := buildKeyTableChunk(t, [][2]uint32{{10, 1}, {11, 1}}, []string{"CASt", "BITD"})
	c := buildContainer(t, []fixtureChunk{{tag: "KEY*", payload: chunk}})

	kt, err := ParseKeyTable(c)
	if err != nil {
		t.Fatalf("ParseKeyTable: %v", err)
	}
	section, ok := kt.Section(1, "CASt")
	if !ok || section != 10 {
		t.Fatalf("Section(1, CASt) = %d, %v; want 10, true", section, ok)
	}
	section, ok = kt.Section(1, "BITD")
	if !ok || section != 11 {
		t.Fatalf("Section(1, BITD) = %d, %v; want 11, true", section, ok)
	}
	if castID, ok := kt.Reverse[11]; !ok || castID != 1 {
		t.Fatalf("Reverse[11] = %d, %v; want 1, true", castID, ok)
	}
}

func TestParseKeyTableMissingChunk(t *testing.T) {
	c := buildContainer(t, []fixtureChunk{{tag: "free", payload: []byte("x")}})
	if _, err := ParseKeyTable(c); err != ErrKeyTableNotFound {
		t.Fatalf("err = %v, want ErrKeyTableNotFound", err)
	}
}

func TestParseKeyTableAliasedTag(t *testing.T) {
	// "*YEK" is the reversed alias for "KEY*".
	chunk := buildKeyTableChunk(t, [][2]uint32{{5, 1}}, []string{"CASt"})
	c := buildContainer(t, []fixtureChunk{{tag: "*YEK", payload: chunk}})

	kt, err := ParseKeyTable(c)
	if err != nil {
		t.Fatalf("ParseKeyTable: %v", err)
	}
	if _, ok := kt.Section(1, "CASt"); !ok {
		t.Fatal("expected entry to resolve through the aliased KEY* chunk")
	}
}

func TestKeyHeaderSize(t *testing.T) {
	if size, ok := keyHeaderSize(keyControlModern); !ok || size != 20 {
		t.Fatalf("modern header size = %d, %v; want 20, true", size, ok)
	}
	if size, ok := keyHeaderSize(keyControlLegacyA); !ok || size != 12 {
		t.Fatalf("legacy A header size = %d, %v; want 12, true", size, ok)
	}
	if size, ok := keyHeaderSize(keyControlLegacyB); !ok || size != 12 {
		t.Fatalf("legacy B header size = %d, %v; want 12, true", size, ok)
	}
	if _, ok := keyHeaderSize(0xFFFF); ok {
		t.Fatal("unrecognized control word should not resolve a header size")
	}
}
