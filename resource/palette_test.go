package resource

import "testing"

func TestDecodePaletteEntriesSixBytes(t *testing.T) {
	raw := []byte{
		0xFF, 0x00, 0x80, 0x00, 0x40, 0x00,
		0x10, 0x00, 0x20, 0x00, 0x30, 0x00,
	}
	entries := DecodePaletteEntries(raw)
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0] != (PaletteEntry{R: 0xFF, G: 0x80, B: 0x40}) {
		t.Fatalf("entries[0] = %+v", entries[0])
	}
	if entries[1] != (PaletteEntry{R: 0x10, G: 0x20, B: 0x30}) {
		t.Fatalf("entries[1] = %+v", entries[1])
	}
}

func TestDecodePaletteEntriesCapAt256(t *testing.T) {
	raw := make([]byte, 6*300)
	entries := DecodePaletteEntries(raw)
	if len(entries) != 256 {
		t.Fatalf("len(entries) = %d, want 256 (capped)", len(entries))
	}
}

func TestDecodePaletteEntriesThreeByteFallback(t *testing.T) {
	// 5 bytes doesn't divide evenly by 6, so the ladder falls to the
	// 3-bytes-per-entry rung.
	raw := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	entries := DecodePaletteEntries(raw)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0] != (PaletteEntry{R: 0x01, G: 0x02, B: 0x03}) {
		t.Fatalf("entries[0] = %+v", entries[0])
	}
}

func TestDecodePaletteEntriesEmpty(t *testing.T) {
	if entries := DecodePaletteEntries(nil); entries != nil {
		t.Fatalf("entries = %v, want nil", entries)
	}
}
