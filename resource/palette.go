package resource

// PaletteEntry is one RGB triple in a decoded palette.
type PaletteEntry struct {
	R, G, B uint8
}

// DecodePaletteEntries implements the §4.5 palette-bytes strategy ladder:
// six bytes per entry (upper byte of each 16-bit channel, up to 256
// entries), three bytes per entry, or four bytes per entry. The first
// strategy that yields at least one entry wins. Exposed for reuse by any
// Encoder implementation, since every encoder needs the same ladder to
// turn a CLUT/Palt chunk's raw bytes into RGB triples.
func DecodePaletteEntries(raw []byte) []PaletteEntry {
	if entries := decodeSixBytesPerEntry(raw); len(entries) > 0 {
		return entries
	}
	if entries := decodeNBytesPerEntry(raw, 3); len(entries) > 0 {
		return entries
	}
	return decodeNBytesPerEntry(raw, 4)
}

func decodeSixBytesPerEntry(raw []byte) []PaletteEntry {
	const stride = 6
	n := len(raw) / stride
	if n == 0 {
		return nil
	}
	if n > 256 {
		n = 256
	}
	out := make([]PaletteEntry, 0, n)
	for i := 0; i < n; i++ {
		base := i * stride
		out = append(out, PaletteEntry{
			R: raw[base],
			G: raw[base+2],
			B: raw[base+4],
		})
	}
	return out
}

func decodeNBytesPerEntry(raw []byte, stride int) []PaletteEntry {
	n := len(raw) / stride
	if n == 0 {
		return nil
	}
	out := make([]PaletteEntry, 0, n)
	for i := 0; i < n; i++ {
		base := i * stride
		out = append(out, PaletteEntry{
			R: raw[base],
			G: raw[base+1],
			B: raw[base+2],
		})
	}
	return out
}
