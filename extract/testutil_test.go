package extract

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/dirarc/director/container"
)

// The fixture builders below mirror resource's own testutil_test.go
// (buildContainer et al.) closely, since both packages need the same
// minimal synthetic-RIFX shape; they're duplicated here rather than
// exported from resource because only resource's own _test.go files
// should construct chunk bytes by hand — this package exercises the
// public Manager surface those builders feed.

type fixtureChunk struct {
	tag     string
	payload []byte
}

func buildContainer(t *testing.T, chunks []fixtureChunk) *container.Container {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("RIFX")
	binary.Write(&buf, binary.BigEndian, uint32(0))
	buf.WriteString("MV93")

	const mmapEntrySize = 20
	const mmapHeaderSize = 20
	mmapPayloadLen := mmapHeaderSize + mmapEntrySize*len(chunks)
	mmapChunkTotal := 8 + mmapPayloadLen

	bodyStart := int64(12 + mmapChunkTotal)
	offsets := make([]int64, len(chunks))
	cursor := bodyStart
	for i, ch := range chunks {
		offsets[i] = cursor
		cursor += 8 + int64(len(ch.payload))
	}

	buf.WriteString("mmap")
	binary.Write(&buf, binary.BigEndian, uint32(mmapPayloadLen))
	binary.Write(&buf, binary.BigEndian, uint16(mmapHeaderSize))
	binary.Write(&buf, binary.BigEndian, uint16(mmapEntrySize))
	binary.Write(&buf, binary.BigEndian, uint32(len(chunks)))
	binary.Write(&buf, binary.BigEndian, uint32(len(chunks)))
	buf.Write(make([]byte, 8))

	for i, ch := range chunks {
		buf.WriteString(padTag(ch.tag))
		binary.Write(&buf, binary.BigEndian, uint32(len(ch.payload)))
		binary.Write(&buf, binary.BigEndian, int32(offsets[i]))
		buf.Write(make([]byte, 8))
	}

	if int64(buf.Len()) != bodyStart {
		t.Fatalf("fixture layout drifted: buf.Len()=%d, bodyStart=%d", buf.Len(), bodyStart)
	}

	for _, ch := range chunks {
		buf.WriteString(padTag(ch.tag))
		binary.Write(&buf, binary.BigEndian, uint32(len(ch.payload)))
		buf.Write(ch.payload)
	}

	c, err := container.OpenBytes(buf.Bytes(), container.Options{})
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func padTag(tag string) string {
	for len(tag) < 4 {
		tag += " "
	}
	return tag[:4]
}

func be16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func pascalString(s string) []byte {
	return append([]byte{byte(len(s))}, []byte(s)...)
}

func buildKeyTableChunk(t *testing.T, entries [][2]uint32, tags []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(be16(0x0114)) // modern control word, 20-byte header
	buf.Write(make([]byte, 10))
	buf.Write(be32(uint32(len(entries))))
	buf.Write(be32(uint32(len(entries))))
	for i, e := range entries {
		buf.Write(be32(e[0])) // section id
		buf.Write(be32(e[1])) // cast id
		buf.WriteString(padTag(tags[i]))
	}
	return buf.Bytes()
}

func buildCommonInfo(t *testing.T, name, comment string, paletteID, bitDepth int16) []byte {
	t.Helper()
	items := [][]byte{
		nil,                      // entry 0: script source
		pascalString(name),       // entry 1: name
		nil,                      // entry 2
		nil,                      // entry 3
		[]byte(comment + "\x00"), // entry 4: comment
		be16(uint16(paletteID)),  // entry 5: palette id
		be16(uint16(bitDepth)),   // entry 6: bit depth
	}
	var offsets []uint32
	var blob bytes.Buffer
	for _, item := range items {
		offsets = append(offsets, uint32(blob.Len()))
		blob.Write(item)
	}
	var props bytes.Buffer
	props.Write(be16(uint16(len(offsets))))
	for _, off := range offsets {
		props.Write(be32(off))
	}
	props.Write(be32(uint32(blob.Len())))
	props.Write(blob.Bytes())

	const fixedHeaderLen = 20
	var buf bytes.Buffer
	buf.Write(be32(fixedHeaderLen))
	buf.Write(make([]byte, 4))
	buf.Write(be32(0))
	buf.Write(be32(0))
	buf.Write(be32(0))
	buf.Write(props.Bytes())
	return buf.Bytes()
}

func buildBitmapTypeSpec(t *testing.T, top, left, bottom, right int16, bitDepth uint8, paletteID int16) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(be16(0))
	buf.Write(be16(uint16(top)))
	buf.Write(be16(uint16(left)))
	buf.Write(be16(uint16(bottom)))
	buf.Write(be16(uint16(right)))
	buf.Write(be16(0))
	buf.Write(be16(0))
	buf.WriteByte(0)
	buf.WriteByte(bitDepth)
	buf.Write(be16(0))
	buf.Write(be16(uint16(paletteID)))
	return buf.Bytes()
}

func buildCASt(t *testing.T, typeID int, common, typeSpec []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(be32(uint32(typeID)))
	buf.Write(be32(uint32(len(common))))
	buf.Write(be32(uint32(len(typeSpec))))
	buf.Write(common)
	buf.Write(typeSpec)
	return buf.Bytes()
}
