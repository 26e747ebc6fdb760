package resource

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/dirarc/director/container"
)

// fixtureChunk is one chunk to embed in a synthetic uncompressed RIFX
// container built by buildContainer.
type fixtureChunk struct {
	tag     string
	payload []byte
}

// buildContainer assembles a minimal uncompressed RIFX file with one mmap
// index covering every chunk in chunks, in order, and opens it. Chunk ids
// are assigned 0..n-1 in the order given.
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
