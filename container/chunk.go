package container

// Chunk is one entry in the container's chunk index: a logical resource
// id mapped to the physical bytes that hold it, plus enough bookkeeping
// to retrieve and, if necessary, decompress those bytes on demand.
type Chunk struct {
	ID   uint32
	Tag  string
	// Offset is interpreted differently depending on layout: for
	// uncompressed containers it is an absolute file offset to the
	// tag+len prefix; for compressed containers it is relative to the
	// inline-segment body origin.
	Offset int64

	// Len is the uncompressed-layout payload length.
	Len int64

	// CompressedSize/UncompressedSize/CompressionType are populated only
	// for compressed-layout (asset map) entries.
	CompressedSize   int64
	UncompressedSize int64
	CompressionType  int
}

// compressed reports whether this entry requires decompression
// consideration at retrieval time.
func (c Chunk) compressed() bool {
	return c.CompressionType == 1 ||
		c.UncompressedSize > c.CompressedSize
}
