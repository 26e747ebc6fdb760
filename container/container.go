// Package container implements format detection, chunk discovery and
// retrieval, and tag normalization for Adobe Director container files
// (.dir/.dcr/.cst/.cct), in both their uncompressed (RIFX/XFIR) and
// Afterburner-compressed (FGDC/CDGF/FGDM/MDGF) layouts.
package container

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/dirarc/director/log"
	"github.com/dirarc/director/reader"
)

const ilsConventionID uint32 = 2

// Options configures a Container. Zero-valued fields get sane defaults
// applied by Open/OpenBytes.
type Options struct {
	// Inflater is the decompression primitive used by the chunk
	// retrieval fallback ladder. Defaults to NewInflater().
	Inflater Inflater

	// Logger receives fail-open diagnostics. Defaults to a no-op logger.
	Logger log.Logger

	// ILSLimit bounds how large a single inline-segment cache entry may
	// be before it is skipped rather than cached. Defaults to 10 MiB.
	ILSLimit int64
}

func (o *Options) setDefaults() {
	if o.Inflater == nil {
		o.Inflater = NewInflater()
	}
	if o.Logger == nil {
		o.Logger = log.NewNopLogger()
	}
	if o.ILSLimit <= 0 {
		o.ILSLimit = 10 * 1024 * 1024
	}
}

// Container is an open Director container: a chunk index plus whatever
// state (ILS cache, inflater, logger) is needed to resolve chunk ids to
// bytes on demand.
type Container struct {
	data []byte
	mm   mmap.MMap
	f    *os.File

	order      binary.ByteOrder
	compressed bool
	ilsOrigin  int64

	chunks       map[uint32]*Chunk
	ilsCache     map[uint32][]byte
	payloadCache map[uint32][]byte
	nextID       uint32

	opts Options
	log  *log.Helper
}

// Open memory-maps path and parses its chunk index.
func Open(path string, opts Options) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	c, err := newContainer(m, opts)
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, err
	}
	c.mm = m
	c.f = f
	return c, nil
}

// OpenBytes parses a chunk index from an in-memory buffer. Used by tests
// and the fuzz harness, and by callers that already hold the file bytes.
func OpenBytes(data []byte, opts Options) (*Container, error) {
	return newContainer(data, opts)
}

// Close releases the underlying mapping and file handle, if any.
func (c *Container) Close() error {
	var err error
	if c.mm != nil {
		err = c.mm.Unmap()
	}
	if c.f != nil {
		if ferr := c.f.Close(); err == nil {
			err = ferr
		}
	}
	return err
}

func newContainer(data []byte, opts Options) (*Container, error) {
	if len(data) < 12 {
		return nil, ErrTooShort
	}
	opts.setDefaults()
	c := &Container{
		data:         data,
		opts:         opts,
		log:          log.NewHelper(opts.Logger),
		chunks:       make(map[uint32]*Chunk),
		ilsCache:     make(map[uint32][]byte),
		payloadCache: make(map[uint32][]byte),
	}

	order, compressed, blockStart, err := detectFormat(data)
	if err != nil {
		return nil, err
	}
	c.order = order
	c.compressed = compressed

	r := reader.NewBuffer(data, order)
	if err := r.Seek(blockStart); err != nil {
		return nil, err
	}

	if compressed {
		if err := c.parseCompressed(r); err != nil {
			return nil, err
		}
	} else {
		if err := c.parseUncompressed(r); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// detectFormat reads the magic and, for uncompressed layouts, the
// subtype, returning the byte order, whether the container is
// compressed, and the offset at which block/chunk discovery should
// begin.
func detectFormat(data []byte) (binary.ByteOrder, bool, int64, error) {
	magic := string(data[:4])
	switch magic {
	case "RIFX":
		return detectSubtype(data, binary.BigEndian)
	case "XFIR":
		return detectSubtype(data, binary.LittleEndian)
	case "FGDC", "FGDM":
		return binary.BigEndian, true, 4, nil
	case "CDGF", "MDGF":
		return binary.LittleEndian, true, 4, nil
	default:
		return nil, false, 0, ErrUnknownMagic
	}
}

// detectSubtype reads the four-CC at offset 8 of an uncompressed-layout
// header. If the subtype itself names a compressed layout, the file is
// a hybrid wrapper and block discovery switches to the compressed
// parser, continuing from offset 12.
func detectSubtype(data []byte, order binary.ByteOrder) (binary.ByteOrder, bool, int64, error) {
	r := reader.NewBuffer(data, order)
	if err := r.Seek(8); err != nil {
		return nil, false, 0, ErrTooShort
	}
	subtype, err := r.ReadFourCC()
	if err != nil {
		return nil, false, 0, ErrTooShort
	}
	switch NormalizeTag(subtype) {
	case "FGDC", "CDGF", "FGDM", "MDGF":
		return order, true, 12, nil
	default:
		return order, false, 12, nil
	}
}

// readAt returns a bounds-checked slice of the raw container bytes.
func (c *Container) readAt(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > int64(len(c.data)) {
		return nil, fmt.Errorf("container: readAt(%d,%d) out of range (len=%d)", offset, length, len(c.data))
	}
	return c.data[offset : offset+length], nil
}

// ---- uncompressed discovery (§4.2) ----

func (c *Container) parseUncompressed(r *reader.Reader) error {
	var mmapStart, mmapLen int64
	var imapStart, imapLen int64
	haveMmap, haveImap := false, false

	for r.Pos() < r.Len() {
		tag, err := r.ReadFourCC()
		if err != nil {
			break
		}
		length, err := r.ReadU32()
		if err != nil {
			break
		}
		payloadStart := r.Pos()

		switch strings.ToLower(NormalizeTag(tag)) {
		case "mmap":
			mmapStart, mmapLen = payloadStart, int64(length)
			haveMmap = true
		case "imap":
			imapStart, imapLen = payloadStart, int64(length)
			haveImap = true
		}

		if err := r.Seek(payloadStart + int64(length)); err != nil {
			break
		}
	}

	switch {
	case haveMmap:
		return c.parseMemoryMap(r, mmapStart, mmapLen)
	case haveImap:
		return c.parseMemoryMap(r, imapStart, imapLen)
	default:
		return ErrMemoryMapNotFound
	}
}

// parseMemoryMap reads the used-chunk count and the fixed-size entry
// records that follow: tag, length, offset, then two reserved fields
// (free-list flags and next-free pointer) this package does not need.
// Entries with a nonzero offset are appended to the chunk index with a
// monotonically increasing id.
func (c *Container) parseMemoryMap(r *reader.Reader, start, length int64) error {
	if err := r.Seek(start); err != nil {
		return err
	}
	if _, err := r.ReadU16(); err != nil { // header record size, unused
		return nil
	}
	if _, err := r.ReadU16(); err != nil { // entry record size, unused
		return nil
	}
	if _, err := r.ReadU32(); err != nil { // total slot count, unused
		return nil
	}
	usedCount, err := r.ReadU32()
	if err != nil {
		return nil
	}
	if err := r.Skip(8); err != nil { // free-list head + junk
		return nil
	}

	end := start + length
	for i := uint32(0); i < usedCount && r.Pos()+20 <= end; i++ {
		tag, err := r.ReadFourCC()
		if err != nil {
			break
		}
		entryLen, err := r.ReadU32()
		if err != nil {
			break
		}
		offset, err := r.ReadI32()
		if err != nil {
			break
		}
		if err := r.Skip(8); err != nil { // flags + next-free pointer
			break
		}
		if offset > 0 {
			id := c.nextID
			c.nextID++
			c.chunks[id] = &Chunk{
				ID:     id,
				Tag:    NormalizeTag(tag),
				Offset: int64(offset),
				Len:    int64(entryLen),
			}
		}
	}
	return nil
}

// ---- compressed (Afterburner) discovery (§4.2) ----

func (c *Container) parseCompressed(r *reader.Reader) error {
	if err := c.skipVersionBlock(r); err != nil {
		return err
	}
	if err := c.parseLogicalToPhysicalMap(r); err != nil {
		c.log.Warnf("logical-to-physical map: %v", err)
	}
	if err := c.parseCatalog(r); err != nil {
		c.log.Warnf("compression catalog: %v", err)
	}

	foundAssetMap, err := c.parseAssetMap(r)
	if err != nil {
		c.log.Warnf("asset map: %v", err)
	}
	if !foundAssetMap {
		return ErrAssetMapNotFound
	}

	c.ilsOrigin = r.Pos()
	c.scanInlineSegment(r)
	return nil
}

func (c *Container) readBlock(r *reader.Reader) (tag string, payload []byte, err error) {
	tag, err = r.ReadFourCC()
	if err != nil {
		return "", nil, err
	}
	length, err := r.ReadU32()
	if err != nil {
		return "", nil, err
	}
	start := r.Pos()
	payload, err = r.ReadBytes(int(length))
	if err != nil {
		// Still advance best-effort so later blocks have a chance.
		_ = r.Seek(start + int64(length))
		return tag, nil, err
	}
	return tag, payload, nil
}

func (c *Container) skipVersionBlock(r *reader.Reader) error {
	tag, _, err := c.readBlock(r)
	if err != nil {
		return err
	}
	if !tagEquals(tag, "Fver") {
		c.log.Warnf("expected version block, got tag %q", tag)
	}
	return nil
}

func (c *Container) parseLogicalToPhysicalMap(r *reader.Reader) error {
	tag, payload, err := c.readBlock(r)
	if err != nil {
		return err
	}
	if !tagEquals(tag, "Fcdr") {
		c.log.Warnf("expected logical-to-physical map, got tag %q", tag)
	}
	// Plain (uninflated) sequence: count, then (logical, physical) pairs.
	pr := reader.NewBuffer(payload, c.order)
	count, err := pr.ReadU32()
	if err != nil {
		return nil
	}
	for i := uint32(0); i < count; i++ {
		if _, err := pr.ReadU32(); err != nil { // logical id, unused downstream
			break
		}
		if _, err := pr.ReadU32(); err != nil { // physical id, unused downstream
			break
		}
	}
	return nil
}

func (c *Container) parseCatalog(r *reader.Reader) error {
	tag, payload, err := c.readBlock(r)
	if err != nil {
		return err
	}
	if !tagEquals(tag, "Fcad") {
		c.log.Warnf("expected compression catalog, got tag %q", tag)
	}
	// Catalog is inflated as a unit before parsing. Its contents (a list
	// of compression-type identifiers) are not needed by chunk retrieval
	// beyond the compression_type_index already carried on each asset
	// map entry, so parsing stops at decompression.
	inflateLadder(c.opts.Inflater, payload)
	return nil
}

// parseAssetMap inflates and parses the asset map, populating the chunk
// index keyed by resource_id. Returns whether an asset map block was
// found at all (as opposed to the block being found but malformed).
func (c *Container) parseAssetMap(r *reader.Reader) (bool, error) {
	tag, payload, err := c.readBlock(r)
	if err != nil {
		return false, err
	}
	if !tagEquals(tag, "ABMP") {
		c.log.Warnf("expected asset map, got tag %q", tag)
	}

	inflated := inflateLadder(c.opts.Inflater, payload)
	pr := reader.NewBuffer(inflated, c.order)
	count, err := pr.ReadVarInt()
	if err != nil {
		return true, err
	}
	for i := uint64(0); i < count; i++ {
		id, err := pr.ReadVarInt()
		if err != nil {
			break
		}
		offset, err := pr.ReadVarInt()
		if err != nil {
			break
		}
		compSize, err := pr.ReadVarInt()
		if err != nil {
			break
		}
		uncompSize, err := pr.ReadVarInt()
		if err != nil {
			break
		}
		compType, err := pr.ReadU8()
		if err != nil {
			break
		}
		entryTag, err := pr.ReadFourCC()
		if err != nil {
			break
		}
		c.chunks[uint32(id)] = &Chunk{
			ID:               uint32(id),
			Tag:              NormalizeTag(entryTag),
			Offset:           int64(offset),
			CompressedSize:   int64(compSize),
			UncompressedSize: int64(uncompSize),
			CompressionType:  int(compType),
		}
	}
	return true, nil
}

// scanInlineSegment looks up the ILS chunk by convention (id 2), inflates
// its payload, and scans it as a sequence of (resource_id, length, bytes)
// records into the in-memory cache, skipping (not caching) any record
// whose length exceeds ILSLimit.
func (c *Container) scanInlineSegment(r *reader.Reader) {
	entry, ok := c.chunks[ilsConventionID]
	if !ok || !tagEquals(entry.Tag, "FGEI") {
		return
	}
	raw, err := c.readAt(c.ilsOrigin+entry.Offset, entry.CompressedSize)
	if err != nil {
		c.log.Warnf("inline segment body: %v", err)
		return
	}
	payload := inflateLadder(c.opts.Inflater, raw)

	pr := reader.NewBuffer(payload, c.order)
	for pr.Pos() < pr.Len() {
		id, err := pr.ReadVarInt()
		if err != nil {
			return
		}
		length, err := pr.ReadVarInt()
		if err != nil {
			return
		}
		if int64(length) > c.opts.ILSLimit {
			c.log.Warnf("ils entry %d exceeds cache limit (%d > %d), not caching", id, length, c.opts.ILSLimit)
			if err := pr.Skip(int64(length)); err != nil {
				return
			}
			continue
		}
		data, err := pr.ReadBytes(int(length))
		if err != nil {
			return
		}
		c.ilsCache[uint32(id)] = data
	}
}

// ---- chunk retrieval (§4.2 fail-open policy) ----

// GetChunk resolves a chunk id to its decoded bytes. It never returns an
// error: failures are logged and reported as ok=false so callers can
// continue processing the remaining chunks.
func (c *Container) GetChunk(id uint32) ([]byte, bool) {
	if cached, ok := c.payloadCache[id]; ok {
		return cached, true
	}
	if ils, ok := c.ilsCache[id]; ok {
		c.payloadCache[id] = ils
		return ils, true
	}

	chunk, ok := c.chunks[id]
	if !ok {
		c.log.Warnf("GetChunk(%d): %v", id, errChunkNotIndexed)
		return nil, false
	}

	var out []byte
	var err error
	if !c.compressed {
		out, err = c.readAt(chunk.Offset+8, chunk.Len)
	} else {
		var raw []byte
		raw, err = c.readAt(c.ilsOrigin+chunk.Offset, chunk.CompressedSize)
		if err == nil {
			if chunk.compressed() || looksLikeZlib(raw) {
				out = inflateLadder(c.opts.Inflater, raw)
			} else {
				out = raw
			}
		}
	}
	if err != nil {
		c.log.Warnf("GetChunk(%d): %v", id, err)
		return nil, false
	}
	c.payloadCache[id] = out
	return out, true
}

// Chunks returns a snapshot of every indexed chunk id and its tag, in no
// particular order. Used by the resource and extract packages to drive
// their own discovery passes.
func (c *Container) Chunks() map[uint32]string {
	out := make(map[uint32]string, len(c.chunks))
	for id, ch := range c.chunks {
		out[id] = ch.Tag
	}
	return out
}

// Order returns the byte order this container was calibrated to at
// format-detection time.
func (c *Container) Order() binary.ByteOrder { return c.order }
