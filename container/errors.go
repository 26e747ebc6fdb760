package container

import "errors"

// Fatal errors: the input is not a container this package can open at all.
var (
	// ErrTooShort is returned when the input is smaller than the minimum
	// header this package needs to even attempt format detection.
	ErrTooShort = errors.New("container: input too short to contain a header")

	// ErrUnknownMagic is returned when the first four bytes match none of
	// the recognized uncompressed or Afterburner magics.
	ErrUnknownMagic = errors.New("container: unrecognized magic")

	// ErrMemoryMapNotFound is returned when neither an mmap nor an imap
	// chunk can be located in an uncompressed container.
	ErrMemoryMapNotFound = errors.New("container: memory map not found")

	// ErrAssetMapNotFound is returned when the asset map block is missing
	// from a compressed container.
	ErrAssetMapNotFound = errors.New("container: asset map not found")
)

// Non-fatal errors, never returned to callers. GetChunk logs
// errChunkNotIndexed and reports ok=false; errInflationExhausted is not
// used, since the inflation ladder's last rung returns the bytes verbatim.
var (
	errChunkNotIndexed   = errors.New("container: chunk id not indexed")
	errInflationExhausted = errors.New("container: all inflation strategies failed")
)
