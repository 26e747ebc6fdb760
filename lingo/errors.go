package lingo

import "errors"

var (
	// ErrTruncatedScript means the script chunk is too short to hold the
	// common 16-byte prologue plus the u16 header length after it.
	ErrTruncatedScript = errors.New("lingo: script chunk too short")
	// ErrNoSegmentTable means neither modern tag-table offset (50 or 52)
	// yielded a plausible table.
	ErrNoSegmentTable = errors.New("lingo: no segment table found")
)
