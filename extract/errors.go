package extract

import "errors"

// Fatal errors: returned by Run itself, never per-member.
var (
	// ErrNilManager is returned when Run is called without a resolved
	// Cast Manager to fan out over.
	ErrNilManager = errors.New("extract: nil resource manager")

	// ErrNilSink is returned when Run is called without a place to write
	// output artifacts.
	ErrNilSink = errors.New("extract: nil sink")
)
