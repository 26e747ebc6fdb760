package resource

import "errors"

var (
	// ErrKeyTableNotFound is returned when no KEY* chunk is present.
	ErrKeyTableNotFound = errors.New("resource: key table chunk not found")

	// ErrBadKeyTableHeader is returned when the key table control word
	// matches no known header shape in either endianness.
	ErrBadKeyTableHeader = errors.New("resource: unrecognized key table header")

	// ErrNamePoolNotFound is returned when no Lnam chunk is present.
	ErrNamePoolNotFound = errors.New("resource: name pool chunk not found")

	// ErrCastListNotFound is returned when neither an MCsL chunk nor a
	// synthesizable single CAS* entry exists.
	ErrCastListNotFound = errors.New("resource: movie cast list not found")

	// ErrMovieConfigNotFound is returned when no DRCF/VWCF chunk exists.
	ErrMovieConfigNotFound = errors.New("resource: movie configuration not found")
)
