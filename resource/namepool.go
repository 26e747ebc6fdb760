package resource

import (
	"github.com/dirarc/director/container"
	"github.com/dirarc/director/reader"
)

// NamePool is the ordered, zero-indexed sequence of short strings shared
// by common-info and movie-cast-list parsing.
type NamePool struct {
	names []string
}

// Get returns the name at index i, or "" if out of range. Empty strings
// are valid entries in their own right (§3: "retained to preserve
// indexing"), so callers needing to distinguish "absent" from "empty"
// should check index bounds with Len.
func (p *NamePool) Get(i int) string {
	if i < 0 || i >= len(p.names) {
		return ""
	}
	return p.names[i]
}

// Len returns the number of names in the pool.
func (p *NamePool) Len() int { return len(p.names) }

// ParseNamePool locates the Lnam chunk and parses it per §4.4.
func ParseNamePool(c *container.Container) (*NamePool, error) {
	id, ok := findChunkByTag(c, "Lnam")
	if !ok {
		return nil, ErrNamePoolNotFound
	}
	data, ok := c.GetChunk(id)
	if !ok {
		return nil, ErrNamePoolNotFound
	}

	r := reader.NewBuffer(data, c.Order())
	if err := r.Skip(8); err != nil {
		return nil, err
	}
	if _, err := r.ReadU32(); err != nil { // stored length, unused
		return nil, err
	}
	if _, err := r.ReadU32(); err != nil { // duplicate length, unused
		return nil, err
	}
	namesOffset, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	nameCount, err := r.ReadU16()
	if err != nil {
		return nil, err
	}

	if err := r.Seek(int64(namesOffset)); err != nil {
		return nil, err
	}
	pool := &NamePool{names: make([]string, 0, nameCount)}
	for i := uint16(0); i < nameCount; i++ {
		s, err := r.ReadPascalString()
		if err != nil {
			break
		}
		pool.names = append(pool.names, s)
	}
	return pool, nil
}
