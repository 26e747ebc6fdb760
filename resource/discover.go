package resource

import (
	"strings"

	"github.com/dirarc/director/container"
)

// findChunkByTag returns the lowest-id chunk whose canonical tag matches
// any of wanted (case-insensitive). Chunk tags are already normalized by
// the container package; this only folds case.
func findChunkByTag(c *container.Container, wanted ...string) (uint32, bool) {
	var bestID uint32
	found := false
	for id, tag := range c.Chunks() {
		for _, w := range wanted {
			if strings.EqualFold(tag, w) {
				if !found || id < bestID {
					bestID = id
					found = true
				}
			}
		}
	}
	return bestID, found
}

// findChunksByTag returns every chunk id whose canonical tag matches any
// of wanted, in no particular order.
func findChunksByTag(c *container.Container, wanted ...string) []uint32 {
	var ids []uint32
	for id, tag := range c.Chunks() {
		for _, w := range wanted {
			if strings.EqualFold(tag, w) {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids
}
