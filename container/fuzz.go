package container

// Fuzz is a go-fuzz harness: it opens data as a container and walks every
// chunk the discovery pass indexed, exercising format detection, both
// discovery paths, and the retrieval fallback ladder end to end. Returns
// 1 when data produced an interesting (successfully opened) container, 0
// otherwise, per the go-fuzz convention.
func Fuzz(data []byte) int {
	c, err := OpenBytes(data, Options{})
	if err != nil {
		return 0
	}
	defer c.Close()

	for id := range c.chunks {
		c.GetChunk(id)
	}
	return 1
}
