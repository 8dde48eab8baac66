package jsondoc

import "github.com/tidwall/gjson"

// Document is a decoded JSON tree shrunk to its actual footprint.
type Document struct {
	root     gjson.Result
	capacity int
	attempts int
}

func (d *Document) Root() gjson.Result {
	return d.root
}

// Get looks up a dotted gjson path such as "feed.0.post.record.text".
func (d *Document) Get(path string) gjson.Result {
	return d.root.Get(path)
}

// Capacity is the number of bytes the tree occupies.
func (d *Document) Capacity() int {
	return d.capacity
}

// Attempts is the number of parse attempts the decode took.
func (d *Document) Attempts() int {
	return d.attempts
}
