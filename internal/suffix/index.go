// Package suffix provides substring lookup over immutable reference sequences.
package suffix

import (
	"index/suffixarray"
	"sort"
)

// Index answers "where does this substring occur" for a single reference
// sequence. It is built once and safe for concurrent use.
type Index struct {
	text  string
	index *suffixarray.Index
}

// New indexes the reference sequence.
func New(text string) *Index {
	return &Index{
		text:  text,
		index: suffixarray.New([]byte(text)),
	}
}

// Len returns the length of the indexed sequence.
func (x *Index) Len() int {
	return len(x.text)
}

// Indices returns every offset at which query occurs, in ascending order.
// An empty query matches nowhere.
func (x *Index) Indices(query string) []int {
	if query == "" || len(query) > len(x.text) {
		return nil
	}
	offsets := x.index.Lookup([]byte(query), -1)
	sort.Ints(offsets)
	return offsets
}
