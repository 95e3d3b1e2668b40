// Package reload keeps a live theme document and swaps in a fresh one when
// the declaration changes on disk.
package reload

import (
	"sync/atomic"

	"github.com/gnana997/twtheme/pkg/theme"
)

// Store publishes the current document. Readers never block and always see
// a complete, validated document; a published document is never mutated.
type Store struct {
	doc     atomic.Pointer[theme.Document]
	version atomic.Uint64
}

// NewStore creates a store holding doc.
func NewStore(doc *theme.Document) *Store {
	s := &Store{}
	s.Swap(doc)
	return s
}

// Current returns the live document.
func (s *Store) Current() *theme.Document {
	return s.doc.Load()
}

// Swap publishes doc and returns the document it replaced. Nil is ignored.
func (s *Store) Swap(doc *theme.Document) *theme.Document {
	if doc == nil {
		return s.doc.Load()
	}
	old := s.doc.Swap(doc)
	s.version.Add(1)
	return old
}

// Version counts the documents published so far.
func (s *Store) Version() uint64 {
	return s.version.Load()
}
