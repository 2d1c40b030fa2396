// Package state persists the set of already-published entry identifiers.
package state

import (
	"fmt"
	"sort"
)

// Seen is the set of identifiers that have been published.
type Seen map[string]struct{}

// NewSeen builds a Seen from ids.
func NewSeen(ids ...string) Seen {
	s := make(Seen, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add records an identifier.
func (s Seen) Add(id string) {
	s[id] = struct{}{}
}

// Has reports whether an identifier was already published.
func (s Seen) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the identifiers in lexicographic order. ArXiv ids sort
// chronologically, so the order doubles as oldest-first.
func (s Seen) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StorageError reports an unrecoverable I/O failure on the state file.
type StorageError struct {
	Path string
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("state %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
