// Package replay keeps the in-memory scrollback of displayed lines so a
// presentation layer that is recreated can be brought back up to date.
package replay

import (
	"iter"
	"sync"
)

// Entry is one displayed line.  An empty Sender means the line had no
// title.
type Entry struct {
	Sender string
	Body   string
}

// Buffer is an append-only, ordered log of entries.  With a positive
// capacity the oldest entries are evicted once it is full; the zero
// value is unbounded.  All methods are safe for concurrent use.
type Buffer struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
}

// New returns a Buffer holding at most capacity entries (0 = no limit).
func New(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{capacity: capacity}
}

// Append adds an entry at the end of the log.
func (b *Buffer) Append(sender, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, Entry{Sender: sender, Body: body})
	if b.capacity > 0 && len(b.entries) > b.capacity {
		drop := len(b.entries) - b.capacity
		b.entries = append(b.entries[:0:0], b.entries[drop:]...)
	}
}

// Len returns the number of buffered entries.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Replay returns a lazy sequence over the entries present when the
// sequence was created, in original order.  Consuming it does not
// clear the buffer; call Replay again to start over.
func (b *Buffer) Replay() iter.Seq[Entry] {
	b.mu.RLock()
	snapshot := b.entries[:len(b.entries):len(b.entries)]
	b.mu.RUnlock()

	return func(yield func(Entry) bool) {
		for _, e := range snapshot {
			if !yield(e) {
				return
			}
		}
	}
}
