package collector

import "strings"

// RetentionBuffer is a fixed-capacity FIFO. Once full, each Push evicts the
// oldest entry. It is not safe for concurrent use.
type RetentionBuffer struct {
	items    []string
	head     int // index of the oldest entry once the ring is full
	capacity int
}

// NewRetentionBuffer returns a buffer holding at most capacity entries.
// Capacities below 1 are raised to 1.
func NewRetentionBuffer(capacity int) *RetentionBuffer {
	if capacity < 1 {
		capacity = 1
	}
	// Storage grows on demand; large "-t" values usually see far fewer lines.
	return &RetentionBuffer{capacity: capacity}
}

// Push appends s, evicting the oldest entry if the buffer is full.
func (b *RetentionBuffer) Push(s string) (evicted bool) {
	if len(b.items) < b.capacity {
		b.items = append(b.items, s)
		return false
	}
	b.items[b.head] = s
	b.head = (b.head + 1) % b.capacity
	return true
}

// Len returns the number of retained entries.
func (b *RetentionBuffer) Len() int { return len(b.items) }

// Cap returns the buffer capacity.
func (b *RetentionBuffer) Cap() int { return b.capacity }

// Items returns the retained entries, oldest first.
func (b *RetentionBuffer) Items() []string {
	out := make([]string, 0, len(b.items))
	out = append(out, b.items[b.head:]...)
	return append(out, b.items[:b.head]...)
}

// String concatenates the retained entries in arrival order.
func (b *RetentionBuffer) String() string {
	var sb strings.Builder
	for _, s := range b.Items() {
		sb.WriteString(s)
	}
	return sb.String()
}
