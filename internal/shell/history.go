package shell

// DefaultHistoryLimit is the number of commands a session remembers.
const DefaultHistoryLimit = 100

// History is a bounded command history with an up/down navigation cursor.
// Once full, each push evicts the oldest entry. It is not safe for
// concurrent use; the Session guards it.
type History struct {
	entries []string
	limit   int
	// cursor indexes entries while navigating; len(entries) means "not navigating".
	cursor int
}

// NewHistory creates a history holding at most limit entries.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Push appends line, evicting the oldest entry when full, and resets the cursor.
func (h *History) Push(line string) {
	if len(h.entries) == h.limit {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:h.limit-1]
	}
	h.entries = append(h.entries, line)
	h.cursor = len(h.entries)
}

// Entries returns a copy of the history, oldest first.
func (h *History) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Prev moves the cursor one entry back and returns it. At the oldest entry
// it stays put; with an empty history ok is false.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor > 0 {
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next moves the cursor one entry forward. Stepping past the newest entry
// leaves navigation and returns "" with ok false.
func (h *History) Next() (string, bool) {
	if h.cursor >= len(h.entries)-1 {
		h.cursor = len(h.entries)
		return "", false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

// ResetCursor leaves navigation mode.
func (h *History) ResetCursor() {
	h.cursor = len(h.entries)
}

// Clear drops all entries.
func (h *History) Clear() {
	h.entries = h.entries[:0]
	h.cursor = 0
}
