// internal/visibility/window.go
package visibility

// DefaultWindowLimit is the initial number of rows a ranked table discloses.
const DefaultWindowLimit = 20

// Window is the disclosure state over one ranked table of Total rows: show
// Limit rows, grow by LoadMore, jump to everything with ShowAll, snap back
// with Collapse. Limit never leaves [0, Total] and LoadMore never shrinks it.
type Window struct {
	defaultLimit int
	limit        int
	total        int
}

// NewWindow starts a window at the default limit, clamped to the table size.
func NewWindow(defaultLimit, total int) Window {
	return ResumeWindow(defaultLimit, defaultLimit, total)
}

// ResumeWindow rebuilds a window from a previously exposed limit, clamping
// everything back into range. Callers that round-trip disclosure state
// through job variables use this.
func ResumeWindow(defaultLimit, limit, total int) Window {
	if total < 0 {
		total = 0
	}
	if defaultLimit < 0 {
		defaultLimit = 0
	}
	w := Window{defaultLimit: defaultLimit, total: total}
	w.limit = clamp(limit, 0, total)
	return w
}

// LoadMore grows the limit by step, capped at the table size. Non-positive
// steps are ignored so the limit is monotonic under repeated calls.
func (w *Window) LoadMore(step int) {
	if step <= 0 {
		return
	}
	w.limit = clamp(w.limit+step, 0, w.total)
}

// ShowAll discloses the whole table.
func (w *Window) ShowAll() {
	w.limit = w.total
}

// Collapse resets to the default limit (clamped to the table size).
func (w *Window) Collapse() {
	w.limit = clamp(w.defaultLimit, 0, w.total)
}

// Limit is the number of rows currently disclosed.
func (w Window) Limit() int { return w.limit }

// Total is the size of the underlying table.
func (w Window) Total() int { return w.total }

// HasMore reports whether rows remain undisclosed.
func (w Window) HasMore() bool { return w.limit < w.total }

// Slice returns the disclosed prefix of rows under the window.
func Slice[T any](rows []T, w Window) []T {
	limit := clamp(w.limit, 0, len(rows))
	return rows[:limit]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
