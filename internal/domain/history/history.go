// Package history keeps bounded undo and redo stacks of document snapshots.
package history

const DefaultLimit = 50

type History struct {
	past   []string
	future []string
	limit  int
}

func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit}
}

// Push records the state before a mutation and clears the redo stack. A
// state equal to the latest entry is not recorded twice.
func (h *History) Push(state string) {
	if n := len(h.past); n > 0 && h.past[n-1] == state {
		return
	}
	h.past = append(h.past, state)
	if len(h.past) > h.limit {
		h.past = h.past[len(h.past)-h.limit:]
	}
	h.future = nil
}

// Undo returns the previous state, storing current for redo.
func (h *History) Undo(current string) (string, bool) {
	n := len(h.past)
	if n == 0 {
		return "", false
	}
	prev := h.past[n-1]
	h.past = h.past[:n-1]
	h.future = append(h.future, current)
	return prev, true
}

// Redo returns the next state, storing current for undo.
func (h *History) Redo(current string) (string, bool) {
	n := len(h.future)
	if n == 0 {
		return "", false
	}
	next := h.future[n-1]
	h.future = h.future[:n-1]
	h.past = append(h.past, current)
	return next, true
}

func (h *History) CanUndo() bool { return len(h.past) > 0 }

func (h *History) CanRedo() bool { return len(h.future) > 0 }

func (h *History) Clear() {
	h.past = nil
	h.future = nil
}
