package plasticity

import (
	"context"
	"errors"
	"sync"
)

var ErrNothingToUndo = errors.New("nothing to undo")
var ErrNothingToRedo = errors.New("nothing to redo")

type historyEntry struct {
	memento *EditorMemento
	ordinal int
	label   string
}

// History is the undo/redo stack: an ordered run of editor mementos
// with a movable cursor. Entry zero is the baseline captured at
// construction (or after a document load), so undoing everything
// returns to the pre-history state. A new entry truncates whatever the
// cursor had been rewound past.
//
// History mutation happens on the document's serial queue (the
// executor checkpoints from inside a command's turn, the editor routes
// Undo/Redo through the queue), so the mutex only guards the cheap
// observer methods.
type History struct {
	originator *EditorOriginator
	signals    *Signals
	depth      int

	mu      sync.Mutex
	entries []historyEntry
	cursor  int
	ordinal int
}

func newHistory(o *EditorOriginator, s *Signals, depth int, baseline *EditorMemento) *History {
	return &History{
		originator: o,
		signals:    s,
		depth:      depth,
		entries:    []historyEntry{{memento: baseline}},
	}
}

// Add appends a memento after the cursor, dropping any redo tail, and
// evicts the oldest entry once the stack is past its depth bound.
// Called exactly once per Finished command.
func (h *History) Add(m *EditorMemento, label string) {
	h.mu.Lock()
	h.ordinal++
	h.entries = append(h.entries[:h.cursor+1], historyEntry{
		memento: m,
		ordinal: h.ordinal,
		label:   label,
	})
	h.cursor = len(h.entries) - 1
	if len(h.entries) > h.depth+1 {
		// baseline slides forward; the evicted memento is gone
		h.entries = h.entries[1:]
		h.cursor--
	}
	historyDepth.Set(float64(len(h.entries) - 1))
	h.mu.Unlock()
	h.signals.publishHistoryChanged()
}

// Undo rewinds the cursor one entry and restores that capture.
// Reports ErrNothingToUndo at the baseline; that is a no-op, not a
// failure.
func (h *History) Undo(ctx context.Context) error {
	h.mu.Lock()
	if h.cursor == 0 {
		h.mu.Unlock()
		return ErrNothingToUndo
	}
	h.cursor--
	m := h.entries[h.cursor].memento
	h.mu.Unlock()

	if err := h.originator.Restore(ctx, m); err != nil {
		return err
	}
	h.signals.publishHistoryChanged()
	return nil
}

// Redo is Undo's mirror at the tail.
func (h *History) Redo(ctx context.Context) error {
	h.mu.Lock()
	if h.cursor >= len(h.entries)-1 {
		h.mu.Unlock()
		return ErrNothingToRedo
	}
	h.cursor++
	m := h.entries[h.cursor].memento
	h.mu.Unlock()

	if err := h.originator.Restore(ctx, m); err != nil {
		return err
	}
	h.signals.publishHistoryChanged()
	return nil
}

// Reset discards all entries and starts over from a new baseline.
// Used after a document load.
func (h *History) Reset(baseline *EditorMemento) {
	h.mu.Lock()
	h.entries = []historyEntry{{memento: baseline}}
	h.cursor = 0
	historyDepth.Set(0)
	h.mu.Unlock()
	h.signals.publishHistoryChanged()
}

func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor > 0
}

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor < len(h.entries)-1
}

// Len counts undoable entries, the baseline excluded.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries) - 1
}

func (h *History) Cursor() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor
}

// Labels lists entry labels from oldest to newest, baseline excluded.
func (h *History) Labels() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	labels := make([]string, 0, len(h.entries)-1)
	for _, e := range h.entries[1:] {
		labels = append(labels, e.label)
	}
	return labels
}
