// Package ledger holds the ordered, mutable list of captured steps. It is
// the source of truth for the UI list and the persistence layer.
package ledger

import (
	"sort"

	"github.com/google/uuid"

	"bsr/internal/step"
)

// Notifier receives ledger change events so a display list can stay
// synchronized 1:1 with ledger order. Appends arrive individually; every
// other mutation resyncs the whole ordered list.
type Notifier interface {
	StepAdded(s *step.Step)
	StepsReplaced(ordered []*step.Step)
}

// Ledger is the ordered step list. It is not safe for concurrent use; the
// session run loop is its single owner.
type Ledger struct {
	steps    []*step.Step
	notifier Notifier
}

// New creates an empty ledger. notifier may be nil.
func New(notifier Notifier) *Ledger {
	return &Ledger{notifier: notifier}
}

// Len reports the number of steps.
func (l *Ledger) Len() int {
	return len(l.steps)
}

// Append adds s at the end and renumbers.
func (l *Ledger) Append(s *step.Step) {
	l.steps = append(l.steps, s)
	l.renumber()
	if l.notifier != nil {
		l.notifier.StepAdded(s)
	}
}

// MoveUp swaps each selected index with the one above it. Index 0 is a
// no-op. Indices are processed in ascending order so a contiguous selection
// moves as a block.
func (l *Ledger) MoveUp(indices ...int) {
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)
	moved := false
	for _, i := range sorted {
		if i <= 0 || i >= len(l.steps) {
			continue
		}
		l.steps[i], l.steps[i-1] = l.steps[i-1], l.steps[i]
		moved = true
	}
	if moved {
		l.resync()
	}
}

// MoveDown swaps each selected index with the one below it. The last index
// is a no-op. Indices are processed in descending order.
func (l *Ledger) MoveDown(indices ...int) {
	sorted := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	moved := false
	for _, i := range sorted {
		if i < 0 || i >= len(l.steps)-1 {
			continue
		}
		l.steps[i], l.steps[i+1] = l.steps[i+1], l.steps[i]
		moved = true
	}
	if moved {
		l.resync()
	}
}

// Remove deletes every step whose id is in ids and returns the ids that did
// not resolve to a step. Stale references are expected from callers holding
// old selections, so unresolved ids are reported rather than treated as
// errors.
func (l *Ledger) Remove(ids ...uuid.UUID) (missing []uuid.UUID) {
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	kept := l.steps[:0]
	for _, s := range l.steps {
		if want[s.ID] {
			delete(want, s.ID)
			continue
		}
		kept = append(kept, s)
	}
	l.steps = kept
	for id := range want {
		missing = append(missing, id)
	}
	l.resync()
	return missing
}

// Reorder moves the step with the given id to targetIndex, clamped to the
// valid range. Used by drag-and-drop. Returns false if id is unknown.
func (l *Ledger) Reorder(id uuid.UUID, targetIndex int) bool {
	from := l.indexOf(id)
	if from < 0 {
		return false
	}
	if targetIndex < 0 {
		targetIndex = 0
	}
	if targetIndex >= len(l.steps) {
		targetIndex = len(l.steps) - 1
	}
	if from == targetIndex {
		return true
	}
	s := l.steps[from]
	l.steps = append(l.steps[:from], l.steps[from+1:]...)
	l.steps = append(l.steps[:targetIndex], append([]*step.Step{s}, l.steps[targetIndex:]...)...)
	l.resync()
	return true
}

// EditText updates the narrative text of the step with the given id and
// reports whether anything changed. Equal text is a no-op so spurious
// autosaves are not triggered.
func (l *Ledger) EditText(id uuid.UUID, text string) bool {
	i := l.indexOf(id)
	if i < 0 || l.steps[i].Text == text {
		return false
	}
	l.steps[i].Text = text
	return true
}

// Get returns the step with the given id, or nil.
func (l *Ledger) Get(id uuid.UUID) *step.Step {
	if i := l.indexOf(id); i >= 0 {
		return l.steps[i]
	}
	return nil
}

// Snapshot returns the steps in ledger order. The slice is a copy; the
// steps themselves are shared with the ledger.
func (l *Ledger) Snapshot() []*step.Step {
	out := make([]*step.Step, len(l.steps))
	copy(out, l.steps)
	return out
}

// Replace substitutes the whole list, as on project load. The incoming
// order is kept as-is; callers sort by step number beforehand.
func (l *Ledger) Replace(steps []*step.Step) {
	l.steps = append([]*step.Step(nil), steps...)
	l.resync()
}

func (l *Ledger) indexOf(id uuid.UUID) int {
	for i, s := range l.steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// renumber restores the invariant that step numbers are a dense 1..N
// sequence matching list order.
func (l *Ledger) renumber() {
	for i, s := range l.steps {
		s.Number = i + 1
	}
}

func (l *Ledger) resync() {
	l.renumber()
	if l.notifier != nil {
		l.notifier.StepsReplaced(l.Snapshot())
	}
}
