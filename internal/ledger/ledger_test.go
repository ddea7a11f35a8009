package ledger

import (
	"testing"

	"github.com/google/uuid"

	"bsr/internal/step"
)

func newStep(text string) *step.Step {
	s := step.New()
	s.Text = text
	return s
}

func texts(steps []*step.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Text
	}
	return out
}

func assertOrder(t *testing.T, l *Ledger, want ...string) {
	t.Helper()
	got := texts(l.Snapshot())
	if len(got) != len(want) {
		t.Fatalf("Expected %d steps, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected step %d to be %q, got %q", i, want[i], got[i])
		}
	}
}

func assertNumbering(t *testing.T, l *Ledger) {
	t.Helper()
	for i, s := range l.Snapshot() {
		if s.Number != i+1 {
			t.Errorf("Expected step at index %d to be numbered %d, got %d", i, i+1, s.Number)
		}
	}
}

// TestAppendNumbering tests that appended steps get dense 1..N numbers.
func TestAppendNumbering(t *testing.T) {
	l := New(nil)
	l.Append(newStep("a"))
	l.Append(newStep("b"))
	l.Append(newStep("c"))

	assertOrder(t, l, "a", "b", "c")
	assertNumbering(t, l)
}

// TestMoveUp tests a single step swap with the row above.
func TestMoveUp(t *testing.T) {
	l := New(nil)
	l.Append(newStep("a"))
	l.Append(newStep("b"))

	l.MoveUp(1)
	assertOrder(t, l, "b", "a")
	assertNumbering(t, l)
}

// TestMoveUpFirstIsNoop tests that the top row cannot move further up.
func TestMoveUpFirstIsNoop(t *testing.T) {
	l := New(nil)
	l.Append(newStep("a"))
	l.Append(newStep("b"))

	l.MoveUp(0)
	assertOrder(t, l, "a", "b")
	assertNumbering(t, l)
}

// TestMoveDownLastIsNoop tests that the bottom row cannot move further down.
func TestMoveDownLastIsNoop(t *testing.T) {
	l := New(nil)
	l.Append(newStep("a"))
	l.Append(newStep("b"))

	l.MoveDown(1)
	assertOrder(t, l, "a", "b")
	assertNumbering(t, l)
}

// TestMoveDown tests a single step swap with the row below.
func TestMoveDown(t *testing.T) {
	l := New(nil)
	l.Append(newStep("a"))
	l.Append(newStep("b"))
	l.Append(newStep("c"))

	l.MoveDown(0)
	assertOrder(t, l, "b", "a", "c")
	assertNumbering(t, l)
}

// TestMoveBlockSelection tests that a contiguous selection moves as a block.
func TestMoveBlockSelection(t *testing.T) {
	l := New(nil)
	l.Append(newStep("a"))
	l.Append(newStep("b"))
	l.Append(newStep("c"))
	l.Append(newStep("d"))

	l.MoveUp(1, 2)
	assertOrder(t, l, "b", "c", "a", "d")
	assertNumbering(t, l)
}

// TestRemoveRenumbers tests that removal closes the numbering gap.
func TestRemoveRenumbers(t *testing.T) {
	l := New(nil)
	a := newStep("a")
	b := newStep("b")
	c := newStep("c")
	l.Append(a)
	l.Append(b)
	l.Append(c)

	missing := l.Remove(b.ID)
	if len(missing) != 0 {
		t.Errorf("Expected no missing ids, got %v", missing)
	}
	assertOrder(t, l, "a", "c")
	assertNumbering(t, l)
}

// TestRemoveStaleID tests that unknown ids are reported, not errors.
func TestRemoveStaleID(t *testing.T) {
	l := New(nil)
	l.Append(newStep("a"))

	stale := uuid.New()
	missing := l.Remove(stale)
	if len(missing) != 1 || missing[0] != stale {
		t.Errorf("Expected missing list [%s], got %v", stale, missing)
	}
	assertOrder(t, l, "a")
}

// TestReorderClamped tests drag targets beyond the ends clamp in range.
func TestReorderClamped(t *testing.T) {
	l := New(nil)
	a := newStep("a")
	l.Append(a)
	l.Append(newStep("b"))
	l.Append(newStep("c"))

	if !l.Reorder(a.ID, 99) {
		t.Fatal("Expected reorder of a known id to succeed")
	}
	assertOrder(t, l, "b", "c", "a")
	assertNumbering(t, l)

	if l.Reorder(uuid.New(), 0) {
		t.Error("Expected reorder of an unknown id to fail")
	}
}

// TestEditTextNoopOnEqual tests that rewriting identical text reports no change.
func TestEditTextNoopOnEqual(t *testing.T) {
	l := New(nil)
	a := newStep("a")
	l.Append(a)

	if !l.EditText(a.ID, "edited") {
		t.Error("Expected edit with new text to report a change")
	}
	if l.EditText(a.ID, "edited") {
		t.Error("Expected edit with identical text to be a no-op")
	}
	if got := l.Get(a.ID).Text; got != "edited" {
		t.Errorf("Expected text 'edited', got %q", got)
	}
}

type recordingNotifier struct {
	added    int
	replaced int
}

func (n *recordingNotifier) StepAdded(*step.Step)       { n.added++ }
func (n *recordingNotifier) StepsReplaced([]*step.Step) { n.replaced++ }

// TestNotifierEvents tests that appends notify individually and mutations resync.
func TestNotifierEvents(t *testing.T) {
	n := &recordingNotifier{}
	l := New(n)

	a := newStep("a")
	l.Append(a)
	l.Append(newStep("b"))
	if n.added != 2 {
		t.Errorf("Expected 2 StepAdded events, got %d", n.added)
	}

	l.MoveUp(1)
	l.Remove(a.ID)
	if n.replaced != 2 {
		t.Errorf("Expected 2 StepsReplaced events, got %d", n.replaced)
	}
}
