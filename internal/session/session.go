// Package session owns the open project: the step ledger, the archive
// store and the autosave coordinator. All ledger access happens on a single
// run-loop goroutine fed by a command channel; the hook thread and the UI
// collaborators never touch shared state directly.
package session

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"bsr/internal/autosave"
	"bsr/internal/ledger"
	"bsr/internal/project"
	"bsr/internal/step"
)

// Listener observes session state for a display surface. Callbacks run on
// the session loop and must not call back into the session synchronously.
type Listener interface {
	StepAdded(s *step.Step)
	StepsReplaced(ordered []*step.Step)
	RecordingChanged(recording bool)
	SyncError(err error)
}

// Session is the owning context injected into the hook pipeline, the tray,
// and the web UI.
type Session struct {
	ledger *ledger.Ledger
	saver  *autosave.Coordinator

	steps     chan *step.Step
	cmds      chan func()
	quit      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	// Loop-owned state.
	store     *project.Store
	recording bool

	lmu       sync.Mutex
	listeners []Listener
}

// New creates a session with no project attached and starts its run loop.
func New() *Session {
	s := &Session{
		steps: make(chan *step.Step, 64),
		cmds:  make(chan func(), 16),
		quit:  make(chan struct{}),
	}
	s.ledger = ledger.New(notifier{s})
	s.saver = autosave.New(s.scheduleSync)
	s.wg.Add(1)
	go s.loop()
	return s
}

// AddListener registers a display listener.
func (s *Session) AddListener(l Listener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Close stops the run loop. Any pending autosave is written out on the
// loop before it exits. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.call(func() {
			s.saver.Stop()
			s.syncLocked()
		})
		close(s.quit)
		s.wg.Wait()
	})
}

// loop is the single owner of the ledger and the store.
func (s *Session) loop() {
	defer s.wg.Done()
	for {
		select {
		case st := <-s.steps:
			s.ledger.Append(st)
			s.saver.Schedule()
		case fn := <-s.cmds:
			fn()
		case <-s.quit:
			return
		}
	}
}

// call runs fn on the loop and waits for it.
func (s *Session) call(fn func()) {
	done := make(chan struct{})
	select {
	case s.cmds <- func() { fn(); close(done) }:
		<-done
	case <-s.quit:
	}
}

// TryEnqueueStep hands a captured step to the session without blocking.
// Called from the hook pipeline; returns false if the queue is full.
func (s *Session) TryEnqueueStep(st *step.Step) bool {
	select {
	case s.steps <- st:
		return true
	default:
		return false
	}
}

// Snapshot returns copies of the steps in ledger order. Copying keeps
// readers on other goroutines from observing a text edit applied on the
// loop after the snapshot was taken. Screenshot bytes are write-once and
// stay shared.
func (s *Session) Snapshot() []*step.Step {
	var out []*step.Step
	s.call(func() {
		for _, st := range s.ledger.Snapshot() {
			out = append(out, st.Clone())
		}
	})
	return out
}

// MoveUp moves the selected indices one position toward the front.
func (s *Session) MoveUp(indices ...int) {
	s.call(func() {
		s.ledger.MoveUp(indices...)
		s.saver.Schedule()
	})
}

// MoveDown moves the selected indices one position toward the back.
func (s *Session) MoveDown(indices ...int) {
	s.call(func() {
		s.ledger.MoveDown(indices...)
		s.saver.Schedule()
	})
}

// MoveUpByID moves the identified steps one position toward the front.
// Ids resolve to positions inside the same loop command that applies the
// move, so a mutation landing in between cannot shift the targets. Any
// unknown id aborts the whole move; the unknown ids are returned.
func (s *Session) MoveUpByID(ids ...uuid.UUID) []uuid.UUID {
	return s.moveByID(true, ids)
}

// MoveDownByID is MoveUpByID toward the back.
func (s *Session) MoveDownByID(ids ...uuid.UUID) []uuid.UUID {
	return s.moveByID(false, ids)
}

func (s *Session) moveByID(up bool, ids []uuid.UUID) []uuid.UUID {
	var missing []uuid.UUID
	s.call(func() {
		ordered := s.ledger.Snapshot()
		byID := make(map[uuid.UUID]int, len(ordered))
		for i, st := range ordered {
			byID[st.ID] = i
		}
		indices := make([]int, 0, len(ids))
		for _, id := range ids {
			idx, ok := byID[id]
			if !ok {
				missing = append(missing, id)
				continue
			}
			indices = append(indices, idx)
		}
		if len(missing) > 0 {
			return
		}
		if up {
			s.ledger.MoveUp(indices...)
		} else {
			s.ledger.MoveDown(indices...)
		}
		s.saver.Schedule()
	})
	return missing
}

// Remove deletes the given steps and returns ids that were not found.
func (s *Session) Remove(ids ...uuid.UUID) []uuid.UUID {
	var missing []uuid.UUID
	s.call(func() {
		missing = s.ledger.Remove(ids...)
		s.saver.Schedule()
	})
	return missing
}

// Reorder moves a step to targetIndex (drag-and-drop).
func (s *Session) Reorder(id uuid.UUID, targetIndex int) bool {
	var ok bool
	s.call(func() {
		ok = s.ledger.Reorder(id, targetIndex)
		if ok {
			s.saver.Schedule()
		}
	})
	return ok
}

// EditText updates a step's narrative text. Unchanged text does not
// schedule an autosave.
func (s *Session) EditText(id uuid.UUID, text string) {
	s.call(func() {
		if s.ledger.EditText(id, text) {
			s.saver.Schedule()
		}
	})
}

// NewProject starts a fresh empty archive at path and clears the ledger.
func (s *Session) NewProject(path string) error {
	var err error
	s.call(func() {
		store := project.New(path)
		if err = store.Create(); err != nil {
			return
		}
		s.store = store
		s.ledger.Replace(nil)
	})
	return err
}

// OpenProject loads the archive at path into the ledger. A corrupt
// individual record is skipped, not fatal; the returned result reports how
// many were skipped. Legacy-keyed archives are rewritten under id keys
// right after loading.
func (s *Session) OpenProject(path string) (*project.OpenResult, error) {
	var res *project.OpenResult
	var err error
	s.call(func() {
		store := project.New(path)
		res, err = store.Open()
		if err != nil {
			return
		}
		s.store = store
		s.ledger.Replace(res.Steps)
		if res.Migrated > 0 {
			log.Printf("session: migrating %d legacy records to id keys", res.Migrated)
			s.syncLocked()
		}
	})
	return res, err
}

// ProjectPath returns the current archive path, or "".
func (s *Session) ProjectPath() string {
	var p string
	s.call(func() {
		if s.store != nil {
			p = s.store.Path()
		}
	})
	return p
}

// SaveNow persists immediately, bypassing the debounce window.
func (s *Session) SaveNow() error {
	var err error
	s.call(func() {
		s.saver.Stop()
		err = s.syncLocked()
	})
	return err
}

// SaveAs rebinds the session to a new archive path and persists there.
func (s *Session) SaveAs(path string) error {
	var err error
	s.call(func() {
		s.store = project.New(path)
		err = s.syncLocked()
	})
	return err
}

// SetRecording adjusts the autosave window for the armed period and tells
// listeners about the state change.
func (s *Session) SetRecording(recording bool) {
	s.call(func() {
		s.recording = recording
		if recording {
			s.saver.SetDelay(autosave.RecordingDelay)
		} else {
			s.saver.SetDelay(autosave.DefaultDelay)
		}
	})
	s.lmu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.lmu.Unlock()
	for _, l := range listeners {
		l.RecordingChanged(recording)
	}
}

// Recording reports the last state set via SetRecording.
func (s *Session) Recording() bool {
	var r bool
	s.call(func() { r = s.recording })
	return r
}

// scheduleSync is the autosave fire handler. It runs on the timer
// goroutine, so the actual sync is routed back onto the loop.
func (s *Session) scheduleSync() {
	select {
	case s.cmds <- func() { s.syncLocked() }:
	case <-s.quit:
	}
}

// syncLocked persists the ledger to the store. Must run on the loop. A
// failed sync never rolls back the ledger: the user's edits stay live and
// the next save can succeed.
func (s *Session) syncLocked() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Sync(s.ledger.Snapshot()); err != nil {
		err = fmt.Errorf("save failed: %w", err)
		log.Printf("session: %v", err)
		s.lmu.Lock()
		listeners := append([]Listener(nil), s.listeners...)
		s.lmu.Unlock()
		for _, l := range listeners {
			l.SyncError(err)
		}
		return err
	}
	return nil
}

// notifier adapts the session's listener fan-out to the ledger's notifier
// interface. Ledger notifications always arrive on the loop goroutine.
type notifier struct {
	s *Session
}

func (n notifier) StepAdded(st *step.Step) {
	n.s.lmu.Lock()
	listeners := append([]Listener(nil), n.s.listeners...)
	n.s.lmu.Unlock()
	for _, l := range listeners {
		l.StepAdded(st)
	}
}

func (n notifier) StepsReplaced(ordered []*step.Step) {
	n.s.lmu.Lock()
	listeners := append([]Listener(nil), n.s.listeners...)
	n.s.lmu.Unlock()
	for _, l := range listeners {
		l.StepsReplaced(ordered)
	}
}
