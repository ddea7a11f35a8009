// Package project persists the step ledger into a zip-based project file.
// Each step is one JSON record under events/, keyed by the step's id. The
// archive is only held open for the duration of each call, so the file can
// be copied or inspected between autosaves.
package project

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"bsr/internal/step"
)

// Extension is the project file extension.
const Extension = ".bsr"

const (
	entryPrefix = "events/"
	entrySuffix = ".json"
)

var (
	// ErrNotFound indicates the project file does not exist.
	ErrNotFound = errors.New("project file not found")
	// ErrCorruptArchive indicates the container itself could not be read.
	ErrCorruptArchive = errors.New("project file is not a valid archive")
)

// Store reads and writes one project archive.
type Store struct {
	path string
}

// New returns a store bound to path. The file need not exist yet.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the archive path.
func (s *Store) Path() string {
	return s.path
}

// Create writes a fresh empty archive at the store's path.
func (s *Store) Create() error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	zw := zip.NewWriter(f)
	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("create project: %w", err)
	}
	return f.Close()
}

// OpenResult is the outcome of loading an archive. Skipped lists entries
// that were present but not deserializable; loading proceeds past them so a
// single corrupt record does not lose the rest of the project. Migrated
// counts records stored under a legacy step-number key; callers should sync
// once after loading to rewrite them under id keys.
type OpenResult struct {
	Steps    []*step.Step
	Skipped  []string
	Migrated int
}

// Open loads all step records, sorted by step number ascending. Entry order
// inside the archive carries no meaning.
func (s *Store) Open() (*OpenResult, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("open project: %w", err)
	}

	zr, err := zip.OpenReader(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	defer zr.Close()

	res := &OpenResult{}
	for _, entry := range zr.File {
		if !isRecordEntry(entry.Name) {
			continue
		}
		st, err := readRecord(entry)
		if err != nil {
			log.Printf("project: skipping corrupt record %s: %v", entry.Name, err)
			res.Skipped = append(res.Skipped, entry.Name)
			continue
		}
		if st.ID == uuid.Nil {
			// Records from before ids existed; give them one now.
			st.ID = uuid.New()
			res.Migrated++
		} else if entry.Name != recordName(st.ID) {
			res.Migrated++
		}
		res.Steps = append(res.Steps, st)
	}

	sort.SliceStable(res.Steps, func(i, j int) bool {
		return res.Steps[i].Number < res.Steps[j].Number
	})
	return res, nil
}

// Sync makes the archive's record set exactly match steps: every step gets
// a current record and every record without a matching step is pruned. The
// new archive is written to a temporary sibling and renamed into place, so
// a sync is all-or-nothing.
func (s *Store) Sync(steps []*step.Step) error {
	stale, err := s.existingEntries()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".bsr-sync-*")
	if err != nil {
		return fmt.Errorf("sync project: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	zw := zip.NewWriter(tmp)
	for _, st := range steps {
		name := recordName(st.ID)
		delete(stale, name)
		w, err := zw.Create(name)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("sync project: %w", err)
		}
		enc := json.NewEncoder(w)
		if err := enc.Encode(st); err != nil {
			tmp.Close()
			return fmt.Errorf("sync project: encode %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync project: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("sync project: %w", err)
	}

	if len(stale) > 0 {
		log.Printf("project: pruning %d stale entries", len(stale))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("sync project: %w", err)
	}
	return nil
}

// existingEntries returns the record entry names currently in the archive.
func (s *Store) existingEntries() (map[string]bool, error) {
	zr, err := zip.OpenReader(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	defer zr.Close()

	names := make(map[string]bool, len(zr.File))
	for _, entry := range zr.File {
		names[entry.Name] = true
	}
	return names, nil
}

func recordName(id uuid.UUID) string {
	return entryPrefix + "event_" + id.String() + entrySuffix
}

func isRecordEntry(name string) bool {
	return path.Dir(name) == strings.TrimSuffix(entryPrefix, "/") &&
		strings.HasSuffix(strings.ToLower(name), entrySuffix)
}

func readRecord(entry *zip.File) (*step.Step, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	var st step.Step
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
