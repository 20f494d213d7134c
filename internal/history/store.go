package history

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/reqdeck/reqdeck/internal/errdef"
)

type Entry struct {
	ID          string        `json:"id"`
	ExecutedAt  time.Time     `json:"executedAt"`
	RequestName string        `json:"requestName,omitempty"`
	Method      string        `json:"method"`
	URL         string        `json:"url"`
	Status      string        `json:"status,omitempty"`
	StatusCode  int           `json:"statusCode,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Error       string        `json:"error,omitempty"`
	// ScriptOutcome is empty when no post-script ran, "ok" on success, or the
	// failure kind and message otherwise.
	ScriptOutcome string `json:"scriptOutcome,omitempty"`
}

// Store keeps the most recent exchanges in one JSON file, newest first.
type Store struct {
	path       string
	maxEntries int
	entries    []Entry
	mu         sync.RWMutex
	loaded     bool
}

func NewStore(path string, maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	return &Store{path: path, maxEntries: maxEntries}
}

func (s *Store) Append(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return err
	}

	s.entries = append([]Entry{entry}, s.entries...)
	s.sortEntriesLocked()
	if len(s.entries) > s.maxEntries {
		s.entries = s.entries[:s.maxEntries]
	}
	return s.persist()
}

func (s *Store) Entries() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	copies := make([]Entry, len(s.entries))
	copy(copies, s.entries)
	return copies, nil
}

func (s *Store) ByRequest(name string) ([]Entry, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return entries, nil
	}

	var matched []Entry
	for _, entry := range entries {
		if entry.RequestName == name || entry.URL == name {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

func (s *Store) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "create history dir")
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return errdef.Wrap(errdef.CodeStorage, err, "encode history")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "write history tmp")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "replace history file")
	}
	return nil
}

func (s *Store) sortEntriesLocked() {
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].ExecutedAt.After(s.entries[j].ExecutedAt)
	})
}

func (s *Store) ensureLoadedLocked() error {
	if s.loaded {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.entries = []Entry{}
			s.loaded = true
			return nil
		}
		return errdef.Wrap(errdef.CodeStorage, err, "read history")
	}
	if len(data) == 0 {
		s.entries = []Entry{}
		s.loaded = true
		return nil
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return errdef.Wrap(errdef.CodeStorage, err, "parse history")
	}

	s.sortEntriesLocked()
	s.loaded = true
	return nil
}
