package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/dataclean-cli/internal/analysis"
	"github.com/KaramelBytes/dataclean-cli/internal/utils"
)

const runExt = ".json"

// ErrNotFound is returned when no run matches an ID.
var ErrNotFound = errors.New("run not found")

// Run is one persisted profiling result.
type Run struct {
	ID        string           `json:"id"`
	Source    string           `json:"source"`
	Command   string           `json:"command"`
	Summary   analysis.Summary `json:"summary"`
	Report    string           `json:"report,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// NewRun builds an unsaved run with a fresh ID.
func NewRun(source, command string, s analysis.Summary) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Source:    source,
		Command:   command,
		Summary:   s,
		Report:    s.Text(),
		CreatedAt: time.Now().UTC(),
	}
}

// Store keeps runs as one JSON file each under a directory.
type Store struct {
	dir string
}

// Open returns a store rooted at dir, creating it when missing.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("store directory not set")
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("ensure store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the on-disk location.
func (s *Store) Dir() string { return s.dir }

// Save writes the run atomically.
func (s *Store) Save(r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	data, err := utils.PrettyJSON(r)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(s.dir, r.ID+runExt), data)
}

// Load reads a run by full ID or unique ID prefix.
func (s *Store) Load(id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("load run: %w", ErrNotFound)
	}
	path := filepath.Join(s.dir, id+runExt)
	if _, err := uuid.Parse(id); err != nil {
		match, err := s.resolvePrefix(id)
		if err != nil {
			return nil, err
		}
		path = match
	}
	return readRun(path)
}

func (s *Store) resolvePrefix(prefix string) (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("read store: %w", err)
	}
	var found []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), runExt) && strings.HasPrefix(e.Name(), prefix) {
			found = append(found, filepath.Join(s.dir, e.Name()))
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("run %q: %w", prefix, ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("run prefix %q is ambiguous (%d matches)", prefix, len(found))
	}
}

func readRun(path string) (*Run, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("run %s: %w", filepath.Base(path), ErrNotFound)
		}
		return nil, fmt.Errorf("read run: %w", err)
	}
	var r Run
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse run: %w", err)
	}
	return &r, nil
}

// List returns every stored run, newest first. Unreadable files are skipped.
func (s *Store) List() ([]*Run, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	var runs []*Run
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), runExt) {
			continue
		}
		r, err := readRun(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	return runs, nil
}

// Delete removes a run by ID.
func (s *Store) Delete(id string) error {
	err := os.Remove(filepath.Join(s.dir, id+runExt))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return err
}
