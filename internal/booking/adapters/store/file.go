// Package store persists the whole booking document as one flat JSON file,
// rewritten wholesale on every mutation (lowdb-style). A single mutex
// serializes all read-modify-write sequences so concurrent mutations cannot
// interleave and lose updates.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/BRAITOU555/reservationvtc6/internal/booking/domain"
)

type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

var _ domain.Store = (*FileStore)(nil)

func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Load returns the persisted document. A missing or malformed file yields
// an empty default document rather than an error; only I/O faults surface.
func (s *FileStore) Load(ctx context.Context) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Mutate applies fn to the current document and durably persists the result
// before returning. The document is not modified on disk if fn errors.
func (s *FileStore) Mutate(ctx context.Context, fn func(doc *domain.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	return s.persist(doc)
}

func (s *FileStore) read() (domain.Document, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return domain.NewDocument(), nil
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: read %s: %v", domain.ErrPersistence, s.path, err)
	}

	doc := domain.NewDocument()
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		if s.logger != nil {
			s.logger.Warn("store file malformed, starting from empty document",
				"action", "store_load_malformed", "path", s.path, "error", err.Error())
		}
		return domain.NewDocument(), nil
	}
	// tolerate documents written with null collections
	if doc.Reservations == nil {
		doc.Reservations = []domain.Reservation{}
	}
	if doc.Drivers == nil {
		doc.Drivers = []domain.Driver{}
	}
	if doc.Admins == nil {
		doc.Admins = []domain.Admin{}
	}
	return doc, nil
}

// persist writes the full document to a temp file, fsyncs and renames it
// into place so a crash mid-write never leaves a truncated store.
func (s *FileStore) persist(doc domain.Document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal document: %v", domain.ErrPersistence, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", domain.ErrPersistence, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write temp file: %v", domain.ErrPersistence, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: sync temp file: %v", domain.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %v", domain.ErrPersistence, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename into place: %v", domain.ErrPersistence, err)
	}
	return nil
}
