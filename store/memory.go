// Package store implements the docpad annotation store backends.
package store

import (
	"sync"
	"time"

	"github.com/orian/docpad/models"
)

// MemoryStore keeps every version in process memory for the lifetime of the
// session.
type MemoryStore struct {
	mu       sync.Mutex
	order    []string
	versions map[string]*models.Version
	images   *ImageIngester
	now      func() time.Time
}

// NewMemoryStore creates an empty store. A nil ingester keeps images in memory.
func NewMemoryStore(images *ImageIngester) *MemoryStore {
	if images == nil {
		images = NewImageIngester("")
	}
	return &MemoryStore{
		versions: make(map[string]*models.Version),
		images:   images,
		now:      time.Now,
	}
}

// version returns the version for id, registering it first if needed.
// Callers hold s.mu.
func (s *MemoryStore) version(id string) *models.Version {
	if v, ok := s.versions[id]; ok {
		return v
	}
	v := &models.Version{ID: id, CreatedAt: s.now()}
	s.versions[id] = v
	s.order = append(s.order, id)
	return v
}

func (s *MemoryStore) EnsureVersion(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version(id)
	return nil
}

func (s *MemoryStore) AppendLink(id, link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.version(id)
	v.Links = append(v.Links, link)
	return nil
}

func (s *MemoryStore) AppendText(id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.version(id)
	v.Texts = append(v.Texts, text)
	return nil
}

func (s *MemoryStore) AppendCode(id, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.version(id)
	v.Codes = append(v.Codes, code)
	return nil
}

func (s *MemoryStore) AppendTerminalLog(id, log string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.version(id)
	v.TerminalLogs = append(v.TerminalLogs, log)
	return nil
}

func (s *MemoryStore) SetInterpreterInfo(id, version string, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.version(id)
	v.Interpreter = &models.InterpreterInfo{Version: version, CreatedAt: createdAt}
	return nil
}

// AppendImage decodes and optionally persists the upload before taking the
// lock; the version is only created once the image is accepted.
func (s *MemoryStore) AppendImage(id string, upload models.ImageUpload) (models.ImageRef, error) {
	ref, err := s.images.Ingest(id, upload)
	if err != nil {
		return models.ImageRef{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.version(id)
	v.Images = append(v.Images, ref)
	return ref.Clone(), nil
}

func (s *MemoryStore) AppendFile(id string, upload models.FileUpload) (models.FileRef, error) {
	ref, err := s.images.IngestFile(id, upload)
	if err != nil {
		return models.FileRef{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.version(id)
	v.Files = append(v.Files, ref)
	return ref.Clone(), nil
}

func (s *MemoryStore) Snapshot() (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &models.Snapshot{
		Versions: make([]models.Version, 0, len(s.order)),
		TakenAt:  s.now(),
	}
	for _, id := range s.order {
		snap.Versions = append(snap.Versions, s.versions[id].Clone())
	}
	return snap, nil
}

func (s *MemoryStore) ListVersions() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.order...), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
