package queuestore

import (
	"sync"

	"github.com/jhoicas/inventario-scan/internal/domain/entity"
)

// MemoryStore cola en memoria, sin durabilidad. Para pruebas y herramientas.
type MemoryStore struct {
	*core
	mem *memBackend
}

// NewMemoryStore construye una cola vacía.
func NewMemoryStore() *MemoryStore {
	mem := &memBackend{}
	return &MemoryStore{core: newCore(mem), mem: mem}
}

// SetLoadError hace que toda lectura posterior falle con err (nil restablece).
// Simula una cola ilegible sin tocar su contenido.
func (s *MemoryStore) SetLoadError(err error) {
	s.mem.mu.Lock()
	defer s.mem.mu.Unlock()
	s.mem.loadErr = err
}

type memBackend struct {
	mu      sync.Mutex
	records []entity.QueuedMovement
	loadErr error
}

func (m *memBackend) lock(bool) (func(), error) { return func() {}, nil }

func (m *memBackend) load() ([]entity.QueuedMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]entity.QueuedMovement, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *memBackend) save(records []entity.QueuedMovement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make([]entity.QueuedMovement, len(records))
	copy(m.records, records)
	return nil
}
