package state

import (
	"context"
	"errors"
	"sync"
)

// Фиксированные ключи снапшотов, по одному на стор.
const (
	EnrollmentSnapshotKey = "state:enrollments"
	ProgressSnapshotKey   = "state:progress"
)

// ErrNoSnapshot возвращается слотом, если по ключу еще ничего не сохраняли.
var ErrNoSnapshot = errors.New("snapshot not found")

// Slot — durable key -> JSON-blob хранилище для снапшотов сторов.
// Читается один раз при старте, пишется на каждой мутации.
type Slot interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// MemorySlot — слот в памяти, для тестов и локального запуска без Redis.
type MemorySlot struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{blobs: make(map[string][]byte)}
}

func (s *MemorySlot) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, ErrNoSnapshot
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemorySlot) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(data))
	copy(out, data)
	s.blobs[key] = out
	return nil
}
