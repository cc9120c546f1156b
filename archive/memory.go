package archive

import (
	"bytes"
	"sync"

	"github.com/ipfs/go-cid"
)

// MemoryStore is an in-process archive. Safe for concurrent use.
//
// Primarily for tests and the CLI demo, but also the building block for a
// write-through cache in front of a remote archive.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[cid.Cid][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[cid.Cid][]byte)}
}

func (m *MemoryStore) Put(b []byte) (cid.Cid, error) {
	id, err := CIDFor(b)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, ErrInvalidCID
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.objects[id]; ok {
		if !bytes.Equal(existing, b) {
			return cid.Undef, ErrImmutable
		}
		return id, nil
	}
	stored := make([]byte, len(b))
	copy(stored, b)
	m.objects[id] = stored
	return id, nil
}

func (m *MemoryStore) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidCID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *MemoryStore) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[id]
	return ok
}

var _ Store = (*MemoryStore)(nil)
