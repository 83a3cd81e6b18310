package repository

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"SequenceGame/internal/game/engine"

	"github.com/google/uuid"
)

type memRepo struct {
	mu    sync.Mutex
	games map[uuid.UUID][]byte // id -> JSON 快照
}

// NewMemoryRepo 进程内实现。存编码后的字节，读出的快照与存入的对象互不影响。
func NewMemoryRepo() Repo {
	return &memRepo{games: make(map[uuid.UUID][]byte)}
}

func (m *memRepo) Save(ctx context.Context, s *engine.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[s.ID] = data
	return nil
}

func (m *memRepo) Load(ctx context.Context, id uuid.UUID) (*engine.Snapshot, error) {
	m.mu.Lock()
	data, ok := m.games[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	var s engine.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *memRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, id)
	return nil
}

func (m *memRepo) List(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, compareIDs)
	return ids, nil
}
