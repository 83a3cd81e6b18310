package matchmaker

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

type memRepo struct {
	mu      sync.Mutex
	pools   map[string]map[string]Ticket // key -> ticket id -> ticket
	tickets map[string]string            // ticket id -> key
	assign  map[string]Assignment
}

func NewMemoryRepo() Repo {
	return &memRepo{
		pools:   make(map[string]map[string]Ticket),
		tickets: make(map[string]string),
		assign:  make(map[string]Assignment),
	}
}

func memKey(pool string, tableSize int) string {
	return fmt.Sprintf("mm:pool:%s:%d", pool, tableSize)
}

func (m *memRepo) Enqueue(ctx context.Context, t Ticket, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(t.Pool, t.TableSize)
	if _, ok := m.pools[key]; !ok {
		m.pools[key] = make(map[string]Ticket)
	}
	m.pools[key][t.ID] = t
	m.tickets[t.ID] = key
	// 内存版忽略 TTL
	return nil
}

func (m *memRepo) PopNRandom(ctx context.Context, pool string, tableSize int, n int) ([]Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memKey(pool, tableSize)
	s := m.pools[key]
	all := make([]Ticket, 0, len(s))
	for _, t := range s {
		all = append(all, t)
	}
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if n > len(all) {
		n = len(all)
	}
	chosen := all[:n]

	for _, t := range chosen {
		delete(s, t.ID)
		delete(m.tickets, t.ID)
	}
	// ✅ 池空时清理（与 Redis 行为对齐）
	if len(s) == 0 {
		delete(m.pools, key)
	}
	return chosen, nil
}

func (m *memRepo) Remove(ctx context.Context, ticket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.tickets[ticket]
	if !ok {
		return nil
	}
	if s, ok := m.pools[key]; ok {
		delete(s, ticket)
		if len(s) == 0 {
			delete(m.pools, key)
		}
	}
	delete(m.tickets, ticket)
	return nil
}

func (m *memRepo) Count(ctx context.Context, pool string, tableSize int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.pools[memKey(pool, tableSize)])), nil
}

func (m *memRepo) SaveAssignment(ctx context.Context, a Assignment, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assign[a.Ticket] = a
	return nil
}

func (m *memRepo) Assignment(ctx context.Context, ticket string) (Assignment, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assign[ticket]
	return a, ok, nil
}

func (m *memRepo) DeleteAssignment(ctx context.Context, ticket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.assign, ticket)
	return nil
}
