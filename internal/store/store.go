package store

import (
	"context"
	"sync"
)

// Store is the execution-run log. Postgres and Memory implement it.
type Store interface {
	Close()
	SaveRun(ctx context.Context, r Run) error
	RecentRuns(ctx context.Context, limit int) ([]Run, error)
}

// Memory keeps the most recent runs in a bounded ring. Used when no
// PG_URL is configured.
type Memory struct {
	mu   sync.RWMutex
	runs []Run
	cap  int
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 256
	}
	return &Memory{cap: capacity}
}

func (m *Memory) Close() {}

func (m *Memory) SaveRun(_ context.Context, r Run) error {
	m.mu.Lock()
	m.runs = append(m.runs, r)
	if len(m.runs) > m.cap {
		m.runs = m.runs[len(m.runs)-m.cap:]
	}
	m.mu.Unlock()
	return nil
}

// RecentRuns returns up to limit runs, newest first
func (m *Memory) RecentRuns(_ context.Context, limit int) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.runs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Run, 0, n)
	for i := len(m.runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}
