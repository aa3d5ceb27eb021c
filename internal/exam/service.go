package exam

import (
	"context"
	"sync"

	"github.com/mind-engage/mindengage-results/internal/apperr"
	"github.com/mind-engage/mindengage-results/internal/rbac"
)

// MemoryStore is a Store kept in process memory, for tests and offline
// previews.
type MemoryStore struct {
	mu      sync.RWMutex
	exams   map[string]Exam
	configs map[string]Configs
}

func NewInMemoryStore() *MemoryStore {
	return &MemoryStore{
		exams:   map[string]Exam{},
		configs: map[string]Configs{},
	}
}

func (m *MemoryStore) PutExam(e Exam) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exams[e.ID] = e
	if m.configs[e.ID] == nil {
		m.configs[e.ID] = Configs{}
	}
}

func (m *MemoryStore) GetExam(_ context.Context, id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, apperr.NotFound("exam %s not found", id)
	}
	return e, nil
}

func (m *MemoryStore) IsLocked(ctx context.Context, examID string) (bool, error) {
	e, err := m.GetExam(ctx, examID)
	if err != nil {
		return false, err
	}
	return e.IsLocked, nil
}

func (m *MemoryStore) ConfigFor(_ context.Context, examID string) (Configs, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.exams[examID]; !ok {
		return nil, apperr.NotFound("exam %s not found", examID)
	}
	out := make(Configs, len(m.configs[examID]))
	for k, v := range m.configs[examID] {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) SetComponent(_ context.Context, actor rbac.Actor, examID string, cfg ComponentConfig) error {
	if err := ValidateComponent(cfg); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[examID]
	if !ok {
		return apperr.NotFound("exam %s not found", examID)
	}
	if e.IsLocked && !actor.Can("marks:correct") {
		return apperr.Conflict("exam %s is locked", examID)
	}
	m.configs[examID][cfg.Code] = cfg
	return nil
}

func (m *MemoryStore) Lock(_ context.Context, examID string, publishedAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[examID]
	if !ok {
		return apperr.NotFound("exam %s not found", examID)
	}
	e.IsLocked = true
	e.PublishedAt = &publishedAt
	m.exams[examID] = e
	return nil
}
