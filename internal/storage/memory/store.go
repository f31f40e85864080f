package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/natsmesh/natsmesh/internal/domain"
)

// Store is an in-memory implementation of the storage interface for testing.
type Store struct {
	mu sync.RWMutex

	apiKeys    map[string]*domain.APIKey
	topologies map[string]*domain.TopologyRecord
	runs       map[string]*domain.GenerationRun
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		apiKeys:    make(map[string]*domain.APIKey),
		topologies: make(map[string]*domain.TopologyRecord),
		runs:       make(map[string]*domain.GenerationRun),
	}
}

func (s *Store) Close() error { return nil }

// ============================================
// API Keys
// ============================================

func (s *Store) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apiKeys[key.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.apiKeys[key.ID] = key
	return nil
}

func (s *Store) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range s.apiKeys {
		if key.KeyHash == keyHash {
			return key, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]*domain.APIKey, 0, len(s.apiKeys))
	for _, key := range s.apiKeys {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].CreatedAt.After(keys[j].CreatedAt) })
	return keys, nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apiKeys[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.apiKeys, id)
	return nil
}

func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.apiKeys[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	key.LastUsedAt = &now
	return nil
}

func (s *Store) CountAPIKeys(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.apiKeys), nil
}

// ============================================
// Topology documents
// ============================================

func (s *Store) CreateTopology(ctx context.Context, record *domain.TopologyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.topologies[record.ID]; ok {
		return domain.ErrAlreadyExists
	}
	for _, existing := range s.topologies {
		if existing.Name == record.Name {
			return domain.ErrAlreadyExists
		}
	}
	s.topologies[record.ID] = record
	return nil
}

func (s *Store) GetTopology(ctx context.Context, id string) (*domain.TopologyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.topologies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

func (s *Store) GetTopologyByName(ctx context.Context, name string) (*domain.TopologyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.topologies {
		if record.Name == name {
			return record, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) ListTopologies(ctx context.Context) ([]*domain.TopologyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]*domain.TopologyRecord, 0, len(s.topologies))
	for _, record := range s.topologies {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(records[j].CreatedAt) })
	return records, nil
}

func (s *Store) UpdateTopology(ctx context.Context, record *domain.TopologyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.topologies[record.ID]; !ok {
		return domain.ErrNotFound
	}
	s.topologies[record.ID] = record
	return nil
}

func (s *Store) DeleteTopology(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.topologies[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.topologies, id)
	return nil
}

// ============================================
// Generation runs
// ============================================

func (s *Store) CreateRun(ctx context.Context, run *domain.GenerationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.runs[run.ID] = run
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*domain.GenerationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return run, nil
}

func (s *Store) ListRuns(ctx context.Context, limit, offset int) ([]*domain.GenerationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]*domain.GenerationRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	if offset >= len(runs) {
		return nil, nil
	}
	runs = runs[offset:]
	if limit > 0 && limit < len(runs) {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *Store) ListRunsForTopology(ctx context.Context, topologyID string) ([]*domain.GenerationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var runs []*domain.GenerationRun
	for _, run := range s.runs {
		if run.TopologyID == topologyID {
			runs = append(runs, run)
		}
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	return runs, nil
}

func (s *Store) UpdateRun(ctx context.Context, run *domain.GenerationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		return domain.ErrNotFound
	}
	s.runs[run.ID] = run
	return nil
}
