package storage

import (
	"context"

	"github.com/natsmesh/natsmesh/internal/domain"
)

// Storage defines the interface for the storage layer.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Close closes the storage connection.
	Close() error

	// API Keys
	CreateAPIKey(ctx context.Context, key *domain.APIKey) error
	GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error)
	ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error)
	DeleteAPIKey(ctx context.Context, id string) error
	UpdateAPIKeyLastUsed(ctx context.Context, id string) error
	CountAPIKeys(ctx context.Context) (int, error)

	// Topology documents
	CreateTopology(ctx context.Context, record *domain.TopologyRecord) error
	GetTopology(ctx context.Context, id string) (*domain.TopologyRecord, error)
	GetTopologyByName(ctx context.Context, name string) (*domain.TopologyRecord, error)
	ListTopologies(ctx context.Context) ([]*domain.TopologyRecord, error)
	UpdateTopology(ctx context.Context, record *domain.TopologyRecord) error
	DeleteTopology(ctx context.Context, id string) error

	// Generation runs
	CreateRun(ctx context.Context, run *domain.GenerationRun) error
	GetRun(ctx context.Context, id string) (*domain.GenerationRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*domain.GenerationRun, error)
	ListRunsForTopology(ctx context.Context, topologyID string) ([]*domain.GenerationRun, error)
	UpdateRun(ctx context.Context, run *domain.GenerationRun) error
}
