package sql

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/natsmesh/natsmesh/internal/domain"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// isUniqueViolation checks if an error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// SQLite
	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return true
	}
	// PostgreSQL
	if strings.Contains(errStr, "duplicate key value violates unique constraint") {
		return true
	}
	return false
}

// wrapUniqueError converts UNIQUE violations to domain.ErrAlreadyExists.
func wrapUniqueError(err error) error {
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// Store implements the storage interface using SQL.
type Store struct {
	db     *sqlx.DB
	driver string
}

// New creates a new SQL store.
func New(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Run migrations
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(driver); err != nil {
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ============================================
// API Keys
// ============================================

func (s *Store) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, created_at, last_used_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.CreatedAt, key.LastUsedAt)
	return wrapUniqueError(err)
}

func (s *Store) GetAPIKeyByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	var key domain.APIKey
	err := s.db.GetContext(ctx, &key,
		`SELECT id, name, key_hash, key_prefix, created_at, last_used_at FROM api_keys WHERE key_hash = $1`, keyHash)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return &key, err
}

func (s *Store) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	var keys []*domain.APIKey
	err := s.db.SelectContext(ctx, &keys,
		`SELECT id, name, key_hash, key_prefix, created_at, last_used_at FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = $1 WHERE id = $2`, time.Now(), id)
	return err
}

func (s *Store) CountAPIKeys(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM api_keys`)
	return count, err
}

// ============================================
// Topology documents
// ============================================

func (s *Store) CreateTopology(ctx context.Context, record *domain.TopologyRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO topologies (id, name, document, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		record.ID, record.Name, record.Document, record.CreatedAt, record.UpdatedAt)
	return wrapUniqueError(err)
}

func (s *Store) GetTopology(ctx context.Context, id string) (*domain.TopologyRecord, error) {
	var record domain.TopologyRecord
	err := s.db.GetContext(ctx, &record,
		`SELECT id, name, document, created_at, updated_at FROM topologies WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return &record, err
}

func (s *Store) GetTopologyByName(ctx context.Context, name string) (*domain.TopologyRecord, error) {
	var record domain.TopologyRecord
	err := s.db.GetContext(ctx, &record,
		`SELECT id, name, document, created_at, updated_at FROM topologies WHERE name = $1`, name)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return &record, err
}

func (s *Store) ListTopologies(ctx context.Context) ([]*domain.TopologyRecord, error) {
	var records []*domain.TopologyRecord
	err := s.db.SelectContext(ctx, &records,
		`SELECT id, name, document, created_at, updated_at FROM topologies ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) UpdateTopology(ctx context.Context, record *domain.TopologyRecord) error {
	record.UpdatedAt = time.Now()
	result, err := s.db.ExecContext(ctx,
		`UPDATE topologies SET name = $1, document = $2, updated_at = $3 WHERE id = $4`,
		record.Name, record.Document, record.UpdatedAt, record.ID)
	if err != nil {
		return wrapUniqueError(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTopology(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM topologies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ============================================
// Generation runs
// ============================================

func (s *Store) CreateRun(ctx context.Context, run *domain.GenerationRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generation_runs (id, topology_id, status, error, failed_step, failed_position, artifacts, credentials, created_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.TopologyID, run.Status, run.Error, run.FailedStep, run.FailedPosition,
		run.Artifacts, run.Credentials, run.CreatedAt, run.CompletedAt)
	return wrapUniqueError(err)
}

func (s *Store) GetRun(ctx context.Context, id string) (*domain.GenerationRun, error) {
	var run domain.GenerationRun
	err := s.db.GetContext(ctx, &run,
		`SELECT id, topology_id, status, error, failed_step, failed_position, artifacts, credentials, created_at, completed_at
		 FROM generation_runs WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return &run, err
}

func (s *Store) ListRuns(ctx context.Context, limit, offset int) ([]*domain.GenerationRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []*domain.GenerationRun
	err := s.db.SelectContext(ctx, &runs,
		`SELECT id, topology_id, status, error, failed_step, failed_position, artifacts, credentials, created_at, completed_at
		 FROM generation_runs ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *Store) ListRunsForTopology(ctx context.Context, topologyID string) ([]*domain.GenerationRun, error) {
	var runs []*domain.GenerationRun
	err := s.db.SelectContext(ctx, &runs,
		`SELECT id, topology_id, status, error, failed_step, failed_position, artifacts, credentials, created_at, completed_at
		 FROM generation_runs WHERE topology_id = $1 ORDER BY created_at DESC`, topologyID)
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *Store) UpdateRun(ctx context.Context, run *domain.GenerationRun) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE generation_runs SET status = $1, error = $2, failed_step = $3, failed_position = $4,
		 artifacts = $5, credentials = $6, completed_at = $7 WHERE id = $8`,
		run.Status, run.Error, run.FailedStep, run.FailedPosition,
		run.Artifacts, run.Credentials, run.CompletedAt, run.ID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
