package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/natsmesh/natsmesh/internal/credential"
	"github.com/natsmesh/natsmesh/internal/domain"
	"github.com/natsmesh/natsmesh/internal/storage"
	"github.com/natsmesh/natsmesh/internal/validation"
)

// GenerationService runs the engine against stored topology documents and
// records every run for audit and artifact retrieval.
type GenerationService struct {
	store  storage.Storage
	engine *Engine
}

// NewGenerationService creates a GenerationService.
func NewGenerationService(store storage.Storage, engine *Engine) *GenerationService {
	return &GenerationService{store: store, engine: engine}
}

// Validate parses and validates a stored topology without issuing anything.
func (s *GenerationService) Validate(ctx context.Context, topologyID string) ([]string, error) {
	t, err := s.loadTopology(ctx, topologyID)
	if err != nil {
		return nil, err
	}

	violations := s.engine.Validate(t)
	messages := make([]string, 0, len(violations))
	for _, v := range violations {
		messages = append(messages, v.Error())
	}
	return messages, nil
}

// Generate runs the full pipeline against a stored topology, recording a
// GenerationRun with the outcome. The run record is returned for all
// outcomes; the error return is reserved for storage and parse failures.
func (s *GenerationService) Generate(ctx context.Context, topologyID string) (*domain.GenerationRun, error) {
	t, err := s.loadTopology(ctx, topologyID)
	if err != nil {
		return nil, err
	}

	run := &domain.GenerationRun{
		ID:         uuid.New().String(),
		TopologyID: topologyID,
		Status:     domain.RunStatusPending,
		CreatedAt:  time.Now(),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	result, genErr := s.engine.Generate(ctx, t)
	now := time.Now()
	run.CompletedAt = &now

	switch {
	case genErr == nil:
		run.Status = domain.RunStatusSuccess
		if artifactsJSON, err := json.Marshal(result.Artifacts); err == nil {
			run.Artifacts = string(artifactsJSON)
		}
		if credsJSON, err := json.Marshal(result.Credentials.All()); err == nil {
			run.Credentials = string(credsJSON)
		}
	default:
		run.Error = genErr.Error()
		var issuance *credential.IssuanceError
		var violations validation.Violations
		switch {
		case errors.As(genErr, &issuance):
			run.Status = domain.RunStatusIssuanceFailed
			run.FailedStep = issuance.Step.String()
			run.FailedPosition = issuance.Position
		case errors.As(genErr, &violations):
			run.Status = domain.RunStatusValidationFailed
		default:
			run.Status = domain.RunStatusFailed
		}
	}

	if err := s.store.UpdateRun(ctx, run); err != nil {
		log.Printf("Warning: Failed to update run record: %v", err)
	}
	return run, nil
}

func (s *GenerationService) loadTopology(ctx context.Context, topologyID string) (*domain.Topology, error) {
	record, err := s.store.GetTopology(ctx, topologyID)
	if err != nil {
		return nil, err
	}
	return domain.ParseDocument([]byte(record.Document))
}
