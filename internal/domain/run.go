package domain

import (
	"encoding/json"
	"time"
)

// TopologyRecord is a stored topology document.
type TopologyRecord struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Document  string    `json:"document" db:"document"` // JSON string
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Run statuses.
const (
	RunStatusPending          = "pending"
	RunStatusSuccess          = "success"
	RunStatusValidationFailed = "validation_failed"
	RunStatusIssuanceFailed   = "issuance_failed"
	RunStatusFailed           = "failed"
)

// GenerationRun is a versioned record of one orchestration run against a
// stored topology. Used for audit trail and artifact retrieval.
type GenerationRun struct {
	ID         string `json:"id" db:"id"`
	TopologyID string `json:"topology_id" db:"topology_id"`
	Status     string `json:"status" db:"status"`
	Error      string `json:"error,omitempty" db:"error"`

	// Issuance failure diagnostics: which step failed and how much of the
	// plan completed before it.
	FailedStep     string `json:"failed_step,omitempty" db:"failed_step"`
	FailedPosition int    `json:"failed_position,omitempty" db:"failed_position"`

	Artifacts   string `json:"artifacts,omitempty" db:"artifacts"`     // ArtifactSet JSON
	Credentials string `json:"credentials,omitempty" db:"credentials"` // CredentialSet entries JSON

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// CreateTopologyRequest is the request body for storing a topology document.
type CreateTopologyRequest struct {
	Name     string          `json:"name"`
	Document json.RawMessage `json:"document"`
}

// GenerateResponse is returned after a generation run.
type GenerateResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
