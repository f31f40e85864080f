// Package service orchestrates the generation pipeline: validate the
// topology, order the issuance plan, drive the signer, and synthesize the
// node configurations. The engine itself performs no file or network I/O
// beyond the signer calls; persisting runs and writing artifacts belong to
// the callers.
package service

import (
	"context"

	"github.com/natsmesh/natsmesh/internal/credential"
	"github.com/natsmesh/natsmesh/internal/domain"
	"github.com/natsmesh/natsmesh/internal/planner"
	"github.com/natsmesh/natsmesh/internal/synth"
	"github.com/natsmesh/natsmesh/internal/validation"
)

// Result is the outcome of a successful generation run.
type Result struct {
	Credentials *domain.CredentialSet
	Artifacts   *domain.ArtifactSet
}

// Engine runs the full validate/issue/synthesize pipeline over an in-memory
// topology.
type Engine struct {
	builder *credential.Builder
	synth   *synth.Synthesizer
	opts    validation.Options
}

// NewEngine creates an Engine around a credential builder.
func NewEngine(builder *credential.Builder, opts validation.Options) *Engine {
	return &Engine{
		builder: builder,
		synth:   synth.New(),
		opts:    opts,
	}
}

// Validate runs full-topology validation and returns every violation found.
func (e *Engine) Validate(t *domain.Topology) validation.Violations {
	return validation.ValidateTopology(t, e.opts)
}

// Generate validates the topology, then issues the complete credential
// hierarchy and renders all node configurations. Validation failures return
// the collected Violations without a single signer call. Issuance failures
// return a *credential.IssuanceError; the credentials issued before the
// abort are discarded here (the signer keeps them, cleanup is its own
// operation).
func (e *Engine) Generate(ctx context.Context, t *domain.Topology) (*Result, error) {
	if violations := e.Validate(t); violations.HasViolations() {
		return nil, violations
	}

	plan := planner.IssuancePlan(t)
	creds, err := e.builder.Build(ctx, t, plan)
	if err != nil {
		return nil, err
	}

	artifacts, err := e.synth.Render(t, creds)
	if err != nil {
		return nil, err
	}

	return &Result{Credentials: creds, Artifacts: artifacts}, nil
}
