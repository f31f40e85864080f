// Package credential drives the external signer through an issuance plan,
// collecting the resulting handles into a CredentialSet.
package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/natsmesh/natsmesh/internal/domain"
	"github.com/natsmesh/natsmesh/internal/planner"
	"github.com/natsmesh/natsmesh/internal/signer"
	"github.com/sethvargo/go-retry"
)

// IssuanceError reports an aborted issuance run: which step failed, where in
// the plan it sat, and which steps completed before it. The partial
// CredentialSet returned alongside holds exactly the completed prefix.
type IssuanceError struct {
	Step      planner.Step
	Position  int // zero-based index into the plan
	Completed []string
	Err       error
}

// Error implements the error interface.
func (e *IssuanceError) Error() string {
	return fmt.Sprintf("issuance aborted at step %d (%s) after %d completed: %v",
		e.Position+1, e.Step, len(e.Completed), e.Err)
}

// Unwrap returns the underlying signer error.
func (e *IssuanceError) Unwrap() error { return e.Err }

// Builder executes issuance plans. Execution is strictly sequential within
// one plan: every step depends on handles produced by earlier ones.
type Builder struct {
	signer      signer.Signer
	callTimeout time.Duration
	maxRetries  uint64
}

// NewBuilder creates a Builder. callTimeout bounds each signer call;
// maxRetries bounds retries of transient process failures (duplicate-entity
// and rejection failures are never retried).
func NewBuilder(s signer.Signer, callTimeout time.Duration, maxRetries uint64) *Builder {
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &Builder{signer: s, callTimeout: callTimeout, maxRetries: maxRetries}
}

// Build walks the plan in order, invoking the signer for each step. On the
// first failure it aborts the remaining plan and returns the credentials
// issued so far together with an *IssuanceError. Cancelling ctx stops
// issuing further steps; already-issued credentials are left as-is (cleanup
// at the signer is an explicit, separate operation).
func (b *Builder) Build(ctx context.Context, t *domain.Topology, plan []planner.Step) (*domain.CredentialSet, error) {
	creds := domain.NewCredentialSet()
	var operator *domain.Credential

	for i, step := range plan {
		if err := ctx.Err(); err != nil {
			return creds, &IssuanceError{Step: step, Position: i, Completed: creds.Names(), Err: err}
		}

		cred, err := b.issue(ctx, t, operator, creds, step)
		if err != nil {
			return creds, &IssuanceError{Step: step, Position: i, Completed: creds.Names(), Err: err}
		}

		if step.Kind == planner.StepOperator {
			operator = cred
		}
		creds.Add(cred)
	}

	return creds, nil
}

// issue performs one signer call with the per-call timeout and bounded
// retries for transient process failures.
func (b *Builder) issue(ctx context.Context, t *domain.Topology, operator *domain.Credential, creds *domain.CredentialSet, step planner.Step) (*domain.Credential, error) {
	var cred *domain.Credential

	backoff := retry.WithMaxRetries(b.maxRetries, retry.NewConstant(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, b.callTimeout)
		defer cancel()

		var err error
		switch step.Kind {
		case planner.StepOperator:
			cred, err = b.signer.CreateOperator(callCtx, &t.Operator)
		case planner.StepAccount:
			acct := t.Account(step.Name)
			if acct == nil {
				return fmt.Errorf("plan references unknown account %q", step.Name)
			}
			cred, err = b.signer.CreateAccount(callCtx, operator, acct)
		case planner.StepUser:
			user := t.User(step.Name)
			if user == nil {
				return fmt.Errorf("plan references unknown user %q", step.Name)
			}
			cred, err = b.signer.CreateUser(callCtx, creds.Get(step.Account), user)
		default:
			return fmt.Errorf("unknown step kind %q", step.Kind)
		}
		if err != nil && errors.Is(err, signer.ErrProcessUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return cred, nil
}
