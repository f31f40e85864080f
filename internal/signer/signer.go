// Package signer abstracts the external identity-management tool that issues
// the operator/account/user trust hierarchy. The core only ever talks to the
// narrow Signer interface, so tests run against an in-memory fake without
// spawning any process.
package signer

import (
	"context"
	"errors"

	"github.com/natsmesh/natsmesh/internal/domain"
)

// Error kinds surfaced by signer implementations. Callers classify with
// errors.Is; only ErrProcessUnavailable is transient and retryable.
var (
	// ErrDuplicateEntity means the entity already exists at the signer.
	// Issuance is not idempotent, so this is surfaced as a distinct,
	// retryable-after-cleanup condition and never retried automatically.
	ErrDuplicateEntity = errors.New("entity already exists at signer")

	// ErrProcessUnavailable means the signer process could not be invoked
	// at all. Transient.
	ErrProcessUnavailable = errors.New("signer process unavailable")

	// ErrSignerRejected means the signer ran but refused the request.
	ErrSignerRejected = errors.New("signer rejected the request")
)

// Signer issues the decentralized trust hierarchy. Implementations may be
// stateful within one run (the account issued for an import's source must
// already exist), but every call is independent of any other Signer value.
type Signer interface {
	// CreateOperator issues the root operator identity.
	CreateOperator(ctx context.Context, op *domain.Operator) (*domain.Credential, error)

	// CreateAccount issues an account under the given operator handle,
	// applying the account's limits, exports and imports.
	CreateAccount(ctx context.Context, operator *domain.Credential, acct *domain.Account) (*domain.Credential, error)

	// CreateUser issues a user under the given account handle, applying
	// the user's subject permissions and optional expiry.
	CreateUser(ctx context.Context, account *domain.Credential, user *domain.User) (*domain.Credential, error)
}
