package signer

import (
	"context"
	"crypto/sha256"
	"encoding/base32"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/natsmesh/natsmesh/internal/domain"
)

// Fake is an in-memory Signer for tests and for running the server without
// an nsc binary. Handles are deterministic: the same entity name always
// yields the same public ID, and duplicate issuance is detected like the
// real tool would.
type Fake struct {
	mu     sync.Mutex
	issued map[string]bool

	// FailOn injects an error for the named entity, returned instead of a
	// credential. Used to exercise abort semantics.
	FailOn map[string]error
}

// Ensure Fake implements Signer.
var _ Signer = (*Fake)(nil)

// NewFake creates a new in-memory fake signer.
func NewFake() *Fake {
	return &Fake{
		issued: make(map[string]bool),
		FailOn: make(map[string]error),
	}
}

// Issued reports whether an entity was issued, by declared name.
func (f *Fake) Issued(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issued[name]
}

// IssuedCount returns how many entities have been issued.
func (f *Fake) IssuedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.issued)
}

// CreateOperator issues a fake operator credential.
func (f *Fake) CreateOperator(ctx context.Context, op *domain.Operator) (*domain.Credential, error) {
	return f.issue(ctx, op.Name, domain.CredentialOperator, "O")
}

// CreateAccount issues a fake account credential.
func (f *Fake) CreateAccount(ctx context.Context, operator *domain.Credential, acct *domain.Account) (*domain.Credential, error) {
	if operator == nil {
		return nil, fmt.Errorf("account %q: no operator handle: %w", acct.Name, ErrSignerRejected)
	}
	return f.issue(ctx, acct.Name, domain.CredentialAccount, "A")
}

// CreateUser issues a fake user credential with creds file content.
func (f *Fake) CreateUser(ctx context.Context, account *domain.Credential, user *domain.User) (*domain.Credential, error) {
	if account == nil {
		return nil, fmt.Errorf("user %q: no account handle: %w", user.Name, ErrSignerRejected)
	}
	cred, err := f.issue(ctx, user.Name, domain.CredentialUser, "U")
	if err != nil {
		return nil, err
	}
	cred.Creds = fmt.Sprintf(
		"-----BEGIN NATS USER JWT-----\n%s\n------END NATS USER JWT------\n\n-----BEGIN USER NKEY SEED-----\nSU%s\n------END USER NKEY SEED------\n",
		cred.JWT, publicID("seed-"+user.Name, "A"))
	return cred, nil
}

func (f *Fake) issue(ctx context.Context, name string, kind domain.CredentialKind, idPrefix string) (*domain.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	if err, ok := f.FailOn[name]; ok {
		f.mu.Unlock()
		return nil, fmt.Errorf("%s %q: %w", kind, name, err)
	}
	if f.issued[name] {
		f.mu.Unlock()
		return nil, fmt.Errorf("%s %q: %w", kind, name, ErrDuplicateEntity)
	}
	f.issued[name] = true
	f.mu.Unlock()

	id := publicID(name, idPrefix)
	return &domain.Credential{
		Name:       name,
		Kind:       kind,
		IssuedName: name,
		JWT:        fakeJWT(name, id),
		PublicID:   id,
	}, nil
}

// publicID derives a stable NKey-looking identifier from an entity name.
func publicID(name, prefix string) string {
	sum := sha256.Sum256([]byte(name))
	enc := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:])
	return prefix + enc
}

// fakeJWT builds an unsigned three-part token whose payload carries the
// subject, enough for SubjectFromJWT and the synthesizer to work with.
func fakeJWT(name, subject string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"typ":"JWT","alg":"ed25519-nkey"}`))
	payload, _ := json.Marshal(map[string]string{"name": name, "sub": subject})
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".fakesig"
}
