package signer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/natsmesh/natsmesh/internal/domain"
)

// NSC drives the nsc command-line tool. Issued operator and account names
// get a UUID suffix so repeated runs against a shared nsc store never
// collide; the credential keeps both the declared and the issued name.
type NSC struct {
	path     string // nsc binary
	storeDir string
	execCmd  func(ctx context.Context, args ...string) ([]byte, error)

	mu     sync.Mutex
	issued map[string]string // declared name -> issued name, for import resolution
	opName string            // issued operator name, for store path lookups
}

// Ensure NSC implements Signer.
var _ Signer = (*NSC)(nil)

// NewNSC creates a signer that shells out to the nsc binary, keeping its key
// store under storeDir.
func NewNSC(path, storeDir string) (*NSC, error) {
	if path == "" {
		path = "nsc"
	}
	if err := os.MkdirAll(storeDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating signer store directory: %w", err)
	}
	s := &NSC{
		path:     path,
		storeDir: storeDir,
		issued:   make(map[string]string),
	}
	s.execCmd = func(ctx context.Context, args ...string) ([]byte, error) {
		return exec.CommandContext(ctx, s.path, args...).CombinedOutput()
	}
	return s, nil
}

// CreateOperator runs nsc init and reads the operator JWT back from the store.
func (s *NSC) CreateOperator(ctx context.Context, op *domain.Operator) (*domain.Credential, error) {
	issuedName := uniqueName(op.Name)

	if err := s.run(ctx, "init",
		"--name", issuedName,
		"--dir", s.storeDir,
		"--data-dir", s.storeDir,
	); err != nil {
		return nil, fmt.Errorf("creating operator %q: %w", op.Name, err)
	}

	// nsc init auto-creates a SYS account; drop it so the store holds only
	// declared accounts.
	if err := s.run(ctx, "delete", "account", "--name", "SYS", "--data-dir", s.storeDir); err != nil &&
		!strings.Contains(err.Error(), "account not found") {
		return nil, fmt.Errorf("removing default SYS account: %w", err)
	}

	jwtPath := filepath.Join(s.storeDir, issuedName, issuedName+".jwt")
	token, err := os.ReadFile(jwtPath)
	if err != nil {
		return nil, fmt.Errorf("reading operator JWT: %w", err)
	}

	s.mu.Lock()
	s.opName = issuedName
	s.issued[op.Name] = issuedName
	s.mu.Unlock()

	return s.credential(op.Name, domain.CredentialOperator, issuedName, string(token))
}

// CreateAccount runs nsc add account plus the edit/export/import calls the
// account's declaration requires, then reads its JWT back from the store.
func (s *NSC) CreateAccount(ctx context.Context, operator *domain.Credential, acct *domain.Account) (*domain.Credential, error) {
	if operator == nil {
		return nil, fmt.Errorf("account %q: no operator handle: %w", acct.Name, ErrSignerRejected)
	}
	issuedName := uniqueName(acct.Name)

	if err := s.run(ctx, "add", "account",
		"--name", issuedName,
		"--data-dir", s.storeDir,
	); err != nil {
		return nil, fmt.Errorf("creating account %q: %w", acct.Name, err)
	}

	if args := accountEditArgs(issuedName, acct); args != nil {
		args = append(args, "--data-dir", s.storeDir)
		if err := s.run(ctx, args...); err != nil {
			return nil, fmt.Errorf("setting limits for account %q: %w", acct.Name, err)
		}
	}

	for _, e := range acct.Exports {
		args := []string{"add", "export",
			"--name", e.Subject,
			"--subject", e.Subject,
			"--account", issuedName,
			"--data-dir", s.storeDir,
		}
		if e.Service {
			args = append(args, "--service")
		}
		if err := s.run(ctx, args...); err != nil {
			return nil, fmt.Errorf("adding export %q to account %q: %w", e.Subject, acct.Name, err)
		}
	}

	for _, im := range acct.Imports {
		if err := s.run(ctx, "add", "import",
			"--src-account", s.issuedName(im.Account),
			"--subject", im.Subject,
			"--account", issuedName,
			"--data-dir", s.storeDir,
		); err != nil {
			return nil, fmt.Errorf("adding import %q to account %q: %w", im.Subject, acct.Name, err)
		}
	}

	jwtPath := filepath.Join(s.storeDir, operator.IssuedName, "accounts", issuedName, issuedName+".jwt")
	token, err := os.ReadFile(jwtPath)
	if err != nil {
		return nil, fmt.Errorf("reading JWT for account %q: %w", acct.Name, err)
	}

	s.mu.Lock()
	s.issued[acct.Name] = issuedName
	s.mu.Unlock()

	return s.credential(acct.Name, domain.CredentialAccount, issuedName, string(token))
}

// CreateUser runs nsc add user and nsc generate creds, returning the creds
// file content as the credential handle.
func (s *NSC) CreateUser(ctx context.Context, account *domain.Credential, user *domain.User) (*domain.Credential, error) {
	if account == nil {
		return nil, fmt.Errorf("user %q: no account handle: %w", user.Name, ErrSignerRejected)
	}

	args := []string{"add", "user",
		"--name", user.Name,
		"--account", account.IssuedName,
		"--data-dir", s.storeDir,
	}
	if len(user.Allow) > 0 {
		args = append(args, "--allow-pubsub", strings.Join(user.Allow, ","))
	}
	if len(user.Deny) > 0 {
		args = append(args, "--deny-pubsub", strings.Join(user.Deny, ","))
	}
	if user.Expiry != "" {
		// nsc accepts the date part only.
		expiry := user.Expiry
		if i := strings.IndexByte(expiry, 'T'); i > 0 {
			expiry = expiry[:i]
		}
		args = append(args, "--expiry", expiry)
	}
	if err := s.run(ctx, args...); err != nil {
		return nil, fmt.Errorf("creating user %q: %w", user.Name, err)
	}

	credsFile, err := os.CreateTemp("", "natsmesh-*.creds")
	if err != nil {
		return nil, fmt.Errorf("creating temp creds file: %w", err)
	}
	credsPath := credsFile.Name()
	credsFile.Close()
	defer os.Remove(credsPath)

	if err := s.run(ctx, "generate", "creds",
		"--account", account.IssuedName,
		"--name", user.Name,
		"--output-file", credsPath,
		"--data-dir", s.storeDir,
	); err != nil {
		return nil, fmt.Errorf("generating creds for user %q: %w", user.Name, err)
	}

	creds, err := os.ReadFile(credsPath)
	if err != nil {
		return nil, fmt.Errorf("reading creds for user %q: %w", user.Name, err)
	}

	jwtPath := filepath.Join(s.storeDir, s.operatorName(), "accounts", account.IssuedName,
		"users", user.Name+".jwt")
	token, err := os.ReadFile(jwtPath)
	if err != nil {
		return nil, fmt.Errorf("reading JWT for user %q: %w", user.Name, err)
	}

	cred, err := s.credential(user.Name, domain.CredentialUser, user.Name, string(token))
	if err != nil {
		return nil, err
	}
	cred.Creds = string(creds)
	return cred, nil
}

// run executes one nsc invocation and classifies its failure mode.
func (s *NSC) run(ctx context.Context, args ...string) error {
	out, err := s.execCmd(ctx, args...)
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		// The process never ran: binary missing, permissions, etc.
		return fmt.Errorf("nsc %s: %v: %w", args[0], err, ErrProcessUnavailable)
	}

	msg := strings.TrimSpace(string(out))
	if strings.Contains(msg, "already exists") || strings.Contains(msg, "already in use") {
		return fmt.Errorf("nsc %s: %s: %w", args[0], msg, ErrDuplicateEntity)
	}
	return fmt.Errorf("nsc %s: %s: %w", args[0], msg, ErrSignerRejected)
}

func (s *NSC) credential(name string, kind domain.CredentialKind, issuedName, token string) (*domain.Credential, error) {
	token = strings.TrimSpace(token)
	subject, err := SubjectFromJWT(token)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", kind, name, err)
	}
	return &domain.Credential{
		Name:       name,
		Kind:       kind,
		IssuedName: issuedName,
		JWT:        token,
		PublicID:   subject,
	}, nil
}

func (s *NSC) issuedName(declared string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if issued, ok := s.issued[declared]; ok {
		return issued
	}
	return declared
}

func (s *NSC) operatorName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opName
}

// accountEditArgs builds the nsc edit account call for the declared limits
// and JetStream flag, or nil when the declaration needs no edit.
func accountEditArgs(issuedName string, acct *domain.Account) []string {
	args := []string{"edit", "account", "--name", issuedName}
	edited := false
	if acct.Limits.MaxConnections != nil {
		args = append(args, "--conns", strconv.FormatInt(*acct.Limits.MaxConnections, 10))
		edited = true
	}
	if acct.Limits.MaxData != nil {
		args = append(args, "--data", strconv.FormatInt(*acct.Limits.MaxData, 10))
		edited = true
	}
	if acct.Limits.MaxStreams != nil {
		args = append(args, "--js-streams", strconv.FormatInt(*acct.Limits.MaxStreams, 10))
		edited = true
	}
	if acct.JetStream {
		// nsc enables JetStream by setting storage limits; -1 is unlimited.
		args = append(args, "--js-mem-storage", "-1", "--js-disk-storage", "-1")
		edited = true
	}
	if !edited {
		return nil
	}
	return args
}

// uniqueName suffixes a declared name so repeated runs against a shared nsc
// store never collide.
func uniqueName(name string) string {
	return name + "-" + uuid.New().String()
}
