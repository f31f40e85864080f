package domain

// CredentialKind names the three levels of the trust hierarchy.
type CredentialKind string

const (
	CredentialOperator CredentialKind = "operator"
	CredentialAccount  CredentialKind = "account"
	CredentialUser     CredentialKind = "user"
)

// Credential is the opaque handle returned by the external signer for one
// issued identity. The core stores and cross-references it but never
// interprets the token beyond the public subject ID.
type Credential struct {
	Name       string         `json:"name"`        // declared entity name
	Kind       CredentialKind `json:"kind"`
	IssuedName string         `json:"issued_name"` // name at the signer (may carry a unique suffix)
	JWT        string         `json:"jwt"`
	PublicID   string         `json:"public_id,omitempty"` // token subject, e.g. the account ID
	Creds      string         `json:"creds,omitempty"`     // users only: creds file content
}

// CredentialSet maps entity names to issued credentials, preserving issuance
// order. It is built incrementally during a run and treated as immutable once
// the run completes.
type CredentialSet struct {
	order  []string
	byName map[string]*Credential
}

// NewCredentialSet creates an empty credential set.
func NewCredentialSet() *CredentialSet {
	return &CredentialSet{byName: make(map[string]*Credential)}
}

// Add records a credential under its declared entity name.
func (s *CredentialSet) Add(c *Credential) {
	if _, ok := s.byName[c.Name]; !ok {
		s.order = append(s.order, c.Name)
	}
	s.byName[c.Name] = c
}

// Get returns the credential for an entity name, or nil.
func (s *CredentialSet) Get(name string) *Credential {
	return s.byName[name]
}

// Names returns the entity names in issuance order.
func (s *CredentialSet) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of issued credentials.
func (s *CredentialSet) Len() int { return len(s.order) }

// All returns the credentials in issuance order.
func (s *CredentialSet) All() []*Credential {
	out := make([]*Credential, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}
