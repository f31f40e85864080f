package domain

// Account is a named trust domain under the operator. Account names are
// unique within a topology and share a namespace with user and node names.
type Account struct {
	Name      string        `json:"name"`
	System    bool          `json:"system,omitempty"`
	JetStream bool          `json:"jetstream,omitempty"`
	Limits    AccountLimits `json:"limits"`
	Exports   []Export      `json:"exports,omitempty"`
	Imports   []Import      `json:"imports,omitempty"`
}

// AccountLimits holds the resource limits passed to the signer at issuance
// time. A nil limit means "not set" and is omitted from the issuance call.
type AccountLimits struct {
	MaxConnections *int64 `json:"max_connections,omitempty"`
	MaxData        *int64 `json:"max_data,omitempty"`
	MaxStreams     *int64 `json:"max_streams,omitempty"`
}

// Export declares a subject this account makes available to others.
type Export struct {
	Subject string `json:"subject"`
	Service bool   `json:"service,omitempty"` // service export; stream otherwise
}

// Import declares a subject this account pulls in from another account.
type Import struct {
	Subject string `json:"subject"`
	Account string `json:"account"` // source account name
}
