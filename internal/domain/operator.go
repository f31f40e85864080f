package domain

// Operator is the root of trust for a topology. Exactly one exists per
// topology; it is created first and never mutated afterwards.
type Operator struct {
	Name string `json:"name"`
	// SigningKeyRef is an opaque handle to key material owned by the
	// external signer. The core never interprets it.
	SigningKeyRef string `json:"signing_key_ref,omitempty"`
}
