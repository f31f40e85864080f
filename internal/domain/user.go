package domain

// User is a credentialed principal under an account. The Account field is a
// non-owning back-reference resolved by name lookup into the topology.
type User struct {
	Name    string   `json:"name"`
	Account string   `json:"account"`
	Allow   []string `json:"allow,omitempty"`
	Deny    []string `json:"deny,omitempty"`
	Expiry  string   `json:"expiry,omitempty"` // RFC 3339; forwarded to the signer
}
