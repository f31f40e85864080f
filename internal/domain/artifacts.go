package domain

// NamedText is one rendered output file: a node configuration, the trust
// resolver, or a user creds file.
type NamedText struct {
	Name    string `json:"name"` // file name, e.g. "hub-1.conf"
	Content string `json:"content"`
}

// ArtifactSet is the complete output of a successful orchestration run:
// one configuration text per node (in config-generation order), one global
// trust-resolver text, and the creds files referenced by the node configs.
type ArtifactSet struct {
	NodeConfigs []NamedText `json:"node_configs"`
	Resolver    NamedText   `json:"resolver"`
	CredsFiles  []NamedText `json:"creds_files,omitempty"`
}

// Files returns every artifact as a flat list, configs first.
func (a *ArtifactSet) Files() []NamedText {
	out := make([]NamedText, 0, len(a.NodeConfigs)+1+len(a.CredsFiles))
	out = append(out, a.NodeConfigs...)
	out = append(out, a.Resolver)
	out = append(out, a.CredsFiles...)
	return out
}
