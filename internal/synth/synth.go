// Package synth renders topology nodes into nats-server configuration text
// and produces the global trust-resolver file. It is pure: all credential
// material comes in through the CredentialSet, and a reference that fails to
// resolve here means the validator or the planner let a bad graph through.
package synth

import (
	"fmt"
	"strings"

	"github.com/natsmesh/natsmesh/internal/domain"
	"github.com/natsmesh/natsmesh/internal/planner"
)

// InternalError reports a missing credential lookup during synthesis. It is
// a programming-error signal (validator/orderer coupling bug) and must never
// be downgraded to a user-facing validation error.
type InternalError struct {
	Kind string // "operator", "account", "user"
	Name string
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	return fmt.Sprintf("internal consistency error: %s %q missing from credential set", e.Kind, e.Name)
}

// Synthesizer renders node configurations.
type Synthesizer struct{}

// New creates a Synthesizer.
func New() *Synthesizer {
	return &Synthesizer{}
}

// Render produces one configuration text per node, in config-generation
// order, plus the trust-resolver text and the creds files node configs
// reference. Asymmetric cluster/gateway declarations are unioned: if A lists
// B as a peer, B's rendered config lists A regardless of declaration
// direction.
func (s *Synthesizer) Render(t *domain.Topology, creds *domain.CredentialSet) (*domain.ArtifactSet, error) {
	operator := creds.Get(t.Operator.Name)
	if operator == nil {
		return nil, &InternalError{Kind: "operator", Name: t.Operator.Name}
	}

	systemAccountID := ""
	if sys := t.SystemAccount(); sys != nil {
		cred := creds.Get(sys.Name)
		if cred == nil {
			return nil, &InternalError{Kind: "account", Name: sys.Name}
		}
		systemAccountID = cred.PublicID
	}

	preload, err := resolverPreload(t, creds)
	if err != nil {
		return nil, err
	}

	artifacts := &domain.ArtifactSet{
		Resolver: domain.NamedText{
			Name:    "resolver.conf",
			Content: renderTrust(operator.JWT, systemAccountID, preload),
		},
	}

	for _, node := range planner.ConfigOrder(t) {
		content, err := s.renderNode(t, node, creds, operator.JWT, systemAccountID, preload)
		if err != nil {
			return nil, err
		}
		artifacts.NodeConfigs = append(artifacts.NodeConfigs, domain.NamedText{
			Name:    node.Name + ".conf",
			Content: content,
		})
	}

	for _, u := range t.Users() {
		cred := creds.Get(u.Name)
		if cred == nil {
			return nil, &InternalError{Kind: "user", Name: u.Name}
		}
		if cred.Creds == "" {
			continue
		}
		artifacts.CredsFiles = append(artifacts.CredsFiles, domain.NamedText{
			Name:    credsFileName(u),
			Content: cred.Creds,
		})
	}

	return artifacts, nil
}

// renderNode renders one self-contained node configuration.
func (s *Synthesizer) renderNode(t *domain.Topology, node *domain.Node, creds *domain.CredentialSet, operatorJWT, systemAccountID, preload string) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "port: %d\n", node.Port)
	fmt.Fprintf(&b, "server_name: %q\n\n", node.Name)

	if node.JetStream != nil {
		renderJetStream(&b, node)
	}
	if node.TLS != nil {
		renderTLS(&b, node.TLS)
	}

	if node.Kind == domain.NodeKindHub {
		if peers := edgePartners(t.ClusterPeers, node.Name); len(peers) > 0 {
			renderCluster(&b, t, node, peers)
		}
		if gateways := edgePartners(t.Gateways, node.Name); len(gateways) > 0 {
			renderGateways(&b, t, node, gateways)
		}
		if node.LeafPort != 0 {
			fmt.Fprintf(&b, "leafnodes {\n    port: %d\n}\n\n", node.LeafPort)
		}
	}

	if node.Kind == domain.NodeKindLeaf {
		if err := renderLeafRemotes(&b, t, node, creds); err != nil {
			return "", err
		}
	}

	b.WriteString(renderTrust(operatorJWT, systemAccountID, preload))
	return b.String(), nil
}

func renderJetStream(b *strings.Builder, node *domain.Node) {
	js := node.JetStream
	storeDir := js.StoreDir
	if storeDir == "" {
		storeDir = "jetstream"
	}
	b.WriteString("jetstream {\n")
	fmt.Fprintf(b, "    store_dir: %q\n", storeDir)
	if js.Domain != "" {
		fmt.Fprintf(b, "    domain: %q\n", js.Domain)
	}
	if js.MaxMemory != 0 {
		fmt.Fprintf(b, "    max_memory_store: %d\n", js.MaxMemory)
	}
	if js.MaxFile != 0 {
		fmt.Fprintf(b, "    max_file_store: %d\n", js.MaxFile)
	}
	b.WriteString("}\n\n")
}

func renderTLS(b *strings.Builder, tls *domain.TLS) {
	b.WriteString("tls {\n")
	fmt.Fprintf(b, "    cert_file: %q\n", tls.CertFile)
	fmt.Fprintf(b, "    key_file: %q\n", tls.KeyFile)
	if tls.CAFile != "" {
		fmt.Fprintf(b, "    ca_file: %q\n", tls.CAFile)
	}
	b.WriteString("}\n\n")
}

func renderCluster(b *strings.Builder, t *domain.Topology, node *domain.Node, peers []string) {
	b.WriteString("cluster {\n")
	fmt.Fprintf(b, "    name: %q\n", t.Name)
	if node.ClusterPort != 0 {
		fmt.Fprintf(b, "    port: %d\n", node.ClusterPort)
	}
	b.WriteString("    routes = [\n")
	for _, name := range peers {
		if peer := t.Node(name); peer != nil {
			fmt.Fprintf(b, "        %q,\n", peer.RouteURL())
		}
	}
	b.WriteString("    ]\n}\n\n")
}

func renderGateways(b *strings.Builder, t *domain.Topology, node *domain.Node, gateways []string) {
	b.WriteString("gateway {\n")
	fmt.Fprintf(b, "    name: %q\n", node.Name)
	if node.GatewayPort != 0 {
		fmt.Fprintf(b, "    port: %d\n", node.GatewayPort)
	}
	b.WriteString("    gateways = [\n")
	for _, name := range gateways {
		if gw := t.Node(name); gw != nil {
			fmt.Fprintf(b, "        { name: %q, url: %q },\n", gw.Name, gw.GatewayURL())
		}
	}
	b.WriteString("    ]\n}\n\n")
}

func renderLeafRemotes(b *strings.Builder, t *domain.Topology, node *domain.Node, creds *domain.CredentialSet) error {
	hub := t.Node(node.Hub)
	if hub == nil {
		return &InternalError{Kind: "node", Name: node.Hub}
	}

	b.WriteString("leafnodes {\n    remotes = [\n")
	fmt.Fprintf(b, "        { url: %q", hub.LeafURL())
	if node.Account != "" {
		cred := creds.Get(node.Account)
		if cred == nil {
			return &InternalError{Kind: "account", Name: node.Account}
		}
		fmt.Fprintf(b, ", account: %q", cred.PublicID)
	}
	if node.User != "" {
		user := t.User(node.User)
		if user == nil {
			return &InternalError{Kind: "user", Name: node.User}
		}
		fmt.Fprintf(b, ", credentials: %q", credsFileName(user))
	}
	b.WriteString(" },\n    ]\n}\n\n")
	return nil
}

// renderTrust renders the operator/system-account/resolver section shared by
// every node config and the standalone resolver file.
func renderTrust(operatorJWT, systemAccountID, preload string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "operator: %q\n", operatorJWT)
	if systemAccountID != "" {
		fmt.Fprintf(&b, "system_account: %q\n", systemAccountID)
	}
	b.WriteString("resolver: MEMORY\n")
	if preload != "" {
		b.WriteString("resolver_preload: {\n")
		b.WriteString(preload)
		b.WriteString("}\n")
	}
	return b.String()
}

// resolverPreload renders the account-ID-to-JWT preload entries, one per
// account in insertion order.
func resolverPreload(t *domain.Topology, creds *domain.CredentialSet) (string, error) {
	var b strings.Builder
	for _, a := range t.Accounts() {
		cred := creds.Get(a.Name)
		if cred == nil {
			return "", &InternalError{Kind: "account", Name: a.Name}
		}
		fmt.Fprintf(&b, "    %s: %q\n", cred.PublicID, cred.JWT)
	}
	return b.String(), nil
}

// edgePartners returns the union of both declaration directions for the
// named node, deduplicated, in declaration order.
func edgePartners(edges []domain.EdgePair, name string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(peer string) {
		if peer != name && !seen[peer] {
			seen[peer] = true
			out = append(out, peer)
		}
	}
	for _, e := range edges {
		if e.A == name {
			add(e.B)
		}
		if e.B == name {
			add(e.A)
		}
	}
	return out
}

// credsFileName names a user's creds artifact, e.g. "svc-worker.creds".
func credsFileName(u *domain.User) string {
	return u.Account + "-" + u.Name + ".creds"
}
