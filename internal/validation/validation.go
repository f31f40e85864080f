package validation

import (
	"fmt"

	"github.com/natsmesh/natsmesh/internal/domain"
)

// Options controls optional validator behavior.
type Options struct {
	// StrictSymmetry turns asymmetric cluster-peer and gateway
	// declarations into violations. When false (the default) the
	// synthesizer unions both directions instead, so asymmetry is a
	// convenience, not an error.
	StrictSymmetry bool

	// RequireSystemAccount turns the absence of a system-flagged account
	// into a violation. Off by default: minimal topologies are valid
	// without one, and the synthesizer simply omits the system_account
	// directive. More than one system account is always a violation.
	RequireSystemAccount bool
}

// ValidateTopology checks every topology invariant and returns the complete
// list of violations found. It is a pure function: no side effects, same
// result on every run over the same topology.
func ValidateTopology(t *domain.Topology, opts Options) Violations {
	var v Violations

	validateFields(t, &v)
	validateReferences(t, &v)
	validateCrossEntity(t, opts, &v)

	return v
}

// validateFields performs local, per-entity field checks.
func validateFields(t *domain.Topology, v *Violations) {
	if err := ValidateEntityName(t.Operator.Name); err != nil {
		v.Add("operator", "name", t.Operator.Name, err.Error())
	}

	for _, a := range t.Accounts() {
		entity := "account " + a.Name
		if err := ValidateEntityName(a.Name); err != nil {
			v.Add(entity, "name", a.Name, err.Error())
		}
		checkLimit(v, entity, "max_connections", a.Limits.MaxConnections)
		checkLimit(v, entity, "max_data", a.Limits.MaxData)
		checkLimit(v, entity, "max_streams", a.Limits.MaxStreams)
		for i, e := range a.Exports {
			if err := ValidateSubjectPattern(e.Subject); err != nil {
				v.Add(entity, fmt.Sprintf("exports[%d]", i), e.Subject, err.Error())
			}
		}
		for i, im := range a.Imports {
			if err := ValidateSubjectPattern(im.Subject); err != nil {
				v.Add(entity, fmt.Sprintf("imports[%d]", i), im.Subject, err.Error())
			}
		}
	}

	for _, u := range t.Users() {
		entity := "user " + u.Name
		if err := ValidateEntityName(u.Name); err != nil {
			v.Add(entity, "name", u.Name, err.Error())
		}
		for i, s := range u.Allow {
			if err := ValidateSubjectPattern(s); err != nil {
				v.Add(entity, fmt.Sprintf("allow[%d]", i), s, err.Error())
			}
		}
		for i, s := range u.Deny {
			if err := ValidateSubjectPattern(s); err != nil {
				v.Add(entity, fmt.Sprintf("deny[%d]", i), s, err.Error())
			}
		}
	}

	for _, n := range t.Nodes() {
		entity := "node " + n.Name
		if err := ValidateEntityName(n.Name); err != nil {
			v.Add(entity, "name", n.Name, err.Error())
		}
		if n.Kind != domain.NodeKindHub && n.Kind != domain.NodeKindLeaf {
			v.Add(entity, "kind", string(n.Kind), "kind must be hub or leaf")
		}
		if err := ValidatePort(n.Port); err != nil {
			v.Add(entity, "port", fmt.Sprintf("%d", n.Port), err.Error())
		}
		if n.ClusterPort != 0 {
			if err := ValidatePort(n.ClusterPort); err != nil {
				v.Add(entity, "cluster_port", fmt.Sprintf("%d", n.ClusterPort), err.Error())
			}
		}
		if n.GatewayPort != 0 {
			if err := ValidatePort(n.GatewayPort); err != nil {
				v.Add(entity, "gateway_port", fmt.Sprintf("%d", n.GatewayPort), err.Error())
			}
		}
		if n.LeafPort != 0 {
			if err := ValidatePort(n.LeafPort); err != nil {
				v.Add(entity, "leaf_port", fmt.Sprintf("%d", n.LeafPort), err.Error())
			}
		}
		if n.JetStream != nil && n.JetStream.Domain != "" {
			if err := ValidateJetStreamDomain(n.JetStream.Domain); err != nil {
				v.Add(entity, "jetstream.domain", n.JetStream.Domain, err.Error())
			}
		}
	}
}

// validateReferences checks that every by-name reference resolves.
func validateReferences(t *domain.Topology, v *Violations) {
	for _, u := range t.Users() {
		if u.Account == "" {
			v.Add("user "+u.Name, "account", "", "account reference must not be empty")
			continue
		}
		if t.Account(u.Account) == nil {
			v.Add("user "+u.Name, "account", u.Account,
				fmt.Sprintf("references nonexistent account %q", u.Account))
		}
	}

	for _, a := range t.Accounts() {
		for i, im := range a.Imports {
			if t.Account(im.Account) == nil {
				v.Add("account "+a.Name, fmt.Sprintf("imports[%d].account", i), im.Account,
					fmt.Sprintf("references nonexistent account %q", im.Account))
			}
		}
	}

	for _, n := range t.LeafNodes() {
		entity := "node " + n.Name
		hub := t.Node(n.Hub)
		switch {
		case n.Hub == "":
			v.Add(entity, "hub", "", "leaf node must reference a hub node")
		case hub == nil:
			v.Add(entity, "hub", n.Hub, fmt.Sprintf("references nonexistent hub %q", n.Hub))
		case hub.Kind != domain.NodeKindHub:
			v.Add(entity, "hub", n.Hub, fmt.Sprintf("%q is not a hub node", n.Hub))
		case hub.LeafPort == 0:
			v.Add(entity, "hub", n.Hub, fmt.Sprintf("hub %q declares no leaf listen port", n.Hub))
		}
		if n.Account != "" && t.Account(n.Account) == nil {
			v.Add(entity, "account", n.Account,
				fmt.Sprintf("references nonexistent account %q", n.Account))
		}
		if n.User != "" {
			u := t.User(n.User)
			if u == nil {
				v.Add(entity, "user", n.User,
					fmt.Sprintf("references nonexistent user %q", n.User))
			} else if n.Account != "" && u.Account != n.Account {
				v.Add(entity, "user", n.User,
					fmt.Sprintf("user %q does not belong to account %q", n.User, n.Account))
			}
		}
	}

	checkEdgeEndpoints(t, t.ClusterPeers, "cluster peer", v)
	checkEdgeEndpoints(t, t.Gateways, "gateway", v)
}

func checkEdgeEndpoints(t *domain.Topology, edges []domain.EdgePair, kind string, v *Violations) {
	for _, e := range edges {
		for _, name := range []string{e.A, e.B} {
			n := t.Node(name)
			if n == nil {
				v.Add(kind+" edge", "", name,
					fmt.Sprintf("references nonexistent node %q", name))
			} else if n.Kind != domain.NodeKindHub {
				v.Add(kind+" edge", "", name,
					fmt.Sprintf("node %q is not a hub node", name))
			}
		}
	}
}

// validateCrossEntity checks invariants that span multiple entities.
func validateCrossEntity(t *domain.Topology, opts Options, v *Violations) {
	// At most one system account; exactly one when required.
	var systemAccounts []string
	for _, a := range t.Accounts() {
		if a.System {
			systemAccounts = append(systemAccounts, a.Name)
		}
	}
	if opts.RequireSystemAccount && len(systemAccounts) == 0 && len(t.Accounts()) > 0 {
		v.Add("topology", "accounts", "", "no account is flagged as the system account")
	}
	if len(systemAccounts) > 1 {
		v.Add("topology", "accounts", fmt.Sprintf("%v", systemAccounts),
			"more than one account is flagged as the system account")
	}

	// Hub/leaf JetStream domains must differ when both are set.
	for _, leaf := range t.LeafNodes() {
		hub := t.Node(leaf.Hub)
		if hub == nil || leaf.JetStream == nil || hub.JetStream == nil {
			continue
		}
		if leaf.JetStream.Domain != "" && leaf.JetStream.Domain == hub.JetStream.Domain {
			v.Add("node "+leaf.Name, "jetstream.domain", leaf.JetStream.Domain,
				fmt.Sprintf("JetStream domain collides with hub %q", hub.Name))
		}
	}

	if opts.StrictSymmetry {
		checkSymmetry(t.ClusterPeers, "cluster peer", v)
		checkSymmetry(t.Gateways, "gateway", v)
	}
}

// checkSymmetry reports edges declared in one direction only.
func checkSymmetry(edges []domain.EdgePair, kind string, v *Violations) {
	declared := make(map[domain.EdgePair]bool, len(edges))
	for _, e := range edges {
		declared[e] = true
	}
	for _, e := range edges {
		if e.A == e.B {
			continue
		}
		if !declared[domain.EdgePair{A: e.B, B: e.A}] {
			v.Add(kind+" edge", "", e.A+"->"+e.B,
				fmt.Sprintf("%q lists %q but not vice versa", e.A, e.B))
		}
	}
}

func checkLimit(v *Violations, entity, field string, limit *int64) {
	if limit != nil && *limit < 0 {
		v.Add(entity, field, fmt.Sprintf("%d", *limit), "limit must be non-negative")
	}
}
