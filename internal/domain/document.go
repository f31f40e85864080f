package domain

import (
	"encoding/json"
	"fmt"
)

// Document is the declarative, on-the-wire form of a topology. Accounts nest
// their users and nodes carry their declared peer/gateway names; loading
// flattens those into the aggregate's maps and edge pairs.
type Document struct {
	Name     string        `json:"name"`
	Operator Operator      `json:"operator"`
	Accounts []DocAccount  `json:"accounts"`
	Nodes    []DocNode     `json:"nodes,omitempty"`
}

// DocAccount is an account declaration with its nested users.
type DocAccount struct {
	Account
	Users []User `json:"users,omitempty"`
}

// DocNode is a node declaration with its peer and gateway name lists.
type DocNode struct {
	Node
	Peers        []string `json:"peers,omitempty"`
	GatewayPeers []string `json:"gateways,omitempty"`
}

// ParseDocument decodes a JSON topology document and assembles the topology
// aggregate. Decode failures and insert-time uniqueness violations are
// returned as a StructuralError; everything else (dangling references,
// domain collisions) is left for the validator so a caller gets one complete
// report per run.
func ParseDocument(data []byte) (*Topology, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &StructuralError{Err: err}
	}
	return doc.Build()
}

// Build assembles the topology aggregate from a decoded document.
func (doc *Document) Build() (*Topology, error) {
	t := NewTopology(doc.Name, doc.Operator)

	for i := range doc.Accounts {
		da := &doc.Accounts[i]
		acct := da.Account
		if err := t.AddAccount(&acct); err != nil {
			return nil, &StructuralError{Err: fmt.Errorf("account %q: %w", da.Name, err)}
		}
		for j := range da.Users {
			u := da.Users[j]
			if u.Account == "" {
				u.Account = da.Name
			}
			if err := t.AddUser(&u); err != nil {
				return nil, &StructuralError{Err: fmt.Errorf("user %q: %w", u.Name, err)}
			}
		}
	}

	for i := range doc.Nodes {
		dn := &doc.Nodes[i]
		node := dn.Node
		if err := t.AddNode(&node); err != nil {
			return nil, &StructuralError{Err: fmt.Errorf("node %q: %w", dn.Name, err)}
		}
	}

	// Edges are recorded after all nodes exist; whether both endpoints
	// resolve is a validator concern.
	for i := range doc.Nodes {
		dn := &doc.Nodes[i]
		for _, peer := range dn.Peers {
			t.AddClusterPeer(dn.Name, peer)
		}
		for _, gw := range dn.GatewayPeers {
			t.AddGateway(dn.Name, gw)
		}
	}

	return t, nil
}
