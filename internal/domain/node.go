package domain

import "fmt"

// NodeKind distinguishes the two broker roles in a hub-leaf topology.
type NodeKind string

const (
	NodeKindHub  NodeKind = "hub"
	NodeKindLeaf NodeKind = "leaf"
)

// Node is a single broker instance. Hub nodes accept cluster routes, gateway
// connections and leaf connections; leaf nodes dial outward to exactly one
// hub. Connection edges between nodes live on the Topology aggregate, not on
// the nodes themselves.
type Node struct {
	Name string   `json:"name"`
	Kind NodeKind `json:"kind"`

	Host string `json:"host,omitempty"` // defaults to 0.0.0.0 in the rendered config
	Port int    `json:"port"`           // client listen port

	// Hub-only listen ports.
	ClusterPort int `json:"cluster_port,omitempty"`
	GatewayPort int `json:"gateway_port,omitempty"`
	LeafPort    int `json:"leaf_port,omitempty"` // what dependent leaves dial

	// Leaf-only remote declaration.
	Hub     string `json:"hub,omitempty"`     // name of the remote hub node
	Account string `json:"account,omitempty"` // account the remote binds to
	User    string `json:"user,omitempty"`    // user whose creds the remote dials with

	JetStream *JetStream `json:"jetstream,omitempty"`
	TLS       *TLS       `json:"tls,omitempty"`
}

// JetStream holds per-node persistence settings. Domains must differ between
// a hub and any leaf that references it.
type JetStream struct {
	Domain    string `json:"domain,omitempty"`
	StoreDir  string `json:"store_dir,omitempty"`
	MaxMemory int64  `json:"max_memory,omitempty"` // bytes
	MaxFile   int64  `json:"max_file,omitempty"`   // bytes
}

// TLS holds the certificate file paths rendered into a node's tls block.
type TLS struct {
	CertFile string `json:"cert_file"`
	KeyFile  string `json:"key_file"`
	CAFile   string `json:"ca_file,omitempty"`
}

// ResolvedHost returns the host peers use to reach this node.
func (n *Node) ResolvedHost() string {
	if n.Host == "" {
		return "0.0.0.0"
	}
	return n.Host
}

// ClientURL is the address clients connect to.
func (n *Node) ClientURL() string {
	return fmt.Sprintf("nats://%s:%d", n.ResolvedHost(), n.Port)
}

// LeafURL is the address dependent leaf nodes dial. Only meaningful for hub
// nodes that declare a leaf listen port.
func (n *Node) LeafURL() string {
	return fmt.Sprintf("nats://%s:%d", n.ResolvedHost(), n.LeafPort)
}

// RouteURL is the cluster route address peers list for this node.
func (n *Node) RouteURL() string {
	return fmt.Sprintf("nats-route://%s:%d", n.ResolvedHost(), n.ClusterPort)
}

// GatewayURL is the gateway address other gateways dial.
func (n *Node) GatewayURL() string {
	return fmt.Sprintf("nats://%s:%d", n.ResolvedHost(), n.GatewayPort)
}
