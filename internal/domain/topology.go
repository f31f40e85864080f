package domain

import "fmt"

// EdgePair is an undirected connection edge between two named nodes. Edges
// are stored as plain pairs on the aggregate so arbitrary graph shapes never
// create reference cycles; traversal is always by name lookup.
type EdgePair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Topology is the aggregate root for one declared mesh: one operator plus
// insertion-ordered collections of accounts, users and nodes, and the
// connection edges between nodes. Mutations fail fast on uniqueness
// violations; full-graph invariants are the validator's job.
type Topology struct {
	Name     string
	Operator Operator

	accounts     map[string]*Account
	accountOrder []string
	users        map[string]*User
	userOrder    []string
	nodes        map[string]*Node
	nodeOrder    []string

	ClusterPeers []EdgePair
	Gateways     []EdgePair
}

// NewTopology creates an empty topology rooted at the given operator.
func NewTopology(name string, op Operator) *Topology {
	return &Topology{
		Name:     name,
		Operator: op,
		accounts: make(map[string]*Account),
		users:    make(map[string]*User),
		nodes:    make(map[string]*Node),
	}
}

// nameInUse reports whether a name is already taken by any account, user or
// node. Names share one namespace for addressing purposes.
func (t *Topology) nameInUse(name string) bool {
	if _, ok := t.accounts[name]; ok {
		return true
	}
	if _, ok := t.users[name]; ok {
		return true
	}
	_, ok := t.nodes[name]
	return ok
}

// AddAccount inserts an account, failing if the name is already in use.
func (t *Topology) AddAccount(a *Account) error {
	if a.Name == "" {
		return fmt.Errorf("account name must not be empty: %w", ErrInvalidInput)
	}
	if t.nameInUse(a.Name) {
		return fmt.Errorf("name %q already in use: %w", a.Name, ErrAlreadyExists)
	}
	t.accounts[a.Name] = a
	t.accountOrder = append(t.accountOrder, a.Name)
	return nil
}

// RemoveAccount removes an account by name.
func (t *Topology) RemoveAccount(name string) error {
	if _, ok := t.accounts[name]; !ok {
		return ErrNotFound
	}
	delete(t.accounts, name)
	t.accountOrder = removeName(t.accountOrder, name)
	return nil
}

// AddUser inserts a user, failing if the name is already in use. The account
// back-reference is checked by the validator over the assembled topology, so
// a document with a dangling reference surfaces as a validation report
// rather than a load failure.
func (t *Topology) AddUser(u *User) error {
	if u.Name == "" {
		return fmt.Errorf("user name must not be empty: %w", ErrInvalidInput)
	}
	if t.nameInUse(u.Name) {
		return fmt.Errorf("name %q already in use: %w", u.Name, ErrAlreadyExists)
	}
	t.users[u.Name] = u
	t.userOrder = append(t.userOrder, u.Name)
	return nil
}

// RemoveUser removes a user by name.
func (t *Topology) RemoveUser(name string) error {
	if _, ok := t.users[name]; !ok {
		return ErrNotFound
	}
	delete(t.users, name)
	t.userOrder = removeName(t.userOrder, name)
	return nil
}

// AddNode inserts a node, failing if the name is already in use.
func (t *Topology) AddNode(n *Node) error {
	if n.Name == "" {
		return fmt.Errorf("node name must not be empty: %w", ErrInvalidInput)
	}
	if t.nameInUse(n.Name) {
		return fmt.Errorf("name %q already in use: %w", n.Name, ErrAlreadyExists)
	}
	t.nodes[n.Name] = n
	t.nodeOrder = append(t.nodeOrder, n.Name)
	return nil
}

// RemoveNode removes a node by name.
func (t *Topology) RemoveNode(name string) error {
	if _, ok := t.nodes[name]; !ok {
		return ErrNotFound
	}
	delete(t.nodes, name)
	t.nodeOrder = removeName(t.nodeOrder, name)
	return nil
}

// AddClusterPeer records an undirected cluster edge between two nodes.
func (t *Topology) AddClusterPeer(a, b string) {
	t.ClusterPeers = append(t.ClusterPeers, EdgePair{A: a, B: b})
}

// AddGateway records an undirected gateway edge between two nodes.
func (t *Topology) AddGateway(a, b string) {
	t.Gateways = append(t.Gateways, EdgePair{A: a, B: b})
}

// Account returns the account with the given name, or nil.
func (t *Topology) Account(name string) *Account {
	return t.accounts[name]
}

// User returns the user with the given name, or nil.
func (t *Topology) User(name string) *User {
	return t.users[name]
}

// Node returns the node with the given name, or nil.
func (t *Topology) Node(name string) *Node {
	return t.nodes[name]
}

// Accounts returns all accounts in insertion order.
func (t *Topology) Accounts() []*Account {
	out := make([]*Account, 0, len(t.accountOrder))
	for _, name := range t.accountOrder {
		out = append(out, t.accounts[name])
	}
	return out
}

// Users returns all users in insertion order.
func (t *Topology) Users() []*User {
	out := make([]*User, 0, len(t.userOrder))
	for _, name := range t.userOrder {
		out = append(out, t.users[name])
	}
	return out
}

// UsersOf returns the users of one account, in insertion order.
func (t *Topology) UsersOf(account string) []*User {
	var out []*User
	for _, name := range t.userOrder {
		if u := t.users[name]; u.Account == account {
			out = append(out, u)
		}
	}
	return out
}

// Nodes returns all nodes in insertion order.
func (t *Topology) Nodes() []*Node {
	out := make([]*Node, 0, len(t.nodeOrder))
	for _, name := range t.nodeOrder {
		out = append(out, t.nodes[name])
	}
	return out
}

// HubNodes returns the hub nodes in insertion order.
func (t *Topology) HubNodes() []*Node {
	var out []*Node
	for _, n := range t.Nodes() {
		if n.Kind == NodeKindHub {
			out = append(out, n)
		}
	}
	return out
}

// LeafNodes returns the leaf nodes in insertion order.
func (t *Topology) LeafNodes() []*Node {
	var out []*Node
	for _, n := range t.Nodes() {
		if n.Kind == NodeKindLeaf {
			out = append(out, n)
		}
	}
	return out
}

// SystemAccount returns the account flagged as the system account, or nil if
// none (or more than one — the validator reports that case).
func (t *Topology) SystemAccount() *Account {
	for _, a := range t.Accounts() {
		if a.System {
			return a
		}
	}
	return nil
}

func removeName(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
