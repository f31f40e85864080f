package domain

import (
	"errors"
	"testing"
)

func TestTopology_AddDuplicateName(t *testing.T) {
	topo := NewTopology("mesh", Operator{Name: "op"})

	if err := topo.AddAccount(&Account{Name: "svc"}); err != nil {
		t.Fatalf("AddAccount() error = %v", err)
	}

	// Names share one namespace across accounts, users and nodes.
	if err := topo.AddAccount(&Account{Name: "svc"}); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("duplicate account error = %v, want ErrAlreadyExists", err)
	}
	if err := topo.AddUser(&User{Name: "svc", Account: "svc"}); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("user reusing account name error = %v, want ErrAlreadyExists", err)
	}
	if err := topo.AddNode(&Node{Name: "svc", Kind: NodeKindHub, Port: 4222}); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("node reusing account name error = %v, want ErrAlreadyExists", err)
	}
}

func TestTopology_AddEmptyName(t *testing.T) {
	topo := NewTopology("mesh", Operator{Name: "op"})

	if err := topo.AddAccount(&Account{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty account name error = %v, want ErrInvalidInput", err)
	}
	if err := topo.AddUser(&User{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty user name error = %v, want ErrInvalidInput", err)
	}
	if err := topo.AddNode(&Node{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty node name error = %v, want ErrInvalidInput", err)
	}
}

func TestTopology_InsertionOrder(t *testing.T) {
	topo := NewTopology("mesh", Operator{Name: "op"})

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		if err := topo.AddAccount(&Account{Name: name}); err != nil {
			t.Fatalf("AddAccount(%q) error = %v", name, err)
		}
	}

	accounts := topo.Accounts()
	want := []string{"charlie", "alpha", "bravo"}
	for i, a := range accounts {
		if a.Name != want[i] {
			t.Errorf("Accounts()[%d] = %q, want %q", i, a.Name, want[i])
		}
	}
}

func TestTopology_RemoveAccount(t *testing.T) {
	topo := NewTopology("mesh", Operator{Name: "op"})
	_ = topo.AddAccount(&Account{Name: "svc"})

	if err := topo.RemoveAccount("svc"); err != nil {
		t.Fatalf("RemoveAccount() error = %v", err)
	}
	if topo.Account("svc") != nil {
		t.Error("Account() returned removed account")
	}
	if err := topo.RemoveAccount("svc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second RemoveAccount() error = %v, want ErrNotFound", err)
	}

	// The name is free again after removal.
	if err := topo.AddNode(&Node{Name: "svc", Kind: NodeKindHub, Port: 4222}); err != nil {
		t.Errorf("AddNode() after removal error = %v", err)
	}
}

func TestTopology_UsersOf(t *testing.T) {
	topo := NewTopology("mesh", Operator{Name: "op"})
	_ = topo.AddAccount(&Account{Name: "svc"})
	_ = topo.AddAccount(&Account{Name: "ops"})
	_ = topo.AddUser(&User{Name: "worker", Account: "svc"})
	_ = topo.AddUser(&User{Name: "admin", Account: "ops"})
	_ = topo.AddUser(&User{Name: "reader", Account: "svc"})

	users := topo.UsersOf("svc")
	if len(users) != 2 {
		t.Fatalf("UsersOf(svc) returned %d users, want 2", len(users))
	}
	if users[0].Name != "worker" || users[1].Name != "reader" {
		t.Errorf("UsersOf(svc) = [%s, %s], want [worker, reader]", users[0].Name, users[1].Name)
	}
}

func TestTopology_SystemAccount(t *testing.T) {
	topo := NewTopology("mesh", Operator{Name: "op"})
	if topo.SystemAccount() != nil {
		t.Error("SystemAccount() on empty topology should be nil")
	}

	_ = topo.AddAccount(&Account{Name: "svc"})
	_ = topo.AddAccount(&Account{Name: "sys", System: true})

	sys := topo.SystemAccount()
	if sys == nil || sys.Name != "sys" {
		t.Errorf("SystemAccount() = %v, want sys", sys)
	}
}

func TestTopology_HubAndLeafNodes(t *testing.T) {
	topo := NewTopology("mesh", Operator{Name: "op"})
	_ = topo.AddNode(&Node{Name: "leaf-1", Kind: NodeKindLeaf, Port: 4222, Hub: "hub-1"})
	_ = topo.AddNode(&Node{Name: "hub-1", Kind: NodeKindHub, Port: 4222})
	_ = topo.AddNode(&Node{Name: "hub-2", Kind: NodeKindHub, Port: 4222})

	hubs := topo.HubNodes()
	if len(hubs) != 2 || hubs[0].Name != "hub-1" || hubs[1].Name != "hub-2" {
		t.Errorf("HubNodes() = %v, want [hub-1, hub-2]", hubs)
	}
	leaves := topo.LeafNodes()
	if len(leaves) != 1 || leaves[0].Name != "leaf-1" {
		t.Errorf("LeafNodes() = %v, want [leaf-1]", leaves)
	}
}

func TestNode_URLs(t *testing.T) {
	n := &Node{Name: "hub-1", Kind: NodeKindHub, Host: "hub1.example.com", Port: 4222, ClusterPort: 6222, GatewayPort: 7222, LeafPort: 7422}

	if got := n.ClientURL(); got != "nats://hub1.example.com:4222" {
		t.Errorf("ClientURL() = %q", got)
	}
	if got := n.RouteURL(); got != "nats-route://hub1.example.com:6222" {
		t.Errorf("RouteURL() = %q", got)
	}
	if got := n.GatewayURL(); got != "nats://hub1.example.com:7222" {
		t.Errorf("GatewayURL() = %q", got)
	}
	if got := n.LeafURL(); got != "nats://hub1.example.com:7422" {
		t.Errorf("LeafURL() = %q", got)
	}

	// Host defaults when unset.
	bare := &Node{Name: "hub-2", Kind: NodeKindHub, Port: 4222}
	if got := bare.ClientURL(); got != "nats://0.0.0.0:4222" {
		t.Errorf("ClientURL() with default host = %q", got)
	}
}
