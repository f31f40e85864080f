package synth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/natsmesh/natsmesh/internal/credential"
	"github.com/natsmesh/natsmesh/internal/domain"
	"github.com/natsmesh/natsmesh/internal/planner"
	"github.com/natsmesh/natsmesh/internal/signer"
	"github.com/natsmesh/natsmesh/internal/synth"
)

// meshTopology builds two clustered hubs (edge declared in one direction
// only), a gateway pair, and one leaf dialing hub-1 with a user credential.
func meshTopology(t *testing.T) *domain.Topology {
	t.Helper()
	topo := domain.NewTopology("mesh", domain.Operator{Name: "acme"})
	_ = topo.AddAccount(&domain.Account{Name: "sys", System: true})
	_ = topo.AddAccount(&domain.Account{Name: "svc"})
	_ = topo.AddUser(&domain.User{Name: "worker", Account: "svc"})
	_ = topo.AddNode(&domain.Node{Name: "hub-1", Kind: domain.NodeKindHub, Host: "hub1.example.com",
		Port: 4222, ClusterPort: 6222, GatewayPort: 7222, LeafPort: 7422})
	_ = topo.AddNode(&domain.Node{Name: "hub-2", Kind: domain.NodeKindHub, Host: "hub2.example.com",
		Port: 4222, ClusterPort: 6222, GatewayPort: 7222})
	_ = topo.AddNode(&domain.Node{Name: "edge-1", Kind: domain.NodeKindLeaf, Port: 4222,
		Hub: "hub-1", Account: "svc", User: "worker",
		JetStream: &domain.JetStream{Domain: "edge"}})
	topo.AddClusterPeer("hub-1", "hub-2")
	topo.AddGateway("hub-1", "hub-2")
	return topo
}

func issue(t *testing.T, topo *domain.Topology) *domain.CredentialSet {
	t.Helper()
	b := credential.NewBuilder(signer.NewFake(), time.Second, 0)
	creds, err := b.Build(context.Background(), topo, planner.IssuancePlan(topo))
	if err != nil {
		t.Fatalf("issuing credentials: %v", err)
	}
	return creds
}

func configFor(t *testing.T, artifacts *domain.ArtifactSet, name string) string {
	t.Helper()
	for _, c := range artifacts.NodeConfigs {
		if c.Name == name {
			return c.Content
		}
	}
	t.Fatalf("no config named %q in %v", name, artifacts.NodeConfigs)
	return ""
}

func TestRender_EdgeUnion(t *testing.T) {
	topo := meshTopology(t)
	creds := issue(t, topo)

	artifacts, err := synth.New().Render(topo, creds)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	// The edge was declared on hub-1 only; both rendered configs carry it.
	hub1 := configFor(t, artifacts, "hub-1.conf")
	hub2 := configFor(t, artifacts, "hub-2.conf")

	if !strings.Contains(hub1, `"nats-route://hub2.example.com:6222"`) {
		t.Errorf("hub-1 config missing route to hub-2:\n%s", hub1)
	}
	if !strings.Contains(hub2, `"nats-route://hub1.example.com:6222"`) {
		t.Errorf("hub-2 config missing unioned route to hub-1:\n%s", hub2)
	}
	if !strings.Contains(hub2, `url: "nats://hub1.example.com:7222"`) {
		t.Errorf("hub-2 config missing unioned gateway to hub-1:\n%s", hub2)
	}
}

func TestRender_LeafRemote(t *testing.T) {
	topo := meshTopology(t)
	creds := issue(t, topo)

	artifacts, err := synth.New().Render(topo, creds)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	leaf := configFor(t, artifacts, "edge-1.conf")
	if !strings.Contains(leaf, `url: "nats://hub1.example.com:7422"`) {
		t.Errorf("leaf config missing hub leaf URL:\n%s", leaf)
	}
	if !strings.Contains(leaf, `account: "`+creds.Get("svc").PublicID+`"`) {
		t.Errorf("leaf config missing bound account ID:\n%s", leaf)
	}
	if !strings.Contains(leaf, `credentials: "svc-worker.creds"`) {
		t.Errorf("leaf config missing creds file reference:\n%s", leaf)
	}
	if !strings.Contains(leaf, `domain: "edge"`) {
		t.Errorf("leaf config missing jetstream domain:\n%s", leaf)
	}
}

func TestRender_TrustSection(t *testing.T) {
	topo := meshTopology(t)
	creds := issue(t, topo)

	artifacts, err := synth.New().Render(topo, creds)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if artifacts.Resolver.Name != "resolver.conf" {
		t.Errorf("resolver artifact named %q", artifacts.Resolver.Name)
	}
	resolver := artifacts.Resolver.Content

	if !strings.Contains(resolver, `operator: "`+creds.Get("acme").JWT+`"`) {
		t.Error("resolver missing operator JWT")
	}
	if !strings.Contains(resolver, `system_account: "`+creds.Get("sys").PublicID+`"`) {
		t.Error("resolver missing system account ID")
	}
	if !strings.Contains(resolver, "resolver: MEMORY") {
		t.Error("resolver missing MEMORY directive")
	}
	// Every account's JWT is preloaded.
	for _, name := range []string{"sys", "svc"} {
		if !strings.Contains(resolver, creds.Get(name).PublicID+": ") {
			t.Errorf("resolver preload missing account %q", name)
		}
	}

	// Each node config embeds the same trust section.
	hub1 := configFor(t, artifacts, "hub-1.conf")
	if !strings.Contains(hub1, resolver) {
		t.Error("node config does not embed the trust section")
	}
}

func TestRender_CredsFiles(t *testing.T) {
	topo := meshTopology(t)
	creds := issue(t, topo)

	artifacts, err := synth.New().Render(topo, creds)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if len(artifacts.CredsFiles) != 1 {
		t.Fatalf("got %d creds files, want 1", len(artifacts.CredsFiles))
	}
	cf := artifacts.CredsFiles[0]
	if cf.Name != "svc-worker.creds" {
		t.Errorf("creds file named %q, want svc-worker.creds", cf.Name)
	}
	if cf.Content != creds.Get("worker").Creds {
		t.Error("creds file content does not match issued credential")
	}
}

func TestRender_MissingCredentialIsInternal(t *testing.T) {
	topo := meshTopology(t)
	creds := issue(t, topo)

	// Drop one account credential to simulate an orderer/validator bug.
	broken := domain.NewCredentialSet()
	for _, c := range creds.All() {
		if c.Name != "svc" {
			broken.Add(c)
		}
	}

	_, err := synth.New().Render(topo, broken)
	var internal *synth.InternalError
	if !errors.As(err, &internal) {
		t.Fatalf("Render() error = %v, want InternalError", err)
	}
	if internal.Name != "svc" {
		t.Errorf("InternalError.Name = %q, want svc", internal.Name)
	}
}

func TestRender_ConfigOrder(t *testing.T) {
	topo := meshTopology(t)
	creds := issue(t, topo)

	artifacts, err := synth.New().Render(topo, creds)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := []string{"hub-1.conf", "hub-2.conf", "edge-1.conf"}
	if len(artifacts.NodeConfigs) != len(want) {
		t.Fatalf("got %d configs, want %d", len(artifacts.NodeConfigs), len(want))
	}
	for i, c := range artifacts.NodeConfigs {
		if c.Name != want[i] {
			t.Errorf("NodeConfigs[%d] = %q, want %q", i, c.Name, want[i])
		}
	}
}
