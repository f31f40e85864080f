// Package planner linearizes a topology into the order its identities must
// be issued and its node configurations generated. Both dependency graphs
// are acyclic by construction (a user cannot be its own account, a leaf
// cannot be its own hub), so this is a direct linearization rather than a
// general topological sort.
package planner

import (
	"fmt"

	"github.com/natsmesh/natsmesh/internal/domain"
)

// StepKind tags the three kinds of issuance steps.
type StepKind string

const (
	StepOperator StepKind = "operator"
	StepAccount  StepKind = "account"
	StepUser     StepKind = "user"
)

// Step is one issuance operation in the plan.
type Step struct {
	Kind    StepKind `json:"kind"`
	Name    string   `json:"name"`
	Account string   `json:"account,omitempty"` // users only: parent account
}

// String renders the step for diagnostics, e.g. "user worker (account svc)".
func (s Step) String() string {
	if s.Kind == StepUser {
		return fmt.Sprintf("user %s (account %s)", s.Name, s.Account)
	}
	return fmt.Sprintf("%s %s", s.Kind, s.Name)
}

// IssuancePlan returns the dependency-respecting issuance order: the
// operator first, then every account in insertion order, then users grouped
// by their account's order (insertion order within each account). Accounts
// are mutually independent, so insertion order is chosen purely for
// deterministic, reproducible output.
func IssuancePlan(t *domain.Topology) []Step {
	plan := make([]Step, 0, 1+len(t.Accounts())+len(t.Users()))

	plan = append(plan, Step{Kind: StepOperator, Name: t.Operator.Name})

	for _, a := range t.Accounts() {
		plan = append(plan, Step{Kind: StepAccount, Name: a.Name})
	}
	for _, a := range t.Accounts() {
		for _, u := range t.UsersOf(a.Name) {
			plan = append(plan, Step{Kind: StepUser, Name: u.Name, Account: a.Name})
		}
	}

	return plan
}

// ConfigOrder returns the config-generation order: all hub nodes first, then
// all leaf nodes, each group in insertion order. This guarantees a leaf's
// referenced hub address is resolved before the leaf's config is rendered.
func ConfigOrder(t *domain.Topology) []*domain.Node {
	order := make([]*domain.Node, 0, len(t.Nodes()))
	order = append(order, t.HubNodes()...)
	order = append(order, t.LeafNodes()...)
	return order
}
