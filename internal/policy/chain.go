package policy

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Source when the target resource does not
// exist. Adapters translate their own sentinel to this one.
var ErrNotFound = errors.New("resource not found")

// Resource is the slice of an article the policies need: identity,
// ownership anchor and current workflow state.
type Resource struct {
	ID        string
	CreatorID string
	Status    Status
}

// Source loads the target resource for ownership and workflow checks.
type Source interface {
	Resource(ctx context.Context, id string) (Resource, error)
}

// Input is the request-scoped evaluation context shared by every check in
// a chain. The resource read is cached so that ownership and workflow
// checks in the same chain fetch at most once.
type Input struct {
	Credential   Credential
	ResourceID   string // empty for creation requests
	TargetStatus string // empty when the request does not touch status

	source  Source
	loaded  bool
	res     Resource
	loadErr error
}

// NewInput builds an evaluation context. src may be nil for chains that
// never touch the resource (e.g. publish-gate only).
func NewInput(cred Credential, resourceID, targetStatus string, src Source) *Input {
	return &Input{
		Credential:   cred,
		ResourceID:   resourceID,
		TargetStatus: targetStatus,
		source:       src,
	}
}

func (in *Input) resource(ctx context.Context) (Resource, error) {
	if in.loaded {
		return in.res, in.loadErr
	}
	in.loaded = true
	if in.source == nil {
		in.loadErr = errors.New("no resource source configured")
		return in.res, in.loadErr
	}
	in.res, in.loadErr = in.source.Resource(ctx, in.ResourceID)
	return in.res, in.loadErr
}

// Check is one named policy in a chain.
type Check struct {
	Name string
	Eval func(ctx context.Context, in *Input) Decision
}

// WithBypass wraps a check so that trusted service credentials pass it
// unconditionally. The bypass rule is expressed once, here, and applied
// uniformly when a chain is composed; no individual policy re-implements
// it.
func WithBypass(c Check) Check {
	return Check{
		Name: c.Name,
		Eval: func(ctx context.Context, in *Input) Decision {
			if in.Credential.Trusted() {
				return Allow()
			}
			return c.Eval(ctx, in)
		},
	}
}

// Chain is an ordered, short-circuiting sequence of checks bound to one
// operation. The first failing check aborts evaluation and its decision is
// the final result. Order matters: cheap membership checks come before
// checks that fetch the resource.
type Chain struct {
	Operation string
	Reporter  Reporter
	checks    []Check
}

// NewChain composes checks for an operation, applying the service
// credential bypass to each.
func NewChain(operation string, reporter Reporter, checks ...Check) Chain {
	wrapped := make([]Check, len(checks))
	for i, c := range checks {
		wrapped[i] = WithBypass(c)
	}
	return Chain{Operation: operation, Reporter: reporter, checks: wrapped}
}

// Evaluate runs the chain. Every individual decision is reported to the
// audit sink, fire-and-forget; policy evaluation never mutates resource
// state.
func (ch Chain) Evaluate(ctx context.Context, in *Input) Decision {
	for _, c := range ch.checks {
		d := c.Eval(ctx, in)
		ch.report(ctx, c.Name, in, d)
		if !d.Allowed {
			return d
		}
	}
	return Allow()
}

func (ch Chain) report(ctx context.Context, policyName string, in *Input, d Decision) {
	if ch.Reporter == nil {
		return
	}
	outcome := OutcomeAllow
	if !d.Allowed {
		outcome = OutcomeDeny
	}
	ch.Reporter.Report(ctx, DecisionEvent{
		Outcome:     outcome,
		Operation:   ch.Operation,
		Policy:      policyName,
		PrincipalID: in.Credential.Principal.ID,
		Role:        in.Credential.Principal.Role,
		ResourceID:  in.ResourceID,
		Reason:      d.Reason,
		Message:     d.Message,
	})
}
