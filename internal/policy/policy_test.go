package policy_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"newsdesk/internal/policy"
)

type fakeSource struct {
	articles map[string]policy.Resource
	err      error
	calls    int
}

func (f *fakeSource) Resource(ctx context.Context, id string) (policy.Resource, error) {
	f.calls++
	if f.err != nil {
		return policy.Resource{}, f.err
	}
	res, ok := f.articles[id]
	if !ok {
		return policy.Resource{}, policy.ErrNotFound
	}
	return res, nil
}

type captureReporter struct {
	events []policy.DecisionEvent
}

func (c *captureReporter) Report(_ context.Context, evt policy.DecisionEvent) {
	c.events = append(c.events, evt)
}

func userCred(id string, role policy.Role) policy.Credential {
	return policy.Credential{
		Kind:      policy.CredentialUser,
		Principal: policy.Principal{ID: id, Role: role},
	}
}

func serviceCred(id string) policy.Credential {
	return policy.Credential{
		Kind:      policy.CredentialService,
		Principal: policy.Principal{ID: id},
	}
}

var allRoles = []policy.Role{
	policy.RoleUnknown, policy.RoleReader, policy.RoleReporter,
	policy.RoleReviewer, policy.RoleEditor, policy.RoleAdmin,
}

var allStatuses = []policy.Status{
	policy.StatusDraft, policy.StatusReview, policy.StatusPublished,
}

func TestParseRole(t *testing.T) {
	cases := []struct {
		typeTag, name string
		want          policy.Role
	}{
		{"editor", "", policy.RoleEditor},
		{"EDITOR", "", policy.RoleEditor},
		{"", "Reviewer", policy.RoleReviewer},
		{"  reporter  ", "", policy.RoleReporter},
		{"admin", "", policy.RoleAdmin},
		{"", "Administrator", policy.RoleAdmin},
		{"", "Super Admin", policy.RoleAdmin},
		{"authenticated", "Some Role", policy.RoleUnknown},
		{"", "", policy.RoleUnknown},
	}
	for _, c := range cases {
		if got := policy.ParseRole(c.typeTag, c.name); got != c.want {
			t.Errorf("ParseRole(%q, %q) = %q, want %q", c.typeTag, c.name, got, c.want)
		}
	}
}

func TestCapabilitiesUnknownRoleEmpty(t *testing.T) {
	if caps := policy.Capabilities(policy.RoleUnknown); len(caps) != 0 {
		t.Fatalf("unknown role must have no capabilities, got %v", caps)
	}
	if policy.HasCapability(policy.RoleReviewer, policy.CapabilityPublish) {
		t.Fatalf("reviewer must not hold publish capability")
	}
	if !policy.HasCapability(policy.RoleAdmin, policy.CapabilityOwnAny) {
		t.Fatalf("admin must hold ownership override")
	}
}

func TestNoOpTransitionsAlwaysAllowed(t *testing.T) {
	for _, role := range allRoles {
		for _, s := range allStatuses {
			if !policy.TransitionAllowed(role, s, s) {
				t.Errorf("role %q: no-op %s -> %s must pass", role, s, s)
			}
		}
	}
}

func TestTransitionTableExhaustive(t *testing.T) {
	allowed := map[policy.Role]map[policy.Status][]policy.Status{
		policy.RoleReporter: {policy.StatusDraft: {policy.StatusReview}},
		policy.RoleReviewer: {
			policy.StatusDraft:  {policy.StatusReview},
			policy.StatusReview: {policy.StatusDraft},
		},
		policy.RoleEditor: {
			policy.StatusDraft:     {policy.StatusReview, policy.StatusPublished},
			policy.StatusReview:    {policy.StatusDraft, policy.StatusPublished},
			policy.StatusPublished: {policy.StatusDraft},
		},
		policy.RoleAdmin: {
			policy.StatusDraft:     {policy.StatusReview, policy.StatusPublished},
			policy.StatusReview:    {policy.StatusDraft, policy.StatusPublished},
			policy.StatusPublished: {policy.StatusDraft},
		},
	}
	inSet := func(set []policy.Status, s policy.Status) bool {
		for _, v := range set {
			if v == s {
				return true
			}
		}
		return false
	}
	for _, role := range allRoles {
		for _, from := range allStatuses {
			for _, to := range allStatuses {
				if from == to {
					continue
				}
				want := inSet(allowed[role][from], to)
				if got := policy.TransitionAllowed(role, from, to); got != want {
					t.Errorf("role %q %s -> %s: allowed=%v, want %v", role, from, to, got, want)
				}
			}
		}
	}
}

func TestWorkflowCheckDeniesWithAllowedSet(t *testing.T) {
	src := &fakeSource{articles: map[string]policy.Resource{
		"a1": {ID: "a1", CreatorID: "rep-1", Status: policy.StatusReview},
	}}
	in := policy.NewInput(userCred("rep-1", policy.RoleReporter), "a1", "published", src)
	d := policy.WorkflowTransition().Eval(context.Background(), in)
	if d.Allowed {
		t.Fatalf("reporter review -> published must deny")
	}
	if d.Reason != policy.ReasonInvalidTransition {
		t.Fatalf("reason = %q, want invalid_transition", d.Reason)
	}
	if !strings.Contains(d.Message, "{}") {
		t.Fatalf("denial must list the allowed set, got %q", d.Message)
	}
	if !strings.Contains(d.Message, "review") || !strings.Contains(d.Message, "published") {
		t.Fatalf("denial must name current and requested state, got %q", d.Message)
	}
}

func TestWorkflowCheckNoTargetPasses(t *testing.T) {
	src := &fakeSource{}
	in := policy.NewInput(userCred("u1", policy.RoleReader), "a1", "", src)
	if d := policy.WorkflowTransition().Eval(context.Background(), in); !d.Allowed {
		t.Fatalf("field-only edit must bypass the state machine: %+v", d)
	}
	if src.calls != 0 {
		t.Fatalf("no-target check must not fetch the resource")
	}
}

func TestWorkflowInvalidStatusValue(t *testing.T) {
	in := policy.NewInput(userCred("ed-1", policy.RoleEditor), "a1", "archived", &fakeSource{})
	d := policy.WorkflowTransition().Eval(context.Background(), in)
	if d.Allowed || d.Reason != policy.ReasonInvalidStatusValue {
		t.Fatalf("expected invalid_status_value, got %+v", d)
	}
}

func TestInitialStatusRule(t *testing.T) {
	cases := []struct {
		role   policy.Role
		status string
		allow  bool
	}{
		{policy.RoleReporter, "draft", true},
		{policy.RoleReporter, "review", false},
		{policy.RoleReporter, "published", false},
		{policy.RoleReviewer, "draft", false},
		{policy.RoleReader, "draft", false},
		{policy.RoleUnknown, "draft", false},
		{policy.RoleEditor, "published", true},
		{policy.RoleAdmin, "review", true},
	}
	for _, c := range cases {
		in := policy.NewInput(userCred("u1", c.role), "", c.status, nil)
		d := policy.WorkflowTransition().Eval(context.Background(), in)
		if d.Allowed != c.allow {
			t.Errorf("role %q create status %q: allowed=%v, want %v (%s)",
				c.role, c.status, d.Allowed, c.allow, d.Message)
		}
		if !c.allow && d.Reason != policy.ReasonInvalidTransition {
			t.Errorf("role %q create status %q: reason %q", c.role, c.status, d.Reason)
		}
	}
}

func TestMissingStatusReadAsDraft(t *testing.T) {
	src := &fakeSource{articles: map[string]policy.Resource{
		"a1": {ID: "a1", CreatorID: "rep-1"},
	}}
	in := policy.NewInput(userCred("rep-1", policy.RoleReporter), "a1", "review", src)
	if d := policy.WorkflowTransition().Eval(context.Background(), in); !d.Allowed {
		t.Fatalf("missing stored status must be treated as draft: %+v", d)
	}
}

func TestRoleGate(t *testing.T) {
	gate := policy.RoleGate(policy.RoleEditor, policy.RoleAdmin)

	d := gate.Eval(context.Background(), policy.NewInput(userCred("", policy.RoleEditor), "", "", nil))
	if d.Allowed || d.Reason != policy.ReasonUnauthenticated {
		t.Fatalf("missing principal id: %+v", d)
	}

	d = gate.Eval(context.Background(), policy.NewInput(userCred("u1", policy.RoleReporter), "", "", nil))
	if d.Allowed || d.Reason != policy.ReasonForbidden {
		t.Fatalf("reporter through editor gate: %+v", d)
	}
	if !strings.Contains(d.Message, "editor") || !strings.Contains(d.Message, "admin") {
		t.Fatalf("denial must name required roles, got %q", d.Message)
	}

	d = gate.Eval(context.Background(), policy.NewInput(userCred("u1", policy.RoleAdmin), "", "", nil))
	if !d.Allowed {
		t.Fatalf("admin must pass: %+v", d)
	}
}

func TestRoleGateMisconfigured(t *testing.T) {
	gate := policy.RoleGate()
	d := gate.Eval(context.Background(), policy.NewInput(userCred("u1", policy.RoleEditor), "", "", nil))
	if d.Allowed || d.Reason != policy.ReasonMisconfigured {
		t.Fatalf("empty allowed list must be misconfigured, got %+v", d)
	}
}

func TestOwnershipOrEditor(t *testing.T) {
	src := &fakeSource{articles: map[string]policy.Resource{
		"a1": {ID: "a1", CreatorID: "rep-a", Status: policy.StatusDraft},
	}}
	check := policy.OwnershipOrEditor()

	// Creator passes.
	d := check.Eval(context.Background(), policy.NewInput(userCred("rep-a", policy.RoleReporter), "a1", "", src))
	if !d.Allowed {
		t.Fatalf("creator denied: %+v", d)
	}
	// Non-creator reporter denied.
	d = check.Eval(context.Background(), policy.NewInput(userCred("rep-b", policy.RoleReporter), "a1", "", src))
	if d.Allowed || d.Reason != policy.ReasonForbidden {
		t.Fatalf("non-creator must be forbidden: %+v", d)
	}
	// Editor and admin pass regardless of creator.
	for _, role := range []policy.Role{policy.RoleEditor, policy.RoleAdmin} {
		d = check.Eval(context.Background(), policy.NewInput(userCred("other", role), "a1", "", src))
		if !d.Allowed {
			t.Fatalf("%s override denied: %+v", role, d)
		}
	}
}

func TestOwnershipFailureModes(t *testing.T) {
	check := policy.OwnershipOrEditor()
	ctx := context.Background()

	d := check.Eval(ctx, policy.NewInput(userCred("u1", policy.RoleReporter), "", "", &fakeSource{}))
	if d.Reason != policy.ReasonInvalidRequest {
		t.Fatalf("missing resource id: %+v", d)
	}

	d = check.Eval(ctx, policy.NewInput(userCred("u1", policy.RoleReporter), "ghost", "", &fakeSource{}))
	if d.Reason != policy.ReasonNotFound {
		t.Fatalf("absent resource: %+v", d)
	}

	src := &fakeSource{articles: map[string]policy.Resource{"a1": {ID: "a1"}}}
	d = check.Eval(ctx, policy.NewInput(userCred("u1", policy.RoleReporter), "a1", "", src))
	if d.Reason != policy.ReasonIntegrityError {
		t.Fatalf("missing creator must be integrity_error, got %+v", d)
	}

	broken := &fakeSource{err: errors.New("store offline")}
	d = check.Eval(ctx, policy.NewInput(userCred("u1", policy.RoleReporter), "a1", "", broken))
	if d.Reason != policy.ReasonInternal {
		t.Fatalf("store failure must not read as forbidden: %+v", d)
	}
}

func TestPublishGate(t *testing.T) {
	gate := policy.PublishGate()
	ctx := context.Background()
	for _, role := range allRoles {
		d := gate.Eval(ctx, policy.NewInput(userCred("u1", role), "a1", "", nil))
		want := role == policy.RoleEditor || role == policy.RoleAdmin
		if d.Allowed != want {
			t.Errorf("publish gate role %q: allowed=%v, want %v", role, d.Allowed, want)
		}
	}
	d := gate.Eval(ctx, policy.NewInput(userCred("", policy.RoleEditor), "a1", "", nil))
	if d.Reason != policy.ReasonUnauthenticated {
		t.Fatalf("missing id must be unauthenticated: %+v", d)
	}
}

func TestServiceCredentialBypassesEverything(t *testing.T) {
	// Non-matching role, non-matching ownership, illegal transition: a
	// service credential must still pass every policy.
	src := &fakeSource{articles: map[string]policy.Resource{
		"a1": {ID: "a1", CreatorID: "someone-else", Status: policy.StatusPublished},
	}}
	rep := &captureReporter{}
	chain := policy.NewChain("article.update", rep,
		policy.RoleGate(policy.RoleEditor),
		policy.OwnershipOrEditor(),
		policy.WorkflowTransition(),
		policy.PublishGate(),
	)
	in := policy.NewInput(serviceCred("render-bot"), "a1", "review", src)
	if d := chain.Evaluate(context.Background(), in); !d.Allowed {
		t.Fatalf("service credential must bypass all checks: %+v", d)
	}
	for _, evt := range rep.events {
		if evt.Outcome != policy.OutcomeAllow {
			t.Fatalf("bypassed check reported deny: %+v", evt)
		}
	}
	if src.calls != 0 {
		t.Fatalf("bypass must not fetch the resource")
	}
}

func TestChainShortCircuits(t *testing.T) {
	src := &fakeSource{articles: map[string]policy.Resource{
		"a1": {ID: "a1", CreatorID: "rep-a", Status: policy.StatusDraft},
	}}
	rep := &captureReporter{}
	chain := policy.NewChain("article.delete", rep,
		policy.RoleGate(policy.RoleEditor, policy.RoleAdmin),
		policy.OwnershipOrEditor(),
	)
	in := policy.NewInput(userCred("rep-a", policy.RoleReporter), "a1", "", src)
	d := chain.Evaluate(context.Background(), in)
	if d.Allowed || d.Reason != policy.ReasonForbidden {
		t.Fatalf("expected role gate denial: %+v", d)
	}
	// The ownership check must not have run after the role gate denied.
	if len(rep.events) != 1 {
		t.Fatalf("expected a single reported decision, got %d", len(rep.events))
	}
	if rep.events[0].Policy != "role_gate" || rep.events[0].Outcome != policy.OutcomeDeny {
		t.Fatalf("unexpected decision event: %+v", rep.events[0])
	}
	if src.calls != 0 {
		t.Fatalf("short-circuited chain must not fetch the resource")
	}
}

func TestResourceFetchedOncePerChain(t *testing.T) {
	src := &fakeSource{articles: map[string]policy.Resource{
		"a1": {ID: "a1", CreatorID: "rep-a", Status: policy.StatusDraft},
	}}
	chain := policy.NewChain("article.update", policy.NopReporter{},
		policy.RoleGate(policy.RoleReporter, policy.RoleReviewer, policy.RoleEditor, policy.RoleAdmin),
		policy.OwnershipOrEditor(),
		policy.WorkflowTransition(),
	)
	in := policy.NewInput(userCred("rep-a", policy.RoleReporter), "a1", "review", src)
	if d := chain.Evaluate(context.Background(), in); !d.Allowed {
		t.Fatalf("expected allow: %+v", d)
	}
	if src.calls != 1 {
		t.Fatalf("ownership and workflow must share one fetch, got %d", src.calls)
	}
}

func TestChainReportsAllowDecisions(t *testing.T) {
	rep := &captureReporter{}
	chain := policy.NewChain("article.publish", rep, policy.PublishGate())
	in := policy.NewInput(userCred("ed-1", policy.RoleEditor), "a1", "", nil)
	if d := chain.Evaluate(context.Background(), in); !d.Allowed {
		t.Fatalf("expected allow: %+v", d)
	}
	if len(rep.events) != 1 {
		t.Fatalf("expected one event, got %d", len(rep.events))
	}
	evt := rep.events[0]
	if evt.Outcome != policy.OutcomeAllow || evt.Operation != "article.publish" ||
		evt.PrincipalID != "ed-1" || evt.Role != policy.RoleEditor {
		t.Fatalf("unexpected event: %+v", evt)
	}
}
