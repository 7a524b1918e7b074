package policy

import "context"

// Outcome of a reported decision.
type Outcome string

const (
	OutcomeAllow Outcome = "allow"
	OutcomeDeny  Outcome = "deny"
)

// DecisionEvent is the structured record emitted for every policy
// decision, allow and deny alike.
type DecisionEvent struct {
	Outcome     Outcome
	Operation   string
	Policy      string
	PrincipalID string
	Role        Role
	ResourceID  string
	Reason      Reason
	Message     string
}

// Reporter receives decision events. Implementations must not block the
// chain; delivery is fire-and-forget from the core's perspective.
type Reporter interface {
	Report(ctx context.Context, evt DecisionEvent)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) Report(context.Context, DecisionEvent) {}
