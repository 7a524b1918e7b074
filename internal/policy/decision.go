package policy

import "fmt"

// Reason is a stable machine-readable code attached to every denial.
// Client UIs branch on these codes, so they are part of the contract.
type Reason string

const (
	// ReasonNone is carried by allow decisions.
	ReasonNone Reason = ""
	// ReasonUnauthenticated: no principal id on the request.
	ReasonUnauthenticated Reason = "unauthenticated"
	// ReasonMisconfigured: a policy was composed without required
	// configuration. This is an operator error, not a user denial.
	ReasonMisconfigured Reason = "misconfigured"
	// ReasonForbidden: authenticated but lacking the capability.
	ReasonForbidden Reason = "forbidden"
	// ReasonInvalidRequest: a required reference is missing, e.g. no
	// resource id on an update route.
	ReasonInvalidRequest Reason = "invalid_request"
	// ReasonNotFound: the target resource does not exist.
	ReasonNotFound Reason = "not_found"
	// ReasonIntegrityError: the resource exists but is missing data the
	// check depends on (no recorded creator). Fails closed, kept distinct
	// from forbidden so operators can spot data problems.
	ReasonIntegrityError Reason = "integrity_error"
	// ReasonInvalidStatusValue: requested status outside draft/review/published.
	ReasonInvalidStatusValue Reason = "invalid_status_value"
	// ReasonInvalidTransition: the status change is not permitted from the
	// current state for this role.
	ReasonInvalidTransition Reason = "invalid_transition"
	// ReasonInternal: the store collaborator failed. Not a policy denial;
	// surfaced separately so "policy says no" and "system is broken" stay
	// distinguishable.
	ReasonInternal Reason = "internal_error"
)

// Decision is the outcome of a single policy check. Created fresh per
// request, never persisted; the chain converts it to a continuation or a
// rejection immediately.
type Decision struct {
	Allowed bool
	Reason  Reason
	Message string
}

// Allow returns a passing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a failing decision with a reason code and formatted message.
func Deny(reason Reason, format string, args ...any) Decision {
	return Decision{
		Allowed: false,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}
