package policy

import (
	"context"
	"strings"
)

// Status is the editorial state of an article.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusReview    Status = "review"
	StatusPublished Status = "published"
)

// ParseStatus validates a requested status against the three-member
// enumeration. ok is false for anything else, including the empty string.
func ParseStatus(raw string) (Status, bool) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusDraft, StatusReview, StatusPublished:
		return s, true
	default:
		return "", false
	}
}

// transitions enumerates, per role and current state, the exact set of
// allowed next states. Loaded once at process start and never mutated.
// Admin is a capability superset of editor and shares its row. Reviewer
// can send drafts to review and rejections back to draft but can never
// publish; that asymmetry is intentional (publishing is a separate,
// editor-only operation even though reviewer sits above reporter in read
// scope).
var transitions = map[Role]map[Status][]Status{
	RoleReader: {
		StatusDraft:     {},
		StatusReview:    {},
		StatusPublished: {},
	},
	RoleReporter: {
		StatusDraft:     {StatusReview},
		StatusReview:    {},
		StatusPublished: {},
	},
	RoleReviewer: {
		StatusDraft:     {StatusReview},
		StatusReview:    {StatusDraft},
		StatusPublished: {},
	},
	RoleEditor: {
		StatusDraft:     {StatusReview, StatusPublished},
		StatusReview:    {StatusDraft, StatusPublished},
		StatusPublished: {StatusDraft},
	},
}

// AllowedNext returns the transition set for a role at the given state.
// Unknown or missing roles get reader's empty set; fail closed.
func AllowedNext(role Role, current Status) []Status {
	table := role
	if table == RoleAdmin {
		table = RoleEditor
	}
	row, ok := transitions[table]
	if !ok {
		row = transitions[RoleReader]
	}
	next := row[current]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// TransitionAllowed reports whether role may move an article from current
// to next. Idempotent no-op transitions always pass.
func TransitionAllowed(role Role, current, next Status) bool {
	if current == next {
		return true
	}
	for _, s := range AllowedNext(role, current) {
		if s == next {
			return true
		}
	}
	return false
}

func formatStatusSet(set []Status) string {
	if len(set) == 0 {
		return "{}"
	}
	parts := make([]string, len(set))
	for i, s := range set {
		parts[i] = string(s)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// initialStatusAllowed applies the creation rule: the transition table
// describes moves between existing states, so creation gets its own gate.
// Reporters may only start in draft; reviewers and readers may not create
// at all; editor and admin may create at any status.
func initialStatusAllowed(role Role, initial Status) Decision {
	switch role {
	case RoleEditor, RoleAdmin:
		return Allow()
	case RoleReporter:
		if initial == StatusDraft {
			return Allow()
		}
		return Deny(ReasonInvalidTransition,
			"role reporter may only create articles in draft, not %s", initial)
	default:
		return Deny(ReasonInvalidTransition,
			"role %s may not create articles", roleLabel(role))
	}
}

func roleLabel(role Role) string {
	if role == RoleUnknown {
		return "none"
	}
	return string(role)
}

// WorkflowTransition checks a requested status change against the
// transition table. Requests that carry no target status, or whose target
// equals the current status, pass trivially; field-only edits never hit
// the state machine.
func WorkflowTransition() Check {
	return Check{
		Name: "workflow_transition",
		Eval: func(ctx context.Context, in *Input) Decision {
			if in.TargetStatus == "" {
				return Allow()
			}
			target, ok := ParseStatus(in.TargetStatus)
			if !ok {
				return Deny(ReasonInvalidStatusValue,
					"status %q is not one of draft, review, published", in.TargetStatus)
			}
			role := in.Credential.Principal.Role

			// Creation request: only the initial-status rule applies.
			if in.ResourceID == "" {
				return initialStatusAllowed(role, target)
			}

			res, err := in.resource(ctx)
			if err != nil {
				if err == ErrNotFound {
					return Deny(ReasonNotFound, "article %s not found", in.ResourceID)
				}
				return Deny(ReasonInternal, "load article %s: %v", in.ResourceID, err)
			}
			current := res.Status
			if current == "" {
				// Missing status is the initial state, never an error.
				current = StatusDraft
			}
			if target == current {
				return Allow()
			}
			allowed := AllowedNext(role, current)
			for _, s := range allowed {
				if s == target {
					return Allow()
				}
			}
			return Deny(ReasonInvalidTransition,
				"role %s may not move article from %s to %s; allowed next states: %s",
				roleLabel(role), current, target, formatStatusSet(allowed))
		},
	}
}
