package policy

import (
	"context"
	"strings"
)

// RoleGate checks set membership of the principal's role against the
// allowed list for a route. An empty allowed list is an operator mistake
// and denies with a code distinguishable from a user denial.
func RoleGate(allowed ...Role) Check {
	normalized := make([]Role, 0, len(allowed))
	for _, r := range allowed {
		tag := Role(strings.ToLower(strings.TrimSpace(string(r))))
		if tag != RoleUnknown {
			normalized = append(normalized, tag)
		}
	}
	return Check{
		Name: "role_gate",
		Eval: func(ctx context.Context, in *Input) Decision {
			p := in.Credential.Principal
			if p.ID == "" {
				return Deny(ReasonUnauthenticated, "authentication required")
			}
			if len(normalized) == 0 {
				return Deny(ReasonMisconfigured, "role gate configured with no allowed roles")
			}
			for _, r := range normalized {
				if p.Role == r {
					return Allow()
				}
			}
			return Deny(ReasonForbidden,
				"requires one of roles: %s", joinRoles(normalized))
		},
	}
}

func joinRoles(roles []Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// OwnershipOrEditor lets roles with the editorial override act on any
// article; everyone else must be the recorded creator. Runs after the
// credential bypass but independent of the role gate. An article without a
// recorded creator is a data problem upstream and fails closed with its
// own reason code, never a silent "not owner".
func OwnershipOrEditor() Check {
	return Check{
		Name: "ownership_or_editor",
		Eval: func(ctx context.Context, in *Input) Decision {
			p := in.Credential.Principal
			if p.ID == "" {
				return Deny(ReasonUnauthenticated, "authentication required")
			}
			if in.ResourceID == "" {
				// Programming error on the route; fail closed.
				return Deny(ReasonInvalidRequest, "resource id required for ownership check")
			}
			if HasCapability(p.Role, CapabilityOwnAny) {
				return Allow()
			}
			res, err := in.resource(ctx)
			if err != nil {
				if err == ErrNotFound {
					return Deny(ReasonNotFound, "article %s not found", in.ResourceID)
				}
				return Deny(ReasonInternal, "load article %s: %v", in.ResourceID, err)
			}
			if res.CreatorID == "" {
				return Deny(ReasonIntegrityError,
					"article %s has no recorded creator", in.ResourceID)
			}
			if res.CreatorID == p.ID {
				return Allow()
			}
			return Deny(ReasonForbidden,
				"only the creator or an editor may act on article %s", in.ResourceID)
		},
	}
}

// PublishGate is narrower than the workflow table: only roles carrying the
// publish capability may invoke publish or unpublish at all, regardless of
// the article's current state. Kept separate so "who may attempt this" is
// checkable without fetching the article.
func PublishGate() Check {
	return Check{
		Name: "publish_gate",
		Eval: func(ctx context.Context, in *Input) Decision {
			p := in.Credential.Principal
			if p.ID == "" {
				return Deny(ReasonUnauthenticated, "authentication required")
			}
			if HasCapability(p.Role, CapabilityPublish) {
				return Allow()
			}
			return Deny(ReasonForbidden, "publishing is restricted to editors")
		},
	}
}
