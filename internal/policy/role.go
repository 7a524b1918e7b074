package policy

import "strings"

// Role is the canonical lowercase role tag. Principals are normalized to a
// Role once, at construction; every check downstream compares this single
// value instead of re-deriving it from the host system's loose type/name
// pair.
type Role string

const (
	RoleUnknown  Role = ""
	RoleReader   Role = "reader"
	RoleReporter Role = "reporter"
	RoleReviewer Role = "reviewer"
	RoleEditor   Role = "editor"
	RoleAdmin    Role = "admin"
)

// Capability names an action a role may perform.
type Capability string

const (
	CapabilityRead    Capability = "article.read"
	CapabilityCreate  Capability = "article.create"
	CapabilityUpdate  Capability = "article.update"
	CapabilityDelete  Capability = "article.delete"
	CapabilityReview  Capability = "article.review"
	CapabilityPublish Capability = "article.publish"
	// CapabilityOwnAny marks the editorial override: acting on articles
	// regardless of creator.
	CapabilityOwnAny Capability = "article.own_any"
)

// capabilities is fixed policy, not configuration; it is never mutated
// after process start.
var capabilities = map[Role][]Capability{
	RoleReader:   {CapabilityRead},
	RoleReporter: {CapabilityRead, CapabilityCreate, CapabilityUpdate},
	RoleReviewer: {CapabilityRead, CapabilityUpdate, CapabilityReview},
	RoleEditor: {
		CapabilityRead, CapabilityCreate, CapabilityUpdate, CapabilityDelete,
		CapabilityReview, CapabilityPublish, CapabilityOwnAny,
	},
	RoleAdmin: {
		CapabilityRead, CapabilityCreate, CapabilityUpdate, CapabilityDelete,
		CapabilityReview, CapabilityPublish, CapabilityOwnAny,
	},
}

// Capabilities returns the capability set for a role. Unknown roles get an
// empty set, never a wildcard.
func Capabilities(role Role) []Capability {
	caps, ok := capabilities[role]
	if !ok {
		return nil
	}
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

// HasCapability reports whether the role's capability set contains cap.
func HasCapability(role Role, cap Capability) bool {
	for _, c := range capabilities[role] {
		if c == cap {
			return true
		}
	}
	return false
}

// Display names the host system uses for the administrative role. Either
// the type tag or the name matching is sufficient.
var adminAliases = map[string]bool{
	"admin":         true,
	"administrator": true,
	"super admin":   true,
}

// ParseRole resolves the host system's dual role naming (a type tag plus a
// display name) into one canonical Role. Matching is case-insensitive and
// whitespace-trimmed on both fields; anything unrecognized maps to
// RoleUnknown, which carries no capabilities.
func ParseRole(typeTag, name string) Role {
	for _, raw := range []string{typeTag, name} {
		switch tag := strings.ToLower(strings.TrimSpace(raw)); {
		case tag == "":
			continue
		case adminAliases[tag]:
			return RoleAdmin
		case tag == string(RoleReader):
			return RoleReader
		case tag == string(RoleReporter):
			return RoleReporter
		case tag == string(RoleReviewer):
			return RoleReviewer
		case tag == string(RoleEditor):
			return RoleEditor
		}
	}
	return RoleUnknown
}

// Principal is the authenticated actor making a request. An unauthenticated
// caller has an empty ID. A principal may lack a role; that means "no
// capabilities", never a wildcard.
type Principal struct {
	ID   string
	Role Role
}

// NewPrincipal builds a Principal, normalizing the role fields once.
func NewPrincipal(id, roleType, roleName string) Principal {
	return Principal{
		ID:   strings.TrimSpace(id),
		Role: ParseRole(roleType, roleName),
	}
}

// CredentialKind distinguishes an end-user session from a trusted service
// credential.
type CredentialKind string

const (
	CredentialUser    CredentialKind = "user"
	CredentialService CredentialKind = "service"
)

// Credential pairs a principal with how it authenticated. Service
// credentials represent first-party automation and bypass all policy
// checks; this is a deliberate trust boundary.
type Credential struct {
	Kind      CredentialKind
	Principal Principal
}

// Trusted reports whether the credential short-circuits policy evaluation.
func (c Credential) Trusted() bool {
	return c.Kind == CredentialService
}
