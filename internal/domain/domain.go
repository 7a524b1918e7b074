package domain

// Article is a content item moving through the editorial workflow.
// CreatorID is set once at creation and never changes; it anchors every
// ownership check. WorkflowStatus and PublishedAt are kept in sync by the
// publish/unpublish operations: status "published" implies a non-nil
// PublishedAt and vice versa.
type Article struct {
	ID                   string  `json:"id"`
	CreatorID            string  `json:"creator_id"`
	Title                string  `json:"title"`
	Slug                 string  `json:"slug,omitempty"`
	Body                 string  `json:"body,omitempty"`
	WorkflowStatus       string  `json:"workflow_status" enum:"draft,review,published"`
	PublishedAt          *string `json:"published_at,omitempty" format:"date-time"`
	ReviewNotes          *string `json:"review_notes,omitempty"`
	ReviewedBy           *string `json:"reviewed_by,omitempty"`
	ReviewedAt           *string `json:"reviewed_at,omitempty" format:"date-time"`
	SubmittedForReviewAt *string `json:"submitted_for_review_at,omitempty" format:"date-time"`
	CreatedAt            string  `json:"created_at" format:"date-time"`
	UpdatedAt            string  `json:"updated_at" format:"date-time"`
}

// User is a known principal with an assigned role. RoleType is the
// canonical lowercase tag; RoleName is the human-readable alias the host
// system also matches against.
type User struct {
	ID        string `json:"id"`
	RoleType  string `json:"role_type,omitempty"`
	RoleName  string `json:"role_name,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
	UpdatedAt string `json:"updated_at" format:"date-time"`
}

// APIKey is a trusted service credential. Callers presenting a valid key
// are classified as first-party automation and bypass policy checks.
type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// Event is an audit log entry. Workflow mutations and every authorization
// decision are appended here.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
