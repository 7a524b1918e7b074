package server

import (
	"newsdesk/internal/domain"
)

// Request payloads

type CreateArticleRequest struct {
	ID     *string `json:"id,omitempty"`
	Title  string  `json:"title"`
	Slug   *string `json:"slug,omitempty"`
	Body   *string `json:"body,omitempty"`
	Status *string `json:"status,omitempty" enum:"draft,review,published"`
}

type UpdateArticleRequest struct {
	Title  *string `json:"title,omitempty"`
	Slug   *string `json:"slug,omitempty"`
	Body   *string `json:"body,omitempty"`
	Status *string `json:"status,omitempty" enum:"draft,review,published"`
}

type ReviewRequest struct {
	Notes string `json:"notes,omitempty"`
}

// SetRoleRequest assigns a role. Type may be omitted when Name matches a
// role binding in newsdesk.yml.
type SetRoleRequest struct {
	Type string `json:"type,omitempty" enum:",reader,reporter,reviewer,editor,admin"`
	Name string `json:"name,omitempty"`
}

type CreateAPIKeyRequest struct {
	ActorID string `json:"actor_id"`
	Name    string `json:"name"`
}

// Response payloads

type ArticleResponse struct {
	ID                   string  `json:"id"`
	CreatorID            string  `json:"creator_id"`
	Title                string  `json:"title"`
	Slug                 string  `json:"slug,omitempty"`
	Body                 string  `json:"body,omitempty"`
	WorkflowStatus       string  `json:"workflow_status"`
	PublishedAt          *string `json:"published_at,omitempty"`
	SubmittedForReviewAt *string `json:"submitted_for_review_at,omitempty"`
	ReviewNotes          *string `json:"review_notes,omitempty"`
	ReviewedBy           *string `json:"reviewed_by,omitempty"`
	ReviewedAt           *string `json:"reviewed_at,omitempty"`
	CreatedAt            string  `json:"created_at"`
	UpdatedAt            string  `json:"updated_at"`
}

type UserResponse struct {
	ID       string `json:"id"`
	RoleType string `json:"role_type"`
	RoleName string `json:"role_name,omitempty"`
}

type MeResponse struct {
	ActorID  string `json:"actor_id"`
	RoleType string `json:"role_type,omitempty"`
	RoleName string `json:"role_name,omitempty"`
	Source   string `json:"source"`
	Trusted  bool   `json:"trusted"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	// Key is only returned on creation; the server stores a hash.
	Key string `json:"key,omitempty"`
}

type EventResponse struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

func articleResponse(a domain.Article) ArticleResponse {
	return ArticleResponse{
		ID:                   a.ID,
		CreatorID:            a.CreatorID,
		Title:                a.Title,
		Slug:                 a.Slug,
		Body:                 a.Body,
		WorkflowStatus:       a.WorkflowStatus,
		PublishedAt:          a.PublishedAt,
		SubmittedForReviewAt: a.SubmittedForReviewAt,
		ReviewNotes:          a.ReviewNotes,
		ReviewedBy:           a.ReviewedBy,
		ReviewedAt:           a.ReviewedAt,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

func mapArticles(items []domain.Article) []ArticleResponse {
	res := make([]ArticleResponse, 0, len(items))
	for _, a := range items {
		res = append(res, articleResponse(a))
	}
	return res
}

func userResponse(u domain.User) UserResponse {
	return UserResponse{ID: u.ID, RoleType: u.RoleType, RoleName: u.RoleName}
}

func apiKeyResponse(k domain.APIKey) APIKeyResponse {
	return APIKeyResponse{
		ID:        k.ID,
		ActorID:   k.ActorID,
		Name:      k.Name,
		CreatedAt: k.CreatedAt,
	}
}

func mapEvents(items []domain.Event) []EventResponse {
	res := make([]EventResponse, 0, len(items))
	for _, e := range items {
		res = append(res, EventResponse{
			ID:         e.ID,
			TS:         e.TS,
			Type:       e.Type,
			EntityKind: e.EntityKind,
			EntityID:   e.EntityID,
			ActorID:    e.ActorID,
			Payload:    e.Payload,
		})
	}
	return res
}
