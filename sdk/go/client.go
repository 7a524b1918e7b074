package newsdesksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Newsdesk HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Article represents the API article model.
type Article struct {
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

// Event represents a log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

// Me describes the authenticated principal.
type Me struct {
	ActorID  string `json:"actor_id"`
	RoleType string `json:"role_type,omitempty"`
	RoleName string `json:"role_name,omitempty"`
	Source   string `json:"source"`
	Trusted  bool   `json:"trusted"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateArticle creates an article; status may be empty for draft.
func (c *Client) CreateArticle(ctx context.Context, title, status string) (Article, error) {
	body := map[string]any{"title": title}
	if status != "" {
		body["status"] = status
	}
	var resp Article
	err := c.do(ctx, http.MethodPost, c.apiPath("articles"), body, &resp)
	return resp, err
}

// GetArticle fetches an article by id.
func (c *Client) GetArticle(ctx context.Context, id string) (Article, error) {
	var resp Article
	err := c.do(ctx, http.MethodGet, c.apiPath("articles/"+url.PathEscape(id)), nil, &resp)
	return resp, err
}

// ListArticles returns articles, optionally filtered by status.
func (c *Client) ListArticles(ctx context.Context, status string) ([]Article, error) {
	endpoint := c.apiPath("articles")
	if status != "" {
		endpoint += "?status=" + url.QueryEscape(status)
	}
	var resp []Article
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// UpdateArticle patches article fields; nil entries are left untouched.
func (c *Client) UpdateArticle(ctx context.Context, id string, fields map[string]any) (Article, error) {
	var resp Article
	err := c.do(ctx, http.MethodPatch, c.apiPath("articles/"+url.PathEscape(id)), fields, &resp)
	return resp, err
}

// SubmitForReview moves an article into review.
func (c *Client) SubmitForReview(ctx context.Context, id string) (Article, error) {
	return c.workflow(ctx, id, "submit", nil)
}

// Approve records review approval; the article stays in review.
func (c *Client) Approve(ctx context.Context, id, notes string) (Article, error) {
	return c.workflow(ctx, id, "approve", map[string]any{"notes": notes})
}

// Reject sends an article back to draft with notes.
func (c *Client) Reject(ctx context.Context, id, notes string) (Article, error) {
	return c.workflow(ctx, id, "reject", map[string]any{"notes": notes})
}

// Publish makes an article live.
func (c *Client) Publish(ctx context.Context, id string) (Article, error) {
	return c.workflow(ctx, id, "publish", nil)
}

// Unpublish takes an article back to draft.
func (c *Client) Unpublish(ctx context.Context, id string) (Article, error) {
	return c.workflow(ctx, id, "unpublish", nil)
}

func (c *Client) workflow(ctx context.Context, id, action string, body map[string]any) (Article, error) {
	if body == nil {
		body = map[string]any{}
	}
	var resp Article
	endpoint := c.apiPath(fmt.Sprintf("articles/%s/%s", url.PathEscape(id), action))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// Me returns the authenticated principal.
func (c *Client) Me(ctx context.Context) (Me, error) {
	var resp Me
	err := c.do(ctx, http.MethodGet, c.apiPath("me"), nil, &resp)
	return resp, err
}

// Events returns recent audit events, newest first. Requires admin or a
// service key.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := c.apiPath("events")
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) apiPath(p string) string {
	return "api/v1/" + strings.TrimLeft(p, "/")
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
