package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"newsdesk/internal/domain"
	"newsdesk/internal/events"
	"newsdesk/internal/policy"
	"newsdesk/internal/repo"
)

// Engine executes editorial operations. Every mutating operation runs its
// policy chain first; only a fully-passed chain reaches the single write
// transaction, and the audit event for the mutation commits with it.
type Engine struct {
	DB       *sql.DB
	Repo     repo.Repo
	Events   events.Writer
	Reporter policy.Reporter
	Now      func() time.Time
}

func New(db *sql.DB) Engine {
	return Engine{
		DB:       db,
		Repo:     repo.Repo{DB: db},
		Events:   events.Writer{DB: db},
		Reporter: events.DecisionReporter{DB: db},
		Now:      time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// DeniedError carries a policy denial out of the engine. Transports map
// the reason code to their own status vocabulary.
type DeniedError struct {
	Decision policy.Decision
}

func (e DeniedError) Error() string {
	return e.Decision.Message
}

// cmsRoles is the broad set admitted to the content surface at all.
var cmsRoles = []policy.Role{
	policy.RoleReporter, policy.RoleReviewer, policy.RoleEditor, policy.RoleAdmin,
}

// articleSource adapts the repository to the policy package's resource
// lookup, translating the store's sentinel.
type articleSource struct {
	repo repo.Repo
}

func (s articleSource) Resource(ctx context.Context, id string) (policy.Resource, error) {
	a, err := s.repo.GetArticle(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return policy.Resource{}, policy.ErrNotFound
	}
	if err != nil {
		return policy.Resource{}, err
	}
	return policy.Resource{
		ID:        a.ID,
		CreatorID: a.CreatorID,
		Status:    policy.Status(strings.ToLower(strings.TrimSpace(a.WorkflowStatus))),
	}, nil
}

func (e Engine) source() policy.Source {
	return articleSource{repo: e.Repo}
}

func (e Engine) evaluate(ctx context.Context, operation string, cred policy.Credential,
	resourceID, targetStatus string, checks ...policy.Check) error {
	chain := policy.NewChain(operation, e.Reporter, checks...)
	in := policy.NewInput(cred, resourceID, targetStatus, e.source())
	if d := chain.Evaluate(ctx, in); !d.Allowed {
		return DeniedError{Decision: d}
	}
	return nil
}

// UserCredential builds an end-user credential for an actor, reading the
// role assignment from the users table. Unknown actors get a principal
// without a role, which carries no capabilities.
func (e Engine) UserCredential(ctx context.Context, actorID string) (policy.Credential, error) {
	u, err := e.Repo.GetUser(ctx, actorID)
	if errors.Is(err, repo.ErrNotFound) {
		return policy.Credential{
			Kind:      policy.CredentialUser,
			Principal: policy.NewPrincipal(actorID, "", ""),
		}, nil
	}
	if err != nil {
		return policy.Credential{}, err
	}
	return policy.Credential{
		Kind:      policy.CredentialUser,
		Principal: policy.NewPrincipal(u.ID, u.RoleType, u.RoleName),
	}, nil
}

// ServiceCredential builds a trusted credential for first-party automation.
func ServiceCredential(actorID string) policy.Credential {
	return policy.Credential{
		Kind:      policy.CredentialService,
		Principal: policy.Principal{ID: strings.TrimSpace(actorID)},
	}
}

// ArticleCreateOptions are parameters for creating an article.
type ArticleCreateOptions struct {
	ID     string
	Title  string
	Slug   string
	Body   string
	Status string // empty defaults to draft
}

func (e Engine) CreateArticle(ctx context.Context, cred policy.Credential, opts ArticleCreateOptions) (domain.Article, error) {
	if strings.TrimSpace(opts.Title) == "" {
		return domain.Article{}, errors.New("title is required")
	}
	// An omitted status still means creating a draft, so the initial-status
	// rule must see the effective target, not an empty one.
	target := opts.Status
	if target == "" {
		target = string(policy.StatusDraft)
	}
	if err := e.evaluate(ctx, "article.create", cred, "", target,
		policy.RoleGate(cmsRoles...),
		policy.WorkflowTransition(),
	); err != nil {
		return domain.Article{}, err
	}

	status, ok := policy.ParseStatus(target)
	if !ok {
		// Only reachable for trusted credentials; the workflow check
		// rejects bad values for everyone else.
		return domain.Article{}, fmt.Errorf("invalid status %q", opts.Status)
	}
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := e.now().UTC().Format(time.RFC3339)
	a := domain.Article{
		ID:             id,
		CreatorID:      cred.Principal.ID,
		Title:          opts.Title,
		Slug:           opts.Slug,
		Body:           opts.Body,
		WorkflowStatus: string(status),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if status == policy.StatusPublished {
		a.PublishedAt = &now
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Article{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertArticle(ctx, tx, a); err != nil {
		return domain.Article{}, fmt.Errorf("insert article: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "article.created", "article", a.ID, cred.Principal.ID, events.EventPayload{
		"title":  a.Title,
		"status": a.WorkflowStatus,
	}); err != nil {
		return domain.Article{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Article{}, err
	}
	return a, nil
}

// ArticleUpdateOptions encapsulates allowed updates. Nil field pointers
// leave the stored value untouched; an empty Status means the request does
// not touch workflow state and the state machine is skipped.
type ArticleUpdateOptions struct {
	ID     string
	Title  *string
	Slug   *string
	Body   *string
	Status string
}

func (e Engine) UpdateArticle(ctx context.Context, cred policy.Credential, opts ArticleUpdateOptions) (domain.Article, error) {
	if opts.ID == "" {
		return domain.Article{}, errors.New("article id is required")
	}
	if err := e.evaluate(ctx, "article.update", cred, opts.ID, opts.Status,
		policy.RoleGate(cmsRoles...),
		policy.OwnershipOrEditor(),
		policy.WorkflowTransition(),
	); err != nil {
		return domain.Article{}, err
	}

	a, err := e.Repo.GetArticle(ctx, opts.ID)
	if err != nil {
		return domain.Article{}, err
	}
	from := a.WorkflowStatus
	if opts.Title != nil {
		a.Title = *opts.Title
	}
	if opts.Slug != nil {
		a.Slug = *opts.Slug
	}
	if opts.Body != nil {
		a.Body = *opts.Body
	}
	now := e.now().UTC().Format(time.RFC3339)
	if opts.Status != "" {
		target, ok := policy.ParseStatus(opts.Status)
		if !ok {
			return domain.Article{}, fmt.Errorf("invalid status %q", opts.Status)
		}
		e.applyTransition(&a, target, now)
	}
	a.UpdatedAt = now

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Article{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateArticle(ctx, tx, a); err != nil {
		return domain.Article{}, err
	}
	if err := e.Events.Append(ctx, tx, "article.updated", "article", a.ID, cred.Principal.ID, events.EventPayload{
		"from_status": from,
		"to_status":   a.WorkflowStatus,
	}); err != nil {
		return domain.Article{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Article{}, err
	}
	return a, nil
}

// applyTransition moves the article to target and keeps the companion
// timestamps in sync: published_at mirrors the published state,
// submitted_for_review_at records entry into review.
func (e Engine) applyTransition(a *domain.Article, target policy.Status, now string) {
	current := policy.Status(a.WorkflowStatus)
	if current == target {
		return
	}
	a.WorkflowStatus = string(target)
	switch target {
	case policy.StatusPublished:
		a.PublishedAt = &now
	case policy.StatusReview:
		a.SubmittedForReviewAt = &now
		a.PublishedAt = nil
	default:
		a.PublishedAt = nil
	}
}

func (e Engine) DeleteArticle(ctx context.Context, cred policy.Credential, id string) error {
	if id == "" {
		return errors.New("article id is required")
	}
	if err := e.evaluate(ctx, "article.delete", cred, id, "",
		policy.RoleGate(policy.RoleEditor, policy.RoleAdmin),
		policy.OwnershipOrEditor(),
	); err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteArticle(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "article.deleted", "article", id, cred.Principal.ID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// SubmitForReview moves a draft into review and stamps the submission
// time.
func (e Engine) SubmitForReview(ctx context.Context, cred policy.Credential, id string) (domain.Article, error) {
	if id == "" {
		return domain.Article{}, errors.New("article id is required")
	}
	if err := e.evaluate(ctx, "article.submit", cred, id, string(policy.StatusReview),
		policy.RoleGate(policy.RoleReporter, policy.RoleEditor, policy.RoleAdmin),
		policy.OwnershipOrEditor(),
		policy.WorkflowTransition(),
	); err != nil {
		return domain.Article{}, err
	}
	a, err := e.Repo.GetArticle(ctx, id)
	if err != nil {
		return domain.Article{}, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	e.applyTransition(&a, policy.StatusReview, now)
	a.UpdatedAt = now

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Article{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateArticle(ctx, tx, a); err != nil {
		return domain.Article{}, err
	}
	if err := e.Events.Append(ctx, tx, "article.submitted", "article", a.ID, cred.Principal.ID, events.EventPayload{
		"status": a.WorkflowStatus,
	}); err != nil {
		return domain.Article{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Article{}, err
	}
	return a, nil
}

// Approve records a reviewer's sign-off. Approval is metadata-only: the
// article stays in review until an editor publishes it separately.
func (e Engine) Approve(ctx context.Context, cred policy.Credential, id, notes string) (domain.Article, error) {
	return e.review(ctx, cred, id, notes, true)
}

// Reject sends an article in review back to draft with the reviewer's
// notes attached.
func (e Engine) Reject(ctx context.Context, cred policy.Credential, id, notes string) (domain.Article, error) {
	return e.review(ctx, cred, id, notes, false)
}

func (e Engine) review(ctx context.Context, cred policy.Credential, id, notes string, approve bool) (domain.Article, error) {
	if id == "" {
		return domain.Article{}, errors.New("article id is required")
	}
	operation := "article.reject"
	target := policy.StatusDraft
	if approve {
		operation = "article.approve"
		target = policy.StatusReview
	}
	if err := e.evaluate(ctx, operation, cred, id, string(target),
		policy.RoleGate(policy.RoleReviewer, policy.RoleEditor, policy.RoleAdmin),
		policy.WorkflowTransition(),
	); err != nil {
		return domain.Article{}, err
	}
	a, err := e.Repo.GetArticle(ctx, id)
	if err != nil {
		return domain.Article{}, err
	}
	// Review verdicts only apply to articles actually in review; the
	// workflow table alone would also admit draft->review here.
	if !cred.Trusted() && policy.Status(a.WorkflowStatus) != policy.StatusReview {
		return domain.Article{}, DeniedError{Decision: policy.Deny(policy.ReasonInvalidTransition,
			"article %s is in %s, not review", id, a.WorkflowStatus)}
	}
	now := e.now().UTC().Format(time.RFC3339)
	actorID := cred.Principal.ID
	a.ReviewedBy = &actorID
	a.ReviewedAt = &now
	if notes != "" {
		a.ReviewNotes = &notes
	}
	if !approve {
		e.applyTransition(&a, policy.StatusDraft, now)
	}
	a.UpdatedAt = now

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Article{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateArticle(ctx, tx, a); err != nil {
		return domain.Article{}, err
	}
	eventType := "article.rejected"
	if approve {
		eventType = "article.approved"
	}
	if err := e.Events.Append(ctx, tx, eventType, "article", a.ID, actorID, events.EventPayload{
		"status": a.WorkflowStatus,
		"notes":  notes,
	}); err != nil {
		return domain.Article{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Article{}, err
	}
	return a, nil
}

// Publish sets the article live: workflow status and published_at change
// in one persisted update.
func (e Engine) Publish(ctx context.Context, cred policy.Credential, id string) (domain.Article, error) {
	return e.setPublished(ctx, cred, id, true)
}

// Unpublish takes the article off the live site and clears published_at.
func (e Engine) Unpublish(ctx context.Context, cred policy.Credential, id string) (domain.Article, error) {
	return e.setPublished(ctx, cred, id, false)
}

func (e Engine) setPublished(ctx context.Context, cred policy.Credential, id string, publish bool) (domain.Article, error) {
	if id == "" {
		return domain.Article{}, errors.New("article id is required")
	}
	operation := "article.unpublish"
	if publish {
		operation = "article.publish"
	}
	if err := e.evaluate(ctx, operation, cred, id, "",
		policy.PublishGate(),
	); err != nil {
		return domain.Article{}, err
	}
	a, err := e.Repo.GetArticle(ctx, id)
	if err != nil {
		return domain.Article{}, err
	}
	from := a.WorkflowStatus
	now := e.now().UTC().Format(time.RFC3339)
	if publish {
		e.applyTransition(&a, policy.StatusPublished, now)
	} else {
		e.applyTransition(&a, policy.StatusDraft, now)
	}
	a.UpdatedAt = now

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Article{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateArticle(ctx, tx, a); err != nil {
		return domain.Article{}, err
	}
	eventType := "article.unpublished"
	if publish {
		eventType = "article.published"
	}
	if err := e.Events.Append(ctx, tx, eventType, "article", a.ID, cred.Principal.ID, events.EventPayload{
		"from_status": from,
		"to_status":   a.WorkflowStatus,
	}); err != nil {
		return domain.Article{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Article{}, err
	}
	return a, nil
}

// GetArticle reads a single article through the listing gate.
func (e Engine) GetArticle(ctx context.Context, cred policy.Credential, id string) (domain.Article, error) {
	if err := e.evaluate(ctx, "article.read", cred, id, "",
		policy.RoleGate(cmsRoles...),
	); err != nil {
		return domain.Article{}, err
	}
	return e.Repo.GetArticle(ctx, id)
}

// ListArticles lists articles for the admin surface.
func (e Engine) ListArticles(ctx context.Context, cred policy.Credential, status, creatorID string) ([]domain.Article, error) {
	if err := e.evaluate(ctx, "article.list", cred, "", "",
		policy.RoleGate(cmsRoles...),
	); err != nil {
		return nil, err
	}
	return e.Repo.ListArticles(ctx, status, creatorID)
}

// SetUserRole assigns (or reassigns) an actor's role.
func (e Engine) SetUserRole(ctx context.Context, actorID, roleType, roleName string) (domain.User, error) {
	if strings.TrimSpace(actorID) == "" {
		return domain.User{}, errors.New("actor id is required")
	}
	now := e.now().UTC().Format(time.RFC3339)
	u := domain.User{
		ID:        strings.TrimSpace(actorID),
		RoleType:  strings.TrimSpace(roleType),
		RoleName:  strings.TrimSpace(roleName),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.Repo.UpsertUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// CreateAPIKey mints a service credential and stores only its hash.
func (e Engine) CreateAPIKey(ctx context.Context, actorID, name, rawKey string) (domain.APIKey, error) {
	if strings.TrimSpace(actorID) == "" {
		return domain.APIKey{}, errors.New("actor id is required")
	}
	if strings.TrimSpace(rawKey) == "" {
		return domain.APIKey{}, errors.New("key is required")
	}
	key := domain.APIKey{
		ID:        uuid.New().String(),
		ActorID:   strings.TrimSpace(actorID),
		Name:      strings.TrimSpace(name),
		KeyHash:   repo.HashAPIKey(rawKey),
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.APIKey{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertAPIKey(ctx, tx, key); err != nil {
		return domain.APIKey{}, err
	}
	if err := e.Events.Append(ctx, tx, "apikey.created", "api_key", key.ID, key.ActorID, events.EventPayload{
		"name": key.Name,
	}); err != nil {
		return domain.APIKey{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.APIKey{}, err
	}
	return key, nil
}
