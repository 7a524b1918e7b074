package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"newsdesk/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const articleColumns = `id, creator_id, title, COALESCE(slug,''), COALESCE(body,''),
COALESCE(workflow_status,'draft'), published_at, review_notes, reviewed_by, reviewed_at,
submitted_for_review_at, created_at, updated_at`

func scanArticle(scan func(dest ...any) error) (domain.Article, error) {
	var a domain.Article
	var publishedAt, reviewNotes, reviewedBy, reviewedAt, submittedAt sql.NullString
	err := scan(&a.ID, &a.CreatorID, &a.Title, &a.Slug, &a.Body, &a.WorkflowStatus,
		&publishedAt, &reviewNotes, &reviewedBy, &reviewedAt, &submittedAt,
		&a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	a.PublishedAt = nullablePtr(publishedAt)
	a.ReviewNotes = nullablePtr(reviewNotes)
	a.ReviewedBy = nullablePtr(reviewedBy)
	a.ReviewedAt = nullablePtr(reviewedAt)
	a.SubmittedForReviewAt = nullablePtr(submittedAt)
	return a, nil
}

func (r Repo) InsertArticle(ctx context.Context, tx *sql.Tx, a domain.Article) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO articles(id, creator_id, title, slug, body,
workflow_status, published_at, review_notes, reviewed_by, reviewed_at, submitted_for_review_at,
created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.CreatorID, a.Title, nullable(a.Slug), nullable(a.Body),
		a.WorkflowStatus, ptrValue(a.PublishedAt), ptrValue(a.ReviewNotes),
		ptrValue(a.ReviewedBy), ptrValue(a.ReviewedAt), ptrValue(a.SubmittedForReviewAt),
		a.CreatedAt, a.UpdatedAt)
	return err
}

func (r Repo) GetArticle(ctx context.Context, id string) (domain.Article, error) {
	row := r.DB.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM articles WHERE id=?`, articleColumns), id)
	return scanArticle(row.Scan)
}

// UpdateArticle writes every mutable field in one statement so that a
// workflow transition and its companion timestamps are never observable
// half-applied.
func (r Repo) UpdateArticle(ctx context.Context, tx *sql.Tx, a domain.Article) error {
	res, err := tx.ExecContext(ctx, `UPDATE articles SET title=?, slug=?, body=?,
workflow_status=?, published_at=?, review_notes=?, reviewed_by=?, reviewed_at=?,
submitted_for_review_at=?, updated_at=? WHERE id=?`,
		a.Title, nullable(a.Slug), nullable(a.Body), a.WorkflowStatus,
		ptrValue(a.PublishedAt), ptrValue(a.ReviewNotes), ptrValue(a.ReviewedBy),
		ptrValue(a.ReviewedAt), ptrValue(a.SubmittedForReviewAt), a.UpdatedAt, a.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteArticle(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListArticles(ctx context.Context, status, creatorID string) ([]domain.Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles`, articleColumns)
	var (
		conds []string
		args  []any
	)
	if status != "" {
		conds = append(conds, "workflow_status=?")
		args = append(args, status)
	}
	if creatorID != "" {
		conds = append(conds, "creator_id=?")
		args = append(args, creatorID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Article
	for rows.Next() {
		a, err := scanArticle(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r Repo) UpsertUser(ctx context.Context, u domain.User) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO users(id, role_type, role_name, created_at, updated_at)
VALUES (?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET role_type=excluded.role_type, role_name=excluded.role_name, updated_at=excluded.updated_at`,
		u.ID, nullable(u.RoleType), nullable(u.RoleName), u.CreatedAt, u.UpdatedAt)
	return err
}

func (r Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	var roleType, roleName sql.NullString
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, role_type, role_name, created_at, updated_at FROM users WHERE id=?`, id).
		Scan(&u.ID, &roleType, &roleName, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	if roleType.Valid {
		u.RoleType = roleType.String
	}
	if roleName.Valid {
		u.RoleName = roleName.String
	}
	return u, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func ptrValue(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullablePtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
