// internal/community/postgres.go
package community

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var dialect = goqu.Dialect("postgres")

const (
	postColumns     = `id, author_id, title, content, category, book_id, view_count, created_at, updated_at`
	commentColumns  = `id, post_id, author_id, content, created_at`
	reactionColumns = `id, post_id, comment_id, user_id, reaction_type, created_at`
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreatePost(ctx context.Context, p *Post) error {
	query := `
		INSERT INTO community_posts (` + postColumns + `)
		VALUES (:id, :author_id, :title, :content, :category, :book_id, :view_count, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	p := &Post{}
	err := r.db.GetContext(ctx, p, `SELECT `+postColumns+` FROM community_posts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListPosts(ctx context.Context, category string, limit, offset int) ([]*PostSummary, error) {
	cols := []any{}
	for _, c := range []string{"id", "author_id", "title", "content", "category", "book_id", "view_count", "created_at", "updated_at"} {
		cols = append(cols, goqu.I("p."+c))
	}
	cols = append(cols,
		goqu.COUNT(goqu.DISTINCT("c.id")).As("comment_count"),
		goqu.COUNT(goqu.DISTINCT("re.id")).As("reaction_count"),
	)

	ds := dialect.From(goqu.T("community_posts").As("p")).
		Select(cols...).
		LeftJoin(goqu.T("community_comments").As("c"), goqu.On(goqu.I("c.post_id").Eq(goqu.I("p.id")))).
		LeftJoin(goqu.T("community_reactions").As("re"), goqu.On(goqu.I("re.post_id").Eq(goqu.I("p.id")))).
		GroupBy(goqu.I("p.id")).
		Order(goqu.I("p.created_at").Desc())

	if category != "" {
		ds = ds.Where(goqu.I("p.category").Eq(category))
	}
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	out := []*PostSummary{}
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) SavePost(ctx context.Context, p *Post) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE community_posts
		SET title = :title, content = :content, category = :category, updated_at = :updated_at
		WHERE id = :id
	`, p)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeletePost(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM community_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) IncrementViews(ctx context.Context, id uuid.UUID) (int, error) {
	var n sql.NullInt64
	if err := r.db.GetContext(ctx, &n, `SELECT increment_view_count($1)`, id); err != nil {
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}
	if !n.Valid {
		return 0, ErrNotFound
	}
	return int(n.Int64), nil
}

func (r *PostgresRepository) CreateComment(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO community_comments (` + commentColumns + `)
		VALUES (:id, :post_id, :author_id, :content, :created_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetComment(ctx context.Context, id uuid.UUID) (*Comment, error) {
	c := &Comment{}
	err := r.db.GetContext(ctx, c, `SELECT `+commentColumns+` FROM community_comments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load comment: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListComments(ctx context.Context, postID uuid.UUID) ([]*Comment, error) {
	out := []*Comment{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+commentColumns+` FROM community_comments WHERE post_id = $1 ORDER BY created_at ASC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return out, nil
}

// ToggleReaction deletes the marker when present and inserts it otherwise,
// inside one transaction.
func (r *PostgresRepository) ToggleReaction(ctx context.Context, re *Reaction) (bool, error) {
	col, target := "post_id", re.PostID
	if re.CommentID != nil {
		col, target = "comment_id", re.CommentID
	}
	if target == nil {
		return false, errors.New("reaction has no target")
	}
	del, args, err := dialect.Delete("community_reactions").
		Where(goqu.C(col).Eq(target.String()), goqu.C("user_id").Eq(re.UserID.String()), goqu.C("reaction_type").Eq(string(re.ReactionType))).
		Prepared(true).ToSQL()
	if err != nil {
		return false, fmt.Errorf("failed to build query: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, del, args...)
	if err != nil {
		return false, fmt.Errorf("failed to remove reaction: %w", err)
	}
	removed := false
	if n, _ := res.RowsAffected(); n > 0 {
		removed = true
	} else {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO community_reactions (`+reactionColumns+`)
			VALUES (:id, :post_id, :comment_id, :user_id, :reaction_type, :created_at)
			ON CONFLICT DO NOTHING
		`, re)
		if err != nil {
			return false, fmt.Errorf("failed to insert reaction: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit reaction: %w", err)
	}
	return removed, nil
}

func (r *PostgresRepository) ListPostReactions(ctx context.Context, postID uuid.UUID) ([]*Reaction, error) {
	out := []*Reaction{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+reactionColumns+` FROM community_reactions WHERE post_id = $1 ORDER BY created_at ASC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	return out, nil
}
