// internal/wishlist/postgres.go
package wishlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"booknest/internal/platform/database"
)

const itemColumns = `id, user_id, book_id, added_at`

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, item *Item) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO wishlist (`+itemColumns+`) VALUES (:id, :user_id, :book_id, :added_at)
	`, item)
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to add wishlist item: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, bookID uuid.UUID) (*Item, error) {
	item := &Item{}
	err := r.db.GetContext(ctx, item, `
		DELETE FROM wishlist WHERE user_id = $1 AND book_id = $2 RETURNING `+itemColumns,
		userID, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID uuid.UUID) ([]*Item, error) {
	out := []*Item{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+itemColumns+` FROM wishlist WHERE user_id = $1 ORDER BY added_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Contains(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	var found bool
	err := r.db.GetContext(ctx, &found, `
		SELECT EXISTS (SELECT 1 FROM wishlist WHERE user_id = $1 AND book_id = $2)
	`, userID, bookID)
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}
	return found, nil
}
