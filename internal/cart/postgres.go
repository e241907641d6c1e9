// internal/cart/postgres.go
package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const itemColumns = `id, user_id, book_id, type, quantity, created_at`

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, item *Item) (*Item, error) {
	query, args, err := sqlx.Named(`
		INSERT INTO cart (`+itemColumns+`)
		VALUES (:id, :user_id, :book_id, :type, :quantity, :created_at)
		ON CONFLICT (user_id, book_id, type) DO UPDATE SET quantity = cart.quantity + 1
		RETURNING `+itemColumns, item)
	if err != nil {
		return nil, fmt.Errorf("failed to bind cart insert: %w", err)
	}
	stored := &Item{}
	if err := r.db.GetContext(ctx, stored, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	return stored, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	item := &Item{}
	err := r.db.GetContext(ctx, item, `SELECT `+itemColumns+` FROM cart WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart item: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) SetQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE cart SET quantity = $2 WHERE id = $1`, id, quantity)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID uuid.UUID) ([]*Item, error) {
	out := []*Item{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+itemColumns+` FROM cart WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	return out, nil
}
