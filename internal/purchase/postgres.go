// internal/purchase/postgres.go
package purchase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const purchaseColumns = `id, book_id, buyer_id, seller_id, purchase_price, quantity, payment_status, status,
	shipping_address, transaction_id, version, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, p *Purchase) error {
	query := `
		INSERT INTO purchases (` + purchaseColumns + `)
		VALUES (:id, :book_id, :buyer_id, :seller_id, :purchase_price, :quantity, :payment_status, :status,
			:shipping_address, :transaction_id, :version, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to insert purchase: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*Purchase, error) {
	p := &Purchase{}
	err := r.db.GetContext(ctx, p, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*Purchase, error) {
	return r.list(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE buyer_id = $1 ORDER BY created_at DESC`, buyerID)
}

func (r *PostgresRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*Purchase, error) {
	return r.list(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE seller_id = $1 ORDER BY created_at DESC`, sellerID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, id uuid.UUID) ([]*Purchase, error) {
	out := []*Purchase{}
	if err := r.db.SelectContext(ctx, &out, query, id); err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Settle(ctx context.Context, p *Purchase) error {
	query := `
		UPDATE purchases
		SET payment_status = $1, status = $2, transaction_id = $3, updated_at = $4, version = version + 1
		WHERE id = $5 AND payment_status = 'pending'
		RETURNING version
	`
	var version int
	err := r.db.QueryRowxContext(ctx, query, p.PaymentStatus, p.Status, p.TransactionID, p.UpdatedAt, p.ID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.Get(ctx, p.ID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrAlreadySettled
	}
	if err != nil {
		return fmt.Errorf("failed to settle purchase: %w", err)
	}
	p.Version = version
	return nil
}
