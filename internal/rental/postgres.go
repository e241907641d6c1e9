// internal/rental/postgres.go
package rental

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

const rentalColumns = `id, book_id, renter_id, owner_id, rental_start_date, rental_end_date, number_of_days,
	price_per_day, total_rental_cost, notes, status, actual_return_date, late_fees, version, created_at, updated_at`

func (p *PostgresRepository) Create(ctx context.Context, r *Rental) error {
	query := `
		INSERT INTO rentals (` + rentalColumns + `)
		VALUES (:id, :book_id, :renter_id, :owner_id, :rental_start_date, :rental_end_date, :number_of_days,
			:price_per_day, :total_rental_cost, :notes, :status, :actual_return_date, :late_fees, :version,
			:created_at, :updated_at)
	`
	if _, err := p.db.NamedExecContext(ctx, query, r); err != nil {
		return fmt.Errorf("failed to insert rental: %w", err)
	}
	return nil
}

func (p *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*Rental, error) {
	r := &Rental{}
	err := p.db.GetContext(ctx, r, `SELECT `+rentalColumns+` FROM rentals WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load rental: %w", err)
	}
	return r, nil
}

func (p *PostgresRepository) ListByRenter(ctx context.Context, renterID uuid.UUID) ([]*Rental, error) {
	return p.list(ctx, `renter_id`, renterID)
}

func (p *PostgresRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Rental, error) {
	return p.list(ctx, `owner_id`, ownerID)
}

func (p *PostgresRepository) list(ctx context.Context, column string, id uuid.UUID) ([]*Rental, error) {
	out := []*Rental{}
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE ` + column + ` = $1 ORDER BY created_at DESC`
	if err := p.db.SelectContext(ctx, &out, query, id); err != nil {
		return nil, fmt.Errorf("failed to list rentals: %w", err)
	}
	return out, nil
}

func (p *PostgresRepository) Transition(ctx context.Context, r *Rental, from Status) error {
	query := `
		UPDATE rentals
		SET status = $1, actual_return_date = $2, late_fees = $3, updated_at = $4, version = version + 1
		WHERE id = $5 AND status = $6
		RETURNING version
	`
	var version int
	err := p.db.QueryRowxContext(ctx, query, r.Status, r.ActualReturnDate, r.LateFees, r.UpdatedAt, r.ID, from).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := p.Get(ctx, r.ID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrStatusChanged
	}
	if err != nil {
		return fmt.Errorf("failed to update rental: %w", err)
	}
	r.Version = version
	return nil
}
