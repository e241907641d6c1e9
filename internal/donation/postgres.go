// internal/donation/postgres.go
package donation

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

const donationColumns = `id, book_id, donor_id, recipient_id, donation_type, status, notes,
	claimed_date, delivered_date, version, created_at, updated_at`

func (p *PostgresRepository) Create(ctx context.Context, d *Donation) error {
	query := `
		INSERT INTO donations (` + donationColumns + `)
		VALUES (:id, :book_id, :donor_id, :recipient_id, :donation_type, :status, :notes,
			:claimed_date, :delivered_date, :version, :created_at, :updated_at)
	`
	if _, err := p.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("failed to insert donation: %w", err)
	}
	return nil
}

func (p *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*Donation, error) {
	d := &Donation{}
	err := p.db.GetContext(ctx, d, `SELECT `+donationColumns+` FROM donations WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load donation: %w", err)
	}
	return d, nil
}

func (p *PostgresRepository) ListByStatus(ctx context.Context, status Status) ([]*Donation, error) {
	out := []*Donation{}
	err := p.db.SelectContext(ctx, &out, `
		SELECT `+donationColumns+` FROM donations WHERE status = $1 ORDER BY created_at DESC
	`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	return out, nil
}

func (p *PostgresRepository) ListByDonor(ctx context.Context, donorID uuid.UUID) ([]*Donation, error) {
	out := []*Donation{}
	err := p.db.SelectContext(ctx, &out, `
		SELECT `+donationColumns+` FROM donations WHERE donor_id = $1 ORDER BY created_at DESC
	`, donorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	return out, nil
}

func (p *PostgresRepository) Transition(ctx context.Context, d *Donation, from Status) error {
	query := `
		UPDATE donations
		SET status = $1, recipient_id = $2, claimed_date = $3, delivered_date = $4,
		    updated_at = $5, version = version + 1
		WHERE id = $6 AND status = $7
		RETURNING version
	`
	var version int
	err := p.db.QueryRowxContext(ctx, query,
		d.Status, d.RecipientID, d.ClaimedDate, d.DeliveredDate, d.UpdatedAt, d.ID, from,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := p.Get(ctx, d.ID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrStatusChanged
	}
	if err != nil {
		return fmt.Errorf("failed to update donation: %w", err)
	}
	d.Version = version
	return nil
}
