// internal/auth/postgres.go
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"booknest/internal/platform/database"
	"booknest/internal/profile"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateAccount(ctx context.Context, p *profile.Profile, c *Credential) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	profileQuery := `
		INSERT INTO profiles (id, email, full_name, user_type, avatar_url, phone, bio, created_at, updated_at)
		VALUES (:id, :email, :full_name, :user_type, :avatar_url, :phone, :bio, :created_at, :updated_at)
	`
	if _, err := tx.NamedExecContext(ctx, profileQuery, p); err != nil {
		if database.IsUniqueViolation(err) {
			return profile.ErrEmailTaken
		}
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	credQuery := `
		INSERT INTO credentials (user_id, email, password_hash, salt, email_confirmed, updated_at)
		VALUES (:user_id, :email, :password_hash, :salt, :email_confirmed, :updated_at)
	`
	if _, err := tx.NamedExecContext(ctx, credQuery, c); err != nil {
		if database.IsUniqueViolation(err) {
			return profile.ErrEmailTaken
		}
		return fmt.Errorf("failed to insert credential: %w", err)
	}

	return tx.Commit()
}

func (r *PostgresRepository) CredentialByEmail(ctx context.Context, email string) (*Credential, error) {
	c := &Credential{}
	err := r.db.GetContext(ctx, c, `
		SELECT user_id, email, password_hash, salt, email_confirmed, updated_at
		FROM credentials
		WHERE lower(email) = lower($1)
	`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) SetPassword(ctx context.Context, userID uuid.UUID, hash, salt string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE credentials SET password_hash = $1, salt = $2, updated_at = $3 WHERE user_id = $4
	`, hash, salt, at, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) ConfirmEmail(ctx context.Context, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE credentials SET email_confirmed = TRUE WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to confirm email: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) PutCode(ctx context.Context, code *OneTimeCode) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO one_time_codes (email, purpose, code_hash, expires_at, failed_attempts)
		VALUES (lower(:email), :purpose, :code_hash, :expires_at, 0)
		ON CONFLICT (email, purpose) DO UPDATE
		SET code_hash = EXCLUDED.code_hash, expires_at = EXCLUDED.expires_at, failed_attempts = 0
	`, code)
	if err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetCode(ctx context.Context, email string, purpose OTPType) (*OneTimeCode, error) {
	c := &OneTimeCode{}
	err := r.db.GetContext(ctx, c, `
		SELECT email, purpose, code_hash, expires_at, failed_attempts
		FROM one_time_codes
		WHERE email = lower($1) AND purpose = $2
	`, email, purpose)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load code: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ConsumeCode(ctx context.Context, email string, purpose OTPType, codeHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM one_time_codes WHERE email = lower($1) AND purpose = $2 AND code_hash = $3
	`, email, purpose, codeHash)
	if err != nil {
		return false, fmt.Errorf("failed to consume code: %w", err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *PostgresRepository) FailCode(ctx context.Context, email string, purpose OTPType, maxAttempts int) error {
	var attempts int
	err := r.db.GetContext(ctx, &attempts, `
		UPDATE one_time_codes SET failed_attempts = failed_attempts + 1
		WHERE email = lower($1) AND purpose = $2
		RETURNING failed_attempts
	`, email, purpose)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to record code attempt: %w", err)
	}
	if attempts < maxAttempts {
		return nil
	}
	_, err = r.db.ExecContext(ctx, `
		DELETE FROM one_time_codes WHERE email = lower($1) AND purpose = $2 AND failed_attempts >= $3
	`, email, purpose, maxAttempts)
	if err != nil {
		return fmt.Errorf("failed to discard code: %w", err)
	}
	return nil
}

func (r *PostgresRepository) PutRefreshToken(ctx context.Context, t *RefreshToken) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO refresh_tokens (token_hash, user_id, email, session_id, expires_at)
		VALUES (:token_hash, :user_id, :email, :session_id, :expires_at)
	`, t)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (r *PostgresRepository) TakeRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	t := &RefreshToken{}
	err := r.db.GetContext(ctx, t, `
		DELETE FROM refresh_tokens WHERE token_hash = $1
		RETURNING token_hash, user_id, email, session_id, expires_at
	`, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take refresh token: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) DeleteSessionTokens(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session tokens: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RevokeSession(ctx context.Context, sessionID uuid.UUID, until time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO revoked_sessions (session_id, expires_at) VALUES ($1, $2)
		ON CONFLICT (session_id) DO NOTHING
	`, sessionID, until)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SessionRevoked(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	var revoked bool
	err := r.db.GetContext(ctx, &revoked, `SELECT EXISTS (SELECT 1 FROM revoked_sessions WHERE session_id = $1)`, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return revoked, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
