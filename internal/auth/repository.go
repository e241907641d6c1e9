// internal/auth/repository.go
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"booknest/internal/profile"
)

var ErrNotFound = errors.New("not found")

// Repository persists credentials, one-time codes, refresh tokens and
// revoked sessions.
type Repository interface {
	// CreateAccount stores the profile and credential together. It returns
	// profile.ErrEmailTaken if the email is registered.
	CreateAccount(ctx context.Context, p *profile.Profile, c *Credential) error
	CredentialByEmail(ctx context.Context, email string) (*Credential, error)
	SetPassword(ctx context.Context, userID uuid.UUID, hash, salt string, at time.Time) error
	ConfirmEmail(ctx context.Context, userID uuid.UUID) error

	// PutCode replaces any pending code for the same email and purpose.
	PutCode(ctx context.Context, code *OneTimeCode) error
	GetCode(ctx context.Context, email string, purpose OTPType) (*OneTimeCode, error)
	// ConsumeCode deletes the code if it still has the given hash and reports
	// whether this call removed it.
	ConsumeCode(ctx context.Context, email string, purpose OTPType, codeHash string) (bool, error)
	// FailCode counts a wrong guess against the pending code and deletes the
	// code once maxAttempts guesses have failed.
	FailCode(ctx context.Context, email string, purpose OTPType, maxAttempts int) error

	PutRefreshToken(ctx context.Context, t *RefreshToken) error
	// TakeRefreshToken deletes and returns the token, so each is usable once.
	TakeRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	DeleteSessionTokens(ctx context.Context, sessionID uuid.UUID) error

	RevokeSession(ctx context.Context, sessionID uuid.UUID, until time.Time) error
	SessionRevoked(ctx context.Context, sessionID uuid.UUID) (bool, error)
}
