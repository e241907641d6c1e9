// internal/auth/service.go
package auth

import (
	"context"

	"github.com/google/uuid"

	"booknest/internal/session"
)

// Service is the identity provider: password and one-time-code sign-in,
// session issuance, refresh and revocation.
type Service interface {
	SignUp(ctx context.Context, in SignUpInput) (*session.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*session.Session, error)
	SignInWithOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string, typ OTPType) (*session.Session, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectURL string) error
	UpdateUser(ctx context.Context, sess *session.Session, password string) error
	SignOut(ctx context.Context, sess *session.Session) error
	GetSession(ctx context.Context, accessToken string) (*session.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*session.Session, error)

	// OnAuthStateChange registers l and returns a function that removes it.
	OnAuthStateChange(l Listener) (unsubscribe func())

	// Authenticate resolves an access token to its user id.
	Authenticate(ctx context.Context, accessToken string) (uuid.UUID, error)
}
