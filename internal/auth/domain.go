// internal/auth/domain.go
package auth

import (
	"time"

	"github.com/google/uuid"

	"booknest/internal/profile"
	"booknest/internal/session"
)

// Credential is a user's password login record.
type Credential struct {
	UserID         uuid.UUID `db:"user_id"`
	Email          string    `db:"email"`
	PasswordHash   string    `db:"password_hash"`
	Salt           string    `db:"salt"`
	EmailConfirmed bool      `db:"email_confirmed"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// OTPType selects what a one-time code proves.
type OTPType string

const (
	OTPEmail    OTPType = "email"
	OTPRecovery OTPType = "recovery"
)

func (t OTPType) Valid() bool { return t == OTPEmail || t == OTPRecovery }

// OneTimeCode is a pending code. Only its hash is stored.
type OneTimeCode struct {
	Email     string    `db:"email"`
	Purpose   OTPType   `db:"purpose"`
	CodeHash  string    `db:"code_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	// FailedAttempts counts wrong guesses against this code.
	FailedAttempts int `db:"failed_attempts"`
}

// RefreshToken is a single-use token that renews a session.
type RefreshToken struct {
	TokenHash string    `db:"token_hash"`
	UserID    uuid.UUID `db:"user_id"`
	Email     string    `db:"email"`
	SessionID uuid.UUID `db:"session_id"`
	ExpiresAt time.Time `db:"expires_at"`
}

// Event names an auth state change.
type Event string

const (
	SignedIn         Event = "SIGNED_IN"
	SignedOut        Event = "SIGNED_OUT"
	TokenRefreshed   Event = "TOKEN_REFRESHED"
	UserUpdated      Event = "USER_UPDATED"
	PasswordRecovery Event = "PASSWORD_RECOVERY"
)

// Change is delivered to OnAuthStateChange listeners.
type Change struct {
	Event   Event
	Session *session.Session
}

// Listener receives auth state changes. It runs synchronously on the
// goroutine that caused the change and must not block.
type Listener func(Change)

// SignUpInput carries the new account's attributes.
type SignUpInput struct {
	Email    string           `json:"email"`
	Password string           `json:"password"`
	FullName string           `json:"full_name"`
	UserType profile.UserType `json:"user_type"`
}
