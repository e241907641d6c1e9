// internal/auth/tokens.go
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"booknest/internal/session"
)

var (
	errTokenInvalid = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

type claims struct {
	Email     string    `json:"email"`
	SessionID uuid.UUID `json:"sid"`
	jwt.RegisteredClaims
}

// issuer signs HS256 access tokens and mints opaque refresh tokens.
type issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func (i *issuer) issue(userID uuid.UUID, email string, sessionID uuid.UUID) (*session.Session, *RefreshToken, error) {
	now := i.now()
	expiresAt := now.Add(i.accessTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email:     email,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	access, err := token.SignedString(i.secret)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	refresh := base64.RawURLEncoding.EncodeToString(raw)

	sess := &session.Session{
		ID:           sessionID,
		UserID:       userID,
		Email:        email,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		State:        session.Authenticated,
	}
	rt := &RefreshToken{
		TokenHash: hashSecret(refresh),
		UserID:    userID,
		Email:     email,
		SessionID: sessionID,
		ExpiresAt: now.Add(i.refreshTTL),
	}
	return sess, rt, nil
}

// parse verifies the signature and expiry against the injected clock.
func (i *issuer) parse(tokenString string) (*session.Session, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	c := &claims{}
	if _, err := parser.ParseWithClaims(tokenString, c, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	}); err != nil {
		return nil, errTokenInvalid
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil || c.ExpiresAt == nil {
		return nil, errTokenInvalid
	}

	sess := &session.Session{
		ID:          c.SessionID,
		UserID:      userID,
		Email:       c.Email,
		AccessToken: tokenString,
		ExpiresAt:   c.ExpiresAt.Time,
		State:       session.Authenticated,
	}
	if !i.now().Before(sess.ExpiresAt) {
		sess.State = session.Expired
		return sess, errTokenExpired
	}
	return sess, nil
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// generateCode returns a uniformly random 6-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
