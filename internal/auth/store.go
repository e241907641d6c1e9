// internal/auth/store.go
package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"booknest/internal/profile"
)

type codeKey struct {
	email   string
	purpose OTPType
}

// MemoryRepository keeps auth state in process. Profiles are written through
// to the given profile repository.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles profile.Repository
	creds    map[string]*Credential
	codes    map[codeKey]*OneTimeCode
	refresh  map[string]*RefreshToken
	revoked  map[uuid.UUID]time.Time
}

func NewMemoryRepository(profiles profile.Repository) *MemoryRepository {
	return &MemoryRepository{
		profiles: profiles,
		creds:    make(map[string]*Credential),
		codes:    make(map[codeKey]*OneTimeCode),
		refresh:  make(map[string]*RefreshToken),
		revoked:  make(map[uuid.UUID]time.Time),
	}
}

func (r *MemoryRepository) CreateAccount(ctx context.Context, p *profile.Profile, c *Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(c.Email)
	if _, ok := r.creds[key]; ok {
		return profile.ErrEmailTaken
	}
	if err := r.profiles.Create(ctx, p); err != nil {
		return err
	}
	cp := *c
	r.creds[key] = &cp
	return nil
}

func (r *MemoryRepository) CredentialByEmail(_ context.Context, email string) (*Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.creds[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) byUser(userID uuid.UUID) *Credential {
	for _, c := range r.creds {
		if c.UserID == userID {
			return c
		}
	}
	return nil
}

func (r *MemoryRepository) SetPassword(_ context.Context, userID uuid.UUID, hash, salt string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byUser(userID)
	if c == nil {
		return ErrNotFound
	}
	c.PasswordHash, c.Salt, c.UpdatedAt = hash, salt, at
	return nil
}

func (r *MemoryRepository) ConfirmEmail(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byUser(userID)
	if c == nil {
		return ErrNotFound
	}
	c.EmailConfirmed = true
	return nil
}

func (r *MemoryRepository) PutCode(_ context.Context, code *OneTimeCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *code
	r.codes[codeKey{strings.ToLower(code.Email), code.Purpose}] = &cp
	return nil
}

func (r *MemoryRepository) GetCode(_ context.Context, email string, purpose OTPType) (*OneTimeCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codes[codeKey{strings.ToLower(email), purpose}]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) ConsumeCode(_ context.Context, email string, purpose OTPType, codeHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := codeKey{strings.ToLower(email), purpose}
	c, ok := r.codes[key]
	if !ok || c.CodeHash != codeHash {
		return false, nil
	}
	delete(r.codes, key)
	return true, nil
}

func (r *MemoryRepository) FailCode(_ context.Context, email string, purpose OTPType, maxAttempts int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := codeKey{strings.ToLower(email), purpose}
	c, ok := r.codes[key]
	if !ok {
		return nil
	}
	c.FailedAttempts++
	if c.FailedAttempts >= maxAttempts {
		delete(r.codes, key)
	}
	return nil
}

func (r *MemoryRepository) PutRefreshToken(_ context.Context, t *RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.refresh[t.TokenHash] = &cp
	return nil
}

func (r *MemoryRepository) TakeRefreshToken(_ context.Context, tokenHash string) (*RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.refresh[tokenHash]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.refresh, tokenHash)
	return t, nil
}

func (r *MemoryRepository) DeleteSessionTokens(_ context.Context, sessionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for hash, t := range r.refresh {
		if t.SessionID == sessionID {
			delete(r.refresh, hash)
		}
	}
	return nil
}

func (r *MemoryRepository) RevokeSession(_ context.Context, sessionID uuid.UUID, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[sessionID] = until
	return nil
}

func (r *MemoryRepository) SessionRevoked(_ context.Context, sessionID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.revoked[sessionID]
	return ok, nil
}
