package profile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booknest/internal/platform/logger"
	"booknest/internal/result"
)

func seed(t *testing.T, repo Repository) *Profile {
	t.Helper()
	p := &Profile{
		ID:        uuid.New(),
		Email:     "Reader@Example.com",
		FullName:  "Ada Reader",
		UserType:  Reader,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestMemoryRepositoryEmailIsCaseInsensitive(t *testing.T) {
	repo := NewMemoryRepository()
	p := seed(t, repo)

	got, err := repo.GetByEmail(context.Background(), "reader@example.com")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	dup := *p
	dup.ID = uuid.New()
	dup.Email = "READER@example.com"
	assert.ErrorIs(t, repo.Create(context.Background(), &dup), ErrEmailTaken)
}

func TestUpdateProfile(t *testing.T) {
	repo := NewMemoryRepository()
	p := seed(t, repo)
	svc := NewService(repo, logger.Nop())

	bio := "Collects first editions"
	both := Both
	got, err := svc.UpdateProfile(context.Background(), p.ID, Update{Bio: &bio, UserType: &both})
	require.NoError(t, err)
	assert.Equal(t, bio, got.Bio)
	assert.Equal(t, Both, got.UserType)
	assert.Equal(t, "Ada Reader", got.FullName)

	stored, err := svc.GetProfile(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, bio, stored.Bio)
}

func TestUpdateProfileValidation(t *testing.T) {
	repo := NewMemoryRepository()
	p := seed(t, repo)
	svc := NewService(repo, logger.Nop())

	bad := UserType("admin")
	_, err := svc.UpdateProfile(context.Background(), p.ID, Update{UserType: &bad})
	assert.ErrorIs(t, err, result.ErrInvalidInput)

	blank := "  "
	_, err = svc.UpdateProfile(context.Background(), p.ID, Update{FullName: &blank})
	assert.ErrorIs(t, err, result.ErrInvalidInput)

	_, err = svc.UpdateProfile(context.Background(), uuid.New(), Update{})
	assert.ErrorIs(t, err, result.ErrNotFound)
}
