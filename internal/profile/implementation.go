// internal/profile/implementation.go
package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"booknest/internal/platform/telemetry"
	"booknest/internal/result"
)

type service struct {
	repo   Repository
	log    *zap.SugaredLogger
	tracer trace.Tracer
	now    func() time.Time
}

// NewService creates a new profile service instance.
func NewService(repo Repository, log *zap.SugaredLogger) Service {
	return &service{
		repo:   repo,
		log:    log,
		tracer: otel.Tracer("booknest/profile"),
		now:    time.Now,
	}
}

func (s *service) GetProfile(ctx context.Context, id uuid.UUID) (p *Profile, err error) {
	ctx, span := s.tracer.Start(ctx, "profile.get")
	defer func() { telemetry.End(ctx, span, "profile.get", err) }()

	p, err = s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, result.NotFound("Profile not found")
	}
	return p, result.Failed(err)
}

// UpdateProfile applies a partial update to the caller's own profile.
func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, update Update) (p *Profile, err error) {
	ctx, span := s.tracer.Start(ctx, "profile.update")
	defer func() { telemetry.End(ctx, span, "profile.update", err) }()

	if update.UserType != nil && !update.UserType.Valid() {
		return nil, result.InvalidInput("Invalid user type")
	}
	if update.FullName != nil && strings.TrimSpace(*update.FullName) == "" {
		return nil, result.InvalidInput("Full name is required")
	}

	p, err = s.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, result.NotFound("Profile not found")
	}
	if err != nil {
		return nil, result.Failed(err)
	}

	update.apply(p)
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, result.Failed(err)
	}

	s.log.Infow("Profile updated", "user_id", userID)
	return p, nil
}
