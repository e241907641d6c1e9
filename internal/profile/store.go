// internal/profile/store.go
package profile

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository keeps profiles in process.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]*Profile
	byEmail  map[string]uuid.UUID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		profiles: make(map[uuid.UUID]*Profile),
		byEmail:  make(map[string]uuid.UUID),
	}
}

func (r *MemoryRepository) Create(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(p.Email)
	if _, ok := r.byEmail[key]; ok {
		return ErrEmailTaken
	}
	cp := *p
	r.profiles[p.ID] = &cp
	r.byEmail[key] = p.ID
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	r.mu.RLock()
	id, ok := r.byEmail[strings.ToLower(email)]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *MemoryRepository) Save(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	r.profiles[p.ID] = &cp
	return nil
}
