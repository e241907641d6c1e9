// internal/chaos/faults.go
package chaos

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"booknest/internal/catalog"
	"booknest/internal/purchase"
)

var ErrInjected = errors.New("injected fault")

// Faults is a switchable injector shared by the store wrappers below.
type Faults struct {
	mu       sync.Mutex
	latency  time.Duration
	failures int
}

func (f *Faults) SetLatency(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latency = d
}

// FailNext makes the next n wrapped calls return ErrInjected.
func (f *Faults) FailNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = n
}

func (f *Faults) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latency, f.failures = 0, 0
}

func (f *Faults) inject(ctx context.Context) error {
	f.mu.Lock()
	latency := f.latency
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()

	if latency > 0 {
		t := time.NewTimer(latency)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if fail {
		return ErrInjected
	}
	return nil
}

// Books slows or fails reads and stock adjustments of a catalog store.
type Books struct {
	catalog.Repository
	faults *Faults
}

func WrapBooks(repo catalog.Repository, f *Faults) *Books {
	return &Books{Repository: repo, faults: f}
}

func (b *Books) Get(ctx context.Context, id uuid.UUID) (*catalog.Book, error) {
	if err := b.faults.inject(ctx); err != nil {
		return nil, err
	}
	return b.Repository.Get(ctx, id)
}

func (b *Books) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	if err := b.faults.inject(ctx); err != nil {
		return 0, err
	}
	return b.Repository.AdjustQuantity(ctx, id, delta)
}

// Purchases fails order writes of a purchase store.
type Purchases struct {
	purchase.Repository
	faults *Faults
}

func WrapPurchases(repo purchase.Repository, f *Faults) *Purchases {
	return &Purchases{Repository: repo, faults: f}
}

func (p *Purchases) Create(ctx context.Context, pu *purchase.Purchase) error {
	if err := p.faults.inject(ctx); err != nil {
		return err
	}
	return p.Repository.Create(ctx, pu)
}
