// internal/server/backends.go
package server

import (
	"github.com/jmoiron/sqlx"

	"booknest/internal/auth"
	"booknest/internal/cart"
	"booknest/internal/catalog"
	"booknest/internal/community"
	"booknest/internal/donation"
	"booknest/internal/messaging"
	"booknest/internal/notification"
	"booknest/internal/profile"
	"booknest/internal/purchase"
	"booknest/internal/rental"
	"booknest/internal/wishlist"
	"booknest/pkg/eventstore"
)

// Backends is the set of stores the services run on.
type Backends struct {
	Profiles      profile.Repository
	Accounts      auth.Repository
	Books         catalog.Repository
	Rentals       rental.Repository
	Donations     donation.Repository
	Purchases     purchase.Repository
	Notifications notification.Repository
	Messages      messaging.Repository
	Community     community.Repository
	Cart          cart.Repository
	Wishlist      wishlist.Repository
	Events        eventstore.Store
}

// MemoryBackends keeps everything in process. State is lost on exit.
func MemoryBackends() Backends {
	profiles := profile.NewMemoryRepository()
	return Backends{
		Profiles:      profiles,
		Accounts:      auth.NewMemoryRepository(profiles),
		Books:         catalog.NewMemoryRepository(),
		Rentals:       rental.NewMemoryRepository(),
		Donations:     donation.NewMemoryRepository(),
		Purchases:     purchase.NewMemoryRepository(),
		Notifications: notification.NewMemoryRepository(),
		Messages:      messaging.NewMemoryRepository(),
		Community:     community.NewMemoryRepository(),
		Cart:          cart.NewMemoryRepository(),
		Wishlist:      wishlist.NewMemoryRepository(),
		Events:        eventstore.NewMemoryStore(),
	}
}

// PostgresBackends runs every store on db. The schema must already be
// applied.
func PostgresBackends(db *sqlx.DB) Backends {
	return Backends{
		Profiles:      profile.NewPostgresRepository(db),
		Accounts:      auth.NewPostgresRepository(db),
		Books:         catalog.NewPostgresRepository(db),
		Rentals:       rental.NewPostgresRepository(db),
		Donations:     donation.NewPostgresRepository(db),
		Purchases:     purchase.NewPostgresRepository(db),
		Notifications: notification.NewPostgresRepository(db),
		Messages:      messaging.NewPostgresRepository(db),
		Community:     community.NewPostgresRepository(db),
		Cart:          cart.NewPostgresRepository(db),
		Wishlist:      wishlist.NewPostgresRepository(db),
		Events:        eventstore.NewPostgresStore(db.DB),
	}
}
