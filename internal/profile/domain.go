// internal/profile/domain.go
package profile

import (
	"time"

	"github.com/google/uuid"
)

type UserType string

const (
	Reader UserType = "reader"
	Donor  UserType = "donor"
	Both   UserType = "both"
)

func (t UserType) Valid() bool {
	switch t {
	case Reader, Donor, Both:
		return true
	}
	return false
}

// Profile is a user's durable public record.
type Profile struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FullName  string    `json:"full_name" db:"full_name"`
	UserType  UserType  `json:"user_type" db:"user_type"`
	AvatarURL string    `json:"avatar_url" db:"avatar_url"`
	Phone     string    `json:"phone" db:"phone"`
	Bio       string    `json:"bio" db:"bio"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Update carries the fields a user may change on their own profile. Nil
// fields are left as they are.
type Update struct {
	FullName  *string   `json:"full_name"`
	UserType  *UserType `json:"user_type"`
	AvatarURL *string   `json:"avatar_url"`
	Phone     *string   `json:"phone"`
	Bio       *string   `json:"bio"`
}

func (u Update) apply(p *Profile) {
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.UserType != nil {
		p.UserType = *u.UserType
	}
	if u.AvatarURL != nil {
		p.AvatarURL = *u.AvatarURL
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
}
