package domain

import (
	"context"
	"time"
)

// User mirrors an account owned by the external identity provider. The id is
// the provider's stable identifier; this service only keeps the mirror in
// sync and never manages the account lifecycle itself.
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserRepository interface {
	Upsert(ctx context.Context, user *User) error
	GetById(ctx context.Context, id string) (*User, error)
	Delete(ctx context.Context, id string) error
}
