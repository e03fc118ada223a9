package auth

import (
	"context"

	"github.com/google/uuid"

	"userhub/internal/user"
)

// UserRepository is the persistence boundary the workflow engine depends on.
// The production implementation is user.Repository on Postgres; tests use an
// in-memory fake.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	List(ctx context.Context) ([]*user.User, error)
}

// Mailer delivers outbound mail. The workflow engine only ever asks for a
// password-reset email; building the link and the body is the mailer's job.
type Mailer interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, token string) error
}
