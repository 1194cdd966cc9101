package users

import (
	"context"
	"time"
)

// Repository is the persistence port for user records. Update methods that
// return a *User perform a single atomic find-and-update and return the row
// as it is after the change; common.ErrorNotFound signals no matching row.
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateLastLogin(ctx context.Context, username string, at time.Time) (*User, error)
	SetResetToken(ctx context.Context, email, token string, expires time.Time) (*User, error)
	CompletePasswordReset(ctx context.Context, token, newHash string, now time.Time) (*User, error)
	SetVerified(ctx context.Context, username string) (*User, error)
	SetPendingVerification(ctx context.Context, username string) (*User, error)
	SetAdministrator(ctx context.Context, username string) (*User, error)
	ListPendingVerification(ctx context.Context) ([]*User, error)
}
