package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ralexclark/ballabove/internal/common"
	"github.com/ralexclark/ballabove/internal/server/auth"
	"github.com/ralexclark/ballabove/internal/server/config"
	"github.com/ralexclark/ballabove/internal/server/hashing"
	"github.com/ralexclark/ballabove/internal/server/mail"
)

// Service implements the user directory workflows: registration, login,
// the password-reset lifecycle, and author verification.
type Service struct {
	repo                         Repository
	hasher                       hashing.Hasher
	mailer                       mail.Mailer
	jwtSecret                    []byte
	sessionTokenValidityDuration time.Duration
	resetTokenValidityDuration   time.Duration
	mailFrom                     string
}

func NewService(repo Repository, hasher hashing.Hasher, mailer mail.Mailer, cfg *config.Config) *Service {
	return &Service{
		repo:                         repo,
		hasher:                       hasher,
		mailer:                       mailer,
		jwtSecret:                    []byte(cfg.SecretKey),
		sessionTokenValidityDuration: cfg.SessionTokenValidityDuration,
		resetTokenValidityDuration:   cfg.ResetTokenValidityDuration,
		mailFrom:                     cfg.MailFrom,
	}
}

// Register hashes the password and creates a new unverified user.
// A username or email collision yields common.ErrDuplicateUser.
func (s *Service) Register(ctx context.Context, username, email, name, password string) (*User, error) {

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %v", err)
	}

	user := &User{
		Username:     username,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}

	user, err = s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUser) {
			return nil, common.ErrDuplicateUser
		}
		return nil, fmt.Errorf("error creating user: %v", err)
	}

	return user, nil
}

// Authenticate verifies the username/password pair. On success it stamps
// LastLogin and returns the updated user. Failure conditions are named:
// common.ErrUserNotFound for an unknown username, common.ErrBadCredentials
// for a hash mismatch.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.ErrorInternal
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrBadCredentials
	}

	user, err = s.repo.UpdateLastLogin(ctx, username, time.Now())
	if err != nil {
		return nil, common.ErrorInternal
	}

	return user, nil
}

// Login authenticates and mints a session token for the user.
func (s *Service) Login(ctx context.Context, username, password string) (string, *User, error) {

	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", nil, err
	}

	token, err := auth.GenerateToken(user.Username, s.jwtSecret, s.sessionTokenValidityDuration)
	if err != nil {
		return "", nil, common.ErrorInternal
	}

	return token, user, nil
}

// FindByUsername returns the user with the given username, or
// common.ErrUserNotFound.
func (s *Service) FindByUsername(ctx context.Context, username string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// BeginPasswordReset generates a reset token, persists it with its expiry on
// the user record, and then emails the reset link. The token is committed
// before dispatch; a failed send is reported as common.ErrNotification but
// leaves the token in place.
func (s *Service) BeginPasswordReset(ctx context.Context, email, referrer string) (*User, error) {

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.ErrorInternal
	}

	token, err := auth.NewResetToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	expires := time.Now().Add(s.resetTokenValidityDuration)

	user, err = s.repo.SetResetToken(ctx, user.Email, token, expires)
	if err != nil {
		return nil, common.ErrorInternal
	}

	subject, body := mail.ResetMessage(referrer, token)
	if err := s.mailer.Send(ctx, user.Email, s.mailFrom, subject, body); err != nil {
		return user, fmt.Errorf("%w: %v", common.ErrNotification, err)
	}

	return user, nil
}

// CompletePasswordReset hashes the new password and applies it while clearing
// the token and expiry as one atomic update. An unknown, already used, or
// expired token yields common.ErrTokenExpiredOrInvalid; a replay of a used
// token fails the same way because the first reset cleared it.
func (s *Service) CompletePasswordReset(ctx context.Context, token, newPassword string) (*User, error) {

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %v", err)
	}

	user, err := s.repo.CompletePasswordReset(ctx, token, hash, time.Now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrTokenExpiredOrInvalid
		}
		return nil, common.ErrorInternal
	}

	return user, nil
}

// SetVerified marks the user a verified author and clears the pending flag,
// then sends the verification notice. The flag is committed before dispatch;
// a failed send is reported as common.ErrNotification.
func (s *Service) SetVerified(ctx context.Context, username string) (*User, error) {

	user, err := s.repo.SetVerified(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.ErrorInternal
	}

	subject, body := mail.VerifiedAuthorMessage(user.Name)
	if err := s.mailer.Send(ctx, user.Email, s.mailFrom, subject, body); err != nil {
		return user, fmt.Errorf("%w: %v", common.ErrNotification, err)
	}

	return user, nil
}

// ListPendingVerification returns a snapshot of users not yet verified.
func (s *Service) ListPendingVerification(ctx context.Context) ([]*User, error) {
	result, err := s.repo.ListPendingVerification(ctx)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return result, nil
}

// CreateAdministrator registers a user and grants the administrator flag.
// Used by the operator CLI, not exposed over HTTP.
func (s *Service) CreateAdministrator(ctx context.Context, username, email, name, password string) (*User, error) {

	if _, err := s.Register(ctx, username, email, name, password); err != nil {
		return nil, err
	}

	user, err := s.repo.SetAdministrator(ctx, username)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return user, nil
}

// GrantAdministrator sets the administrator flag on an existing user.
// Used by the operator CLI, not exposed over HTTP.
func (s *Service) GrantAdministrator(ctx context.Context, username string) (*User, error) {
	user, err := s.repo.SetAdministrator(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// MarkPendingVerification flags a user as awaiting author verification.
// Used by the operator CLI, not exposed over HTTP.
func (s *Service) MarkPendingVerification(ctx context.Context, username string) (*User, error) {
	user, err := s.repo.SetPendingVerification(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}
