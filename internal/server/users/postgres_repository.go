package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ralexclark/ballabove/internal/common"
	"github.com/ralexclark/ballabove/internal/dbx"
)

const userColumns = `id, username, email, password_hash, name, last_login,
	 reset_password_token, reset_password_expires, verified, pending_verification, administrator`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	user := &User{}
	var lastLogin, resetExpires sql.NullTime

	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Name,
		&lastLogin, &user.ResetPasswordToken, &resetExpires,
		&user.Verified, &user.PendingVerification, &user.Administrator)
	if err != nil {
		return nil, err
	}

	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	if resetExpires.Valid {
		t := resetExpires.Time
		user.ResetPasswordExpires = &t
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PostgresRepository) Create(ctx context.Context, user *User) (*User, error) {

	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	query :=
		`INSERT INTO users (id, username, email, password_hash, name)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Name).Scan(&user.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrDuplicateUser
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return user, nil
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, username string, at time.Time) (*User, error) {
	query :=
		`UPDATE users SET last_login = $2
		 WHERE username = $1
		 RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return user, nil
}

func (r *PostgresRepository) SetResetToken(ctx context.Context, email, token string, expires time.Time) (*User, error) {
	query :=
		`UPDATE users SET reset_password_token = $2, reset_password_expires = $3
		 WHERE email = $1
		 RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email, token, expires))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return user, nil
}

// CompletePasswordReset swaps in the new password hash and clears the reset
// token in one statement. The token match plus the strict expiry comparison
// make the token single-use: a concurrent second attempt finds no row.
func (r *PostgresRepository) CompletePasswordReset(ctx context.Context, token, newHash string, now time.Time) (*User, error) {
	query :=
		`UPDATE users SET password_hash = $2, reset_password_token = '', reset_password_expires = NULL
		 WHERE reset_password_token = $1 AND reset_password_token <> '' AND reset_password_expires > $3
		 RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, token, newHash, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return user, nil
}

func (r *PostgresRepository) SetVerified(ctx context.Context, username string) (*User, error) {
	query :=
		`UPDATE users SET verified = TRUE, pending_verification = FALSE
		 WHERE username = $1
		 RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return user, nil
}

func (r *PostgresRepository) SetPendingVerification(ctx context.Context, username string) (*User, error) {
	query :=
		`UPDATE users SET pending_verification = TRUE
		 WHERE username = $1
		 RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return user, nil
}

func (r *PostgresRepository) SetAdministrator(ctx context.Context, username string) (*User, error) {
	query :=
		`UPDATE users SET administrator = TRUE
		 WHERE username = $1
		 RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return user, nil
}

func (r *PostgresRepository) ListPendingVerification(ctx context.Context) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE verified = FALSE ORDER BY username`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	var result []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %v", err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %v", err)
	}

	return result, nil
}
