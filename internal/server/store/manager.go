// Package store wires the persistence layer together: it opens the database,
// constructs the per-entity repositories, and runs schema migrations.
package store

import (
	"context"
	"database/sql"

	"github.com/ralexclark/ballabove/internal/server/articles"
	"github.com/ralexclark/ballabove/internal/server/users"
)

// RepositoryManager hands out the per-entity repositories backed by a single
// shared connection pool.
type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Users() users.Repository
	Articles() articles.Repository
}
