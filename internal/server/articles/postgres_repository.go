package articles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ralexclark/ballabove/internal/common"
	"github.com/ralexclark/ballabove/internal/dbx"
)

const articleColumns = `id, title, author, author_username, update_date, text, approved`

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

func scanArticle(row rowScanner) (*Article, error) {
	a := &Article{}
	err := row.Scan(&a.ID, &a.Title, &a.Author, &a.AuthorUsername, &a.UpdateDate, &a.Text, &a.Approved)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func (r *PostgresRepository) Create(ctx context.Context, article *Article) (*Article, error) {

	if article.ID == "" {
		article.ID = uuid.New().String()
	}

	query :=
		`INSERT INTO articles (id, title, author, author_username, update_date, text)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		article.ID, article.Title, article.Author, article.AuthorUsername,
		article.UpdateDate, article.Text).Scan(&article.ID)

	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return article, nil
}

// Approve marks the matching article approved in one statement. The filter
// matches approved and unapproved rows alike, so re-approving is idempotent.
func (r *PostgresRepository) Approve(ctx context.Context, title, authorUsername string) (*Article, error) {
	query :=
		`UPDATE articles SET approved = TRUE
		 WHERE title = $1 AND author_username = $2
		 RETURNING ` + articleColumns

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, title, authorUsername))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return article, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return article, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	var result []*Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %v", err)
		}
		result = append(result, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %v", err)
	}

	return result, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles ORDER BY update_date DESC`
	return r.list(ctx, query)
}

func (r *PostgresRepository) ListByAuthor(ctx context.Context, authorUsername string) ([]*Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE author_username = $1 ORDER BY update_date DESC`
	return r.list(ctx, query, authorUsername)
}

func (r *PostgresRepository) ListPendingApproval(ctx context.Context) ([]*Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE approved = FALSE ORDER BY update_date DESC`
	return r.list(ctx, query)
}
