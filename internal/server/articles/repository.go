package articles

import "context"

// Repository is the persistence port for article records. List results are
// ordered by update date, newest first. Approve is a single atomic
// find-and-update; common.ErrorNotFound signals no matching row.
type Repository interface {
	Create(ctx context.Context, article *Article) (*Article, error)
	Approve(ctx context.Context, title, authorUsername string) (*Article, error)
	GetByID(ctx context.Context, id string) (*Article, error)
	ListAll(ctx context.Context) ([]*Article, error)
	ListByAuthor(ctx context.Context, authorUsername string) ([]*Article, error)
	ListPendingApproval(ctx context.Context) ([]*Article, error)
}
