package articles

import (
	"context"
	"errors"
	"time"

	"github.com/ralexclark/ballabove/internal/common"
)

// Service implements the article submission and approval workflow.
// Submissions always enter the store unapproved; approval is the editorial
// gate that makes an article visible as published content.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Submit validates and persists a new unapproved article. The first missing
// required field is reported, checked in this order: title, author name,
// author username, date, text. The order is an observable contract of the
// submission workflow.
func (s *Service) Submit(ctx context.Context, title, author, authorUsername string, updateDate time.Time, text string) (*Article, error) {

	switch {
	case title == "":
		return nil, common.NewValidationError("title")
	case author == "":
		return nil, common.NewValidationError("author")
	case authorUsername == "":
		return nil, common.NewValidationError("authorUsername")
	case updateDate.IsZero():
		return nil, common.NewValidationError("date")
	case text == "":
		return nil, common.NewValidationError("text")
	}

	article := &Article{
		Title:          title,
		Author:         author,
		AuthorUsername: authorUsername,
		UpdateDate:     updateDate,
		Text:           text,
	}

	article, err := s.repo.Create(ctx, article)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.ErrorInternal
	}

	return article, nil
}

// Approve marks the article matching title and author approved. Approving an
// already-approved article succeeds and yields the same state. No matching
// article yields common.ErrArticleNotFound.
func (s *Service) Approve(ctx context.Context, title, authorUsername string) (*Article, error) {
	article, err := s.repo.Approve(ctx, title, authorUsername)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrArticleNotFound
		}
		return nil, common.ErrorInternal
	}
	return article, nil
}

// FindByID returns the article with the given id, or common.ErrArticleNotFound.
func (s *Service) FindByID(ctx context.Context, id string) (*Article, error) {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrArticleNotFound
		}
		return nil, common.ErrorInternal
	}
	return article, nil
}

// ListAll returns every article, newest first.
func (s *Service) ListAll(ctx context.Context) ([]*Article, error) {
	result, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return result, nil
}

// ListByAuthor returns the author's articles, newest first.
func (s *Service) ListByAuthor(ctx context.Context, authorUsername string) ([]*Article, error) {
	result, err := s.repo.ListByAuthor(ctx, authorUsername)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return result, nil
}

// ListPendingApproval returns articles awaiting the editorial gate.
func (s *Service) ListPendingApproval(ctx context.Context) ([]*Article, error) {
	result, err := s.repo.ListPendingApproval(ctx)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return result, nil
}
