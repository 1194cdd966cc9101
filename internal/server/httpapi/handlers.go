package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ralexclark/ballabove/internal/common"
)

const internalErrorMsg = "Internal server error."

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		fail(w, "Invalid request body.")
		return false
	}
	return true
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Username == "" || req.Email == "" || req.Name == "" || req.Password == "" {
		fail(w, "Please pass name and password.")
		return
	}

	_, err := s.users.Register(r.Context(), req.Username, req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUser) {
			fail(w, "Username already exists.")
			return
		}
		s.logger.Error(r.Context(), "register failed", "error", err)
		fail(w, internalErrorMsg)
		return
	}
	writeJSON(w, http.StatusOK, response{"success": true, "msg": "Success created new user."})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	token, user, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUserNotFound):
			fail(w, "Authentication failed. User not found.")
		case errors.Is(err, common.ErrBadCredentials):
			fail(w, "Authentication failed. Wrong password.")
		default:
			s.logger.Error(r.Context(), "login failed", "error", err)
			fail(w, internalErrorMsg)
		}
		return
	}
	writeJSON(w, http.StatusOK, response{
		"success": true,
		"token":   common.SessionTokenScheme + " " + token,
		"user":    toUserView(user),
	})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	username := usernameFromContext(r.Context())
	user, err := s.users.FindByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			failForbidden(w, "Authentication failed.")
			return
		}
		s.logger.Error(r.Context(), "current user lookup failed", "error", err)
		fail(w, internalErrorMsg)
		return
	}
	writeJSON(w, http.StatusOK, response{"success": true, "user": toUserView(user)})
}

type usernameRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleProfileByUser(w http.ResponseWriter, r *http.Request) {
	var req usernameRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := s.users.FindByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			fail(w, "User not found.")
			return
		}
		s.logger.Error(r.Context(), "profile lookup failed", "error", err)
		fail(w, internalErrorMsg)
		return
	}
	writeJSON(w, http.StatusOK, response{"success": true, "user": toUserView(user)})
}

type forgetRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	var req forgetRequest
	if !decode(w, r, &req) {
		return
	}

	referrer := r.Referer()
	if referrer == "" {
		referrer = s.resetBaseURL
	}

	user, err := s.users.BeginPasswordReset(r.Context(), req.Email, referrer)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUserNotFound):
			fail(w, "Username is not found.")
		case errors.Is(err, common.ErrNotification):
			// The token is persisted even when the mail could not be sent.
			s.logger.Error(r.Context(), "reset mail failed", "error", err)
			fail(w, "Unable to send reset e-mail.")
		default:
			s.logger.Error(r.Context(), "password reset failed", "error", err)
			fail(w, internalErrorMsg)
		}
		return
	}
	writeJSON(w, http.StatusOK, response{
		"success": true,
		"msg":     "An e-mail has been sent to " + user.Email + " with further instructions.",
	})
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decode(w, r, &req) {
		return
	}

	_, err := s.users.CompletePasswordReset(r.Context(), req.Token, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpiredOrInvalid) {
			fail(w, "Password reset token is invalid or has expired.")
			return
		}
		s.logger.Error(r.Context(), "password reset completion failed", "error", err)
		fail(w, internalErrorMsg)
		return
	}
	writeJSON(w, http.StatusOK, response{"success": true, "msg": "Password has been reset."})
}

type submitArticleRequest struct {
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	AuthorUsername string    `json:"authorUsername"`
	UpdateDate     time.Time `json:"updateDate"`
	Text           string    `json:"text"`
}

var validationMessages = map[string]string{
	"title":          "Article missing a title",
	"author":         "Article missing an author",
	"authorUsername": "Article missing an author username",
	"date":           "Article missing a date",
	"text":           "Article missing the article itself",
}

func (s *Server) handleSubmitArticle(w http.ResponseWriter, r *http.Request) {
	var req submitArticleRequest
	if !decode(w, r, &req) {
		return
	}

	_, err := s.articles.Submit(r.Context(), req.Title, req.Author, req.AuthorUsername, req.UpdateDate, req.Text)
	if err != nil {
		var verr *common.ValidationError
		switch {
		case errors.As(err, &verr):
			fail(w, validationMessages[verr.Field])
		case errors.Is(err, common.ErrUserNotFound):
			fail(w, "Author not found.")
		default:
			s.logger.Error(r.Context(), "article submission failed", "error", err)
			fail(w, internalErrorMsg)
		}
		return
	}
	writeJSON(w, http.StatusOK, response{"success": true, "msg": "Success created a new article"})
}

type approveArticleRequest struct {
	Title          string `json:"title"`
	AuthorUsername string `json:"authorUsername"`
}

func (s *Server) handleApproveArticle(w http.ResponseWriter, r *http.Request) {
	var req approveArticleRequest
	if !decode(w, r, &req) {
		return
	}

	article, err := s.articles.Approve(r.Context(), req.Title, req.AuthorUsername)
	if err != nil {
		if errors.Is(err, common.ErrArticleNotFound) {
			fail(w, "Article not found.")
			return
		}
		s.logger.Error(r.Context(), "article approval failed", "error", err)
		fail(w, internalErrorMsg)
		return
	}
	writeJSON(w, http.StatusOK, response{
		"success": true,
		"msg":     "Article approved.",
		"article": toArticleView(article),
	})
}

func (s *Server) handleVerifyUser(w http.ResponseWriter, r *http.Request) {
	var req usernameRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := s.users.SetVerified(r.Context(), req.Username)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUserNotFound):
			fail(w, "User not found.")
		case errors.Is(err, common.ErrNotification):
			// Verification is already persisted at this point.
			s.logger.Error(r.Context(), "verification mail failed", "error", err)
			fail(w, "Unable to send verification e-mail.")
		default:
			s.logger.Error(r.Context(), "user verification failed", "error", err)
			fail(w, internalErrorMsg)
		}
		return
	}
	writeJSON(w, http.StatusOK, response{
		"success": true,
		"msg":     "User verified.",
		"user":    toUserView(user),
	})
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	list, err := s.articles.ListAll(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "article listing failed", "error", err)
		fail(w, internalErrorMsg)
		return
	}
	writeJSON(w, http.StatusOK, response{"success": true, "articles": toArticleViews(list)})
}

func (s *Server) handleArticlesByUser(w http.ResponseWriter, r *http.Request) {
	var req usernameRequest
	if !decode(w, r, &req) {
		return
	}

	list, err := s.articles.ListByAuthor(r.Context(), req.Username)
	if err != nil {
		s.logger.Error(r.Context(), "article listing failed", "error", err)
		fail(w, internalErrorMsg)
		return
	}
	writeJSON(w, http.StatusOK, response{"success": true, "articles": toArticleViews(list)})
}

func (s *Server) handlePendingApproval(w http.ResponseWriter, r *http.Request) {
	list, err := s.articles.ListPendingApproval(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "pending approval listing failed", "error", err)
		fail(w, internalErrorMsg)
		return
	}
	writeJSON(w, http.StatusOK, response{"success": true, "articles": toArticleViews(list)})
}

func (s *Server) handlePendingVerification(w http.ResponseWriter, r *http.Request) {
	list, err := s.users.ListPendingVerification(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "pending verification listing failed", "error", err)
		fail(w, internalErrorMsg)
		return
	}
	writeJSON(w, http.StatusOK, response{"success": true, "users": toUserViews(list)})
}
