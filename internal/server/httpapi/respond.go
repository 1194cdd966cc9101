package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ralexclark/ballabove/internal/server/articles"
	"github.com/ralexclark/ballabove/internal/server/users"
)

// response is the uniform envelope returned by every endpoint:
// {success: bool, msg?: string, ...payload}.
type response map[string]any

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fail(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, response{"success": false, "msg": msg})
}

func failForbidden(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusForbidden, response{"success": false, "msg": msg})
}

// userView is the public projection of a user record. The password hash and
// reset-token fields never leave the server.
type userView struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	Name                string     `json:"name"`
	LastLogin           *time.Time `json:"lastLogin,omitempty"`
	Verified            bool       `json:"verified"`
	PendingVerification bool       `json:"pendingVerification"`
	Administrator       bool       `json:"administrator"`
}

func toUserView(u *users.User) userView {
	return userView{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		Name:                u.Name,
		LastLogin:           u.LastLogin,
		Verified:            u.Verified,
		PendingVerification: u.PendingVerification,
		Administrator:       u.Administrator,
	}
}

func toUserViews(us []*users.User) []userView {
	out := make([]userView, 0, len(us))
	for _, u := range us {
		out = append(out, toUserView(u))
	}
	return out
}

type articleView struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	AuthorUsername string    `json:"authorUsername"`
	UpdateDate     time.Time `json:"updateDate"`
	Text           string    `json:"text"`
	Approved       bool      `json:"approved"`
}

func toArticleView(a *articles.Article) articleView {
	return articleView{
		ID:             a.ID,
		Title:          a.Title,
		Author:         a.Author,
		AuthorUsername: a.AuthorUsername,
		UpdateDate:     a.UpdateDate,
		Text:           a.Text,
		Approved:       a.Approved,
	}
}

func toArticleViews(as []*articles.Article) []articleView {
	out := make([]articleView, 0, len(as))
	for _, a := range as {
		out = append(out, toArticleView(a))
	}
	return out
}
