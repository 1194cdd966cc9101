package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ralexclark/ballabove/internal/common"
	"github.com/ralexclark/ballabove/internal/logging"
	"github.com/ralexclark/ballabove/internal/server/articles"
	"github.com/ralexclark/ballabove/internal/server/auth"
	"github.com/ralexclark/ballabove/internal/server/config"
	"github.com/ralexclark/ballabove/internal/server/hashing"
	"github.com/ralexclark/ballabove/internal/server/users"
)

// --- fakes ---

type fakeUserRepo struct {
	users map[string]*users.User // by username
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*users.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *users.User) (*users.User, error) {
	for _, existing := range f.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return nil, common.ErrDuplicateUser
		}
	}
	if u.ID == "" {
		u.ID = "id-" + u.Username
	}
	f.users[u.Username] = u
	return u, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, username string, at time.Time) (*users.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.LastLogin = &at
	return u, nil
}

func (f *fakeUserRepo) SetResetToken(ctx context.Context, email, token string, expires time.Time) (*users.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			u.ResetPasswordToken = token
			u.ResetPasswordExpires = &expires
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUserRepo) CompletePasswordReset(ctx context.Context, token, newHash string, now time.Time) (*users.User, error) {
	for _, u := range f.users {
		if u.ResetPasswordToken != "" && u.ResetPasswordToken == token &&
			u.ResetPasswordExpires != nil && u.ResetPasswordExpires.After(now) {
			u.PasswordHash = newHash
			u.ResetPasswordToken = ""
			u.ResetPasswordExpires = nil
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUserRepo) SetVerified(ctx context.Context, username string) (*users.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Verified = true
	u.PendingVerification = false
	return u, nil
}

func (f *fakeUserRepo) SetPendingVerification(ctx context.Context, username string) (*users.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.PendingVerification = true
	return u, nil
}

func (f *fakeUserRepo) SetAdministrator(ctx context.Context, username string) (*users.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Administrator = true
	return u, nil
}

func (f *fakeUserRepo) ListPendingVerification(ctx context.Context) ([]*users.User, error) {
	var result []*users.User
	for _, u := range f.users {
		if !u.Verified {
			result = append(result, u)
		}
	}
	return result, nil
}

type fakeArticleRepo struct {
	articles []*articles.Article
}

func (f *fakeArticleRepo) Create(ctx context.Context, a *articles.Article) (*articles.Article, error) {
	a.ID = "id-" + a.Title
	f.articles = append(f.articles, a)
	return a, nil
}

func (f *fakeArticleRepo) Approve(ctx context.Context, title, authorUsername string) (*articles.Article, error) {
	for _, a := range f.articles {
		if a.Title == title && a.AuthorUsername == authorUsername {
			a.Approved = true
			return a, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeArticleRepo) GetByID(ctx context.Context, id string) (*articles.Article, error) {
	for _, a := range f.articles {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeArticleRepo) ListAll(ctx context.Context) ([]*articles.Article, error) {
	return f.articles, nil
}

func (f *fakeArticleRepo) ListByAuthor(ctx context.Context, authorUsername string) ([]*articles.Article, error) {
	var result []*articles.Article
	for _, a := range f.articles {
		if a.AuthorUsername == authorUsername {
			result = append(result, a)
		}
	}
	return result, nil
}

func (f *fakeArticleRepo) ListPendingApproval(ctx context.Context) ([]*articles.Article, error) {
	var result []*articles.Article
	for _, a := range f.articles {
		if !a.Approved {
			result = append(result, a)
		}
	}
	return result, nil
}

type fakeMailer struct {
	sent    int
	sendErr error
}

func (m *fakeMailer) Send(ctx context.Context, to, from, subject, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent++
	return nil
}

// --- harness ---

type fixture struct {
	server   *Server
	userRepo *fakeUserRepo
	artRepo  *fakeArticleRepo
	mailer   *fakeMailer
	cfg      *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	cfg.ResetBaseURL = "http://fallback.example"

	userRepo := newFakeUserRepo()
	artRepo := &fakeArticleRepo{}
	mailer := &fakeMailer{}
	hasher := hashing.NewBcryptHasher(bcrypt.MinCost)

	us := users.NewService(userRepo, hasher, mailer, cfg)
	as := articles.NewService(artRepo)
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	return &fixture{
		server:   NewServer(cfg, us, as, logger),
		userRepo: userRepo,
		artRepo:  artRepo,
		mailer:   mailer,
		cfg:      cfg,
	}
}

func (f *fixture) addUser(t *testing.T, username, email, password string) *users.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u := &users.User{
		Username:     username,
		Email:        email,
		Name:         "Test " + username,
		PasswordHash: string(hash),
	}
	if _, err := f.userRepo.Create(context.Background(), u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return u
}

func (f *fixture) do(t *testing.T, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	var parsed map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("invalid json response %q: %v", rec.Body.String(), err)
	}
	return rec, parsed
}

func authHeader(token string) map[string]string {
	return map[string]string{common.AuthorizationHeaderName: common.SessionTokenScheme + " " + token}
}

// --- tests ---

func TestRegister(t *testing.T) {
	f := newFixture(t)

	_, resp := f.do(t, http.MethodPost, "/register", map[string]string{
		"username": "jdoe", "email": "jdoe@example.com", "name": "John Doe", "password": "secret",
	}, nil)

	if resp["success"] != true {
		t.Fatalf("expected success, got %v", resp)
	}
	if resp["msg"] != "Success created new user." {
		t.Fatalf("unexpected msg: %v", resp["msg"])
	}
	if _, ok := f.userRepo.users["jdoe"]; !ok {
		t.Fatalf("user was not created")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "jdoe", "jdoe@example.com", "secret")

	_, resp := f.do(t, http.MethodPost, "/register", map[string]string{
		"username": "jdoe", "email": "other@example.com", "name": "John Doe", "password": "secret",
	}, nil)

	if resp["success"] != false || resp["msg"] != "Username already exists." {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	f := newFixture(t)

	_, resp := f.do(t, http.MethodPost, "/register", map[string]string{
		"username": "jdoe",
	}, nil)

	if resp["success"] != false || resp["msg"] != "Please pass name and password." {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "jdoe", "jdoe@example.com", "secret")

	_, resp := f.do(t, http.MethodPost, "/login", map[string]string{
		"username": "jdoe", "password": "secret",
	}, nil)

	if resp["success"] != true {
		t.Fatalf("expected success, got %v", resp)
	}
	token, _ := resp["token"].(string)
	if !strings.HasPrefix(token, "JWT ") {
		t.Fatalf("expected JWT-prefixed token, got %q", token)
	}
	username, err := auth.GetUsernameFromToken(strings.TrimPrefix(token, "JWT "), []byte(f.cfg.SecretKey))
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if username != "jdoe" {
		t.Fatalf("expected jdoe in token, got %q", username)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user object, got %v", resp["user"])
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatalf("password hash leaked in response")
	}
	if _, leaked := user["PasswordHash"]; leaked {
		t.Fatalf("password hash leaked in response")
	}
}

func TestLoginUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, resp := f.do(t, http.MethodPost, "/login", map[string]string{
		"username": "ghost", "password": "secret",
	}, nil)

	if resp["success"] != false || resp["msg"] != "Authentication failed. User not found." {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "jdoe", "jdoe@example.com", "secret")

	_, resp := f.do(t, http.MethodPost, "/login", map[string]string{
		"username": "jdoe", "password": "wrong",
	}, nil)

	if resp["success"] != false || resp["msg"] != "Authentication failed. Wrong password." {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestCurrentUser(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "jdoe", "jdoe@example.com", "secret")
	token, err := auth.GenerateToken("jdoe", []byte(f.cfg.SecretKey), time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, resp := f.do(t, http.MethodGet, "/user", nil, authHeader(token))

	if resp["success"] != true {
		t.Fatalf("expected success, got %v", resp)
	}
	user := resp["user"].(map[string]any)
	if user["username"] != "jdoe" {
		t.Fatalf("unexpected user: %v", user)
	}
}

func TestCurrentUserNoToken(t *testing.T) {
	f := newFixture(t)

	rec, resp := f.do(t, http.MethodGet, "/user", nil, nil)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if resp["msg"] != "No token provided." {
		t.Fatalf("unexpected msg: %v", resp["msg"])
	}
}

func TestCurrentUserInvalidToken(t *testing.T) {
	f := newFixture(t)

	rec, resp := f.do(t, http.MethodGet, "/user", nil, authHeader("garbage"))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if resp["success"] != false {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestForget(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "jdoe", "jdoe@example.com", "secret")

	_, resp := f.do(t, http.MethodPost, "/forget", map[string]string{
		"email": "jdoe@example.com",
	}, map[string]string{"Referer": "http://app.example"})

	if resp["success"] != true {
		t.Fatalf("expected success, got %v", resp)
	}
	want := "An e-mail has been sent to jdoe@example.com with further instructions."
	if resp["msg"] != want {
		t.Fatalf("unexpected msg: %v", resp["msg"])
	}
	if f.mailer.sent != 1 {
		t.Fatalf("expected 1 mail, sent %d", f.mailer.sent)
	}
	if f.userRepo.users["jdoe"].ResetPasswordToken == "" {
		t.Fatalf("reset token was not persisted")
	}
}

func TestForgetUnknownEmail(t *testing.T) {
	f := newFixture(t)

	_, resp := f.do(t, http.MethodPost, "/forget", map[string]string{
		"email": "ghost@example.com",
	}, nil)

	if resp["success"] != false || resp["msg"] != "Username is not found." {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestForgetMailFailureKeepsToken(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "jdoe", "jdoe@example.com", "secret")
	f.mailer.sendErr = errors.New("smtp down")

	_, resp := f.do(t, http.MethodPost, "/forget", map[string]string{
		"email": "jdoe@example.com",
	}, nil)

	if resp["success"] != false || resp["msg"] != "Unable to send reset e-mail." {
		t.Fatalf("unexpected response: %v", resp)
	}
	if f.userRepo.users["jdoe"].ResetPasswordToken == "" {
		t.Fatalf("token should stay persisted when the mail fails")
	}
}

func TestResetRoundTrip(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "jdoe", "jdoe@example.com", "secret")
	expires := time.Now().Add(time.Hour)
	u.ResetPasswordToken = "aabbccdd"
	u.ResetPasswordExpires = &expires

	_, resp := f.do(t, http.MethodPost, "/reset", map[string]string{
		"token": "aabbccdd", "password": "newpass",
	}, nil)

	if resp["success"] != true || resp["msg"] != "Password has been reset." {
		t.Fatalf("unexpected response: %v", resp)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("newpass")); err != nil {
		t.Fatalf("new password does not verify: %v", err)
	}
	if u.ResetPasswordToken != "" {
		t.Fatalf("token should be cleared after use")
	}

	// Replaying the token must fail.
	_, resp = f.do(t, http.MethodPost, "/reset", map[string]string{
		"token": "aabbccdd", "password": "again",
	}, nil)
	if resp["success"] != false || resp["msg"] != "Password reset token is invalid or has expired." {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestResetExpiredToken(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "jdoe", "jdoe@example.com", "secret")
	expires := time.Now().Add(-time.Minute)
	u.ResetPasswordToken = "aabbccdd"
	u.ResetPasswordExpires = &expires

	_, resp := f.do(t, http.MethodPost, "/reset", map[string]string{
		"token": "aabbccdd", "password": "newpass",
	}, nil)

	if resp["success"] != false || resp["msg"] != "Password reset token is invalid or has expired." {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestSubmitArticle(t *testing.T) {
	f := newFixture(t)

	_, resp := f.do(t, http.MethodPost, "/submitArticle", map[string]any{
		"title":          "On Testing",
		"author":         "John Doe",
		"authorUsername": "jdoe",
		"updateDate":     time.Now().Format(time.RFC3339),
		"text":           "body",
	}, authHeader("anything"))

	if resp["success"] != true || resp["msg"] != "Success created a new article" {
		t.Fatalf("unexpected response: %v", resp)
	}
	if len(f.artRepo.articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(f.artRepo.articles))
	}
	if f.artRepo.articles[0].Approved {
		t.Fatalf("new article must start unapproved")
	}
}

func TestSubmitArticleNoToken(t *testing.T) {
	f := newFixture(t)

	rec, resp := f.do(t, http.MethodPost, "/submitArticle", map[string]any{
		"title": "On Testing",
	}, nil)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if resp["msg"] != "No token provided." {
		t.Fatalf("unexpected msg: %v", resp["msg"])
	}
}

func TestSubmitArticleValidationMessages(t *testing.T) {
	f := newFixture(t)

	full := func() map[string]any {
		return map[string]any{
			"title":          "On Testing",
			"author":         "John Doe",
			"authorUsername": "jdoe",
			"updateDate":     time.Now().Format(time.RFC3339),
			"text":           "body",
		}
	}

	tests := []struct {
		missing string
		want    string
	}{
		{"title", "Article missing a title"},
		{"author", "Article missing an author"},
		{"authorUsername", "Article missing an author username"},
		{"updateDate", "Article missing a date"},
		{"text", "Article missing the article itself"},
	}

	for _, tc := range tests {
		body := full()
		delete(body, tc.missing)
		_, resp := f.do(t, http.MethodPost, "/submitArticle", body, authHeader("anything"))
		if resp["success"] != false || resp["msg"] != tc.want {
			t.Fatalf("missing %s: unexpected response %v", tc.missing, resp)
		}
	}
}

func TestApproveArticle(t *testing.T) {
	f := newFixture(t)
	f.artRepo.articles = append(f.artRepo.articles, &articles.Article{
		ID: "1", Title: "On Testing", AuthorUsername: "jdoe", UpdateDate: time.Now(),
	})

	_, resp := f.do(t, http.MethodPost, "/approveArticle", map[string]string{
		"title": "On Testing", "authorUsername": "jdoe",
	}, authHeader("anything"))

	if resp["success"] != true {
		t.Fatalf("expected success, got %v", resp)
	}
	article := resp["article"].(map[string]any)
	if article["approved"] != true {
		t.Fatalf("article not approved in response: %v", article)
	}
}

func TestApproveArticleNotFound(t *testing.T) {
	f := newFixture(t)

	_, resp := f.do(t, http.MethodPost, "/approveArticle", map[string]string{
		"title": "Missing", "authorUsername": "jdoe",
	}, authHeader("anything"))

	if resp["success"] != false || resp["msg"] != "Article not found." {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestVerifyUser(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "jdoe", "jdoe@example.com", "secret")

	_, resp := f.do(t, http.MethodPost, "/verifyUser", map[string]string{
		"username": "jdoe",
	}, authHeader("anything"))

	if resp["success"] != true {
		t.Fatalf("expected success, got %v", resp)
	}
	if !f.userRepo.users["jdoe"].Verified {
		t.Fatalf("user not marked verified")
	}
	if f.mailer.sent != 1 {
		t.Fatalf("expected verification mail, sent %d", f.mailer.sent)
	}
}

func TestArticleListings(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.artRepo.articles = []*articles.Article{
		{ID: "1", Title: "A", AuthorUsername: "jdoe", UpdateDate: now, Approved: true},
		{ID: "2", Title: "B", AuthorUsername: "asmith", UpdateDate: now},
	}

	_, resp := f.do(t, http.MethodGet, "/articles", nil, nil)
	if list := resp["articles"].([]any); len(list) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(list))
	}

	_, resp = f.do(t, http.MethodPost, "/articlesByUser", map[string]string{"username": "jdoe"}, nil)
	if list := resp["articles"].([]any); len(list) != 1 {
		t.Fatalf("expected 1 article for jdoe, got %d", len(list))
	}

	_, resp = f.do(t, http.MethodGet, "/pendingApproval", nil, nil)
	list := resp["articles"].([]any)
	if len(list) != 1 {
		t.Fatalf("expected 1 pending article, got %d", len(list))
	}
	if list[0].(map[string]any)["title"] != "B" {
		t.Fatalf("unexpected pending article: %v", list[0])
	}
}

func TestPendingVerification(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "jdoe", "jdoe@example.com", "secret")
	verified := f.addUser(t, "asmith", "asmith@example.com", "secret")
	verified.Verified = true

	_, resp := f.do(t, http.MethodGet, "/pendingVerification", nil, nil)

	list := resp["users"].([]any)
	if len(list) != 1 {
		t.Fatalf("expected 1 pending user, got %d", len(list))
	}
	if list[0].(map[string]any)["username"] != "jdoe" {
		t.Fatalf("unexpected pending user: %v", list[0])
	}
}

func TestProfileByUser(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "jdoe", "jdoe@example.com", "secret")

	_, resp := f.do(t, http.MethodPost, "/profileByUser", map[string]string{"username": "jdoe"}, nil)
	if resp["success"] != true {
		t.Fatalf("expected success, got %v", resp)
	}

	_, resp = f.do(t, http.MethodPost, "/profileByUser", map[string]string{"username": "ghost"}, nil)
	if resp["success"] != false || resp["msg"] != "User not found." {
		t.Fatalf("unexpected response: %v", resp)
	}
}
