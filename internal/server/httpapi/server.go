package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ralexclark/ballabove/internal/logging"
	"github.com/ralexclark/ballabove/internal/server/articles"
	"github.com/ralexclark/ballabove/internal/server/config"
	"github.com/ralexclark/ballabove/internal/server/users"
)

// Server exposes the publishing workflow over HTTP with JSON bodies.
type Server struct {
	addr         string
	secretKey    []byte
	resetBaseURL string
	users        *users.Service
	articles     *articles.Service
	logger       logging.Logger
}

func NewServer(cfg *config.Config, us *users.Service, as *articles.Service, logger logging.Logger) *Server {
	return &Server{
		addr:         cfg.EndpointAddr,
		secretKey:    []byte(cfg.SecretKey),
		resetBaseURL: cfg.ResetBaseURL,
		users:        us,
		articles:     as,
		logger:       logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Post("/forget", s.handleForget)
	r.Post("/reset", s.handleReset)
	r.Post("/profileByUser", s.handleProfileByUser)
	r.Get("/articles", s.handleArticles)
	r.Post("/articlesByUser", s.handleArticlesByUser)
	r.Get("/pendingApproval", s.handlePendingApproval)
	r.Get("/pendingVerification", s.handlePendingVerification)

	r.Group(func(r chi.Router) {
		r.Use(s.requireValidToken)
		r.Get("/user", s.handleCurrentUser)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireTokenPresence)
		r.Post("/submitArticle", s.handleSubmitArticle)
		r.Post("/approveArticle", s.handleApproveArticle)
		r.Post("/verifyUser", s.handleVerifyUser)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server starting", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
