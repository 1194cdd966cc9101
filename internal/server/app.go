// Package server initializes and runs the publishing backend.
// It wires the database repositories, the mailer, and the domain services,
// starts the HTTP API, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ralexclark/ballabove/internal/logging"
	"github.com/ralexclark/ballabove/internal/server/articles"
	"github.com/ralexclark/ballabove/internal/server/config"
	"github.com/ralexclark/ballabove/internal/server/hashing"
	"github.com/ralexclark/ballabove/internal/server/httpapi"
	"github.com/ralexclark/ballabove/internal/server/mail"
	"github.com/ralexclark/ballabove/internal/server/store"
	"github.com/ralexclark/ballabove/internal/server/users"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	userService    *users.Service
	articleService *articles.Service
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	rm, err := store.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	hasher := hashing.NewBcryptHasher(cfg.BcryptCost)
	mailer := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)

	us := users.NewService(rm.Users(), hasher, mailer, cfg)
	as := articles.NewService(rm.Articles())

	return &App{config: cfg, logger: logger, userService: us, articleService: as}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config, app.userService, app.articleService, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

}
