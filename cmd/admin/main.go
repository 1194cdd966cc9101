// Command admin is the operator tool for account maintenance: creating
// administrator accounts, granting the administrator flag, and flagging
// users as awaiting author verification.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/ralexclark/ballabove/internal/common"
	"github.com/ralexclark/ballabove/internal/server/config"
	"github.com/ralexclark/ballabove/internal/server/hashing"
	"github.com/ralexclark/ballabove/internal/server/mail"
	"github.com/ralexclark/ballabove/internal/server/store"
	"github.com/ralexclark/ballabove/internal/server/users"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run() error {

	var (
		createAdmin = flag.Bool("create", false, "create an administrator account (-username, -email, -name)")
		grantAdmin  = flag.String("grant", "", "grant administrator to an existing user")
		markPending = flag.String("pending", "", "flag a user as awaiting author verification")
		username    = flag.String("username", "", "account username")
		email       = flag.String("email", "", "account e-mail")
		name        = flag.String("name", "", "account display name")
	)
	flag.Parse()

	cfg := config.LoadConfig()

	ctx := context.Background()

	rm, err := store.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	mailer := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	svc := users.NewService(rm.Users(), hashing.NewBcryptHasher(cfg.BcryptCost), mailer, cfg)

	switch {
	case *createAdmin:
		return doCreateAdmin(ctx, svc, *username, *email, *name)
	case *grantAdmin != "":
		return doGrantAdmin(ctx, svc, *grantAdmin)
	case *markPending != "":
		return doMarkPending(ctx, svc, *markPending)
	default:
		flag.Usage()
		return fmt.Errorf("one of -create, -grant or -pending is required")
	}
}

func doCreateAdmin(ctx context.Context, svc *users.Service, username, email, name string) error {
	if username == "" || email == "" || name == "" {
		return fmt.Errorf("-username, -email and -name are required")
	}

	fmt.Println("Enter password")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := svc.CreateAdministrator(ctx, username, email, name, string(password))
	if err != nil {
		return err
	}

	fmt.Printf("created administrator %s (%s)\n", user.Username, user.Email)
	return nil
}

func doGrantAdmin(ctx context.Context, svc *users.Service, username string) error {
	user, err := svc.GrantAdministrator(ctx, username)
	if err != nil {
		return err
	}

	fmt.Printf("user %s is now an administrator\n", user.Username)
	return nil
}

func doMarkPending(ctx context.Context, svc *users.Service, username string) error {
	user, err := svc.MarkPendingVerification(ctx, username)
	if err != nil {
		return err
	}

	fmt.Printf("user %s is now awaiting verification\n", user.Username)
	return nil
}
