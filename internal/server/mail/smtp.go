package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// SMTPMailer delivers messages through an SMTP relay using go-mail.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
}

func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password}
}

func (m *SMTPMailer) client() (*gomail.Client, error) {
	opts := []gomail.Option{gomail.WithPort(m.port)}
	if m.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.username),
			gomail.WithPassword(m.password),
		)
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}
	return gomail.NewClient(m.host, opts...)
}

func (m *SMTPMailer) Send(ctx context.Context, to, from, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	c, err := m.client()
	if err != nil {
		return fmt.Errorf("smtp client error: %w", err)
	}

	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send error: %w", err)
	}
	return nil
}
