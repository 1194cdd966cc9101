// Package mail is the notification gateway for transactional email:
// password-reset links and author-verification notices. Callers persist
// their state change first; a failed send never rolls anything back.
package mail

import "context"

// Mailer sends a single plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, from, subject, body string) error
}
