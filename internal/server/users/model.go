package users

import "time"

// User is the identity and authentication record for an author account.
//
// ResetPasswordToken is non-empty only while a password reset is pending;
// a successful reset clears both the token and its expiry in the same update.
type User struct {
	ID                   string
	Username             string
	Email                string
	PasswordHash         string
	Name                 string
	LastLogin            *time.Time
	ResetPasswordToken   string
	ResetPasswordExpires *time.Time
	Verified             bool
	PendingVerification  bool
	Administrator        bool
}
