package auth

import "github.com/ralexclark/ballabove/internal/common"

// resetTokenBytes is the entropy of a reset token. 20 random bytes give 160
// bits, hex-encoded into a 40-character opaque string.
const resetTokenBytes = 20

// NewResetToken generates a cryptographically random password-reset token.
// The token itself is stateless; the caller persists it on the user record
// together with its expiry timestamp.
func NewResetToken() (string, error) {
	return common.MakeRandHexString(resetTokenBytes)
}
