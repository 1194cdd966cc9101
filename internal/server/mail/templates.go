package mail

import "fmt"

// ResetMessage builds the password-reset email. The link embeds the opaque
// reset token under the referring frontend, e.g.
// https://example.com/#/reset/<token>.
func ResetMessage(referrer, token string) (subject, body string) {
	subject = "Password Reset"
	body = "You are receiving this because you (or someone else) have requested the reset of the password for your account.\n\n" +
		"Please click on the following link, or paste this into your browser to complete the process:\n\n" +
		referrer + "/#/reset/" + token + "\n\n" +
		"If you did not request this, please ignore this email and your password will remain unchanged.\n"
	return subject, body
}

// VerifiedAuthorMessage builds the notice confirming the named user is now a
// verified author.
func VerifiedAuthorMessage(name string) (subject, body string) {
	subject = "Author Verification"
	body = fmt.Sprintf("Congratulations %s,\n\nYour account has been reviewed and you are now a verified author.\n", name)
	return subject, body
}
