package articles

import "time"

// Article is a submitted piece of content plus its editorial state.
// Articles enter the store unapproved and become visible as published
// content once approved; approval is not reverted.
type Article struct {
	ID             string
	Title          string
	Author         string // display name
	AuthorUsername string // references users.username
	UpdateDate     time.Time
	Text           string
	Approved       bool
}
