package models

import "strings"

// AnonymousName is shown for readers without a session.
const AnonymousName = "Reader"

// Session is the locally observed authenticated-user state derived from the
// identity provider. A nil *Session means unauthenticated. Persistence is the
// provider's job; this value only lives as long as the process observes it.
type Session struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
}

// DisplayNameFor picks the name to show for a user: explicit display name,
// else the local part of the email, else the anonymous placeholder.
func DisplayNameFor(name, email string) string {
	if name != "" {
		return name
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return AnonymousName
}
