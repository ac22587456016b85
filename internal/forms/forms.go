package forms

import (
	"regexp"
	"strings"
)

// Each auth form validates with one pure function returning a map of field
// name to error message. An empty map means the form is acceptable; the
// handlers re-render the page with the map otherwise.

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address. Final say
// belongs to the identity provider; this only catches obvious typos
// before a network round trip.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// LoginForm is the sign-in page's input.
type LoginForm struct {
	Email    string
	Password string
}

func (f LoginForm) Validate() map[string]string {
	errs := make(map[string]string)
	email := strings.TrimSpace(f.Email)
	switch {
	case email == "":
		errs["email"] = "Email is required"
	case !ValidEmail(email):
		errs["email"] = "Enter a valid email address"
	}
	if f.Password == "" {
		errs["password"] = "Password is required"
	}
	return errs
}

// RegisterForm is the account creation page's input.
type RegisterForm struct {
	Email    string
	Password string
	Confirm  string
}

func (f RegisterForm) Validate() map[string]string {
	errs := make(map[string]string)
	email := strings.TrimSpace(f.Email)
	switch {
	case email == "":
		errs["email"] = "Email is required"
	case !ValidEmail(email):
		errs["email"] = "Enter a valid email address"
	}
	switch {
	case f.Password == "":
		errs["password"] = "Password is required"
	case len(f.Password) < minPasswordLength:
		errs["password"] = "Password must be at least 6 characters"
	}
	if errs["password"] == "" && f.Confirm != f.Password {
		errs["confirm"] = "Passwords do not match"
	}
	return errs
}

// RecoveryForm is the forgot-password page's input.
type RecoveryForm struct {
	Email string
}

func (f RecoveryForm) Validate() map[string]string {
	errs := make(map[string]string)
	email := strings.TrimSpace(f.Email)
	switch {
	case email == "":
		errs["email"] = "Email is required"
	case !ValidEmail(email):
		errs["email"] = "Enter a valid email address"
	}
	return errs
}
