package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("reader@example.com"))
	assert.True(t, ValidEmail("a.b+c@sub.domain.io"))
	assert.False(t, ValidEmail("not-an-email"))
	assert.False(t, ValidEmail("missing@tld"))
	assert.False(t, ValidEmail("@example.com"))
	assert.False(t, ValidEmail("spaces in@example.com"))
}

func TestLoginForm_Validate(t *testing.T) {
	assert.Empty(t, LoginForm{Email: "reader@example.com", Password: "pw"}.Validate())

	errs := LoginForm{}.Validate()
	assert.Equal(t, "Email is required", errs["email"])
	assert.Equal(t, "Password is required", errs["password"])

	errs = LoginForm{Email: "nope", Password: "pw"}.Validate()
	assert.Equal(t, "Enter a valid email address", errs["email"])
	assert.NotContains(t, errs, "password")
}

func TestRegisterForm_Validate(t *testing.T) {
	valid := RegisterForm{Email: "new@example.com", Password: "secret1", Confirm: "secret1"}
	assert.Empty(t, valid.Validate())

	errs := RegisterForm{Email: "new@example.com", Password: "short", Confirm: "short"}.Validate()
	assert.Equal(t, "Password must be at least 6 characters", errs["password"])
	// Confirm mismatch is not reported while the password itself is invalid.
	assert.NotContains(t, errs, "confirm")

	errs = RegisterForm{Email: "new@example.com", Password: "secret1", Confirm: "secret2"}.Validate()
	assert.Equal(t, "Passwords do not match", errs["confirm"])
}

func TestRecoveryForm_Validate(t *testing.T) {
	assert.Empty(t, RecoveryForm{Email: "reader@example.com"}.Validate())
	assert.Equal(t, "Email is required", RecoveryForm{}.Validate()["email"])
	assert.Equal(t, "Enter a valid email address", RecoveryForm{Email: "x"}.Validate()["email"])
}
