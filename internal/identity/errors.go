package identity

import (
	"errors"
	"net/http"
	"strings"

	kratos "github.com/ory/kratos-client-go"

	"journalite/internal/utils"
)

// mapProviderError folds the provider's rich flow errors into the small set
// of categories the UI can act on. Anything unrecognized becomes a generic
// provider error so raw flow internals never reach a reader.
func mapProviderError(err error, resp *http.Response, action string) *utils.AppError {
	body := ""
	var openAPIErr *kratos.GenericOpenAPIError
	if errors.As(err, &openAPIErr) {
		body = strings.ToLower(string(openAPIErr.Body()))
	}

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	switch {
	case strings.Contains(body, "credentials are invalid") ||
		strings.Contains(body, "4000006"):
		return utils.NewAppError(utils.ErrInvalidCredentials,
			"Incorrect email or password", err)

	case status == http.StatusConflict ||
		strings.Contains(body, "exists already") ||
		strings.Contains(body, "already in use"):
		return utils.NewAppError(utils.ErrDuplicateAccount,
			"An account with this email already exists", err)

	case strings.Contains(body, "valid \"email\"") ||
		strings.Contains(body, "is not valid \"email\""):
		return utils.NewAppError(utils.ErrMalformedAddress,
			"That does not look like an email address", err)

	case strings.Contains(body, "password") &&
		(strings.Contains(body, "too short") ||
			strings.Contains(body, "breaches") ||
			strings.Contains(body, "too similar") ||
			strings.Contains(body, "length must be")):
		return utils.NewAppError(utils.ErrWeakCredential,
			"Please choose a stronger password", err)

	case status == http.StatusGone:
		// Expired flow; the caller simply retries with a fresh one.
		return utils.NewAppError(utils.ErrProvider,
			"The request expired, please try again", err)
	}

	return utils.NewAppError(utils.ErrProvider,
		"Could not "+action+" right now, please try again", err)
}
