package utils

import "fmt"

type AppError struct {
	Code    string
	Message string
	Status  int   // HTTP status from the remote API, when the origin is a transport failure
	Origin  error // Original error that caused this error, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

// Standard error codes for the application
const (
	// Resource errors
	ErrNotFound     = "NOT_FOUND"
	ErrInvalidInput = "INVALID_INPUT"

	// Transport errors: the remote API answered non-2xx or did not answer
	ErrTransport = "TRANSPORT_ERROR"

	// Authorization gap: a mutating action was attempted without a session.
	// Not a failure; callers turn this into the login prompt.
	ErrLoginRequired = "LOGIN_REQUIRED"
	ErrForbidden     = "FORBIDDEN"

	// Identity-provider categories
	ErrInvalidCredentials = "INVALID_CREDENTIALS"
	ErrDuplicateAccount   = "DUPLICATE_ACCOUNT"
	ErrMalformedAddress   = "MALFORMED_ADDRESS"
	ErrWeakCredential     = "WEAK_CREDENTIAL"
	ErrProvider           = "PROVIDER_ERROR"

	// Actor communication errors
	ErrActorTimeout = "ACTOR_TIMEOUT"
)

// Error creation helper functions
func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

// NewTransportError wraps a non-2xx or failed HTTP exchange with the remote
// API. Status is zero when the request never got a response.
func NewTransportError(status int, message string, originalErr error) *AppError {
	return &AppError{
		Code:    ErrTransport,
		Message: message,
		Status:  status,
		Origin:  originalErr,
	}
}

func NewLoginRequiredError(action string) *AppError {
	return &AppError{
		Code:    ErrLoginRequired,
		Message: "Sign in to " + action,
	}
}

func NewActorTimeoutError(actorName string) *AppError {
	return &AppError{
		Code:    ErrActorTimeout,
		Message: "Actor communication timeout: " + actorName,
	}
}

// Helper method to check if an error is of a specific type
func IsErrorCode(err error, code string) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound:
		return 404
	case ErrInvalidInput, ErrMalformedAddress, ErrWeakCredential:
		return 400
	case ErrLoginRequired, ErrInvalidCredentials:
		return 401
	case ErrForbidden:
		return 403
	case ErrDuplicateAccount:
		return 409
	case ErrActorTimeout:
		return 504
	case ErrTransport, ErrProvider:
		return 502
	default:
		return 500
	}
}

// UserMessage renders an error the way the UI surfaces it: transport errors
// get a generic retry-suggesting line, everything else keeps its message.
func UserMessage(err error) string {
	appErr, ok := err.(*AppError)
	if !ok {
		return "Something went wrong. Please try again."
	}
	if appErr.Code == ErrTransport {
		if appErr.Status > 0 {
			return fmt.Sprintf("The service is unavailable right now (status %d). Please try again.", appErr.Status)
		}
		return "The service is unreachable right now. Please try again."
	}
	return appErr.Message
}
