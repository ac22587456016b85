package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journalite/internal/models"
)

var testSession = &models.Session{
	UserID:      "user-1",
	DisplayName: "reader",
	Email:       "reader@example.com",
}

func TestSessionManager_RoundTrip(t *testing.T) {
	manager := NewSessionManager("test-secret", time.Hour, false)

	token, err := manager.GenerateToken(testSession)
	require.NoError(t, err)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "reader", claims.DisplayName)
	assert.Equal(t, "reader@example.com", claims.Email)
}

func TestSessionManager_RejectsWrongSecret(t *testing.T) {
	manager := NewSessionManager("test-secret", time.Hour, false)
	other := NewSessionManager("other-secret", time.Hour, false)

	token, err := manager.GenerateToken(testSession)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestSessionManager_RejectsExpiredToken(t *testing.T) {
	manager := NewSessionManager("test-secret", -time.Minute, false)

	token, err := manager.GenerateToken(testSession)
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.Error(t, err)
}

func TestSessionManager_CookieRoundTrip(t *testing.T) {
	manager := NewSessionManager("test-secret", time.Hour, false)

	recorder := httptest.NewRecorder()
	require.NoError(t, manager.SetSessionCookie(recorder, testSession))

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(cookies[0])

	session := manager.SessionFromRequest(request)
	require.NotNil(t, session)
	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, "reader", session.DisplayName)
}

func TestSessionManager_ClearSessionCookie(t *testing.T) {
	manager := NewSessionManager("test-secret", time.Hour, false)

	recorder := httptest.NewRecorder()
	manager.ClearSessionCookie(recorder)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestWithSession_AttachesSessionToContext(t *testing.T) {
	manager := NewSessionManager("test-secret", time.Hour, false)

	var got *models.Session
	handler := manager.WithSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetSessionFromContext(r.Context())
	}))

	// Anonymous request: session stays nil, request still served.
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Nil(t, got)

	recorder := httptest.NewRecorder()
	require.NoError(t, manager.SetSessionCookie(recorder, testSession))
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(recorder.Result().Cookies()[0])

	handler.ServeHTTP(httptest.NewRecorder(), request)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)
}
