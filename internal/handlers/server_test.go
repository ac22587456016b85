package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journalite/internal/engine"
	"journalite/internal/middleware"
	"journalite/internal/models"
	"journalite/internal/utils"
	"journalite/internal/views"
)

// fakeBackend implements engine.BackendAPI and FeedAPI in memory.
type fakeBackend struct {
	mu       sync.Mutex
	article  *models.Article
	comments []*models.ArticleComment
	calls    map[string]int
	nextID   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		article: &models.Article{
			ID:       "a1",
			Slug:     "go-after-midnight",
			Title:    "Go After Midnight",
			AuthorID: "author-1",
			Content: []models.Paragraph{
				{ParagraphID: "p1", Text: "First paragraph."},
				{ParagraphID: "p2", Text: "Second paragraph."},
			},
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		},
		calls: make(map[string]int),
	}
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) mutationCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for name, n := range f.calls {
		if name != "GetArticle" && name != "GetComments" && name != "ListArticles" {
			total += n
		}
	}
	return total
}

func (f *fakeBackend) GetArticle(_ context.Context, slug string) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["GetArticle"]++
	if slug != f.article.Slug {
		return nil, utils.NewTransportError(404, "article not found", nil)
	}
	return f.article, nil
}

func (f *fakeBackend) ListArticles(_ context.Context) ([]models.ArticleSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ListArticles"]++
	return []models.ArticleSummary{
		{
			Slug:       "go-after-midnight",
			Title:      "Go After Midnight",
			AuthorID:   "author-1",
			AuthorName: "Ada Writer",
			Excerpt:    "First paragraph.",
			Tags:       []string{"engineering", "night-shift"},
			CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		},
		{
			Slug:       "quiet-refactors",
			Title:      "Quiet Refactors",
			AuthorID:   "author-2",
			AuthorName: "Sam Editor",
			Excerpt:    "Change nothing visible.",
			Tags:       []string{"engineering"},
			CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

func (f *fakeBackend) GetComments(_ context.Context, slug string) ([]*models.ArticleComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["GetComments"]++
	out := make([]*models.ArticleComment, len(f.comments))
	copy(out, f.comments)
	return out, nil
}

func (f *fakeBackend) PostComment(_ context.Context, slug, userID, content string) (*models.ArticleComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["PostComment"]++
	f.nextID++
	c := &models.ArticleComment{
		CommentID: fmt.Sprintf("c%d", f.nextID),
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Likes:     []string{},
		Replies:   []models.CommentReply{},
	}
	f.comments = append([]*models.ArticleComment{c}, f.comments...)
	return c, nil
}

func (f *fakeBackend) PostReply(_ context.Context, slug, commentID, userID, content string) (*models.CommentReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["PostReply"]++
	f.nextID++
	r := models.CommentReply{
		ReplyID:   fmt.Sprintf("r%d", f.nextID),
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Likes:     []string{},
	}
	for _, c := range f.comments {
		if c.CommentID == commentID {
			c.Replies = append(c.Replies, r)
		}
	}
	return &r, nil
}

func (f *fakeBackend) LikeComment(_ context.Context, slug, commentID, userID string) (*models.LikeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["LikeComment"]++
	return &models.LikeResult{Success: true, Action: "liked", Likes: []string{userID}, Count: 1}, nil
}

func (f *fakeBackend) LikeReply(_ context.Context, slug, commentID, replyID, userID string) (*models.LikeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["LikeReply"]++
	return &models.LikeResult{Success: true, Action: "liked", Likes: []string{userID}, Count: 1}, nil
}

func (f *fakeBackend) DeleteComment(_ context.Context, slug, commentID, userID string) (*models.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["DeleteComment"]++
	return &models.StatusResponse{Success: true, Message: "comment deleted"}, nil
}

func (f *fakeBackend) DeleteReply(_ context.Context, slug, commentID, replyID, userID string) (*models.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["DeleteReply"]++
	return &models.StatusResponse{Success: true, Message: "reply deleted"}, nil
}

// fakeIdentity implements IdentityService without a provider.
type fakeIdentity struct {
	mu          sync.Mutex
	signInErr   error
	signUpErr   error
	resetErr    error
	resetCalled bool
	signedOut   bool
}

func (f *fakeIdentity) SignIn(_ context.Context, email, password string) (*models.Session, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &models.Session{UserID: "u1", DisplayName: models.DisplayNameFor("", email), Email: email}, nil
}

func (f *fakeIdentity) SignUp(_ context.Context, email, password string) (*models.Session, error) {
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &models.Session{UserID: "u2", DisplayName: models.DisplayNameFor("", email), Email: email}, nil
}

func (f *fakeIdentity) SignOut(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signedOut = true
	return nil
}

func (f *fakeIdentity) SendPasswordReset(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalled = true
	return f.resetErr
}

func (f *fakeIdentity) FederatedSignInURL(_ context.Context, returnTo string) (string, error) {
	return "http://kratos.test/self-service/login?flow=browser-1", nil
}

type noSessions struct{}

func (noSessions) Subscribe(fn func(*models.Session)) func() {
	fn(nil)
	return func() {}
}

type testEnv struct {
	server   *Server
	backend  *fakeBackend
	identity *fakeIdentity
	handler  http.Handler
	eng      *engine.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	backend := newFakeBackend()
	ident := &fakeIdentity{}
	system := actor.NewActorSystem()
	eng := engine.NewEngine(system, backend, noSessions{}, utils.NewMetricsCollector(), zerolog.Nop(), 5*time.Second)
	t.Cleanup(eng.Shutdown)

	renderer, err := views.NewRenderer()
	require.NoError(t, err)

	sessions := middleware.NewSessionManager("test-secret", time.Hour, false)
	server := NewServer(eng, backend, ident, sessions, renderer, utils.NewMetricsCollector(), zerolog.Nop())
	return &testEnv{
		server:   server,
		backend:  backend,
		identity: ident,
		handler:  server.Routes(),
		eng:      eng,
	}
}

func (e *testEnv) do(t *testing.T, method, target string, form map[string]string, signedIn bool) *httptest.ResponseRecorder {
	t.Helper()
	values := url.Values{}
	for k, v := range form {
		values.Set(k, v)
	}
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if signedIn {
		recorder := httptest.NewRecorder()
		require.NoError(t, e.server.Sessions.SetSessionCookie(recorder, &models.Session{
			UserID:      "u1",
			DisplayName: "reader",
			Email:       "reader@example.com",
		}))
		req.AddCookie(recorder.Result().Cookies()[0])
	}
	recorder := httptest.NewRecorder()
	e.handler.ServeHTTP(recorder, req)
	return recorder
}

func TestHandleFeed_RendersFeaturedAndTags(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/", nil, false)

	require.Equal(t, http.StatusOK, resp.Code)
	html := resp.Body.String()
	assert.Contains(t, html, "Go After Midnight")
	assert.Contains(t, html, "Quiet Refactors")
	assert.Contains(t, html, "Ada Writer")
	assert.Contains(t, html, "night-shift")
	assert.Contains(t, html, "Sign in")
}

func TestHandleArticle_RendersContentAndThread(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/", nil, false) // learn author names

	resp := env.do(t, http.MethodGet, "/articles/go-after-midnight", nil, false)

	require.Equal(t, http.StatusOK, resp.Code)
	html := resp.Body.String()
	assert.Contains(t, html, "First paragraph.")
	assert.Contains(t, html, "Ada Writer")
	assert.Contains(t, html, "No responses yet")
	assert.Contains(t, html, "Sign in</a> to join the conversation")
}

func TestHandleArticle_UnknownSlugIs404(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/articles/vanished", nil, false)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "Story not found")
}

func TestHandleArticle_UnknownAuthorFallback(t *testing.T) {
	env := newTestEnv(t)
	// No feed visit first, so the author map is empty.
	resp := env.do(t, http.MethodGet, "/articles/go-after-midnight", nil, false)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Unknown Author")
}

func TestSubmitComment_AnonymousRedirectsToLoginWithoutNetwork(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/articles/go-after-midnight/comments",
		map[string]string{"content": "drive-by"}, false)

	assert.Equal(t, http.StatusSeeOther, resp.Code)
	assert.Equal(t, "/login", resp.Header().Get("Location"))
	assert.Zero(t, env.backend.mutationCalls())
}

func TestSubmitComment_SignedInPostsAndRedirectsBack(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/articles/go-after-midnight/comments",
		map[string]string{"content": "lovely piece"}, true)

	assert.Equal(t, http.StatusSeeOther, resp.Code)
	assert.Equal(t, "/articles/go-after-midnight", resp.Header().Get("Location"))
	assert.Equal(t, 1, env.backend.count("PostComment"))

	page := env.do(t, http.MethodGet, "/articles/go-after-midnight", nil, true)
	assert.Contains(t, page.Body.String(), "lovely piece")
}

func TestLikeComment_SignedIn(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/articles/go-after-midnight/comments",
		map[string]string{"content": "first!"}, true)

	resp := env.do(t, http.MethodPost, "/articles/go-after-midnight/comments/c1/like", nil, true)

	assert.Equal(t, http.StatusSeeOther, resp.Code)
	assert.Equal(t, 1, env.backend.count("LikeComment"))
}

func TestParagraphSeen_Beacon(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/articles/go-after-midnight/paragraphs/p1/seen", nil, false)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"success":true`)

	// The paragraph stays revealed on the next render.
	page := env.do(t, http.MethodGet, "/articles/go-after-midnight", nil, false)
	html := page.Body.String()
	assert.NotContains(t, html, `veiled" data-paragraph-id="p1"`)
	assert.Contains(t, html, `veiled" data-paragraph-id="p2"`)
}

func TestHandleLogin_Flow(t *testing.T) {
	t.Run("valid credentials set cookie and redirect", func(t *testing.T) {
		env := newTestEnv(t)

		resp := env.do(t, http.MethodPost, "/login",
			map[string]string{"email": "reader@example.com", "password": "hunter2secret"}, false)

		assert.Equal(t, http.StatusSeeOther, resp.Code)
		assert.Equal(t, "/", resp.Header().Get("Location"))
		cookies := resp.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, middleware.SessionCookieName, cookies[0].Name)
		assert.NotEmpty(t, cookies[0].Value)
	})

	t.Run("invalid form re-renders with field errors", func(t *testing.T) {
		env := newTestEnv(t)

		resp := env.do(t, http.MethodPost, "/login",
			map[string]string{"email": "not-an-email", "password": ""}, false)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		assert.Contains(t, resp.Body.String(), "Enter a valid email address")
		assert.Contains(t, resp.Body.String(), "Password is required")
	})

	t.Run("wrong credentials show category message", func(t *testing.T) {
		env := newTestEnv(t)
		env.identity.signInErr = utils.NewAppError(utils.ErrInvalidCredentials, "Incorrect email or password", nil)

		resp := env.do(t, http.MethodPost, "/login",
			map[string]string{"email": "reader@example.com", "password": "wrongpass"}, false)

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Contains(t, resp.Body.String(), "Incorrect email or password")
	})
}

func TestHandleRegister_Flow(t *testing.T) {
	t.Run("success redirects with welcome notice", func(t *testing.T) {
		env := newTestEnv(t)

		resp := env.do(t, http.MethodPost, "/register",
			map[string]string{"email": "new@example.com", "password": "longenough", "confirm": "longenough"}, false)

		assert.Equal(t, http.StatusSeeOther, resp.Code)
		assert.Equal(t, "/?welcome=1", resp.Header().Get("Location"))

		feed := env.do(t, http.MethodGet, "/?welcome=1", nil, false)
		assert.Contains(t, feed.Body.String(), "verification email")
	})

	t.Run("duplicate account", func(t *testing.T) {
		env := newTestEnv(t)
		env.identity.signUpErr = utils.NewAppError(utils.ErrDuplicateAccount, "An account with this email already exists", nil)

		resp := env.do(t, http.MethodPost, "/register",
			map[string]string{"email": "taken@example.com", "password": "longenough", "confirm": "longenough"}, false)

		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.Contains(t, resp.Body.String(), "already exists")
	})

	t.Run("mismatched confirmation never reaches the provider", func(t *testing.T) {
		env := newTestEnv(t)
		env.identity.signUpErr = utils.NewAppError(utils.ErrProvider, "should not be seen", nil)

		resp := env.do(t, http.MethodPost, "/register",
			map[string]string{"email": "new@example.com", "password": "longenough", "confirm": "different"}, false)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		assert.Contains(t, resp.Body.String(), "Passwords do not match")
		assert.NotContains(t, resp.Body.String(), "should not be seen")
	})
}

func TestHandleForgotPassword_AlwaysNeutralOutcome(t *testing.T) {
	env := newTestEnv(t)
	env.identity.resetErr = utils.NewAppError(utils.ErrProvider, "provider down", nil)

	resp := env.do(t, http.MethodPost, "/forgot-password",
		map[string]string{"email": "reader@example.com"}, false)

	assert.Equal(t, http.StatusSeeOther, resp.Code)
	assert.Equal(t, "/?recovery=1", resp.Header().Get("Location"))
	assert.True(t, env.identity.resetCalled)
}

func TestHandleLogout(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/logout", nil, true)

	assert.Equal(t, http.StatusSeeOther, resp.Code)
	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, env.identity.signedOut)
}

func TestHandleFederatedSignIn(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/auth/google", nil, false)

	assert.Equal(t, http.StatusSeeOther, resp.Code)
	assert.Equal(t, "http://kratos.test/self-service/login?flow=browser-1", resp.Header().Get("Location"))
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health", nil, false)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"healthy"`)
	assert.Contains(t, resp.Body.String(), `"metrics"`)
}

func TestHandleHealth_MetricsDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.server.MetricsEnabled = false

	resp := env.do(t, http.MethodGet, "/health", nil, false)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"healthy"`)
	assert.NotContains(t, resp.Body.String(), `"metrics"`)
}
