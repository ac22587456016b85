package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"journalite/internal/engine"
	"journalite/internal/middleware"
	"journalite/internal/models"
	"journalite/internal/utils"
	"journalite/internal/views"
)

// FeedAPI is the slice of the remote service the feed page needs.
// Satisfied by api.Client.
type FeedAPI interface {
	ListArticles(ctx context.Context) ([]models.ArticleSummary, error)
}

// IdentityService is the auth surface the form handlers drive. Satisfied
// by identity.Adapter.
type IdentityService interface {
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignUp(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
	FederatedSignInURL(ctx context.Context, returnTo string) (string, error)
}

// Server holds all HTTP layer dependencies.
type Server struct {
	Engine   *engine.Engine
	Feed     FeedAPI
	Identity IdentityService
	Sessions *middleware.SessionManager
	Renderer *views.Renderer
	Metrics  *utils.MetricsCollector
	Logger   zerolog.Logger

	// MetricsEnabled controls whether /health exposes the process counters.
	MetricsEnabled bool

	// author display names observed from feed summaries, keyed by user id
	mu          sync.RWMutex
	authorNames map[string]string
}

func NewServer(eng *engine.Engine, feed FeedAPI, identity IdentityService, sessions *middleware.SessionManager, renderer *views.Renderer, metrics *utils.MetricsCollector, logger zerolog.Logger) *Server {
	return &Server{
		Engine:      eng,
		Feed:        feed,
		Identity:    identity,
		Sessions:    sessions,
		Renderer:    renderer,
		Metrics:        metrics,
		Logger:         logger.With().Str("component", "http").Logger(),
		MetricsEnabled: true,
		authorNames:    make(map[string]string),
	}
}

// Routes assembles the full mux: pages, thread actions, auth forms, the
// paragraph beacon, static assets, and health.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.HandleFeed)
	mux.HandleFunc("GET /articles/{slug}", s.HandleArticle)

	mux.HandleFunc("POST /articles/{slug}/comments", s.HandleSubmitComment)
	mux.HandleFunc("POST /articles/{slug}/comments/{commentId}/replies", s.HandleSubmitReply)
	mux.HandleFunc("POST /articles/{slug}/comments/{commentId}/like", s.HandleLikeComment)
	mux.HandleFunc("POST /articles/{slug}/comments/{commentId}/replies/{replyId}/like", s.HandleLikeReply)
	mux.HandleFunc("POST /articles/{slug}/comments/{commentId}/delete", s.HandleDeleteComment)
	mux.HandleFunc("POST /articles/{slug}/comments/{commentId}/replies/{replyId}/delete", s.HandleDeleteReply)
	mux.HandleFunc("POST /articles/{slug}/comments/{commentId}/replies/toggle", s.HandleToggleReplies)
	mux.HandleFunc("POST /articles/{slug}/paragraphs/{paragraphId}/seen", s.HandleParagraphSeen)

	mux.HandleFunc("GET /login", s.HandleLoginPage)
	mux.HandleFunc("POST /login", s.HandleLogin)
	mux.HandleFunc("GET /register", s.HandleRegisterPage)
	mux.HandleFunc("POST /register", s.HandleRegister)
	mux.HandleFunc("GET /forgot-password", s.HandleForgotPasswordPage)
	mux.HandleFunc("POST /forgot-password", s.HandleForgotPassword)
	mux.HandleFunc("POST /logout", s.HandleLogout)
	mux.HandleFunc("GET /auth/{provider}", s.HandleFederatedSignIn)

	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(mustSub(views.StaticFS, "static"))))

	return s.Sessions.WithSession(s.requestLogger(mux))
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		s.Logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("request")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) sessionFor(r *http.Request) *models.Session {
	return middleware.GetSessionFromContext(r.Context())
}

// authorName resolves a user id to a display name learned from feed
// summaries. Unknown authors get the fixed fallback.
func (s *Server) authorName(userID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if name, ok := s.authorNames[userID]; ok && name != "" {
		return name
	}
	return "Unknown Author"
}

func (s *Server) rememberAuthors(summaries []models.ArticleSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range summaries {
		if a.AuthorName != "" {
			s.authorNames[a.AuthorID] = a.AuthorName
		}
	}
}
