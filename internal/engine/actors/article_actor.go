package actors

import (
	stdctx "context"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/rs/zerolog"

	"journalite/internal/models"
	"journalite/internal/utils"
)

// ArticleAPI is the slice of the remote article service the article actor
// drives. Satisfied by api.Client.
type ArticleAPI interface {
	GetArticle(ctx stdctx.Context, slug string) (*models.Article, error)
}

// Message types for ArticleActor
type (
	GetArticleMsg struct{}

	RefreshArticleMsg struct{}

	// ParagraphSeenMsg records that a paragraph scrolled into view. The
	// transition is one-way: a paragraph never becomes unseen again.
	ParagraphSeenMsg struct {
		ParagraphID string `json:"paragraphId"`
	}

	articleLoadedMsg struct {
		article *models.Article
		err     error
	}
)

// ArticleSnapshot is the read model for one article page.
type ArticleSnapshot struct {
	Slug              string
	Article           *models.Article
	Loading           bool
	VisibleParagraphs map[string]bool
	ErrorMessage      string
	NotFound          bool
}

// ArticleActor owns one article's content and per-reader reveal state.
type ArticleActor struct {
	slug   string
	api    ArticleAPI
	logger zerolog.Logger

	article *models.Article
	loading bool
	loadErr error
	visible map[string]bool

	pendingGets []*actor.PID
}

func NewArticleActor(slug string, api ArticleAPI, logger zerolog.Logger) actor.Actor {
	return &ArticleActor{
		slug:    slug,
		api:     api,
		logger:  logger.With().Str("actor", "article").Str("slug", slug).Logger(),
		visible: make(map[string]bool),
	}
}

func (a *ArticleActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		a.startLoad(context)

	case *articleLoadedMsg:
		a.handleLoaded(context, msg)

	case *GetArticleMsg:
		a.handleGetArticle(context)

	case *RefreshArticleMsg:
		a.startLoad(context)
		if context.Sender() != nil {
			context.Respond(a.snapshot())
		}

	case *ParagraphSeenMsg:
		if !a.visible[msg.ParagraphID] {
			a.visible[msg.ParagraphID] = true
		}
		if context.Sender() != nil {
			context.Respond(&models.StatusResponse{Success: true})
		}
	}
}

func (a *ArticleActor) startLoad(context actor.Context) {
	if a.loading {
		return
	}
	a.loading = true
	a.loadErr = nil

	system := context.ActorSystem()
	self := context.Self()
	slug := a.slug
	api := a.api
	go func() {
		article, err := api.GetArticle(stdctx.Background(), slug)
		system.Root.Send(self, &articleLoadedMsg{article: article, err: err})
	}()
}

func (a *ArticleActor) handleLoaded(context actor.Context, msg *articleLoadedMsg) {
	a.loading = false
	if msg.err != nil {
		a.loadErr = msg.err
		a.logger.Error().Err(msg.err).Msg("failed to load article")
	} else {
		a.article = msg.article
		a.loadErr = nil
	}

	for _, pid := range a.pendingGets {
		context.Send(pid, a.snapshot())
	}
	a.pendingGets = nil
}

func (a *ArticleActor) handleGetArticle(context actor.Context) {
	if a.loading {
		if sender := context.Sender(); sender != nil {
			a.pendingGets = append(a.pendingGets, sender)
		}
		return
	}
	if context.Sender() != nil {
		context.Respond(a.snapshot())
	}
}

func (a *ArticleActor) snapshot() *ArticleSnapshot {
	visible := make(map[string]bool, len(a.visible))
	for k, v := range a.visible {
		visible[k] = v
	}
	snap := &ArticleSnapshot{
		Slug:              a.slug,
		Article:           a.article,
		Loading:           a.loading,
		VisibleParagraphs: visible,
	}
	if a.loadErr != nil {
		snap.ErrorMessage = utils.UserMessage(a.loadErr)
		snap.NotFound = utils.IsErrorCode(a.loadErr, utils.ErrNotFound) ||
			transportStatus(a.loadErr) == 404
	}
	return snap
}

func transportStatus(err error) int {
	if appErr, ok := err.(*utils.AppError); ok {
		return appErr.Status
	}
	return 0
}
