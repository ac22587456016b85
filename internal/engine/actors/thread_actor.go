package actors

import (
	stdctx "context"
	"strings"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/rs/zerolog"

	"journalite/internal/models"
	"journalite/internal/utils"
)

// ThreadAPI is the slice of the remote comment service the thread actor
// drives. Satisfied by api.Client.
type ThreadAPI interface {
	GetComments(ctx stdctx.Context, slug string) ([]*models.ArticleComment, error)
	PostComment(ctx stdctx.Context, slug, userID, content string) (*models.ArticleComment, error)
	PostReply(ctx stdctx.Context, slug, commentID, userID, content string) (*models.CommentReply, error)
	LikeComment(ctx stdctx.Context, slug, commentID, userID string) (*models.LikeResult, error)
	LikeReply(ctx stdctx.Context, slug, commentID, replyID, userID string) (*models.LikeResult, error)
	DeleteComment(ctx stdctx.Context, slug, commentID, userID string) (*models.StatusResponse, error)
	DeleteReply(ctx stdctx.Context, slug, commentID, replyID, userID string) (*models.StatusResponse, error)
}

// SessionSource is the reactive session feed the thread actor subscribes
// to. Satisfied by identity.Adapter.
type SessionSource interface {
	Subscribe(fn func(*models.Session)) func()
}

// Message types for ThreadActor
type (
	GetThreadMsg struct{}

	RefreshThreadMsg struct{}

	SetCommentDraftMsg struct {
		Text string `json:"text"`
	}

	SubmitCommentMsg struct{}

	OpenReplyMsg struct {
		CommentID string `json:"commentId"`
	}

	CancelReplyMsg struct{}

	SetReplyDraftMsg struct {
		Text string `json:"text"`
	}

	SubmitReplyMsg struct{}

	ToggleCommentLikeMsg struct {
		CommentID string `json:"commentId"`
	}

	ToggleReplyLikeMsg struct {
		CommentID string `json:"commentId"`
		ReplyID   string `json:"replyId"`
	}

	DeleteThreadCommentMsg struct {
		CommentID string `json:"commentId"`
	}

	DeleteThreadReplyMsg struct {
		CommentID string `json:"commentId"`
		ReplyID   string `json:"replyId"`
	}

	ToggleRepliesMsg struct {
		CommentID string `json:"commentId"`
	}

	SessionChangedMsg struct {
		Session *models.Session
	}
)

// Internal completion messages. API calls run in goroutines so the mailbox
// stays responsive; each completion carries the PID waiting on the result.
type (
	commentsLoadedMsg struct {
		comments []*models.ArticleComment
		err      error
	}

	commentPostedMsg struct {
		comment *models.ArticleComment
		err     error
		replyTo *actor.PID
	}

	replyPostedMsg struct {
		commentID string
		reply     *models.CommentReply
		err       error
		replyTo   *actor.PID
	}

	commentLikeAppliedMsg struct {
		commentID string
		result    *models.LikeResult
		err       error
		replyTo   *actor.PID
	}

	replyLikeAppliedMsg struct {
		commentID string
		replyID   string
		result    *models.LikeResult
		err       error
		replyTo   *actor.PID
	}

	commentRemovedMsg struct {
		commentID string
		err       error
		replyTo   *actor.PID
	}

	replyRemovedMsg struct {
		commentID string
		replyID   string
		err       error
		replyTo   *actor.PID
	}
)

// ThreadSnapshot is a deep copy of the thread state at one instant. It is
// the only thing the actor hands out, so callers can never observe a
// half-applied update.
type ThreadSnapshot struct {
	Slug            string
	Comments        []*models.ArticleComment
	Loading         bool
	CommentDraft    string
	Submitting      bool
	ReplyingTo      string
	ReplyDraft      string
	SubmittingReply bool
	ExpandedReplies map[string]bool
	Session         *models.Session
	ErrorMessage    string
}

// ThreadActor owns one article's comment thread. All state lives behind
// the mailbox; interleaved updates are impossible by construction.
type ThreadActor struct {
	slug     string
	api      ThreadAPI
	sessions SessionSource
	logger   zerolog.Logger

	comments []*models.ArticleComment
	loading  bool
	loadErr  error

	commentDraft    string
	submitting      bool
	replyingTo      string
	replyDraft      string
	submittingReply bool
	expandedReplies map[string]bool
	inflightLikes   map[string]bool

	session     *models.Session
	unsubscribe func()
	errorMsg    string

	// readers that asked for the thread before the initial load finished
	pendingGets []*actor.PID
}

func NewThreadActor(slug string, api ThreadAPI, sessions SessionSource, logger zerolog.Logger) actor.Actor {
	return &ThreadActor{
		slug:            slug,
		api:             api,
		sessions:        sessions,
		logger:          logger.With().Str("actor", "thread").Str("slug", slug).Logger(),
		expandedReplies: make(map[string]bool),
		inflightLikes:   make(map[string]bool),
	}
}

func (a *ThreadActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		a.handleStarted(context)

	case *actor.Stopping:
		if a.unsubscribe != nil {
			a.unsubscribe()
			a.unsubscribe = nil
		}

	case *commentsLoadedMsg:
		a.handleCommentsLoaded(context, msg)

	case *GetThreadMsg:
		a.handleGetThread(context)

	case *RefreshThreadMsg:
		a.startLoad(context)
		a.respondSnapshot(context)

	case *SetCommentDraftMsg:
		a.commentDraft = msg.Text
		a.respondSnapshot(context)

	case *SubmitCommentMsg:
		a.handleSubmitComment(context)

	case *OpenReplyMsg:
		a.handleOpenReply(context, msg)

	case *CancelReplyMsg:
		a.replyingTo = ""
		a.replyDraft = ""
		a.respondSnapshot(context)

	case *SetReplyDraftMsg:
		a.replyDraft = msg.Text
		a.respondSnapshot(context)

	case *SubmitReplyMsg:
		a.handleSubmitReply(context)

	case *ToggleCommentLikeMsg:
		a.handleToggleCommentLike(context, msg)

	case *ToggleReplyLikeMsg:
		a.handleToggleReplyLike(context, msg)

	case *DeleteThreadCommentMsg:
		a.handleDeleteComment(context, msg)

	case *DeleteThreadReplyMsg:
		a.handleDeleteReply(context, msg)

	case *ToggleRepliesMsg:
		a.expandedReplies[msg.CommentID] = !a.expandedReplies[msg.CommentID]
		a.respondSnapshot(context)

	case *SessionChangedMsg:
		a.handleSessionChanged(msg)

	case *commentPostedMsg:
		a.handleCommentPosted(context, msg)

	case *replyPostedMsg:
		a.handleReplyPosted(context, msg)

	case *commentLikeAppliedMsg:
		a.handleCommentLikeApplied(context, msg)

	case *replyLikeAppliedMsg:
		a.handleReplyLikeApplied(context, msg)

	case *commentRemovedMsg:
		a.handleCommentRemoved(context, msg)

	case *replyRemovedMsg:
		a.handleReplyRemoved(context, msg)
	}
}

func (a *ThreadActor) handleStarted(context actor.Context) {
	a.logger.Debug().Msg("thread actor started")

	system := context.ActorSystem()
	self := context.Self()
	a.unsubscribe = a.sessions.Subscribe(func(s *models.Session) {
		system.Root.Send(self, &SessionChangedMsg{Session: s})
	})

	a.startLoad(context)
}

func (a *ThreadActor) startLoad(context actor.Context) {
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
		comments, err := api.GetComments(stdctx.Background(), slug)
		system.Root.Send(self, &commentsLoadedMsg{comments: comments, err: err})
	}()
}

func (a *ThreadActor) handleCommentsLoaded(context actor.Context, msg *commentsLoadedMsg) {
	a.loading = false
	if msg.err != nil {
		a.loadErr = msg.err
		a.logger.Error().Err(msg.err).Msg("failed to load comments")
	} else {
		a.comments = msg.comments
		a.loadErr = nil
	}

	for _, pid := range a.pendingGets {
		context.Send(pid, a.snapshot())
	}
	a.pendingGets = nil
}

func (a *ThreadActor) handleGetThread(context actor.Context) {
	if a.loading {
		if sender := context.Sender(); sender != nil {
			a.pendingGets = append(a.pendingGets, sender)
		}
		return
	}
	a.respondSnapshot(context)
}

func (a *ThreadActor) handleSubmitComment(context actor.Context) {
	content := strings.TrimSpace(a.commentDraft)
	if content == "" || a.submitting {
		// Nothing to do: empty drafts and repeat submits are dropped,
		// even before the session is considered.
		a.respondSnapshot(context)
		return
	}
	if a.session == nil {
		context.Respond(utils.NewLoginRequiredError("post a comment"))
		return
	}

	a.submitting = true
	a.errorMsg = ""
	userID := a.session.UserID
	a.callAsync(context, func(replyTo *actor.PID) interface{} {
		comment, err := a.api.PostComment(stdctx.Background(), a.slug, userID, content)
		return &commentPostedMsg{comment: comment, err: err, replyTo: replyTo}
	})
}

func (a *ThreadActor) handleCommentPosted(context actor.Context, msg *commentPostedMsg) {
	a.submitting = false
	if msg.err != nil {
		a.errorMsg = utils.UserMessage(msg.err)
		a.logger.Error().Err(msg.err).Msg("comment submit failed")
	} else {
		a.comments = prependComment(a.comments, msg.comment)
		a.commentDraft = ""
	}
	a.replyWith(context, msg.replyTo, a.snapshot())
}

func (a *ThreadActor) handleOpenReply(context actor.Context, msg *OpenReplyMsg) {
	if a.session == nil {
		context.Respond(utils.NewLoginRequiredError("reply to a comment"))
		return
	}
	if a.replyingTo != msg.CommentID {
		a.replyingTo = msg.CommentID
		a.replyDraft = ""
	}
	a.respondSnapshot(context)
}

func (a *ThreadActor) handleSubmitReply(context actor.Context) {
	content := strings.TrimSpace(a.replyDraft)
	if a.replyingTo == "" || content == "" || a.submittingReply {
		a.respondSnapshot(context)
		return
	}
	if a.session == nil {
		context.Respond(utils.NewLoginRequiredError("reply to a comment"))
		return
	}

	a.submittingReply = true
	a.errorMsg = ""
	commentID := a.replyingTo
	userID := a.session.UserID
	a.callAsync(context, func(replyTo *actor.PID) interface{} {
		reply, err := a.api.PostReply(stdctx.Background(), a.slug, commentID, userID, content)
		return &replyPostedMsg{commentID: commentID, reply: reply, err: err, replyTo: replyTo}
	})
}

func (a *ThreadActor) handleReplyPosted(context actor.Context, msg *replyPostedMsg) {
	a.submittingReply = false
	if msg.err != nil {
		a.errorMsg = utils.UserMessage(msg.err)
		a.logger.Error().Err(msg.err).Str("commentId", msg.commentID).Msg("reply submit failed")
	} else {
		if appendReply(a.comments, msg.commentID, *msg.reply) {
			// A thread with a brand-new reply should show it.
			a.expandedReplies[msg.commentID] = true
		}
		a.replyingTo = ""
		a.replyDraft = ""
	}
	a.replyWith(context, msg.replyTo, a.snapshot())
}

func (a *ThreadActor) handleToggleCommentLike(context actor.Context, msg *ToggleCommentLikeMsg) {
	if a.session == nil {
		context.Respond(utils.NewLoginRequiredError("like a comment"))
		return
	}
	key := msg.CommentID
	if a.inflightLikes[key] {
		a.respondSnapshot(context)
		return
	}
	a.inflightLikes[key] = true
	commentID := msg.CommentID
	userID := a.session.UserID
	a.callAsync(context, func(replyTo *actor.PID) interface{} {
		result, err := a.api.LikeComment(stdctx.Background(), a.slug, commentID, userID)
		return &commentLikeAppliedMsg{commentID: commentID, result: result, err: err, replyTo: replyTo}
	})
}

func (a *ThreadActor) handleCommentLikeApplied(context actor.Context, msg *commentLikeAppliedMsg) {
	delete(a.inflightLikes, msg.commentID)
	if msg.err != nil {
		// Like failures stay silent; the next toggle simply retries.
		a.logger.Error().Err(msg.err).Str("commentId", msg.commentID).Msg("comment like failed")
	} else {
		applyCommentLikes(a.comments, msg.commentID, msg.result.Likes)
	}
	a.replyWith(context, msg.replyTo, a.snapshot())
}

func (a *ThreadActor) handleToggleReplyLike(context actor.Context, msg *ToggleReplyLikeMsg) {
	if a.session == nil {
		context.Respond(utils.NewLoginRequiredError("like a reply"))
		return
	}
	key := msg.CommentID + "/" + msg.ReplyID
	if a.inflightLikes[key] {
		a.respondSnapshot(context)
		return
	}
	a.inflightLikes[key] = true
	commentID, replyID := msg.CommentID, msg.ReplyID
	userID := a.session.UserID
	a.callAsync(context, func(replyTo *actor.PID) interface{} {
		result, err := a.api.LikeReply(stdctx.Background(), a.slug, commentID, replyID, userID)
		return &replyLikeAppliedMsg{commentID: commentID, replyID: replyID, result: result, err: err, replyTo: replyTo}
	})
}

func (a *ThreadActor) handleReplyLikeApplied(context actor.Context, msg *replyLikeAppliedMsg) {
	delete(a.inflightLikes, msg.commentID+"/"+msg.replyID)
	if msg.err != nil {
		a.logger.Error().Err(msg.err).Str("replyId", msg.replyID).Msg("reply like failed")
	} else {
		applyReplyLikes(a.comments, msg.commentID, msg.replyID, msg.result.Likes)
	}
	a.replyWith(context, msg.replyTo, a.snapshot())
}

func (a *ThreadActor) handleDeleteComment(context actor.Context, msg *DeleteThreadCommentMsg) {
	if a.session == nil {
		context.Respond(utils.NewLoginRequiredError("delete a comment"))
		return
	}
	if owner := a.commentOwner(msg.CommentID); owner != a.session.UserID {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "You can only delete your own comments", nil))
		return
	}
	commentID := msg.CommentID
	userID := a.session.UserID
	a.callAsync(context, func(replyTo *actor.PID) interface{} {
		_, err := a.api.DeleteComment(stdctx.Background(), a.slug, commentID, userID)
		return &commentRemovedMsg{commentID: commentID, err: err, replyTo: replyTo}
	})
}

func (a *ThreadActor) handleCommentRemoved(context actor.Context, msg *commentRemovedMsg) {
	if msg.err != nil {
		// Deletes fail silently; the item just stays in the list.
		a.logger.Error().Err(msg.err).Str("commentId", msg.commentID).Msg("comment delete failed")
	} else {
		a.comments = removeComment(a.comments, msg.commentID)
		delete(a.expandedReplies, msg.commentID)
	}
	a.replyWith(context, msg.replyTo, a.snapshot())
}

func (a *ThreadActor) handleDeleteReply(context actor.Context, msg *DeleteThreadReplyMsg) {
	if a.session == nil {
		context.Respond(utils.NewLoginRequiredError("delete a reply"))
		return
	}
	if owner := a.replyOwner(msg.CommentID, msg.ReplyID); owner != a.session.UserID {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "You can only delete your own replies", nil))
		return
	}
	commentID, replyID := msg.CommentID, msg.ReplyID
	userID := a.session.UserID
	a.callAsync(context, func(replyTo *actor.PID) interface{} {
		_, err := a.api.DeleteReply(stdctx.Background(), a.slug, commentID, replyID, userID)
		return &replyRemovedMsg{commentID: commentID, replyID: replyID, err: err, replyTo: replyTo}
	})
}

func (a *ThreadActor) handleReplyRemoved(context actor.Context, msg *replyRemovedMsg) {
	if msg.err != nil {
		a.logger.Error().Err(msg.err).Str("replyId", msg.replyID).Msg("reply delete failed")
	} else {
		removeReply(a.comments, msg.commentID, msg.replyID)
	}
	a.replyWith(context, msg.replyTo, a.snapshot())
}

func (a *ThreadActor) handleSessionChanged(msg *SessionChangedMsg) {
	a.session = msg.Session
	if msg.Session == nil {
		// Composer state is meaningless without an author.
		a.commentDraft = ""
		a.replyingTo = ""
		a.replyDraft = ""
	}
}

func (a *ThreadActor) commentOwner(commentID string) string {
	for _, c := range a.comments {
		if c.CommentID == commentID {
			return c.UserID
		}
	}
	return ""
}

func (a *ThreadActor) replyOwner(commentID, replyID string) string {
	for _, c := range a.comments {
		if c.CommentID != commentID {
			continue
		}
		for _, r := range c.Replies {
			if r.ReplyID == replyID {
				return r.UserID
			}
		}
	}
	return ""
}

// callAsync runs fn off the mailbox and delivers its completion message
// back to this actor, remembering who to answer once it lands.
func (a *ThreadActor) callAsync(context actor.Context, fn func(replyTo *actor.PID) interface{}) {
	system := context.ActorSystem()
	self := context.Self()
	replyTo := context.Sender()
	go func() {
		system.Root.Send(self, fn(replyTo))
	}()
}

// replyWith answers the caller recorded at submit time, if any.
func (a *ThreadActor) replyWith(context actor.Context, replyTo *actor.PID, response interface{}) {
	if replyTo != nil {
		context.Send(replyTo, response)
	}
}

func (a *ThreadActor) respondSnapshot(context actor.Context) {
	if context.Sender() != nil {
		context.Respond(a.snapshot())
	}
}

func (a *ThreadActor) snapshot() *ThreadSnapshot {
	expanded := make(map[string]bool, len(a.expandedReplies))
	for k, v := range a.expandedReplies {
		expanded[k] = v
	}
	errorMsg := a.errorMsg
	if a.loadErr != nil {
		errorMsg = utils.UserMessage(a.loadErr)
	}
	return &ThreadSnapshot{
		Slug:            a.slug,
		Comments:        cloneComments(a.comments),
		Loading:         a.loading,
		CommentDraft:    a.commentDraft,
		Submitting:      a.submitting,
		ReplyingTo:      a.replyingTo,
		ReplyDraft:      a.replyDraft,
		SubmittingReply: a.submittingReply,
		ExpandedReplies: expanded,
		Session:         a.session,
		ErrorMessage:    errorMsg,
	}
}
