package handlers

import (
	"net/http"
	"net/url"

	"journalite/internal/engine/actors"
	"journalite/internal/utils"
)

// All thread actions are form posts from the article page and follow the
// same shape: require a session (anonymous attempts bounce to the login
// page without touching the engine), forward the session into the thread
// actor, run the operation, then redirect back to the article.

func articlePath(slug string) string {
	return "/articles/" + url.PathEscape(slug)
}

// threadAction runs msgs against the slug's thread actor in order and
// reports whether every step succeeded. A login-required answer redirects
// to the login prompt; anything else lands in the actor's error banner and
// is shown on the next page render.
func (s *Server) threadAction(w http.ResponseWriter, r *http.Request, slug string, msgs ...interface{}) {
	session := s.sessionFor(r)
	if session == nil {
		redirect(w, r, "/login")
		return
	}

	pid := s.Engine.ThreadActor(slug)
	s.Engine.Tell(pid, &actors.SessionChangedMsg{Session: session})

	for _, msg := range msgs {
		if _, err := s.Engine.Request(pid, msg); err != nil {
			if utils.IsErrorCode(err, utils.ErrLoginRequired) {
				redirect(w, r, "/login")
				return
			}
			s.Logger.Warn().Err(err).Str("slug", slug).Msgf("thread action %T failed", msg)
			break
		}
	}
	redirect(w, r, articlePath(slug))
}

func (s *Server) HandleSubmitComment(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	content := r.FormValue("content")
	s.threadAction(w, r, slug,
		&actors.SetCommentDraftMsg{Text: content},
		&actors.SubmitCommentMsg{},
	)
}

func (s *Server) HandleSubmitReply(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	commentID := r.PathValue("commentId")
	content := r.FormValue("content")
	s.threadAction(w, r, slug,
		&actors.OpenReplyMsg{CommentID: commentID},
		&actors.SetReplyDraftMsg{Text: content},
		&actors.SubmitReplyMsg{},
	)
}

func (s *Server) HandleLikeComment(w http.ResponseWriter, r *http.Request) {
	s.threadAction(w, r, r.PathValue("slug"),
		&actors.ToggleCommentLikeMsg{CommentID: r.PathValue("commentId")},
	)
}

func (s *Server) HandleLikeReply(w http.ResponseWriter, r *http.Request) {
	s.threadAction(w, r, r.PathValue("slug"),
		&actors.ToggleReplyLikeMsg{
			CommentID: r.PathValue("commentId"),
			ReplyID:   r.PathValue("replyId"),
		},
	)
}

func (s *Server) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	s.threadAction(w, r, r.PathValue("slug"),
		&actors.DeleteThreadCommentMsg{CommentID: r.PathValue("commentId")},
	)
}

func (s *Server) HandleDeleteReply(w http.ResponseWriter, r *http.Request) {
	s.threadAction(w, r, r.PathValue("slug"),
		&actors.DeleteThreadReplyMsg{
			CommentID: r.PathValue("commentId"),
			ReplyID:   r.PathValue("replyId"),
		},
	)
}

// HandleToggleReplies is the one thread action an anonymous reader may
// take: expanding a thread is pure local state, no session needed.
func (s *Server) HandleToggleReplies(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	pid := s.Engine.ThreadActor(slug)
	if session := s.sessionFor(r); session != nil {
		s.Engine.Tell(pid, &actors.SessionChangedMsg{Session: session})
	}
	if _, err := s.Engine.Request(pid, &actors.ToggleRepliesMsg{CommentID: r.PathValue("commentId")}); err != nil {
		s.Logger.Warn().Err(err).Str("slug", slug).Msg("toggle replies failed")
	}
	redirect(w, r, articlePath(slug)+"#comment-"+url.PathEscape(r.PathValue("commentId")))
}
