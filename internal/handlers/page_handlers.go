package handlers

import (
	"net/http"
	"sort"

	"journalite/internal/engine/actors"
	"journalite/internal/models"
	"journalite/internal/utils"
)

// HandleFeed renders the home feed: featured story first, the rest as
// cards, plus the tag collection across all summaries.
func (s *Server) HandleFeed(w http.ResponseWriter, r *http.Request) {
	data := feedPage{pageData: s.basePage(r, "Home")}
	if r.URL.Query().Get("welcome") == "1" {
		data.Notice = "Welcome! Check your inbox for a verification email."
	}
	if r.URL.Query().Get("recovery") == "1" {
		data.Notice = "If an account exists for that address, a recovery email is on its way."
	}

	summaries, err := s.Feed.ListArticles(r.Context())
	if err != nil {
		s.Logger.Error().Err(err).Msg("feed fetch failed")
		data.ErrorMessage = utils.UserMessage(err)
		s.render(w, http.StatusOK, "feed.html", data)
		return
	}
	s.rememberAuthors(summaries)

	if len(summaries) > 0 {
		data.Featured = &summaries[0]
		data.Articles = summaries[1:]
	}
	data.Tags = collectTags(summaries)

	s.render(w, http.StatusOK, "feed.html", data)
}

// HandleArticle renders the reader page: the article with its one-way
// paragraph reveal state plus the discussion thread.
func (s *Server) HandleArticle(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	session := s.sessionFor(r)

	articlePID := s.Engine.ArticleActor(slug)
	result, err := s.Engine.Request(articlePID, &actors.GetArticleMsg{})
	if err != nil {
		s.renderError(w, r, http.StatusBadGateway, false, utils.UserMessage(err))
		return
	}
	articleSnap := result.(*actors.ArticleSnapshot)
	if articleSnap.NotFound {
		s.renderError(w, r, http.StatusNotFound, true, "")
		return
	}
	if articleSnap.Article == nil {
		s.renderError(w, r, http.StatusBadGateway, false, articleSnap.ErrorMessage)
		return
	}

	threadPID := s.Engine.ThreadActor(slug)
	s.Engine.Tell(threadPID, &actors.SessionChangedMsg{Session: session})

	if replyTo := r.URL.Query().Get("replyTo"); replyTo != "" && session != nil {
		if _, err := s.Engine.Request(threadPID, &actors.OpenReplyMsg{CommentID: replyTo}); err != nil {
			s.Logger.Warn().Err(err).Str("slug", slug).Msg("open reply failed")
		}
	}

	result, err = s.Engine.Request(threadPID, &actors.GetThreadMsg{})
	if err != nil {
		s.renderError(w, r, http.StatusBadGateway, false, utils.UserMessage(err))
		return
	}
	threadSnap := result.(*actors.ThreadSnapshot)

	data := articlePage{
		pageData:   s.basePage(r, articleSnap.Article.Title),
		Article:    articleSnap.Article,
		AuthorName: s.authorName(articleSnap.Article.AuthorID),
		Visible:    articleSnap.VisibleParagraphs,
		Thread:     threadSnap,
	}
	data.ErrorMessage = threadSnap.ErrorMessage
	s.render(w, http.StatusOK, "article.html", data)
}

// HandleParagraphSeen is the visibility beacon: fire-and-forget from the
// page, answered with a small ack.
func (s *Server) HandleParagraphSeen(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	paragraphID := r.PathValue("paragraphId")

	pid := s.Engine.ArticleActor(slug)
	if _, err := s.Engine.Request(pid, &actors.ParagraphSeenMsg{ParagraphID: paragraphID}); err != nil {
		s.writeAppError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, &models.StatusResponse{Success: true})
}

// HandleHealth reports liveness plus the process counters.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{"status": "healthy"}
	if s.MetricsEnabled {
		payload["metrics"] = s.Metrics.Summary()
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func collectTags(summaries []models.ArticleSummary) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, a := range summaries {
		for _, tag := range a.Tags {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return tags
}
