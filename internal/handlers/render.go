package handlers

import (
	"encoding/json"
	"io/fs"
	"net/http"

	"journalite/internal/engine/actors"
	"journalite/internal/models"
	"journalite/internal/utils"
)

// pageData is the layout's shared fields; every page embeds it.
type pageData struct {
	Title        string
	Session      *models.Session
	ErrorMessage string
	Notice       string
}

type feedPage struct {
	pageData
	Featured *models.ArticleSummary
	Articles []models.ArticleSummary
	Tags     []string
}

type articlePage struct {
	pageData
	Article    *models.Article
	AuthorName string
	Visible    map[string]bool
	Thread     *actors.ThreadSnapshot
}

type authPage struct {
	pageData
	Form   authFormValues
	Errors map[string]string
}

// authFormValues echoes submitted values back into the form; passwords are
// never echoed.
type authFormValues struct {
	Email string
}

type errorPage struct {
	pageData
	NotFound bool
	Message  string
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

func (s *Server) render(w http.ResponseWriter, status int, page string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.Renderer.Render(w, page, data); err != nil {
		s.Logger.Error().Err(err).Str("page", page).Msg("template render failed")
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, notFound bool, message string) {
	data := errorPage{
		pageData: s.basePage(r, "Oops"),
		NotFound: notFound,
		Message:  message,
	}
	s.render(w, status, "error.html", data)
}

func (s *Server) basePage(r *http.Request, title string) pageData {
	return pageData{
		Title:   title,
		Session: s.sessionFor(r),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.Logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	appErr, ok := err.(*utils.AppError)
	if !ok {
		appErr = utils.NewAppError("INTERNAL", "Something went wrong", err)
	}
	status := utils.AppErrorToHTTPStatus(appErr.Code)
	body := map[string]string{
		"code":    appErr.Code,
		"message": utils.UserMessage(appErr),
	}
	if appErr.Code == utils.ErrLoginRequired {
		body["redirect"] = "/login"
	}
	s.Metrics.IncrementErrors()
	s.writeJSON(w, status, body)
}

// redirect answers a form post with a see-other, the post-redirect-get
// convention all mutating page actions follow.
func redirect(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}
