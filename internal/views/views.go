package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// StaticFS holds the stylesheet and the paragraph-reveal script; the HTTP
// layer serves it under /static/.
//
//go:embed static
var StaticFS embed.FS

// pages are the entry templates; each is parsed together with the layout.
var pages = []string{
	"feed.html",
	"article.html",
	"login.html",
	"register.html",
	"forgot_password.html",
	"error.html",
}

// Renderer executes the embedded page templates.
type Renderer struct {
	templates map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"relativeDate": func(value string) string {
			return RelativeDate(value, time.Now())
		},
		"avatarInitial": AvatarInitial,
		"avatarColor":   AvatarColor,
		"markdown":      Markdown,
		"excerpt": func(text string) string {
			return Excerpt(text, 180)
		},
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New("layout.html").Funcs(funcMap).
			ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		templates[page] = t
	}
	return &Renderer{templates: templates}, nil
}

// Render executes the named page into w.
func (r *Renderer) Render(w io.Writer, page string, data interface{}) error {
	t, ok := r.templates[page]
	if !ok {
		return fmt.Errorf("unknown template %q", page)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}
