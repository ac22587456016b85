package views

import (
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/russross/blackfriday/v2"
)

// avatarPalette colors author initials; the pick is deterministic per user
// id so an author keeps their color across pages.
var avatarPalette = []string{
	"#0d6e6e",
	"#b45309",
	"#5b21b6",
	"#9d174d",
	"#166534",
}

// RelativeDate formats a timestamp the way the reader expects: minutes
// under an hour, hours under a day, days under a week, absolute beyond.
// Unparseable input is returned as-is.
func RelativeDate(value string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}

	elapsed := now.Sub(t)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		minutes := int(elapsed.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case elapsed < 24*time.Hour:
		hours := int(elapsed.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case elapsed < 7*24*time.Hour:
		days := int(elapsed.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("Jan 2, 2006")
	}
}

// AvatarInitial returns the display name's first rune, uppercased.
func AvatarInitial(name string) string {
	r, size := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if size == 0 || r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

// AvatarColor picks a palette color from the first byte of the user id.
func AvatarColor(userID string) string {
	if userID == "" {
		return avatarPalette[0]
	}
	return avatarPalette[int(userID[0])%len(avatarPalette)]
}

// Markdown renders paragraph text to HTML.
func Markdown(text string) template.HTML {
	return template.HTML(blackfriday.Run([]byte(text)))
}

// Excerpt truncates text to at most max runes, on a word boundary when one
// is close enough.
func Excerpt(text string, max int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:max])
	if idx := strings.LastIndex(cut, " "); idx > max/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
