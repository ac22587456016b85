package views

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

func stamp(d time.Duration) string {
	return now.Add(-d).Format(time.RFC3339)
}

func TestRelativeDate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"just now", stamp(20 * time.Second), "just now"},
		{"one minute", stamp(90 * time.Second), "1 minute ago"},
		{"minutes", stamp(45 * time.Minute), "45 minutes ago"},
		{"one hour", stamp(70 * time.Minute), "1 hour ago"},
		{"hours", stamp(9 * time.Hour), "9 hours ago"},
		{"one day", stamp(30 * time.Hour), "1 day ago"},
		{"days", stamp(5 * 24 * time.Hour), "5 days ago"},
		{"beyond a week", stamp(10 * 24 * time.Hour), "Aug 5, 2026"},
		{"unparseable passes through", "yesterday-ish", "yesterday-ish"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RelativeDate(tc.in, now))
		})
	}
}

func TestAvatarInitial(t *testing.T) {
	assert.Equal(t, "R", AvatarInitial("reader"))
	assert.Equal(t, "Á", AvatarInitial("ágnes"))
	assert.Equal(t, "M", AvatarInitial("  maria"))
	assert.Equal(t, "?", AvatarInitial(""))
}

func TestAvatarColor_DeterministicAndInPalette(t *testing.T) {
	first := AvatarColor("user-123")
	assert.Equal(t, first, AvatarColor("user-123"))
	assert.Contains(t, avatarPalette, first)
	assert.Contains(t, avatarPalette, AvatarColor(""))
}

func TestMarkdown(t *testing.T) {
	html := string(Markdown("some **bold** text"))
	assert.Contains(t, html, "<strong>bold</strong>")
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short", 20))

	long := strings.Repeat("word ", 50)
	got := Excerpt(long, 30)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, len([]rune(got)), 31)
}

func TestRenderer_ParsesAllPages(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	err = r.Render(&strings.Builder{}, "missing.html", nil)
	assert.Error(t, err)
}
