package models

// Article is the full article document served by the remote backend. The
// client holds a read-only copy per page view; the backend owns the data.
type Article struct {
	ID            string      `json:"_id"`
	Slug          string      `json:"slug"`
	Title         string      `json:"title"`
	AuthorID      string      `json:"authorId"`
	CoverImageURL string      `json:"coverImageUrl,omitempty"`
	Tags          []string    `json:"tags"`
	Content       []Paragraph `json:"content"`
	Likes         []string    `json:"likes"`
	Reposts       []string    `json:"reposts"`
	ViewCount     int         `json:"viewCount"`
	CreatedAt     string      `json:"createdAt"`
	UpdatedAt     string      `json:"updatedAt"`
}

// Paragraph is one unit of article content. Paragraph-scoped comments are a
// lighter shape than thread comments: no id, no likes, no replies.
type Paragraph struct {
	ParagraphID string             `json:"paragraphId"`
	Text        string             `json:"text"`
	Likes       []string           `json:"likes"`
	Comments    []ParagraphComment `json:"comments"`
}

type ParagraphComment struct {
	UserID    string `json:"userId"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// ArticleSummary is the shape returned by the list endpoint for the home
// feed: first-paragraph excerpt, resolved author name, no comment data.
type ArticleSummary struct {
	ID            string      `json:"_id"`
	Slug          string      `json:"slug"`
	Title         string      `json:"title"`
	AuthorID      string      `json:"authorId"`
	AuthorName    string      `json:"authorName,omitempty"`
	Excerpt       string      `json:"excerpt,omitempty"`
	CoverImageURL string      `json:"coverImageUrl,omitempty"`
	Tags          []string    `json:"tags"`
	Content       []Paragraph `json:"content,omitempty"`
	CreatedAt     string      `json:"createdAt"`
	UpdatedAt     string      `json:"updatedAt"`
}
