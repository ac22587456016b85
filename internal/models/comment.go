package models

// ArticleComment is a top-level comment in an article's discussion thread.
// Likes is a set: a user id appears at most once, and liking twice reverses
// the first action. Replies are ordered; the server appends new replies.
type ArticleComment struct {
	CommentID string         `json:"commentId"`
	UserID    string         `json:"userId"`
	Content   string         `json:"content"`
	CreatedAt string         `json:"createdAt"`
	Likes     []string       `json:"likes"`
	Replies   []CommentReply `json:"replies"`
}

// CommentReply belongs to exactly one comment. No further nesting.
type CommentReply struct {
	ReplyID   string   `json:"replyId"`
	UserID    string   `json:"userId"`
	Content   string   `json:"content"`
	CreatedAt string   `json:"createdAt"`
	Likes     []string `json:"likes"`
}

// LikeResult is the authoritative outcome of a like toggle. The server
// decides liked vs unliked; local state is replaced with Likes verbatim.
type LikeResult struct {
	Success bool     `json:"success"`
	Action  string   `json:"action"` // "liked" or "unliked"
	Likes   []string `json:"likes"`
	Count   int      `json:"count"`
}

// StatusResponse is returned by delete endpoints.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
