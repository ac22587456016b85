package actors

import (
	"journalite/internal/models"
)

// Pure reconciliation helpers over the comment list. The thread actor owns
// the only mutable copy; everything here returns or mutates that copy in
// place and never touches shared state. Rules mirror the remote service:
// new comments go first, new replies go last, like sets are replaced with
// the server's verbatim, removals match by exact id.

// prependComment puts a freshly posted comment at the top of the list.
func prependComment(comments []*models.ArticleComment, c *models.ArticleComment) []*models.ArticleComment {
	return append([]*models.ArticleComment{c}, comments...)
}

// appendReply attaches a reply to the end of its parent's reply list.
// Returns false when the parent comment is no longer present.
func appendReply(comments []*models.ArticleComment, commentID string, reply models.CommentReply) bool {
	for _, c := range comments {
		if c.CommentID == commentID {
			c.Replies = append(c.Replies, reply)
			return true
		}
	}
	return false
}

// applyCommentLikes replaces a comment's like set with the server's.
func applyCommentLikes(comments []*models.ArticleComment, commentID string, likes []string) bool {
	for _, c := range comments {
		if c.CommentID == commentID {
			c.Likes = likes
			return true
		}
	}
	return false
}

// applyReplyLikes replaces a reply's like set with the server's.
func applyReplyLikes(comments []*models.ArticleComment, commentID, replyID string, likes []string) bool {
	for _, c := range comments {
		if c.CommentID != commentID {
			continue
		}
		for i := range c.Replies {
			if c.Replies[i].ReplyID == replyID {
				c.Replies[i].Likes = likes
				return true
			}
		}
		return false
	}
	return false
}

// removeComment drops the comment with the given id, replies and all.
func removeComment(comments []*models.ArticleComment, commentID string) []*models.ArticleComment {
	out := comments[:0]
	for _, c := range comments {
		if c.CommentID != commentID {
			out = append(out, c)
		}
	}
	return out
}

// removeReply drops a single reply from its parent comment.
func removeReply(comments []*models.ArticleComment, commentID, replyID string) bool {
	for _, c := range comments {
		if c.CommentID != commentID {
			continue
		}
		for i := range c.Replies {
			if c.Replies[i].ReplyID == replyID {
				c.Replies = append(c.Replies[:i], c.Replies[i+1:]...)
				return true
			}
		}
		return false
	}
	return false
}

// cloneComments deep-copies the comment list so snapshots handed outside
// the actor never alias its internal state.
func cloneComments(comments []*models.ArticleComment) []*models.ArticleComment {
	out := make([]*models.ArticleComment, len(comments))
	for i, c := range comments {
		copied := *c
		copied.Likes = append([]string(nil), c.Likes...)
		copied.Replies = make([]models.CommentReply, len(c.Replies))
		for j, r := range c.Replies {
			copied.Replies[j] = r
			copied.Replies[j].Likes = append([]string(nil), r.Likes...)
		}
		out[i] = &copied
	}
	return out
}
