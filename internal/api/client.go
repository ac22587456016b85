package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"journalite/internal/models"
	"journalite/internal/utils"
)

// Client is a thin request builder for the remote article/comment REST API.
// It owns no state beyond the connection pool; every response is decoded into
// the wire-exact models and every non-2xx becomes a transport AppError
// carrying the HTTP status.
type Client struct {
	baseURL string
	http    *http.Client
	metrics *utils.MetricsCollector
	logger  zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, metrics *utils.MetricsCollector, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger.With().Str("component", "api").Logger(),
	}
}

// GetArticle fetches the full article document for a slug.
func (c *Client) GetArticle(ctx context.Context, slug string) (*models.Article, error) {
	var article models.Article
	endpoint := fmt.Sprintf("/api/prototype/v1/article/%s", url.PathEscape(slug))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

// ListArticles fetches the summary list for the home feed.
func (c *Client) ListArticles(ctx context.Context) ([]models.ArticleSummary, error) {
	var summaries []models.ArticleSummary
	if err := c.do(ctx, http.MethodGet, "/api/prototype/v1/articles", nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetComments fetches the ordered comment collection for an article.
func (c *Client) GetComments(ctx context.Context, slug string) ([]*models.ArticleComment, error) {
	var comments []*models.ArticleComment
	endpoint := fmt.Sprintf("/api/prototype/v1/article/%s/comments", url.PathEscape(slug))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// PostComment creates a top-level comment and returns the created object.
func (c *Client) PostComment(ctx context.Context, slug, userID, content string) (*models.ArticleComment, error) {
	var comment models.ArticleComment
	endpoint := fmt.Sprintf("/api/prototype/v1/article/%s/comment", url.PathEscape(slug))
	body := map[string]string{"userId": userID, "content": content}
	if err := c.do(ctx, http.MethodPost, endpoint, body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// PostReply creates a reply under a comment and returns the created object.
func (c *Client) PostReply(ctx context.Context, slug, commentID, userID, content string) (*models.CommentReply, error) {
	var reply models.CommentReply
	endpoint := fmt.Sprintf("/api/prototype/v1/article/%s/comment/%s/reply",
		url.PathEscape(slug), url.PathEscape(commentID))
	body := map[string]string{"userId": userID, "content": content}
	if err := c.do(ctx, http.MethodPost, endpoint, body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// LikeComment toggles the caller's like server-side and returns the
// authoritative like set.
func (c *Client) LikeComment(ctx context.Context, slug, commentID, userID string) (*models.LikeResult, error) {
	var result models.LikeResult
	endpoint := fmt.Sprintf("/api/prototype/v1/article/%s/comment/%s/like",
		url.PathEscape(slug), url.PathEscape(commentID))
	if err := c.do(ctx, http.MethodPost, endpoint, map[string]string{"userId": userID}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LikeReply toggles the caller's like on a reply.
func (c *Client) LikeReply(ctx context.Context, slug, commentID, replyID, userID string) (*models.LikeResult, error) {
	var result models.LikeResult
	endpoint := fmt.Sprintf("/api/prototype/v1/article/%s/comment/%s/reply/%s/like",
		url.PathEscape(slug), url.PathEscape(commentID), url.PathEscape(replyID))
	if err := c.do(ctx, http.MethodPost, endpoint, map[string]string{"userId": userID}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteComment removes a comment. The server verifies that userID matches
// the comment's author; this client only relays it.
func (c *Client) DeleteComment(ctx context.Context, slug, commentID, userID string) (*models.StatusResponse, error) {
	var status models.StatusResponse
	endpoint := fmt.Sprintf("/api/prototype/v1/article/%s/comment/%s?userId=%s",
		url.PathEscape(slug), url.PathEscape(commentID), url.QueryEscape(userID))
	if err := c.do(ctx, http.MethodDelete, endpoint, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// DeleteReply removes a reply under a comment.
func (c *Client) DeleteReply(ctx context.Context, slug, commentID, replyID, userID string) (*models.StatusResponse, error) {
	var status models.StatusResponse
	endpoint := fmt.Sprintf("/api/prototype/v1/article/%s/comment/%s/reply/%s?userId=%s",
		url.PathEscape(slug), url.PathEscape(commentID), url.PathEscape(replyID), url.QueryEscape(userID))
	if err := c.do(ctx, http.MethodDelete, endpoint, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// do builds and executes one request against the remote API
func (c *Client) do(ctx context.Context, method, endpoint string, data interface{}, out interface{}) error {
	var body []byte
	var err error

	if data != nil {
		body, err = json.Marshal(data)
		if err != nil {
			return utils.NewAppError(utils.ErrInvalidInput, "failed to encode request body", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bytes.NewBuffer(body))
	if err != nil {
		return utils.NewTransportError(0, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	c.recordRequestMetrics(method, endpoint, start, err)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", method).Str("endpoint", endpoint).Msg("request failed")
		return utils.NewTransportError(0, "request to backend failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn().Int("status", resp.StatusCode).Str("method", method).Str("endpoint", endpoint).Msg("backend returned error status")
		return utils.NewTransportError(resp.StatusCode,
			fmt.Sprintf("backend returned status %d", resp.StatusCode), nil)
	}

	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return utils.NewTransportError(0, "failed to read response body", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return utils.NewTransportError(0, "failed to decode response body", err)
	}
	return nil
}

func (c *Client) recordRequestMetrics(method, endpoint string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.IncrementRequests()
	c.metrics.AddOperationLatency("backend_request", time.Since(start))
	if err != nil {
		c.metrics.IncrementErrors()
	}
}
