package actors

import (
	stdctx "context"
	"sync"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journalite/internal/models"
	"journalite/internal/utils"
)

type fakeArticleAPI struct {
	mu      sync.Mutex
	article *models.Article
	err     error
	calls   int
}

func (f *fakeArticleAPI) GetArticle(_ stdctx.Context, slug string) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.article, nil
}

func testArticle(slug string) *models.Article {
	return &models.Article{
		ID:       "a1",
		Slug:     slug,
		Title:    "Go After Midnight",
		AuthorID: "u9",
		Content: []models.Paragraph{
			{ParagraphID: "p1", Text: "First."},
			{ParagraphID: "p2", Text: "Second."},
		},
		CreatedAt: "2026-07-30T08:00:00Z",
	}
}

func spawnArticle(t *testing.T, system *actor.ActorSystem, api ArticleAPI) *actor.PID {
	t.Helper()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewArticleActor("go-after-midnight", api, zerolog.Nop())
	})
	return system.Root.Spawn(props)
}

func getArticleSnapshot(t *testing.T, system *actor.ActorSystem, pid *actor.PID) *ArticleSnapshot {
	t.Helper()
	future := system.Root.RequestFuture(pid, &GetArticleMsg{}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	snap, ok := result.(*ArticleSnapshot)
	require.True(t, ok, "expected snapshot, got %T", result)
	return snap
}

func TestArticleActor_LoadsOnStart(t *testing.T) {
	system := actor.NewActorSystem()
	api := &fakeArticleAPI{article: testArticle("go-after-midnight")}
	pid := spawnArticle(t, system, api)

	snap := getArticleSnapshot(t, system, pid)

	require.NotNil(t, snap.Article)
	assert.Equal(t, "Go After Midnight", snap.Article.Title)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.VisibleParagraphs)
}

func TestArticleActor_NotFound(t *testing.T) {
	system := actor.NewActorSystem()
	api := &fakeArticleAPI{err: utils.NewTransportError(404, "article not found", nil)}
	pid := spawnArticle(t, system, api)

	snap := getArticleSnapshot(t, system, pid)

	assert.Nil(t, snap.Article)
	assert.True(t, snap.NotFound)
	assert.NotEmpty(t, snap.ErrorMessage)
}

func TestArticleActor_ParagraphRevealIsOneWay(t *testing.T) {
	system := actor.NewActorSystem()
	api := &fakeArticleAPI{article: testArticle("go-after-midnight")}
	pid := spawnArticle(t, system, api)
	getArticleSnapshot(t, system, pid)

	ack, err := system.Root.RequestFuture(pid, &ParagraphSeenMsg{ParagraphID: "p1"}, 5*time.Second).Result()
	require.NoError(t, err)
	assert.True(t, ack.(*models.StatusResponse).Success)

	// A second sighting changes nothing, and p2 stays hidden.
	_, err = system.Root.RequestFuture(pid, &ParagraphSeenMsg{ParagraphID: "p1"}, 5*time.Second).Result()
	require.NoError(t, err)

	snap := getArticleSnapshot(t, system, pid)
	assert.True(t, snap.VisibleParagraphs["p1"])
	assert.False(t, snap.VisibleParagraphs["p2"])
	assert.Len(t, snap.VisibleParagraphs, 1)
}

func TestArticleActor_RefreshRefetches(t *testing.T) {
	system := actor.NewActorSystem()
	api := &fakeArticleAPI{article: testArticle("go-after-midnight")}
	pid := spawnArticle(t, system, api)
	getArticleSnapshot(t, system, pid)

	system.Root.RequestFuture(pid, &RefreshArticleMsg{}, 5*time.Second).Result()
	snap := getArticleSnapshot(t, system, pid)

	require.NotNil(t, snap.Article)
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.GreaterOrEqual(t, api.calls, 2)
}
