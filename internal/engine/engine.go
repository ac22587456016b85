package engine

import (
	"sync"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/rs/zerolog"

	"journalite/internal/engine/actors"
	"journalite/internal/utils"
)

// BackendAPI is everything the per-article actors need from the remote
// service. Satisfied by api.Client.
type BackendAPI interface {
	actors.ArticleAPI
	actors.ThreadAPI
}

// Engine owns the actor system and hands out per-article actor PIDs.
// Each article gets one article actor (content, reveal state) and one
// thread actor (its discussion); both are spawned on first use and live
// until shutdown.
type Engine struct {
	system   *actor.ActorSystem
	api      BackendAPI
	sessions actors.SessionSource
	metrics  *utils.MetricsCollector
	logger   zerolog.Logger
	timeout  time.Duration

	mu            sync.Mutex
	articleActors map[string]*actor.PID
	threadActors  map[string]*actor.PID
}

func NewEngine(system *actor.ActorSystem, backend BackendAPI, sessions actors.SessionSource, metrics *utils.MetricsCollector, logger zerolog.Logger, timeout time.Duration) *Engine {
	return &Engine{
		system:        system,
		api:           backend,
		sessions:      sessions,
		metrics:       metrics,
		logger:        logger.With().Str("component", "engine").Logger(),
		timeout:       timeout,
		articleActors: make(map[string]*actor.PID),
		threadActors:  make(map[string]*actor.PID),
	}
}

// ArticleActor returns the PID owning the given article, spawning it on
// first use.
func (e *Engine) ArticleActor(slug string) *actor.PID {
	e.mu.Lock()
	defer e.mu.Unlock()

	if pid, ok := e.articleActors[slug]; ok {
		return pid
	}
	props := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewArticleActor(slug, e.api, e.logger)
	})
	pid := e.system.Root.Spawn(props)
	e.articleActors[slug] = pid
	e.logger.Debug().Str("slug", slug).Msg("spawned article actor")
	return pid
}

// ThreadActor returns the PID owning the given article's discussion
// thread, spawning it on first use.
func (e *Engine) ThreadActor(slug string) *actor.PID {
	e.mu.Lock()
	defer e.mu.Unlock()

	if pid, ok := e.threadActors[slug]; ok {
		return pid
	}
	props := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewThreadActor(slug, e.api, e.sessions, e.logger)
	})
	pid := e.system.Root.Spawn(props)
	e.threadActors[slug] = pid
	e.logger.Debug().Str("slug", slug).Msg("spawned thread actor")
	return pid
}

// Request sends msg to pid and waits for the reply. AppError replies come
// back as errors; a mailbox that never answers becomes an actor timeout.
func (e *Engine) Request(pid *actor.PID, msg interface{}) (interface{}, error) {
	start := time.Now()
	future := e.system.Root.RequestFuture(pid, msg, e.timeout)
	result, err := future.Result()
	e.metrics.AddOperationLatency("actor_request", time.Since(start))
	if err != nil {
		e.metrics.IncrementErrors()
		return nil, utils.NewActorTimeoutError(pid.String())
	}
	if appErr, ok := result.(*utils.AppError); ok {
		return nil, appErr
	}
	return result, nil
}

// Tell sends msg without waiting for a reply.
func (e *Engine) Tell(pid *actor.PID, msg interface{}) {
	e.system.Root.Send(pid, msg)
}

// Shutdown stops every per-article actor and waits for each to drain, so
// session subscriptions are released before the process exits.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	pids := make([]*actor.PID, 0, len(e.articleActors)+len(e.threadActors))
	for _, pid := range e.articleActors {
		pids = append(pids, pid)
	}
	for _, pid := range e.threadActors {
		pids = append(pids, pid)
	}
	e.articleActors = make(map[string]*actor.PID)
	e.threadActors = make(map[string]*actor.PID)
	e.mu.Unlock()

	for _, pid := range pids {
		if err := e.system.Root.StopFuture(pid).Wait(); err != nil {
			e.logger.Warn().Err(err).Str("pid", pid.String()).Msg("actor did not stop cleanly")
		}
	}
	e.logger.Info().Int("actors", len(pids)).Msg("engine stopped")
}
