package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asynkron/protoactor-go/actor"

	"journalite/internal/api"
	"journalite/internal/config"
	"journalite/internal/engine"
	"journalite/internal/handlers"
	"journalite/internal/identity"
	"journalite/internal/logger"
	"journalite/internal/middleware"
	"journalite/internal/utils"
	"journalite/internal/views"
)

func main() {
	log := logger.New()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	metrics := utils.NewMetricsCollector()

	backend := api.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, metrics, log)
	idp := identity.NewAdapter(cfg.Identity.PublicURL, cfg.Identity.Timeout, log)

	system := actor.NewActorSystem()
	eng := engine.NewEngine(system, backend, idp, metrics, log, 10*time.Second)

	renderer, err := views.NewRenderer()
	if err != nil {
		log.Fatal().Err(err).Msg("could not parse templates")
	}

	sessions := middleware.NewSessionManager(cfg.Identity.SessionSecret, cfg.Identity.SessionTTL, !cfg.Debug)
	server := handlers.NewServer(eng, backend, idp, sessions, renderer, metrics, log)
	server.MetricsEnabled = cfg.Server.MetricsEnabled

	cors := middleware.CORSMiddleware(middleware.DefaultCORSConfig(cfg.AllowedOrigins))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      cors(server.Routes()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("backend", cfg.Backend.BaseURL).Msg("journalite listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown incomplete")
	}
	eng.Shutdown()
	log.Info().Msg("goodbye")
}
