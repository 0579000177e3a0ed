package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/devaloi/picstream/internal/broker"
	"github.com/devaloi/picstream/internal/config"
	"github.com/devaloi/picstream/internal/fanout"
	"github.com/devaloi/picstream/internal/handler"
	"github.com/devaloi/picstream/internal/hub"
	"github.com/devaloi/picstream/internal/middleware"
	"github.com/devaloi/picstream/internal/store"
)

func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	var s store.Store
	if cfg.HistoryBackend == "memory" {
		s = store.NewMemory(cfg.MaxHistory)
	} else {
		sq, err := store.NewSQLite(cfg.DBPath, cfg.MaxHistory)
		if err != nil {
			log.Fatal().Err(err).Msg("open store")
		}
		s = sq
	}
	defer s.Close()

	b := broker.New()
	svc := fanout.New(s, b, log)

	reg := hub.New(svc, b, log)
	go reg.Run()
	defer reg.Stop()

	limiter := rate.NewLimiter(rate.Limit(cfg.IngestRate), int(cfg.IngestRate)+1)

	r := chi.NewRouter()
	r.Use(middleware.Logging(log))
	r.Use(middleware.CORS)
	r.Get("/health", handler.Health())
	r.Get("/api/channels", handler.ListChannels(reg))
	r.Get("/api/channels/{channel}", handler.ChannelInfo(reg))
	r.Post("/ingest", handler.Ingest(svc, limiter, log))
	r.Get("/ws", handler.ServeWS(reg, log))
	r.Handle("/*", http.FileServer(http.Dir("static")))

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("picstream listening")
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
