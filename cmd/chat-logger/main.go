package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"twitch-chat-client/config"
	"twitch-chat-client/httpapi"
	"twitch-chat-client/service"
	"twitch-chat-client/storage"
	"twitch-chat-client/twitch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	handler := service.NewHandler(nil, nil, cfg.Batch.FlushTimeout)
	if cfg.Postgres.Enabled() {
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN())
		if err != nil {
			log.Fatalf("pgxpool.New: %v", err)
		}
		defer pool.Close()

		if err := storage.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("%v", err)
		}

		// батчер живёт дольше сессии: Close дописывает очередь до закрытия пула
		batcher := storage.NewBatcher(context.Background(), pool, storage.BatchConfig{
			MaxBatch:      cfg.Batch.MaxBatch,
			FlushEvery:    cfg.Batch.FlushEvery,
			ChanBuffer:    cfg.Batch.ChanBuffer,
			StatsLogEvery: cfg.Batch.StatsLogEvery,
			FlushTimeout:  cfg.Batch.FlushTimeout,
		})
		defer batcher.Close()
		handler = service.NewHandler(batcher, pool, cfg.Batch.FlushTimeout)
	} else {
		log.Println("postgres не настроен, события только логируются")
	}

	client := twitch.NewClient(cfg.Twitch, handler)
	srv := service.New(client)

	if cfg.HTTPAddr != "" {
		httpSrv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           httpapi.NewRouter(client.Session()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("httpapi: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx)
		}()
	}

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("service run failed: %v", err)
	}

	log.Println("shutting down...")
}
