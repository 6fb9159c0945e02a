package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"group-chat/internal/config"
	"group-chat/internal/domain"
	"group-chat/internal/handler"
	"group-chat/internal/messaging"
	"group-chat/internal/middleware"
	"group-chat/internal/observability"
	"group-chat/internal/repository/postgres"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	observability.InitLogger(cfg.LogLevel, cfg.LogFormat)

	slog.Info("starting event relay", slog.String("broker", cfg.Broker))

	connCtx, connCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer connCancel()

	db, err := config.NewPostgresConnection(connCtx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to postgresql")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := newRelay(postgres.NewRoomRepository(db), cfg.RelayEventsPerSecond)

	var (
		probe handler.BrokerProbe
		wait  func()
	)

	switch cfg.Broker {
	case config.BrokerRedis:
		client, err := config.NewRedisClient(connCtx, cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer client.Close()

		sub := messaging.NewRedisSubscriber(client, r.handle)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := sub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("redis subscriber stopped", slog.String("error", err.Error()))
				cancel()
			}
		}()
		probe, wait = sub, func() { <-done }

	default:
		rmqCtx, rmqCancel := context.WithTimeout(ctx, 60*time.Second)
		defer rmqCancel()

		rmq, err := messaging.NewRabbitMQWithRetry(rmqCtx, cfg.RabbitMQURL)
		if err != nil {
			slog.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer rmq.Close()

		consumer := messaging.NewEventConsumer(rmq, messaging.DefaultRelayGroup, r.handle)
		if err := consumer.Start(ctx); err != nil {
			slog.Error("failed to start event consumer", slog.String("error", err.Error()))
			os.Exit(1)
		}
		probe, wait = rmq, consumer.Wait
	}
	slog.Info("event relay consuming", slog.Any("topics", domain.Topics))

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.Metrics())

	router.Get("/health", handler.Health)
	router.Get("/health/ready", handler.Ready(db, probe))
	router.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         ":" + cfg.OpsPort,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("ops server listening", slog.String("port", cfg.OpsPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("ops server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	slog.Info("shutting down event relay")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("ops server shutdown error", slog.String("error", err.Error()))
	}

	cancel()
	wait()

	slog.Info("event relay stopped")
}
