// Command chatctl drives the group chat service from the shell and prints
// every result as JSON.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"group-chat/internal/config"
	"group-chat/internal/domain"
	"group-chat/internal/messaging"
	"group-chat/internal/observability"
	"group-chat/internal/repository/postgres"
	"group-chat/internal/repository/rediscache"
	"group-chat/internal/service"
	"group-chat/migrations"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	observability.InitLoggerWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := execute(ctx, cfg, os.Args[1:])
	if err != nil && !errors.Is(err, errUsage) {
		fmt.Fprintf(os.Stderr, "chatctl: %v\n", err)
	}
	stop()
	os.Exit(exitCode(err))
}

func execute(ctx context.Context, cfg *config.Config, args []string) error {
	connCtx, connCancel := context.WithTimeout(ctx, 10*time.Second)
	defer connCancel()

	db, err := config.NewPostgresConnection(connCtx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	var client *redis.Client
	if cfg.Broker == config.BrokerRedis || cfg.MemberCacheEnabled() {
		client, err = config.NewRedisClient(connCtx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
	}

	publisher, closePublisher, err := newPublisher(cfg, client)
	if err != nil {
		return err
	}
	defer closePublisher()

	memberRepo := postgres.NewMemberRepository(db)
	var members domain.MemberDirectory = memberRepo
	if cfg.MemberCacheEnabled() {
		members = rediscache.NewMemberDirectory(client, memberRepo, cfg.MemberCacheTTL)
		slog.Debug("member cache enabled", slog.Duration("ttl", cfg.MemberCacheTTL))
	}

	c := &cli{
		svc:     service.NewGroupChatService(postgres.NewTxManager(db), members, publisher),
		members: memberRepo,
		migrate: func(ctx context.Context) error { return migrations.Apply(ctx, db) },
		out:     os.Stdout,
		errOut:  os.Stderr,
	}

	err = c.run(ctx, args)
	observability.RecordDBStats(db.Stats())
	return err
}

func newPublisher(cfg *config.Config, client *redis.Client) (domain.EventPublisher, func(), error) {
	if cfg.Broker == config.BrokerRedis {
		return messaging.NewRedisPublisher(client), func() {}, nil
	}

	rmq, err := messaging.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		// Events are best-effort; the store remains the source of truth
		slog.Warn("rabbitmq unavailable, events will be dropped", slog.String("error", err.Error()))
		return discardPublisher{}, func() {}, nil
	}
	return rmq, func() { rmq.Close() }, nil
}

// discardPublisher stands in when no broker is reachable
type discardPublisher struct{}

func (discardPublisher) Publish(ctx context.Context, topic string, event *domain.ChatEvent) error {
	return fmt.Errorf("no broker connection for %s event", topic)
}
