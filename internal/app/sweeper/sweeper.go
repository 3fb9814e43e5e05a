// Package sweeper содержит логику фонового процесса, который снимает
// истёкшие тарифные планы и обнуляет остаток кредитов.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/wedmac/lead-marketplace/internal/cache"
	"github.com/wedmac/lead-marketplace/internal/config"
	"github.com/wedmac/lead-marketplace/internal/lib/rabbitmq"
	expiryservice "github.com/wedmac/lead-marketplace/internal/services/expiry"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

// App представляет приложение фоновой проверки тарифов.
type App struct {
	expiryService *expiryservice.Service
	interval      time.Duration
	conn          *amqp.Connection
	ch            *amqp.Channel
	db            *repository.Storage
	logger        *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	queues := rabbitmq.GetNotificationQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err := waitForDB(db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	expiryService := expiryservice.New(db, cacheRedis, logger)

	return &App{
		expiryService: expiryService,
		interval:      cfg.Sweep.Interval,
		conn:          conn,
		ch:            ch,
		db:            db,
		logger:        logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}

// Run запускает периодическую проверку истёкших тарифов.
func (a *App) Run(ctx context.Context) error {
	go a.expiryService.Run(ctx, a.ch, a.interval)

	<-ctx.Done()

	a.logger.Info("shutting down expiry sweeper")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", slog.Any("err", err))
	}

	return nil
}
