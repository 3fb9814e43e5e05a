// Package leadmarketplace собирает и запускает основное HTTP-приложение
// маркетплейса лидов.
package leadmarketplace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/wedmac/lead-marketplace/internal/cache"
	"github.com/wedmac/lead-marketplace/internal/config"
	"github.com/wedmac/lead-marketplace/internal/lib/jwt"
	"github.com/wedmac/lead-marketplace/internal/lib/rabbitmq"
	"github.com/wedmac/lead-marketplace/internal/migrations"
	"github.com/wedmac/lead-marketplace/internal/paymentgateway"
	artistservice "github.com/wedmac/lead-marketplace/internal/services/artist"
	creditservice "github.com/wedmac/lead-marketplace/internal/services/credit"
	distributionservice "github.com/wedmac/lead-marketplace/internal/services/distribution"
	falseclaimservice "github.com/wedmac/lead-marketplace/internal/services/falseclaim"
	leadservice "github.com/wedmac/lead-marketplace/internal/services/lead"
	subscriptionservice "github.com/wedmac/lead-marketplace/internal/services/subscription"
	"github.com/wedmac/lead-marketplace/internal/storage/repository"
)

// App представляет основное HTTP-приложение.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New создает новый экземпляр приложения.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	gateway := paymentgateway.NewClient(cfg.PaymentGateway.KeyID, cfg.PaymentGateway.KeySecret)

	artistService := artistservice.New(db, jwtMaker, logger)
	leadService := leadservice.New(db, cacheRedis, logger)
	creditService := creditservice.New(db, cacheRedis, logger)
	subscriptionService := subscriptionservice.New(db, gateway, cacheRedis, cfg.PaymentGateway.KeyID, logger)
	falseclaimService := falseclaimservice.New(db, logger)
	distributionService := distributionservice.New(db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, db, jwtMaker, ch,
		artistService, leadService, creditService,
		subscriptionService, falseclaimService, distributionService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if cerr := a.ch.Close(); cerr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", cerr))
		}
		if cerr := a.conn.Close(); cerr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", cerr))
		}
		if cerr := a.db.DB.Close(); cerr != nil {
			a.logger.Error("failed to close storage", slog.Any("err", cerr))
		}
		return err
	}
}
