// Package appointmentscheduler собирает основное HTTP-приложение:
// хранилище, миграции, кеш, брокер, сервисы и сервер.
package appointmentscheduler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/appointment-scheduler/internal/cache"
	"github.com/magabrotheeeer/appointment-scheduler/internal/config"
	jwtlib "github.com/magabrotheeeer/appointment-scheduler/internal/lib/jwt"
	"github.com/magabrotheeeer/appointment-scheduler/internal/migrations"
	"github.com/magabrotheeeer/appointment-scheduler/internal/rabbitmq"
	appointmentservice "github.com/magabrotheeeer/appointment-scheduler/internal/services/appointment"
	authservice "github.com/magabrotheeeer/appointment-scheduler/internal/services/auth"
	notificationservice "github.com/magabrotheeeer/appointment-scheduler/internal/services/notification"
	providerservice "github.com/magabrotheeeer/appointment-scheduler/internal/services/provider"
	"github.com/magabrotheeeer/appointment-scheduler/internal/storage/repository"
)

// App держит ресурсы основного сервиса и управляет их жизненным циклом.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
}

// New инициализирует все зависимости и возвращает готовое приложение.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}
	if err = repository.CheckDatabaseReady(db); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetAppointmentQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(ch)

	maker := jwtlib.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	appointmentSvc := appointmentservice.NewAppointmentService(db, cacheRedis, publisher, logger, cfg.AppURL)
	providerSvc := providerservice.NewProviderService(db, cacheRedis, logger, cfg.AppURL)
	notificationSvc := notificationservice.NewNotificationService(db, logger)
	authSvc := authservice.NewAuthService(db, maker, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, maker, authSvc, appointmentSvc, providerSvc, notificationSvc)

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
	}, nil
}

// Run запускает HTTP-сервер и корректно гасит его по отмене контекста.
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
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", slog.Any("err", closeErr))
		}
		if closeErr := a.conn.Close(); closeErr != nil {
			a.logger.Error("failed to close rabbitmq connection", slog.Any("err", closeErr))
		}
		return err
	}
}
