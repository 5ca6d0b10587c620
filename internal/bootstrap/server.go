package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/matchtickets/api"
	"github.com/Domenick1991/matchtickets/config"
	"github.com/Domenick1991/matchtickets/internal/cache"
	"github.com/Domenick1991/matchtickets/internal/clock"
	"github.com/Domenick1991/matchtickets/internal/fallback"
	"github.com/Domenick1991/matchtickets/internal/kafka"
	"github.com/Domenick1991/matchtickets/internal/remote"
	"github.com/Domenick1991/matchtickets/internal/repository"
	"github.com/Domenick1991/matchtickets/internal/service/catalog"
	"github.com/Domenick1991/matchtickets/internal/service/session"
	"github.com/Domenick1991/matchtickets/internal/service/tickets"
	"github.com/Domenick1991/matchtickets/internal/service/validation"
	"github.com/Domenick1991/matchtickets/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// App holds the wired services of one device.
type App struct {
	Config     *config.Config
	Store      storage.Store
	Session    *session.Service
	Catalog    *catalog.Service
	Tickets    *tickets.Manager
	Validation *validation.Service

	redis    *redis.Client
	producer *kafka.Producer
	log      zerolog.Logger
}

// New opens the local store and wires every service against it. Redis and
// Kafka are optional: without them the catalog is not cached and no ticket
// events are published.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	store, err := storage.Open(ctx, cfg.Storage, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	client, err := remote.NewClient(cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSeconds)*time.Second, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("remote client: %w", err)
	}

	app := &App{Config: cfg, Store: store, log: log}

	var runnerOpts []fallback.Option
	if cfg.Breaker.Enabled {
		runnerOpts = append(runnerOpts, fallback.WithBreaker(fallback.NewBreaker("remote-api", fallback.BreakerSettings{
			MinRequests:    uint32(cfg.Breaker.MinRequests),
			FailureRatio:   cfg.Breaker.FailureRatio,
			Interval:       time.Duration(cfg.Breaker.IntervalSeconds) * time.Second,
			OpenFor:        time.Duration(cfg.Breaker.OpenSeconds) * time.Second,
			HalfOpenProbes: uint32(cfg.Breaker.HalfOpenProbes),
		}, clock.Real())))
	}
	runner := fallback.NewRunner(log, runnerOpts...)

	sessionOpts := []session.ServiceOption{session.WithRunner(runner), session.WithLogger(log)}
	if cfg.Session.OfflineAccounts {
		sessionOpts = append(sessionOpts, session.WithOfflineAccounts(repository.NewAccountRepository(store)))
	}
	app.Session = session.NewSessionService(client, repository.NewSessionRepository(store), sessionOpts...)

	var eventCache catalog.Cache
	if cfg.Redis.URL != "" || cfg.Redis.Addr != "" {
		rc, err := storage.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, catalog cache disabled")
		} else {
			app.redis = rc
			eventCache = cache.NewRedisCache(rc, time.Duration(cfg.Catalog.CacheTTLSeconds)*time.Second)
		}
	}
	app.Catalog = catalog.NewCatalogService(client, eventCache, catalog.WithLogger(log))

	ticketRepo := repository.NewTicketRepository(store)
	ticketOpts := []tickets.ManagerOption{tickets.WithRunner(runner), tickets.WithLogger(log)}
	validationOpts := []validation.ServiceOption{
		validation.WithRunner(runner),
		validation.WithSession(app.Session),
		validation.WithLogger(log),
	}
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.TicketEventsTopic != "" {
		app.producer = kafka.NewProducer(cfg.Kafka.Brokers, log)
		if err := app.producer.CheckConnection(ctx); err != nil {
			log.Warn().Err(err).Strs("brokers", cfg.Kafka.Brokers).Msg("kafka unreachable at startup")
		}
		ticketOpts = append(ticketOpts,
			tickets.WithProducer(app.producer, cfg.Kafka.TicketEventsTopic),
			tickets.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		)
		validationOpts = append(validationOpts, validation.WithProducer(app.producer, cfg.Kafka.TicketEventsTopic))
	}
	app.Tickets = tickets.NewManager(client, ticketRepo, app.Session, app.Catalog, ticketOpts...)
	app.Validation = validation.NewValidationService(client, ticketRepo, validationOpts...)

	return app, nil
}

func (a *App) Router(limiter *api.RateLimiter) http.Handler {
	return api.NewRouter(a.log, limiter, api.Handlers{
		Events:  api.NewEventHandler(a.Catalog),
		Auth:    api.NewAuthHandler(a.Session),
		Tickets: api.NewTicketHandler(a.Tickets),
		Verify:  api.NewVerifyHandler(a.Validation),
	})
}

func (a *App) Close() error {
	var errs []error
	if a.producer != nil {
		errs = append(errs, a.producer.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.Store.Close())
	return errors.Join(errs...)
}

// Serve runs the HTTP server on addr and blocks until ctx is canceled or the
// server fails.
func Serve(ctx context.Context, addr string, handler http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
