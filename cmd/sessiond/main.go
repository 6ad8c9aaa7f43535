package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/sessionguard/internal/api"
	"github.com/dmitrymomot/sessionguard/pkg/cleanup"
	"github.com/dmitrymomot/sessionguard/pkg/clientip"
	"github.com/dmitrymomot/sessionguard/pkg/config"
	"github.com/dmitrymomot/sessionguard/pkg/httpserver"
	"github.com/dmitrymomot/sessionguard/pkg/jwt"
	"github.com/dmitrymomot/sessionguard/pkg/logger"
	"github.com/dmitrymomot/sessionguard/pkg/mongo"
	"github.com/dmitrymomot/sessionguard/pkg/pg"
	"github.com/dmitrymomot/sessionguard/pkg/redis"
	"github.com/dmitrymomot/sessionguard/pkg/requestid"
	"github.com/dmitrymomot/sessionguard/pkg/session"
	"github.com/dmitrymomot/sessionguard/pkg/session/mongostore"
	"github.com/dmitrymomot/sessionguard/pkg/session/pgstore"
	"github.com/dmitrymomot/sessionguard/pkg/session/redisstore"
	"github.com/dmitrymomot/sessionguard/pkg/throttle"
)

type apiConfig struct {
	SessionHeader string   `env:"API_SESSION_HEADER" envDefault:"X-Session-ID"`
	AdminRole     string   `env:"API_ADMIN_ROLE" envDefault:"admin"`
	IPHeaders     []string `env:"API_CLIENT_IP_HEADERS" envSeparator:","`
	TrustProxy    bool     `env:"API_TRUST_PROXY_HEADERS" envDefault:"false"`
}

// clientIPResolver trusts proxy headers only when configured: an explicit
// header list wins, API_TRUST_PROXY_HEADERS enables the common proxy headers,
// and otherwise only the TCP peer address counts.
func clientIPResolver(cfg apiConfig) clientip.Resolver {
	switch {
	case len(cfg.IPHeaders) > 0:
		return clientip.FromHeaders(cfg.IPHeaders...)
	case cfg.TrustProxy:
		return clientip.GetIP
	default:
		return clientip.FromHeaders()
	}
}

type appConfig struct {
	Logger   logger.Config
	HTTP     httpserver.Config
	API      apiConfig
	Session  session.Config
	Throttle throttle.Config
	Cleanup  cleanup.Config
	JWT      jwt.Config
	Redis    redis.Config
	Mongo    mongo.Config
	Postgres pg.Config
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load[appConfig]()
	if err != nil {
		return err
	}

	log := logger.NewFromConfig(cfg.Logger, logger.WithContextExtractors(requestid.LoggerExtractor()))
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, readyChecks, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	registry, err := session.New(ctx, store,
		session.WithConfig(cfg.Session),
		session.WithLogger(log),
	)
	if err != nil {
		return err
	}

	thr, err := throttle.New(throttle.WithConfig(cfg.Throttle), throttle.WithLogger(log))
	if err != nil {
		return err
	}

	scheduler, err := cleanup.New(registry,
		cleanup.WithConfig(cfg.Cleanup),
		cleanup.WithThrottle(thr),
		cleanup.WithLogger(log),
	)
	if err != nil {
		return err
	}

	tokens, err := jwt.New(cfg.JWT)
	if err != nil {
		return err
	}

	router, err := api.NewRouter(api.Deps{
		Registry:    registry,
		Throttle:    thr,
		Scheduler:   scheduler,
		Verifier:    tokens,
		Transport:   session.NewHeaderTransport(cfg.API.SessionHeader),
		ClientIP:    clientIPResolver(cfg.API),
		AdminRole:   cfg.API.AdminRole,
		ReadyChecks: readyChecks,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))

	log.InfoContext(ctx, "starting sessiond",
		slog.String("addr", cfg.HTTP.Addr),
		slog.String("store", cfg.Session.StoreDriver),
		logger.Count("sessions_restored", registry.Stats().Total),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return scheduler.Start(ctx) })
	g.Go(func() error { return srv.Run(ctx, router) })
	return g.Wait()
}

// openStore connects the durable mirror selected by SESSION_STORE_DRIVER and
// returns its readiness checks and a release func.
func openStore(ctx context.Context, cfg appConfig, log *slog.Logger) (session.Store, []func(context.Context) error, func(), error) {
	noop := func() {}

	switch cfg.Session.StoreDriver {
	case "memory":
		return session.NewMemoryStore(), nil, noop, nil

	case "file":
		store, err := session.NewFileStore(cfg.Session.StoreDir, session.WithFileStoreLogger(log))
		if err != nil {
			return nil, nil, noop, err
		}
		return store, nil, noop, nil

	case "redis":
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, noop, err
		}
		store := redisstore.New(client,
			redisstore.WithPrefix(cfg.Redis.KeyPrefix),
			redisstore.WithTTL(2*cfg.Session.InactivityTimeout),
			redisstore.WithLogger(log),
		)
		release := func() { _ = client.Close() }
		return store, []func(context.Context) error{redis.Healthcheck(client)}, release, nil

	case "mongo":
		db, err := mongo.NewWithDatabase(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, noop, err
		}
		release := func() { _ = db.Client().Disconnect(context.Background()) }
		store := mongostore.New(db, mongostore.DefaultCollection, mongostore.WithLogger(log))
		if err := store.EnsureIndexes(ctx); err != nil {
			release()
			return nil, nil, noop, err
		}
		return store, []func(context.Context) error{mongo.Healthcheck(db.Client())}, release, nil

	case "postgres":
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, noop, err
		}
		if err := pgstore.Migrate(ctx, pool, cfg.Postgres, log); err != nil {
			pool.Close()
			return nil, nil, noop, err
		}
		return pgstore.New(pool), []func(context.Context) error{pg.Healthcheck(pool)}, pool.Close, nil

	default:
		return nil, nil, noop, errors.Join(session.ErrInvalidConfig,
			fmt.Errorf("unknown store driver %q", cfg.Session.StoreDriver))
	}
}
