package main

import (
	"context"
	"log/slog"
	"os"

	goredis "github.com/redis/go-redis/v9"

	"github.com/accountkit/accountd/internal/api"
	"github.com/accountkit/accountd/internal/auth"
	"github.com/accountkit/accountd/internal/user"
	"github.com/accountkit/accountd/pkg/config"
	"github.com/accountkit/accountd/pkg/cookie"
	"github.com/accountkit/accountd/pkg/httpserver"
	"github.com/accountkit/accountd/pkg/logger"
	"github.com/accountkit/accountd/pkg/pg"
	"github.com/accountkit/accountd/pkg/redis"
	"github.com/accountkit/accountd/pkg/session"
)

// appConfig covers the process-level knobs that do not belong to any one
// package.
type appConfig struct {
	// UserStoreDriver selects user persistence: postgres or memory. The
	// memory driver exists for local development without a database.
	UserStoreDriver string `env:"USER_STORE_DRIVER" envDefault:"postgres"`
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("accountd exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		appCfg     appConfig
		logCfg     logger.Config
		cookieCfg  cookie.Config
		sessionCfg session.Config
		serverCfg  httpserver.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&logCfg)
	config.MustLoad(&cookieCfg)
	config.MustLoad(&sessionCfg)
	config.MustLoad(&serverCfg)

	log := logger.NewFromConfig(logCfg, logger.WithService("accountd"))

	cookies, err := cookie.NewFromConfig(cookieCfg)
	if err != nil {
		return err
	}

	var health []func(context.Context) error

	// Shared session store only when configured; the memory store needs no
	// connection.
	var redisClient *goredis.Client
	if sessionCfg.StoreDriver == session.DriverRedis {
		var redisCfg redis.Config
		config.MustLoad(&redisCfg)

		redisClient, err = redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		health = append(health, redis.Healthcheck(redisClient))
	}

	sessions := session.NewFromConfig(sessionCfg, redisClient,
		session.WithCookieManager(cookies),
		session.WithLogger(log),
	)
	defer sessions.Close()

	var users user.Store
	switch appCfg.UserStoreDriver {
	case "memory":
		users = user.NewMemoryStore()
		log.Warn("using in-memory user store; accounts will not survive a restart")
	default:
		var pgCfg pg.Config
		config.MustLoad(&pgCfg)

		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			return err
		}

		users = user.NewPgStore(pool)
		health = append(health, pg.Healthcheck(pool))
	}

	resolver := auth.NewResolver(users, sessions, log)
	handler := api.NewHandler(users, sessions, resolver, log)

	srv := httpserver.NewFromConfig(serverCfg,
		httpserver.WithLogger(log),
		httpserver.WithStopHook(func(l *slog.Logger) {
			l.Info("http server stopped")
		}),
	)

	return srv.Run(ctx, handler.Router(ctx, health...))
}
