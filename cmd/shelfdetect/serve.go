package main

import (
	"github.com/redis/go-redis/v9"
	"github.com/shelfvision/go-shelfdetect"
	"github.com/shelfvision/go-shelfdetect/cache"
	"github.com/shelfvision/go-shelfdetect/history"
	"github.com/shelfvision/go-shelfdetect/server"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"os"
	"os/signal"
	"syscall"
)

// serve runs the HTTP API over a pool of detectors
func serve(c *cli.Context, log *zap.Logger) error {

	cfg, err := loadConfig(c)

	if err != nil {
		return err
	}

	if addr := c.String(flagAddr); addr != "" {
		cfg.Server.Addr = addr
	}

	opts, err := detectorOptions(cfg, log)

	if err != nil {
		return err
	}

	pool, err := shelfdetect.NewPool(cfg.Server.PoolSize, cfg, engineFactory(cfg, log), opts...)

	if err != nil {
		return err
	}

	defer pool.Close()

	srvOpts := []server.Option{
		server.WithLogger(log),
		server.WithMaxViewSize(cfg.MaxViewSize),
	}

	if cfg.Server.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Server.RedisAddr})
		defer rdb.Close()

		srvOpts = append(srvOpts, server.WithCache(
			cache.New(rdb, cfg.Server.CacheTTL, "", log)))

		log.Info("scene cache enabled", zap.String("redis", cfg.Server.RedisAddr))
	}

	if cfg.Server.HistoryDriver != "" {
		store, err := history.Open(cfg.Server.HistoryDriver, cfg.Server.HistoryDSN)

		if err != nil {
			return err
		}

		defer store.Close()

		srvOpts = append(srvOpts, server.WithHistory(store))

		log.Info("run history enabled", zap.String("driver", cfg.Server.HistoryDriver))
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(pool, srvOpts...).Run(ctx, cfg.Server.Addr)
}
