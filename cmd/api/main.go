package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/threat-desk/backend/internal/config"
	"github.com/zhouzirui/threat-desk/backend/internal/feed"
	"github.com/zhouzirui/threat-desk/backend/internal/handler"
	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
	"github.com/zhouzirui/threat-desk/backend/internal/service/conversation"
	"github.com/zhouzirui/threat-desk/backend/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	var seed []threat.Alert
	if cfg.Feed.SeedFile != "" {
		seed, err = feed.LoadSeed(cfg.Feed.SeedFile)
		if err != nil {
			logger.Fatal("failed to load threat seed", zap.Error(err))
		}
		logger.Info("threat seed loaded", zap.Int("alerts", len(seed)))
	}

	alerts := threat.NewFeed(seed)
	sessions := conversation.NewManager(alerts, conversation.Options{
		Delay:   conversation.RandomDelay(cfg.Assistant.MinDelay, cfg.Assistant.MaxDelay, nil),
		Resolve: alerts.Dismiss,
		Logger:  logger,
	})
	alerts.OnChange(sessions.ObserveThreats)

	g, gctx := errgroup.WithContext(ctx)

	router := handler.NewRouter(sessions, alerts, cfg.Server.HeartbeatInterval, logger)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		// Live streams end with the process instead of stalling Shutdown.
		BaseContext: func(net.Listener) context.Context { return gctx },
	}

	closeFeeds := startFeeds(gctx, g, cfg.Feed, alerts, logger)
	defer closeFeeds()

	g.Go(func() error {
		logger.Info("threat desk backend listening", zap.String("addr", srv.Addr))
		return runServer(gctx, srv)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
	}
	sessions.Wait()
}

// startFeeds connects the optional alert subscriptions. Failures are logged
// and the service keeps running on the HTTP feed alone.
func startFeeds(ctx context.Context, g *errgroup.Group, cfg config.FeedConfig, alerts *threat.Feed, logger *zap.Logger) func() {
	var closers []func()

	if cfg.NATSEnabled() {
		src, err := feed.NewNATSSource(cfg.NATSURL, cfg.NATSToken, cfg.NATSSubject, alerts, logger)
		if err != nil {
			logger.Warn("nats alert feed unavailable", zap.Error(err))
		} else {
			closers = append(closers, func() {
				if err := src.Close(); err != nil {
					logger.Warn("closing nats feed", zap.Error(err))
				}
			})
		}
	} else {
		logger.Info("NATS_URL not set, skipping nats alert feed")
	}

	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		src := feed.NewRedisSource(rdb, cfg.RedisChannel, alerts, logger)
		g.Go(func() error {
			if err := src.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("redis alert feed stopped", zap.Error(err))
			}
			return nil
		})
		closers = append(closers, func() { _ = rdb.Close() })
	} else {
		logger.Info("REDIS_ADDR not set, skipping redis alert feed")
	}

	return func() {
		for _, c := range closers {
			c()
		}
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
