package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"basegraph.app/suggestbox/common/id"
	"basegraph.app/suggestbox/common/logger"
	"basegraph.app/suggestbox/common/otel"
	"basegraph.app/suggestbox/core/config"
	"basegraph.app/suggestbox/internal/queue"
	"basegraph.app/suggestbox/internal/search"
	"basegraph.app/suggestbox/internal/service"
	"basegraph.app/suggestbox/internal/store"
	"basegraph.app/suggestbox/internal/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger.Setup(cfg)

	slog.InfoContext(ctx, "suggestbox worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Events.RedisGroup,
		"consumer_name", cfg.Events.RedisConsumer)

	// Different node id than the server so ids never collide.
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	stores, err := store.Open(ctx, cfg.Store)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open store", "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	var engine search.Engine
	if cfg.Search.Enabled() {
		meili := search.NewMeili(ctx, cfg.Search.MeiliURL, cfg.Search.MeiliKey, cfg.Search.Index)
		defer meili.Close()
		engine = meili
	}
	searchService := search.NewService(engine, stores.Suggestions())

	var (
		wg      sync.WaitGroup
		events  service.EventPublisher
		stopFns []func()
	)

	if cfg.Events.Enabled() {
		redisOpts, err := redis.ParseURL(cfg.Events.RedisURL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		slog.InfoContext(ctx, "redis connected", "stream", cfg.Events.RedisStream)

		events = queue.NewRedisProducer(redisClient, cfg.Events.RedisStream, slog.Default())

		consumer, err := queue.NewRedisConsumer(ctx, redisClient, queue.ConsumerConfig{
			Stream:       cfg.Events.RedisStream,
			Group:        cfg.Events.RedisGroup,
			Consumer:     cfg.Events.RedisConsumer,
			DLQStream:    cfg.Events.RedisDLQStream,
			BatchSize:    10,
			Block:        5 * time.Second,
			MaxAttempts:  cfg.Worker.MaxAttempts,
			RequeueDelay: time.Second,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to create consumer", "error", err)
			os.Exit(1)
		}

		w := worker.New(consumer, worker.NewSearchSyncProcessor(searchService), worker.Config{
			MaxAttempts: cfg.Worker.MaxAttempts,
		})

		reclaimer := worker.NewRedisReclaimer(redisClient, worker.RedisReclaimerConfig{
			Stream:    cfg.Events.RedisStream,
			Group:     cfg.Events.RedisGroup,
			Consumer:  cfg.Events.RedisConsumer + "-reclaimer",
			MinIdle:   cfg.Worker.ReclaimMinIdle,
			Interval:  cfg.Worker.ReclaimInterval,
			BatchSize: 10,
		}, consumer, w.ProcessMessage)

		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				slog.ErrorContext(ctx, "worker stopped with error", "error", err)
			}
		}()
		go func() {
			defer wg.Done()
			reclaimer.Run(ctx)
		}()
		stopFns = append(stopFns, reclaimer.Stop, w.Stop)
	} else {
		slog.WarnContext(ctx, "redis disabled, only the merge recovery sweep will run")
	}

	merges := service.NewMergeService(stores.Suggestions(), events, id.NewString, time.Now, 0)
	sweeper := worker.NewSweeper(merges, cfg.Worker.MergeSweepInterval)
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()
	stopFns = append(stopFns, sweeper.Stop)

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	for _, stop := range stopFns {
		stop()
	}
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(shutdownCtx, "shutdown timeout exceeded")
	case <-done:
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "worker shutdown complete")
}

const banner = `
 ___ _   _  ___  ___ ___ ___ _____   __      _____  ___ _  _____ ___
/ __| | | |/ __|/ __| __/ __|_   _|  \ \    / / _ \| _ \ |/ / __| _ \
\__ \ |_| | (_ | (_ | _|\__ \ | |     \ \/\/ / (_) |   / ' <| _||   /
|___/\___/ \___|\___|___|___/ |_|      \_/\_/ \___/|_|_\_|\_\___|_|_\
`
