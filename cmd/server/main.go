package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"basegraph.app/suggestbox/common/blob"
	"basegraph.app/suggestbox/common/id"
	"basegraph.app/suggestbox/common/logger"
	"basegraph.app/suggestbox/common/otel"
	"basegraph.app/suggestbox/core/config"
	"basegraph.app/suggestbox/internal/auth"
	"basegraph.app/suggestbox/internal/http/middleware"
	httprouter "basegraph.app/suggestbox/internal/http/router"
	"basegraph.app/suggestbox/internal/queue"
	"basegraph.app/suggestbox/internal/search"
	"basegraph.app/suggestbox/internal/service"
	"basegraph.app/suggestbox/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "suggestbox starting", "env", cfg.Env, "store", cfg.Store.Backend)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	stores, err := store.Open(ctx, cfg.Store)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open store", "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	blobs, uploadDir, err := openBlobStore(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set up upload storage", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "upload storage ready", "backend", blobs.Backend())

	var producer queue.Producer = queue.NoopProducer{}
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
		slog.InfoContext(ctx, "redis connected", "stream", cfg.Events.RedisStream)
		producer = queue.NewRedisProducer(redisClient, cfg.Events.RedisStream, slog.Default())
	} else {
		slog.InfoContext(ctx, "redis disabled, suggestion events are not published")
	}
	defer producer.Close()

	var engine search.Engine
	if cfg.Search.Enabled() {
		meili := search.NewMeili(ctx, cfg.Search.MeiliURL, cfg.Search.MeiliKey, cfg.Search.Index)
		defer meili.Close()
		engine = meili
	}

	services := service.NewServices(service.ServicesConfig{
		Stores:         stores,
		Blobs:          blobs,
		Events:         producer,
		Search:         search.NewService(engine, stores.Suggestions()),
		UploadMaxBytes: cfg.Upload.MaxBytes,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services, stores, uploadDir)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

// openBlobStore prefers the S3-compatible bucket and falls back to local
// disk, returning the directory the router should serve in that case.
func openBlobStore(ctx context.Context, cfg config.Config) (blob.Store, string, error) {
	if cfg.Blob.Enabled() {
		s, err := blob.NewMinioStore(ctx, blob.MinioConfig{
			Endpoint:  cfg.Blob.Endpoint,
			AccessKey: cfg.Blob.AccessKey,
			SecretKey: cfg.Blob.SecretKey,
			Bucket:    cfg.Blob.Bucket,
			UseSSL:    cfg.Blob.UseSSL,
			PublicURL: cfg.Blob.PublicURL,
		})
		return s, "", err
	}

	slog.WarnContext(ctx, "no blob storage configured, writing uploads to local disk", "dir", cfg.Upload.Dir)
	s, err := blob.NewLocalStore(cfg.Upload.Dir, cfg.Upload.PublicPath)
	if err != nil {
		return nil, "", err
	}
	return s, s.Dir(), nil
}

func setupRouter(cfg config.Config, services *service.Services, stores *store.Stores, uploadDir string) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		IsProduction:     cfg.IsProduction(),
		Extractor:        auth.NewExtractor(cfg.Auth),
		Readiness:        stores.Suggestions(),
		UploadDir:        uploadDir,
		UploadPublicPath: cfg.Upload.PublicPath,
	})

	return router
}

const banner = `
 ___ _   _  ___  ___ ___ ___ _____ ___  _____  __
/ __| | | |/ __|/ __| __/ __|_   _| _ )/ _ \ \/ /
\__ \ |_| | (_ | (_ | _|\__ \ | | | _ \ (_) >  <
|___/\___/ \___|\___|___|___/ |_| |___/\___/_/\_\
`
