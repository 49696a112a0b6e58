package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"basegraph.app/suggestbox/common/id"
	"basegraph.app/suggestbox/common/logger"
	"basegraph.app/suggestbox/core/config"
	"basegraph.app/suggestbox/internal/cli"
	"basegraph.app/suggestbox/internal/search"
	"basegraph.app/suggestbox/internal/service"
	"basegraph.app/suggestbox/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.Setup(cfg)

	if err := id.Init(3); err != nil {
		return fmt.Errorf("initializing id generator: %w", err)
	}

	stores, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer stores.Close()

	var engine search.Engine
	if cfg.Search.Enabled() {
		meili := search.NewMeili(ctx, cfg.Search.MeiliURL, cfg.Search.MeiliKey, cfg.Search.Index)
		defer meili.Close()
		engine = meili
	}

	// Merge and delete events are not published from the CLI; the worker's
	// next reindex picks the changes up.
	services := service.NewServices(service.ServicesConfig{
		Stores: stores,
		Search: search.NewService(engine, stores.Suggestions()),
	})

	app := &cli.App{
		Suggestions: services.Suggestions(),
		Merges:      services.Merge(),
		Metrics:     services.Metrics(),
		Search:      services.Search(),
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
