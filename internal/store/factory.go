package store

import (
	"context"
	"fmt"
	"log/slog"

	"basegraph.app/suggestbox/common/arangodb"
	"basegraph.app/suggestbox/core/config"
	"basegraph.app/suggestbox/core/db"
)

type Stores struct {
	suggestions SuggestionStore
	closers     []func()
}

// NewStores wraps an already constructed suggestion store.
func NewStores(suggestions SuggestionStore) *Stores {
	return &Stores{suggestions: suggestions}
}

// Open connects the backend selected by cfg.Backend and returns the stores
// bound to it. Close releases the underlying connections.
func Open(ctx context.Context, cfg config.StoreConfig) (*Stores, error) {
	switch cfg.Backend {
	case config.StoreBackendArangoDB:
		client, err := arangodb.New(ctx, arangodb.Config{
			URL:      cfg.ArangoDB.URL,
			Username: cfg.ArangoDB.Username,
			Password: cfg.ArangoDB.Password,
			Database: cfg.ArangoDB.Database,
		})
		if err != nil {
			return nil, fmt.Errorf("creating arangodb client: %w", err)
		}
		if err := client.EnsureDatabase(ctx); err != nil {
			return nil, fmt.Errorf("ensuring arangodb database: %w", err)
		}
		if err := client.EnsureCollection(ctx, cfg.ArangoDB.Collection); err != nil {
			return nil, fmt.Errorf("ensuring arangodb collection: %w", err)
		}
		slog.InfoContext(ctx, "arangodb store ready", "database", cfg.ArangoDB.Database, "collection", cfg.ArangoDB.Collection)
		return &Stores{
			suggestions: newArangoSuggestionStore(client, cfg.ArangoDB.Collection),
			closers:     []func(){func() { _ = client.Close() }},
		}, nil

	case config.StoreBackendPostgres:
		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, err
		}
		slog.InfoContext(ctx, "postgres store ready")
		return &Stores{
			suggestions: newPostgresSuggestionStore(database.Pool(), database),
			closers:     []func(){database.Close},
		}, nil

	case config.StoreBackendMemory:
		slog.WarnContext(ctx, "using in-memory store, data will not survive a restart")
		return NewStores(NewMemorySuggestionStore()), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func (s *Stores) Suggestions() SuggestionStore {
	return s.suggestions
}

func (s *Stores) Close() {
	for _, c := range s.closers {
		c()
	}
}
