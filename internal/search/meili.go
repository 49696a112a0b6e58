package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const healthInterval = 10 * time.Second

// Meili implements Engine via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	index   string
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the index. It never
// fails: when Meilisearch is unreachable the engine reports unhealthy and
// the background loop keeps probing.
func NewMeili(ctx context.Context, url, apiKey, index string) *Meili {
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		index:  index,
		done:   make(chan struct{}),
	}

	if _, err := m.client.Health(); err != nil {
		slog.WarnContext(ctx, "meilisearch unavailable, using store scan for search", "url", url, "error", err)
	} else {
		m.healthy.Store(true)
		m.configureIndex(ctx)
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex(ctx context.Context) {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: m.index, PrimaryKey: "id"}); err != nil {
		slog.DebugContext(ctx, "create index failed (may already exist)", "index", m.index, "error", err)
	}

	index := m.client.Index(m.index)
	filterable := []interface{}{"status", "departments", "isPinned"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		slog.WarnContext(ctx, "update filterable attributes failed", "index", m.index, "error", err)
	}
	searchable := []string{"title", "description", "comments"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		slog.WarnContext(ctx, "update searchable attributes failed", "index", m.index, "error", err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			switch {
			case err == nil && !wasHealthy:
				slog.Info("meilisearch recovered, reconfiguring index", "index", m.index)
				m.configureIndex(context.Background())
			case err != nil && wasHealthy:
				slog.Warn("meilisearch became unhealthy", "error", err)
			}
		}
	}
}

func (m *Meili) Close() {
	close(m.done)
}

func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

func (m *Meili) Search(q Query) ([]string, error) {
	if !m.healthy.Load() {
		return nil, fmt.Errorf("meilisearch unhealthy")
	}

	req := &meili.SearchRequest{
		IndexUID:             m.index,
		Query:                q.Text,
		Limit:                int64(q.limit()),
		AttributesToRetrieve: []string{"id"},
	}
	if q.Status != nil {
		req.Filter = fmt.Sprintf("status = %q", string(*q.Status))
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{req},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	var ids []string
	for _, result := range resp.Results {
		for _, hit := range result.Hits {
			raw, ok := hit["id"]
			if !ok {
				continue
			}
			var id string
			if err := json.Unmarshal(raw, &id); err == nil && id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func (m *Meili) Upsert(records []Record) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(m.index).AddDocuments(records, nil)
	return err
}

func (m *Meili) Delete(id string) error {
	_, err := m.client.Index(m.index).DeleteDocument(id, nil)
	return err
}
