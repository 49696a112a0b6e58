package arangodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/arangodb/shared"
	"github.com/arangodb/go-driver/v2/connection"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrRevisionMismatch is returned when an IfMatch revision no longer matches.
	ErrRevisionMismatch = errors.New("document revision mismatch")
)

// Client is a thin document-collection client. Revisions returned by the
// write methods are ArangoDB _rev values usable as IfMatch tokens.
type Client interface {
	// Setup operations
	EnsureDatabase(ctx context.Context) error
	EnsureCollection(ctx context.Context, name string) error

	// Document operations
	ReadDocument(ctx context.Context, collection, key string, out any) (string, error)
	CreateDocument(ctx context.Context, collection string, doc any) (string, error)
	ReplaceDocument(ctx context.Context, collection, key string, doc any, ifMatch string) (string, error)
	DeleteDocument(ctx context.Context, collection, key string) error
	Query(ctx context.Context, query string, bindVars map[string]any) ([]json.RawMessage, error)

	// ReplaceAndDelete replaces key (guarded by ifMatch) and deletes
	// deleteKey inside one stream transaction.
	ReplaceAndDelete(ctx context.Context, collection, key string, doc any, ifMatch, deleteKey string) (string, error)

	// Utility
	Ping(ctx context.Context) error
	Close() error
}

type Config struct {
	URL      string
	Username string
	Password string
	Database string
}

func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("arangodb URL is required")
	}
	if c.Username == "" {
		return fmt.Errorf("arangodb username is required")
	}
	if c.Database == "" {
		return fmt.Errorf("arangodb database name is required")
	}
	return nil
}

type client struct {
	conn         connection.Connection
	arangoClient arangodb.Client
	db           arangodb.Database
	cfg          Config
}

func New(ctx context.Context, cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("arangodb config: %w", err)
	}

	endpoint := connection.NewRoundRobinEndpoints([]string{cfg.URL})
	conn := connection.NewHttp2Connection(connection.DefaultHTTP2ConfigurationWrapper(endpoint, true))

	auth := connection.NewBasicAuth(cfg.Username, cfg.Password)
	if err := conn.SetAuthentication(auth); err != nil {
		return nil, fmt.Errorf("arangodb auth: %w", err)
	}

	return &client{
		conn:         conn,
		arangoClient: arangodb.NewClient(conn),
		cfg:          cfg,
	}, nil
}

func (c *client) Close() error {
	return nil
}

func (c *client) Ping(ctx context.Context) error {
	if _, err := c.arangoClient.Version(ctx); err != nil {
		return fmt.Errorf("arangodb version: %w", err)
	}
	return nil
}

func (c *client) EnsureDatabase(ctx context.Context) error {
	start := time.Now()

	exists, err := c.arangoClient.DatabaseExists(ctx, c.cfg.Database)
	if err != nil {
		return fmt.Errorf("check database exists: %w", err)
	}

	if !exists {
		_, err = c.arangoClient.CreateDatabase(ctx, c.cfg.Database, nil)
		if err != nil {
			return fmt.Errorf("create database: %w", err)
		}
		slog.InfoContext(ctx, "arangodb database created",
			"database", c.cfg.Database,
			"duration_ms", time.Since(start).Milliseconds())
	}

	db, err := c.arangoClient.GetDatabase(ctx, c.cfg.Database, nil)
	if err != nil {
		return fmt.Errorf("get database: %w", err)
	}
	c.db = db

	return nil
}

func (c *client) EnsureCollection(ctx context.Context, name string) error {
	if c.db == nil {
		return fmt.Errorf("database not initialized, call EnsureDatabase first")
	}

	exists, err := c.db.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection %s exists: %w", name, err)
	}
	if exists {
		return nil
	}

	colType := arangodb.CollectionTypeDocument
	if _, err := c.db.CreateCollectionV2(ctx, name, &arangodb.CreateCollectionPropertiesV2{Type: &colType}); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	slog.InfoContext(ctx, "arangodb collection created", "collection", name)

	return nil
}

func (c *client) collection(ctx context.Context, name string) (arangodb.Collection, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database not initialized, call EnsureDatabase first")
	}
	col, err := c.db.GetCollection(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", name, err)
	}
	return col, nil
}

func (c *client) ReadDocument(ctx context.Context, collection, key string, out any) (string, error) {
	col, err := c.collection(ctx, collection)
	if err != nil {
		return "", err
	}

	meta, err := col.ReadDocument(ctx, key, out)
	if err != nil {
		return "", mapError(err)
	}
	return meta.Rev, nil
}

func (c *client) CreateDocument(ctx context.Context, collection string, doc any) (string, error) {
	col, err := c.collection(ctx, collection)
	if err != nil {
		return "", err
	}

	resp, err := col.CreateDocument(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	return resp.Rev, nil
}

func (c *client) ReplaceDocument(ctx context.Context, collection, key string, doc any, ifMatch string) (string, error) {
	col, err := c.collection(ctx, collection)
	if err != nil {
		return "", err
	}
	return replace(ctx, col, key, doc, ifMatch)
}

func (c *client) DeleteDocument(ctx context.Context, collection, key string) error {
	col, err := c.collection(ctx, collection)
	if err != nil {
		return err
	}

	if _, err := col.DeleteDocument(ctx, key); err != nil {
		return mapError(err)
	}
	return nil
}

func (c *client) Query(ctx context.Context, query string, bindVars map[string]any) ([]json.RawMessage, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database not initialized, call EnsureDatabase first")
	}

	start := time.Now()
	cursor, err := c.db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: bindVars,
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer cursor.Close()

	var docs []json.RawMessage
	for cursor.HasMore() {
		var doc json.RawMessage
		if _, err := cursor.ReadDocument(ctx, &doc); err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		docs = append(docs, doc)
	}

	slog.DebugContext(ctx, "arangodb query completed",
		"documents", len(docs),
		"duration_ms", time.Since(start).Milliseconds())

	return docs, nil
}

func (c *client) ReplaceAndDelete(ctx context.Context, collection, key string, doc any, ifMatch, deleteKey string) (string, error) {
	if c.db == nil {
		return "", fmt.Errorf("database not initialized, call EnsureDatabase first")
	}

	tx, err := c.db.BeginTransaction(ctx, arangodb.TransactionCollections{
		Write: []string{collection},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}

	rev, err := func() (string, error) {
		col, err := tx.GetCollection(ctx, collection, nil)
		if err != nil {
			return "", fmt.Errorf("get collection %s: %w", collection, err)
		}
		rev, err := replace(ctx, col, key, doc, ifMatch)
		if err != nil {
			return "", err
		}
		if _, err := col.DeleteDocument(ctx, deleteKey); err != nil {
			return "", mapError(err)
		}
		return rev, nil
	}()
	if err != nil {
		if abortErr := tx.Abort(ctx, nil); abortErr != nil {
			slog.WarnContext(ctx, "arangodb transaction abort failed", "error", abortErr)
		}
		return "", err
	}

	if err := tx.Commit(ctx, nil); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}
	return rev, nil
}

func replace(ctx context.Context, col arangodb.Collection, key string, doc any, ifMatch string) (string, error) {
	resp, err := col.ReplaceDocumentWithOptions(ctx, key, doc, &arangodb.CollectionDocumentReplaceOptions{
		IfMatch: ifMatch,
	})
	if err != nil {
		return "", mapError(err)
	}
	return resp.Rev, nil
}

func mapError(err error) error {
	switch {
	case shared.IsNotFound(err):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case shared.IsPreconditionFailed(err):
		return fmt.Errorf("%w: %v", ErrRevisionMismatch, err)
	default:
		return err
	}
}
