package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"basegraph.app/suggestbox/internal/model"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner runs fn inside a database transaction (core/db.DB satisfies it).
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type postgresSuggestionStore struct {
	pool querier
	tx   TxRunner
}

func newPostgresSuggestionStore(pool querier, tx TxRunner) SuggestionStore {
	return &postgresSuggestionStore{pool: pool, tx: tx}
}

const (
	selectSuggestion = `SELECT doc, version FROM suggestions WHERE id = $1`

	selectAllSuggestions = `SELECT doc, version FROM suggestions ORDER BY created_at ASC, id ASC`

	insertSuggestion = `INSERT INTO suggestions (id, doc, version, created_at) VALUES ($1, $2, 1, $3)`

	replaceSuggestion = `UPDATE suggestions
		SET doc = $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $3
		RETURNING version`

	deleteSuggestion = `DELETE FROM suggestions WHERE id = $1`

	suggestionExists = `SELECT EXISTS (SELECT 1 FROM suggestions WHERE id = $1)`
)

func (s *postgresSuggestionStore) FindByID(ctx context.Context, id string) (*model.Suggestion, error) {
	var (
		doc     []byte
		version int64
	)
	if err := s.pool.QueryRow(ctx, selectSuggestion, id).Scan(&doc, &version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading suggestion: %w", err)
	}
	return decodeRow(doc, version)
}

func (s *postgresSuggestionStore) FindAll(ctx context.Context) ([]model.Suggestion, error) {
	rows, err := s.pool.Query(ctx, selectAllSuggestions)
	if err != nil {
		return nil, fmt.Errorf("listing suggestions: %w", err)
	}
	defer rows.Close()

	var out []model.Suggestion
	for rows.Next() {
		var (
			doc     []byte
			version int64
		)
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, fmt.Errorf("scanning suggestion: %w", err)
		}
		sg, err := decodeRow(doc, version)
		if err != nil {
			return nil, err
		}
		out = append(out, *sg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating suggestions: %w", err)
	}
	return out, nil
}

func (s *postgresSuggestionStore) Create(ctx context.Context, sg *model.Suggestion) error {
	doc, err := json.Marshal(sg)
	if err != nil {
		return fmt.Errorf("encoding suggestion: %w", err)
	}
	if _, err := s.pool.Exec(ctx, insertSuggestion, sg.ID, doc, sg.Timestamp); err != nil {
		return fmt.Errorf("inserting suggestion: %w", err)
	}
	sg.Version = "1"
	return nil
}

func (s *postgresSuggestionStore) Replace(ctx context.Context, sg *model.Suggestion) error {
	return replaceWith(ctx, s.pool, sg)
}

func (s *postgresSuggestionStore) Delete(ctx context.Context, id string) error {
	return deleteWith(ctx, s.pool, id)
}

func (s *postgresSuggestionStore) ReplaceAndDelete(ctx context.Context, target *model.Suggestion, deleteID string) error {
	updated := *target
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		if err := replaceWith(ctx, tx, &updated); err != nil {
			return err
		}
		return deleteWith(ctx, tx, deleteID)
	})
	if err != nil {
		return err
	}
	target.Version = updated.Version
	return nil
}

func (s *postgresSuggestionStore) Ping(ctx context.Context) error {
	var one int
	return s.pool.QueryRow(ctx, `SELECT 1`).Scan(&one)
}

func replaceWith(ctx context.Context, q querier, sg *model.Suggestion) error {
	expected, err := strconv.ParseInt(sg.Version, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid version %q", ErrConflict, sg.Version)
	}

	doc, err := json.Marshal(sg)
	if err != nil {
		return fmt.Errorf("encoding suggestion: %w", err)
	}

	var version int64
	err = q.QueryRow(ctx, replaceSuggestion, sg.ID, doc, expected).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := q.QueryRow(ctx, suggestionExists, sg.ID).Scan(&exists); err != nil {
			return fmt.Errorf("checking suggestion: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("replacing suggestion: %w", err)
	}

	sg.Version = strconv.FormatInt(version, 10)
	return nil
}

func deleteWith(ctx context.Context, q querier, id string) error {
	tag, err := q.Exec(ctx, deleteSuggestion, id)
	if err != nil {
		return fmt.Errorf("deleting suggestion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeRow(doc []byte, version int64) (*model.Suggestion, error) {
	var sg model.Suggestion
	if err := json.Unmarshal(doc, &sg); err != nil {
		return nil, fmt.Errorf("decoding suggestion: %w", err)
	}
	sg.Version = strconv.FormatInt(version, 10)
	sg.Normalize()
	return &sg, nil
}
