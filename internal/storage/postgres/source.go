package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"content_collector/internal/domain"
)

var ErrNotFound = errors.New("not found")

type SourceStore struct {
	db *sqlx.DB
}

func NewSourceStore(db *sqlx.DB) *SourceStore {
	return &SourceStore{db: db}
}

const sourceColumns = `id, name, type, base_url, enabled, collect_interval, last_collected_at, crawl_policy, owner_id, created_at`

func (s *SourceStore) Get(ctx context.Context, id int64) (*domain.Source, error) {
	var source domain.Source
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE id = $1`

	err := s.db.GetContext(ctx, &source, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("source %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &source, nil
}

func (s *SourceStore) ListEnabled(ctx context.Context) ([]domain.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE enabled ORDER BY id`

	var sources []domain.Source
	err := s.db.SelectContext(ctx, &sources, query)
	return sources, err
}

func (s *SourceStore) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sources SET enabled = $2 WHERE id = $1`,
		id, enabled,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("source %d: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateLastCollected stamps the start time of the collection run that
// just finished.
func (s *SourceStore) UpdateLastCollected(ctx context.Context, id int64, at time.Time) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE sources SET last_collected_at = $2 WHERE id = $1`,
		id, at,
	)
	return err
}
