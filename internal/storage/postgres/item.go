package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"content_collector/internal/domain"
)

type ItemStore struct {
	db *sqlx.DB
}

func NewItemStore(db *sqlx.DB) *ItemStore {
	return &ItemStore{db: db}
}

const itemColumns = `
	id, source_id, source_item_id, title, url, published_at, collected_at,
	raw_text, summary_text, category, region, tags, status,
	hash_content, hash_url, image_urls, meta, score_priority, owner_id`

// Insert persists a new item and returns its id. The caller is
// expected to have set the hashes and status already.
func (s *ItemStore) Insert(ctx context.Context, item *domain.Item) (int64, error) {
	meta, err := marshalMeta(item.Meta)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO items (
			source_id, source_item_id, title, url, published_at, collected_at,
			raw_text, summary_text, category, region, tags, status,
			hash_content, hash_url, image_urls, meta, score_priority, owner_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)
		RETURNING id`

	var id int64
	err = GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		item.SourceID,
		item.SourceItemID,
		item.Title,
		item.URL,
		item.PublishedAt,
		item.CollectedAt,
		item.RawText,
		item.SummaryText,
		item.Category,
		item.Region,
		pq.Array(item.Tags),
		item.Status,
		item.HashContent,
		item.HashURL,
		pq.Array(item.ImageURLs),
		meta,
		item.ScorePriority,
		item.OwnerID,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *ItemStore) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	query := `SELECT` + itemColumns + ` FROM items WHERE id = $1`

	row := s.db.QueryRowxContext(ctx, query, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return item, err
}

func (s *ItemStore) ExistsByURLHash(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM items WHERE hash_url = $1)`, hash)
	return exists, err
}

func (s *ItemStore) FirstByURLHash(ctx context.Context, hash string, excludeID int64) (*domain.Item, error) {
	return s.firstByHash(ctx, "hash_url", hash, excludeID)
}

func (s *ItemStore) FirstByContentHash(ctx context.Context, hash string, excludeID int64) (*domain.Item, error) {
	return s.firstByHash(ctx, "hash_content", hash, excludeID)
}

func (s *ItemStore) firstByHash(ctx context.Context, column, hash string, excludeID int64) (*domain.Item, error) {
	query := `SELECT` + itemColumns + ` FROM items
		WHERE ` + column + ` = $1 AND id <> $2
		ORDER BY id
		LIMIT 1`

	row := s.db.QueryRowxContext(ctx, query, hash, excludeID)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

// RecentBySource returns the newest items of a source by collection
// time.
func (s *ItemStore) RecentBySource(ctx context.Context, sourceID int64, limit int) ([]domain.Item, error) {
	query := `SELECT` + itemColumns + ` FROM items
		WHERE source_id = $1
		ORDER BY collected_at DESC
		LIMIT $2`

	rows, err := s.db.QueryxContext(ctx, query, sourceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateEnrichment stores the outputs of classification and
// summarization.
func (s *ItemStore) UpdateEnrichment(ctx context.Context, item *domain.Item) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, `
		UPDATE items SET
			summary_text = $2,
			category = $3,
			region = $4,
			tags = $5,
			score_priority = $6
		WHERE id = $1`,
		item.ID,
		item.SummaryText,
		item.Category,
		item.Region,
		pq.Array(item.Tags),
		item.ScorePriority,
	)
	return err
}

// UpdateStatus moves an item through the workflow. Illegal transitions
// fail without touching the row.
func (s *ItemStore) UpdateStatus(ctx context.Context, id int64, status string) error {
	exec := GetExecutor(ctx, s.db)

	var current string
	err := sqlx.GetContext(ctx, exec, &current,
		`SELECT status FROM items WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}

	if !domain.ValidStatusTransition(current, status) {
		return fmt.Errorf("illegal status transition %s -> %s", current, status)
	}

	_, err = exec.ExecContext(ctx,
		`UPDATE items SET status = $2 WHERE id = $1`, id, status)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var item domain.Item
	var tags, imageURLs pq.StringArray
	var meta []byte

	err := row.Scan(
		&item.ID,
		&item.SourceID,
		&item.SourceItemID,
		&item.Title,
		&item.URL,
		&item.PublishedAt,
		&item.CollectedAt,
		&item.RawText,
		&item.SummaryText,
		&item.Category,
		&item.Region,
		&tags,
		&item.Status,
		&item.HashContent,
		&item.HashURL,
		&imageURLs,
		&meta,
		&item.ScorePriority,
		&item.OwnerID,
	)
	if err != nil {
		return nil, err
	}

	item.Tags = tags
	item.ImageURLs = imageURLs
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &item.Meta); err != nil {
			return nil, fmt.Errorf("decode item meta: %w", err)
		}
	}
	return &item, nil
}

func marshalMeta(meta map[string]any) ([]byte, error) {
	if meta == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode item meta: %w", err)
	}
	return encoded, nil
}
