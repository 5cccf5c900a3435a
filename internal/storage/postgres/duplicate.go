package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"content_collector/internal/domain"
)

type DuplicateStore struct {
	db *sqlx.DB
}

func NewDuplicateStore(db *sqlx.DB) *DuplicateStore {
	return &DuplicateStore{db: db}
}

// Insert records a duplicate edge. Re-inserting the same pair is a
// no-op, which keeps duplicate detection idempotent.
func (s *DuplicateStore) Insert(ctx context.Context, link *domain.DuplicateLink) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO duplicate_links (item_id, duplicate_of_item_id, reason, similarity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (item_id, duplicate_of_item_id) DO NOTHING`,
		link.ItemID,
		link.DuplicateOfItemID,
		link.Reason,
		link.Similarity,
	)
	return err
}

func (s *DuplicateStore) ListByItem(ctx context.Context, itemID int64) ([]domain.DuplicateLink, error) {
	query := `
		SELECT id, item_id, duplicate_of_item_id, reason, similarity, created_at
		FROM duplicate_links
		WHERE item_id = $1
		ORDER BY id`

	var links []domain.DuplicateLink
	err := s.db.SelectContext(ctx, &links, query, itemID)
	return links, err
}
