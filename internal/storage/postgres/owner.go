package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"content_collector/internal/domain"
)

type OwnerStore struct {
	db *sqlx.DB
}

func NewOwnerStore(db *sqlx.DB) *OwnerStore {
	return &OwnerStore{db: db}
}

func (s *OwnerStore) Get(ctx context.Context, id int64) (*domain.Owner, error) {
	var owner domain.Owner
	query := `SELECT id, username, role, expires_at FROM owners WHERE id = $1`

	err := s.db.GetContext(ctx, &owner, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("owner %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &owner, nil
}
