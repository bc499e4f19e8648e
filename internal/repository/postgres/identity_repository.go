package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/farmrisk/internal/domain"
	"github.com/lib/pq"
)

type identityRepository struct {
	db *DB
}

func NewIdentityRepository(db *DB) *identityRepository {
	return &identityRepository{db: db}
}

func (r *identityRepository) FindUser(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user, `SELECT id, full_name, email, role FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return &user, nil
}

func (r *identityRepository) FindUsers(ctx context.Context, ids []int64) ([]domain.User, error) {
	users := make([]domain.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	query := `SELECT id, full_name, email, role FROM users WHERE id = ANY($1::bigint[]) ORDER BY id`
	if err := r.db.SelectContext(ctx, &users, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("error getting users: %w", err)
	}
	return users, nil
}

func (r *identityRepository) FindFarm(ctx context.Context, id int64) (*domain.Farm, error) {
	var farm domain.Farm
	err := r.db.GetContext(ctx, &farm, `SELECT id, name, owner_user_id FROM farms WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("farm", id)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting farm: %w", err)
	}
	return &farm, nil
}
