package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/portfolio/backend/internal/model"
)

// StatusRepository handles persistence for status_checks.
type StatusRepository interface {
	Create(ctx context.Context, check *model.StatusCheck) error
	List(ctx context.Context, limit int) ([]*model.StatusCheck, error)
}

type pgStatusRepository struct {
	pool *pgxpool.Pool
}

// NewPgStatusRepository returns a PostgreSQL-backed StatusRepository.
func NewPgStatusRepository(pool *pgxpool.Pool) StatusRepository {
	return &pgStatusRepository{pool: pool}
}

func (r *pgStatusRepository) Create(ctx context.Context, check *model.StatusCheck) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO status_checks (id, client_name, timestamp) VALUES ($1, $2, $3)`,
		check.ID, check.ClientName, check.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert status check: %w", err)
	}
	return nil
}

func (r *pgStatusRepository) List(ctx context.Context, limit int) ([]*model.StatusCheck, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_name, timestamp
		FROM status_checks
		ORDER BY timestamp ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list status checks: %w", err)
	}
	defer rows.Close()

	var checks []*model.StatusCheck
	for rows.Next() {
		c := &model.StatusCheck{}
		if err := rows.Scan(&c.ID, &c.ClientName, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("scan status check: %w", err)
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}
