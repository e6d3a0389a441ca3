package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/portfolio/backend/internal/model"
)

// ContactRepository defines the persistence interface for contact submissions.
type ContactRepository interface {
	Save(ctx context.Context, sub *model.ContactSubmission) error
	List(ctx context.Context, opts model.ContactListOptions) ([]*model.ContactSubmission, error)
	MarkRead(ctx context.Context, id string, read bool) error
}

// PgContactRepository is the PostgreSQL implementation of ContactRepository.
type PgContactRepository struct {
	pool *pgxpool.Pool
}

// NewPgContactRepository creates a PgContactRepository backed by the given pool.
func NewPgContactRepository(pool *pgxpool.Pool) *PgContactRepository {
	return &PgContactRepository{pool: pool}
}

var _ ContactRepository = (*PgContactRepository)(nil)

// Save inserts a contact_submissions row. The caller assigns ID and CreatedAt.
func (r *PgContactRepository) Save(ctx context.Context, sub *model.ContactSubmission) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO contact_submissions (id, name, email, subject, message, created_at, read)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sub.ID, sub.Name, sub.Email, sub.Subject, sub.Message, sub.CreatedAt, sub.Read,
	)
	if err != nil {
		return fmt.Errorf("insert contact submission: %w", err)
	}
	return nil
}

// List returns submissions newest first, filtered by read flag.
func (r *PgContactRepository) List(ctx context.Context, opts model.ContactListOptions) ([]*model.ContactSubmission, error) {
	var where string
	var args []any

	switch strings.TrimSpace(opts.Read) {
	case model.ReadFilterRead:
		where = "WHERE read = TRUE"
	case model.ReadFilterUnread:
		where = "WHERE read = FALSE"
	}

	args = append(args, opts.Limit, opts.Offset)
	query := `SELECT id, name, email, subject, message, created_at, read
	          FROM contact_submissions ` + where + `
	          ORDER BY created_at DESC
	          LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contact submissions: %w", err)
	}
	defer rows.Close()

	var subs []*model.ContactSubmission
	for rows.Next() {
		var s model.ContactSubmission
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Subject, &s.Message, &s.CreatedAt, &s.Read); err != nil {
			return nil, fmt.Errorf("scan contact submission: %w", err)
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}

// MarkRead sets the read flag. Returns ErrNotFound when no row has id.
func (r *PgContactRepository) MarkRead(ctx context.Context, id string, read bool) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE contact_submissions SET read = $2 WHERE id = $1`,
		id, read,
	)
	if err != nil {
		return fmt.Errorf("mark contact submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
