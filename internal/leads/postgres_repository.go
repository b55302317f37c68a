package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type leadsDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db leadsDB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithDB(db leadsDB) *PostgresRepository {
	if db == nil {
		panic("leads: db required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new row. The agency foreign key rejects orphans.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(req.AgencyID); err != nil {
		return nil, ErrUnknownAgency
	}

	id := uuid.New().String()
	lead := req.toLead(id, time.Time{})
	query := `
		INSERT INTO leads (id, agency_id, name, email, phone, budget, message, trigger)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	if err := r.db.QueryRow(ctx, query,
		lead.ID,
		lead.AgencyID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Budget,
		lead.Message,
		lead.Trigger,
	).Scan(&lead.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrUnknownAgency
		}
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}
	return lead, nil
}

// ListByAgency returns leads newest first.
func (r *PostgresRepository) ListByAgency(ctx context.Context, agencyID string, filter ListFilter) ([]*Lead, error) {
	if _, err := uuid.Parse(agencyID); err != nil {
		return []*Lead{}, nil
	}
	query := `
		SELECT id, agency_id, name, email, phone, budget, message, trigger, created_at
		FROM leads
		WHERE agency_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2
	`
	args := []any{agencyID, filter.Offset}
	if filter.Limit > 0 {
		query += ` LIMIT $3`
		args = append(args, filter.Limit)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Lead{}
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(
			&lead.ID,
			&lead.AgencyID,
			&lead.Name,
			&lead.Email,
			&lead.Phone,
			&lead.Budget,
			&lead.Message,
			&lead.Trigger,
			&lead.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, &lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: iterate failed: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) CountByAgency(ctx context.Context, agencyID string) (int, error) {
	if _, err := uuid.Parse(agencyID); err != nil {
		return 0, nil
	}
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM leads WHERE agency_id = $1`, agencyID).Scan(&n); err != nil {
		return 0, fmt.Errorf("leads: count failed: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) DeleteByAgency(ctx context.Context, agencyID string) (int64, error) {
	if _, err := uuid.Parse(agencyID); err != nil {
		return 0, nil
	}
	ct, err := r.db.Exec(ctx, `DELETE FROM leads WHERE agency_id = $1`, agencyID)
	if err != nil {
		return 0, fmt.Errorf("leads: delete failed: %w", err)
	}
	return ct.RowsAffected(), nil
}
