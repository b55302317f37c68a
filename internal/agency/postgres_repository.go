package agency

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type agencyDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresRepository stores agencies in Postgres.
type PostgresRepository struct {
	db agencyDB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("agency: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithDB(db agencyDB) *PostgresRepository {
	if db == nil {
		panic("agency: db required")
	}
	return &PostgresRepository{db: db}
}

const selectAgencyColumns = `
	SELECT id, name, prompt, assistant_name,
		COALESCE(owner_name, ''), COALESCE(owner_email, ''), COALESCE(owner_phone, ''),
		COALESCE(password_hash, ''), plan, status, created_at
	FROM agencies
`

func (r *PostgresRepository) Create(ctx context.Context, a *Agency) error {
	query := `
		INSERT INTO agencies (id, name, prompt, assistant_name, owner_name, owner_email, owner_phone, password_hash, plan, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		a.ID,
		a.Name,
		a.Prompt,
		a.AssistantName,
		nullIfEmpty(a.OwnerName),
		nullIfEmpty(a.OwnerEmail),
		nullIfEmpty(a.OwnerPhone),
		nullIfEmpty(a.PasswordHash),
		a.Plan,
		a.Status,
	).Scan(&a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrOwnerEmailTaken
		}
		return fmt.Errorf("agency: insert failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Agency, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return r.scanOne(ctx, selectAgencyColumns+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByOwnerEmail(ctx context.Context, email string) (*Agency, error) {
	if email == "" {
		return nil, ErrNotFound
	}
	return r.scanOne(ctx, selectAgencyColumns+` WHERE lower(owner_email) = lower($1)`, email)
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, arg string) (*Agency, error) {
	var a Agency
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&a.ID,
		&a.Name,
		&a.Prompt,
		&a.AssistantName,
		&a.OwnerName,
		&a.OwnerEmail,
		&a.OwnerPhone,
		&a.PasswordHash,
		&a.Plan,
		&a.Status,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("agency: select failed: %w", err)
	}
	return &a, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM agencies WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("agency: exists check failed: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	ct, err := r.db.Exec(ctx, `UPDATE agencies SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("agency: update status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes leads and the agency in one transaction. The foreign key also
// cascades, the explicit delete keeps the behavior when it is missing.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("agency: begin delete: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM leads WHERE agency_id = $1`, id); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("agency: delete leads: %w", err)
	}
	ct, err := tx.Exec(ctx, `DELETE FROM agencies WHERE id = $1`, id)
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("agency: delete agency: %w", err)
	}
	if ct.RowsAffected() == 0 {
		_ = tx.Rollback(ctx)
		return ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("agency: commit delete: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
