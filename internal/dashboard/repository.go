package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/leads"
)

var errInvalidRange = errors.New("dashboard: invalid time range")

// LeadDay is the lead count for one UTC day, split by qualification trigger.
type LeadDay struct {
	Day        time.Time `json:"-"`
	DayLabel   string    `json:"day"`
	Leads      int64     `json:"leads"`
	Fields     int64     `json:"fields"`
	Engagement int64     `json:"engagement"`
}

// Repository reports lead activity for one agency.
type Repository interface {
	LeadsByDay(ctx context.Context, agencyID string, start, end time.Time) ([]LeadDay, error)
}

type dashboardDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository aggregates leads in the database.
type PostgresRepository struct {
	db dashboardDB
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("dashboard: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithDB(db dashboardDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func validateWindow(agencyID string, start, end time.Time) error {
	if strings.TrimSpace(agencyID) == "" {
		return fmt.Errorf("dashboard: agency_id required")
	}
	if !end.After(start) {
		return errInvalidRange
	}
	return nil
}

func (r *PostgresRepository) LeadsByDay(ctx context.Context, agencyID string, start, end time.Time) ([]LeadDay, error) {
	if err := validateWindow(agencyID, start, end); err != nil {
		return nil, err
	}

	query := `
		SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day,
		       COUNT(*) AS leads,
		       COUNT(*) FILTER (WHERE trigger = 'fields') AS fields,
		       COUNT(*) FILTER (WHERE trigger = 'engagement') AS engagement
		FROM leads
		WHERE agency_id = $1
		  AND created_at >= $2
		  AND created_at < $3
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.Query(ctx, query, agencyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("dashboard: query leads by day: %w", err)
	}
	defer rows.Close()

	var out []LeadDay
	for rows.Next() {
		var d LeadDay
		if err := rows.Scan(&d.Day, &d.Leads, &d.Fields, &d.Engagement); err != nil {
			return nil, fmt.Errorf("dashboard: scan leads by day: %w", err)
		}
		d.Day = d.Day.UTC()
		d.DayLabel = d.Day.Format(dayLayout)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dashboard: iterate leads by day: %w", err)
	}
	return out, nil
}

// LeadStoreRepository aggregates from any lead store. It serves the
// in-memory deployment where there is no database to group in.
type LeadStoreRepository struct {
	leads leads.Repository
}

func NewLeadStoreRepository(store leads.Repository) *LeadStoreRepository {
	if store == nil {
		panic("dashboard: lead store required")
	}
	return &LeadStoreRepository{leads: store}
}

func (r *LeadStoreRepository) LeadsByDay(ctx context.Context, agencyID string, start, end time.Time) ([]LeadDay, error) {
	if err := validateWindow(agencyID, start, end); err != nil {
		return nil, err
	}
	all, err := r.leads.ListByAgency(ctx, agencyID, leads.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("dashboard: list leads: %w", err)
	}

	byDay := map[string]*LeadDay{}
	var order []string
	// newest first from the store, so walk backwards for ascending days
	for i := len(all) - 1; i >= 0; i-- {
		l := all[i]
		at := l.CreatedAt.UTC()
		if at.Before(start) || !at.Before(end) {
			continue
		}
		day := truncateDay(at)
		key := day.Format(dayLayout)
		d, ok := byDay[key]
		if !ok {
			d = &LeadDay{Day: day, DayLabel: key}
			byDay[key] = d
			order = append(order, key)
		}
		d.Leads++
		switch l.Trigger {
		case leads.TriggerEngagement:
			d.Engagement++
		default:
			d.Fields++
		}
	}

	out := make([]LeadDay, 0, len(order))
	for _, key := range order {
		out = append(out, *byDay[key])
	}
	return out, nil
}
