package periods

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kudoshq/kudos/internal/shared"
)

const periodColumns = `id, name, status, end_date, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for periods.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.Name, &p.Status, &p.EndDate, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Insert creates a new OPEN period. A unique index on name maps duplicate
// names to ErrValidation.
func (r *Repository) Insert(ctx context.Context, name string, endDate time.Time) (Period, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO periods (name, status, end_date) VALUES ($1, $2, $3) RETURNING `+periodColumns,
		name, StatusOpen, endDate)
	p, err := scanPeriod(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Period{}, fmt.Errorf("periods: name %q already exists: %w", name, shared.ErrValidation)
		}
		return Period{}, err
	}
	return p, nil
}

// FindByID returns a single period.
func (r *Repository) FindByID(ctx context.Context, id int64) (Period, error) {
	p, err := scanPeriod(r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, fmt.Errorf("periods: period %d: %w", id, shared.ErrNotFound)
		}
		return Period{}, err
	}
	return p, nil
}

// ExistsByName reports whether a period with the name exists.
func (r *Repository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM periods WHERE name = $1)`, name).Scan(&exists)
	return exists, err
}

// FindLatest returns the period with the maximum end date, or ok=false when
// no period exists.
func (r *Repository) FindLatest(ctx context.Context) (Period, bool, error) {
	p, err := scanPeriod(r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods ORDER BY end_date DESC LIMIT 1`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, false, nil
		}
		return Period{}, false, err
	}
	return p, true, nil
}

// List returns all periods ordered by end date ascending.
func (r *Repository) List(ctx context.Context) ([]Period, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+periodColumns+` FROM periods ORDER BY end_date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PreviousEndDate returns the greatest end date strictly less than endDate,
// or ok=false when no earlier period exists.
func (r *Repository) PreviousEndDate(ctx context.Context, endDate time.Time) (time.Time, bool, error) {
	var prev time.Time
	err := r.pool.QueryRow(ctx, `SELECT end_date FROM periods WHERE end_date < $1 ORDER BY end_date DESC LIMIT 1`, endDate).Scan(&prev)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return prev, true, nil
}

// FindContaining returns the period whose window contains the instant t:
// the period with the smallest end date >= t.
func (r *Repository) FindContaining(ctx context.Context, t time.Time) (Period, bool, error) {
	p, err := scanPeriod(r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE end_date >= $1 ORDER BY end_date ASC LIMIT 1`, t))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, false, nil
		}
		return Period{}, false, err
	}
	return p, true, nil
}

// Update applies a partial edit and returns the updated row.
func (r *Repository) Update(ctx context.Context, id int64, in UpdateInput) (Period, error) {
	row := r.pool.QueryRow(ctx, `UPDATE periods SET
		name = COALESCE($2, name),
		end_date = COALESCE($3, end_date),
		updated_at = NOW()
	WHERE id = $1 RETURNING `+periodColumns, id, in.Name, in.EndDate)
	p, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, fmt.Errorf("periods: period %d: %w", id, shared.ErrNotFound)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Period{}, fmt.Errorf("periods: name already exists: %w", shared.ErrValidation)
		}
		return Period{}, err
	}
	return p, nil
}

// SetStatus transitions the period from one status to another. The
// conditional WHERE clause serializes concurrent writers: ok=false means
// the period was not in the expected status.
func (r *Repository) SetStatus(ctx context.Context, id int64, from, to Status) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE periods SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
