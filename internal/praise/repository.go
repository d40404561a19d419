package praise

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kudoshq/kudos/internal/periods"
	"github.com/kudoshq/kudos/internal/shared"
)

const praiseColumns = `id, reason, reason_realized, source_id, source_name, giver_id, receiver_id, forwarder_id, score_realized, created_at, updated_at`

const quantificationColumns = `id, praise_id, quantifier_id, score, dismissed, duplicate_praise_id, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for praise items and
// their quantifications.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanPraise(row pgx.Row) (Praise, error) {
	var p Praise
	err := row.Scan(&p.ID, &p.Reason, &p.ReasonRealized, &p.SourceID, &p.SourceName,
		&p.GiverID, &p.ReceiverID, &p.ForwarderID, &p.ScoreRealized, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanQuantification(row pgx.Row) (Quantification, error) {
	var q Quantification
	err := row.Scan(&q.ID, &q.PraiseID, &q.QuantifierID, &q.Score, &q.Dismissed,
		&q.DuplicatePraiseID, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}

// CreateInput captures a new praise item. Creation itself is a surrounding
// CRUD concern; the repository only stores what it is given.
type CreateInput struct {
	Reason      string
	SourceID    string
	SourceName  string
	GiverID     int64
	ReceiverID  int64
	ForwarderID *int64
	CreatedAt   time.Time
}

// Create inserts a praise item with its normalized reason text.
func (r *Repository) Create(ctx context.Context, in CreateInput) (Praise, error) {
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO praise (reason, reason_realized, source_id, source_name, giver_id, receiver_id, forwarder_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING `+praiseColumns,
		in.Reason, NormalizeReason(in.Reason), in.SourceID, in.SourceName, in.GiverID, in.ReceiverID, in.ForwarderID, createdAt)
	return scanPraise(row)
}

// FindByID returns a praise item with its quantifications.
func (r *Repository) FindByID(ctx context.Context, id int64) (Praise, error) {
	p, err := scanPraise(r.pool.QueryRow(ctx, `SELECT `+praiseColumns+` FROM praise WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Praise{}, fmt.Errorf("praise: praise %d: %w", id, shared.ErrNotFound)
		}
		return Praise{}, err
	}
	if err := r.attachQuantifications(ctx, []*Praise{&p}); err != nil {
		return Praise{}, err
	}
	return p, nil
}

// ListByWindow returns the praise inside a period window ordered by
// receiver id then creation time, quantifications attached. The ordering is
// what makes assignment reproducible.
func (r *Repository) ListByWindow(ctx context.Context, w periods.Window) ([]Praise, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+praiseColumns+` FROM praise WHERE created_at > $1 AND created_at <= $2 ORDER BY receiver_id ASC, created_at ASC, id ASC`, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Praise
	for rows.Next() {
		p, err := scanPraise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*Praise, len(out))
	for i := range out {
		refs[i] = &out[i]
	}
	if err := r.attachQuantifications(ctx, refs); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByReceiver returns the praise a user received across all periods,
// quantifications attached. Used for lifetime score totals.
func (r *Repository) ListByReceiver(ctx context.Context, receiverID int64) ([]Praise, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+praiseColumns+` FROM praise WHERE receiver_id = $1 ORDER BY created_at ASC, id ASC`, receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Praise
	for rows.Next() {
		p, err := scanPraise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	refs := make([]*Praise, len(out))
	for i := range out {
		refs[i] = &out[i]
	}
	if err := r.attachQuantifications(ctx, refs); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByIDs returns the praise items with the given ids, quantifications
// attached, ordered by id ascending.
func (r *Repository) ListByIDs(ctx context.Context, ids []int64) ([]Praise, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+praiseColumns+` FROM praise WHERE id = ANY($1) ORDER BY id ASC`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Praise
	for rows.Next() {
		p, err := scanPraise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	refs := make([]*Praise, len(out))
	for i := range out {
		refs[i] = &out[i]
	}
	if err := r.attachQuantifications(ctx, refs); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) attachQuantifications(ctx context.Context, items []*Praise) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	byID := make(map[int64]*Praise, len(items))
	for i, p := range items {
		ids[i] = p.ID
		byID[p.ID] = p
	}
	rows, err := r.pool.Query(ctx, `SELECT `+quantificationColumns+` FROM quantifications WHERE praise_id = ANY($1) ORDER BY praise_id ASC, quantifier_id ASC`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		q, err := scanQuantification(rows)
		if err != nil {
			return err
		}
		if p, ok := byID[q.PraiseID]; ok {
			p.Quantifications = append(p.Quantifications, q)
		}
	}
	return rows.Err()
}

// CountByWindow returns the number of praise items inside a window.
func (r *Repository) CountByWindow(ctx context.Context, w periods.Window) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM praise WHERE created_at > $1 AND created_at <= $2`, w.Start, w.End).Scan(&n)
	return n, err
}

// AnyQuantificationsInWindow reports whether any praise inside the window
// already has quantifications. Guards against double assignment.
func (r *Repository) AnyQuantificationsInWindow(ctx context.Context, w periods.Window) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM quantifications q
		JOIN praise p ON p.id = q.praise_id
		WHERE p.created_at > $1 AND p.created_at <= $2)`, w.Start, w.End).Scan(&exists)
	return exists, err
}

// ReceiverCounts groups praise inside a window by receiver.
func (r *Repository) ReceiverCounts(ctx context.Context, w periods.Window) ([]ReceiverCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT receiver_id, COUNT(*) FROM praise
		WHERE created_at > $1 AND created_at <= $2
		GROUP BY receiver_id ORDER BY receiver_id ASC`, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReceiverCount
	for rows.Next() {
		var rc ReceiverCount
		if err := rows.Scan(&rc.ReceiverID, &rc.Count); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// QuantifierStats summarizes assigned and finished counts per quantifier
// inside a window.
func (r *Repository) QuantifierStats(ctx context.Context, w periods.Window) ([]QuantifierStats, error) {
	rows, err := r.pool.Query(ctx, `SELECT q.quantifier_id,
			COUNT(*),
			COUNT(*) FILTER (WHERE q.dismissed OR q.duplicate_praise_id IS NOT NULL OR q.score > 0)
		FROM quantifications q
		JOIN praise p ON p.id = q.praise_id
		WHERE p.created_at > $1 AND p.created_at <= $2
		GROUP BY q.quantifier_id ORDER BY q.quantifier_id ASC`, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QuantifierStats
	for rows.Next() {
		var qs QuantifierStats
		if err := rows.Scan(&qs.QuantifierID, &qs.AssignedCount, &qs.FinishedCount); err != nil {
			return nil, err
		}
		out = append(out, qs)
	}
	return out, rows.Err()
}

// QuantifierPraiseIDs returns the praise ids inside a window assigned to a
// quantifier.
func (r *Repository) QuantifierPraiseIDs(ctx context.Context, w periods.Window, quantifierID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT q.praise_id FROM quantifications q
		JOIN praise p ON p.id = q.praise_id
		WHERE q.quantifier_id = $1 AND p.created_at > $2 AND p.created_at <= $3
		ORDER BY q.praise_id ASC`, quantifierID, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Quantification returns the judgment one quantifier holds for one praise
// item.
func (r *Repository) Quantification(ctx context.Context, praiseID, quantifierID int64) (Quantification, error) {
	q, err := scanQuantification(r.pool.QueryRow(ctx, `SELECT `+quantificationColumns+` FROM quantifications WHERE praise_id = $1 AND quantifier_id = $2`, praiseID, quantifierID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quantification{}, fmt.Errorf("praise: quantification for praise %d by user %d: %w", praiseID, quantifierID, shared.ErrNotFound)
		}
		return Quantification{}, err
	}
	return q, nil
}
