package quantify

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kudoshq/kudos/internal/periods"
	"github.com/kudoshq/kudos/internal/platform/db"
	"github.com/kudoshq/kudos/internal/praise"
	"github.com/kudoshq/kudos/internal/shared"
)

// Repository applies the engine's multi-table writes against PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateAssignments inserts the quantification stubs and flips the period
// OPEN -> QUANTIFY in one transaction. The conditional status update is the
// optimistic guard against concurrent assignment: if another caller moved
// the period first, the whole transaction rolls back and nothing is
// created.
func (r *Repository) CreateAssignments(ctx context.Context, periodID int64, stubs []Stub) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE periods SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`,
			periodID, periods.StatusQuantify, periods.StatusOpen)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("quantify: period %d left OPEN concurrently: %w", periodID, shared.ErrInvalidState)
		}

		if len(stubs) == 0 {
			return nil
		}
		rows := make([][]any, len(stubs))
		for i, stub := range stubs {
			rows[i] = []any{stub.PraiseID, stub.QuantifierID}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"quantifications"},
			[]string{"praise_id", "quantifier_id"},
			pgx.CopyFromRows(rows))
		return err
	})
}

// ReassignQuantifier deletes the current quantifier's stubs inside the
// window and recreates fresh ones for the new quantifier, all in one
// transaction. Partial judgment state the current quantifier entered is
// discarded, not transferred.
func (r *Repository) ReassignQuantifier(ctx context.Context, w periods.Window, currentID, newID int64) ([]int64, error) {
	var affected []int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `DELETE FROM quantifications q USING praise p
			WHERE q.praise_id = p.id AND q.quantifier_id = $1
			  AND p.created_at > $2 AND p.created_at <= $3
			RETURNING q.praise_id`, currentID, w.Start, w.End)
		if err != nil {
			return err
		}
		affected = affected[:0]
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			affected = append(affected, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if len(affected) == 0 {
			return nil
		}
		inserts := make([][]any, len(affected))
		for i, praiseID := range affected {
			inserts[i] = []any{praiseID, newID}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"quantifications"},
			[]string{"praise_id", "quantifier_id"},
			pgx.CopyFromRows(inserts))
		return err
	})
	if err != nil {
		return nil, err
	}
	return affected, nil
}

// SaveJudgment writes a quantification and the owning praise's composite
// cache in one transaction so the cached score never lags the judgment.
func (r *Repository) SaveJudgment(ctx context.Context, q praise.Quantification, composite float64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE quantifications SET score = $2, dismissed = $3, duplicate_praise_id = $4, updated_at = NOW() WHERE id = $1`,
			q.ID, q.Score, q.Dismissed, q.DuplicatePraiseID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("quantify: quantification %d: %w", q.ID, shared.ErrNotFound)
		}
		_, err = tx.Exec(ctx, `UPDATE praise SET score_realized = $2, updated_at = NOW() WHERE id = $1`, q.PraiseID, composite)
		return err
	})
}

// UpdateComposite rewrites a praise item's composite cache.
func (r *Repository) UpdateComposite(ctx context.Context, praiseID int64, composite float64) error {
	_, err := r.pool.Exec(ctx, `UPDATE praise SET score_realized = $2, updated_at = NOW() WHERE id = $1`, praiseID, composite)
	return err
}
