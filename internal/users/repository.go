package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kudoshq/kudos/internal/shared"
)

// Repository provides PostgreSQL backed persistence for user accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByID returns a single user.
func (r *Repository) FindByID(ctx context.Context, id int64) (User, error) {
	var u User
	var roles []string
	err := r.pool.QueryRow(ctx, `SELECT id, username, roles, created_at, updated_at FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &roles, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, fmt.Errorf("users: user %d: %w", id, shared.ErrNotFound)
		}
		return User{}, err
	}
	u.Roles = toRoles(roles)
	return u, nil
}

// ListByRole returns all users carrying the role, ordered by id ascending
// so that assignment rotation is reproducible.
func (r *Repository) ListByRole(ctx context.Context, role Role) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, username, roles, created_at, updated_at FROM users WHERE $1 = ANY(roles) ORDER BY id ASC`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		var roles []string
		if err := rows.Scan(&u.ID, &u.Username, &roles, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Roles = toRoles(roles)
		out = append(out, u)
	}
	return out, rows.Err()
}

func toRoles(in []string) []Role {
	out := make([]Role, len(in))
	for i, s := range in {
		out[i] = Role(s)
	}
	return out
}
