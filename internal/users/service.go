package users

import "context"

// RepositoryPort defines data access methods for user lookup.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (User, error)
	ListByRole(ctx context.Context, role Role) ([]User, error)
}

// Service handles user and role lookups for the quantification core.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Find returns a user by id.
func (s *Service) Find(ctx context.Context, id int64) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// WithRole returns the users carrying a role, ordered by id ascending.
func (s *Service) WithRole(ctx context.Context, role Role) ([]User, error) {
	return s.repo.ListByRole(ctx, role)
}

// HasRole reports whether the user exists and carries the role.
func (s *Service) HasRole(ctx context.Context, id int64, role Role) (bool, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return u.HasRole(role), nil
}
