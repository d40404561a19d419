package settings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kudoshq/kudos/internal/shared"
)

// RepositoryPort defines the two-level value lookup.
type RepositoryPort interface {
	GlobalValue(ctx context.Context, key string) (string, bool, error)
	PeriodValue(ctx context.Context, periodID int64, key string) (string, bool, error)
}

// Service resolves setting values: period-scoped override first, then the
// global value, then the built-in default.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Value resolves the raw string value for a key. periodID may be nil for a
// purely global lookup.
func (s *Service) Value(ctx context.Context, key string, periodID *int64) (string, error) {
	if periodID != nil {
		value, ok, err := s.repo.PeriodValue(ctx, *periodID, key)
		if err != nil {
			return "", err
		}
		if ok {
			return value, nil
		}
	}
	value, ok, err := s.repo.GlobalValue(ctx, key)
	if err != nil {
		return "", err
	}
	if ok {
		return value, nil
	}
	if def, ok := defaults[key]; ok {
		return def, nil
	}
	return "", fmt.Errorf("settings: key %q: %w", key, shared.ErrNotFound)
}

// Int resolves an integer setting.
func (s *Service) Int(ctx context.Context, key string, periodID *int64) (int, error) {
	raw, err := s.Value(ctx, key, periodID)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("settings: key %q value %q is not an integer: %w", key, raw, shared.ErrValidation)
	}
	return n, nil
}

// Float resolves a float setting.
func (s *Service) Float(ctx context.Context, key string, periodID *int64) (float64, error) {
	raw, err := s.Value(ctx, key, periodID)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("settings: key %q value %q is not a number: %w", key, raw, shared.ErrValidation)
	}
	return f, nil
}

// Bool resolves a boolean setting.
func (s *Service) Bool(ctx context.Context, key string, periodID *int64) (bool, error) {
	raw, err := s.Value(ctx, key, periodID)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("settings: key %q value %q is not a boolean: %w", key, raw, shared.ErrValidation)
	}
	return b, nil
}
