package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/aegis-platform/aegis/internal/platform/db"
	"github.com/aegis-platform/aegis/internal/shared"
)

// Service enforces role lifecycle rules.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a page of roles matching the search term, exactly or by
// substring depending on params.IsExact.
func (s *Service) List(ctx context.Context, params shared.PageParams) (shared.Page[Role], error) {
	params.Normalize()
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return shared.Page[Role]{}, err
	}
	return shared.NewPage(rows, params.Page, params.PageSize, total), nil
}

// Search returns roles matching the filter as a plain list.
func (s *Service) Search(ctx context.Context, filter Filter) ([]Role, error) {
	return s.repo.Search(ctx, filter)
}

// Get fetches a role by id.
func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	return s.repo.Get(ctx, id)
}

// GetByName resolves a role by its unique name.
func (s *Service) GetByName(ctx context.Context, name string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	return s.repo.GetByName(ctx, name)
}

// Create inserts a role after checking system-wide name uniqueness.
func (s *Service) Create(ctx context.Context, role Role) (Role, error) {
	role.Name = strings.TrimSpace(role.Name)
	if role.Name == "" {
		return Role{}, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	count, err := s.repo.CountByName(ctx, role.Name, 0)
	if err != nil {
		return Role{}, err
	}
	if count > 0 {
		return Role{}, fmt.Errorf("%w: role %q", shared.ErrDuplicate, role.Name)
	}
	created, err := s.repo.Create(ctx, role)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Role{}, fmt.Errorf("%w: role %q", shared.ErrDuplicate, role.Name)
		}
		return Role{}, err
	}
	return created, nil
}

// Update modifies a role, re-validating name uniqueness excluding its own id.
func (s *Service) Update(ctx context.Context, role Role) error {
	role.Name = strings.TrimSpace(role.Name)
	if role.Name == "" {
		return fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	count, err := s.repo.CountByName(ctx, role.Name, role.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: role %q", shared.ErrDuplicate, role.Name)
	}
	if err := s.repo.Update(ctx, role); err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: role %q", shared.ErrDuplicate, role.Name)
		}
		return err
	}
	return nil
}

// Delete removes a role by id. Deleting an unknown id is not an error.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.Delete(ctx, id)
}
