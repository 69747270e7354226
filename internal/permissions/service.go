package permissions

import (
	"context"
	"fmt"
	"strings"

	"github.com/aegis-platform/aegis/internal/platform/db"
	"github.com/aegis-platform/aegis/internal/shared"
)

// Service enforces permission and action lifecycle rules.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a page of permissions.
func (s *Service) List(ctx context.Context, params shared.PageParams) (shared.Page[Permission], error) {
	params.Normalize()
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return shared.Page[Permission]{}, err
	}
	return shared.NewPage(rows, params.Page, params.PageSize, total), nil
}

// Search returns permissions matching the filter as a plain list.
func (s *Service) Search(ctx context.Context, filter Filter) ([]Permission, error) {
	return s.repo.Search(ctx, filter)
}

// Get fetches a permission by id.
func (s *Service) Get(ctx context.Context, id int64) (Permission, error) {
	return s.repo.Get(ctx, id)
}

// IDByResourceAndAction resolves the permission id for a (resource, action)
// pair. Both parameters are required.
func (s *Service) IDByResourceAndAction(ctx context.Context, resource, action string) (int64, error) {
	resource = strings.TrimSpace(resource)
	action = strings.TrimSpace(action)
	if resource == "" || action == "" {
		return 0, fmt.Errorf("%w: resource and action required", shared.ErrValidation)
	}
	return s.repo.IDByResourceAndAction(ctx, resource, action)
}

// Create inserts a permission after validating its action reference and name
// uniqueness.
func (s *Service) Create(ctx context.Context, p Permission) (Permission, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Permission{}, fmt.Errorf("%w: permission name required", shared.ErrValidation)
	}
	if _, err := s.repo.GetAction(ctx, p.ActionID); err != nil {
		return Permission{}, fmt.Errorf("action %d: %w", p.ActionID, err)
	}
	count, err := s.repo.CountByName(ctx, p.Name, 0)
	if err != nil {
		return Permission{}, err
	}
	if count > 0 {
		return Permission{}, fmt.Errorf("%w: permission %q", shared.ErrDuplicate, p.Name)
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Permission{}, fmt.Errorf("%w: permission %q", shared.ErrDuplicate, p.Name)
		}
		return Permission{}, err
	}
	return created, nil
}

// Update modifies a permission, re-validating uniqueness excluding its own id.
func (s *Service) Update(ctx context.Context, p Permission) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: permission name required", shared.ErrValidation)
	}
	count, err := s.repo.CountByName(ctx, p.Name, p.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: permission %q", shared.ErrDuplicate, p.Name)
	}
	if err := s.repo.Update(ctx, p); err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: permission %q", shared.ErrDuplicate, p.Name)
		}
		return err
	}
	return nil
}

// Delete removes a permission by id. Deleting an unknown id is not an error.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// ListActions returns all actions.
func (s *Service) ListActions(ctx context.Context) ([]Action, error) {
	return s.repo.ListActions(ctx)
}

// CreateAction inserts an action after validating its type and name uniqueness.
func (s *Service) CreateAction(ctx context.Context, a Action) (Action, error) {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return Action{}, fmt.Errorf("%w: action name required", shared.ErrValidation)
	}
	if !a.Type.Valid() {
		return Action{}, fmt.Errorf("%w: unknown action type %q", shared.ErrValidation, a.Type)
	}
	count, err := s.repo.CountActionsByName(ctx, a.Name, 0)
	if err != nil {
		return Action{}, err
	}
	if count > 0 {
		return Action{}, fmt.Errorf("%w: action %q", shared.ErrDuplicate, a.Name)
	}
	created, err := s.repo.CreateAction(ctx, a)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Action{}, fmt.Errorf("%w: action %q", shared.ErrDuplicate, a.Name)
		}
		return Action{}, err
	}
	return created, nil
}

// DeleteAction removes an action by id.
func (s *Service) DeleteAction(ctx context.Context, id int64) (bool, error) {
	return s.repo.DeleteAction(ctx, id)
}
