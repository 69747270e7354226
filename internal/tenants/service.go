package tenants

import (
	"context"
	"fmt"
	"strings"

	"github.com/aegis-platform/aegis/internal/platform/db"
	"github.com/aegis-platform/aegis/internal/shared"
)

// Service enforces tenant lifecycle rules.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a page of tenants.
func (s *Service) List(ctx context.Context, params shared.PageParams) (shared.Page[Tenant], error) {
	params.Normalize()
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return shared.Page[Tenant]{}, err
	}
	return shared.NewPage(rows, params.Page, params.PageSize, total), nil
}

// Search returns tenants matching the filter as a plain list.
func (s *Service) Search(ctx context.Context, filter Filter) ([]Tenant, error) {
	return s.repo.Search(ctx, filter)
}

// Get fetches a tenant by id.
func (s *Service) Get(ctx context.Context, id int64) (Tenant, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a tenant after checking name uniqueness. The pre-check
// produces the friendly error; the database constraint settles races.
func (s *Service) Create(ctx context.Context, tenant Tenant) (Tenant, error) {
	tenant.Name = strings.TrimSpace(tenant.Name)
	if tenant.Name == "" {
		return Tenant{}, fmt.Errorf("%w: tenant name required", shared.ErrValidation)
	}
	count, err := s.repo.CountByName(ctx, tenant.Name, 0)
	if err != nil {
		return Tenant{}, err
	}
	if count > 0 {
		return Tenant{}, fmt.Errorf("%w: tenant %q", shared.ErrDuplicate, tenant.Name)
	}
	created, err := s.repo.Create(ctx, tenant)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Tenant{}, fmt.Errorf("%w: tenant %q", shared.ErrDuplicate, tenant.Name)
		}
		return Tenant{}, err
	}
	return created, nil
}

// Update renames a tenant, re-validating uniqueness excluding its own id.
func (s *Service) Update(ctx context.Context, tenant Tenant) error {
	tenant.Name = strings.TrimSpace(tenant.Name)
	if tenant.Name == "" {
		return fmt.Errorf("%w: tenant name required", shared.ErrValidation)
	}
	count, err := s.repo.CountByName(ctx, tenant.Name, tenant.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: tenant %q", shared.ErrDuplicate, tenant.Name)
	}
	if err := s.repo.Update(ctx, tenant); err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: tenant %q", shared.ErrDuplicate, tenant.Name)
		}
		return err
	}
	return nil
}

// Delete removes a tenant by id. Deleting an unknown id is not an error.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.Delete(ctx, id)
}
