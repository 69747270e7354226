package linkedauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/aegis-platform/aegis/internal/platform/db"
	"github.com/aegis-platform/aegis/internal/roles"
	"github.com/aegis-platform/aegis/internal/shared"
)

// RoleDirectory resolves role names for the legacy role checks.
type RoleDirectory interface {
	GetByName(ctx context.Context, name string) (roles.Role, error)
}

// Service preserves the legacy flattened read and write contract.
type Service struct {
	repo  Repository
	roles RoleDirectory
}

// NewService builds a Service instance.
func NewService(repo Repository, roleDirectory RoleDirectory) *Service {
	return &Service{repo: repo, roles: roleDirectory}
}

// List returns a filtered page of linked authorizations.
func (s *Service) List(ctx context.Context, filter Filter, params shared.PageParams) (shared.Page[LinkedAuthorization], error) {
	params.Normalize()
	rows, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return shared.Page[LinkedAuthorization]{}, err
	}
	return shared.NewPage(rows, params.Page, params.PageSize, total), nil
}

// Search returns matching rows as a plain list.
func (s *Service) Search(ctx context.Context, filter Filter) ([]LinkedAuthorization, error) {
	return s.repo.Search(ctx, filter)
}

// Get fetches a linked authorization by id.
func (s *Service) Get(ctx context.Context, id int64) (LinkedAuthorization, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a flattened row after a full-tuple duplicate pre-check.
// Legacy writers still call this path.
func (s *Service) Create(ctx context.Context, la LinkedAuthorization) (LinkedAuthorization, error) {
	if la.TenantID <= 0 || la.RoleID <= 0 || la.PermissionID <= 0 || la.UserID <= 0 {
		return LinkedAuthorization{}, fmt.Errorf(
			"%w: tenantId, roleId, permissionId and userId required", shared.ErrValidation)
	}
	count, err := s.repo.CountByTuple(ctx, la)
	if err != nil {
		return LinkedAuthorization{}, err
	}
	if count > 0 {
		return LinkedAuthorization{}, fmt.Errorf("%w: linked authorization tuple", shared.ErrDuplicate)
	}
	created, err := s.repo.Create(ctx, la)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return LinkedAuthorization{}, fmt.Errorf("%w: linked authorization tuple", shared.ErrDuplicate)
		}
		return LinkedAuthorization{}, err
	}
	return created, nil
}

// Delete removes a row by id. Deleting an unknown id is not an error.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// Exists reports whether any row satisfies the filter. Absent fields are
// wildcards; a zero-predicate filter asks whether the table has any row.
func (s *Service) Exists(ctx context.Context, filter Filter) (bool, error) {
	return s.repo.Exists(ctx, filter)
}

// IsRoleGranted reports whether the user holds the named role in the
// flattened table, optionally tenant-scoped. Unknown role names surface as
// not-found.
func (s *Service) IsRoleGranted(ctx context.Context, userID int64, roleName string, tenantID *int64) (bool, error) {
	roleName = strings.TrimSpace(roleName)
	if userID <= 0 || roleName == "" {
		return false, fmt.Errorf("%w: userId and roleName required", shared.ErrValidation)
	}
	role, err := s.roles.GetByName(ctx, roleName)
	if err != nil {
		return false, err
	}
	return s.repo.RoleGranted(ctx, userID, role.ID, tenantID)
}

// CheckRoles reports whether the user holds any of the named roles,
// optionally tenant-scoped. Names are deduplicated case-insensitively and
// unknown names count as not granted rather than failing the whole check,
// matching the legacy callers' expectations.
func (s *Service) CheckRoles(ctx context.Context, userID int64, roleNames []string, tenantID *int64) (bool, error) {
	if userID <= 0 || len(roleNames) == 0 {
		return false, fmt.Errorf("%w: userId and at least one roleName required", shared.ErrValidation)
	}

	folder := cases.Fold()
	seen := make(map[string]struct{}, len(roleNames))
	for _, name := range roleNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := folder.String(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		role, err := s.roles.GetByName(ctx, name)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return false, err
		}
		granted, err := s.repo.RoleGranted(ctx, userID, role.ID, tenantID)
		if err != nil {
			return false, err
		}
		if granted {
			return true, nil
		}
	}
	return false, nil
}
