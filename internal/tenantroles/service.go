package tenantroles

import (
	"context"
	"fmt"
	"strings"

	"github.com/aegis-platform/aegis/internal/platform/db"
	"github.com/aegis-platform/aegis/internal/roles"
	"github.com/aegis-platform/aegis/internal/shared"
)

// RoleDirectory resolves role names for grant checks.
type RoleDirectory interface {
	GetByName(ctx context.Context, name string) (roles.Role, error)
}

// Service enforces the association invariants and answers grant queries.
type Service struct {
	repo  Repository
	roles RoleDirectory
}

// NewService builds a Service instance.
func NewService(repo Repository, roleDirectory RoleDirectory) *Service {
	return &Service{repo: repo, roles: roleDirectory}
}

// List returns a page of tenant-role bindings.
func (s *Service) List(ctx context.Context, params shared.PageParams) (shared.Page[TenantRole], error) {
	params.Normalize()
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return shared.Page[TenantRole]{}, err
	}
	return shared.NewPage(rows, params.Page, params.PageSize, total), nil
}

// Get fetches a tenant-role binding by id.
func (s *Service) Get(ctx context.Context, id int64) (TenantRole, error) {
	return s.repo.Get(ctx, id)
}

// Create binds a role to a tenant. The duplicate pre-check yields a typed
// error in the common case; the unique constraint on (tenant_id, role_id)
// remains the final authority under concurrent creates.
func (s *Service) Create(ctx context.Context, tr TenantRole) (TenantRole, error) {
	if tr.TenantID <= 0 || tr.RoleID <= 0 {
		return TenantRole{}, fmt.Errorf("%w: tenantId and roleId required", shared.ErrValidation)
	}
	count, err := s.repo.CountByPair(ctx, tr.TenantID, tr.RoleID)
	if err != nil {
		return TenantRole{}, err
	}
	if count > 0 {
		return TenantRole{}, fmt.Errorf("%w: tenant %d already has role %d",
			shared.ErrDuplicate, tr.TenantID, tr.RoleID)
	}
	created, err := s.repo.Create(ctx, tr)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return TenantRole{}, fmt.Errorf("%w: tenant %d already has role %d",
				shared.ErrDuplicate, tr.TenantID, tr.RoleID)
		}
		return TenantRole{}, err
	}
	return created, nil
}

// Delete removes a binding by id. Deleting an unknown id is not an error.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// ListUsers returns the users granted a tenant-role binding.
func (s *Service) ListUsers(ctx context.Context, tenantRoleID int64) ([]TenantRoleUser, error) {
	return s.repo.ListUsers(ctx, tenantRoleID)
}

// AssignUser grants a tenant-scoped role to a user.
func (s *Service) AssignUser(ctx context.Context, tru TenantRoleUser) (TenantRoleUser, error) {
	if tru.TenantRoleID <= 0 || tru.UserID <= 0 {
		return TenantRoleUser{}, fmt.Errorf("%w: tenantRoleId and userId required", shared.ErrValidation)
	}
	if _, err := s.repo.Get(ctx, tru.TenantRoleID); err != nil {
		return TenantRoleUser{}, err
	}
	count, err := s.repo.CountUserPair(ctx, tru.TenantRoleID, tru.UserID)
	if err != nil {
		return TenantRoleUser{}, err
	}
	if count > 0 {
		return TenantRoleUser{}, fmt.Errorf("%w: user %d already assigned", shared.ErrDuplicate, tru.UserID)
	}
	created, err := s.repo.CreateUser(ctx, tru)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return TenantRoleUser{}, fmt.Errorf("%w: user %d already assigned", shared.ErrDuplicate, tru.UserID)
		}
		return TenantRoleUser{}, err
	}
	return created, nil
}

// UnassignUser removes a user grant by association id.
func (s *Service) UnassignUser(ctx context.Context, id int64) (bool, error) {
	return s.repo.DeleteUser(ctx, id)
}

// ListPermissions returns the permissions attached to a tenant-role binding.
func (s *Service) ListPermissions(ctx context.Context, tenantRoleID int64) ([]TenantRolePermission, error) {
	return s.repo.ListPermissions(ctx, tenantRoleID)
}

// AttachPermission attaches a permission to a tenant-scoped role.
func (s *Service) AttachPermission(ctx context.Context, trp TenantRolePermission) (TenantRolePermission, error) {
	if trp.TenantRoleID <= 0 || trp.PermissionID <= 0 {
		return TenantRolePermission{}, fmt.Errorf("%w: tenantRoleId and permissionId required", shared.ErrValidation)
	}
	if _, err := s.repo.Get(ctx, trp.TenantRoleID); err != nil {
		return TenantRolePermission{}, err
	}
	count, err := s.repo.CountPermissionPair(ctx, trp.TenantRoleID, trp.PermissionID)
	if err != nil {
		return TenantRolePermission{}, err
	}
	if count > 0 {
		return TenantRolePermission{}, fmt.Errorf("%w: permission %d already attached",
			shared.ErrDuplicate, trp.PermissionID)
	}
	created, err := s.repo.CreatePermission(ctx, trp)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return TenantRolePermission{}, fmt.Errorf("%w: permission %d already attached",
				shared.ErrDuplicate, trp.PermissionID)
		}
		return TenantRolePermission{}, err
	}
	return created, nil
}

// DetachPermission removes a permission attachment by association id.
func (s *Service) DetachPermission(ctx context.Context, id int64) (bool, error) {
	return s.repo.DeletePermission(ctx, id)
}

// AssociationExists reports whether at least one association composition
// satisfies the filter. Absent fields are wildcards; with zero supplied
// predicates the answer is whether any tenant-role row exists at all.
func (s *Service) AssociationExists(ctx context.Context, filter AssociationFilter) (bool, error) {
	return s.repo.AssociationExists(ctx, filter)
}

// IsRoleGranted reports whether the user holds the named role, optionally
// scoped to a tenant. An unknown role name is reported as not-found, not as
// "not granted"; the conversion to false is the caller's decision.
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

// IsPermissionGranted reports whether the user holds the permission through
// any of their tenant-scoped roles, optionally scoped to a tenant.
func (s *Service) IsPermissionGranted(ctx context.Context, userID, permissionID int64, tenantID *int64) (bool, error) {
	if userID <= 0 || permissionID <= 0 {
		return false, fmt.Errorf("%w: userId and permissionId required", shared.ErrValidation)
	}
	return s.repo.PermissionGranted(ctx, userID, permissionID, tenantID)
}
