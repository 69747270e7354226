package jobs

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// Sweeper deletes association rows whose parent Tenant, Role, Permission or
// User no longer exists. Parent deletion does not cascade, so orphans
// accumulate until a sweep runs.
type Sweeper struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// SweepReport counts removed rows per table.
type SweepReport struct {
	TenantRoles           int64 `json:"tenantRoles"`
	TenantRoleUsers       int64 `json:"tenantRoleUsers"`
	TenantRolePermissions int64 `json:"tenantRolePermissions"`
	LinkedAuthorizations  int64 `json:"linkedAuthorizations"`
}

// NewSweeper builds a Sweeper instance.
func NewSweeper(pool *pgxpool.Pool, logger *slog.Logger) *Sweeper {
	return &Sweeper{pool: pool, logger: logger}
}

const (
	sweepTenantRoles = `DELETE FROM tenant_roles
		WHERE tenant_id NOT IN (SELECT id FROM tenants)
		   OR role_id NOT IN (SELECT id FROM roles)`
	sweepTenantRoleUsers = `DELETE FROM tenant_role_users
		WHERE tenant_role_id NOT IN (SELECT id FROM tenant_roles)
		   OR user_id NOT IN (SELECT id FROM users)`
	sweepTenantRolePermissions = `DELETE FROM tenant_role_permissions
		WHERE tenant_role_id NOT IN (SELECT id FROM tenant_roles)
		   OR permission_id NOT IN (SELECT id FROM permissions)`
	sweepLinkedAuthorizations = `DELETE FROM linked_authorizations
		WHERE tenant_id NOT IN (SELECT id FROM tenants)
		   OR role_id NOT IN (SELECT id FROM roles)
		   OR permission_id NOT IN (SELECT id FROM permissions)
		   OR user_id NOT IN (SELECT id FROM users)`

	countTenantRoles = `SELECT COUNT(*) FROM tenant_roles
		WHERE tenant_id NOT IN (SELECT id FROM tenants)
		   OR role_id NOT IN (SELECT id FROM roles)`
	countTenantRoleUsers = `SELECT COUNT(*) FROM tenant_role_users
		WHERE tenant_role_id NOT IN (SELECT id FROM tenant_roles)
		   OR user_id NOT IN (SELECT id FROM users)`
	countTenantRolePermissions = `SELECT COUNT(*) FROM tenant_role_permissions
		WHERE tenant_role_id NOT IN (SELECT id FROM tenant_roles)
		   OR permission_id NOT IN (SELECT id FROM permissions)`
	countLinkedAuthorizations = `SELECT COUNT(*) FROM linked_authorizations
		WHERE tenant_id NOT IN (SELECT id FROM tenants)
		   OR role_id NOT IN (SELECT id FROM roles)
		   OR permission_id NOT IN (SELECT id FROM permissions)
		   OR user_id NOT IN (SELECT id FROM users)`
)

// Sweep removes orphaned rows. Tenant-role bindings are swept first because
// removing them orphans their own child rows; the three child tables are then
// swept concurrently. With dryRun only the counts are reported.
func (s *Sweeper) Sweep(ctx context.Context, dryRun bool) (SweepReport, error) {
	var report SweepReport

	if dryRun {
		if err := s.pool.QueryRow(ctx, countTenantRoles).Scan(&report.TenantRoles); err != nil {
			return report, err
		}
	} else {
		tag, err := s.pool.Exec(ctx, sweepTenantRoles)
		if err != nil {
			return report, err
		}
		report.TenantRoles = tag.RowsAffected()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report.TenantRoleUsers, err = s.sweepOne(gctx, dryRun, sweepTenantRoleUsers, countTenantRoleUsers)
		return err
	})
	g.Go(func() error {
		var err error
		report.TenantRolePermissions, err = s.sweepOne(gctx, dryRun, sweepTenantRolePermissions, countTenantRolePermissions)
		return err
	})
	g.Go(func() error {
		var err error
		report.LinkedAuthorizations, err = s.sweepOne(gctx, dryRun, sweepLinkedAuthorizations, countLinkedAuthorizations)
		return err
	})
	if err := g.Wait(); err != nil {
		return report, err
	}

	s.logger.Info("orphan sweep finished",
		slog.Bool("dryRun", dryRun),
		slog.Int64("tenantRoles", report.TenantRoles),
		slog.Int64("tenantRoleUsers", report.TenantRoleUsers),
		slog.Int64("tenantRolePermissions", report.TenantRolePermissions),
		slog.Int64("linkedAuthorizations", report.LinkedAuthorizations))
	return report, nil
}

func (s *Sweeper) sweepOne(ctx context.Context, dryRun bool, deleteQuery, countQuery string) (int64, error) {
	if dryRun {
		var count int64
		err := s.pool.QueryRow(ctx, countQuery).Scan(&count)
		return count, err
	}
	tag, err := s.pool.Exec(ctx, deleteQuery)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
