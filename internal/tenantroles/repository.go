package tenantroles

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-platform/aegis/internal/shared"
)

// Repository defines persistence operations for the association tables.
type Repository interface {
	List(ctx context.Context, params shared.PageParams) ([]TenantRole, int, error)
	Get(ctx context.Context, id int64) (TenantRole, error)
	CountByPair(ctx context.Context, tenantID, roleID int64) (int, error)
	Create(ctx context.Context, tr TenantRole) (TenantRole, error)
	Delete(ctx context.Context, id int64) (bool, error)

	ListUsers(ctx context.Context, tenantRoleID int64) ([]TenantRoleUser, error)
	CountUserPair(ctx context.Context, tenantRoleID, userID int64) (int, error)
	CreateUser(ctx context.Context, tru TenantRoleUser) (TenantRoleUser, error)
	DeleteUser(ctx context.Context, id int64) (bool, error)

	ListPermissions(ctx context.Context, tenantRoleID int64) ([]TenantRolePermission, error)
	CountPermissionPair(ctx context.Context, tenantRoleID, permissionID int64) (int, error)
	CreatePermission(ctx context.Context, trp TenantRolePermission) (TenantRolePermission, error)
	DeletePermission(ctx context.Context, id int64) (bool, error)

	AssociationExists(ctx context.Context, filter AssociationFilter) (bool, error)
	RoleGranted(ctx context.Context, userID, roleID int64, tenantID *int64) (bool, error)
	PermissionGranted(ctx context.Context, userID, permissionID int64, tenantID *int64) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, params shared.PageParams) ([]TenantRole, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tenant_roles`).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := "DESC"
	if params.IsAscending {
		dir = "ASC"
	}
	query := `SELECT id, tenant_id, role_id FROM tenant_roles`
	switch params.SortBy {
	case "tenantId":
		query += ` ORDER BY tenant_id ` + dir + `, role_id ` + dir
	case "roleId":
		query += ` ORDER BY role_id ` + dir + `, tenant_id ` + dir
	default:
		query += ` ORDER BY id ` + dir
	}
	query += ` LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []TenantRole
	for rows.Next() {
		var tr TenantRole
		if err := rows.Scan(&tr.ID, &tr.TenantID, &tr.RoleID); err != nil {
			return nil, 0, err
		}
		result = append(result, tr)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (TenantRole, error) {
	var tr TenantRole
	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, role_id FROM tenant_roles WHERE id = $1`, id).
		Scan(&tr.ID, &tr.TenantID, &tr.RoleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return TenantRole{}, shared.ErrNotFound
	}
	return tr, err
}

func (r *repository) CountByPair(ctx context.Context, tenantID, roleID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tenant_roles WHERE tenant_id = $1 AND role_id = $2`,
		tenantID, roleID).Scan(&count)
	return count, err
}

func (r *repository) Create(ctx context.Context, tr TenantRole) (TenantRole, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tenant_roles (tenant_id, role_id) VALUES ($1, $2) RETURNING id`,
		tr.TenantID, tr.RoleID).Scan(&tr.ID)
	if err != nil {
		return TenantRole{}, err
	}
	return tr, nil
}

func (r *repository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tenant_roles WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) ListUsers(ctx context.Context, tenantRoleID int64) ([]TenantRoleUser, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_role_id, user_id FROM tenant_role_users
		 WHERE tenant_role_id = $1 ORDER BY id`, tenantRoleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TenantRoleUser
	for rows.Next() {
		var tru TenantRoleUser
		if err := rows.Scan(&tru.ID, &tru.TenantRoleID, &tru.UserID); err != nil {
			return nil, err
		}
		result = append(result, tru)
	}
	return result, rows.Err()
}

func (r *repository) CountUserPair(ctx context.Context, tenantRoleID, userID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tenant_role_users WHERE tenant_role_id = $1 AND user_id = $2`,
		tenantRoleID, userID).Scan(&count)
	return count, err
}

func (r *repository) CreateUser(ctx context.Context, tru TenantRoleUser) (TenantRoleUser, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tenant_role_users (tenant_role_id, user_id) VALUES ($1, $2) RETURNING id`,
		tru.TenantRoleID, tru.UserID).Scan(&tru.ID)
	if err != nil {
		return TenantRoleUser{}, err
	}
	return tru, nil
}

func (r *repository) DeleteUser(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tenant_role_users WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) ListPermissions(ctx context.Context, tenantRoleID int64) ([]TenantRolePermission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_role_id, permission_id FROM tenant_role_permissions
		 WHERE tenant_role_id = $1 ORDER BY id`, tenantRoleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TenantRolePermission
	for rows.Next() {
		var trp TenantRolePermission
		if err := rows.Scan(&trp.ID, &trp.TenantRoleID, &trp.PermissionID); err != nil {
			return nil, err
		}
		result = append(result, trp)
	}
	return result, rows.Err()
}

func (r *repository) CountPermissionPair(ctx context.Context, tenantRoleID, permissionID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tenant_role_permissions WHERE tenant_role_id = $1 AND permission_id = $2`,
		tenantRoleID, permissionID).Scan(&count)
	return count, err
}

func (r *repository) CreatePermission(ctx context.Context, trp TenantRolePermission) (TenantRolePermission, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tenant_role_permissions (tenant_role_id, permission_id) VALUES ($1, $2) RETURNING id`,
		trp.TenantRoleID, trp.PermissionID).Scan(&trp.ID)
	if err != nil {
		return TenantRolePermission{}, err
	}
	return trp, nil
}

func (r *repository) DeletePermission(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tenant_role_permissions WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AssociationExists runs one existence query over the joined composition.
// LEFT JOINs keep tenant-role rows visible even before any user or
// permission is attached, so a zero-predicate filter matches any row.
func (r *repository) AssociationExists(ctx context.Context, filter AssociationFilter) (bool, error) {
	b := shared.NewPredicateBuilder(shared.FilterOptions{Conjunction: filter.Conjunction}, 1)
	b.EqInt64("tr.tenant_id", filter.TenantID).
		EqInt64("tr.role_id", filter.RoleID).
		EqInt64("tru.user_id", filter.UserID).
		EqInt64("trp.permission_id", filter.PermissionID)
	where, args := b.Build()

	query := `SELECT EXISTS (
		SELECT 1 FROM tenant_roles tr
		LEFT JOIN tenant_role_users tru ON tru.tenant_role_id = tr.id
		LEFT JOIN tenant_role_permissions trp ON trp.tenant_role_id = tr.id`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += `)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, args...).Scan(&exists)
	return exists, err
}

func (r *repository) RoleGranted(ctx context.Context, userID, roleID int64, tenantID *int64) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM tenant_roles tr
		JOIN tenant_role_users tru ON tru.tenant_role_id = tr.id
		WHERE tr.role_id = $1 AND tru.user_id = $2`
	args := []any{roleID, userID}
	if tenantID != nil {
		query += ` AND tr.tenant_id = $` + strconv.Itoa(len(args)+1)
		args = append(args, *tenantID)
	}
	query += `)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, args...).Scan(&exists)
	return exists, err
}

func (r *repository) PermissionGranted(ctx context.Context, userID, permissionID int64, tenantID *int64) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM tenant_roles tr
		JOIN tenant_role_users tru ON tru.tenant_role_id = tr.id
		JOIN tenant_role_permissions trp ON trp.tenant_role_id = tr.id
		WHERE tru.user_id = $1 AND trp.permission_id = $2`
	args := []any{userID, permissionID}
	if tenantID != nil {
		query += ` AND tr.tenant_id = $` + strconv.Itoa(len(args)+1)
		args = append(args, *tenantID)
	}
	query += `)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, args...).Scan(&exists)
	return exists, err
}
