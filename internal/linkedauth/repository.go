package linkedauth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-platform/aegis/internal/shared"
)

// Repository defines persistence operations for linked authorizations.
type Repository interface {
	List(ctx context.Context, filter Filter, params shared.PageParams) ([]LinkedAuthorization, int, error)
	Search(ctx context.Context, filter Filter) ([]LinkedAuthorization, error)
	Get(ctx context.Context, id int64) (LinkedAuthorization, error)
	CountByTuple(ctx context.Context, la LinkedAuthorization) (int, error)
	Create(ctx context.Context, la LinkedAuthorization) (LinkedAuthorization, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Exists(ctx context.Context, filter Filter) (bool, error)
	RoleGranted(ctx context.Context, userID, roleID int64, tenantID *int64) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id, tenant_id, role_id, permission_id, user_id,
	create_user, last_update_user, create_date, last_update`

func scanRows(rows pgx.Rows) ([]LinkedAuthorization, error) {
	var result []LinkedAuthorization
	for rows.Next() {
		var la LinkedAuthorization
		if err := rows.Scan(&la.ID, &la.TenantID, &la.RoleID, &la.PermissionID, &la.UserID,
			&la.CreateUser, &la.LastUpdateUser, &la.CreateDate, &la.LastUpdate); err != nil {
			return nil, err
		}
		result = append(result, la)
	}
	return result, rows.Err()
}

func filterClause(filter Filter, startArg int) (string, []any) {
	b := shared.NewPredicateBuilder(filter.Opts, startArg)
	b.EqInt64("tenant_id", filter.TenantID).
		EqInt64("role_id", filter.RoleID).
		EqInt64("permission_id", filter.PermissionID).
		EqInt64("user_id", filter.UserID)
	return b.Build()
}

func (r *repository) List(ctx context.Context, filter Filter, params shared.PageParams) ([]LinkedAuthorization, int, error) {
	where, args := filterClause(filter, 1)

	countQuery := `SELECT COUNT(*) FROM linked_authorizations`
	query := `SELECT ` + columns + ` FROM linked_authorizations`
	if where != "" {
		countQuery += ` WHERE ` + where
		query += ` WHERE ` + where
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := "DESC"
	if params.IsAscending {
		dir = "ASC"
	}
	switch params.SortBy {
	case "tenantId":
		query += ` ORDER BY tenant_id ` + dir + `, id ` + dir
	case "userId":
		query += ` ORDER BY user_id ` + dir + `, id ` + dir
	default:
		query += ` ORDER BY id ` + dir
	}
	query += ` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, params.PageSize, params.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result, err := scanRows(rows)
	return result, total, err
}

func (r *repository) Search(ctx context.Context, filter Filter) ([]LinkedAuthorization, error) {
	where, args := filterClause(filter, 1)

	query := `SELECT ` + columns + ` FROM linked_authorizations`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func (r *repository) Get(ctx context.Context, id int64) (LinkedAuthorization, error) {
	var la LinkedAuthorization
	err := r.pool.QueryRow(ctx,
		`SELECT `+columns+` FROM linked_authorizations WHERE id = $1`, id).
		Scan(&la.ID, &la.TenantID, &la.RoleID, &la.PermissionID, &la.UserID,
			&la.CreateUser, &la.LastUpdateUser, &la.CreateDate, &la.LastUpdate)
	if errors.Is(err, pgx.ErrNoRows) {
		return LinkedAuthorization{}, shared.ErrNotFound
	}
	return la, err
}

func (r *repository) CountByTuple(ctx context.Context, la LinkedAuthorization) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM linked_authorizations
		 WHERE tenant_id = $1 AND role_id = $2 AND permission_id = $3 AND user_id = $4`,
		la.TenantID, la.RoleID, la.PermissionID, la.UserID).Scan(&count)
	return count, err
}

func (r *repository) Create(ctx context.Context, la LinkedAuthorization) (LinkedAuthorization, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO linked_authorizations
		 (tenant_id, role_id, permission_id, user_id, create_user, last_update_user, create_date, last_update)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		la.TenantID, la.RoleID, la.PermissionID, la.UserID,
		la.CreateUser, la.LastUpdateUser, now, now).Scan(&la.ID)
	if err != nil {
		return LinkedAuthorization{}, err
	}
	la.CreateDate = now
	la.LastUpdate = now
	return la, nil
}

func (r *repository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM linked_authorizations WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) Exists(ctx context.Context, filter Filter) (bool, error) {
	where, args := filterClause(filter, 1)

	query := `SELECT EXISTS (SELECT 1 FROM linked_authorizations`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += `)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, args...).Scan(&exists)
	return exists, err
}

func (r *repository) RoleGranted(ctx context.Context, userID, roleID int64, tenantID *int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM linked_authorizations WHERE user_id = $1 AND role_id = $2`
	args := []any{userID, roleID}
	if tenantID != nil {
		query += ` AND tenant_id = $` + strconv.Itoa(len(args)+1)
		args = append(args, *tenantID)
	}
	query += `)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, args...).Scan(&exists)
	return exists, err
}
