package tenants

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-platform/aegis/internal/shared"
)

// Repository defines persistence operations for tenants.
type Repository interface {
	List(ctx context.Context, params shared.PageParams) ([]Tenant, int, error)
	Search(ctx context.Context, filter Filter) ([]Tenant, error)
	Get(ctx context.Context, id int64) (Tenant, error)
	CountByName(ctx context.Context, name string, excludeID int64) (int, error)
	Create(ctx context.Context, tenant Tenant) (Tenant, error)
	Update(ctx context.Context, tenant Tenant) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const tenantColumns = `id, name, created_at, updated_at`

func (r *repository) List(ctx context.Context, params shared.PageParams) ([]Tenant, int, error) {
	b := shared.NewPredicateBuilder(shared.FilterOptions{Exact: params.IsExact, Conjunction: true}, 1)
	b.MatchString("name", params.Search)
	where, args := b.Build()

	countQuery := `SELECT COUNT(*) FROM tenants`
	query := `SELECT ` + tenantColumns + ` FROM tenants`
	if where != "" {
		countQuery += ` WHERE ` + where
		query += ` WHERE ` + where
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY ` + sortOrder(params.SortBy, params.IsAscending)
	query += ` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, params.PageSize, params.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tenants, err := scanTenants(rows)
	return tenants, total, err
}

func (r *repository) Search(ctx context.Context, filter Filter) ([]Tenant, error) {
	b := shared.NewPredicateBuilder(filter.Opts, 1)
	b.MatchString("name", filter.Name)
	where, args := b.Build()

	query := `SELECT ` + tenantColumns + ` FROM tenants`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTenants(rows)
}

func (r *repository) Get(ctx context.Context, id int64) (Tenant, error) {
	var t Tenant
	err := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tenant{}, shared.ErrNotFound
	}
	return t, err
}

func (r *repository) CountByName(ctx context.Context, name string, excludeID int64) (int, error) {
	query := `SELECT COUNT(*) FROM tenants WHERE LOWER(name) = LOWER($1)`
	args := []any{name}
	if excludeID > 0 {
		query += ` AND id <> $2`
		args = append(args, excludeID)
	}
	var count int
	err := r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *repository) Create(ctx context.Context, tenant Tenant) (Tenant, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tenants (name, created_at, updated_at) VALUES ($1, $2, $3) RETURNING id`,
		tenant.Name, now, now).Scan(&tenant.ID)
	if err != nil {
		return Tenant{}, err
	}
	tenant.CreatedAt = now
	tenant.UpdatedAt = now
	return tenant, nil
}

func (r *repository) Update(ctx context.Context, tenant Tenant) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tenants SET name = $1, updated_at = $2 WHERE id = $3`,
		tenant.Name, time.Now().UTC(), tenant.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanTenants(rows pgx.Rows) ([]Tenant, error) {
	var tenants []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func sortOrder(sortBy string, ascending bool) string {
	dir := "DESC"
	if ascending {
		dir = "ASC"
	}
	switch sortBy {
	case "name":
		return "name " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "id " + dir
	}
}

