package roles

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-platform/aegis/internal/shared"
)

// Repository defines persistence operations for roles.
type Repository interface {
	List(ctx context.Context, params shared.PageParams) ([]Role, int, error)
	Search(ctx context.Context, filter Filter) ([]Role, error)
	Get(ctx context.Context, id int64) (Role, error)
	GetByName(ctx context.Context, name string) (Role, error)
	CountByName(ctx context.Context, name string, excludeID int64) (int, error)
	Create(ctx context.Context, role Role) (Role, error)
	Update(ctx context.Context, role Role) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const roleColumns = `id, name, description, create_user, last_update_user, created_at, updated_at`

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.CreateUser,
		&role.LastUpdateUser, &role.CreateDate, &role.LastUpdate)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, shared.ErrNotFound
	}
	return role, err
}

func scanRoles(rows pgx.Rows) ([]Role, error) {
	var result []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreateUser,
			&role.LastUpdateUser, &role.CreateDate, &role.LastUpdate); err != nil {
			return nil, err
		}
		result = append(result, role)
	}
	return result, rows.Err()
}

func (r *repository) List(ctx context.Context, params shared.PageParams) ([]Role, int, error) {
	b := shared.NewPredicateBuilder(shared.FilterOptions{Exact: params.IsExact, Conjunction: true}, 1)
	b.MatchString("name", params.Search)
	where, args := b.Build()

	countQuery := `SELECT COUNT(*) FROM roles`
	query := `SELECT ` + roleColumns + ` FROM roles`
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

	result, err := scanRoles(rows)
	return result, total, err
}

func (r *repository) Search(ctx context.Context, filter Filter) ([]Role, error) {
	b := shared.NewPredicateBuilder(filter.Opts, 1)
	b.MatchString("name", filter.Name).MatchString("description", filter.Description)
	where, args := b.Build()

	query := `SELECT ` + roleColumns + ` FROM roles`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRoles(rows)
}

func (r *repository) Get(ctx context.Context, id int64) (Role, error) {
	return scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
}

func (r *repository) GetByName(ctx context.Context, name string) (Role, error) {
	return scanRole(r.pool.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE LOWER(name) = LOWER($1)`, name))
}

func (r *repository) CountByName(ctx context.Context, name string, excludeID int64) (int, error) {
	query := `SELECT COUNT(*) FROM roles WHERE LOWER(name) = LOWER($1)`
	args := []any{name}
	if excludeID > 0 {
		query += ` AND id <> $2`
		args = append(args, excludeID)
	}
	var count int
	err := r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *repository) Create(ctx context.Context, role Role) (Role, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO roles (name, description, create_user, last_update_user, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		role.Name, role.Description, role.CreateUser, role.LastUpdateUser, now, now).Scan(&role.ID)
	if err != nil {
		return Role{}, err
	}
	role.CreateDate = now
	role.LastUpdate = now
	return role, nil
}

func (r *repository) Update(ctx context.Context, role Role) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE roles SET name = $1, description = $2, last_update_user = $3, updated_at = $4 WHERE id = $5`,
		role.Name, role.Description, role.LastUpdateUser, time.Now().UTC(), role.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func sortOrder(sortBy string, ascending bool) string {
	dir := "DESC"
	if ascending {
		dir = "ASC"
	}
	switch sortBy {
	case "name":
		return "name " + dir
	case "description":
		return "description " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "id " + dir
	}
}
