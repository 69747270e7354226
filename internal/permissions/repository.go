package permissions

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-platform/aegis/internal/shared"
)

// Repository defines persistence operations for permissions and actions.
type Repository interface {
	List(ctx context.Context, params shared.PageParams) ([]Permission, int, error)
	Search(ctx context.Context, filter Filter) ([]Permission, error)
	Get(ctx context.Context, id int64) (Permission, error)
	IDByResourceAndAction(ctx context.Context, resource, action string) (int64, error)
	CountByName(ctx context.Context, name string, excludeID int64) (int, error)
	Create(ctx context.Context, p Permission) (Permission, error)
	Update(ctx context.Context, p Permission) error
	Delete(ctx context.Context, id int64) (bool, error)

	GetAction(ctx context.Context, id int64) (Action, error)
	ListActions(ctx context.Context) ([]Action, error)
	CountActionsByName(ctx context.Context, name string, excludeID int64) (int, error)
	CreateAction(ctx context.Context, a Action) (Action, error)
	DeleteAction(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const permissionColumns = `id, name, resource, action_id, create_user, last_update_user, created_at, updated_at`

func scanPermission(row pgx.Row) (Permission, error) {
	var p Permission
	err := row.Scan(&p.ID, &p.Name, &p.Resource, &p.ActionID, &p.CreateUser,
		&p.LastUpdateUser, &p.CreateDate, &p.LastUpdate)
	if errors.Is(err, pgx.ErrNoRows) {
		return Permission{}, shared.ErrNotFound
	}
	return p, err
}

func scanPermissions(rows pgx.Rows) ([]Permission, error) {
	var result []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Resource, &p.ActionID, &p.CreateUser,
			&p.LastUpdateUser, &p.CreateDate, &p.LastUpdate); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *repository) List(ctx context.Context, params shared.PageParams) ([]Permission, int, error) {
	b := shared.NewPredicateBuilder(shared.FilterOptions{Exact: params.IsExact, Conjunction: true}, 1)
	b.MatchString("name", params.Search)
	where, args := b.Build()

	countQuery := `SELECT COUNT(*) FROM permissions`
	query := `SELECT ` + permissionColumns + ` FROM permissions`
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
	case "name":
		query += ` ORDER BY name ` + dir
	case "resource":
		query += ` ORDER BY resource ` + dir
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

	result, err := scanPermissions(rows)
	return result, total, err
}

func (r *repository) Search(ctx context.Context, filter Filter) ([]Permission, error) {
	b := shared.NewPredicateBuilder(filter.Opts, 1)
	b.MatchString("name", filter.Name).
		MatchString("resource", filter.Resource).
		EqInt64("action_id", filter.ActionID)
	where, args := b.Build()

	query := `SELECT ` + permissionColumns + ` FROM permissions`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

func (r *repository) Get(ctx context.Context, id int64) (Permission, error) {
	return scanPermission(r.pool.QueryRow(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, id))
}

func (r *repository) IDByResourceAndAction(ctx context.Context, resource, action string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`SELECT p.id FROM permissions p
		 JOIN actions a ON a.id = p.action_id
		 WHERE LOWER(p.resource) = LOWER($1) AND LOWER(a.name) = LOWER($2)`,
		resource, action).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	return id, err
}

func (r *repository) CountByName(ctx context.Context, name string, excludeID int64) (int, error) {
	query := `SELECT COUNT(*) FROM permissions WHERE LOWER(name) = LOWER($1)`
	args := []any{name}
	if excludeID > 0 {
		query += ` AND id <> $2`
		args = append(args, excludeID)
	}
	var count int
	err := r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *repository) Create(ctx context.Context, p Permission) (Permission, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO permissions (name, resource, action_id, create_user, last_update_user, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		p.Name, p.Resource, p.ActionID, p.CreateUser, p.LastUpdateUser, now, now).Scan(&p.ID)
	if err != nil {
		return Permission{}, err
	}
	p.CreateDate = now
	p.LastUpdate = now
	return p, nil
}

func (r *repository) Update(ctx context.Context, p Permission) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE permissions SET name = $1, resource = $2, action_id = $3, last_update_user = $4, updated_at = $5
		 WHERE id = $6`,
		p.Name, p.Resource, p.ActionID, p.LastUpdateUser, time.Now().UTC(), p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repository) GetAction(ctx context.Context, id int64) (Action, error) {
	var a Action
	err := r.pool.QueryRow(ctx, `SELECT id, name, type FROM actions WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.Type)
	if errors.Is(err, pgx.ErrNoRows) {
		return Action{}, shared.ErrNotFound
	}
	return a, err
}

func (r *repository) ListActions(ctx context.Context) ([]Action, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, type FROM actions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		var a Action
		if err := rows.Scan(&a.ID, &a.Name, &a.Type); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func (r *repository) CountActionsByName(ctx context.Context, name string, excludeID int64) (int, error) {
	query := `SELECT COUNT(*) FROM actions WHERE LOWER(name) = LOWER($1)`
	args := []any{name}
	if excludeID > 0 {
		query += ` AND id <> $2`
		args = append(args, excludeID)
	}
	var count int
	err := r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *repository) CreateAction(ctx context.Context, a Action) (Action, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO actions (name, type) VALUES ($1, $2) RETURNING id`,
		a.Name, a.Type).Scan(&a.ID)
	if err != nil {
		return Action{}, err
	}
	return a, nil
}

func (r *repository) DeleteAction(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM actions WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
