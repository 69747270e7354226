package users

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-platform/aegis/internal/shared"
)

// Repository defines persistence operations for users.
type Repository interface {
	List(ctx context.Context, params shared.PageParams) ([]User, int, error)
	Search(ctx context.Context, filter Filter) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	GetByLogon(ctx context.Context, logon string) (User, error)
	GetBySubject(ctx context.Context, subject string) (User, error)
	IDBySubject(ctx context.Context, subject string) (int64, error)
	CountByNaturalKeys(ctx context.Context, logon, subject string, excludeID int64) (int, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, user User) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const userColumns = `id, logon, subject, email, enabled, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Logon, &u.Subject, &u.Email, &u.Enabled,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, shared.ErrNotFound
	}
	return u, err
}

func scanUsers(rows pgx.Rows) ([]User, error) {
	var result []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Logon, &u.Subject, &u.Email, &u.Enabled,
			&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (r *repository) List(ctx context.Context, params shared.PageParams) ([]User, int, error) {
	b := shared.NewPredicateBuilder(shared.FilterOptions{Exact: params.IsExact, Conjunction: false}, 1)
	b.MatchString("logon", params.Search).MatchString("email", params.Search)
	where, args := b.Build()

	countQuery := `SELECT COUNT(*) FROM users`
	query := `SELECT ` + userColumns + ` FROM users`
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
	case "logon":
		query += ` ORDER BY logon ` + dir
	case "email":
		query += ` ORDER BY email ` + dir
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

	result, err := scanUsers(rows)
	return result, total, err
}

func (r *repository) Search(ctx context.Context, filter Filter) ([]User, error) {
	b := shared.NewPredicateBuilder(filter.Opts, 1)
	b.MatchString("logon", filter.Logon).
		MatchString("email", filter.Email).
		MatchString("subject", filter.Subject).
		EqBool("enabled", filter.Enabled)
	where, args := b.Build()

	query := `SELECT ` + userColumns + ` FROM users`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *repository) Get(ctx context.Context, id int64) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *repository) GetByLogon(ctx context.Context, logon string) (User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(logon) = LOWER($1)`, logon))
}

func (r *repository) GetBySubject(ctx context.Context, subject string) (User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE subject = $1`, subject))
}

func (r *repository) IDBySubject(ctx context.Context, subject string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM users WHERE subject = $1`, subject).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	return id, err
}

func (r *repository) CountByNaturalKeys(ctx context.Context, logon, subject string, excludeID int64) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE (LOWER(logon) = LOWER($1) OR subject = $2)`
	args := []any{logon, subject}
	if excludeID > 0 {
		query += ` AND id <> $3`
		args = append(args, excludeID)
	}
	var count int
	err := r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *repository) Create(ctx context.Context, user User) (User, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (logon, subject, email, enabled, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		user.Logon, user.Subject, user.Email, user.Enabled, user.PasswordHash, now, now).Scan(&user.ID)
	if err != nil {
		return User{}, err
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return user, nil
}

func (r *repository) Update(ctx context.Context, user User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET logon = $1, email = $2, enabled = $3, updated_at = $4 WHERE id = $5`,
		user.Logon, user.Email, user.Enabled, time.Now().UTC(), user.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
