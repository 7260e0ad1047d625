package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facilityworks/helpdesk/internal/domain"
)

const userColumns = `id, username, role, password_hash, active, force_password_reset, created_at, updated_at`

type userPostgres struct {
	pool *pgxpool.Pool
}

// NewUserPostgres instantiates the Postgres-backed user repository.
func NewUserPostgres(pool *pgxpool.Pool) UserRepository {
	return &userPostgres{pool: pool}
}

func (r *userPostgres) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, username, role, password_hash, active, force_password_reset, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Username, user.Role, user.PasswordHash,
		user.Active, user.ForcePasswordReset, user.CreatedAt, user.UpdatedAt,
	)
	return err
}

func (r *userPostgres) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET username=$1, role=$2, password_hash=$3, active=$4,
            force_password_reset=$5, updated_at=$6
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		user.Username, user.Role, user.PasswordHash, user.Active,
		user.ForcePasswordReset, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userPostgres) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userPostgres) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
}

func (r *userPostgres) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := scanUser(rows, &user); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *userPostgres) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := scanUser(r.pool.QueryRow(ctx, query, arg), &user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func scanUser(row pgx.Row, user *domain.User) error {
	return row.Scan(
		&user.ID,
		&user.Username,
		&user.Role,
		&user.PasswordHash,
		&user.Active,
		&user.ForcePasswordReset,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}
