package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/stockroom-app/backend/internal/user/domain"
)

type Repository interface {
	Create(ctx context.Context, user domain.User) error
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)
	FindOrCreateOAuth(ctx context.Context, id domain.ID, email string) (domain.User, error)
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Create(ctx context.Context, user domain.User) error {
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO users (id, email, password_hash, role_name, store_id) VALUES ($1, $2, $3, $4, $5)`,
		string(user.ID),
		user.Email,
		user.PasswordHash,
		user.RoleName,
		user.StoreID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PgRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, email, password_hash, role_name, store_id, created_at FROM users WHERE email = $1`,
		email,
	)
	return scanUser(row, "email")
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, email, password_hash, role_name, store_id, created_at FROM users WHERE id = $1`,
		string(id),
	)
	return scanUser(row, "id")
}

// FindOrCreateOAuth returns the user with the given email, creating a
// password-less USER account when none exists. A concurrent insert of the
// same email loses the unique-index race and falls back to a re-select.
func (r *PgRepository) FindOrCreateOAuth(ctx context.Context, id domain.ID, email string) (domain.User, error) {
	user, err := r.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return domain.User{}, err
	}

	created := domain.User{
		ID:       id,
		Email:    email,
		RoleName: domain.RoleUser,
	}
	if err := r.Create(ctx, created); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return r.FindByEmail(ctx, email)
		}
		return domain.User{}, err
	}

	return r.FindByEmail(ctx, email)
}

func scanUser(row pgx.Row, by string) (domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.RoleName, &user.StoreID, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("failed to find user by %s: %w", by, err)
	}
	return user, nil
}

var ErrUserNotFound = pgx.ErrNoRows

var ErrEmailAlreadyExists = errors.New("email already exists")
