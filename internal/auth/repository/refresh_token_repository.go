package repository

import (
	"context"
	"time"

	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	authdomain "github.com/stockroom-app/backend/internal/auth/domain"
	"github.com/stockroom-app/backend/internal/common/db"
)

type RefreshTokenRepository interface {
	Create(ctx context.Context, token authdomain.RefreshToken) error
	FindByUserID(ctx context.Context, userID string) ([]authdomain.RefreshToken, error)
	Revoke(ctx context.Context, id string) (bool, error)
	CountByUserID(ctx context.Context, userID string) (int, error)
	FindOldestByUserID(ctx context.Context, userID string, limit int) ([]string, error)
	DeleteByIDs(ctx context.Context, ids []string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type PgRefreshTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPgRefreshTokenRepository(pool *pgxpool.Pool) *PgRefreshTokenRepository {
	return &PgRefreshTokenRepository{pool: pool}
}

func (r *PgRefreshTokenRepository) Create(ctx context.Context, token authdomain.RefreshToken) error {
	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO refresh_tokens (id, token_hash, user_id, device, issued_ip, is_revoked, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		token.ID,
		token.TokenHash,
		token.UserID,
		token.Device,
		token.IssuedIP,
		token.IsRevoked,
		token.ExpiresAt,
		token.CreatedAt,
	)
	return db.HandleExecError(err, "create refresh token", start)
}

// FindByUserID returns all stored records for the user, revoked ones
// included, so a presented token can be told apart from a reused one.
func (r *PgRefreshTokenRepository) FindByUserID(ctx context.Context, userID string) ([]authdomain.RefreshToken, error) {
	start := time.Now()
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, token_hash, user_id, device, issued_ip, is_revoked, expires_at, created_at
		 FROM refresh_tokens
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, db.HandleQueryError(err, nil, "find refresh tokens by user", start)
	}
	defer rows.Close()

	var tokens []authdomain.RefreshToken
	for rows.Next() {
		var t authdomain.RefreshToken
		if err := rows.Scan(&t.ID, &t.TokenHash, &t.UserID, &t.Device, &t.IssuedIP, &t.IsRevoked, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, db.HandleQueryError(err, nil, "scan refresh token", start)
		}
		tokens = append(tokens, t)
	}
	if rows.Err() != nil {
		return nil, db.HandleQueryError(rows.Err(), nil, "iterate refresh tokens", start)
	}

	db.MeasureQueryDuration("find refresh tokens by user", start)
	return tokens, nil
}

// Revoke flips is_revoked exactly once. It reports false when the record is
// already revoked or does not exist, so a lost rotation race is observable.
func (r *PgRefreshTokenRepository) Revoke(ctx context.Context, id string) (bool, error) {
	start := time.Now()
	res, err := r.pool.Exec(
		ctx,
		`UPDATE refresh_tokens SET is_revoked = TRUE WHERE id = $1 AND NOT is_revoked`,
		id,
	)
	if err != nil {
		return false, db.HandleExecError(err, "revoke refresh token", start)
	}
	db.MeasureQueryDuration("revoke refresh token", start)
	return res.RowsAffected() > 0, nil
}

func (r *PgRefreshTokenRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM refresh_tokens WHERE user_id = $1`,
		userID,
	)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, db.HandleQueryError(err, nil, "count refresh tokens", start)
	}
	db.MeasureQueryDuration("count refresh tokens", start)
	return count, nil
}

// FindOldestByUserID returns the ids of the user's records closest to expiry,
// oldest creation first among equal expiries.
func (r *PgRefreshTokenRepository) FindOldestByUserID(ctx context.Context, userID string, limit int) ([]string, error) {
	start := time.Now()
	rows, err := r.pool.Query(
		ctx,
		`SELECT id
		 FROM refresh_tokens
		 WHERE user_id = $1
		 ORDER BY expires_at ASC, created_at ASC
		 LIMIT $2`,
		userID,
		limit,
	)
	if err != nil {
		return nil, db.HandleQueryError(err, nil, "find oldest refresh tokens", start)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, db.HandleQueryError(err, nil, "scan refresh token id", start)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, db.HandleQueryError(rows.Err(), nil, "iterate refresh token ids", start)
	}

	db.MeasureQueryDuration("find oldest refresh tokens", start)
	return ids, nil
}

func (r *PgRefreshTokenRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`DELETE FROM refresh_tokens WHERE id = ANY($1)`,
		ids,
	)
	return db.HandleExecError(err, "delete refresh tokens by id", start)
}

func (r *PgRefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	start := time.Now()
	res, err := r.pool.Exec(
		ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < NOW()`,
	)
	if err != nil {
		return 0, db.HandleExecError(err, "delete expired refresh tokens", start)
	}
	db.MeasureQueryDuration("delete expired refresh tokens", start)
	return res.RowsAffected(), nil
}

var ErrRefreshTokenNotFound = pgx.ErrNoRows
