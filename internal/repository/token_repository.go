package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo tracks refresh tokens for the auth flow. Only the SHA-256
// hash of a token ever reaches this layer; the raw value lives solely in
// the client's cookie.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh records a freshly issued refresh token hash with its
// expiry. The unique key on token_hash rejects the astronomically
// unlikely hash collision.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	const q = `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)`
	_, err := r.DB.ExecContext(ctx, q, userID, tokenHash, expiresAt)
	return err
}

// ValidateRefresh resolves a token hash to its owner. Revoked and
// expired tokens are filtered in the query, as are tokens belonging to
// deactivated accounts, so all three cases surface uniformly as
// sql.ErrNoRows.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	const q = `SELECT t.user_id
	           FROM refresh_tokens t
	           JOIN users u ON u.id = t.user_id
	           WHERE t.token_hash = ?
	             AND t.revoked_at IS NULL
	             AND t.expires_at > NOW()
	             AND u.is_active = 1
	           LIMIT 1`
	var userID uint64
	if err := r.DB.QueryRowContext(ctx, q, tokenHash).Scan(&userID); err != nil {
		return 0, err
	}
	return userID, nil
}

// RevokeByHash retires one token, used on logout and on rotation after a
// successful refresh. Already revoked rows are left as they are so the
// original revocation time survives.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	const q = `UPDATE refresh_tokens SET revoked_at = NOW()
	           WHERE token_hash = ? AND revoked_at IS NULL`
	_, err := r.DB.ExecContext(ctx, q, tokenHash)
	return err
}

// RevokeAllForUser retires every live token a user holds, ending all of
// their sessions at once ("logout everywhere").
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	const q = `UPDATE refresh_tokens SET revoked_at = NOW()
	           WHERE user_id = ? AND revoked_at IS NULL`
	_, err := r.DB.ExecContext(ctx, q, userID)
	return err
}
