package pg

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	auth "github.com/guardianauth/guardian"
)

// RefreshTokenRepository is an implementation of
// auth.RefreshTokenRepository.
type RefreshTokenRepository struct {
	client *Client
}

// Create persists a new refresh token.
func (r *RefreshTokenRepository) Create(ctx context.Context, token *auth.RefreshToken) error {
	tokenID, err := ulid.New(ulid.Now(), r.client.entropy)
	if err != nil {
		return errors.Wrap(err, "cannot generate unique token ID")
	}

	token.ID = tokenID.String()
	row := r.client.queryRowContext(
		ctx,
		r.client.refreshQ["insert"],
		token.ID,
		token.UserID,
		token.TokenHash,
		token.Status,
		token.ExpiresAt,
	)
	return row.Scan(&token.IssuedAt)
}

// Latest retrieves the most recently issued Active token for a User.
func (r *RefreshTokenRepository) Latest(ctx context.Context, userID string) (*auth.RefreshToken, error) {
	var token auth.RefreshToken
	row := r.client.queryRowContext(ctx, r.client.refreshQ["latest"], userID)
	err := row.Scan(
		&token.ID, &token.UserID, &token.TokenHash, &token.Status,
		&token.IssuedAt, &token.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	return &token, nil
}

// RevokeActive marks every Active token for a User as Revoked. It is
// a no-op when no Active tokens exist.
func (r *RefreshTokenRepository) RevokeActive(ctx context.Context, userID string) error {
	_, err := r.client.execContext(ctx, r.client.refreshQ["revokeActive"], userID)
	return err
}
