// Package refresh rotates long-lived refresh tokens.
package refresh

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	auth "github.com/guardianauth/guardian"
	"github.com/guardianauth/guardian/internal/crypto"
)

// tokenLength is the length of a plaintext refresh token.
const tokenLength = 40

// service is an implementation of auth.RefreshService.
type service struct {
	logger      log.Logger
	repoMngr    auth.RepositoryManager
	hasher      auth.Hasher
	tokenExpiry time.Duration
}

// Issue rotates the User's refresh token. Prior Active tokens are
// revoked and a fresh token persisted in a single transaction, so a
// User holds at most one usable token at any instant.
func (s *service) Issue(ctx context.Context, userID string) (string, error) {
	token, err := crypto.String(tokenLength)
	if err != nil {
		return "", errors.Wrap(err, "cannot generate token")
	}

	hash, err := s.hasher.HashSecret(token)
	if err != nil {
		return "", errors.Wrap(err, "cannot hash token")
	}

	client, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return "", err
	}

	_, err = client.WithAtomic(func() (interface{}, error) {
		if err := client.RefreshToken().RevokeActive(ctx, userID); err != nil {
			return nil, err
		}

		refreshToken := &auth.RefreshToken{
			UserID:    userID,
			TokenHash: hash,
			Status:    auth.RefreshActive,
			ExpiresAt: time.Now().UTC().Add(s.tokenExpiry),
		}
		if err := client.RefreshToken().Create(ctx, refreshToken); err != nil {
			return nil, err
		}

		return refreshToken, nil
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

// Validate reports if a candidate token is the User's current
// unexpired refresh token. All failures report false; storage errors
// are logged, never surfaced.
func (s *service) Validate(ctx context.Context, userID, token string) bool {
	latest, err := s.repoMngr.RefreshToken().Latest(ctx, userID)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		level.Info(s.logger).Log(
			"source", "refresh.Validate",
			"message", "failed to retrieve token",
			"error", err,
		)
		return false
	}

	if time.Now().UTC().After(latest.ExpiresAt) {
		return false
	}

	return s.hasher.VerifySecret(token, latest.TokenHash)
}

// Revoke marks all of the User's Active tokens as Revoked. Calling
// Revoke with no Active tokens is a no-op.
func (s *service) Revoke(ctx context.Context, userID string) error {
	return s.repoMngr.RefreshToken().RevokeActive(ctx, userID)
}
