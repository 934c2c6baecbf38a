// Package session records issued access tokens for auditing.
package session

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	auth "github.com/guardianauth/guardian"
	"github.com/guardianauth/guardian/internal/crypto"
)

// service is an implementation of auth.SessionService.
type service struct {
	logger   log.Logger
	repoMngr auth.RepositoryManager
}

// Open records a session for a newly issued access token. Sessions
// are an audit trail, not a gate; failures here are logged and
// swallowed so a login is never blocked by session bookkeeping.
func (s *service) Open(ctx context.Context, userID, accessToken, ipAddress string) {
	hash, err := crypto.Hash(accessToken)
	if err != nil {
		level.Info(s.logger).Log(
			"source", "session.Open",
			"message", "failed to hash access token",
			"error", err,
		)
		return
	}

	session := &auth.Session{
		UserID:    userID,
		TokenHash: hash,
		IPAddress: ipAddress,
	}
	if err = s.repoMngr.Session().Create(ctx, session); err != nil {
		level.Info(s.logger).Log(
			"source", "session.Open",
			"message", "failed to record session",
			"user_id", userID,
			"error", err,
		)
	}
}

// Close stamps a close timestamp on every open session of a User.
func (s *service) Close(ctx context.Context, userID string) error {
	return s.repoMngr.Session().CloseOpen(ctx, userID)
}
