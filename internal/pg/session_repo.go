package pg

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	auth "github.com/guardianauth/guardian"
)

// SessionRepository is an implementation of auth.SessionRepository.
type SessionRepository struct {
	client *Client
}

// Create persists a new session record.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	sessionID, err := ulid.New(ulid.Now(), r.client.entropy)
	if err != nil {
		return errors.Wrap(err, "cannot generate unique session ID")
	}

	session.ID = sessionID.String()
	row := r.client.queryRowContext(
		ctx,
		r.client.sessionQ["insert"],
		session.ID,
		session.UserID,
		session.TokenHash,
		session.IPAddress,
	)
	return row.Scan(&session.CreatedAt)
}

// CloseOpen sets a close timestamp on every open session of a User.
// Closed sessions stay closed.
func (r *SessionRepository) CloseOpen(ctx context.Context, userID string) error {
	_, err := r.client.execContext(ctx, r.client.sessionQ["closeOpen"], userID)
	return err
}
