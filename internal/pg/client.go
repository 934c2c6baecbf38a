// Package pg provides a postgres backed implementation of the
// guardian repositories.
package pg

import (
	"context"
	"database/sql"

	"github.com/go-kit/kit/log"
	// pq driver registers itself as being available to the database/sql package.
	_ "github.com/lib/pq"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	auth "github.com/guardianauth/guardian"
)

// Client represents a client for PostgreSQL.
type Client struct {
	db      *sql.DB
	tx      *sql.Tx
	entropy ulid.MonotonicReader
	logger  log.Logger

	userRepository *UserRepository
	userQ          map[string]string

	otpRepository *OTPRepository
	otpQ          map[string]string

	refreshRepository *RefreshTokenRepository
	refreshQ          map[string]string

	sessionRepository *SessionRepository
	sessionQ          map[string]string
}

// Open connects to PostgreSQL and prepares the client's queries.
func (c *Client) Open(dataSourceName string) error {
	var err error

	c.logger.Log("level", "debug", "message", "connecting to db")
	if c.db, err = sql.Open("postgres", dataSourceName); err != nil {
		return err
	}
	if err = c.db.Ping(); err != nil {
		return err
	}
	c.logger.Log("level", "debug", "message", "connected to db")

	c.loadQueries()

	return nil
}

func (c *Client) loadQueries() {
	c.userQ = map[string]string{
		"byID": `
			SELECT id, first_name, last_name, second_last_name, email, phone,
				password, auth_method, oauth_provider, credential_id,
				public_key, sign_count, created_at, updated_at
			FROM account_user
			WHERE id = $1;
		`,
		"byEmail": `
			SELECT id, first_name, last_name, second_last_name, email, phone,
				password, auth_method, oauth_provider, credential_id,
				public_key, sign_count, created_at, updated_at
			FROM account_user
			WHERE email = $1;
		`,
		"byPhone": `
			SELECT id, first_name, last_name, second_last_name, email, phone,
				password, auth_method, oauth_provider, credential_id,
				public_key, sign_count, created_at, updated_at
			FROM account_user
			WHERE phone = $1;
		`,
		"forUpdate": `
			SELECT id, first_name, last_name, second_last_name, email, phone,
				password, auth_method, oauth_provider, credential_id,
				public_key, sign_count, created_at, updated_at
			FROM account_user
			WHERE id = $1
			FOR UPDATE;
		`,
		"insert": `
			INSERT INTO account_user (
				id, first_name, last_name, second_last_name, email, phone,
				password, auth_method, oauth_provider
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at, updated_at;
		`,
		"update": `
			UPDATE account_user
			SET first_name=$2, last_name=$3, second_last_name=$4, email=$5,
				phone=$6, password=$7, auth_method=$8, oauth_provider=$9,
				credential_id=$10, public_key=$11, sign_count=$12,
				updated_at=$13
			WHERE id = $1;
		`,
		"attachProvider": `
			UPDATE account_user
			SET oauth_provider=$2, updated_at=$3
			WHERE id = $1
			AND oauth_provider IS NULL;
		`,
		"updateCredential": `
			UPDATE account_user
			SET credential_id=$2, public_key=$3, sign_count=$4, updated_at=$5
			WHERE id = $1;
		`,
	}

	c.otpQ = map[string]string{
		"insert": `
			INSERT INTO otp_code (
				id, user_id, code_hash, purpose, status, expires_at
			)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING issued_at;
		`,
		"latest": `
			SELECT id, user_id, code_hash, purpose, status, issued_at, expires_at
			FROM otp_code
			WHERE user_id = $1
			AND purpose = $2
			AND status = 'Active'
			ORDER BY issued_at DESC
			LIMIT 1;
		`,
		"forUpdate": `
			SELECT id, user_id, code_hash, purpose, status, issued_at, expires_at
			FROM otp_code
			WHERE id = $1
			FOR UPDATE;
		`,
		"update": `
			UPDATE otp_code
			SET status=$2
			WHERE id = $1;
		`,
		"expireActive": `
			UPDATE otp_code
			SET status='Expired'
			WHERE user_id = $1
			AND purpose = $2
			AND status = 'Active';
		`,
		"expireStale": `
			UPDATE otp_code
			SET status='Expired'
			WHERE user_id = $1
			AND status = 'Active'
			AND expires_at < current_timestamp;
		`,
	}

	c.refreshQ = map[string]string{
		"insert": `
			INSERT INTO refresh_token (
				id, user_id, token_hash, status, expires_at
			)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING issued_at;
		`,
		"latest": `
			SELECT id, user_id, token_hash, status, issued_at, expires_at
			FROM refresh_token
			WHERE user_id = $1
			AND status = 'Active'
			ORDER BY issued_at DESC
			LIMIT 1;
		`,
		"revokeActive": `
			UPDATE refresh_token
			SET status='Revoked'
			WHERE user_id = $1
			AND status = 'Active';
		`,
	}

	c.sessionQ = map[string]string{
		"insert": `
			INSERT INTO session (
				id, user_id, token_hash, ip_address
			)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at;
		`,
		"closeOpen": `
			UPDATE session
			SET closed_at = current_timestamp
			WHERE user_id = $1
			AND closed_at IS NULL;
		`,
	}
}

// Close closes the PostgreSQL connection.
func (c *Client) Close() error {
	return c.db.Close()
}

// NewWithTransaction starts a transaction and returns a client
// with the transaction set.
func (c *Client) NewWithTransaction(ctx context.Context) (auth.RepositoryManager, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	newClient := *c
	newClient.tx = tx
	newClient.userRepository = &UserRepository{client: &newClient}
	newClient.otpRepository = &OTPRepository{client: &newClient}
	newClient.refreshRepository = &RefreshTokenRepository{client: &newClient}
	newClient.sessionRepository = &SessionRepository{client: &newClient}
	return &newClient, nil
}

// WithAtomic performs an operation within a transaction. If the operation
// is successful it commits it, otherwise the operation will be rolled back.
func (c *Client) WithAtomic(operation func() (interface{}, error)) (interface{}, error) {
	if c.tx == nil {
		return nil, errors.New("cannot complete operation outside of transaction")
	}

	entity, err := operation()

	defer func() {
		c.tx = nil
	}()

	if err == nil {
		return entity, errors.Wrap(c.tx.Commit(), "commit failed")
	}

	if dbErr := c.tx.Rollback(); dbErr != nil {
		err = errors.Wrap(err, dbErr.Error())
	}

	return nil, err
}

// User returns the UserRepository.
func (c *Client) User() auth.UserRepository {
	return c.userRepository
}

// OTP returns the OTPRepository.
func (c *Client) OTP() auth.OTPRepository {
	return c.otpRepository
}

// RefreshToken returns the RefreshTokenRepository.
func (c *Client) RefreshToken() auth.RefreshTokenRepository {
	return c.refreshRepository
}

// Session returns the SessionRepository.
func (c *Client) Session() auth.SessionRepository {
	return c.sessionRepository
}

func (c *Client) queryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	if c.tx != nil {
		return c.tx.QueryRowContext(ctx, query, args...)
	}
	return c.db.QueryRowContext(ctx, query, args...)
}

func (c *Client) execContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if c.tx != nil {
		return c.tx.ExecContext(ctx, query, args...)
	}
	return c.db.ExecContext(ctx, query, args...)
}
