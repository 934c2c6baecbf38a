package pg

import (
	"database/sql"

	"github.com/go-kit/kit/log"
	"github.com/oklog/ulid/v2"

	"github.com/guardianauth/guardian/internal/entropy"
)

// NewClient returns a new Postgres client to manage repositories.
func NewClient(options ...ConfigOption) *Client {
	c := Client{
		logger:            log.NewNopLogger(),
		userRepository:    &UserRepository{},
		otpRepository:     &OTPRepository{},
		refreshRepository: &RefreshTokenRepository{},
		sessionRepository: &SessionRepository{},
	}

	c.entropy = entropy.New()

	for _, opt := range options {
		opt(&c)
	}

	// Each repository has an embedded client to ensure they
	// use the same connection and are able to share transactions.
	c.userRepository.client = &c
	c.otpRepository.client = &c
	c.refreshRepository.client = &c
	c.sessionRepository.client = &c

	return &c
}

// ConfigOption configures the Client.
type ConfigOption func(*Client)

// WithLogger configures the client with a Logger.
func WithLogger(l log.Logger) ConfigOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithEntropy configures the client with random entropy
// for generating ULIDs.
func WithEntropy(e ulid.MonotonicReader) ConfigOption {
	return func(c *Client) {
		c.entropy = e
	}
}

// WithDB configures the client with an open database handle.
func WithDB(db *sql.DB) ConfigOption {
	return func(c *Client) {
		c.db = db
		c.loadQueries()
	}
}
