package token

import (
	"time"

	"github.com/go-kit/kit/log"

	auth "github.com/guardianauth/guardian"
	"github.com/guardianauth/guardian/internal/entropy"
)

const (
	defaultTokenExpiry = time.Minute * 15
	defaultIssuer      = "guardian"
)

// NewService returns a new TokenService.
func NewService(options ...ConfigOption) auth.TokenService {
	s := service{
		logger:      log.NewNopLogger(),
		tokenExpiry: defaultTokenExpiry,
		issuer:      defaultIssuer,
	}

	s.entropy = entropy.New()

	for _, opt := range options {
		opt(&s)
	}

	return &s
}

// ConfigOption configures the service.
type ConfigOption func(*service)

// WithLogger configures the service with a logger.
func WithLogger(l log.Logger) ConfigOption {
	return func(s *service) {
		s.logger = l
	}
}

// WithTokenExpiry defines how long tokens are valid for.
// The default value is 15 minutes.
func WithTokenExpiry(expiresIn time.Duration) ConfigOption {
	return func(s *service) {
		s.tokenExpiry = expiresIn
	}
}

// WithSecret configures the service with a secret value
// for signing functions.
func WithSecret(secret string) ConfigOption {
	return func(s *service) {
		s.secret = []byte(secret)
	}
}

// WithIssuer is the issuer identity for the JWT token.
func WithIssuer(issuer string) ConfigOption {
	return func(s *service) {
		s.issuer = issuer
	}
}
