package otp

import (
	"time"

	"github.com/go-kit/kit/log"

	auth "github.com/guardianauth/guardian"
)

const (
	defaultCodeExpiry    = time.Minute
	defaultSMSCodeExpiry = 2 * time.Minute
)

// NewService returns a new implementation of auth.OTPService.
func NewService(options ...ConfigOption) auth.OTPService {
	s := service{
		logger:        log.NewNopLogger(),
		codeExpiry:    defaultCodeExpiry,
		smsCodeExpiry: defaultSMSCodeExpiry,
	}

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

// WithRepoManager configures the service with a new RepositoryManager.
func WithRepoManager(repoMngr auth.RepositoryManager) ConfigOption {
	return func(s *service) {
		s.repoMngr = repoMngr
	}
}

// WithHasher configures the service with a secret hasher.
func WithHasher(h auth.Hasher) ConfigOption {
	return func(s *service) {
		s.hasher = h
	}
}

// WithCodeExpiry configures the lifetime of newly issued codes.
func WithCodeExpiry(expiry time.Duration) ConfigOption {
	return func(s *service) {
		s.codeExpiry = expiry
	}
}

// WithSMSCodeExpiry configures the lifetime of codes delivered
// over SMS.
func WithSMSCodeExpiry(expiry time.Duration) ConfigOption {
	return func(s *service) {
		s.smsCodeExpiry = expiry
	}
}
