package refresh

import (
	"time"

	"github.com/go-kit/kit/log"

	auth "github.com/guardianauth/guardian"
)

const defaultTokenExpiry = 7 * 24 * time.Hour

// NewService returns a new implementation of auth.RefreshService.
func NewService(options ...ConfigOption) auth.RefreshService {
	s := service{
		logger:      log.NewNopLogger(),
		tokenExpiry: defaultTokenExpiry,
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

// WithTokenExpiry configures the lifetime of newly issued tokens.
func WithTokenExpiry(expiry time.Duration) ConfigOption {
	return func(s *service) {
		s.tokenExpiry = expiry
	}
}
