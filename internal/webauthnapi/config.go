package webauthnapi

import (
	"github.com/go-kit/kit/log"

	auth "github.com/guardianauth/guardian"
)

// NewService returns a new implementation of auth.WebAuthnAPI.
func NewService(options ...ConfigOption) auth.WebAuthnAPI {
	s := service{
		logger: log.NewNopLogger(),
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

// WithTokenService configures the service with a new TokenService.
func WithTokenService(tokenSvc auth.TokenService) ConfigOption {
	return func(s *service) {
		s.token = tokenSvc
	}
}

// WithRepoManager configures the service with a new RepositoryManager.
func WithRepoManager(repoMngr auth.RepositoryManager) ConfigOption {
	return func(s *service) {
		s.repoMngr = repoMngr
	}
}

// WithWebAuthn configures the service with a WebAuthn ceremony
// manager.
func WithWebAuthn(wa auth.WebAuthnService) ConfigOption {
	return func(s *service) {
		s.webauthn = wa
	}
}

// WithRefresh configures the service with a RefreshService.
func WithRefresh(rs auth.RefreshService) ConfigOption {
	return func(s *service) {
		s.refresh = rs
	}
}

// WithSession configures the service with a SessionService.
func WithSession(ss auth.SessionService) ConfigOption {
	return func(s *service) {
		s.session = ss
	}
}
