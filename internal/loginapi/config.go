package loginapi

import (
	"github.com/go-kit/kit/log"

	auth "github.com/guardianauth/guardian"
)

// NewService returns a new implementation of auth.LoginAPI.
func NewService(options ...ConfigOption) auth.LoginAPI {
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

// WithOTP configures the service with an OTP management service.
func WithOTP(o auth.OTPService) ConfigOption {
	return func(s *service) {
		s.otp = o
	}
}

// WithPassword configures the service with a PasswordService.
func WithPassword(p auth.PasswordService) ConfigOption {
	return func(s *service) {
		s.password = p
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

// WithMessaging configures the service with a MessagingService.
func WithMessaging(m auth.MessagingService) ConfigOption {
	return func(s *service) {
		s.message = m
	}
}
