package messaging

import (
	"github.com/go-kit/kit/log"

	auth "github.com/guardianauth/guardian"
)

// NewService returns a new implementation of auth.MessagingService.
func NewService(options ...ConfigOption) auth.MessagingService {
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

// WithSMS configures the service with an SMS sender.
func WithSMS(smsLib auth.SMSer) ConfigOption {
	return func(s *service) {
		s.smsLib = smsLib
	}
}

// WithEmail configures the service with an email sender.
func WithEmail(emailLib auth.Emailer) ConfigOption {
	return func(s *service) {
		s.emailLib = emailLib
	}
}
