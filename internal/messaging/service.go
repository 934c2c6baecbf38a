// Package messaging delivers one-time codes to a User's verified
// contact addresses.
package messaging

import (
	"context"

	"github.com/go-kit/kit/log"

	auth "github.com/guardianauth/guardian"
	"github.com/guardianauth/guardian/internal/contactchecker"
)

// service is an implementation of auth.MessagingService.
type service struct {
	logger   log.Logger
	smsLib   auth.SMSer
	emailLib auth.Emailer
}

// Send delivers a message to an address over the requested channel.
// Addresses are validated before any delivery attempt.
func (s *service) Send(ctx context.Context, content, address string, method auth.DeliveryMethod) error {
	switch method {
	case auth.Phone:
		if !contactchecker.IsPhoneValid(address) {
			return auth.ErrInvalidField("invalid phone number")
		}
		return s.smsLib.SMS(ctx, address, content)
	case auth.Email:
		if !contactchecker.IsEmailValid(address) {
			return auth.ErrInvalidField("invalid email address")
		}
		return s.emailLib.Email(ctx, address, content)
	}

	return auth.ErrInvalidField("unsupported delivery method")
}
