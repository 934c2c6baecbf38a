// Package loginapi provides an HTTP API for password authentication.
package loginapi

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	auth "github.com/guardianauth/guardian"
	"github.com/guardianauth/guardian/internal/httpapi"
	tokenLib "github.com/guardianauth/guardian/internal/token"
)

type service struct {
	logger   log.Logger
	token    auth.TokenService
	repoMngr auth.RepositoryManager
	otp      auth.OTPService
	password auth.PasswordService
	refresh  auth.RefreshService
	session  auth.SessionService
	message  auth.MessagingService
}

// Login is the initial login step to identify a User. A correct
// password yields a pre-authorized token and a one-time code
// delivered out of band; the login is not complete until the code
// is verified.
func (s *service) Login(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeLoginRequest(r)
	if err != nil {
		return nil, err
	}

	user, err := s.repoMngr.User().ByEmail(ctx, req.Email)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(auth.ErrInvalidCredential("invalid username or password"), err.Error())
	}
	if err != nil {
		return nil, err
	}

	if err = s.password.Validate(user, req.Password); err != nil {
		return nil, errors.Wrap(auth.ErrInvalidCredential("invalid username or password"), err.Error())
	}

	code, err := s.otp.Issue(ctx, user.ID, auth.OTPTwoFactor)
	if err != nil {
		return nil, err
	}

	if err = s.deliver(ctx, user, code); err != nil {
		return nil, err
	}

	jwtToken, err := s.token.Create(ctx, user, auth.JWTPreAuthorized)
	if err != nil {
		return nil, err
	}

	signedToken, err := s.token.Sign(ctx, jwtToken)
	if err != nil {
		return nil, err
	}

	return &tokenLib.Response{Token: signedToken}, nil
}

// VerifyCode completes a login by consuming the one-time code issued
// in the first step.
func (s *service) VerifyCode(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()
	userID := httpapi.GetUserID(r)

	req, err := decodeVerifyCodeRequest(r)
	if err != nil {
		return nil, err
	}

	if err = s.otp.Verify(ctx, userID, auth.OTPTwoFactor, req.Code); err != nil {
		return nil, err
	}

	user, err := s.repoMngr.User().ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	jwtToken, err := s.token.Create(ctx, user, auth.JWTAuthorized)
	if err != nil {
		return nil, err
	}

	signedToken, err := s.token.Sign(ctx, jwtToken)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.refresh.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.session.Open(ctx, user.ID, signedToken, httpapi.GetIP(r))

	return &tokenLib.Response{
		Token:        signedToken,
		RefreshToken: refreshToken,
	}, nil
}

// deliver sends a one-time code to the User's verified contact
// address over their preferred channel.
func (s *service) deliver(ctx context.Context, user *auth.User, code string) error {
	if user.Phone.Valid && user.Method == auth.MethodSMS {
		return s.message.Send(ctx, code, user.Phone.String, auth.Phone)
	}

	return s.message.Send(ctx, code, user.Email, auth.Email)
}
