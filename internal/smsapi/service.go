// Package smsapi provides an HTTP API for passwordless SMS login.
package smsapi

import (
	"database/sql"
	"net/http"

	"github.com/go-kit/kit/log"

	auth "github.com/guardianauth/guardian"
	"github.com/guardianauth/guardian/internal/httpapi"
	tokenLib "github.com/guardianauth/guardian/internal/token"
)

type service struct {
	logger   log.Logger
	token    auth.TokenService
	repoMngr auth.RepositoryManager
	otp      auth.OTPService
	refresh  auth.RefreshService
	session  auth.SessionService
	message  auth.MessagingService
}

// Send delivers a login code to a registered phone number. Unknown
// numbers receive the same response as registered ones so the
// endpoint cannot be used to probe for accounts.
func (s *service) Send(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeSendRequest(r)
	if err != nil {
		return nil, err
	}

	user, err := s.repoMngr.User().ByPhone(ctx, req.Phone)
	if err == sql.ErrNoRows {
		return []byte(`{"status": "ok"}`), nil
	}
	if err != nil {
		return nil, err
	}

	code, err := s.otp.Issue(ctx, user.ID, auth.OTPSMS)
	if err != nil {
		return nil, err
	}

	if err = s.message.Send(ctx, code, req.Phone, auth.Phone); err != nil {
		return nil, err
	}

	return []byte(`{"status": "ok"}`), nil
}

// Verify consumes an SMS login code and grants a full session.
func (s *service) Verify(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeVerifyRequest(r)
	if err != nil {
		return nil, err
	}

	user, err := s.repoMngr.User().ByPhone(ctx, req.Phone)
	if err == sql.ErrNoRows {
		return nil, auth.ErrInvalidCredential("incorrect code provided")
	}
	if err != nil {
		return nil, err
	}

	if err = s.otp.Verify(ctx, user.ID, auth.OTPSMS, req.Code); err != nil {
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
