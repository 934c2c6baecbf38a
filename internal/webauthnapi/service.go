// Package webauthnapi provides an HTTP API for WebAuthn device
// registration and login.
package webauthnapi

import (
	"context"
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
	webauthn auth.WebAuthnService
	refresh  auth.RefreshService
	session  auth.SessionService
}

// RegisterOptions starts a device registration ceremony for a new
// account. The returned challenge must be answered on the register
// endpoint before it expires.
func (s *service) RegisterOptions(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeRegisterOptionsRequest(r)
	if err != nil {
		return nil, err
	}

	_, err = s.repoMngr.User().ByEmail(ctx, req.Email)
	if err == nil {
		return nil, auth.ErrConflict("email address is already registered")
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	return s.webauthn.BeginSignUp(ctx, req.ToUser())
}

// Register completes a device registration ceremony, creating the
// account together with its credential. Identity travels in the
// query string; the body is reserved for the attestation response.
func (s *service) Register(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeRegisterRequest(r)
	if err != nil {
		return nil, err
	}

	user, err := s.webauthn.FinishSignUp(ctx, req.ToUser(), r)
	if err != nil {
		return nil, err
	}

	return s.grantSession(r, user)
}

// LoginOptions starts a device login ceremony for a registered
// account.
func (s *service) LoginOptions(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeLoginOptionsRequest(r)
	if err != nil {
		return nil, err
	}

	user, err := s.userByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	return s.webauthn.BeginLogin(ctx, user)
}

// Login completes a device login ceremony and grants a full session.
func (s *service) Login(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	email, err := decodeLoginRequest(r)
	if err != nil {
		return nil, err
	}

	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err = s.webauthn.FinishLogin(ctx, user, r); err != nil {
		return nil, err
	}

	return s.grantSession(r, user)
}

func (s *service) userByEmail(ctx context.Context, email string) (*auth.User, error) {
	user, err := s.repoMngr.User().ByEmail(ctx, email)
	if err == sql.ErrNoRows {
		return nil, auth.ErrInvalidCredential("invalid credentials")
	}
	if err != nil {
		return nil, err
	}

	if !user.HasWebAuthnCredential() {
		return nil, auth.ErrInvalidCredential("no device is registered")
	}

	return user, nil
}

func (s *service) grantSession(r *http.Request, user *auth.User) (interface{}, error) {
	ctx := r.Context()

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
