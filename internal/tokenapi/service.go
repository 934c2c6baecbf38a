// Package tokenapi provides an HTTP API for managing session
// credentials after login.
package tokenapi

import (
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
	refresh  auth.RefreshService
	session  auth.SessionService
}

// Refresh exchanges a refresh token for a new access token. The
// exchange rotates the refresh token; the presented value is revoked
// whether or not it validates. Access tokens are not checked here
// since callers typically refresh after expiry.
func (s *service) Refresh(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeRefreshRequest(r)
	if err != nil {
		return nil, err
	}

	if ok := s.refresh.Validate(ctx, req.UserID, req.RefreshToken); !ok {
		return nil, auth.ErrInvalidToken("refresh token is invalid")
	}

	user, err := s.repoMngr.User().ByID(ctx, req.UserID)
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

// Logout ends a User's session. Open sessions are closed, Active
// refresh tokens are revoked and any stale one-time codes are
// expired. Logging out twice is a no-op.
func (s *service) Logout(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()
	userID := httpapi.GetUserID(r)

	if err := s.session.Close(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.refresh.Revoke(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.repoMngr.OTP().ExpireStale(ctx, userID); err != nil {
		return nil, err
	}

	return []byte(`{"status": "ok"}`), nil
}
