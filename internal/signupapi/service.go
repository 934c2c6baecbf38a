// Package signupapi provides an HTTP API for user registration.
package signupapi

import (
	"database/sql"
	"net/http"

	"github.com/go-kit/kit/log"

	auth "github.com/guardianauth/guardian"
)

type service struct {
	logger   log.Logger
	repoMngr auth.RepositoryManager
	password auth.PasswordService
}

// SignUp registers a new User with a password credential. Contact
// addresses are validated before anything is written and duplicate
// identities surface as a conflict.
func (s *service) SignUp(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	req, err := decodeSignUpRequest(r)
	if err != nil {
		return nil, err
	}

	if err = s.password.OKForUser(req.Password); err != nil {
		return nil, err
	}

	hash, err := s.password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := req.ToUser()
	user.Password = sql.NullString{String: string(hash), Valid: true}

	if err = s.repoMngr.User().Create(ctx, user); err != nil {
		return nil, err
	}

	return newUserResponse(user), nil
}

// CheckEmail reports whether an email address is still available
// for registration.
func (s *service) CheckEmail(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	email, err := decodeCheckEmailRequest(r)
	if err != nil {
		return nil, err
	}

	_, err = s.repoMngr.User().ByEmail(ctx, email)
	return availability(err)
}

// CheckPhone reports whether a phone number is still available
// for registration.
func (s *service) CheckPhone(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	phone, err := decodeCheckPhoneRequest(r)
	if err != nil {
		return nil, err
	}

	_, err = s.repoMngr.User().ByPhone(ctx, phone)
	return availability(err)
}

func availability(err error) (interface{}, error) {
	if err == sql.ErrNoRows {
		return &availabilityResponse{Available: true}, nil
	}
	if err != nil {
		return nil, err
	}

	return &availabilityResponse{Available: false}, nil
}
