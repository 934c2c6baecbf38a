package webauthnapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	auth "github.com/guardianauth/guardian"
	"github.com/guardianauth/guardian/internal/contactchecker"
)

// registrationIdentity carries the account identity for a
// registration ceremony. On the finish step it travels in the query
// string because the request body holds the attestation response.
type registrationIdentity struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	SecondLastName string `json:"second_last_name"`
	Email          string `json:"email"`
}

type loginOptionsRequest struct {
	Email string `json:"email"`
}

// ToUser builds an unsaved User entity for a registration ceremony.
func (r *registrationIdentity) ToUser() *auth.User {
	return &auth.User{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		SecondLastName: r.SecondLastName,
		Email:          contactchecker.NormalizeEmail(r.Email),
		Method:         auth.MethodBiometric,
	}
}

func (r *registrationIdentity) validate() error {
	if !contactchecker.IsEmailValid(r.Email) {
		return auth.ErrInvalidField("email address is invalid")
	}

	return nil
}

func decodeRegisterOptionsRequest(r *http.Request) (*registrationIdentity, error) {
	var req registrationIdentity

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, auth.ErrInvalidField("invalid JSON request"))
	}

	req.Email = strings.TrimSpace(req.Email)
	if err = req.validate(); err != nil {
		return nil, err
	}

	return &req, nil
}

func decodeRegisterRequest(r *http.Request) (*registrationIdentity, error) {
	q := r.URL.Query()
	req := registrationIdentity{
		FirstName:      q.Get("first_name"),
		LastName:       q.Get("last_name"),
		SecondLastName: q.Get("second_last_name"),
		Email:          strings.TrimSpace(q.Get("email")),
	}

	if err := req.validate(); err != nil {
		return nil, err
	}

	return &req, nil
}

func decodeLoginOptionsRequest(r *http.Request) (*loginOptionsRequest, error) {
	var req loginOptionsRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, auth.ErrInvalidField("invalid JSON request"))
	}

	req.Email = strings.TrimSpace(req.Email)
	if !contactchecker.IsEmailValid(req.Email) {
		return nil, auth.ErrInvalidField("email address is invalid")
	}

	return &req, nil
}

func decodeLoginRequest(r *http.Request) (string, error) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if !contactchecker.IsEmailValid(email) {
		return "", auth.ErrInvalidField("email address is invalid")
	}

	return email, nil
}
