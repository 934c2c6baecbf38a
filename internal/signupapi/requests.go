package signupapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	auth "github.com/guardianauth/guardian"
	"github.com/guardianauth/guardian/internal/contactchecker"
)

type signUpRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	SecondLastName string `json:"second_last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Password       string `json:"password"`
	Method         string `json:"method"`
}

// ToUser builds a User entity from a validated request.
func (r *signUpRequest) ToUser() *auth.User {
	user := auth.User{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		SecondLastName: r.SecondLastName,
		Email:          r.Email,
		Method:         auth.AuthMethod(r.Method),
	}

	if r.Phone != "" {
		user.Phone.String = r.Phone
		user.Phone.Valid = true
	}

	return &user
}

func decodeSignUpRequest(r *http.Request) (*signUpRequest, error) {
	var req signUpRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, auth.ErrInvalidField("invalid JSON request"))
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	if !contactchecker.IsEmailValid(req.Email) {
		return nil, auth.ErrInvalidField("email address is invalid")
	}
	if req.Phone != "" && !contactchecker.IsPhoneValid(req.Phone) {
		return nil, auth.ErrInvalidField("phone number is invalid")
	}
	if req.Password == "" {
		return nil, auth.ErrInvalidField("password is required")
	}

	switch auth.AuthMethod(req.Method) {
	case auth.MethodTwoFactor:
	case auth.MethodSMS:
		if req.Phone == "" {
			return nil, auth.ErrInvalidField("phone number is required for SMS delivery")
		}
	case "":
		req.Method = string(auth.MethodTwoFactor)
	default:
		return nil, auth.ErrInvalidField("method must be 2FA or SMS")
	}

	return &req, nil
}

func decodeCheckEmailRequest(r *http.Request) (string, error) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if !contactchecker.IsEmailValid(email) {
		return "", auth.ErrInvalidField("email address is invalid")
	}

	return contactchecker.NormalizeEmail(email), nil
}

func decodeCheckPhoneRequest(r *http.Request) (string, error) {
	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	if !contactchecker.IsPhoneValid(phone) {
		return "", auth.ErrInvalidField("phone number is invalid")
	}

	return phone, nil
}
