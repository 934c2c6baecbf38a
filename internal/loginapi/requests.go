package loginapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	auth "github.com/guardianauth/guardian"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyCodeRequest struct {
	Code string `json:"code"`
}

func decodeLoginRequest(r *http.Request) (*loginRequest, error) {
	var req loginRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, auth.ErrInvalidField("invalid JSON request"))
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return nil, auth.ErrInvalidField("email is required")
	}
	if req.Password == "" {
		return nil, auth.ErrInvalidField("password is required")
	}

	return &req, nil
}

func decodeVerifyCodeRequest(r *http.Request) (*verifyCodeRequest, error) {
	var req verifyCodeRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, auth.ErrInvalidField("invalid JSON request"))
	}

	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		return nil, auth.ErrInvalidField("code is required")
	}

	return &req, nil
}
