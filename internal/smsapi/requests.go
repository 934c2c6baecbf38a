package smsapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	auth "github.com/guardianauth/guardian"
	"github.com/guardianauth/guardian/internal/contactchecker"
)

type sendRequest struct {
	Phone string `json:"phone"`
}

type verifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func decodeSendRequest(r *http.Request) (*sendRequest, error) {
	var req sendRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, auth.ErrInvalidField("invalid JSON request"))
	}

	req.Phone = strings.TrimSpace(req.Phone)
	if !contactchecker.IsPhoneValid(req.Phone) {
		return nil, auth.ErrInvalidField("phone number is invalid")
	}

	return &req, nil
}

func decodeVerifyRequest(r *http.Request) (*verifyRequest, error) {
	var req verifyRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, auth.ErrInvalidField("invalid JSON request"))
	}

	req.Phone = strings.TrimSpace(req.Phone)
	req.Code = strings.TrimSpace(req.Code)

	if !contactchecker.IsPhoneValid(req.Phone) {
		return nil, auth.ErrInvalidField("phone number is invalid")
	}
	if req.Code == "" {
		return nil, auth.ErrInvalidField("code is required")
	}

	return &req, nil
}
