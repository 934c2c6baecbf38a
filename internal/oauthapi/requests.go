package oauthapi

import (
	"net/http"

	auth "github.com/guardianauth/guardian"
)

type callbackRequest struct {
	Code  string
	State string
}

func decodeCallbackRequest(r *http.Request) (*callbackRequest, error) {
	q := r.URL.Query()
	req := callbackRequest{
		Code:  q.Get("code"),
		State: q.Get("state"),
	}

	if req.Code == "" {
		return nil, auth.ErrInvalidField("code is required")
	}
	if req.State == "" {
		return nil, auth.ErrInvalidField("state is required")
	}

	return &req, nil
}
