package tokenapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	auth "github.com/guardianauth/guardian"
)

type refreshRequest struct {
	UserID       string `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}

func decodeRefreshRequest(r *http.Request) (*refreshRequest, error) {
	var req refreshRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, auth.ErrInvalidField("invalid JSON request"))
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return nil, auth.ErrInvalidField("user_id is required")
	}
	if req.RefreshToken == "" {
		return nil, auth.ErrInvalidField("refresh_token is required")
	}

	return &req, nil
}
