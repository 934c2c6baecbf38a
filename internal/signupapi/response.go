package signupapi

import (
	auth "github.com/guardianauth/guardian"
)

// userResponse exposes the subset of a User which is safe to return
// to a client.
type userResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Method    string `json:"method"`
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

func newUserResponse(user *auth.User) *userResponse {
	return &userResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Phone:     user.Phone.String,
		Method:    string(user.Method),
	}
}
