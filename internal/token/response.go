package token

// Response is the token payload returned to a client after a
// successful authentication step.
type Response struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}
