package oauthapi

import (
	"time"

	"github.com/go-kit/kit/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	auth "github.com/guardianauth/guardian"
)

const (
	// stateLength is the character length of a state nonce.
	stateLength = 24
	// defaultStateTTL is how long a consent flow may take before
	// its state nonce expires.
	defaultStateTTL = time.Minute * 5

	googleUserInfoURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
	facebookUserInfoURL = "https://graph.facebook.com/me?fields=id,name,email"
)

// Provider is a configured OAuth2 provider.
type Provider struct {
	config      *oauth2.Config
	userInfoURL string
}

type namedProvider struct {
	Provider
	name string
}

// NewService returns a new implementation of auth.OAuthAPI.
func NewService(options ...ConfigOption) auth.OAuthAPI {
	s := service{
		logger:    log.NewNopLogger(),
		providers: map[string]Provider{},
		stateTTL:  defaultStateTTL,
	}

	for _, opt := range options {
		opt(&s)
	}

	return &s
}

// ConfigOption configures the service.
type ConfigOption func(*service)

// WithLogger configures the service with a logger.
func WithLogger(l log.Logger) ConfigOption {
	return func(s *service) {
		s.logger = l
	}
}

// WithTokenService configures the service with a new TokenService.
func WithTokenService(tokenSvc auth.TokenService) ConfigOption {
	return func(s *service) {
		s.token = tokenSvc
	}
}

// WithOAuth configures the service with an OAuth identity linker.
func WithOAuth(o auth.OAuthService) ConfigOption {
	return func(s *service) {
		s.oauth = o
	}
}

// WithRefresh configures the service with a RefreshService.
func WithRefresh(rs auth.RefreshService) ConfigOption {
	return func(s *service) {
		s.refresh = rs
	}
}

// WithSession configures the service with a SessionService.
func WithSession(ss auth.SessionService) ConfigOption {
	return func(s *service) {
		s.session = ss
	}
}

// WithRedis configures the service with a Redis client for state
// nonce storage.
func WithRedis(db Rediser) ConfigOption {
	return func(s *service) {
		s.redis = db
	}
}

// WithGoogle enables Google as a login provider.
func WithGoogle(clientID, clientSecret, redirectURL string) ConfigOption {
	return func(s *service) {
		s.providers["google"] = Provider{
			config: &oauth2.Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				RedirectURL:  redirectURL,
				Scopes:       []string{"openid", "email", "profile"},
				Endpoint:     google.Endpoint,
			},
			userInfoURL: googleUserInfoURL,
		}
	}
}

// WithFacebook enables Facebook as a login provider.
func WithFacebook(clientID, clientSecret, redirectURL string) ConfigOption {
	return func(s *service) {
		s.providers["facebook"] = Provider{
			config: &oauth2.Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				RedirectURL:  redirectURL,
				Scopes:       []string{"email", "public_profile"},
				Endpoint:     facebook.Endpoint,
			},
			userInfoURL: facebookUserInfoURL,
		}
	}
}

// WithProvider registers a custom provider under a name. Used in
// tests to point a provider at a local server.
func WithProvider(name string, config *oauth2.Config, userInfoURL string) ConfigOption {
	return func(s *service) {
		s.providers[name] = Provider{
			config:      config,
			userInfoURL: userInfoURL,
		}
	}
}
