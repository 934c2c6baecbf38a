// Package oauthapi provides an HTTP API for federated login through
// OAuth2 providers.
package oauthapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	auth "github.com/guardianauth/guardian"
	"github.com/guardianauth/guardian/internal/crypto"
	"github.com/guardianauth/guardian/internal/httpapi"
	tokenLib "github.com/guardianauth/guardian/internal/token"
)

// Rediser is an interface to go-redis.
type Rediser interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

type service struct {
	logger    log.Logger
	token     auth.TokenService
	oauth     auth.OAuthService
	refresh   auth.RefreshService
	session   auth.SessionService
	redis     Rediser
	providers map[string]Provider
	stateTTL  time.Duration
}

type authorizeResponse struct {
	URL string `json:"url"`
}

// userInfo is the subset of a provider's userinfo payload we consume.
// Google and Facebook both expose it under these fields.
type userInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Authorize starts a provider consent flow. The returned URL carries
// a single-use state nonce which the callback must echo back.
func (s *service) Authorize(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	provider, err := s.provider(r)
	if err != nil {
		return nil, err
	}

	state, err := crypto.String(stateLength)
	if err != nil {
		return nil, errors.Wrap(err, "cannot generate state nonce")
	}

	err = s.redis.Set(ctx, newStateKey(state), provider.name, s.stateTTL).Err()
	if err != nil {
		return nil, errors.Wrap(err, "cannot store state nonce")
	}

	return &authorizeResponse{
		URL: provider.config.AuthCodeURL(state),
	}, nil
}

// Callback completes a provider consent flow. The state nonce is
// consumed whether or not the exchange succeeds, the authorization
// code is traded for an access token, and the provider's profile is
// resolved to a local User.
func (s *service) Callback(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	ctx := r.Context()

	provider, err := s.provider(r)
	if err != nil {
		return nil, err
	}

	req, err := decodeCallbackRequest(r)
	if err != nil {
		return nil, err
	}

	if err = s.consumeState(ctx, req.State, provider.name); err != nil {
		return nil, err
	}

	oauthToken, err := provider.config.Exchange(ctx, req.Code)
	if err != nil {
		return nil, errors.Wrap(auth.ErrInvalidCredential("authorization code is invalid"), err.Error())
	}

	profile, err := s.fetchProfile(ctx, provider, oauthToken)
	if err != nil {
		return nil, err
	}

	user, err := s.oauth.Resolve(ctx, profile)
	if err != nil {
		return nil, err
	}

	jwtToken, err := s.token.Create(ctx, user, auth.JWTAuthorized)
	if err != nil {
		return nil, err
	}

	signedToken, err := s.token.Sign(ctx, jwtToken)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.refresh.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.session.Open(ctx, user.ID, signedToken, httpapi.GetIP(r))

	return &tokenLib.Response{
		Token:        signedToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *service) provider(r *http.Request) (*namedProvider, error) {
	name := mux.Vars(r)["provider"]
	provider, ok := s.providers[name]
	if !ok {
		return nil, auth.ErrNotFound("provider is not supported")
	}

	return &namedProvider{name: name, Provider: provider}, nil
}

// consumeState deletes a state nonce after a single lookup. A nonce
// issued for one provider does not validate a callback for another.
func (s *service) consumeState(ctx context.Context, state, providerName string) error {
	key := newStateKey(state)
	storedProvider, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return errors.Wrap(auth.ErrInvalidCredential("state nonce is invalid"), err.Error())
	}

	if err = s.redis.Del(ctx, key).Err(); err != nil {
		return err
	}

	if storedProvider != providerName {
		return auth.ErrInvalidCredential("state nonce is invalid")
	}

	return nil
}

func (s *service) fetchProfile(ctx context.Context, provider *namedProvider, token *oauth2.Token) (*auth.OAuthProfile, error) {
	client := provider.config.Client(ctx, token)
	resp, err := client.Get(provider.userInfoURL)
	if err != nil {
		return nil, errors.Wrap(err, "cannot request profile")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("profile request failed with status %d", resp.StatusCode)
	}

	var info userInfo
	if err = json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.Wrap(err, "cannot decode profile")
	}

	if info.ID == "" {
		return nil, errors.New("profile is missing a subject identifier")
	}

	return &auth.OAuthProfile{
		Provider: provider.name,
		Subject:  info.ID,
		Email:    info.Email,
		Name:     info.Name,
	}, nil
}

func newStateKey(state string) string {
	return fmt.Sprintf("oauth-state-%s", state)
}
