package httpapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/go-kit/kit/log"

	auth "github.com/guardianauth/guardian"
)

type contextKey string

const authorizationHeader = "AUTHORIZATION"

const (
	userIDContextKey contextKey = "userID"
	tokenContextKey  contextKey = "token"
)

// ThrottleEveryOneSec is a rate limit of 1 request per second.
const ThrottleEveryOneSec float64 = 1

// AuthMiddleware validates an Authorization header if available.
// Handlers behind a pre-authorized state accept tokens issued after
// the first factor of a login; all other handlers require a fully
// authorized token.
func AuthMiddleware(jsonHandler JSONAPIHandler, tokenSvc auth.TokenService, state auth.TokenState) JSONAPIHandler {
	return func(w http.ResponseWriter, r *http.Request) (interface{}, error) {
		ctx := r.Context()
		jwtToken := r.Header.Get(authorizationHeader)
		if jwtToken == "" {
			return nil, auth.ErrInvalidToken("user is not authenticated")
		}

		token, err := tokenSvc.Validate(ctx, jwtToken)
		if err != nil {
			return nil, err
		}

		if token.State != state {
			return nil, auth.ErrInvalidToken("token state is not supported")
		}

		ctx = context.WithValue(ctx, userIDContextKey, token.UserID)
		ctx = context.WithValue(ctx, tokenContextKey, token)
		r = r.WithContext(ctx)

		return jsonHandler(w, r)
	}
}

// RateLimitMiddleware limits how frequently an endpoint may be
// requested.
func RateLimitMiddleware(jsonHandler JSONAPIHandler, lmt *limiter.Limiter) JSONAPIHandler {
	return func(w http.ResponseWriter, r *http.Request) (interface{}, error) {
		if httpError := tollbooth.LimitByRequest(lmt, w, r); httpError != nil {
			return nil, auth.ErrThrottle("requests are throttled, try again later")
		}

		return jsonHandler(w, r)
	}
}

// ErrorLoggingMiddleware logs any errors that are returned before
// being parsed to an HTTP response.
func ErrorLoggingMiddleware(jsonHandler JSONAPIHandler, source string, log log.Logger) JSONAPIHandler {
	return func(w http.ResponseWriter, r *http.Request) (interface{}, error) {
		userID := GetUserID(r)
		response, err := jsonHandler(w, r)
		if err != nil {
			log.Log(
				"user_id", userID,
				"source", source,
				"error", err.Error(),
				"stack_trace", fmt.Sprintf("%+v", err),
			)
		}
		return response, err
	}
}

// GetUserID retrieves a User ID from context.
func GetUserID(r *http.Request) string {
	ctx := r.Context()
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// GetToken retrieves a validated access token from context.
func GetToken(r *http.Request) *auth.Token {
	ctx := r.Context()
	token, ok := ctx.Value(tokenContextKey).(*auth.Token)
	if !ok {
		return nil
	}
	return token
}

// GetIP retrieves the client IP of a request.
func GetIP(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
