package oauthapi

import (
	"net/http"

	"github.com/didip/tollbooth/v6"
	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"

	auth "github.com/guardianauth/guardian"
	"github.com/guardianauth/guardian/internal/httpapi"
)

// SetupHTTPHandler converts a service's public methods
// to http handlers.
func SetupHTTPHandler(svc auth.OAuthAPI, router *mux.Router, logger log.Logger) {
	var handler httpapi.JSONAPIHandler
	{
		handler = svc.Authorize
		handler = httpapi.RateLimitMiddleware(handler, tollbooth.NewLimiter(
			httpapi.ThrottleEveryOneSec, nil,
		))
		handler = httpapi.ErrorLoggingMiddleware(handler, "OAuthAPI.Authorize", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/oauth/{provider}/authorize", httpHandler).Methods("Get")
	}
	{
		handler = svc.Callback
		handler = httpapi.RateLimitMiddleware(handler, tollbooth.NewLimiter(
			httpapi.ThrottleEveryOneSec, nil,
		))
		handler = httpapi.ErrorLoggingMiddleware(handler, "OAuthAPI.Callback", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/oauth/{provider}/callback", httpHandler).Methods("Get")
	}
}
