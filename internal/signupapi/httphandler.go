package signupapi

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
func SetupHTTPHandler(svc auth.SignUpAPI, router *mux.Router, logger log.Logger) {
	var handler httpapi.JSONAPIHandler
	{
		handler = svc.SignUp
		handler = httpapi.RateLimitMiddleware(handler, tollbooth.NewLimiter(
			httpapi.ThrottleEveryOneSec, nil,
		))
		handler = httpapi.ErrorLoggingMiddleware(handler, "SignUpAPI.SignUp", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusCreated)
		router.HandleFunc("/api/v1/signup", httpHandler).Methods("Post")
	}
	{
		handler = httpapi.RateLimitMiddleware(svc.CheckEmail, tollbooth.NewLimiter(
			httpapi.ThrottleEveryOneSec, nil,
		))
		handler = httpapi.ErrorLoggingMiddleware(handler, "SignUpAPI.CheckEmail", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/signup/check-email", httpHandler).Methods("Get")
	}
	{
		handler = httpapi.RateLimitMiddleware(svc.CheckPhone, tollbooth.NewLimiter(
			httpapi.ThrottleEveryOneSec, nil,
		))
		handler = httpapi.ErrorLoggingMiddleware(handler, "SignUpAPI.CheckPhone", logger)
		httpHandler := httpapi.ToHandlerFunc(handler, http.StatusOK)
		router.HandleFunc("/api/v1/signup/check-phone", httpHandler).Methods("Get")
	}
}
