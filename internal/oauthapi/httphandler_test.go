package oauthapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
	"golang.org/x/oauth2"

	auth "github.com/guardianauth/guardian"
	"github.com/guardianauth/guardian/internal/test"
	tokenLib "github.com/guardianauth/guardian/internal/token"
)

func newProviderServer() *httptest.Server {
	return test.Server(
		test.ServerResp{
			Path: "/token",
			Resp: `{"access_token": "provider-access-token", "token_type": "bearer"}`,
		},
		test.ServerResp{
			Path: "/userinfo",
			Resp: `{"id": "subject-id", "email": "jane@example.com", "name": "Jane Doe"}`,
		},
	)
}

func newProviderConfig(serverURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://guardian.example.com/callback",
		Scopes:       []string{"email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   serverURL + "/auth",
			TokenURL:  serverURL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func TestOAuthAPI_Authorize(t *testing.T) {
	srv := newProviderServer()
	defer srv.Close()

	tt := []struct {
		name       string
		statusCode int
		target     string
		errMessage string
	}{
		{
			name:       "Unsupported provider failure",
			statusCode: http.StatusNotFound,
			target:     "/api/v1/oauth/myspace/authorize",
			errMessage: "provider is not supported",
		},
		{
			name:       "Successful request",
			statusCode: http.StatusOK,
			target:     "/api/v1/oauth/testprov/authorize",
			errMessage: "",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			router := mux.NewRouter()
			redisDB := &test.Rediser{}
			svc := NewService(
				WithRedis(redisDB),
				WithProvider("testprov", newProviderConfig(srv.URL), srv.URL+"/userinfo"),
			)

			req, err := http.NewRequest("GET", tc.target, nil)
			if err != nil {
				t.Fatal("failed to create request:", err)
			}

			logger := log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
			SetupHTTPHandler(svc, router, logger)

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.statusCode {
				t.Errorf("incorrect status code, want %v got %v", tc.statusCode, rr.Code)
				t.Error(rr.Body.String())
			}

			if tc.errMessage != "" {
				err = test.ValidateErrMessage(tc.errMessage, rr.Body)
				if err != nil {
					t.Error(err)
				}
				return
			}

			var resp authorizeResponse
			if err = json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatal("failed to decode response:", err)
			}

			if !strings.HasPrefix(resp.URL, srv.URL+"/auth") {
				t.Errorf("authorization URL does not target the provider: %s", resp.URL)
			}

			if !strings.Contains(resp.URL, "state=") {
				t.Errorf("authorization URL is missing a state nonce: %s", resp.URL)
			}
		})
	}
}

func TestOAuthAPI_Callback(t *testing.T) {
	srv := newProviderServer()
	defer srv.Close()

	tt := []struct {
		name             string
		statusCode       int
		target           string
		errMessage       string
		storedState      string
		storedProvider   string
		refreshCalls     int
		sessionOpenCalls int
		resolveFn        func() (*auth.User, error)
	}{
		{
			name:             "Missing code failure",
			statusCode:       http.StatusBadRequest,
			target:           "/api/v1/oauth/testprov/callback?state=state-nonce",
			errMessage:       "code is required",
			storedState:      "state-nonce",
			storedProvider:   "testprov",
			refreshCalls:     0,
			sessionOpenCalls: 0,
			resolveFn: func() (*auth.User, error) {
				return &auth.User{ID: "user-id"}, nil
			},
		},
		{
			name:             "Unknown state failure",
			statusCode:       http.StatusUnauthorized,
			target:           "/api/v1/oauth/testprov/callback?code=auth-code&state=forged-nonce",
			errMessage:       "state nonce is invalid",
			storedState:      "state-nonce",
			storedProvider:   "testprov",
			refreshCalls:     0,
			sessionOpenCalls: 0,
			resolveFn: func() (*auth.User, error) {
				return &auth.User{ID: "user-id"}, nil
			},
		},
		{
			name:             "State for another provider failure",
			statusCode:       http.StatusUnauthorized,
			target:           "/api/v1/oauth/testprov/callback?code=auth-code&state=state-nonce",
			errMessage:       "state nonce is invalid",
			storedState:      "state-nonce",
			storedProvider:   "otherprov",
			refreshCalls:     0,
			sessionOpenCalls: 0,
			resolveFn: func() (*auth.User, error) {
				return &auth.User{ID: "user-id"}, nil
			},
		},
		{
			name:             "Linker failure",
			statusCode:       http.StatusConflict,
			target:           "/api/v1/oauth/testprov/callback?code=auth-code&state=state-nonce",
			errMessage:       "account is linked to another provider",
			storedState:      "state-nonce",
			storedProvider:   "testprov",
			refreshCalls:     0,
			sessionOpenCalls: 0,
			resolveFn: func() (*auth.User, error) {
				return nil, auth.ErrConflict("account is linked to another provider")
			},
		},
		{
			name:             "Successful request",
			statusCode:       http.StatusOK,
			target:           "/api/v1/oauth/testprov/callback?code=auth-code&state=state-nonce",
			errMessage:       "",
			storedState:      "state-nonce",
			storedProvider:   "testprov",
			refreshCalls:     1,
			sessionOpenCalls: 1,
			resolveFn: func() (*auth.User, error) {
				return &auth.User{ID: "user-id", Email: "jane@example.com"}, nil
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			router := mux.NewRouter()
			redisDB := &test.Rediser{}
			redisDB.Set(ctx, newStateKey(tc.storedState), tc.storedProvider, time.Minute)

			tokenSvc := &test.TokenService{}
			oauthSvc := &test.OAuthService{
				ResolveFn: tc.resolveFn,
			}
			refreshSvc := &test.RefreshService{}
			sessionSvc := &test.SessionService{}
			svc := NewService(
				WithTokenService(tokenSvc),
				WithOAuth(oauthSvc),
				WithRefresh(refreshSvc),
				WithSession(sessionSvc),
				WithRedis(redisDB),
				WithProvider("testprov", newProviderConfig(srv.URL), srv.URL+"/userinfo"),
			)

			req, err := http.NewRequest("GET", tc.target, nil)
			if err != nil {
				t.Fatal("failed to create request:", err)
			}

			logger := log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
			SetupHTTPHandler(svc, router, logger)

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.statusCode {
				t.Errorf("incorrect status code, want %v got %v", tc.statusCode, rr.Code)
				t.Error(rr.Body.String())
			}

			if refreshSvc.Calls.Issue != tc.refreshCalls {
				t.Errorf("incorrect RefreshService.Issue() call count, want %v got %v",
					tc.refreshCalls, refreshSvc.Calls.Issue)
			}

			if sessionSvc.Calls.Open != tc.sessionOpenCalls {
				t.Errorf("incorrect SessionService.Open() call count, want %v got %v",
					tc.sessionOpenCalls, sessionSvc.Calls.Open)
			}

			if tc.errMessage != "" {
				err = test.ValidateErrMessage(tc.errMessage, rr.Body)
				if err != nil {
					t.Error(err)
				}
				return
			}

			var resp tokenLib.Response
			if err = json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatal("failed to decode response:", err)
			}

			if resp.Token == "" || resp.RefreshToken == "" {
				t.Error("response is missing session credentials")
			}
		})
	}
}

func TestOAuthAPI_CallbackConsumesState(t *testing.T) {
	srv := newProviderServer()
	defer srv.Close()

	ctx := context.Background()
	redisDB := &test.Rediser{}
	redisDB.Set(ctx, newStateKey("state-nonce"), "testprov", time.Minute)

	svc := NewService(
		WithTokenService(&test.TokenService{}),
		WithOAuth(&test.OAuthService{}),
		WithRefresh(&test.RefreshService{}),
		WithSession(&test.SessionService{}),
		WithRedis(redisDB),
		WithProvider("testprov", newProviderConfig(srv.URL), srv.URL+"/userinfo"),
	)

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
	target := "/api/v1/oauth/testprov/callback?code=auth-code&state=state-nonce"

	for i, wantCode := range []int{http.StatusOK, http.StatusUnauthorized} {
		// A fresh router per attempt keeps the rate limiter out of
		// the replay check.
		router := mux.NewRouter()
		SetupHTTPHandler(svc, router, logger)

		req, err := http.NewRequest("GET", target, nil)
		if err != nil {
			t.Fatal("failed to create request:", err)
		}

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != wantCode {
			t.Errorf("attempt %d: incorrect status code, want %v got %v",
				i, wantCode, rr.Code)
			t.Error(rr.Body.String())
		}
	}
}
