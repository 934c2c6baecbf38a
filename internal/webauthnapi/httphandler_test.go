package webauthnapi

import (
	"bytes"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	auth "github.com/guardianauth/guardian"
	"github.com/guardianauth/guardian/internal/test"
)

func TestWebAuthnAPI_RegisterOptions(t *testing.T) {
	tt := []struct {
		name          string
		statusCode    int
		reqBody       []byte
		errMessage    string
		beginCalls    int
		userFn        func() (*auth.User, error)
		beginSignUpFn func() ([]byte, error)
	}{
		{
			name:       "Invalid email failure",
			statusCode: http.StatusBadRequest,
			reqBody: []byte(`{
				"email": "not-an-email"
			}`),
			errMessage: "email address is invalid",
			beginCalls: 0,
			userFn: func() (*auth.User, error) {
				return nil, sql.ErrNoRows
			},
			beginSignUpFn: func() ([]byte, error) {
				return []byte(`{"publicKey": {}}`), nil
			},
		},
		{
			name:       "Registered email failure",
			statusCode: http.StatusConflict,
			reqBody: []byte(`{
				"email": "jane@example.com"
			}`),
			errMessage: "email address is already registered",
			beginCalls: 0,
			userFn: func() (*auth.User, error) {
				return &auth.User{}, nil
			},
			beginSignUpFn: func() ([]byte, error) {
				return []byte(`{"publicKey": {}}`), nil
			},
		},
		{
			name:       "Challenge failure",
			statusCode: http.StatusInternalServerError,
			reqBody: []byte(`{
				"email": "jane@example.com"
			}`),
			errMessage: "An internal error occurred",
			beginCalls: 1,
			userFn: func() (*auth.User, error) {
				return nil, sql.ErrNoRows
			},
			beginSignUpFn: func() ([]byte, error) {
				return nil, errors.New("cannot store challenge")
			},
		},
		{
			name:       "Successful request",
			statusCode: http.StatusOK,
			reqBody: []byte(`{
				"first_name": "Jane",
				"last_name": "Doe",
				"email": "jane@example.com"
			}`),
			errMessage: "",
			beginCalls: 1,
			userFn: func() (*auth.User, error) {
				return nil, sql.ErrNoRows
			},
			beginSignUpFn: func() ([]byte, error) {
				return []byte(`{"publicKey": {}}`), nil
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			router := mux.NewRouter()
			userRepo := &test.UserRepository{
				ByEmailFn: tc.userFn,
			}
			repoMngr := &test.RepositoryManager{
				UserFn: func() auth.UserRepository {
					return userRepo
				},
			}
			webauthnSvc := &test.WebAuthnService{
				BeginSignUpFn: tc.beginSignUpFn,
			}
			svc := NewService(
				WithRepoManager(repoMngr),
				WithWebAuthn(webauthnSvc),
			)

			req, err := http.NewRequest(
				"POST",
				"/api/v1/webauthn/register/options",
				bytes.NewBuffer(tc.reqBody),
			)
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

			if webauthnSvc.Calls.BeginSignUp != tc.beginCalls {
				t.Errorf("incorrect WebAuthnService.BeginSignUp() call count, want %v got %v",
					tc.beginCalls, webauthnSvc.Calls.BeginSignUp)
			}

			err = test.ValidateErrMessage(tc.errMessage, rr.Body)
			if err != nil {
				t.Error(err)
			}
		})
	}
}

func TestWebAuthnAPI_Register(t *testing.T) {
	tt := []struct {
		name             string
		statusCode       int
		target           string
		errMessage       string
		refreshCalls     int
		sessionOpenCalls int
		finishSignUpFn   func() (*auth.User, error)
	}{
		{
			name:             "Missing identity failure",
			statusCode:       http.StatusBadRequest,
			target:           "/api/v1/webauthn/register",
			errMessage:       "email address is invalid",
			refreshCalls:     0,
			sessionOpenCalls: 0,
			finishSignUpFn: func() (*auth.User, error) {
				return &auth.User{ID: "user-id"}, nil
			},
		},
		{
			name:             "Ceremony failure",
			statusCode:       http.StatusUnauthorized,
			target:           "/api/v1/webauthn/register?email=jane%40example.com",
			errMessage:       "challenge response is invalid",
			refreshCalls:     0,
			sessionOpenCalls: 0,
			finishSignUpFn: func() (*auth.User, error) {
				return nil, auth.ErrInvalidCredential("challenge response is invalid")
			},
		},
		{
			name:             "Successful request",
			statusCode:       http.StatusCreated,
			target:           "/api/v1/webauthn/register?email=jane%40example.com&first_name=Jane",
			errMessage:       "",
			refreshCalls:     1,
			sessionOpenCalls: 1,
			finishSignUpFn: func() (*auth.User, error) {
				return &auth.User{ID: "user-id", Email: "jane@example.com"}, nil
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			router := mux.NewRouter()
			repoMngr := &test.RepositoryManager{}
			tokenSvc := &test.TokenService{}
			webauthnSvc := &test.WebAuthnService{
				FinishSignUpFn: tc.finishSignUpFn,
			}
			refreshSvc := &test.RefreshService{}
			sessionSvc := &test.SessionService{}
			svc := NewService(
				WithTokenService(tokenSvc),
				WithRepoManager(repoMngr),
				WithWebAuthn(webauthnSvc),
				WithRefresh(refreshSvc),
				WithSession(sessionSvc),
			)

			req, err := http.NewRequest("POST", tc.target, bytes.NewBufferString("{}"))
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

			err = test.ValidateErrMessage(tc.errMessage, rr.Body)
			if err != nil {
				t.Error(err)
			}
		})
	}
}

func TestWebAuthnAPI_LoginOptions(t *testing.T) {
	tt := []struct {
		name         string
		statusCode   int
		reqBody      []byte
		errMessage   string
		beginCalls   int
		userFn       func() (*auth.User, error)
		beginLoginFn func() ([]byte, error)
	}{
		{
			name:       "Unknown email failure",
			statusCode: http.StatusUnauthorized,
			reqBody: []byte(`{
				"email": "jane@example.com"
			}`),
			errMessage: "invalid credentials",
			beginCalls: 0,
			userFn: func() (*auth.User, error) {
				return nil, sql.ErrNoRows
			},
			beginLoginFn: func() ([]byte, error) {
				return []byte(`{"publicKey": {}}`), nil
			},
		},
		{
			name:       "No registered device failure",
			statusCode: http.StatusUnauthorized,
			reqBody: []byte(`{
				"email": "jane@example.com"
			}`),
			errMessage: "no device is registered",
			beginCalls: 0,
			userFn: func() (*auth.User, error) {
				return &auth.User{ID: "user-id"}, nil
			},
			beginLoginFn: func() ([]byte, error) {
				return []byte(`{"publicKey": {}}`), nil
			},
		},
		{
			name:       "Successful request",
			statusCode: http.StatusOK,
			reqBody: []byte(`{
				"email": "jane@example.com"
			}`),
			errMessage: "",
			beginCalls: 1,
			userFn: func() (*auth.User, error) {
				return &auth.User{
					ID:           "user-id",
					CredentialID: []byte("credential-id"),
					PublicKey:    []byte("public-key"),
				}, nil
			},
			beginLoginFn: func() ([]byte, error) {
				return []byte(`{"publicKey": {}}`), nil
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			router := mux.NewRouter()
			userRepo := &test.UserRepository{
				ByEmailFn: tc.userFn,
			}
			repoMngr := &test.RepositoryManager{
				UserFn: func() auth.UserRepository {
					return userRepo
				},
			}
			webauthnSvc := &test.WebAuthnService{
				BeginLoginFn: tc.beginLoginFn,
			}
			svc := NewService(
				WithRepoManager(repoMngr),
				WithWebAuthn(webauthnSvc),
			)

			req, err := http.NewRequest(
				"POST",
				"/api/v1/webauthn/login/options",
				bytes.NewBuffer(tc.reqBody),
			)
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

			if webauthnSvc.Calls.BeginLogin != tc.beginCalls {
				t.Errorf("incorrect WebAuthnService.BeginLogin() call count, want %v got %v",
					tc.beginCalls, webauthnSvc.Calls.BeginLogin)
			}

			err = test.ValidateErrMessage(tc.errMessage, rr.Body)
			if err != nil {
				t.Error(err)
			}
		})
	}
}

func TestWebAuthnAPI_Login(t *testing.T) {
	registeredUser := func() (*auth.User, error) {
		return &auth.User{
			ID:           "user-id",
			Email:        "jane@example.com",
			CredentialID: []byte("credential-id"),
			PublicKey:    []byte("public-key"),
		}, nil
	}

	tt := []struct {
		name             string
		statusCode       int
		target           string
		errMessage       string
		refreshCalls     int
		sessionOpenCalls int
		userFn           func() (*auth.User, error)
		finishLoginFn    func() error
	}{
		{
			name:             "Unknown email failure",
			statusCode:       http.StatusUnauthorized,
			target:           "/api/v1/webauthn/login?email=jane%40example.com",
			errMessage:       "invalid credentials",
			refreshCalls:     0,
			sessionOpenCalls: 0,
			userFn: func() (*auth.User, error) {
				return nil, sql.ErrNoRows
			},
			finishLoginFn: func() error {
				return nil
			},
		},
		{
			name:             "Replayed assertion failure",
			statusCode:       http.StatusUnauthorized,
			target:           "/api/v1/webauthn/login?email=jane%40example.com",
			errMessage:       "sign counter did not advance",
			refreshCalls:     0,
			sessionOpenCalls: 0,
			userFn:           registeredUser,
			finishLoginFn: func() error {
				return auth.ErrReplay("sign counter did not advance")
			},
		},
		{
			name:             "Successful request",
			statusCode:       http.StatusOK,
			target:           "/api/v1/webauthn/login?email=jane%40example.com",
			errMessage:       "",
			refreshCalls:     1,
			sessionOpenCalls: 1,
			userFn:           registeredUser,
			finishLoginFn: func() error {
				return nil
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			router := mux.NewRouter()
			userRepo := &test.UserRepository{
				ByEmailFn: tc.userFn,
			}
			repoMngr := &test.RepositoryManager{
				UserFn: func() auth.UserRepository {
					return userRepo
				},
			}
			tokenSvc := &test.TokenService{}
			webauthnSvc := &test.WebAuthnService{
				FinishLoginFn: tc.finishLoginFn,
			}
			refreshSvc := &test.RefreshService{}
			sessionSvc := &test.SessionService{}
			svc := NewService(
				WithTokenService(tokenSvc),
				WithRepoManager(repoMngr),
				WithWebAuthn(webauthnSvc),
				WithRefresh(refreshSvc),
				WithSession(sessionSvc),
			)

			req, err := http.NewRequest("POST", tc.target, bytes.NewBufferString("{}"))
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

			err = test.ValidateErrMessage(tc.errMessage, rr.Body)
			if err != nil {
				t.Error(err)
			}
		})
	}
}
