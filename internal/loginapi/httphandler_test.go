package loginapi

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
	"github.com/guardianauth/guardian/internal/password"
	"github.com/guardianauth/guardian/internal/test"
)

func TestLoginAPI_Login(t *testing.T) {
	// bcrypt hash of "swordfish"
	validPassword := "$2a$10$zURdae3ekOWKobmadhWdROZLolGAIWrCEzjSfegV6Y/nsxJ1wqM2y" // nolint

	tt := []struct {
		name           string
		statusCode     int
		reqBody        []byte
		messagingCalls int
		errMessage     string
		userFn         func() (*auth.User, error)
		tokenCreateFn  func() (*auth.Token, error)
	}{
		{
			name:       "Non existent user failure",
			statusCode: http.StatusUnauthorized,
			reqBody: []byte(`{
				"email": "jane@example.com",
				"password": "swordfish"
			}`),
			messagingCalls: 0,
			errMessage:     "invalid username or password",
			userFn: func() (*auth.User, error) {
				return nil, sql.ErrNoRows
			},
			tokenCreateFn: func() (*auth.Token, error) {
				return &auth.Token{State: auth.JWTPreAuthorized}, nil
			},
		},
		{
			name:       "Invalid password failure",
			statusCode: http.StatusUnauthorized,
			reqBody: []byte(`{
				"email": "jane@example.com",
				"password": "invalid-password"
			}`),
			messagingCalls: 0,
			errMessage:     "invalid username or password",
			userFn: func() (*auth.User, error) {
				return &auth.User{Password: sql.NullString{String: validPassword, Valid: true}}, nil
			},
			tokenCreateFn: func() (*auth.Token, error) {
				return &auth.Token{State: auth.JWTPreAuthorized}, nil
			},
		},
		{
			name:       "User query failure",
			statusCode: http.StatusInternalServerError,
			reqBody: []byte(`{
				"email": "jane@example.com",
				"password": "swordfish"
			}`),
			messagingCalls: 0,
			errMessage:     "An internal error occurred",
			userFn: func() (*auth.User, error) {
				return nil, errors.New("db connection failed")
			},
			tokenCreateFn: func() (*auth.Token, error) {
				return &auth.Token{State: auth.JWTPreAuthorized}, nil
			},
		},
		{
			name:       "Invalid request failure",
			statusCode: http.StatusBadRequest,
			reqBody: []byte(`{
				"email": "jane@example.com"
			}`),
			messagingCalls: 0,
			errMessage:     "password is required",
			userFn: func() (*auth.User, error) {
				return &auth.User{Password: sql.NullString{String: validPassword, Valid: true}}, nil
			},
			tokenCreateFn: func() (*auth.Token, error) {
				return &auth.Token{State: auth.JWTPreAuthorized}, nil
			},
		},
		{
			name:       "Token creation failure",
			statusCode: http.StatusInternalServerError,
			reqBody: []byte(`{
				"email": "jane@example.com",
				"password": "swordfish"
			}`),
			messagingCalls: 1,
			errMessage:     "An internal error occurred",
			userFn: func() (*auth.User, error) {
				return &auth.User{
					Password: sql.NullString{String: validPassword, Valid: true},
					Email:    "jane@example.com",
				}, nil
			},
			tokenCreateFn: func() (*auth.Token, error) {
				return nil, errors.New("cannot create token")
			},
		},
		{
			name:       "Successful request",
			statusCode: http.StatusOK,
			reqBody: []byte(`{
				"email": "jane@example.com",
				"password": "swordfish"
			}`),
			messagingCalls: 1,
			errMessage:     "",
			userFn: func() (*auth.User, error) {
				return &auth.User{
					Password: sql.NullString{String: validPassword, Valid: true},
					Email:    "jane@example.com",
				}, nil
			},
			tokenCreateFn: func() (*auth.Token, error) {
				return &auth.Token{State: auth.JWTPreAuthorized}, nil
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
			tokenSvc := &test.TokenService{
				CreateFn: tc.tokenCreateFn,
			}
			messagingSvc := &test.MessagingService{}
			otpSvc := &test.OTPService{}
			passwordSvc := password.NewPassword()
			svc := NewService(
				WithTokenService(tokenSvc),
				WithRepoManager(repoMngr),
				WithOTP(otpSvc),
				WithPassword(passwordSvc),
				WithMessaging(messagingSvc),
			)

			req, err := http.NewRequest(
				"POST",
				"/api/v1/login",
				bytes.NewBuffer(tc.reqBody),
			)
			if err != nil {
				t.Fatal("failed to create request:", err)
			}

			logger := log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
			SetupHTTPHandler(svc, router, tokenSvc, logger)

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.statusCode {
				t.Errorf("incorrect status code, want %v got %v", tc.statusCode, rr.Code)
				t.Error(rr.Body.String())
			}

			if messagingSvc.Calls.Send != tc.messagingCalls {
				t.Errorf("incorrect MessagingService.Send() call count, want %v got %v",
					tc.messagingCalls, messagingSvc.Calls.Send)
			}

			err = test.ValidateErrMessage(tc.errMessage, rr.Body)
			if err != nil {
				t.Error(err)
			}
		})
	}
}

func TestLoginAPI_VerifyCode(t *testing.T) {
	tt := []struct {
		name              string
		statusCode        int
		reqBody           []byte
		errMessage        string
		authHeader        bool
		refreshCalls      int
		sessionOpenCalls  int
		otpVerifyFn       func() error
		userFn            func() (*auth.User, error)
		tokenValidationFn func() (*auth.Token, error)
	}{
		{
			name:             "Missing token failure",
			statusCode:       http.StatusUnauthorized,
			reqBody:          []byte(`{"code": "123456"}`),
			errMessage:       "user is not authenticated",
			authHeader:       false,
			refreshCalls:     0,
			sessionOpenCalls: 0,
			otpVerifyFn: func() error {
				return nil
			},
			userFn: func() (*auth.User, error) {
				return &auth.User{ID: "user-id"}, nil
			},
			tokenValidationFn: func() (*auth.Token, error) {
				return &auth.Token{UserID: "user-id", State: auth.JWTPreAuthorized}, nil
			},
		},
		{
			name:             "Invalid token state failure",
			statusCode:       http.StatusUnauthorized,
			reqBody:          []byte(`{"code": "123456"}`),
			errMessage:       "token state is not supported",
			authHeader:       true,
			refreshCalls:     0,
			sessionOpenCalls: 0,
			otpVerifyFn: func() error {
				return nil
			},
			userFn: func() (*auth.User, error) {
				return &auth.User{ID: "user-id"}, nil
			},
			tokenValidationFn: func() (*auth.Token, error) {
				return &auth.Token{UserID: "user-id", State: auth.JWTAuthorized}, nil
			},
		},
		{
			name:             "Incorrect code failure",
			statusCode:       http.StatusUnauthorized,
			reqBody:          []byte(`{"code": "222222"}`),
			errMessage:       "incorrect code provided",
			authHeader:       true,
			refreshCalls:     0,
			sessionOpenCalls: 0,
			otpVerifyFn: func() error {
				return auth.ErrInvalidCredential("incorrect code provided")
			},
			userFn: func() (*auth.User, error) {
				return &auth.User{ID: "user-id"}, nil
			},
			tokenValidationFn: func() (*auth.Token, error) {
				return &auth.Token{UserID: "user-id", State: auth.JWTPreAuthorized}, nil
			},
		},
		{
			name:             "User query failure",
			statusCode:       http.StatusNotFound,
			reqBody:          []byte(`{"code": "123456"}`),
			errMessage:       "user does not exist",
			authHeader:       true,
			refreshCalls:     0,
			sessionOpenCalls: 0,
			otpVerifyFn: func() error {
				return nil
			},
			userFn: func() (*auth.User, error) {
				return nil, auth.ErrNotFound("user does not exist")
			},
			tokenValidationFn: func() (*auth.Token, error) {
				return &auth.Token{UserID: "user-id", State: auth.JWTPreAuthorized}, nil
			},
		},
		{
			name:             "Successful request",
			statusCode:       http.StatusOK,
			reqBody:          []byte(`{"code": "123456"}`),
			errMessage:       "",
			authHeader:       true,
			refreshCalls:     1,
			sessionOpenCalls: 1,
			otpVerifyFn: func() error {
				return nil
			},
			userFn: func() (*auth.User, error) {
				return &auth.User{ID: "user-id", Email: "jane@example.com"}, nil
			},
			tokenValidationFn: func() (*auth.Token, error) {
				return &auth.Token{UserID: "user-id", State: auth.JWTPreAuthorized}, nil
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			router := mux.NewRouter()
			userRepo := &test.UserRepository{
				ByIDFn: tc.userFn,
			}
			repoMngr := &test.RepositoryManager{
				UserFn: func() auth.UserRepository {
					return userRepo
				},
			}
			tokenSvc := &test.TokenService{
				ValidateFn: tc.tokenValidationFn,
			}
			otpSvc := &test.OTPService{
				VerifyFn: tc.otpVerifyFn,
			}
			refreshSvc := &test.RefreshService{}
			sessionSvc := &test.SessionService{}
			svc := NewService(
				WithTokenService(tokenSvc),
				WithRepoManager(repoMngr),
				WithOTP(otpSvc),
				WithRefresh(refreshSvc),
				WithSession(sessionSvc),
			)

			req, err := http.NewRequest(
				"POST",
				"/api/v1/login/verify-code",
				bytes.NewBuffer(tc.reqBody),
			)
			if err != nil {
				t.Fatal("failed to create request:", err)
			}

			if tc.authHeader {
				test.SetAuthHeaders(req)
			}

			logger := log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
			SetupHTTPHandler(svc, router, tokenSvc, logger)

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
