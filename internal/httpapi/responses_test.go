package httpapi

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	auth "github.com/guardianauth/guardian"
)

func TestHTTPAPI_JSONResponse(t *testing.T) {
	tt := []struct {
		name      string
		response  interface{}
		result    string
		statusOut int
	}{
		{
			name:      "Handles nil response",
			response:  nil,
			result:    `{}`,
			statusOut: http.StatusOK,
		},
		{
			name:      "Handles byte response",
			response:  []byte(`{"foo": "bar"}`),
			result:    `{"foo": "bar"}`,
			statusOut: http.StatusOK,
		},
		{
			name: "Handles struct response",
			response: struct {
				Name string `json:"name"`
			}{
				Name: "Jane",
			},
			result:    `{"name":"Jane"}`,
			statusOut: http.StatusOK,
		},
		{
			name:      "Handles marshal error",
			response:  func() {},
			result:    "An internal error occurred",
			statusOut: http.StatusInternalServerError,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSONResponse(w, tc.response, http.StatusOK)

			resp := w.Result()
			defer resp.Body.Close()

			body, err := ioutil.ReadAll(resp.Body)
			if err != nil {
				t.Fatal("failed to read response body:", err)
			}

			if resp.StatusCode != tc.statusOut {
				t.Error("incorrect status code:", resp.StatusCode)
			}
			if !strings.Contains(string(body), tc.result) {
				t.Errorf("incorrect response body, want %q got %q", tc.result, string(body))
			}
		})
	}
}

func TestHTTPAPI_ErrorResponse(t *testing.T) {
	tt := []struct {
		name      string
		err       error
		statusOut int
	}{
		{
			name:      "Validation error",
			err:       auth.ErrInvalidField("email is required"),
			statusOut: http.StatusBadRequest,
		},
		{
			name:      "Conflict error",
			err:       auth.ErrConflict("email address is already registered"),
			statusOut: http.StatusConflict,
		},
		{
			name:      "Credential error",
			err:       auth.ErrInvalidCredential("incorrect code provided"),
			statusOut: http.StatusUnauthorized,
		},
		{
			name:      "Token error",
			err:       auth.ErrInvalidToken("token is invalid"),
			statusOut: http.StatusUnauthorized,
		},
		{
			name:      "Replay error",
			err:       auth.ErrReplay("sign counter regressed"),
			statusOut: http.StatusUnauthorized,
		},
		{
			name:      "Not found error",
			err:       auth.ErrNotFound("no code is awaiting verification"),
			statusOut: http.StatusNotFound,
		},
		{
			name:      "Throttled error",
			err:       auth.ErrThrottle("requests are throttled, try again later"),
			statusOut: http.StatusTooManyRequests,
		},
		{
			name:      "Internal error",
			err:       strings.NewReader("").UnreadRune(),
			statusOut: http.StatusInternalServerError,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorResponse(w, tc.err)

			resp := w.Result()
			defer resp.Body.Close()

			if resp.StatusCode != tc.statusOut {
				t.Error("incorrect status code:", resp.StatusCode)
			}
		})
	}
}
