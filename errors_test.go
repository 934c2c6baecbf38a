package guardian

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestErrors_RetrieveDomainErrorCode(t *testing.T) {
	tt := []struct {
		name string
		code ErrCode
		err  error
	}{
		{
			name: "Typed error",
			code: EInvalidCredential,
			err:  ErrInvalidCredential("invalid code"),
		},
		{
			name: "stdlib error",
			code: EInternal,
			err:  fmt.Errorf("whoops"),
		},
		{
			name: "Wrapped error",
			code: EConflict,
			err:  fmt.Errorf("whoops: %w", ErrConflict("email is taken")),
		},
		{
			name: "Multi layered error",
			code: EInvalidToken,
			err: fmt.Errorf("whoops: %w",
				fmt.Errorf("wrapped: %w", ErrInvalidToken("bad token")),
			),
		},
		{
			name: "Replay error",
			code: EReplay,
			err:  ErrReplay("sign counter regressed"),
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			code := ErrorCode(tc.err)
			if code != tc.code {
				t.Error("code does not match", cmp.Diff(code, tc.code))
			}
		})
	}
}

func TestErrors_NoDomainError(t *testing.T) {
	if DomainError(nil) != nil {
		t.Error("expected nil domain error")
	}

	if DomainError(fmt.Errorf("whoops")) != nil {
		t.Error("expected nil domain error for non domain error")
	}
}
