package token

import (
	"context"
	"testing"
	"time"

	auth "github.com/guardianauth/guardian"
)

func TestTokenSvc_CreateAndValidate(t *testing.T) {
	svc := NewService(WithSecret("my-signing-secret"))

	ctx := context.Background()
	user := &auth.User{
		ID:    "user-id",
		Email: "jane@example.com",
	}

	token, err := svc.Create(ctx, user, auth.JWTAuthorized)
	if err != nil {
		t.Fatal("failed to create token:", err)
	}

	if token.Id == "" {
		t.Error("token ID not set")
	}
	if token.State != auth.JWTAuthorized {
		t.Error("incorrect token state:", token.State)
	}

	signed, err := svc.Sign(ctx, token)
	if err != nil {
		t.Fatal("failed to sign token:", err)
	}

	validated, err := svc.Validate(ctx, "Bearer "+signed)
	if err != nil {
		t.Fatal("failed to validate token:", err)
	}

	if validated.UserID != user.ID {
		t.Error("incorrect user ID:", validated.UserID)
	}
	if validated.Email != user.Email {
		t.Error("incorrect email:", validated.Email)
	}
	if validated.State != auth.JWTAuthorized {
		t.Error("incorrect token state:", validated.State)
	}
}

func TestTokenSvc_ValidateRejectsMissingBearer(t *testing.T) {
	svc := NewService(WithSecret("my-signing-secret"))

	ctx := context.Background()
	_, err := svc.Validate(ctx, "not-a-bearer-token")
	if err == nil {
		t.Fatal("expected error, not nil")
	}
	if code := auth.ErrorCode(err); code != auth.EInvalidToken {
		t.Error("incorrect error code:", code)
	}
}

func TestTokenSvc_ValidateRejectsBadSignature(t *testing.T) {
	svc := NewService(WithSecret("my-signing-secret"))
	otherSvc := NewService(WithSecret("another-signing-secret"))

	ctx := context.Background()
	user := &auth.User{
		ID:    "user-id",
		Email: "jane@example.com",
	}

	token, err := otherSvc.Create(ctx, user, auth.JWTAuthorized)
	if err != nil {
		t.Fatal("failed to create token:", err)
	}

	signed, err := otherSvc.Sign(ctx, token)
	if err != nil {
		t.Fatal("failed to sign token:", err)
	}

	_, err = svc.Validate(ctx, "Bearer "+signed)
	if err == nil {
		t.Fatal("expected error, not nil")
	}
	if code := auth.ErrorCode(err); code != auth.EInvalidToken {
		t.Error("incorrect error code:", code)
	}
}

func TestTokenSvc_ValidateRejectsExpiredToken(t *testing.T) {
	svc := NewService(
		WithSecret("my-signing-secret"),
		WithTokenExpiry(-time.Minute),
	)

	ctx := context.Background()
	user := &auth.User{
		ID:    "user-id",
		Email: "jane@example.com",
	}

	token, err := svc.Create(ctx, user, auth.JWTAuthorized)
	if err != nil {
		t.Fatal("failed to create token:", err)
	}

	signed, err := svc.Sign(ctx, token)
	if err != nil {
		t.Fatal("failed to sign token:", err)
	}

	_, err = svc.Validate(ctx, "Bearer "+signed)
	if err == nil {
		t.Fatal("expected error, not nil")
	}
	if code := auth.ErrorCode(err); code != auth.EInvalidToken {
		t.Error("incorrect error code:", code)
	}
}
