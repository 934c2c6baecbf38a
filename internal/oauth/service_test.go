package oauth

import (
	"context"
	"database/sql"
	"testing"

	auth "github.com/guardianauth/guardian"
	"github.com/guardianauth/guardian/internal/test"
)

func TestOAuthSvc_ResolveCreatesNewAccount(t *testing.T) {
	userRepo := &test.UserRepository{
		ByEmailFn: func() (*auth.User, error) {
			return nil, sql.ErrNoRows
		},
	}
	repoMngr := &test.RepositoryManager{
		UserFn: func() auth.UserRepository {
			return userRepo
		},
	}
	svc := NewService(WithRepoManager(repoMngr))

	ctx := context.Background()
	user, err := svc.Resolve(ctx, &auth.OAuthProfile{
		Provider: "Google",
		Subject:  "google-subject",
		Email:    "Jane@Example.com",
		Name:     "Jane Marie Doe",
	})
	if err != nil {
		t.Fatal("failed to resolve profile:", err)
	}

	if userRepo.Calls.Create != 1 {
		t.Error("account not created, call count:", userRepo.Calls.Create)
	}
	if user.Email != "jane@example.com" {
		t.Error("email not normalized:", user.Email)
	}
	if user.Method != auth.MethodOAuth {
		t.Error("incorrect auth method:", user.Method)
	}
	if user.OAuthProvider.String != "Google" {
		t.Error("provider not linked:", user.OAuthProvider.String)
	}
	if user.FirstName != "Jane" || user.LastName != "Marie" || user.SecondLastName != "Doe" {
		t.Errorf("incorrect name split: %q %q %q",
			user.FirstName, user.LastName, user.SecondLastName)
	}
}

func TestOAuthSvc_ResolveLinksExistingAccount(t *testing.T) {
	userRepo := &test.UserRepository{
		ByEmailFn: func() (*auth.User, error) {
			return &auth.User{
				ID:    "user-id",
				Email: "jane@example.com",
				Password: sql.NullString{
					String: "hashed-password",
					Valid:  true,
				},
				Method: auth.MethodTwoFactor,
			}, nil
		},
	}
	repoMngr := &test.RepositoryManager{
		UserFn: func() auth.UserRepository {
			return userRepo
		},
	}
	svc := NewService(WithRepoManager(repoMngr))

	ctx := context.Background()
	user, err := svc.Resolve(ctx, &auth.OAuthProfile{
		Provider: "Google",
		Subject:  "google-subject",
		Email:    "jane@example.com",
	})
	if err != nil {
		t.Fatal("failed to resolve profile:", err)
	}

	if userRepo.Calls.Create != 0 {
		t.Error("duplicate account created, call count:", userRepo.Calls.Create)
	}
	if userRepo.Calls.AttachProvider != 1 {
		t.Error("provider not attached, call count:", userRepo.Calls.AttachProvider)
	}
	// local credentials survive the link
	if !user.Password.Valid {
		t.Error("password cleared on provider link")
	}
	if user.Method != auth.MethodTwoFactor {
		t.Error("auth method overwritten:", user.Method)
	}
}

func TestOAuthSvc_ResolveKeepsOriginalLink(t *testing.T) {
	userRepo := &test.UserRepository{
		ByEmailFn: func() (*auth.User, error) {
			return &auth.User{
				ID:    "user-id",
				Email: "jane@example.com",
				OAuthProvider: sql.NullString{
					String: "Google",
					Valid:  true,
				},
			}, nil
		},
	}
	repoMngr := &test.RepositoryManager{
		UserFn: func() auth.UserRepository {
			return userRepo
		},
	}
	svc := NewService(WithRepoManager(repoMngr))

	ctx := context.Background()
	user, err := svc.Resolve(ctx, &auth.OAuthProfile{
		Provider: "Facebook",
		Subject:  "facebook-subject",
		Email:    "jane@example.com",
	})
	if err != nil {
		t.Fatal("failed to resolve profile:", err)
	}

	if userRepo.Calls.AttachProvider != 0 {
		t.Error("link overwritten, call count:", userRepo.Calls.AttachProvider)
	}
	if user.OAuthProvider.String != "Google" {
		t.Error("original link lost:", user.OAuthProvider.String)
	}
}

func TestOAuthSvc_ResolveWithoutEmailIsDeterministic(t *testing.T) {
	var createdEmails []string
	userRepo := &test.UserRepository{
		ByEmailFn: func() (*auth.User, error) {
			return nil, sql.ErrNoRows
		},
	}
	repoMngr := &test.RepositoryManager{
		UserFn: func() auth.UserRepository {
			return userRepo
		},
	}
	svc := NewService(WithRepoManager(repoMngr))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		user, err := svc.Resolve(ctx, &auth.OAuthProfile{
			Provider: "Facebook",
			Subject:  "facebook-subject",
		})
		if err != nil {
			t.Fatal("failed to resolve profile:", err)
		}
		createdEmails = append(createdEmails, user.Email)
	}

	if createdEmails[0] != createdEmails[1] {
		t.Errorf("synthetic identity not stable: %q != %q",
			createdEmails[0], createdEmails[1])
	}
	if createdEmails[0] == "" {
		t.Error("no synthetic email derived")
	}
}

func TestOAuthSvc_ResolveRecoversFromCreateRace(t *testing.T) {
	lookups := 0
	userRepo := &test.UserRepository{
		ByEmailFn: func() (*auth.User, error) {
			lookups++
			if lookups == 1 {
				return nil, sql.ErrNoRows
			}
			return &auth.User{
				ID:    "user-id",
				Email: "jane@example.com",
			}, nil
		},
		CreateFn: func() error {
			return auth.ErrConflict("email address is already registered")
		},
	}
	repoMngr := &test.RepositoryManager{
		UserFn: func() auth.UserRepository {
			return userRepo
		},
	}
	svc := NewService(WithRepoManager(repoMngr))

	ctx := context.Background()
	user, err := svc.Resolve(ctx, &auth.OAuthProfile{
		Provider: "Google",
		Subject:  "google-subject",
		Email:    "jane@example.com",
	})
	if err != nil {
		t.Fatal("failed to resolve profile:", err)
	}

	if user.ID != "user-id" {
		t.Error("did not adopt winning account:", user.ID)
	}
	if userRepo.Calls.AttachProvider != 1 {
		t.Error("provider not attached after race, call count:", userRepo.Calls.AttachProvider)
	}
}

func TestOAuthSvc_ResolveRejectsIncompleteProfile(t *testing.T) {
	svc := NewService(WithRepoManager(&test.RepositoryManager{}))

	ctx := context.Background()
	tt := []struct {
		name    string
		profile *auth.OAuthProfile
	}{
		{
			name:    "Missing provider",
			profile: &auth.OAuthProfile{Subject: "subject"},
		},
		{
			name:    "Missing subject",
			profile: &auth.OAuthProfile{Provider: "Google"},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Resolve(ctx, tc.profile)
			if err == nil {
				t.Fatal("expected error, not nil")
			}
			if code := auth.ErrorCode(err); code != auth.EInvalidField {
				t.Error("incorrect error code:", code)
			}
		})
	}
}
