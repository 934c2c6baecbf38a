// Package oauth links federated identities to canonical accounts.
package oauth

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	auth "github.com/guardianauth/guardian"
	"github.com/guardianauth/guardian/internal/contactchecker"
)

// service is an implementation of auth.OAuthService.
type service struct {
	logger   log.Logger
	repoMngr auth.RepositoryManager
}

// Resolve finds or creates the account behind a verified provider
// profile. Accounts are matched by email; a match links the provider
// to the existing account without disturbing its password or
// credentials, and the link is write-once. Profiles with no email are
// resolved through a synthetic address derived from the provider and
// its stable subject identifier, so repeated logins converge on one
// account.
func (s *service) Resolve(ctx context.Context, profile *auth.OAuthProfile) (*auth.User, error) {
	if profile.Provider == "" {
		return nil, auth.ErrInvalidField("provider is required")
	}
	if profile.Subject == "" {
		return nil, auth.ErrInvalidField("subject is required")
	}

	email := contactchecker.NormalizeEmail(profile.Email)
	if email == "" {
		email = syntheticEmail(profile.Provider, profile.Subject)
	}

	user, err := s.repoMngr.User().ByEmail(ctx, email)
	if err == nil {
		return s.link(ctx, user, profile.Provider)
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	user = newUser(profile, email)
	err = s.repoMngr.User().Create(ctx, user)
	if auth.ErrorCode(err) == auth.EConflict {
		// lost a race with a concurrent first login
		user, err = s.repoMngr.User().ByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return s.link(ctx, user, profile.Provider)
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// link attaches a provider to an existing account. The attachment is
// write-once at the storage layer; a User already linked elsewhere
// keeps their original link.
func (s *service) link(ctx context.Context, user *auth.User, provider string) (*auth.User, error) {
	if user.OAuthProvider.Valid {
		if user.OAuthProvider.String != provider {
			level.Info(s.logger).Log(
				"source", "oauth.Resolve",
				"message", "account already linked to another provider",
				"user_id", user.ID,
				"provider", provider,
			)
		}
		return user, nil
	}

	if err := s.repoMngr.User().AttachProvider(ctx, user.ID, provider); err != nil {
		return nil, err
	}

	user.OAuthProvider = sql.NullString{String: provider, Valid: true}
	return user, nil
}

func newUser(profile *auth.OAuthProfile, email string) *auth.User {
	first, last, secondLast := splitName(profile.Name)

	return &auth.User{
		FirstName:      first,
		LastName:       last,
		SecondLastName: secondLast,
		Email:          email,
		Method:         auth.MethodOAuth,
		OAuthProvider: sql.NullString{
			String: profile.Provider,
			Valid:  true,
		},
	}
}

// splitName breaks a provider display name into given name and up to
// two surnames.
func splitName(name string) (first, last, secondLast string) {
	parts := strings.Fields(name)
	switch {
	case len(parts) >= 3:
		return parts[0], parts[1], strings.Join(parts[2:], " ")
	case len(parts) == 2:
		return parts[0], parts[1], ""
	case len(parts) == 1:
		return parts[0], "", ""
	}
	return "", "", ""
}

// syntheticEmail derives a stable placeholder address for providers
// that withhold the account email. The subject is hashed to avoid
// leaking provider identifiers into the email column.
func syntheticEmail(provider, subject string) string {
	sum := sha256.Sum256([]byte(subject))
	return fmt.Sprintf(
		"%s-%s@accounts.guardian.invalid",
		strings.ToLower(provider),
		hex.EncodeToString(sum[:8]),
	)
}
