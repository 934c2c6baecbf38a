package webauthn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	webauthnProto "github.com/duo-labs/webauthn/protocol"
	webauthnLib "github.com/duo-labs/webauthn/webauthn"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	auth "github.com/guardianauth/guardian"
)

// challengeExpiry is the lifetime of a pending ceremony challenge.
const challengeExpiry = time.Minute * 5

// Webauthner is an interface to duo-labs/webauthn
type Webauthner interface {
	BeginRegistration(user webauthnLib.User, opts ...webauthnLib.RegistrationOption) (*webauthnProto.CredentialCreation, *webauthnLib.SessionData, error)
	FinishRegistration(user webauthnLib.User, session webauthnLib.SessionData, r *http.Request) (*webauthnLib.Credential, error)
	BeginLogin(user webauthnLib.User, opts ...webauthnLib.LoginOption) (*webauthnProto.CredentialAssertion, *webauthnLib.SessionData, error)
	FinishLogin(user webauthnLib.User, session webauthnLib.SessionData, r *http.Request) (*webauthnLib.Credential, error)
}

// Rediser is an interface to go-redis.
type Rediser interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// WebAuthn implements the WebAuthn authentication protocol. Under the
// hood it defers the actual validation to the duo-labs/webauthn
// library and wraps the service's domain entities to provide
// compatibility with the third party library.
//
// Ceremony challenges are stored out of band and consumed on first
// use; a challenge can never verify two responses.
type WebAuthn struct {
	// displayName is the site display name.
	displayName string
	// domain is the domain of the site.
	domain string
	// requestOrigin is the origin domain for
	// authentication requests.
	requestOrigin string
	// lib is the underlying WebAuthn library
	// used by this adapter.
	lib Webauthner
	// db is a redis DB to store pending challenges.
	db Rediser
	// repoMngr is an instance of a RepositoryManager
	// to manage domain entities.
	repoMngr auth.RepositoryManager
}

// BeginSignUp issues a registration challenge for an account that has
// not yet been persisted.
func (w *WebAuthn) BeginSignUp(ctx context.Context, user *auth.User) ([]byte, error) {
	wu := User{User: *user}

	credentialOptions, session, err := w.lib.BeginRegistration(&wu)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize webauthn registration")
	}

	credentialBytes, err := json.Marshal(credentialOptions)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal webauthn credential options")
	}

	err = w.storeSession(ctx, user, auth.CeremonyRegistration, session)
	if err != nil {
		return nil, err
	}

	return credentialBytes, nil
}

// FinishSignUp verifies an attestation response and persists the new
// account together with its credential as a single atomic unit. A
// verified response without a persisted account leaves no partial
// state behind.
func (w *WebAuthn) FinishSignUp(ctx context.Context, user *auth.User, r *http.Request) (*auth.User, error) {
	session, err := w.consumeSession(ctx, user, auth.CeremonyRegistration)
	if err != nil {
		return nil, err
	}

	wu := User{User: *user}
	credential, err := w.lib.FinishRegistration(&wu, *session, r)
	if err != nil {
		return nil, errors.Wrap(err, "webauthn credential registration failed")
	}

	client, err := w.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start transaction")
	}

	entity, err := client.WithAtomic(func() (interface{}, error) {
		if err := client.User().Create(ctx, user); err != nil {
			return nil, err
		}

		err := client.User().UpdateCredential(
			ctx,
			user.ID,
			credential.ID,
			credential.PublicKey,
			credential.Authenticator.SignCount,
		)
		if err != nil {
			return nil, err
		}

		return user, nil
	})
	if err != nil {
		return nil, err
	}

	created := entity.(*auth.User)
	created.CredentialID = credential.ID
	created.PublicKey = credential.PublicKey
	created.SignCount = credential.Authenticator.SignCount

	return created, nil
}

// BeginLogin issues an authentication challenge scoped to a known
// account's registered credential.
func (w *WebAuthn) BeginLogin(ctx context.Context, user *auth.User) ([]byte, error) {
	if !user.HasWebAuthnCredential() {
		return nil, auth.ErrNotFound("no credential is registered")
	}

	wu := User{User: *user}
	assertion, session, err := w.lib.BeginLogin(&wu)
	if err != nil {
		return nil, errors.Wrap(err, "webauthn login request failed")
	}

	credentialBytes, err := json.Marshal(assertion)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal webauthn credential")
	}

	err = w.storeSession(ctx, user, auth.CeremonyAuthentication, session)
	if err != nil {
		return nil, err
	}

	return credentialBytes, nil
}

// FinishLogin verifies an assertion response against the account's
// registered credential. The authenticator's sign counter must move
// strictly forward; a repeated or regressed counter is treated as
// evidence of a cloned credential.
func (w *WebAuthn) FinishLogin(ctx context.Context, user *auth.User, r *http.Request) error {
	session, err := w.consumeSession(ctx, user, auth.CeremonyAuthentication)
	if err != nil {
		return err
	}

	wu := User{User: *user}
	credential, err := w.lib.FinishLogin(&wu, *session, r)
	if err != nil {
		return errors.Wrap(err, "failed to authenticate user")
	}

	if credential.Authenticator.CloneWarning {
		return auth.ErrReplay("credential is possibly cloned")
	}

	client, err := w.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}

	newCount := credential.Authenticator.SignCount

	_, err = client.WithAtomic(func() (interface{}, error) {
		stored, err := client.User().GetForUpdate(ctx, user.ID)
		if err != nil {
			return nil, err
		}

		if !isCounterAdvanced(newCount, stored.SignCount) {
			return nil, auth.ErrReplay("sign counter regressed")
		}

		err = client.User().UpdateCredential(
			ctx,
			stored.ID,
			stored.CredentialID,
			stored.PublicKey,
			newCount,
		)
		if err != nil {
			return nil, err
		}

		return stored, nil
	})
	if err != nil {
		return err
	}

	user.SignCount = newCount
	return nil
}

// isCounterAdvanced reports if an authenticator counter moved
// strictly forward. Authenticators without counter support always
// report zero and are exempt.
func isCounterAdvanced(newCount, storedCount uint32) bool {
	if newCount == 0 && storedCount == 0 {
		return true
	}
	return newCount > storedCount
}

func (w *WebAuthn) storeSession(ctx context.Context, user *auth.User, purpose auth.CeremonyPurpose, session *webauthnLib.SessionData) error {
	sessionBytes, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "failed to marshal webauthn session")
	}

	sessionKey := newSessionKey(user.Email, purpose)
	err = w.db.Set(ctx, sessionKey, sessionBytes, challengeExpiry).Err()
	if err != nil {
		return errors.Wrap(err, "failed to store webauthn session")
	}

	return nil
}

// consumeSession retrieves and removes a pending ceremony challenge.
// A challenge may be consumed once.
func (w *WebAuthn) consumeSession(ctx context.Context, user *auth.User, purpose auth.CeremonyPurpose) (*webauthnLib.SessionData, error) {
	sessionKey := newSessionKey(user.Email, purpose)
	b, err := w.db.Get(ctx, sessionKey).Bytes()
	if err != nil {
		return nil, errors.Wrap(auth.ErrNotFound("webauthn session not found"), err.Error())
	}

	if err = w.db.Del(ctx, sessionKey).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to consume webauthn session")
	}

	session := webauthnLib.SessionData{}
	if err = json.Unmarshal(b, &session); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal webauthn session")
	}

	return &session, nil
}

func newSessionKey(email string, purpose auth.CeremonyPurpose) string {
	return fmt.Sprintf("%s-webauthn-%s", email, purpose)
}
