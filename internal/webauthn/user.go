package webauthn

import (
	webauthnLib "github.com/duo-labs/webauthn/webauthn"

	auth "github.com/guardianauth/guardian"
)

// User is a wrapper for the domain entity auth.User to allow
// compatibility with duo-lab's webauthn User interface.
type User struct {
	auth.User
}

// WebAuthnID returns the User's ID. Accounts mid-registration have
// no ID yet and are identified by email instead.
func (u *User) WebAuthnID() []byte {
	if u.ID != "" {
		return []byte(u.ID)
	}
	return []byte(u.Email)
}

// WebAuthnName returns the User's name.
func (u *User) WebAuthnName() string {
	return u.Email
}

// WebAuthnDisplayName returns the User's display name.
func (u *User) WebAuthnDisplayName() string {
	return u.DisplayName()
}

// WebAuthnIcon returns an Icon for the user.
func (u *User) WebAuthnIcon() string {
	return ""
}

// WebAuthnCredentials returns the User's registered credential.
func (u *User) WebAuthnCredentials() []webauthnLib.Credential {
	if !u.HasWebAuthnCredential() {
		return []webauthnLib.Credential{}
	}

	return []webauthnLib.Credential{
		{
			ID:        u.CredentialID,
			PublicKey: u.PublicKey,
			Authenticator: webauthnLib.Authenticator{
				SignCount: u.SignCount,
			},
		},
	}
}
