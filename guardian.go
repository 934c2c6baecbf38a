// Package guardian describes the domain model of a multi-factor
// authentication service. Users authenticate through one of several
// interchangeable factors (password with a second-factor code, SMS
// one-time codes, federated OAuth identities, WebAuthn credentials)
// and receive a short-lived JWT access token paired with a rotating
// refresh token.
package guardian

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// AuthMethod is the primary authentication method registered
// for a User.
type AuthMethod string

const (
	// MethodTwoFactor authenticates with a password followed by a
	// one-time code.
	MethodTwoFactor AuthMethod = "2FA"
	// MethodSMS authenticates with a one-time code delivered by SMS.
	MethodSMS AuthMethod = "SMS"
	// MethodOAuth authenticates through a federated identity provider.
	MethodOAuth AuthMethod = "OAuth"
	// MethodBiometric authenticates with a WebAuthn credential.
	MethodBiometric AuthMethod = "Biometric"
)

// DeliveryMethod is a mechanism to deliver one-time codes to a User.
type DeliveryMethod string

const (
	// Phone is a delivery method for text messages.
	Phone DeliveryMethod = "phone"
	// Email is a delivery method for email.
	Email DeliveryMethod = "email"
)

// OTPPurpose scopes a one-time code to the flow that issued it.
type OTPPurpose string

const (
	// OTPTwoFactor is the second step of a password login.
	OTPTwoFactor OTPPurpose = "2FA"
	// OTPSMS is a standalone SMS login code.
	OTPSMS OTPPurpose = "SMS"
)

// OTPStatus is the lifecycle state of a one-time code. Codes only
// move forward, never back to Active.
type OTPStatus string

const (
	// OTPActive is a code that may still be consumed.
	OTPActive OTPStatus = "Active"
	// OTPUsed is a code consumed by a successful verification.
	OTPUsed OTPStatus = "Used"
	// OTPExpired is a code superseded or past its expiry window.
	OTPExpired OTPStatus = "Expired"
)

// RefreshStatus is the lifecycle state of a refresh token.
type RefreshStatus string

const (
	// RefreshActive is the single usable refresh token of a User.
	RefreshActive RefreshStatus = "Active"
	// RefreshRevoked is a token superseded by rotation or logout.
	RefreshRevoked RefreshStatus = "Revoked"
)

// TokenState is the authorization state of a JWT token. Tokens issued
// after the first factor of a multi-step login are pre-authorized and
// only grant access to the remaining verification steps.
type TokenState string

const (
	// JWTPreAuthorized tokens may only complete a pending 2FA step.
	JWTPreAuthorized TokenState = "pre_authorized"
	// JWTAuthorized tokens represent a fully authenticated session.
	JWTAuthorized TokenState = "authorized"
)

// CeremonyPurpose scopes a WebAuthn challenge to a registration or
// authentication ceremony.
type CeremonyPurpose string

const (
	// CeremonyRegistration is an attestation ceremony.
	CeremonyRegistration CeremonyPurpose = "registration"
	// CeremonyAuthentication is an assertion ceremony.
	CeremonyAuthentication CeremonyPurpose = "authentication"
)

// User is the canonical account identity shared by every
// authentication factor.
type User struct {
	// ID is a ULID uniquely identifying the account.
	ID string
	// FirstName is the User's given name.
	FirstName string
	// LastName is the User's first surname.
	LastName string
	// SecondLastName is the User's second surname, when used.
	SecondLastName string
	// Email is globally unique and stored normalized (lowercase).
	Email string
	// Phone is globally unique when present. Stored as supplied,
	// compared on raw digits.
	Phone sql.NullString
	// Password is a bcrypt hash. It is null only for accounts
	// created through OAuth or a pure WebAuthn registration.
	Password sql.NullString
	// Method is the primary authentication method.
	Method AuthMethod
	// OAuthProvider is the federated provider linked to this
	// account. Attachment is write-once.
	OAuthProvider sql.NullString
	// CredentialID is the WebAuthn credential identifier.
	CredentialID []byte
	// PublicKey is the WebAuthn credential public key.
	PublicKey []byte
	// SignCount is the last accepted authenticator counter value.
	SignCount uint32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasWebAuthnCredential reports if a WebAuthn credential has been
// registered for the User.
func (u *User) HasWebAuthnCredential() bool {
	return len(u.CredentialID) > 0 && len(u.PublicKey) > 0
}

// DisplayName returns a human readable name for the User.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(strings.Join([]string{
		u.FirstName, u.LastName, u.SecondLastName,
	}, " "))
	if name == "" {
		return u.Email
	}
	return name
}

// OTPCode is a hashed one-time code issued to a User for a single
// purpose. At most one code per (User, purpose) is consultable as the
// current code; issuing a new code expires all prior Active codes.
type OTPCode struct {
	ID        string
	UserID    string
	CodeHash  string
	Purpose   OTPPurpose
	Status    OTPStatus
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RefreshToken is a long-lived opaque credential exchanged for new
// access tokens. At most one token per User is Active at any instant.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	Status    RefreshStatus
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Session records an issued access token. It is an audit aid, not a
// gate: losing a session record never blocks a login, and closing a
// session does not revoke the bearer token itself.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	IPAddress string
	CreatedAt time.Time
	ClosedAt  sql.NullTime
}

// Token is a JWT access token.
type Token struct {
	jwt.StandardClaims

	// UserID is the ID of the User the token was issued to.
	UserID string `json:"user_id"`
	// Email is the User's email at issuance time.
	Email string `json:"email"`
	// State indicates if the token is fully authorized or
	// pending a second factor.
	State TokenState `json:"state"`
}

// OAuthProfile is the verified identity supplied by a federated
// provider after its consent flow completes.
type OAuthProfile struct {
	// Provider is the provider name, e.g. "Google".
	Provider string
	// Subject is the provider-stable account identifier.
	Subject string
	// Email may be withheld by the provider.
	Email string
	// Name is an optional display name.
	Name string
}

// UserRepository manages canonical account records.
type UserRepository interface {
	ByID(ctx context.Context, userID string) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	ByPhone(ctx context.Context, phone string) (*User, error)
	GetForUpdate(ctx context.Context, userID string) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	// AttachProvider links a federated provider to a User. The link
	// is write-once; attaching to an already linked User is a no-op.
	AttachProvider(ctx context.Context, userID, provider string) error
	// UpdateCredential persists the WebAuthn credential fields.
	UpdateCredential(ctx context.Context, userID string, credentialID, publicKey []byte, signCount uint32) error
}

// OTPRepository manages one-time code records.
type OTPRepository interface {
	Create(ctx context.Context, c *OTPCode) error
	// Latest returns the most recently issued Active code for a
	// (User, purpose) pair.
	Latest(ctx context.Context, userID string, purpose OTPPurpose) (*OTPCode, error)
	GetForUpdate(ctx context.Context, codeID string) (*OTPCode, error)
	Update(ctx context.Context, c *OTPCode) error
	// ExpireActive marks every Active code for a (User, purpose)
	// pair as Expired.
	ExpireActive(ctx context.Context, userID string, purpose OTPPurpose) error
	// ExpireStale marks Active codes past their expiry timestamp
	// as Expired.
	ExpireStale(ctx context.Context, userID string) error
}

// RefreshTokenRepository manages refresh token records.
type RefreshTokenRepository interface {
	Create(ctx context.Context, t *RefreshToken) error
	// Latest returns the most recently issued Active token for a User.
	Latest(ctx context.Context, userID string) (*RefreshToken, error)
	// RevokeActive marks every Active token for a User as Revoked.
	RevokeActive(ctx context.Context, userID string) error
}

// SessionRepository manages session records.
type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	// CloseOpen sets a close timestamp on every open session of a
	// User. Closed sessions are terminal.
	CloseOpen(ctx context.Context, userID string) error
}

// RepositoryManager manages repositories stored in storage backends
// and provides atomic units of work across them.
type RepositoryManager interface {
	NewWithTransaction(ctx context.Context) (RepositoryManager, error)
	WithAtomic(operation func() (interface{}, error)) (interface{}, error)
	User() UserRepository
	OTP() OTPRepository
	RefreshToken() RefreshTokenRepository
	Session() SessionRepository
}

// PasswordService is the hashing primitive for passwords and other
// short secrets stored at rest.
type PasswordService interface {
	Hash(password string) ([]byte, error)
	Validate(user *User, password string) error
	OKForUser(password string) error
}

// Hasher hashes short secrets (one-time codes, refresh tokens) for
// storage and verifies candidates in constant time.
type Hasher interface {
	HashSecret(secret string) (string, error)
	VerifySecret(secret, digest string) bool
}

// OTPService manages the lifecycle of one-time codes.
type OTPService interface {
	// Issue generates, stores and returns a plaintext one-time code
	// for a (User, purpose) pair, superseding any prior Active code.
	Issue(ctx context.Context, userID string, purpose OTPPurpose) (string, error)
	// Verify consumes the current code for a (User, purpose) pair.
	// A code verifies at most once.
	Verify(ctx context.Context, userID string, purpose OTPPurpose, code string) error
}

// RefreshService issues, validates and revokes rotating refresh
// tokens.
type RefreshService interface {
	// Issue revokes all prior Active tokens and returns a fresh
	// plaintext token.
	Issue(ctx context.Context, userID string) (string, error)
	// Validate reports if a candidate token is the User's current
	// unexpired token. It never returns an error; all failures,
	// including storage failures, report false.
	Validate(ctx context.Context, userID, token string) bool
	// Revoke marks all Active tokens as Revoked. It is idempotent.
	Revoke(ctx context.Context, userID string) error
}

// SessionService tracks issued access tokens.
type SessionService interface {
	// Open records a new session. Persistence failures are logged
	// and swallowed.
	Open(ctx context.Context, userID, accessToken, ipAddress string)
	Close(ctx context.Context, userID string) error
}

// TokenService manages JWT access tokens.
type TokenService interface {
	Create(ctx context.Context, user *User, state TokenState) (*Token, error)
	Sign(ctx context.Context, token *Token) (string, error)
	Validate(ctx context.Context, signedToken string) (*Token, error)
}

// WebAuthnService manages WebAuthn ceremonies. Challenges are
// single-use and correlated to the target account and ceremony
// purpose.
type WebAuthnService interface {
	// BeginSignUp issues a registration challenge for an account
	// that may not yet exist.
	BeginSignUp(ctx context.Context, user *User) ([]byte, error)
	// FinishSignUp verifies an attestation response and persists the
	// account together with its credential as one atomic unit.
	FinishSignUp(ctx context.Context, user *User, r *http.Request) (*User, error)
	// BeginLogin issues an authentication challenge scoped to a
	// known account.
	BeginLogin(ctx context.Context, user *User) ([]byte, error)
	// FinishLogin verifies an assertion response and adopts the new
	// sign counter.
	FinishLogin(ctx context.Context, user *User, r *http.Request) error
}

// OAuthService links federated identities to canonical accounts.
type OAuthService interface {
	// Resolve finds or creates the User for a verified provider
	// profile.
	Resolve(ctx context.Context, profile *OAuthProfile) (*User, error)
}

// MessagingService delivers one-time codes to a User.
type MessagingService interface {
	Send(ctx context.Context, content, address string, method DeliveryMethod) error
}

// SMSer sends an SMS message.
type SMSer interface {
	SMS(ctx context.Context, phoneNumber, message string) error
}

// Emailer sends an email message.
type Emailer interface {
	Email(ctx context.Context, email, message string) error
}

// SignUpAPI provides HTTP handlers for user registration.
type SignUpAPI interface {
	SignUp(w http.ResponseWriter, r *http.Request) (interface{}, error)
	CheckEmail(w http.ResponseWriter, r *http.Request) (interface{}, error)
	CheckPhone(w http.ResponseWriter, r *http.Request) (interface{}, error)
}

// LoginAPI provides HTTP handlers for password authentication.
type LoginAPI interface {
	Login(w http.ResponseWriter, r *http.Request) (interface{}, error)
	VerifyCode(w http.ResponseWriter, r *http.Request) (interface{}, error)
}

// TokenAPI provides HTTP handlers for token refresh and logout.
type TokenAPI interface {
	Refresh(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Logout(w http.ResponseWriter, r *http.Request) (interface{}, error)
}

// SMSAPI provides HTTP handlers for SMS code authentication.
type SMSAPI interface {
	Send(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Verify(w http.ResponseWriter, r *http.Request) (interface{}, error)
}

// WebAuthnAPI provides HTTP handlers for WebAuthn ceremonies.
type WebAuthnAPI interface {
	RegisterOptions(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Register(w http.ResponseWriter, r *http.Request) (interface{}, error)
	LoginOptions(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Login(w http.ResponseWriter, r *http.Request) (interface{}, error)
}

// OAuthAPI provides HTTP handlers for the federated login flow.
type OAuthAPI interface {
	Authorize(w http.ResponseWriter, r *http.Request) (interface{}, error)
	Callback(w http.ResponseWriter, r *http.Request) (interface{}, error)
}
