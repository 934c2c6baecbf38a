package test

import (
	"context"
	"net/http"

	webauthnProto "github.com/duo-labs/webauthn/protocol"
	webauthnLib "github.com/duo-labs/webauthn/webauthn"
	"github.com/pkg/errors"

	auth "github.com/guardianauth/guardian"
)

// RepositoryManager mocks auth.RepositoryManager interface.
type RepositoryManager struct {
	NewWithTransactionFn func() (auth.RepositoryManager, error)
	WithAtomicFn         func() (interface{}, error)
	UserFn               func() auth.UserRepository
	OTPFn                func() auth.OTPRepository
	RefreshTokenFn       func() auth.RefreshTokenRepository
	SessionFn            func() auth.SessionRepository
	Calls                struct {
		NewWithTransaction int
		WithAtomic         int
		User               int
		OTP                int
		RefreshToken       int
		Session            int
	}
}

// NewWithTransaction mock.
func (m *RepositoryManager) NewWithTransaction(ctx context.Context) (auth.RepositoryManager, error) {
	m.Calls.NewWithTransaction++
	if m.NewWithTransactionFn != nil {
		return m.NewWithTransactionFn()
	}

	return m, nil
}

// WithAtomic mock.
func (m *RepositoryManager) WithAtomic(operation func() (interface{}, error)) (interface{}, error) {
	m.Calls.WithAtomic++
	if m.WithAtomicFn != nil {
		return m.WithAtomicFn()
	}
	return operation()
}

// User mock.
func (m *RepositoryManager) User() auth.UserRepository {
	m.Calls.User++
	if m.UserFn != nil {
		return m.UserFn()
	}
	return &UserRepository{}
}

// OTP mock.
func (m *RepositoryManager) OTP() auth.OTPRepository {
	m.Calls.OTP++
	if m.OTPFn != nil {
		return m.OTPFn()
	}
	return &OTPRepository{}
}

// RefreshToken mock.
func (m *RepositoryManager) RefreshToken() auth.RefreshTokenRepository {
	m.Calls.RefreshToken++
	if m.RefreshTokenFn != nil {
		return m.RefreshTokenFn()
	}
	return &RefreshTokenRepository{}
}

// Session mock.
func (m *RepositoryManager) Session() auth.SessionRepository {
	m.Calls.Session++
	if m.SessionFn != nil {
		return m.SessionFn()
	}
	return &SessionRepository{}
}

// UserRepository mocks auth.UserRepository.
type UserRepository struct {
	ByIDFn             func() (*auth.User, error)
	ByEmailFn          func() (*auth.User, error)
	ByPhoneFn          func() (*auth.User, error)
	GetForUpdateFn     func() (*auth.User, error)
	CreateFn           func() error
	UpdateFn           func() error
	AttachProviderFn   func() error
	UpdateCredentialFn func() error
	Calls              struct {
		ByID             int
		ByEmail          int
		ByPhone          int
		GetForUpdate     int
		Create           int
		Update           int
		AttachProvider   int
		UpdateCredential int
	}
}

// ByID mock.
func (m *UserRepository) ByID(ctx context.Context, userID string) (*auth.User, error) {
	m.Calls.ByID++
	if m.ByIDFn != nil {
		return m.ByIDFn()
	}
	return &auth.User{}, nil
}

// ByEmail mock.
func (m *UserRepository) ByEmail(ctx context.Context, email string) (*auth.User, error) {
	m.Calls.ByEmail++
	if m.ByEmailFn != nil {
		return m.ByEmailFn()
	}
	return &auth.User{}, nil
}

// ByPhone mock.
func (m *UserRepository) ByPhone(ctx context.Context, phone string) (*auth.User, error) {
	m.Calls.ByPhone++
	if m.ByPhoneFn != nil {
		return m.ByPhoneFn()
	}
	return &auth.User{}, nil
}

// GetForUpdate mock.
func (m *UserRepository) GetForUpdate(ctx context.Context, userID string) (*auth.User, error) {
	m.Calls.GetForUpdate++
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn()
	}
	return &auth.User{}, nil
}

// Create mock.
func (m *UserRepository) Create(ctx context.Context, u *auth.User) error {
	m.Calls.Create++
	if m.CreateFn != nil {
		return m.CreateFn()
	}
	return nil
}

// Update mock.
func (m *UserRepository) Update(ctx context.Context, u *auth.User) error {
	m.Calls.Update++
	if m.UpdateFn != nil {
		return m.UpdateFn()
	}
	return nil
}

// AttachProvider mock.
func (m *UserRepository) AttachProvider(ctx context.Context, userID, provider string) error {
	m.Calls.AttachProvider++
	if m.AttachProviderFn != nil {
		return m.AttachProviderFn()
	}
	return nil
}

// UpdateCredential mock.
func (m *UserRepository) UpdateCredential(ctx context.Context, userID string, credentialID, publicKey []byte, signCount uint32) error {
	m.Calls.UpdateCredential++
	if m.UpdateCredentialFn != nil {
		return m.UpdateCredentialFn()
	}
	return nil
}

// OTPRepository mocks auth.OTPRepository.
type OTPRepository struct {
	CreateFn       func() error
	LatestFn       func() (*auth.OTPCode, error)
	GetForUpdateFn func() (*auth.OTPCode, error)
	UpdateFn       func() error
	ExpireActiveFn func() error
	ExpireStaleFn  func() error
	Calls          struct {
		Create       int
		Latest       int
		GetForUpdate int
		Update       int
		ExpireActive int
		ExpireStale  int
	}
}

// Create mock.
func (m *OTPRepository) Create(ctx context.Context, c *auth.OTPCode) error {
	m.Calls.Create++
	if m.CreateFn != nil {
		return m.CreateFn()
	}
	return nil
}

// Latest mock.
func (m *OTPRepository) Latest(ctx context.Context, userID string, purpose auth.OTPPurpose) (*auth.OTPCode, error) {
	m.Calls.Latest++
	if m.LatestFn != nil {
		return m.LatestFn()
	}
	return &auth.OTPCode{}, nil
}

// GetForUpdate mock.
func (m *OTPRepository) GetForUpdate(ctx context.Context, codeID string) (*auth.OTPCode, error) {
	m.Calls.GetForUpdate++
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn()
	}
	return &auth.OTPCode{}, nil
}

// Update mock.
func (m *OTPRepository) Update(ctx context.Context, c *auth.OTPCode) error {
	m.Calls.Update++
	if m.UpdateFn != nil {
		return m.UpdateFn()
	}
	return nil
}

// ExpireActive mock.
func (m *OTPRepository) ExpireActive(ctx context.Context, userID string, purpose auth.OTPPurpose) error {
	m.Calls.ExpireActive++
	if m.ExpireActiveFn != nil {
		return m.ExpireActiveFn()
	}
	return nil
}

// ExpireStale mock.
func (m *OTPRepository) ExpireStale(ctx context.Context, userID string) error {
	m.Calls.ExpireStale++
	if m.ExpireStaleFn != nil {
		return m.ExpireStaleFn()
	}
	return nil
}

// RefreshTokenRepository mocks auth.RefreshTokenRepository.
type RefreshTokenRepository struct {
	CreateFn       func() error
	LatestFn       func() (*auth.RefreshToken, error)
	RevokeActiveFn func() error
	Calls          struct {
		Create       int
		Latest       int
		RevokeActive int
	}
}

// Create mock.
func (m *RefreshTokenRepository) Create(ctx context.Context, t *auth.RefreshToken) error {
	m.Calls.Create++
	if m.CreateFn != nil {
		return m.CreateFn()
	}
	return nil
}

// Latest mock.
func (m *RefreshTokenRepository) Latest(ctx context.Context, userID string) (*auth.RefreshToken, error) {
	m.Calls.Latest++
	if m.LatestFn != nil {
		return m.LatestFn()
	}
	return &auth.RefreshToken{}, nil
}

// RevokeActive mock.
func (m *RefreshTokenRepository) RevokeActive(ctx context.Context, userID string) error {
	m.Calls.RevokeActive++
	if m.RevokeActiveFn != nil {
		return m.RevokeActiveFn()
	}
	return nil
}

// SessionRepository mocks auth.SessionRepository.
type SessionRepository struct {
	CreateFn    func() error
	CloseOpenFn func() error
	Calls       struct {
		Create    int
		CloseOpen int
	}
}

// Create mock.
func (m *SessionRepository) Create(ctx context.Context, s *auth.Session) error {
	m.Calls.Create++
	if m.CreateFn != nil {
		return m.CreateFn()
	}
	return nil
}

// CloseOpen mock.
func (m *SessionRepository) CloseOpen(ctx context.Context, userID string) error {
	m.Calls.CloseOpen++
	if m.CloseOpenFn != nil {
		return m.CloseOpenFn()
	}
	return nil
}

// PasswordService mocks auth.PasswordService.
type PasswordService struct {
	HashFn      func() ([]byte, error)
	ValidateFn  func() error
	OKForUserFn func() error
	Calls       struct {
		Hash      int
		Validate  int
		OKForUser int
	}
}

// Hash mock.
func (m *PasswordService) Hash(password string) ([]byte, error) {
	m.Calls.Hash++
	if m.HashFn != nil {
		return m.HashFn()
	}
	return []byte("hashed-password"), nil
}

// Validate mock.
func (m *PasswordService) Validate(user *auth.User, password string) error {
	m.Calls.Validate++
	if m.ValidateFn != nil {
		return m.ValidateFn()
	}
	return nil
}

// OKForUser mock.
func (m *PasswordService) OKForUser(password string) error {
	m.Calls.OKForUser++
	if m.OKForUserFn != nil {
		return m.OKForUserFn()
	}
	return nil
}

// Hasher mocks auth.Hasher.
type Hasher struct {
	HashSecretFn   func() (string, error)
	VerifySecretFn func() bool
	Calls          struct {
		HashSecret   int
		VerifySecret int
	}
}

// HashSecret mock.
func (m *Hasher) HashSecret(secret string) (string, error) {
	m.Calls.HashSecret++
	if m.HashSecretFn != nil {
		return m.HashSecretFn()
	}
	return "hashed-secret", nil
}

// VerifySecret mock.
func (m *Hasher) VerifySecret(secret, digest string) bool {
	m.Calls.VerifySecret++
	if m.VerifySecretFn != nil {
		return m.VerifySecretFn()
	}
	return true
}

// OTPService mocks auth.OTPService.
type OTPService struct {
	IssueFn  func() (string, error)
	VerifyFn func() error
	Calls    struct {
		Issue  int
		Verify int
	}
}

// Issue mock.
func (m *OTPService) Issue(ctx context.Context, userID string, purpose auth.OTPPurpose) (string, error) {
	m.Calls.Issue++
	if m.IssueFn != nil {
		return m.IssueFn()
	}
	return "123456", nil
}

// Verify mock.
func (m *OTPService) Verify(ctx context.Context, userID string, purpose auth.OTPPurpose, code string) error {
	m.Calls.Verify++
	if m.VerifyFn != nil {
		return m.VerifyFn()
	}
	return nil
}

// RefreshService mocks auth.RefreshService.
type RefreshService struct {
	IssueFn    func() (string, error)
	ValidateFn func() bool
	RevokeFn   func() error
	Calls      struct {
		Issue    int
		Validate int
		Revoke   int
	}
}

// Issue mock.
func (m *RefreshService) Issue(ctx context.Context, userID string) (string, error) {
	m.Calls.Issue++
	if m.IssueFn != nil {
		return m.IssueFn()
	}
	return "refresh-token", nil
}

// Validate mock.
func (m *RefreshService) Validate(ctx context.Context, userID, token string) bool {
	m.Calls.Validate++
	if m.ValidateFn != nil {
		return m.ValidateFn()
	}
	return true
}

// Revoke mock.
func (m *RefreshService) Revoke(ctx context.Context, userID string) error {
	m.Calls.Revoke++
	if m.RevokeFn != nil {
		return m.RevokeFn()
	}
	return nil
}

// SessionService mocks auth.SessionService.
type SessionService struct {
	OpenFn  func()
	CloseFn func() error
	Calls   struct {
		Open  int
		Close int
	}
}

// Open mock.
func (m *SessionService) Open(ctx context.Context, userID, accessToken, ipAddress string) {
	m.Calls.Open++
	if m.OpenFn != nil {
		m.OpenFn()
	}
}

// Close mock.
func (m *SessionService) Close(ctx context.Context, userID string) error {
	m.Calls.Close++
	if m.CloseFn != nil {
		return m.CloseFn()
	}
	return nil
}

// TokenService mocks auth.TokenService.
type TokenService struct {
	CreateFn   func() (*auth.Token, error)
	SignFn     func() (string, error)
	ValidateFn func() (*auth.Token, error)
	Calls      struct {
		Create   int
		Sign     int
		Validate int
	}
}

// Create mock.
func (m *TokenService) Create(ctx context.Context, user *auth.User, state auth.TokenState) (*auth.Token, error) {
	m.Calls.Create++
	if m.CreateFn != nil {
		return m.CreateFn()
	}
	return &auth.Token{UserID: user.ID, Email: user.Email, State: state}, nil
}

// Sign mock.
func (m *TokenService) Sign(ctx context.Context, token *auth.Token) (string, error) {
	m.Calls.Sign++
	if m.SignFn != nil {
		return m.SignFn()
	}
	return "signed-token", nil
}

// Validate mock.
func (m *TokenService) Validate(ctx context.Context, signedToken string) (*auth.Token, error) {
	m.Calls.Validate++
	if m.ValidateFn != nil {
		return m.ValidateFn()
	}
	return nil, errors.New("token is not valid")
}

// WebAuthnService mocks auth.WebAuthnService.
type WebAuthnService struct {
	BeginSignUpFn  func() ([]byte, error)
	FinishSignUpFn func() (*auth.User, error)
	BeginLoginFn   func() ([]byte, error)
	FinishLoginFn  func() error
	Calls          struct {
		BeginSignUp  int
		FinishSignUp int
		BeginLogin   int
		FinishLogin  int
	}
}

// BeginSignUp mock.
func (m *WebAuthnService) BeginSignUp(ctx context.Context, user *auth.User) ([]byte, error) {
	m.Calls.BeginSignUp++
	if m.BeginSignUpFn != nil {
		return m.BeginSignUpFn()
	}
	return []byte(`{"publicKey": {}}`), nil
}

// FinishSignUp mock.
func (m *WebAuthnService) FinishSignUp(ctx context.Context, user *auth.User, r *http.Request) (*auth.User, error) {
	m.Calls.FinishSignUp++
	if m.FinishSignUpFn != nil {
		return m.FinishSignUpFn()
	}
	return user, nil
}

// BeginLogin mock.
func (m *WebAuthnService) BeginLogin(ctx context.Context, user *auth.User) ([]byte, error) {
	m.Calls.BeginLogin++
	if m.BeginLoginFn != nil {
		return m.BeginLoginFn()
	}
	return []byte(`{"publicKey": {}}`), nil
}

// FinishLogin mock.
func (m *WebAuthnService) FinishLogin(ctx context.Context, user *auth.User, r *http.Request) error {
	m.Calls.FinishLogin++
	if m.FinishLoginFn != nil {
		return m.FinishLoginFn()
	}
	return nil
}

// OAuthService mocks auth.OAuthService.
type OAuthService struct {
	ResolveFn func() (*auth.User, error)
	Calls     struct {
		Resolve int
	}
}

// Resolve mock.
func (m *OAuthService) Resolve(ctx context.Context, profile *auth.OAuthProfile) (*auth.User, error) {
	m.Calls.Resolve++
	if m.ResolveFn != nil {
		return m.ResolveFn()
	}
	return &auth.User{}, nil
}

// MessagingService mocks auth.MessagingService.
type MessagingService struct {
	SendFn func() error
	Calls  struct {
		Send int
	}
}

// Send mock.
func (m *MessagingService) Send(ctx context.Context, content, address string, method auth.DeliveryMethod) error {
	m.Calls.Send++
	if m.SendFn != nil {
		return m.SendFn()
	}
	return nil
}

// WebAuthnLib mocks the duo-labs/webauthn third party library.
type WebAuthnLib struct {
	BeginRegistrationFn  func() (*webauthnProto.CredentialCreation, *webauthnLib.SessionData, error)
	FinishRegistrationFn func() (*webauthnLib.Credential, error)
	BeginLoginFn         func() (*webauthnProto.CredentialAssertion, *webauthnLib.SessionData, error)
	FinishLoginFn        func() (*webauthnLib.Credential, error)
	Calls                struct {
		BeginRegistration  int
		FinishRegistration int
		BeginLogin         int
		FinishLogin        int
	}
}

// BeginRegistration mock.
func (m *WebAuthnLib) BeginRegistration(user webauthnLib.User, opts ...webauthnLib.RegistrationOption) (*webauthnProto.CredentialCreation, *webauthnLib.SessionData, error) {
	m.Calls.BeginRegistration++
	if m.BeginRegistrationFn != nil {
		return m.BeginRegistrationFn()
	}
	return nil, nil, errors.New("failed to begin registration")
}

// FinishRegistration mock.
func (m *WebAuthnLib) FinishRegistration(user webauthnLib.User, session webauthnLib.SessionData, r *http.Request) (*webauthnLib.Credential, error) {
	m.Calls.FinishRegistration++
	if m.FinishRegistrationFn != nil {
		return m.FinishRegistrationFn()
	}
	return nil, errors.New("failed to finish registration")
}

// BeginLogin mock.
func (m *WebAuthnLib) BeginLogin(user webauthnLib.User, opts ...webauthnLib.LoginOption) (*webauthnProto.CredentialAssertion, *webauthnLib.SessionData, error) {
	m.Calls.BeginLogin++
	if m.BeginLoginFn != nil {
		return m.BeginLoginFn()
	}
	return nil, nil, errors.New("failed to begin login")
}

// FinishLogin mock.
func (m *WebAuthnLib) FinishLogin(user webauthnLib.User, session webauthnLib.SessionData, r *http.Request) (*webauthnLib.Credential, error) {
	m.Calls.FinishLogin++
	if m.FinishLoginFn != nil {
		return m.FinishLoginFn()
	}
	return nil, errors.New("failed to finish login")
}
