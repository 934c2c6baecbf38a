package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	auth "github.com/guardianauth/guardian"
)

// Password is a credential validator for password authentication and
// the hashing primitive for short secrets stored at rest.
type Password struct {
	// cost is the bcrypt hash repetition. Higher cost results
	// in slower computations.
	cost int
	// minLength is the minimum length of a password.
	minLength int
	// maxLength is the maximum length of a password.
	// We enforce a maximum length to mitigate DOS attacks.
	maxLength int
}

// Hash hashes a password for storage.
func (p *Password) Hash(password string) ([]byte, error) {
	// bcrypt will manage its own salt
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return []byte(""), err
	}

	return hash, nil
}

// Validate validates if a submitted password is valid for a
// stored password hash. Accounts without a password (OAuth or pure
// biometric registrations) never validate.
func (p *Password) Validate(user *auth.User, password string) error {
	if !user.Password.Valid || user.Password.String == "" {
		return auth.ErrInvalidCredential("password login is not enabled")
	}

	err := bcrypt.CompareHashAndPassword(
		[]byte(user.Password.String), []byte(password),
	)
	if err != nil {
		return auth.ErrInvalidCredential("incorrect password provided")
	}

	return nil
}

// OKForUser tells us if a password meets minimum requirements to
// be set for any users.
func (p *Password) OKForUser(password string) error {
	if len(password) < p.minLength {
		return auth.ErrInvalidField(fmt.Sprintf(
			"password must be at least %d characters long", p.minLength,
		))
	}

	if len(password) > p.maxLength {
		return auth.ErrInvalidField(fmt.Sprintf(
			"password cannot be longer than %d characters", p.maxLength,
		))
	}

	return nil
}

// HashSecret hashes a short secret, such as a one-time code or a
// refresh token, for storage.
func (p *Password) HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), p.cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifySecret reports if a candidate secret matches a stored digest.
// Comparison time is fixed by the underlying bcrypt implementation.
func (p *Password) VerifySecret(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
