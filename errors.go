package guardian

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

const (
	// EInvalidField represents a missing or malformed request field.
	// Validation errors are detected before any state mutation.
	EInvalidField ErrCode = "invalid_field"
	// EConflict represents a uniqueness violation on an account
	// attribute such as an email address or phone number.
	EConflict ErrCode = "conflict"
	// EInvalidCredential represents a failed credential check. The
	// message is intentionally generic so callers cannot distinguish
	// a wrong code from an expired one.
	EInvalidCredential ErrCode = "invalid_credential"
	// ENotFound represents a missing account, credential or token row.
	ENotFound ErrCode = "not_found"
	// EReplay represents a WebAuthn sign counter regression, a signal
	// of a possibly cloned authenticator.
	EReplay ErrCode = "replay"
	// EInvalidToken represents an invalid JWT token error.
	EInvalidToken ErrCode = "invalid_token"
	// EThrottle represents a rate limited request.
	EThrottle ErrCode = "throttled"
	// EInternal represents an internal error outside of our domain.
	EInternal ErrCode = "internal"
)

// Error represents an error within the guardian domain.
type Error interface {
	Error() string
	Message() string
	Code() ErrCode
}

// ErrCode is a machine readable code representing
// an error within the guardian domain.
type ErrCode string

// ErrInvalidField represents an error related to missing or invalid
// fields on a request or entity.
type ErrInvalidField string

func (e ErrInvalidField) Code() ErrCode   { return EInvalidField }
func (e ErrInvalidField) Message() string { return string(e) }
func (e ErrInvalidField) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }

// ErrConflict represents a uniqueness violation detected before or
// during an insert.
type ErrConflict string

func (e ErrConflict) Code() ErrCode   { return EConflict }
func (e ErrConflict) Message() string { return string(e) }
func (e ErrConflict) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }

// ErrInvalidCredential represents a failed password, OTP code, refresh
// token or signature check.
type ErrInvalidCredential string

func (e ErrInvalidCredential) Code() ErrCode   { return EInvalidCredential }
func (e ErrInvalidCredential) Message() string { return string(e) }
func (e ErrInvalidCredential) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code(), string(e))
}

// ErrNotFound represents a missing entity.
type ErrNotFound string

func (e ErrNotFound) Code() ErrCode   { return ENotFound }
func (e ErrNotFound) Message() string { return string(e) }
func (e ErrNotFound) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }

// ErrReplay represents a WebAuthn assertion whose sign counter did not
// advance past the stored value.
type ErrReplay string

func (e ErrReplay) Code() ErrCode   { return EReplay }
func (e ErrReplay) Message() string { return string(e) }
func (e ErrReplay) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }

// ErrInvalidToken represents an error related to JWT token invalidation
// such as expiry, revocation, or signing errors.
type ErrInvalidToken string

func (e ErrInvalidToken) Code() ErrCode   { return EInvalidToken }
func (e ErrInvalidToken) Message() string { return string(e) }
func (e ErrInvalidToken) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }

// ErrThrottle represents a rate limited request.
type ErrThrottle string

func (e ErrThrottle) Code() ErrCode   { return EThrottle }
func (e ErrThrottle) Message() string { return string(e) }
func (e ErrThrottle) Error() string   { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }

// DomainError returns a domain error if available.
func DomainError(err error) Error {
	if err == nil {
		return nil
	}

	if e, ok := err.(Error); ok {
		return e
	}

	if e, ok := errors.Cause(err).(Error); ok {
		return e
	}

	var e Error
	if stderrors.As(err, &e) {
		return e
	}

	return nil
}

// ErrorCode returns the code associated with a domain error.
// If an error is not part of the guardian domain, it
// returns EInternal.
func ErrorCode(err error) ErrCode {
	if err == nil {
		return ErrCode("")
	}

	e := DomainError(err)
	if e == nil {
		return EInternal
	}

	return e.Code()
}
