// Package otp manages the lifecycle of one-time verification codes.
package otp

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	auth "github.com/guardianauth/guardian"
	"github.com/guardianauth/guardian/internal/crypto"
)

// service is an implementation of auth.OTPService.
type service struct {
	logger        log.Logger
	repoMngr      auth.RepositoryManager
	hasher        auth.Hasher
	codeExpiry    time.Duration
	smsCodeExpiry time.Duration
}

// Issue generates a random code for a User and persists its hash.
// Any code previously issued for the same purpose is expired in the
// same transaction, so only the newest code can ever verify.
func (s *service) Issue(ctx context.Context, userID string, purpose auth.OTPPurpose) (string, error) {
	code, err := crypto.OTPCode()
	if err != nil {
		return "", errors.Wrap(err, "cannot generate code")
	}

	hash, err := s.hasher.HashSecret(code)
	if err != nil {
		return "", errors.Wrap(err, "cannot hash code")
	}

	expiry := s.codeExpiry
	if purpose == auth.OTPSMS {
		expiry = s.smsCodeExpiry
	}

	client, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return "", err
	}

	_, err = client.WithAtomic(func() (interface{}, error) {
		if err := client.OTP().ExpireActive(ctx, userID, purpose); err != nil {
			return nil, err
		}

		otpCode := &auth.OTPCode{
			UserID:    userID,
			CodeHash:  hash,
			Purpose:   purpose,
			Status:    auth.OTPActive,
			ExpiresAt: time.Now().UTC().Add(expiry),
		}
		if err := client.OTP().Create(ctx, otpCode); err != nil {
			return nil, err
		}

		return otpCode, nil
	})
	if err != nil {
		return "", err
	}

	return code, nil
}

// Verify checks a submitted code against the newest Active code for
// a (User, purpose) pair. A matching code is consumed and cannot
// verify twice. A failed match leaves the stored code untouched.
func (s *service) Verify(ctx context.Context, userID string, purpose auth.OTPPurpose, code string) error {
	latest, err := s.repoMngr.OTP().Latest(ctx, userID, purpose)
	if err == sql.ErrNoRows {
		return auth.ErrNotFound("no code is awaiting verification")
	}
	if err != nil {
		return err
	}

	if time.Now().UTC().After(latest.ExpiresAt) {
		if err = s.markStatus(ctx, latest.ID, auth.OTPExpired); err != nil {
			level.Info(s.logger).Log(
				"source", "otp.Verify",
				"message", "failed to expire stale code",
				"error", err,
			)
		}
		return auth.ErrInvalidCredential("code is expired")
	}

	if !s.hasher.VerifySecret(code, latest.CodeHash) {
		return auth.ErrInvalidCredential("incorrect code provided")
	}

	return s.markStatus(ctx, latest.ID, auth.OTPUsed)
}

// markStatus transitions an Active code to a terminal status. Codes
// already consumed by a concurrent verification are rejected.
func (s *service) markStatus(ctx context.Context, codeID string, status auth.OTPStatus) error {
	client, err := s.repoMngr.NewWithTransaction(ctx)
	if err != nil {
		return err
	}

	_, err = client.WithAtomic(func() (interface{}, error) {
		otpCode, err := client.OTP().GetForUpdate(ctx, codeID)
		if err != nil {
			return nil, err
		}

		if otpCode.Status != auth.OTPActive {
			return nil, auth.ErrInvalidCredential("code is no longer active")
		}

		otpCode.Status = status
		if err = client.OTP().Update(ctx, otpCode); err != nil {
			return nil, err
		}

		return otpCode, nil
	})
	return err
}
