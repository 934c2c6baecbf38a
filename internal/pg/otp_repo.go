package pg

import (
	"context"
	"database/sql"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	auth "github.com/guardianauth/guardian"
)

// OTPRepository is an implementation of auth.OTPRepository.
type OTPRepository struct {
	client *Client
}

// Create persists a new one-time code.
func (r *OTPRepository) Create(ctx context.Context, code *auth.OTPCode) error {
	codeID, err := ulid.New(ulid.Now(), r.client.entropy)
	if err != nil {
		return errors.Wrap(err, "cannot generate unique code ID")
	}

	code.ID = codeID.String()
	row := r.client.queryRowContext(
		ctx,
		r.client.otpQ["insert"],
		code.ID,
		code.UserID,
		code.CodeHash,
		code.Purpose,
		code.Status,
		code.ExpiresAt,
	)
	return row.Scan(&code.IssuedAt)
}

// Latest retrieves the most recently issued Active code for a
// (User, purpose) pair.
func (r *OTPRepository) Latest(ctx context.Context, userID string, purpose auth.OTPPurpose) (*auth.OTPCode, error) {
	row := r.client.queryRowContext(ctx, r.client.otpQ["latest"], userID, purpose)
	return scanOTPCode(row)
}

// GetForUpdate retrieves a code to be updated.
func (r *OTPRepository) GetForUpdate(ctx context.Context, codeID string) (*auth.OTPCode, error) {
	row := r.client.queryRowContext(ctx, r.client.otpQ["forUpdate"], codeID)
	return scanOTPCode(row)
}

// Update updates a code's status in storage.
func (r *OTPRepository) Update(ctx context.Context, code *auth.OTPCode) error {
	res, err := r.client.execContext(
		ctx,
		r.client.otpQ["update"],
		code.ID,
		code.Status,
	)
	if err != nil {
		return err
	}

	return expectSingleRow(res)
}

// ExpireActive marks every Active code for a (User, purpose) pair as
// Expired. New issuance supersedes prior codes through this call.
func (r *OTPRepository) ExpireActive(ctx context.Context, userID string, purpose auth.OTPPurpose) error {
	_, err := r.client.execContext(ctx, r.client.otpQ["expireActive"], userID, purpose)
	return err
}

// ExpireStale marks Active codes past their expiry timestamp as
// Expired.
func (r *OTPRepository) ExpireStale(ctx context.Context, userID string) error {
	_, err := r.client.execContext(ctx, r.client.otpQ["expireStale"], userID)
	return err
}

func scanOTPCode(row *sql.Row) (*auth.OTPCode, error) {
	var code auth.OTPCode
	err := row.Scan(
		&code.ID, &code.UserID, &code.CodeHash, &code.Purpose,
		&code.Status, &code.IssuedAt, &code.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	return &code, nil
}
