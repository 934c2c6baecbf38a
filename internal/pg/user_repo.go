package pg

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	auth "github.com/guardianauth/guardian"
	"github.com/guardianauth/guardian/internal/contactchecker"
)

// uniqueViolation is the pq error code for violated unique constraints.
const uniqueViolation = "23505"

// UserRepository is an implementation of auth.UserRepository.
type UserRepository struct {
	client *Client
}

// ByID retrieves a User by their unique ID.
func (r *UserRepository) ByID(ctx context.Context, userID string) (*auth.User, error) {
	row := r.client.queryRowContext(ctx, r.client.userQ["byID"], userID)
	return scanUser(row)
}

// ByEmail retrieves a User by their email address. Lookups are done
// on the normalized address.
func (r *UserRepository) ByEmail(ctx context.Context, email string) (*auth.User, error) {
	email = contactchecker.NormalizeEmail(email)
	row := r.client.queryRowContext(ctx, r.client.userQ["byEmail"], email)
	return scanUser(row)
}

// ByPhone retrieves a User by their phone number. Phone numbers are
// compared as stored.
func (r *UserRepository) ByPhone(ctx context.Context, phone string) (*auth.User, error) {
	row := r.client.queryRowContext(ctx, r.client.userQ["byPhone"], phone)
	return scanUser(row)
}

// GetForUpdate retrieves a User to be updated.
func (r *UserRepository) GetForUpdate(ctx context.Context, userID string) (*auth.User, error) {
	row := r.client.queryRowContext(ctx, r.client.userQ["forUpdate"], userID)
	return scanUser(row)
}

// Create persists a new User to local storage. The email address,
// and phone number when present, must not yet be registered. Callers
// requiring serializability of the uniqueness check and insert must
// run Create inside a transaction.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	user.Email = contactchecker.NormalizeEmail(user.Email)

	if _, err := r.ByEmail(ctx, user.Email); err == nil {
		return auth.ErrConflict("email address is already registered")
	} else if err != sql.ErrNoRows {
		return err
	}

	if user.Phone.Valid {
		if _, err := r.ByPhone(ctx, user.Phone.String); err == nil {
			return auth.ErrConflict("phone number is already registered")
		} else if err != sql.ErrNoRows {
			return err
		}
	}

	userID, err := ulid.New(ulid.Now(), r.client.entropy)
	if err != nil {
		return errors.Wrap(err, "cannot generate unique user ID")
	}

	user.ID = userID.String()
	row := r.client.queryRowContext(
		ctx,
		r.client.userQ["insert"],
		user.ID,
		user.FirstName,
		user.LastName,
		user.SecondLastName,
		user.Email,
		user.Phone,
		user.Password,
		user.Method,
		user.OAuthProvider,
	)
	err = row.Scan(
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
		return auth.ErrConflict("email address or phone number is already registered")
	}
	return err
}

// Update updates a User in storage.
func (r *UserRepository) Update(ctx context.Context, user *auth.User) error {
	currentTime := time.Now().UTC()
	user.UpdatedAt = currentTime

	res, err := r.client.execContext(
		ctx,
		r.client.userQ["update"],
		user.ID,
		user.FirstName,
		user.LastName,
		user.SecondLastName,
		user.Email,
		user.Phone,
		user.Password,
		user.Method,
		user.OAuthProvider,
		user.CredentialID,
		user.PublicKey,
		user.SignCount,
		user.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return expectSingleRow(res)
}

// AttachProvider links a federated identity provider to a User. The
// link is write-once; attaching a provider to an already linked User
// leaves the original link untouched.
func (r *UserRepository) AttachProvider(ctx context.Context, userID, provider string) error {
	_, err := r.client.execContext(
		ctx,
		r.client.userQ["attachProvider"],
		userID,
		provider,
		time.Now().UTC(),
	)
	return err
}

// UpdateCredential persists the WebAuthn credential fields of a User.
func (r *UserRepository) UpdateCredential(ctx context.Context, userID string, credentialID, publicKey []byte, signCount uint32) error {
	res, err := r.client.execContext(
		ctx,
		r.client.userQ["updateCredential"],
		userID,
		credentialID,
		publicKey,
		signCount,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	return expectSingleRow(res)
}

func scanUser(row *sql.Row) (*auth.User, error) {
	var user auth.User
	err := row.Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.SecondLastName,
		&user.Email, &user.Phone, &user.Password, &user.Method,
		&user.OAuthProvider, &user.CredentialID, &user.PublicKey,
		&user.SignCount, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func expectSingleRow(res sql.Result) error {
	updatedRows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if updatedRows != 1 {
		return errors.Errorf("wrong number of rows updated: %d", updatedRows)
	}
	return nil
}
