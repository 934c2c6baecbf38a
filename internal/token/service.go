// Package token manages JWT access tokens.
package token

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-kit/kit/log"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	auth "github.com/guardianauth/guardian"
)

// service is an implementation of auth.TokenService.
type service struct {
	logger      log.Logger
	tokenExpiry time.Duration
	entropy     ulid.MonotonicReader
	secret      []byte
	issuer      string
}

// Create creates a new, unsigned JWT token for a User. Tokens issued
// after the first factor of a multi-step login carry a pre-authorized
// state and only grant access to the remaining verification steps.
func (s *service) Create(ctx context.Context, user *auth.User, state auth.TokenState) (*auth.Token, error) {
	tokenULID, err := ulid.New(ulid.Now(), s.entropy)
	if err != nil {
		return nil, errors.Wrap(err, "cannot generate unique token ID")
	}

	token := auth.Token{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(s.tokenExpiry).Unix(),
			IssuedAt:  time.Now().Unix(),
			Id:        tokenULID.String(),
			Issuer:    s.issuer,
		},
		UserID: user.ID,
		Email:  user.Email,
		State:  state,
	}

	return &token, nil
}

// Sign creates a signed JWT token string from a token struct.
func (s *service) Sign(ctx context.Context, token *auth.Token) (string, error) {
	jwtUnsigned := jwt.NewWithClaims(jwt.SigningMethodHS512, token)
	jwtSigned, err := jwtUnsigned.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign JWT token")
	}

	return jwtSigned, nil
}

// Validate checks that a JWT token is signed by us and unexpired.
// On success it returns the unpacked Token struct.
func (s *service) Validate(ctx context.Context, signedToken string) (*auth.Token, error) {
	if !strings.HasPrefix(signedToken, "Bearer ") {
		return nil, auth.ErrInvalidToken("bearer token expected")
	}

	tokenParser := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}

		return s.secret, nil
	}

	signedToken = strings.TrimPrefix(signedToken, "Bearer ")
	unpackedToken, err := jwt.Parse(signedToken, tokenParser)
	if err != nil {
		return nil, errors.Wrap(auth.ErrInvalidToken("token is invalid"), err.Error())
	}

	claims, ok := unpackedToken.Claims.(jwt.MapClaims)
	if !ok || !unpackedToken.Valid {
		return nil, auth.ErrInvalidToken("token claims unavailable")
	}

	var token auth.Token
	{
		b, err := json.Marshal(claims)
		if err != nil {
			return nil, errors.Wrap(err, "cannot marshal token to JSON")
		}

		err = json.Unmarshal(b, &token)
		if err != nil {
			return nil, errors.Wrap(err, "cannot unmarshal token to struct")
		}
	}

	return &token, nil
}
