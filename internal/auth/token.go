package auth

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Token purposes. A token issued for one purpose never verifies under the
// other, even though both are encrypted with the same key.
const (
	purposeSession       = "session"
	purposePasswordReset = "password_reset"
)

const purposeClaim = "purpose"

// TokenMaker issues and verifies PASETO v4.local tokens for the two
// credential purposes: session authentication and password-reset
// authorization. Tokens are self-contained; nothing is stored server-side.
type TokenMaker struct {
	symmetricKey paseto.V4SymmetricKey
}

func NewTokenMaker(symmetricKey []byte) (*TokenMaker, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &TokenMaker{symmetricKey: key}, nil
}

// IssueSessionToken creates a session token carrying the user's ID.
func (m *TokenMaker) IssueSessionToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	token := m.newToken(purposeSession, ttl)
	token.SetString("user_id", userID.String())

	return token.V4Encrypt(m.symmetricKey, nil), nil
}

// IssueResetToken creates a password-reset token carrying the account email.
func (m *TokenMaker) IssueResetToken(email string, ttl time.Duration) (string, error) {
	token := m.newToken(purposePasswordReset, ttl)
	token.SetString("email", email)

	return token.V4Encrypt(m.symmetricKey, nil), nil
}

// VerifySessionToken validates a session token and returns the user ID it
// was issued for. Reset tokens fail with ErrInvalidToken.
func (m *TokenMaker) VerifySessionToken(tokenStr string) (uuid.UUID, error) {
	token, err := m.parse(tokenStr, purposeSession)
	if err != nil {
		return uuid.Nil, err
	}

	userIDStr, err := token.GetString("user_id")
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return userID, nil
}

// VerifyResetToken validates a password-reset token and returns the email it
// was issued for. Session tokens fail with ErrInvalidToken.
func (m *TokenMaker) VerifyResetToken(tokenStr string) (string, error) {
	token, err := m.parse(tokenStr, purposePasswordReset)
	if err != nil {
		return "", err
	}

	email, err := token.GetString("email")
	if err != nil {
		return "", ErrInvalidToken
	}

	return email, nil
}

func (m *TokenMaker) newToken(purpose string, ttl time.Duration) paseto.Token {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(ttl))
	token.SetString(purposeClaim, purpose)

	return token
}

func (m *TokenMaker) parse(tokenStr, wantPurpose string) (*paseto.Token, error) {
	parser := paseto.NewParser()

	token, err := parser.ParseV4Local(m.symmetricKey, tokenStr, nil)
	if err != nil {
		// The parser checks expiration by default; distinguish expired from invalid
		if errors.Is(err, &paseto.RuleError{}) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	purpose, err := token.GetString(purposeClaim)
	if err != nil || purpose != wantPurpose {
		return nil, ErrInvalidToken
	}

	return token, nil
}
