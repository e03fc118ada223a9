package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestTokenMaker(t *testing.T) *TokenMaker {
	t.Helper()
	maker, err := NewTokenMaker(testKey)
	require.NoError(t, err)
	return maker
}

func TestNewTokenMaker_KeyLength(t *testing.T) {
	t.Parallel()

	_, err := NewTokenMaker([]byte("too-short"))
	require.Error(t, err)
}

func TestSessionToken_Roundtrip(t *testing.T) {
	t.Parallel()

	maker := newTestTokenMaker(t)
	userID := uuid.New()

	tok, err := maker.IssueSessionToken(userID, time.Hour)
	require.NoError(t, err)

	got, err := maker.VerifySessionToken(tok)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestSessionToken_Expired(t *testing.T) {
	t.Parallel()

	maker := newTestTokenMaker(t)

	tok, err := maker.IssueSessionToken(uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = maker.VerifySessionToken(tok)
	require.Error(t, err)
}

func TestResetToken_Roundtrip(t *testing.T) {
	t.Parallel()

	maker := newTestTokenMaker(t)

	tok, err := maker.IssueResetToken("ann@x.com", time.Hour)
	require.NoError(t, err)

	email, err := maker.VerifyResetToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", email)
}

func TestTokens_CrossPurposeRejected(t *testing.T) {
	t.Parallel()

	maker := newTestTokenMaker(t)

	sessionTok, err := maker.IssueSessionToken(uuid.New(), time.Hour)
	require.NoError(t, err)
	resetTok, err := maker.IssueResetToken("ann@x.com", time.Hour)
	require.NoError(t, err)

	_, err = maker.VerifyResetToken(sessionTok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = maker.VerifySessionToken(resetTok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_WrongKeyRejected(t *testing.T) {
	t.Parallel()

	maker := newTestTokenMaker(t)
	other, err := NewTokenMaker([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)

	tok, err := maker.IssueSessionToken(uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = other.VerifySessionToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_MalformedRejected(t *testing.T) {
	t.Parallel()

	maker := newTestTokenMaker(t)

	_, err := maker.VerifySessionToken("not.a.paseto.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = maker.VerifyResetToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
