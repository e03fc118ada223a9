package auth

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userhub/internal/avatar"
	"userhub/internal/user"
)

func TestRegister_Success(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	created, err := env.service.Register(context.Background(), registerInputFixture(t))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "Ann", created.FirstName)
	assert.Equal(t, user.GenderFemale, created.Gender)
	assert.NotEqual(t, "secret1", created.PasswordHash, "plaintext password must never be stored")
	assert.True(t, VerifyPassword("secret1", created.PasswordHash))

	// Stored avatar is normalized to 200x200.
	img, _, err := image.Decode(bytes.NewReader(created.Avatar))
	require.NoError(t, err)
	assert.Equal(t, avatar.Side, img.Bounds().Dx())
	assert.Equal(t, avatar.Side, img.Bounds().Dy())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.service.Register(context.Background(), registerInputFixture(t))
	require.NoError(t, err)

	_, err = env.service.Register(context.Background(), registerInputFixture(t))
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)

	users, err := env.repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1, "a failed duplicate registration must leave no second record")
}

func TestRegister_MissingAvatar(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	input := registerInputFixture(t)
	input.Avatar = nil

	_, err := env.service.Register(context.Background(), input)
	assert.ErrorIs(t, err, ErrAvatarRequired)

	users, err := env.repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	cases := []struct {
		name    string
		mutate  func(*RegisterInput)
		wantErr error
	}{
		{"empty email", func(in *RegisterInput) { in.Email = "" }, ErrEmailRequired},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, ErrInvalidEmailFormat},
		{"empty password", func(in *RegisterInput) { in.Password = "" }, ErrPasswordRequired},
		{"short password", func(in *RegisterInput) { in.Password = "12345" }, ErrPasswordTooShort},
		{"bad gender", func(in *RegisterInput) { in.Gender = "Unknown" }, ErrInvalidGender},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := registerInputFixture(t)
			tc.mutate(&input)

			_, err := env.service.Register(context.Background(), input)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	created, err := env.service.Register(context.Background(), registerInputFixture(t))
	require.NoError(t, err)

	token, err := env.service.Login(context.Background(), "ann@x.com", "secret1")
	require.NoError(t, err)

	userID, err := env.tokens.VerifySessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, userID)
}

func TestLogin_UserNotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.service.Login(context.Background(), "missing@x.com", "secret1")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.service.Register(context.Background(), registerInputFixture(t))
	require.NoError(t, err)

	_, err = env.service.Login(context.Background(), "ann@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetUser_GoneAfterTokenIssued(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.service.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestForgotPassword_SendsResetToken(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.service.Register(context.Background(), registerInputFixture(t))
	require.NoError(t, err)

	require.NoError(t, env.service.ForgotPassword(context.Background(), "ann@x.com"))

	mail := env.mailer.lastSent(t)
	assert.Equal(t, "ann@x.com", mail.to)

	email, err := env.tokens.VerifyResetToken(mail.token)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", email)
}

func TestForgotPassword_UserNotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	err := env.service.ForgotPassword(context.Background(), "missing@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, env.mailer.sent)
}

func TestForgotPassword_MailFailureSurfaces(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.mailer.sendErr = errors.New("smtp unreachable")

	_, err := env.service.Register(context.Background(), registerInputFixture(t))
	require.NoError(t, err)

	err = env.service.ForgotPassword(context.Background(), "ann@x.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}

func TestResetPassword_Roundtrip(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.service.Register(context.Background(), registerInputFixture(t))
	require.NoError(t, err)

	require.NoError(t, env.service.ForgotPassword(context.Background(), "ann@x.com"))
	token := env.mailer.lastSent(t).token

	require.NoError(t, env.service.ResetPassword(context.Background(), token, "newsecret"))

	// New password works, old one does not.
	_, err = env.service.Login(context.Background(), "ann@x.com", "newsecret")
	require.NoError(t, err)
	_, err = env.service.Login(context.Background(), "ann@x.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResetPassword_TokenRemainsValidUntilExpiry(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.service.Register(context.Background(), registerInputFixture(t))
	require.NoError(t, err)

	require.NoError(t, env.service.ForgotPassword(context.Background(), "ann@x.com"))
	token := env.mailer.lastSent(t).token

	// Reset tokens are stateless and are not consumed on first use.
	require.NoError(t, env.service.ResetPassword(context.Background(), token, "first-new"))
	require.NoError(t, env.service.ResetPassword(context.Background(), token, "second-new"))

	_, err = env.service.Login(context.Background(), "ann@x.com", "second-new")
	require.NoError(t, err)
}

func TestResetPassword_RejectsSessionToken(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.service.Register(context.Background(), registerInputFixture(t))
	require.NoError(t, err)

	sessionTok, err := env.service.Login(context.Background(), "ann@x.com", "secret1")
	require.NoError(t, err)

	err = env.service.ResetPassword(context.Background(), sessionTok, "newsecret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.service.Register(context.Background(), registerInputFixture(t))
	require.NoError(t, err)

	expired, err := env.tokens.IssueResetToken("ann@x.com", -time.Minute)
	require.NoError(t, err)

	err = env.service.ResetPassword(context.Background(), expired, "newsecret")
	require.Error(t, err)
}

func TestResetPassword_ShortPassword(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.service.Register(context.Background(), registerInputFixture(t))
	require.NoError(t, err)

	require.NoError(t, env.service.ForgotPassword(context.Background(), "ann@x.com"))
	token := env.mailer.lastSent(t).token

	err = env.service.ResetPassword(context.Background(), token, "12345")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}
