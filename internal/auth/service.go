package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"userhub/internal/avatar"
	"userhub/internal/logging"
	"userhub/internal/user"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrAvatarRequired     = errors.New("avatar is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrInvalidGender      = errors.New("gender must be Male, Female or Other")
)

// Service orchestrates the credential-lifecycle workflows: registration,
// login, session lookup, forgot-password and reset-password. Each operation
// is a single request/response transaction; a failure at any step aborts
// without side effects from later steps.
type Service struct {
	users      UserRepository
	tokens     *TokenMaker
	mailer     Mailer
	avatars    *avatar.Processor
	logger     *logging.Logger
	sessionTTL time.Duration
	resetTTL   time.Duration
}

func NewService(
	users UserRepository,
	tokens *TokenMaker,
	mailer Mailer,
	avatars *avatar.Processor,
	logger *logging.Logger,
	sessionTTL time.Duration,
	resetTTL time.Duration,
) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		mailer:     mailer,
		avatars:    avatars,
		logger:     logger,
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
	}
}

// RegisterInput carries the already-parsed registration fields.
type RegisterInput struct {
	FirstName string
	LastName  string
	Gender    user.Gender
	Email     string
	Password  string
	Avatar    []byte
}

// Register creates a new user account. The returned user carries the stored
// (resized) avatar; the password hash never leaves the model's json:"-" field.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*user.User, error) {
	if err := s.validateRegistration(input); err != nil {
		return nil, err
	}

	// Fast path for a friendly error; the unique index on email is the
	// authoritative guard under concurrency.
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, user.ErrDuplicateEmail
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	processedAvatar, err := s.avatars.Process(input.Avatar)
	if err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, &user.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Gender:       input.Gender,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Avatar:       processedAvatar,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// Login authenticates the credentials and issues a session token.
// A missing account and a wrong password are reported distinctly.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(password, existing.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.IssueSessionToken(existing.ID, s.sessionTTL)
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}

	return token, nil
}

// GetUser resolves the user behind a verified session token.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// ListUsers returns every registered user.
func (s *Service) ListUsers(ctx context.Context) ([]*user.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ForgotPassword issues a short-lived reset token for the account and mails
// a reset link to it. A missing account is reported to the caller, matching
// the original frontend contract.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := s.tokens.IssueResetToken(existing.Email, s.resetTTL)
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}

	if err := s.mailer.SendPasswordResetEmail(ctx, existing.Email, token); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	s.logger.Info("password reset email sent", "email", existing.Email)
	return nil
}

// ResetPassword verifies a reset token and replaces the account password.
// The token is not invalidated afterwards; it stays usable until expiry.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	email, err := s.tokens.VerifyResetToken(token)
	if err != nil {
		return err
	}

	if newPassword == "" {
		return ErrPasswordRequired
	}
	if len(newPassword) < 6 {
		return ErrPasswordTooShort
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, existing.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("password reset", "user_id", existing.ID)
	return nil
}

func (s *Service) validateRegistration(input RegisterInput) error {
	if input.Email == "" {
		return ErrEmailRequired
	}
	if len(input.Email) > 254 {
		return ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return ErrInvalidEmailFormat
	}
	if input.Password == "" {
		return ErrPasswordRequired
	}
	if len(input.Password) < 6 {
		return ErrPasswordTooShort
	}
	if !input.Gender.Valid() {
		return ErrInvalidGender
	}
	if len(input.Avatar) == 0 {
		return ErrAvatarRequired
	}
	return nil
}
