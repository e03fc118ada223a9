package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"userhub/internal/avatar"
	"userhub/internal/httputil"
	"userhub/internal/logging"
	"userhub/internal/user"
)

// validate is shared across handlers; validator instances cache struct metadata.
var validate = validator.New()

// Handler contains HTTP handlers for the user and authentication endpoints
type Handler struct {
	service        *Service
	logger         *logging.Logger
	maxAvatarBytes int64
}

func NewHandler(service *Service, logger *logging.Logger, maxAvatarBytes int64) *Handler {
	if maxAvatarBytes <= 0 {
		maxAvatarBytes = avatar.DefaultMaxBytes
	}
	return &Handler{
		service:        service,
		logger:         logger,
		maxAvatarBytes: maxAvatarBytes,
	}
}

// registerForm represents the multipart registration fields
type registerForm struct {
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Gender    string `validate:"required,oneof=Male Female Other"`
	Email     string `validate:"required,email"`
	Password  string `validate:"required,min=6"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest represents the password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents the password reset confirmation
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// UserResponse represents a user in API responses. The password hash is
// never part of it; the avatar travels as a data URI.
type UserResponse struct {
	ID        uuid.UUID   `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Gender    user.Gender `json:"gender"`
	Email     string      `json:"email"`
	Avatar    string      `json:"avatar,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// LoginResponse carries the issued session token.
type LoginResponse struct {
	Token string `json:"token"`
}

// MessageResponse is a plain acknowledgment.
type MessageResponse struct {
	Message string `json:"message"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Gender:    u.Gender,
		Email:     u.Email,
		Avatar:    avatar.DataURI(u.Avatar),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ListUsers handles the user listing
// @Summary      List users
// @Description  Return all registered users. Password hashes are never included.
// @Tags         users
// @Produce      json
// @Success      200 {object} map[string][]UserResponse
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/users/ [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		logger.Error("failed to list users", "error", err.Error())
		respondError(w, "failed to list users", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}

	respondJSON(w, map[string][]UserResponse{"users": out}, http.StatusOK)
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new user account from a multipart form with an avatar image.
// @Tags         auth
// @Accept       multipart/form-data
// @Produce      json
// @Param        firstName formData string true "First name"
// @Param        lastName  formData string true "Last name"
// @Param        gender    formData string true "Gender (Male, Female or Other)"
// @Param        email     formData string true "Email address"
// @Param        password  formData string true "Password (min 6 characters)"
// @Param        avatar    formData file   true "Avatar image (JPEG or PNG, max 5MB)"
// @Success      201 {object} map[string]UserResponse
// @Failure      400 {object} ErrorResponse "Validation error or missing avatar"
// @Failure      409 {object} ErrorResponse "Email already exists"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/users/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Cap the whole request body; the avatar limit plus form-field headroom.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxAvatarBytes+64*1024)

	if err := r.ParseMultipartForm(h.maxAvatarBytes); err != nil {
		logger.Warn("invalid registration form", "error", err.Error())
		respondError(w, "invalid multipart form", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	form := registerForm{
		FirstName: r.FormValue("firstName"),
		LastName:  r.FormValue("lastName"),
		Gender:    r.FormValue("gender"),
		Email:     r.FormValue("email"),
		Password:  r.FormValue("password"),
	}

	if err := validate.Struct(form); err != nil {
		logger.Warn("registration validation failed", "error", err.Error())
		respondError(w, "invalid registration fields", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": form.Email})

	avatarBytes, err := h.readAvatar(r)
	if err != nil {
		logger.Warn("registration failed: avatar missing or unreadable", "error", err.Error())
		respondError(w, "avatar is required", httputil.CodeAvatarRequired, http.StatusBadRequest)
		return
	}

	newUser, err := h.service.Register(r.Context(), RegisterInput{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Gender:    user.Gender(form.Gender),
		Email:     form.Email,
		Password:  form.Password,
		Avatar:    avatarBytes,
	})
	if err != nil {
		h.respondRegisterError(w, logger, err)
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)

	respondJSON(w, map[string]UserResponse{"user": toUserResponse(newUser)}, http.StatusCreated)
}

func (h *Handler) respondRegisterError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, user.ErrDuplicateEmail):
		logger.Warn("registration failed: email already exists")
		respondError(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
	case errors.Is(err, ErrAvatarRequired):
		logger.Warn("registration failed: missing avatar")
		respondError(w, err.Error(), httputil.CodeAvatarRequired, http.StatusBadRequest)
	case errors.Is(err, avatar.ErrTooLarge):
		logger.Warn("registration failed: avatar too large")
		respondError(w, err.Error(), httputil.CodeAvatarTooLarge, http.StatusBadRequest)
	case errors.Is(err, avatar.ErrUnsupportedFormat), errors.Is(err, avatar.ErrDecodeFailed):
		logger.Warn("registration failed: bad avatar", "error", err.Error())
		respondError(w, "avatar must be a valid JPEG or PNG image", httputil.CodeAvatarBadFormat, http.StatusBadRequest)
	case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordRequired),
		errors.Is(err, ErrEmailRequired), errors.Is(err, ErrInvalidEmailFormat),
		errors.Is(err, ErrInvalidGender):
		logger.Warn("registration failed: validation error", "error", err.Error())
		respondError(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
	default:
		logger.Error("registration failed: internal error", "error", err.Error())
		respondError(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

func (h *Handler) readAvatar(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("avatar")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(io.LimitReader(file, h.maxAvatarBytes+1))
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email and password and receive a session token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} LoginResponse
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Failure      401 {object} ErrorResponse "Invalid password"
// @Failure      404 {object} ErrorResponse "User not found"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/users/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := validate.Struct(req); err != nil {
		logger.Warn("login validation failed", "error", err.Error())
		respondError(w, "email and password are required", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			logger.Warn("login failed: user not found")
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid password")
			respondError(w, "invalid password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully")

	respondJSON(w, LoginResponse{Token: token}, http.StatusOK)
}

// CurrentUser returns the authenticated user's profile
// @Summary      Get session user
// @Description  Return the profile of the user behind the bearer token, avatar as a data URI.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]UserResponse
// @Failure      401 {object} ErrorResponse "Missing or invalid token"
// @Failure      404 {object} ErrorResponse "User not found"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/users/user [get]
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	u, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			logger.Warn("session user no longer exists", "user_id", userID)
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get session user", "error", err.Error())
		respondError(w, "failed to get user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]UserResponse{"user": toUserResponse(u)}, http.StatusOK)
}

// ForgotPassword handles password reset requests
// @Summary      Request password reset
// @Description  Send a password reset link to the account's email address.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Email address"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Failure      404 {object} ErrorResponse "User not found"
// @Failure      500 {object} ErrorResponse "Mail delivery failed"
// @Router       /api/users/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := validate.Struct(req); err != nil {
		logger.Warn("forgot password validation failed", "error", err.Error())
		respondError(w, "a valid email is required", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			logger.Warn("forgot password failed: user not found", "email", req.Email)
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("forgot password failed: internal error", "error", err.Error())
		respondError(w, "failed to send password reset email", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	respondJSON(w, MessageResponse{Message: "Password reset link sent!"}, http.StatusOK)
}

// ResetPassword handles password reset with token
// @Summary      Reset password
// @Description  Reset a user's password using a valid reset token from the email link.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Reset token and new password"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse "Invalid or expired token"
// @Failure      404 {object} ErrorResponse "User not found"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/users/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := validate.Struct(req); err != nil {
		logger.Warn("reset password validation failed", "error", err.Error())
		respondError(w, "token and a password of at least 6 characters are required", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrExpiredToken) {
			logger.Warn("password reset failed: invalid or expired token")
			respondError(w, "invalid token, please request a new reset link", httputil.CodeInvalidResetToken, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrUserNotFound) {
			logger.Warn("password reset failed: user not found")
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrPasswordRequired) || errors.Is(err, ErrPasswordTooShort) {
			logger.Warn("password reset failed: validation error", "error", err.Error())
			respondError(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		logger.Error("password reset failed: internal error", "error", err.Error())
		respondError(w, "failed to reset password", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("password reset successfully")

	respondJSON(w, MessageResponse{Message: "Password reset successful!"}, http.StatusOK)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}
