package httputil

// Machine-readable error codes returned alongside human-readable messages,
// so frontend clients can branch without string matching.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidationFailed   = "VALIDATION_FAILED"

	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeAvatarRequired     = "AVATAR_REQUIRED"
	CodeAvatarTooLarge     = "AVATAR_TOO_LARGE"
	CodeAvatarBadFormat    = "AVATAR_UNSUPPORTED_FORMAT"
	CodePasswordTooShort   = "PASSWORD_TOO_SHORT"

	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"

	CodeMissingAuth       = "MISSING_AUTH"
	CodeInvalidAuthHeader = "INVALID_AUTH_HEADER"
	CodeInvalidToken      = "INVALID_TOKEN"
	CodeTokenExpired      = "TOKEN_EXPIRED"
	CodeInvalidResetToken = "INVALID_RESET_TOKEN"

	CodeInternalError = "INTERNAL_ERROR"
)
