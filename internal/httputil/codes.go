package httputil

// Machine-readable error codes returned in ErrorResponse.Code
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeInvalidID          = "INVALID_ID"
	CodeEmailRequired      = "EMAIL_REQUIRED"
	CodePasswordRequired   = "PASSWORD_REQUIRED"
	CodePasswordTooLong    = "PASSWORD_TOO_LONG"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeAddressNotFound    = "ADDRESS_NOT_FOUND"
	CodePhoneNotFound      = "PHONE_NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidAuthHeader  = "INVALID_AUTH_HEADER"
	CodeMissingAuth        = "MISSING_AUTH"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInternalError      = "INTERNAL_ERROR"
)
