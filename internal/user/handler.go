package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/redmonkez12/identity-api/internal/httputil"
	"github.com/redmonkez12/identity-api/internal/logging"
	"github.com/redmonkez12/identity-api/internal/token"
)

// Handler contains HTTP handlers for identity endpoints
type Handler struct {
	service          *Service
	enforceOwnership bool
}

func NewHandler(service *Service, enforceOwnership bool) *Handler {
	return &Handler{
		service:          service,
		enforceOwnership: enforceOwnership,
	}
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a user with optional addresses and phones. The response carries assigned identifiers.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body UserDTO true "User to register"
// @Success      201 {object} UserDTO
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /users [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req UserDTO
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, r, "registration failed", err)
		return
	}

	httputil.RespondJSON(w, created, http.StatusCreated)
}

// GetByEmail handles user lookup
// @Summary      Find a user by email
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        email query string true "Email address"
// @Success      200 {object} UserDTO
// @Failure      400 {object} httputil.ErrorResponse "Missing email"
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /users [get]
func (h *Handler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		httputil.RespondErrorWithCode(w, ErrEmailRequired.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
		return
	}

	found, err := h.service.FindByEmail(r.Context(), email)
	if err != nil {
		h.respondServiceError(w, r, "lookup failed", err)
		return
	}

	httputil.RespondJSON(w, found, http.StatusOK)
}

// Delete handles user deletion
// @Summary      Delete a user by email
// @Description  Removes the user with its addresses and phones. Unknown emails succeed.
// @Tags         users
// @Security     BearerAuth
// @Param        email path string true "Email address"
// @Success      204
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /users/{email} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	if err := h.service.DeleteByEmail(r.Context(), email); err != nil {
		h.respondServiceError(w, r, "delete failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateProfile handles partial profile updates for the authenticated user
// @Summary      Update the authenticated user's profile
// @Description  Name and password change only when present. Email cannot change.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UserPatch true "Fields to change"
// @Success      200 {object} UserDTO
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body or password"
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /users [put]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var patch UserPatch
	if err := httputil.DecodeJSON(w, r, &patch); err != nil {
		logger.Warn("invalid profile update body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), r.Header.Get("Authorization"), patch)
	if err != nil {
		h.respondServiceError(w, r, "profile update failed", err)
		return
	}

	httputil.RespondJSON(w, updated, http.StatusOK)
}

// RegisterAddress handles address creation for the authenticated user
// @Summary      Add an address
// @Tags         addresses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body AddressDTO true "Address"
// @Success      201 {object} AddressDTO
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /users/addresses [post]
func (h *Handler) RegisterAddress(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req AddressDTO
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid address body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.service.RegisterAddress(r.Context(), r.Header.Get("Authorization"), req)
	if err != nil {
		h.respondServiceError(w, r, "address registration failed", err)
		return
	}

	httputil.RespondJSON(w, created, http.StatusCreated)
}

// UpdateAddress handles partial address updates
// @Summary      Update an address
// @Tags         addresses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id query int true "Address ID"
// @Param        request body AddressPatch true "Fields to change"
// @Success      200 {object} AddressDTO
// @Failure      400 {object} httputil.ErrorResponse "Invalid ID or body"
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} httputil.ErrorResponse "Address not found"
// @Router       /users/addresses [put]
func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var patch AddressPatch
	if err := httputil.DecodeJSON(w, r, &patch); err != nil {
		logger.Warn("invalid address update body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	var (
		updated *AddressDTO
		err     error
	)
	if h.enforceOwnership {
		updated, err = h.service.UpdateOwnedAddress(r.Context(), r.Header.Get("Authorization"), id, patch)
	} else {
		updated, err = h.service.UpdateAddress(r.Context(), id, patch)
	}
	if err != nil {
		h.respondServiceError(w, r, "address update failed", err)
		return
	}

	httputil.RespondJSON(w, updated, http.StatusOK)
}

// RegisterPhone handles phone creation for the authenticated user
// @Summary      Add a phone
// @Tags         phones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body PhoneDTO true "Phone"
// @Success      201 {object} PhoneDTO
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /users/phones [post]
func (h *Handler) RegisterPhone(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req PhoneDTO
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid phone body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.service.RegisterPhone(r.Context(), r.Header.Get("Authorization"), req)
	if err != nil {
		h.respondServiceError(w, r, "phone registration failed", err)
		return
	}

	httputil.RespondJSON(w, created, http.StatusCreated)
}

// UpdatePhone handles partial phone updates
// @Summary      Update a phone
// @Tags         phones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id query int true "Phone ID"
// @Param        request body PhonePatch true "Fields to change"
// @Success      200 {object} PhoneDTO
// @Failure      400 {object} httputil.ErrorResponse "Invalid ID or body"
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} httputil.ErrorResponse "Phone not found"
// @Router       /users/phones [put]
func (h *Handler) UpdatePhone(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var patch PhonePatch
	if err := httputil.DecodeJSON(w, r, &patch); err != nil {
		logger.Warn("invalid phone update body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	var (
		updated *PhoneDTO
		err     error
	)
	if h.enforceOwnership {
		updated, err = h.service.UpdateOwnedPhone(r.Context(), r.Header.Get("Authorization"), id, patch)
	} else {
		updated, err = h.service.UpdatePhone(r.Context(), id, patch)
	}
	if err != nil {
		h.respondServiceError(w, r, "phone update failed", err)
		return
	}

	httputil.RespondJSON(w, updated, http.StatusOK)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondErrorWithCode(w, "invalid id", httputil.CodeInvalidID, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// respondServiceError maps service errors onto HTTP status codes
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logger := logging.GetLoggerFromContext(r.Context())

	var (
		conflictErr  *ConflictError
		notFoundErr  *NotFoundError
		tokenErr     *token.InvalidTokenError
		malformedErr *token.MalformedHeaderError
	)

	switch {
	case errors.As(err, &conflictErr):
		logger.Warn(msg+": email already exists", "email", conflictErr.Email)
		httputil.RespondErrorWithCode(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
	case errors.As(err, &notFoundErr):
		logger.Warn(msg+": not found", "resource", notFoundErr.Resource, "key", notFoundErr.Key)
		httputil.RespondErrorWithCode(w, notFoundErr.Error(), notFoundCode(notFoundErr.Resource), http.StatusNotFound)
	case errors.As(err, &malformedErr):
		logger.Warn(msg+": malformed authorization header", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
	case errors.As(err, &tokenErr):
		logger.Warn(msg+": invalid token", "error", err.Error())
		if tokenErr.Expired {
			httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
			return
		}
		httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
	case errors.Is(err, ErrEmailRequired):
		logger.Warn(msg+": validation error", "error", err.Error())
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
	case errors.Is(err, ErrPasswordRequired):
		logger.Warn(msg+": validation error", "error", err.Error())
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
	case errors.Is(err, ErrPasswordTooLong):
		logger.Warn(msg+": validation error", "error", err.Error())
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordTooLong, http.StatusBadRequest)
	default:
		logger.Error(msg+": internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

func notFoundCode(resource string) string {
	switch resource {
	case ResourceAddress:
		return httputil.CodeAddressNotFound
	case ResourcePhone:
		return httputil.CodePhoneNotFound
	default:
		return httputil.CodeUserNotFound
	}
}
