package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/identity-api/internal/httputil"
)

func newTestRouter(env *testEnv, enforceOwnership bool) http.Handler {
	h := NewHandler(env.svc, enforceOwnership)

	r := chi.NewRouter()
	r.Post("/users", h.Register)
	r.Get("/users", h.GetByEmail)
	r.Put("/users", h.UpdateProfile)
	r.Delete("/users/{email}", h.Delete)
	r.Post("/users/addresses", h.RegisterAddress)
	r.Put("/users/addresses", h.UpdateAddress)
	r.Post("/users/phones", h.RegisterPhone)
	r.Put("/users/phones", h.UpdatePhone)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body, authorization string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Code
}

func TestHandler_Register(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env, false)

	rec := do(t, router, http.MethodPost, "/users", `{"name":"Ana","email":"ana@x.com","password":"s3nha","phones":[{"number":"999999999","area_code":"81"}]}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var created UserDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "ana@x.com", created.Email)
	require.Len(t, created.Phones, 1)
	assert.NotZero(t, created.Phones[0].ID)

	rec = do(t, router, http.MethodPost, "/users", `{"name":"Ana","email":"ana@x.com","password":"s3nha"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, httputil.CodeEmailAlreadyExists, errorCode(t, rec))
}

func TestHandler_Register_BadInput(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env, false)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "malformed json", body: `{"name":`, wantCode: httputil.CodeInvalidRequestBody},
		{name: "missing email", body: `{"name":"Ana","password":"x"}`, wantCode: httputil.CodeEmailRequired},
		{name: "missing password", body: `{"name":"Ana","email":"ana@x.com"}`, wantCode: httputil.CodePasswordRequired},
		{name: "password over 72 bytes", body: `{"name":"Ana","email":"ana@x.com","password":"` + strings.Repeat("a", 73) + `"}`, wantCode: httputil.CodePasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/users", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, rec))
		})
	}
}

func TestHandler_GetByEmail(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env, false)
	env.register(t, "ana@x.com")

	rec := do(t, router, http.MethodGet, "/users?email=ana@x.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var found UserDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&found))
	assert.Equal(t, "Ana", found.Name)

	rec = do(t, router, http.MethodGet, "/users?email=nobody@x.com", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, httputil.CodeUserNotFound, errorCode(t, rec))

	rec = do(t, router, http.MethodGet, "/users", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Delete(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env, false)
	env.register(t, "ana@x.com")

	rec := do(t, router, http.MethodDelete, "/users/ana@x.com", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodDelete, "/users/ana@x.com", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandler_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env, false)
	created := env.register(t, "ana@x.com")

	rec := do(t, router, http.MethodPut, "/users", `{"name":"Ana Silva"}`, env.bearer(t, "ana@x.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	var updated UserDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, "Ana Silva", updated.Name)
	assert.Equal(t, created.Password, updated.Password)

	rec = do(t, router, http.MethodPut, "/users", `{"password":""}`, env.bearer(t, "ana@x.com"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodePasswordRequired, errorCode(t, rec))

	rec = do(t, router, http.MethodPut, "/users", `{"password":"`+strings.Repeat("a", 73)+`"}`, env.bearer(t, "ana@x.com"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodePasswordTooLong, errorCode(t, rec))

	rec = do(t, router, http.MethodPut, "/users", `{"name":"X"}`, "Bearer")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httputil.CodeInvalidAuthHeader, errorCode(t, rec))

	rec = do(t, router, http.MethodPut, "/users", `{"name":"X"}`, "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httputil.CodeInvalidToken, errorCode(t, rec))
}

func TestHandler_UpdateAddress(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env, false)
	env.register(t, "ana@x.com")
	header := env.bearer(t, "ana@x.com")

	rec := do(t, router, http.MethodPost, "/users/addresses", `{"street":"Rua B","number":"2","city":"Olinda","state":"PE","postal_code":"53000-000"}`, header)
	require.Equal(t, http.StatusCreated, rec.Code)
	var addr AddressDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&addr))

	rec = do(t, router, http.MethodPut, "/users/addresses?id=abc", `{}`, header)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeInvalidID, errorCode(t, rec))

	rec = do(t, router, http.MethodPut, "/users/addresses?id=9999", `{"number":"3"}`, header)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, httputil.CodeAddressNotFound, errorCode(t, rec))

	target := "/users/addresses?id=" + strconv.FormatInt(addr.ID, 10)
	rec = do(t, router, http.MethodPut, target, `{"number":"3"}`, header)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated AddressDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, "3", updated.Number)
	assert.Equal(t, "Rua B", updated.Street)
}

func TestHandler_UpdatePhone_EnforcedOwnership(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env, true)
	env.register(t, "ana@x.com")
	env.register(t, "bia@x.com")

	rec := do(t, router, http.MethodPost, "/users/phones", `{"number":"988887777","area_code":"81"}`, env.bearer(t, "ana@x.com"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var phone PhoneDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&phone))

	target := "/users/phones?id=" + strconv.FormatInt(phone.ID, 10)

	rec = do(t, router, http.MethodPut, target, `{"area_code":"11"}`, env.bearer(t, "bia@x.com"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, httputil.CodePhoneNotFound, errorCode(t, rec))

	rec = do(t, router, http.MethodPut, target, `{"area_code":"11"}`, env.bearer(t, "ana@x.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	var updated PhoneDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, "11", updated.AreaCode)
}
