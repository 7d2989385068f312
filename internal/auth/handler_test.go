package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/identity-api/internal/httputil"
)

func TestHandler_Login(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "success", body: `{"email":"ana@x.com","password":"s3nha"}`, wantStatus: http.StatusOK},
		{name: "wrong password", body: `{"email":"ana@x.com","password":"nope"}`, wantStatus: http.StatusUnauthorized, wantCode: httputil.CodeInvalidCredentials},
		{name: "malformed body", body: `{"email":`, wantStatus: http.StatusBadRequest, wantCode: httputil.CodeInvalidRequestBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Login(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				var body httputil.ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, tt.wantCode, body.Code)
				return
			}

			var tokens AuthTokens
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&tokens))
			assert.NotEmpty(t, tokens.AccessToken)
			assert.Equal(t, "Bearer "+tokens.AccessToken, tokens.Authorization)
		})
	}
}
