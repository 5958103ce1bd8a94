package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestRequireAuth_RejectsUnboundRequest(t *testing.T) {
	auth := NewCookieAuth(testSecret)

	handler := auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a bound actor")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/boards", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_PassesBoundActor(t *testing.T) {
	auth := NewCookieAuth(testSecret)

	// Bind a DID and capture the cookie the way a login response sets it
	bindRec := httptest.NewRecorder()
	bindReq := httptest.NewRequest(http.MethodPost, "/api/session", nil)
	require.NoError(t, auth.Bind(bindRec, bindReq, "did:plc:me"))
	cookies := bindRec.Result().Cookies()
	require.NotEmpty(t, cookies)

	var gotDID string
	handler := auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDID = GetActorDID(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/boards", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "did:plc:me", gotDID)
}

func TestUnbind_ClearsTheSession(t *testing.T) {
	auth := NewCookieAuth(testSecret)

	bindRec := httptest.NewRecorder()
	bindReq := httptest.NewRequest(http.MethodPost, "/api/session", nil)
	require.NoError(t, auth.Bind(bindRec, bindReq, "did:plc:me"))

	unbindRec := httptest.NewRecorder()
	unbindReq := httptest.NewRequest(http.MethodDelete, "/api/session", nil)
	for _, c := range bindRec.Result().Cookies() {
		unbindReq.AddCookie(c)
	}
	require.NoError(t, auth.Unbind(unbindRec, unbindReq))

	// The replacement cookie expires immediately
	cleared := unbindRec.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.Negative(t, cleared[0].MaxAge)
}

func TestGetActorDID_UnauthenticatedRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetActorDID(req))
}
