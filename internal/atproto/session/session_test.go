package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store recording what the manager persists
type memStore struct {
	sess    *Session
	saves   int
	cleared int
}

func (s *memStore) Save(sess *Session) error {
	copied := *sess
	s.sess = &copied
	s.saves++
	return nil
}

func (s *memStore) Load() (*Session, error) {
	if s.sess == nil {
		return nil, nil
	}
	copied := *s.sess
	return &copied, nil
}

func (s *memStore) Clear() error {
	s.sess = nil
	s.cleared++
	return nil
}

// tokenWithExp builds a JWT with the given expiry. The manager inspects
// tokens without verifying signatures, so the signature is arbitrary.
func tokenWithExp(exp time.Time) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(`{"exp":%d}`, exp.Unix())))
	sig := base64.RawURLEncoding.EncodeToString([]byte("sig"))
	return header + "." + payload + "." + sig
}

func TestCurrent_EmptyStoreFailsFast(t *testing.T) {
	// No PDS at this address; the call must fail before any network I/O
	m := NewManager(&memStore{}, "http://127.0.0.1:0", nil)

	_, err := m.Current(context.Background())
	require.ErrorIs(t, err, ErrAuthenticationRequired)

	_, err = m.Client(context.Background())
	require.ErrorIs(t, err, ErrAuthenticationRequired)
}

func TestCurrent_FreshTokenSkipsRefresh(t *testing.T) {
	refreshCalls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	store := &memStore{sess: &Session{
		DID:        "did:plc:me",
		Handle:     "me.bsky.social",
		AccessJwt:  tokenWithExp(time.Now().Add(time.Hour)),
		RefreshJwt: "refresh-token",
		Host:       ts.URL,
	}}
	m := NewManager(store, ts.URL, nil)

	sess, err := m.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "did:plc:me", sess.DID)
	assert.Zero(t, refreshCalls, "a fresh access token needs no refresh")
}

func TestCurrent_ExpiringTokenRefreshes(t *testing.T) {
	newAccess := tokenWithExp(time.Now().Add(time.Hour))

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/xrpc/com.atproto.server.refreshSession", r.URL.Path)
		// Refresh must authenticate with the refresh token, not the
		// expiring access token
		assert.Equal(t, "Bearer old-refresh", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"accessJwt":  newAccess,
			"refreshJwt": "new-refresh",
			"did":        "did:plc:me",
			"handle":     "me.bsky.social",
		})
	}))
	defer ts.Close()

	store := &memStore{sess: &Session{
		DID:        "did:plc:me",
		Handle:     "me.bsky.social",
		AccessJwt:  tokenWithExp(time.Now().Add(10 * time.Second)), // inside the leeway
		RefreshJwt: "old-refresh",
		Host:       ts.URL,
	}}
	m := NewManager(store, ts.URL, nil)

	sess, err := m.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, newAccess, sess.AccessJwt)
	assert.Equal(t, "new-refresh", sess.RefreshJwt)

	// Refresh tokens are single-use: the new pair is persisted before the
	// old one is discarded
	require.NotNil(t, store.sess)
	assert.Equal(t, "new-refresh", store.sess.RefreshJwt)
	assert.Equal(t, 1, store.saves)

	// The fresh token carries the manager through the next call without
	// another round trip
	again, err := m.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, newAccess, again.AccessJwt)
	assert.Equal(t, 1, store.saves)
}

func TestCurrent_DeadRefreshTokenClearsSession(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "ExpiredToken",
			"message": "refresh token expired",
		})
	}))
	defer ts.Close()

	store := &memStore{sess: &Session{
		DID:        "did:plc:me",
		AccessJwt:  tokenWithExp(time.Now().Add(-time.Minute)),
		RefreshJwt: "dead-refresh",
		Host:       ts.URL,
	}}
	m := NewManager(store, ts.URL, nil)

	_, err := m.Current(context.Background())
	require.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Nil(t, store.sess, "dead session removed from the store")

	// The manager stays logged out rather than retrying the dead token
	_, err = m.Current(context.Background())
	require.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Equal(t, 1, store.cleared)
}

func TestLogin_PersistsSession(t *testing.T) {
	access := tokenWithExp(time.Now().Add(time.Hour))

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/xrpc/com.atproto.server.createSession", r.URL.Path)

		var input struct {
			Identifier string `json:"identifier"`
			Password   string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		assert.Equal(t, "me.bsky.social", input.Identifier)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"accessJwt":  access,
			"refreshJwt": "refresh-token",
			"did":        "did:plc:me",
			"handle":     "me.bsky.social",
		})
	}))
	defer ts.Close()

	store := &memStore{}
	m := NewManager(store, ts.URL, nil)

	sess, err := m.Login(context.Background(), "me.bsky.social", "app-password")
	require.NoError(t, err)
	assert.Equal(t, "did:plc:me", sess.DID)
	require.NotNil(t, store.sess)
	assert.Equal(t, "refresh-token", store.sess.RefreshJwt)

	current, err := m.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sess.DID, current.DID)
}

func TestLogin_EmptyCredentials(t *testing.T) {
	m := NewManager(&memStore{}, "http://127.0.0.1:0", nil)

	_, err := m.Login(context.Background(), "", "")
	require.ErrorIs(t, err, ErrLoginFailed)
}

func TestLogout_ClearsStore(t *testing.T) {
	store := &memStore{sess: &Session{DID: "did:plc:me"}}
	m := NewManager(store, "http://127.0.0.1:0", nil)

	require.NoError(t, m.Logout(context.Background()))
	assert.Nil(t, store.sess)

	_, err := m.Current(context.Background())
	require.ErrorIs(t, err, ErrAuthenticationRequired)
}
