// Package session manages the device's single Bluesky session: login via
// com.atproto.server.createSession, transparent refresh, and durable
// token storage. Exactly one valid session exists per device at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/xrpc"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var (
	// ErrAuthenticationRequired indicates no valid session exists and the
	// user must log in before the operation can proceed
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrLoginFailed indicates createSession was rejected by the PDS
	ErrLoginFailed = errors.New("login failed")
)

// refreshLeeway is how long before access-token expiry a refresh is
// attempted, so in-flight requests never race the expiry instant.
const refreshLeeway = 60 * time.Second

// Session is the opaque identity bundle for the authenticated actor
type Session struct {
	DID        string `json:"did"`
	Handle     string `json:"handle"`
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
	Host       string `json:"host"`
}

// Store persists the session token bundle across launches
type Store interface {
	Save(s *Session) error
	Load() (*Session, error) // returns nil, nil when no session is stored
	Clear() error
}

// Manager owns the current session and hands out authenticated XRPC
// clients. All access goes through the manager so refresh is serialized.
type Manager struct {
	store  Store
	host   string
	logger *slog.Logger

	mu      sync.Mutex
	current *Session
	loaded  bool
}

// NewManager creates a session manager against the given PDS host
// (e.g. https://bsky.social)
func NewManager(store Store, host string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  store,
		host:   host,
		logger: logger,
	}
}

// Login authenticates with an identifier (handle or email) and an app
// password, then persists the resulting session. Replaces any session
// already on the device.
func (m *Manager) Login(ctx context.Context, identifier, password string) (*Session, error) {
	if identifier == "" || password == "" {
		return nil, fmt.Errorf("%w: identifier and password are required", ErrLoginFailed)
	}

	client := &xrpc.Client{Host: m.host}

	output, err := atproto.ServerCreateSession(ctx, client, &atproto.ServerCreateSession_Input{
		Identifier: identifier,
		Password:   password,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLoginFailed, err)
	}

	if output.AccessJwt == "" || output.RefreshJwt == "" {
		return nil, fmt.Errorf("%w: createSession response missing tokens", ErrLoginFailed)
	}

	sess := &Session{
		DID:        output.Did,
		Handle:     output.Handle,
		AccessJwt:  output.AccessJwt,
		RefreshJwt: output.RefreshJwt,
		Host:       m.host,
	}

	if err := m.store.Save(sess); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	m.mu.Lock()
	m.current = sess
	m.loaded = true
	m.mu.Unlock()

	m.logger.Info("logged in", "did", sess.DID, "handle", sess.Handle)
	return sess, nil
}

// Logout clears the stored session. Safe to call when not logged in.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.current = nil
	m.loaded = true
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	m.logger.Info("logged out")
	return nil
}

// Current returns the active session, refreshing the access token when it
// is about to expire. Fails with ErrAuthenticationRequired when no session
// exists so callers can fail fast before any network call.
func (m *Manager) Current(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		stored, err := m.store.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		m.current = stored
		m.loaded = true
	}

	if m.current == nil {
		return nil, ErrAuthenticationRequired
	}

	if tokenExpiring(m.current.AccessJwt) {
		if err := m.refreshLocked(ctx); err != nil {
			return nil, err
		}
	}

	return m.current, nil
}

// Client returns an XRPC client authenticated as the current session
func (m *Manager) Client(ctx context.Context) (*xrpc.Client, error) {
	sess, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	return &xrpc.Client{
		Host: sess.Host,
		Auth: &xrpc.AuthInfo{
			AccessJwt:  sess.AccessJwt,
			RefreshJwt: sess.RefreshJwt,
			Did:        sess.DID,
			Handle:     sess.Handle,
		},
	}, nil
}

// refreshLocked exchanges the refresh token for a new token pair.
// Refresh tokens are single-use: the new pair must be persisted before the
// old one is discarded. Caller holds m.mu.
func (m *Manager) refreshLocked(ctx context.Context) error {
	sess := m.current

	client := &xrpc.Client{
		Host: sess.Host,
		Auth: &xrpc.AuthInfo{
			AccessJwt:  sess.AccessJwt,
			RefreshJwt: sess.RefreshJwt,
		},
	}

	output, err := atproto.ServerRefreshSession(ctx, client)
	if err != nil {
		var xrpcErr *xrpc.Error
		if errors.As(err, &xrpcErr) && xrpcErr.StatusCode == 401 {
			// Refresh token expired or revoked; the session is dead
			m.current = nil
			if clearErr := m.store.Clear(); clearErr != nil {
				m.logger.Warn("failed to clear dead session", "error", clearErr)
			}
			return ErrAuthenticationRequired
		}
		return fmt.Errorf("failed to refresh session: %w", err)
	}

	if output.AccessJwt == "" || output.RefreshJwt == "" {
		return fmt.Errorf("refresh response missing tokens")
	}

	sess.AccessJwt = output.AccessJwt
	sess.RefreshJwt = output.RefreshJwt

	if err := m.store.Save(sess); err != nil {
		return fmt.Errorf("failed to persist refreshed session: %w", err)
	}

	m.logger.Debug("session refreshed", "did", sess.DID)
	return nil
}

// tokenExpiring reports whether the access token expires within the
// refresh leeway. The token is inspected without signature verification;
// the PDS remains the authority on validity.
func tokenExpiring(accessJwt string) bool {
	token, err := jwt.Parse([]byte(accessJwt), jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		// Unparseable token: let the server decide, refresh on 401
		return false
	}

	exp := token.Expiration()
	if exp.IsZero() {
		return false
	}
	return time.Until(exp) < refreshLeeway
}
