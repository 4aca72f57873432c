package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/glycohq/glyco/internal/audit"
	"github.com/glycohq/glyco/internal/credentials"
	"github.com/glycohq/glyco/internal/crypto"
	gerrors "github.com/glycohq/glyco/internal/errors"
	logger "github.com/glycohq/glyco/internal/logging"
)

// State is the session lifecycle state.
type State int

const (
	LoggedOut State = iota
	Authenticating
	Authenticated
	SessionExpired
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged out"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case SessionExpired:
		return "session expired"
	default:
		return "unknown"
	}
}

// sessionValidity is the fixed window persisted with a fresh login. The
// remote does not report token lifetimes, so sessions are conservatively
// re-verified or re-established after this long.
const sessionValidity = 24 * time.Hour

// Device identifies this install in the login payload.
type Device struct {
	ID   string
	Name string
}

// Manager is the session state machine. All fields behind mu are mutated
// only by login, logout and HandleAuthError.
type Manager struct {
	baseURL string
	device  Device
	creds   *credentials.Manager
	log     logger.Logger
	auditor *audit.Log
	timeout time.Duration

	httpClient *http.Client

	mu          sync.Mutex
	state       State
	accessToken string
	sessionID   string
	lastAuth    time.Time
}

// NewManager builds an auth manager. The returned manager owns an
// http.Client with a cookie jar; callers performing authenticated requests
// must use HTTPClient() so login cookies ride along.
func NewManager(baseURL string, device Device, creds *credentials.Manager, auditor *audit.Log, timeout time.Duration, log logger.Logger) (*Manager, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Manager{
		baseURL: baseURL,
		device:  device,
		creds:   creds,
		log:     log,
		auditor: auditor,
		timeout: timeout,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
	}, nil
}

// HTTPClient returns the client carrying the session cookie jar.
func (m *Manager) HTTPClient() *http.Client {
	return m.httpClient
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Login establishes a session. When email and password are supplied they
// are persisted first; otherwise stored credentials are used. A session
// restore against the verify endpoint is always attempted before a fresh
// remote login.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginLocked(ctx, email, password, true)
}

// EnsureAuthenticated is a no-op when a session is live; otherwise it runs
// a login with stored credentials. Concurrent callers while unauthenticated
// serialize behind the manager mutex, so exactly one remote login happens.
func (m *Manager) EnsureAuthenticated(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Authenticated {
		return nil
	}
	if err := m.loginLocked(ctx, "", "", true); err != nil {
		return fmt.Errorf("%w: %v", gerrors.ErrAuthenticationRequired, err)
	}
	return nil
}

// HandleAuthError recovers from a 401 reported by the HTTP layer: it
// clears in-memory state, deletes persisted tokens, and performs exactly
// one fresh login attempt. The retry decision stays with the caller.
func (m *Manager) HandleAuthError(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log.Infof("Remote rejected the session, attempting one fresh login")
	m.clearStateLocked(SessionExpired)
	if err := m.creds.DeleteTokens(); err != nil {
		m.log.Warnf("Failed to delete stale session tokens: %v", err)
	}

	// No restore here: the token was just rejected.
	if err := m.loginLocked(ctx, "", "", false); err != nil {
		m.log.Warnf("Recovery login failed: %v", err)
		return false
	}
	return true
}

// AuthHeaders assembles the headers for an authenticated call. Cookies are
// not included here; they live in the manager's cookie jar. Calling this
// before any successful login is a programmer error and returns
// ErrAuthenticationRequired.
func (m *Manager) AuthHeaders() (http.Header, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.accessToken == "" {
		return nil, fmt.Errorf("AuthHeaders called before login: %w", gerrors.ErrAuthenticationRequired)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+m.accessToken)
	if m.sessionID != "" {
		headers.Set("X-Session-ID", m.sessionID)
	}
	return headers, nil
}

// Logout best-effort notifies the remote, then unconditionally clears
// local session state and persisted tokens.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.accessToken != "" {
		if err := m.remoteLogout(ctx); err != nil {
			m.log.Warnf("Remote logout failed (continuing with local logout): %v", err)
		}
	}

	m.clearStateLocked(LoggedOut)
	m.resetCookies()
	m.auditor.Append(audit.Entry{Operation: "logout", Subject: "session", Status: "ok"})
	return m.creds.DeleteTokens()
}

// loginLocked runs the restore-then-login sequence. mu must be held.
func (m *Manager) loginLocked(ctx context.Context, email, password string, tryRestore bool) error {
	m.state = Authenticating

	if email != "" && password != "" {
		if err := m.creds.StoreCredentials(email, password); err != nil {
			m.state = LoggedOut
			return err
		}
	} else {
		stored, err := m.creds.Credentials()
		if err != nil {
			m.state = LoggedOut
			return err
		}
		if stored == nil {
			m.state = LoggedOut
			return fmt.Errorf("%w: run setup first", gerrors.ErrNotSetUp)
		}
		email, password = stored.Email, stored.Password
	}

	if tryRestore && m.restoreLocked(ctx) {
		return nil
	}

	if err := m.remoteLogin(ctx, email, password); err != nil {
		m.clearStateLocked(LoggedOut)
		m.auditor.Append(audit.Entry{
			Operation: "login",
			Subject:   crypto.HashForAudit(email),
			Status:    "failed",
		})
		return err
	}

	m.state = Authenticated
	m.lastAuth = time.Now()
	m.auditor.Append(audit.Entry{
		Operation: "login",
		Subject:   crypto.HashForAudit(email),
		Status:    "ok",
	})
	return nil
}

// restoreLocked adopts a stored, unexpired session if the verify endpoint
// accepts it. mu must be held.
func (m *Manager) restoreLocked(ctx context.Context) bool {
	tokens, err := m.creds.Tokens()
	if err != nil || tokens == nil {
		return false
	}

	m.accessToken = tokens.AccessToken
	m.sessionID = tokens.SessionID

	if err := m.verifySession(ctx); err != nil {
		m.log.Debugf("Stored session rejected by verify endpoint: %v", err)
		m.accessToken = ""
		m.sessionID = ""
		return false
	}

	m.state = Authenticated
	m.lastAuth = time.Now()
	m.log.Infof("Restored session, valid until %s", tokens.ExpiresAt.Format(time.RFC3339))
	m.auditor.Append(audit.Entry{Operation: "session_restore", Subject: "session", Status: "ok"})
	return true
}

// clearStateLocked wipes in-memory session state. mu must be held.
func (m *Manager) clearStateLocked(next State) {
	m.accessToken = ""
	m.sessionID = ""
	m.state = next
}

// resetCookies discards the cookie jar. Failing to build a fresh jar
// leaves the old one in place, which only matters for the next login.
func (m *Manager) resetCookies() {
	if jar, err := cookiejar.New(nil); err == nil {
		m.httpClient.Jar = jar
	}
}
