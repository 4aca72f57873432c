package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glycohq/glyco/internal/audit"
	"github.com/glycohq/glyco/internal/configs"
	"github.com/glycohq/glyco/internal/credentials"
	gerrors "github.com/glycohq/glyco/internal/errors"
	"github.com/glycohq/glyco/internal/keyring"
	logger "github.com/glycohq/glyco/internal/logging"
)

// memStore is an in-memory keyring.SecretStore for tests.
type memStore struct {
	secrets map[string]string
}

func (s *memStore) Get(service, account string) (string, error) {
	secret, ok := s.secrets[service+"/"+account]
	if !ok {
		return "", gerrors.ErrMasterKeyNotFound
	}
	return secret, nil
}

func (s *memStore) Set(service, account, secret string) error {
	s.secrets[service+"/"+account] = secret
	return nil
}

func (s *memStore) Delete(service, account string) error {
	if _, ok := s.secrets[service+"/"+account]; !ok {
		return gerrors.ErrMasterKeyNotFound
	}
	delete(s.secrets, service+"/"+account)
	return nil
}

func newTestManager(t *testing.T, baseURL string) (*Manager, *credentials.Manager) {
	t.Helper()
	settings := configs.SettingsAt(t.TempDir())
	keys := keyring.NewManager(&memStore{secrets: make(map[string]string)}, settings.MasterKeyPath, logger.Logger{})
	creds := credentials.NewManager(settings, keys, logger.Logger{})
	auditor := audit.New(settings.AuditLogPath)

	device := Device{ID: "test-device-id", Name: "test-host"}
	manager, err := NewManager(baseURL, device, creds, auditor, 5*time.Second, logger.Logger{})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return manager, creds
}

// loginServer serves the auth endpoints with counters on each path.
type loginServer struct {
	*httptest.Server
	logins   atomic.Int64
	verifies atomic.Int64
	logouts  atomic.Int64

	loginBody   string
	loginStatus int
	verifyOK    bool
}

func newLoginServer(t *testing.T) *loginServer {
	t.Helper()
	s := &loginServer{
		loginBody:   `{"token":"fresh-token","user_id":42}`,
		loginStatus: http.StatusOK,
	}
	mux := http.NewServeMux()
	mux.HandleFunc(PathLogin, func(w http.ResponseWriter, r *http.Request) {
		s.logins.Add(1)
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("Login payload is not JSON: %v", err)
		}
		w.WriteHeader(s.loginStatus)
		w.Write([]byte(s.loginBody))
	})
	mux.HandleFunc(PathSessionVerify, func(w http.ResponseWriter, r *http.Request) {
		s.verifies.Add(1)
		if s.verifyOK {
			w.Write([]byte(`{"valid":true}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc(PathLogout, func(w http.ResponseWriter, r *http.Request) {
		s.logouts.Add(1)
		w.Write([]byte(`{}`))
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func TestLogin_BareResponseShape(t *testing.T) {
	server := newLoginServer(t)
	server.loginBody = `{"token":"bare-token","user_id":12345}`
	manager, creds := newTestManager(t, server.URL)

	if err := manager.Login(context.Background(), "user@example.com", "hunter2"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if manager.State() != Authenticated {
		t.Errorf("Expected Authenticated state, got %v", manager.State())
	}

	headers, err := manager.AuthHeaders()
	if err != nil {
		t.Fatalf("AuthHeaders failed: %v", err)
	}
	if got := headers.Get("Authorization"); got != "Bearer bare-token" {
		t.Errorf("Unexpected Authorization header: %q", got)
	}
	if got := headers.Get("X-Session-ID"); got != "" {
		t.Errorf("Bare response should yield no session header, got %q", got)
	}

	tokens, err := creds.Tokens()
	if err != nil || tokens == nil {
		t.Fatalf("Expected persisted tokens, got %v, %+v", err, tokens)
	}
	if tokens.AccessToken != "bare-token" {
		t.Errorf("Persisted token mismatch: %q", tokens.AccessToken)
	}
}

func TestLogin_WrappedResponseShape(t *testing.T) {
	server := newLoginServer(t)
	server.loginBody = `{"success":true,"data":{"token":"wrapped-token","sessionId":"sess-9","userId":"77"}}`
	manager, _ := newTestManager(t, server.URL)

	if err := manager.Login(context.Background(), "user@example.com", "hunter2"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	headers, err := manager.AuthHeaders()
	if err != nil {
		t.Fatalf("AuthHeaders failed: %v", err)
	}
	if got := headers.Get("Authorization"); got != "Bearer wrapped-token" {
		t.Errorf("Unexpected Authorization header: %q", got)
	}
	if got := headers.Get("X-Session-ID"); got != "sess-9" {
		t.Errorf("Unexpected session header: %q", got)
	}
}

func TestLogin_RejectedCredentials(t *testing.T) {
	server := newLoginServer(t)
	server.loginStatus = http.StatusUnauthorized
	manager, _ := newTestManager(t, server.URL)

	err := manager.Login(context.Background(), "user@example.com", "wrong")
	if !errors.Is(err, gerrors.ErrAuthenticationFailed) {
		t.Fatalf("Expected ErrAuthenticationFailed, got %v", err)
	}
	if manager.State() != LoggedOut {
		t.Errorf("Failed login must leave the manager logged out, got %v", manager.State())
	}
}

func TestLogin_ResponseWithoutToken(t *testing.T) {
	server := newLoginServer(t)
	server.loginBody = `{"success":true}`
	manager, _ := newTestManager(t, server.URL)

	err := manager.Login(context.Background(), "user@example.com", "hunter2")
	if !errors.Is(err, gerrors.ErrInvalidResponse) {
		t.Fatalf("Expected ErrInvalidResponse, got %v", err)
	}
}

func TestLogin_RestoresStoredSessionWithoutLoginPost(t *testing.T) {
	server := newLoginServer(t)
	server.verifyOK = true
	manager, creds := newTestManager(t, server.URL)

	if err := creds.StoreCredentials("user@example.com", "hunter2"); err != nil {
		t.Fatalf("StoreCredentials failed: %v", err)
	}
	if err := creds.StoreTokens("stored-token", "stored-sid", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("StoreTokens failed: %v", err)
	}

	if err := manager.Login(context.Background(), "", ""); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if got := server.logins.Load(); got != 0 {
		t.Errorf("Restore path must not POST to login, saw %d posts", got)
	}
	if got := server.verifies.Load(); got != 1 {
		t.Errorf("Expected exactly one verify call, saw %d", got)
	}

	headers, err := manager.AuthHeaders()
	if err != nil {
		t.Fatalf("AuthHeaders failed: %v", err)
	}
	if got := headers.Get("Authorization"); got != "Bearer stored-token" {
		t.Errorf("Expected restored token, got %q", got)
	}
}

func TestLogin_RejectedRestoreFallsBackToLogin(t *testing.T) {
	server := newLoginServer(t)
	server.verifyOK = false
	manager, creds := newTestManager(t, server.URL)

	if err := creds.StoreCredentials("user@example.com", "hunter2"); err != nil {
		t.Fatalf("StoreCredentials failed: %v", err)
	}
	if err := creds.StoreTokens("revoked-token", "", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("StoreTokens failed: %v", err)
	}

	if err := manager.Login(context.Background(), "", ""); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if got := server.logins.Load(); got != 1 {
		t.Errorf("Expected one fresh login after rejected restore, saw %d", got)
	}

	headers, _ := manager.AuthHeaders()
	if got := headers.Get("Authorization"); got != "Bearer fresh-token" {
		t.Errorf("Expected fresh token after rejected restore, got %q", got)
	}
}

func TestEnsureAuthenticated_WithoutCredentials(t *testing.T) {
	server := newLoginServer(t)
	manager, _ := newTestManager(t, server.URL)

	err := manager.EnsureAuthenticated(context.Background())
	if !errors.Is(err, gerrors.ErrAuthenticationRequired) {
		t.Fatalf("Expected ErrAuthenticationRequired, got %v", err)
	}
	if got := server.logins.Load(); got != 0 {
		t.Errorf("No credentials means no remote login, saw %d posts", got)
	}
}

func TestEnsureAuthenticated_ConcurrentCallersLoginOnce(t *testing.T) {
	server := newLoginServer(t)
	manager, creds := newTestManager(t, server.URL)

	if err := creds.StoreCredentials("user@example.com", "hunter2"); err != nil {
		t.Fatalf("StoreCredentials failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = manager.EnsureAuthenticated(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Caller %d failed: %v", i, err)
		}
	}
	if got := server.logins.Load(); got != 1 {
		t.Errorf("Concurrent callers must share one remote login, saw %d", got)
	}
}

func TestEnsureAuthenticated_NoopWhenAuthenticated(t *testing.T) {
	server := newLoginServer(t)
	manager, _ := newTestManager(t, server.URL)

	if err := manager.Login(context.Background(), "user@example.com", "hunter2"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	before := server.logins.Load()

	if err := manager.EnsureAuthenticated(context.Background()); err != nil {
		t.Fatalf("EnsureAuthenticated failed: %v", err)
	}
	if got := server.logins.Load(); got != before {
		t.Errorf("Live session must not trigger a login, saw %d extra posts", got-before)
	}
}

func TestHandleAuthError_OneFreshLoginWithoutRestore(t *testing.T) {
	server := newLoginServer(t)
	server.verifyOK = true
	manager, _ := newTestManager(t, server.URL)

	if err := manager.Login(context.Background(), "user@example.com", "hunter2"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	loginsBefore := server.logins.Load()
	verifiesBefore := server.verifies.Load()

	if !manager.HandleAuthError(context.Background()) {
		t.Fatal("Expected recovery login to succeed")
	}
	if got := server.logins.Load() - loginsBefore; got != 1 {
		t.Errorf("Expected exactly one recovery login, saw %d", got)
	}
	if got := server.verifies.Load() - verifiesBefore; got != 0 {
		t.Errorf("Recovery must not try to restore the rejected session, saw %d verify calls", got)
	}
	if manager.State() != Authenticated {
		t.Errorf("Expected Authenticated after recovery, got %v", manager.State())
	}
}

func TestHandleAuthError_FailedRecovery(t *testing.T) {
	server := newLoginServer(t)
	manager, _ := newTestManager(t, server.URL)

	if err := manager.Login(context.Background(), "user@example.com", "hunter2"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	server.loginStatus = http.StatusUnauthorized

	if manager.HandleAuthError(context.Background()) {
		t.Fatal("Expected recovery to fail")
	}
	if _, err := manager.AuthHeaders(); !errors.Is(err, gerrors.ErrAuthenticationRequired) {
		t.Errorf("Failed recovery must clear the token, got %v", err)
	}
}

func TestAuthHeaders_BeforeLogin(t *testing.T) {
	server := newLoginServer(t)
	manager, _ := newTestManager(t, server.URL)

	if _, err := manager.AuthHeaders(); !errors.Is(err, gerrors.ErrAuthenticationRequired) {
		t.Fatalf("Expected ErrAuthenticationRequired, got %v", err)
	}
}

func TestLogout_ClearsSessionAndTokens(t *testing.T) {
	server := newLoginServer(t)
	manager, creds := newTestManager(t, server.URL)

	if err := manager.Login(context.Background(), "user@example.com", "hunter2"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := manager.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if got := server.logouts.Load(); got != 1 {
		t.Errorf("Expected one remote logout call, saw %d", got)
	}
	if manager.State() != LoggedOut {
		t.Errorf("Expected LoggedOut, got %v", manager.State())
	}
	tokens, err := creds.Tokens()
	if err != nil || tokens != nil {
		t.Errorf("Tokens must be gone after logout, got %v, %+v", err, tokens)
	}
}

func TestLogin_CarriesLoginCookies(t *testing.T) {
	mux := http.NewServeMux()
	var sawCookie atomic.Bool
	mux.HandleFunc(PathLogin, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "gd_session", Value: "cookie-1", Path: "/"})
		w.Write([]byte(`{"token":"cookie-token","user_id":1}`))
	})
	mux.HandleFunc(PathLogout, func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("gd_session"); err == nil && c.Value == "cookie-1" {
			sawCookie.Store(true)
		}
		w.Write([]byte(`{}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	manager, _ := newTestManager(t, server.URL)
	if err := manager.Login(context.Background(), "user@example.com", "hunter2"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := manager.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if !sawCookie.Load() {
		t.Error("Login cookie did not ride along on the follow-up request")
	}
}
