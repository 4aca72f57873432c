package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	gerrors "github.com/glycohq/glyco/internal/errors"
)

// Auth endpoint paths on the remote API.
const (
	PathLogin         = "/api/v2/auth/login"
	PathLogout        = "/api/v2/auth/logout"
	PathSessionVerify = "/api/v2/auth/session"
)

// ClientName is sent as the client field of the login payload.
const ClientName = "glyco-cli"

// loginRequest is the POST body for a fresh login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Device   string `json:"device"`
	Client   string `json:"client"`
}

// loginResponse covers both shapes the login endpoint is known to return:
// a bare {token, user_id} body and a wrapped {success, data:{...}} body.
// Neither is treated as canonical; the wrapped shape wins when present.
type loginResponse struct {
	Token   string     `json:"token"`
	UserID  json.Number `json:"user_id"`
	Success bool       `json:"success"`
	Data    *loginData `json:"data"`
}

type loginData struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

// remoteLogin performs the fresh login POST, adopts the returned token and
// session ID, and persists the session with a fixed validity window. The
// http.Client's jar captures the login cookies the remote insists on for
// every later call. mu must be held.
func (m *Manager) remoteLogin(ctx context.Context, email, password string) error {
	payload := loginRequest{
		Username: email,
		Password: password,
		Device:   fmt.Sprintf("%s (%s)", m.device.Name, m.device.ID),
		Client:   ClientName,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal login payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+PathLogin, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: login request failed: %v", gerrors.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: remote rejected the credentials", gerrors.ErrAuthenticationFailed)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: login returned status %d", gerrors.ErrInvalidResponse, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: failed to read login response: %v", gerrors.ErrNetwork, err)
	}

	var parsed loginResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("%w: login response is not valid JSON", gerrors.ErrInvalidResponse)
	}

	token, sessionID := parsed.Token, ""
	if parsed.Data != nil && parsed.Data.Token != "" {
		token = parsed.Data.Token
		sessionID = parsed.Data.SessionID
	}
	if token == "" {
		return fmt.Errorf("%w: login response carried no token", gerrors.ErrInvalidResponse)
	}

	m.accessToken = token
	m.sessionID = sessionID

	expiresAt := time.Now().Add(sessionValidity)
	if err := m.creds.StoreTokens(token, sessionID, expiresAt); err != nil {
		// The session works for this process even if persisting failed.
		m.log.WarnfAlways("Failed to persist session tokens, next run will log in again: %v", err)
	}
	return nil
}

// verifySession checks the current in-memory token against the lightweight
// verify endpoint. mu must be held.
func (m *Manager) verifySession(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+PathSessionVerify, nil)
	if err != nil {
		return fmt.Errorf("failed to build verify request: %w", err)
	}
	m.applyAuthLocked(req)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: verify request failed: %v", gerrors.ErrNetwork, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: verify returned status %d", gerrors.ErrSessionExpired, resp.StatusCode)
	}
	return nil
}

// remoteLogout tells the remote to invalidate the session. Errors are
// reported to the caller, who swallows them: local cleanup always runs.
// mu must be held.
func (m *Manager) remoteLogout(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+PathLogout, nil)
	if err != nil {
		return err
	}
	m.applyAuthLocked(req)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("logout returned status %d", resp.StatusCode)
	}
	return nil
}

// applyAuthLocked sets the bearer and session headers on a request built
// against the manager's own client. mu must be held.
func (m *Manager) applyAuthLocked(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+m.accessToken)
	if m.sessionID != "" {
		req.Header.Set("X-Session-ID", m.sessionID)
	}
}
