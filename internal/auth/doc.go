// Package auth owns the session lifecycle against the remote health API.
//
// # State Machine
//
// A Manager moves through four states:
//
//	LoggedOut → Authenticating → Authenticated → {SessionExpired, LoggedOut}
//
// Login first attempts a session restore: if an unexpired token is on
// disk, it is checked against the lightweight session-verify endpoint and
// adopted without a fresh remote login. Only when restore fails does the
// manager POST credentials to the login endpoint.
//
// # Remote Quirks
//
// The login endpoint answers in two shapes, a bare {token, user_id} body
// and a wrapped {success, data:{token, sessionId, userId}} body. Both are
// accepted; the wrapped shape wins when present. The remote also rejects
// authenticated calls that lack the cookies set during login, even when
// the bearer token is valid, so the manager owns an http.Client with a
// cookie jar and every authenticated call must go through that client.
//
// # Concurrency
//
// EnsureAuthenticated serializes concurrent callers behind one mutex, so
// two goroutines racing while logged out still produce exactly one remote
// login. HandleAuthError performs exactly one recovery login after a 401;
// whether to retry the original request is the caller's decision.
package auth
