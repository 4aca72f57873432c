// Package audit provides audit trail logging for glyco operations.
//
// Every significant operation (setup, login, session restore, remote
// request, reset, etc.) is recorded in a local audit log so the user can
// see what the access layer did on their behalf and when.
//
// # Log Format
//
// The audit log is stored as JSON Lines (one JSON object per line) at:
//
//	<config dir>/glyco/audit.jsonl
//
// Each entry contains:
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - Operation name
//   - A hashed subject identifier (crypto.HashForAudit output)
//   - Operation-specific details (status, backend, request path)
//
// The log is plaintext on purpose: it must stay readable when the master
// key is gone, so it never contains raw identifiers or secrets. Anything
// user-identifying goes through HashForAudit first.
//
// # Usage
//
//	log := audit.New(settings.AuditLogPath)
//	log.Append(audit.Entry{
//	    Operation: "login",
//	    Subject:   crypto.HashForAudit(email),
//	    Status:    "ok",
//	})
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error. Operations should never
// fail just because audit logging failed.
//
// # Reading Logs
//
// Use Entries() to parse the audit log for display or analysis.
// Malformed entries are silently skipped to handle partial writes.
package audit
