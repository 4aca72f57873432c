package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Entry represents a single audit log entry. Identifier fields carry only
// crypto.HashForAudit digests, never raw emails or tokens.
type Entry struct {
	Timestamp string `json:"ts"`      // RFC3339 with microseconds.
	Operation string `json:"op"`      // Operation name.
	Subject   string `json:"subject"` // Hashed identifier the operation acted on.

	// Optional fields depending on operation.
	Status  string `json:"status,omitempty"`  // ok / failed.
	Backend string `json:"backend,omitempty"` // For key operations: native/file.
	Path    string `json:"path,omitempty"`    // For requests: remote API path.
	Detail  string `json:"detail,omitempty"`  // Short free-form context, no secrets.
}

// Log appends entries to a JSON Lines file.
type Log struct {
	path string
}

// New returns a Log writing to the given path.
func New(path string) *Log {
	return &Log{path: path}
}

// Append writes an entry to the audit log.
// If logging fails, the entry is dropped. Operations should not fail just
// because audit logging failed.
func (l *Log) Append(entry Entry) {
	if l == nil || l.path == "" {
		return
	}

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return
	}

	// #nosec G306 -- the log holds only hashed identifiers.
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}

// Entries reads all entries from the audit log.
// Returns an empty slice if the log doesn't exist.
func (l *Log) Entries() ([]Entry, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Skip malformed entries.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
