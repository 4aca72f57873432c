package api

import (
	"encoding/json"
	"time"
)

// Result is the single discriminated outcome type for remote requests.
// Exactly one of Data and Err is meaningful, selected by Success.
type Result struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Err       error           `json:"-"`
	Timestamp time.Time       `json:"timestamp"`
}

// ErrorString returns the error text, or "" on success. Kept for callers
// serializing results.
func (r Result) ErrorString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Decode unmarshals the payload into out. Calling it on a failed result
// returns the result's error.
func (r Result) Decode(out any) error {
	if r.Err != nil {
		return r.Err
	}
	return json.Unmarshal(r.Data, out)
}

func succeed(data json.RawMessage) Result {
	return Result{Success: true, Data: data, Timestamp: time.Now().UTC()}
}

func fail(err error) Result {
	return Result{Success: false, Err: err, Timestamp: time.Now().UTC()}
}
