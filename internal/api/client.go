package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/glycohq/glyco/internal/audit"
	"github.com/glycohq/glyco/internal/configs"
	gerrors "github.com/glycohq/glyco/internal/errors"
	logger "github.com/glycohq/glyco/internal/logging"
)

const (
	backoffFactor     = 2
	defaultRetryAfter = 60 * time.Second
	bodyExcerptLimit  = 200
	maxResponseBytes  = 4 << 20
)

// Authenticator is what the client needs from the auth layer. auth.Manager
// satisfies it; tests substitute a stub.
type Authenticator interface {
	// EnsureAuthenticated establishes a session if none is live.
	EnsureAuthenticated(ctx context.Context) error

	// AuthHeaders returns the bearer and session headers for a request.
	AuthHeaders() (http.Header, error)

	// HandleAuthError runs one recovery login after a 401 and reports
	// whether it succeeded.
	HandleAuthError(ctx context.Context) bool

	// HTTPClient is the client carrying the login cookie jar.
	HTTPClient() *http.Client
}

// Options tunes the client. Zero values are replaced by the defaults from
// configs.DefaultConfig.
type Options struct {
	BaseURL      string
	Burst        int
	Interval     time.Duration
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Timeout      time.Duration
}

// OptionsFromConfig maps the TOML config onto client options.
func OptionsFromConfig(cfg *configs.Config) Options {
	baseURL := cfg.API.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Options{
		BaseURL:      baseURL,
		Burst:        cfg.Limits.Burst,
		Interval:     time.Duration(cfg.Limits.IntervalMillis) * time.Millisecond,
		MaxRetries:   cfg.Limits.MaxRetries,
		InitialDelay: time.Duration(cfg.Limits.InitialDelayMillis) * time.Millisecond,
		MaxDelay:     time.Duration(cfg.Limits.MaxDelayMillis) * time.Millisecond,
		Timeout:      cfg.RequestTimeout(),
	}
}

// Client dispatches authenticated requests under a token bucket and a
// bounded retry budget.
type Client struct {
	baseURL      string
	auth         Authenticator
	limiter      *rate.Limiter
	auditor      *audit.Log
	log          logger.Logger
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
	timeout      time.Duration
}

// NewClient builds a client over the given authenticator. The limiter
// starts with a full bucket, so a burst of calls proceeds immediately.
func NewClient(opts Options, authn Authenticator, auditor *audit.Log, log logger.Logger) *Client {
	defaults := configs.DefaultConfig()
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Burst <= 0 {
		opts.Burst = defaults.Limits.Burst
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Duration(defaults.Limits.IntervalMillis) * time.Millisecond
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaults.Limits.MaxRetries
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = time.Duration(defaults.Limits.InitialDelayMillis) * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = time.Duration(defaults.Limits.MaxDelayMillis) * time.Millisecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.RequestTimeout()
	}

	return &Client{
		baseURL:      opts.BaseURL,
		auth:         authn,
		limiter:      rate.NewLimiter(rate.Every(opts.Interval), opts.Burst),
		auditor:      auditor,
		log:          log,
		maxRetries:   opts.MaxRetries,
		initialDelay: opts.InitialDelay,
		maxDelay:     opts.MaxDelay,
		timeout:      opts.Timeout,
	}
}

// Get issues a GET against the given API path.
func (c *Client) Get(ctx context.Context, path string) Result {
	return c.Request(ctx, http.MethodGet, path, nil)
}

// Post issues a POST with a JSON body against the given API path.
func (c *Client) Post(ctx context.Context, path string, body any) Result {
	return c.Request(ctx, http.MethodPost, path, body)
}

// Request acquires a rate-limit token, ensures a session, and runs the
// bounded retry loop. Expected failures (auth, rate limit, network) come
// back inside the Result; Request itself never panics or returns an error.
func (c *Client) Request(ctx context.Context, method, path string, body any) Result {
	if path == "" {
		return fail(fmt.Errorf("%w: empty request path", gerrors.ErrValidation))
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fail(fmt.Errorf("%w: request body is not serializable: %v", gerrors.ErrValidation, err))
		}
	}

	// The wait is cooperative: an empty bucket computes the remaining
	// refill time and suspends for exactly that long.
	if err := c.limiter.Wait(ctx); err != nil {
		return fail(fmt.Errorf("%w: cancelled while rate limited: %v", gerrors.ErrNetwork, err))
	}

	if err := c.auth.EnsureAuthenticated(ctx); err != nil {
		return fail(err)
	}

	result := c.dispatch(ctx, method, path, payload)
	status := "ok"
	if !result.Success {
		status = "failed"
	}
	c.auditor.Append(audit.Entry{
		Operation: "request",
		Subject:   method,
		Path:      path,
		Status:    status,
	})
	return result
}

// dispatch is the explicit retry loop. retries counts transient-failure
// retries (429/5xx/network); the single 401 recovery is tracked apart so
// an auth refresh does not eat the transient budget.
func (c *Client) dispatch(ctx context.Context, method, path string, payload []byte) Result {
	retries := 0
	authRetried := false

	for {
		status, body, err := c.do(ctx, method, path, payload)

		switch {
		case err != nil:
			if retries >= c.maxRetries {
				return fail(fmt.Errorf("%w: %v (after %d retries)", gerrors.ErrNetwork, err, retries))
			}
			if !c.backoff(ctx, retries) {
				return fail(fmt.Errorf("%w: cancelled during backoff", gerrors.ErrNetwork))
			}
			retries++

		case status == http.StatusUnauthorized:
			if authRetried || !c.auth.HandleAuthError(ctx) {
				return fail(fmt.Errorf("%w: remote rejected the session", gerrors.ErrSessionExpired))
			}
			authRetried = true

		case status == http.StatusTooManyRequests:
			if retries >= c.maxRetries {
				return fail(fmt.Errorf("%w: gave up after %d retries", gerrors.ErrRateLimited, retries))
			}
			wait := retryAfter(body.header)
			c.log.Infof("Rate limited by remote, waiting %s", wait)
			if !c.sleep(ctx, wait) {
				return fail(fmt.Errorf("%w: cancelled while rate limited", gerrors.ErrRateLimited))
			}
			retries++

		case status == http.StatusRequestTimeout || status >= 500:
			if retries >= c.maxRetries {
				return fail(fmt.Errorf("%w: status %d after %d retries", gerrors.ErrInvalidResponse, status, retries))
			}
			if !c.backoff(ctx, retries) {
				return fail(fmt.Errorf("%w: cancelled during backoff", gerrors.ErrNetwork))
			}
			retries++

		case status < 200 || status > 299:
			return fail(fmt.Errorf("%w: status %d: %s", gerrors.ErrInvalidResponse, status, excerpt(body.data)))

		default:
			if len(body.data) == 0 {
				return succeed(json.RawMessage("null"))
			}
			if !json.Valid(body.data) {
				return fail(fmt.Errorf("%w: response is not valid JSON: %s", gerrors.ErrInvalidResponse, excerpt(body.data)))
			}
			return succeed(json.RawMessage(body.data))
		}
	}
}

// responseBody pairs the drained body with the headers retry handling
// needs after the response is closed.
type responseBody struct {
	data   []byte
	header http.Header
}

// do performs one HTTP attempt under the hard timeout with fresh auth
// headers.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) (int, responseBody, error) {
	headers, err := c.auth.AuthHeaders()
	if err != nil {
		return 0, responseBody{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, responseBody{}, err
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.auth.HTTPClient().Do(req)
	if err != nil {
		return 0, responseBody{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, responseBody{}, err
	}
	return resp.StatusCode, responseBody{data: data, header: resp.Header}, nil
}

// backoff sleeps min(initial·2^attempt, max), honoring cancellation.
func (c *Client) backoff(ctx context.Context, attempt int) bool {
	delay := c.initialDelay
	for i := 0; i < attempt; i++ {
		delay *= backoffFactor
		if delay >= c.maxDelay {
			delay = c.maxDelay
			break
		}
	}
	c.log.Debugf("Retrying after %s (attempt %d)", delay, attempt+1)
	return c.sleep(ctx, delay)
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// retryAfter parses the Retry-After header, defaulting to 60s.
func retryAfter(header http.Header) time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return defaultRetryAfter
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

// excerpt trims a response body for error messages.
func excerpt(body []byte) string {
	if len(body) > bodyExcerptLimit {
		return string(body[:bodyExcerptLimit]) + "..."
	}
	return string(body)
}
