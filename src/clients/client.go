// Package clients talks to the Tradier and Webull REST APIs.
package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/goccy/go-json"
	"golang.org/x/net/publicsuffix"

	"github.com/username/optionledger/backend/src/logger"
)

var (
	ErrNotConfigured       = errors.New("api client not configured")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrNoQuote             = errors.New("no quote in upstream response")
)

const (
	defaultTimeout       = 10 * time.Second
	defaultOrderTimeout  = 30 * time.Second
	defaultRetryInterval = 250 * time.Millisecond
	maxErrorBodyBytes    = 512
)

// Options configures a REST client.
type Options struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration // quotes and chains
	OrderTimeout  time.Duration
	MaxRetries    uint
	RetryInterval time.Duration // first backoff delay
	HTTPClient    *http.Client
}

type restClient struct {
	name       string
	opts       Options
	httpClient *http.Client
}

func newRestClient(name string, opts Options) *restClient {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.OrderTimeout <= 0 {
		opts.OrderTimeout = defaultOrderTimeout
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 1
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	httpClient := opts.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			logger.ForUpstream(name).Error("Failed to create cookie jar", "error", err)
		}
		httpClient = &http.Client{Jar: jar}
	}

	return &restClient{name: name, opts: opts, httpClient: httpClient}
}

// Configured reports whether an API key is set.
func (c *restClient) Configured() bool {
	return c.opts.APIKey != ""
}

// statusError is a non-2xx answer from the upstream.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// getJSON performs a GET with exponential backoff and decodes the body into out.
func (c *restClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if !c.Configured() {
		return fmt.Errorf("%w: %s api key missing", ErrNotConfigured, c.name)
	}

	endpoint := c.opts.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.RetryInterval

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		return c.do(ctx, http.MethodGet, endpoint, nil, c.opts.Timeout)
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(c.opts.MaxRetries))
	if err != nil {
		logger.ForUpstream(c.name).Warn("Upstream request failed", "path", path, "error", err)
		return fmt.Errorf("%w: %s %s: %v", ErrUpstreamUnavailable, c.name, path, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s %s: decoding response: %v", ErrUpstreamUnavailable, c.name, path, err)
	}
	return nil
}

// postJSON sends payload once. Orders are not idempotent, so there is no retry.
func (c *restClient) postJSON(ctx context.Context, path string, payload, out any) error {
	if !c.Configured() {
		return fmt.Errorf("%w: %s api key missing", ErrNotConfigured, c.name)
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", c.name, err)
	}

	body, err := c.do(ctx, http.MethodPost, c.opts.BaseURL+path, encoded, c.opts.OrderTimeout)
	if err != nil {
		logger.ForUpstream(c.name).Warn("Upstream request failed", "path", path, "error", err)
		return fmt.Errorf("%w: %s %s: %v", ErrUpstreamUnavailable, c.name, path, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s %s: decoding response: %v", ErrUpstreamUnavailable, c.name, path, err)
	}
	return nil
}

// do runs one attempt. Errors that retrying cannot fix are marked permanent.
func (c *restClient) do(ctx context.Context, method, endpoint string, payload []byte, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > maxErrorBodyBytes {
			snippet = snippet[:maxErrorBodyBytes]
		}
		statusErr := &statusError{status: resp.StatusCode, body: strings.TrimSpace(snippet)}
		if retryable(resp.StatusCode) {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}
	return body, nil
}
