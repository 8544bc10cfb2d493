package grn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Colors for terminal output
const (
	Red    = "\033[0;31m"
	Green  = "\033[0;32m"
	Yellow = "\033[1;33m"
	Blue   = "\033[0;34m"
	Cyan   = "\033[0;36m"
	Reset  = "\033[0m"
)

// PrefAPIBase is the shared (not tab-scoped) key holding the base URL override.
const PrefAPIBase = "grn_api_base"

// Client handles API requests
type Client struct {
	Config     *Config
	HTTPClient *http.Client
	Prefs      SessionStorage // shared preferences, may be nil
	Logger     *logrus.Logger
}

// NewClient creates a new API client. The cookie jar keeps the backend's auth
// cookies for every later request.
func NewClient(config *Config, prefs SessionStorage, logger *logrus.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	if logger == nil {
		logger = NewLogger(io.Discard, "error")
	}
	return &Client{
		Config: config,
		HTTPClient: &http.Client{
			Timeout: config.HTTPTimeout,
			Jar:     jar,
		},
		Prefs:  prefs,
		Logger: logger,
	}
}

// IsValidAbsoluteURL reports whether v is an absolute http(s) URL.
func IsValidAbsoluteURL(v string) bool {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
		return false
	}
	u, err := url.Parse(v)
	if err != nil {
		return false
	}
	return u.Host != ""
}

// ResolveBaseURL picks the stored override when valid, else fallback when
// valid, else DefaultAPIBase. The result always ends with a slash.
func ResolveBaseURL(stored, fallback string) string {
	chosen := DefaultAPIBase
	switch {
	case IsValidAbsoluteURL(stored):
		chosen = strings.TrimSpace(stored)
	case IsValidAbsoluteURL(fallback):
		chosen = strings.TrimSpace(fallback)
	}
	if !strings.HasSuffix(chosen, "/") {
		chosen += "/"
	}
	return chosen
}

// BaseURL returns the API base in effect
func (c *Client) BaseURL(ctx context.Context) string {
	var stored string
	if c.Prefs != nil {
		v, ok, err := c.Prefs.Get(ctx, PrefAPIBase)
		if err != nil {
			c.Logger.WithError(err).Warn("cannot read api base preference")
		} else if ok {
			stored = v
		}
	}
	return ResolveBaseURL(stored, c.Config.APIBase)
}

// SetBaseURL stores an override. Invalid values are rejected so the stored
// preference never silently falls back.
func (c *Client) SetBaseURL(ctx context.Context, value string) error {
	if !IsValidAbsoluteURL(value) {
		return validationError("api-base", fmt.Sprintf("not an absolute http(s) URL: %q", value))
	}
	if c.Prefs == nil {
		return fmt.Errorf("no preference storage configured")
	}
	return c.Prefs.Set(ctx, PrefAPIBase, strings.TrimSpace(value))
}

// ResetBaseURL removes the stored override
func (c *Client) ResetBaseURL(ctx context.Context) error {
	if c.Prefs == nil {
		return nil
	}
	return c.Prefs.Remove(ctx, PrefAPIBase)
}

// envelope is the part of every response the client inspects itself
type envelope struct {
	Status interface{}     `json:"status"`
	Error  json.RawMessage `json:"error"`
}

// Request makes an API request and decodes a successful payload into out
func (c *Client) Request(ctx context.Context, method, path string, params url.Values, body, out interface{}) error {
	return withFallback(c.request(ctx, method, path, params, body, out), "Request failed")
}

func (c *Client) request(ctx context.Context, method, path string, params url.Values, body, out interface{}) error {
	raw, status, err := c.send(ctx, method, path, params, body)
	if err != nil {
		return err
	}

	if status < 200 || status > 299 {
		msg, isJSON := errorDetail(raw)
		if msg == "" && !isJSON {
			msg = fmt.Sprintf("Request failed (%d)", status)
		}
		// an empty message takes the operation's fallback text
		return &Error{Kind: KindTransport, Op: path, Message: msg, StatusCode: status}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &Error{
			Kind:       KindTransport,
			Op:         path,
			Message:    fmt.Sprintf("failed to parse response: %s", string(raw)),
			StatusCode: status,
			Err:        err,
		}
	}
	if ok, _ := env.Status.(bool); !ok {
		return &Error{Kind: KindDomain, Op: path, Message: rawMessage(env.Error), StatusCode: status}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &Error{
				Kind:       KindTransport,
				Op:         path,
				Message:    fmt.Sprintf("failed to parse response: %v", err),
				StatusCode: status,
				Err:        err,
			}
		}
	}
	return nil
}

// send issues the request and returns the raw body and status code
func (c *Client) send(ctx context.Context, method, path string, params url.Values, body interface{}) ([]byte, int, error) {
	base, err := url.Parse(c.BaseURL(ctx))
	if err != nil {
		return nil, 0, wrapTransport(path, err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, 0, wrapTransport(path, err)
	}
	fullURL := base.ResolveReference(ref)
	if len(params) > 0 {
		fullURL.RawQuery = params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL.String(), reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodGet {
		req.Header.Set("Cache-Control", "no-store")
	}

	log := c.Logger.WithFields(logrus.Fields{
		"module":    "client",
		"method":    method,
		"path":      path,
		"requestId": requestID,
	})

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return nil, 0, wrapTransport(path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, wrapTransport(path, fmt.Errorf("failed to read response: %w", err))
	}

	log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("request done")

	return respBody, resp.StatusCode, nil
}

// errorDetail extracts the "error" field of a JSON body, falling back to the
// raw text when the body is not JSON. isJSON reports a JSON body.
func errorDetail(raw []byte) (msg string, isJSON bool) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		return rawMessage(env.Error), true
	}
	return text, false
}

// rawMessage renders an "error" field that may be a string or any JSON value
func rawMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
