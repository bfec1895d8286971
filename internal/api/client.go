package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pders01/aihub/internal/content"
	"github.com/pders01/aihub/internal/debuglog"
)

const (
	DefaultUserAgent = "aihub/1.0 (AI Tool Hub terminal client; github.com/pders01/aihub)"
	DefaultTimeout   = 10 * time.Second

	maxBodySize = 8 << 20
)

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Sessions   SessionStore
	UserAgent  string
	// Retries is the number of extra attempts for GET requests that fail
	// at the transport level. Zero disables retrying.
	Retries   int
	RetryWait time.Duration
}

// Client talks to the AI Tool Hub REST backend. It attaches the bearer
// token from Sessions and clears the session on a 401.
type Client struct {
	baseURL string
	http    *http.Client
	// sessionMu orders writes to sessions so a late 401 cannot clear a
	// session saved after its request was sent.
	sessionMu sync.Mutex
	sessions  SessionStore
	userAgent string
	retries   int
	retryWait time.Duration
	log       *debuglog.FieldLogger
}

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("api base URL is required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = NewMemorySessions(nil)
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	wait := opts.RetryWait
	if wait <= 0 {
		wait = 200 * time.Millisecond
	}
	return &Client{
		baseURL:   base,
		http:      hc,
		sessions:  sessions,
		userAgent: ua,
		retries:   opts.Retries,
		retryWait: wait,
		log:       debuglog.WithFields(map[string]any{"component": "api"}),
	}, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

// Session returns the stored session, or nil when signed out.
func (c *Client) Session() (*content.Session, error) {
	return c.sessions.Load()
}

type call struct {
	method  string
	path    string
	payload any
	// credentials marks the login call, where a 401 means bad credentials
	// rather than an expired session.
	credentials bool
}

// send performs c and returns the response body of a 2xx response. A 204
// yields a nil body. GETs are retried on transport errors.
func (c *Client) send(ctx context.Context, cl call) ([]byte, error) {
	if cl.method != http.MethodGet || c.retries <= 0 {
		return c.attempt(ctx, cl)
	}

	var body []byte
	op := func() error {
		b, err := c.attempt(ctx, cl)
		if err != nil {
			if !transient(ctx, err) {
				return backoff.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryWait
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.retries)), ctx)

	err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		c.log.Warnf("GET %s failed, retrying in %s: %v", cl.path, wait, err)
	})
	return body, err
}

func transient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var ae *AuthError
	var se *StatusError
	if errors.As(err, &ae) {
		return false
	}
	if errors.As(err, &se) {
		return se.Status == http.StatusBadGateway ||
			se.Status == http.StatusServiceUnavailable ||
			se.Status == http.StatusGatewayTimeout
	}
	return true
}

func (c *Client) attempt(ctx context.Context, cl call) ([]byte, error) {
	var reqBody io.Reader
	if cl.payload != nil {
		data, err := json.Marshal(cl.payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	session, err := c.sessions.Load()
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	var token string
	if session.Valid() {
		token = session.Token
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := c.log.With("request_id", requestID)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Debugf("%s %s failed: %v", cl.method, cl.path, err)
		return nil, fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	log.Debugf("%s %s -> %d in %s", cl.method, cl.path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusUnauthorized && !cl.credentials:
		if clearErr := c.clearSession(token); clearErr != nil {
			log.Errorf("clearing rejected session: %v", clearErr)
		}
		return nil, &AuthError{Status: resp.StatusCode, Message: errorMessage(body, resp.StatusCode)}
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	default:
		return nil, &StatusError{Status: resp.StatusCode, Message: errorMessage(body, resp.StatusCode)}
	}
}

// clearSession drops the stored session if it still carries token, the one
// a rejected request was sent with. A session saved since then is kept.
func (c *Client) clearSession(token string) error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	current, err := c.sessions.Load()
	if err != nil {
		return err
	}
	if current == nil || current.Token != token {
		c.log.Debugf("401 for a superseded session, keeping the current one")
		return nil
	}
	return c.sessions.Clear()
}

func (c *Client) saveSession(s *content.Session) error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	return c.sessions.Save(s)
}

// getJSON fetches path and hands the body to decode.
func (c *Client) getJSON(ctx context.Context, path string, decode func([]byte) error) error {
	body, err := c.send(ctx, call{method: http.MethodGet, path: path})
	if err != nil {
		return err
	}
	if err := decode(body); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
