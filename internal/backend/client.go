package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// maxResponseBytes bounds how much of a response body is decoded.
const maxResponseBytes = 4 << 20

// TokenSource yields the bearer token for the current identity.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource for an already verified token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", errors.New("no session token")
	}
	return string(s), nil
}

type Options struct {
	BaseURL string
	// Timeout applies when HTTPClient is nil. Zero means no timeout.
	Timeout    time.Duration
	HTTPClient *http.Client
	UserAgent  string
}

// Client calls the product backend. A Client without a TokenSource can only
// reach unauthenticated endpoints; WithTokens binds it to a session.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	tokens    TokenSource
	validate  *validator.Validate
}

func New(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "careerpath-web"
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		http:      client,
		userAgent: ua,
		validate:  newValidator(),
	}
}

// WithTokens returns a copy of c that authenticates with ts.
func (c *Client) WithTokens(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

// Fetch performs an authenticated request against the backend: it attaches
// the bearer token and returns the raw response. Callers own the body.
func (c *Client) Fetch(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	op := method + " " + path
	if c.tokens == nil {
		return nil, &Error{Op: op, Kind: KindUnauthorized, Err: errors.New("no session")}
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindUnauthorized, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindConfig, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindNetwork, Err: err}
	}
	return resp, nil
}

// call sends an optional JSON body and decodes a JSON response into out
// (which may be nil for 2xx-only endpoints).
func (c *Client) call(ctx context.Context, method, path string, in any, out any) error {
	var (
		body        io.Reader
		contentType string
	)
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return &Error{Op: method + " " + path, Kind: KindValidation, Err: err}
		}
		body = &buf
		contentType = "application/json"
	}
	resp, err := c.Fetch(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	return c.handle(resp, method+" "+path, out)
}

func (c *Client) handle(resp *http.Response, op string, out any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(op, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return &Error{Op: op, Kind: KindDecode, Status: resp.StatusCode, Err: err}
	}
	if err := c.validate.Struct(out); err != nil {
		return &Error{Op: op, Kind: KindDecode, Status: resp.StatusCode, Err: fmt.Errorf("invalid payload: %s", describeValidation(err))}
	}
	return nil
}

type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// statusError maps a non-2xx response to an *Error, keeping the server's own
// message so screens can display it verbatim.
func statusError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	message := extractErrorMessage(raw)
	kind := KindBackend
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = KindUnauthorized
	case http.StatusPaymentRequired, http.StatusTooManyRequests:
		kind = KindQuota
	}
	return &Error{
		Op:      op,
		Kind:    kind,
		Status:  resp.StatusCode,
		Message: message,
		Err:     fmt.Errorf("status %d", resp.StatusCode),
	}
}

func extractErrorMessage(raw []byte) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return ""
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if len(body.Error) > 0 {
		var s string
		if err := json.Unmarshal(body.Error, &s); err == nil {
			return strings.TrimSpace(s)
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body.Error, &nested); err == nil && nested.Message != "" {
			return strings.TrimSpace(nested.Message)
		}
	}
	return strings.TrimSpace(body.Message)
}
