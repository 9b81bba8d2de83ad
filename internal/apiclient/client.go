// Package apiclient wraps outbound calls to the remote REST API.
//
// Send never returns a Go error: network failures, non-2xx replies and
// malformed bodies are all folded into a Result with Success=false.
package apiclient

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

	"github.com/and161185/appealkit/internal/errs"
	u "github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// Generic messages for failures that carry no server text.
const (
	MsgNetwork         = "network error: unable to reach server"
	MsgInvalidResponse = "invalid response from server"
	MsgEncode          = "failed to prepare request"
)

// RequestIDHeader is attached to every outbound request.
const RequestIDHeader = "X-Request-ID"

// TokenSource yields the current bearer token, or "" when there is none.
type TokenSource interface {
	Token() string
}

// Result is the normalized outcome of one API call.
type Result struct {
	Success bool
	Data    json.RawMessage
	Error   string
	Status  int // 0 when the server was never reached
}

// Err returns nil for a successful result, otherwise an *Error classified by status.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Status: r.Status, Message: r.Error, Kind: kindFor(r.Status)}
}

// Error is a failed Result in error form. Message is the server text verbatim.
type Error struct {
	Status  int
	Message string
	Kind    error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func kindFor(status int) error {
	switch {
	case status == 0:
		return errs.ErrTransport
	case status == http.StatusUnauthorized:
		return errs.ErrUnauthorized
	case status == http.StatusForbidden:
		return errs.ErrForbidden
	case status == http.StatusNotFound:
		return errs.ErrNotFound
	default:
		return errs.ErrRemote
	}
}

// Client sends JSON requests to the API rooted at baseURL.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithTimeout sets a whole-request timeout; zero means none.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.http.Timeout = d } }

// WithTokenSource wires the bearer token provider.
func WithTokenSource(ts TokenSource) Option { return func(c *Client) { c.tokens = ts } }

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New constructs a Client. baseURL must not end with a slash; one is trimmed if present.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetTokenSource wires the token provider after construction. The session
// store needs a client and the client needs the store, so one side is late.
func (c *Client) SetTokenSource(ts TokenSource) { c.tokens = ts }

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Send issues a JSON request. body may be nil.
func (c *Client) Send(ctx context.Context, endpoint, method string, body any) Result {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.log.Error("marshal request body", zap.String("endpoint", endpoint), zap.Error(err))
			return Result{Error: MsgEncode}
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, rdr)
	if err != nil {
		c.log.Error("build request", zap.String("endpoint", endpoint), zap.Error(err))
		return Result{Error: MsgNetwork}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, endpoint)
}

func (c *Client) do(req *http.Request, endpoint string) Result {
	req.Header.Set("Accept", "application/json")
	if tok := c.bearer(req.Context()); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rid, _ := u.NewV4()
	req.Header.Set(RequestIDHeader, rid.String())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("api request failed",
			zap.String("method", req.Method),
			zap.String("endpoint", endpoint),
			zap.String("request_id", rid.String()),
			zap.Error(err),
		)
		return Result{Error: MsgNetwork}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	res := normalize(resp.StatusCode, raw, err)

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", time.Since(start)),
		zap.String("request_id", rid.String()),
	}
	if res.Success {
		c.log.Debug("api", fields...)
	} else {
		c.log.Warn("api", append(fields, zap.String("error", res.Error))...)
	}
	return res
}

func (c *Client) bearer(ctx context.Context) string {
	if tok, ok := bearerFrom(ctx); ok {
		return tok
	}
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// normalize turns a raw HTTP reply into a Result.
func normalize(status int, raw []byte, readErr error) Result {
	if readErr != nil {
		return Result{Status: status, Error: MsgInvalidResponse}
	}
	ok := status >= 200 && status < 300
	trimmed := bytes.TrimSpace(raw)

	if len(trimmed) == 0 {
		if ok {
			return Result{Success: true, Status: status}
		}
		return Result{Status: status, Error: fmt.Sprintf("HTTP %d", status)}
	}
	if !json.Valid(trimmed) {
		if ok {
			return Result{Status: status, Error: MsgInvalidResponse}
		}
		return Result{Status: status, Error: fmt.Sprintf("HTTP %d", status)}
	}
	if !ok {
		return Result{Status: status, Error: errorMessage(trimmed, status)}
	}

	// {"success": false, ...} with a 2xx status is still a failure.
	var env struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if json.Unmarshal(trimmed, &env) == nil && env.Success != nil {
		if !*env.Success {
			return Result{Status: status, Error: errorMessage(trimmed, status)}
		}
		if len(env.Data) > 0 {
			return Result{Success: true, Status: status, Data: env.Data}
		}
	}
	return Result{Success: true, Status: status, Data: json.RawMessage(trimmed)}
}

// errorMessage extracts the server-supplied text from an error body.
func errorMessage(body []byte, status int) string {
	var e struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
		Errors  []struct {
			Msg     string `json:"msg"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Message != "" {
			return e.Message
		}
		if s, ok := e.Error.(string); ok && s != "" {
			return s
		}
		for _, it := range e.Errors {
			if it.Msg != "" {
				return it.Msg
			}
			if it.Message != "" {
				return it.Message
			}
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}

// Decode converts a Result into a typed value using conv. Failed results are
// returned as errors; conversion failures are reported as transport errors.
func Decode[T any](r Result, conv func(json.RawMessage) (T, error)) (T, error) {
	var zero T
	if err := r.Err(); err != nil {
		return zero, err
	}
	v, err := conv(r.Data)
	if err != nil {
		return zero, &Error{Status: r.Status, Message: MsgInvalidResponse, Kind: errors.Join(errs.ErrTransport, err)}
	}
	return v, nil
}
