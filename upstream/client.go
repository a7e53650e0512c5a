package upstream

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
)

var (
	// ErrTimeout: the origin did not answer before the deadline.
	ErrTimeout = errors.New("upstream timed out")
	// ErrUnreachable: connection refused, DNS failure, any transport error.
	ErrUnreachable = errors.New("upstream unreachable")
	// ErrMalformed: a body that is not the JSON the origin promised.
	ErrMalformed = errors.New("bad upstream response")
)

// Error is a non-2xx answer from the origin. Status and message are
// propagated to the caller as-is.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream %d: %s", e.Status, e.Message)
}

// Client talks to the REST origin. It is stateless aside from configuration
// and safe for concurrent use.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
}

func NewClient(base string, timeout time.Duration) *Client {
	return &Client{
		base:    strings.TrimRight(base, "/"),
		http:    &http.Client{},
		timeout: timeout,
	}
}

// Request is one pass-through call. RawQuery is forwarded verbatim so the
// origin sees the caller's parameters unfiltered and in order. Authorization
// carries the caller's header value unchanged.
type Request struct {
	Method        string
	Path          string
	RawQuery      string
	Body          io.Reader
	ContentType   string
	Authorization string
}

// Do makes exactly one attempt against the origin and classifies the outcome:
// success returns the raw JSON body and status; failures come back as
// ErrTimeout, ErrUnreachable, ErrMalformed or *Error.
func (c *Client) Do(ctx context.Context, r Request) (json.RawMessage, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.base + r.Path
	if r.RawQuery != "" {
		u += "?" + r.RawQuery
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u, r.Body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	if r.Authorization != "" {
		req.Header.Set("Authorization", r.Authorization)
	}

	res, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, 0, fmt.Errorf("%w: %s %s", ErrTimeout, r.Method, r.Path)
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		// the deadline can also expire while the body streams in
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, 0, fmt.Errorf("%w: %s %s", ErrTimeout, r.Method, r.Path)
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		if res.StatusCode >= 400 {
			return nil, 0, &Error{Status: res.StatusCode, Message: fallbackMessage(res.StatusCode)}
		}
		return nil, res.StatusCode, nil
	}
	if !json.Valid(body) {
		return nil, 0, fmt.Errorf("%w: status %d", ErrMalformed, res.StatusCode)
	}

	if res.StatusCode >= 400 {
		return nil, 0, &Error{Status: res.StatusCode, Message: errorMessage(body, res.StatusCode)}
	}
	return body, res.StatusCode, nil
}

// errorMessage digs the origin's own wording out of an error body, falling
// back to a generic line when there is none.
func errorMessage(body []byte, status int) string {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	return fallbackMessage(status)
}

func fallbackMessage(status int) string {
	if t := http.StatusText(status); t != "" {
		return t
	}
	return "upstream request failed"
}

// UnwrapList flattens the origin's pagination envelope
// {"data": [...], "pagination": {...}} into the bare collection. Anything
// else passes through untouched.
func UnwrapList(raw json.RawMessage) json.RawMessage {
	var env struct {
		Data       json.RawMessage `json:"data"`
		Pagination json.RawMessage `json:"pagination"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw
	}
	if len(env.Data) == 0 || len(env.Pagination) == 0 {
		return raw
	}
	return env.Data
}
