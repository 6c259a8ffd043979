// Package supabase talks to a Supabase project: GoTrue for identity over
// plain JSON requests and PostgREST for the task table through postgrest-go.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single request when Options.Timeout is unset.
const DefaultTimeout = 10 * time.Second

// Options configures a Client.
type Options struct {
	URL     string
	AnonKey string
	Table   string
	Timeout time.Duration

	// HTTPClient overrides the client used for GoTrue requests.
	HTTPClient *http.Client
}

// Client holds the connection settings shared by AuthClient and TaskStore.
type Client struct {
	base    *url.URL
	anonKey string
	table   string
	timeout time.Duration
	http    *http.Client
	log     zerolog.Logger
}

// New validates opts and returns a Client.
func New(opts Options, log zerolog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse supabase url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("supabase url %q must be absolute", opts.URL)
	}
	if opts.AnonKey == "" {
		return nil, errors.New("supabase anon key is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	table := opts.Table
	if table == "" {
		table = "todos"
	}

	return &Client{
		base:    base,
		anonKey: opts.AnonKey,
		table:   table,
		timeout: timeout,
		http:    hc,
		log:     log.With().Str("component", "supabase").Logger(),
	}, nil
}

// APIError is a non-2xx response from GoTrue.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %s (%s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("supabase: %s (status %d)", e.Message, e.Status)
}

// errorBody covers the GoTrue error shapes: error/error_description from the
// token endpoint, code/error_code/msg elsewhere, and message from the gateway.
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Message          string          `json:"message"`
	Msg              string          `json:"msg"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// Display returns the backend's message without status or code.
func (e *APIError) Display() string {
	return e.Message
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		apiErr.Message = strings.TrimSpace(string(data))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	var code string
	if err := json.Unmarshal(body.Code, &code); err == nil {
		apiErr.Code = code
	}
	if body.ErrorCode != "" {
		apiErr.Code = body.ErrorCode
	}
	if apiErr.Code == "" {
		apiErr.Code = body.Error
	}

	switch {
	case body.Message != "":
		apiErr.Message = body.Message
	case body.Msg != "":
		apiErr.Message = body.Msg
	case body.ErrorDescription != "":
		apiErr.Message = body.ErrorDescription
	case body.Error != "":
		apiErr.Message = body.Error
	default:
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}

// request describes one call against the project.
type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
}

// do sends req with hc and decodes a 2xx JSON body into out (when non-nil).
func (c *Client) do(ctx context.Context, hc *http.Client, req request, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + req.path
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("apikey", c.anonKey)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := hc.Do(httpReq)
	if err != nil {
		c.log.Debug().Ctx(ctx).Err(err).Str("method", req.method).Str("path", req.path).Msg("request failed")
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Ctx(ctx).
		Str("method", req.method).
		Str("path", req.path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
