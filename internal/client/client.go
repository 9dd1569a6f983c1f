package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yukikurage/standup-board/internal/constants"
	apierrors "github.com/yukikurage/standup-board/internal/errors"
)

// Client talks to the board collaborator over its REST API. Every call is
// bounded by the configured timeout; any failure comes back as a
// *apierrors.NetworkError.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	headers    http.Header
	logger     *log.Logger
}

type Option func(*Client)

// WithTimeout bounds every request. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithHeader adds a header to every request, e.g. an anti-forgery token
// supplied by the auth layer.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithLogger logs every request
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client for the collaborator at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    constants.DefaultRequestTimeout,
		headers:    make(http.Header),
		logger:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorBody covers both the collaborator's APIError shape and the
// {success:false, errors:...} form answers.
type errorBody struct {
	Message string      `json:"message"`
	Error   string      `json:"error"`
	Details interface{} `json:"details"`
	Errors  interface{} `json:"errors"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	if body == nil {
		body = struct{}{}
	}
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	netErr := func(status int, err error) *apierrors.NetworkError {
		return &apierrors.NetworkError{Method: method, Path: path, Status: status, Err: err}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		ne := netErr(0, err)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			ne.Timeout = true
		}
		c.logger.Printf("%s %s failed after %s: %v", method, path, time.Since(started), err)
		return ne
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		ne := netErr(resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			ne.Timeout = true
		}
		return ne
	}
	c.logger.Printf("%s %s -> %d (%s)", method, path, resp.StatusCode, time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ne := netErr(resp.StatusCode, nil)
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			switch {
			case eb.Errors != nil:
				ne.Errors = eb.Errors
			case eb.Details != nil:
				ne.Errors = eb.Details
			}
			if msg := firstNonEmpty(eb.Message, eb.Error); msg != "" {
				ne.Err = errors.New(msg)
			}
		}
		return ne
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return netErr(resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
