// Package client fetches course block maps from an Open edX LMS.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

// BlocksPath is the course blocks listing endpoint, relative to the LMS root.
const BlocksPath = "/api/courses/v1/blocks/"

// DefaultTimeout bounds a single fetch.
const DefaultTimeout = 30 * time.Second

// MaxResponseSize is the max bytes read from a blocks response (64MB).
const MaxResponseSize = 64 * 1024 * 1024

// RequestedFields are the block fields asked of the server.
var RequestedFields = []string{"children", "display_name", "type", "block_id", "lms_web_url", "student_view_url", "graded", "format"}

var (
	// ErrUnauthorized means the server rejected the configured credentials.
	ErrUnauthorized = errors.New("not authorized to list course blocks")
	// ErrNotFound means the course id is unknown to the server.
	ErrNotFound = errors.New("course not found")
)

// StatusError carries an unexpected HTTP status from the server.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("course blocks api returned status: %s", e.Status)
}

// Client talks to the course blocks endpoint.
// Identical concurrent fetches share one round trip.
type Client struct {
	baseURL       string
	token         string
	sessionCookie string
	username      string
	http          *http.Client
	logger        *zap.Logger
	group         singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends the token as a JWT Authorization header.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithSessionCookie sends an LMS session cookie with every request.
func WithSessionCookie(value string) Option {
	return func(c *Client) {
		c.sessionCookie = value
	}
}

// WithUsername scopes the blocks listing to a user's view of the course.
func WithUsername(username string) Option {
	return func(c *Client) {
		c.username = username
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the LMS at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BlocksURL builds the listing URL for a course, optionally asking the
// server to leave out some block types.
func (c *Client) BlocksURL(courseID string, exclude []string) string {
	q := url.Values{}
	q.Set("course_id", courseID)
	q.Set("all_blocks", "true")
	q.Set("depth", "all")
	q.Set("requested_fields", strings.Join(RequestedFields, ","))
	if c.username != "" {
		q.Set("username", c.username)
	}
	if len(exclude) > 0 {
		q.Set("exclude_block_types", strings.Join(exclude, ","))
	}
	return c.baseURL + BlocksPath + "?" + q.Encode()
}

// FetchBlocks retrieves the flat block map for courseID.
func (c *Client) FetchBlocks(ctx context.Context, courseID string, exclude []string) (*model.FlatBlockMap, error) {
	if courseID == "" {
		return nil, fmt.Errorf("course id is required")
	}
	target := c.BlocksURL(courseID, exclude)

	// The shared request outlives any one caller giving up; the http
	// client timeout still bounds it. Each caller waits on its own ctx.
	ch := c.group.DoChan(target, func() (interface{}, error) {
		return c.fetch(context.WithoutCancel(ctx), target)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch course blocks: %w", ctx.Err())
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("shared in-flight blocks request", zap.String("course_id", courseID))
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.FlatBlockMap), nil
	}
}

func (c *Client) fetch(ctx context.Context, target string) (*model.FlatBlockMap, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "JWT "+c.token)
	}
	if c.sessionCookie != "" {
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: c.sessionCookie})
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch course blocks: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("blocks request finished",
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	var flat model.FlatBlockMap
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxResponseSize)).Decode(&flat); err != nil {
		return nil, fmt.Errorf("decode course blocks: %w", err)
	}
	for id, rec := range flat.Blocks {
		if rec.ID == "" {
			rec.ID = id
			flat.Blocks[id] = rec
		}
	}
	return &flat, nil
}
