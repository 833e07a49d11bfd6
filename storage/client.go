package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	DefaultMaxObjectBytes = 64 << 20

	maxErrorBody = 4 << 10
)

// FetchError is a non-2xx response from object storage. The body is kept
// (truncated) for diagnostics.
type FetchError struct {
	Bucket     string
	Key        string
	StatusCode int
	Body       string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching s3://%s/%s: status %d: %s", e.Bucket, e.Key, e.StatusCode, e.Body)
}

// Client issues SigV4-signed GET requests against S3-compatible endpoints
// using caller-supplied credentials.
type Client struct {
	httpClient *http.Client
	now        func() time.Time
	maxBytes   int64
	logger     *slog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock overrides the time source used for request signatures.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// WithMaxObjectBytes caps how much of a response body is read.
func WithMaxObjectBytes(n int64) ClientOption {
	return func(c *Client) { c.maxBytes = n }
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		now:        time.Now,
		maxBytes:   DefaultMaxObjectBytes,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetObject fetches bucket/key from the credentials' endpoint.
func (c *Client) GetObject(ctx context.Context, creds Credentials, bucket, key string) ([]byte, error) {
	u, err := ObjectURL(creds.Endpoint, bucket, key)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	SignRequest(req, creds, c.now())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching s3://%s/%s: %w", bucket, key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &FetchError{Bucket: bucket, Key: key, StatusCode: resp.StatusCode, Body: string(body)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading s3://%s/%s: %w", bucket, key, err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("object s3://%s/%s exceeds %d bytes", bucket, key, c.maxBytes)
	}

	c.logger.Debug("fetched object",
		"bucket", bucket,
		"key", key,
		"bytes", len(data),
		"duration", time.Since(start),
	)
	return data, nil
}

// Get fetches an s3://bucket/key location.
func (c *Client) Get(ctx context.Context, creds Credentials, location string) ([]byte, error) {
	bucket, key, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}
	return c.GetObject(ctx, creds, bucket, key)
}
