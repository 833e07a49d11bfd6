// Package catalog is a read-only client for an Iceberg REST catalog.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"iceberg-lens/config"
	"iceberg-lens/iceberg"
)

const (
	// HeaderAccessDelegation asks the catalog to vend per-table storage
	// credentials in the load-table config.
	HeaderAccessDelegation = "X-Iceberg-Access-Delegation"
	VendedCredentials      = "vended-credentials"

	// NamespaceSeparator joins multi-level namespace parts in request paths.
	NamespaceSeparator = "\x1f"

	maxErrorBody = 4 << 10
)

// APIError is a non-2xx catalog response.
type APIError struct {
	StatusCode int
	Status     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("catalog %s: %s: %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("catalog %s: %s", e.Path, e.Status)
}

type Client struct {
	baseURI    string
	warehouse  string
	token      string
	httpClient *http.Client
	logger     *slog.Logger

	prefixGroup singleflight.Group
	mu          sync.Mutex
	prefix      *string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(cfg config.CatalogConfig, opts ...Option) *Client {
	c := &Client{
		baseURI:    strings.TrimRight(cfg.URI, "/"),
		warehouse:  cfg.Warehouse,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Prefix returns the route prefix for the configured warehouse. It is
// resolved from the catalog's config endpoint on first use and kept for the
// life of the client. Concurrent first calls share one request; a failed
// resolution is retried on the next call.
func (c *Client) Prefix(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.prefix != nil {
		p := *c.prefix
		c.mu.Unlock()
		return p, nil
	}
	c.mu.Unlock()

	ch := c.prefixGroup.DoChan("prefix", func() (any, error) {
		p, err := c.resolvePrefix(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.prefix = &p
		c.mu.Unlock()
		return p, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Client) resolvePrefix(ctx context.Context) (string, error) {
	q := url.Values{}
	if c.warehouse != "" {
		q.Set("warehouse", c.warehouse)
	}
	path := "/v1/config"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp iceberg.ConfigResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return "", fmt.Errorf("resolving catalog prefix: %w", err)
	}

	prefix := resp.Overrides["prefix"]
	if prefix == "" {
		prefix = resp.Defaults["prefix"]
	}
	if prefix == "" {
		prefix = c.warehouse
	}
	c.logger.Info("resolved catalog prefix", "warehouse", c.warehouse, "prefix", prefix)
	return prefix, nil
}

func (c *Client) ListNamespaces(ctx context.Context) ([][]string, error) {
	var resp iceberg.ListNamespacesResponse
	if err := c.getPrefixed(ctx, "/namespaces", &resp); err != nil {
		return nil, err
	}
	return resp.Namespaces, nil
}

// ListTables lists the tables in namespace. Nested namespaces are written
// with dots, as in "sales.daily".
func (c *Client) ListTables(ctx context.Context, namespace string) ([]iceberg.TableIdentifier, error) {
	var resp iceberg.ListTablesResponse
	if err := c.getPrefixed(ctx, "/namespaces/"+namespacePath(namespace)+"/tables", &resp); err != nil {
		return nil, err
	}
	return resp.Identifiers, nil
}

// LoadTable fetches table metadata along with any vended credentials.
func (c *Client) LoadTable(ctx context.Context, namespace, table string) (*iceberg.LoadTableResponse, error) {
	var resp iceberg.LoadTableResponse
	path := "/namespaces/" + namespacePath(namespace) + "/tables/" + url.PathEscape(table)
	if err := c.getPrefixed(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// namespacePath encodes a dot-separated namespace as a single path segment
// with its levels joined by the unit separator.
func namespacePath(namespace string) string {
	return url.PathEscape(strings.ReplaceAll(namespace, ".", NamespaceSeparator))
}

func (c *Client) getPrefixed(ctx context.Context, path string, out any) error {
	prefix, err := c.Prefix(ctx)
	if err != nil {
		return err
	}
	return c.get(ctx, "/v1/"+prefix+path, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURI+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderAccessDelegation, VendedCredentials)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Path: path}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var envelope iceberg.ErrorResponse
		if json.Unmarshal(body, &envelope) == nil {
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
