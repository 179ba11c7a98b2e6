// Package client talks to a metadata catalog over HTTP. It implements the
// emitter transport and optionally validates event datasets against the
// catalog's table registry before delivery.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/leapstack-labs/leaplineage/internal/emitter"
	"github.com/leapstack-labs/leaplineage/pkg/core"
)

var _ emitter.Transport = (*Client)(nil)

// StatusError reports a non-2xx response from the catalog.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("catalog returned status %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("catalog returned status %d", e.Code)
}

// Config configures a Client.
type Config struct {
	// URL is the catalog base URL, e.g. http://localhost:8585/api.
	URL string
	// APIKey is sent as a bearer token when set.
	APIKey string
	// ValidateDatasets makes the client resolve every dataset against
	// the catalog before emitting, pruning datasets the catalog does
	// not know about.
	ValidateDatasets bool
	Logger           *slog.Logger
	// HTTPClient overrides the default client; mainly for tests.
	HTTPClient *http.Client
}

// Client delivers lineage events to a metadata catalog.
type Client struct {
	baseURL          string
	apiKey           string
	validateDatasets bool
	httpClient       *http.Client
	logger           *slog.Logger

	// Resolved table entities are cached for the life of the client.
	// The catalog's table set is stable over a run, so entries are
	// never invalidated.
	mu      sync.RWMutex
	tables  map[string]tableEntity
	resolve singleflight.Group
}

type tableEntity struct {
	ID                 string `json:"id"`
	FullyQualifiedName string `json:"fullyQualifiedName"`
}

// New returns a Client for the given catalog.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:          strings.TrimRight(cfg.URL, "/"),
		apiKey:           cfg.APIKey,
		validateDatasets: cfg.ValidateDatasets,
		httpClient:       httpClient,
		logger:           logger,
		tables:           make(map[string]tableEntity),
	}
}

// Emit posts the event to the catalog. When dataset validation is on,
// datasets unknown to the catalog are pruned first; an event whose output
// dataset is unknown is dropped without error.
func (c *Client) Emit(ctx context.Context, ev *core.Event) error {
	if c.validateDatasets {
		pruned, ok, err := c.validated(ctx, ev)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		ev = pruned
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return c.post(ctx, "/v1/lineage/events", body)
}

// Ping verifies the catalog is reachable and the credentials are accepted.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "/v1/system/version", nil)
}

// validated returns a copy of the event with unknown datasets removed.
// The second return is false when the event should not be sent at all.
func (c *Client) validated(ctx context.Context, ev *core.Event) (*core.Event, bool, error) {
	out := *ev

	if ev.Output != nil {
		if _, err := c.lookupTable(ctx, ev.Output.FQN()); err != nil {
			c.logger.Warn("output table not found in catalog, dropping event",
				"table", ev.Output.FQN(),
				"job", ev.Job.Name,
				"error", err)
			return nil, false, nil
		}
	}

	var dropped map[string]bool
	if len(ev.Inputs) > 0 {
		inputs := make([]core.Dataset, 0, len(ev.Inputs))
		for _, in := range ev.Inputs {
			if _, err := c.lookupTable(ctx, in.FQN()); err != nil {
				c.logger.Warn("input table not found in catalog, pruning",
					"table", in.FQN(),
					"job", ev.Job.Name)
				if dropped == nil {
					dropped = make(map[string]bool)
				}
				dropped[in.FQN()] = true
				continue
			}
			inputs = append(inputs, in)
		}
		out.Inputs = inputs
	}

	if len(dropped) > 0 && len(ev.ColumnLineage) > 0 {
		edges := make([]core.ColumnLineage, 0, len(ev.ColumnLineage))
		for _, edge := range ev.ColumnLineage {
			if allFromDropped(edge.FromColumns, dropped) {
				continue
			}
			edges = append(edges, edge)
		}
		out.ColumnLineage = edges
	}

	return &out, true, nil
}

// allFromDropped reports whether every source column belongs to a pruned
// input table.
func allFromDropped(fromColumns []string, dropped map[string]bool) bool {
	for _, col := range fromColumns {
		table := col
		if i := strings.LastIndex(col, "."); i >= 0 {
			table = col[:i]
		}
		if !dropped[table] {
			return false
		}
	}
	return len(fromColumns) > 0
}

// lookupTable resolves a table FQN against the catalog, caching hits.
// Concurrent lookups of the same FQN share one request.
func (c *Client) lookupTable(ctx context.Context, fqn string) (tableEntity, error) {
	c.mu.RLock()
	entity, ok := c.tables[fqn]
	c.mu.RUnlock()
	if ok {
		return entity, nil
	}

	v, err, _ := c.resolve.Do(fqn, func() (any, error) {
		var entity tableEntity
		path := "/v1/tables/name/" + url.PathEscape(fqn)
		if err := c.get(ctx, path, &entity); err != nil {
			return tableEntity{}, err
		}
		c.mu.Lock()
		c.tables[fqn] = entity
		c.mu.Unlock()
		return entity, nil
	})
	if err != nil {
		return tableEntity{}, fmt.Errorf("resolve table %s: %w", fqn, err)
	}
	return v.(tableEntity), nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
