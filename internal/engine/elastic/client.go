// Package elastic implements the engine port on top of go-elasticsearch.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/topicsearch/internal/domain"
	"github.com/kailas-cloud/topicsearch/internal/engine"
)

// Compile-time check: Client implements engine.Engine.
var _ engine.Engine = (*Client)(nil)

// Config holds connection parameters for an Elasticsearch cluster.
type Config struct {
	Addrs    []string
	Username string
	Password string
	Index    string
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

// Client executes searches against a single index.
type Client struct {
	es    *elasticsearch.Client
	index string
}

// New creates an Elasticsearch client. Client-side retries are disabled:
// a failed call surfaces immediately.
func New(cfg Config) (*Client, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	if cfg.Index == "" {
		return nil, fmt.Errorf("index is required")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		Transport:    cfg.Transport,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Client{es: es, index: cfg.Index}, nil
}

// Search runs one search request against the configured index.
func (c *Client) Search(ctx context.Context, req *engine.SearchRequest) (*engine.SearchResponse, error) {
	body, err := json.Marshal(req.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal body: %w", req.Op, err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, domain.NewEngineUnavailable(req.Op, err)
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, responseError(req.Op, res)
	}

	var out engine.SearchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, domain.NewEngineQueryError(req.Op, res.StatusCode, "decode response: "+err.Error())
	}
	return &out, nil
}

// Ping checks that the cluster answers.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return domain.NewEngineUnavailable(engine.OpPing, err)
	}
	defer closeBody(res)

	if res.IsError() {
		return domain.NewEngineUnavailable(engine.OpPing, fmt.Errorf("status %d", res.StatusCode))
	}
	return nil
}

// WaitForReady polls Ping until the cluster responds or timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for elasticsearch: %w", ctx.Err())
		case <-ticker.C:
			if err := c.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// errorBody is the engine's error envelope. error is either an object or a string.
type errorBody struct {
	Error  json.RawMessage `json:"error"`
	Status int             `json:"status"`
}

type errorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// responseError maps a non-2xx response. Gateway-level failures mean the
// cluster is not serving; everything else is a rejected query.
func responseError(op string, res *esapi.Response) error {
	reason := readReason(res.Body)
	switch res.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return domain.NewEngineUnavailable(op, fmt.Errorf("status %d: %s", res.StatusCode, reason))
	default:
		return domain.NewEngineQueryError(op, res.StatusCode, reason)
	}
}

func readReason(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(data) == 0 {
		return "empty error response"
	}

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil || len(body.Error) == 0 {
		return string(data)
	}

	var cause errorCause
	if err := json.Unmarshal(body.Error, &cause); err == nil && cause.Reason != "" {
		return cause.Reason
	}
	var text string
	if err := json.Unmarshal(body.Error, &text); err == nil && text != "" {
		return text
	}
	return string(body.Error)
}

func closeBody(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}
