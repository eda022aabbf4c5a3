// internal/search/client.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	stderrors "ferreteria-gateway/internal/common/errors"
	"ferreteria-gateway/internal/common/httpx"
	"ferreteria-gateway/internal/common/logger"
	"ferreteria-gateway/internal/common/metrics"
	"ferreteria-gateway/internal/models"
)

// Result carries both the decoded product list and the raw downstream
// payload. The conversational formatter renders Products; the
// structured channel passes Raw through unmodified.
type Result struct {
	Raw      json.RawMessage
	Products []models.Product
}

// Client talks to the external search/recommendation capability over
// HTTP. It distinguishes timeout, transport failure and non-success
// status; it never retries.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *httpx.Client
	logger  logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  httpx.NewClient(timeout),
		logger:  log.With(map[string]interface{}{"component": "search-client"}),
	}
}

// Search issues the product search request.
func (c *Client) Search(ctx context.Context, req models.SearchRequest) (*Result, error) {
	body, err := c.post(ctx, "/search", req, "search")
	if err != nil {
		return nil, err
	}
	return c.decodeList(body, "results")
}

// Recommend fetches products similar to a given SKU.
func (c *Client) Recommend(ctx context.Context, sku string, limit int) (*Result, error) {
	payload := map[string]interface{}{"sku": sku, "limit": limit}
	body, err := c.post(ctx, "/recommendations", payload, "recommend")
	if err != nil {
		return nil, err
	}
	return c.decodeList(body, "recommendations")
}

// ProductDetail fetches a single product by SKU.
func (c *Client) ProductDetail(ctx context.Context, sku string) (*Result, error) {
	url := fmt.Sprintf("%s/products/%s", c.baseURL, sku)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, stderrors.NewSearchUnavailableError(err)
	}

	body, err := c.do(req, "detail", sku)
	if err != nil {
		return nil, err
	}

	var product models.Product
	if err := json.Unmarshal(body, &product); err != nil {
		c.logger.Warn("malformed product detail payload", map[string]interface{}{
			"sku":   sku,
			"error": err.Error(),
		})
		return &Result{Raw: body, Products: []models.Product{}}, nil
	}

	return &Result{Raw: body, Products: []models.Product{product}}, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, operation string) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, stderrors.NewSearchUnavailableError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, stderrors.NewSearchUnavailableError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, operation, "")
}

func (c *Client) do(req *http.Request, operation, sku string) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(req.Context(), err) {
			metrics.SearchRequests.WithLabelValues(operation, "timeout").Inc()
			return nil, stderrors.NewSearchTimeoutError(c.timeout)
		}
		metrics.SearchRequests.WithLabelValues(operation, "transport_error").Inc()
		return nil, stderrors.NewSearchUnavailableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && operation == "detail" {
		metrics.SearchRequests.WithLabelValues(operation, "not_found").Inc()
		return nil, stderrors.NewProductNotFoundError(sku)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.SearchRequests.WithLabelValues(operation, "bad_status").Inc()
		return nil, stderrors.NewSearchBadStatusError(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.SearchRequests.WithLabelValues(operation, "transport_error").Inc()
		return nil, stderrors.NewSearchUnavailableError(err)
	}

	metrics.SearchRequests.WithLabelValues(operation, "ok").Inc()
	return body, nil
}

// decodeList extracts the ordered product list under the given key.
// A malformed body degrades to an empty list rather than failing the
// pipeline instance; ordering of well-formed entries is preserved.
func (c *Client) decodeList(body []byte, key string) (*Result, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.logger.WithError(stderrors.NewMalformedResultError(err.Error())).Warn(
			"malformed search payload, degrading to empty result set", nil)
		return &Result{Raw: body, Products: []models.Product{}}, nil
	}

	list, ok := envelope[key]
	if !ok {
		return &Result{Raw: body, Products: []models.Product{}}, nil
	}

	var products []models.Product
	if err := json.Unmarshal(list, &products); err != nil {
		c.logger.WithError(stderrors.NewMalformedResultError(err.Error())).Warn(
			"malformed product entries, degrading to empty result set", nil)
		return &Result{Raw: body, Products: []models.Product{}}, nil
	}

	return &Result{Raw: body, Products: products}, nil
}

func isTimeout(ctx context.Context, err error) bool {
	return ctx.Err() == context.DeadlineExceeded ||
		strings.Contains(err.Error(), "timeout") ||
		strings.Contains(err.Error(), "deadline") ||
		strings.Contains(err.Error(), "Client.Timeout")
}
