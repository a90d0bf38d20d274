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

	apperrors "github.com/impexo/storefront/pkg/errors"
	"github.com/impexo/storefront/pkg/httpclient"
	"github.com/impexo/storefront/pkg/pagination"
)

// httpGetter is what the client needs from the transport layer. Satisfied by
// httpclient.Client and httpclient.CircuitBreakerClient.
type httpGetter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Client reads the product catalog through the relay. The relay holds the
// upstream credentials; this client never sees them. The relay answers
// upstream failures with a diagnostic object carrying an empty data array;
// list reads treat that, and any non-JSON page, as an empty collection so
// list-shaped callers keep rendering.
type Client struct {
	baseURL string
	http    httpGetter
	mapper  *Mapper
	logger  *slog.Logger
}

// NewClient creates a catalog client rooted at the relay base URL.
func NewClient(baseURL string, getter httpGetter, mapper *Mapper, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    getter,
		mapper:  mapper,
		logger:  logger,
	}
}

// Mapper exposes the attribute mapper for option collection and variation
// matching on fetched products.
func (c *Client) Mapper() *Mapper {
	return c.mapper
}

// ListProducts fetches a page of the catalog.
func (c *Client) ListProducts(ctx context.Context, page pagination.Params) ([]Product, error) {
	q := url.Values{}
	page.Apply(q)

	var products []Product
	if err := c.getList(ctx, "/api/woocommerce/products?"+q.Encode(), &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches one product by ID.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	resp, err := c.http.Get(ctx, c.baseURL+fmt.Sprintf("/api/woocommerce/products/%d", id))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return nil, apperrors.NotFound("product", fmt.Sprintf("%d", id))
	}
	if resp.StatusCode >= 400 {
		return nil, httpclient.ParseResponseError(resp, "relay")
	}

	var product Product
	if err := httpclient.DecodeJSON(resp, &product); err != nil {
		return nil, err
	}
	if product.ID == 0 {
		return nil, apperrors.NotFound("product", fmt.Sprintf("%d", id))
	}
	return &product, nil
}

// ListVariations fetches the purchasable variations of a variable product.
func (c *Client) ListVariations(ctx context.Context, productID int64) ([]Variation, error) {
	path := fmt.Sprintf("/api/woocommerce/products/%d/variations?per_page=100", productID)

	var variations []Variation
	if err := c.getList(ctx, path, &variations); err != nil {
		return nil, err
	}
	return variations, nil
}

// ResolveVariation fetches a product's variations and matches the shopper's
// selection against them.
func (c *Client) ResolveVariation(ctx context.Context, productID int64, sel Selection) (*Variation, error) {
	variations, err := c.ListVariations(ctx, productID)
	if err != nil {
		return nil, err
	}
	v := c.mapper.MatchVariation(variations, sel)
	if v == nil {
		return nil, apperrors.NotFound("variation", fmt.Sprintf("product %d", productID))
	}
	return v, nil
}

// diagnosticBody is the relay's degraded answer for upstream failures.
type diagnosticBody struct {
	Error  string          `json:"error"`
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// getList fetches a collection endpoint. dst must be a pointer to a slice.
// Three body shapes are accepted: a JSON array, the relay diagnostic whose
// data array is used instead, and anything else, which degrades to empty.
// Transport failures still propagate so callers can tell "upstream broken"
// from "upstream unreachable".
func (c *Client) getList(ctx context.Context, path string, dst any) error {
	resp, err := c.http.Get(ctx, c.baseURL+path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return apperrors.Transient(resp.StatusCode, fmt.Sprintf("read body: %v", err))
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(body, dst); err != nil {
			return apperrors.Internal(fmt.Errorf("decode collection: %w", err))
		}
		return nil
	}

	var diag diagnosticBody
	if json.Unmarshal(body, &diag) == nil && diag.Error != "" {
		c.logger.Warn("relay diagnostic, degrading to empty collection",
			"path", path, "upstream_status", diag.Status, "error", diag.Error)
		if len(diag.Data) > 0 {
			if err := json.Unmarshal(diag.Data, dst); err == nil {
				return nil
			}
		}
		return nil
	}

	c.logger.Warn("non-JSON collection body, degrading to empty",
		"path", path, "status", resp.StatusCode)
	return nil
}
