// Package storeapi is the session reconciliation client for the upstream
// cart API. Writes require an anti-forgery token that the upstream rotates
// and invalidates at will; the client harvests tokens from every response,
// primes itself with a read before the first write, and on a rejected token
// refreshes once and retries the original call once. Transient failures get
// a bounded linear-backoff retry. Retried writes are not idempotent; the
// upstream offers no idempotency key, so a retry after an applied-but-lost
// response can double a mutation. Accepted risk.
package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/impexo/storefront/pkg/errors"
	"github.com/impexo/storefront/pkg/httpclient"
	applog "github.com/impexo/storefront/pkg/logger"
)

const (
	// maxAttempts bounds transient retries per call.
	maxAttempts = 3
	// baseDelay is multiplied by the attempt number for linear backoff.
	baseDelay = time.Second
	// callTimeout bounds each individual upstream call. A timed-out call
	// counts as a transient failure.
	callTimeout = 8 * time.Second
)

// Client talks to the upstream session cart API (the wc/store/v1 surface).
// One Client owns one Session; it is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	logger  *slog.Logger

	// sleep is swapped out in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSession injects a pre-existing session, resuming an upstream basket.
func WithSession(s *Session) Option {
	return func(c *Client) { c.session = s }
}

// NewClient creates a reconciliation client for the cart API rooted at
// baseURL (the path below which "cart", "cart/add-item" etc. live).
func NewClient(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   callTimeout,
			Transport: httpclient.NewTransport(20),
		},
		session: NewSession(),
		logger:  logger,
		sleep:   sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session exposes the credential pair, mainly for tests and diagnostics.
func (c *Client) Session() *Session {
	return c.session
}

// Prime fetches the current cart without mutating it, harvesting the first
// token pair. Call it eagerly at startup or let the first write trigger it.
func (c *Client) Prime(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "cart", nil, false)
	return err
}

// FetchSnapshot retrieves the authoritative cart state.
func (c *Client) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	body, err := c.do(ctx, http.MethodGet, "cart", nil, false)
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(body)
}

// AddLine adds a product to the upstream cart. variationID and options are
// optional; quantity below one is rejected upstream, so callers normalize
// beforehand.
func (c *Client) AddLine(ctx context.Context, productID int64, quantity int, variationID int64, options []VariationAttribute) (*Snapshot, error) {
	req := addLineRequest{
		ID:          productID,
		Quantity:    quantity,
		VariationID: variationID,
		Variation:   options,
	}
	body, err := c.do(ctx, http.MethodPost, "cart/add-item", req, true)
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(body)
}

// UpdateLineQuantity changes the quantity of an upstream line identified by
// its opaque key.
func (c *Client) UpdateLineQuantity(ctx context.Context, key string, quantity int) (*Snapshot, error) {
	req := updateLineRequest{Key: key, Quantity: quantity}
	body, err := c.do(ctx, http.MethodPut, "cart/update-item", req, true)
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(body)
}

// RemoveLine deletes an upstream line by its opaque key.
func (c *Client) RemoveLine(ctx context.Context, key string) (*Snapshot, error) {
	req := removeLineRequest{Key: key}
	body, err := c.do(ctx, http.MethodDelete, "cart/remove-item", req, true)
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(body)
}

// ClearAll empties the upstream cart.
func (c *Client) ClearAll(ctx context.Context) (*Snapshot, error) {
	body, err := c.do(ctx, http.MethodDelete, "cart/items", nil, true)
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(body)
}

// SubmitOrder converts the upstream cart into an order. The result carries
// either a payment redirect URL or a confirmed order identifier.
func (c *Client) SubmitOrder(ctx context.Context, customer Customer, paymentMethod string) (*OrderResult, error) {
	req := submitOrderRequest{
		BillingAddress:  customer.Billing,
		ShippingAddress: customer.Shipping,
		PaymentMethod:   paymentMethod,
		CustomerNote:    customer.Note,
	}
	body, err := c.do(ctx, http.MethodPost, "checkout", req, true)
	if err != nil {
		return nil, err
	}

	var result OrderResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, apperrors.NotJSON(http.StatusOK, bodySnippet(body))
	}
	return &result, nil
}

// do runs one logical call against the upstream with the full reconciliation
// flow: prime before the first write, one nonce refresh with exactly one
// retry of the original call, and up to maxAttempts total tries for
// transient failures. An explicit loop, never recursion, so the bounds are
// visible in one place.
func (c *Client) do(ctx context.Context, method, path string, payload any, write bool) ([]byte, error) {
	// A write with no anti-forgery token held yet needs a priming read
	// first. Only once per call; retries reuse the token already fetched.
	if write && !c.session.HasNonce() {
		c.logger.Debug("priming session before first write", "path", path)
		if err := c.Prime(ctx); err != nil {
			return nil, err
		}
	}

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("marshal request: %w", err))
		}
	}

	nonceRefreshed := false
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		respBody, status, err := c.send(ctx, method, path, body, write)
		if err != nil {
			// Connection failures and timeouts are transient.
			if ctx.Err() != nil {
				return nil, apperrors.Wrap(apperrors.ErrTransient, ctx.Err().Error())
			}
			lastErr = apperrors.Wrap(apperrors.ErrTransient, err.Error())
			c.logger.Warn("upstream call failed",
				"method", method, "path", path, "attempt", attempt, "error", err)
			if attempt < maxAttempts {
				if serr := c.sleep(ctx, time.Duration(attempt)*baseDelay); serr != nil {
					return nil, apperrors.Wrap(apperrors.ErrTransient, serr.Error())
				}
			}
			continue
		}

		if status >= 200 && status < 300 {
			return respBody, nil
		}

		message := upstreamErrorMessage(respBody)

		// A 403 blaming the anti-forgery token gets one refresh and one
		// retry of the original call. A second one means the session is
		// truly gone.
		if status == http.StatusForbidden && write && nonceMismatch(message) {
			if nonceRefreshed {
				return nil, apperrors.AuthExpired(message)
			}
			c.logger.Info("anti-forgery token rejected, refreshing", "path", path)
			c.session.DiscardNonce()
			if err := c.Prime(ctx); err != nil {
				return nil, err
			}
			nonceRefreshed = true
			// The refresh retry does not consume the transient budget.
			attempt--
			continue
		}

		if transientStatus(status) {
			lastErr = apperrors.Transient(status, message)
			c.logger.Warn("upstream transient failure",
				"method", method, "path", path, "status", status, "attempt", attempt)
			if attempt < maxAttempts {
				if serr := c.sleep(ctx, time.Duration(attempt)*baseDelay); serr != nil {
					return nil, apperrors.Wrap(apperrors.ErrTransient, serr.Error())
				}
			}
			continue
		}

		// Remaining 4xx propagate immediately with the upstream message.
		return nil, httpclient.ClassifyStatus(status, message)
	}

	return nil, lastErr
}

// send performs a single HTTP exchange and harvests session headers from the
// response regardless of status.
func (c *Client) send(ctx context.Context, method, path string, body []byte, write bool) ([]byte, int, error) {
	url := c.baseURL + "/" + strings.TrimLeft(path, "/")

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.session.Attach(req, write)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if nonceUpdated, tokenUpdated := c.session.Harvest(resp.Header); nonceUpdated || tokenUpdated {
		c.logger.Debug("session tokens refreshed",
			"nonce", applog.Preview(resp.Header.Get(headerNonce), 10),
			"cart_token", applog.Preview(resp.Header.Get(headerCartToken), 20),
		)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, 0, err
	}
	return respBody, resp.StatusCode, nil
}

func decodeSnapshot(body []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, apperrors.NotJSON(http.StatusOK, bodySnippet(body))
	}
	return &snap, nil
}

// transientStatus reports whether a status warrants a retry: 5xx, request
// timeout, and rate limiting.
func transientStatus(status int) bool {
	return status >= 500 ||
		status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests
}

// nonceMismatch matches the upstream's invalid/expired anti-forgery messages.
func nonceMismatch(message string) bool {
	return strings.Contains(strings.ToLower(message), "nonce")
}

// upstreamErrorMessage pulls the message out of a WP REST error body.
func upstreamErrorMessage(body []byte) string {
	var parsed struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Message != "" {
		return parsed.Message
	}
	return bodySnippet(body)
}

func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
