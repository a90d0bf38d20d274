// Package checkout hands the local basket off to the relay's order-creation
// endpoint. The whole basket goes upstream in one call at checkout time, so
// browsing never touches the rate-limited commerce platform.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/impexo/storefront/internal/cart"
	apperrors "github.com/impexo/storefront/pkg/errors"
	"github.com/impexo/storefront/pkg/httpclient"
	"github.com/impexo/storefront/pkg/validator"
)

// BillingAddress is the payer's address. Email is required here, unlike on
// the shipping side.
type BillingAddress struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address_1" validate:"required"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state,omitempty"`
	Postcode  string `json:"postcode" validate:"required"`
	Country   string `json:"country" validate:"required,iso3166_1_alpha2"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone,omitempty"`
}

// ShippingAddress is the delivery address.
type ShippingAddress struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address_1" validate:"required"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state,omitempty"`
	Postcode  string `json:"postcode" validate:"required"`
	Country   string `json:"country" validate:"required,iso3166_1_alpha2"`
}

// Customer groups the checkout addresses. Shipping is optional; the platform
// falls back to billing.
type Customer struct {
	Billing  BillingAddress   `json:"billing" validate:"required"`
	Shipping *ShippingAddress `json:"shipping,omitempty"`
}

// OrderItem is one basket line in the order payload.
type OrderItem struct {
	ProductID   int64 `json:"product_id"`
	VariationID int64 `json:"variation_id"`
	Quantity    int   `json:"quantity"`
}

// CreateOrderPayload is the body sent to the relay's order endpoint.
type CreateOrderPayload struct {
	Items         []OrderItem `json:"items"`
	Customer      Customer    `json:"customer"`
	PaymentMethod string      `json:"payment_method,omitempty"`
	CustomerNote  string      `json:"customer_note,omitempty"`
}

// OrderResult is the relay's answer. PaymentURL set means the shopper must
// be sent to the payment provider; otherwise OrderID is already confirmed.
type OrderResult struct {
	OrderID    int64  `json:"order_id"`
	OrderKey   string `json:"order_key,omitempty"`
	PaymentURL string `json:"payment_url,omitempty"`
	Status     string `json:"status,omitempty"`
}

// RequiresRedirect reports whether the caller must navigate to PaymentURL to
// complete payment.
func (r *OrderResult) RequiresRedirect() bool {
	return r.PaymentURL != ""
}

// httpPoster is what the service needs from the transport layer.
type httpPoster interface {
	Post(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error)
}

// PlainPoster adapts a bare http.Client. Order creation is posted exactly
// once; a retrying transport here could create the same order twice.
type PlainPoster struct {
	Client *http.Client
}

// Post performs a single POST with no retries.
func (p PlainPoster) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return p.Client.Do(req)
}

// Service submits orders built from the ledger.
type Service struct {
	endpoint string
	http     httpPoster
	logger   *slog.Logger
}

// NewService creates a checkout service posting to the given order-creation
// endpoint. Remote embedders point it at the relay's create-order route; the
// relay itself points it straight at the platform's custom endpoint.
func NewService(endpoint string, poster httpPoster, logger *slog.Logger) *Service {
	return &Service{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     poster,
		logger:   logger,
	}
}

// RelayEndpoint builds the order-creation URL under a relay base URL.
func RelayEndpoint(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/api/checkout/create-order"
}

// BuildPayload converts the ledger state into an order payload. The ledger
// itself is never mutated; clearing it after a confirmed order is the
// caller's decision.
func BuildPayload(state cart.State, customer Customer, paymentMethod, note string) CreateOrderPayload {
	items := make([]OrderItem, 0, len(state.Items))
	for _, li := range state.Items {
		items = append(items, OrderItem{
			ProductID:   li.Key.ProductID,
			VariationID: li.Key.VariationID,
			Quantity:    li.Quantity,
		})
	}
	return CreateOrderPayload{
		Items:         items,
		Customer:      customer,
		PaymentMethod: paymentMethod,
		CustomerNote:  note,
	}
}

// Submit validates and posts the order. A non-success answer surfaces as a
// checkout failure carrying the relay's message; the basket stays intact
// either way.
func (s *Service) Submit(ctx context.Context, payload CreateOrderPayload) (*OrderResult, error) {
	if len(payload.Items) == 0 {
		return nil, apperrors.Validation(http.StatusBadRequest, "cannot order an empty basket")
	}
	if err := validator.Validate(payload.Customer); err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	resp, err := s.http.Post(ctx, s.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		err := httpclient.ParseResponseError(resp, "checkout")
		s.logger.Warn("order submission rejected", "status", resp.StatusCode, "error", err)
		return nil, apperrors.CheckoutFailed(err.Error())
	}

	var result OrderResult
	if err := httpclient.DecodeJSON(resp, &result); err != nil {
		return nil, err
	}
	if result.OrderID == 0 {
		return nil, apperrors.CheckoutFailed("order endpoint returned no order id")
	}

	s.logger.Info("order created",
		"order_id", result.OrderID,
		"status", result.Status,
		"redirect", result.RequiresRedirect(),
	)
	return &result, nil
}
