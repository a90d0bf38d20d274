package checkout

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impexo/storefront/internal/cart"
	apperrors "github.com/impexo/storefront/pkg/errors"
)

func newTestService(t *testing.T, srv *httptest.Server) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(RelayEndpoint(srv.URL), PlainPoster{Client: http.DefaultClient}, logger)
}

func validCustomer() Customer {
	return Customer{
		Billing: BillingAddress{
			FirstName: "Marie",
			LastName:  "Durand",
			Address1:  "1 rue de la Paix",
			City:      "Paris",
			Postcode:  "75002",
			Country:   "FR",
			Email:     "marie@example.com",
		},
	}
}

func ledgerState() cart.State {
	return cart.State{Items: []cart.LineItem{
		{Key: cart.LineKey{ProductID: 10, VariationID: 101}, Quantity: 2, Price: 2900},
		{Key: cart.LineKey{ProductID: 11}, Quantity: 1, Price: 1500},
	}}
}

func TestBuildPayload(t *testing.T) {
	payload := BuildPayload(ledgerState(), validCustomer(), "stripe", "livraison rapide svp")

	require.Len(t, payload.Items, 2)
	assert.Equal(t, OrderItem{ProductID: 10, VariationID: 101, Quantity: 2}, payload.Items[0])
	assert.Equal(t, OrderItem{ProductID: 11, VariationID: 0, Quantity: 1}, payload.Items[1])
	assert.Equal(t, "stripe", payload.PaymentMethod)
	assert.Equal(t, "livraison rapide svp", payload.CustomerNote)
}

func TestSubmitRedirectFlow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/checkout/create-order", r.URL.Path)
		var payload CreateOrderPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Len(t, payload.Items, 2)
		_ = json.NewEncoder(w).Encode(OrderResult{
			OrderID:    1042,
			OrderKey:   "wc_order_x",
			PaymentURL: "https://checkout.stripe.com/pay/cs_test",
			Status:     "pending",
		})
	}))
	defer srv.Close()

	s := newTestService(t, srv)
	result, err := s.Submit(context.Background(), BuildPayload(ledgerState(), validCustomer(), "stripe", ""))
	require.NoError(t, err)

	assert.True(t, result.RequiresRedirect())
	assert.Equal(t, int64(1042), result.OrderID)
}

func TestSubmitImmediateConfirmation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(OrderResult{OrderID: 1043, Status: "processing"})
	}))
	defer srv.Close()

	s := newTestService(t, srv)
	result, err := s.Submit(context.Background(), BuildPayload(ledgerState(), validCustomer(), "bacs", ""))
	require.NoError(t, err)

	assert.False(t, result.RequiresRedirect())
	assert.Equal(t, int64(1043), result.OrderID)
}

func TestSubmitEmptyBasket(t *testing.T) {
	s := newTestService(t, httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected")
	})))

	_, err := s.Submit(context.Background(), BuildPayload(cart.State{}, validCustomer(), "stripe", ""))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSubmitInvalidCustomer(t *testing.T) {
	s := newTestService(t, httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected")
	})))

	customer := validCustomer()
	customer.Billing.Email = "not-an-email"
	customer.Billing.Country = "France"

	_, err := s.Submit(context.Background(), BuildPayload(ledgerState(), customer, "stripe", ""))
	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "Email")
}

func TestSubmitUpstreamRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"INVALID_ITEMS","message":"product 99 does not exist"}}`))
	}))
	defer srv.Close()

	s := newTestService(t, srv)
	_, err := s.Submit(context.Background(), BuildPayload(ledgerState(), validCustomer(), "stripe", ""))

	assert.ErrorIs(t, err, apperrors.ErrCheckoutFailed)
	assert.Contains(t, err.Error(), "product 99 does not exist")
}

func TestSubmitMissingOrderID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := newTestService(t, srv)
	_, err := s.Submit(context.Background(), BuildPayload(ledgerState(), validCustomer(), "stripe", ""))
	assert.ErrorIs(t, err, apperrors.ErrCheckoutFailed)
}
