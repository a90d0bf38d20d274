package relay

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/impexo/storefront/internal/cart"
	"github.com/impexo/storefront/internal/checkout"
	"github.com/impexo/storefront/internal/money"
	"github.com/impexo/storefront/pkg/httputil"
	applog "github.com/impexo/storefront/pkg/logger"
	"github.com/impexo/storefront/pkg/slug"
	"github.com/impexo/storefront/pkg/validator"
)

// orderSubmitter is what the basket handler needs from the checkout side.
type orderSubmitter interface {
	Submit(ctx context.Context, payload checkout.CreateOrderPayload) (*checkout.OrderResult, error)
}

// BasketHandler serves the first-party basket: a server-held ledger keyed to
// the storefront, so browsing never hits the commerce platform and the
// basket survives restarts through the ledger's store.
type BasketHandler struct {
	ledger   *cart.Ledger
	checkout orderSubmitter
	logger   *slog.Logger
}

// NewBasketHandler creates the basket API handler.
func NewBasketHandler(ledger *cart.Ledger, submitter orderSubmitter, logger *slog.Logger) *BasketHandler {
	return &BasketHandler{
		ledger:   ledger,
		checkout: submitter,
		logger:   logger,
	}
}

// basketView is the response shape for every basket read and mutation.
type basketView struct {
	Items           []cart.LineItem `json:"items"`
	ItemCount       int             `json:"item_count"`
	Offer           cart.Offer      `json:"offer"`
	Subtotal        int64           `json:"subtotal"`
	Discount        int64           `json:"discount"`
	Total           int64           `json:"total"`
	SubtotalDisplay string          `json:"subtotal_display"`
	TotalDisplay    string          `json:"total_display"`
}

func (h *BasketHandler) view() basketView {
	state := h.ledger.Snapshot()
	items := state.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	return basketView{
		Items:           items,
		ItemCount:       state.ItemCount(),
		Offer:           state.Offer,
		Subtotal:        state.Subtotal(),
		Discount:        state.Discount(),
		Total:           state.Total(),
		SubtotalDisplay: money.FormatEUR(state.Subtotal()),
		TotalDisplay:    money.FormatEUR(state.Total()),
	}
}

// Get handles GET /api/basket.
func (h *BasketHandler) Get(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.view()})
}

type addItemRequest struct {
	ProductID   int64  `json:"product_id" validate:"required"`
	VariationID int64  `json:"variation_id"`
	Model       string `json:"model"`
	Color       string `json:"color"`
	Material    string `json:"material"`
	Name        string `json:"name" validate:"required"`
	Slug        string `json:"slug"`
	Price       int64  `json:"price" validate:"gte=0"`
	Quantity    int    `json:"quantity"`
	ImageURL    string `json:"image_url"`
}

func (req *addItemRequest) lineItem() cart.LineItem {
	itemSlug := req.Slug
	if itemSlug == "" {
		itemSlug = slug.Generate(req.Name)
	}
	return cart.LineItem{
		Key: cart.LineKey{
			ProductID:   req.ProductID,
			VariationID: req.VariationID,
			Options: cart.OptionSet{
				Model:    req.Model,
				Color:    req.Color,
				Material: req.Material,
			},
		},
		Name:     req.Name,
		Slug:     itemSlug,
		Price:    req.Price,
		Quantity: money.ClampQuantity(req.Quantity),
		ImageURL: req.ImageURL,
	}
}

// AddItem handles POST /api/basket/items.
func (h *BasketHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.ledger.AddItem(r.Context(), req.lineItem()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.view()})
}

type lineKeyRequest struct {
	ProductID   int64  `json:"product_id" validate:"required"`
	VariationID int64  `json:"variation_id"`
	Model       string `json:"model"`
	Color       string `json:"color"`
	Material    string `json:"material"`
	Quantity    int    `json:"quantity"`
}

func (req *lineKeyRequest) key() cart.LineKey {
	return cart.LineKey{
		ProductID:   req.ProductID,
		VariationID: req.VariationID,
		Options: cart.OptionSet{
			Model:    req.Model,
			Color:    req.Color,
			Material: req.Material,
		},
	}
}

// UpdateItem handles PUT /api/basket/items.
func (h *BasketHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req lineKeyRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.ledger.SetQuantity(r.Context(), req.key(), req.Quantity); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.view()})
}

// RemoveItem handles DELETE /api/basket/items.
func (h *BasketHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	var req lineKeyRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.ledger.RemoveItem(r.Context(), req.key()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.view()})
}

// Clear handles DELETE /api/basket.
func (h *BasketHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.ledger.Clear(r.Context())
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.view()})
}

type selectOfferRequest struct {
	Offer cart.Offer `json:"offer"`
}

// SelectOffer handles POST /api/basket/offer.
func (h *BasketHandler) SelectOffer(w http.ResponseWriter, r *http.Request) {
	var req selectOfferRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.ledger.SelectOffer(r.Context(), req.Offer); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.view()})
}

type basketCheckoutRequest struct {
	Customer      checkout.Customer `json:"customer" validate:"required"`
	PaymentMethod string            `json:"payment_method"`
	CustomerNote  string            `json:"customer_note"`
}

// Checkout handles POST /api/basket/checkout: the ledger becomes an order in
// one upstream call. On immediate confirmation the basket is cleared; when a
// payment redirect is pending the basket stays until the shopper returns.
func (h *BasketHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req basketCheckoutRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	payload := checkout.BuildPayload(h.ledger.Snapshot(), req.Customer, req.PaymentMethod, req.CustomerNote)

	result, err := h.checkout.Submit(r.Context(), payload)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if !result.RequiresRedirect() {
		h.ledger.Clear(r.Context())
	}

	applog.WithContext(r.Context(), h.logger).Info("basket checked out",
		"order_id", result.OrderID,
		"redirect", result.RequiresRedirect(),
	)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}
