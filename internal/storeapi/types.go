package storeapi

// Snapshot is the authoritative cart state as the upstream knows it. It is
// never mutated locally; every read or write replaces it wholesale with the
// response body.
type Snapshot struct {
	Items         []SnapshotItem `json:"items"`
	ItemsCount    int            `json:"items_count"`
	NeedsPayment  bool           `json:"needs_payment"`
	NeedsShipping bool           `json:"needs_shipping"`
	ShippingRates []ShippingRate `json:"shipping_rates"`
	Fees          []Fee          `json:"fees"`
	Totals        Totals         `json:"totals"`
}

// SnapshotItem is one upstream cart line. Key is the upstream's opaque line
// identifier, required for update and remove calls.
type SnapshotItem struct {
	ID        int64                `json:"id"`
	Key       string               `json:"key"`
	Name      string               `json:"name"`
	Quantity  int                  `json:"quantity"`
	Prices    ItemPrices           `json:"prices"`
	Totals    ItemTotals           `json:"totals"`
	Images    []ItemImage          `json:"images"`
	Variation []VariationAttribute `json:"variation,omitempty"`
}

// ItemPrices carries the per-unit price fields in minor units as decimal
// strings, upstream convention.
type ItemPrices struct {
	Price        string `json:"price"`
	RegularPrice string `json:"regular_price"`
	SalePrice    string `json:"sale_price"`
	CurrencyCode string `json:"currency_code"`
	MinorUnit    int    `json:"currency_minor_unit"`
}

// ItemTotals carries the per-line totals, minor units as decimal strings.
type ItemTotals struct {
	LineSubtotal string `json:"line_subtotal"`
	LineTotal    string `json:"line_total"`
	CurrencyCode string `json:"currency_code"`
}

// ItemImage is an upstream product image reference.
type ItemImage struct {
	ID        int64  `json:"id"`
	Src       string `json:"src"`
	Thumbnail string `json:"thumbnail"`
	Alt       string `json:"alt"`
}

// VariationAttribute is one attribute/value pair of a selected variation.
type VariationAttribute struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// ShippingRate is one shipping option offered upstream.
type ShippingRate struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	MethodID string `json:"method_id"`
	Selected bool   `json:"selected"`
}

// Fee is an upstream cart fee line.
type Fee struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Totals struct {
		Total    string `json:"total"`
		TotalTax string `json:"total_tax"`
	} `json:"totals"`
}

// TaxLine is one upstream tax entry.
type TaxLine struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Rate  string `json:"rate"`
}

// Totals is the upstream cart totals block, minor units as decimal strings.
type Totals struct {
	TotalItems    string    `json:"total_items"`
	TotalFees     string    `json:"total_fees"`
	TotalDiscount string    `json:"total_discount"`
	TotalShipping string    `json:"total_shipping"`
	TotalPrice    string    `json:"total_price"`
	TotalTax      string    `json:"total_tax"`
	TaxLines      []TaxLine `json:"tax_lines"`
	CurrencyCode  string    `json:"currency_code"`
	MinorUnit     int       `json:"currency_minor_unit"`
}

// Address mirrors the upstream checkout address shape.
type Address struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address_1" validate:"required"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state,omitempty"`
	Postcode  string `json:"postcode" validate:"required"`
	Country   string `json:"country" validate:"required,iso3166_1_alpha2"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string `json:"phone,omitempty"`
}

// Customer groups the checkout addresses. Shipping falls back to billing when
// absent, matching the upstream behavior.
type Customer struct {
	Billing  Address  `json:"billing_address" validate:"required"`
	Shipping *Address `json:"shipping_address,omitempty"`
	Note     string   `json:"customer_note,omitempty"`
}

// OrderResult is the upstream checkout response. PaymentURL present means the
// payment provider requires a redirect; otherwise the order is confirmed
// immediately under OrderID.
type OrderResult struct {
	OrderID    int64  `json:"id"`
	Status     string `json:"status"`
	OrderKey   string `json:"order_key"`
	PaymentURL string `json:"payment_url,omitempty"`
}

// RequiresRedirect reports whether the caller must navigate to the payment
// provider to complete the order.
func (r *OrderResult) RequiresRedirect() bool {
	return r.PaymentURL != ""
}

type addLineRequest struct {
	ID          int64                `json:"id"`
	Quantity    int                  `json:"quantity"`
	VariationID int64                `json:"variation_id,omitempty"`
	Variation   []VariationAttribute `json:"variation,omitempty"`
}

type updateLineRequest struct {
	Key      string `json:"key"`
	Quantity int    `json:"quantity"`
}

type removeLineRequest struct {
	Key string `json:"key"`
}

type submitOrderRequest struct {
	BillingAddress  Address  `json:"billing_address"`
	ShippingAddress *Address `json:"shipping_address,omitempty"`
	PaymentMethod   string   `json:"payment_method"`
	CustomerNote    string   `json:"customer_note,omitempty"`
}
