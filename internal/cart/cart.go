// Package cart implements the local order ledger: line items keyed by their
// full structural identity, quantity merging, offer tiers, and best-effort
// persistence so a restart does not lose the basket.
package cart

import "strings"

// Offer identifies a multi-unit discount tier. Tiers are never applied
// implicitly; the caller selects one and the ledger only honors it when the
// unit threshold is met.
type Offer string

const (
	// OfferNone disables tier pricing.
	OfferNone Offer = ""
	// OfferPack2 grants 10% off the subtotal at two or more units.
	OfferPack2 Offer = "pack2"
	// OfferPack3 grants 15% off the subtotal at three or more units.
	OfferPack3 Offer = "pack3"
)

// offerTier describes the threshold and rate of a tier.
type offerTier struct {
	minUnits   int
	percentOff int64
}

var offerTiers = map[Offer]offerTier{
	OfferPack2: {minUnits: 2, percentOff: 10},
	OfferPack3: {minUnits: 3, percentOff: 15},
}

// OptionSet carries the selectable attributes that distinguish otherwise
// identical variations. Empty fields are wildcarded by Key.
type OptionSet struct {
	Model    string `json:"model,omitempty"`
	Color    string `json:"color,omitempty"`
	Material string `json:"material,omitempty"`
}

// LineKey is the structural identity of a ledger line. Two lines merge only
// when the product, variation, and every chosen option coincide.
type LineKey struct {
	ProductID   int64     `json:"product_id"`
	VariationID int64     `json:"variation_id"`
	Options     OptionSet `json:"options"`
}

// String renders the key in a stable form usable as a map key or log field.
func (k LineKey) String() string {
	var b strings.Builder
	b.Grow(48)
	b.WriteString(itoa(k.ProductID))
	b.WriteByte(':')
	b.WriteString(itoa(k.VariationID))
	for _, opt := range []string{k.Options.Model, k.Options.Color, k.Options.Material} {
		b.WriteByte('|')
		b.WriteString(strings.ToLower(opt))
	}
	return b.String()
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := v < 0
	if neg {
		v = -v
	}
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// LineItem is one entry in the ledger.
type LineItem struct {
	Key       LineKey `json:"key"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug,omitempty"`
	Price     int64   `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"image_url,omitempty"`
	RemoteKey string  `json:"remote_key,omitempty"`
}

// LineTotal is the pre-discount amount for this line in cents.
func (li *LineItem) LineTotal() int64 {
	return li.Price * int64(li.Quantity)
}

// State is the serializable snapshot of the ledger, the unit of persistence.
type State struct {
	Items []LineItem `json:"items"`
	Offer Offer      `json:"offer"`
}

// ItemCount returns the total unit count across all lines.
func (s *State) ItemCount() int {
	var count int
	for i := range s.Items {
		count += s.Items[i].Quantity
	}
	return count
}

// Subtotal returns the pre-discount total in cents.
func (s *State) Subtotal() int64 {
	var total int64
	for i := range s.Items {
		total += s.Items[i].LineTotal()
	}
	return total
}

// Discount returns the amount deducted by the selected offer, in cents.
// It is zero when no offer is selected or the unit threshold is not met.
func (s *State) Discount() int64 {
	tier, ok := offerTiers[s.Offer]
	if !ok {
		return 0
	}
	if s.ItemCount() < tier.minUnits {
		return 0
	}
	return s.Subtotal() * tier.percentOff / 100
}

// Total returns the payable amount after the discount, in cents.
func (s *State) Total() int64 {
	return s.Subtotal() - s.Discount()
}

func (s *State) findIndex(key LineKey) int {
	for i := range s.Items {
		if s.Items[i].Key == key {
			return i
		}
	}
	return -1
}
