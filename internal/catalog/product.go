// Package catalog models the upstream product surface and resolves product
// attributes and variations against the storefront's canonical option kinds.
package catalog

// Image is an upstream product image.
type Image struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Attribute is a product-level attribute with its option values.
type Attribute struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Visible   bool     `json:"visible"`
	Variation bool     `json:"variation"`
	Options   []string `json:"options"`
}

// Category is an upstream product category.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Product is one upstream catalog entry.
type Product struct {
	ID               int64       `json:"id"`
	Name             string      `json:"name"`
	Slug             string      `json:"slug"`
	Type             string      `json:"type"`
	Description      string      `json:"description"`
	ShortDescription string      `json:"short_description"`
	Price            string      `json:"price"`
	RegularPrice     string      `json:"regular_price"`
	SalePrice        string      `json:"sale_price"`
	OnSale           bool        `json:"on_sale"`
	Images           []Image     `json:"images"`
	Attributes       []Attribute `json:"attributes"`
	Variations       []int64     `json:"variations"`
	Categories       []Category  `json:"categories"`
	StockStatus      string      `json:"stock_status"`
}

// InStock reports whether the product can currently be ordered.
func (p *Product) InStock() bool {
	return p.StockStatus == "instock" || p.StockStatus == "onbackorder"
}

// VariationAttribute is one attribute/value pair on a concrete variation.
type VariationAttribute struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Option string `json:"option"`
}

// Variation is one purchasable combination of a variable product.
type Variation struct {
	ID           int64                `json:"id"`
	Price        string               `json:"price"`
	RegularPrice string               `json:"regular_price"`
	SalePrice    string               `json:"sale_price"`
	OnSale       bool                 `json:"on_sale"`
	Image        *Image               `json:"image,omitempty"`
	Attributes   []VariationAttribute `json:"attributes"`
	StockStatus  string               `json:"stock_status"`
}
