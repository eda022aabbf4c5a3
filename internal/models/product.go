// internal/models/product.go
package models

// Product is a single entry in the downstream search response. The
// field set mirrors the store catalog; unknown fields are preserved
// only on the structured passthrough path, which never decodes into
// this struct.
type Product struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	ImageURL    string  `json:"image_url,omitempty"`
}
