package models

import "time"

type Product struct {
	ID                string    `json:"id" db:"product_id"`
	Name              string    `json:"name" db:"name"`
	Description       string    `json:"description" db:"description"`
	Price             float64   `json:"price" db:"price"`
	Stock             int       `json:"stock" db:"stock"`
	LowStockThreshold int       `json:"low_stock_threshold" db:"low_stock_threshold"`
	SKU               string    `json:"sku" db:"sku"`
	CategoryID        string    `json:"category_id" db:"category_id"`
	ImageURLs         []string  `json:"image_urls" db:"image_urls"`
	IsActive          bool      `json:"is_active" db:"is_active"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// ImageURL retourne l'image principale du produit (la première)
func (p Product) ImageURL() string {
	if len(p.ImageURLs) > 0 {
		return p.ImageURLs[0]
	}
	return ""
}
