package models

import "time"

type Order struct {
	ID              string          `json:"id" db:"order_id"`
	UserID          string          `json:"user_id" db:"user_id"`
	Items           []OrderLineItem `json:"items" db:"items"`
	TotalPrice      float64         `json:"total_price" db:"total_price"`
	Status          string          `json:"status" db:"status"`
	Restocked       bool            `json:"restocked" db:"restocked"`
	RestockedAt     *time.Time      `json:"restocked_at,omitempty" db:"restocked_at"`
	RestockNote     string          `json:"restock_note,omitempty" db:"restock_note"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty" db:"payment_intent_id"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderLineItem est une photo du panier au moment de la commande :
// le prix et le nom ne bougent plus même si le produit change ensuite.
type OrderLineItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"image_url"`
}
