package models

import "time"

type StockMovement struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Type      string    `json:"type"` // "sale", "restock", "return", "adjustment"
	Quantity  int       `json:"quantity"`
	PrevStock int       `json:"prev_stock"`
	NewStock  int       `json:"new_stock"`
	Reason    string    `json:"reason"`
	OrderID   string    `json:"order_id,omitempty"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
