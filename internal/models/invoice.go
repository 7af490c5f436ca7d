package models

import "time"

// Invoice is a billing record; only the referential linkage matters here,
// amounts and document layout live elsewhere.
type Invoice struct {
	ID         uint64    `json:"id"`
	Number     string    `json:"number"`
	OrderID    *uint64   `json:"order_id,omitempty"`
	CustomerID *uint64   `json:"customer_id,omitempty"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	IssuedAt   time.Time `json:"issued_at"`
	CreatedAt  time.Time `json:"created_at"`
}
