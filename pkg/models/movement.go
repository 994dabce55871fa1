package models

import "time"

// Stock movement reasons.
const (
	ReasonBooked     = "booked"
	ReasonReturned   = "returned"
	ReasonUnreturned = "unreturned"
	ReasonReleased   = "released"
)

// StockMovement records one applied change to a product's stock.
type StockMovement struct {
	OrderID   string    `json:"orderId"`
	ProductID string    `json:"productId"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}
