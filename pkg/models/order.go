package models

import (
	"time"
)

type Status string

const (
	StatusPending  Status = "Pending"
	StatusRented   Status = "Rented"
	StatusReturned Status = "Returned"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRented, StatusReturned:
		return true
	}
	return false
}

type Order struct {
	ID           string     `bson:"id" json:"id"`
	CustomerName string     `bson:"customerName" json:"customerName"`
	Date         time.Time  `bson:"date" json:"date"`
	Status       Status     `bson:"status" json:"status"`
	Items        []LineItem `bson:"items" json:"items"`
	TotalAmount  float64    `bson:"totalAmount" json:"totalAmount"`
	CreatedAt    time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// LineItem is one rented product and how many units of it.
type LineItem struct {
	ProductID string `bson:"productId" json:"productId"`
	Quantity  int    `bson:"quantity" json:"quantity"`
}

// OrderInput is the booking payload. Status sent by the client is ignored;
// new orders always start Pending.
type OrderInput struct {
	CustomerName string     `json:"customerName"`
	Date         *time.Time `json:"date,omitempty"`
	Items        []LineItem `json:"items"`
	TotalAmount  Number     `json:"totalAmount"`
}
