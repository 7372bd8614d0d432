package domain

import (
	"math"
	"time"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

type PaymentMethod string

const (
	PayOnline         PaymentMethod = "online"
	PayCashOnDelivery PaymentMethod = "cash-on-delivery"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// OrderItem is a snapshot taken at order creation. It is never re-derived
// from the live catalog, so historical orders survive price changes.
type OrderItem struct {
	ProductID      string  `json:"productId"`
	Name           string  `json:"name"`
	UnitPrice      float64 `json:"unitPrice"`
	CompareAtPrice float64 `json:"compareAtPrice,omitempty"`
	Size           string  `json:"size"`
	Quantity       int     `json:"quantity"`
	ImageRef       string  `json:"imageRef,omitempty"`
}

type Address struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type Order struct {
	ID             string        `json:"id"`
	DisplayOrderID string        `json:"displayOrderId"`
	CustomerID     string        `json:"customerId"`
	CustomerEmail  string        `json:"customerEmail"` // normalized
	Status         OrderStatus   `json:"status"`
	PaymentMethod  PaymentMethod `json:"paymentMethod"`
	PaymentStatus  PaymentStatus `json:"paymentStatus"`
	Items          []OrderItem   `json:"items"`
	Subtotal       float64       `json:"subtotal"`
	Shipping       float64       `json:"shipping"`
	Total          float64       `json:"total"`
	ShippingAddr   Address       `json:"shippingAddress"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// nextStatus is the forward-only chain; cancelled is reachable from any
// non-terminal state and handled separately in CanTransition.
var nextStatus = map[OrderStatus]OrderStatus{
	OrderPending:    OrderConfirmed,
	OrderConfirmed:  OrderProcessing,
	OrderProcessing: OrderShipped,
	OrderShipped:    OrderDelivered,
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

func CanTransition(from, to OrderStatus) bool {
	if to == OrderCancelled {
		return !from.Terminal()
	}
	return nextStatus[from] == to
}

const moneyEpsilon = 0.005

// CheckTotals verifies subtotal == Σ(unitPrice×qty) and total == subtotal+shipping.
func (o *Order) CheckTotals() error {
	if len(o.Items) == 0 {
		return Invalid("items", "order must contain at least one item")
	}
	sum := 0.0
	for _, it := range o.Items {
		if it.Quantity < 1 {
			return Invalid("items", "quantity must be at least 1")
		}
		if it.UnitPrice < 0 {
			return Invalid("items", "unit price must not be negative")
		}
		sum += it.UnitPrice * float64(it.Quantity)
	}
	if math.Abs(sum-o.Subtotal) > moneyEpsilon {
		return Invalid("subtotal", "does not match sum of line items")
	}
	if math.Abs(o.Subtotal+o.Shipping-o.Total) > moneyEpsilon {
		return Invalid("total", "does not equal subtotal plus shipping")
	}
	return nil
}

// Contains reports whether any line item references productID.
func (o *Order) Contains(productID string) bool {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}
