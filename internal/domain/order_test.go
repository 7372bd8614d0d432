package domain

import "testing"

func TestCheckTotals(t *testing.T) {
	base := Order{
		Items: []OrderItem{
			{ProductID: "tee-oxford-001", UnitPrice: 1000, Quantity: 2},
		},
		Subtotal: 2000,
		Shipping: 99,
		Total:    2099,
	}
	if err := base.CheckTotals(); err != nil {
		t.Fatalf("valid totals rejected: %v", err)
	}

	bad := base
	bad.Total = 2100
	if err := bad.CheckTotals(); err == nil {
		t.Fatal("total mismatch accepted")
	}

	bad = base
	bad.Subtotal = 1999
	if err := bad.CheckTotals(); err == nil {
		t.Fatal("subtotal mismatch accepted")
	}

	empty := Order{Subtotal: 0, Shipping: 0, Total: 0}
	if err := empty.CheckTotals(); err == nil {
		t.Fatal("empty items accepted")
	}
}

func TestCanTransition(t *testing.T) {
	allow := []struct{ from, to OrderStatus }{
		{OrderPending, OrderConfirmed},
		{OrderConfirmed, OrderProcessing},
		{OrderProcessing, OrderShipped},
		{OrderShipped, OrderDelivered},
		{OrderPending, OrderCancelled},
		{OrderShipped, OrderCancelled},
	}
	for _, tc := range allow {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}
	deny := []struct{ from, to OrderStatus }{
		{OrderPending, OrderShipped},      // no skipping
		{OrderConfirmed, OrderPending},    // no going back
		{OrderDelivered, OrderCancelled},  // terminal
		{OrderCancelled, OrderDelivered},  // terminal
		{OrderCancelled, OrderCancelled},  // terminal
		{OrderDelivered, OrderProcessing}, // terminal
	}
	for _, tc := range deny {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be rejected", tc.from, tc.to)
		}
	}
}
