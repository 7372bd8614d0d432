package orders_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loomline/internal/domain"
	"loomline/internal/orders"
	"loomline/internal/store/memory"
)

func newLedger() *orders.Ledger {
	return orders.NewLedger(memory.New().Orders())
}

func input(email string) orders.CreateInput {
	return orders.CreateInput{
		CustomerID:    "cust-1",
		CustomerEmail: email,
		PaymentMethod: domain.PayCashOnDelivery,
		Items: []domain.OrderItem{
			{ProductID: "tee-oxford-001", Name: "Oxford Cotton Tee", UnitPrice: 1000, Size: "M", Quantity: 2},
		},
		Subtotal: 2000,
		Shipping: 99,
		Total:    2099,
	}
}

func TestCreateOrder(t *testing.T) {
	l := newLedger()

	o, err := l.Create(input("A@X.com"))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", o.CustomerEmail, "email is normalized")
	assert.Equal(t, domain.OrderPending, o.Status, "cash on delivery starts pending")
	assert.Equal(t, domain.PaymentPending, o.PaymentStatus)
	assert.NotEmpty(t, o.DisplayOrderID)
	assert.Equal(t, 2099.0, o.Total)

	in := input("a@x.com")
	in.PaymentMethod = domain.PayOnline
	o2, err := l.Create(in)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderConfirmed, o2.Status, "online payment starts confirmed")
}

func TestCreateOrderValidation(t *testing.T) {
	l := newLedger()

	in := input("a@x.com")
	in.Total = 9999
	_, err := l.Create(in)
	assert.True(t, domain.IsValidation(err), "totals invariant must hold, got %v", err)

	in = input("a@x.com")
	in.Items = nil
	in.Subtotal, in.Total = 0, 99
	_, err = l.Create(in)
	assert.True(t, domain.IsValidation(err), "empty items must be rejected")

	in = input("a@x.com")
	in.PaymentMethod = "barter"
	_, err = l.Create(in)
	assert.True(t, domain.IsValidation(err))
}

func TestListForFallsBackToCustomerID(t *testing.T) {
	l := newLedger()

	// order created while the account used its old address
	_, err := l.Create(input("legacy@x.com"))
	require.NoError(t, err)

	// the handle logs in under a different address than the legacy order
	handle := domain.Handle{CustomerID: "cust-1", Email: "new@x.com"}
	list, err := l.ListFor(handle)
	require.NoError(t, err)
	require.Len(t, list, 1, "customer-id fallback must find legacy orders")

	// once an email-indexed order exists, the email path wins
	_, err = l.Create(input("new@x.com"))
	require.NoError(t, err)
	list, err = l.ListFor(handle)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new@x.com", list[0].CustomerEmail)
}

func TestListForNewestFirst(t *testing.T) {
	l := newLedger()
	var ids []string
	for i := 0; i < 3; i++ {
		o, err := l.Create(input("a@x.com"))
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	list, err := l.ListFor(domain.Handle{Email: "a@x.com"})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[0], list[2].ID)
}

func TestTransitionStatus(t *testing.T) {
	l := newLedger()
	o, err := l.Create(input("a@x.com"))
	require.NoError(t, err)

	for _, next := range []domain.OrderStatus{
		domain.OrderConfirmed, domain.OrderProcessing, domain.OrderShipped, domain.OrderDelivered,
	} {
		o, err = l.TransitionStatus(o.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, o.Status)
	}

	// delivered is terminal
	_, err = l.TransitionStatus(o.ID, domain.OrderCancelled)
	assert.True(t, domain.IsInvalidTransition(err))
}

func TestTransitionRejectionLeavesStoreUntouched(t *testing.T) {
	l := newLedger()
	o, err := l.Create(input("a@x.com"))
	require.NoError(t, err)

	_, err = l.TransitionStatus(o.ID, domain.OrderCancelled)
	require.NoError(t, err)

	_, err = l.TransitionStatus(o.ID, domain.OrderDelivered)
	assert.True(t, domain.IsInvalidTransition(err))

	got, err := l.Get(o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, got.Status, "rejected transition must not mutate the order")
}

func TestUpdatePaymentStatus(t *testing.T) {
	l := newLedger()
	o, err := l.Create(input("a@x.com"))
	require.NoError(t, err)
	require.Equal(t, domain.OrderPending, o.Status)

	// paid promotes pending to confirmed
	o, err = l.UpdatePaymentStatus(o.ID, domain.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, o.PaymentStatus)
	assert.Equal(t, domain.OrderConfirmed, o.Status)

	// paid again leaves a non-pending status alone
	o2, err := l.Create(input("a@x.com"))
	require.NoError(t, err)
	o2, err = l.TransitionStatus(o2.ID, domain.OrderCancelled)
	require.NoError(t, err)
	o2, err = l.UpdatePaymentStatus(o2.ID, domain.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, o2.Status)

	_, err = l.UpdatePaymentStatus("missing", domain.PaymentPaid)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHasPurchased(t *testing.T) {
	l := newLedger()
	_, err := l.Create(input("a@x.com"))
	require.NoError(t, err)

	h := domain.Handle{Email: "a@x.com"}
	ok, err := l.HasPurchased(h, "tee-oxford-001")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.HasPurchased(h, "hood-ember-001")
	require.NoError(t, err)
	assert.False(t, ok)
}
