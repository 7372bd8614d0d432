// Package orders is the order ledger: it owns order records and every
// status transition. Orders are indexed by id, display order id,
// customer id, and (primary, restart-stable) normalized email.
package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"loomline/internal/domain"
	"loomline/internal/store"
)

type Ledger struct {
	Store store.OrderStore
}

func NewLedger(s store.OrderStore) *Ledger { return &Ledger{Store: s} }

type CreateInput struct {
	DisplayOrderID string
	CustomerID     string
	CustomerEmail  string
	PaymentMethod  domain.PaymentMethod
	Items          []domain.OrderItem
	Subtotal       float64
	Shipping       float64
	Total          float64
	ShippingAddr   domain.Address
}

// Create validates the totals invariant and writes the order under all
// of its indexes. Initial status depends on the payment method: cash on
// delivery starts pending, online payment starts confirmed.
func (l *Ledger) Create(in CreateInput) (*domain.Order, error) {
	if in.CustomerEmail == "" {
		return nil, domain.Invalid("customerEmail", "required")
	}
	method := in.PaymentMethod
	if method != domain.PayOnline && method != domain.PayCashOnDelivery {
		return nil, domain.Invalid("paymentMethod", "must be online or cash-on-delivery")
	}

	status := domain.OrderConfirmed
	if method == domain.PayCashOnDelivery {
		status = domain.OrderPending
	}

	now := time.Now().UTC()
	o := &domain.Order{
		ID:             uuid.NewString(),
		DisplayOrderID: in.DisplayOrderID,
		CustomerID:     in.CustomerID,
		CustomerEmail:  domain.NormalizeEmail(in.CustomerEmail),
		Status:         status,
		PaymentMethod:  method,
		PaymentStatus:  domain.PaymentPending,
		Items:          append([]domain.OrderItem(nil), in.Items...),
		Subtotal:       in.Subtotal,
		Shipping:       in.Shipping,
		Total:          in.Total,
		ShippingAddr:   in.ShippingAddr,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if o.DisplayOrderID == "" {
		o.DisplayOrderID = NewDisplayOrderID()
	}
	if err := o.CheckTotals(); err != nil {
		return nil, err
	}
	if err := l.Store.Create(o); err != nil {
		return nil, err
	}
	return o, nil
}

func (l *Ledger) Get(id string) (*domain.Order, error) {
	return l.Store.ByID(id)
}

func (l *Ledger) GetByDisplayID(displayID string) (*domain.Order, error) {
	return l.Store.ByDisplayID(displayID)
}

// ListFor returns the customer's orders newest first. Normalized email
// is the primary key across restarts; the customer-id lookup is a
// fallback for orders written before email indexing existed for that
// account.
func (l *Ledger) ListFor(h domain.Handle) ([]domain.Order, error) {
	out, err := l.Store.ListByEmail(domain.NormalizeEmail(h.Email))
	if err != nil {
		return nil, err
	}
	if len(out) == 0 && h.CustomerID != "" {
		return l.Store.ListByCustomerID(h.CustomerID)
	}
	return out, nil
}

func (l *Ledger) ListAll(limit int) ([]domain.Order, error) {
	return l.Store.ListAll(limit)
}

// TransitionStatus applies the forward-only chain pending -> confirmed
// -> processing -> shipped -> delivered, with cancelled reachable from
// any non-terminal state. The store is untouched on rejection.
func (l *Ledger) TransitionStatus(id string, to domain.OrderStatus) (*domain.Order, error) {
	if !to.Valid() {
		return nil, domain.Invalid("status", "unknown order status")
	}
	o, err := l.Store.ByID(id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(o.Status, to) {
		return nil, &domain.TransitionError{From: o.Status, To: to}
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	if err := l.Store.Update(o); err != nil {
		return nil, err
	}
	return o, nil
}

// UpdatePaymentStatus records the gateway outcome. Payment confirmation
// implies order confirmation: paid promotes a pending order to
// confirmed, and otherwise leaves status alone.
func (l *Ledger) UpdatePaymentStatus(id string, ps domain.PaymentStatus) (*domain.Order, error) {
	switch ps {
	case domain.PaymentPending, domain.PaymentPaid, domain.PaymentFailed:
	default:
		return nil, domain.Invalid("paymentStatus", "unknown payment status")
	}
	o, err := l.Store.ByID(id)
	if err != nil {
		return nil, err
	}
	o.PaymentStatus = ps
	if ps == domain.PaymentPaid && o.Status == domain.OrderPending {
		o.Status = domain.OrderConfirmed
	}
	o.UpdatedAt = time.Now().UTC()
	if err := l.Store.Update(o); err != nil {
		return nil, err
	}
	return o, nil
}

// HasPurchased reports whether any of the customer's orders contains the
// product. The review ledger uses this to compute the verified-purchase
// badge at review creation.
func (l *Ledger) HasPurchased(h domain.Handle, productID string) (bool, error) {
	list, err := l.ListFor(h)
	if err != nil {
		return false, err
	}
	for i := range list {
		if list[i].Contains(productID) {
			return true, nil
		}
	}
	return false, nil
}

// NewDisplayOrderID mints the customer-facing order number, e.g. LM-5F3A2B1C.
func NewDisplayOrderID() string {
	return "LM-" + strings.ToUpper(uuid.NewString()[:8])
}
