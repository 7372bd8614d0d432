// Package checkout finalizes a purchase through a staged order and an
// out-of-band possession check. The pending order is a server-held
// record with explicit states, so the commit step always has something
// authoritative to transition even when the early persistence attempt
// failed or the client lost its copy.
package checkout

import (
	"errors"
	"log"
	"sync"
	"time"

	"loomline/internal/catalog"
	"loomline/internal/domain"
	"loomline/internal/orders"
)

var (
	ErrOTPMismatch = errors.New("incorrect verification code")
	ErrOTPExpired  = errors.New("verification code expired, request a new one")
	ErrOTPLocked   = errors.New("too many incorrect attempts, restart checkout")
	ErrCooldown    = errors.New("please wait before requesting another code")
	ErrCommitted   = errors.New("order already finalized")
)

type PendingState string

const (
	StateStaged    PendingState = "staged"
	StateVerified  PendingState = "verified"
	StateCommitted PendingState = "committed"
	StateExpired   PendingState = "expired"
)

type pendingOrder struct {
	state    PendingState
	phone    string
	handle   domain.Handle
	input    orders.CreateInput
	orderID  string // set when the stage-time persistence succeeded
	code     string
	expires  time.Time
	lastSent time.Time
	attempts int
	locked   bool
}

type Finalizer struct {
	Orders  *orders.Ledger
	Catalog *catalog.Catalog
	Gateway PaymentGateway
	Sender  OTPSender

	TTL         time.Duration
	Cooldown    time.Duration
	MaxAttempts int

	mu      sync.Mutex
	pending map[string]*pendingOrder // keyed by display order id
	now     func() time.Time
}

func NewFinalizer(ol *orders.Ledger, cat *catalog.Catalog, gw PaymentGateway, sender OTPSender, ttl, cooldown time.Duration, maxAttempts int) *Finalizer {
	return &Finalizer{
		Orders:      ol,
		Catalog:     cat,
		Gateway:     gw,
		Sender:      sender,
		TTL:         ttl,
		Cooldown:    cooldown,
		MaxAttempts: maxAttempts,
		pending:     map[string]*pendingOrder{},
		now:         time.Now,
	}
}

type StageItem struct {
	ProductID string
	Size      string
	Quantity  int
}

type StageInput struct {
	Items         []StageItem
	Phone         string
	PaymentMethod domain.PaymentMethod
	ShippingAddr  domain.Address
}

type StageResult struct {
	DisplayOrderID string  `json:"displayOrderId"`
	OrderID        string  `json:"orderId,omitempty"` // empty when the early persistence attempt failed
	Subtotal       float64 `json:"subtotal"`
	Shipping       float64 `json:"shipping"`
	Total          float64 `json:"total"`
}

const (
	freeShippingOver = 2500.0
	flatShippingFee  = 99.0
)

// Stage snapshots the cart against the catalog, assigns the display
// order id, attempts the immediate ledger write, and opens the OTP slot.
// A failed ledger write here is non-fatal: the server-held pending
// record remains the authority and Verify persists from it.
func (f *Finalizer) Stage(h domain.Handle, in StageInput) (*StageResult, error) {
	if len(in.Items) == 0 {
		return nil, domain.Invalid("items", "nothing to check out")
	}
	if in.Phone == "" {
		return nil, domain.Invalid("phone", "required for verification")
	}

	var snapshot []domain.OrderItem
	subtotal := 0.0
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return nil, domain.Invalid("items", "quantity must be at least 1")
		}
		p, err := f.Catalog.Lookup(it.ProductID)
		if err != nil {
			return nil, domain.Invalid("items", "unknown product "+it.ProductID)
		}
		if !p.InStock {
			return nil, domain.Invalid("items", p.Name+" is out of stock")
		}
		if !hasSize(p.Sizes, it.Size) {
			return nil, domain.Invalid("items", "size "+it.Size+" not available for "+p.Name)
		}
		snapshot = append(snapshot, domain.OrderItem{
			ProductID:      p.ID,
			Name:           p.Name,
			UnitPrice:      p.Price,
			CompareAtPrice: p.CompareAtPrice,
			Size:           it.Size,
			Quantity:       it.Quantity,
			ImageRef:       p.ImageRef,
		})
		subtotal += p.Price * float64(it.Quantity)
	}
	shipping := flatShippingFee
	if subtotal >= freeShippingOver {
		shipping = 0
	}

	input := orders.CreateInput{
		DisplayOrderID: orders.NewDisplayOrderID(),
		CustomerID:     h.CustomerID,
		CustomerEmail:  h.Email,
		PaymentMethod:  in.PaymentMethod,
		Items:          snapshot,
		Subtotal:       subtotal,
		Shipping:       shipping,
		Total:          subtotal + shipping,
		ShippingAddr:   in.ShippingAddr,
	}

	p := &pendingOrder{
		state:    StateStaged,
		phone:    in.Phone,
		handle:   h,
		input:    input,
		code:     newCode(),
		expires:  f.now().Add(f.TTL),
		lastSent: f.now(),
	}

	// Early persistence. Validation failures are the caller's problem;
	// storage failures leave the pending record as the retry source.
	if o, err := f.Orders.Create(input); err == nil {
		p.orderID = o.ID
	} else if domain.IsValidation(err) {
		return nil, err
	}

	f.mu.Lock()
	f.sweepExpired()
	f.pending[input.DisplayOrderID] = p
	f.mu.Unlock()

	// Delivery failure is not fatal: the customer can hit resend, which
	// does surface the error. Leave a trace either way.
	if serr := f.Sender.Send(in.Phone, p.code); serr != nil {
		log.Printf("[otp] send failed display_order_id=%s: %v", input.DisplayOrderID, serr)
	}

	return &StageResult{
		DisplayOrderID: input.DisplayOrderID,
		OrderID:        p.orderID,
		Subtotal:       subtotal,
		Shipping:       shipping,
		Total:          subtotal + shipping,
	}, nil
}

// Resend issues a fresh code for the slot, gated by the fixed cooldown.
// The expiry timer restarts; a locked slot stays locked.
func (f *Finalizer) Resend(displayOrderID string) error {
	f.mu.Lock()
	p, err := f.slot(displayOrderID)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	if f.now().Sub(p.lastSent) < f.Cooldown {
		f.mu.Unlock()
		return ErrCooldown
	}
	p.code = newCode()
	p.expires = f.now().Add(f.TTL)
	p.lastSent = f.now()
	p.attempts = 0
	phone, code := p.phone, p.code
	f.mu.Unlock()
	return f.Sender.Send(phone, code)
}

// Verify matches the code against the slot. On success the pending
// order is committed: persisted now if the stage-time write never
// landed, then the slot is cleared. A wrong guess only bumps the
// attempt counter; the code itself is never mutated by guesses.
func (f *Finalizer) Verify(displayOrderID, code string) (*domain.Order, error) {
	f.mu.Lock()
	p, err := f.slot(displayOrderID)
	if err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if code != p.code {
		p.attempts++
		if p.attempts >= f.MaxAttempts {
			p.locked = true
		}
		locked := p.locked
		f.mu.Unlock()
		if locked {
			return nil, ErrOTPLocked
		}
		return nil, ErrOTPMismatch
	}
	p.state = StateVerified
	orderID, input := p.orderID, p.input
	f.mu.Unlock()

	// Commit outside the lock; ledger writes can be slow.
	var o *domain.Order
	if orderID != "" {
		o, err = f.Orders.Get(orderID)
	} else {
		o, err = f.Orders.Create(input)
	}
	if err != nil {
		return nil, err
	}

	if o.PaymentMethod == domain.PayOnline && f.Gateway != nil {
		if _, gerr := f.Gateway.Initiate(o); gerr != nil {
			// payment can be retried via the gateway; the order stands
			_, _ = f.Orders.UpdatePaymentStatus(o.ID, domain.PaymentFailed)
		}
	}

	f.mu.Lock()
	p.state = StateCommitted
	delete(f.pending, displayOrderID)
	f.mu.Unlock()
	return o, nil
}

// State reports the pending record's current state, for the checkout UI.
func (f *Finalizer) State(displayOrderID string) (PendingState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pending[displayOrderID]
	if !ok {
		return "", domain.ErrNotFound
	}
	if f.now().After(p.expires) {
		p.state = StateExpired
	}
	return p.state, nil
}

// slot fetches a live slot; callers hold f.mu. An expired slot is
// dropped from the map on first touch, the sweep in Stage catches the
// rest.
func (f *Finalizer) slot(displayOrderID string) (*pendingOrder, error) {
	p, ok := f.pending[displayOrderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if p.state == StateCommitted {
		return nil, ErrCommitted
	}
	if p.locked {
		return nil, ErrOTPLocked
	}
	if f.now().After(p.expires) {
		p.state = StateExpired
		delete(f.pending, displayOrderID)
		return nil, ErrOTPExpired
	}
	return p, nil
}

// sweepExpired drops every dead slot; callers hold f.mu.
func (f *Finalizer) sweepExpired() {
	now := f.now()
	for id, p := range f.pending {
		if now.After(p.expires) {
			delete(f.pending, id)
		}
	}
}

func hasSize(sizes []string, s string) bool {
	for _, v := range sizes {
		if v == s {
			return true
		}
	}
	return false
}
