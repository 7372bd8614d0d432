package handlers

import (
	"loomline/internal/catalog"
	"loomline/internal/checkout"
	"loomline/internal/config"
	"loomline/internal/identity"
	"loomline/internal/orders"
	"loomline/internal/reviews"
	"loomline/internal/store"
)

type Deps struct {
	Identity *identity.Service

	AuthHandler     *AuthHandler
	CatalogHandler  *CatalogHandler
	OrderHandler    *OrderHandler
	ReviewHandler   *ReviewHandler
	CheckoutHandler *CheckoutHandler
	AdminHandler    *AdminHandler
}

// NewDeps wires the ledgers onto the already-selected store bundle.
// Backend choice happened once in store.Open; nothing here looks at
// configuration again except the OTP knobs.
func NewDeps(st *store.Stores, cfg config.Config, cat *catalog.Catalog, gw checkout.PaymentGateway, sender checkout.OTPSender) *Deps {
	tokens := identity.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	idSvc := identity.NewService(st.Customers, tokens)

	orderLedger := orders.NewLedger(st.Orders)
	reviewLedger := reviews.NewLedger(st.Reviews, orderLedger)
	finalizer := checkout.NewFinalizer(orderLedger, cat, gw, sender, cfg.OTPTTL, cfg.OTPCooldown, cfg.OTPMaxAttempts)

	return &Deps{
		Identity:        idSvc,
		AuthHandler:     &AuthHandler{Identity: idSvc},
		CatalogHandler:  &CatalogHandler{Catalog: cat, Reviews: reviewLedger},
		OrderHandler:    &OrderHandler{Orders: orderLedger},
		ReviewHandler:   &ReviewHandler{Reviews: reviewLedger},
		CheckoutHandler: &CheckoutHandler{Checkout: finalizer, Orders: orderLedger},
		AdminHandler:    &AdminHandler{Orders: orderLedger, Customers: st.Customers},
	}
}
