// Package store selects the storage backend for every entity family.
// The choice is made exactly once, from configuration at process start;
// ledgers receive the resulting Stores bundle by constructor injection
// and never consult configuration again.
package store

import (
	"fmt"

	"loomline/internal/config"
	"loomline/internal/domain"
	"loomline/internal/store/memory"
	"loomline/internal/store/sqlite"
)

// CustomerStore persists customer records. Emails are stored normalized
// and are the stable cross-restart key; ids are unique only within one
// store lifetime.
type CustomerStore interface {
	Create(c *domain.Customer) error // domain.ErrDuplicateEmail on collision
	ByID(id string) (*domain.Customer, error)
	ByEmail(normEmail string) (*domain.Customer, error)
	Update(c *domain.Customer) error
	List() ([]domain.Customer, error)
}

// OrderStore persists orders under three indexes: internal id, display
// order id, and (primary for listing) normalized customer email.
type OrderStore interface {
	Create(o *domain.Order) error
	ByID(id string) (*domain.Order, error)
	ByDisplayID(displayID string) (*domain.Order, error)
	ListByEmail(normEmail string) ([]domain.Order, error)      // newest first
	ListByCustomerID(customerID string) ([]domain.Order, error) // legacy path
	ListAll(limit int) ([]domain.Order, error)
	Update(o *domain.Order) error
}

// ReviewStore persists reviews and votes. ApplyVote runs the whole vote
// read-modify-write atomically (a lock in memory, a transaction in
// sqlite) so concurrent votes cannot corrupt helpfulCount.
type ReviewStore interface {
	Create(r *domain.Review) error // domain.ErrDuplicateReview on collision
	ByID(id string) (*domain.Review, error)
	ByProductAndEmail(productID, normEmail string) (*domain.Review, error)
	ListByProduct(productID string) ([]domain.Review, error) // newest first
	Update(r *domain.Review) error
	ApplyVote(reviewID, customerID, normEmail string, helpful bool) (newHelpfulCount int, err error)
	VotesFor(reviewID string) ([]domain.ReviewVote, error)
}

type Stores struct {
	Customers CustomerStore
	Orders    OrderStore
	Reviews   ReviewStore
}

// Open builds the Stores bundle for the configured backend. Both
// backends are synchronous: a returned write is visible to every
// subsequent read, from any request.
func Open(cfg config.Config) (*Stores, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		return &Stores{
			Customers: sqlite.NewCustomerStore(db),
			Orders:    sqlite.NewOrderStore(db),
			Reviews:   sqlite.NewReviewStore(db),
		}, nil
	case config.BackendMemory, "":
		m := memory.New()
		return &Stores{Customers: m.Customers(), Orders: m.Orders(), Reviews: m.Reviews()}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
