// Package reviews is the review ledger: one review per customer per
// product, a toggling helpful vote counter, and per-product rating
// stats. It reads the order ledger to stamp the verified-purchase badge
// but never writes orders.
package reviews

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"loomline/internal/domain"
	"loomline/internal/orders"
	"loomline/internal/store"
)

type Ledger struct {
	Store  store.ReviewStore
	Orders *orders.Ledger
}

func NewLedger(s store.ReviewStore, o *orders.Ledger) *Ledger {
	return &Ledger{Store: s, Orders: o}
}

// Create validates the submission, rejects duplicates per
// (product, normalized email), and freezes verifiedPurchase from the
// customer's order history as of now. A later refund does not strip the
// badge. Reviews are auto-approved.
func (l *Ledger) Create(h domain.Handle, productID string, rating int, comment string) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, domain.Invalid("rating", "must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if len(comment) < domain.MinCommentLen {
		return nil, domain.Invalid("comment", "too short")
	}

	email := domain.NormalizeEmail(h.Email)
	if _, err := l.Store.ByProductAndEmail(productID, email); err == nil {
		return nil, domain.ErrDuplicateReview
	}

	verified, err := l.Orders.HasPurchased(h, productID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r := &domain.Review{
		ID:               uuid.NewString(),
		ProductID:        productID,
		CustomerID:       h.CustomerID,
		CustomerEmail:    email,
		DisplayName:      h.DisplayName,
		Rating:           rating,
		Comment:          comment,
		VerifiedPurchase: verified,
		HelpfulCount:     0,
		Status:           domain.ReviewApproved,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := l.Store.Create(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Vote applies the toggle: first vote records the stance (only helpful
// votes count), repeating the same stance un-votes, and the opposite
// stance flips it. The store runs the whole step atomically;
// helpfulCount always equals the number of current helpful=true votes.
func (l *Ledger) Vote(reviewID string, h domain.Handle, helpful bool) (int, error) {
	return l.Store.ApplyVote(reviewID, h.CustomerID, domain.NormalizeEmail(h.Email), helpful)
}

func (l *Ledger) Get(reviewID string) (*domain.Review, error) {
	return l.Store.ByID(reviewID)
}

// ListForProduct returns approved reviews, newest first.
func (l *Ledger) ListForProduct(productID string) ([]domain.Review, error) {
	all, err := l.Store.ListByProduct(productID)
	if err != nil {
		return nil, err
	}
	out := all[:0:0]
	for _, r := range all {
		if r.Status == domain.ReviewApproved {
			out = append(out, r)
		}
	}
	return out, nil
}

// Stats aggregates approved reviews only. Average is rounded to one
// decimal; the distribution always carries all five buckets.
func (l *Ledger) Stats(productID string) (domain.ReviewStats, error) {
	approved, err := l.ListForProduct(productID)
	if err != nil {
		return domain.ReviewStats{}, err
	}
	stats := domain.ReviewStats{Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	if len(approved) == 0 {
		return stats, nil
	}
	sum := 0
	for _, r := range approved {
		stats.Distribution[r.Rating]++
		sum += r.Rating
	}
	stats.TotalReviews = len(approved)
	stats.AverageRating = math.Round(float64(sum)/float64(len(approved))*10) / 10
	return stats, nil
}
