package reviews_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loomline/internal/domain"
	"loomline/internal/orders"
	"loomline/internal/reviews"
	"loomline/internal/store/memory"
)

func newLedgers() (*reviews.Ledger, *orders.Ledger) {
	m := memory.New()
	ol := orders.NewLedger(m.Orders())
	return reviews.NewLedger(m.Reviews(), ol), ol
}

func buyTee(t *testing.T, ol *orders.Ledger, email string) {
	t.Helper()
	_, err := ol.Create(orders.CreateInput{
		CustomerEmail: email,
		PaymentMethod: domain.PayCashOnDelivery,
		Items: []domain.OrderItem{
			{ProductID: "tee-oxford-001", Name: "Oxford Cotton Tee", UnitPrice: 1000, Size: "M", Quantity: 2},
		},
		Subtotal: 2000, Shipping: 99, Total: 2099,
	})
	require.NoError(t, err)
}

func TestCreateReviewVerifiedPurchase(t *testing.T) {
	rl, ol := newLedgers()
	buyTee(t, ol, "a@x.com")

	h := domain.Handle{Email: "a@x.com", DisplayName: "Asha"}
	r, err := rl.Create(h, "tee-oxford-001", 5, "great fit, soft fabric, would buy again")
	require.NoError(t, err)
	assert.True(t, r.VerifiedPurchase)
	assert.Equal(t, domain.ReviewApproved, r.Status)
	assert.Equal(t, 0, r.HelpfulCount)

	// second attempt on the same product by the same email
	_, err = rl.Create(h, "tee-oxford-001", 4, "changed my mind about the fit")
	assert.ErrorIs(t, err, domain.ErrDuplicateReview)

	// a product this customer never bought is not verified
	r2, err := rl.Create(h, "hood-ember-001", 3, "looks good but runs small")
	require.NoError(t, err)
	assert.False(t, r2.VerifiedPurchase)
}

func TestCreateReviewValidation(t *testing.T) {
	rl, _ := newLedgers()
	h := domain.Handle{Email: "a@x.com"}

	_, err := rl.Create(h, "tee-oxford-001", 0, "rating is out of range here")
	assert.True(t, domain.IsValidation(err))

	_, err = rl.Create(h, "tee-oxford-001", 6, "rating is out of range here")
	assert.True(t, domain.IsValidation(err))

	_, err = rl.Create(h, "tee-oxford-001", 4, "short")
	assert.True(t, domain.IsValidation(err))

	_, err = rl.Create(h, "tee-oxford-001", 4, strings.Repeat(" ", 40)+"hi")
	assert.True(t, domain.IsValidation(err), "whitespace must not count toward length")
}

func TestVoteFlipScenario(t *testing.T) {
	rl, _ := newLedgers()
	author := domain.Handle{Email: "author@x.com"}
	r, err := rl.Create(author, "tee-oxford-001", 5, "great fit, soft fabric, would buy again")
	require.NoError(t, err)

	u1 := domain.Handle{CustomerID: "u1", Email: "u1@x.com"}
	u2 := domain.Handle{CustomerID: "u2", Email: "u2@x.com"}

	n, err := rl.Vote(r.ID, u1, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = rl.Vote(r.ID, u2, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// first customer flips to not helpful
	n, err = rl.Vote(r.ID, u1, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestVoteIdempotence(t *testing.T) {
	rl, _ := newLedgers()
	author := domain.Handle{Email: "author@x.com"}
	r, err := rl.Create(author, "tee-oxford-001", 5, "great fit, soft fabric, would buy again")
	require.NoError(t, err)

	u := domain.Handle{CustomerID: "u1", Email: "u1@x.com"}

	// vote then repeat: net effect is no vote at all
	n, err := rl.Vote(r.ID, u, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = rl.Vote(r.ID, u, true)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// re-voting after the un-vote returns to the original count
	n, err = rl.Vote(r.ID, u, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = rl.Vote("missing", u, true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStats(t *testing.T) {
	rl, _ := newLedgers()
	ratings := map[string]int{"a@x.com": 5, "b@x.com": 4, "c@x.com": 4, "d@x.com": 2}
	for email, rating := range ratings {
		_, err := rl.Create(domain.Handle{Email: email}, "tee-oxford-001", rating, "solid tee, holds shape after washing")
		require.NoError(t, err)
	}

	stats, err := rl.Stats("tee-oxford-001")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalReviews)
	assert.Equal(t, 3.8, stats.AverageRating, "average rounds to one decimal")
	assert.Equal(t, map[int]int{1: 0, 2: 1, 3: 0, 4: 2, 5: 1}, stats.Distribution)

	empty, err := rl.Stats("hood-ember-001")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalReviews)
	assert.Equal(t, 0.0, empty.AverageRating)
}
