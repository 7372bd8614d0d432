package store_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loomline/internal/domain"
	"loomline/internal/store"
	"loomline/internal/store/memory"
	"loomline/internal/store/sqlite"
)

// Both backends must satisfy the same contracts; every case below runs
// against each of them.
func eachBackend(t *testing.T, fn func(t *testing.T, st *store.Stores)) {
	t.Helper()
	t.Run("memory", func(t *testing.T) {
		m := memory.New()
		fn(t, &store.Stores{Customers: m.Customers(), Orders: m.Orders(), Reviews: m.Reviews()})
	})
	t.Run("sqlite", func(t *testing.T) {
		db, err := sqlite.Open(":memory:")
		require.NoError(t, err)
		fn(t, &store.Stores{
			Customers: sqlite.NewCustomerStore(db),
			Orders:    sqlite.NewOrderStore(db),
			Reviews:   sqlite.NewReviewStore(db),
		})
	})
}

func customer(id, email string) *domain.Customer {
	now := time.Now().UTC()
	return &domain.Customer{
		ID: id, Email: email, DisplayName: "Test", Hash: "x", Role: domain.RoleCustomer,
		CreatedAt: now, UpdatedAt: now,
	}
}

func order(id, display, custID, email string, createdAt time.Time) *domain.Order {
	return &domain.Order{
		ID: id, DisplayOrderID: display, CustomerID: custID, CustomerEmail: email,
		Status: domain.OrderPending, PaymentMethod: domain.PayCashOnDelivery,
		PaymentStatus: domain.PaymentPending,
		Items: []domain.OrderItem{
			{ProductID: "tee-oxford-001", Name: "Oxford Cotton Tee", UnitPrice: 1000, Size: "M", Quantity: 2},
		},
		Subtotal: 2000, Shipping: 99, Total: 2099,
		CreatedAt: createdAt, UpdatedAt: createdAt,
	}
}

func review(id, productID, email string) *domain.Review {
	now := time.Now().UTC()
	return &domain.Review{
		ID: id, ProductID: productID, CustomerID: "c-" + id, CustomerEmail: email,
		DisplayName: "Test", Rating: 5, Comment: "fits perfectly, lovely fabric",
		Status: domain.ReviewApproved, CreatedAt: now, UpdatedAt: now,
	}
}

func TestCustomerStoreContract(t *testing.T) {
	eachBackend(t, func(t *testing.T, st *store.Stores) {
		require.NoError(t, st.Customers.Create(customer("c1", "a@x.com")))

		got, err := st.Customers.ByEmail("a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "c1", got.ID)

		got, err = st.Customers.ByID("c1")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", got.Email)

		err = st.Customers.Create(customer("c2", "a@x.com"))
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

		_, err = st.Customers.ByEmail("nobody@x.com")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestOrderStoreIndexes(t *testing.T) {
	eachBackend(t, func(t *testing.T, st *store.Stores) {
		t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

		// one order indexed only by customer id (legacy), two by email
		legacy := order("o1", "LM-AAAA0001", "cust-1", "", t0)
		require.NoError(t, st.Orders.Create(legacy))
		require.NoError(t, st.Orders.Create(order("o2", "LM-AAAA0002", "cust-1", "a@x.com", t0.Add(time.Hour))))
		require.NoError(t, st.Orders.Create(order("o3", "LM-AAAA0003", "", "a@x.com", t0.Add(2*time.Hour))))

		got, err := st.Orders.ByID("o2")
		require.NoError(t, err)
		assert.Equal(t, "LM-AAAA0002", got.DisplayOrderID)
		assert.Len(t, got.Items, 1)
		assert.Equal(t, 2099.0, got.Total)

		got, err = st.Orders.ByDisplayID("LM-AAAA0003")
		require.NoError(t, err)
		assert.Equal(t, "o3", got.ID)

		byEmail, err := st.Orders.ListByEmail("a@x.com")
		require.NoError(t, err)
		require.Len(t, byEmail, 2)
		assert.Equal(t, "o3", byEmail[0].ID, "newest first")
		assert.Equal(t, "o2", byEmail[1].ID)

		byCust, err := st.Orders.ListByCustomerID("cust-1")
		require.NoError(t, err)
		assert.Len(t, byCust, 2)

		_, err = st.Orders.ByID("missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestOrderStoreDisplayIDUnique(t *testing.T) {
	eachBackend(t, func(t *testing.T, st *store.Stores) {
		t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		first := order("o1", "LM-SAME0001", "cust-1", "a@x.com", t0)
		require.NoError(t, st.Orders.Create(first))

		err := st.Orders.Create(order("o2", "LM-SAME0001", "cust-2", "b@x.com", t0.Add(time.Hour)))
		assert.True(t, domain.IsValidation(err), "reused display order id must be rejected")

		// the original mapping survives the rejected write
		got, err := st.Orders.ByDisplayID("LM-SAME0001")
		require.NoError(t, err)
		assert.Equal(t, "o1", got.ID)
	})
}

func TestOrderStoreListAllCap(t *testing.T) {
	eachBackend(t, func(t *testing.T, st *store.Stores) {
		t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		for i := 0; i < 105; i++ {
			o := order(fmt.Sprintf("o%03d", i), fmt.Sprintf("LM-CAP%05d", i), "cust-1", "a@x.com", t0.Add(time.Duration(i)*time.Minute))
			require.NoError(t, st.Orders.Create(o))
		}

		all, err := st.Orders.ListAll(0)
		require.NoError(t, err)
		assert.Len(t, all, 100, "no limit defaults to the 100-row cap")
		assert.Equal(t, "o104", all[0].ID, "newest first")

		few, err := st.Orders.ListAll(5)
		require.NoError(t, err)
		assert.Len(t, few, 5)
	})
}

func TestReviewStoreDuplicate(t *testing.T) {
	eachBackend(t, func(t *testing.T, st *store.Stores) {
		require.NoError(t, st.Reviews.Create(review("r1", "tee-oxford-001", "a@x.com")))

		err := st.Reviews.Create(review("r2", "tee-oxford-001", "a@x.com"))
		assert.ErrorIs(t, err, domain.ErrDuplicateReview)

		// different product or different customer is fine
		require.NoError(t, st.Reviews.Create(review("r3", "hood-ember-001", "a@x.com")))
		require.NoError(t, st.Reviews.Create(review("r4", "tee-oxford-001", "b@x.com")))
	})
}

func TestApplyVoteKeepsCountConsistent(t *testing.T) {
	eachBackend(t, func(t *testing.T, st *store.Stores) {
		require.NoError(t, st.Reviews.Create(review("r1", "tee-oxford-001", "author@x.com")))

		vote := func(email string, helpful bool) int {
			t.Helper()
			n, err := st.Reviews.ApplyVote("r1", "c-"+email, email, helpful)
			require.NoError(t, err)
			return n
		}
		check := func(wantCount int) {
			t.Helper()
			r, err := st.Reviews.ByID("r1")
			require.NoError(t, err)
			assert.Equal(t, wantCount, r.HelpfulCount)

			votes, err := st.Reviews.VotesFor("r1")
			require.NoError(t, err)
			helpful := 0
			for _, v := range votes {
				if v.Helpful {
					helpful++
				}
			}
			assert.Equal(t, wantCount, helpful, "helpfulCount must equal stored helpful votes")
		}

		assert.Equal(t, 1, vote("u1@x.com", true))
		assert.Equal(t, 2, vote("u2@x.com", true))
		check(2)

		// flip: u1 now says not helpful
		assert.Equal(t, 1, vote("u1@x.com", false))
		check(1)

		// same polarity again: un-vote, no count change for not-helpful
		assert.Equal(t, 1, vote("u1@x.com", false))
		check(1)

		// un-vote the helpful one
		assert.Equal(t, 0, vote("u2@x.com", true))
		check(0)

		// not-helpful votes never push the count below zero
		assert.Equal(t, 0, vote("u3@x.com", false))
		check(0)

		_, err := st.Reviews.ApplyVote("missing", "c", "u1@x.com", true)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
