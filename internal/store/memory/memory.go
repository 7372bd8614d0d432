// Package memory is the ephemeral storage backend: process-lifetime maps
// with secondary indexes. Every operation takes the owning family's lock
// for its whole read-modify-write span, so multi-index inserts and the
// vote toggle are atomic with respect to concurrent requests. All state
// is lost on a cold restart; the identity resolver's degraded-handle path
// exists to survive that.
package memory

import (
	"sort"
	"sync"
	"time"

	"loomline/internal/domain"
)

type Store struct {
	customers *customerStore
	orders    *orderStore
	reviews   *reviewStore
}

func New() *Store {
	return &Store{
		customers: &customerStore{byID: map[string]domain.Customer{}, byEmail: map[string]string{}},
		orders: &orderStore{
			byID:       map[string]domain.Order{},
			byDisplay:  map[string]string{},
			byCustomer: map[string][]string{},
			byEmail:    map[string][]string{},
			seq:        map[string]int64{},
		},
		reviews: &reviewStore{
			byID:        map[string]domain.Review{},
			byProdEmail: map[string]string{},
			byProduct:   map[string][]string{},
			votes:       map[string]domain.ReviewVote{},
		},
	}
}

func (s *Store) Customers() *customerStore { return s.customers }
func (s *Store) Orders() *orderStore       { return s.orders }
func (s *Store) Reviews() *reviewStore     { return s.reviews }

// ---------- customers ----------

type customerStore struct {
	mu      sync.Mutex
	byID    map[string]domain.Customer
	byEmail map[string]string // normalized email -> id
}

func (s *customerStore) Create(c *domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[c.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	s.byID[c.ID] = *c
	s.byEmail[c.Email] = c.ID
	return nil
}

func (s *customerStore) ByID(id string) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (s *customerStore) ByEmail(normEmail string) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[normEmail]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := s.byID[id]
	return &c, nil
}

func (s *customerStore) Update(c *domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.byID[c.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if old.Email != c.Email {
		if _, taken := s.byEmail[c.Email]; taken {
			return domain.ErrDuplicateEmail
		}
		delete(s.byEmail, old.Email)
		s.byEmail[c.Email] = c.ID
	}
	s.byID[c.ID] = *c
	return nil
}

func (s *customerStore) List() ([]domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Customer, 0, len(s.byID))
	for _, c := range s.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---------- orders ----------

type orderStore struct {
	mu         sync.Mutex
	byID       map[string]domain.Order
	byDisplay  map[string]string   // display order id -> id
	byCustomer map[string][]string // customer id -> ids
	byEmail    map[string][]string // normalized email -> ids
	seq        map[string]int64    // id -> insertion sequence, for stable ordering
	nextSeq    int64
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return o
}

// Create writes the order under all three indexes while holding the lock,
// so a concurrent reader never observes a partially indexed order.
func (s *orderStore) Create(o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[o.ID]; ok {
		return domain.Invalid("id", "order id already exists")
	}
	if o.DisplayOrderID != "" {
		if _, ok := s.byDisplay[o.DisplayOrderID]; ok {
			return domain.Invalid("displayOrderId", "already exists")
		}
	}
	s.byID[o.ID] = cloneOrder(*o)
	if o.DisplayOrderID != "" {
		s.byDisplay[o.DisplayOrderID] = o.ID
	}
	if o.CustomerID != "" {
		s.byCustomer[o.CustomerID] = append(s.byCustomer[o.CustomerID], o.ID)
	}
	if o.CustomerEmail != "" {
		s.byEmail[o.CustomerEmail] = append(s.byEmail[o.CustomerEmail], o.ID)
	}
	s.nextSeq++
	s.seq[o.ID] = s.nextSeq
	return nil
}

func (s *orderStore) ByID(id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (s *orderStore) ByDisplayID(displayID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byDisplay[displayID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	o := cloneOrder(s.byID[id])
	return &o, nil
}

func (s *orderStore) ListByEmail(normEmail string) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(s.byEmail[normEmail]), nil
}

func (s *orderStore) ListByCustomerID(customerID string) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(s.byCustomer[customerID]), nil
}

func (s *orderStore) ListAll(limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	out := s.collect(ids)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// collect materializes ids newest-first; insertion sequence breaks
// createdAt ties.
func (s *orderStore) collect(ids []string) []domain.Order {
	out := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneOrder(s.byID[id]))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.seq[out[i].ID] > s.seq[out[j].ID]
	})
	return out
}

func (s *orderStore) Update(o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[o.ID]; !ok {
		return domain.ErrNotFound
	}
	s.byID[o.ID] = cloneOrder(*o)
	return nil
}

// ---------- reviews & votes ----------

type reviewStore struct {
	mu          sync.Mutex
	byID        map[string]domain.Review
	byProdEmail map[string]string   // productID + "\x00" + email -> review id
	byProduct   map[string][]string // productID -> review ids
	votes       map[string]domain.ReviewVote // reviewID + "\x00" + email
}

func prodEmailKey(productID, email string) string { return productID + "\x00" + email }
func voteKey(reviewID, email string) string       { return reviewID + "\x00" + email }

func (s *reviewStore) Create(r *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := prodEmailKey(r.ProductID, r.CustomerEmail)
	if _, ok := s.byProdEmail[key]; ok {
		return domain.ErrDuplicateReview
	}
	s.byID[r.ID] = *r
	s.byProdEmail[key] = r.ID
	s.byProduct[r.ProductID] = append(s.byProduct[r.ProductID], r.ID)
	return nil
}

func (s *reviewStore) ByID(id string) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (s *reviewStore) ByProductAndEmail(productID, normEmail string) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byProdEmail[prodEmailKey(productID, normEmail)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r := s.byID[id]
	return &r, nil
}

func (s *reviewStore) ListByProduct(productID string) ([]domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.byProduct[productID]
	out := make([]domain.Review, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *reviewStore) Update(r *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[r.ID]; !ok {
		return domain.ErrNotFound
	}
	s.byID[r.ID] = *r
	return nil
}

// ApplyVote holds the lock for the whole toggle, keeping helpfulCount
// equal to the number of stored helpful=true votes at all times.
func (s *reviewStore) ApplyVote(reviewID, customerID, normEmail string, helpful bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[reviewID]
	if !ok {
		return 0, domain.ErrNotFound
	}

	key := voteKey(reviewID, normEmail)
	var prior *bool
	if v, ok := s.votes[key]; ok {
		prior = &v.Helpful
	}
	action, delta := domain.ResolveVote(prior, helpful)
	switch action {
	case domain.VoteInsert, domain.VoteFlip:
		s.votes[key] = domain.ReviewVote{
			ReviewID:      reviewID,
			CustomerID:    customerID,
			CustomerEmail: normEmail,
			Helpful:       helpful,
			CreatedAt:     time.Now().UTC(),
		}
	case domain.VoteRemove:
		delete(s.votes, key)
	}

	r.HelpfulCount += delta
	if r.HelpfulCount < 0 {
		r.HelpfulCount = 0
	}
	r.UpdatedAt = time.Now().UTC()
	s.byID[reviewID] = r
	return r.HelpfulCount, nil
}

func (s *reviewStore) VotesFor(reviewID string) ([]domain.ReviewVote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ReviewVote
	for _, v := range s.votes {
		if v.ReviewID == reviewID {
			out = append(out, v)
		}
	}
	return out, nil
}
