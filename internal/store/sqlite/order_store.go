package sqlite

import (
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"loomline/internal/domain"
)

type OrderStore struct{ db *sqlx.DB }

func NewOrderStore(db *sqlx.DB) *OrderStore { return &OrderStore{db: db} }

type orderRow struct {
	ID          string  `db:"id"`
	DisplayID   string  `db:"display_order_id"`
	CustomerID  string  `db:"customer_id"`
	Email       string  `db:"customer_email"`
	Status      string  `db:"status"`
	PayMethod   string  `db:"payment_method"`
	PayStatus   string  `db:"payment_status"`
	Subtotal    float64 `db:"subtotal"`
	Shipping    float64 `db:"shipping"`
	Total       float64 `db:"total"`
	AddressJSON string  `db:"address_json"`
	CreatedAt   string  `db:"created_at"`
	UpdatedAt   string  `db:"updated_at"`
}

type itemRow struct {
	OrderID   string          `db:"order_id"`
	LineNo    int             `db:"line_no"`
	ProductID string          `db:"product_id"`
	Name      string          `db:"name"`
	UnitPrice float64         `db:"unit_price"`
	CompareAt sql.NullFloat64 `db:"compare_at_price"`
	Size      string          `db:"size"`
	Qty       int             `db:"qty"`
	ImageRef  string          `db:"image_ref"`
}

func (r orderRow) toDomain(items []domain.OrderItem) domain.Order {
	var addr domain.Address
	if r.AddressJSON != "" {
		_ = json.Unmarshal([]byte(r.AddressJSON), &addr)
	}
	return domain.Order{
		ID:             r.ID,
		DisplayOrderID: r.DisplayID,
		CustomerID:     r.CustomerID,
		CustomerEmail:  r.Email,
		Status:         domain.OrderStatus(r.Status),
		PaymentMethod:  domain.PaymentMethod(r.PayMethod),
		PaymentStatus:  domain.PaymentStatus(r.PayStatus),
		Items:          items,
		Subtotal:       r.Subtotal,
		Shipping:       r.Shipping,
		Total:          r.Total,
		ShippingAddr:   addr,
		CreatedAt:      parseTime(r.CreatedAt),
		UpdatedAt:      parseTime(r.UpdatedAt),
	}
}

func (r itemRow) toDomain() domain.OrderItem {
	return domain.OrderItem{
		ProductID:      r.ProductID,
		Name:           r.Name,
		UnitPrice:      r.UnitPrice,
		CompareAtPrice: r.CompareAt.Float64,
		Size:           r.Size,
		Quantity:       r.Qty,
		ImageRef:       r.ImageRef,
	}
}

// Create inserts the header and every line item in one transaction, so
// the order is never visible half indexed.
func (s *OrderStore) Create(o *domain.Order) error {
	addr, err := json.Marshal(o.ShippingAddr)
	if err != nil {
		return errors.Wrap(err, "orders: marshal address")
	}
	tx, err := s.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "orders: begin")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
	  INSERT INTO orders(id,display_order_id,customer_id,customer_email,status,
	    payment_method,payment_status,subtotal,shipping,total,address_json,created_at,updated_at)
	  VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, o.ID, o.DisplayOrderID, o.CustomerID, o.CustomerEmail, o.Status,
		o.PaymentMethod, o.PaymentStatus, o.Subtotal, o.Shipping, o.Total,
		string(addr), fmtTime(o.CreatedAt), fmtTime(o.UpdatedAt))
	if isUniqueViolation(err) {
		return domain.Invalid("displayOrderId", "already exists")
	}
	if err != nil {
		return errors.Wrap(err, "orders: insert")
	}

	for i, it := range o.Items {
		var compareAt any
		if it.CompareAtPrice > 0 {
			compareAt = it.CompareAtPrice
		}
		if _, err := tx.Exec(`
		  INSERT INTO order_items(order_id,line_no,product_id,name,unit_price,compare_at_price,size,qty,image_ref)
		  VALUES(?,?,?,?,?,?,?,?,?)
		`, o.ID, i+1, it.ProductID, it.Name, it.UnitPrice, compareAt, it.Size, it.Quantity, it.ImageRef); err != nil {
			return errors.Wrap(err, "orders: insert item")
		}
	}
	return errors.Wrap(tx.Commit(), "orders: commit")
}

func (s *OrderStore) ByID(id string) (*domain.Order, error) {
	return s.one(`SELECT * FROM orders WHERE id=?`, id)
}

func (s *OrderStore) ByDisplayID(displayID string) (*domain.Order, error) {
	return s.one(`SELECT * FROM orders WHERE display_order_id=?`, displayID)
}

func (s *OrderStore) one(query string, arg any) (*domain.Order, error) {
	var r orderRow
	if err := s.db.Get(&r, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "orders: select")
	}
	items, err := s.itemsFor([]string{r.ID})
	if err != nil {
		return nil, err
	}
	o := r.toDomain(items[r.ID])
	return &o, nil
}

func (s *OrderStore) ListByEmail(normEmail string) ([]domain.Order, error) {
	return s.list(`SELECT * FROM orders WHERE LOWER(customer_email)=LOWER(?) ORDER BY created_at DESC, rowid DESC`, normEmail)
}

func (s *OrderStore) ListByCustomerID(customerID string) ([]domain.Order, error) {
	return s.list(`SELECT * FROM orders WHERE customer_id=? ORDER BY created_at DESC, rowid DESC`, customerID)
}

func (s *OrderStore) ListAll(limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.list(`SELECT * FROM orders ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
}

func (s *OrderStore) list(query string, args ...any) ([]domain.Order, error) {
	var rows []orderRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "orders: list")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	items, err := s.itemsFor(ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain(items[r.ID]))
	}
	return out, nil
}

func (s *OrderStore) itemsFor(orderIDs []string) (map[string][]domain.OrderItem, error) {
	query, args, err := sqlx.In(`SELECT * FROM order_items WHERE order_id IN (?) ORDER BY order_id, line_no`, orderIDs)
	if err != nil {
		return nil, errors.Wrap(err, "orders: items query")
	}
	var rows []itemRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "orders: items")
	}
	out := map[string][]domain.OrderItem{}
	for _, r := range rows {
		out[r.OrderID] = append(out[r.OrderID], r.toDomain())
	}
	return out, nil
}

// Update rewrites the header only; line items are an immutable snapshot.
func (s *OrderStore) Update(o *domain.Order) error {
	res, err := s.db.Exec(`
	  UPDATE orders SET status=?, payment_status=?, updated_at=? WHERE id=?
	`, o.Status, o.PaymentStatus, fmtTime(o.UpdatedAt), o.ID)
	if err != nil {
		return errors.Wrap(err, "orders: update")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
