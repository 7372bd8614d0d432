package sqlite

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"loomline/internal/domain"
)

type CustomerStore struct{ db *sqlx.DB }

func NewCustomerStore(db *sqlx.DB) *CustomerStore { return &CustomerStore{db: db} }

type customerRow struct {
	ID        string         `db:"id"`
	Email     string         `db:"email"`
	Phone     sql.NullString `db:"phone"`
	Name      string         `db:"display_name"`
	Hash      string         `db:"password_hash"`
	Role      string         `db:"role"`
	CreatedAt string         `db:"created_at"`
	UpdatedAt string         `db:"updated_at"`
}

func (r customerRow) toDomain() domain.Customer {
	return domain.Customer{
		ID:          r.ID,
		Email:       r.Email,
		Phone:       r.Phone.String,
		DisplayName: r.Name,
		Hash:        r.Hash,
		Role:        r.Role,
		CreatedAt:   parseTime(r.CreatedAt),
		UpdatedAt:   parseTime(r.UpdatedAt),
	}
}

func (s *CustomerStore) Create(c *domain.Customer) error {
	_, err := s.db.Exec(`
	  INSERT INTO customers(id,email,phone,display_name,password_hash,role,created_at,updated_at)
	  VALUES(?,?,?,?,?,?,?,?)
	`, c.ID, c.Email, c.Phone, c.DisplayName, c.Hash, c.Role, fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt))
	if isUniqueViolation(err) {
		return domain.ErrDuplicateEmail
	}
	if err != nil {
		return errors.Wrap(err, "customers: insert")
	}
	return nil
}

func (s *CustomerStore) ByID(id string) (*domain.Customer, error) {
	return s.one(`SELECT * FROM customers WHERE id=?`, id)
}

func (s *CustomerStore) ByEmail(normEmail string) (*domain.Customer, error) {
	return s.one(`SELECT * FROM customers WHERE LOWER(email)=LOWER(?)`, normEmail)
}

func (s *CustomerStore) one(query string, arg any) (*domain.Customer, error) {
	var r customerRow
	if err := s.db.Get(&r, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "customers: select")
	}
	c := r.toDomain()
	return &c, nil
}

func (s *CustomerStore) Update(c *domain.Customer) error {
	res, err := s.db.Exec(`
	  UPDATE customers SET email=?, phone=?, display_name=?, password_hash=?, role=?, updated_at=?
	  WHERE id=?
	`, c.Email, c.Phone, c.DisplayName, c.Hash, c.Role, fmtTime(c.UpdatedAt), c.ID)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateEmail
	}
	if err != nil {
		return errors.Wrap(err, "customers: update")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *CustomerStore) List() ([]domain.Customer, error) {
	var rows []customerRow
	if err := s.db.Select(&rows, `SELECT * FROM customers ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "customers: list")
	}
	out := make([]domain.Customer, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
